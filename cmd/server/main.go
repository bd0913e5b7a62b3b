package main

import (
	"net/http"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/areumfire/mpce-go/internal/config"
	"github.com/areumfire/mpce-go/internal/engine"
	"github.com/areumfire/mpce-go/internal/fsae"
	"github.com/areumfire/mpce-go/internal/httpapi"
)

// corsMiddleware adds CORS headers and handles preflight requests.
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "content-type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// correlationMiddleware stamps every request with a request id, echoed back
// on the response and included in the per-request log line written here;
// the handlers' own log lines do not carry it.
func correlationMiddleware(logger *zap.SugaredLogger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		logger.Infow("request", "method", r.Method, "path", r.URL.Path, "requestId", requestID)
		next(w, r)
	}
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	engine.SetLogger(logger)
	fsae.SetLogger(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &httpapi.Server{Logger: sugar}

	if path := os.Getenv("MPCE_CONFIG"); path != "" {
		cfg, err := config.LoadMPCEConfig(path)
		if err != nil {
			sugar.Fatalw("failed to load mpce config", "error", err)
		}
		if err := engine.Validate(cfg); err != nil {
			sugar.Fatalw("mpce config failed validation", "error", err)
		}
		server.MPCEConfig = cfg
	}

	schedule, err := loadFSAESchedule()
	if err != nil {
		sugar.Fatalw("failed to load fsae schedule", "error", err)
	}
	server.FSAESchedule = schedule

	mux := http.NewServeMux()
	mux.HandleFunc("/health", corsMiddleware(correlationMiddleware(sugar, server.HandleHealth)))
	mux.HandleFunc("/mpce/calculate", corsMiddleware(correlationMiddleware(sugar, server.HandleMPCECalculate)))
	mux.HandleFunc("/fsae/calculate", corsMiddleware(correlationMiddleware(sugar, server.HandleFSAECalculate)))

	sugar.Infow("mpce-go server listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		sugar.Fatalw("server exited", "error", err)
	}
}

func loadFSAESchedule() (*fsae.TaxSchedule, error) {
	if path := os.Getenv("FSAE_CONFIG"); path != "" {
		return config.LoadFSAESchedule(path)
	}
	return config.DefaultFSAESchedule()
}
