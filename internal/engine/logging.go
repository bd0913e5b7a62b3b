package engine

import "go.uber.org/zap"

// logger defaults to a no-op so importing this package costs nothing unless
// a host application opts in. This replaces the reference codebase's
// compile-time SIMULATION_VERBOSITY tiers with runtime zap levels: Debug
// carries one-time config markup and per-call coverage-level resolution,
// Info carries per-call summaries (household size, plan count, elapsed time).
var logger = zap.NewNop().Sugar()

// SetLogger installs the logger used by the engine package. Passing nil
// restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop().Sugar()
		return
	}
	logger = l.Sugar()
}
