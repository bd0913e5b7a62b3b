package fsae

import "go.uber.org/zap"

var logger = zap.NewNop().Sugar()

// SetLogger installs l as fsae's structured logger; nil restores the
// no-op default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop().Sugar()
		return
	}
	logger = l.Sugar()
}
