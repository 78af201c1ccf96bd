// Package logger holds the process-wide zap logger the portal logs
// through. Subsystems pull module-scoped children via WithModule.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	root = zap.NewNop()
)

// Init builds the production logger at the requested level and installs
// it as the root. Unparseable levels fall back to info rather than
// failing startup.
func Init(level string) error {
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	root = built
	mu.Unlock()
	return nil
}

// Logger returns the current root logger. Before Init it is a nop, so
// packages may log unconditionally.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// WithModule returns a child logger tagged with the owning subsystem
// ("http", "maintenance", "dispatch", ...).
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// Sync flushes buffered entries; main defers it on shutdown.
func Sync() error {
	return Logger().Sync()
}
