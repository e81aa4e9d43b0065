// Package xlog is a thin wrapper over github.com/rs/zerolog, mirroring
// the teacher's own logger.Logger().With()... idiom (see
// internal/backend/*/cs's `log := logger.Logger().With().Str("curve",
// ...).Int("nbConstraints", ...).Logger()` call sites): a package-level
// default logger plus a With-style constructor for call sites that want
// to tag every line with a few fields (node counts, sample size, ...).
package xlog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	current = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Logger returns the current process-wide logger. Safe for concurrent use.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetOutput redirects the default logger to w, preserving its level.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	current = current.Output(w)
}

// SetLevel adjusts the minimum level the default logger emits.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	current = current.Level(level)
}

// With returns a child logger tagged with the given component name, for
// call sites that log more than once (the simulator, the pruning pass).
func With(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}
