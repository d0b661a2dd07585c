// Package obslog provides the structured logger shared across the
// substrate's packages, backed by rs/zerolog. Package init installs a
// console logger on stderr; SetDefault replaces it for later Get and
// Component calls. The alloc, task and ecs packages call Component once,
// at package initialization, so they keep the logger installed then.
package obslog

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var defaultLogger atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	defaultLogger.Store(&l)
}

// SetDefault installs l as the logger future Get calls return.
func SetDefault(l zerolog.Logger) {
	defaultLogger.Store(&l)
}

// Get returns the currently installed default logger.
func Get() *zerolog.Logger {
	return defaultLogger.Load()
}

// Component returns a child logger with a "component" field set, for
// tagging log lines from a specific package (task, alloc, ecs, ...).
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}
