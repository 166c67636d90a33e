package logger

import corelogger "github.com/mfragab5890/ev-stats/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards every message.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The output format is
// detected via the APP_ENV variable and the level defaults to info.
func New(component string) Logger {
	return NewZerologLogger(component, Options{})
}
