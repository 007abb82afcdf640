package logger

import corelogger "github.com/milops/convoyd/core/logger"

// Logger mirrors the core logger interface so infra packages can accept
// either.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. Output format and level
// follow the APP_ENV and LOG_LEVEL environment variables.
func New(component string) Logger {
	return NewZerologLogger(component)
}
