// Package logger declares the logging contract the core packages depend
// on. The zerolog-backed implementation lives in infra/logger; core code
// never imports a logging library directly.
package logger

// Logger is the leveled logging surface used throughout the engine.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a debug message with structured fields attached.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything. Packages accepting an optional Logger
// substitute it for nil.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
