// Package monitoring defines the error-reporting contract. The Sentry
// implementation lives in infra/monitoring.
package monitoring

import "time"

// Monitor reports errors and panics to an external tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

// NopMonitor discards everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init installs the process-wide monitor.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags on the installed
// monitor.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// Recover captures a panic in the calling goroutine and rethrows it.
func Recover() {
	current.Recover()
}

// Flush blocks until buffered events are delivered or the timeout elapses.
func Flush(d time.Duration) {
	current.Flush(d)
}
