package fusion

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum spacing between expensive analysis runs
// per convoy, independent of any UI refresh cadence. It is a last-call
// timestamp map with an interval check, injected into the engine.
type RateLimiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration
}

// NewRateLimiter creates a limiter with the given minimum interval. A
// non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{last: make(map[string]time.Time), interval: interval}
}

// Allow reports whether a run may start for the convoy at now, recording
// the call time when it may.
func (r *RateLimiter) Allow(convoyID string, now time.Time) bool {
	if r.interval <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.last[convoyID]; ok && now.Sub(last) < r.interval {
		return false
	}
	r.last[convoyID] = now
	return true
}

// Reset clears the last-call record for a convoy, e.g. when the operator
// deselects it.
func (r *RateLimiter) Reset(convoyID string) {
	r.mu.Lock()
	delete(r.last, convoyID)
	r.mu.Unlock()
}

// InflightGuard prevents two concurrent fusion runs for the same convoy.
// A second concurrent request is skipped, never queued.
type InflightGuard struct {
	mu      sync.Mutex
	running map[string]bool
}

// NewInflightGuard creates an empty guard.
func NewInflightGuard() *InflightGuard {
	return &InflightGuard{running: make(map[string]bool)}
}

// Begin marks the convoy in-flight. It returns false when a run is already
// active for the convoy.
func (g *InflightGuard) Begin(convoyID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[convoyID] {
		return false
	}
	g.running[convoyID] = true
	return true
}

// End releases the in-flight mark.
func (g *InflightGuard) End(convoyID string) {
	g.mu.Lock()
	delete(g.running, convoyID)
	g.mu.Unlock()
}
