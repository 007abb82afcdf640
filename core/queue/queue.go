// Package queue maintains the ordered set of open convoy movement
// requests. Ordering follows (priority severity, wait time, insertion
// order) and every mutation is atomic under one lock so readers never see
// a torn ordering.
package queue

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/milops/convoyd/core/logger"
	"github.com/milops/convoyd/core/model"
)

// ErrDuplicateRequest is returned when a convoy already has an open request.
var ErrDuplicateRequest = errors.New("queue: convoy already has an open request")

// ErrNotQueued is returned when no open request exists for a convoy.
var ErrNotQueued = errors.New("queue: no open request for convoy")

// ValidationError wraps an ingestion rejection for a malformed request.
type ValidationError struct {
	ConvoyID string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("queue: invalid request for convoy %s: %v", e.ConvoyID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Manager owns the set of open ConvoyRequests.
type Manager struct {
	mu   sync.Mutex
	open map[string]model.ConvoyRequest
	seq  int
	log  logger.Logger
}

// NewManager creates an empty queue. A nil logger is replaced with a no-op.
func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Manager{open: make(map[string]model.ConvoyRequest), log: log}
}

// FromConvoy derives a movement request from upstream convoy data. The
// cargo class is inferred from naming conventions with STORES as fallback,
// and the priority class from cargo and situational flags.
func FromConvoy(c model.Convoy, now time.Time) model.ConvoyRequest {
	cargo := InferCargo(c.Name)
	medical := cargo == model.CargoMedical || cargo == model.CargoEvacuation
	return model.ConvoyRequest{
		ConvoyID:     c.ID,
		Name:         c.Name,
		Cargo:        cargo,
		Priority:     model.DerivePriority(cargo, medical),
		Vehicles:     c.Vehicles,
		Personnel:    c.Personnel,
		FuelPct:      c.FuelPct,
		HealthPct:    c.HealthPct,
		Crew:         c.Crew,
		CheckpointID: c.CheckpointID,
		RouteID:      c.RouteID,
		MedicalFlag:  medical,
		EnqueuedAt:   now,
	}
}

// Enqueue validates and inserts a request. Malformed requests are rejected
// with a ValidationError and never enqueued; a convoy with an open request
// is rejected with ErrDuplicateRequest.
func (m *Manager) Enqueue(req model.ConvoyRequest) error {
	if err := req.Validate(); err != nil {
		return &ValidationError{ConvoyID: req.ConvoyID, Err: err}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.open[req.ConvoyID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, req.ConvoyID)
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}
	m.seq++
	req.SequenceIndex = m.seq
	m.open[req.ConvoyID] = req
	m.log.Debugw("request enqueued", map[string]any{
		"convoy_id": req.ConvoyID,
		"cargo":     req.Cargo.String(),
		"priority":  req.Priority.String(),
	})
	return nil
}

// Get returns the open request for a convoy.
func (m *Manager) Get(convoyID string) (model.ConvoyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.open[convoyID]
	if !ok {
		return model.ConvoyRequest{}, fmt.Errorf("%w: %s", ErrNotQueued, convoyID)
	}
	return req, nil
}

// Remove deletes the open request for a convoy, returning it. Called
// exactly when a commander decision is recorded.
func (m *Manager) Remove(convoyID string) (model.ConvoyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.open[convoyID]
	if !ok {
		return model.ConvoyRequest{}, fmt.Errorf("%w: %s", ErrNotQueued, convoyID)
	}
	delete(m.open, convoyID)
	m.log.Infof("request for convoy %s removed from queue", convoyID)
	return req, nil
}

// Len returns the number of open requests.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

// Pending returns the open requests ordered for dispatch: higher priority
// first, longer wait first within a tier, insertion order breaking ties.
func (m *Manager) Pending(now time.Time) []model.ConvoyRequest {
	m.mu.Lock()
	reqs := make([]model.ConvoyRequest, 0, len(m.open))
	for _, r := range m.open {
		reqs = append(reqs, r)
	}
	m.mu.Unlock()

	sort.SliceStable(reqs, func(i, j int) bool {
		if reqs[i].Priority.Rank() != reqs[j].Priority.Rank() {
			return reqs[i].Priority.Rank() < reqs[j].Priority.Rank()
		}
		wi, wj := reqs[i].WaitTime(now), reqs[j].WaitTime(now)
		if wi != wj {
			return wi > wj
		}
		return reqs[i].SequenceIndex < reqs[j].SequenceIndex
	})
	return reqs
}
