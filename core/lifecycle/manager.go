// Package lifecycle issues recommendation identities and tracks each
// recommendation through expiry and the commander approval workflow.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/milops/convoyd/core/logger"
	"github.com/milops/convoyd/core/model"
)

var (
	// ErrUnknownRecommendation is returned for an id never issued.
	ErrUnknownRecommendation = errors.New("lifecycle: unknown recommendation")
	// ErrDecisionConflict is returned when a recommendation already
	// carries a commander decision. The original decision is preserved.
	ErrDecisionConflict = errors.New("lifecycle: recommendation already decided")
	// ErrSuperseded is returned when a newer recommendation has been
	// issued for the same convoy.
	ErrSuperseded = errors.New("lifecycle: recommendation superseded")
	// ErrExpired is returned when the recommendation expired before the
	// decision was submitted.
	ErrExpired = errors.New("lifecycle: recommendation expired")
	// ErrInvalidOutcome is returned for an unknown decision outcome.
	ErrInvalidOutcome = errors.New("lifecycle: invalid decision outcome")
)

// timeNow is overridable in tests.
var timeNow = time.Now

// DefaultExpiry is the reference validity window for a recommendation.
const DefaultExpiry = 2 * time.Hour

type record struct {
	rec        model.Recommendation
	decision   *model.CommanderDecision
	superseded bool
}

// Manager owns all issued Recommendations and their decisions.
type Manager struct {
	mu     sync.Mutex
	expiry time.Duration
	byID   map[string]*record
	active map[string]string // convoy id -> active recommendation id
	log    logger.Logger
}

// NewManager creates a lifecycle manager. A non-positive expiry falls back
// to DefaultExpiry.
func NewManager(expiry time.Duration, log logger.Logger) *Manager {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Manager{
		expiry: expiry,
		byID:   make(map[string]*record),
		active: make(map[string]string),
		log:    log,
	}
}

// Issue assigns identity and expiry to a resolver output and registers it.
// Any prior active recommendation for the same convoy is superseded.
func (m *Manager) Issue(rec model.Recommendation) model.Recommendation {
	now := timeNow()
	rec.ID = uuid.NewString()
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = now
	}
	rec.ExpiresAt = rec.GeneratedAt.Add(m.expiry)

	m.mu.Lock()
	defer m.mu.Unlock()
	if prevID, ok := m.active[rec.ConvoyID]; ok {
		if prev := m.byID[prevID]; prev != nil && prev.decision == nil {
			prev.superseded = true
			m.log.Debugw("recommendation superseded", map[string]any{
				"convoy_id": rec.ConvoyID,
				"old_id":    prevID,
				"new_id":    rec.ID,
			})
		}
	}
	m.byID[rec.ID] = &record{rec: rec}
	m.active[rec.ConvoyID] = rec.ID
	return rec
}

// Get returns the recommendation for an id.
func (m *Manager) Get(id string) (model.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return model.Recommendation{}, fmt.Errorf("%w: %s", ErrUnknownRecommendation, id)
	}
	return r.rec, nil
}

// Active returns the convoy's current recommendation when it is still
// undecided, unexpired and not superseded.
func (m *Manager) Active(convoyID string) (model.Recommendation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.active[convoyID]
	if !ok {
		return model.Recommendation{}, false
	}
	r := m.byID[id]
	if r == nil || r.superseded || r.decision != nil || r.rec.Expired(timeNow()) {
		return model.Recommendation{}, false
	}
	return r.rec, true
}

// Decide attaches a commander decision to a recommendation. It is
// idempotent-once: a second decision for the same id is rejected with
// ErrDecisionConflict and the original is preserved. Superseded and expired
// recommendations cannot be decided.
func (m *Manager) Decide(dec model.CommanderDecision) (model.Recommendation, error) {
	if !dec.Outcome.Valid() {
		return model.Recommendation{}, fmt.Errorf("%w: %q", ErrInvalidOutcome, dec.Outcome)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[dec.RecommendationID]
	if !ok {
		return model.Recommendation{}, fmt.Errorf("%w: %s", ErrUnknownRecommendation, dec.RecommendationID)
	}
	if r.decision != nil {
		return model.Recommendation{}, fmt.Errorf("%w: %s", ErrDecisionConflict, dec.RecommendationID)
	}
	if r.superseded {
		return model.Recommendation{}, fmt.Errorf("%w: %s", ErrSuperseded, dec.RecommendationID)
	}
	if r.rec.Expired(timeNow()) {
		return model.Recommendation{}, fmt.Errorf("%w: %s", ErrExpired, dec.RecommendationID)
	}
	if dec.DecidedAt.IsZero() {
		dec.DecidedAt = timeNow()
	}
	dec.ConvoyID = r.rec.ConvoyID
	r.decision = &dec
	m.log.Infof("recommendation %s for convoy %s %s", dec.RecommendationID, r.rec.ConvoyID, dec.Outcome)
	return r.rec, nil
}

// Decision returns the commander decision for a recommendation, if any.
func (m *Manager) Decision(id string) (model.CommanderDecision, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok || r.decision == nil {
		return model.CommanderDecision{}, false
	}
	return *r.decision, true
}
