// Package dispatch exposes the operator HTTP API: the movement queue,
// per-convoy evaluation and the commander decision workflow.
package dispatch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/milops/convoyd/core/engine"
	"github.com/milops/convoyd/core/lifecycle"
	"github.com/milops/convoyd/core/model"
	"github.com/milops/convoyd/core/queue"
)

// NewQueueHandler returns an HTTP handler exposing the open movement
// requests via GET /api/dispatch/queue.
func NewQueueHandler(eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, eng.Pending())
	})
}

// NewEvaluateHandler returns an HTTP handler triggering an evaluation via
// POST /api/dispatch/evaluate?convoy_id=<id>.
func NewEvaluateHandler(eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		convoyID := r.URL.Query().Get("convoy_id")
		if convoyID == "" {
			http.Error(w, "convoy_id is required", http.StatusBadRequest)
			return
		}
		rec, err := eng.Evaluate(r.Context(), convoyID)
		if err != nil {
			switch {
			case errors.Is(err, queue.ErrNotQueued):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, engine.ErrRateLimited):
				http.Error(w, err.Error(), http.StatusTooManyRequests)
			case errors.Is(err, engine.ErrEvaluationInFlight):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, rec)
	})
}

// NewRecommendationHandler returns an HTTP handler serving recommendations
// via GET /api/dispatch/recommendation?convoy_id=<id> or ?id=<rec id>.
func NewRecommendationHandler(eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if id := r.URL.Query().Get("id"); id != "" {
			rec, err := eng.Recommendation(id)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			writeJSON(w, rec)
			return
		}
		convoyID := r.URL.Query().Get("convoy_id")
		if convoyID == "" {
			http.Error(w, "convoy_id or id is required", http.StatusBadRequest)
			return
		}
		rec, ok := eng.Active(convoyID)
		if !ok {
			http.Error(w, "no active recommendation", http.StatusNotFound)
			return
		}
		writeJSON(w, rec)
	})
}

// NewDecisionHandler returns an HTTP handler recording commander decisions
// via POST /api/dispatch/decision with a CommanderDecision body.
func NewDecisionHandler(eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var dec model.CommanderDecision
		if err := json.NewDecoder(r.Body).Decode(&dec); err != nil {
			http.Error(w, "malformed decision body", http.StatusBadRequest)
			return
		}
		rec, err := eng.SubmitDecision(dec)
		if err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrUnknownRecommendation):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, lifecycle.ErrDecisionConflict):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, lifecycle.ErrSuperseded), errors.Is(err, lifecycle.ErrExpired):
				http.Error(w, err.Error(), http.StatusGone)
			case errors.Is(err, lifecycle.ErrInvalidOutcome):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, rec)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
