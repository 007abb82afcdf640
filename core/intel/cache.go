package intel

import (
	"sync"
	"time"

	"github.com/milops/convoyd/core/model"
)

// Snapshot is the latest locally-cached picture for one convoy.
type Snapshot struct {
	Convoy     *model.Convoy     `json:"convoy,omitempty"`
	Route      *model.Route      `json:"route,omitempty"`
	Checkpoint *model.Checkpoint `json:"checkpoint,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Cache keeps the most recent upstream snapshots keyed by convoy id. It
// feeds the degradation ladder's cached-evaluation rung.
type Cache struct {
	mu     sync.RWMutex
	data   map[string]Snapshot
	routes map[string]model.Route
	cps    map[string]model.Checkpoint
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		data:   make(map[string]Snapshot),
		routes: make(map[string]model.Route),
		cps:    make(map[string]model.Checkpoint),
	}
}

// PutConvoy stores the latest convoy record.
func (c *Cache) PutConvoy(cv model.Convoy) {
	c.mu.Lock()
	snap := c.data[cv.ID]
	cvCopy := cv
	snap.Convoy = &cvCopy
	snap.UpdatedAt = time.Now()
	c.data[cv.ID] = snap
	c.mu.Unlock()
}

// PutRoute stores the latest route record and attaches it to convoys
// referencing it.
func (c *Cache) PutRoute(r model.Route) {
	c.mu.Lock()
	c.routes[r.ID] = r
	for id, snap := range c.data {
		if snap.Convoy != nil && snap.Convoy.RouteID == r.ID {
			rCopy := r
			snap.Route = &rCopy
			snap.UpdatedAt = time.Now()
			c.data[id] = snap
		}
	}
	c.mu.Unlock()
}

// PutCheckpoint stores the latest checkpoint record and attaches it to
// convoys referencing it.
func (c *Cache) PutCheckpoint(cp model.Checkpoint) {
	c.mu.Lock()
	c.cps[cp.ID] = cp
	for id, snap := range c.data {
		if snap.Convoy != nil && snap.Convoy.CheckpointID == cp.ID {
			cpCopy := cp
			snap.Checkpoint = &cpCopy
			snap.UpdatedAt = time.Now()
			c.data[id] = snap
		}
	}
	c.mu.Unlock()
}

// Snapshot returns the cached picture for a convoy. Route and checkpoint
// references are resolved from the latest stored records when the snapshot
// itself has none.
func (c *Cache) Snapshot(convoyID string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.data[convoyID]
	if !ok {
		return Snapshot{}, false
	}
	if snap.Route == nil && snap.Convoy != nil {
		if r, ok := c.routes[snap.Convoy.RouteID]; ok {
			rCopy := r
			snap.Route = &rCopy
		}
	}
	if snap.Checkpoint == nil && snap.Convoy != nil {
		if cp, ok := c.cps[snap.Convoy.CheckpointID]; ok {
			cpCopy := cp
			snap.Checkpoint = &cpCopy
		}
	}
	return snap, true
}

// Route returns the latest cached route record.
func (c *Cache) Route(id string) (model.Route, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.routes[id]
	return r, ok
}

// Checkpoint returns the latest cached checkpoint record.
func (c *Cache) Checkpoint(id string) (model.Checkpoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp, ok := c.cps[id]
	return cp, ok
}
