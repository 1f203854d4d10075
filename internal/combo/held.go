// Package combo turns key press/release events into combo snapshots.
package combo

import (
	"sort"
	"sync"

	"github.com/verte-zerg/kero/internal/model"
)

// HeldSet is the set of keys currently pressed. All access goes through its
// methods, which take the lock for the shortest possible time.
type HeldSet struct {
	mu   sync.Mutex
	keys map[model.KeyToken]struct{}
}

// NewHeldSet returns an empty set.
func NewHeldSet() *HeldSet {
	return &HeldSet{keys: make(map[model.KeyToken]struct{})}
}

// Insert marks token as held. Inserting a held token is a no-op.
func (h *HeldSet) Insert(token model.KeyToken) {
	h.mu.Lock()
	h.keys[token] = struct{}{}
	h.mu.Unlock()
}

// Remove marks token as released. Removing an absent token is a no-op.
func (h *HeldSet) Remove(token model.KeyToken) {
	h.mu.Lock()
	delete(h.keys, token)
	h.mu.Unlock()
}

// Snapshot returns a sorted copy of the held keys, or nil when none are held.
func (h *HeldSet) Snapshot() []model.KeyToken {
	h.mu.Lock()
	if len(h.keys) == 0 {
		h.mu.Unlock()
		return nil
	}
	out := make([]model.KeyToken, 0, len(h.keys))
	for k := range h.keys {
		out = append(out, k)
	}
	h.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of held keys.
func (h *HeldSet) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.keys)
}
