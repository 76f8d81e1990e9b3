// Package dedupe remembers client intent ids so a retried request is
// applied at most once per session.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 4096

// Deduper records seen intent keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if not. Empty keys are never recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a request that never reached the queue can be
	// retried under the same id.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// Ring is a Deduper that keeps the most recent keys. When full, recording a
// new key evicts the oldest one. A non-positive size keeps every key.
type Ring struct {
	mu    sync.Mutex
	seen  map[string]int // key -> slot, -1 when unbounded
	slots []string
	next  int
}

// NewRing returns an empty Ring.
func NewRing(opts ...Option) *Ring {
	r := &Ring{}
	size := defaultMaxSize
	for _, opt := range opts {
		opt(&size)
	}
	if size > 0 {
		r.slots = make([]string, size)
	}
	r.seen = make(map[string]int, max(size, 0))
	return r
}

// Key scopes a client intent id to its session.
func Key(sessionID, intentID string) string {
	if intentID == "" {
		return ""
	}
	return sessionID + "/" + intentID
}

// SeenAndRecord implements Deduper.
func (r *Ring) SeenAndRecord(_ context.Context, key string) bool {
	if key == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[key]; ok {
		return true
	}
	if r.slots == nil {
		r.seen[key] = -1
		return false
	}
	if old := r.slots[r.next]; old != "" {
		delete(r.seen, old)
	}
	r.slots[r.next] = key
	r.seen[key] = r.next
	r.next = (r.next + 1) % len(r.slots)
	return false
}

// Unrecord implements Deduper.
func (r *Ring) Unrecord(_ context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.seen[key]
	if !ok {
		return
	}
	delete(r.seen, key)
	if slot >= 0 {
		r.slots[slot] = ""
	}
}

// Size implements Deduper.
func (r *Ring) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
