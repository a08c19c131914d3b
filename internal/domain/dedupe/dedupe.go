// Package dedupe remembers recently seen notification IDs so that replayed
// push messages do not trigger extra recomputes.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it
	// if it was not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Forget removes id so a later replay is accepted again.
	Forget(ctx context.Context, id string)

	// Size is the number of IDs currently remembered.
	Size() int
}

// DefaultMaxSize bounds the window when no size is configured.
const DefaultMaxSize = 10000

// window keeps the most recent maxSize IDs in a ring. When full, the
// oldest ID is evicted. A non-positive maxSize disables eviction.
type window struct {
	mu      sync.Mutex
	maxSize int
	seen    map[string]int // id -> ring slot, -1 in unbounded mode
	ring    []string
	used    []bool
	next    int
}

// New creates an in-memory deduper.
func New(opts ...Option) Deduper {
	w := &window{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(w)
	}
	w.seen = make(map[string]int)
	if w.maxSize > 0 {
		w.ring = make([]string, w.maxSize)
		w.used = make([]bool, w.maxSize)
	}
	return w
}

func (w *window) SeenAndRecord(_ context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[id]; ok {
		return true
	}
	if w.maxSize <= 0 {
		w.seen[id] = -1
		return false
	}

	slot := w.next
	if w.used[slot] {
		delete(w.seen, w.ring[slot])
	}
	w.ring[slot] = id
	w.used[slot] = true
	w.seen[id] = slot
	w.next = (slot + 1) % w.maxSize
	return false
}

func (w *window) Forget(_ context.Context, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	slot, ok := w.seen[id]
	if !ok {
		return
	}
	delete(w.seen, id)
	if slot >= 0 {
		w.ring[slot] = ""
		w.used[slot] = false
	}
}

func (w *window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}
