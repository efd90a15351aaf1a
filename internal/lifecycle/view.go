package lifecycle

import (
	"sync"
	"time"
)

// Ticket identifies one load into a View.
type Ticket uint64

// Snapshot is what a handler renders.
type Snapshot[T any] struct {
	Value     T
	Err       error
	Loading   bool
	Loaded    bool
	UpdatedAt time.Time
}

// View is a last-write-wins slot for one panel. Loads take a ticket with
// Begin and only the newest ticket may Commit; Invalidate retires every
// outstanding ticket.
type View[T any] struct {
	mu   sync.RWMutex
	gen  uint64
	snap Snapshot[T]
}

// Begin marks the view loading and returns the ticket for this load.
func (v *View[T]) Begin() Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.snap.Loading = true
	return Ticket(v.gen)
}

// Commit stores the result of the load identified by t. It reports false and
// drops the result when a newer load started or the view was invalidated.
func (v *View[T]) Commit(t Ticket, val T, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if uint64(t) != v.gen {
		return false
	}
	v.snap = Snapshot[T]{Value: val, Err: err, Loaded: true, UpdatedAt: time.Now()}
	return true
}

// Invalidate drops in-flight loads. The last committed value stays readable.
func (v *View[T]) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.snap.Loading = false
}

func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}
