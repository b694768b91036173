package session

// Ring holds the most recent records newest-first, bounded by capacity.
// It is not safe for concurrent use; the Controller owns it on its loop.
type Ring[T any] struct {
	capacity int
	items    []T
}

// NewRing creates an empty ring. Capacity must be positive.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("session: ring capacity must be positive")
	}
	return &Ring[T]{capacity: capacity}
}

// Push prepends batch ahead of the existing contents, keeping the batch's
// internal order, and drops whatever falls past capacity.
func (r *Ring[T]) Push(batch []T) {
	if len(batch) == 0 {
		return
	}
	if len(batch) >= r.capacity {
		r.items = append(r.items[:0:0], batch[:r.capacity]...)
		return
	}
	keep := min(len(r.items), r.capacity-len(batch))
	next := make([]T, 0, len(batch)+keep)
	next = append(next, batch...)
	next = append(next, r.items[:keep]...)
	r.items = next
}

// Clear empties the ring.
func (r *Ring[T]) Clear() {
	r.items = nil
}

// Snapshot returns a copy of the contents, newest first.
func (r *Ring[T]) Snapshot() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of records held.
func (r *Ring[T]) Len() int { return len(r.items) }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return r.capacity }
