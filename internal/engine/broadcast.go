package engine

import (
	"sync"

	"github.com/google/uuid"
)

type subscription[T any] struct {
	id uuid.UUID
	fn func(T)
}

// Broadcaster fans a value out to listeners in subscription order.
// Publish runs listeners on the caller's goroutine.
type Broadcaster[T any] struct {
	mu   sync.RWMutex
	subs []subscription[T] // replaced on every change, never mutated in place
}

// Subscribe registers fn and returns a function removing it. The returned
// function is safe to call more than once and from inside a listener.
func (b *Broadcaster[T]) Subscribe(fn func(T)) func() {
	id := uuid.New()

	b.mu.Lock()
	next := make([]subscription[T], len(b.subs), len(b.subs)+1)
	copy(next, b.subs)
	b.subs = append(next, subscription[T]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broadcaster[T]) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]subscription[T], 0, len(b.subs))
	for _, s := range b.subs {
		if s.id != id {
			next = append(next, s)
		}
	}
	b.subs = next
}

// Publish calls every current listener with v.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of listeners.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
