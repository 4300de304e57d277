// Package watch provides a single-writer, multi-reader holder for a
// latest-value state. Observers always see the most recent value, never a
// history: a slow subscriber has its stale pending value replaced rather
// than queued behind new ones.
//
// It is the explicit Go counterpart of an observable state holder: the
// owning component writes through Set, UI code either polls Get or receives
// updates on a subscription channel.
package watch

import "sync"

// Feed holds the latest value of type T and broadcasts replacements to
// subscribers. The zero value is not usable; construct with NewFeed.
type Feed[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[chan T]struct{}
}

// NewFeed creates a feed seeded with the given initial value.
func NewFeed[T any](initial T) *Feed[T] {
	return &Feed[T]{
		value: initial,
		subs:  make(map[chan T]struct{}),
	}
}

// Get returns the current value.
func (f *Feed[T]) Get() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Set replaces the current value and notifies all subscribers. A subscriber
// that has not consumed its previous notification gets the new value in its
// place (latest-value semantics, no backlog).
func (f *Feed[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	for ch := range f.subs {
		select {
		case ch <- v:
		default:
			// Drain the stale value, then deliver the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// Subscribe registers a new observer channel. The current value is delivered
// immediately so late subscribers do not miss the present state. The returned
// cancel function must be called when the observer is done; afterwards the
// channel is closed.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	ch <- f.value
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[ch]; !ok {
			return
		}
		delete(f.subs, ch)
		close(ch)
	}
	return ch, cancel
}
