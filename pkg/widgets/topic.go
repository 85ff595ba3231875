// Package widgets holds the in-process components a feature page is made
// of. Widgets never look each other up: they expose methods and publish
// typed events, and the page wires them together.
package widgets

import (
	"context"
	"sync"
)

const topicBuffer = 64

// Subscriber hands out event channels that close when ctx is done.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan T
}

// Publisher publishes events to every current subscriber.
type Publisher[T any] interface {
	Publish(T)
}

// Topic is a typed fan-out of events. Publish never blocks: a subscriber
// that falls topicBuffer events behind misses events.
type Topic[T any] struct {
	mu   sync.RWMutex
	subs map[chan T]struct{}
}

func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{subs: make(map[chan T]struct{})}
}

func (t *Topic[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, topicBuffer)

	t.mu.Lock()
	t.subs[ch] = struct{}{}
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		t.mu.Lock()
		delete(t.subs, ch)
		close(ch)
		t.mu.Unlock()
	}()

	return ch
}

func (t *Topic[T]) Publish(ev T) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}
