package watcher

import (
	"context"
	"io"
	"sync"
	"time"
)

// ExpiredEvent announces that a session expired in one tab (client process)
// of an origin.
type ExpiredEvent struct {
	Origin string    `json:"origin"`
	TabID  string    `json:"tabId"`
	At     time.Time `json:"at"`
}

// Broadcaster carries ExpiredEvents between tabs of the same origin.
type Broadcaster interface {
	Publish(ctx context.Context, ev ExpiredEvent) error
	Subscribe(ctx context.Context, origin string, fn func(ExpiredEvent)) (io.Closer, error)
	Close() error
}

// MemoryBroadcaster fans events out to subscribers in the same process.
type MemoryBroadcaster struct {
	mu     sync.Mutex
	subs   map[int]memorySub
	nextID int
}

type memorySub struct {
	origin string
	fn     func(ExpiredEvent)
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{subs: make(map[int]memorySub)}
}

func (b *MemoryBroadcaster) Publish(_ context.Context, ev ExpiredEvent) error {
	b.mu.Lock()
	targets := make([]func(ExpiredEvent), 0, len(b.subs))
	for _, s := range b.subs {
		if s.origin == ev.Origin {
			targets = append(targets, s.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(ev)
	}
	return nil
}

func (b *MemoryBroadcaster) Subscribe(_ context.Context, origin string, fn func(ExpiredEvent)) (io.Closer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = memorySub{origin: origin, fn: fn}

	return closerFunc(func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		return nil
	}), nil
}

func (b *MemoryBroadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[int]memorySub)
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
