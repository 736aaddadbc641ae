// Package eventgroup is a multi-writer, single-reader flag group. Producers
// raise keyword bits; the consumer waits for any bit and takes all pending
// bits in one step.
package eventgroup

import (
	"context"
	"errors"
	"sync"

	"kwhmi/agent/internal/keyword"
)

var ErrClosed = errors.New("event group closed")

type Group struct {
	mu      sync.Mutex
	pending keyword.Set
	closed  bool

	notify chan struct{}
	done   chan struct{}
}

func New() *Group {
	return &Group{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Raise ORs bits into the pending set and wakes the waiter. Safe for any
// number of concurrent callers. Raising on a closed group is a no-op.
func (g *Group) Raise(bits keyword.Set) {
	if bits == 0 {
		return
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.pending |= bits
	g.mu.Unlock()
	select {
	case g.notify <- struct{}{}:
	default:
	}
}

// Wait blocks until at least one bit is pending, then returns and clears
// every pending bit. Bits raised between waits are coalesced.
func (g *Group) Wait(ctx context.Context) (keyword.Set, error) {
	for {
		g.mu.Lock()
		if g.pending != 0 {
			s := g.pending
			g.pending = 0
			g.mu.Unlock()
			return s, nil
		}
		closed := g.closed
		g.mu.Unlock()
		if closed {
			return 0, ErrClosed
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-g.notify:
		case <-g.done:
		}
	}
}

// Next makes the group usable as a resolver source.
func (g *Group) Next(ctx context.Context) (keyword.Set, error) { return g.Wait(ctx) }

// Pending peeks at the bits not yet consumed.
func (g *Group) Pending() keyword.Set {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Close wakes the waiter. Bits already pending are still delivered; after
// that Wait returns ErrClosed.
func (g *Group) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	close(g.done)
}

func (g *Group) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
