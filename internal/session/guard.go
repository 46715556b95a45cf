// ABOUTME: Guard starts a Service lazily, exactly once, under concurrent first use
// ABOUTME: Double-checked: an atomic fast path, then a mutex with a re-check

package session

import (
	"context"
	"sync"
	"sync/atomic"
)

// Starter is the part of Service the Guard drives.
type Starter interface {
	Start(ctx context.Context) error
	Ask(ctx context.Context, text string) (string, error)
	Stop(ctx context.Context)
}

var _ Starter = (*Service)(nil)

// Guard defers Start until the first Ask. Concurrent first callers block
// until the single Start finishes. A failed Start is retried by the next caller.
type Guard struct {
	svc     Starter
	mu      sync.Mutex
	started atomic.Bool
}

// NewGuard wraps svc.
func NewGuard(svc Starter) *Guard {
	return &Guard{svc: svc}
}

// EnsureStarted starts the service if no call has done so yet.
func (g *Guard) EnsureStarted(ctx context.Context) error {
	if g.started.Load() {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started.Load() {
		return nil
	}
	if err := g.svc.Start(ctx); err != nil {
		return err
	}
	g.started.Store(true)
	return nil
}

// Ask starts the service if needed, then asks it.
func (g *Guard) Ask(ctx context.Context, text string) (string, error) {
	if err := g.EnsureStarted(ctx); err != nil {
		return "", err
	}
	return g.svc.Ask(ctx, text)
}

// Started reports whether Start has succeeded.
func (g *Guard) Started() bool {
	return g.started.Load()
}

// Stop stops the service if it was started. A later Ask starts it again.
func (g *Guard) Stop(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started.Load() {
		return
	}
	g.svc.Stop(ctx)
	g.started.Store(false)
}
