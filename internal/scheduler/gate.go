package scheduler

import (
	"context"
	"sync"
)

// gate implements best-effort pause/resume. Paused means the next level is
// not dispatched; it never interrupts in-flight node execution.
type gate struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func newGate() *gate {
	return &gate{}
}

func (g *gate) pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		g.paused = true
		g.resume = make(chan struct{})
	}
}

func (g *gate) unpause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.paused = false
		close(g.resume)
	}
}

// wait blocks while the gate is paused. It returns the context error if the
// run is cancelled while waiting.
func (g *gate) wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		if !g.paused {
			g.mu.Unlock()
			return nil
		}
		resume := g.resume
		g.mu.Unlock()

		select {
		case <-resume:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
