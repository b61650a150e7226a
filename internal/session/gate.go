// internal/session/gate.go
//
// Security handshake gate.
//
// Context
// -------
// The second form variant must complete the backend handshake before a
// complaint may leave the process.  A Gate runs that handshake exactly once,
// in the background, when the visitor session is mounted.  Submissions only
// read the outcome.  A failed handshake is never retried; the visitor is
// told to reload the page, which creates a new session and a new Gate.
//
// Notes
// -----
// • OpenGate is the first variant's gate: ready from birth, never fetches.
// • Failure listeners fire once, from the handshake goroutine, or inline
//   when registered after the failure.
package session

import (
	"context"
	"sync"

	"github.com/yanizio/complaintdesk/internal/metrics"
)

// TokenFetcher performs the backend security handshake.
type TokenFetcher interface {
	FetchCSRFToken(ctx context.Context) error
}

// GateState is the handshake progress.
type GateState int

const (
	GatePending GateState = iota
	GateReady
	GateFailed
)

func (s GateState) String() string {
	switch s {
	case GateReady:
		return "ready"
	case GateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Gate tracks one handshake.
type Gate struct {
	fetch TokenFetcher
	once  sync.Once
	done  chan struct{}

	mu     sync.Mutex
	state  GateState
	err    error
	onFail []func(error)
}

// NewGate returns a pending gate around f.  Nothing happens until Start.
func NewGate(f TokenFetcher) *Gate {
	return &Gate{fetch: f, done: make(chan struct{})}
}

// OpenGate returns a gate that is already ready.
func OpenGate() *Gate {
	g := &Gate{state: GateReady, done: make(chan struct{})}
	g.once.Do(func() {})
	close(g.done)
	return g
}

// Start launches the handshake.  Later calls are no-ops.  The handshake
// outlives ctx cancellation so a dropped page load does not fail it.
func (g *Gate) Start(ctx context.Context) {
	g.once.Do(func() {
		go g.run(context.WithoutCancel(ctx))
	})
}

func (g *Gate) run(ctx context.Context) {
	err := g.fetch.FetchCSRFToken(ctx)

	g.mu.Lock()
	if err != nil {
		g.state, g.err = GateFailed, err
	} else {
		g.state = GateReady
	}
	listeners := g.onFail
	g.onFail = nil
	g.mu.Unlock()
	close(g.done)

	if err != nil {
		metrics.TokenChecksTotal.WithLabelValues("failed").Inc()
		for _, fn := range listeners {
			fn(err)
		}
		return
	}
	metrics.TokenChecksTotal.WithLabelValues("ready").Inc()
}

// State reports the current state.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Ready reports whether submissions may proceed.
func (g *Gate) Ready() bool { return g.State() == GateReady }

// Err returns the handshake error once the gate has failed.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Done is closed when the handshake has finished either way.
func (g *Gate) Done() <-chan struct{} { return g.done }

// Wait blocks until the handshake finishes or ctx ends, then returns the
// state at that moment.
func (g *Gate) Wait(ctx context.Context) GateState {
	select {
	case <-g.done:
	case <-ctx.Done():
	}
	return g.State()
}

// OnFailure registers fn to run when the handshake fails.  If it has
// already failed fn runs immediately.
func (g *Gate) OnFailure(fn func(error)) {
	g.mu.Lock()
	switch g.state {
	case GateFailed:
		err := g.err
		g.mu.Unlock()
		fn(err)
		return
	case GateReady:
		g.mu.Unlock()
		return
	}
	g.onFail = append(g.onFail, fn)
	g.mu.Unlock()
}
