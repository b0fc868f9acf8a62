// internal/application/session/registry.go
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	uc "tcon/internal/application/usecase"
)

var ErrRegistryClosed = errors.New("session: registry closed")

// Registry owns one activated CheckoutWorkflow per storefront session.
// Sessions are identified by an opaque id (a uuid minted for guests by the
// HTTP layer, carried in the X-Session-Id header).
type Registry struct {
	mu sync.Mutex

	deps   uc.WorkflowDeps
	flows  map[string]*uc.CheckoutWorkflow
	closed bool
}

func NewRegistry(deps uc.WorkflowDeps) *Registry {
	return &Registry{
		deps:  deps,
		flows: map[string]*uc.CheckoutWorkflow{},
	}
}

// NewSessionID mints an id for a fresh guest session.
func NewSessionID() string {
	return uuid.NewString()
}

// Workflow returns the session's workflow, activating a new one on first use.
func (r *Registry) Workflow(ctx context.Context, sessionID string) (*uc.CheckoutWorkflow, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, uc.ErrCheckoutInvalidArgument
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if w, ok := r.flows[sid]; ok {
		r.mu.Unlock()
		return w, nil
	}
	r.mu.Unlock()

	w, err := uc.NewCheckoutWorkflow(sid, r.deps)
	if err != nil {
		return nil, err
	}
	if err := w.Activate(ctx); err != nil {
		w.Close()
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		w.Close()
		return nil, ErrRegistryClosed
	}
	if existing, ok := r.flows[sid]; ok {
		// lost the race; keep the first activation
		r.mu.Unlock()
		w.Close()
		return existing, nil
	}
	r.flows[sid] = w
	r.mu.Unlock()
	return w, nil
}

// Drop tears down one session's workflow (subscription cancelled).
func (r *Registry) Drop(sessionID string) {
	sid := strings.TrimSpace(sessionID)

	r.mu.Lock()
	w, ok := r.flows[sid]
	if ok {
		delete(r.flows, sid)
	}
	r.mu.Unlock()

	if ok {
		w.Close()
	}
}

// Close tears down every workflow. The registry rejects further use.
func (r *Registry) Close() {
	r.mu.Lock()
	flows := r.flows
	r.flows = map[string]*uc.CheckoutWorkflow{}
	r.closed = true
	r.mu.Unlock()

	for _, w := range flows {
		w.Close()
	}
}
