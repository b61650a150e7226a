package web

import (
	"context"
	"fmt"

	"github.com/yanizio/complaintdesk/internal/form"
	"github.com/yanizio/complaintdesk/internal/session"
)

// Backend is what a visitor session needs from the support backend.
type Backend interface {
	session.Sender
	session.TokenFetcher
}

// NewFactory returns the session.Factory used by the store.  Every mount
// reads the current definition of variant from reg, builds a dedicated
// backend client (its cookie jar is per visitor), and, for gated variants,
// starts the security handshake right away.
func NewFactory(reg *form.Registry, variant string, newBackend func() (Backend, error), opts ...session.HolderOption) session.Factory {
	return func(ctx context.Context) (*session.Holder, error) {
		fd, ok := reg.Get(variant)
		if !ok {
			return nil, fmt.Errorf("form variant %q is not loaded", variant)
		}
		cat := fd.Catalog()

		be, err := newBackend()
		if err != nil {
			return nil, fmt.Errorf("backend client: %w", err)
		}

		gate := session.OpenGate()
		if cat.RequireToken {
			gate = session.NewGate(be)
		}
		h := session.NewHolder(cat, be, gate, opts...)
		gate.Start(ctx)
		return h, nil
	}
}
