// internal/session/holder.go
//
// Per-visitor form state.
//
// Context
// -------
// A Holder is everything one visitor sees: the current form values, the
// per-field error map, a page-level banner, the busy and submitted flags,
// and the reference number once the backend has accepted a complaint.
// Handlers mutate it through Apply, Submit, and SubmitAnother, and render
// from Snapshot.
//
// Submit order
// ------------
//  1. Token gate (variants that require it).  Not ready ⇒ banner, reload
//     hint, no network call.
//  2. Local validation.  Failures replace the error map, no network call.
//  3. Busy on, banner off, send.
//  4. Accepted ⇒ reference stored, submitted.
//  5. Field errors from the backend ⇒ error map replaced, values kept.
//  6. Anything else ⇒ generic submit banner.
//  7. Busy off.
//
// Notes
// -----
// • Only one send may be in flight.  A second Submit returns ErrBusy.
// • The send ignores request cancellation; the backend decides the outcome.
// • Oxford commas, two spaces after periods.
package session

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/complaintdesk/internal/backend"
	"github.com/yanizio/complaintdesk/internal/complaint"
	"github.com/yanizio/complaintdesk/internal/metrics"
)

var (
	// ErrBusy is returned while a submission is already in flight.
	ErrBusy = errors.New("session: submission in progress")
	// ErrTokenNotReady is returned when the security handshake has not
	// succeeded.
	ErrTokenNotReady = errors.New("session: security token not ready")
)

// Sender delivers a complaint to the backend.
type Sender interface {
	SendComplaint(ctx context.Context, f complaint.Form) (backend.Result, error)
}

// Kind classifies a Submit result.
type Kind string

const (
	KindSuccess  Kind = metrics.OutcomeSuccess
	KindInvalid  Kind = metrics.OutcomeInvalid
	KindRejected Kind = metrics.OutcomeRejected
	KindFailed   Kind = metrics.OutcomeFailed
	KindRefused  Kind = metrics.OutcomeRefused
	KindBusy     Kind = "busy"
)

// Outcome is what Submit did.
type Outcome struct {
	Kind      Kind
	Reference string
	Err       error
}

// Snapshot is a point-in-time copy of a Holder, safe to render.
type Snapshot struct {
	Variant   string            `json:"variant"`
	Values    complaint.Form    `json:"values"`
	Errors    map[string]string `json:"errors"`
	Banner    string            `json:"banner,omitempty"`
	Reload    bool              `json:"reload"`
	Busy      bool              `json:"busy"`
	Submitted bool              `json:"submitted"`
	Reference string            `json:"referenceNumber,omitempty"`
	Gate      string            `json:"gate"`
}

// Holder is one visitor's form.  Safe for concurrent use.
type Holder struct {
	cat  complaint.Catalog
	send Sender
	gate *Gate
	now  func() time.Time
	log  *zap.SugaredLogger

	mu        sync.Mutex
	form      complaint.Form
	errs      complaint.Errors
	banner    string
	reload    bool
	busy      bool
	submitted bool
	ref       string
}

// HolderOption configures a Holder.
type HolderOption func(*Holder)

// WithClock replaces time.Now for date validation.
func WithClock(now func() time.Time) HolderOption {
	return func(h *Holder) { h.now = now }
}

// WithLogger attaches a logger.  Default is zap.S().
func WithLogger(l *zap.SugaredLogger) HolderOption {
	return func(h *Holder) { h.log = l }
}

// NewHolder returns an empty form for cat.  gate may be nil for variants
// that do not require the handshake.  When the gate fails the reload
// banner is raised right away.
func NewHolder(cat complaint.Catalog, send Sender, gate *Gate, opts ...HolderOption) *Holder {
	if gate == nil {
		gate = OpenGate()
	}
	h := &Holder{
		cat:  cat,
		send: send,
		gate: gate,
		now:  time.Now,
		form: complaint.NewForm(cat),
		errs: complaint.Errors{},
	}
	for _, o := range opts {
		o(h)
	}
	if h.log == nil {
		h.log = zap.S()
	}
	if cat.RequireToken {
		gate.OnFailure(func(err error) {
			h.log.Warnw("security handshake failed", "variant", cat.ID, "err", err)
			h.mu.Lock()
			h.banner = cat.Message(complaint.MsgBannerToken)
			h.reload = true
			h.mu.Unlock()
		})
	}
	return h
}

// Catalog returns the variant this holder was built for.
func (h *Holder) Catalog() complaint.Catalog { return h.cat }

// Gate returns the handshake gate.
func (h *Holder) Gate() *Gate { return h.gate }

// Apply stores one edited field and clears the banner.  Unknown fields
// are rejected.
func (h *Holder) Apply(field, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := complaint.ApplyInput(h.form, field, value)
	if err != nil {
		return err
	}
	h.form = f
	h.banner = ""
	return nil
}

// Submit runs the submit sequence described at the top of this file.
func (h *Holder) Submit(ctx context.Context) Outcome {
	h.mu.Lock()
	if h.busy {
		h.mu.Unlock()
		return Outcome{Kind: KindBusy, Err: ErrBusy}
	}
	if h.submitted {
		// Replayed POST after success.  Nothing new to send.
		ref := h.ref
		h.mu.Unlock()
		return Outcome{Kind: KindSuccess, Reference: ref}
	}

	if h.cat.RequireToken && !h.gate.Ready() {
		h.banner = h.cat.Message(complaint.MsgBannerToken)
		h.reload = true
		h.mu.Unlock()
		metrics.SubmissionsTotal.WithLabelValues(string(KindRefused)).Inc()
		h.log.Infow("submission refused", "variant", h.cat.ID, "gate", h.gate.State().String())
		return Outcome{Kind: KindRefused, Err: ErrTokenNotReady}
	}

	errs := complaint.Validate(h.form, h.cat, h.now())
	h.errs = errs
	if len(errs) > 0 {
		h.mu.Unlock()
		for _, f := range errs.Fields() {
			metrics.ValidationFailuresTotal.WithLabelValues(f).Inc()
		}
		metrics.SubmissionsTotal.WithLabelValues(string(KindInvalid)).Inc()
		return Outcome{Kind: KindInvalid}
	}

	h.busy = true
	h.banner = ""
	form := h.form
	h.mu.Unlock()

	start := time.Now()
	res, err := h.send.SendComplaint(context.WithoutCancel(ctx), form)
	metrics.BackendLatency.Observe(time.Since(start).Seconds())

	h.mu.Lock()
	defer h.mu.Unlock()
	h.busy = false

	var fe *backend.FieldErrors
	switch {
	case err == nil:
		h.ref = res.ReferenceNumber
		h.submitted = true
		metrics.SubmissionsTotal.WithLabelValues(string(KindSuccess)).Inc()
		h.log.Infow("complaint accepted", "variant", h.cat.ID, "reference", res.ReferenceNumber)
		return Outcome{Kind: KindSuccess, Reference: res.ReferenceNumber}

	case errors.As(err, &fe):
		h.errs = complaint.Errors(maps.Clone(fe.Fields))
		metrics.SubmissionsTotal.WithLabelValues(string(KindRejected)).Inc()
		h.log.Infow("complaint rejected by backend", "variant", h.cat.ID, "fields", fe.Fields)
		return Outcome{Kind: KindRejected, Err: err}

	default:
		h.banner = h.cat.Message(complaint.MsgBannerSubmit)
		metrics.SubmissionsTotal.WithLabelValues(string(KindFailed)).Inc()
		h.log.Warnw("complaint send failed", "variant", h.cat.ID, "err", err)
		return Outcome{Kind: KindFailed, Err: err}
	}
}

// SubmitAnother resets to an empty form.  The reload hint is left alone.
func (h *Holder) SubmitAnother() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.form = complaint.NewForm(h.cat)
	h.errs = complaint.Errors{}
	h.banner = ""
	h.submitted = false
	h.ref = ""
}

// Snapshot copies the current state.
func (h *Holder) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	errs := maps.Clone(map[string]string(h.errs))
	if errs == nil {
		errs = map[string]string{}
	}
	return Snapshot{
		Variant:   h.cat.ID,
		Values:    h.form,
		Errors:    errs,
		Banner:    h.banner,
		Reload:    h.reload,
		Busy:      h.busy,
		Submitted: h.submitted,
		Reference: h.ref,
		Gate:      h.gate.State().String(),
	}
}
