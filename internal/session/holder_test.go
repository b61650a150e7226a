package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yanizio/complaintdesk/internal/backend"
	"github.com/yanizio/complaintdesk/internal/complaint"
	"github.com/yanizio/complaintdesk/internal/metrics"
)

var testNow = time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC)

// fakeSender records calls and returns a canned reply.  When block is set
// each call waits on it.
type fakeSender struct {
	calls atomic.Int32
	res   backend.Result
	err   error
	block chan struct{}
	last  complaint.Form
	mu    sync.Mutex
}

func (f *fakeSender) SendComplaint(ctx context.Context, form complaint.Form) (backend.Result, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = form
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.res, f.err
}

type fakeFetcher struct{ err error }

func (f fakeFetcher) FetchCSRFToken(context.Context) error { return f.err }

func fill(t *testing.T, h *Holder) {
	t.Helper()
	vals := map[string]string{
		complaint.FieldUsername:    "player_01",
		complaint.FieldEmail:       "player@example.com",
		complaint.FieldGameID:      "GAME-42",
		complaint.FieldIssueType:   "Kerusakan Game",
		complaint.FieldDescription: "Game crashed.",
		complaint.FieldDateOfIssue: "2026-10-17",
		complaint.FieldPhoneNumber: "+62 812-3456-7890",
	}
	for k, v := range vals {
		if err := h.Apply(k, v); err != nil {
			t.Fatalf("Apply(%s): %v", k, err)
		}
	}
}

func newV1(s Sender) *Holder {
	return NewHolder(complaint.CatalogV1(), s, nil, WithClock(func() time.Time { return testNow }))
}

func TestSubmit_Success(t *testing.T) {
	s := &fakeSender{res: backend.Result{ReferenceNumber: "REF-9"}}
	h := newV1(s)
	fill(t, h)

	out := h.Submit(context.Background())
	if out.Kind != KindSuccess || out.Reference != "REF-9" {
		t.Fatalf("outcome = %+v", out)
	}
	snap := h.Snapshot()
	if !snap.Submitted || snap.Reference != "REF-9" || snap.Busy {
		t.Fatalf("snapshot = %+v", snap)
	}
	if s.last.PhoneNumber != "+6281234567890" {
		t.Errorf("phone sent = %q", s.last.PhoneNumber)
	}
	if s.last.Platform != complaint.DefaultPlatform {
		t.Errorf("platform sent = %q", s.last.Platform)
	}

	// A replayed submit does not resend.
	if out := h.Submit(context.Background()); out.Kind != KindSuccess || s.calls.Load() != 1 {
		t.Fatalf("replay: %+v calls=%d", out, s.calls.Load())
	}
}

func TestSubmit_InvalidMakesNoCall(t *testing.T) {
	s := &fakeSender{}
	h := newV1(s)
	_ = h.Apply(complaint.FieldEmail, "nope")

	out := h.Submit(context.Background())
	if out.Kind != KindInvalid {
		t.Fatalf("kind = %s", out.Kind)
	}
	if s.calls.Load() != 0 {
		t.Fatalf("sender called on invalid form")
	}
	errs := h.Snapshot().Errors
	if errs[complaint.FieldEmail] != "Email tidak valid" {
		t.Errorf("email error = %q", errs[complaint.FieldEmail])
	}
	if errs[complaint.FieldUsername] == "" {
		t.Errorf("username error missing")
	}
}

func TestSubmit_ValidClearsOldErrors(t *testing.T) {
	s := &fakeSender{res: backend.Result{ReferenceNumber: "R"}, err: errors.New("boom")}
	h := newV1(s)
	h.Submit(context.Background()) // empty form, errors set
	fill(t, h)

	out := h.Submit(context.Background())
	if out.Kind != KindFailed {
		t.Fatalf("kind = %s", out.Kind)
	}
	if n := len(h.Snapshot().Errors); n != 0 {
		t.Fatalf("stale errors survived: %d", n)
	}
}

func TestSubmit_ServerFieldErrorsReplaceMap(t *testing.T) {
	s := &fakeSender{err: &backend.FieldErrors{Status: 422, Fields: map[string]string{"email": "invalid"}}}
	h := newV1(s)
	fill(t, h)

	out := h.Submit(context.Background())
	if out.Kind != KindRejected {
		t.Fatalf("kind = %s", out.Kind)
	}
	snap := h.Snapshot()
	if len(snap.Errors) != 1 || snap.Errors["email"] != "invalid" {
		t.Fatalf("errors = %v", snap.Errors)
	}
	if snap.Submitted || snap.Banner != "" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Values.Username != "player_01" {
		t.Fatalf("form values lost")
	}
}

func TestSubmit_GenericFailureBanner(t *testing.T) {
	for _, err := range []error{
		&backend.RejectedError{Status: 500, Message: "internal"},
		&backend.TransportError{Op: "send-complaint", Err: errors.New("dial")},
	} {
		h := newV1(&fakeSender{err: err})
		fill(t, h)
		out := h.Submit(context.Background())
		if out.Kind != KindFailed {
			t.Fatalf("kind = %s", out.Kind)
		}
		snap := h.Snapshot()
		if snap.Banner != complaint.DefaultMessages[complaint.MsgBannerSubmit] {
			t.Errorf("banner = %q", snap.Banner)
		}
		if snap.Busy || snap.Submitted {
			t.Errorf("snapshot = %+v", snap)
		}

		// Editing clears the banner.
		_ = h.Apply(complaint.FieldGameID, "x")
		if b := h.Snapshot().Banner; b != "" {
			t.Errorf("banner after edit = %q", b)
		}
	}
}

func TestSubmit_BusyRejectsSecond(t *testing.T) {
	s := &fakeSender{res: backend.Result{ReferenceNumber: "R1"}, block: make(chan struct{})}
	h := newV1(s)
	fill(t, h)

	done := make(chan Outcome, 1)
	go func() { done <- h.Submit(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for !h.Snapshot().Busy {
		select {
		case <-deadline:
			t.Fatal("never became busy")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if out := h.Submit(context.Background()); out.Kind != KindBusy || !errors.Is(out.Err, ErrBusy) {
		t.Fatalf("second submit = %+v", out)
	}
	close(s.block)
	if out := <-done; out.Kind != KindSuccess {
		t.Fatalf("first submit = %+v", out)
	}
	if s.calls.Load() != 1 {
		t.Fatalf("calls = %d", s.calls.Load())
	}
}

func TestSubmit_IgnoresCancellation(t *testing.T) {
	s := &fakeSender{res: backend.Result{ReferenceNumber: "R"}}
	h := newV1(s)
	fill(t, h)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if out := h.Submit(ctx); out.Kind != KindSuccess {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestSubmitAnother_Resets(t *testing.T) {
	h := newV1(&fakeSender{res: backend.Result{ReferenceNumber: "R"}})
	fill(t, h)
	h.Submit(context.Background())
	h.SubmitAnother()

	snap := h.Snapshot()
	if snap.Submitted || snap.Reference != "" || len(snap.Errors) != 0 || snap.Banner != "" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Values != complaint.NewForm(complaint.CatalogV1()) {
		t.Fatalf("form not reset: %+v", snap.Values)
	}
}

func TestApply_UnknownField(t *testing.T) {
	h := newV1(&fakeSender{})
	if err := h.Apply("nope", "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestV2_GateFailedRefusesWithoutCall(t *testing.T) {
	s := &fakeSender{}
	g := NewGate(fakeFetcher{err: errors.New("handshake down")})
	h := NewHolder(complaint.CatalogV2(), s, g, WithClock(func() time.Time { return testNow }))
	g.Start(context.Background())
	<-g.Done()

	// The banner shows before any submit.
	snap := h.Snapshot()
	if !snap.Reload || snap.Banner != complaint.DefaultMessages[complaint.MsgBannerToken] {
		t.Fatalf("snapshot after failed gate = %+v", snap)
	}

	before := testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeRefused))
	fill(t, h)
	out := h.Submit(context.Background())
	if out.Kind != KindRefused || !errors.Is(out.Err, ErrTokenNotReady) {
		t.Fatalf("outcome = %+v", out)
	}
	if s.calls.Load() != 0 {
		t.Fatalf("sender called with failed gate")
	}
	if !h.Snapshot().Reload {
		t.Fatalf("reload hint missing")
	}
	if got := testutil.ToFloat64(metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeRefused)); got != before+1 {
		t.Fatalf("refused counter = %v, want %v", got, before+1)
	}
}

func TestV2_GatePendingRefuses(t *testing.T) {
	s := &fakeSender{}
	h := NewHolder(complaint.CatalogV2(), s, NewGate(fakeFetcher{}), WithClock(func() time.Time { return testNow }))
	fill(t, h)
	if out := h.Submit(context.Background()); out.Kind != KindRefused {
		t.Fatalf("outcome = %+v", out)
	}
	if s.calls.Load() != 0 {
		t.Fatal("sender called with pending gate")
	}
}

func TestV2_GateReadySends(t *testing.T) {
	s := &fakeSender{res: backend.Result{ReferenceNumber: "R2"}}
	g := NewGate(fakeFetcher{})
	h := NewHolder(complaint.CatalogV2(), s, g, WithClock(func() time.Time { return testNow }))
	g.Start(context.Background())
	if st := g.Wait(context.Background()); st != GateReady {
		t.Fatalf("gate = %s", st)
	}
	fill(t, h)
	if out := h.Submit(context.Background()); out.Kind != KindSuccess || out.Reference != "R2" {
		t.Fatalf("outcome = %+v", out)
	}
}
