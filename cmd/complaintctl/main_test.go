// cmd/complaintctl/main_test.go
//
// End-to-end tests for the CLI: the root command runs in-process with
// buffers for stdout/stderr and an httptest server standing in for the
// backend.
//
// Run: go test ./cmd/complaintctl -v

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yanizio/complaintdesk/internal/complaint"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := execute(root)
	return out.String(), errOut.String(), err
}

func writeComplaint(t *testing.T, fields map[string]string) string {
	t.Helper()
	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "complaint.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func validFields(day string) map[string]string {
	return map[string]string{
		"username":    "player_01",
		"email":       "player@example.com",
		"issueType":   "Kerusakan Game",
		"description": "Game crashed during a bonus round.",
		"dateOfIssue": day,
		"phoneNumber": "+62 812-3456-7890",
	}
}

func yesterday() string {
	return time.Now().AddDate(0, 0, -1).Format(complaint.DateLayout)
}

func TestFormsListsDefaults(t *testing.T) {
	out, _, err := runCLI(t, "", "forms")
	if err != nil {
		t.Fatalf("forms: %v", err)
	}
	for _, want := range []string{"complaint/v1", "complaint/v2", "token=yes", "Saldo Tidak Sesuai"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateOK(t *testing.T) {
	path := writeComplaint(t, validFields("2026-10-17"))
	out, _, err := runCLI(t, "", "validate", "--file", path, "--variant", "v1", "--today", "2026-10-18")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "complaint/v1: ok") {
		t.Fatalf("out = %q", out)
	}
}

func TestValidateReportsFieldErrors(t *testing.T) {
	fields := validFields("2026-10-19")
	fields["email"] = "not-an-email"
	fields["issueType"] = "Saldo Tidak Sesuai" // v2 only
	path := writeComplaint(t, fields)

	out, errOut, err := runCLI(t, "", "validate", "--file", path, "--variant", "v1", "--today", "2026-10-18")
	if !errors.Is(err, errInvalid) {
		t.Fatalf("err = %v, want errInvalid", err)
	}
	for _, f := range []string{"email:", "issueType:", "dateOfIssue:"} {
		if !strings.Contains(out, f) {
			t.Errorf("output missing %q:\n%s", f, out)
		}
	}
	if errOut != "" {
		t.Errorf("stderr = %q, want quiet", errOut)
	}
}

func TestValidateFromStdin(t *testing.T) {
	raw, _ := json.Marshal(validFields("2026-10-17"))
	out, _, err := runCLI(t, string(raw), "validate", "--file", "-", "--today", "2026-10-18")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "complaint/v2: ok") {
		t.Fatalf("out = %q", out)
	}
}

func TestValidateUnknownField(t *testing.T) {
	fields := validFields("2026-10-17")
	fields["favouriteColour"] = "blue"
	path := writeComplaint(t, fields)

	_, errOut, err := runCLI(t, "", "validate", "--file", path, "--today", "2026-10-18")
	if err == nil || errors.Is(err, errInvalid) {
		t.Fatalf("err = %v, want unknown field error", err)
	}
	if !strings.Contains(errOut, "favouriteColour") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestValidateUnknownVariant(t *testing.T) {
	path := writeComplaint(t, validFields("2026-10-17"))
	_, _, err := runCLI(t, "", "validate", "--file", path, "--variant", "v9")
	if err == nil || !strings.Contains(err.Error(), "complaint/v9") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRequiresFile(t *testing.T) {
	if _, _, err := runCLI(t, "", "validate"); err == nil {
		t.Fatal("expected missing --file error")
	}
}

// backendStub mimics the two backend endpoints.
type backendStub struct {
	tokenStatus int
	sendStatus  int
	sendBody    string
	sends       atomic.Int32
	gotToken    atomic.Value
	gotPayload  atomic.Value
}

func (b *backendStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get-csrf-token":
			if b.tokenStatus != 0 {
				w.WriteHeader(b.tokenStatus)
				return
			}
			_, _ = w.Write([]byte(`{"csrfToken":"tok-1"}`))
		case "/send-complaint":
			b.sends.Add(1)
			b.gotToken.Store(r.Header.Get("X-CSRF-Token"))
			var p map[string]string
			_ = json.NewDecoder(r.Body).Decode(&p)
			b.gotPayload.Store(p)
			if b.sendStatus != 0 {
				w.WriteHeader(b.sendStatus)
			}
			_, _ = w.Write([]byte(b.sendBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitV2Success(t *testing.T) {
	stub := &backendStub{sendBody: `{"referenceNumber":"REF-9"}`}
	srv := stub.server(t)
	path := writeComplaint(t, validFields(yesterday()))

	out, errOut, err := runCLI(t, "", "submit", "--file", path, "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, "reference: REF-9") {
		t.Fatalf("out = %q", out)
	}
	if got := stub.gotToken.Load(); got != "tok-1" {
		t.Errorf("token header = %v", got)
	}
	p := stub.gotPayload.Load().(map[string]string)
	if p["phoneNumber"] != "+6281234567890" {
		t.Errorf("phone not sanitized: %q", p["phoneNumber"])
	}
	if p["platform"] != complaint.DefaultPlatform {
		t.Errorf("platform = %q", p["platform"])
	}
}

func TestSubmitV2HandshakeFailure(t *testing.T) {
	stub := &backendStub{tokenStatus: http.StatusForbidden}
	srv := stub.server(t)
	path := writeComplaint(t, validFields(yesterday()))

	_, errOut, err := runCLI(t, "", "submit", "--file", path, "--base-url", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "security handshake") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(errOut, "security handshake") {
		t.Errorf("stderr = %q", errOut)
	}
	if n := stub.sends.Load(); n != 0 {
		t.Fatalf("sends = %d, want 0", n)
	}
}

func TestSubmitV1SkipsHandshake(t *testing.T) {
	stub := &backendStub{tokenStatus: http.StatusInternalServerError, sendBody: `{"referenceNumber":"REF-1"}`}
	srv := stub.server(t)
	path := writeComplaint(t, validFields(yesterday()))

	out, _, err := runCLI(t, "", "submit", "--file", path, "--variant", "v1", "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "reference: REF-1") {
		t.Fatalf("out = %q", out)
	}
}

func TestSubmitInvalidMakesNoCall(t *testing.T) {
	stub := &backendStub{sendBody: `{"referenceNumber":"REF-X"}`}
	srv := stub.server(t)
	fields := validFields(yesterday())
	fields["username"] = "x"
	path := writeComplaint(t, fields)

	out, _, err := runCLI(t, "", "submit", "--file", path, "--base-url", srv.URL)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "username:") {
		t.Errorf("out = %q", out)
	}
	if n := stub.sends.Load(); n != 0 {
		t.Fatalf("sends = %d, want 0", n)
	}
}

func TestSubmitBackendFieldErrors(t *testing.T) {
	stub := &backendStub{
		sendStatus: http.StatusUnprocessableEntity,
		sendBody:   `{"errors":{"email":"Email sudah terdaftar"}}`,
	}
	srv := stub.server(t)
	path := writeComplaint(t, validFields(yesterday()))

	out, _, err := runCLI(t, "", "submit", "--file", path, "--base-url", srv.URL)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "email: Email sudah terdaftar") {
		t.Fatalf("out = %q", out)
	}
}

func TestSubmitBackendFailure(t *testing.T) {
	stub := &backendStub{sendStatus: http.StatusInternalServerError, sendBody: `<html>oops</html>`}
	srv := stub.server(t)
	path := writeComplaint(t, validFields(yesterday()))

	_, errOut, err := runCLI(t, "", "submit", "--file", path, "--base-url", srv.URL)
	if err == nil || errors.Is(err, errInvalid) {
		t.Fatalf("err = %v", err)
	}
	if errOut == "" {
		t.Error("expected an error on stderr")
	}
	if n := stub.sends.Load(); n != 1 {
		t.Fatalf("sends = %d, want 1", n)
	}
}
