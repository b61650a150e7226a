// internal/backend/client_test.go
//
// Unit-tests for the backend client against an httptest server.
//
// Run: go test ./internal/backend -v

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yanizio/complaintdesk/internal/complaint"
)

func sampleForm() complaint.Form {
	return complaint.Form{
		Username:    "player_01",
		Email:       "player@example.com",
		Platform:    complaint.DefaultPlatform,
		IssueType:   "Kerusakan Game",
		Description: "crash",
		DateOfIssue: "2026-10-17",
		PhoneNumber: "+6281234567890",
	}
}

func TestSendComplaint_Success(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/send-complaint" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"referenceNumber":"REF-123"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.SendComplaint(context.Background(), sampleForm())
	if err != nil {
		t.Fatalf("SendComplaint: %v", err)
	}
	if res.ReferenceNumber != "REF-123" {
		t.Fatalf("reference = %q", res.ReferenceNumber)
	}

	for _, k := range []string{"username", "email", "gameId", "platform", "issueType", "description", "dateOfIssue", "phoneNumber"} {
		if _, ok := got[k]; !ok {
			t.Errorf("payload missing %q", k)
		}
	}
	if got["platform"] != complaint.DefaultPlatform {
		t.Errorf("platform = %q", got["platform"])
	}
}

func TestSendComplaint_FieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"email":"invalid"}}`))
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, err := c.SendComplaint(context.Background(), sampleForm())

	var fe *FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FieldErrors", err)
	}
	if len(fe.Fields) != 1 || fe.Fields["email"] != "invalid" || fe.Status != 422 {
		t.Fatalf("unexpected: %+v", fe)
	}
}

func TestSendComplaint_Rejected(t *testing.T) {
	cases := map[string]string{
		`{"message":"rate limited"}`: "rate limited",
		`{}`:                         DefaultRejectMessage,
	}
	for body, want := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(body))
		}))

		c, _ := New(srv.URL)
		_, err := c.SendComplaint(context.Background(), sampleForm())
		srv.Close()

		var re *RejectedError
		if !errors.As(err, &re) || re.Message != want {
			t.Errorf("body %s: err = %v, want message %q", body, err, want)
		}
	}
}

func TestSendComplaint_TransportFailures(t *testing.T) {
	bodies := []struct {
		status int
		body   string
	}{
		{http.StatusInternalServerError, `<html>oops</html>`},
		{http.StatusOK, `not json`},
		{http.StatusOK, `{}`},
	}
	for _, b := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(b.status)
			_, _ = w.Write([]byte(b.body))
		}))
		c, _ := New(srv.URL)
		_, err := c.SendComplaint(context.Background(), sampleForm())
		srv.Close()

		var te *TransportError
		if !errors.As(err, &te) {
			t.Errorf("%d %s: err = %v, want *TransportError", b.status, b.body, err)
		}
	}

	// Closed server: connection refused.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c, _ := New(url)
	if _, err := c.SendComplaint(context.Background(), sampleForm()); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestFetchCSRFToken_CookieAndHeader(t *testing.T) {
	var sawCookie, sawHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("/get-csrf-token", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "_csrf", Value: "cookie-val", Path: "/"})
		_, _ = w.Write([]byte(`{"csrfToken":"tok-abc"}`))
	})
	mux.HandleFunc("/send-complaint", func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("_csrf"); err == nil {
			sawCookie = ck.Value
		}
		sawHeader = r.Header.Get(TokenHeader)
		_, _ = w.Write([]byte(`{"referenceNumber":"R1"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, _ := New(srv.URL)
	if err := c.FetchCSRFToken(context.Background()); err != nil {
		t.Fatalf("FetchCSRFToken: %v", err)
	}
	if _, err := c.SendComplaint(context.Background(), sampleForm()); err != nil {
		t.Fatalf("SendComplaint: %v", err)
	}
	if sawCookie != "cookie-val" {
		t.Errorf("cookie not sent, got %q", sawCookie)
	}
	if sawHeader != "tok-abc" {
		t.Errorf("token header = %q", sawHeader)
	}
}

func TestFetchCSRFToken_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	err := c.FetchCSRFToken(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusForbidden {
		t.Fatalf("err = %v", err)
	}
}
