// internal/backend/client.go
//
// HTTP client for the support backend.
//
// Context
// -------
// The backend exposes two endpoints this service talks to:
//
//	POST <base>/send-complaint   JSON complaint → {referenceNumber}
//	GET  <base>/get-csrf-token   security handshake (second form variant)
//
// Client owns a cookie jar so cookies set by the handshake travel with the
// complaint, the same way a browser sends credentials.  When the handshake
// body carries a token it is echoed in X-CSRF-Token on later sends.
//
// There is no retry policy.  A failed send is reported once and the visitor
// decides whether to submit again.
//
// Notes
// -----
// • Timeout 0 means no client-side timeout.
// • Oxford commas, two spaces after periods.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/yanizio/complaintdesk/internal/complaint"
)

// DefaultBaseURL is the production backend.
const DefaultBaseURL = "https://backend-iql1.onrender.com"

const (
	sendPath  = "/send-complaint"
	tokenPath = "/get-csrf-token"

	// TokenHeader carries the handshake token on sends.
	TokenHeader = "X-CSRF-Token"

	maxBody = 1 << 20
)

// Result is the success body of /send-complaint.
type Result struct {
	ReferenceNumber string `json:"referenceNumber"`
}

// errorBody is the failure body of /send-complaint.
type errorBody struct {
	Errors  map[string]string `json:"errors"`
	Message string            `json:"message"`
}

// Client talks to one backend.  Safe for concurrent use, but the handshake
// token is shared, so callers normally keep one Client per visitor session.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.  Its Jar, if nil, is
// filled in by New.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets a whole-request timeout.  Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New builds a Client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string { return c.base }

// FetchCSRFToken performs the security handshake.  Any non-2xx response or
// transport error fails.  A JSON body with a csrfToken member is remembered.
func (c *Client) FetchCSRFToken(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+tokenPath, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "get-csrf-token", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "get-csrf-token", Status: resp.StatusCode}
	}

	var body struct {
		Token string `json:"csrfToken"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Token != "" {
		c.mu.Lock()
		c.token = body.Token
		c.mu.Unlock()
	}
	return nil
}

// SendComplaint posts f and returns the backend's reference number.
//
// Errors:
//   - *FieldErrors    backend rejected specific fields
//   - *RejectedError  backend rejected with a generic message
//   - *TransportError network failure or unreadable body
func (c *Client) SendComplaint(ctx context.Context, f complaint.Form) (Result, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+sendPath, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set(TokenHeader, c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, &TransportError{Op: "send-complaint", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Result{}, &TransportError{Op: "send-complaint", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		var res Result
		if err := json.Unmarshal(raw, &res); err != nil {
			return Result{}, &TransportError{Op: "send-complaint", Err: fmt.Errorf("decode response: %w", err)}
		}
		if res.ReferenceNumber == "" {
			return Result{}, &TransportError{Op: "send-complaint", Err: errors.New("response has no referenceNumber")}
		}
		return res, nil
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return Result{}, &TransportError{
			Op:  "send-complaint",
			Err: fmt.Errorf("status %d with undecodable body: %w", resp.StatusCode, err),
		}
	}
	if len(body.Errors) > 0 {
		return Result{}, &FieldErrors{Status: resp.StatusCode, Fields: body.Errors}
	}
	msg := body.Message
	if msg == "" {
		msg = DefaultRejectMessage
	}
	return Result{}, &RejectedError{Status: resp.StatusCode, Message: msg}
}
