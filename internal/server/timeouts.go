// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers (10 s)
//   • WriteTimeout  – cap total response time (0, see below)
//   • IdleTimeout   – close keep-alives on idle clients (60 s)
//
// WriteTimeout defaults to zero because a complaint POST waits for the
// backend, which has no deadline of its own.  Operators who want one set
// http.write_timeout and backend.timeout together.
//
// This helper centralises those defaults so cmd/web doesn’t repeat boilerplate.
//

package server

import (
	"net/http"
	"time"
)

// Timeouts overrides the defaults.  Zero fields keep the default.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// Defaults used when a Timeouts field is zero.
const (
	DefaultReadTimeout       = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
)

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	if t.Read == 0 {
		t.Read = DefaultReadTimeout
	}
	if t.Idle == 0 {
		t.Idle = DefaultIdleTimeout
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}
