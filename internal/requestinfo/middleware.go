// internal/requestinfo/middleware.go
//
// Enrich attaches a *RequestInfo to every visitor request.
//
// Context
// -------
// Submission log lines in internal/web want the visitor's device class and
// country.  Enrich computes both once per request (uasurfer on the
// User-Agent, an optional GeoLite2 lookup on the client address) and stores
// the result in the request context.  Probe traffic on /healthz and /metrics
// passes through untouched.
//
// Notes
// -----
//   • The client address prefers the first parseable X-Forwarded-For entry,
//     then X-Real-Ip, then RemoteAddr.  Deploy behind a proxy that
//     overwrites these headers.
//   • Oxford commas, two spaces after periods.
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// probePaths are served without enrichment.
var probePaths = map[string]bool{
	"/healthz": true,
	"/metrics": true,
}

// Enrich is chi-compatible middleware.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if probePaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		info := newRequestInfo(r)
		zap.S().Debugw("visitor",
			"path", r.URL.Path,
			"device", info.UA.Device,
			"browser", info.UA.Browser,
			"bot", info.UA.IsBot,
			"country", info.Geo.CountryISO,
		)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, info)))
	})
}

func newRequestInfo(r *http.Request) *RequestInfo {
	return &RequestInfo{
		UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
		Geo:       lookupGeo(clientIP(r)),
		Timestamp: time.Now().UTC(),
	}
}

// clientIP returns the visitor address, or nil when none parses.
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); ip != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
