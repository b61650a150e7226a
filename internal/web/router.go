// internal/web/router.go
//
// HTTP surface of complaintdesk.
//
// Context
// -------
// One chi router serves the complaint page, a small JSON API over the same
// session state, and the operational endpoints:
//
//	GET  /             mount the session and render the form or success panel
//	POST /             apply posted fields, then submit
//	POST /another      reset after a successful submission
//	GET  /reload       drop the session; the next GET mounts a fresh one
//	GET  /api/state    session snapshot as JSON
//	POST /api/input    {field, value}
//	POST /api/submit   submit, returns outcome + snapshot
//	POST /api/reset    same as /another
//	GET  /healthz      liveness
//	GET  /metrics      Prometheus
//
// Middleware order (outermost first): ForceHTTPS (optional), RequestID,
// Recoverer, access log, requestinfo.Enrich, security headers.
//
// Notes
// -----
// • Page POSTs carry a signed token from internal/form.  API POSTs must be
//   `application/json`, which a cross-site HTML form cannot send.
// • Oxford commas, two spaces after periods.
package web

import (
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/complaintdesk/internal/form"
	mw "github.com/yanizio/complaintdesk/internal/middleware"
	"github.com/yanizio/complaintdesk/internal/requestinfo"
	"github.com/yanizio/complaintdesk/internal/session"
)

// maxFormBytes caps page and API request bodies.
const maxFormBytes = 64 << 10

// Options wires the router to its collaborators.
type Options struct {
	Registry   *form.Registry
	Store      *session.Store
	Signer     *form.Signer
	Log        *zap.SugaredLogger
	Now        func() time.Time
	ForceHTTPS bool
}

// Handler holds the request handlers.  Build with NewRouter.
type Handler struct {
	reg    *form.Registry
	store  *session.Store
	signer *form.Signer
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewRouter returns the complete handler tree.
func NewRouter(o Options) http.Handler {
	h := &Handler{
		reg:    o.Registry,
		store:  o.Store,
		signer: o.Signer,
		log:    o.Log,
		now:    o.Now,
	}
	if h.log == nil {
		h.log = zap.S()
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(h.log))
	r.Use(requestinfo.Enrich)
	r.Use(mw.Security)

	r.Get("/", h.getPage)
	r.Post("/", h.postPage)
	r.Post("/another", h.postAnother)
	r.Get("/reload", h.getReload)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.apiState)
		r.Group(func(r chi.Router) {
			r.Use(requireJSON)
			r.Post("/input", h.apiInput)
			r.Post("/submit", h.apiSubmit)
			r.Post("/reset", h.apiReset)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if o.ForceHTTPS {
		return mw.ForceHTTPS(r)
	}
	return r
}

// requireJSON rejects API writes that are not declared as JSON, including
// empty bodies.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			writeJSON(w, http.StatusUnsupportedMediaType, apiError{Error: "content type must be application/json"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
func accessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Infow("http request",
				"req_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"dur_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
