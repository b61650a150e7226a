package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/yanizio/complaintdesk/internal/complaint"
	"github.com/yanizio/complaintdesk/internal/form"
	"github.com/yanizio/complaintdesk/internal/requestinfo"
	"github.com/yanizio/complaintdesk/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

type pageData struct {
	Title  string
	Snap   session.Snapshot
	Fields template.HTML
	Token  string
	Busy   bool
}

// statusFor maps a submit outcome to the page or API status code.
func statusFor(k session.Kind) int {
	switch k {
	case session.KindSuccess:
		return http.StatusOK
	case session.KindInvalid, session.KindRejected:
		return http.StatusUnprocessableEntity
	case session.KindRefused:
		return http.StatusForbidden
	case session.KindBusy:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	_, hold, err := h.store.Resolve(w, r)
	if err != nil {
		h.log.Errorw("session mount failed", "err", err)
		http.Error(w, "form unavailable", http.StatusServiceUnavailable)
		return
	}
	h.render(w, hold, http.StatusOK)
}

func (h *Handler) postPage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form body", http.StatusBadRequest)
		return
	}
	if !h.signer.Verify(r.PostForm.Get(form.TokenField)) {
		http.Error(w, "form expired, reload the page", http.StatusForbidden)
		return
	}

	_, hold, err := h.store.Resolve(w, r)
	if err != nil {
		h.log.Errorw("session mount failed", "err", err)
		http.Error(w, "form unavailable", http.StatusServiceUnavailable)
		return
	}

	for _, name := range complaint.EditableFields {
		if vals, ok := r.PostForm[name]; ok && len(vals) > 0 {
			_ = hold.Apply(name, vals[0])
		}
	}

	out := hold.Submit(r.Context())
	h.logOutcome(r, hold, out)
	if out.Kind == session.KindSuccess {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, hold, statusFor(out.Kind))
}

func (h *Handler) postAnother(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil || !h.signer.Verify(r.PostForm.Get(form.TokenField)) {
		http.Error(w, "form expired, reload the page", http.StatusForbidden)
		return
	}
	if _, hold, ok := h.store.Lookup(r); ok {
		hold.SubmitAnother()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) getReload(w http.ResponseWriter, r *http.Request) {
	h.store.Forget(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render writes the full page for hold with status.
func (h *Handler) render(w http.ResponseWriter, hold *session.Holder, status int) {
	snap := hold.Snapshot()
	fd, ok := h.reg.Get(snap.Variant)
	if !ok {
		h.log.Errorw("form definition vanished", "variant", snap.Variant)
		http.Error(w, "form unavailable", http.StatusServiceUnavailable)
		return
	}

	tok, err := h.signer.Issue()
	if err != nil {
		h.log.Errorw("page token issue failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title: fd.Title,
		Snap:  snap,
		Token: tok,
		Busy:  snap.Busy,
	}
	if !snap.Submitted {
		data.Fields, err = form.RenderForm(fd, form.RenderOptions{
			Values:   snap.Values.Values(),
			Errors:   snap.Errors,
			Token:    tok,
			Today:    h.now().Format(complaint.DateLayout),
			Disabled: snap.Busy,
		})
		if err != nil {
			h.log.Errorw("form render failed", "variant", snap.Variant, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	var buf bytes.Buffer
	if err := pageTmpl.ExecuteTemplate(&buf, "page", data); err != nil {
		h.log.Errorw("page render failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// logOutcome records one submission.  Field values stay out of the log.
func (h *Handler) logOutcome(r *http.Request, hold *session.Holder, out session.Outcome) {
	kv := []any{"variant", hold.Catalog().ID, "outcome", string(out.Kind)}
	if out.Reference != "" {
		kv = append(kv, "reference", out.Reference)
	}
	if out.Err != nil {
		kv = append(kv, "err", out.Err)
	}
	kv = append(kv, requestinfo.FromContext(r.Context()).LogFields()...)
	h.log.Infow("complaint submission", kv...)
}
