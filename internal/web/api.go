package web

import (
	"encoding/json"
	"net/http"

	"github.com/yanizio/complaintdesk/internal/session"
)

type apiError struct {
	Error string `json:"error"`
}

type inputRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type submitResponse struct {
	Outcome string           `json:"outcome"`
	State   session.Snapshot `json:"state"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// apiSession resolves the caller's session or writes a 503.
func (h *Handler) apiSession(w http.ResponseWriter, r *http.Request) (*session.Holder, bool) {
	_, hold, err := h.store.Resolve(w, r)
	if err != nil {
		h.log.Errorw("session mount failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: "form unavailable"})
		return nil, false
	}
	return hold, true
}

func (h *Handler) apiState(w http.ResponseWriter, r *http.Request) {
	hold, ok := h.apiSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, hold.Snapshot())
}

func (h *Handler) apiInput(w http.ResponseWriter, r *http.Request) {
	var in inputRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "body must be {\"field\":…, \"value\":…}"})
		return
	}
	hold, ok := h.apiSession(w, r)
	if !ok {
		return
	}
	if err := hold.Apply(in.Field, in.Value); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, hold.Snapshot())
}

func (h *Handler) apiSubmit(w http.ResponseWriter, r *http.Request) {
	hold, ok := h.apiSession(w, r)
	if !ok {
		return
	}
	out := hold.Submit(r.Context())
	h.logOutcome(r, hold, out)
	writeJSON(w, statusFor(out.Kind), submitResponse{
		Outcome: string(out.Kind),
		State:   hold.Snapshot(),
	})
}

func (h *Handler) apiReset(w http.ResponseWriter, r *http.Request) {
	hold, ok := h.apiSession(w, r)
	if !ok {
		return
	}
	hold.SubmitAnother()
	writeJSON(w, http.StatusOK, hold.Snapshot())
}
