package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kdimtricp/hoverlabel/internal/hover"
	"github.com/kdimtricp/hoverlabel/internal/locator"
	"github.com/kdimtricp/hoverlabel/internal/logging"
	"github.com/kdimtricp/hoverlabel/internal/models"
	"github.com/kdimtricp/hoverlabel/internal/overlay"
)

const maxRequestBody = 1 << 20

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

type Handlers struct {
	service *hover.Service
}

func NewHandlers(service *hover.Service) *Handlers {
	return &Handlers{service: service}
}

type toggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type toggleResponse struct {
	Enabled bool `json:"enabled"`
}

func (h *Handlers) GetToggleHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toggleResponse{Enabled: h.service.Enabled()})
}

func (h *Handlers) SetToggleHandler(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.service.SetEnabled(*req.Enabled)
	writeJSON(w, http.StatusOK, toggleResponse{Enabled: h.service.Enabled()})
}

type createSessionRequest struct {
	PageURL string `json:"page_url"`
}

type sessionResponse struct {
	ID      string       `json:"id"`
	PageURL string       `json:"page_url,omitempty"`
	Stats   *hover.Stats `json:"stats,omitempty"`
}

func (h *Handlers) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	session := h.service.CreateSession(req.PageURL)
	writeJSON(w, http.StatusCreated, sessionResponse{ID: session.ID, PageURL: session.PageURL})
}

func (h *Handlers) SessionStatsHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	stats := session.Stats()
	writeJSON(w, http.StatusOK, sessionResponse{ID: session.ID, PageURL: session.PageURL, Stats: &stats})
}

func (h *Handlers) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	target, ok := decodeTarget(w, r)
	if !ok {
		return
	}

	if err := session.Notify(target); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type classifyResponse struct {
	Target      string              `json:"target"`
	State       models.StateKind    `json:"state"`
	ImageURL    string              `json:"image_url,omitempty"`
	Verdict     *models.Verdict     `json:"verdict,omitempty"`
	Error       string              `json:"error,omitempty"`
	Instruction overlay.Instruction `json:"instruction"`
}

func (h *Handlers) ClassifyHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	target, ok := decodeTarget(w, r)
	if !ok {
		return
	}

	state, in, err := session.Handle(r.Context(), target)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := classifyResponse{
		Target:      target.ID,
		State:       state.Kind,
		ImageURL:    string(state.Key),
		Instruction: in,
	}
	if state.Kind == models.StateLabeled {
		v := state.Verdict
		resp.Verdict = &v
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ListOverlaysHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Overlays())
}

func (h *Handlers) GetOverlayHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	in, exists := session.Overlay(chi.URLParam(r, "target"))
	if !exists {
		writeError(w, http.StatusNotFound, "no overlay for target")
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (h *Handlers) ClearOverlayHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	session.Clear(chi.URLParam(r, "target"))
	w.WriteHeader(http.StatusNoContent)
}

type feedbackRequest struct {
	ImageURL string `json:"image_url"`
	Vote     string `json:"vote"`
}

type feedbackResponse struct {
	Submitted bool `json:"submitted"`
}

func (h *Handlers) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "image_url is required")
		return
	}
	vote, ok := models.ParseVote(req.Vote)
	if !ok {
		writeError(w, http.StatusBadRequest, "vote must be correct or incorrect")
		return
	}

	submitted, err := session.SubmitFeedback(req.ImageURL, vote)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{Submitted: submitted})
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*hover.Session, bool) {
	session, exists := h.service.GetSession(chi.URLParam(r, "id"))
	if !exists {
		writeError(w, http.StatusNotFound, hover.ErrSessionNotFound.Error())
		return nil, false
	}
	return session, true
}

func decodeTarget(w http.ResponseWriter, r *http.Request) (locator.Target, bool) {
	var target locator.Target
	if !decodeJSON(w, r, &target) {
		return target, false
	}
	if target.ID == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return target, false
	}

	switch target.Source {
	case "":
		target.Source = locator.SourceHover
	case locator.SourceHover, locator.SourceMutation:
	default:
		writeError(w, http.StatusBadRequest, "source must be hover or mutation")
		return target, false
	}
	return target, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hover.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, hover.ErrDisabled), errors.Is(err, hover.ErrNoVerdict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, hover.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}
