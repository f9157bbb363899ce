package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"weaver/internal/batch"
	"weaver/internal/session"
)

type generateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Count          int    `json:"count"`
}

// Generate starts a fresh batch of variations. The call returns as soon as
// the slots exist; the view polls the session for per-slot completions.
// Generation runs on a background context so it keeps going after this
// request finishes.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if sess.Batch.Generating() {
		a.error(w, http.StatusConflict, "generating", "a batch is already generating")
		return
	}

	count := req.Count
	if count <= 0 {
		count = a.Config.VariationCount
	}

	err := sess.Generate(context.Background(), req.Prompt, req.NegativePrompt, count)
	switch {
	case err == nil:
		a.json(w, http.StatusAccepted, a.viewOf(sess))
	case errors.Is(err, session.ErrNoSubject):
		a.error(w, http.StatusUnprocessableEntity, "no_subject", "upload a subject image first")
	case errors.Is(err, batch.ErrEmptyPrompt):
		a.error(w, http.StatusUnprocessableEntity, "empty_prompt", "prompt is required")
	case errors.Is(err, batch.ErrInvalidCount):
		a.error(w, http.StatusUnprocessableEntity, "invalid_count", "count must be at least 1")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
	}
}

// Regenerate relaunches a single variation without disturbing its siblings.
func (a *App) Regenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid variation index")
		return
	}

	err = sess.Regenerate(context.Background(), index)
	switch {
	case err == nil:
		a.json(w, http.StatusAccepted, a.viewOf(sess))
	case errors.Is(err, batch.ErrNoBatch), errors.Is(err, batch.ErrIndexOutOfRange):
		a.error(w, http.StatusNotFound, "not_found", "variation not found")
	case errors.Is(err, batch.ErrSlotPending):
		a.error(w, http.StatusConflict, "pending", "variation is still generating")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "failed to regenerate")
	}
}
