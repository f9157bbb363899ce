package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"weaver/internal/batch"
	"weaver/internal/session"
)

type previewRequest struct {
	Index int `json:"index"`
}

// PreviewOpen records the full-screen preview overlay for a completed slot.
func (a *App) PreviewOpen(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	err := sess.OpenPreview(req.Index)
	switch {
	case err == nil:
		a.json(w, http.StatusOK, a.viewOf(sess))
	case errors.Is(err, batch.ErrNoBatch), errors.Is(err, batch.ErrIndexOutOfRange):
		a.error(w, http.StatusNotFound, "not_found", "variation not found")
	case errors.Is(err, session.ErrPreviewNotReady):
		a.error(w, http.StatusConflict, "not_ready", "variation is not ready to preview")
	default:
		a.error(w, http.StatusInternalServerError, "internal", "failed to open preview")
	}
}

// PreviewClose dismisses the overlay; closing an already-closed preview is
// fine.
func (a *App) PreviewClose(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	sess.ClosePreview()
	a.json(w, http.StatusOK, a.viewOf(sess))
}
