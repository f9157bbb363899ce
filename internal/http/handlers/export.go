package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"weaver/internal/batch"
)

// ExportAll bundles every completed variation into one zip download. With
// nothing completed there is nothing to download.
func (a *App) ExportAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	archive, count, err := sess.Batch.ExportAll(r.Context())
	if err != nil {
		if errors.Is(err, batch.ErrNothingToExport) {
			a.error(w, http.StatusNotFound, "nothing_to_export", "no completed variations to export")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	a.Logger.Debug().Int("entries", count).Str("session_id", sess.ID).Msg("export: archive built")
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", batch.BundleName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// ExportOne serves a single completed variation for direct download.
func (a *App) ExportOne(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid variation index")
		return
	}

	data, mime, err := sess.Batch.ExportOne(r.Context(), index)
	switch {
	case err == nil:
	case errors.Is(err, batch.ErrNoBatch), errors.Is(err, batch.ErrIndexOutOfRange), errors.Is(err, batch.ErrSlotNotDone):
		a.error(w, http.StatusNotFound, "not_found", "variation has no completed result")
		return
	default:
		a.error(w, http.StatusInternalServerError, "internal", "failed to fetch result")
		return
	}

	if mime == "" {
		mime = "image/jpeg"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", batch.VariationFileName(index)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
