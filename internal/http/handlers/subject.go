package handlers

import (
	"encoding/json"
	"net/http"

	"weaver/internal/providers/genai"
)

// acceptedSubjectMIMEs matches the upload file picker: common raster
// formats only.
var acceptedSubjectMIMEs = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

type subjectUploadRequest struct {
	Image string `json:"image"`
}

// SubjectUpload replaces the session's subject image. Previous results and
// prompts are cleared, the same as picking a different photo in the view.
func (a *App) SubjectUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes)
	var req subjectUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	subject, err := genai.ParseDataURL(req.Image)
	if err != nil {
		a.error(w, http.StatusUnprocessableEntity, "invalid_image", err.Error())
		return
	}
	if _, ok := acceptedSubjectMIMEs[subject.MIME]; !ok {
		a.error(w, http.StatusUnprocessableEntity, "invalid_image", "unsupported image format: "+subject.MIME)
		return
	}

	sess.SetSubject(subject)
	a.json(w, http.StatusOK, a.viewOf(sess))
}
