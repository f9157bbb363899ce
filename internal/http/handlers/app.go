package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"weaver/internal/infra"
	"weaver/internal/session"
)

// App is the handler container: configuration, logging, and the session
// store every endpoint resolves its state through.
type App struct {
	Config   *infra.Config
	Logger   infra.Logger
	Sessions *session.Store
}

func NewApp(cfg *infra.Config, logger infra.Logger, sessions *session.Store) *App {
	return &App{Config: cfg, Logger: logger, Sessions: sessions}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{"error": map[string]string{"code": slug, "message": message}})
}

// sessionFromRequest resolves the {id} route param to a live session,
// writing the 404 itself when the session is unknown or expired.
func (a *App) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "session id required")
		return nil, false
	}
	sess, ok := a.Sessions.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
		return nil, false
	}
	return sess, true
}
