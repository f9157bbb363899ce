package handlers

import (
	"encoding/json"
	"net/http"

	"weaver/internal/catalog"
)

type promptRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
}

// PromptSet stores the prompt pair as the user types.
func (a *App) PromptSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	sess.SetPrompts(req.Prompt, req.NegativePrompt)
	a.json(w, http.StatusOK, a.viewOf(sess))
}

// PromptSurprise replaces the prompt with a random catalog pick.
func (a *App) PromptSurprise(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	sess.SetPrompt(catalog.RandomPrompt(nil))
	a.json(w, http.StatusOK, a.viewOf(sess))
}

type styleRequest struct {
	Key string `json:"key"`
}

// PromptStyle appends a preset style fragment to the current prompt.
func (a *App) PromptStyle(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req styleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	preset, found := catalog.StyleByKey(req.Key)
	if !found {
		a.error(w, http.StatusUnprocessableEntity, "unknown_style", "unknown style preset: "+req.Key)
		return
	}
	prompt, _ := sess.Prompts()
	sess.SetPrompt(catalog.ApplyStyle(prompt, preset.Fragment))
	a.json(w, http.StatusOK, a.viewOf(sess))
}

// CatalogStyles lists the preset style enhancers in render order.
func (a *App) CatalogStyles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": catalog.StylePresets()})
}

// CatalogStarters lists the assistant conversation starters.
func (a *App) CatalogStarters(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": catalog.StarterPrompts})
}
