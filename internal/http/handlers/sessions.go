package handlers

import (
	"net/http"

	"weaver/internal/batch"
	"weaver/internal/catalog"
	"weaver/internal/session"
)

type sessionView struct {
	ID             string                `json:"id"`
	State          session.State         `json:"state"`
	HasSubject     bool                  `json:"has_subject"`
	Prompt         string                `json:"prompt"`
	NegativePrompt string                `json:"negative_prompt"`
	PreviewIndex   int                   `json:"preview_index"`
	Variations     []batch.VariationSlot `json:"variations"`
	LoadingMessage string                `json:"loading_message,omitempty"`
}

func (a *App) viewOf(sess *session.Session) sessionView {
	prompt, negative := sess.Prompts()
	view := sessionView{
		ID:             sess.ID,
		State:          sess.State(),
		HasSubject:     len(sess.Subject().Data) > 0,
		Prompt:         prompt,
		NegativePrompt: negative,
		PreviewIndex:   sess.PreviewIndex(),
		Variations:     sess.Batch.Snapshot(),
	}
	if view.State == session.StateGenerating {
		view.LoadingMessage = catalog.LoadingMessage(sess.Batch.Elapsed())
	}
	return view
}

func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	sess := a.Sessions.Create()
	a.json(w, http.StatusCreated, a.viewOf(sess))
}

func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, a.viewOf(sess))
}

// SessionReset is the "New Project" action: back to idle, everything about
// the current subject discarded.
func (a *App) SessionReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	sess.Reset()
	a.json(w, http.StatusOK, a.viewOf(sess))
}
