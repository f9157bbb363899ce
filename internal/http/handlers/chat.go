package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"weaver/internal/assistant"
)

type chatRequest struct {
	Message string `json:"message"`
}

// ChatSend appends the user's message to the transcript and relays the
// assistant's reply as server-sent events, one data event per fragment, so
// the browser can reveal the turn incrementally. Errors after the stream has
// opened arrive as an "error" event; the transcript keeps the inline error
// text either way.
func (a *App) ChatSend(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		a.error(w, http.StatusUnprocessableEntity, "empty_message", "message is required")
		return
	}

	conv := sess.Conversation()
	if conv.Streaming() {
		a.error(w, http.StatusConflict, "busy", "a previous message is still streaming")
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithTimeout(r.Context(), a.Config.ChatTimeout)
	defer cancel()

	err := conv.Send(ctx, req.Message, func(fragment string) error {
		payload, err := json.Marshal(fragment)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	switch {
	case err == nil:
		fmt.Fprint(w, "event: done\ndata: {}\n\n")
	case errors.Is(err, assistant.ErrBusy):
		fmt.Fprint(w, "event: error\ndata: \"a previous message is still streaming\"\n\n")
	default:
		payload, _ := json.Marshal(err.Error())
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
	}
	flusher.Flush()
}

// ChatHistory returns the transcript snapshot for re-rendering the panel.
func (a *App) ChatHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.sessionFromRequest(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, map[string]any{"turns": sess.Conversation().History()})
}
