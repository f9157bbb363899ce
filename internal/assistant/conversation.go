// Package assistant maintains one linear chat transcript against the remote
// assistant. Turns are append-only; the only turn that ever mutates is the
// trailing model turn, and only until its stream terminates.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"weaver/internal/infra"
	"weaver/internal/providers/genai"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message in the transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Streamer is the remote contract: a finite, non-restartable sequence of
// text fragments for one message.
type Streamer interface {
	StreamMessage(ctx context.Context, history []genai.ChatTurn, message string, emit func(fragment string) error) error
}

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a previous message is still streaming")
)

// Conversation serializes sends: while one stream is open, further sends are
// refused, preserving one-assistant-turn-in-flight-at-a-time semantics.
type Conversation struct {
	mu        sync.Mutex
	client    Streamer
	logger    infra.Logger
	turns     []Turn
	streaming bool
}

// NewConversation creates the session context for the assistant panel. No
// network call happens until the first Send.
func NewConversation(client Streamer, logger infra.Logger) *Conversation {
	return &Conversation{client: client, logger: logger}
}

// Send appends a user turn and an empty model turn, then streams the reply
// into the model turn fragment by fragment. Fragments are also forwarded to
// sink when one is provided, so a caller can relay them to the browser as
// they arrive. On a mid-stream failure the partial text is replaced with an
// inline error message and the turn is frozen; the conversation stays usable
// for the next send. A canceled context freezes whatever text accumulated
// without marking the turn as failed.
func (c *Conversation) Send(ctx context.Context, text string, sink func(fragment string) error) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.streaming {
		c.mu.Unlock()
		return ErrBusy
	}
	c.streaming = true
	history := make([]genai.ChatTurn, len(c.turns))
	for i, turn := range c.turns {
		history[i] = genai.ChatTurn{Role: string(turn.Role), Text: turn.Text}
	}
	c.turns = append(c.turns, Turn{Role: RoleUser, Text: text}, Turn{Role: RoleModel})
	reply := len(c.turns) - 1
	c.mu.Unlock()

	err := c.client.StreamMessage(ctx, history, text, func(fragment string) error {
		c.mu.Lock()
		c.turns[reply].Text += fragment
		c.mu.Unlock()
		if sink != nil {
			return sink(fragment)
		}
		return nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.streaming = false
	if err != nil && !errors.Is(err, context.Canceled) {
		c.turns[reply].Text = "Sorry, something went wrong: " + err.Error()
		c.logger.Warn().Err(err).Msg("assistant: stream failed")
		return err
	}
	return nil
}

// History returns a snapshot copy of the transcript.
func (c *Conversation) History() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Streaming reports whether a send is currently in flight.
func (c *Conversation) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}
