// Package session owns the per-browser-session state: the uploaded subject,
// the prompt pair, the preview overlay, and the two coordinators. Nothing
// here survives a restart; sessions are evicted after a TTL.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"weaver/internal/assistant"
	"weaver/internal/batch"
	"weaver/internal/providers/genai"
)

// State is the coarse mode flag driving the view.
type State string

const (
	StateIdle          State = "idle"
	StateSubjectLoaded State = "subject-loaded"
	StateGenerating    State = "generating"
	StateResultsShown  State = "results-shown"
)

var (
	ErrNoSubject       = errors.New("no subject image uploaded")
	ErrPreviewNotReady = errors.New("variation is not ready to preview")
)

const noPreview = -1

// Session is the unit of ownership for one user of the tool. Mutations go
// through its methods only; the view layer reads snapshots.
type Session struct {
	ID string

	mu           sync.Mutex
	subject      genai.SubjectImage
	prompt       string
	negative     string
	previewIndex int

	Batch *batch.Coordinator
	conv  *assistant.Conversation
	mkCon func() *assistant.Conversation
}

func newSession(id string, coordinator *batch.Coordinator, mkConversation func() *assistant.Conversation) *Session {
	return &Session{
		ID:           id,
		previewIndex: noPreview,
		Batch:        coordinator,
		mkCon:        mkConversation,
	}
}

// SetSubject replaces the subject image and clears previous results and
// prompts, mirroring a fresh upload.
func (s *Session) SetSubject(img genai.SubjectImage) {
	s.Batch.Reset()
	s.mu.Lock()
	s.subject = img
	s.prompt = ""
	s.negative = ""
	s.previewIndex = noPreview
	s.mu.Unlock()
}

// Subject returns the current subject image.
func (s *Session) Subject() genai.SubjectImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// SetPrompts stores the prompt pair.
func (s *Session) SetPrompts(prompt, negative string) {
	s.mu.Lock()
	s.prompt = prompt
	s.negative = negative
	s.mu.Unlock()
}

// Prompts returns the current prompt pair.
func (s *Session) Prompts() (prompt, negative string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt, s.negative
}

// SetPrompt replaces only the positive prompt, used by surprise-me and the
// style picker.
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
}

// Generate stores the prompt pair and starts a fresh batch against the
// uploaded subject.
func (s *Session) Generate(ctx context.Context, prompt, negative string, count int) error {
	s.mu.Lock()
	subject := s.subject
	s.mu.Unlock()
	if len(subject.Data) == 0 {
		return ErrNoSubject
	}
	if strings.TrimSpace(prompt) == "" {
		return batch.ErrEmptyPrompt
	}

	s.SetPrompts(prompt, negative)
	s.ClosePreview()
	return s.Batch.Start(ctx, subject, prompt, negative, count)
}

// Regenerate relaunches one slot and closes the preview when it is showing
// that slot, since the content it displays is about to go stale.
func (s *Session) Regenerate(ctx context.Context, index int) error {
	if err := s.Batch.Regenerate(ctx, index); err != nil {
		return err
	}
	s.mu.Lock()
	if s.previewIndex == index {
		s.previewIndex = noPreview
	}
	s.mu.Unlock()
	return nil
}

// OpenPreview records the full-screen preview for a completed slot.
func (s *Session) OpenPreview(index int) error {
	slot, err := s.Batch.Slot(index)
	if err != nil {
		return err
	}
	if slot.Status != batch.StatusDone {
		return ErrPreviewNotReady
	}
	s.mu.Lock()
	s.previewIndex = index
	s.mu.Unlock()
	return nil
}

// ClosePreview dismisses the preview. Closing an already-closed preview is a
// no-op.
func (s *Session) ClosePreview() {
	s.mu.Lock()
	s.previewIndex = noPreview
	s.mu.Unlock()
}

// PreviewIndex returns the previewed slot index, or -1 when closed.
func (s *Session) PreviewIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewIndex
}

// Reset discards the subject, prompts, preview, and all variation slots,
// returning the session to idle. The assistant conversation survives a
// project reset.
func (s *Session) Reset() {
	s.Batch.Reset()
	s.mu.Lock()
	s.subject = genai.SubjectImage{}
	s.prompt = ""
	s.negative = ""
	s.previewIndex = noPreview
	s.mu.Unlock()
}

// State derives the forward-moving view mode from the owned state.
func (s *Session) State() State {
	s.mu.Lock()
	hasSubject := len(s.subject.Data) > 0
	s.mu.Unlock()

	if !hasSubject {
		return StateIdle
	}
	slots := s.Batch.Snapshot()
	if slots == nil {
		return StateSubjectLoaded
	}
	if s.Batch.Generating() {
		return StateGenerating
	}
	return StateResultsShown
}

// Conversation lazily creates the assistant conversation the first time the
// panel is used and returns the same one afterwards.
func (s *Session) Conversation() *assistant.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv == nil {
		s.conv = s.mkCon()
	}
	return s.conv
}
