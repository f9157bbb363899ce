// Package batch owns the lifecycle of a fixed-size set of independent
// generation requests sharing one subject image and one prompt pair. Each
// in-flight call owns exactly one slot; completions never touch a sibling,
// so partial success is a normal terminal outcome rather than a failure.
package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"weaver/internal/infra"
	"weaver/internal/providers/genai"
)

// Generator is the remote contract the coordinator fans out over.
type Generator interface {
	GenerateVariation(ctx context.Context, req genai.VariationRequest) (string, error)
}

var (
	ErrNoBatch         = errors.New("no generation batch has been started")
	ErrNoSubject       = errors.New("subject image is required")
	ErrEmptyPrompt     = errors.New("prompt is required")
	ErrInvalidCount    = errors.New("variation count must be at least 1")
	ErrIndexOutOfRange = errors.New("variation index out of range")
	ErrSlotPending     = errors.New("variation is still generating")
	ErrSlotNotDone     = errors.New("variation has no completed result")
	ErrNothingToExport = errors.New("no completed variations to export")
)

// Coordinator manages one batch at a time. All slot mutation happens under
// the mutex; goroutines launched for a previous batch are fenced off by the
// epoch counter so a reset can never be corrupted by a stale completion.
type Coordinator struct {
	mu       sync.Mutex
	gen      Generator
	logger   infra.Logger
	timeout  time.Duration
	fetch    fetchFunc
	onChange func()

	epoch    int
	subject  genai.SubjectImage
	prompt   string
	negative string
	slots    []VariationSlot
	started  time.Time
}

// NewCoordinator wires a coordinator to its generator. A zero timeout
// disables the per-call deadline.
func NewCoordinator(gen Generator, logger infra.Logger, timeout time.Duration) *Coordinator {
	return &Coordinator{
		gen:     gen,
		logger:  logger,
		timeout: timeout,
		fetch:   defaultFetch,
	}
}

// SetOnChange registers a callback invoked (without the lock held) after any
// slot reaches a terminal state. The view layer may use it instead of
// polling snapshots.
func (c *Coordinator) SetOnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Start discards any previous batch and launches count independent
// generation calls for the given subject and prompt pair. It returns after
// the slots are created; completions land asynchronously, each updating only
// its own slot.
func (c *Coordinator) Start(ctx context.Context, subject genai.SubjectImage, prompt, negative string, count int) error {
	if len(subject.Data) == 0 {
		return ErrNoSubject
	}
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if count < 1 {
		return ErrInvalidCount
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.subject = subject
	c.prompt = prompt
	c.negative = negative
	c.slots = make([]VariationSlot, count)
	for i := range c.slots {
		c.slots[i] = VariationSlot{Status: StatusPending}
	}
	c.started = time.Now()
	c.mu.Unlock()

	for i := 0; i < count; i++ {
		go c.runSlot(ctx, epoch, i)
	}
	return nil
}

// Regenerate resets one slot to pending and launches a fresh call with the
// batch's original subject and prompts. A slot that is still generating is
// refused so it can never have two outstanding calls.
func (c *Coordinator) Regenerate(ctx context.Context, index int) error {
	c.mu.Lock()
	if c.slots == nil {
		c.mu.Unlock()
		return ErrNoBatch
	}
	if index < 0 || index >= len(c.slots) {
		c.mu.Unlock()
		return ErrIndexOutOfRange
	}
	if c.slots[index].Status == StatusPending {
		c.mu.Unlock()
		return ErrSlotPending
	}
	c.slots[index] = VariationSlot{Status: StatusPending}
	epoch := c.epoch
	c.mu.Unlock()

	go c.runSlot(ctx, epoch, index)
	return nil
}

// runSlot performs one generation call and writes the outcome into its slot.
// Any failure from the remote client is converted into the slot's error
// state; nothing propagates to siblings or the coordinator itself.
func (c *Coordinator) runSlot(ctx context.Context, epoch, index int) {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.mu.Lock()
	req := genai.VariationRequest{
		Subject:        c.subject,
		Prompt:         c.prompt,
		NegativePrompt: c.negative,
	}
	c.mu.Unlock()

	url, err := c.gen.GenerateVariation(callCtx, req)

	c.mu.Lock()
	if epoch != c.epoch || index >= len(c.slots) || c.slots[index].Status != StatusPending {
		// The batch was reset (or the slot relaunched) while this call was in
		// flight; its outcome no longer has an owner.
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.slots[index] = VariationSlot{Status: StatusError, FailureReason: err.Error()}
		c.logger.Warn().Err(err).Int("variation", index+1).Msg("batch: generation failed")
	} else {
		c.slots[index] = VariationSlot{Status: StatusDone, ResultURL: url}
		c.logger.Debug().Int("variation", index+1).Msg("batch: generation finished")
	}
	notify := c.onChange
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// Reset discards all slots, returning the coordinator to its empty state.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.subject = genai.SubjectImage{}
	c.prompt = ""
	c.negative = ""
	c.slots = nil
}

// Snapshot returns a copy of the slot sequence for the view layer.
func (c *Coordinator) Snapshot() []VariationSlot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots == nil {
		return nil
	}
	out := make([]VariationSlot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Slot returns one slot by index.
func (c *Coordinator) Slot(index int) (VariationSlot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots == nil {
		return VariationSlot{}, ErrNoBatch
	}
	if index < 0 || index >= len(c.slots) {
		return VariationSlot{}, ErrIndexOutOfRange
	}
	return c.slots[index], nil
}

// Generating reports whether any slot is still pending.
func (c *Coordinator) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, slot := range c.slots {
		if slot.Status == StatusPending {
			return true
		}
	}
	return false
}

// Elapsed is the time since the current batch started.
func (c *Coordinator) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.slots == nil || c.started.IsZero() {
		return 0
	}
	return time.Since(c.started)
}
