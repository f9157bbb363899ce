package batch

// SlotStatus is the lifecycle state of one variation slot.
type SlotStatus string

const (
	StatusPending SlotStatus = "pending"
	StatusDone    SlotStatus = "done"
	StatusError   SlotStatus = "error"
)

// VariationSlot tracks the lifecycle of one requested image variation.
// Exactly one of ResultURL and FailureReason is populated, and only in the
// matching terminal state; a pending slot carries neither.
type VariationSlot struct {
	Status        SlotStatus `json:"status"`
	ResultURL     string     `json:"url,omitempty"`
	FailureReason string     `json:"error,omitempty"`
}
