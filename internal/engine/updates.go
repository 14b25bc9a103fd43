package engine

import "fmt"

// ProgressUpdate represents a progress event during a sort operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Normalize Phase = iota
	Arrange
	Verify
	Finalize
)

func (p Phase) String() string {
	switch p {
	case Normalize:
		return "normalize"
	case Arrange:
		return "arrange"
	case Verify:
		return "verify"
	case Finalize:
		return "finalize"
	default:
		return ""
	}
}

func normalizeUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Normalize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Normalizing genres for %d songs...", count),
	}
}

func arrangeUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Arrange,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Arranging %d songs...", count),
	}
}

func verifyUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Verify,
		Step:    1,
		Total:   1,
		Message: "Submitting order for verification...",
	}
}

func finalizeUpdate(method string, result *SortResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finalize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sort complete (%s)", method),
		Data:    result,
	}
}
