package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
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
	ReadInputs Phase = iota
	MatchTracks
	Summarize
)

func (p Phase) String() string {
	switch p {
	case ReadInputs:
		return "read_inputs"
	case MatchTracks:
		return "match_tracks"
	case Summarize:
		return "summarize"
	default:
		return ""
	}
}

func readInputsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadInputs,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d tracks...", total),
	}
}

func matchCompletedUpdate(step, total int, item BatchItem) ProgressUpdate {
	res := item.Result
	msg := fmt.Sprintf("[%d/%d] ✓ %s → %s (%s)", step, total, item.Input, res.TargetID, res.Method)
	if !res.Success {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, item.Input, res.Kind())
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    item,
	}
}

func summaryUpdate(result *BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Summarize,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Matched %d of %d tracks (%d from cache)", result.Succeeded, result.Total, result.CacheHits),
		Data:    result,
	}
}
