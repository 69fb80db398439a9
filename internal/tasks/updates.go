package tasks

import (
	"fmt"

	"github.com/desertthunder/mp3cator/internal/models"
)

// ProgressUpdate represents a progress event during a batch.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, a [models.ConversionResult] during [Convert]
}

// Result returns the conversion result carried by a [Convert] update.
func (u ProgressUpdate) Result() (models.ConversionResult, bool) {
	r, ok := u.Data.(models.ConversionResult)
	return r, ok
}

// Operation phase enumeration
type Phase int

const (
	Discover Phase = iota
	Plan
	Convert
	Verify
	Delete
	Done
)

func (p Phase) String() string {
	switch p {
	case Discover:
		return "discover"
	case Plan:
		return "plan"
	case Convert:
		return "convert"
	case Verify:
		return "verify"
	case Delete:
		return "delete"
	case Done:
		return "done"
	default:
		return ""
	}
}

func discoveringUpdate(root string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Discover,
		Message: fmt.Sprintf("Scanning %s for .ogg files...", root),
	}
}

func discoveredUpdate(found, skipped int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Discover,
		Step:    found,
		Total:   found,
		Message: fmt.Sprintf("Found %d .ogg file(s). Skipping %d already converted.", found, skipped),
	}
}

func planUpdate(total int, mode models.OutputMode) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Plan,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Planned %d destination(s) (%s)", total, mode),
	}
}

func convertStartUpdate(total, workers int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Convert,
		Total:   total,
		Message: fmt.Sprintf("Converting %d file(s) with %d worker(s)...", total, workers),
	}
}

func convertedUpdate(step, total int, res models.ConversionResult) ProgressUpdate {
	mark := "✓"
	switch res.Outcome {
	case models.Failed:
		mark = "✗"
	case models.WouldConvert:
		mark = "~"
	case models.SkippedExists:
		mark = "-"
	}
	return ProgressUpdate{
		Phase:   Convert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, res.Task.Source.RelPath),
		Data:    res,
	}
}

func verifyUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Verify,
		Total:   total,
		Message: fmt.Sprintf("Verifying %d output(s)...", total),
	}
}

func deleteUpdate(deleted, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Delete,
		Step:    deleted,
		Total:   total,
		Message: fmt.Sprintf("Successfully deleted %d/%d source file(s)", deleted, total),
	}
}

func doneUpdate(b *models.BatchReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    b.Total(),
		Total:   b.Total(),
		Message: fmt.Sprintf("Converted %d, skipped %d, failed %d", b.Converted, b.Skipped, b.Failed),
	}
}
