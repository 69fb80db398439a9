// package postcheck re-verifies a finished batch and deletes sources only when every file converted.
package postcheck

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/shared"
)

// Options configures [Check].
type Options struct {
	Delete bool
	Logger *log.Logger
	Remove func(path string) error // Defaults to os.Remove
}

// Check re-stats every destination the batch claims to have produced.
//
// Deletion runs only when Delete is set and nothing is unverified. Each removal is independent; failures are recorded and the rest continue.
func Check(batch *models.BatchReport, opts Options) *models.PostCheckReport {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Remove == nil {
		opts.Remove = os.Remove
	}

	report := &models.PostCheckReport{DeleteRequested: opts.Delete}
	var deletable []string

	for _, r := range batch.Results {
		src := r.Task.Source.AbsPath
		switch r.Outcome {
		case models.Succeeded, models.SkippedExists:
			if err := Verify(r.Task.Dest); err != nil {
				opts.Logger.Warn("output missing after batch", "file", src, "err", err)
				report.Unverified = append(report.Unverified, models.PathIssue{Path: src, Reason: err.Error()})
				continue
			}
			report.Verified = append(report.Verified, r.Task.Dest)
			deletable = append(deletable, src)
		case models.Failed:
			report.Unverified = append(report.Unverified, models.PathIssue{Path: src, Reason: "conversion failed: " + r.Error})
		case models.WouldConvert:
			report.Unverified = append(report.Unverified, models.PathIssue{Path: src, Reason: "not converted (dry run)"})
		}
	}

	if !opts.Delete {
		return report
	}
	if n := len(report.Unverified); n > 0 {
		report.DeletionWithheld = fmt.Sprintf("%d file(s) were not converted; no source was deleted", n)
		opts.Logger.Warn("skipping deletion because some files were not converted", "count", n)
		return report
	}

	for _, src := range deletable {
		if err := opts.Remove(src); err != nil {
			derr := &shared.DeletionError{Path: src, Err: err}
			opts.Logger.Error("delete failed", "file", src, "err", err)
			report.DeletionFailures = append(report.DeletionFailures, models.PathIssue{Path: src, Reason: derr.Error()})
			continue
		}
		report.Deleted = append(report.Deleted, src)
	}
	opts.Logger.Info("deleted sources", "deleted", len(report.Deleted), "total", len(deletable))
	return report
}

// Verify returns a [shared.VerificationError] when dest is missing, not a regular file, or empty.
func Verify(dest string) error {
	info, err := os.Stat(dest)
	switch {
	case err != nil:
		return &shared.VerificationError{Path: dest, Reason: "missing"}
	case !info.Mode().IsRegular():
		return &shared.VerificationError{Path: dest, Reason: "not a regular file"}
	case info.Size() == 0:
		return &shared.VerificationError{Path: dest, Reason: "empty"}
	}
	return nil
}
