package models

import (
	"path/filepath"
	"time"
)

// Tags maps destination tag names to values.
type Tags map[string]string

// Clone returns a copy that can be modified without touching t.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// SourceFile is an OGG file discovered under the scan root.
type SourceFile struct {
	AbsPath      string // Absolute path on disk
	RelPath      string // Path relative to the scan root, slash separated by the host OS
	InferredTags Tags   // artist/album/track/title guessed from the path
	Size         int64  // Size in bytes at discovery time
}

// Dir returns the directory of the source relative to the scan root ("." at the top level).
func (s SourceFile) Dir() string {
	return filepath.Dir(s.RelPath)
}

// OutputMode selects where destinations are written.
type OutputMode int

const (
	InPlace OutputMode = iota
	Restructured
	CustomDir
)

func (m OutputMode) String() string {
	switch m {
	case InPlace:
		return "in-place"
	case Restructured:
		return "restructured"
	case CustomDir:
		return "custom-dir"
	default:
		return ""
	}
}

// ConversionTask is one unit of work. Destinations are unique within a batch.
type ConversionTask struct {
	Index  int        // Submission order within the batch
	Source SourceFile // File to convert
	Dest   string     // Absolute destination path
	Mode   OutputMode // Mode that produced Dest
}

// Outcome is the terminal state of a task.
type Outcome int

const (
	Succeeded Outcome = iota
	SkippedExists
	Failed
	WouldConvert
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case SkippedExists:
		return "skipped-already-exists"
	case Failed:
		return "failed"
	case WouldConvert:
		return "would-convert"
	default:
		return ""
	}
}

// ConversionResult records what happened to one task.
type ConversionResult struct {
	Task       ConversionTask
	Outcome    Outcome
	Error      string        // Failure reason, usually the tail of ffmpeg's stderr
	Warning    string        // Recoverable problem such as unreadable tags
	Elapsed    time.Duration // Wall time spent on the task
	TagCount   int           // Tags written into the destination
	HasArtwork bool          // Artwork was embedded
	OutputSize int64         // Destination size after conversion
}

// OK reports whether the destination should exist on disk after this result.
func (r ConversionResult) OK() bool {
	return r.Outcome == Succeeded || r.Outcome == SkippedExists
}

// BatchReport holds results in task submission order.
type BatchReport struct {
	Results      []ConversionResult
	Converted    int
	Skipped      int
	Failed       int
	WouldConvert int
}

// NewBatchReport counts outcomes for results, which must already be in task order.
func NewBatchReport(results []ConversionResult) *BatchReport {
	b := &BatchReport{Results: results}
	for _, r := range results {
		switch r.Outcome {
		case Succeeded:
			b.Converted++
		case SkippedExists:
			b.Skipped++
		case Failed:
			b.Failed++
		case WouldConvert:
			b.WouldConvert++
		}
	}
	return b
}

// Total is the number of results.
func (b *BatchReport) Total() int { return len(b.Results) }

// Failures returns the failed results in task order.
func (b *BatchReport) Failures() []ConversionResult {
	var out []ConversionResult
	for _, r := range b.Results {
		if r.Outcome == Failed {
			out = append(out, r)
		}
	}
	return out
}

// PathIssue pairs a path with the reason it was not verified or not deleted.
type PathIssue struct {
	Path   string
	Reason string
}

// PostCheckReport holds verification and deletion results.
type PostCheckReport struct {
	Verified         []string    // Destinations confirmed on disk
	Unverified       []PathIssue // Sources whose destination is missing, empty or failed
	DeleteRequested  bool
	DeletionWithheld string      // Why deletion did not run, empty when it ran or was not requested
	Deleted          []string    // Sources removed
	DeletionFailures []PathIssue // Sources that could not be removed
}

// Clean reports whether verification passed and every requested deletion succeeded.
func (p *PostCheckReport) Clean() bool {
	return len(p.Unverified) == 0 && p.DeletionWithheld == "" && len(p.DeletionFailures) == 0
}

// RunOptions echoes the effective settings of a run for the report.
type RunOptions struct {
	Bitrate     string `json:"bitrate"`
	Threads     int    `json:"threads"`
	Restructure bool   `json:"restructure"`
	OutputDir   string `json:"output_dir,omitempty"`
	PostCheck   bool   `json:"post_check"`
	Delete      bool   `json:"delete"`
	DryRun      bool   `json:"dry_run"`
}

// RunReport is everything a formatter needs to describe a finished run.
type RunReport struct {
	ID          string
	Root        string
	Mode        OutputMode
	Options     RunOptions
	StartedAt   time.Time
	Duration    time.Duration
	Interrupted bool
	Batch       *BatchReport
	PostCheck   *PostCheckReport // nil when post-check did not run
}
