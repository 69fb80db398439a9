// package formatter renders a finished run as a text table, JSON, CSV or Markdown.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Formats lists the accepted report formats.
var Formats = []string{"text", "json", "csv", "markdown"}

// ValidFormat reports whether [Export] accepts format.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", "text", "txt", "json", "csv", "markdown", "md":
		return true
	}
	return false
}

// Export renders report in the named format; "" means text.
func Export(report *models.RunReport, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "text", "txt":
		return ExportToText(report)
	case "json":
		return ExportToJSON(report)
	case "csv":
		return ExportToCSV(report)
	case "markdown", "md":
		return ExportToMarkdown(report)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// WriteReport renders report and writes it to path, creating parent directories.
func WriteReport(report *models.RunReport, format, path string) error {
	data, err := Export(report, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ExportToText renders the summary, failures and post-check sections as rounded tables.
func ExportToText(report *models.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	b := report.Batch

	buf.WriteString("═══════════════════════════════════════\n")
	fmt.Fprintf(&buf, "mp3cator run %s\n", shortID(report.ID))
	buf.WriteString("═══════════════════════════════════════\n")
	fmt.Fprintf(&buf, "Root:     %s\n", report.Root)
	fmt.Fprintf(&buf, "Mode:     %s\n", report.Mode)
	fmt.Fprintf(&buf, "Bitrate:  %s\n", report.Options.Bitrate)
	fmt.Fprintf(&buf, "Workers:  %d\n", report.Options.Threads)
	fmt.Fprintf(&buf, "Duration: %s\n", report.Duration.Round(time.Millisecond))
	if report.Options.DryRun {
		buf.WriteString("Dry run:  nothing was written or deleted\n")
	}
	if report.Interrupted {
		buf.WriteString("Interrupted: tasks that never started are listed as failed\n")
	}
	buf.WriteString("\n")

	buf.WriteString(renderTable(
		[]string{"Outcome", "Files"},
		[][]string{
			{"converted", strconv.Itoa(b.Converted)},
			{"skipped (already exists)", strconv.Itoa(b.Skipped)},
			{"failed", strconv.Itoa(b.Failed)},
			{"would convert", strconv.Itoa(b.WouldConvert)},
			{"total", strconv.Itoa(b.Total())},
		},
		[]columnAlignment{alignLeft, alignRight},
	))
	buf.WriteString("\n")

	if written := outputBytes(b); written > 0 {
		fmt.Fprintf(&buf, "Wrote %s of MP3 data\n", humanize.Bytes(uint64(written)))
	}

	if b.WouldConvert > 0 {
		buf.WriteString("\nPlanned conversions:\n")
		rows := [][]string{}
		for _, r := range b.Results {
			if r.Outcome == models.WouldConvert {
				rows = append(rows, []string{r.Task.Source.RelPath, r.Task.Dest, strconv.Itoa(r.TagCount)})
			}
		}
		buf.WriteString(renderTable([]string{"Source", "Destination", "Tags"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
		buf.WriteString("\n")
	}

	if failures := b.Failures(); len(failures) > 0 {
		buf.WriteString("\nFailures:\n")
		rows := make([][]string, 0, len(failures))
		for _, r := range failures {
			rows = append(rows, []string{strconv.Itoa(r.Task.Index + 1), r.Task.Source.RelPath, truncate(r.Error, 100)})
		}
		buf.WriteString(renderTable([]string{"#", "File", "Reason"}, rows, []columnAlignment{alignRight}))
		buf.WriteString("\n")
	}

	if warnings := warningRows(b); len(warnings) > 0 {
		buf.WriteString("\nWarnings:\n")
		buf.WriteString(renderTable([]string{"File", "Warning"}, warnings, nil))
		buf.WriteString("\n")
	}

	if pc := report.PostCheck; pc != nil {
		buf.WriteString("\nPost-check:\n")
		fmt.Fprintf(&buf, "Verified %d output(s)\n", len(pc.Verified))
		if len(pc.Unverified) > 0 {
			fmt.Fprintf(&buf, "Warning: Found %d .ogg file(s) without a corresponding .mp3:\n", len(pc.Unverified))
			buf.WriteString(renderTable([]string{"Source", "Reason"}, issueRows(pc.Unverified), nil))
			buf.WriteString("\n")
		}
		switch {
		case !pc.DeleteRequested:
		case pc.DeletionWithheld != "":
			fmt.Fprintf(&buf, "Skipping deletion: %s\n", pc.DeletionWithheld)
		default:
			total := len(pc.Deleted) + len(pc.DeletionFailures)
			fmt.Fprintf(&buf, "Successfully deleted %d/%d source file(s)\n", len(pc.Deleted), total)
			if len(pc.DeletionFailures) > 0 {
				buf.WriteString(renderTable([]string{"Source", "Error"}, issueRows(pc.DeletionFailures), nil))
				buf.WriteString("\n")
			}
		}
	}

	return buf.Bytes(), nil
}

type jsonResult struct {
	Index       int    `json:"index"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Outcome     string `json:"outcome"`
	Error       string `json:"error,omitempty"`
	Warning     string `json:"warning,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	Tags        int    `json:"tags"`
	Artwork     bool   `json:"artwork"`
	OutputBytes int64  `json:"output_bytes,omitempty"`
}

type jsonPostCheck struct {
	Verified         int                `json:"verified"`
	Unverified       []models.PathIssue `json:"unverified,omitempty"`
	DeleteRequested  bool               `json:"delete_requested"`
	DeletionWithheld string             `json:"deletion_withheld,omitempty"`
	Deleted          []string           `json:"deleted,omitempty"`
	DeletionFailures []models.PathIssue `json:"deletion_failures,omitempty"`
}

type jsonReport struct {
	ID           string            `json:"id"`
	Root         string            `json:"root"`
	Mode         string            `json:"mode"`
	Options      models.RunOptions `json:"options"`
	StartedAt    time.Time         `json:"started_at"`
	DurationMS   int64             `json:"duration_ms"`
	Interrupted  bool              `json:"interrupted"`
	Converted    int               `json:"converted"`
	Skipped      int               `json:"skipped"`
	Failed       int               `json:"failed"`
	WouldConvert int               `json:"would_convert"`
	Results      []jsonResult      `json:"results"`
	PostCheck    *jsonPostCheck    `json:"post_check,omitempty"`
}

// ExportToJSON renders the full report as indented JSON.
func ExportToJSON(report *models.RunReport) ([]byte, error) {
	b := report.Batch
	out := jsonReport{
		ID:           report.ID,
		Root:         report.Root,
		Mode:         report.Mode.String(),
		Options:      report.Options,
		StartedAt:    report.StartedAt,
		DurationMS:   report.Duration.Milliseconds(),
		Interrupted:  report.Interrupted,
		Converted:    b.Converted,
		Skipped:      b.Skipped,
		Failed:       b.Failed,
		WouldConvert: b.WouldConvert,
		Results:      make([]jsonResult, 0, len(b.Results)),
	}
	for _, r := range b.Results {
		out.Results = append(out.Results, jsonResult{
			Index:       r.Task.Index,
			Source:      r.Task.Source.RelPath,
			Destination: r.Task.Dest,
			Outcome:     r.Outcome.String(),
			Error:       r.Error,
			Warning:     r.Warning,
			ElapsedMS:   r.Elapsed.Milliseconds(),
			Tags:        r.TagCount,
			Artwork:     r.HasArtwork,
			OutputBytes: r.OutputSize,
		})
	}
	if pc := report.PostCheck; pc != nil {
		out.PostCheck = &jsonPostCheck{
			Verified:         len(pc.Verified),
			Unverified:       pc.Unverified,
			DeleteRequested:  pc.DeleteRequested,
			DeletionWithheld: pc.DeletionWithheld,
			Deleted:          pc.Deleted,
			DeletionFailures: pc.DeletionFailures,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV writes one row per result with columns: Index, Source, Destination, Outcome, ElapsedMS, OutputBytes, Error, Warning
func ExportToCSV(report *models.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "Source", "Destination", "Outcome", "ElapsedMS", "OutputBytes", "Error", "Warning"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range report.Batch.Results {
		record := []string{
			strconv.Itoa(r.Task.Index),
			r.Task.Source.RelPath,
			r.Task.Dest,
			r.Outcome.String(),
			strconv.FormatInt(r.Elapsed.Milliseconds(), 10),
			strconv.FormatInt(r.OutputSize, 10),
			r.Error,
			r.Warning,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, a summary list and Markdown tables for results and post-check issues.
func ExportToMarkdown(report *models.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	b := report.Batch

	fmt.Fprintf(&buf, "# mp3cator run %s\n\n", shortID(report.ID))
	fmt.Fprintf(&buf, "- **Root**: `%s`\n", report.Root)
	fmt.Fprintf(&buf, "- **Mode**: %s\n", report.Mode)
	fmt.Fprintf(&buf, "- **Started**: %s\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "- **Duration**: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(&buf, "- **Converted**: %d, **Skipped**: %d, **Failed**: %d", b.Converted, b.Skipped, b.Failed)
	if b.WouldConvert > 0 {
		fmt.Fprintf(&buf, ", **Would convert**: %d", b.WouldConvert)
	}
	buf.WriteString("\n\n## Results\n\n")

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Source", "Outcome", "Detail"})
	for _, r := range b.Results {
		detail := r.Error
		if detail == "" {
			detail = r.Warning
		}
		tw.AppendRow(table.Row{r.Task.Index + 1, r.Task.Source.RelPath, r.Outcome.String(), detail})
	}
	buf.WriteString(tw.RenderMarkdown())
	buf.WriteString("\n")

	if pc := report.PostCheck; pc != nil {
		buf.WriteString("\n## Post-check\n\n")
		fmt.Fprintf(&buf, "Verified %d output(s).\n", len(pc.Verified))
		if len(pc.Unverified) > 0 {
			buf.WriteString("\n### Unverified\n\n")
			buf.WriteString(issueMarkdown(pc.Unverified))
		}
		if pc.DeletionWithheld != "" {
			fmt.Fprintf(&buf, "\nDeletion withheld: %s\n", pc.DeletionWithheld)
		} else if pc.DeleteRequested {
			fmt.Fprintf(&buf, "\nDeleted %d source file(s).\n", len(pc.Deleted))
			if len(pc.DeletionFailures) > 0 {
				buf.WriteString("\n### Deletion failures\n\n")
				buf.WriteString(issueMarkdown(pc.DeletionFailures))
			}
		}
	}

	return buf.Bytes(), nil
}

// Table renders rows under headers with the rounded style used by the text report.
func Table(headers []string, rows [][]string) string {
	return renderTable(headers, rows, nil)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	tw := table.NewWriter()
	tw.SetStyle(style)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func issueMarkdown(issues []models.PathIssue) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Path", "Reason"})
	for _, is := range issues {
		tw.AppendRow(table.Row{is.Path, is.Reason})
	}
	return tw.RenderMarkdown() + "\n"
}

func issueRows(issues []models.PathIssue) [][]string {
	rows := make([][]string, 0, len(issues))
	for _, is := range issues {
		rows = append(rows, []string{is.Path, truncate(is.Reason, 100)})
	}
	return rows
}

func warningRows(b *models.BatchReport) [][]string {
	var rows [][]string
	for _, r := range b.Results {
		if r.Warning != "" {
			rows = append(rows, []string{r.Task.Source.RelPath, truncate(r.Warning, 100)})
		}
	}
	return rows
}

func outputBytes(b *models.BatchReport) int64 {
	var n int64
	for _, r := range b.Results {
		if r.Outcome == models.Succeeded {
			n += r.OutputSize
		}
	}
	return n
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
