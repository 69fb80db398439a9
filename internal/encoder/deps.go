package encoder

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/desertthunder/mp3cator/internal/shared"
)

// Requirement defines an external binary the converter relies on.
type Requirement struct {
	Name    string
	Command string
}

// Status reports the availability of a dependency.
type Status struct {
	Name      string
	Command   string // Resolved path when available
	Available bool
	Version   string // First line of -version output
	Detail    string // Why the binary is unavailable
}

// Requirements lists ffmpeg and ffprobe as configured.
func Requirements(ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg},
		{Name: "FFprobe", Command: ffprobe},
	}
}

// CheckBinaries resolves each requirement on PATH and asks it for its version.
func CheckBinaries(ctx context.Context, runner shared.CommandRunner, requirements []Requirement) []Status {
	if runner == nil {
		runner = shared.ExecRunner{}
	}
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{Name: req.Name, Command: cmd}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = path
		status.Available = true
		if out, _, err := runner.Run(ctx, path, "-hide_banner", "-version"); err == nil {
			status.Version = firstLine(string(out))
		}
		results = append(results, status)
	}
	return results
}

// MissingRequired wraps [shared.ErrMissingDependency] naming every unavailable binary, or returns nil.
func MissingRequired(statuses []Status) error {
	var missing []string
	for _, s := range statuses {
		if !s.Available {
			missing = append(missing, fmt.Sprintf("%s (%s)", s.Name, s.Detail))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", shared.ErrMissingDependency, strings.Join(missing, ", "))
}

// HasMP3Encoder reports whether ffmpeg was built with libmp3lame.
func HasMP3Encoder(ctx context.Context, runner shared.CommandRunner, ffmpeg string) bool {
	if runner == nil {
		runner = shared.ExecRunner{}
	}
	out, _, err := runner.Run(ctx, ffmpeg, "-hide_banner", "-encoders")
	return err == nil && strings.Contains(string(out), "libmp3lame")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
