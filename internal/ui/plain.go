package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/tasks"
)

// Plain writes each update as a line until prog is closed. Failures get their reason indented below.
func Plain(w io.Writer, prog <-chan tasks.ProgressUpdate) {
	for update := range prog {
		switch update.Phase {
		case tasks.Discover, tasks.Plan:
			fmt.Fprintf(w, "%s\n", update.Message)
		case tasks.Convert:
			res, ok := update.Result()
			if !ok {
				fmt.Fprintf(w, "\n%s\n", update.Message)
				continue
			}
			fmt.Fprintf(w, "   %s\n", update.Message)
			if res.Outcome == models.Failed && res.Error != "" {
				for _, line := range strings.Split(res.Error, "\n") {
					fmt.Fprintf(w, "       %s\n", line)
				}
			}
		case tasks.Verify, tasks.Delete:
			fmt.Fprintf(w, "\n%s\n", update.Message)
		case tasks.Done:
			fmt.Fprintf(w, "\n%s\n", update.Message)
		}
	}
}
