package postcheck

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mp3cator/internal/models"
	"github.com/desertthunder/mp3cator/internal/shared"
	tu "github.com/desertthunder/mp3cator/internal/testing"
)

// batch builds n converted results on disk; failed lists indexes whose conversion failed.
func batch(t *testing.T, n int, failed ...int) *models.BatchReport {
	t.Helper()
	root := t.TempDir()
	bad := map[int]bool{}
	for _, i := range failed {
		bad[i] = true
	}

	results := make([]models.ConversionResult, n)
	for i := range results {
		src := filepath.Join(root, fmt.Sprintf("%02d.ogg", i))
		dest := filepath.Join(root, fmt.Sprintf("%02d.mp3", i))
		tu.MustWriteFile(t, src, "ogg")

		r := models.ConversionResult{
			Task:    models.ConversionTask{Index: i, Source: models.SourceFile{AbsPath: src}, Dest: dest},
			Outcome: models.Succeeded,
		}
		if bad[i] {
			r.Outcome = models.Failed
			r.Error = "exit status 1"
		} else {
			tu.MustWriteFile(t, dest, "mp3")
		}
		results[i] = r
	}
	return models.NewBatchReport(results)
}

func TestCheck(t *testing.T) {
	t.Run("deletes every verified source", func(t *testing.T) {
		b := batch(t, 5)
		report := Check(b, Options{Delete: true})

		if len(report.Verified) != 5 || len(report.Deleted) != 5 {
			t.Fatalf("expected 5 verified and deleted, got %d and %d", len(report.Verified), len(report.Deleted))
		}
		for _, r := range b.Results {
			tu.AssertNoFile(t, r.Task.Source.AbsPath)
			tu.AssertFileExists(t, r.Task.Dest)
		}
		if !report.Clean() {
			t.Errorf("expected clean report: %+v", report)
		}
	})

	t.Run("one failure withholds every deletion", func(t *testing.T) {
		b := batch(t, 5, 2)
		report := Check(b, Options{Delete: true})

		if len(report.Deleted) != 0 {
			t.Errorf("expected no deletions, got %v", report.Deleted)
		}
		for _, r := range b.Results {
			tu.AssertFileExists(t, r.Task.Source.AbsPath)
		}
		if len(report.Unverified) != 1 || report.Unverified[0].Path != b.Results[2].Task.Source.AbsPath {
			t.Errorf("expected the failed file to be named, got %+v", report.Unverified)
		}
		if report.DeletionWithheld == "" || report.Clean() {
			t.Error("deletion should be reported as withheld")
		}
	})

	t.Run("missing output is unverified", func(t *testing.T) {
		b := batch(t, 3)
		tu.MustWriteFile(t, b.Results[1].Task.Dest, "")

		report := Check(b, Options{Delete: true})
		if len(report.Unverified) != 1 || !strings.Contains(report.Unverified[0].Reason, "empty") {
			t.Errorf("expected empty output to be unverified, got %+v", report.Unverified)
		}
		if len(report.Deleted) != 0 {
			t.Error("nothing should be deleted")
		}
	})

	t.Run("without delete only verifies", func(t *testing.T) {
		b := batch(t, 3)
		report := Check(b, Options{})
		if len(report.Verified) != 3 || len(report.Deleted) != 0 || report.DeleteRequested {
			t.Errorf("unexpected report %+v", report)
		}
		for _, r := range b.Results {
			tu.AssertFileExists(t, r.Task.Source.AbsPath)
		}
	})

	t.Run("deletion failures are independent", func(t *testing.T) {
		b := batch(t, 3)
		blocked := b.Results[0].Task.Source.AbsPath
		report := Check(b, Options{Delete: true, Remove: func(p string) error {
			if p == blocked {
				return errors.New("permission denied")
			}
			return nil
		}})

		if len(report.Deleted) != 2 || len(report.DeletionFailures) != 1 {
			t.Fatalf("expected 2 deleted and 1 failure, got %+v", report)
		}
		if !strings.Contains(report.DeletionFailures[0].Reason, "permission denied") {
			t.Errorf("unexpected reason %q", report.DeletionFailures[0].Reason)
		}
		if report.Clean() {
			t.Error("deletion failure should make the report unclean")
		}
	})
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	if err := Verify(filepath.Join(dir, "nope.mp3")); !errors.Is(err, shared.ErrVerification) {
		t.Errorf("expected verification error, got %v", err)
	}
	if err := Verify(dir); err == nil {
		t.Error("directory should not verify")
	}
	ok := filepath.Join(dir, "ok.mp3")
	tu.MustWriteFile(t, ok, "mp3")
	if err := Verify(ok); err != nil {
		t.Errorf("expected ok, got %v", err)
	}
}
