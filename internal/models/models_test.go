package models

import (
	"path/filepath"
	"testing"
)

func TestBatchReport(t *testing.T) {
	results := []ConversionResult{
		{Task: ConversionTask{Index: 0}, Outcome: Succeeded},
		{Task: ConversionTask{Index: 1}, Outcome: Failed, Error: "boom"},
		{Task: ConversionTask{Index: 2}, Outcome: SkippedExists},
		{Task: ConversionTask{Index: 3}, Outcome: Succeeded},
		{Task: ConversionTask{Index: 4}, Outcome: WouldConvert},
		{Task: ConversionTask{Index: 5}, Outcome: Failed, Error: "bad"},
	}
	b := NewBatchReport(results)

	if b.Converted != 2 || b.Failed != 2 || b.Skipped != 1 || b.WouldConvert != 1 {
		t.Errorf("counts = %d/%d/%d/%d", b.Converted, b.Failed, b.Skipped, b.WouldConvert)
	}
	if b.Total() != 6 {
		t.Errorf("Total() = %d, want 6", b.Total())
	}

	failures := b.Failures()
	if len(failures) != 2 || failures[0].Task.Index != 1 || failures[1].Task.Index != 5 {
		t.Errorf("Failures() = %+v", failures)
	}

	t.Run("OK", func(t *testing.T) {
		for _, r := range results {
			want := r.Outcome == Succeeded || r.Outcome == SkippedExists
			if r.OK() != want {
				t.Errorf("%s: OK() = %v", r.Outcome, r.OK())
			}
		}
	})
}

func TestStrings(t *testing.T) {
	outcomes := map[Outcome]string{
		Succeeded:     "succeeded",
		SkippedExists: "skipped-already-exists",
		Failed:        "failed",
		WouldConvert:  "would-convert",
	}
	for o, want := range outcomes {
		if o.String() != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, o.String(), want)
		}
	}

	modes := map[OutputMode]string{InPlace: "in-place", Restructured: "restructured", CustomDir: "custom-dir"}
	for m, want := range modes {
		if m.String() != want {
			t.Errorf("OutputMode(%d).String() = %q, want %q", m, m.String(), want)
		}
	}
}

func TestTagsClone(t *testing.T) {
	orig := Tags{"artist": "Band"}
	c := orig.Clone()
	c["artist"] = "Other"
	if orig["artist"] != "Band" {
		t.Error("Clone shares storage with the original")
	}
}

func TestSourceFileDir(t *testing.T) {
	if got := (SourceFile{RelPath: "top.ogg"}).Dir(); got != "." {
		t.Errorf("Dir() = %q, want .", got)
	}
	if got := (SourceFile{RelPath: filepath.Join("a", "b", "c.ogg")}).Dir(); got != filepath.Join("a", "b") {
		t.Errorf("Dir() = %q", got)
	}
}

func TestPostCheckReportClean(t *testing.T) {
	if !(&PostCheckReport{Verified: []string{"a"}}).Clean() {
		t.Error("expected clean report")
	}
	if (&PostCheckReport{Unverified: []PathIssue{{Path: "a", Reason: "missing"}}}).Clean() {
		t.Error("unverified entries are not clean")
	}
	if (&PostCheckReport{DeletionFailures: []PathIssue{{Path: "a", Reason: "busy"}}}).Clean() {
		t.Error("deletion failures are not clean")
	}
}
