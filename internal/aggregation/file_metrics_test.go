package aggregation

import (
	"testing"

	"github.com/masmgr/refscan-go/internal/export"
)

var _ export.Sink = (*FileMetricsAggregator)(nil)

func row(rev, file, kind string, start, end int) export.RevisionRefactor {
	return export.RevisionRefactor{Revision: rev, FileName: file, RefType: kind, StartLine: start, EndLine: end}
}

func TestNewFileMetrics(t *testing.T) {
	fm := NewFileMetrics("src/A.java")

	if fm.Path != "src/A.java" {
		t.Errorf("Path = %q, expected %q", fm.Path, "src/A.java")
	}
	if fm.RefactoringCount != 0 {
		t.Errorf("RefactoringCount = %d, expected 0", fm.RefactoringCount)
	}
	if fm.ByType == nil || fm.Revisions == nil {
		t.Error("maps should be initialized")
	}
}

func TestFileMetrics_Add(t *testing.T) {
	fm := NewFileMetrics("A.java")
	fm.Add(row("r1", "A.java", "EXTRACT", 10, 19))
	fm.Add(row("r1", "A.java", "RENAME", 1, 1))
	fm.Add(row("r2", "A.java", "EXTRACT", 5, 4))

	if fm.RefactoringCount != 3 {
		t.Errorf("RefactoringCount = %d, expected 3", fm.RefactoringCount)
	}
	if fm.LinesCovered != 11 {
		t.Errorf("LinesCovered = %d, expected 11", fm.LinesCovered)
	}
	if fm.RevisionCount() != 2 {
		t.Errorf("RevisionCount = %d, expected 2", fm.RevisionCount())
	}
	if fm.ByType["EXTRACT"] != 2 {
		t.Errorf("ByType[EXTRACT] = %d, expected 2", fm.ByType["EXTRACT"])
	}
}

func TestFileMetricsAggregator(t *testing.T) {
	agg := NewFileMetricsAggregator()
	agg.Process([]export.RevisionRefactor{
		row("r1", "A.java", "MOVE", 1, 10),
		row("r1", "B.java", "EXTRACT", 1, 2),
	})
	agg.Process([]export.RevisionRefactor{
		row("r2", "B.java", "EXTRACT", 3, 4),
		row("r2", "C.java", "INLINE", 3, 4),
	})

	if agg.Rows() != 4 {
		t.Errorf("Rows = %d, expected 4", agg.Rows())
	}
	if got := agg.ByType()["EXTRACT"]; got != 2 {
		t.Errorf("ByType[EXTRACT] = %d, expected 2", got)
	}
	if got := agg.ByFile()["B.java"]; got != 2 {
		t.Errorf("ByFile[B.java] = %d, expected 2", got)
	}

	top := agg.TopFiles(2)
	if len(top) != 2 {
		t.Fatalf("TopFiles(2) returned %d files", len(top))
	}
	if top[0].Path != "B.java" || top[1].Path != "A.java" {
		t.Errorf("TopFiles order = %s, %s; expected B.java, A.java", top[0].Path, top[1].Path)
	}
	if n := len(agg.TopFiles(0)); n != 3 {
		t.Errorf("TopFiles(0) = %d files, expected 3", n)
	}
}
