package aggregation

import (
	"sort"

	"github.com/masmgr/refscan-go/internal/export"
)

// FileMetrics holds the refactorings recorded against a single file.
type FileMetrics struct {
	Path             string
	RefactoringCount int
	LinesCovered     int
	ByType           map[string]int
	Revisions        map[string]struct{}
}

// NewFileMetrics creates a new FileMetrics instance.
func NewFileMetrics(path string) *FileMetrics {
	return &FileMetrics{
		Path:      path,
		ByType:    make(map[string]int),
		Revisions: make(map[string]struct{}),
	}
}

// RevisionCount returns the number of distinct revisions that refactored the file.
func (f *FileMetrics) RevisionCount() int {
	return len(f.Revisions)
}

// Add records one exported row against the file.
func (f *FileMetrics) Add(row export.RevisionRefactor) {
	f.RefactoringCount++
	if row.EndLine >= row.StartLine {
		f.LinesCovered += row.EndLine - row.StartLine + 1
	}
	f.ByType[row.RefType]++
	f.Revisions[row.Revision] = struct{}{}
}

// FileMetricsAggregator aggregates exported rows per file.
type FileMetricsAggregator struct {
	metrics map[string]*FileMetrics
	byType  map[string]int
	rows    int
}

// NewFileMetricsAggregator creates a new aggregator.
func NewFileMetricsAggregator() *FileMetricsAggregator {
	return &FileMetricsAggregator{
		metrics: make(map[string]*FileMetrics),
		byType:  make(map[string]int),
	}
}

// Process aggregates rows and returns the per-file metrics so far.
func (a *FileMetricsAggregator) Process(rows []export.RevisionRefactor) map[string]*FileMetrics {
	for _, row := range rows {
		m, ok := a.metrics[row.FileName]
		if !ok {
			m = NewFileMetrics(row.FileName)
			a.metrics[row.FileName] = m
		}
		m.Add(row)
		a.byType[row.RefType]++
		a.rows++
	}
	return a.metrics
}

// GetMetrics returns the aggregated metrics.
func (a *FileMetricsAggregator) GetMetrics() map[string]*FileMetrics {
	return a.metrics
}

// Rows returns the number of rows aggregated.
func (a *FileMetricsAggregator) Rows() int { return a.rows }

// ByType returns row counts per refactoring type.
func (a *FileMetricsAggregator) ByType() map[string]int {
	return a.byType
}

// ByFile returns row counts per file.
func (a *FileMetricsAggregator) ByFile() map[string]int {
	out := make(map[string]int, len(a.metrics))
	for path, m := range a.metrics {
		out[path] = m.RefactoringCount
	}
	return out
}

// TopFiles returns the files with the most refactorings, most first, ties by path.
// top <= 0 returns all files.
func (a *FileMetricsAggregator) TopFiles(top int) []*FileMetrics {
	files := make([]*FileMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		files = append(files, m)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].RefactoringCount != files[j].RefactoringCount {
			return files[i].RefactoringCount > files[j].RefactoringCount
		}
		return files[i].Path < files[j].Path
	})
	if top > 0 && top < len(files) {
		files = files[:top]
	}
	return files
}
