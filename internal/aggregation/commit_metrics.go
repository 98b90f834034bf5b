package aggregation

import (
	"sort"

	"github.com/masmgr/refscan-go/internal/export"
)

// CommitMetrics summarizes the rows exported for one revision.
type CommitMetrics struct {
	Revision  string
	Rows      int
	FileCount int
	Types     []string // distinct refactoring types, sorted
}

// CommitMetricsCalculator summarizes per-commit exports.
type CommitMetricsCalculator struct{}

// NewCommitMetricsCalculator creates a new commit metrics calculator.
func NewCommitMetricsCalculator() *CommitMetricsCalculator {
	return &CommitMetricsCalculator{}
}

// Calculate computes metrics for the rows of a single revision.
func (c *CommitMetricsCalculator) Calculate(revision string, rows []export.RevisionRefactor) CommitMetrics {
	files := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, row := range rows {
		files[row.FileName] = struct{}{}
		types[row.RefType] = struct{}{}
	}

	typeList := make([]string, 0, len(types))
	for t := range types {
		typeList = append(typeList, t)
	}
	sort.Strings(typeList)

	return CommitMetrics{
		Revision:  revision,
		Rows:      len(rows),
		FileCount: len(files),
		Types:     typeList,
	}
}

// SortedTypes returns the keys of counts ordered by count descending, then name.
func SortedTypes(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
