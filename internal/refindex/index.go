// Package refindex answers whether changed lines of a file at a revision were
// part of a refactoring, from exported refactoring rows.
package refindex

import (
	"github.com/masmgr/refscan-go/internal/export"
)

// LineRange is an inclusive line span.
type LineRange struct {
	Start int
	End   int
	Type  string
}

// Contains reports whether line lies in the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// Source looks up the refactoring ranges of a file at a revision. Both an
// Index and the SQLite store satisfy it.
type Source interface {
	Ranges(revision, file string) ([]LineRange, error)
}

type key struct {
	revision string
	file     string
}

// Index groups refactoring ranges by revision and file.
type Index struct {
	ranges map[key][]LineRange
	rows   int
}

// New builds an index from exported rows.
func New(rows []export.RevisionRefactor) *Index {
	idx := &Index{ranges: make(map[key][]LineRange)}
	for _, row := range rows {
		idx.Add(row)
	}
	return idx
}

// Load reads a refactorings CSV and indexes it.
func Load(path string) (*Index, error) {
	rows, err := export.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(rows), nil
}

// Add indexes one row.
func (idx *Index) Add(row export.RevisionRefactor) {
	k := key{row.Revision, row.FileName}
	idx.ranges[k] = append(idx.ranges[k], LineRange{Start: row.StartLine, End: row.EndLine, Type: row.RefType})
	idx.rows++
}

// Len returns the number of indexed rows.
func (idx *Index) Len() int { return idx.rows }

// Ranges returns the refactoring ranges recorded for file at revision.
func (idx *Index) Ranges(revision, file string) []LineRange {
	return idx.ranges[key{revision, file}]
}

// Source returns idx as a Source.
func (idx *Index) Source() Source { return indexSource{idx} }

type indexSource struct{ idx *Index }

func (s indexSource) Ranges(revision, file string) ([]LineRange, error) {
	return s.idx.Ranges(revision, file), nil
}

// Covers reports whether every line is inside some refactoring range of file
// at revision. It is false when no lines are given or no ranges exist.
func (idx *Index) Covers(revision, file string, lines ...int) bool {
	return Covered(idx.Ranges(revision, file), lines)
}

// Covered reports whether each line falls in at least one of ranges.
func Covered(ranges []LineRange, lines []int) bool {
	if len(ranges) == 0 || len(lines) == 0 {
		return false
	}
	for _, line := range lines {
		if !anyContains(ranges, line) {
			return false
		}
	}
	return true
}

func anyContains(ranges []LineRange, line int) bool {
	for _, r := range ranges {
		if r.Contains(line) {
			return true
		}
	}
	return false
}
