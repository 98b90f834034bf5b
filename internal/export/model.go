// Package export turns detected refactorings into revisionRefactor rows and
// appends them to the configured sinks.
package export

import (
	"fmt"
	"strconv"

	"github.com/masmgr/refscan-go/internal/refdiff"
)

// RevisionRefactor is one exported refactoring: the after-side location of a
// relationship, keyed by the revision that introduced it.
type RevisionRefactor struct {
	Revision  string
	FileName  string
	RefType   string
	StartLine int
	EndLine   int
}

// String formats the row as revision,fileName,refType,startLine,endLine
// without any quoting.
func (r RevisionRefactor) String() string {
	return fmt.Sprintf("%s,%s,%s,%d,%d", r.Revision, r.FileName, r.RefType, r.StartLine, r.EndLine)
}

// Record returns the five CSV fields of the row.
func (r RevisionRefactor) Record() []string {
	return []string{
		r.Revision,
		r.FileName,
		r.RefType,
		strconv.Itoa(r.StartLine),
		strconv.Itoa(r.EndLine),
	}
}

// Contains reports whether line falls inside the row's line range.
func (r RevisionRefactor) Contains(line int) bool {
	return line >= r.StartLine && line <= r.EndLine
}

// FromRelationships maps each relationship to a row for revision, in order.
func FromRelationships(revision string, rels []refdiff.Relationship) []RevisionRefactor {
	rows := make([]RevisionRefactor, 0, len(rels))
	for _, rel := range rels {
		rows = append(rows, RevisionRefactor{
			Revision:  revision,
			FileName:  rel.After.File,
			RefType:   string(rel.Type),
			StartLine: rel.After.BeginLine,
			EndLine:   rel.After.EndLine,
		})
	}
	return rows
}
