package export

import (
	"github.com/masmgr/refscan-go/internal/refdiff"
)

// Exporter filters relationships and fans the resulting rows out to sinks.
type Exporter struct {
	sinks  []Sink
	filter *PathFilter

	// OnInvalid, if set, is called for each refactoring dropped because its
	// after-location is not a 1-based range with EndLine >= BeginLine.
	OnInvalid func(revision string, rel refdiff.Relationship)
}

// NewExporter creates an exporter writing to sinks. filter may be nil.
func NewExporter(filter *PathFilter, sinks ...Sink) *Exporter {
	return &Exporter{sinks: sinks, filter: filter}
}

// Rows maps rels to rows for revision, dropping non-refactorings, invalid
// locations and filtered paths.
func (e *Exporter) Rows(revision string, rels []refdiff.Relationship) []RevisionRefactor {
	kept := make([]refdiff.Relationship, 0, len(rels))
	for _, rel := range rels {
		if !rel.IsRefactoring() {
			continue
		}
		if !rel.After.Valid() {
			if e.OnInvalid != nil {
				e.OnInvalid(revision, rel)
			}
			continue
		}
		if !e.filter.Match(rel.After.File) {
			continue
		}
		kept = append(kept, rel)
	}
	return FromRelationships(revision, kept)
}

// Append exports the refactorings of one revision and returns the number of
// rows produced. With no rows no sink is touched.
func (e *Exporter) Append(revision string, rels []refdiff.Relationship) (int, error) {
	return e.Write(revision, e.Rows(revision, rels))
}

// Write hands rows to every sink. Every sink is attempted; the first failure
// is returned as an *ExportIOError.
func (e *Exporter) Write(revision string, rows []RevisionRefactor) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var firstErr error
	for _, sink := range e.sinks {
		if err := sink.Append(rows); err != nil && firstErr == nil {
			firstErr = &ExportIOError{Revision: revision, Path: sink.Name(), Err: err}
		}
	}
	return len(rows), firstErr
}
