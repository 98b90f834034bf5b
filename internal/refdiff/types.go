// Package refdiff is the boundary to refactoring-detection engines.
//
// An Engine compares two revisions and reports the refactorings it finds as
// relationships between code locations. The engine itself is opaque: this
// package only defines the call and result contract plus the adapters that
// bind concrete engines to it.
package refdiff

import (
	"context"
	"fmt"

	"github.com/masmgr/refscan-go/internal/git"
)

// RelationshipType is the kind of a detected relationship.
type RelationshipType string

const (
	Same               RelationshipType = "SAME"
	ConvertType        RelationshipType = "CONVERT_TYPE"
	ChangeSignature    RelationshipType = "CHANGE_SIGNATURE"
	PullUp             RelationshipType = "PULL_UP"
	PullUpSignature    RelationshipType = "PULL_UP_SIGNATURE"
	PushDown           RelationshipType = "PUSH_DOWN"
	PushDownImpl       RelationshipType = "PUSH_DOWN_IMPL"
	Extract            RelationshipType = "EXTRACT"
	ExtractSuper       RelationshipType = "EXTRACT_SUPER"
	ExtractMove        RelationshipType = "EXTRACT_MOVE"
	Inline             RelationshipType = "INLINE"
	Move               RelationshipType = "MOVE"
	Rename             RelationshipType = "RENAME"
	MoveRename         RelationshipType = "MOVE_RENAME"
	InternalMove       RelationshipType = "INTERNAL_MOVE"
	InternalMoveRename RelationshipType = "INTERNAL_MOVE_RENAME"
)

// Location is a 1-based, inclusive line range within a file.
type Location struct {
	File      string `json:"file"`
	BeginLine int    `json:"beginLine"`
	EndLine   int    `json:"endLine"`
}

// Valid reports whether the location names a file and a non-empty line range.
func (l Location) Valid() bool {
	return l.File != "" && l.BeginLine >= 1 && l.EndLine >= l.BeginLine
}

// Relationship links a code element before a change to its counterpart after it.
type Relationship struct {
	Type   RelationshipType `json:"type"`
	Before Location         `json:"before"`
	After  Location         `json:"after"`
}

// IsRefactoring reports whether the relationship describes a refactoring.
// SAME only records that an element was matched unchanged.
func (r Relationship) IsRefactoring() bool {
	return r.Type != Same && r.Type != ""
}

// Diff is the result of comparing two revisions.
type Diff struct {
	relationships []Relationship
}

// NewDiff creates a diff holding the given relationships.
func NewDiff(rels []Relationship) *Diff {
	return &Diff{relationships: rels}
}

// Relationships returns every relationship in the diff.
func (d *Diff) Relationships() []Relationship {
	if d == nil {
		return nil
	}
	return d.relationships
}

// Refactorings returns the relationships that are refactorings.
func (d *Diff) Refactorings() []Relationship {
	var out []Relationship
	for _, r := range d.Relationships() {
		if r.IsRefactoring() {
			out = append(out, r)
		}
	}
	return out
}

// Engine computes the refactorings between two revisions of a repository.
// Calls against the same repository must not run concurrently: an engine may
// check files out into the shared working tree.
type Engine interface {
	ComputeDiff(ctx context.Context, repo *git.Repository, before, after git.CommitInfo) (*Diff, error)
}

// DiffComputationError reports an engine failure for one commit pair.
type DiffComputationError struct {
	Before string
	After  string
	Err    error
}

func (e *DiffComputationError) Error() string {
	return fmt.Sprintf("compute diff %s..%s: %v", short(e.Before), short(e.After), e.Err)
}

func (e *DiffComputationError) Unwrap() error { return e.Err }

func short(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
