package refdiff

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/masmgr/refscan-go/internal/git"
)

// DefaultRenameScore is the similarity percentage used when none is configured.
const DefaultRenameScore = 60

// BuiltinEngine reports file-level refactorings found by rename detection.
//
// Each renamed file yields one relationship: RENAME when it stays in the same
// directory, MOVE when it keeps its base name, MOVE_RENAME otherwise.
type BuiltinEngine struct {
	RenameScore int
	Backend     git.Backend
}

// ComputeDiff diffs the trees of before and after and classifies the renames.
func (e *BuiltinEngine) ComputeDiff(ctx context.Context, repo *git.Repository, before, after git.CommitInfo) (*Diff, error) {
	fail := func(err error) (*Diff, error) {
		return nil, &DiffComputationError{Before: before.SHA, After: after.SHA, Err: err}
	}

	score := e.RenameScore
	if score <= 0 {
		score = DefaultRenameScore
	}

	differ := git.NewTreeDiffer(repo, e.Backend)
	entries, err := differ.DiffTrees(ctx, before.SHA, after.SHA, score)
	if err != nil {
		return fail(err)
	}

	var rels []Relationship
	for _, entry := range entries {
		if !entry.IsRename() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		oldContent, err := differ.FileContent(ctx, before.SHA, entry.OldPath)
		if err != nil {
			return fail(err)
		}
		newContent, err := differ.FileContent(ctx, after.SHA, entry.Path)
		if err != nil {
			return fail(err)
		}

		beforeLoc, afterLoc := retainedSpans(entry.OldPath, oldContent, entry.Path, newContent)
		rels = append(rels, Relationship{
			Type:   classifyRename(entry.OldPath, entry.Path),
			Before: beforeLoc,
			After:  afterLoc,
		})
	}

	sort.Slice(rels, func(i, j int) bool {
		return rels[i].After.File < rels[j].After.File
	})
	return NewDiff(rels), nil
}

func classifyRename(oldPath, newPath string) RelationshipType {
	switch {
	case path.Dir(oldPath) == path.Dir(newPath):
		return Rename
	case path.Base(oldPath) == path.Base(newPath):
		return Move
	default:
		return MoveRename
	}
}

// retainedSpans returns, for both sides of a rename, the line span covering the
// lines the new file kept from the old one. With nothing retained the whole
// file is used.
func retainedSpans(oldPath, oldContent, newPath, newContent string) (Location, Location) {
	a := splitLines(oldContent)
	b := splitLines(newContent)

	beforeLoc := wholeFile(oldPath, len(a))
	afterLoc := wholeFile(newPath, len(b))

	var first, last *difflib.Match
	blocks := difflib.NewMatcher(a, b).GetMatchingBlocks()
	for i := range blocks {
		if blocks[i].Size == 0 {
			continue
		}
		if first == nil {
			first = &blocks[i]
		}
		last = &blocks[i]
	}
	if first == nil {
		return beforeLoc, afterLoc
	}

	beforeLoc.BeginLine = first.A + 1
	beforeLoc.EndLine = last.A + last.Size
	afterLoc.BeginLine = first.B + 1
	afterLoc.EndLine = last.B + last.Size
	return beforeLoc, afterLoc
}

func wholeFile(file string, lines int) Location {
	return Location{File: file, BeginLine: 1, EndLine: max(1, lines)}
}

// splitLines splits content into lines without their terminators.
// A trailing newline does not start a new line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
