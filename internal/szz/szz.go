// Package szz traces the lines a bug fix removed or rewrote back to the
// commits that introduced them. Changed lines that took part in a
// refactoring are not traced, and neither are origins that only refactored
// the line.
package szz

import (
	"context"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/masmgr/refscan-go/internal/diag"
	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/refindex"
)

// Options configures an Analyzer.
type Options struct {
	// Filter selects files by their path in the fix's parent. Nil keeps all.
	Filter *export.PathFilter
	// Refactorings, if set, excludes refactored lines.
	Refactorings refindex.Source
	// Abbrev is the revision length the refactoring rows were exported with.
	Abbrev int
	// RenameScore is the rename detection similarity; 0 disables it.
	RenameScore int
}

// BlamedLine is a line changed by a fix, traced to the commit that last
// touched it before the fix.
type BlamedLine struct {
	Fix         string
	File        string // path in the fix's parent
	Line        int    // 1-based line in the fix's parent
	Introducing string
	Code        string
}

// FixResult is the outcome for one fix commit.
type FixResult struct {
	Fix   git.CommitInfo
	Lines []BlamedLine
	// Filtered counts changed lines dropped as blank, comment or import lines.
	Filtered int
	// Refactored counts changed lines inside a refactoring of the fix.
	Refactored int
	// RefactoringOrigins counts lines whose blamed commit refactored them.
	RefactoringOrigins int
}

// Introducers returns the distinct introducing commits in first-seen order.
func (r *FixResult) Introducers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range r.Lines {
		if !seen[l.Introducing] {
			seen[l.Introducing] = true
			out = append(out, l.Introducing)
		}
	}
	return out
}

// Analyzer runs the search against one repository.
type Analyzer struct {
	repo   *git.Repository
	differ git.TreeDiffer
	opts   Options
	log    *diag.Logger
}

// New creates an analyzer. A nil logger discards diagnostics.
func New(repo *git.Repository, opts Options, log *diag.Logger) *Analyzer {
	if log == nil {
		log = diag.Discard()
	}
	return &Analyzer{
		repo:   repo,
		differ: git.NewTreeDiffer(repo, git.BackendNative),
		opts:   opts,
		log:    log,
	}
}

// Analyze traces the lines fix changed. Root and merge commits have no single
// parent to blame and yield an empty result.
func (a *Analyzer) Analyze(ctx context.Context, fix git.CommitInfo) (*FixResult, error) {
	result := &FixResult{Fix: fix}
	if len(fix.Parents) != 1 {
		return result, nil
	}
	parent := fix.Parents[0]

	entries, err := a.differ.DiffTrees(ctx, parent, fix.SHA, a.opts.RenameScore)
	if err != nil {
		return nil, err
	}
	parentCommit, err := a.repo.Git().CommitObject(plumbing.NewHash(parent))
	if err != nil {
		return nil, fmt.Errorf("read parent %s: %w", parent, err)
	}

	for _, entry := range entries {
		// added files have no history and deleted ones no fixed counterpart
		if entry.ChangeKind == git.ChangeKindAdded || entry.ChangeKind == git.ChangeKindDeleted {
			continue
		}
		oldPath := entry.Path
		if entry.IsRename() {
			oldPath = entry.OldPath
		}
		if !a.opts.Filter.Match(oldPath) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.analyzeFile(ctx, result, parentCommit, oldPath, entry.Path); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (a *Analyzer) analyzeFile(ctx context.Context, result *FixResult, parent *object.Commit, oldPath, newPath string) error {
	fix := result.Fix
	oldContent, err := a.differ.FileContent(ctx, parent.Hash.String(), oldPath)
	if err != nil {
		return err
	}
	newContent, err := a.differ.FileContent(ctx, fix.SHA, newPath)
	if err != nil {
		return err
	}

	var targets []int
	oldLines := splitLines(oldContent)
	for _, n := range ChangedLines(oldLines, splitLines(newContent)) {
		if Ignorable(oldLines[n-1]) {
			result.Filtered++
			continue
		}
		refactored, err := a.refactored(fix.SHA, oldPath, n)
		if err != nil {
			return err
		}
		if refactored {
			result.Refactored++
			continue
		}
		targets = append(targets, n)
	}
	if len(targets) == 0 {
		return nil
	}

	blame, err := gogit.Blame(parent, oldPath)
	if err != nil {
		return fmt.Errorf("blame %s at %s: %w", oldPath, parent.Hash, err)
	}
	for _, n := range targets {
		if n > len(blame.Lines) {
			a.log.Warnf("%s: blame of %s has %d lines, line %d not traced", short(fix.SHA), oldPath, len(blame.Lines), n)
			continue
		}
		origin := blame.Lines[n-1].Hash.String()
		refactored, err := a.refactored(origin, oldPath, n)
		if err != nil {
			return err
		}
		if refactored {
			result.RefactoringOrigins++
			continue
		}
		result.Lines = append(result.Lines, BlamedLine{
			Fix:         fix.SHA,
			File:        oldPath,
			Line:        n,
			Introducing: origin,
			Code:        strings.TrimSpace(oldLines[n-1]),
		})
	}
	return nil
}

// refactored reports whether line of file lies in a refactoring recorded
// under revision.
func (a *Analyzer) refactored(revision, file string, line int) (bool, error) {
	if a.opts.Refactorings == nil {
		return false, nil
	}
	rev := git.CommitInfo{SHA: revision}.Abbrev(a.opts.Abbrev)
	ranges, err := a.opts.Refactorings.Ranges(rev, file)
	if err != nil {
		return false, err
	}
	return refindex.Covered(ranges, []int{line}), nil
}

// ChangedLines returns the 1-based lines of before that after deletes or
// replaces. Lines are compared with runs of whitespace collapsed, so
// whitespace-only edits are not changes.
func ChangedLines(before, after []string) []int {
	a := normalize(before)
	b := normalize(after)
	var out []int
	for _, op := range difflib.NewMatcher(a, b).GetOpCodes() {
		if op.Tag != 'r' && op.Tag != 'd' {
			continue
		}
		for i := op.I1; i < op.I2; i++ {
			out = append(out, i+1)
		}
	}
	return out
}

// Ignorable reports whether a changed line cannot carry a bug: blank lines,
// comment lines and import declarations.
func Ignorable(line string) bool {
	t := strings.TrimSpace(line)
	switch {
	case t == "":
		return true
	case strings.HasPrefix(t, "//"), strings.HasPrefix(t, "/*"), strings.HasPrefix(t, "*"):
		return true
	case strings.HasPrefix(t, "import "):
		return true
	}
	return false
}

func normalize(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.Join(strings.Fields(l), " ")
	}
	return out
}

// splitLines splits content into lines without their terminators.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func short(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
