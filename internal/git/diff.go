package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// DiffFileEntry represents a file changed between two commits.
type DiffFileEntry struct {
	Path       string
	ChangeKind ChangeKind
	OldPath    string // non-empty for renames
}

// IsRename reports whether the entry moved a file to a new path.
func (e DiffFileEntry) IsRename() bool {
	return e.ChangeKind == ChangeKindRenamed && e.OldPath != "" && e.OldPath != e.Path
}

// NativeTreeDiffer diffs commit trees through go-git.
type NativeTreeDiffer struct {
	repo *git.Repository
}

// DiffTrees returns the file changes from base to head.
func (d *NativeTreeDiffer) DiffTrees(ctx context.Context, base, head string, renameScore int) ([]DiffFileEntry, error) {
	baseTree, err := d.tree(base)
	if err != nil {
		return nil, err
	}
	headTree, err := d.tree(head)
	if err != nil {
		return nil, err
	}

	opts := *object.DefaultDiffTreeOptions
	opts.DetectRenames = renameScore > 0
	if renameScore > 0 {
		opts.RenameScore = uint(renameScore)
	}

	changes, err := object.DiffTreeWithOptions(ctx, baseTree, headTree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees %s..%s: %w", base, head, err)
	}

	entries := make([]DiffFileEntry, 0, len(changes))
	for _, change := range changes {
		if !change.From.TreeEntry.Mode.IsFile() && !change.To.TreeEntry.Mode.IsFile() {
			continue
		}

		action, err := change.Action()
		if err != nil {
			return nil, err
		}

		switch {
		case action == merkletrie.Insert:
			entries = append(entries, DiffFileEntry{Path: change.To.Name, ChangeKind: ChangeKindAdded})
		case action == merkletrie.Delete:
			entries = append(entries, DiffFileEntry{Path: change.From.Name, ChangeKind: ChangeKindDeleted})
		case change.From.Name != change.To.Name:
			entries = append(entries, DiffFileEntry{Path: change.To.Name, ChangeKind: ChangeKindRenamed, OldPath: change.From.Name})
		default:
			entries = append(entries, DiffFileEntry{Path: change.To.Name, ChangeKind: ChangeKindModified})
		}
	}

	return entries, nil
}

// FileContent returns the content of path at rev.
func (d *NativeTreeDiffer) FileContent(_ context.Context, rev, path string) (string, error) {
	commit, err := d.commit(rev)
	if err != nil {
		return "", err
	}
	f, err := commit.File(path)
	if err != nil {
		return "", fmt.Errorf("read %s at %s: %w", path, rev, err)
	}
	return f.Contents()
}

func (d *NativeTreeDiffer) commit(rev string) (*object.Commit, error) {
	hash, err := d.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	return d.repo.CommitObject(*hash)
}

func (d *NativeTreeDiffer) tree(rev string) (*object.Tree, error) {
	commit, err := d.commit(rev)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

// CLITreeDiffer diffs commit trees by running the git executable.
type CLITreeDiffer struct {
	repoPath string
}

// DiffTrees runs `git diff --name-status -z` between base and head.
func (d *CLITreeDiffer) DiffTrees(ctx context.Context, base, head string, renameScore int) ([]DiffFileEntry, error) {
	args := []string{
		"-C", d.repoPath,
		"diff",
		"--name-status",
		"-z",
	}
	if renameScore > 0 {
		args = append(args, fmt.Sprintf("-M%d%%", renameScore))
	} else {
		args = append(args, "--no-renames")
	}
	args = append(args, base, head, "--")

	out, err := exec.CommandContext(ctx, "git", args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return parseDiffNameStatus(out)
}

// FileContent runs `git cat-file -p rev:path`.
func (d *CLITreeDiffer) FileContent(ctx context.Context, rev, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", d.repoPath, "cat-file", "-p", rev+":"+path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git cat-file %s:%s failed: %w: %s", rev, path, err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// parseDiffNameStatus parses NUL-delimited `git diff --name-status -z` output.
// Format: STATUS\0PATH\0 (or STATUS\0OLDPATH\0NEWPATH\0 for renames/copies)
func parseDiffNameStatus(data []byte) ([]DiffFileEntry, error) {
	parts := bytes.Split(data, []byte{0x00})

	entries := make([]DiffFileEntry, 0, len(parts)/2)
	i := 0

	for i < len(parts) {
		status := strings.TrimSpace(string(parts[i]))
		if status == "" {
			i++
			continue
		}

		if i+1 >= len(parts) {
			break
		}

		kind, isRename := diffStatusToChangeKind(status)

		if isRename {
			// Rename/Copy: STATUS\0OLDPATH\0NEWPATH
			if i+2 >= len(parts) {
				return nil, fmt.Errorf("unexpected diff output: rename entry missing new path")
			}
			oldPath := string(parts[i+1])
			newPath := string(parts[i+2])
			entry := DiffFileEntry{Path: newPath, ChangeKind: kind}
			if kind == ChangeKindRenamed {
				entry.OldPath = oldPath
			}
			entries = append(entries, entry)
			i += 3
		} else {
			entries = append(entries, DiffFileEntry{
				Path:       string(parts[i+1]),
				ChangeKind: kind,
			})
			i += 2
		}
	}

	return entries, nil
}

// diffStatusToChangeKind converts a git diff status letter to ChangeKind.
// Returns the kind and whether the entry carries two paths.
func diffStatusToChangeKind(status string) (ChangeKind, bool) {
	if len(status) == 0 {
		return ChangeKindModified, false
	}
	switch status[0] {
	case 'A':
		return ChangeKindAdded, false
	case 'D':
		return ChangeKindDeleted, false
	case 'R':
		return ChangeKindRenamed, true
	case 'C':
		// A copy leaves its source in place, so the new path counts as added.
		return ChangeKindAdded, true
	default:
		return ChangeKindModified, false
	}
}
