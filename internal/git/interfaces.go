package git

import "context"

// HistorySource counts and walks the commit history reachable from a reference.
// This abstraction allows for easier testing and alternative backends.
type HistorySource interface {
	// CountCommits returns the number of commits reachable from startRef, inclusive.
	CountCommits(ctx context.Context, startRef string) (int, error)
	// Walk returns commits in reverse-chronological order starting at startRef.
	// At most limit commits are produced; limit <= 0 walks the whole history.
	Walk(ctx context.Context, startRef string, limit int) (CommitIter, error)
}

// CommitIter is a lazy, single-use sequence of commits.
// Next returns io.EOF after the last commit.
type CommitIter interface {
	Next() (CommitInfo, error)
	Close()
}

// TreeDiffer lists the files changed between two commits and reads their contents.
type TreeDiffer interface {
	// DiffTrees returns the changes from base to head. renameScore is the similarity
	// percentage (1-100) for rename detection; 0 disables it.
	DiffTrees(ctx context.Context, base, head string, renameScore int) ([]DiffFileEntry, error)
	// FileContent returns the content of path at the given commit.
	FileContent(ctx context.Context, rev, path string) (string, error)
}

// Compile-time interface conformance checks.
var (
	_ HistorySource = (*NativeHistory)(nil)
	_ HistorySource = (*CLIHistory)(nil)
	_ HistorySource = (*MockHistory)(nil)
	_ TreeDiffer    = (*NativeTreeDiffer)(nil)
	_ TreeDiffer    = (*CLITreeDiffer)(nil)
)

// NewHistory returns the history source for the repository and backend.
func NewHistory(repo *Repository, opts HistoryOptions) HistorySource {
	if opts.Backend == BackendGitCLI {
		return NewCLIHistory(repo.Path(), opts.FirstParent)
	}
	return NewNativeHistory(repo.Git(), opts.FirstParent)
}

// NewTreeDiffer returns the tree differ for the repository and backend.
func NewTreeDiffer(repo *Repository, backend Backend) TreeDiffer {
	if backend == BackendGitCLI {
		return &CLITreeDiffer{repoPath: repo.Path()}
	}
	return &NativeTreeDiffer{repo: repo.Git()}
}
