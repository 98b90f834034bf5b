package git

import (
	"context"
	"errors"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// NativeHistory reads commit history through go-git.
type NativeHistory struct {
	repo        *git.Repository
	firstParent bool
}

// NewNativeHistory creates a go-git history source.
func NewNativeHistory(repo *git.Repository, firstParent bool) *NativeHistory {
	return &NativeHistory{repo: repo, firstParent: firstParent}
}

// CountCommits returns the number of commits reachable from startRef, inclusive.
func (h *NativeHistory) CountCommits(ctx context.Context, startRef string) (int, error) {
	iter, err := h.Walk(ctx, startRef, 0)
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	count := 0
	for {
		_, err := iter.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return 0, &HistoryError{Ref: startRef, Err: err}
		}
		count++
	}
}

// Walk returns the commits reachable from startRef, newest first by committer time.
func (h *NativeHistory) Walk(ctx context.Context, startRef string, limit int) (CommitIter, error) {
	hash, err := h.resolve(startRef)
	if err != nil {
		return nil, err
	}

	if h.firstParent {
		return &firstParentIter{ctx: ctx, repo: h.repo, next: hash, limit: limit}, nil
	}

	cIter, err := h.repo.Log(&git.LogOptions{From: hash, Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, &HistoryError{Ref: startRef, Err: err}
	}
	return &logIter{ctx: ctx, iter: cIter, limit: limit}, nil
}

func (h *NativeHistory) resolve(ref string) (plumbing.Hash, error) {
	if ref == "" {
		ref = "HEAD"
	}
	hash, err := h.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, &HistoryError{Ref: ref, Err: err}
	}
	return *hash, nil
}

type logIter struct {
	ctx   context.Context
	iter  object.CommitIter
	limit int
	n     int
}

func (it *logIter) Next() (CommitInfo, error) {
	if it.limit > 0 && it.n >= it.limit {
		return CommitInfo{}, io.EOF
	}
	if err := it.ctx.Err(); err != nil {
		return CommitInfo{}, err
	}
	c, err := it.iter.Next()
	if err != nil {
		return CommitInfo{}, err
	}
	it.n++
	return commitInfoFrom(c), nil
}

func (it *logIter) Close() { it.iter.Close() }

// firstParentIter follows the first-parent chain, like `git log --first-parent`.
type firstParentIter struct {
	ctx   context.Context
	repo  *git.Repository
	next  plumbing.Hash
	limit int
	n     int
}

func (it *firstParentIter) Next() (CommitInfo, error) {
	if it.next.IsZero() || (it.limit > 0 && it.n >= it.limit) {
		return CommitInfo{}, io.EOF
	}
	if err := it.ctx.Err(); err != nil {
		return CommitInfo{}, err
	}
	c, err := it.repo.CommitObject(it.next)
	if err != nil {
		return CommitInfo{}, err
	}
	if len(c.ParentHashes) > 0 {
		it.next = c.ParentHashes[0]
	} else {
		it.next = plumbing.ZeroHash
	}
	it.n++
	return commitInfoFrom(c), nil
}

func (it *firstParentIter) Close() { it.next = plumbing.ZeroHash }

func commitInfoFrom(c *object.Commit) CommitInfo {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return CommitInfo{
		SHA:     c.Hash.String(),
		Parents: parents,
		When:    c.Committer.When,
		Author:  AuthorInfo{Name: c.Author.Name, Email: c.Author.Email},
		Message: firstLine(c.Message),
	}
}
