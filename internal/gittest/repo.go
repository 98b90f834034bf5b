// Package gittest builds throwaway Git repositories for tests.
package gittest

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is a non-bare repository in a temporary directory.
// Every commit is stamped one minute after the previous one.
type Repo struct {
	Dir  string
	Git  *gogit.Repository
	t    testing.TB
	wt   *gogit.Worktree
	base time.Time
	n    int
}

// New initializes an empty repository under t.TempDir().
func New(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	return &Repo{Dir: dir, Git: repo, t: t, wt: wt, base: time.Now().Add(-48 * time.Hour)}
}

// Worktree returns the repository's worktree.
func (r *Repo) Worktree() *gogit.Worktree { return r.wt }

// Write creates or overwrites rel and stages it.
func (r *Repo) Write(rel, content string) {
	r.t.Helper()
	full := filepath.Join(r.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		r.t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		r.t.Fatalf("WriteFile: %v", err)
	}
	if _, err := r.wt.Add(rel); err != nil {
		r.t.Fatalf("Add: %v", err)
	}
}

// Move renames a tracked file and stages the rename.
func (r *Repo) Move(from, to string) {
	r.t.Helper()
	if err := os.MkdirAll(filepath.Dir(filepath.Join(r.Dir, to)), 0o755); err != nil {
		r.t.Fatalf("MkdirAll: %v", err)
	}
	if _, err := r.wt.Move(from, to); err != nil {
		r.t.Fatalf("Move: %v", err)
	}
}

// Remove deletes a tracked file and stages the deletion.
func (r *Repo) Remove(rel string) {
	r.t.Helper()
	if _, err := r.wt.Remove(rel); err != nil {
		r.t.Fatalf("Remove: %v", err)
	}
}

// Commit records the staged changes and returns the commit SHA.
func (r *Repo) Commit(msg string) string {
	r.t.Helper()
	return r.CommitWithParents(msg)
}

// CommitWithParents records a commit with explicit parents, e.g. a merge.
// With no parents the current HEAD is used.
func (r *Repo) CommitWithParents(msg string, parents ...string) string {
	r.t.Helper()
	r.n++
	sig := &object.Signature{Name: "Test", Email: "test@example.com", When: r.base.Add(time.Duration(r.n) * time.Minute)}
	opts := &gogit.CommitOptions{Author: sig, Committer: sig}
	for _, p := range parents {
		opts.Parents = append(opts.Parents, plumbing.NewHash(p))
	}
	hash, err := r.wt.Commit(msg, opts)
	if err != nil {
		r.t.Fatalf("Commit: %v", err)
	}
	return hash.String()
}

// Linear creates a repository with n commits, each adding src/file<letter>.txt
// with message "commit <letter>". SHAs are returned oldest first.
func Linear(t testing.TB, n int) (*Repo, []string) {
	t.Helper()
	r := New(t)
	shas := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := FileName(i)
		r.Write(filepath.Join("src", "file"+name+".txt"), "content\n")
		shas = append(shas, r.Commit("commit "+name))
	}
	return r, shas
}

// FileName returns the letter suffix Linear uses for its i-th commit.
func FileName(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return fmt.Sprintf("%d", i)
}

// RequireGit skips the test when no git executable is on PATH.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
}
