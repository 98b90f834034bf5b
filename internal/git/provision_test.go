package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/masmgr/refscan-go/internal/gittest"
)

func TestEnsureLocalCopy_ClonesOnceThenReuses(t *testing.T) {
	gittest.RequireGit(t) // local clones run git-upload-pack
	src, shas := gittest.Linear(t, 3)
	dest := filepath.Join(t.TempDir(), "clones", "project")

	p := NewProvisioner()
	ctx := context.Background()

	first, err := p.EnsureLocalCopy(ctx, dest, src.Dir)
	if err != nil {
		t.Fatalf("EnsureLocalCopy(first): %v", err)
	}
	if !first.Cloned() {
		t.Fatal("first call should clone")
	}
	if _, err := os.Stat(filepath.Join(dest, "src", "filea.txt")); err != nil {
		t.Fatalf("worktree not materialized: %v", err)
	}

	// The remote is gone: a second call must not need it.
	if err := os.RemoveAll(src.Dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	second, err := p.EnsureLocalCopy(ctx, dest, src.Dir)
	if err != nil {
		t.Fatalf("EnsureLocalCopy(second): %v", err)
	}
	if second.Cloned() {
		t.Fatal("second call should reuse the existing copy")
	}
	if second.Path() != dest {
		t.Errorf("Path() = %q, expected %q", second.Path(), dest)
	}

	head, err := second.Git().Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if head.Hash().String() != shas[len(shas)-1] {
		t.Errorf("HEAD = %s, expected %s", head.Hash(), shas[len(shas)-1])
	}
}

func TestEnsureLocalCopy_EmptyDirectoryIsCloned(t *testing.T) {
	gittest.RequireGit(t)
	src, _ := gittest.Linear(t, 1)
	dest := t.TempDir()

	repo, err := NewProvisioner().EnsureLocalCopy(context.Background(), dest, src.Dir)
	if err != nil {
		t.Fatalf("EnsureLocalCopy: %v", err)
	}
	if !repo.Cloned() {
		t.Fatal("empty directory should be cloned into")
	}
}

func TestEnsureLocalCopy_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("existing non-repository", func(t *testing.T) {
		dest := t.TempDir()
		if err := os.WriteFile(filepath.Join(dest, "notes.txt"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := NewProvisioner().EnsureLocalCopy(ctx, dest, "https://example.invalid/repo.git")
		var provErr *ProvisionError
		if !errors.As(err, &provErr) {
			t.Fatalf("error = %v, expected *ProvisionError", err)
		}
		if _, statErr := os.Stat(filepath.Join(dest, "notes.txt")); statErr != nil {
			t.Fatal("existing content must be left alone")
		}
	})

	t.Run("destination is a file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(dest, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := NewProvisioner().EnsureLocalCopy(ctx, dest, "https://example.invalid/repo.git")
		var provErr *ProvisionError
		if !errors.As(err, &provErr) {
			t.Fatalf("error = %v, expected *ProvisionError", err)
		}
	})

	t.Run("unreachable remote removes created directory", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "project")
		missing := filepath.Join(t.TempDir(), "does-not-exist")
		_, err := NewProvisioner().EnsureLocalCopy(ctx, dest, missing)
		var provErr *ProvisionError
		if !errors.As(err, &provErr) {
			t.Fatalf("error = %v, expected *ProvisionError", err)
		}
		if _, statErr := os.Stat(dest); !errors.Is(statErr, os.ErrNotExist) {
			t.Fatalf("partial clone left at %s", dest)
		}
	})

	t.Run("no URL and no repository", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "project")
		_, err := NewProvisioner().EnsureLocalCopy(ctx, dest, "")
		var provErr *ProvisionError
		if !errors.As(err, &provErr) {
			t.Fatalf("error = %v, expected *ProvisionError", err)
		}
	})
}
