package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-git/v5"
)

// Repository is a provisioned local repository.
type Repository struct {
	path   string
	repo   *git.Repository
	cloned bool
}

// Path returns the worktree root of the repository.
func (r *Repository) Path() string { return r.path }

// Git returns the underlying go-git repository.
func (r *Repository) Git() *git.Repository { return r.repo }

// Cloned reports whether the repository was cloned by the provisioner in this run.
func (r *Repository) Cloned() bool { return r.cloned }

// OpenRepository opens an existing repository at path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, &ProvisionError{Path: path, Err: err}
	}
	return &Repository{path: path, repo: repo}, nil
}

// Provisioner ensures a local copy of a remote repository exists.
type Provisioner struct {
	// Progress receives clone progress output. Nil discards it.
	Progress io.Writer
}

// NewProvisioner creates a provisioner that discards clone progress.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// EnsureLocalCopy returns the repository at dest, cloning remoteURL into it when
// dest does not exist or is an empty directory. An existing repository is reused
// without touching the network.
func (p *Provisioner) EnsureLocalCopy(ctx context.Context, dest, remoteURL string) (*Repository, error) {
	if dest == "" {
		return nil, &ProvisionError{URL: remoteURL, Err: errors.New("empty destination path")}
	}

	created := false
	info, err := os.Stat(dest)
	switch {
	case err == nil && !info.IsDir():
		return nil, &ProvisionError{Path: dest, URL: remoteURL, Err: errors.New("destination exists and is not a directory")}
	case err == nil:
		repo, openErr := git.PlainOpen(dest)
		if openErr == nil {
			return &Repository{path: dest, repo: repo}, nil
		}
		empty, err := isEmptyDir(dest)
		if err != nil {
			return nil, &ProvisionError{Path: dest, URL: remoteURL, Err: err}
		}
		if !empty {
			return nil, &ProvisionError{Path: dest, URL: remoteURL, Err: fmt.Errorf("existing path is not a git repository: %w", openErr)}
		}
	case errors.Is(err, os.ErrNotExist):
		created = true
	default:
		return nil, &ProvisionError{Path: dest, URL: remoteURL, Err: err}
	}

	if remoteURL == "" {
		return nil, &ProvisionError{Path: dest, Err: errors.New("no repository at destination and no remote URL to clone")}
	}

	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:      remoteURL,
		Progress: p.Progress,
	})
	if err != nil {
		if created {
			_ = os.RemoveAll(dest)
		}
		return nil, &ProvisionError{Path: dest, URL: remoteURL, Err: err}
	}

	return &Repository{path: dest, repo: repo, cloned: true}, nil
}

func isEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
