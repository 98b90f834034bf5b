package git

import (
	"testing"

	"github.com/masmgr/refscan-go/internal/gittest"
)

func openTestRepo(t testing.TB, r *gittest.Repo) *Repository {
	t.Helper()
	repo, err := OpenRepository(r.Dir)
	if err != nil {
		t.Fatalf("OpenRepository: %v", err)
	}
	return repo
}
