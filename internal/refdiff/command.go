package refdiff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/masmgr/refscan-go/internal/git"
)

// Argument placeholders expanded by CommandEngine.
const (
	PlaceholderRepo   = "{repo}"
	PlaceholderBefore = "{before}"
	PlaceholderAfter  = "{after}"
)

// DefaultCommandTimeout bounds a single engine invocation when no timeout is set.
const DefaultCommandTimeout = 5 * time.Minute

// CommandEngine runs an external refactoring detector once per commit pair.
//
// The program is started in the repository root with Args after placeholder
// expansion. It must print the relationships as JSON on stdout, either as a
// bare array or as {"relationships": [...]}.
type CommandEngine struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// ComputeDiff runs the command for before..after and decodes its output.
func (e *CommandEngine) ComputeDiff(ctx context.Context, repo *git.Repository, before, after git.CommitInfo) (*Diff, error) {
	fail := func(err error) (*Diff, error) {
		return nil, &DiffComputationError{Before: before.SHA, After: after.SHA, Err: err}
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := expandArgs(e.Args, repo.Path(), before.SHA, after.SHA)
	cmd := exec.CommandContext(ctx, e.Command, args...)
	cmd.Dir = repo.Path()
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fail(fmt.Errorf("%s timed out after %s", e.Command, timeout))
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fail(fmt.Errorf("%s: %w: %s", e.Command, err, msg))
		}
		return fail(fmt.Errorf("%s: %w", e.Command, err))
	}

	rels, err := decodeRelationships(stdout.Bytes())
	if err != nil {
		return fail(err)
	}
	return NewDiff(rels), nil
}

func expandArgs(args []string, repoPath, before, after string) []string {
	r := strings.NewReplacer(
		PlaceholderRepo, repoPath,
		PlaceholderBefore, before,
		PlaceholderAfter, after,
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

type relationshipEnvelope struct {
	Relationships []Relationship `json:"relationships"`
}

// decodeRelationships accepts a JSON array of relationships or an object with a
// "relationships" field. Empty output means no relationships.
func decodeRelationships(data []byte) ([]Relationship, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var rels []Relationship
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &rels); err != nil {
			return nil, fmt.Errorf("decode engine output: %w", err)
		}
	case '{':
		var env relationshipEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("decode engine output: %w", err)
		}
		rels = env.Relationships
	default:
		return nil, fmt.Errorf("decode engine output: unexpected leading byte %q", data[0])
	}

	for i, r := range rels {
		if r.Type == "" {
			return nil, fmt.Errorf("relationship %d: missing type", i)
		}
	}
	return rels, nil
}
