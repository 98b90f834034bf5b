package refdiff

import (
	"fmt"
	"strings"
)

// DiffErrorPolicy decides what a failed commit pair does to the run.
type DiffErrorPolicy string

const (
	// PolicySkip logs the failure and moves on to the next pair.
	PolicySkip DiffErrorPolicy = "skip"
	// PolicyAbort stops the run at the first failure.
	PolicyAbort DiffErrorPolicy = "abort"
)

// ParsePolicy parses a policy name. Empty means skip.
func ParsePolicy(s string) (DiffErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip", "continue":
		return PolicySkip, nil
	case "abort", "fail", "stop":
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("invalid diff error policy %q (expected skip or abort)", s)
	}
}
