package git

import (
	"strings"
	"time"
)

// fullSHALength is the length of a hex-encoded SHA-1 commit id.
const fullSHALength = 40

// CommitInfo represents minimal information about a Git commit.
type CommitInfo struct {
	SHA     string
	Parents []string
	When    time.Time
	Author  AuthorInfo
	Message string
}

// Abbrev returns the first n hex digits of the commit id.
// n <= 0 or n >= 40 returns the full id.
func (c CommitInfo) Abbrev(n int) string {
	if n <= 0 || n >= len(c.SHA) {
		return c.SHA
	}
	return c.SHA[:n]
}

// IsMerge reports whether the commit has more than one parent.
func (c CommitInfo) IsMerge() bool {
	return len(c.Parents) > 1
}

// IsRoot reports whether the commit has no parents.
func (c CommitInfo) IsRoot() bool {
	return len(c.Parents) == 0
}

// AuthorInfo represents commit author information.
type AuthorInfo struct {
	Name  string
	Email string
}

// ContributorKey returns a normalized identifier for grouping contributors.
func (a AuthorInfo) ContributorKey() string {
	return strings.ToLower(a.Email)
}

// ChangeKind represents the type of change.
type ChangeKind int

const (
	ChangeKindAdded ChangeKind = iota
	ChangeKindModified
	ChangeKindDeleted
	ChangeKindRenamed
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeKindAdded:
		return "added"
	case ChangeKindModified:
		return "modified"
	case ChangeKindDeleted:
		return "deleted"
	case ChangeKindRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Backend selects how history and trees are read.
type Backend string

const (
	BackendNative Backend = "native"
	BackendGitCLI Backend = "gitcli"
)

// ParseBackend parses a backend name. Empty means native.
func ParseBackend(s string) (Backend, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "native", "go-git", "gogit":
		return BackendNative, true
	case "gitcli", "git", "cli":
		return BackendGitCLI, true
	default:
		return "", false
	}
}

// HistoryOptions configures a history source.
type HistoryOptions struct {
	Backend     Backend
	FirstParent bool
}

// firstLine returns the subject line of a commit message.
func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx != -1 {
		return message[:idx]
	}
	return message
}
