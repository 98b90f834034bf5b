package output

import (
	"os"
	"testing"
	"time"

	"github.com/masmgr/refscan-go/internal/aggregation"
	"github.com/masmgr/refscan-go/internal/bugfix"
	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/runner"
)

func readTestFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func sampleReport() *runner.Report {
	agg := aggregation.NewFileMetricsAggregator()
	agg.Process([]export.RevisionRefactor{
		{Revision: "bbbbbbb", FileName: "src/Hot.java", RefType: "RENAME", StartLine: 1, EndLine: 10},
		{Revision: "bbbbbbb", FileName: "src/Warm.java", RefType: "MOVE", StartLine: 3, EndLine: 4},
	})
	agg.Process([]export.RevisionRefactor{
		{Revision: "ccccccc", FileName: "src/Hot.java", RefType: "EXTRACT", StartLine: 20, EndLine: 25},
	})

	return &runner.Report{
		RepoURL:      "https://example.com/repo.git",
		WorkDir:      "/tmp/repo",
		OutputPath:   "refactorings.csv",
		StartRef:     "HEAD",
		Cloned:       true,
		TotalCommits: 4,
		Visited:      4,
		Pairs:        3,
		Skipped:      1,
		Rows:         agg.Rows(),
		ByType:       agg.ByType(),
		ByFile:       agg.ByFile(),
		TopFiles:     agg.TopFiles(0),
		Commits: []aggregation.CommitMetrics{
			{Revision: "bbbbbbb", Rows: 2, FileCount: 2, Types: []string{"MOVE", "RENAME"}},
			{Revision: "ccccccc", Rows: 1, FileCount: 1, Types: []string{"EXTRACT"}},
		},
		Failures: []runner.PairFailure{
			{Before: "aaaaaaaaaaaaaaaa", After: "dddddddddddddddd", Stage: "diff", Error: "engine exited 1"},
		},
		StartedAt: time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
	}
}

func sampleCommitReport() *CommitReport {
	when := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	return &CommitReport{
		RepoPath:     "/tmp/repo",
		StartRef:     "HEAD",
		GeneratedAt:  when,
		TotalCommits:  2,
		FixesByAuthor: []bugfix.AuthorFixes{{Author: "ann@example.com", Fixes: 1}},
		Items: []CommitItem{
			{
				Commit: git.CommitInfo{
					SHA:     "0123456789abcdef0123456789abcdef01234567",
					Parents: []string{"fedcba9876543210fedcba9876543210fedcba98"},
					When:    when,
					Author:  git.AuthorInfo{Name: "Ann", Email: "ann@example.com"},
					Message: "fix: null check in parser",
				},
				Bugfix: true,
				Issue:  "PARSER-12",
			},
			{
				Commit: git.CommitInfo{
					SHA:     "fedcba9876543210fedcba9876543210fedcba98",
					When:    when.Add(-time.Hour),
					Author:  git.AuthorInfo{Name: "Bob", Email: "bob@example.com"},
					Message: "initial import",
				},
			},
		},
	}
}

func TestTruncateMessage_Output(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		maxLen   int
		expected string
	}{
		{name: "Short message", msg: "hello", maxLen: 40, expected: "hello"},
		{name: "Exact length", msg: "1234567890", maxLen: 10, expected: "1234567890"},
		{name: "Over max length", msg: "a very long message here", maxLen: 10, expected: "a very ..."},
		{name: "Empty message", msg: "", maxLen: 40, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateMessage(tt.msg, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateMessage(%q, %d) = %q, expected %q", tt.msg, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestGetStatusEmoji(t *testing.T) {
	if got := getStatusEmoji(true); got != "\U0001F7E2" {
		t.Errorf("getStatusEmoji(true) = %q", got)
	}
	if got := getStatusEmoji(false); got != "\U0001F7E1" {
		t.Errorf("getStatusEmoji(false) = %q", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Pipe", input: "a|b", expected: "a\\|b"},
		{name: "Asterisk", input: "a*b", expected: "a\\*b"},
		{name: "Underscore", input: "a_b", expected: "a\\_b"},
		{name: "Backtick", input: "a`b", expected: "a\\`b"},
		{name: "Multiple specials", input: "a|b*c_d", expected: "a\\|b\\*c\\_d"},
		{name: "No specials", input: "plain text", expected: "plain text"},
		{name: "Empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := escapeMarkdown(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdown(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}
