package output

import (
	"time"

	"github.com/masmgr/refscan-go/internal/bugfix"
	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/runner"
)

// Compile-time interface conformance checks.
// These ensure that all writer types correctly implement their respective interfaces.
var (
	// RunReportWriter implementations
	_ RunReportWriter = (*ConsoleRunWriter)(nil)
	_ RunReportWriter = (*JSONRunWriter)(nil)
	_ RunReportWriter = (*CSVRunWriter)(nil)
	_ RunReportWriter = (*MarkdownRunWriter)(nil)
	_ RunReportWriter = (*CIRunWriter)(nil)

	// CommitReportWriter implementations
	_ CommitReportWriter = (*ConsoleCommitWriter)(nil)
	_ CommitReportWriter = (*JSONCommitWriter)(nil)
	_ CommitReportWriter = (*CSVCommitWriter)(nil)
	_ CommitReportWriter = (*MarkdownCommitWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
}

// CommitReport lists the commits reachable from a reference.
type CommitReport struct {
	RepoPath     string
	StartRef     string
	GeneratedAt  time.Time
	TotalCommits int
	Items        []CommitItem
	// FixesByAuthor ranks contributors by their bug-fix commits.
	FixesByAuthor []bugfix.AuthorFixes
}

// CommitItem is one listed commit.
type CommitItem struct {
	Commit git.CommitInfo
	Bugfix bool
	Issue  string
}

// RunReportWriter writes export run reports.
type RunReportWriter interface {
	Write(report *runner.Report, options OutputOptions) error
}

// CommitReportWriter writes commit listings.
type CommitReportWriter interface {
	Write(report *CommitReport, options OutputOptions) error
}

// NewRunReportWriter creates a run report writer for the specified format.
func NewRunReportWriter(format OutputFormat) RunReportWriter {
	switch format {
	case FormatJSON:
		return &JSONRunWriter{}
	case FormatCSV:
		return &CSVRunWriter{}
	case FormatMarkdown:
		return &MarkdownRunWriter{}
	case FormatCI:
		return &CIRunWriter{}
	default:
		return &ConsoleRunWriter{}
	}
}

// NewCommitReportWriter creates a commit report writer for the specified format.
func NewCommitReportWriter(format OutputFormat) CommitReportWriter {
	switch format {
	case FormatJSON:
		return &JSONCommitWriter{}
	case FormatCSV:
		return &CSVCommitWriter{}
	case FormatMarkdown:
		return &MarkdownCommitWriter{}
	default:
		return &ConsoleCommitWriter{}
	}
}
