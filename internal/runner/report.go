package runner

import (
	"time"

	"github.com/masmgr/refscan-go/internal/aggregation"
)

// Report summarizes a run.
type Report struct {
	RepoURL    string
	WorkDir    string
	OutputPath string
	StartRef   string
	Cloned     bool

	TotalCommits   int // reachable from StartRef
	Visited        int // commits produced by the walk
	Pairs          int // commit pairs handed to the engine
	Merges         int // merge commits, not compared
	Skipped        int // pairs whose diff failed
	ExportFailures int
	Rows           int // rows accepted by every sink
	LostRows       int // rows of pairs whose export failed
	Invalid        int // refactorings dropped for an invalid location

	ByType   map[string]int
	ByFile   map[string]int
	TopFiles []*aggregation.FileMetrics
	Commits  []aggregation.CommitMetrics
	Failures []PairFailure

	StartedAt time.Time
	Duration  time.Duration
}

// PairFailure records a commit pair that could not be exported.
type PairFailure struct {
	Before string
	After  string
	Stage  string // "diff" or "export"
	Error  string
}

// Exported returns the number of pairs whose rows were written without error,
// including pairs that produced no rows.
func (r *Report) Exported() int {
	return r.Pairs - r.Skipped - r.ExportFailures
}

// Succeeded reports whether every pair was diffed and exported.
func (r *Report) Succeeded() bool {
	return r.Skipped == 0 && r.ExportFailures == 0
}
