// Package runner drives a full export: provision the repository, walk its
// history and export the refactorings between every commit and its first
// parent.
package runner

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/masmgr/refscan-go/internal/aggregation"
	"github.com/masmgr/refscan-go/internal/diag"
	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/refdiff"
)

// topFiles bounds Report.TopFiles.
const topFiles = 20

// Options configures a run.
type Options struct {
	RepoURL    string
	WorkDir    string
	OutputPath string
	StartRef   string
	// MaxCommits caps the walk; 0 or a value not below the reachable count walks everything.
	MaxCommits int
	// Abbrev is the revision length written to the rows; 0 means the full SHA.
	Abbrev      int
	History     git.HistoryOptions
	OnDiffError refdiff.DiffErrorPolicy
	Filter      *export.PathFilter
	Sinks       []export.Sink

	// OnProgress, if set, is called after every visited commit.
	OnProgress func(Progress)
}

// Progress reports how far a run has come.
type Progress struct {
	Done     int
	Total    int
	Revision string
	Rows     int
}

// Provisioner obtains the local repository a run works on.
type Provisioner interface {
	EnsureLocalCopy(ctx context.Context, dest, remoteURL string) (*git.Repository, error)
}

// Runner executes runs. Engine invocations are strictly sequential.
type Runner struct {
	opts   Options
	engine refdiff.Engine
	log    *diag.Logger
	calc   *aggregation.CommitMetricsCalculator

	Provisioner Provisioner
	History     func(*git.Repository) git.HistorySource
}

// New creates a runner. A nil logger discards diagnostics.
func New(opts Options, engine refdiff.Engine, log *diag.Logger) *Runner {
	if log == nil {
		log = diag.Discard()
	}
	if opts.StartRef == "" {
		opts.StartRef = "HEAD"
	}
	if opts.OnDiffError == "" {
		opts.OnDiffError = refdiff.PolicySkip
	}
	historyOpts := opts.History
	return &Runner{
		opts:        opts,
		engine:      engine,
		log:         log,
		calc:        aggregation.NewCommitMetricsCalculator(),
		Provisioner: git.NewProvisioner(),
		History: func(repo *git.Repository) git.HistorySource {
			return git.NewHistory(repo, historyOpts)
		},
	}
}

// Run performs the export. The returned report is non-nil even on error and
// reflects the work done up to the failure.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RepoURL:    r.opts.RepoURL,
		WorkDir:    r.opts.WorkDir,
		OutputPath: r.opts.OutputPath,
		StartRef:   r.opts.StartRef,
		StartedAt:  time.Now(),
	}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	repo, err := r.Provisioner.EnsureLocalCopy(ctx, r.opts.WorkDir, r.opts.RepoURL)
	if err != nil {
		return report, err
	}
	report.Cloned = repo.Cloned()
	if repo.Cloned() {
		r.log.Infof("Cloned %s into %s", r.opts.RepoURL, repo.Path())
	} else {
		r.log.Infof("Using existing repository at %s", repo.Path())
	}

	history := r.History(repo)
	total, err := history.CountCommits(ctx, r.opts.StartRef)
	if err != nil {
		return report, err
	}
	report.TotalCommits = total

	limit := total
	if r.opts.MaxCommits > 0 && r.opts.MaxCommits < total {
		limit = r.opts.MaxCommits
	}
	r.log.Infof("Walking %d of %d commits from %s", limit, total, r.opts.StartRef)

	iter, err := history.Walk(ctx, r.opts.StartRef, limit)
	if err != nil {
		return report, err
	}
	defer iter.Close()

	agg := aggregation.NewFileMetricsAggregator()
	exporter := export.NewExporter(r.opts.Filter, r.opts.Sinks...)
	exporter.OnInvalid = func(revision string, rel refdiff.Relationship) {
		report.Invalid++
		r.log.Warnf("%s: dropping %s with invalid location %s:%d-%d",
			revision, rel.Type, rel.After.File, rel.After.BeginLine, rel.After.EndLine)
	}
	defer func() {
		report.Rows = agg.Rows()
		report.ByType = agg.ByType()
		report.ByFile = agg.ByFile()
		report.TopFiles = agg.TopFiles(topFiles)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		commit, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return report, historyError(r.opts.StartRef, err)
		}
		report.Visited++

		rows := 0
		switch {
		case commit.IsRoot():
			// nothing to compare against
		case commit.IsMerge():
			report.Merges++
		default:
			report.Pairs++
			before := git.CommitInfo{SHA: commit.Parents[0]}
			rows, err = r.exportPair(ctx, repo, exporter, agg, report, before, commit)
			if err != nil {
				return report, err
			}
			if rows > 0 {
				r.log.Infof("%s: %d refactorings", commit.Abbrev(r.opts.Abbrev), rows)
			}
		}

		if r.opts.OnProgress != nil {
			r.opts.OnProgress(Progress{
				Done:     report.Visited,
				Total:    limit,
				Revision: commit.SHA,
				Rows:     rows,
			})
		}
	}

	if report.Merges > 0 {
		r.log.Infof("%d merge commits not compared", report.Merges)
	}
	if report.Skipped > 0 || report.ExportFailures > 0 {
		r.log.Warnf("%d commit pairs skipped, %d export failures (%d rows lost)", report.Skipped, report.ExportFailures, report.LostRows)
	}
	return report, nil
}

// exportPair diffs a commit against its first parent and exports the rows
// under the commit's revision. Rows reach agg only once every sink accepted
// them. Only an aborting diff failure or a cancelled context is returned as
// an error.
func (r *Runner) exportPair(ctx context.Context, repo *git.Repository, exporter *export.Exporter, agg *aggregation.FileMetricsAggregator, report *Report, before, after git.CommitInfo) (int, error) {
	diff, err := r.engine.ComputeDiff(ctx, repo, before, after)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		var diffErr *refdiff.DiffComputationError
		if !errors.As(err, &diffErr) {
			err = &refdiff.DiffComputationError{Before: before.SHA, After: after.SHA, Err: err}
		}
		if r.opts.OnDiffError == refdiff.PolicyAbort {
			return 0, err
		}
		r.log.Warnf("skipping %s: %v", after.Abbrev(r.opts.Abbrev), err)
		report.Skipped++
		report.Failures = append(report.Failures, PairFailure{Before: before.SHA, After: after.SHA, Stage: "diff", Error: err.Error()})
		return 0, nil
	}

	revision := after.Abbrev(r.opts.Abbrev)
	rows := exporter.Rows(revision, diff.Refactorings())
	n, err := exporter.Write(revision, rows)
	if err != nil {
		r.log.Errorf("%v", err)
		report.ExportFailures++
		report.LostRows += n
		report.Failures = append(report.Failures, PairFailure{Before: before.SHA, After: after.SHA, Stage: "export", Error: err.Error()})
		return 0, nil
	}
	if n > 0 {
		agg.Process(rows)
		report.Commits = append(report.Commits, r.calc.Calculate(revision, rows))
	}
	return n, nil
}

func historyError(ref string, err error) error {
	var histErr *git.HistoryError
	if errors.As(err, &histErr) {
		return err
	}
	return &git.HistoryError{Ref: ref, Err: err}
}
