package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/internal/bugfix"
	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/output"
)

// CommitsCmd returns the commits command.
func CommitsCmd() *cli.Command {
	flags := append(repoFlags(),
		&cli.IntFlag{
			Name:    "max",
			Aliases: []string{"n"},
			Usage:   "List at most this many commits (0 = all)",
		},
		&cli.BoolFlag{
			Name:  "fixes",
			Usage: "List only bug-fix commits",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown)",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Output file path (default: stdout)",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress progress messages",
		},
	)

	return &cli.Command{
		Name:      "commits",
		Usage:     "List the commits an export would walk",
		ArgsUsage: "[repository url]",
		Flags:     flags,
		Action:    commitsAction,
	}
}

func commitsAction(c *cli.Context) error {
	cmdCtx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	detector, err := newDetector(cmdCtx)
	if err != nil {
		return err
	}

	ctx := context.Background()
	repo, err := cmdCtx.Provision(ctx)
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}

	startRef := cmdCtx.Config.Repository.StartRef
	history := git.NewHistory(repo, cmdCtx.HistoryOptions())
	total, err := history.CountCommits(ctx, startRef)
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}
	commits, err := collectCommits(ctx, history, startRef, c.Int("max"))
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}

	fixes := detector.Detect(commits)
	items := make([]output.CommitItem, 0, len(commits))
	for _, commit := range commits {
		fix, isFix := fixes.Lookup(commit.SHA)
		if c.Bool("fixes") && !isFix {
			continue
		}
		items = append(items, output.CommitItem{Commit: commit, Bugfix: isFix, Issue: fix.Issue})
	}
	cmdCtx.Log.Infof("%d of %d commits are bug fixes", fixes.Len(), len(commits))

	return writeCommitReport(c, &output.CommitReport{
		RepoPath:      repo.Path(),
		StartRef:      startRef,
		GeneratedAt:   time.Now(),
		TotalCommits:  total,
		Items:         items,
		FixesByAuthor: fixes.TopAuthors(0),
	})
}

// newDetector builds the bug-fix detector from the configuration.
func newDetector(cmdCtx *CommandContext) (*bugfix.Detector, error) {
	detector, err := bugfix.NewDetector(cmdCtx.Config.Bugfix.Patterns)
	if err != nil {
		return nil, fmt.Errorf("invalid bugfix pattern: %w", err)
	}
	detector, err = detector.WithIssuePattern(cmdCtx.Config.Bugfix.IssuePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid issue pattern: %w", err)
	}
	return detector, nil
}

// collectCommits drains a walk into a slice.
func collectCommits(ctx context.Context, history git.HistorySource, startRef string, limit int) ([]git.CommitInfo, error) {
	iter, err := history.Walk(ctx, startRef, limit)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var commits []git.CommitInfo
	for {
		commit, err := iter.Next()
		if errors.Is(err, io.EOF) {
			return commits, nil
		}
		if err != nil {
			return nil, &git.HistoryError{Ref: startRef, Err: err}
		}
		commits = append(commits, commit)
	}
}
