package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/refindex"
	"github.com/masmgr/refscan-go/internal/szz"
)

// SZZCmd returns the szz command.
func SZZCmd() *cli.Command {
	flags := append(repoFlags(),
		&cli.IntFlag{
			Name:    "max-commits",
			Aliases: []string{"n"},
			Usage:   "Look for fixes among at most this many commits (0 = whole history)",
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Refactorings CSV whose lines are not traced (default: the configured output path)",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Read refactorings from this SQLite database instead of the CSV",
		},
		&cli.IntFlag{
			Name:  "abbrev",
			Usage: "Revision length the refactorings were exported with (0 or 40 = full SHA)",
		},
		&cli.StringFlag{
			Name:    "szz-output",
			Aliases: []string{"o"},
			Usage:   "CSV of blamed lines (default: szz.csv)",
		},
		&cli.StringFlag{
			Name:  "labels",
			Usage: "Also write a sha,label CSV of every walked commit",
		},
		&cli.BoolFlag{
			Name:  "all-files",
			Usage: "Trace every file type, not only the configured source globs",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns of files not to trace (can be specified multiple times)",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress progress messages",
		},
	)

	return &cli.Command{
		Name:      "szz",
		Usage:     "Trace the lines changed by bug fixes back to the commits that introduced them",
		ArgsUsage: "[repository url]",
		Flags:     flags,
		Action:    szzAction,
	}
}

func szzAction(c *cli.Context) error {
	cmdCtx, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config

	detector, err := newDetector(cmdCtx)
	if err != nil {
		return err
	}
	filter, err := szzFilter(cmdCtx, c.Bool("all-files"))
	if err != nil {
		return err
	}
	refs, closeRefs, err := szzRefactorings(c, cmdCtx)
	if err != nil {
		return err
	}
	defer closeRefs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repo, err := cmdCtx.Provision(ctx)
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}
	history := git.NewHistory(repo, cmdCtx.HistoryOptions())
	commits, err := collectCommits(ctx, history, cfg.Repository.StartRef, cfg.Repository.MaxCommits)
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}

	fixes := detector.Detect(commits)
	fixCommits := make([]git.CommitInfo, len(fixes.Fixes))
	for i, f := range fixes.Fixes {
		fixCommits[i] = f.Commit
	}
	cmdCtx.Log.Infof("Tracing %d bug fixes among %d commits", len(fixCommits), len(commits))

	analyzer := szz.New(repo, szz.Options{
		Filter:       filter,
		Refactorings: refs,
		Abbrev:       cfg.Export.Abbrev,
		RenameScore:  cfg.Engine.RenameScore,
	}, cmdCtx.Log)
	report, err := analyzer.AnalyzeAll(ctx, fixCommits, func(r *szz.FixResult) {
		if len(r.Lines) > 0 {
			cmdCtx.Log.Infof("%s: %d lines from %d commits", r.Fix.Abbrev(7), len(r.Lines), len(r.Introducers()))
		}
	})
	if err != nil {
		return err
	}

	if err := szz.WriteFile(cfg.SZZ.OutputPath, func(w io.Writer) error {
		return szz.WriteLines(w, report.Lines)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.SZZ.OutputPath, err)
	}
	if cfg.SZZ.LabelsPath != "" {
		if err := szz.WriteFile(cfg.SZZ.LabelsPath, func(w io.Writer) error {
			return szz.WriteLabels(w, commits, report)
		}); err != nil {
			return fmt.Errorf("failed to write %s: %w", cfg.SZZ.LabelsPath, err)
		}
	}

	fmt.Fprintf(c.App.Writer, "Traced %d bug fixes (%d merges or roots skipped): %d lines blamed on %d commits\n",
		report.Fixes, report.Skipped, len(report.Lines), len(report.Introducers))
	fmt.Fprintf(c.App.Writer, "Not traced: %d blank, comment or import lines, %d refactored lines, %d refactoring origins\n",
		report.Filtered, report.Refactored, report.RefactoringOrigins)
	return nil
}

// szzFilter keeps the configured source globs and drops test directories.
func szzFilter(cmdCtx *CommandContext, allFiles bool) (*export.PathFilter, error) {
	var include []string
	if !allFiles {
		include = cmdCtx.Config.SZZ.FileTypes
	}
	exclude := append(append([]string(nil), export.TestPathPatterns...), cmdCtx.Config.Filters.Exclude...)
	filter, err := export.NewPathFilter(include, exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid path filter: %w", err)
	}
	return filter, nil
}

// szzRefactorings opens the refactorings to exclude. A missing default CSV
// only disables the exclusion; an explicit --input must exist.
func szzRefactorings(c *cli.Context, cmdCtx *CommandContext) (refindex.Source, func(), error) {
	input := cmdCtx.Config.Export.OutputPath
	if c.IsSet("input") {
		input = c.String("input")
	}
	src, closeSrc, err := openRefactorings(cmdCtx.Config.Export.DBPath, input)
	if errors.Is(err, fs.ErrNotExist) && !c.IsSet("input") {
		cmdCtx.Log.Warnf("no refactorings at %s; refactored lines are traced too", input)
		return nil, func() {}, nil
	}
	return src, closeSrc, err
}
