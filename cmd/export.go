package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/output"
	"github.com/masmgr/refscan-go/internal/refdiff"
	"github.com/masmgr/refscan-go/internal/runner"
	"github.com/masmgr/refscan-go/internal/store"
)

// ExportCmd returns the export command.
func ExportCmd() *cli.Command {
	flags := append(repoFlags(),
		&cli.IntFlag{
			Name:    "max-commits",
			Aliases: []string{"n"},
			Usage:   "Walk at most this many commits (0 = whole history)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Refactorings CSV to append to (default: refactorings.csv)",
		},
		&cli.IntFlag{
			Name:  "abbrev",
			Usage: "Length of the revision written to each row (0 or 40 = full SHA)",
		},
		&cli.StringFlag{
			Name:  "engine",
			Usage: "Refactoring engine (builtin, command)",
		},
		&cli.StringFlag{
			Name:  "engine-cmd",
			Usage: "Executable of the command engine",
		},
		&cli.StringSliceFlag{
			Name:  "engine-arg",
			Usage: "Argument of the command engine; {repo}, {before} and {after} are expanded (repeatable)",
		},
		&cli.DurationFlag{
			Name:  "engine-timeout",
			Usage: "Time limit for one engine invocation",
		},
		&cli.IntFlag{
			Name:  "rename-score",
			Usage: "Similarity percentage for rename detection (builtin engine)",
		},
		&cli.StringFlag{
			Name:  "on-diff-error",
			Usage: "What to do when a commit pair cannot be diffed (skip, abort)",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob patterns of files to export (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns of files not to export (can be specified multiple times)",
		},
		&cli.BoolFlag{
			Name:  "skip-tests",
			Usage: "Do not export files under test, itests or testutils directories",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Also append every refactoring to this SQLite database",
		},
		&cli.BoolFlag{
			Name:  "print",
			Usage: "Echo every refactoring to the console",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress progress messages",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Run report format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "Number of files listed in the run report",
			Value: 20,
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Run report file path (default: stdout)",
		},
	)

	return &cli.Command{
		Name:      "export",
		Aliases:   []string{"run"},
		Usage:     "Walk the history and append every commit's refactorings to a CSV file",
		ArgsUsage: "[repository url]",
		Flags:     flags,
		Action:    exportAction,
	}
}

func exportAction(c *cli.Context) error {
	cmdCtx, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Config

	// Validate already accepted both names.
	kind, _ := refdiff.ParseEngineKind(cfg.Engine.Kind)
	policy, _ := refdiff.ParsePolicy(cfg.Policy.OnDiffError)

	engine, err := refdiff.New(refdiff.Options{
		Kind:        kind,
		Command:     cfg.Engine.Command,
		Args:        cfg.Engine.Args,
		Timeout:     cfg.EngineTimeout(),
		RenameScore: cfg.Engine.RenameScore,
		Backend:     cmdCtx.Backend,
	})
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	filter, err := cmdCtx.PathFilter()
	if err != nil {
		return err
	}

	sinks := []export.Sink{export.NewCSVSink(cfg.Export.OutputPath)}
	if cfg.Export.DBPath != "" {
		db, err := store.OpenDB(cfg.Export.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		sinks = append(sinks, db)
	}
	if c.Bool("print") {
		sinks = append(sinks, output.NewConsoleSink(c.App.Writer))
	}

	r := runner.New(runner.Options{
		RepoURL:     cfg.Repository.URL,
		WorkDir:     cmdCtx.WorkDir,
		OutputPath:  cfg.Export.OutputPath,
		StartRef:    cfg.Repository.StartRef,
		MaxCommits:  cfg.Repository.MaxCommits,
		Abbrev:      cfg.Export.Abbrev,
		History:     cmdCtx.HistoryOptions(),
		OnDiffError: policy,
		Filter:      filter,
		Sinks:       sinks,
		OnProgress:  progressPrinter(cmdCtx),
	}, engine, cmdCtx.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, runErr := r.Run(ctx)
	if report.Pairs > 0 || runErr == nil {
		if err := writeRunReport(c, report); err != nil {
			cmdCtx.Log.Errorf("failed to write report: %v", err)
		}
	}
	if runErr != nil {
		return cli.Exit(runErr.Error(), exitCode(runErr))
	}
	return nil
}

// progressPrinter logs a progress line roughly every ten seconds.
func progressPrinter(cmdCtx *CommandContext) func(runner.Progress) {
	var last time.Time
	return func(p runner.Progress) {
		if time.Since(last) < 10*time.Second && p.Done != p.Total {
			return
		}
		last = time.Now()
		cmdCtx.Log.Infof("%d/%d commits processed", p.Done, p.Total)
	}
}
