package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/config"
	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/output"
	"github.com/masmgr/refscan-go/internal/refdiff"
)

// Process exit codes.
const (
	ExitFailure   = 1
	ExitProvision = 2
	ExitHistory   = 3
	ExitDiff      = 4
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:      "refscan",
		Usage:     "Export the refactorings of every commit in a Git repository",
		Version:   "1.0.0",
		ArgsUsage: "[repository url]",
		Commands: []*cli.Command{
			ExportCmd(),
			CommitsCmd(),
			IndexCmd(),
			CheckCmd(),
			SZZCmd(),
			InitConfigCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
		},
		Action: legacyAction,
		// Run maps errors to exit codes itself.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// Repository flags shared by commands that provision and walk a repository.
func repoFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo-url",
			Aliases: []string{"u"},
			Usage:   "Repository to clone (URL or local path)",
		},
		&cli.StringFlag{
			Name:    "work-dir",
			Aliases: []string{"w"},
			Usage:   "Local clone directory (default: temp/<repo-name>)",
		},
		&cli.StringFlag{
			Name:    "start-ref",
			Aliases: []string{"r"},
			Usage:   "Reference to start the walk from (default: HEAD)",
		},
		&cli.BoolFlag{
			Name:  "first-parent",
			Usage: "Follow only the first parent of merge commits",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "History backend (native, gitcli)",
		},
	}
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) output.OutputFormat {
	switch s {
	case "json":
		return output.FormatJSON
	case "csv":
		return output.FormatCSV
	case "markdown", "md":
		return output.FormatMarkdown
	case "ci", "ndjson":
		return output.FormatCI
	default:
		return output.FormatConsole
	}
}

// loadConfig loads configuration from file, environment and CLI flags, in
// increasing order of precedence.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	applyFlags(c, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over the configuration.
func applyFlags(c *cli.Context, cfg *config.Config) {
	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setInt := func(name string, dst *int) {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}

	setString("repo-url", &cfg.Repository.URL)
	setString("work-dir", &cfg.Repository.WorkDir)
	setString("start-ref", &cfg.Repository.StartRef)
	setInt("max-commits", &cfg.Repository.MaxCommits)
	setString("backend", &cfg.Repository.Backend)
	if c.IsSet("first-parent") {
		cfg.Repository.FirstParent = c.Bool("first-parent")
	}

	setString("engine", &cfg.Engine.Kind)
	setString("engine-cmd", &cfg.Engine.Command)
	if c.IsSet("engine-arg") {
		cfg.Engine.Args = c.StringSlice("engine-arg")
	}
	if c.IsSet("engine-timeout") {
		cfg.Engine.TimeoutSeconds = timeoutSeconds(c.Duration("engine-timeout"))
	}
	setInt("rename-score", &cfg.Engine.RenameScore)

	setString("output", &cfg.Export.OutputPath)
	setInt("abbrev", &cfg.Export.Abbrev)
	setString("db", &cfg.Export.DBPath)
	if c.IsSet("skip-tests") {
		cfg.Export.SkipTests = c.Bool("skip-tests")
	}
	setString("on-diff-error", &cfg.Policy.OnDiffError)
	setString("szz-output", &cfg.SZZ.OutputPath)
	setString("labels", &cfg.SZZ.LabelsPath)

	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Filters.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}
}

// timeoutSeconds rounds d up to whole seconds so that a positive timeout
// never collapses to 0, which means the default.
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// legacyAction handles the default command behavior.
// When a repository URL is provided as an argument, it runs the export command.
func legacyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowAppHelp(c)
	}
	return exportAction(c)
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	var provErr *git.ProvisionError
	var histErr *git.HistoryError
	var diffErr *refdiff.DiffComputationError
	switch {
	case errors.As(err, &provErr):
		return ExitProvision
	case errors.As(err, &histErr):
		return ExitHistory
	case errors.As(err, &diffErr):
		return ExitDiff
	default:
		return ExitFailure
	}
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
