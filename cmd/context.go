package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/config"
	"github.com/masmgr/refscan-go/internal/diag"
	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/output"
)

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across the repository commands.
type CommandContext struct {
	Config  *config.Config
	WorkDir string
	Backend git.Backend
	Log     *diag.Logger
}

// NewCommandContext creates a context from CLI flags.
// It loads and validates the configuration and resolves the clone directory.
// A positional argument names the repository when --repo-url is not given.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if !c.IsSet("repo-url") && c.NArg() > 0 {
		cfg.Repository.URL = c.Args().First()
	}
	if cfg.Repository.URL == "" && cfg.Repository.WorkDir == "" {
		return nil, fmt.Errorf("no repository given: pass a URL or set %s", config.EnvRepoURL)
	}

	// Validate already accepted the name.
	backend, _ := git.ParseBackend(cfg.Repository.Backend)

	log := diag.New(c.App.ErrWriter)
	log.Quiet = c.Bool("quiet")

	return &CommandContext{
		Config:  cfg,
		WorkDir: cfg.ResolvedWorkDir(),
		Backend: backend,
		Log:     log,
	}, nil
}

// HistoryOptions returns the history settings of the configuration.
func (ctx *CommandContext) HistoryOptions() git.HistoryOptions {
	return git.HistoryOptions{Backend: ctx.Backend, FirstParent: ctx.Config.Repository.FirstParent}
}

// PathFilter builds the exporter path filter. SkipTests adds the test
// directory patterns to the configured excludes.
func (ctx *CommandContext) PathFilter() (*export.PathFilter, error) {
	exclude := append([]string(nil), ctx.Config.Filters.Exclude...)
	if ctx.Config.Export.SkipTests {
		exclude = append(exclude, export.TestPathPatterns...)
	}
	if len(ctx.Config.Filters.Include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	filter, err := export.NewPathFilter(ctx.Config.Filters.Include, exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid path filter: %w", err)
	}
	return filter, nil
}

// Provision returns the local repository, cloning it when needed.
func (ctx *CommandContext) Provision(c context.Context) (*git.Repository, error) {
	repo, err := git.NewProvisioner().EnsureLocalCopy(c, ctx.WorkDir, ctx.Config.Repository.URL)
	if err != nil {
		return nil, err
	}
	if repo.Cloned() {
		ctx.Log.Infof("Cloned %s into %s", ctx.Config.Repository.URL, repo.Path())
	}
	return repo, nil
}

// OutputOptions creates OutputOptions from CLI flags.
func OutputOptions(c *cli.Context) output.OutputOptions {
	return output.OutputOptions{
		Format:     getOutputFormat(c.String("format")),
		Top:        c.Int("top"),
		OutputPath: c.String("report"),
	}
}
