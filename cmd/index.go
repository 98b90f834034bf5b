package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/store"
)

// IndexCmd returns the index command.
func IndexCmd() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Load a refactorings CSV into a SQLite database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Refactorings CSV (default: the configured output path)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database to load into",
			},
			&cli.BoolFlag{
				Name:  "reset",
				Usage: "Delete the stored refactorings before loading",
			},
		},
		Action: indexAction,
	}
}

func indexAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Export.DBPath == "" {
		return cli.Exit("index needs --db", ExitFailure)
	}
	input := cfg.Export.OutputPath
	if c.IsSet("input") {
		input = c.String("input")
	}

	rows, err := export.ReadFile(input)
	if err != nil {
		return err
	}

	db, err := store.OpenDB(cfg.Export.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if c.Bool("reset") {
		if err := db.Reset(); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
	}
	if err := db.Import(rows, input); err != nil {
		return fmt.Errorf("failed to import %s: %w", input, err)
	}

	count, err := db.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d refactorings from %s (%d stored)\n", len(rows), input, count)
	return nil
}
