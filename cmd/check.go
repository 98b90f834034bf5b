package cmd

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/internal/refindex"
	"github.com/masmgr/refscan-go/internal/store"
)

// CheckCmd returns the check command.
func CheckCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report whether changed lines of a file lie inside an exported refactoring",
		ArgsUsage: "REVISION FILE LINE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Refactorings CSV (default: the configured output path)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Read from this SQLite database instead of the CSV",
			},
		},
		Action: checkAction,
	}
}

func checkAction(c *cli.Context) error {
	if c.NArg() < 3 {
		return cli.Exit("check needs REVISION FILE LINE...", ExitFailure)
	}
	revision, file := c.Args().Get(0), c.Args().Get(1)
	lines, err := parseLines(c.Args().Slice()[2:])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	input := cfg.Export.OutputPath
	if c.IsSet("input") {
		input = c.String("input")
	}
	src, closeSrc, err := openRefactorings(cfg.Export.DBPath, input)
	if err != nil {
		return err
	}
	defer closeSrc()

	ranges, err := src.Ranges(revision, file)
	if err != nil {
		return err
	}

	out := c.App.Writer
	if refindex.Covered(ranges, lines) {
		fmt.Fprintln(out, "refactor")
	} else {
		fmt.Fprintln(out, "not refactor")
	}
	for _, r := range ranges {
		fmt.Fprintf(out, "  %s %d-%d\n", r.Type, r.Start, r.End)
	}
	return nil
}

// openRefactorings opens the SQLite store when dbPath is set and the CSV at
// input otherwise.
func openRefactorings(dbPath, input string) (refindex.Source, func(), error) {
	if dbPath != "" {
		db, err := store.OpenDB(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, func() { db.Close() }, nil
	}
	idx, err := refindex.Load(input)
	if err != nil {
		return nil, nil, err
	}
	return idx.Source(), func() {}, nil
}

func parseLines(args []string) ([]int, error) {
	lines := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid line number %q", a)
		}
		lines = append(lines, n)
	}
	return lines, nil
}
