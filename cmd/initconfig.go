package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/config"
)

// InitConfigCmd returns the init-config command.
func InitConfigCmd() *cli.Command {
	return &cli.Command{
		Name:      "init-config",
		Usage:     "Write the effective configuration to a file",
		ArgsUsage: "[path]",
		Flags: append(repoFlags(),
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing file",
			},
		),
		Action: initConfigAction,
	}
}

func initConfigAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		path = config.DefaultConfigName
	}
	if !c.Bool("force") {
		if _, err := os.Stat(path); err == nil {
			return cli.Exit(fmt.Sprintf("%s already exists (use --force)", path), ExitFailure)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote configuration to %s\n", path)
	return nil
}
