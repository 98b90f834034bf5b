package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/refscan-go/internal/output"
	"github.com/masmgr/refscan-go/internal/runner"
)

func writeRunReport(c *cli.Context, report *runner.Report) error {
	opts := OutputOptions(c)
	writer := output.NewRunReportWriter(opts.Format)
	return writer.Write(report, opts)
}

func writeCommitReport(c *cli.Context, report *output.CommitReport) error {
	opts := OutputOptions(c)
	writer := output.NewCommitReportWriter(opts.Format)
	return writer.Write(report, opts)
}
