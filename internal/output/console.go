package output

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/masmgr/refscan-go/internal/aggregation"
	"github.com/masmgr/refscan-go/internal/runner"
)

// ConsoleRunWriter writes run reports to the console.
type ConsoleRunWriter struct{}

// Write outputs the run report to the console.
func (w *ConsoleRunWriter) Write(report *runner.Report, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	color.New(color.FgGreen).Fprintln(out, "Refactoring Export Results")
	fmt.Fprintf(out, "Repository: %s\n", report.RepoURL)
	fmt.Fprintf(out, "Work dir: %s (%s)\n", report.WorkDir, cloneLabel(report))
	fmt.Fprintf(out, "Start ref: %s\n", report.StartRef)
	if report.OutputPath != "" {
		fmt.Fprintf(out, "Output: %s\n", report.OutputPath)
	}
	fmt.Fprintf(out, "Commits walked: %d of %d\n", report.Visited, report.TotalCommits)
	fmt.Fprintf(out, "Pairs diffed: %d (merges %d, skipped %d, export failures %d)\n", report.Pairs, report.Merges, report.Skipped, report.ExportFailures)
	fmt.Fprintf(out, "Refactorings exported: %d\n", report.Rows)
	if report.LostRows > 0 {
		color.New(color.FgRed).Fprintf(out, "Refactorings lost: %d\n", report.LostRows)
	}
	if report.Invalid > 0 {
		color.New(color.FgYellow).Fprintf(out, "Invalid locations dropped: %d\n", report.Invalid)
	}
	fmt.Fprintf(out, "Duration: %s\n", roundDuration(report.Duration))

	if len(report.ByType) > 0 {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Type\tCount")
		for _, t := range aggregation.SortedTypes(report.ByType) {
			fmt.Fprintf(tw, "%s\t%d\n", t, report.ByType[t])
		}
		tw.Flush()
	}

	files := limitTop(report.TopFiles, options.Top)
	if len(files) > 0 {
		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tPath\tRefactorings\tRevisions\tLines")
		for i, f := range files {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", i+1, f.Path, f.RefactoringCount, f.RevisionCount(), f.LinesCovered)
		}
		tw.Flush()
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(out)
		red := color.New(color.FgRed)
		red.Fprintf(out, "%d failed pairs:\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(out, "  %s..%s [%s] %s\n", shortSHA(f.Before), shortSHA(f.After), f.Stage, f.Error)
		}
	}

	return nil
}

// ConsoleCommitWriter writes commit listings to the console.
type ConsoleCommitWriter struct{}

// Write outputs the commit listing to the console.
func (w *ConsoleCommitWriter) Write(report *CommitReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	color.New(color.FgGreen).Fprintln(out, "Commit History")
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	fmt.Fprintf(out, "Start ref: %s\n", report.StartRef)
	fmt.Fprintf(out, "Total commits: %d (listed %d)\n\n", report.TotalCommits, len(items))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSHA\tDate\tAuthor\tFix\tMessage")
	for i, item := range items {
		fix := ""
		if item.Bugfix {
			fix = color.RedString("fix")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			shortSHA(item.Commit.SHA),
			item.Commit.When.Format(reportDateLayout),
			item.Commit.Author.Name,
			fix,
			truncateMessage(item.Commit.Message, 60),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	authors := limitTop(report.FixesByAuthor, options.Top)
	if len(authors) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	color.New(color.FgRed).Fprintln(out, "Fixes by author")
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tAuthor\tFixes")
	for i, a := range authors {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, a.Author, a.Fixes)
	}
	return tw.Flush()
}
