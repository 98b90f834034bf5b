package output

import (
	"fmt"
	"strings"

	"github.com/masmgr/refscan-go/internal/aggregation"
	"github.com/masmgr/refscan-go/internal/runner"
)

// MarkdownRunWriter writes run reports as Markdown.
type MarkdownRunWriter struct{}

// Write outputs the run report as Markdown.
func (w *MarkdownRunWriter) Write(report *runner.Report, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintf(out, "# %s Refactoring Export Results\n\n", getStatusEmoji(report.Succeeded()))
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoURL)
	fmt.Fprintf(out, "**Start Ref:** `%s`\n\n", report.StartRef)
	fmt.Fprintf(out, "**Started:** %s (%s)\n\n", report.StartedAt.Format(reportDateTimeLayout), roundDuration(report.Duration))

	fmt.Fprintln(out, "| Commits Walked | Pairs | Merges | Skipped | Export Failures | Refactorings | Lost |")
	fmt.Fprintln(out, "|----------------|-------|--------|---------|-----------------|--------------|------|")
	fmt.Fprintf(out, "| %d / %d | %d | %d | %d | %d | %d | %d |\n\n",
		report.Visited, report.TotalCommits, report.Pairs, report.Merges, report.Skipped, report.ExportFailures, report.Rows, report.LostRows)

	if len(report.ByType) > 0 {
		fmt.Fprintln(out, "## Refactoring Types")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "| Type | Count |")
		fmt.Fprintln(out, "|------|-------|")
		for _, t := range aggregation.SortedTypes(report.ByType) {
			fmt.Fprintf(out, "| %s | %d |\n", escapeMarkdown(t), report.ByType[t])
		}
		fmt.Fprintln(out)
	}

	files := limitTop(report.TopFiles, options.Top)
	if len(files) > 0 {
		fmt.Fprintln(out, "## Most Refactored Files")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "| # | Path | Refactorings | Revisions | Lines |")
		fmt.Fprintln(out, "|---|------|--------------|-----------|-------|")
		for i, f := range files {
			fmt.Fprintf(out, "| %d | `%s` | %d | %d | %d |\n", i+1, f.Path, f.RefactoringCount, f.RevisionCount(), f.LinesCovered)
		}
		fmt.Fprintln(out)
	}

	if len(report.Failures) > 0 {
		fmt.Fprintln(out, "## Failed Pairs")
		fmt.Fprintln(out)
		for _, f := range report.Failures {
			fmt.Fprintf(out, "- `%s..%s` (%s): %s\n", shortSHA(f.Before), shortSHA(f.After), f.Stage, escapeMarkdown(f.Error))
		}
	}

	return nil
}

// MarkdownCommitWriter writes commit listings as Markdown.
type MarkdownCommitWriter struct{}

// Write outputs the commit listing as Markdown.
func (w *MarkdownCommitWriter) Write(report *CommitReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Commit History")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s\n\n", report.RepoPath)
	fmt.Fprintf(out, "**Start Ref:** `%s`\n\n", report.StartRef)
	fmt.Fprintf(out, "**Total Commits:** %d\n\n", report.TotalCommits)

	fmt.Fprintln(out, "| # | SHA | Date | Author | Fix | Message |")
	fmt.Fprintln(out, "|---|-----|------|--------|-----|---------|")
	for i, item := range items {
		fix := ""
		if item.Bugfix {
			fix = "🐛"
		}
		fmt.Fprintf(out, "| %d | `%s` | %s | %s | %s | %s |\n",
			i+1, shortSHA(item.Commit.SHA), item.Commit.When.Format(reportDateLayout),
			escapeMarkdown(item.Commit.Author.Name), fix, escapeMarkdown(truncateMessage(item.Commit.Message, 60)))
	}

	if len(report.FixesByAuthor) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "## Fixes by Author")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "| Author | Fixes |")
		fmt.Fprintln(out, "|--------|-------|")
		for _, a := range limitTop(report.FixesByAuthor, options.Top) {
			fmt.Fprintf(out, "| %s | %d |\n", escapeMarkdown(a.Author), a.Fixes)
		}
	}

	return nil
}

func getStatusEmoji(succeeded bool) string {
	if succeeded {
		return "🟢"
	}
	return "🟡"
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
