package output

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/masmgr/refscan-go/internal/runner"
)

// CSVRunWriter writes the per-file summary of a run as CSV.
type CSVRunWriter struct{}

// Write outputs the top refactored files as CSV.
func (w *CSVRunWriter) Write(report *runner.Report, options OutputOptions) error {
	files := limitTop(report.TopFiles, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	writer := csv.NewWriter(out)

	if err := writer.Write([]string{"Path", "Refactorings", "Revisions", "LinesCovered"}); err != nil {
		return err
	}
	for _, f := range files {
		row := []string{
			f.Path,
			fmt.Sprintf("%d", f.RefactoringCount),
			fmt.Sprintf("%d", f.RevisionCount()),
			fmt.Sprintf("%d", f.LinesCovered),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVCommitWriter writes commit listings as CSV.
type CSVCommitWriter struct{}

// Write outputs the commit listing as CSV.
func (w *CSVCommitWriter) Write(report *CommitReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}
	writer := csv.NewWriter(out)

	if err := writer.Write([]string{"SHA", "When", "Author", "Email", "Parents", "Bugfix", "Issue", "Message"}); err != nil {
		return err
	}
	for _, item := range items {
		c := item.Commit
		row := []string{
			c.SHA,
			c.When.Format(reportDateTimeLayout),
			c.Author.Name,
			c.Author.Email,
			strings.Join(c.Parents, " "),
			fmt.Sprintf("%t", item.Bugfix),
			item.Issue,
			c.Message,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
