package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/masmgr/refscan-go/internal/aggregation"
	"github.com/masmgr/refscan-go/internal/runner"
)

// CIRunWriter writes run reports as NDJSON (one JSON object per line) for CI pipelines.
type CIRunWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type           string `json:"type"`
	Succeeded      bool   `json:"succeeded"`
	Pairs          int    `json:"pairs"`
	Skipped        int    `json:"skipped"`
	ExportFailures int    `json:"exportFailures"`
	Rows           int    `json:"rows"`
	LostRows       int    `json:"lostRows"`
}

// CITypeEntry counts one refactoring type.
type CITypeEntry struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CIFileEntry represents a single file entry in CI output.
type CIFileEntry struct {
	Type         string `json:"type"`
	Path         string `json:"path"`
	Refactorings int    `json:"refactorings"`
}

// CIFailureEntry represents a failed commit pair.
type CIFailureEntry struct {
	Type   string `json:"type"`
	Before string `json:"before"`
	After  string `json:"after"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// Write outputs the run report as NDJSON.
func (w *CIRunWriter) Write(report *runner.Report, options OutputOptions) error {
	out, file, err := openOutputWriter(options.OutputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	summary := CISummary{
		Type:           "summary",
		Succeeded:      report.Succeeded(),
		Pairs:          report.Pairs,
		Skipped:        report.Skipped,
		ExportFailures: report.ExportFailures,
		Rows:           report.Rows,
		LostRows:       report.LostRows,
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for _, t := range aggregation.SortedTypes(report.ByType) {
		if err := writeNDJSONLine(out, CITypeEntry{Type: "refactoringType", Name: t, Count: report.ByType[t]}); err != nil {
			return err
		}
	}
	for _, f := range limitTop(report.TopFiles, options.Top) {
		if err := writeNDJSONLine(out, CIFileEntry{Type: "file", Path: f.Path, Refactorings: f.RefactoringCount}); err != nil {
			return err
		}
	}
	for _, f := range report.Failures {
		entry := CIFailureEntry{Type: "failure", Before: f.Before, After: f.After, Stage: f.Stage, Error: f.Error}
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
