package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/masmgr/refscan-go/internal/runner"
)

// JSONRunWriter writes run reports as JSON.
type JSONRunWriter struct{}

// JSONRunReport is the JSON output structure for a run.
type JSONRunReport struct {
	Repo           string           `json:"repo"`
	WorkDir        string           `json:"workDir"`
	Cloned         bool             `json:"cloned"`
	StartRef       string           `json:"startRef"`
	Output         string           `json:"output,omitempty"`
	StartedAt      string           `json:"startedAt"`
	DurationMillis int64            `json:"durationMs"`
	TotalCommits   int              `json:"totalCommits"`
	Visited        int              `json:"visited"`
	Pairs          int              `json:"pairs"`
	Merges         int              `json:"merges"`
	Skipped        int              `json:"skipped"`
	ExportFailures int              `json:"exportFailures"`
	Rows           int              `json:"rows"`
	LostRows       int              `json:"lostRows"`
	Invalid        int              `json:"invalid"`
	ByType         map[string]int   `json:"byType"`
	TopFiles       []JSONFileItem   `json:"topFiles"`
	Commits        []JSONCommitRows `json:"commits"`
	Failures       []JSONFailure    `json:"failures"`
}

// JSONFileItem is the JSON output structure for a single file.
type JSONFileItem struct {
	Path         string         `json:"path"`
	Refactorings int            `json:"refactorings"`
	Revisions    int            `json:"revisions"`
	LinesCovered int            `json:"linesCovered"`
	ByType       map[string]int `json:"byType"`
}

// JSONCommitRows summarizes the rows exported for one revision.
type JSONCommitRows struct {
	Revision string   `json:"revision"`
	Rows     int      `json:"rows"`
	Files    int      `json:"files"`
	Types    []string `json:"types"`
}

// JSONFailure is a failed commit pair.
type JSONFailure struct {
	Before string `json:"before"`
	After  string `json:"after"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// Write outputs the run report as JSON.
func (w *JSONRunWriter) Write(report *runner.Report, options OutputOptions) error {
	files := limitTop(report.TopFiles, options.Top)

	out := JSONRunReport{
		Repo:           report.RepoURL,
		WorkDir:        report.WorkDir,
		Cloned:         report.Cloned,
		StartRef:       report.StartRef,
		Output:         report.OutputPath,
		StartedAt:      report.StartedAt.Format(time.RFC3339),
		DurationMillis: report.Duration.Milliseconds(),
		TotalCommits:   report.TotalCommits,
		Visited:        report.Visited,
		Pairs:          report.Pairs,
		Merges:         report.Merges,
		Skipped:        report.Skipped,
		ExportFailures: report.ExportFailures,
		Rows:           report.Rows,
		LostRows:       report.LostRows,
		Invalid:        report.Invalid,
		ByType:         report.ByType,
		TopFiles:       make([]JSONFileItem, len(files)),
		Commits:        make([]JSONCommitRows, len(report.Commits)),
		Failures:       make([]JSONFailure, len(report.Failures)),
	}
	if out.ByType == nil {
		out.ByType = map[string]int{}
	}
	for i, f := range files {
		out.TopFiles[i] = JSONFileItem{
			Path:         f.Path,
			Refactorings: f.RefactoringCount,
			Revisions:    f.RevisionCount(),
			LinesCovered: f.LinesCovered,
			ByType:       f.ByType,
		}
	}
	for i, c := range report.Commits {
		out.Commits[i] = JSONCommitRows{Revision: c.Revision, Rows: c.Rows, Files: c.FileCount, Types: c.Types}
	}
	for i, f := range report.Failures {
		out.Failures[i] = JSONFailure{Before: f.Before, After: f.After, Stage: f.Stage, Error: f.Error}
	}

	return writeJSON(out, options.OutputPath)
}

// JSONCommitWriter writes commit listings as JSON.
type JSONCommitWriter struct{}

// JSONCommitReport is the JSON output structure for a commit listing.
type JSONCommitReport struct {
	RepoPath     string           `json:"repo"`
	StartRef     string           `json:"startRef"`
	GeneratedAt  string           `json:"generatedAt"`
	TotalCommits  int               `json:"totalCommits"`
	Items         []JSONCommitItem  `json:"items"`
	FixesByAuthor []JSONAuthorFixes `json:"fixesByAuthor"`
}

// JSONAuthorFixes counts the bug fixes of one contributor.
type JSONAuthorFixes struct {
	Author string `json:"author"`
	Fixes  int    `json:"fixes"`
}

// JSONCommitItem is the JSON output structure for a single commit.
type JSONCommitItem struct {
	SHA     string   `json:"sha"`
	Parents []string `json:"parents"`
	When    string   `json:"when"`
	Author  string   `json:"author"`
	Email   string   `json:"email"`
	Message string   `json:"message"`
	Bugfix  bool     `json:"bugfix"`
	Issue   string   `json:"issue,omitempty"`
}

// Write outputs the commit listing as JSON.
func (w *JSONCommitWriter) Write(report *CommitReport, options OutputOptions) error {
	items := limitTop(report.Items, options.Top)

	jsonItems := make([]JSONCommitItem, len(items))
	for i, item := range items {
		parents := item.Commit.Parents
		if parents == nil {
			parents = []string{}
		}
		jsonItems[i] = JSONCommitItem{
			SHA:     item.Commit.SHA,
			Parents: parents,
			When:    item.Commit.When.Format(time.RFC3339),
			Author:  item.Commit.Author.Name,
			Email:   item.Commit.Author.Email,
			Message: item.Commit.Message,
			Bugfix:  item.Bugfix,
			Issue:   item.Issue,
		}
	}
	authors := make([]JSONAuthorFixes, len(report.FixesByAuthor))
	for i, a := range report.FixesByAuthor {
		authors[i] = JSONAuthorFixes{Author: a.Author, Fixes: a.Fixes}
	}

	return writeJSON(JSONCommitReport{
		RepoPath:     report.RepoPath,
		StartRef:     report.StartRef,
		GeneratedAt:  report.GeneratedAt.Format(time.RFC3339),
		TotalCommits:  report.TotalCommits,
		Items:         jsonItems,
		FixesByAuthor: authors,
	}, options.OutputPath)
}

func writeJSON(data interface{}, outputPath string) error {
	out, file, err := openOutputWriter(outputPath)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s\n", encoded)
	return err
}
