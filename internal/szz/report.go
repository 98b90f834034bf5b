package szz

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/masmgr/refscan-go/internal/git"
)

// Report summarizes the analysis of many fixes.
type Report struct {
	Fixes    int // fixes analysed
	Skipped  int // merge and root fixes, not analysed
	Lines    []BlamedLine
	Filtered int
	// Refactored and RefactoringOrigins add up the FixResult counters.
	Refactored         int
	RefactoringOrigins int
	// Introducers maps each introducing commit to the number of lines blamed on it.
	Introducers map[string]int
}

// IntroducingCommits returns the introducing commits, most blamed first.
func (r *Report) IntroducingCommits() []string {
	out := make([]string, 0, len(r.Introducers))
	for sha := range r.Introducers {
		out = append(out, sha)
	}
	sort.Slice(out, func(i, j int) bool {
		if r.Introducers[out[i]] != r.Introducers[out[j]] {
			return r.Introducers[out[i]] > r.Introducers[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// AnalyzeAll analyses each fix in turn. onFix, if set, sees every result.
func (a *Analyzer) AnalyzeAll(ctx context.Context, fixes []git.CommitInfo, onFix func(*FixResult)) (*Report, error) {
	report := &Report{Introducers: make(map[string]int)}
	for _, fix := range fixes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if len(fix.Parents) != 1 {
			report.Skipped++
			continue
		}
		result, err := a.Analyze(ctx, fix)
		if err != nil {
			return report, err
		}
		report.Fixes++
		report.Lines = append(report.Lines, result.Lines...)
		report.Filtered += result.Filtered
		report.Refactored += result.Refactored
		report.RefactoringOrigins += result.RefactoringOrigins
		for _, l := range result.Lines {
			report.Introducers[l.Introducing]++
		}
		if onFix != nil {
			onFix(result)
		}
	}
	return report, nil
}

// WriteLines writes blamed lines as CSV with a header row.
func WriteLines(w io.Writer, lines []BlamedLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"fix", "file", "line", "introducing", "code"}); err != nil {
		return err
	}
	for _, l := range lines {
		if err := cw.Write([]string{l.Fix, l.File, strconv.Itoa(l.Line), l.Introducing, l.Code}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLabels writes one sha,label row per commit: 1 for commits that
// introduced a fixed line, 0 otherwise.
func WriteLabels(w io.Writer, commits []git.CommitInfo, report *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"sha", "label"}); err != nil {
		return err
	}
	for _, c := range commits {
		label := "0"
		if report.Introducers[c.SHA] > 0 {
			label = "1"
		}
		if err := cw.Write([]string{c.SHA, label}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
