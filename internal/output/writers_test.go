package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/masmgr/refscan-go/internal/export"
)

func TestJSONRunWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/run.json"
	if err := (&JSONRunWriter{}).Write(sampleReport(), OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	var got JSONRunReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Rows != 3 || got.Pairs != 3 || got.Skipped != 1 {
		t.Errorf("counts = %+v", got)
	}
	if got.DurationMillis != 1500 {
		t.Errorf("DurationMillis = %d, want 1500", got.DurationMillis)
	}
	if got.StartedAt != "2026-02-10T09:30:00Z" {
		t.Errorf("StartedAt = %q", got.StartedAt)
	}
	if len(got.TopFiles) != 2 || got.TopFiles[0].Path != "src/Hot.java" || got.TopFiles[0].Revisions != 2 {
		t.Errorf("TopFiles = %+v", got.TopFiles)
	}
	if got.ByType["RENAME"] != 1 {
		t.Errorf("ByType = %v", got.ByType)
	}
	if len(got.Commits) != 2 || len(got.Failures) != 1 {
		t.Errorf("commits=%d failures=%d", len(got.Commits), len(got.Failures))
	}
}

func TestJSONCommitWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/commits.json"
	if err := (&JSONCommitWriter{}).Write(sampleCommitReport(), OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	var got JSONCommitReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(got.Items))
	}
	if !got.Items[0].Bugfix || got.Items[1].Bugfix {
		t.Errorf("bugfix flags = %v %v", got.Items[0].Bugfix, got.Items[1].Bugfix)
	}
	if got.Items[1].Parents == nil || len(got.Items[1].Parents) != 0 {
		t.Errorf("root commit parents = %v, want empty list", got.Items[1].Parents)
	}
	if got.Items[0].Issue != "PARSER-12" {
		t.Errorf("issue = %q", got.Items[0].Issue)
	}
	if len(got.FixesByAuthor) != 1 || got.FixesByAuthor[0].Author != "ann@example.com" || got.FixesByAuthor[0].Fixes != 1 {
		t.Errorf("fixesByAuthor = %+v", got.FixesByAuthor)
	}
}

func TestCSVRunWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/files.csv"
	if err := (&CSVRunWriter{}).Write(sampleReport(), OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	want := [][]string{
		{"Path", "Refactorings", "Revisions", "LinesCovered"},
		{"src/Hot.java", "2", "2", "16"},
		{"src/Warm.java", "1", "1", "2"},
	}
	if len(records) != len(want) {
		t.Fatalf("records = %v", records)
	}
	for i := range want {
		if strings.Join(records[i], ",") != strings.Join(want[i], ",") {
			t.Errorf("record %d = %v, want %v", i, records[i], want[i])
		}
	}
}

func TestCSVCommitWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/commits.csv"
	if err := (&CSVCommitWriter{}).Write(sampleCommitReport(), OutputOptions{OutputPath: tmpFile, Top: 1}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	row := records[1]
	if row[1] != "2026-02-10T09:30:00" || row[5] != "true" || row[6] != "PARSER-12" || row[7] != "fix: null check in parser" {
		t.Errorf("row = %v", row)
	}
}

func TestMarkdownRunWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/run.md"
	if err := (&MarkdownRunWriter{}).Write(sampleReport(), OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"# \U0001F7E1 Refactoring Export Results",
		"| 4 / 4 | 3 | 0 | 1 | 0 | 3 | 0 |",
		"| RENAME | 1 |",
		"| 1 | `src/Hot.java` | 2 | 2 | 16 |",
		"- `aaaaaaaaaaaa..dddddddddddd` (diff): engine exited 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownCommitWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/commits.md"
	if err := (&MarkdownCommitWriter{}).Write(sampleCommitReport(), OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "| 1 | `0123456789ab` | 2026-02-10 | Ann | \U0001F41B | fix: null check in parser |") {
		t.Errorf("unexpected markdown:\n%s", data)
	}
	if !strings.Contains(string(data), "| ann@example.com | 1 |") {
		t.Errorf("markdown missing fixes by author:\n%s", data)
	}
}

func TestConsoleRunWriter_Write(t *testing.T) {
	color.NoColor = true
	tmpFile := t.TempDir() + "/run.txt"
	if err := (&ConsoleRunWriter{}).Write(sampleReport(), OutputOptions{OutputPath: tmpFile, Top: 1}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"Work dir: /tmp/repo (cloned)",
		"Pairs diffed: 3 (merges 0, skipped 1, export failures 0)",
		"Refactorings exported: 3",
		"1 failed pairs:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "src/Warm.java") {
		t.Errorf("Top=1 should hide the second file:\n%s", out)
	}
}

func TestConsoleRunWriter_ShowsLostRows(t *testing.T) {
	color.NoColor = true
	report := sampleReport()
	report.Merges = 2
	report.ExportFailures = 1
	report.LostRows = 4
	report.Invalid = 1

	tmpFile := t.TempDir() + "/run.txt"
	if err := (&ConsoleRunWriter{}).Write(report, OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	for _, want := range []string{
		"Pairs diffed: 3 (merges 2, skipped 1, export failures 1)",
		"Refactorings lost: 4",
		"Invalid locations dropped: 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("console output missing %q:\n%s", want, data)
		}
	}
}

func TestConsoleSink_Append(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	rows := []export.RevisionRefactor{
		{Revision: "abc1234", FileName: "src/Foo.java", RefType: "RENAME", StartLine: 1, EndLine: 16},
		{Revision: "abc1234", FileName: "src/Bar.java", RefType: "MOVE", StartLine: 2, EndLine: 3},
	}
	if err := sink.Append(rows); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := sink.Append(nil); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}

	want := "Refactorings found in commit abc1234\n" +
		"RENAME src/Foo.java: 1 - 16\n" +
		"MOVE src/Bar.java: 2 - 3\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
	if sink.Name() != "console" {
		t.Errorf("Name = %q", sink.Name())
	}
}

func TestConsoleCommitWriter_Write(t *testing.T) {
	color.NoColor = true
	tmpFile := t.TempDir() + "/commits.txt"
	if err := (&ConsoleCommitWriter{}).Write(sampleCommitReport(), OutputOptions{OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	out := string(data)
	for _, want := range []string{"Total commits: 2 (listed 2)", "Fixes by author", "ann@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}
