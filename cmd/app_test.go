package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/masmgr/refscan-go/config"
	"github.com/masmgr/refscan-go/internal/export"
	"github.com/masmgr/refscan-go/internal/gittest"
	"github.com/masmgr/refscan-go/internal/output"
)

// renameRepo creates a repository whose second commit renames src/Foo.java
// to src/Bar.java.
func renameRepo(t *testing.T) (*gittest.Repo, []string) {
	t.Helper()
	gittest.RequireGit(t)
	var body strings.Builder
	body.WriteString("class Body {\n")
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&body, "  int f%d;\n", i)
	}
	body.WriteString("}\n")

	r := gittest.New(t)
	r.Write("src/Foo.java", body.String())
	first := r.Commit("add Foo")
	r.Move("src/Foo.java", "src/Bar.java")
	second := r.Commit("fix: rename Foo to Bar")
	return r, []string{first, second}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"refscan"}, args...))
	return out.String(), err
}

func TestApp_ExportThenCheck(t *testing.T) {
	src, shas := renameRepo(t)
	tmp := t.TempDir()
	csvPath := filepath.Join(tmp, "refactorings.csv")
	reportPath := filepath.Join(tmp, "report.json")

	_, err := runApp(t, "export",
		"--repo-url", src.Dir,
		"--work-dir", filepath.Join(tmp, "work"),
		"--output", csvPath,
		"--format", "json",
		"--report", reportPath,
		"--quiet",
	)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := shas[1] + ",src/Bar.java,RENAME,1,10\n"
	if string(data) != want {
		t.Fatalf("csv = %q, want %q", data, want)
	}

	raw, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("ReadFile(report): %v", err)
	}
	var report output.JSONRunReport
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if report.Pairs != 1 || report.Rows != 1 || !report.Cloned {
		t.Errorf("report = %+v", report)
	}

	out, err := runApp(t, "check", "--input", csvPath, shas[1], "src/Bar.java", "2", "10")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.HasPrefix(out, "refactor\n") || !strings.Contains(out, "RENAME 1-10") {
		t.Errorf("check output = %q", out)
	}

	out, err = runApp(t, "check", "--input", csvPath, shas[1], "src/Bar.java", "11")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.HasPrefix(out, "not refactor\n") {
		t.Errorf("check output = %q", out)
	}
}

func TestApp_IndexThenCheckFromDB(t *testing.T) {
	tmp := t.TempDir()
	csvPath := filepath.Join(tmp, "refactorings.csv")
	dbPath := filepath.Join(tmp, "refs.db")

	rows := []export.RevisionRefactor{
		{Revision: "abc1234", FileName: "src/A.java", RefType: "EXTRACT", StartLine: 5, EndLine: 9},
		{Revision: "abc1234", FileName: "src/B.java", RefType: "RENAME", StartLine: 1, EndLine: 3},
	}
	if err := export.NewCSVSink(csvPath).Append(rows); err != nil {
		t.Fatalf("Append: %v", err)
	}

	out, err := runApp(t, "index", "--input", csvPath, "--db", dbPath, "--reset")
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if !strings.Contains(out, "Imported 2 refactorings") {
		t.Errorf("index output = %q", out)
	}

	out, err = runApp(t, "check", "--db", dbPath, "abc1234", "src/A.java", "5", "9")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.HasPrefix(out, "refactor\n") {
		t.Errorf("check output = %q", out)
	}
}

func TestApp_ExportProvisionFailure(t *testing.T) {
	tmp := t.TempDir()
	workDir := filepath.Join(tmp, "work")
	if err := os.WriteFile(workDir, []byte("file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := runApp(t, "export",
		"--repo-url", filepath.Join(tmp, "missing"),
		"--work-dir", workDir,
		"--output", filepath.Join(tmp, "out.csv"),
		"--quiet",
	)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := exitCode(err); code != ExitProvision {
		t.Errorf("exitCode = %d, want %d", code, ExitProvision)
	}
}

func TestApp_CommitsListsFixes(t *testing.T) {
	src, shas := renameRepo(t)
	tmp := t.TempDir()
	reportPath := filepath.Join(tmp, "commits.json")

	_, err := runApp(t, "commits",
		"--work-dir", filepath.Join(tmp, "work"),
		"--fixes",
		"--format", "json",
		"--report", reportPath,
		"--quiet",
		src.Dir,
	)
	if err != nil {
		t.Fatalf("commits: %v", err)
	}

	raw, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report output.JSONCommitReport
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.TotalCommits != 2 {
		t.Errorf("TotalCommits = %d, want 2", report.TotalCommits)
	}
	if len(report.Items) != 1 || report.Items[0].SHA != shas[1] || !report.Items[0].Bugfix {
		t.Errorf("items = %+v", report.Items)
	}
	if len(report.FixesByAuthor) != 1 || report.FixesByAuthor[0].Author != "test@example.com" || report.FixesByAuthor[0].Fixes != 1 {
		t.Errorf("fixesByAuthor = %+v", report.FixesByAuthor)
	}
}

func TestApp_InitConfigWritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refscan.yaml")

	out, err := runApp(t, "init-config", "--repo-url", "https://github.com/apache/hive.git", path)
	if err != nil {
		t.Fatalf("init-config: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output = %q", out)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Repository.URL != "https://github.com/apache/hive.git" {
		t.Errorf("URL = %q", cfg.Repository.URL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config is invalid: %v", err)
	}

	if _, err := runApp(t, "init-config", path); err == nil {
		t.Error("existing file should not be overwritten without --force")
	}
	if _, err := runApp(t, "init-config", "--force", path); err != nil {
		t.Errorf("init-config --force: %v", err)
	}
}

func TestApp_SZZBlamesFixedLine(t *testing.T) {
	src := gittest.New(t)
	src.Write("src/Calc.java", "class Calc {\n  int add(int a, int b) {\n    return a + b;\n  }\n}\n")
	base := src.Commit("add Calc")
	src.Write("src/Calc.java", "class Calc {\n  int add(int a, int b) {\n    return a - b;\n  }\n}\n")
	bad := src.Commit("simplify add")
	src.Write("src/Calc.java", "class Calc {\n  int add(int a, int b) {\n    return a + b;\n  }\n}\n")
	fix := src.Commit("fix: add subtracted")

	tmp := t.TempDir()
	linesPath := filepath.Join(tmp, "szz.csv")
	labelsPath := filepath.Join(tmp, "labels.csv")
	out, err := runApp(t, "szz",
		"--work-dir", src.Dir,
		"--szz-output", linesPath,
		"--labels", labelsPath,
		"--quiet",
	)
	if err != nil {
		t.Fatalf("szz: %v", err)
	}
	if !strings.Contains(out, "Traced 1 bug fixes") {
		t.Errorf("summary = %q", out)
	}

	lines, err := os.ReadFile(linesPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "fix,file,line,introducing,code\n" + fix + ",src/Calc.java,3," + bad + ",return a - b;\n"
	if string(lines) != want {
		t.Errorf("szz.csv = %q, want %q", lines, want)
	}

	labels, err := os.ReadFile(labelsPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	wantLabels := "sha,label\n" + fix + ",0\n" + bad + ",1\n" + base + ",0\n"
	if string(labels) != wantLabels {
		t.Errorf("labels.csv = %q, want %q", labels, wantLabels)
	}
}

func TestApp_SZZRequiresExplicitInput(t *testing.T) {
	src := gittest.New(t)
	src.Write("src/A.java", "class A {}\n")
	src.Commit("add A")

	_, err := runApp(t, "szz",
		"--work-dir", src.Dir,
		"--input", filepath.Join(t.TempDir(), "missing.csv"),
		"--szz-output", filepath.Join(t.TempDir(), "szz.csv"),
		"--quiet",
	)
	if err == nil {
		t.Fatal("expected an error for a missing --input file")
	}
}
