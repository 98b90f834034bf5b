package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// recordSeparator prefixes each commit record in git log output.
const recordSeparator = 0x1e

// logFormat yields one record per commit: 0x1e, then NUL-separated
// sha, parents, committer date, author name, author email and subject.
const logFormat = "%x1e%H%x00%P%x00%cI%x00%an%x00%ae%x00%s"

// CLIHistory reads commit history by running the git executable.
type CLIHistory struct {
	repoPath    string
	firstParent bool
}

// NewCLIHistory creates a git CLI history source for the repository at repoPath.
func NewCLIHistory(repoPath string, firstParent bool) *CLIHistory {
	return &CLIHistory{repoPath: repoPath, firstParent: firstParent}
}

// CountCommits returns the number of commits reachable from startRef, inclusive.
func (h *CLIHistory) CountCommits(ctx context.Context, startRef string) (int, error) {
	sha, err := h.resolve(ctx, startRef)
	if err != nil {
		return 0, err
	}

	args := []string{"-C", h.repoPath, "rev-list", "--count"}
	if h.firstParent {
		args = append(args, "--first-parent")
	}
	args = append(args, sha)

	out, err := exec.CommandContext(ctx, "git", args...).CombinedOutput()
	if err != nil {
		return 0, &HistoryError{Ref: startRef, Err: fmt.Errorf("git rev-list failed: %w: %s", err, strings.TrimSpace(string(out)))}
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, &HistoryError{Ref: startRef, Err: fmt.Errorf("parse commit count: %w", err)}
	}
	return n, nil
}

// Walk streams git log output, newest first by committer date.
func (h *CLIHistory) Walk(ctx context.Context, startRef string, limit int) (CommitIter, error) {
	sha, err := h.resolve(ctx, startRef)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-C", h.repoPath,
		"log",
		"--no-color",
		"--date-order",
		"--pretty=format:" + logFormat,
	}
	if h.firstParent {
		args = append(args, "--first-parent")
	}
	if limit > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", limit))
	}
	args = append(args, sha)

	cmdCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(cmdCtx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, &HistoryError{Ref: startRef, Err: err}
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, &HistoryError{Ref: startRef, Err: fmt.Errorf("start git log: %w", err)}
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(splitRecords)

	return &cliLogIter{cmd: cmd, cancel: cancel, scanner: scanner, stderr: &stderr, ref: startRef}, nil
}

func (h *CLIHistory) resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		ref = "HEAD"
	}
	out, err := exec.CommandContext(ctx, "git", "-C", h.repoPath, "rev-parse", "--verify", "--quiet", ref+"^{commit}").Output()
	if err != nil {
		return "", &HistoryError{Ref: ref, Err: fmt.Errorf("reference not found: %w", err)}
	}
	return strings.TrimSpace(string(out)), nil
}

type cliLogIter struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	scanner *bufio.Scanner
	stderr  *bytes.Buffer
	ref     string
	done    bool
}

func (it *cliLogIter) Next() (CommitInfo, error) {
	if it.done {
		return CommitInfo{}, io.EOF
	}
	for it.scanner.Scan() {
		rec := bytes.TrimRight(it.scanner.Bytes(), "\n")
		if len(rec) == 0 {
			continue
		}
		return parseLogRecord(rec)
	}

	it.done = true
	scanErr := it.scanner.Err()
	waitErr := it.cmd.Wait()
	it.cancel()
	if scanErr != nil {
		return CommitInfo{}, &HistoryError{Ref: it.ref, Err: scanErr}
	}
	if waitErr != nil {
		return CommitInfo{}, &HistoryError{Ref: it.ref, Err: fmt.Errorf("git log failed: %w: %s", waitErr, strings.TrimSpace(it.stderr.String()))}
	}
	return CommitInfo{}, io.EOF
}

func (it *cliLogIter) Close() {
	if it.done {
		return
	}
	it.done = true
	it.cancel()
	_ = it.cmd.Wait()
}

// splitRecords is a bufio.SplitFunc yielding the bytes between record separators.
func splitRecords(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && data[start] == recordSeparator {
		start++
	}
	if i := bytes.IndexByte(data[start:], recordSeparator); i >= 0 {
		return start + i, data[start : start+i], nil
	}
	if atEOF {
		if start >= len(data) {
			return len(data), nil, nil
		}
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

func parseLogRecord(rec []byte) (CommitInfo, error) {
	fields := bytes.SplitN(rec, []byte{0x00}, 6)
	if len(fields) < 6 {
		return CommitInfo{}, errors.New("unexpected git log record format")
	}

	when, err := time.Parse(time.RFC3339, string(fields[2]))
	if err != nil {
		return CommitInfo{}, fmt.Errorf("parse committer date: %w", err)
	}

	return CommitInfo{
		SHA:     string(fields[0]),
		Parents: strings.Fields(string(fields[1])),
		When:    when,
		Author:  AuthorInfo{Name: string(fields[3]), Email: string(fields[4])},
		Message: string(fields[5]),
	}, nil
}
