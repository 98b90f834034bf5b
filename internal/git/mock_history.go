package git

import (
	"context"
	"io"
)

// MockHistory is a test double for HistorySource.
// It allows tests to provide predefined commits without needing a real Git repository.
type MockHistory struct {
	Commits  []CommitInfo
	Error    error
	WalkErr  error
	Walks    int
	lastIter *mockIter
}

// NewMockHistory creates a new MockHistory with the given commits, newest first.
func NewMockHistory(commits []CommitInfo, err error) *MockHistory {
	return &MockHistory{Commits: commits, Error: err}
}

// CountCommits returns the number of predefined commits or the configured error.
func (m *MockHistory) CountCommits(_ context.Context, startRef string) (int, error) {
	if m.Error != nil {
		return 0, &HistoryError{Ref: startRef, Err: m.Error}
	}
	return len(m.Commits), nil
}

// Walk returns an iterator over the predefined commits.
func (m *MockHistory) Walk(_ context.Context, startRef string, limit int) (CommitIter, error) {
	if m.Error != nil {
		return nil, &HistoryError{Ref: startRef, Err: m.Error}
	}
	m.Walks++
	commits := m.Commits
	if limit > 0 && limit < len(commits) {
		commits = commits[:limit]
	}
	m.lastIter = &mockIter{commits: commits, err: m.WalkErr}
	return m.lastIter, nil
}

// Closed reports whether the most recent iterator was closed.
func (m *MockHistory) Closed() bool {
	return m.lastIter != nil && m.lastIter.closed
}

type mockIter struct {
	commits []CommitInfo
	pos     int
	err     error
	closed  bool
}

func (it *mockIter) Next() (CommitInfo, error) {
	if it.closed || it.pos >= len(it.commits) {
		if it.err != nil && !it.closed {
			return CommitInfo{}, it.err
		}
		return CommitInfo{}, io.EOF
	}
	c := it.commits[it.pos]
	it.pos++
	return c, nil
}

func (it *mockIter) Close() { it.closed = true }
