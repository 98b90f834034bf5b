package git

import "fmt"

// ProvisionError reports a failure to obtain a local copy of a repository.
type ProvisionError struct {
	Path string
	URL  string
	Err  error
}

func (e *ProvisionError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("provision %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("provision %s from %s: %v", e.Path, e.URL, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// HistoryError reports a failure to resolve or walk a starting reference.
type HistoryError struct {
	Ref string
	Err error
}

func (e *HistoryError) Error() string {
	return fmt.Sprintf("history from %q: %v", e.Ref, e.Err)
}

func (e *HistoryError) Unwrap() error { return e.Err }
