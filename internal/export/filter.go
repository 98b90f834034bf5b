package export

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// PathFilter selects file paths by include and exclude glob patterns.
// Exclusion wins; an empty include list accepts everything not excluded.
type PathFilter struct {
	include []string
	exclude []string
	cache   map[string]bool
}

// NewPathFilter validates the patterns and builds a filter.
func NewPathFilter(include, exclude []string) (*PathFilter, error) {
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &PathFilter{include: include, exclude: exclude, cache: make(map[string]bool)}, nil
}

// Match reports whether path passes the filter. A nil filter accepts everything.
func (f *PathFilter) Match(path string) bool {
	if f == nil || (len(f.include) == 0 && len(f.exclude) == 0) {
		return true
	}
	path = strings.ReplaceAll(path, "\\", "/")
	if ok, hit := f.cache[path]; hit {
		return ok
	}
	ok := f.match(path)
	f.cache[path] = ok
	return ok
}

func (f *PathFilter) match(path string) bool {
	for _, pattern := range f.exclude {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, pattern := range f.include {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// TestPathPatterns excludes the test trees skipped by refactoring-aware SZZ labelling.
var TestPathPatterns = []string{"**/test/**", "**/itests/**", "**/testutils/**"}
