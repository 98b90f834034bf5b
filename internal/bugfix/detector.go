// Package bugfix classifies commits as bug fixes from their messages.
package bugfix

import (
	"regexp"
	"sort"
	"strings"

	"github.com/masmgr/refscan-go/internal/git"
)

// Fix is a commit classified as a bug fix.
type Fix struct {
	Commit git.CommitInfo
	// Rule is the pattern that classified the commit.
	Rule string
	// Issue is the first issue key named in the message, normalized to
	// PROJECT-123 form. Empty when the message names none.
	Issue string
}

// AuthorFixes counts the fixes of one contributor.
type AuthorFixes struct {
	Author string
	Fixes  int
}

// Result holds the fixes found among a set of commits.
type Result struct {
	// Fixes in walk order.
	Fixes []Fix
	// ByAuthor maps contributor keys to their number of fixes.
	ByAuthor map[string]int

	index map[string]int
}

// Lookup returns the fix recorded for sha.
func (r *Result) Lookup(sha string) (Fix, bool) {
	i, ok := r.index[sha]
	if !ok {
		return Fix{}, false
	}
	return r.Fixes[i], true
}

// Len returns the number of fixes.
func (r *Result) Len() int { return len(r.Fixes) }

// TopAuthors returns contributors by descending fix count, ties by key.
// n <= 0 returns all of them.
func (r *Result) TopAuthors(n int) []AuthorFixes {
	out := make([]AuthorFixes, 0, len(r.ByAuthor))
	for author, fixes := range r.ByAuthor {
		out = append(out, AuthorFixes{Author: author, Fixes: fixes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fixes != out[j].Fixes {
			return out[i].Fixes > out[j].Fixes
		}
		return out[i].Author < out[j].Author
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

type rule struct {
	source string
	re     *regexp.Regexp
}

// Detector classifies commits by matching their messages against rules.
type Detector struct {
	rules []rule
	issue *regexp.Regexp
}

// NewDetector compiles the rule patterns case-insensitively. Blank patterns
// are ignored; a detector without rules classifies nothing.
func NewDetector(patterns []string) (*Detector, error) {
	d := &Detector{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		expr := p
		if !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		d.rules = append(d.rules, rule{source: p, re: re})
	}
	return d, nil
}

// WithIssuePattern sets the expression that extracts issue keys. It is
// matched case-sensitively; an empty pattern disables extraction.
func (d *Detector) WithIssuePattern(pattern string) (*Detector, error) {
	if strings.TrimSpace(pattern) == "" {
		d.issue = nil
		return d, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	d.issue = re
	return d, nil
}

// Match returns the rule that classifies message as a fix.
func (d *Detector) Match(message string) (string, bool) {
	for _, r := range d.rules {
		if r.re.MatchString(message) {
			return r.source, true
		}
	}
	return "", false
}

// IsBugfix reports whether any rule matches message.
func (d *Detector) IsBugfix(message string) bool {
	_, ok := d.Match(message)
	return ok
}

// IssueKey returns the first issue key in message, with an underscore
// separator rewritten to a dash.
func (d *Detector) IssueKey(message string) string {
	if d.issue == nil {
		return ""
	}
	key := d.issue.FindString(message)
	return strings.Replace(key, "_", "-", 1)
}

// Detect classifies commits and collects the fixes.
func (d *Detector) Detect(commits []git.CommitInfo) *Result {
	result := &Result{
		ByAuthor: make(map[string]int),
		index:    make(map[string]int),
	}
	for _, c := range commits {
		source, ok := d.Match(c.Message)
		if !ok {
			continue
		}
		result.index[c.SHA] = len(result.Fixes)
		result.Fixes = append(result.Fixes, Fix{Commit: c, Rule: source, Issue: d.IssueKey(c.Message)})
		result.ByAuthor[c.Author.ContributorKey()]++
	}
	return result
}
