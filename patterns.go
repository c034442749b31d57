package mypycbuild

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// PatternSet matches relative paths against an ordered list of gitignore-style
// patterns. Later patterns win, `!` re-includes, and a trailing `/` restricts a
// pattern to directories.
type PatternSet struct {
	patterns []string
	matcher  gitignore.Matcher
}

// NewPatternSet compiles patterns in order. Blank lines and `#` comments are
// skipped so the contents of an ignore file can be passed directly.
func NewPatternSet(patterns []string) *PatternSet {
	var kept []string
	var parsed []gitignore.Pattern
	for _, p := range patterns {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		kept = append(kept, p)
		parsed = append(parsed, gitignore.ParsePattern(strings.TrimLeft(p, " \t"), nil))
	}
	return &PatternSet{
		patterns: kept,
		matcher:  gitignore.NewMatcher(parsed),
	}
}

// Empty reports whether the set has no usable pattern.
func (s *PatternSet) Empty() bool {
	return s == nil || len(s.patterns) == 0
}

// Patterns returns the compiled patterns in declaration order.
func (s *PatternSet) Patterns() []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s.patterns...)
}

// Match reports whether relPath is matched by the set. relPath may use either
// separator; a trailing separator marks it as a directory.
func (s *PatternSet) Match(relPath string, isDir bool) bool {
	if s.Empty() {
		return false
	}
	parts := splitRelPath(relPath)
	if len(parts) == 0 {
		return false
	}
	if strings.HasSuffix(filepath.ToSlash(relPath), "/") {
		isDir = true
	}
	return s.matcher.Match(parts, isDir)
}

func splitRelPath(relPath string) []string {
	slashed := strings.Trim(filepath.ToSlash(relPath), "/")
	if slashed == "" || slashed == "." {
		return nil
	}

	var parts []string
	for _, part := range strings.Split(slashed, "/") {
		if part == "" || part == "." {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}
