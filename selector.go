package mypycbuild

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// sourceSuffixes are the file suffixes handed to the compiler.
var sourceSuffixes = []string{".py"}

// Selector chooses the modules to compile.
//
// A path is selected when the build target admits it, the hook's include
// patterns match it (or there are none), and the hook's exclude patterns do
// not. Directories matched by either exclude set are pruned during the walk,
// so nothing beneath them is ever selected.
type Selector struct {
	root string

	targetInclude *PatternSet
	targetExclude *PatternSet
	include       *PatternSet
	exclude       *PatternSet
}

// NewSelector combines the target's rules with the hook's own patterns. It
// fails with ErrIncludeRequired when no include rule exists anywhere.
func NewSelector(target BuildTarget, include, exclude []string) (*Selector, error) {
	targetInclude := append([]string{}, target.IncludePatterns()...)
	for _, pkg := range target.Packages() {
		targetInclude = append(targetInclude, "/"+strings.Trim(filepath.ToSlash(pkg), "/"))
	}

	s := &Selector{
		root:          target.Root(),
		targetInclude: NewPatternSet(targetInclude),
		targetExclude: NewPatternSet(target.ExcludePatterns()),
		include:       NewPatternSet(include),
		exclude:       NewPatternSet(exclude),
	}

	if s.include.Empty() && s.targetInclude.Empty() {
		return nil, includeRequiredError(target.Name())
	}
	return s, nil
}

// IncludePath reports whether the file at relPath would be selected, ignoring
// its suffix and any pruning of parent directories.
func (s *Selector) IncludePath(relPath string) bool {
	return s.pathIsIncluded(relPath) && !s.pathIsExcluded(relPath, false)
}

func (s *Selector) pathIsIncluded(relPath string) bool {
	if !s.targetInclude.Empty() && !s.targetInclude.Match(relPath, false) {
		return false
	}
	if s.include.Empty() {
		return true
	}
	return s.include.Match(relPath, false)
}

func (s *Selector) pathIsExcluded(relPath string, isDir bool) bool {
	return s.targetExclude.Match(relPath, isDir) || s.exclude.Match(relPath, isDir)
}

// Select walks the project root and returns the selected source files as
// forward-slash paths relative to the root. Within each directory files come
// first in name order, followed by the subdirectories in name order.
func (s *Selector) Select() ([]string, error) {
	var selected []string
	if err := s.walk("", &selected); err != nil {
		return nil, err
	}
	return selected, nil
}

func (s *Selector) walk(relDir string, selected *[]string) error {
	entries, err := os.ReadDir(filepath.Join(s.root, filepath.FromSlash(relDir)))
	if err != nil {
		return err
	}

	var dirs []string
	for _, entry := range entries {
		relPath := path.Join(relDir, entry.Name())

		if entry.IsDir() {
			if s.pathIsExcluded(relPath+"/", true) {
				continue
			}
			dirs = append(dirs, relPath)
			continue
		}

		if !MatchesSuffix(relPath, sourceSuffixes...) {
			continue
		}
		if s.IncludePath(relPath) {
			*selected = append(*selected, filepath.ToSlash(relPath))
		}
	}

	for _, dir := range dirs {
		if err := s.walk(dir, selected); err != nil {
			return err
		}
	}
	return nil
}
