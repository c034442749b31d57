package mypycbuild

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Build target names.
const (
	TargetWheel = "wheel"
	TargetSdist = "sdist"
)

// defaultExcludes are applied by every ProjectTarget.
var defaultExcludes = []string{
	".git/",
	"__pycache__/",
	"*.py[cod]",
}

// BuildTarget is the packaging target the hook runs for.
//
// It owns file discovery defaults: which paths belong to the package, which
// are always excluded, and where importable modules are rooted.
type BuildTarget interface {
	// Name is the target identifier, e.g. "wheel" or "sdist".
	Name() string

	// Root is the absolute project root.
	Root() string

	// Sources lists the declared source roots, each with a trailing "/".
	// Only the first one is honored by the hook.
	Sources() []string

	// Packages lists the package directories relative to Root.
	Packages() []string

	// IncludePatterns are the target's own gitignore-style include rules.
	IncludePatterns() []string

	// ExcludePatterns are the target's own gitignore-style exclude rules.
	ExcludePatterns() []string
}

// TargetSettings are the file selection settings of one build target.
type TargetSettings struct {
	Include  []string
	Exclude  []string
	Packages []string
	Sources  []string
}

// ProjectTarget is a BuildTarget backed by static settings, normally read
// from the `[tool.hatch.build]` tables of pyproject.toml.
type ProjectTarget struct {
	name     string
	root     string
	settings TargetSettings
	ignored  []string
}

// NewProjectTarget creates a target rooted at root. The root `.gitignore`,
// when present, contributes to the exclude rules.
func NewProjectTarget(root, name string, settings TargetSettings) (*ProjectTarget, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	ignored, err := readIgnoreFile(filepath.Join(absRoot, ".gitignore"))
	if err != nil {
		return nil, err
	}

	if len(settings.Sources) == 0 {
		settings.Sources = sourcesFromPackages(settings.Packages)
	}

	return &ProjectTarget{
		name:     name,
		root:     absRoot,
		settings: settings,
		ignored:  ignored,
	}, nil
}

func (t *ProjectTarget) Name() string { return t.name }

func (t *ProjectTarget) Root() string { return t.root }

func (t *ProjectTarget) Sources() []string {
	return append([]string{}, t.settings.Sources...)
}

func (t *ProjectTarget) Packages() []string {
	return append([]string{}, t.settings.Packages...)
}

func (t *ProjectTarget) IncludePatterns() []string {
	return append([]string{}, t.settings.Include...)
}

func (t *ProjectTarget) ExcludePatterns() []string {
	patterns := append([]string{}, defaultExcludes...)
	patterns = append(patterns, t.ignored...)
	return append(patterns, t.settings.Exclude...)
}

// PackageSource returns the first declared source root of target without its
// trailing separator, or "" for a flat layout.
func PackageSource(target BuildTarget) string {
	sources := target.Sources()
	if len(sources) == 0 {
		return ""
	}
	return strings.TrimSuffix(filepath.ToSlash(sources[0]), "/")
}

// sourcesFromPackages derives source roots from package parents, so that
// "src/foo" declares the source root "src/".
func sourcesFromPackages(packages []string) []string {
	var sources []string
	for _, pkg := range packages {
		parent := filepath.ToSlash(filepath.Dir(filepath.Clean(pkg)))
		if parent == "." || parent == "/" {
			continue
		}
		sources = append(sources, strings.TrimPrefix(parent, "/")+"/")
	}
	return uniqueStrings(sources)
}

func readIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
