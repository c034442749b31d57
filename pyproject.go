package mypycbuild

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ProjectFile is the project metadata file read by LoadProject.
const ProjectFile = "pyproject.toml"

type pyproject struct {
	Project projectTable `toml:"project"`
	Tool    struct {
		Hatch struct {
			Build buildTable `toml:"build"`
		} `toml:"hatch"`
	} `toml:"tool"`
}

type projectTable struct {
	Name string `toml:"name"`
}

type buildTable struct {
	Include  []string                  `toml:"include"`
	Exclude  []string                  `toml:"exclude"`
	Packages []string                  `toml:"packages"`
	Sources  any                       `toml:"sources"`
	Hooks    map[string]map[string]any `toml:"hooks"`
	Targets  map[string]targetTable    `toml:"targets"`
}

type targetTable struct {
	Include  []string                  `toml:"include"`
	Exclude  []string                  `toml:"exclude"`
	Packages []string                  `toml:"packages"`
	Sources  any                       `toml:"sources"`
	Hooks    map[string]map[string]any `toml:"hooks"`
}

// Project is a parsed pyproject.toml.
type Project struct {
	Root string
	Name string

	build buildTable
}

// LoadProject reads pyproject.toml from root.
func LoadProject(root string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filepath.Join(absRoot, ProjectFile))
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	return ParseProject(absRoot, content)
}

// ParseProject parses pyproject.toml content for a project rooted at root.
func ParseProject(root string, content []byte) (*Project, error) {
	var doc pyproject
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ProjectFile, err)
	}
	return &Project{
		Root:  root,
		Name:  doc.Project.Name,
		build: doc.Tool.Hatch.Build,
	}, nil
}

// Target builds the BuildTarget for the named target. Target tables override
// the global build settings key by key. When neither include nor packages is
// configured, the package is guessed from the project name.
func (p *Project) Target(name string) (*ProjectTarget, error) {
	settings := TargetSettings{
		Include:  p.build.Include,
		Exclude:  p.build.Exclude,
		Packages: p.build.Packages,
	}
	sources, err := parseSources(p.build.Sources)
	if err != nil {
		return nil, err
	}
	settings.Sources = sources

	if target, ok := p.build.Targets[name]; ok {
		if target.Include != nil {
			settings.Include = target.Include
		}
		if target.Exclude != nil {
			settings.Exclude = target.Exclude
		}
		if target.Packages != nil {
			settings.Packages = target.Packages
		}
		if target.Sources != nil {
			targetSources, err := parseSources(target.Sources)
			if err != nil {
				return nil, err
			}
			settings.Sources = targetSources
		}
	}

	if len(settings.Include) == 0 && len(settings.Packages) == 0 {
		if guessed := p.guessPackage(); guessed != "" {
			settings.Packages = []string{guessed}
		}
	}

	return NewProjectTarget(p.Root, name, settings)
}

// HookConfig returns the table configuring hook for target. A target-level
// table replaces the global one.
func (p *Project) HookConfig(target, hook string) (map[string]any, bool) {
	if t, ok := p.build.Targets[target]; ok {
		if config, found := t.Hooks[hook]; found {
			return config, true
		}
	}
	config, ok := p.build.Hooks[hook]
	return config, ok
}

// ConfiguredHooks returns the sorted names of the hooks that apply to target.
func (p *Project) ConfiguredHooks(target string) []string {
	var names []string
	for name := range p.build.Hooks {
		names = append(names, name)
	}
	if t, ok := p.build.Targets[target]; ok {
		for name := range t.Hooks {
			names = append(names, name)
		}
	}
	names = uniqueStrings(names)
	sort.Strings(names)
	return names
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// guessPackage looks for <name>/, src/<name>/ or <name>.py at the root.
func (p *Project) guessPackage() string {
	if p.Name == "" {
		return ""
	}
	name := nameSeparators.ReplaceAllString(strings.ToLower(p.Name), "_")

	for _, candidate := range []string{name, "src/" + name} {
		marker := filepath.Join(p.Root, filepath.FromSlash(candidate), "__init__.py")
		if _, err := os.Stat(marker); err == nil {
			return candidate
		}
	}
	if _, err := os.Stat(filepath.Join(p.Root, name+".py")); err == nil {
		return name + ".py"
	}
	return ""
}

// parseSources accepts an array of directories or a table whose keys are the
// directories. Table keys are sorted since TOML tables are unordered.
func parseSources(value any) ([]string, error) {
	var dirs []string
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, typeErrorf("sources", i+1, "Source #%d of option `sources` must be a string", i+1)
			}
			dirs = append(dirs, s)
		}
	case map[string]any:
		for key := range v {
			dirs = append(dirs, key)
		}
		sort.Strings(dirs)
	default:
		return nil, typeErrorf("sources", 0, "Option `sources` must be an array or a table")
	}

	var sources []string
	for _, dir := range dirs {
		dir = strings.Trim(filepath.ToSlash(dir), "/")
		if dir == "" {
			continue
		}
		sources = append(sources, dir+"/")
	}
	return sources, nil
}
