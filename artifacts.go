package mypycbuild

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// sharedRuntimeSuffix marks the runtime support library emitted by mypyc.
// Shared libraries are named "<group>__mypyc", where the group is a hash of
// the module names unless modules are compiled separately.
const sharedRuntimeSuffix = "__mypyc"

// CompiledExtension returns the native extension suffix for goos.
func CompiledExtension(goos string) string {
	if goos == "windows" {
		return ".pyd"
	}
	return ".so"
}

// ArtifactMapper derives the globs identifying compiled output.
//
// Globs are forward-slash paths relative to the project root. They are used
// both to register artifacts in the build manifest and to clean them up, so
// production and removal always agree.
type ArtifactMapper struct {
	// Extension is the platform suffix, ".so" or ".pyd".
	Extension string

	// Separated selects one runtime library per module instead of one shared
	// library for the whole build.
	Separated bool

	// PackageSource is the source root holding the shared runtime library in
	// non-separated mode; "" means the project root.
	PackageSource string
}

// Globs returns the artifact globs for files, in the same order as files.
// Each module yields "<module>.*<ext>" and, in separated mode,
// "<module>__mypyc.*<ext>". Non-separated mode adds a single trailing glob for
// the shared runtime library.
func (m ArtifactMapper) Globs(files []string) []string {
	globs := make([]string, 0, len(files)*2+1)
	for _, file := range files {
		module := moduleStem(file)
		globs = append(globs, module+".*"+m.Extension)
		if m.Separated {
			globs = append(globs, module+sharedRuntimeSuffix+".*"+m.Extension)
		}
	}
	if !m.Separated {
		globs = append(globs, m.SharedRuntimeGlob())
	}
	return globs
}

// Patterns returns Globs anchored to the project root with a leading "/", as
// registered in the build manifest.
func (m ArtifactMapper) Patterns(files []string) []string {
	globs := m.Globs(files)
	patterns := make([]string, len(globs))
	for i, glob := range globs {
		patterns[i] = "/" + glob
	}
	return patterns
}

// SharedRuntimeGlob matches the shared runtime library under the package
// source root.
func (m ArtifactMapper) SharedRuntimeGlob() string {
	glob := "*" + sharedRuntimeSuffix + ".*" + m.Extension
	if m.PackageSource == "" {
		return glob
	}
	return path.Join(filepath.ToSlash(m.PackageSource), glob)
}

// ForcedInclusionMap maps the absolute path of every shared runtime library
// found under root to its destination relative to the package source root.
// It is empty in separated mode.
func (m ArtifactMapper) ForcedInclusionMap(root string) (map[string]string, error) {
	inclusion := make(map[string]string)
	if m.Separated {
		return inclusion, nil
	}

	matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(m.SharedRuntimeGlob())))
	if err != nil {
		return nil, fmt.Errorf("failed to glob shared runtime in %s: %w", root, err)
	}

	base := filepath.Join(root, filepath.FromSlash(m.PackageSource))
	for _, match := range matches {
		rel, err := filepath.Rel(base, match)
		if err != nil {
			return nil, err
		}
		inclusion[match] = filepath.ToSlash(rel)
	}
	return inclusion, nil
}

// CleanArtifacts removes every file under root matching globs and returns the
// removed paths. Removal errors are returned as is.
func CleanArtifacts(root string, globs []string) ([]string, error) {
	var removed []string
	for _, glob := range globs {
		glob = strings.TrimPrefix(glob, "/")
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(glob)))
		if err != nil {
			return removed, fmt.Errorf("failed to glob pattern %s in %s: %w", glob, root, err)
		}
		for _, match := range matches {
			if err := os.Remove(match); err != nil {
				return removed, err
			}
			removed = append(removed, match)
		}
	}
	return removed, nil
}

// FindArtifacts returns the files under root currently matching globs, as
// forward-slash paths relative to root.
func FindArtifacts(root string, globs []string) ([]string, error) {
	var found []string
	for _, glob := range globs {
		glob = strings.TrimPrefix(glob, "/")
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(glob)))
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s in %s: %w", glob, root, err)
		}
		for _, match := range matches {
			if rel, err := filepath.Rel(root, match); err == nil {
				found = append(found, filepath.ToSlash(rel))
			}
		}
	}
	return uniqueStrings(found), nil
}

func moduleStem(file string) string {
	file = filepath.ToSlash(file)
	return strings.TrimSuffix(file, path.Ext(file))
}
