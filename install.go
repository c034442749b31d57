package mypycbuild

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// InstallArtifacts copies the files a manifest adds to a package into dest.
//
// Files matching data.Artifacts are placed at their path relative to the
// package source root (so src/pkg/mod.so lands at pkg/mod.so), and every
// data.ForceInclude entry is copied to its recorded destination. The
// installed paths are returned sorted, in forward-slash form, relative to
// dest.
func InstallArtifacts(root, packageSource string, data *BuildData, dest string) ([]string, error) {
	matches, err := FindArtifacts(root, data.Artifacts)
	if err != nil {
		return nil, err
	}

	var installed []string

	for _, rel := range matches {
		relDest := safeRelativePath(stripSource(rel, packageSource))
		if err := copyFile(filepath.Join(root, filepath.FromSlash(rel)), filepath.Join(dest, relDest)); err != nil {
			return nil, err
		}
		installed = append(installed, filepath.ToSlash(relDest))
	}

	for src, target := range data.ForceInclude {
		relDest := safeRelativePath(filepath.FromSlash(target))
		if err := copyFile(src, filepath.Join(dest, relDest)); err != nil {
			return nil, err
		}
		installed = append(installed, filepath.ToSlash(relDest))
	}

	installed = uniqueStrings(installed)
	sort.Strings(installed)
	return installed, nil
}

func stripSource(rel, packageSource string) string {
	if packageSource == "" {
		return rel
	}
	prefix := strings.TrimSuffix(filepath.ToSlash(packageSource), "/") + "/"
	return strings.TrimPrefix(rel, prefix)
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func safeRelativePath(path string) string {
	clean := filepath.Clean(path)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return filepath.Base(path)
	}
	return clean
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
