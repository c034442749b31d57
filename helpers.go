package mypycbuild

import (
	"path/filepath"
	"strings"
)

// MatchesSuffix checks if a filename ends with any of the given suffixes.
//
// The check is case-sensitive, matching how Python decides what is a source
// module.
//
// # Example
//
//	if MatchesSuffix("pkg/fib.py", ".py") {
//	    // compile it
//	}
//
// # Thread Safety
//
// This function is thread-safe and can be called concurrently.
func MatchesSuffix(filename string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(filename, suffix) {
			return true
		}
	}
	return false
}

// NormalizePaths returns paths with forward-slash separators regardless of
// the host convention. The input slice is not modified.
func NormalizePaths(paths []string) []string {
	normalized := make([]string, len(paths))
	for i, p := range paths {
		normalized[i] = filepath.ToSlash(p)
	}
	return normalized
}

// outputLines splits captured process output into lines, dropping the
// trailing empty line left by a final newline.
func outputLines(output []byte) []string {
	text := strings.TrimSuffix(string(output), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
