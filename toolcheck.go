package mypycbuild

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// execLookPath is replaced in tests.
var execLookPath = exec.LookPath

// ToolChecker is an optional interface for compilers that require external tools.
//
// Compilers can implement this interface to declare their tool dependencies
// and verify that required tools are available before a build stages
// anything.
//
// # Consumer Usage
//
// Check tools before building:
//
//	if checker, ok := compiler.(ToolChecker); ok {
//	    if err := checker.CheckTools(); err != nil {
//	        return fmt.Errorf("build tools missing: %w", err)
//	    }
//	}
type ToolChecker interface {
	// RequiredTools returns the list of tools this compiler needs.
	RequiredTools() []ToolRequirement

	// CheckTools verifies that all required tools are available.
	//
	// Returns nil if all required tools are found, or an error describing
	// which tools are missing. Optional tools don't cause errors if missing.
	CheckTools() error
}

// ToolRequirement describes a build tool dependency.
//
// Tool with alternatives:
//
//	ToolRequirement{
//	    Name:         "python3",
//	    Alternatives: []string{"python"},
//	    Purpose:      "Python interpreter running mypyc",
//	}
type ToolRequirement struct {
	// Name is the primary tool binary name (e.g., "python3").
	Name string

	// Alternatives are alternative tool names that can satisfy this requirement.
	Alternatives []string

	// Optional indicates this tool is optional and won't cause an error if missing.
	Optional bool

	// Purpose is a human-readable description of why this tool is needed.
	Purpose string
}

// CheckToolAvailable checks if a tool is available in the system PATH.
func CheckToolAvailable(tool string) error {
	_, err := execLookPath(tool)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// CheckRequiredTools verifies all required tools are available.
//
// # Behavior
//
//   - Checks the primary tool name first
//   - If not found, tries each alternative tool in order
//   - Optional tools are checked but don't cause errors
//   - Returns all missing required tools in a single error
//
// # Error Format
//
// Single missing tool:
//
//	python3 not found in PATH (required for: Python interpreter running mypyc)
//
// Multiple missing tools:
//
//	missing required tools: python3 (Python interpreter), cc (C compiler)
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []string

	for _, req := range requirements {
		if _, err := resolveTool(req); err == nil {
			continue
		}
		if req.Optional {
			continue
		}
		if req.Purpose != "" {
			missingTools = append(missingTools, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
		} else {
			missingTools = append(missingTools, req.Name)
		}
	}

	if len(missingTools) == 0 {
		return nil
	}

	if len(missingTools) == 1 {
		return fmt.Errorf("%s not found in PATH", missingTools[0])
	}

	return fmt.Errorf("missing required tools: %s", strings.Join(missingTools, ", "))
}

// resolveTool returns the path of the first available binary of req.
func resolveTool(req ToolRequirement) (string, error) {
	for _, name := range append([]string{req.Name}, req.Alternatives...) {
		if resolved, err := execLookPath(name); err == nil {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%s not found in PATH", req.Name)
}

// pythonRequirement describes the interpreter that runs the setup script.
func pythonRequirement() ToolRequirement {
	if runtime.GOOS == "windows" {
		return ToolRequirement{
			Name:         "python",
			Alternatives: []string{"py", "python3"},
			Purpose:      "Python interpreter running mypyc",
		}
	}
	return ToolRequirement{
		Name:         "python3",
		Alternatives: []string{"python"},
		Purpose:      "Python interpreter running mypyc",
	}
}

// ResolvePython returns explicit when set, otherwise the first Python
// interpreter found in PATH.
func ResolvePython(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return resolveTool(pythonRequirement())
}
