package mypycbuild

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// execCommandContext is replaced in tests.
var execCommandContext = exec.CommandContext

const setupFileName = "setup.py"

// SetuptoolsCompiler drives mypyc through a generated setuptools script.
//
// mypyc has no stable programmatic entry point, so the compiler writes a
// setup.py calling mypycify and runs
//
//	python setup.py build_ext --inplace --build-lib <lib> --build-temp <tmp>
//
// from the project root. Compiled extensions land next to their sources.
type SetuptoolsCompiler struct {
	// PythonPath is the interpreter; empty means the first python in PATH.
	PythonPath string
}

// Name returns the compiler name
func (c *SetuptoolsCompiler) Name() string {
	return "Mypyc"
}

// RequiredTools returns the tools needed to run mypyc
func (c *SetuptoolsCompiler) RequiredTools() []ToolRequirement {
	if c.PythonPath != "" {
		return []ToolRequirement{{Name: c.PythonPath, Purpose: "Python interpreter running mypyc"}}
	}
	return []ToolRequirement{pythonRequirement()}
}

// CheckTools verifies that a Python interpreter is available
func (c *SetuptoolsCompiler) CheckTools() error {
	return CheckRequiredTools(c.RequiredTools())
}

// Prepare writes the setup script into the scratch directory and records it
// in request.
func (c *SetuptoolsCompiler) Prepare(request *CompileRequest) error {
	args := append(append([]string{}, request.MypyArgs...), request.Modules...)
	contents, err := ConstructSetupFile(request.PackageSource, args, request.Options)
	if err != nil {
		return err
	}

	setupFile := filepath.Join(request.ScratchDir, setupFileName)
	if err := os.WriteFile(setupFile, []byte(contents), 0o644); err != nil {
		return err
	}
	request.ScriptPath = setupFile
	return nil
}

// Compile runs the setup script, writing it first unless Prepare already did.
func (c *SetuptoolsCompiler) Compile(ctx context.Context, request *CompileRequest) (*CompileResult, error) {
	result := &CompileResult{}

	if request.ScriptPath == "" {
		if err := c.Prepare(request); err != nil {
			return result, err
		}
	}
	setupFile := request.ScriptPath
	result.ScriptPath = setupFile

	python, err := ResolvePython(c.PythonPath)
	if err != nil {
		return result, err
	}

	cmdArgs := []string{
		setupFile,
		"build_ext",
		"--inplace",
		"--build-lib", request.BuildLib,
		"--build-temp", request.BuildTemp,
	}
	result.Command = append([]string{python}, cmdArgs...)

	var output []byte
	err = hideProjectFile(request.Root, func() error {
		//nolint:gosec // Interpreter and script are produced by this package
		cmd := execCommandContext(ctx, python, cmdArgs...)
		cmd.Dir = request.Root

		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		for key, value := range request.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
		}

		var runErr error
		output, runErr = cmd.CombinedOutput()
		return runErr
	})
	result.Output = outputLines(output)

	if request.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s", strings.Join(result.Command, " ")),
			fmt.Sprintf("Working directory: %s", request.Root))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, &CompileError{Compiler: c.Name(), Output: string(output), Err: err}
		}
		return result, err
	}
	return result, nil
}

// hideProjectFile moves pyproject.toml aside while fn runs so setuptools
// does not read project metadata it cannot handle. The file is always
// restored.
func hideProjectFile(root string, fn func() error) (err error) {
	projectFile := filepath.Join(root, ProjectFile)
	backup := projectFile + ".bak"

	if renameErr := os.Rename(projectFile, backup); renameErr != nil {
		if errors.Is(renameErr, fs.ErrNotExist) {
			return fn()
		}
		return renameErr
	}
	defer func() {
		if restoreErr := os.Rename(backup, projectFile); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()

	return fn()
}
