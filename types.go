package mypycbuild

import (
	"context"

	"github.com/charmbracelet/log"
)

// BuildResult contains the output and status of a compile run.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from the compiler process (stdout/stderr merged)
//   - Modules handed to the compiler, relative to the project root
//   - Extensions list of compiled files found on disk (.so/.pyd)
//   - Error information if the build failed
type BuildResult struct {
	Success    bool     // True if build completed successfully
	Output     []string // Lines of output from the compiler process
	Modules    []string // Source files that were compiled
	Extensions []string // Compiled files matching the artifact globs
	Error      error    // Error if build failed, nil otherwise
}

// BuildData is the packaging manifest a hook contributes to.
//
// Hooks mutate it in place on success:
//   - InferTag asks the packager to derive a platform-specific tag
//   - PurePython false marks the package as containing native code
//   - Artifacts lists root-anchored globs of files to ship even if ignored
//   - ForceInclude maps absolute paths to their destination in the package
type BuildData struct {
	InferTag     bool              `json:"infer_tag"`
	PurePython   bool              `json:"pure_python"`
	Artifacts    []string          `json:"artifacts"`
	ForceInclude map[string]string `json:"force_include"`
}

// NewBuildData returns the manifest of a pure package with nothing extra.
func NewBuildData() *BuildData {
	return &BuildData{
		PurePython:   true,
		Artifacts:    []string{},
		ForceInclude: map[string]string{},
	}
}

// BuildConfig contains configuration for one build.
//
// Project layout:
//   - Root: absolute project root
//   - Target: the packaging target being built
//
// Hook configuration:
//   - HookConfig: the raw `[...hooks.mypyc]` table
//
// Toolchain:
//   - Compiler: compile boundary; defaults to a SetuptoolsCompiler
//   - PythonPath: interpreter for the default compiler
//   - CompiledExtension: native suffix; defaults from runtime.GOOS
//   - Env: extra environment variables for the compiler process
//
// Reporting:
//   - Logger: defaults to a stderr logger prefixed "mypyc"
//   - Verbose: record the compiler command line in the build output
type BuildConfig struct {
	Root   string
	Target BuildTarget

	HookConfig map[string]any

	Compiler          Compiler
	PythonPath        string
	CompiledExtension string
	Env               map[string]string

	Logger  *log.Logger
	Verbose bool
}

// CompileRequest is everything a Compiler needs for one invocation.
type CompileRequest struct {
	// Root is the project root and the working directory of the compiler.
	Root string

	// PackageSource is the source root relative to Root, or "".
	PackageSource string

	// Modules are forward-slash paths relative to Root.
	Modules []string

	// MypyArgs precede Modules in the compiler's path list.
	MypyArgs []string

	// Options are forwarded as keyword arguments, target_dir included.
	Options map[string]any

	// BuildLib and BuildTemp are the staged intermediate build trees.
	BuildLib  string
	BuildTemp string

	// ScratchDir is the temporary working area for generated files.
	ScratchDir string

	// ScriptPath is the driver script written by Prepare, if any.
	ScriptPath string

	Env     map[string]string
	Verbose bool
}

// CompileResult describes a finished compiler invocation.
type CompileResult struct {
	Output     []string // Lines of merged stdout/stderr
	Command    []string // Command line that was run
	ScriptPath string   // Generated driver script, if any
}

// BuildSteps defines the staged pipeline run by runStagedBuild.
//
// The pipeline mirrors the orchestrator states:
//  1. Stage: prepare the compile request inside the working area
//  2. Compile: run the compiler
//  3. Finalize: record the results in the manifest
//
// Example usage in a hook:
//
//	return runStagedBuild(ctx, h.machine, buildDir, BuildSteps{
//	    StageFunc:    h.stage,
//	    CompileFunc:  h.compile,
//	    FinalizeFunc: h.finalize,
//	})
type BuildSteps struct {
	// StageFunc builds the compile request; dirs are already created.
	StageFunc func(ctx context.Context, dirs *BuildDirs, result *BuildResult) (*CompileRequest, error)

	// CompileFunc runs the compiler. Anything it needs to inspect on disk
	// after the compiler exits must be gathered here.
	CompileFunc func(ctx context.Context, request *CompileRequest, result *BuildResult) error

	// FinalizeFunc records a successful build. It must not fail.
	FinalizeFunc func(result *BuildResult)
}

// BuildDirs are the directories staged for one compile.
type BuildDirs struct {
	Scratch   string // temporary working area, removed after the build
	BuildLib  string // intermediate build tree
	BuildTemp string // compiler temp-file tree
}
