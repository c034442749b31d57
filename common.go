package mypycbuild

import (
	"context"
	"os"
	"path/filepath"
)

// runStagedBuild executes the staged compile pipeline.
//
// The pipeline owns the temporary working area: it is created outside the
// project tree before staging and removed when the pipeline returns, whether
// the build succeeded, the compiler failed, or a step panicked.
//
// # Process Flow
//
//  1. IDLE -> STAGING: create the working area and the build/tmp trees
//  2. Call StageFunc to prepare the compile request
//  3. STAGING -> COMPILING: call CompileFunc
//  4. COMPILING -> FINALIZING: call FinalizeFunc
//  5. FINALIZING -> DONE
//
// If any step fails, processing stops, the machine moves to FAILED and the
// error is returned with Success=false.
//
// # Build Directories
//
// When buildDir is empty both intermediate trees live inside the working
// area. Otherwise they are created under buildDir and survive the build.
func runStagedBuild(ctx context.Context, machine *stateMachine, buildDir string, steps BuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		Output:  []string{},
	}

	if err := machine.transition(StateStaging); err != nil {
		result.Error = err
		return result, err
	}

	err := withBuildDirs(buildDir, func(dirs *BuildDirs) error {
		// Step 1: Stage the compile request
		request, err := steps.StageFunc(ctx, dirs, result)
		if err != nil {
			return err
		}

		// Step 2: Compile
		if err := machine.transition(StateCompiling); err != nil {
			return err
		}
		return steps.CompileFunc(ctx, request, result)
	})
	if err != nil {
		machine.fail()
		result.Error = err
		return result, err
	}

	// Step 3: Finalize
	if err := machine.transition(StateFinalizing); err != nil {
		result.Error = err
		return result, err
	}
	steps.FinalizeFunc(result)

	if err := machine.transition(StateDone); err != nil {
		result.Error = err
		return result, err
	}

	result.Success = true
	return result, nil
}

// withBuildDirs creates the working area and calls fn with the staged
// directories. The working area is removed before withBuildDirs returns.
func withBuildDirs(buildDir string, fn func(dirs *BuildDirs) error) (err error) {
	scratch, err := os.MkdirTemp("", "mypyc-build-")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil && err == nil {
			err = rmErr
		}
	}()

	// Resolve symlinked temp roots (macOS /var -> /private/var) so generated
	// paths match what the compiler reports.
	resolved, err := filepath.EvalSymlinks(scratch)
	if err != nil {
		return err
	}

	intermediate := resolved
	if buildDir != "" {
		intermediate = buildDir
	}

	dirs := &BuildDirs{
		Scratch:   resolved,
		BuildLib:  filepath.Join(intermediate, "build"),
		BuildTemp: filepath.Join(intermediate, "tmp"),
	}
	for _, dir := range []string{dirs.BuildLib, dirs.BuildTemp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return fn(dirs)
}
