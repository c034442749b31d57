package mypycbuild

import "context"

// Hook defines the interface that all build hooks must implement.
//
// A hook is created for a single packaging run and takes part in it through
// two entry points.
//
// # Hook Lifecycle
//
//  1. Initialize() - called once before the target packages files; the hook
//     may compile sources and extend the manifest
//  2. Clean() - called when the packager cleans the project; the hook removes
//     everything it could have produced
//
// # Example Implementation
//
//	type StampHook struct{ root string }
//
//	func (h *StampHook) Name() string {
//	    return "stamp"
//	}
//
//	func (h *StampHook) Initialize(ctx context.Context, version string, data *BuildData) error {
//	    data.Artifacts = append(data.Artifacts, "/STAMP")
//	    return os.WriteFile(filepath.Join(h.root, "STAMP"), []byte(version), 0o644)
//	}
//
//	func (h *StampHook) Clean(ctx context.Context, versions []string) error {
//	    return os.Remove(filepath.Join(h.root, "STAMP"))
//	}
//
// # Thread Safety
//
// Hooks hold per-run state and are not safe for concurrent use.
type Hook interface {
	// Name returns the name the hook is configured under.
	Name() string

	// Initialize runs the hook for the given project version and records its
	// contribution in data. Hooks that do not apply to the current target
	// return nil without touching data.
	Initialize(ctx context.Context, version string, data *BuildData) error

	// Clean removes the files the hook produces.
	Clean(ctx context.Context, versions []string) error
}

// Compiler defines the compile boundary.
//
// Given the modules, mypy arguments and options in a CompileRequest, a
// compiler writes native extensions next to the sources (and the shared
// runtime library under the package source root) or fails with a
// *CompileError carrying the compiler's combined output.
//
// Implementations decide how the compiler is driven; SetuptoolsCompiler
// generates a setup script and runs it with a Python interpreter.
type Compiler interface {
	// Name returns the human-readable name of the compiler.
	//
	// This name is used in error messages and logs.
	Name() string

	// Compile runs one compilation and blocks until it finishes.
	Compile(ctx context.Context, request *CompileRequest) (*CompileResult, error)
}

// Preparer is implemented by compilers that generate files before running.
// The hook calls Prepare while staging, so a failure there never reaches the
// compile step.
type Preparer interface {
	Prepare(request *CompileRequest) error
}
