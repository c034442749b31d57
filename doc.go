// Package mypycbuild compiles the Python modules of a wheel build into native
// extensions with mypyc.
//
// The package is a build hook for Hatch-style packaging: it runs before a
// wheel is assembled, compiles the selected modules in place, and records the
// native files in the build manifest so they ship with the wheel.
//
// # Components
//
// The hook is built from four parts:
//   - Options - validates the `[tool.hatch.build.hooks.mypyc]` table
//   - Selector - chooses the modules to compile using gitignore-style rules
//   - ArtifactMapper - derives the globs identifying compiled output
//   - MypycHook - orchestrates staging, compiling and finalizing a build
//
// # Basic Usage
//
// Load the project and run the configured hooks for the wheel target:
//
//	project, err := mypycbuild.LoadProject("/path/to/project")
//	if err != nil {
//	    return err
//	}
//
//	registry := mypycbuild.NewHookRegistry()
//	data, err := registry.InitializeAll(ctx, project, mypycbuild.TargetWheel, "1.0.0",
//	    mypycbuild.BuildConfig{Verbose: true})
//
// The returned BuildData lists the artifact patterns and forced inclusions
// the packager must add to the wheel.
//
// # Architecture
//
//	HookRegistry
//	└── MypycHook
//	    ├── Options (hook table)
//	    ├── Selector (BuildTarget + include/exclude)
//	    ├── ArtifactMapper (globs, shared runtime)
//	    └── Compiler
//	        └── SetuptoolsCompiler (setup.py + build_ext)
//
// # Configuration
//
// The hook table accepts:
//   - mypy-args: extra arguments passed to mypy
//   - options: keyword arguments forwarded to mypycify
//   - include, exclude: gitignore-style patterns narrowing the selection
//
// The `build-dir` entry of `options`, or the HATCH_MYPYC_BUILD_DIR
// environment variable, keeps intermediate build trees between builds.
//
// # Requirements
//
// Requires Go 1.25 or later, and a Python interpreter with mypy and
// setuptools installed at build time.
//
// # Platform Support
//
// Linux and macOS produce ".so" extensions, Windows produces ".pyd".
package mypycbuild
