package mypycbuild

import (
	"context"
	"os"
	"runtime"
	"slices"

	"github.com/charmbracelet/log"
)

const installTypesArg = "--install-types"

// MypycHook compiles the selected modules of a wheel build with mypyc.
//
// Every derived value (options, selection, globs) is computed on first use
// and kept for the lifetime of the hook, which is one packaging run.
type MypycHook struct {
	root      string
	target    BuildTarget
	options   *Options
	compiler  Compiler
	extension string
	env       map[string]string
	verbose   bool
	logger    *log.Logger
	machine   *stateMachine

	packageSource    lazy[string]
	selector         lazy[*Selector]
	includedFiles    lazy[[]string]
	mapper           lazy[ArtifactMapper]
	artifactGlobs    lazy[[]string]
	artifactPatterns lazy[[]string]
}

// NewMypycHook creates the hook for one build. Without config.Target the
// hook has nothing to select: Initialize is a no-op and the file and
// artifact accessors return ErrNoTarget.
func NewMypycHook(config *BuildConfig) *MypycHook {
	root := config.Root
	if root == "" && config.Target != nil {
		root = config.Target.Root()
	}

	compiler := config.Compiler
	if compiler == nil {
		compiler = &SetuptoolsCompiler{PythonPath: config.PythonPath}
	}

	extension := config.CompiledExtension
	if extension == "" {
		extension = CompiledExtension(runtime.GOOS)
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: PluginName})
	}

	return &MypycHook{
		root:      root,
		target:    config.Target,
		options:   NewOptions(config.HookConfig),
		compiler:  compiler,
		extension: extension,
		env:       config.Env,
		verbose:   config.Verbose,
		logger:    logger,
		machine:   newStateMachine(),
	}
}

// Name returns the hook name
func (h *MypycHook) Name() string {
	return PluginName
}

// Options returns the validated hook options.
func (h *MypycHook) Options() *Options {
	return h.options
}

// State returns the current orchestrator state.
func (h *MypycHook) State() State {
	return h.machine.current
}

// CompiledExtension returns the native suffix in use.
func (h *MypycHook) CompiledExtension() string {
	return h.extension
}

// PackageSource returns the package source root; see PackageSource.
func (h *MypycHook) PackageSource() string {
	source, _ := h.packageSource.get(func() (string, error) {
		if h.target == nil {
			return "", nil
		}
		sources := h.target.Sources()
		if len(sources) > 1 {
			h.logger.Warn("multiple sources declared, only the first is used", "sources", sources)
		}
		return PackageSource(h.target), nil
	})
	return source
}

// IncludedFiles returns the modules to compile, relative to the project root
// in forward-slash form.
func (h *MypycHook) IncludedFiles() ([]string, error) {
	return h.includedFiles.get(func() ([]string, error) {
		selector, err := h.fileSelector()
		if err != nil {
			return nil, err
		}
		return selector.Select()
	})
}

func (h *MypycHook) fileSelector() (*Selector, error) {
	return h.selector.get(func() (*Selector, error) {
		if h.target == nil {
			return nil, ErrNoTarget
		}
		include, err := h.options.Include()
		if err != nil {
			return nil, err
		}
		exclude, err := h.options.Exclude()
		if err != nil {
			return nil, err
		}
		return NewSelector(h.target, include, exclude)
	})
}

// ArtifactMapper returns the mapper configured for this build.
func (h *MypycHook) ArtifactMapper() (ArtifactMapper, error) {
	return h.mapper.get(func() (ArtifactMapper, error) {
		separated, err := h.options.Separated()
		if err != nil {
			return ArtifactMapper{}, err
		}
		return ArtifactMapper{
			Extension:     h.extension,
			Separated:     separated,
			PackageSource: h.PackageSource(),
		}, nil
	})
}

// ArtifactGlobs returns the root-relative globs of everything the build
// produces.
func (h *MypycHook) ArtifactGlobs() ([]string, error) {
	return h.artifactGlobs.get(func() ([]string, error) {
		files, err := h.IncludedFiles()
		if err != nil {
			return nil, err
		}
		mapper, err := h.ArtifactMapper()
		if err != nil {
			return nil, err
		}
		return mapper.Globs(files), nil
	})
}

// ArtifactPatterns returns the artifact globs as registered in the manifest.
func (h *MypycHook) ArtifactPatterns() ([]string, error) {
	return h.artifactPatterns.get(func() ([]string, error) {
		files, err := h.IncludedFiles()
		if err != nil {
			return nil, err
		}
		mapper, err := h.ArtifactMapper()
		if err != nil {
			return nil, err
		}
		return mapper.Patterns(files), nil
	})
}

// Clean removes every file matching the artifact globs.
func (h *MypycHook) Clean(_ context.Context, _ []string) error {
	globs, err := h.ArtifactGlobs()
	if err != nil {
		return err
	}
	removed, err := CleanArtifacts(h.root, globs)
	for _, path := range removed {
		h.logger.Debug("removed artifact", "path", path)
	}
	return err
}

// Initialize compiles the selected modules and records the artifacts in
// data. It does nothing unless the target is a wheel.
func (h *MypycHook) Initialize(ctx context.Context, version string, data *BuildData) error {
	if h.target == nil || h.target.Name() != TargetWheel {
		return nil
	}

	// Configuration errors surface before anything touches the disk.
	if err := h.options.Validate(); err != nil {
		return err
	}
	patterns, err := h.ArtifactPatterns()
	if err != nil {
		return err
	}
	buildDir, err := h.options.BuildDir(h.root)
	if err != nil {
		return err
	}

	var inclusion map[string]string
	result, err := runStagedBuild(ctx, h.machine, buildDir, BuildSteps{
		StageFunc: func(ctx context.Context, dirs *BuildDirs, result *BuildResult) (*CompileRequest, error) {
			return h.stage(ctx, version, dirs, result)
		},
		CompileFunc: func(ctx context.Context, request *CompileRequest, result *BuildResult) error {
			var compileErr error
			inclusion, compileErr = h.compile(ctx, request, result)
			return compileErr
		},
		FinalizeFunc: func(result *BuildResult) {
			h.finalize(data, patterns, inclusion)
		},
	})
	if err != nil {
		h.logger.Error("build failed", "state", h.machine.current, "err", err)
		return err
	}

	h.logger.Info("compiled modules", "modules", len(result.Modules), "artifacts", len(result.Extensions))
	return nil
}

// stage prepares the compile request and cleans stale artifacts. The exact
// file names the interpreter produces are only known after the fact, so
// leftovers from other interpreters or platforms must go first.
func (h *MypycHook) stage(ctx context.Context, version string, dirs *BuildDirs, result *BuildResult) (*CompileRequest, error) {
	files, err := h.IncludedFiles()
	if err != nil {
		return nil, err
	}
	result.Modules = files

	mypyArgs, err := h.mypyArgs()
	if err != nil {
		return nil, err
	}

	options, err := h.options.CompilerOptions()
	if err != nil {
		return nil, err
	}
	forwarded := make(map[string]any, len(options)+1)
	for key, value := range options {
		if key == compilerOptionBuildDir {
			continue
		}
		forwarded[key] = value
	}
	forwarded["target_dir"] = dirs.BuildLib

	if err := h.Clean(ctx, []string{version}); err != nil {
		return nil, err
	}

	request := &CompileRequest{
		Root:          h.root,
		PackageSource: h.PackageSource(),
		Modules:       NormalizePaths(files),
		MypyArgs:      mypyArgs,
		Options:       forwarded,
		BuildLib:      dirs.BuildLib,
		BuildTemp:     dirs.BuildTemp,
		ScratchDir:    dirs.Scratch,
		Env:           h.env,
		Verbose:       h.verbose,
	}
	if preparer, ok := h.compiler.(Preparer); ok {
		if err := preparer.Prepare(request); err != nil {
			return nil, err
		}
	}

	h.logger.Debug("staged build", "modules", files, "scratch", dirs.Scratch, "script", request.ScriptPath)
	return request, nil
}

// mypyArgs drops --install-types outside a virtual environment.
func (h *MypycHook) mypyArgs() ([]string, error) {
	args, err := h.options.MypyArgs()
	if err != nil {
		return nil, err
	}
	if inVirtualEnv() || !slices.Contains(args, installTypesArg) {
		return args, nil
	}

	h.logger.Warn("ignoring mypy argument outside a virtual environment", "arg", installTypesArg)
	kept := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != installTypesArg {
			kept = append(kept, arg)
		}
	}
	return kept, nil
}

func (h *MypycHook) compile(ctx context.Context, request *CompileRequest, result *BuildResult) (map[string]string, error) {
	if checker, ok := h.compiler.(ToolChecker); ok {
		if err := checker.CheckTools(); err != nil {
			return nil, err
		}
	}

	h.logger.Info("invoking compiler", "compiler", h.compiler.Name(), "modules", len(request.Modules))
	compiled, err := h.compiler.Compile(ctx, request)
	if compiled != nil {
		result.Output = append(result.Output, compiled.Output...)
		if len(compiled.Command) > 0 {
			h.logger.Debug("ran compiler", "command", compiled.Command)
		}
	}
	if err != nil {
		return nil, err
	}

	globs, err := h.ArtifactGlobs()
	if err != nil {
		return nil, err
	}
	if result.Extensions, err = FindArtifacts(h.root, globs); err != nil {
		return nil, err
	}

	mapper, err := h.ArtifactMapper()
	if err != nil {
		return nil, err
	}
	return mapper.ForcedInclusionMap(h.root)
}

func (h *MypycHook) finalize(data *BuildData, patterns []string, inclusion map[string]string) {
	data.InferTag = true
	data.PurePython = false
	data.Artifacts = append(data.Artifacts, patterns...)
	if data.ForceInclude == nil {
		data.ForceInclude = make(map[string]string, len(inclusion))
	}
	for source, dest := range inclusion {
		data.ForceInclude[source] = dest
	}
}

func inVirtualEnv() bool {
	for _, name := range []string{"VIRTUAL_ENV", "CONDA_PREFIX"} {
		if value, ok := lookupEnv(name); ok && value != "" {
			return true
		}
	}
	return false
}
