package mypycbuild

import (
	"context"
	"fmt"
)

// HookConstructor creates a hook for one build.
type HookConstructor func(config *BuildConfig) Hook

// HookRegistry manages the registration and creation of build hooks.
//
// The registry maps hook names, as used in `[tool.hatch.build.hooks.<name>]`
// tables, to constructors and provides methods to:
//   - Register new hooks
//   - Create the hook configured under a name
//   - Run every configured hook of a target in sequence
//
// # Usage
//
// Create a registry with the standard hooks:
//
//	registry := mypycbuild.NewHookRegistry()
//
// Then run the hooks configured for a target:
//
//	data, err := registry.InitializeAll(ctx, project, "wheel", "1.0.0", base)
//
// # Thread Safety
//
// HookRegistry is NOT thread-safe for registration.
// Register all hooks before concurrent use.
type HookRegistry struct {
	names        []string
	constructors map[string]HookConstructor
}

// NewHookRegistry creates a registry with the mypyc hook registered.
func NewHookRegistry() *HookRegistry {
	registry := &HookRegistry{}
	registry.Register(PluginName, func(config *BuildConfig) Hook {
		return NewMypycHook(config)
	})
	return registry
}

// Register adds a hook constructor under name, replacing any previous one.
//
// Not thread-safe. Register all hooks before concurrent use.
func (r *HookRegistry) Register(name string, constructor HookConstructor) {
	if r.constructors == nil {
		r.constructors = make(map[string]HookConstructor)
	}
	if _, exists := r.constructors[name]; !exists {
		r.names = append(r.names, name)
	}
	r.constructors[name] = constructor
}

// ListHooks returns the registered hook names in registration order.
func (r *HookRegistry) ListHooks() []string {
	return append([]string{}, r.names...)
}

// HookFor creates the hook registered under name.
func (r *HookRegistry) HookFor(name string, config *BuildConfig) (Hook, error) {
	constructor, ok := r.constructors[name]
	if !ok {
		return nil, fmt.Errorf("no build hook registered as %q", name)
	}
	return constructor(config), nil
}

// Hooks creates every hook the project configures for target. base supplies
// the toolchain settings shared by all hooks; Root, Target and HookConfig are
// filled in per hook.
func (r *HookRegistry) Hooks(project *Project, target string, base BuildConfig) ([]Hook, error) {
	buildTarget, err := project.Target(target)
	if err != nil {
		return nil, err
	}

	var hooks []Hook
	for _, name := range project.ConfiguredHooks(target) {
		hookConfig, _ := project.HookConfig(target, name)

		config := base
		config.Root = project.Root
		config.Target = buildTarget
		config.HookConfig = hookConfig

		hook, err := r.HookFor(name, &config)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, hook)
	}
	return hooks, nil
}

// InitializeAll runs Initialize on every configured hook in name order and
// returns the resulting manifest. Processing stops at the first failure.
//
// # Context Cancellation
//
// The context is checked before each hook; a canceled context stops
// processing and its error is returned.
func (r *HookRegistry) InitializeAll(ctx context.Context, project *Project, target, version string, base BuildConfig) (*BuildData, error) {
	hooks, err := r.Hooks(project, target, base)
	if err != nil {
		return nil, err
	}

	data := NewBuildData()
	for _, hook := range hooks {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return data, ctxErr
		}
		if err := hook.Initialize(ctx, version, data); err != nil {
			return data, fmt.Errorf("build hook %s: %w", hook.Name(), err)
		}
	}
	return data, nil
}

// CleanAll runs Clean on every configured hook.
func (r *HookRegistry) CleanAll(ctx context.Context, project *Project, target string, versions []string, base BuildConfig) error {
	hooks, err := r.Hooks(project, target, base)
	if err != nil {
		return err
	}

	for _, hook := range hooks {
		if err := hook.Clean(ctx, versions); err != nil {
			return fmt.Errorf("clean hook %s: %w", hook.Name(), err)
		}
	}
	return nil
}
