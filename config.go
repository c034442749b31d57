package mypycbuild

import (
	"os"
	"path/filepath"
)

// PluginName is the name the hook is registered and configured under.
const PluginName = "mypyc"

// BuildDirEnv relocates the intermediate build tree. It takes precedence over
// the `build-dir` entry of the `options` table.
const BuildDirEnv = "HATCH_MYPYC_BUILD_DIR"

// Option keys recognized in the hook table.
const (
	optionMypyArgs = "mypy-args"
	optionOptions  = "options"
	optionInclude  = "include"
	optionExclude  = "exclude"

	compilerOptionSeparate = "separate"
	compilerOptionBuildDir = "build-dir"
)

// lookupEnv is replaced in tests.
var lookupEnv = os.LookupEnv

// lazy holds a value that is resolved at most once.
type lazy[T any] struct {
	resolved bool
	value    T
	err      error
}

func (l *lazy[T]) get(resolve func() (T, error)) (T, error) {
	if !l.resolved {
		l.value, l.err = resolve()
		l.resolved = true
	}
	return l.value, l.err
}

// Options validates the raw hook table of a single build.
//
// Each accessor validates its option the first time it is called and returns
// the same value on every later call. Options is not safe for concurrent use;
// a build owns exactly one instance.
type Options struct {
	raw map[string]any

	mypyArgs   lazy[[]string]
	compiler   lazy[map[string]any]
	include    lazy[[]string]
	exclude    lazy[[]string]
	separation lazy[bool]
	buildDir   lazy[string]
}

// NewOptions wraps a raw hook table, typically decoded from pyproject.toml.
// A nil table is treated as empty.
func NewOptions(raw map[string]any) *Options {
	if raw == nil {
		raw = map[string]any{}
	}
	return &Options{raw: raw}
}

// MypyArgs returns the extra arguments handed to mypy ahead of the modules.
func (o *Options) MypyArgs() ([]string, error) {
	return o.mypyArgs.get(func() ([]string, error) {
		return stringArray(o.raw, optionMypyArgs, "Argument")
	})
}

// CompilerOptions returns the `options` table. Values are forwarded to the
// compiler verbatim.
func (o *Options) CompilerOptions() (map[string]any, error) {
	return o.compiler.get(func() (map[string]any, error) {
		value, ok := o.raw[optionOptions]
		if !ok {
			return map[string]any{}, nil
		}
		table, ok := value.(map[string]any)
		if !ok {
			return nil, typeErrorf(optionOptions, 0,
				"Option `%s` for build hook `%s` must be a table", optionOptions, PluginName)
		}
		return table, nil
	})
}

// Include returns the hook's own include patterns.
func (o *Options) Include() ([]string, error) {
	return o.include.get(func() ([]string, error) {
		return stringArray(o.raw, optionInclude, "Pattern")
	})
}

// Exclude returns the hook's own exclude patterns.
func (o *Options) Exclude() ([]string, error) {
	return o.exclude.get(func() ([]string, error) {
		return stringArray(o.raw, optionExclude, "Pattern")
	})
}

// Separated reports whether every module gets its own runtime library.
// Any `separate` value other than a missing key or false enables it, so
// explicit module groups count as separated too.
func (o *Options) Separated() (bool, error) {
	return o.separation.get(func() (bool, error) {
		options, err := o.CompilerOptions()
		if err != nil {
			return false, err
		}
		value, ok := options[compilerOptionSeparate]
		if !ok {
			return false, nil
		}
		if b, isBool := value.(bool); isBool && !b {
			return false, nil
		}
		return true, nil
	})
}

// BuildDir returns the absolute intermediate build directory, or "" when the
// compiler should build inside the temporary working area.
func (o *Options) BuildDir(root string) (string, error) {
	return o.buildDir.get(func() (string, error) {
		options, err := o.CompilerOptions()
		if err != nil {
			return "", err
		}

		dir, ok := lookupEnv(BuildDirEnv)
		if !ok {
			if value, present := options[compilerOptionBuildDir]; present {
				s, isString := value.(string)
				if !isString {
					return "", typeErrorf(compilerOptionBuildDir, 0,
						"Option `%s.%s` for build hook `%s` must be a string",
						optionOptions, compilerOptionBuildDir, PluginName)
				}
				dir = s
			}
		}

		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		return dir, nil
	})
}

// Validate resolves every option and returns the first error found.
func (o *Options) Validate() error {
	if _, err := o.MypyArgs(); err != nil {
		return err
	}
	if _, err := o.CompilerOptions(); err != nil {
		return err
	}
	if _, err := o.Include(); err != nil {
		return err
	}
	if _, err := o.Exclude(); err != nil {
		return err
	}
	_, err := o.Separated()
	return err
}

// stringArray validates an optional array of non-empty strings. element names
// the entries in error messages ("Argument", "Pattern").
func stringArray(raw map[string]any, option, element string) ([]string, error) {
	value, ok := raw[option]
	if !ok {
		return []string{}, nil
	}

	switch items := value.(type) {
	case []string:
		for i, item := range items {
			if item == "" {
				return nil, emptyElementError(option, element, i+1)
			}
		}
		return items, nil
	case []any:
		result := make([]string, 0, len(items))
		for i, item := range items {
			s, isString := item.(string)
			if !isString {
				return nil, typeErrorf(option, i+1,
					"%s #%d of option `%s` for build hook `%s` must be a string",
					element, i+1, option, PluginName)
			}
			if s == "" {
				return nil, emptyElementError(option, element, i+1)
			}
			result = append(result, s)
		}
		return result, nil
	default:
		return nil, typeErrorf(option, 0,
			"Option `%s` for build hook `%s` must be an array", option, PluginName)
	}
}

func emptyElementError(option, element string, index int) error {
	return valueErrorf(option, index,
		"%s #%d of option `%s` for build hook `%s` cannot be an empty string",
		element, index, option, PluginName)
}
