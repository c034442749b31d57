package mypycbuild

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every *ConfigError unwraps to exactly one of these.
var (
	ErrType  = errors.New("type error")
	ErrValue = errors.New("value error")
)

// ErrIncludeRequired is returned when neither the hook nor the build target
// declares anything to compile.
var ErrIncludeRequired = errors.New("include is required")

// ErrNoTarget is returned when a hook needs a build target it was not given.
var ErrNoTarget = errors.New("no build target")

// ConfigError reports an invalid hook option.
//
// Kind is ErrType or ErrValue. Index is the 1-based position of the offending
// element for array options and 0 when the option as a whole is invalid.
type ConfigError struct {
	Kind   error
	Option string
	Index  int
	Msg    string
	cause  error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s: option `%s`", e.Kind, e.Option)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func typeErrorf(option string, index int, format string, args ...any) error {
	return &ConfigError{Kind: ErrType, Option: option, Index: index, Msg: fmt.Sprintf(format, args...)}
}

func valueErrorf(option string, index int, format string, args ...any) error {
	return &ConfigError{Kind: ErrValue, Option: option, Index: index, Msg: fmt.Sprintf(format, args...)}
}

func includeRequiredError(target string) error {
	return &ConfigError{
		Kind:   ErrValue,
		Option: "include",
		Msg: fmt.Sprintf(
			"Option `include` for build hook `%s` is empty and target `%s` declares no include rules: %s",
			PluginName, target, ErrIncludeRequired,
		),
		cause: ErrIncludeRequired,
	}
}

// CompileError is returned when the compiler exits with a non-zero status.
// Output holds the merged stdout and stderr of the process, unmodified.
type CompileError struct {
	Compiler string
	Output   string
	Err      error
}

func (e *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error while invoking %s", e.Compiler)
	if e.Err != nil {
		fmt.Fprintf(&b, " (%v)", e.Err)
	}
	b.WriteString(":\n")
	b.WriteString(e.Output)
	return b.String()
}

func (e *CompileError) Unwrap() error { return e.Err }
