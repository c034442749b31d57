package mypycbuild

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const setupFileTemplate = `from setuptools import setup
from mypyc.build import mypycify

setup(
    name='mypyc_output',
    ext_modules=mypycify(
        [%s
        ],%s
    ),%s
)
`

var pythonIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ConstructSetupFile renders the setuptools script that drives mypyc.
//
// args are passed to mypycify as its path list, so mypy flags come first and
// module paths after them. options become keyword arguments in key order.
// A non-empty packageSource maps the root package namespace onto that
// directory.
func ConstructSetupFile(packageSource string, args []string, options map[string]any) (string, error) {
	var argLines strings.Builder
	for _, arg := range args {
		argLines.WriteString("\n            ")
		argLines.WriteString(pythonString(arg))
		argLines.WriteString(",")
	}

	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var optionLines strings.Builder
	for _, key := range keys {
		if !pythonIdentifier.MatchString(key) {
			return "", valueErrorf(optionOptions, 0,
				"Option `%s.%s` for build hook `%s` is not a valid keyword argument", optionOptions, key, PluginName)
		}
		literal, err := pythonLiteral(options[key])
		if err != nil {
			return "", valueErrorf(optionOptions, 0,
				"Option `%s.%s` for build hook `%s`: %v", optionOptions, key, PluginName, err)
		}
		fmt.Fprintf(&optionLines, "\n        %s=%s,", key, literal)
	}

	var packageDir string
	if packageSource != "" {
		packageDir = fmt.Sprintf("\n    package_dir={'': %s},", pythonString(packageSource))
	}

	return fmt.Sprintf(setupFileTemplate, argLines.String(), optionLines.String(), packageDir), nil
}

// pythonLiteral renders a TOML-decoded value as a Python expression.
func pythonLiteral(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "None", nil
	case string:
		return pythonString(v), nil
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return pythonFloat(v), nil
	case []string:
		items := make([]any, len(v))
		for i, s := range v {
			items[i] = s
		}
		return pythonLiteral(items)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			literal, err := pythonLiteral(item)
			if err != nil {
				return "", err
			}
			parts[i] = literal
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, key := range keys {
			literal, err := pythonLiteral(v[key])
			if err != nil {
				return "", err
			}
			parts[i] = pythonString(key) + ": " + literal
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", value)
	}
}

func pythonFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "float('nan')"
	case math.IsInf(f, 1):
		return "float('inf')"
	case math.IsInf(f, -1):
		return "float('-inf')"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// pythonString quotes s the way Python's repr does for plain strings.
func pythonString(s string) string {
	quote := '\''
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == quote:
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}
