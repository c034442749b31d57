package mypycbuild

import (
	"errors"
	"strings"
	"testing"
)

func stubLookPath(t *testing.T, available map[string]string) {
	t.Helper()
	origLookPath := execLookPath
	t.Cleanup(func() { execLookPath = origLookPath })

	execLookPath = func(name string) (string, error) {
		if path, ok := available[name]; ok {
			return path, nil
		}
		return "", errors.New("not found")
	}
}

func TestCheckRequiredTools(t *testing.T) {
	stubLookPath(t, map[string]string{"python": "/usr/bin/python"})

	testCases := []struct {
		name         string
		requirements []ToolRequirement
		errContains  string
	}{
		{
			name:         "alternative satisfies requirement",
			requirements: []ToolRequirement{{Name: "python3", Alternatives: []string{"python"}}},
		},
		{
			name:         "optional tool missing",
			requirements: []ToolRequirement{{Name: "ccache", Optional: true}},
		},
		{
			name:         "single missing tool",
			requirements: []ToolRequirement{{Name: "cc", Purpose: "C compiler"}},
			errContains:  "cc (C compiler) not found in PATH",
		},
		{
			name: "multiple missing tools",
			requirements: []ToolRequirement{
				{Name: "cc", Purpose: "C compiler"},
				{Name: "mypy"},
			},
			errContains: "missing required tools: cc (C compiler), mypy",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckRequiredTools(tc.requirements)
			if tc.errContains == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errContains) {
				t.Errorf("expected error containing %q, got %v", tc.errContains, err)
			}
		})
	}
}

func TestCheckToolAvailable(t *testing.T) {
	stubLookPath(t, map[string]string{"python3": "/usr/bin/python3"})

	if err := CheckToolAvailable("python3"); err != nil {
		t.Errorf("expected python3 to be available, got %v", err)
	}
	if err := CheckToolAvailable("pypy3"); err == nil || err.Error() != "pypy3 not found in PATH" {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestResolvePython(t *testing.T) {
	stubLookPath(t, map[string]string{"python": "/opt/bin/python", "py": `C:\Windows\py.exe`})

	explicit, err := ResolvePython("/custom/python")
	if err != nil || explicit != "/custom/python" {
		t.Errorf("expected explicit interpreter, got %q, %v", explicit, err)
	}

	found, err := ResolvePython("")
	if err != nil {
		t.Fatalf("ResolvePython returned error: %v", err)
	}
	if found != "/opt/bin/python" {
		t.Errorf("expected /opt/bin/python, got %q", found)
	}

	stubLookPath(t, nil)
	if _, err := ResolvePython(""); err == nil {
		t.Error("expected error when no interpreter is installed")
	}
}
