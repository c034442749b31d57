package mypycbuild

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

const testPythonPath = "/usr/bin/python3"

func helperCommand(exitCode int) func(context.Context, string, ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		_ = name
		_ = args
		cmdArgs := []string{"-test.run=TestHelperProcess", "--", strconv.Itoa(exitCode)}
		cmd := exec.CommandContext(ctx, os.Args[0], cmdArgs...) // #nosec G204 - helper process for testing
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	fmt.Println("running build_ext")
	if level := os.Getenv("MYPYC_OPT_LEVEL"); level != "" {
		fmt.Println("opt level " + level)
	}
	for i := 0; i < len(os.Args); i++ {
		if os.Args[i] == "--" && i+1 < len(os.Args) {
			code, err := strconv.Atoi(os.Args[i+1])
			if err != nil {
				os.Exit(1)
			}
			if code != 0 {
				fmt.Fprintln(os.Stderr, "error: mypy found type errors")
			}
			os.Exit(code)
		}
	}

	os.Exit(0)
}

func newCompileRequest(t *testing.T) *CompileRequest {
	t.Helper()
	root := t.TempDir()
	scratch := t.TempDir()
	touch(t, root, "my_app/__init__.py")
	if err := os.WriteFile(filepath.Join(root, ProjectFile), []byte("[project]\nname = \"my-app\"\n"), 0o600); err != nil {
		t.Fatalf("failed to write project file: %v", err)
	}

	return &CompileRequest{
		Root:       root,
		Modules:    []string{"my_app/__init__.py"},
		MypyArgs:   []string{"--strict"},
		Options:    map[string]any{"target_dir": filepath.Join(scratch, "build")},
		BuildLib:   filepath.Join(scratch, "build"),
		BuildTemp:  filepath.Join(scratch, "tmp"),
		ScratchDir: scratch,
	}
}

func TestSetuptoolsCompilerCompile(t *testing.T) {
	origCmdCtx := execCommandContext
	defer func() { execCommandContext = origCmdCtx }()

	var gotName string
	var gotArgs []string
	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotName, gotArgs = name, args
		return helperCommand(0)(ctx, name, args...)
	}

	request := newCompileRequest(t)
	compiler := &SetuptoolsCompiler{PythonPath: testPythonPath}

	result, err := compiler.Compile(context.Background(), request)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	setupFile := filepath.Join(request.ScratchDir, "setup.py")
	if result.ScriptPath != setupFile {
		t.Errorf("expected script at %s, got %s", setupFile, result.ScriptPath)
	}

	expectedArgs := []string{
		setupFile,
		"build_ext",
		"--inplace",
		"--build-lib", request.BuildLib,
		"--build-temp", request.BuildTemp,
	}
	if gotName != testPythonPath || !reflect.DeepEqual(gotArgs, expectedArgs) {
		t.Errorf("unexpected command %s %v", gotName, gotArgs)
	}
	if !reflect.DeepEqual(result.Command, append([]string{testPythonPath}, expectedArgs...)) {
		t.Errorf("unexpected recorded command %v", result.Command)
	}
	if !reflect.DeepEqual(result.Output, []string{"running build_ext"}) {
		t.Errorf("unexpected output %v", result.Output)
	}

	contents, err := os.ReadFile(setupFile)
	if err != nil {
		t.Fatalf("failed to read setup file: %v", err)
	}
	for _, fragment := range []string{"'--strict',", "'my_app/__init__.py',", "target_dir="} {
		if !strings.Contains(string(contents), fragment) {
			t.Errorf("expected setup file to contain %q:\n%s", fragment, contents)
		}
	}

	if _, err := os.Stat(filepath.Join(request.Root, ProjectFile)); err != nil {
		t.Errorf("expected project file to be restored: %v", err)
	}
}

func TestSetuptoolsCompilerCompileFailure(t *testing.T) {
	origCmdCtx := execCommandContext
	defer func() { execCommandContext = origCmdCtx }()
	execCommandContext = helperCommand(2)

	request := newCompileRequest(t)
	compiler := &SetuptoolsCompiler{PythonPath: testPythonPath}

	result, err := compiler.Compile(context.Background(), request)

	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("expected *CompileError, got %v", err)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 2 {
		t.Errorf("expected wrapped exit status 2, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Error while invoking Mypyc") {
		t.Errorf("unexpected error message %q", err.Error())
	}
	if !strings.Contains(compileErr.Output, "mypy found type errors") {
		t.Errorf("expected compiler output in error, got %q", compileErr.Output)
	}
	if len(result.Output) != 2 {
		t.Errorf("expected two output lines, got %v", result.Output)
	}
	if _, statErr := os.Stat(filepath.Join(request.Root, ProjectFile)); statErr != nil {
		t.Errorf("expected project file to be restored after failure: %v", statErr)
	}
}

func TestSetuptoolsCompilerVerboseOutput(t *testing.T) {
	origCmdCtx := execCommandContext
	defer func() { execCommandContext = origCmdCtx }()
	execCommandContext = helperCommand(0)

	request := newCompileRequest(t)
	request.Verbose = true

	result, err := (&SetuptoolsCompiler{PythonPath: testPythonPath}).Compile(context.Background(), request)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	last := result.Output[len(result.Output)-1]
	if last != "Working directory: "+request.Root {
		t.Errorf("expected working directory in verbose output, got %v", result.Output)
	}
}

func TestSetuptoolsCompilerPassesRequestEnv(t *testing.T) {
	origCmdCtx := execCommandContext
	defer func() { execCommandContext = origCmdCtx }()
	execCommandContext = helperCommand(0)

	request := newCompileRequest(t)
	request.Env = map[string]string{"MYPYC_OPT_LEVEL": "3"}

	result, err := (&SetuptoolsCompiler{PythonPath: testPythonPath}).Compile(context.Background(), request)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if !reflect.DeepEqual(result.Output, []string{"running build_ext", "opt level 3"}) {
		t.Errorf("expected request env to reach the interpreter, got %v", result.Output)
	}
}

func TestSetuptoolsCompilerPrepare(t *testing.T) {
	origCmdCtx := execCommandContext
	defer func() { execCommandContext = origCmdCtx }()

	var gotArgs []string
	execCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotArgs = args
		return helperCommand(0)(ctx, name, args...)
	}

	request := newCompileRequest(t)
	compiler := &SetuptoolsCompiler{PythonPath: testPythonPath}
	if err := compiler.Prepare(request); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}

	setupFile := filepath.Join(request.ScratchDir, "setup.py")
	if request.ScriptPath != setupFile {
		t.Fatalf("expected script path %s, got %s", setupFile, request.ScriptPath)
	}
	if err := os.WriteFile(setupFile, []byte("# prepared\n"), 0o600); err != nil {
		t.Fatalf("failed to overwrite setup file: %v", err)
	}

	if _, err := compiler.Compile(context.Background(), request); err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if len(gotArgs) == 0 || gotArgs[0] != setupFile {
		t.Errorf("expected the prepared script to run, got %v", gotArgs)
	}
	contents, err := os.ReadFile(setupFile)
	if err != nil || string(contents) != "# prepared\n" {
		t.Errorf("expected Compile to reuse the prepared script, got %q, %v", contents, err)
	}
}

func TestSetuptoolsCompilerPrepareWriteFailure(t *testing.T) {
	request := newCompileRequest(t)
	request.ScratchDir = filepath.Join(request.ScratchDir, "missing")

	if err := (&SetuptoolsCompiler{}).Prepare(request); err == nil {
		t.Error("expected error writing into a missing directory")
	}
	if request.ScriptPath != "" {
		t.Errorf("expected no script path after failure, got %q", request.ScriptPath)
	}
}

func TestHideProjectFile(t *testing.T) {
	root := t.TempDir()
	projectFile := filepath.Join(root, ProjectFile)
	if err := os.WriteFile(projectFile, []byte("[project]\n"), 0o600); err != nil {
		t.Fatalf("failed to write project file: %v", err)
	}

	fnErr := errors.New("compile failed")
	err := hideProjectFile(root, func() error {
		if _, statErr := os.Stat(projectFile); !os.IsNotExist(statErr) {
			t.Errorf("expected project file to be hidden, got %v", statErr)
		}
		return fnErr
	})
	if !errors.Is(err, fnErr) {
		t.Fatalf("expected fn error, got %v", err)
	}

	contents, readErr := os.ReadFile(projectFile)
	if readErr != nil || string(contents) != "[project]\n" {
		t.Errorf("expected project file restored intact, got %q, %v", contents, readErr)
	}
	if _, statErr := os.Stat(projectFile + ".bak"); !os.IsNotExist(statErr) {
		t.Errorf("expected backup to be gone, got %v", statErr)
	}
}

func TestHideProjectFileWithoutProject(t *testing.T) {
	called := false
	err := hideProjectFile(t.TempDir(), func() error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("expected fn to run without a project file, got called=%v err=%v", called, err)
	}
}

func TestSetuptoolsCompilerRequiredTools(t *testing.T) {
	explicit := (&SetuptoolsCompiler{PythonPath: testPythonPath}).RequiredTools()
	if len(explicit) != 1 || explicit[0].Name != testPythonPath {
		t.Errorf("expected explicit interpreter requirement, got %+v", explicit)
	}

	defaults := (&SetuptoolsCompiler{}).RequiredTools()
	if len(defaults) != 1 || len(defaults[0].Alternatives) == 0 {
		t.Errorf("expected interpreter with alternatives, got %+v", defaults)
	}
}
