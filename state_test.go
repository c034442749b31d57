package mypycbuild

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStateTransitions(t *testing.T) {
	machine := newStateMachine()

	for _, to := range []State{StateStaging, StateCompiling, StateFinalizing, StateDone} {
		if err := machine.transition(to); err != nil {
			t.Fatalf("transition to %s failed: %v", to, err)
		}
	}

	expected := []State{StateIdle, StateStaging, StateCompiling, StateFinalizing, StateDone}
	if !reflect.DeepEqual(machine.history, expected) {
		t.Errorf("expected history %v, got %v", expected, machine.history)
	}
	if !machine.current.IsTerminal() {
		t.Error("expected DONE to be terminal")
	}
}

func TestStateDisallowedTransitions(t *testing.T) {
	testCases := []struct {
		from State
		to   State
	}{
		{StateIdle, StateCompiling},
		{StateIdle, StateFailed},
		{StateStaging, StateDone},
		{StateFinalizing, StateFailed},
		{StateDone, StateStaging},
		{StateFailed, StateStaging},
	}

	for _, tc := range testCases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			if isAllowedTransition(tc.from, tc.to) {
				t.Errorf("expected %s -> %s to be disallowed", tc.from, tc.to)
			}
		})
	}
}

func TestStateFail(t *testing.T) {
	machine := newStateMachine()
	machine.fail()
	if machine.current != StateIdle {
		t.Errorf("expected IDLE to stay IDLE, got %s", machine.current)
	}

	_ = machine.transition(StateStaging)
	machine.fail()
	if machine.current != StateFailed {
		t.Errorf("expected FAILED, got %s", machine.current)
	}

	machine.fail()
	if len(machine.history) != 3 {
		t.Errorf("expected failing twice to be recorded once, got %v", machine.history)
	}
}

func TestStateString(t *testing.T) {
	if StateCompiling.String() != "COMPILING" {
		t.Errorf("unexpected name %q", StateCompiling.String())
	}
	if State(42).String() != "State(42)" {
		t.Errorf("unexpected name %q", State(42).String())
	}
}

func TestRunStagedBuildRemovesWorkingArea(t *testing.T) {
	machine := newStateMachine()
	var scratch string

	result, err := runStagedBuild(context.Background(), machine, "", BuildSteps{
		StageFunc: func(_ context.Context, dirs *BuildDirs, _ *BuildResult) (*CompileRequest, error) {
			scratch = dirs.Scratch
			for _, dir := range []string{dirs.Scratch, dirs.BuildLib, dirs.BuildTemp} {
				if _, err := os.Stat(dir); err != nil {
					t.Errorf("expected %s to exist during staging: %v", dir, err)
				}
			}
			return &CompileRequest{ScratchDir: dirs.Scratch}, nil
		},
		CompileFunc: func(context.Context, *CompileRequest, *BuildResult) error {
			return nil
		},
		FinalizeFunc: func(*BuildResult) {},
	})
	if err != nil {
		t.Fatalf("runStagedBuild returned error: %v", err)
	}
	if !result.Success {
		t.Error("expected success")
	}
	if machine.current != StateDone {
		t.Errorf("expected DONE, got %s", machine.current)
	}
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("expected working area %s to be removed, got %v", scratch, err)
	}
}

func TestRunStagedBuildFailure(t *testing.T) {
	machine := newStateMachine()
	compileErr := errors.New("boom")
	finalized := false
	var scratch string

	result, err := runStagedBuild(context.Background(), machine, "", BuildSteps{
		StageFunc: func(_ context.Context, dirs *BuildDirs, _ *BuildResult) (*CompileRequest, error) {
			scratch = dirs.Scratch
			return &CompileRequest{}, nil
		},
		CompileFunc: func(context.Context, *CompileRequest, *BuildResult) error {
			return compileErr
		},
		FinalizeFunc: func(*BuildResult) { finalized = true },
	})
	if !errors.Is(err, compileErr) {
		t.Fatalf("expected compile error, got %v", err)
	}
	if result.Success || result.Error == nil {
		t.Error("expected failed result")
	}
	if finalized {
		t.Error("finalize must not run after a failed compile")
	}
	if machine.current != StateFailed {
		t.Errorf("expected FAILED, got %s", machine.current)
	}
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("expected working area %s to be removed, got %v", scratch, err)
	}

	// A finished machine cannot be reused.
	if _, err := runStagedBuild(context.Background(), machine, "", BuildSteps{}); err == nil {
		t.Error("expected second run to be rejected")
	}
}

func TestRunStagedBuildUsesPersistentBuildDir(t *testing.T) {
	buildDir := t.TempDir()
	machine := newStateMachine()

	_, err := runStagedBuild(context.Background(), machine, buildDir, BuildSteps{
		StageFunc: func(_ context.Context, dirs *BuildDirs, _ *BuildResult) (*CompileRequest, error) {
			if dirs.BuildLib != filepath.Join(buildDir, "build") {
				t.Errorf("unexpected build lib %s", dirs.BuildLib)
			}
			return &CompileRequest{}, nil
		},
		CompileFunc:  func(context.Context, *CompileRequest, *BuildResult) error { return nil },
		FinalizeFunc: func(*BuildResult) {},
	})
	if err != nil {
		t.Fatalf("runStagedBuild returned error: %v", err)
	}

	for _, name := range []string{"build", "tmp"} {
		if _, err := os.Stat(filepath.Join(buildDir, name)); err != nil {
			t.Errorf("expected %s to survive the build: %v", name, err)
		}
	}
}

func TestRunStagedBuildRemovesWorkingAreaOnPanic(t *testing.T) {
	var scratch string

	func() {
		defer func() {
			if recovered := recover(); recovered != "compiler crashed" {
				t.Errorf("expected compiler panic to propagate, got %v", recovered)
			}
		}()
		_, _ = runStagedBuild(context.Background(), newStateMachine(), "", BuildSteps{
			StageFunc: func(_ context.Context, dirs *BuildDirs, _ *BuildResult) (*CompileRequest, error) {
				scratch = dirs.Scratch
				return &CompileRequest{ScratchDir: dirs.Scratch}, nil
			},
			CompileFunc: func(context.Context, *CompileRequest, *BuildResult) error {
				panic("compiler crashed")
			},
			FinalizeFunc: func(*BuildResult) {},
		})
	}()

	if scratch == "" {
		t.Fatal("expected staging to run")
	}
	if _, err := os.Stat(scratch); !os.IsNotExist(err) {
		t.Errorf("expected working area %s to be removed, got %v", scratch, err)
	}
}
