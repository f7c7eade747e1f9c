package interpreter

import (
	"fmt"
	"testing"

	"jiki/internal/diagnostics"
	"jiki/internal/foreign"
	"jiki/internal/frames"
	"jiki/internal/language"
	"jiki/internal/object"
)

func TestCompileFailureHasNoFrames(t *testing.T) {
	result := InterpretSource("set x to", Options{})

	if result.Success {
		t.Errorf("expected failure")
	}
	if result.Error == nil || result.Error.Kind != diagnostics.KindSyntax {
		t.Fatalf("expected a syntax error, got %v", result.Error)
	}
	if result.Frames == nil || len(result.Frames) != 0 {
		t.Errorf("expected an empty frame list, got %v", result.Frames)
	}
	if !result.Assertors.AssertFunctionDefined("anything") || result.Assertors.CountLinesOfCode() != 0 {
		t.Errorf("assertors must fall back to safe defaults")
	}
}

func TestSuccessMeansNoErrorFrames(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		success bool
	}{
		{"clean", "set x to 1\nlog x", true},
		{"one fault", "set x to 1\nlog y\nlog x", false},
		{"fault in a function", "function f do\n  log 1 / 0\nend\nf()", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := InterpretSource(tt.input, Options{})
			if result.Success != tt.success {
				t.Errorf("expected success %v, got %v", tt.success, result.Success)
			}
			if (len(result.ErrorFrames()) == 0) != result.Success {
				t.Errorf("success must match the absence of ERROR frames")
			}
			if result.Error != nil {
				t.Errorf("continued runs carry no top-level error, got %v", result.Error)
			}
		})
	}
}

func TestExternalFunctions(t *testing.T) {
	position := 0
	move := foreign.Function{
		Name: "move",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			position++
			return object.NewNumber(float64(position)), nil
		},
	}

	result := InterpretSource("repeat 5 times do\n  move()\nend", Options{ExternalFunctions: []foreign.Function{move}})
	if !result.Success {
		t.Fatalf("expected success, got %v", result.ErrorFrames())
	}
	if position != 5 {
		t.Errorf("expected 5 moves, got %d", position)
	}
	if len(result.Frames) != 10 {
		t.Errorf("expected 10 frames, got %d", len(result.Frames))
	}
}

func TestStdlibIsOptIn(t *testing.T) {
	src := `log concatenate("a", "b")`

	without := InterpretSource(src, Options{})
	if without.Success {
		t.Errorf("concatenate should not exist without the stdlib")
	}

	with := InterpretSource(src, Options{IncludeStdlib: true})
	if !with.Success {
		t.Fatalf("expected success, got %v", with.ErrorFrames())
	}
	if got := with.Frames[0].Result.Inspect(); got != `"ab"` {
		t.Errorf("expected \"ab\", got %s", got)
	}
}

func TestDuplicateExternalFunction(t *testing.T) {
	fn := foreign.Function{
		Name: "concatenate",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			return nil, nil
		},
	}
	result := InterpretSource("log 1", Options{IncludeStdlib: true, ExternalFunctions: []foreign.Function{fn}})
	if result.Success || result.Error == nil || result.Error.Type != diagnostics.ExternalFunctionFailed {
		t.Fatalf("expected a registry error, got %v", result.Error)
	}
	errs := result.ErrorFrames()
	if len(result.Frames) != 1 || len(errs) != 1 {
		t.Fatalf("a compiled program reports setup failures as one ERROR frame, got %d frames", len(result.Frames))
	}
	if errs[0].Error != result.Error || errs[0].Line != 1 {
		t.Errorf("expected the frame to carry the registry error on line 1")
	}
}

func TestHaltIsReported(t *testing.T) {
	result := InterpretSource("while true do\nend\nlog 1", Options{MaxTotalLoopIterations: 10})

	if !result.Halted || result.Success {
		t.Fatalf("expected a halted, failed run")
	}
	if result.Error == nil || result.Error.Type != diagnostics.MaxTotalLoopIterationsExceeded {
		t.Errorf("expected the halt as the result error, got %v", result.Error)
	}
	last := result.Frames[len(result.Frames)-1]
	if last.Status != frames.ERROR || last.Error.Type != diagnostics.MaxTotalLoopIterationsExceeded {
		t.Errorf("the last frame must carry the halt")
	}
}

func TestHaltOnFirstError(t *testing.T) {
	result := InterpretSource("log y\nlog 2", Options{Features: language.Features{HaltOnFirstError: true}})
	if result.Halted {
		t.Errorf("a stop on the first fault is not a governor halt")
	}
	if result.Error == nil || result.Error.Type != diagnostics.VariableNotDeclared {
		t.Errorf("expected VariableNotDeclared, got %v", result.Error)
	}
	if len(result.Frames) != 1 {
		t.Errorf("expected 1 frame, got %d", len(result.Frames))
	}
}

func TestTokenAvailability(t *testing.T) {
	result := InterpretSource("while true do\nend", Options{Features: language.Features{ExcludeTokens: []string{"while"}}})
	if result.Error == nil || result.Error.Type != diagnostics.TokenDisabledByExercise {
		t.Errorf("expected TokenDisabledByExercise, got %v", result.Error)
	}
}

func TestAssertorsSeeTheProgram(t *testing.T) {
	result := InterpretSource("function turn_left do\nend\nturn_left()", Options{})
	if !result.Assertors.AssertFunctionDefined("turn_left") {
		t.Errorf("expected turn_left to be defined")
	}
	if !result.Assertors.AssertFunctionCalledOutsideOwnDefinition("turn_left") {
		t.Errorf("expected turn_left to be called")
	}
}

func TestInterpretAllRunsIndependently(t *testing.T) {
	var jobs []Job
	for i := 0; i < 20; i++ {
		jobs = append(jobs, Job{
			Source:  fmt.Sprintf("set total to 0\nrepeat %d times do\n  change total to total + 1\nend\nlog total", i),
			Options: Options{},
		})
	}

	results := InterpretAll(jobs, 4)
	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		if !r.Success {
			t.Errorf("job %d failed", i)
			continue
		}
		last := r.Frames[len(r.Frames)-1]
		if got := last.Result.Inspect(); got != fmt.Sprint(i) {
			t.Errorf("job %d: expected %d, got %s", i, i, got)
		}
		// set, then a bookkeeping and a change frame per iteration, then log
		if len(r.Frames) != 2+2*i {
			t.Errorf("job %d: expected %d frames, got %d", i, 2+2*i, len(r.Frames))
		}
	}
}

func TestDeterminism(t *testing.T) {
	src := "function fib with n do\n  if n < 2 do\n    return n\n  end\n  return fib(n - 1) + fib(n - 2)\nend\nlog fib(8)"
	a := InterpretSource(src, Options{})
	b := InterpretSource(src, Options{})
	if len(a.Frames) != len(b.Frames) {
		t.Fatalf("frame counts differ: %d vs %d", len(a.Frames), len(b.Frames))
	}
	for i := range a.Frames {
		if a.Frames[i].Time != b.Frames[i].Time || a.Frames[i].Description() != b.Frames[i].Description() {
			t.Errorf("frame %d differs", i)
		}
	}
	if got := a.Frames[len(a.Frames)-1].Result.Inspect(); got != "21" {
		t.Errorf("expected fib(8) = 21, got %s", got)
	}
}
