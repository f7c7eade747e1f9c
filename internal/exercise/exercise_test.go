package exercise

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jiki/internal/assertor"
	"jiki/internal/interpreter"
)

const mazeTOML = `
name = "maze"
naming = "camelCase"

[limits]
max_total_loop_iterations = 50

[features]
exclude_tokens = ["while"]
allow_truthiness = true

[[functions]]
name = "move"
description = "moves one square"
finish_after_calls = 3

[[functions]]
name = "getPosition"
returns = 7
`

const mazeYAML = `
name: maze
naming: camelCase
limits:
  max_total_loop_iterations: 50
features:
  exclude_tokens: [while]
  allow_truthiness: true
functions:
  - name: move
    description: moves one square
    finish_after_calls: 3
  - name: getPosition
    returns: 7
`

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		format Format
		input  string
	}{
		{TOML, mazeTOML},
		{YAML, mazeYAML},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			ex, err := Decode(strings.NewReader(tt.input), tt.format)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if ex.Name != "maze" {
				t.Errorf("expected name maze, got %q", ex.Name)
			}
			if ex.Limits.MaxTotalLoopIterations != 50 {
				t.Errorf("expected 50 iterations, got %d", ex.Limits.MaxTotalLoopIterations)
			}
			if !ex.Features.AllowTruthiness || ex.Features.TokenAllowed("while") {
				t.Errorf("features not decoded: %+v", ex.Features)
			}
			if len(ex.Functions) != 2 || ex.Functions[0].FinishAfterCalls != 3 {
				t.Fatalf("functions not decoded: %+v", ex.Functions)
			}

			opts := ex.Options()
			if opts.Naming != assertor.CamelCase {
				t.Errorf("expected camelCase naming")
			}
			if opts.MaxTotalLoopIterations != 50 || len(opts.ExternalFunctions) != 2 {
				t.Errorf("options not built: %+v", opts)
			}
		})
	}
}

func TestScriptedFunctionsDriveTheRun(t *testing.T) {
	ex, err := Decode(strings.NewReader(mazeTOML), TOML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	src := "set steps to 0\nrepeat do\n  move()\n  change steps to steps + 1\nend\nlog getPosition()\nlog steps"
	result := interpreter.InterpretSource(src, ex.Options())
	if !result.Success {
		t.Fatalf("expected success, got %v %v", result.Error, result.ErrorFrames())
	}

	n := len(result.Frames)
	if got := result.Frames[n-2].Result.Inspect(); got != "7" {
		t.Errorf("expected getPosition to return 7, got %s", got)
	}
	// the third move ends the loop before steps is changed
	if got := result.Frames[n-1].Result.Inspect(); got != "2" {
		t.Errorf("expected 2 steps, got %s", got)
	}

	// a second run starts counting again
	again := interpreter.InterpretSource(src, ex.Options())
	if len(again.Frames) != n {
		t.Errorf("expected the same trace, got %d frames instead of %d", len(again.Frames), n)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		issue string
	}{
		{"bad naming", "naming = \"kebab\"", "unknown naming convention"},
		{"unnamed function", "[[functions]]\narity = 1", "has no name"},
		{"duplicate function", "[[functions]]\nname = \"a\"\n[[functions]]\nname = \"a\"", "declared twice"},
		{"negative arity", "[[functions]]\nname = \"a\"\narity = -1", "negative arity"},
		{"negative limit", "[limits]\nmax_call_depth = -1", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), TOML)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if !strings.Contains(verr.Error(), tt.issue) {
				t.Errorf("expected %q in %q", tt.issue, verr.Error())
			}
		})
	}
}

func TestUnknownKeysAreRejected(t *testing.T) {
	if _, err := Decode(strings.NewReader("nmae = \"typo\""), TOML); err == nil {
		t.Errorf("expected an error for an unknown TOML key")
	}
	if _, err := Decode(strings.NewReader("nmae: typo"), YAML); err == nil {
		t.Errorf("expected an error for an unknown YAML key")
	}
	if _, err := Decode(strings.NewReader(""), YAML); err == nil {
		t.Errorf("expected an error for an empty YAML file")
	}
}

func TestLoadPicksTheDecoderFromTheExtension(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{"maze.toml": mazeTOML, "maze.yml": mazeYAML} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		ex, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if ex.Path != path || ex.Name != "maze" {
			t.Errorf("%s: unexpected exercise %+v", name, ex)
		}
	}

	if _, err := Load(filepath.Join(dir, "maze.json")); err == nil {
		t.Errorf("expected an error for an unsupported extension")
	}
	if _, err := Load(filepath.Join(dir, "missing.toml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}
