// Package exercise loads the per-exercise configuration a learner program
// runs under: limits, language switches and scripted host functions.
package exercise

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"jiki/internal/assertor"
	"jiki/internal/foreign"
	"jiki/internal/governor"
	"jiki/internal/interpreter"
	"jiki/internal/language"
	"jiki/internal/object"
)

type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatOf picks the decoder from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("exercise: unsupported file type %q", filepath.Ext(path))
}

// FunctionSpec declares a scripted host function. Every call returns
// Returns; once it has been called FinishAfterCalls times it also signals
// that the exercise is finished.
type FunctionSpec struct {
	Name             string `toml:"name" yaml:"name"`
	Arity            int    `toml:"arity" yaml:"arity"`
	Description      string `toml:"description" yaml:"description"`
	Returns          any    `toml:"returns" yaml:"returns"`
	FinishAfterCalls int    `toml:"finish_after_calls" yaml:"finish_after_calls"`
}

type Exercise struct {
	Path string `toml:"-" yaml:"-"`

	Name          string            `toml:"name" yaml:"name"`
	Naming        string            `toml:"naming" yaml:"naming"`
	IncludeStdlib bool              `toml:"include_stdlib" yaml:"include_stdlib"`
	Limits        governor.Limits   `toml:"limits" yaml:"limits"`
	Features      language.Features `toml:"features" yaml:"features"`
	Functions     []FunctionSpec    `toml:"functions" yaml:"functions"`
}

// ValidationError collects every problem found in one file.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "exercise: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("exercise validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load reads and validates the exercise at path.
func Load(path string) (*Exercise, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("exercise: open %s: %w", path, err)
	}
	defer file.Close()

	ex, err := Decode(file, format)
	if err != nil {
		return nil, fmt.Errorf("exercise: %s: %w", path, err)
	}
	ex.Path = path
	return ex, nil
}

// Decode reads one exercise from r. Unknown keys are rejected.
func Decode(r io.Reader, format Format) (*Exercise, error) {
	var ex Exercise

	switch format {
	case TOML:
		meta, err := toml.NewDecoder(r).Decode(&ex)
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	case YAML:
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(&ex); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("empty file")
			}
			return nil, fmt.Errorf("parse: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	if err := ex.Validate(); err != nil {
		return nil, err
	}
	return &ex, nil
}

func (e *Exercise) Validate() error {
	var issues []string

	if _, err := assertor.ParseNaming(e.Naming); err != nil {
		issues = append(issues, err.Error())
	}
	if e.Limits.MaxTotalLoopIterations < 0 || e.Limits.MaxTotalExecutionTime < 0 || e.Limits.MaxCallDepth < 0 {
		issues = append(issues, "limits must not be negative")
	}

	seen := map[string]bool{}
	for i, fn := range e.Functions {
		switch {
		case fn.Name == "":
			issues = append(issues, fmt.Sprintf("function %d has no name", i+1))
			continue
		case seen[fn.Name]:
			issues = append(issues, fmt.Sprintf("function %s is declared twice", fn.Name))
		}
		seen[fn.Name] = true

		if fn.Arity < 0 {
			issues = append(issues, fmt.Sprintf("function %s has negative arity", fn.Name))
		}
		if fn.FinishAfterCalls < 0 {
			issues = append(issues, fmt.Sprintf("function %s has negative finish_after_calls", fn.Name))
		}
		if _, err := object.FromNative(fn.Returns); err != nil {
			issues = append(issues, fmt.Sprintf("function %s: %v", fn.Name, err))
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// Function builds the host function. Its call counter starts at zero, so
// build a fresh one for every run.
func (f FunctionSpec) Function() foreign.Function {
	calls := 0
	return foreign.Function{
		Name:        f.Name,
		Arity:       f.Arity,
		Description: f.Description,
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			calls++
			if f.FinishAfterCalls > 0 && calls == f.FinishAfterCalls {
				ctx.SignalExerciseFinished()
			}
			if f.Returns == nil {
				return nil, nil
			}
			return object.FromNative(f.Returns)
		},
	}
}

// Options builds the interpreter options for one run. The exercise must
// have passed Validate.
func (e *Exercise) Options() interpreter.Options {
	naming, _ := assertor.ParseNaming(e.Naming)

	fns := make([]foreign.Function, 0, len(e.Functions))
	for _, spec := range e.Functions {
		fns = append(fns, spec.Function())
	}

	return interpreter.Options{
		MaxTotalLoopIterations: e.Limits.MaxTotalLoopIterations,
		MaxTotalExecutionTime:  e.Limits.MaxTotalExecutionTime,
		MaxCallDepth:           e.Limits.MaxCallDepth,
		ExternalFunctions:      fns,
		IncludeStdlib:          e.IncludeStdlib,
		Features:               e.Features,
		Naming:                 naming,
	}
}
