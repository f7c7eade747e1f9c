// Package interpreter is the host entry point: it compiles learner source,
// runs it under a fresh governor and recorder, and hands back the frames
// together with the assertors.
package interpreter

import (
	"log/slog"

	"jiki/internal/assertor"
	"jiki/internal/ast"
	"jiki/internal/diagnostics"
	"jiki/internal/evaluator"
	"jiki/internal/foreign"
	"jiki/internal/frames"
	"jiki/internal/governor"
	"jiki/internal/language"
	"jiki/internal/parser"
	"jiki/internal/util/future"
)

// Options configure one run. Zero limits take the governor defaults.
type Options struct {
	MaxTotalLoopIterations int
	MaxTotalExecutionTime  int64
	MaxCallDepth           int

	ExternalFunctions []foreign.Function
	// IncludeStdlib registers the teaching standard library next to the
	// external functions.
	IncludeStdlib bool

	Features language.Features
	Mode     frames.Mode
	Naming   assertor.Naming
	Logger   *slog.Logger
}

func (o Options) Limits() governor.Limits {
	return governor.Limits{
		MaxTotalLoopIterations: o.MaxTotalLoopIterations,
		MaxTotalExecutionTime:  o.MaxTotalExecutionTime,
		MaxCallDepth:           o.MaxCallDepth,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Result is everything a host gets back from a run.
type Result struct {
	// Success is true when the program compiled and no frame is an ERROR
	// frame.
	Success bool
	// Error is the compile error, or the fault that stopped execution
	// early. Runtime faults that execution continued past only appear in
	// Frames.
	Error     *diagnostics.Error
	Frames    []*frames.Frame
	Assertors *assertor.API
	Halted    bool
}

// ErrorFrames returns the ERROR frames in order.
func (r *Result) ErrorFrames() []*frames.Frame {
	var out []*frames.Frame
	for _, f := range r.Frames {
		if f.Status == frames.ERROR {
			out = append(out, f)
		}
	}
	return out
}

// Compile parses src with the JikiScript front end.
func Compile(src string, features language.Features) (*ast.Program, *diagnostics.Error) {
	program, err := parser.Parse(src, features)
	if err != nil {
		d, ok := diagnostics.As(err)
		if !ok {
			d = diagnostics.Syntax(diagnostics.UnexpectedToken, ast.Location{}, diagnostics.Ctx{"token": err.Error()})
		}
		return nil, d
	}
	return program, nil
}

// InterpretSource compiles src and runs it. On a compile error the result
// has no frames and its assertors return their safe defaults.
func InterpretSource(src string, opts Options) *Result {
	program, cerr := Compile(src, opts.Features)
	if cerr != nil {
		opts.logger().Debug("compile failed",
			slog.String("type", string(cerr.Type)),
			slog.Int("line", cerr.Location.Line))
		return &Result{
			Error:     cerr,
			Frames:    []*frames.Frame{},
			Assertors: assertor.New(nil, opts.Naming),
		}
	}
	return Interpret(program, opts)
}

// Interpret runs an already parsed program.
func Interpret(program *ast.Program, opts Options) *Result {
	logger := opts.logger()
	result := &Result{
		Frames:    []*frames.Frame{},
		Assertors: assertor.New(program, opts.Naming),
	}
	if program == nil {
		result.Error = diagnostics.Syntax(diagnostics.UnexpectedToken, ast.Location{}, diagnostics.Ctx{"token": "nothing"})
		return result
	}

	recorder := frames.NewRecorder(opts.Mode, logger)
	registry := foreign.NewRegistry(logger)
	gov := governor.New(opts.Limits(), logger)
	e, err := setup(registry, recorder, gov, opts, logger)
	if err != nil {
		result.Error = registryError(err, program)
		recorder.Record(frames.Entry{
			Location: result.Error.Location,
			Status:   frames.ERROR,
			Error:    result.Error,
			Describe: func(*frames.Frame) string { return result.Error.Message },
		})
		result.Frames = recorder.Frames()
		return result
	}

	runErr := e.Run(program)
	result.Frames = recorder.Frames()
	if d, ok := diagnostics.As(runErr); ok {
		result.Error = d
		result.Halted = d.IsHalt()
	}
	result.Success = runErr == nil && len(result.ErrorFrames()) == 0

	logger.Debug("interpreted",
		slog.Int("frames", len(result.Frames)),
		slog.Int("iterations", gov.Iterations()),
		slog.Int64("elapsed", gov.Elapsed()),
		slog.Bool("success", result.Success),
		slog.Bool("halted", result.Halted))
	return result
}

// setup registers the host functions and builds the evaluator.
func setup(registry *foreign.Registry, recorder *frames.Recorder, gov *governor.Governor, opts Options, logger *slog.Logger) (*evaluator.Evaluator, error) {
	if opts.IncludeStdlib {
		if err := registry.Register(foreign.Stdlib()...); err != nil {
			return nil, err
		}
	}
	if err := registry.Register(opts.ExternalFunctions...); err != nil {
		return nil, err
	}
	return evaluator.New(evaluator.Config{
		Features: opts.Features,
		Governor: gov,
		Recorder: recorder,
		Registry: registry,
		Logger:   logger,
	})
}

// registryError reports a host function setup failure at the start of the
// program.
func registryError(err error, program *ast.Program) *diagnostics.Error {
	loc := ast.Location{Line: 1, Column: 1}
	if len(program.Statements) > 0 {
		loc = program.Statements[0].Span()
	}
	return diagnostics.Runtime(diagnostics.ExternalFunctionFailed, loc, diagnostics.Ctx{
		"name":   "registry",
		"reason": err.Error(),
	})
}

// Job is one submission for InterpretAll.
type Job struct {
	Source  string
	Options Options
}

// InterpretAll runs jobs with at most parallelism running at once and
// returns the results in job order. Runs share no state.
func InterpretAll(jobs []Job, parallelism int) []*Result {
	tasks := make([]func() (*Result, error), len(jobs))
	for i, job := range jobs {
		tasks[i] = func() (*Result, error) {
			return InterpretSource(job.Source, job.Options), nil
		}
	}

	results, _ := future.All(future.Pool(parallelism, tasks)...)
	return results
}
