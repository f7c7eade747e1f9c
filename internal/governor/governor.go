// Package governor bounds how long a learner program may run. Time is
// logical: every step and call charges a fixed cost in microseconds, so the
// same program halts at the same point on every machine.
package governor

import (
	"log/slog"

	"jiki/internal/ast"
	"jiki/internal/diagnostics"
)

const (
	DefaultMaxTotalLoopIterations = 10_000
	DefaultMaxTotalExecutionTime  = 10_000_000
	DefaultMaxCallDepth           = 1_000

	// StepCost is charged for every recorded frame.
	StepCost int64 = 10
	// CallCost is charged on entry to every function or method call.
	CallCost int64 = 10
)

// Limits are the ceilings for one run. Zero values take the defaults.
type Limits struct {
	MaxTotalLoopIterations int   `toml:"max_total_loop_iterations" yaml:"max_total_loop_iterations"`
	MaxTotalExecutionTime  int64 `toml:"max_total_execution_time" yaml:"max_total_execution_time"`
	MaxCallDepth           int   `toml:"max_call_depth" yaml:"max_call_depth"`
}

func (l Limits) withDefaults() Limits {
	if l.MaxTotalLoopIterations <= 0 {
		l.MaxTotalLoopIterations = DefaultMaxTotalLoopIterations
	}
	if l.MaxTotalExecutionTime <= 0 {
		l.MaxTotalExecutionTime = DefaultMaxTotalExecutionTime
	}
	if l.MaxCallDepth <= 0 {
		l.MaxCallDepth = DefaultMaxCallDepth
	}
	return l
}

// Governor holds the counters of a single run. It is not safe for
// concurrent use; each run creates its own.
type Governor struct {
	limits     Limits
	iterations int
	elapsed    int64
	depth      int
	logger     *slog.Logger
}

func New(limits Limits, logger *slog.Logger) *Governor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Governor{
		limits: limits.withDefaults(),
		logger: logger,
	}
}

func (g *Governor) Limits() Limits  { return g.limits }
func (g *Governor) Elapsed() int64  { return g.elapsed }
func (g *Governor) Iterations() int { return g.iterations }
func (g *Governor) Depth() int      { return g.depth }

// BeforeLoopIteration counts one iteration of a bounded loop and checks
// both ceilings.
func (g *Governor) BeforeLoopIteration(loc ast.Location) error {
	g.iterations++
	if g.iterations > g.limits.MaxTotalLoopIterations {
		return g.halt(diagnostics.MaxTotalLoopIterationsExceeded, loc, g.limits.MaxTotalLoopIterations)
	}
	return g.checkTime(loc)
}

// BeforeUnboundedIteration is used by `repeat` without a count. It is exempt
// from the iteration ceiling but not from the time ceiling.
func (g *Governor) BeforeUnboundedIteration(loc ast.Location) error {
	return g.checkTime(loc)
}

// BeforeStep charges cost and checks the time ceiling.
func (g *Governor) BeforeStep(cost int64, loc ast.Location) error {
	g.elapsed += cost
	return g.checkTime(loc)
}

// Advance charges cost without checking the ceiling. The next checkpoint
// will notice an overrun.
func (g *Governor) Advance(cost int64) {
	g.elapsed += cost
}

// EnterCall charges CallCost against the shared time budget so deep
// recursion cannot escape the governor.
func (g *Governor) EnterCall(loc ast.Location) error {
	g.depth++
	if g.depth > g.limits.MaxCallDepth {
		return g.halt(diagnostics.MaxCallDepthExceeded, loc, g.limits.MaxCallDepth)
	}
	return g.BeforeStep(CallCost, loc)
}

func (g *Governor) ExitCall() {
	if g.depth > 0 {
		g.depth--
	}
}

func (g *Governor) checkTime(loc ast.Location) error {
	if g.elapsed > g.limits.MaxTotalExecutionTime {
		return g.halt(diagnostics.MaxTotalExecutionTimeExceeded, loc, g.limits.MaxTotalExecutionTime)
	}
	return nil
}

func (g *Governor) halt(typ diagnostics.ErrorType, loc ast.Location, max any) error {
	g.logger.Info("governor halt",
		slog.String("type", string(typ)),
		slog.Int("iterations", g.iterations),
		slog.Int64("elapsed", g.elapsed),
		slog.Int("depth", g.depth))
	return diagnostics.Halt(typ, loc, diagnostics.Ctx{"max": max})
}
