// Package evaluator walks a program and records a frame for every step.
package evaluator

import (
	"errors"
	"fmt"
	"log/slog"

	"jiki/internal/ast"
	"jiki/internal/diagnostics"
	"jiki/internal/foreign"
	"jiki/internal/frames"
	"jiki/internal/governor"
	"jiki/internal/language"
	"jiki/internal/object"
)

type Config struct {
	Features language.Features
	Governor *governor.Governor
	Recorder *frames.Recorder
	// Registry holds the host functions; they are bound as global
	// constants.
	Registry *foreign.Registry
	Logger   *slog.Logger
}

// callFrame is the part of a function call the evaluator needs while the
// body runs.
type callFrame struct {
	name string
	this *object.Instance
	// loopDepth of the caller, restored on return.
	loopDepth int
}

type Evaluator struct {
	envStack  []*object.Environment // Environment stack encapsulated in an evaluator struct
	callStack []*callFrame

	globals  *object.Environment
	features language.Features
	governor *governor.Governor
	recorder *frames.Recorder
	registry *foreign.Registry
	logger   *slog.Logger
	source   string

	loopDepth    int
	foreverDepth int
	// finished is set by SignalExerciseFinished and consumed by the
	// enclosing repeat-forever loop.
	finished bool

	// lastRecorded is the fault that already has an ERROR frame, so outer
	// statements unwinding past it do not record it again.
	lastRecorded *diagnostics.Error
}

func New(cfg Config) (*Evaluator, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Governor == nil {
		cfg.Governor = governor.New(governor.Limits{}, cfg.Logger)
	}
	if cfg.Recorder == nil {
		cfg.Recorder = frames.NewRecorder(frames.ModeTrace, cfg.Logger)
	}
	if cfg.Registry == nil {
		cfg.Registry = foreign.NewRegistry(cfg.Logger)
	}

	e := &Evaluator{
		globals:  object.NewEnvironment(),
		features: cfg.Features,
		governor: cfg.Governor,
		recorder: cfg.Recorder,
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}
	if err := e.registry.Bind(e.globals); err != nil {
		return nil, err
	}
	e.PushEnv(e.globals)
	return e, nil
}

func (e *Evaluator) PushEnv(env *object.Environment) {
	e.envStack = append(e.envStack, env)
}

func (e *Evaluator) CurrentEnv() *object.Environment {
	// Access the current environment from the top frame
	if len(e.envStack) == 0 {
		panic("Environment stack is empty in the current frame")
	}
	return e.envStack[len(e.envStack)-1]
}

func (e *Evaluator) PopEnv() {
	if len(e.envStack) == 0 {
		panic("Attempted to pop from an empty environment stack")
	}
	e.envStack = e.envStack[:len(e.envStack)-1]
}

// Run executes program. Runtime faults become ERROR frames and execution
// moves on to the next top-level statement; the returned error is only set
// when execution stopped early, either because the governor halted it or
// because the exercise stops at the first fault.
func (e *Evaluator) Run(program *ast.Program) error {
	e.source = program.Source

	if err := e.hoist(program.Statements); err != nil {
		return err
	}

	for _, stmt := range program.Statements {
		_, err := e.execStatement(stmt)
		if err == nil {
			continue
		}
		d, _ := diagnostics.As(err)
		if d.IsHalt() || e.features.HaltOnFirstError {
			e.logger.Debug("execution stopped",
				slog.String("type", string(d.Type)),
				slog.Int("line", d.Location.Line))
			return d
		}
	}
	return nil
}

// hoist declares every top-level function and class before any statement
// runs, so calls may appear above the definition.
func (e *Evaluator) hoist(stmts []ast.Statement) error {
	var classes []*ast.ClassDeclaration

	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			fn := &object.Function{
				Name:       s.Name.Value,
				Parameters: s.Parameters,
				Body:       s.Body,
				Env:        e.globals,
			}
			if err := e.declareGlobal(s.Name, fn); err != nil {
				return err
			}
		case *ast.ClassDeclaration:
			classes = append(classes, s)
		}
	}

	for _, s := range classes {
		if err := e.declareGlobal(s.Name, e.buildClass(s)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) declareGlobal(name *ast.Identifier, value object.Object) error {
	if err := e.globals.Define(name.Value, value, false, false); err != nil {
		d := e.fail(name.Span(), diagnostics.Runtime(diagnostics.VariableAlreadyDeclared, name.Span(), diagnostics.Ctx{"name": name.Value}))
		if e.features.HaltOnFirstError {
			return d
		}
	}
	return nil
}

func (e *Evaluator) buildClass(s *ast.ClassDeclaration) *object.Class {
	class := &object.Class{
		Name:    s.Name.Value,
		Methods: make(map[string]*object.Function, len(s.Methods)),
	}
	for _, p := range s.Properties {
		class.Properties = append(class.Properties, p.Value)
	}
	if s.Constructor != nil {
		class.Constructor = &object.Function{
			Name:       s.Name.Value,
			Parameters: s.Constructor.Parameters,
			Body:       s.Constructor.Body,
			Env:        e.globals,
			Owner:      class,
		}
	}
	for _, m := range s.Methods {
		class.Methods[m.Name.Value] = &object.Function{
			Name:       m.Name.Value,
			Parameters: m.Parameters,
			Body:       m.Body,
			Env:        e.globals,
			Owner:      class,
		}
	}
	return class
}

// Statements

// execStatement runs one statement. A fault that has no ERROR frame yet
// gets one here, at the innermost statement that saw it.
func (e *Evaluator) execStatement(stmt ast.Statement) (object.Object, error) {
	if e.features.GovernEveryStatement {
		if err := e.governor.BeforeStep(0, stmt.Span()); err != nil {
			return nil, e.fail(stmt.Span(), err)
		}
	}

	result, err := e.dispatch(stmt)
	if err != nil {
		return nil, e.fail(stmt.Span(), err)
	}
	return result, nil
}

func (e *Evaluator) dispatch(stmt ast.Statement) (object.Object, error) {
	switch node := stmt.(type) {
	case *ast.VariableDeclaration:
		return e.execVariableDeclaration(node)

	case *ast.Assignment:
		return e.execAssignment(node)

	case *ast.ExpressionStatement:
		val, err := e.eval(node.Expression)
		if err != nil {
			return nil, err
		}
		e.record(node.Loc, val, describeExpression(e.sourceOf(node.Expression)))
		return val, nil

	case *ast.LogStatement:
		val, err := e.eval(node.Value)
		if err != nil {
			return nil, err
		}
		e.record(node.Loc, val, describeLog)
		return val, nil

	case *ast.BlockStatement:
		return e.execBlock(node)

	case *ast.IfStatement:
		return e.execIf(node)

	case *ast.RepeatStatement:
		return e.execRepeat(node)

	case *ast.RepeatForeverStatement:
		return e.execRepeatForever(node)

	case *ast.WhileStatement:
		return e.execWhile(node)

	case *ast.ForEachStatement:
		return e.execForEach(node)

	case *ast.BreakStatement:
		if e.loopDepth == 0 {
			return nil, diagnostics.Runtime(diagnostics.BreakOutsideLoop, node.Loc, nil)
		}
		e.record(node.Loc, nil, describeBreak)
		return object.BREAK, nil

	case *ast.ContinueStatement:
		if e.loopDepth == 0 {
			return nil, diagnostics.Runtime(diagnostics.ContinueOutsideLoop, node.Loc, nil)
		}
		e.record(node.Loc, nil, describeContinue)
		return object.CONTINUE, nil

	case *ast.ReturnStatement:
		if len(e.callStack) == 0 {
			return nil, diagnostics.Runtime(diagnostics.ReturnOutsideFunction, node.Loc, nil)
		}
		var val object.Object = object.UNDEFINED
		if node.ReturnValue != nil {
			v, err := e.eval(node.ReturnValue)
			if err != nil {
				return nil, err
			}
			val = v
		}
		e.record(node.Loc, val, describeReturn)
		return &object.ReturnValue{Value: val}, nil

	case *ast.FunctionDeclaration, *ast.ClassDeclaration:
		// declared by hoist
		return nil, nil
	}

	return nil, diagnostics.Runtime(diagnostics.UnsupportedNode, stmt.Span(), diagnostics.Ctx{"node": string(stmt.Kind())})
}

func (e *Evaluator) execVariableDeclaration(node *ast.VariableDeclaration) (object.Object, error) {
	val, err := e.eval(node.Value)
	if err != nil {
		return nil, err
	}

	name := node.Name.Value
	if err := e.CurrentEnv().Define(name, val, !node.Constant, e.features.AllowRedefinition); err != nil {
		return nil, e.bindingError(err, node.Name)
	}

	e.record(node.Loc, val, describeDeclaration(name, node.Constant))
	return val, nil
}

func (e *Evaluator) execAssignment(node *ast.Assignment) (object.Object, error) {
	switch target := node.Target.(type) {
	case *ast.Identifier:
		val, err := e.eval(node.Value)
		if err != nil {
			return nil, err
		}
		if err := e.CurrentEnv().Assign(target.Value, val); err != nil {
			return nil, e.bindingError(err, target)
		}
		e.record(node.Loc, val, describeChange(target.Value))
		return val, nil

	case *ast.IndexExpression:
		container, err := e.eval(target.Object)
		if err != nil {
			return nil, err
		}
		index, err := e.eval(target.Index)
		if err != nil {
			return nil, err
		}
		val, err := e.eval(node.Value)
		if err != nil {
			return nil, err
		}
		if err := e.setIndex(target, container, index, val); err != nil {
			return nil, err
		}
		e.record(node.Loc, val, describeChange(e.sourceOf(target)))
		return val, nil

	case *ast.MemberExpression:
		obj, err := e.eval(target.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*object.Instance)
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.NotAnInstance, target.Object.Span(), diagnostics.Ctx{"value": obj.Inspect()})
		}
		prop := target.Property.Value
		if !inst.Class.HasProperty(prop) {
			return nil, diagnostics.Runtime(diagnostics.PropertyNotDeclared, target.Property.Loc, diagnostics.Ctx{"class": inst.Class.Name, "name": prop})
		}
		val, err := e.eval(node.Value)
		if err != nil {
			return nil, err
		}
		inst.Fields[prop] = val
		e.record(node.Loc, val, describeChange(e.sourceOf(target)))
		return val, nil
	}

	return nil, diagnostics.Runtime(diagnostics.UnsupportedNode, node.Target.Span(), diagnostics.Ctx{"node": string(node.Target.Kind())})
}

// bindingError translates environment sentinels into runtime faults.
func (e *Evaluator) bindingError(err error, name *ast.Identifier) error {
	ctx := diagnostics.Ctx{"name": name.Value}
	switch {
	case errors.Is(err, object.ErrNotDeclared):
		return diagnostics.Runtime(diagnostics.VariableNotDeclared, name.Loc, ctx)
	case errors.Is(err, object.ErrAlreadyDeclared):
		return diagnostics.Runtime(diagnostics.VariableAlreadyDeclared, name.Loc, ctx)
	case errors.Is(err, object.ErrImmutable):
		return diagnostics.Runtime(diagnostics.ConstantReassignment, name.Loc, ctx)
	}
	return fmt.Errorf("binding %s: %w", name.Value, err)
}

// execBlock runs block in a fresh scope that is dropped on every exit path.
func (e *Evaluator) execBlock(block *ast.BlockStatement) (object.Object, error) {
	e.PushEnv(object.NewEnclosedEnvironment(e.CurrentEnv()))
	defer e.PopEnv()

	return e.execStatements(block.Statements)
}

// execStatements runs stmts in the current scope and stops at the first
// control signal.
func (e *Evaluator) execStatements(stmts []ast.Statement) (object.Object, error) {
	for _, stmt := range stmts {
		result, err := e.execStatement(stmt)
		if err != nil {
			return nil, err
		}
		if isSignal(result) {
			return result, nil
		}
		if e.finished && e.foreverDepth > 0 {
			return object.BREAK, nil
		}
	}
	return nil, nil
}

func isSignal(obj object.Object) bool {
	switch obj.(type) {
	case *object.ReturnValue, *object.BreakSignal, *object.ContinueSignal:
		return true
	}
	return false
}

func (e *Evaluator) execIf(node *ast.IfStatement) (object.Object, error) {
	cond, err := e.evalCondition(node.Condition)
	if err != nil {
		return nil, err
	}
	e.record(node.Condition.Span(), object.NativeBoolToBooleanObject(cond), describeCondition(e.sourceOf(node.Condition)))

	if cond {
		return e.execBlock(node.ThenBranch)
	}

	switch alt := node.ElseBranch.(type) {
	case *ast.IfStatement:
		return e.execStatement(alt)
	case *ast.BlockStatement:
		return e.execBlock(alt)
	}
	return nil, nil
}

func (e *Evaluator) execRepeat(node *ast.RepeatStatement) (object.Object, error) {
	countVal, err := e.eval(node.Count)
	if err != nil {
		return nil, err
	}
	count, ok := countVal.(*object.Number)
	if !ok || !count.IsInteger() {
		return nil, diagnostics.Runtime(diagnostics.RepeatCountMustBeNumber, node.Count.Span(), diagnostics.Ctx{"value": countVal.Inspect()})
	}
	if count.Value < 0 {
		return nil, diagnostics.Runtime(diagnostics.RepeatCountMustBeZeroOrGreater, node.Count.Span(), diagnostics.Ctx{"value": countVal.Inspect()})
	}

	loc := header(node.Loc, node.Body.Loc)
	total := count.Inspect()
	for i := 1; float64(i) <= count.Value; i++ {
		if err := e.governor.BeforeLoopIteration(loc); err != nil {
			return nil, err
		}

		bind := func(env *object.Environment) error {
			if node.Index == nil {
				return nil
			}
			if err := env.Define(node.Index.Value, object.NewNumber(float64(i)), true, false); err != nil {
				return e.bindingError(err, node.Index)
			}
			return nil
		}
		result, err := e.runIteration(loc, bind, describeRepeat(i, total), node.Body)
		if err != nil {
			return nil, err
		}
		if stop, ret := loopControl(result); stop {
			return ret, nil
		}
	}
	return nil, nil
}

func (e *Evaluator) execRepeatForever(node *ast.RepeatForeverStatement) (object.Object, error) {
	loc := header(node.Loc, node.Body.Loc)

	e.foreverDepth++
	defer func() { e.foreverDepth-- }()

	for i := 1; ; i++ {
		if e.finished {
			e.finished = false
			return nil, nil
		}
		if err := e.governor.BeforeUnboundedIteration(loc); err != nil {
			return nil, err
		}

		result, err := e.runIteration(loc, nil, describeForever(i), node.Body)
		if err != nil {
			return nil, err
		}
		if stop, ret := loopControl(result); stop {
			if e.finished {
				e.finished = false
			}
			return ret, nil
		}
	}
}

func (e *Evaluator) execWhile(node *ast.WhileStatement) (object.Object, error) {
	loc := header(node.Loc, node.Body.Loc)
	describe := describeLoopCondition(e.sourceOf(node.Condition))

	for {
		cond, err := e.evalCondition(node.Condition)
		if err != nil {
			return nil, err
		}
		e.record(node.Condition.Span(), object.NativeBoolToBooleanObject(cond), describe)
		if !cond {
			return nil, nil
		}

		if err := e.governor.BeforeLoopIteration(loc); err != nil {
			return nil, err
		}
		result, err := e.runIteration(loc, nil, nil, node.Body)
		if err != nil {
			return nil, err
		}
		if stop, ret := loopControl(result); stop {
			return ret, nil
		}
	}
}

func (e *Evaluator) execForEach(node *ast.ForEachStatement) (object.Object, error) {
	iterable, err := e.eval(node.Iterable)
	if err != nil {
		return nil, err
	}

	var items []object.Object
	switch v := iterable.(type) {
	case *object.List:
		items = make([]object.Object, len(v.Elements))
		copy(items, v.Elements)
	case *object.String:
		for _, r := range v.Value {
			items = append(items, &object.String{Value: string(r)})
		}
	case *object.Dictionary:
		for _, k := range v.Keys() {
			items = append(items, &object.String{Value: k})
		}
	default:
		return nil, diagnostics.Runtime(diagnostics.NotIterable, node.Iterable.Span(), diagnostics.Ctx{"value": iterable.Inspect()})
	}

	loc := header(node.Loc, node.Body.Loc)
	for i, item := range items {
		if err := e.governor.BeforeLoopIteration(loc); err != nil {
			return nil, err
		}

		bind := func(env *object.Environment) error {
			if err := env.Define(node.Element.Value, item, true, false); err != nil {
				return e.bindingError(err, node.Element)
			}
			if node.Index == nil {
				return nil
			}
			if err := env.Define(node.Index.Value, object.NewNumber(float64(i+1)), true, false); err != nil {
				return e.bindingError(err, node.Index)
			}
			return nil
		}
		result, err := e.runIteration(loc, bind, describeForEach(node.Element.Value, i+1), node.Body)
		if err != nil {
			return nil, err
		}
		if stop, ret := loopControl(result); stop {
			return ret, nil
		}
	}
	return nil, nil
}

// runIteration runs one loop body in its own scope. When describe is set a
// bookkeeping frame is recorded once the loop variables are bound.
func (e *Evaluator) runIteration(loc ast.Location, bind func(*object.Environment) error, describe func(*frames.Frame) string, body *ast.BlockStatement) (object.Object, error) {
	env := object.NewEnclosedEnvironment(e.CurrentEnv())
	e.PushEnv(env)
	defer e.PopEnv()

	if bind != nil {
		if err := bind(env); err != nil {
			return nil, err
		}
	}
	if describe != nil {
		e.record(loc, nil, describe)
	}

	e.loopDepth++
	defer func() { e.loopDepth-- }()

	return e.execStatements(body.Statements)
}

// loopControl interprets the result of one iteration. stop is true when the
// loop must end; ret is what the loop statement itself returns.
func loopControl(result object.Object) (stop bool, ret object.Object) {
	switch result.(type) {
	case *object.ReturnValue:
		return true, result
	case *object.BreakSignal:
		return true, nil
	}
	return false, nil
}

// header covers a loop statement from its keyword up to its body.
func header(stmt, body ast.Location) ast.Location {
	return ast.Location{
		Line:      stmt.Line,
		Column:    stmt.Column,
		Offset:    stmt.Offset,
		EndLine:   body.Line,
		EndColumn: body.Column,
		EndOffset: body.Offset,
	}
}

// Frames

func (e *Evaluator) visible() map[string]object.Object {
	if e.recorder.Mode() == frames.ModeBenchmark {
		return nil
	}
	return e.CurrentEnv().Visible()
}

// record adds a SUCCESS frame at the current logical time and then charges
// the step.
func (e *Evaluator) record(loc ast.Location, result object.Object, describe func(*frames.Frame) string) {
	e.recorder.Record(frames.Entry{
		Time:     e.governor.Elapsed(),
		Location: loc,
		Status:   frames.SUCCESS,
		Result:   result,
		Visible:  e.visible(),
		Describe: describe,
	})
	e.governor.Advance(governor.StepCost)
}

// fail records the ERROR frame for err unless an inner statement already
// did, and returns the fault as a *diagnostics.Error.
func (e *Evaluator) fail(loc ast.Location, err error) *diagnostics.Error {
	d, ok := diagnostics.As(err)
	if !ok {
		d = diagnostics.Runtime(diagnostics.UnsupportedNode, loc, diagnostics.Ctx{"node": err.Error()})
	}
	if d == e.lastRecorded {
		return d
	}
	if d.Location.Line == 0 {
		d = d.WithLocation(loc)
	}

	e.recorder.Record(frames.Entry{
		Time:     e.governor.Elapsed(),
		Location: d.Location,
		Status:   frames.ERROR,
		Error:    d,
		Visible:  e.visible(),
		Describe: describeError,
	})
	e.governor.Advance(governor.StepCost)
	e.lastRecorded = d
	return d
}

// sourceOf returns the text node was parsed from, falling back to its
// canonical rendering for trees without source.
func (e *Evaluator) sourceOf(node ast.Node) string {
	loc := node.Span()
	if e.source != "" && loc.Offset >= 0 && loc.EndOffset > loc.Offset && loc.EndOffset <= len(e.source) {
		return e.source[loc.Offset:loc.EndOffset]
	}
	return node.String()
}
