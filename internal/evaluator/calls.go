package evaluator

import (
	"log/slog"

	"jiki/internal/ast"
	"jiki/internal/diagnostics"
	"jiki/internal/foreign"
	"jiki/internal/object"
)

func (e *Evaluator) evalCallExpression(node *ast.CallExpression) (object.Object, error) {
	name := node.Callee.Value
	callee, ok := e.CurrentEnv().Get(name)
	if !ok {
		return nil, diagnostics.Runtime(diagnostics.FunctionNotDeclared, node.Callee.Loc, diagnostics.Ctx{"name": name})
	}

	args, err := e.evalExpressions(node.Arguments)
	if err != nil {
		return nil, err
	}

	switch fn := callee.(type) {
	case *object.Function:
		return e.applyFunction(fn, args, nil, node.Loc)
	case *object.Foreign:
		return e.applyForeign(fn, args, node.Loc)
	}
	return nil, diagnostics.Runtime(diagnostics.NotCallable, node.Callee.Loc, diagnostics.Ctx{"name": name})
}

func (e *Evaluator) evalMethodCall(node *ast.MethodCallExpression) (object.Object, error) {
	obj, err := e.eval(node.Object)
	if err != nil {
		return nil, err
	}
	inst, ok := obj.(*object.Instance)
	if !ok {
		return nil, diagnostics.Runtime(diagnostics.NotAnInstance, node.Object.Span(), diagnostics.Ctx{"value": obj.Inspect()})
	}
	method, ok := inst.Class.Methods[node.Method.Value]
	if !ok {
		return nil, diagnostics.Runtime(diagnostics.MethodNotDeclared, node.Method.Loc, diagnostics.Ctx{"class": inst.Class.Name, "name": node.Method.Value})
	}

	args, err := e.evalExpressions(node.Arguments)
	if err != nil {
		return nil, err
	}
	return e.applyFunction(method, args, inst, node.Loc)
}

func (e *Evaluator) evalInstantiation(node *ast.InstantiationExpression) (object.Object, error) {
	val, ok := e.CurrentEnv().Get(node.Class.Value)
	class, isClass := val.(*object.Class)
	if !ok || !isClass {
		return nil, diagnostics.Runtime(diagnostics.ClassNotDeclared, node.Class.Loc, diagnostics.Ctx{"name": node.Class.Value})
	}

	args, err := e.evalExpressions(node.Arguments)
	if err != nil {
		return nil, err
	}

	inst := object.NewInstance(class)
	if class.Constructor == nil {
		if len(args) != 0 {
			return nil, diagnostics.Runtime(diagnostics.InvalidNumberOfArguments, node.Loc, diagnostics.Ctx{
				"name":     class.Name,
				"expected": 0,
				"actual":   len(args),
			})
		}
		return inst, nil
	}

	if _, err := e.applyFunction(class.Constructor, args, inst, node.Loc); err != nil {
		return nil, err
	}
	return inst, nil
}

// applyFunction calls a learner-defined function or method. Lists and
// dictionaries are copied into the parameters; instances are shared.
func (e *Evaluator) applyFunction(fn *object.Function, args []object.Object, this *object.Instance, loc ast.Location) (object.Object, error) {
	if len(args) != fn.Arity() {
		return nil, diagnostics.Runtime(diagnostics.InvalidNumberOfArguments, loc, diagnostics.Ctx{
			"name":     fn.Name,
			"expected": fn.Arity(),
			"actual":   len(args),
		})
	}

	if err := e.governor.EnterCall(loc); err != nil {
		return nil, err
	}
	defer e.governor.ExitCall()

	env := e.extendFunctionEnv(fn, args)

	e.callStack = append(e.callStack, &callFrame{name: fn.Name, this: this, loopDepth: e.loopDepth})
	e.loopDepth = 0
	e.PushEnv(env)
	defer func() {
		e.PopEnv()
		top := e.callStack[len(e.callStack)-1]
		e.loopDepth = top.loopDepth
		e.callStack = e.callStack[:len(e.callStack)-1]
	}()

	e.logger.Debug("call",
		slog.String("name", fn.Name),
		slog.Int("depth", e.governor.Depth()))

	result, err := e.execStatements(fn.Body.Statements)
	if err != nil {
		return nil, err
	}
	return unwrapReturnValue(result), nil
}

func (e *Evaluator) extendFunctionEnv(fn *object.Function, args []object.Object) *object.Environment {
	env := object.NewEnclosedEnvironment(fn.Env)
	for i, param := range fn.Parameters {
		// a repeated parameter name keeps the last argument
		_ = env.Define(param.Value, object.CloneForPass(args[i]), true, true)
	}
	return env
}

// unwrapReturnValue maps the body's outcome to the call's value. A body
// without a return, or one cut short by the exercise finishing, yields
// undefined.
func unwrapReturnValue(obj object.Object) object.Object {
	if returnValue, ok := obj.(*object.ReturnValue); ok {
		return returnValue.Value
	}
	return object.UNDEFINED
}

func (e *Evaluator) applyForeign(fn *object.Foreign, args []object.Object, loc ast.Location) (object.Object, error) {
	if err := e.governor.EnterCall(loc); err != nil {
		return nil, err
	}
	defer e.governor.ExitCall()

	ctx := &invocation{evaluator: e, name: fn.Name, loc: loc}
	return foreign.Invoke(ctx, fn, args)
}

func (e *Evaluator) currentThis() *object.Instance {
	if len(e.callStack) == 0 {
		return nil
	}
	return e.callStack[len(e.callStack)-1].this
}

// invocation is what a host function sees of the running program. It is
// only valid during the call.
type invocation struct {
	evaluator *Evaluator
	name      string
	loc       ast.Location
}

func (c *invocation) SignalExerciseFinished() {
	c.evaluator.logger.Debug("exercise finished", slog.String("by", c.name))
	c.evaluator.finished = true
}

func (c *invocation) FunctionName() string   { return c.name }
func (c *invocation) Location() ast.Location { return c.loc }
func (c *invocation) Time() int64            { return c.evaluator.governor.Elapsed() }
func (c *invocation) Logger() *slog.Logger   { return c.evaluator.logger }
