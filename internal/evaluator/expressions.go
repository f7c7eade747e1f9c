package evaluator

import (
	"math"

	"jiki/internal/ast"
	"jiki/internal/diagnostics"
	"jiki/internal/object"
)

func (e *Evaluator) eval(node ast.Expression) (object.Object, error) {
	switch node := node.(type) {
	case *ast.NumberLiteral:
		return object.NewNumber(node.Value), nil

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}, nil

	case *ast.BooleanLiteral:
		return object.NativeBoolToBooleanObject(node.Value), nil

	case *ast.NullLiteral:
		return object.NULL, nil

	case *ast.ListLiteral:
		elements, err := e.evalExpressions(node.Elements)
		if err != nil {
			return nil, err
		}
		return &object.List{Elements: elements}, nil

	case *ast.DictionaryLiteral:
		return e.evalDictionaryLiteral(node)

	case *ast.Identifier:
		return e.evalIdentifier(node)

	case *ast.ThisExpression:
		this := e.currentThis()
		if this == nil {
			return nil, diagnostics.Runtime(diagnostics.ThisOutsideMethod, node.Loc, nil)
		}
		return this, nil

	case *ast.GroupingExpression:
		return e.eval(node.Inner)

	case *ast.UnaryExpression:
		operand, err := e.eval(node.Operand)
		if err != nil {
			return nil, err
		}
		return e.evalUnaryExpression(node, operand)

	case *ast.BinaryExpression:
		left, err := e.eval(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(node.Right)
		if err != nil {
			return nil, err
		}
		return e.evalBinaryExpression(node, left, right)

	case *ast.LogicalExpression:
		return e.evalLogicalExpression(node)

	case *ast.IndexExpression:
		container, err := e.eval(node.Object)
		if err != nil {
			return nil, err
		}
		index, err := e.eval(node.Index)
		if err != nil {
			return nil, err
		}
		return e.evalIndexExpression(node, container, index)

	case *ast.MemberExpression:
		obj, err := e.eval(node.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*object.Instance)
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.NotAnInstance, node.Object.Span(), diagnostics.Ctx{"value": obj.Inspect()})
		}
		val, ok := inst.Fields[node.Property.Value]
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.PropertyNotDeclared, node.Property.Loc, diagnostics.Ctx{"class": inst.Class.Name, "name": node.Property.Value})
		}
		return val, nil

	case *ast.CallExpression:
		return e.evalCallExpression(node)

	case *ast.MethodCallExpression:
		return e.evalMethodCall(node)

	case *ast.InstantiationExpression:
		return e.evalInstantiation(node)
	}

	return nil, diagnostics.Runtime(diagnostics.UnsupportedNode, node.Span(), diagnostics.Ctx{"node": string(node.Kind())})
}

func (e *Evaluator) evalExpressions(exps []ast.Expression) ([]object.Object, error) {
	result := make([]object.Object, 0, len(exps))
	for _, exp := range exps {
		evaluated, err := e.eval(exp)
		if err != nil {
			return nil, err
		}
		result = append(result, evaluated)
	}
	return result, nil
}

func (e *Evaluator) evalIdentifier(node *ast.Identifier) (object.Object, error) {
	val, ok := e.CurrentEnv().Get(node.Value)
	if !ok {
		return nil, diagnostics.Runtime(diagnostics.VariableNotDeclared, node.Loc, diagnostics.Ctx{"name": node.Value})
	}
	return val, nil
}

func (e *Evaluator) evalDictionaryLiteral(node *ast.DictionaryLiteral) (object.Object, error) {
	dict := object.NewDictionary()
	for _, entry := range node.Entries {
		key, err := e.eval(entry.Key)
		if err != nil {
			return nil, err
		}
		str, ok := key.(*object.String)
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.DictionaryKeyMustBeString, entry.Key.Span(), diagnostics.Ctx{"key": key.Inspect()})
		}
		val, err := e.eval(entry.Value)
		if err != nil {
			return nil, err
		}
		dict.Put(str.Value, val)
	}
	return dict, nil
}

// evalCondition requires a boolean unless the exercise allows truthiness.
func (e *Evaluator) evalCondition(node ast.Expression) (bool, error) {
	val, err := e.eval(node)
	if err != nil {
		return false, err
	}
	if b, ok := val.(*object.Boolean); ok {
		return b.Value, nil
	}
	if e.features.AllowTruthiness {
		return object.IsTruthy(val), nil
	}
	return false, diagnostics.Runtime(diagnostics.NonBooleanCondition, node.Span(), diagnostics.Ctx{"value": val.Inspect()})
}

func (e *Evaluator) evalUnaryExpression(node *ast.UnaryExpression, operand object.Object) (object.Object, error) {
	switch node.Operator {
	case "not":
		if b, ok := operand.(*object.Boolean); ok {
			return object.NativeBoolToBooleanObject(!b.Value), nil
		}
		if e.features.AllowTruthiness {
			return object.NativeBoolToBooleanObject(!object.IsTruthy(operand)), nil
		}
		return nil, diagnostics.Runtime(diagnostics.OperandMustBeBoolean, node.Loc, diagnostics.Ctx{"operator": "not", "value": operand.Inspect()})
	case "-":
		n, ok := operand.(*object.Number)
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.OperandMustBeNumber, node.Loc, diagnostics.Ctx{"operator": "-", "value": operand.Inspect()})
		}
		return object.NewNumber(-n.Value), nil
	}
	return nil, diagnostics.Runtime(diagnostics.UnsupportedNode, node.Loc, diagnostics.Ctx{"node": "operator " + node.Operator})
}

func (e *Evaluator) evalBinaryExpression(node *ast.BinaryExpression, left, right object.Object) (object.Object, error) {
	switch node.Operator {
	case "==":
		return object.NativeBoolToBooleanObject(object.Equal(left, right)), nil
	case "!=":
		return object.NativeBoolToBooleanObject(!object.Equal(left, right)), nil
	case "in":
		return e.evalMembership(node, left, right)
	case "+":
		if l, ok := left.(*object.String); ok {
			if r, ok := right.(*object.String); ok {
				return &object.String{Value: l.Value + r.Value}, nil
			}
		}
		l, lok := left.(*object.Number)
		r, rok := right.(*object.Number)
		if !lok || !rok {
			return nil, diagnostics.Runtime(diagnostics.OperandsMustBeNumbersOrStrings, node.Loc, operandCtx(node, left, right))
		}
		return arithmetic(node, l.Value, r.Value, l.Value+r.Value)
	}

	l, lok := left.(*object.Number)
	r, rok := right.(*object.Number)
	if !lok || !rok {
		return nil, diagnostics.Runtime(diagnostics.OperandsMustBeNumbers, node.Loc, operandCtx(node, left, right))
	}
	return e.evalNumberInfixExpression(node, l.Value, r.Value)
}

func operandCtx(node *ast.BinaryExpression, left, right object.Object) diagnostics.Ctx {
	return diagnostics.Ctx{
		"operator": node.Operator,
		"left":     left.Inspect(),
		"right":    right.Inspect(),
	}
}

func (e *Evaluator) evalNumberInfixExpression(node *ast.BinaryExpression, l, r float64) (object.Object, error) {
	switch node.Operator {
	case "-":
		return arithmetic(node, l, r, l-r)
	case "*":
		return arithmetic(node, l, r, l*r)
	case "/":
		if r == 0 {
			return nil, diagnostics.Runtime(diagnostics.DivisionByZero, node.Loc, nil)
		}
		return arithmetic(node, l, r, l/r)
	case "%":
		if r == 0 {
			return nil, diagnostics.Runtime(diagnostics.DivisionByZero, node.Loc, nil)
		}
		return arithmetic(node, l, r, math.Mod(l, r))
	case "**":
		return arithmetic(node, l, r, math.Pow(l, r))
	case "<":
		return object.NativeBoolToBooleanObject(l < r), nil
	case "<=":
		return object.NativeBoolToBooleanObject(l <= r), nil
	case ">":
		return object.NativeBoolToBooleanObject(l > r), nil
	case ">=":
		return object.NativeBoolToBooleanObject(l >= r), nil
	}
	return nil, diagnostics.Runtime(diagnostics.UnsupportedNode, node.Loc, diagnostics.Ctx{"node": "operator " + node.Operator})
}

// arithmetic wraps the result of a numeric operator. Infinities and NaN
// are faults, never values.
func arithmetic(node *ast.BinaryExpression, l, r, value float64) (object.Object, error) {
	if !object.IsFinite(value) {
		return nil, diagnostics.Runtime(diagnostics.NumberOutOfRange, node.Loc, diagnostics.Ctx{
			"operator": node.Operator,
			"left":     (&object.Number{Value: l}).Inspect(),
			"right":    (&object.Number{Value: r}).Inspect(),
			"value":    (&object.Number{Value: value}).Inspect(),
		})
	}
	return object.NewNumber(value), nil
}

// evalMembership implements `key in container`: dictionary keys and
// instance properties, and list elements when the exercise allows it.
func (e *Evaluator) evalMembership(node *ast.BinaryExpression, left, right object.Object) (object.Object, error) {
	switch container := right.(type) {
	case *object.Dictionary:
		key, ok := left.(*object.String)
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.DictionaryKeyMustBeString, node.Left.Span(), diagnostics.Ctx{"key": left.Inspect()})
		}
		return object.NativeBoolToBooleanObject(container.Has(key.Value)), nil
	case *object.Instance:
		key, ok := left.(*object.String)
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.DictionaryKeyMustBeString, node.Left.Span(), diagnostics.Ctx{"key": left.Inspect()})
		}
		return object.NativeBoolToBooleanObject(container.Class.HasProperty(key.Value)), nil
	case *object.List:
		if !e.features.AllowMembershipOnLists {
			return nil, diagnostics.Runtime(diagnostics.InOperatorOnListDisabled, node.Loc, nil)
		}
		for _, el := range container.Elements {
			if object.Equal(left, el) {
				return object.TRUE, nil
			}
		}
		return object.FALSE, nil
	}
	return nil, diagnostics.Runtime(diagnostics.InOperatorRequiresObject, node.Loc, diagnostics.Ctx{"value": right.Inspect()})
}

func (e *Evaluator) evalLogicalExpression(node *ast.LogicalExpression) (object.Object, error) {
	left, err := e.logicalOperand(node, node.Left)
	if err != nil {
		return nil, err
	}
	if node.Operator == "and" && !left {
		return object.FALSE, nil
	}
	if node.Operator == "or" && left {
		return object.TRUE, nil
	}

	right, err := e.logicalOperand(node, node.Right)
	if err != nil {
		return nil, err
	}
	return object.NativeBoolToBooleanObject(right), nil
}

func (e *Evaluator) logicalOperand(node *ast.LogicalExpression, operand ast.Expression) (bool, error) {
	val, err := e.eval(operand)
	if err != nil {
		return false, err
	}
	if b, ok := val.(*object.Boolean); ok {
		return b.Value, nil
	}
	if e.features.AllowTruthiness {
		return object.IsTruthy(val), nil
	}
	return false, diagnostics.Runtime(diagnostics.OperandMustBeBoolean, operand.Span(), diagnostics.Ctx{"operator": node.Operator, "value": val.Inspect()})
}

// Indexing. Lists and strings are indexed from 1.

func (e *Evaluator) evalIndexExpression(node *ast.IndexExpression, container, index object.Object) (object.Object, error) {
	switch c := container.(type) {
	case *object.List:
		i, err := listIndex(node, index, len(c.Elements), "list")
		if err != nil {
			return nil, err
		}
		return c.Elements[i], nil

	case *object.String:
		runes := []rune(c.Value)
		i, err := listIndex(node, index, len(runes), "string")
		if err != nil {
			return nil, err
		}
		return &object.String{Value: string(runes[i])}, nil

	case *object.Dictionary:
		key, ok := index.(*object.String)
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.DictionaryKeyMustBeString, node.Index.Span(), diagnostics.Ctx{"key": index.Inspect()})
		}
		val, ok := c.Get(key.Value)
		if !ok {
			return nil, diagnostics.Runtime(diagnostics.KeyNotFound, node.Index.Span(), diagnostics.Ctx{"key": key.Inspect()})
		}
		return val, nil
	}
	return nil, diagnostics.Runtime(diagnostics.NotIndexable, node.Object.Span(), diagnostics.Ctx{"value": container.Inspect()})
}

// setIndex stores a copy of val, so a list or dictionary can never end up
// containing itself.
func (e *Evaluator) setIndex(node *ast.IndexExpression, container, index, val object.Object) error {
	val = object.CloneForPass(val)
	switch c := container.(type) {
	case *object.List:
		i, err := listIndex(node, index, len(c.Elements), "list")
		if err != nil {
			return err
		}
		c.Elements[i] = val
		return nil

	case *object.Dictionary:
		key, ok := index.(*object.String)
		if !ok {
			return diagnostics.Runtime(diagnostics.DictionaryKeyMustBeString, node.Index.Span(), diagnostics.Ctx{"key": index.Inspect()})
		}
		c.Put(key.Value, val)
		return nil
	}
	return diagnostics.Runtime(diagnostics.NotIndexable, node.Object.Span(), diagnostics.Ctx{"value": container.Inspect()})
}

// listIndex converts a 1-based index into a slice offset. container is
// "list" or "string".
func listIndex(node *ast.IndexExpression, index object.Object, length int, container string) (int, error) {
	n, ok := index.(*object.Number)
	if !ok || !n.IsInteger() {
		return 0, diagnostics.Runtime(diagnostics.IndexMustBeNumber, node.Index.Span(), diagnostics.Ctx{"index": index.Inspect()})
	}
	if n.Value < 1 || n.Value > float64(length) {
		unit := "element(s)"
		if container == "string" {
			unit = "character(s)"
		}
		return 0, diagnostics.Runtime(diagnostics.IndexOutOfBounds, node.Index.Span(), diagnostics.Ctx{
			"index":     n.Inspect(),
			"length":    length,
			"container": container,
			"unit":      unit,
		})
	}
	return int(n.Value) - 1, nil
}
