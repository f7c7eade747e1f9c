package parser

import (
	"encoding/json"
	"fmt"

	"jiki/internal/ast"
)

// DecodeAST reads a program in the JSON shape WalkAST produces. It lets
// front ends other than this parser hand a tree to the interpreter.
func DecodeAST(data []byte) (*ast.Program, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode ast: %w", err)
	}
	node, err := decodeNode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode ast: %w", err)
	}
	program, ok := node.(*ast.Program)
	if !ok {
		return nil, fmt.Errorf("decode ast: root is %s, expected Program", node.Kind())
	}
	return program, nil
}

func decodeNode(node map[string]any) (ast.Node, error) {
	if node == nil {
		return nil, fmt.Errorf("node is nil")
	}
	typ, _ := node["type"].(string)
	loc := decodeLocation(node["location"])

	switch typ {
	case ast.PROGRAM:
		stmts, err := decodeStatements(node["statements"])
		if err != nil {
			return nil, err
		}
		return &ast.Program{Statements: stmts}, nil

	case ast.VARIABLE_DECLARATION:
		name, err := decodeIdentifier(node["name"])
		if err != nil {
			return nil, err
		}
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		constant, _ := node["constant"].(bool)
		return &ast.VariableDeclaration{Loc: loc, Name: name, Value: value, Constant: constant}, nil

	case ast.ASSIGNMENT:
		target, err := decodeExpression(node["target"])
		if err != nil {
			return nil, err
		}
		switch target.(type) {
		case *ast.Identifier, *ast.IndexExpression, *ast.MemberExpression:
		default:
			return nil, fmt.Errorf("invalid assignment target %s", target.Kind())
		}
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{Loc: loc, Target: target, Value: value}, nil

	case ast.EXPRESSION_STATEMENT:
		expr, err := decodeExpression(node["expression"])
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Loc: loc, Expression: expr}, nil

	case ast.LOG_STATEMENT:
		value, err := decodeExpression(node["value"])
		if err != nil {
			return nil, err
		}
		return &ast.LogStatement{Loc: loc, Value: value}, nil

	case ast.BLOCK_STATEMENT:
		stmts, err := decodeStatements(node["statements"])
		if err != nil {
			return nil, err
		}
		return &ast.BlockStatement{Loc: loc, Statements: stmts}, nil

	case ast.IF_STATEMENT:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(node["thenBranch"])
		if err != nil {
			return nil, err
		}
		stmt := &ast.IfStatement{Loc: loc, Condition: cond, ThenBranch: then}
		if raw, ok := node["elseBranch"].(map[string]any); ok {
			elseNode, err := decodeNode(raw)
			if err != nil {
				return nil, err
			}
			switch e := elseNode.(type) {
			case *ast.BlockStatement:
				stmt.ElseBranch = e
			case *ast.IfStatement:
				stmt.ElseBranch = e
			default:
				return nil, fmt.Errorf("invalid else branch %s", elseNode.Kind())
			}
		}
		return stmt, nil

	case ast.REPEAT_STATEMENT:
		count, err := decodeExpression(node["count"])
		if err != nil {
			return nil, err
		}
		index, err := decodeOptionalIdentifier(node["index"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return &ast.RepeatStatement{Loc: loc, Count: count, Index: index, Body: body}, nil

	case ast.REPEAT_FOREVER:
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return &ast.RepeatForeverStatement{Loc: loc, Body: body}, nil

	case ast.WHILE_STATEMENT:
		cond, err := decodeExpression(node["condition"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return &ast.WhileStatement{Loc: loc, Condition: cond, Body: body}, nil

	case ast.FOR_EACH_STATEMENT:
		element, err := decodeIdentifier(node["element"])
		if err != nil {
			return nil, err
		}
		iterable, err := decodeExpression(node["iterable"])
		if err != nil {
			return nil, err
		}
		index, err := decodeOptionalIdentifier(node["index"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return &ast.ForEachStatement{Loc: loc, Element: element, Iterable: iterable, Index: index, Body: body}, nil

	case ast.BREAK_STATEMENT:
		return &ast.BreakStatement{Loc: loc}, nil

	case ast.CONTINUE_STATEMENT:
		return &ast.ContinueStatement{Loc: loc}, nil

	case ast.RETURN_STATEMENT:
		stmt := &ast.ReturnStatement{Loc: loc}
		if raw, ok := node["returnValue"].(map[string]any); ok {
			value, err := decodeExpression(raw)
			if err != nil {
				return nil, err
			}
			stmt.ReturnValue = value
		}
		return stmt, nil

	case ast.FUNCTION_DECLARATION:
		name, err := decodeIdentifier(node["name"])
		if err != nil {
			return nil, err
		}
		params, err := decodeIdentifiers(node["parameters"])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(node["body"])
		if err != nil {
			return nil, err
		}
		return &ast.FunctionDeclaration{Loc: loc, Name: name, Parameters: params, Body: body}, nil

	case ast.CLASS_DECLARATION:
		name, err := decodeIdentifier(node["name"])
		if err != nil {
			return nil, err
		}
		props, err := decodeIdentifiers(node["properties"])
		if err != nil {
			return nil, err
		}
		stmt := &ast.ClassDeclaration{Loc: loc, Name: name, Properties: props}
		if raw, ok := node["constructor"].(map[string]any); ok {
			stmt.Constructor, err = decodeMethod(raw)
			if err != nil {
				return nil, err
			}
		}
		methodsRaw, _ := node["methods"].([]any)
		for _, raw := range methodsRaw {
			m, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid method %T", raw)
			}
			method, err := decodeMethod(m)
			if err != nil {
				return nil, err
			}
			if method.Name == nil {
				return nil, fmt.Errorf("method of %s has no name", name.Value)
			}
			stmt.Methods = append(stmt.Methods, method)
		}
		return stmt, nil

	case ast.NUMBER_LITERAL:
		val, ok := node["value"].(float64)
		if !ok {
			return nil, fmt.Errorf("number literal without a numeric value")
		}
		return &ast.NumberLiteral{Loc: loc, Value: val}, nil

	case ast.STRING_LITERAL:
		val, _ := node["value"].(string)
		return &ast.StringLiteral{Loc: loc, Value: val}, nil

	case ast.BOOLEAN_LITERAL:
		val, _ := node["value"].(bool)
		return &ast.BooleanLiteral{Loc: loc, Value: val}, nil

	case ast.NULL_LITERAL:
		return &ast.NullLiteral{Loc: loc}, nil

	case ast.LIST_LITERAL:
		elements, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return &ast.ListLiteral{Loc: loc, Elements: elements}, nil

	case ast.DICTIONARY_LITERAL:
		entriesRaw, _ := node["entries"].([]any)
		dict := &ast.DictionaryLiteral{Loc: loc, Entries: make([]ast.DictionaryEntry, 0, len(entriesRaw))}
		for _, raw := range entriesRaw {
			entry, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid dictionary entry %T", raw)
			}
			key, err := decodeExpression(entry["key"])
			if err != nil {
				return nil, err
			}
			value, err := decodeExpression(entry["value"])
			if err != nil {
				return nil, err
			}
			dict.Entries = append(dict.Entries, ast.DictionaryEntry{Key: key, Value: value})
		}
		return dict, nil

	case ast.IDENTIFIER:
		val, _ := node["value"].(string)
		if val == "" {
			return nil, fmt.Errorf("identifier without a name")
		}
		return &ast.Identifier{Loc: loc, Value: val}, nil

	case ast.THIS_EXPRESSION:
		return &ast.ThisExpression{Loc: loc}, nil

	case ast.UNARY_EXPRESSION:
		operand, err := decodeExpression(node["operand"])
		if err != nil {
			return nil, err
		}
		op, _ := node["operator"].(string)
		return &ast.UnaryExpression{Loc: loc, Operator: op, Operand: operand}, nil

	case ast.BINARY_EXPRESSION, ast.LOGICAL_EXPRESSION:
		left, err := decodeExpression(node["left"])
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(node["right"])
		if err != nil {
			return nil, err
		}
		op, _ := node["operator"].(string)
		if typ == ast.LOGICAL_EXPRESSION {
			return &ast.LogicalExpression{Loc: loc, Left: left, Operator: op, Right: right}, nil
		}
		return &ast.BinaryExpression{Loc: loc, Left: left, Operator: op, Right: right}, nil

	case ast.GROUPING:
		inner, err := decodeExpression(node["inner"])
		if err != nil {
			return nil, err
		}
		return &ast.GroupingExpression{Loc: loc, Inner: inner}, nil

	case ast.CALL_EXPRESSION:
		callee, err := decodeIdentifier(node["callee"])
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return &ast.CallExpression{Loc: loc, Callee: callee, Arguments: args}, nil

	case ast.METHOD_CALL:
		object, err := decodeExpression(node["object"])
		if err != nil {
			return nil, err
		}
		method, err := decodeIdentifier(node["method"])
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return &ast.MethodCallExpression{Loc: loc, Object: object, Method: method, Arguments: args}, nil

	case ast.INDEX_EXPRESSION:
		object, err := decodeExpression(node["object"])
		if err != nil {
			return nil, err
		}
		index, err := decodeExpression(node["index"])
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpression{Loc: loc, Object: object, Index: index}, nil

	case ast.MEMBER_EXPRESSION:
		object, err := decodeExpression(node["object"])
		if err != nil {
			return nil, err
		}
		prop, err := decodeIdentifier(node["property"])
		if err != nil {
			return nil, err
		}
		return &ast.MemberExpression{Loc: loc, Object: object, Property: prop}, nil

	case ast.INSTANTIATION:
		class, err := decodeIdentifier(node["class"])
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return &ast.InstantiationExpression{Loc: loc, Class: class, Arguments: args}, nil
	}

	return nil, fmt.Errorf("unsupported node type %q", typ)
}

func decodeLocation(raw any) ast.Location {
	m, ok := raw.(map[string]any)
	if !ok {
		return ast.Location{}
	}
	get := func(key string) int {
		f, _ := m[key].(float64)
		return int(f)
	}
	return ast.Location{
		Line:      get("line"),
		Column:    get("column"),
		EndLine:   get("endLine"),
		EndColumn: get("endColumn"),
		Offset:    get("offset"),
		EndOffset: get("endOffset"),
	}
}

func decodeMethod(node map[string]any) (*ast.MethodDeclaration, error) {
	name, err := decodeOptionalIdentifier(node["name"])
	if err != nil {
		return nil, err
	}
	params, err := decodeIdentifiers(node["parameters"])
	if err != nil {
		return nil, err
	}
	body, err := decodeBlock(node["body"])
	if err != nil {
		return nil, err
	}
	return &ast.MethodDeclaration{Loc: decodeLocation(node["location"]), Name: name, Parameters: params, Body: body}, nil
}

func decodeStatements(raw any) ([]ast.Statement, error) {
	list, _ := raw.([]any)
	out := make([]ast.Statement, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid statement %T", item)
		}
		node, err := decodeNode(m)
		if err != nil {
			return nil, err
		}
		stmt, ok := node.(ast.Statement)
		if !ok {
			return nil, fmt.Errorf("%s is not a statement", node.Kind())
		}
		out = append(out, stmt)
	}
	return out, nil
}

func decodeExpression(raw any) (ast.Expression, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing expression")
	}
	node, err := decodeNode(m)
	if err != nil {
		return nil, err
	}
	expr, ok := node.(ast.Expression)
	if !ok {
		return nil, fmt.Errorf("%s is not an expression", node.Kind())
	}
	return expr, nil
}

func decodeExpressions(raw any) ([]ast.Expression, error) {
	list, _ := raw.([]any)
	out := make([]ast.Expression, 0, len(list))
	for _, item := range list {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func decodeIdentifier(raw any) (*ast.Identifier, error) {
	expr, err := decodeExpression(raw)
	if err != nil {
		return nil, err
	}
	id, ok := expr.(*ast.Identifier)
	if !ok {
		return nil, fmt.Errorf("expected Identifier, got %s", expr.Kind())
	}
	return id, nil
}

func decodeOptionalIdentifier(raw any) (*ast.Identifier, error) {
	if raw == nil {
		return nil, nil
	}
	return decodeIdentifier(raw)
}

func decodeIdentifiers(raw any) ([]*ast.Identifier, error) {
	list, _ := raw.([]any)
	out := make([]*ast.Identifier, 0, len(list))
	for _, item := range list {
		id, err := decodeIdentifier(item)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func decodeBlock(raw any) (*ast.BlockStatement, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing block")
	}
	node, err := decodeNode(m)
	if err != nil {
		return nil, err
	}
	block, ok := node.(*ast.BlockStatement)
	if !ok {
		return nil, fmt.Errorf("expected BlockStatement, got %s", node.Kind())
	}
	return block, nil
}
