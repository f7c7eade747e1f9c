package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"jiki/internal/ast"
)

// WalkAST serialises an AST into a map structure for JSON output. Every node
// carries its "type" and "location"; the shape is what DecodeAST reads back.
func WalkAST(node ast.Node) interface{} {
	if node == nil || (reflect.ValueOf(node).Kind() == reflect.Ptr && reflect.ValueOf(node).IsNil()) {
		return nil
	}

	switch n := node.(type) {
	case *ast.Program:
		return map[string]interface{}{
			"type":       ast.PROGRAM,
			"statements": walkStatements(n.Statements),
		}

	case *ast.VariableDeclaration:
		return map[string]interface{}{
			"type":     ast.VARIABLE_DECLARATION,
			"location": n.Loc,
			"name":     WalkAST(n.Name),
			"value":    WalkAST(n.Value),
			"constant": n.Constant,
		}

	case *ast.Assignment:
		return map[string]interface{}{
			"type":     ast.ASSIGNMENT,
			"location": n.Loc,
			"target":   WalkAST(n.Target),
			"value":    WalkAST(n.Value),
		}

	case *ast.ExpressionStatement:
		return map[string]interface{}{
			"type":       ast.EXPRESSION_STATEMENT,
			"location":   n.Loc,
			"expression": WalkAST(n.Expression),
		}

	case *ast.LogStatement:
		return map[string]interface{}{
			"type":     ast.LOG_STATEMENT,
			"location": n.Loc,
			"value":    WalkAST(n.Value),
		}

	case *ast.BlockStatement:
		return map[string]interface{}{
			"type":       ast.BLOCK_STATEMENT,
			"location":   n.Loc,
			"statements": walkStatements(n.Statements),
		}

	case *ast.IfStatement:
		return map[string]interface{}{
			"type":       ast.IF_STATEMENT,
			"location":   n.Loc,
			"condition":  WalkAST(n.Condition),
			"thenBranch": WalkAST(n.ThenBranch),
			"elseBranch": WalkAST(n.ElseBranch),
		}

	case *ast.RepeatStatement:
		return map[string]interface{}{
			"type":     ast.REPEAT_STATEMENT,
			"location": n.Loc,
			"count":    WalkAST(n.Count),
			"index":    WalkAST(n.Index),
			"body":     WalkAST(n.Body),
		}

	case *ast.RepeatForeverStatement:
		return map[string]interface{}{
			"type":     ast.REPEAT_FOREVER,
			"location": n.Loc,
			"body":     WalkAST(n.Body),
		}

	case *ast.WhileStatement:
		return map[string]interface{}{
			"type":      ast.WHILE_STATEMENT,
			"location":  n.Loc,
			"condition": WalkAST(n.Condition),
			"body":      WalkAST(n.Body),
		}

	case *ast.ForEachStatement:
		return map[string]interface{}{
			"type":     ast.FOR_EACH_STATEMENT,
			"location": n.Loc,
			"element":  WalkAST(n.Element),
			"iterable": WalkAST(n.Iterable),
			"index":    WalkAST(n.Index),
			"body":     WalkAST(n.Body),
		}

	case *ast.BreakStatement:
		return map[string]interface{}{
			"type":     ast.BREAK_STATEMENT,
			"location": n.Loc,
		}

	case *ast.ContinueStatement:
		return map[string]interface{}{
			"type":     ast.CONTINUE_STATEMENT,
			"location": n.Loc,
		}

	case *ast.ReturnStatement:
		return map[string]interface{}{
			"type":        ast.RETURN_STATEMENT,
			"location":    n.Loc,
			"returnValue": WalkAST(n.ReturnValue),
		}

	case *ast.FunctionDeclaration:
		return map[string]interface{}{
			"type":       ast.FUNCTION_DECLARATION,
			"location":   n.Loc,
			"name":       WalkAST(n.Name),
			"parameters": walkIdentifiers(n.Parameters),
			"body":       WalkAST(n.Body),
		}

	case *ast.ClassDeclaration:
		methods := make([]interface{}, len(n.Methods))
		for i, m := range n.Methods {
			methods[i] = walkMethod(m)
		}
		var constructor interface{}
		if n.Constructor != nil {
			constructor = walkMethod(n.Constructor)
		}
		return map[string]interface{}{
			"type":        ast.CLASS_DECLARATION,
			"location":    n.Loc,
			"name":        WalkAST(n.Name),
			"properties":  walkIdentifiers(n.Properties),
			"constructor": constructor,
			"methods":     methods,
		}

	case *ast.NumberLiteral:
		return map[string]interface{}{
			"type":     ast.NUMBER_LITERAL,
			"location": n.Loc,
			"value":    n.Value,
		}

	case *ast.StringLiteral:
		return map[string]interface{}{
			"type":     ast.STRING_LITERAL,
			"location": n.Loc,
			"value":    n.Value,
		}

	case *ast.BooleanLiteral:
		return map[string]interface{}{
			"type":     ast.BOOLEAN_LITERAL,
			"location": n.Loc,
			"value":    n.Value,
		}

	case *ast.NullLiteral:
		return map[string]interface{}{
			"type":     ast.NULL_LITERAL,
			"location": n.Loc,
		}

	case *ast.ListLiteral:
		return map[string]interface{}{
			"type":     ast.LIST_LITERAL,
			"location": n.Loc,
			"elements": walkExpressions(n.Elements),
		}

	case *ast.DictionaryLiteral:
		entries := make([]interface{}, len(n.Entries))
		for i, e := range n.Entries {
			entries[i] = map[string]interface{}{
				"key":   WalkAST(e.Key),
				"value": WalkAST(e.Value),
			}
		}
		return map[string]interface{}{
			"type":     ast.DICTIONARY_LITERAL,
			"location": n.Loc,
			"entries":  entries,
		}

	case *ast.Identifier:
		return map[string]interface{}{
			"type":     ast.IDENTIFIER,
			"location": n.Loc,
			"value":    n.Value,
		}

	case *ast.ThisExpression:
		return map[string]interface{}{
			"type":     ast.THIS_EXPRESSION,
			"location": n.Loc,
		}

	case *ast.UnaryExpression:
		return map[string]interface{}{
			"type":     ast.UNARY_EXPRESSION,
			"location": n.Loc,
			"operator": n.Operator,
			"operand":  WalkAST(n.Operand),
		}

	case *ast.BinaryExpression:
		return map[string]interface{}{
			"type":     ast.BINARY_EXPRESSION,
			"location": n.Loc,
			"left":     WalkAST(n.Left),
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		}

	case *ast.LogicalExpression:
		return map[string]interface{}{
			"type":     ast.LOGICAL_EXPRESSION,
			"location": n.Loc,
			"left":     WalkAST(n.Left),
			"operator": n.Operator,
			"right":    WalkAST(n.Right),
		}

	case *ast.GroupingExpression:
		return map[string]interface{}{
			"type":     ast.GROUPING,
			"location": n.Loc,
			"inner":    WalkAST(n.Inner),
		}

	case *ast.CallExpression:
		return map[string]interface{}{
			"type":      ast.CALL_EXPRESSION,
			"location":  n.Loc,
			"callee":    WalkAST(n.Callee),
			"arguments": walkExpressions(n.Arguments),
		}

	case *ast.MethodCallExpression:
		return map[string]interface{}{
			"type":      ast.METHOD_CALL,
			"location":  n.Loc,
			"object":    WalkAST(n.Object),
			"method":    WalkAST(n.Method),
			"arguments": walkExpressions(n.Arguments),
		}

	case *ast.IndexExpression:
		return map[string]interface{}{
			"type":     ast.INDEX_EXPRESSION,
			"location": n.Loc,
			"object":   WalkAST(n.Object),
			"index":    WalkAST(n.Index),
		}

	case *ast.MemberExpression:
		return map[string]interface{}{
			"type":     ast.MEMBER_EXPRESSION,
			"location": n.Loc,
			"object":   WalkAST(n.Object),
			"property": WalkAST(n.Property),
		}

	case *ast.InstantiationExpression:
		return map[string]interface{}{
			"type":      ast.INSTANTIATION,
			"location":  n.Loc,
			"class":     WalkAST(n.Class),
			"arguments": walkExpressions(n.Arguments),
		}

	default:
		return map[string]interface{}{
			"type": fmt.Sprintf("Unknown: %T", n),
		}
	}
}

func walkMethod(m *ast.MethodDeclaration) interface{} {
	var name interface{}
	if m.Name != nil {
		name = WalkAST(m.Name)
	}
	return map[string]interface{}{
		"location":   m.Loc,
		"name":       name,
		"parameters": walkIdentifiers(m.Parameters),
		"body":       WalkAST(m.Body),
	}
}

func walkStatements(stmts []ast.Statement) []interface{} {
	out := make([]interface{}, len(stmts))
	for i, s := range stmts {
		out[i] = WalkAST(s)
	}
	return out
}

func walkExpressions(exprs []ast.Expression) []interface{} {
	out := make([]interface{}, len(exprs))
	for i, e := range exprs {
		out[i] = WalkAST(e)
	}
	return out
}

func walkIdentifiers(ids []*ast.Identifier) []interface{} {
	out := make([]interface{}, len(ids))
	for i, id := range ids {
		out[i] = WalkAST(id)
	}
	return out
}

// MarshalAST renders node as indented JSON.
func MarshalAST(node ast.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteASTJSON(&buf, node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteASTJSON writes node to w as indented JSON.
func WriteASTJSON(w io.Writer, node ast.Node) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")  // Pretty-print the JSON
	encoder.SetEscapeHTML(false) // Disable escaping of characters like <, >, &

	if err := encoder.Encode(WalkAST(node)); err != nil {
		return fmt.Errorf("failed to write JSON: %v", err)
	}
	return nil
}
