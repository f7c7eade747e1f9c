package ast

import "reflect"

// Children returns the direct child nodes of node in source order.
// Method bodies of a class are returned as their block statements.
func Children(node Node) []Node {
	if isNil(node) {
		return nil
	}
	var out []Node
	add := func(nodes ...Node) {
		for _, n := range nodes {
			if !isNil(n) {
				out = append(out, n)
			}
		}
	}

	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			add(s)
		}
	case *VariableDeclaration:
		add(n.Name, n.Value)
	case *Assignment:
		add(n.Target, n.Value)
	case *ExpressionStatement:
		add(n.Expression)
	case *LogStatement:
		add(n.Value)
	case *BlockStatement:
		for _, s := range n.Statements {
			add(s)
		}
	case *IfStatement:
		add(n.Condition, n.ThenBranch)
		if n.ElseBranch != nil {
			add(n.ElseBranch)
		}
	case *RepeatStatement:
		add(n.Count)
		if n.Index != nil {
			add(n.Index)
		}
		add(n.Body)
	case *RepeatForeverStatement:
		add(n.Body)
	case *WhileStatement:
		add(n.Condition, n.Body)
	case *ForEachStatement:
		add(n.Element, n.Iterable)
		if n.Index != nil {
			add(n.Index)
		}
		add(n.Body)
	case *ReturnStatement:
		if n.ReturnValue != nil {
			add(n.ReturnValue)
		}
	case *FunctionDeclaration:
		add(n.Name)
		for _, p := range n.Parameters {
			add(p)
		}
		add(n.Body)
	case *ClassDeclaration:
		add(n.Name)
		if n.Constructor != nil {
			add(n.Constructor.Body)
		}
		for _, m := range n.Methods {
			add(m.Body)
		}
	case *ListLiteral:
		for _, e := range n.Elements {
			add(e)
		}
	case *DictionaryLiteral:
		for _, e := range n.Entries {
			add(e.Key, e.Value)
		}
	case *UnaryExpression:
		add(n.Operand)
	case *BinaryExpression:
		add(n.Left, n.Right)
	case *LogicalExpression:
		add(n.Left, n.Right)
	case *GroupingExpression:
		add(n.Inner)
	case *CallExpression:
		add(n.Callee)
		for _, a := range n.Arguments {
			add(a)
		}
	case *MethodCallExpression:
		add(n.Object, n.Method)
		for _, a := range n.Arguments {
			add(a)
		}
	case *IndexExpression:
		add(n.Object, n.Index)
	case *MemberExpression:
		add(n.Object, n.Property)
	case *InstantiationExpression:
		add(n.Class)
		for _, a := range n.Arguments {
			add(a)
		}
	}
	return out
}

// Inspect traverses the tree rooted at node depth-first. If fn returns
// false the children of that node are skipped.
func Inspect(node Node, fn func(Node) bool) {
	if isNil(node) || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Inspect(child, fn)
	}
}

func isNil(node Node) bool {
	if node == nil {
		return true
	}
	v := reflect.ValueOf(node)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
