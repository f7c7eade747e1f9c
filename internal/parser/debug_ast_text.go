package parser

import (
	"fmt"
	"strconv"
	"strings"

	"jiki/internal/ast"
)

// RenderASTAsText produces an indented outline of the tree, one node per
// line with its position. It is meant for checking precedence and nesting.
func RenderASTAsText(node ast.Node) string {
	var sb strings.Builder
	renderNode(&sb, node, 0)
	return sb.String()
}

func renderNode(sb *strings.Builder, node ast.Node, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	sb.WriteString(string(node.Kind()))
	if detail := nodeDetail(node); detail != "" {
		sb.WriteString(" ")
		sb.WriteString(detail)
	}
	if loc := node.Span(); loc.Line > 0 {
		fmt.Fprintf(sb, " @%d:%d", loc.Line, loc.Column)
	}
	sb.WriteString("\n")

	for _, child := range ast.Children(node) {
		renderNode(sb, child, indent+1)
	}
}

func nodeDetail(node ast.Node) string {
	switch n := node.(type) {
	case *ast.VariableDeclaration:
		if n.Constant {
			return "constant"
		}
	case *ast.Identifier:
		return n.Value
	case *ast.NumberLiteral:
		return strconv.FormatFloat(n.Value, 'f', -1, 64)
	case *ast.StringLiteral:
		return strconv.Quote(n.Value)
	case *ast.BooleanLiteral:
		return strconv.FormatBool(n.Value)
	case *ast.UnaryExpression:
		return n.Operator
	case *ast.BinaryExpression:
		return n.Operator
	case *ast.LogicalExpression:
		return n.Operator
	case *ast.ClassDeclaration:
		props := make([]string, len(n.Properties))
		for i, p := range n.Properties {
			props[i] = p.Value
		}
		return "(" + strings.Join(props, ", ") + ")"
	}
	return ""
}
