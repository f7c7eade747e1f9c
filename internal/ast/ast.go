package ast

import (
	"bytes"
	"strconv"
	"strings"
)

type NodeKind string

const (
	PROGRAM = "Program"

	VARIABLE_DECLARATION = "VariableDeclaration"
	ASSIGNMENT           = "Assignment"
	EXPRESSION_STATEMENT = "ExpressionStatement"
	LOG_STATEMENT        = "LogStatement"
	BLOCK_STATEMENT      = "BlockStatement"
	IF_STATEMENT         = "IfStatement"
	REPEAT_STATEMENT     = "RepeatStatement"
	REPEAT_FOREVER       = "RepeatForeverStatement"
	WHILE_STATEMENT      = "WhileStatement"
	FOR_EACH_STATEMENT   = "ForEachStatement"
	BREAK_STATEMENT      = "BreakStatement"
	CONTINUE_STATEMENT   = "ContinueStatement"
	RETURN_STATEMENT     = "ReturnStatement"
	FUNCTION_DECLARATION = "FunctionDeclaration"
	CLASS_DECLARATION    = "ClassDeclaration"

	NUMBER_LITERAL     = "NumberLiteral"
	STRING_LITERAL     = "StringLiteral"
	BOOLEAN_LITERAL    = "BooleanLiteral"
	NULL_LITERAL       = "NullLiteral"
	LIST_LITERAL       = "ListLiteral"
	DICTIONARY_LITERAL = "DictionaryLiteral"
	IDENTIFIER         = "Identifier"
	THIS_EXPRESSION    = "ThisExpression"
	UNARY_EXPRESSION   = "UnaryExpression"
	BINARY_EXPRESSION  = "BinaryExpression"
	LOGICAL_EXPRESSION = "LogicalExpression"
	GROUPING           = "GroupingExpression"
	CALL_EXPRESSION    = "CallExpression"
	METHOD_CALL        = "MethodCallExpression"
	INDEX_EXPRESSION   = "IndexExpression"
	MEMBER_EXPRESSION  = "MemberExpression"
	INSTANTIATION      = "InstantiationExpression"
)

// Location is the source span of a node. Lines and columns are 1-based,
// offsets are byte offsets into the source.
type Location struct {
	Line      int `json:"line"`
	Column    int `json:"column"`
	EndLine   int `json:"endLine"`
	EndColumn int `json:"endColumn"`
	Offset    int `json:"offset"`
	EndOffset int `json:"endOffset"`
}

// Span returns a location covering both from and to.
func Span(from, to Location) Location {
	return Location{
		Line:      from.Line,
		Column:    from.Column,
		Offset:    from.Offset,
		EndLine:   to.EndLine,
		EndColumn: to.EndColumn,
		EndOffset: to.EndOffset,
	}
}

// The base Node interface. Every front end produces nodes satisfying it.
type Node interface {
	Kind() NodeKind
	Span() Location
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

type Program struct {
	Statements []Statement
	// Source is the text the program was parsed from, if known.
	Source string
}

func (p *Program) Kind() NodeKind { return PROGRAM }
func (p *Program) Span() Location {
	if len(p.Statements) == 0 {
		return Location{}
	}
	return Span(p.Statements[0].Span(), p.Statements[len(p.Statements)-1].Span())
}
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Statements

type VariableDeclaration struct {
	Loc      Location
	Name     *Identifier
	Value    Expression
	Constant bool
}

func (vd *VariableDeclaration) statementNode() {}
func (vd *VariableDeclaration) Kind() NodeKind { return VARIABLE_DECLARATION }
func (vd *VariableDeclaration) Span() Location { return vd.Loc }
func (vd *VariableDeclaration) String() string {
	return "set " + vd.Name.String() + " to " + vd.Value.String()
}

// Assignment changes an existing binding, list/dictionary element or
// instance property. Target is an *Identifier, *IndexExpression or
// *MemberExpression.
type Assignment struct {
	Loc    Location
	Target Expression
	Value  Expression
}

func (a *Assignment) statementNode() {}
func (a *Assignment) Kind() NodeKind { return ASSIGNMENT }
func (a *Assignment) Span() Location { return a.Loc }
func (a *Assignment) String() string {
	return "change " + a.Target.String() + " to " + a.Value.String()
}

type ExpressionStatement struct {
	Loc        Location
	Expression Expression
}

func (es *ExpressionStatement) statementNode() {}
func (es *ExpressionStatement) Kind() NodeKind { return EXPRESSION_STATEMENT }
func (es *ExpressionStatement) Span() Location { return es.Loc }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

type LogStatement struct {
	Loc   Location
	Value Expression
}

func (ls *LogStatement) statementNode() {}
func (ls *LogStatement) Kind() NodeKind { return LOG_STATEMENT }
func (ls *LogStatement) Span() Location { return ls.Loc }
func (ls *LogStatement) String() string { return "log " + ls.Value.String() }

type BlockStatement struct {
	Loc        Location
	Statements []Statement
}

func (bs *BlockStatement) statementNode() {}
func (bs *BlockStatement) Kind() NodeKind { return BLOCK_STATEMENT }
func (bs *BlockStatement) Span() Location { return bs.Loc }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("do\n")
	for _, s := range bs.Statements {
		out.WriteString("  ")
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	out.WriteString("end")
	return out.String()
}

type IfStatement struct {
	Loc        Location
	Condition  Expression
	ThenBranch *BlockStatement
	// ElseBranch is nil, a *BlockStatement or a nested *IfStatement.
	ElseBranch Statement
}

func (is *IfStatement) statementNode() {}
func (is *IfStatement) Kind() NodeKind { return IF_STATEMENT }
func (is *IfStatement) Span() Location { return is.Loc }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(is.Condition.String())
	out.WriteString(" ")
	out.WriteString(is.ThenBranch.String())
	if is.ElseBranch != nil {
		out.WriteString(" else ")
		out.WriteString(is.ElseBranch.String())
	}
	return out.String()
}

type RepeatStatement struct {
	Loc   Location
	Count Expression
	Index *Identifier // optional `indexed by` counter
	Body  *BlockStatement
}

func (rs *RepeatStatement) statementNode() {}
func (rs *RepeatStatement) Kind() NodeKind { return REPEAT_STATEMENT }
func (rs *RepeatStatement) Span() Location { return rs.Loc }
func (rs *RepeatStatement) String() string {
	var out bytes.Buffer
	out.WriteString("repeat ")
	out.WriteString(rs.Count.String())
	out.WriteString(" times ")
	if rs.Index != nil {
		out.WriteString("indexed by ")
		out.WriteString(rs.Index.String())
		out.WriteString(" ")
	}
	out.WriteString(rs.Body.String())
	return out.String()
}

// RepeatForeverStatement is the zero-argument repeat. It is not bounded by
// the loop iteration ceiling.
type RepeatForeverStatement struct {
	Loc  Location
	Body *BlockStatement
}

func (rf *RepeatForeverStatement) statementNode() {}
func (rf *RepeatForeverStatement) Kind() NodeKind { return REPEAT_FOREVER }
func (rf *RepeatForeverStatement) Span() Location { return rf.Loc }
func (rf *RepeatForeverStatement) String() string { return "repeat " + rf.Body.String() }

type WhileStatement struct {
	Loc       Location
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) statementNode() {}
func (ws *WhileStatement) Kind() NodeKind { return WHILE_STATEMENT }
func (ws *WhileStatement) Span() Location { return ws.Loc }
func (ws *WhileStatement) String() string {
	return "while " + ws.Condition.String() + " " + ws.Body.String()
}

type ForEachStatement struct {
	Loc      Location
	Element  *Identifier
	Iterable Expression
	Index    *Identifier
	Body     *BlockStatement
}

func (fe *ForEachStatement) statementNode() {}
func (fe *ForEachStatement) Kind() NodeKind { return FOR_EACH_STATEMENT }
func (fe *ForEachStatement) Span() Location { return fe.Loc }
func (fe *ForEachStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for each ")
	out.WriteString(fe.Element.String())
	out.WriteString(" in ")
	out.WriteString(fe.Iterable.String())
	out.WriteString(" ")
	if fe.Index != nil {
		out.WriteString("indexed by ")
		out.WriteString(fe.Index.String())
		out.WriteString(" ")
	}
	out.WriteString(fe.Body.String())
	return out.String()
}

type BreakStatement struct {
	Loc Location
}

func (bs *BreakStatement) statementNode() {}
func (bs *BreakStatement) Kind() NodeKind { return BREAK_STATEMENT }
func (bs *BreakStatement) Span() Location { return bs.Loc }
func (bs *BreakStatement) String() string { return "break" }

type ContinueStatement struct {
	Loc Location
}

func (cs *ContinueStatement) statementNode() {}
func (cs *ContinueStatement) Kind() NodeKind { return CONTINUE_STATEMENT }
func (cs *ContinueStatement) Span() Location { return cs.Loc }
func (cs *ContinueStatement) String() string { return "continue" }

type ReturnStatement struct {
	Loc         Location
	ReturnValue Expression // nil for a bare return
}

func (rs *ReturnStatement) statementNode() {}
func (rs *ReturnStatement) Kind() NodeKind { return RETURN_STATEMENT }
func (rs *ReturnStatement) Span() Location { return rs.Loc }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return"
	}
	return "return " + rs.ReturnValue.String()
}

type FunctionDeclaration struct {
	Loc        Location
	Name       *Identifier
	Parameters []*Identifier
	Body       *BlockStatement
}

func (fd *FunctionDeclaration) statementNode() {}
func (fd *FunctionDeclaration) Kind() NodeKind { return FUNCTION_DECLARATION }
func (fd *FunctionDeclaration) Span() Location { return fd.Loc }
func (fd *FunctionDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("function ")
	out.WriteString(fd.Name.String())
	if len(fd.Parameters) > 0 {
		out.WriteString(" with ")
		out.WriteString(joinIdentifiers(fd.Parameters))
	}
	out.WriteString(" ")
	out.WriteString(fd.Body.String())
	return out.String()
}

// MethodDeclaration is a function owned by a class. It is not a statement
// on its own.
type MethodDeclaration struct {
	Loc        Location
	Name       *Identifier
	Parameters []*Identifier
	Body       *BlockStatement
}

func (md *MethodDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("method ")
	out.WriteString(md.Name.String())
	if len(md.Parameters) > 0 {
		out.WriteString(" with ")
		out.WriteString(joinIdentifiers(md.Parameters))
	}
	out.WriteString(" ")
	out.WriteString(md.Body.String())
	return out.String()
}

type ClassDeclaration struct {
	Loc         Location
	Name        *Identifier
	Properties  []*Identifier
	Constructor *MethodDeclaration // optional
	Methods     []*MethodDeclaration
}

func (cd *ClassDeclaration) statementNode() {}
func (cd *ClassDeclaration) Kind() NodeKind { return CLASS_DECLARATION }
func (cd *ClassDeclaration) Span() Location { return cd.Loc }
func (cd *ClassDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("class ")
	out.WriteString(cd.Name.String())
	out.WriteString(" do\n")
	for _, p := range cd.Properties {
		out.WriteString("  property ")
		out.WriteString(p.String())
		out.WriteString("\n")
	}
	if cd.Constructor != nil {
		out.WriteString("  constructor")
		if len(cd.Constructor.Parameters) > 0 {
			out.WriteString(" with ")
			out.WriteString(joinIdentifiers(cd.Constructor.Parameters))
		}
		out.WriteString(" ")
		out.WriteString(cd.Constructor.Body.String())
		out.WriteString("\n")
	}
	for _, m := range cd.Methods {
		out.WriteString("  ")
		out.WriteString(m.String())
		out.WriteString("\n")
	}
	out.WriteString("end")
	return out.String()
}

// Expressions

type NumberLiteral struct {
	Loc   Location
	Value float64
}

func (nl *NumberLiteral) expressionNode() {}
func (nl *NumberLiteral) Kind() NodeKind  { return NUMBER_LITERAL }
func (nl *NumberLiteral) Span() Location  { return nl.Loc }
func (nl *NumberLiteral) String() string  { return strconv.FormatFloat(nl.Value, 'f', -1, 64) }

type StringLiteral struct {
	Loc   Location
	Value string
}

func (sl *StringLiteral) expressionNode() {}
func (sl *StringLiteral) Kind() NodeKind  { return STRING_LITERAL }
func (sl *StringLiteral) Span() Location  { return sl.Loc }
func (sl *StringLiteral) String() string  { return strconv.Quote(sl.Value) }

type BooleanLiteral struct {
	Loc   Location
	Value bool
}

func (bl *BooleanLiteral) expressionNode() {}
func (bl *BooleanLiteral) Kind() NodeKind  { return BOOLEAN_LITERAL }
func (bl *BooleanLiteral) Span() Location  { return bl.Loc }
func (bl *BooleanLiteral) String() string  { return strconv.FormatBool(bl.Value) }

type NullLiteral struct {
	Loc Location
}

func (nl *NullLiteral) expressionNode() {}
func (nl *NullLiteral) Kind() NodeKind  { return NULL_LITERAL }
func (nl *NullLiteral) Span() Location  { return nl.Loc }
func (nl *NullLiteral) String() string  { return "null" }

type ListLiteral struct {
	Loc      Location
	Elements []Expression
}

func (ll *ListLiteral) expressionNode() {}
func (ll *ListLiteral) Kind() NodeKind  { return LIST_LITERAL }
func (ll *ListLiteral) Span() Location  { return ll.Loc }
func (ll *ListLiteral) String() string {
	elements := make([]string, 0, len(ll.Elements))
	for _, e := range ll.Elements {
		elements = append(elements, e.String())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

type DictionaryEntry struct {
	Key   Expression
	Value Expression
}

type DictionaryLiteral struct {
	Loc     Location
	Entries []DictionaryEntry
}

func (dl *DictionaryLiteral) expressionNode() {}
func (dl *DictionaryLiteral) Kind() NodeKind  { return DICTIONARY_LITERAL }
func (dl *DictionaryLiteral) Span() Location  { return dl.Loc }
func (dl *DictionaryLiteral) String() string {
	pairs := make([]string, 0, len(dl.Entries))
	for _, e := range dl.Entries {
		pairs = append(pairs, e.Key.String()+": "+e.Value.String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type Identifier struct {
	Loc   Location
	Value string
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) Kind() NodeKind  { return IDENTIFIER }
func (i *Identifier) Span() Location  { return i.Loc }
func (i *Identifier) String() string  { return i.Value }

type ThisExpression struct {
	Loc Location
}

func (te *ThisExpression) expressionNode() {}
func (te *ThisExpression) Kind() NodeKind  { return THIS_EXPRESSION }
func (te *ThisExpression) Span() Location  { return te.Loc }
func (te *ThisExpression) String() string  { return "this" }

type UnaryExpression struct {
	Loc      Location
	Operator string // "-" or "not"
	Operand  Expression
}

func (ue *UnaryExpression) expressionNode() {}
func (ue *UnaryExpression) Kind() NodeKind  { return UNARY_EXPRESSION }
func (ue *UnaryExpression) Span() Location  { return ue.Loc }
func (ue *UnaryExpression) String() string {
	if ue.Operator == "not" {
		return "(not " + ue.Operand.String() + ")"
	}
	return "(" + ue.Operator + ue.Operand.String() + ")"
}

type BinaryExpression struct {
	Loc      Location
	Left     Expression
	Operator string
	Right    Expression
}

func (be *BinaryExpression) expressionNode() {}
func (be *BinaryExpression) Kind() NodeKind  { return BINARY_EXPRESSION }
func (be *BinaryExpression) Span() Location  { return be.Loc }
func (be *BinaryExpression) String() string {
	return "(" + be.Left.String() + " " + be.Operator + " " + be.Right.String() + ")"
}

// LogicalExpression is a short-circuiting "and"/"or".
type LogicalExpression struct {
	Loc      Location
	Left     Expression
	Operator string
	Right    Expression
}

func (le *LogicalExpression) expressionNode() {}
func (le *LogicalExpression) Kind() NodeKind  { return LOGICAL_EXPRESSION }
func (le *LogicalExpression) Span() Location  { return le.Loc }
func (le *LogicalExpression) String() string {
	return "(" + le.Left.String() + " " + le.Operator + " " + le.Right.String() + ")"
}

type GroupingExpression struct {
	Loc   Location
	Inner Expression
}

func (ge *GroupingExpression) expressionNode() {}
func (ge *GroupingExpression) Kind() NodeKind  { return GROUPING }
func (ge *GroupingExpression) Span() Location  { return ge.Loc }
func (ge *GroupingExpression) String() string  { return "(" + ge.Inner.String() + ")" }

type CallExpression struct {
	Loc       Location
	Callee    *Identifier
	Arguments []Expression
}

func (ce *CallExpression) expressionNode() {}
func (ce *CallExpression) Kind() NodeKind  { return CALL_EXPRESSION }
func (ce *CallExpression) Span() Location  { return ce.Loc }
func (ce *CallExpression) String() string {
	return ce.Callee.String() + "(" + joinExpressions(ce.Arguments) + ")"
}

type MethodCallExpression struct {
	Loc       Location
	Object    Expression
	Method    *Identifier
	Arguments []Expression
}

func (mc *MethodCallExpression) expressionNode() {}
func (mc *MethodCallExpression) Kind() NodeKind  { return METHOD_CALL }
func (mc *MethodCallExpression) Span() Location  { return mc.Loc }
func (mc *MethodCallExpression) String() string {
	return mc.Object.String() + "." + mc.Method.String() + "(" + joinExpressions(mc.Arguments) + ")"
}

type IndexExpression struct {
	Loc    Location
	Object Expression
	Index  Expression
}

func (ie *IndexExpression) expressionNode() {}
func (ie *IndexExpression) Kind() NodeKind  { return INDEX_EXPRESSION }
func (ie *IndexExpression) Span() Location  { return ie.Loc }
func (ie *IndexExpression) String() string {
	return ie.Object.String() + "[" + ie.Index.String() + "]"
}

type MemberExpression struct {
	Loc      Location
	Object   Expression
	Property *Identifier
}

func (me *MemberExpression) expressionNode() {}
func (me *MemberExpression) Kind() NodeKind  { return MEMBER_EXPRESSION }
func (me *MemberExpression) Span() Location  { return me.Loc }
func (me *MemberExpression) String() string {
	return me.Object.String() + "." + me.Property.String()
}

type InstantiationExpression struct {
	Loc       Location
	Class     *Identifier
	Arguments []Expression
}

func (ie *InstantiationExpression) expressionNode() {}
func (ie *InstantiationExpression) Kind() NodeKind  { return INSTANTIATION }
func (ie *InstantiationExpression) Span() Location  { return ie.Loc }
func (ie *InstantiationExpression) String() string {
	return "new " + ie.Class.String() + "(" + joinExpressions(ie.Arguments) + ")"
}

func joinIdentifiers(ids []*Identifier) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.Value)
	}
	return strings.Join(names, ", ")
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}
