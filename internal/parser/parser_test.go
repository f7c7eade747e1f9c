package parser

import (
	"strings"
	"testing"

	"jiki/internal/ast"
	"jiki/internal/diagnostics"
	"jiki/internal/language"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	program, err := Parse(src, language.Features{})
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return program
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"10 % 3 + 1", "((10 % 3) + 1)"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"2 * 3 ** 2", "(2 * (3 ** 2))"},
		{"-2 ** 2", "(-(2 ** 2))"},
		{"-a * b", "((-a) * b)"},
		{"a - -b", "(a - (-b))"},
		{"not a == b", "(not (a == b))"},
		{"not a and b", "((not a) and b)"},
		{"a and b or c", "((a and b) or c)"},
		{"a or b and c", "(a or (b and c))"},
		{"x < 1 == true", "((x < 1) == true)"},
		{`"k" in d`, `("k" in d)`},
		{"(1 + 2) * 3", "(((1 + 2)) * 3)"},
		{"xs[0].name", "xs[0].name"},
		{"obj.move(1, 2)", "obj.move(1, 2)"},
		{"new Counter(1)", "new Counter(1)"},
		{"add(1, mul(2, 3))", "add(1, mul(2, 3))"},
		{"[1, [2]][0]", "[1, [2]][0]"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parse(t, "log "+tt.input)
			stmt, ok := program.Statements[0].(*ast.LogStatement)
			if !ok {
				t.Fatalf("expected LogStatement, got %T", program.Statements[0])
			}
			if got := stmt.Value.String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseStatements(t *testing.T) {
	input := `// counting things
set x to 1
constant k to 2
change x to x + 1
log x
if x > 1 do
  log "big"
else if x == 1 do
  log "one"
else
  log "small"
end
repeat 3 times indexed by i do
  continue
end
repeat do
  break
end
while x < 10 do
  change x to x + 1
end
for each c in "abc" indexed by n do
  log c
end
function add with a, b do
  return a + b
end
class Counter do
  property count
  constructor with start do
    change this.count to start
  end
  method inc do
    change this.count to this.count + 1
  end
end
`
	program := parse(t, input)

	expected := []ast.NodeKind{
		ast.VARIABLE_DECLARATION,
		ast.VARIABLE_DECLARATION,
		ast.ASSIGNMENT,
		ast.LOG_STATEMENT,
		ast.IF_STATEMENT,
		ast.REPEAT_STATEMENT,
		ast.REPEAT_FOREVER,
		ast.WHILE_STATEMENT,
		ast.FOR_EACH_STATEMENT,
		ast.FUNCTION_DECLARATION,
		ast.CLASS_DECLARATION,
	}
	if len(program.Statements) != len(expected) {
		t.Fatalf("expected %d statements, got %d:\n%s", len(expected), len(program.Statements), program.String())
	}
	for i, kind := range expected {
		if got := program.Statements[i].Kind(); got != kind {
			t.Errorf("statement %d: expected %s, got %s", i, kind, got)
		}
	}

	if !program.Statements[1].(*ast.VariableDeclaration).Constant {
		t.Errorf("constant declaration lost its flag")
	}

	ifStmt := program.Statements[4].(*ast.IfStatement)
	elseIf, ok := ifStmt.ElseBranch.(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected else-if, got %T", ifStmt.ElseBranch)
	}
	if _, ok := elseIf.ElseBranch.(*ast.BlockStatement); !ok {
		t.Errorf("expected final else block, got %T", elseIf.ElseBranch)
	}

	repeat := program.Statements[5].(*ast.RepeatStatement)
	if repeat.Index == nil || repeat.Index.Value != "i" {
		t.Errorf("repeat lost its index")
	}

	forEach := program.Statements[8].(*ast.ForEachStatement)
	if forEach.Element.Value != "c" || forEach.Index.Value != "n" {
		t.Errorf("unexpected for each bindings %s/%s", forEach.Element.Value, forEach.Index.Value)
	}

	fn := program.Statements[9].(*ast.FunctionDeclaration)
	if fn.Name.Value != "add" || len(fn.Parameters) != 2 {
		t.Errorf("unexpected function %s", fn.String())
	}

	class := program.Statements[10].(*ast.ClassDeclaration)
	if len(class.Properties) != 1 || class.Constructor == nil || len(class.Methods) != 1 {
		t.Fatalf("unexpected class shape %s", class.String())
	}
	if class.Methods[0].Name.Value != "inc" {
		t.Errorf("expected method inc, got %s", class.Methods[0].Name.Value)
	}
	if _, ok := class.Constructor.Body.Statements[0].(*ast.Assignment).Target.(*ast.MemberExpression); !ok {
		t.Errorf("expected assignment to a property")
	}
}

func TestMultilineLiterals(t *testing.T) {
	program := parse(t, "set d to {\n  \"a\": [1,\n 2],\n  \"b\": null\n}\nlog d")
	decl := program.Statements[0].(*ast.VariableDeclaration)
	dict, ok := decl.Value.(*ast.DictionaryLiteral)
	if !ok {
		t.Fatalf("expected dictionary literal, got %T", decl.Value)
	}
	if len(dict.Entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(dict.Entries))
	}
	if len(program.Statements) != 2 {
		t.Errorf("expected 2 statements, got %d", len(program.Statements))
	}
}

func TestLocations(t *testing.T) {
	program := parse(t, "set x to 1\nlog x + 22")

	log := program.Statements[1].(*ast.LogStatement)
	loc := log.Span()
	if loc.Line != 2 || loc.Column != 1 {
		t.Errorf("expected 2:1, got %d:%d", loc.Line, loc.Column)
	}
	if loc.EndLine != 2 || loc.EndColumn != 11 {
		t.Errorf("expected end 2:11, got %d:%d", loc.EndLine, loc.EndColumn)
	}

	sum := log.Value.(*ast.BinaryExpression)
	if sum.Loc.Column != 5 || sum.Loc.Offset != 15 {
		t.Errorf("binary expression should start at its left operand, got col %d offset %d", sum.Loc.Column, sum.Loc.Offset)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		features language.Features
		expected diagnostics.ErrorType
		line     int
	}{
		{"assignment with equals", "set x = 5", language.Features{}, diagnostics.TokenPermanentlyUnsupported, 1},
		{"increment", "set x to 1\nx++", language.Features{}, diagnostics.TokenPermanentlyUnsupported, 2},
		{"dangling operator", "set x to 1\nlog x +", language.Features{}, diagnostics.UnexpectedToken, 2},
		{"missing end", "if true do\n  log 1\n", language.Features{}, diagnostics.MissingEnd, 1},
		{"unterminated string", `log "abc`, language.Features{}, diagnostics.UnterminatedString, 1},
		{"bad number", "log 3abc", language.Features{}, diagnostics.InvalidNumber, 1},
		{"bad character", "log 1 @ 2", language.Features{}, diagnostics.InvalidCharacter, 1},
		{"assign to literal", "change 5 to 1", language.Features{}, diagnostics.InvalidAssignmentTarget, 1},
		{"nested function", "if true do\n  function f do\n  end\nend", language.Features{}, diagnostics.FunctionDeclarationNotAtTopLevel, 2},
		{"nested class", "repeat 2 times do\n  class C do\n  end\nend", language.Features{}, diagnostics.ClassDeclarationNotAtTopLevel, 2},
		{"repeat without times", "repeat 3 do\nend", language.Features{}, diagnostics.MissingToken, 1},
		{"two statements on a line", "log 1 log 2", language.Features{}, diagnostics.UnexpectedToken, 1},
		{"try is reserved", "try do\nend", language.Features{}, diagnostics.TokenNotYetImplemented, 1},
		{
			"disabled keyword",
			"set x to 0\nwhile x < 3 do\nend",
			language.Features{ExcludeTokens: []string{"while"}},
			diagnostics.TokenDisabledByExercise,
			2,
		},
		{
			"missing terminator",
			"log 1;\nlog 2\n",
			language.Features{RequireStatementTerminators: true},
			diagnostics.MissingStatementTerminator,
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, tt.features)
			if err == nil {
				t.Fatalf("expected %s, got no error", tt.expected)
			}
			d, ok := diagnostics.As(err)
			if !ok {
				t.Fatalf("expected a diagnostics error, got %T", err)
			}
			if d.Kind != diagnostics.KindSyntax {
				t.Errorf("expected syntax kind, got %s", d.Kind)
			}
			if d.Type != tt.expected {
				t.Errorf("expected %s, got %s (%s)", tt.expected, d.Type, d.Message)
			}
			if d.Location.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, d.Location.Line)
			}
		})
	}
}

func TestTerminatorsWhenRequired(t *testing.T) {
	src := "set x to 1;\nrepeat 2 times do\n  change x to x + 1;\nend\nlog x;"
	if _, err := Parse(src, language.Features{RequireStatementTerminators: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMissingEndContext(t *testing.T) {
	_, err := Parse("function f do\n  log 1\n", language.Features{})
	d, _ := diagnostics.As(err)
	if d == nil {
		t.Fatalf("expected an error")
	}
	if d.Context["construct"] != "function" {
		t.Errorf("expected construct function, got %v", d.Context["construct"])
	}
	if !strings.Contains(d.Message, "line 1") {
		t.Errorf("message should name the opening line: %s", d.Message)
	}
}

func TestASTJSONRoundTrip(t *testing.T) {
	src := `function double with n do
  return n * 2
end
class Box do
  property v
  method get do
    return this.v
  end
end
set b to new Box()
set xs to [1, "two", true, null]
if not (double(2) == 4) or "v" in {"v": 1} do
  log xs[0]
else
  log b.get()
end
`
	program := parse(t, src)

	data, err := MarshalAST(program)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := DecodeAST(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.String() != program.String() {
		t.Errorf("round trip changed the program:\n%s\nvs\n%s", program.String(), decoded.String())
	}
	if decoded.Statements[2].Span() != program.Statements[2].Span() {
		t.Errorf("locations were not preserved")
	}
}

func TestDecodeASTRejectsBadInput(t *testing.T) {
	tests := []string{
		`not json`,
		`{"type": "LogStatement"}`,
		`{"type": "Program", "statements": [{"type": "Mystery"}]}`,
		`{"type": "Program", "statements": [{"type": "Assignment", "target": {"type": "NumberLiteral", "value": 1}, "value": {"type": "NullLiteral"}}]}`,
	}
	for _, input := range tests {
		if _, err := DecodeAST([]byte(input)); err == nil {
			t.Errorf("expected an error decoding %s", input)
		}
	}
}

func TestRenderASTAsText(t *testing.T) {
	out := RenderASTAsText(parse(t, "log 1 + 2 * 3"))
	expected := []string{
		"Program @1:1",
		"  LogStatement @1:1",
		"    BinaryExpression + @1:5",
		"      NumberLiteral 1 @1:5",
		"      BinaryExpression * @1:9",
	}
	for _, line := range expected {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("missing %q in\n%s", line, out)
		}
	}
}
