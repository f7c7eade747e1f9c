package assertor

import (
	"reflect"
	"testing"

	"jiki/internal/language"
	"jiki/internal/parser"
)

const program = `// walk the maze
function turn_around do
  turn_left()
  turn_left()
end

function spin with n do
  if n > 0 do
    spin(n - 1)
  end
end

set moves to [1, 2, [3]]

repeat 2 times do
  turn_around()
end
`

func parse(t *testing.T, src string) *API {
	t.Helper()
	p, err := parser.Parse(src, language.Features{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return New(p, SnakeCase)
}

func TestCounts(t *testing.T) {
	a := parse(t, program)

	if got := a.CountLinesOfCode(); got != 13 {
		t.Errorf("CountLinesOfCode: expected 13, got %d", got)
	}
	if !a.AssertMaxLinesOfCode(13) || a.AssertMaxLinesOfCode(12) {
		t.Errorf("AssertMaxLinesOfCode disagrees with CountLinesOfCode")
	}
	if got := a.CountArrayLiterals(); got != 2 {
		t.Errorf("CountArrayLiterals: expected 2, got %d", got)
	}
	// two calls, if, recursive call, set, repeat, call
	if got := a.CountStatements(); got != 7 {
		t.Errorf("CountStatements: expected 7, got %d", got)
	}
	if got := a.FunctionNames(); !reflect.DeepEqual(got, []string{"turn_around", "spin"}) {
		t.Errorf("FunctionNames: got %v", got)
	}
}

func TestFunctionAssertions(t *testing.T) {
	a := parse(t, program)

	tests := []struct {
		name     string
		check    func(string) bool
		arg      string
		expected bool
	}{
		{"defined", a.AssertFunctionDefined, "turn_around", true},
		{"not defined", a.AssertFunctionDefined, "turn_right", false},
		{"called from top level", a.AssertFunctionCalledOutsideOwnDefinition, "turn_around", true},
		{"called from another function", a.AssertFunctionCalledOutsideOwnDefinition, "turn_left", true},
		{"only self recursive", a.AssertFunctionCalledOutsideOwnDefinition, "spin", false},
		{"never called", a.AssertFunctionCalledOutsideOwnDefinition, "jump", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.arg); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestAssertMethodCalled(t *testing.T) {
	a := parse(t, "class Robot do\n  method step do\n  end\nend\nset r to new Robot()\nr.step()")
	if !a.AssertMethodCalled("step") {
		t.Errorf("expected step to be called")
	}
	if a.AssertMethodCalled("jump") {
		t.Errorf("jump is never called")
	}
}

func TestCamelCaseNaming(t *testing.T) {
	p, err := parser.Parse("function turnLeft do\nend\nturnLeft()", language.Features{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	a := New(p, CamelCase)
	if !a.AssertFunctionDefined("turn_left") {
		t.Errorf("turn_left should match turnLeft")
	}
	if !a.AssertFunctionCalledOutsideOwnDefinition("turn_left") {
		t.Errorf("turn_left should be called")
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		naming   Naming
		input    string
		expected string
	}{
		{SnakeCase, "turn_left", "turn_left"},
		{CamelCase, "turn_left", "turnLeft"},
		{CamelCase, "move", "move"},
		{CamelCase, "go_to_the_end", "goToTheEnd"},
		{CamelCase, "trailing_", "trailing"},
	}
	for _, tt := range tests {
		t.Run(tt.naming.String()+"/"+tt.input, func(t *testing.T) {
			if got := tt.naming.Translate(tt.input); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseNaming(t *testing.T) {
	if n, err := ParseNaming("camelCase"); err != nil || n != CamelCase {
		t.Errorf("expected CamelCase, got %v %v", n, err)
	}
	if n, err := ParseNaming(""); err != nil || n != SnakeCase {
		t.Errorf("expected SnakeCase default, got %v %v", n, err)
	}
	if _, err := ParseNaming("kebab"); err == nil {
		t.Errorf("expected an error")
	}
}

func TestSafeDefaultsWithoutProgram(t *testing.T) {
	a := New(nil, SnakeCase)

	if a.CountLinesOfCode() != 0 || a.CountArrayLiterals() != 0 || a.CountStatements() != 0 {
		t.Errorf("counts must be 0 on parse failure")
	}
	if !a.AssertFunctionDefined("anything") || !a.AssertMethodCalled("x") ||
		!a.AssertFunctionCalledOutsideOwnDefinition("x") || !a.AssertMaxLinesOfCode(0) {
		t.Errorf("assertions must hold on parse failure")
	}
	if a.FunctionNames() != nil {
		t.Errorf("expected no function names")
	}
}
