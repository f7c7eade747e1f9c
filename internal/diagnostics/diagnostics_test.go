package diagnostics

import (
	"errors"
	"fmt"
	"testing"

	"jiki/internal/ast"
)

func TestMessagesRenderFromContext(t *testing.T) {
	cases := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			"argument counts",
			Runtime(InvalidNumberOfArguments, ast.Location{}, Ctx{"name": "move", "expected": 0, "actual": 2}),
			"move expects 0 argument(s) but received 2.",
		},
		{
			"variable name",
			Runtime(VariableNotDeclared, ast.Location{}, Ctx{"name": "i"}),
			"The variable i has not been declared.",
		},
		{
			"string index",
			Runtime(IndexOutOfBounds, ast.Location{}, Ctx{"index": 4, "length": 3, "container": "string", "unit": "character(s)"}),
			"Index 4 is outside the string, which has 3 character(s).",
		},
		{
			"unary operand",
			Runtime(OperandMustBeNumber, ast.Location{}, Ctx{"operator": "-", "value": `"a"`}),
			`The - operator needs a number, but got "a".`,
		},
		{
			"missing key renders placeholder",
			Runtime(VariableNotDeclared, ast.Location{}, nil),
			"The variable ? has not been declared.",
		},
		{
			"unknown type falls back to context listing",
			Runtime(ErrorType("Custom"), ast.Location{}, Ctx{"b": 2, "a": 1}),
			"Custom (a=1, b=2)",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.err.Message != c.expected {
				t.Errorf("expected %q, got %q", c.expected, c.err.Message)
			}
		})
	}
}

func TestKindsAndMatching(t *testing.T) {
	halt := Halt(MaxTotalLoopIterationsExceeded, ast.Location{Line: 3}, Ctx{"max": 10})
	if !halt.IsHalt() {
		t.Fatalf("expected governor halt")
	}
	if halt.Kind != KindGovernorHalt {
		t.Errorf("wrong kind %s", halt.Kind)
	}

	wrapped := fmt.Errorf("running: %w", halt)
	if !errors.Is(wrapped, &Error{Kind: KindGovernorHalt, Type: MaxTotalLoopIterationsExceeded}) {
		t.Errorf("errors.Is should match by kind and type")
	}
	got, ok := As(wrapped)
	if !ok || got != halt {
		t.Errorf("As should unwrap the original error")
	}

	syn := Syntax(TokenDisabledByExercise, ast.Location{}, Ctx{"token": "while"})
	if syn.IsHalt() || syn.Kind != KindSyntax {
		t.Errorf("syntax error misclassified: %v", syn)
	}
}

func TestWithLocationCopies(t *testing.T) {
	orig := Runtime(DivisionByZero, ast.Location{}, nil)
	moved := orig.WithLocation(ast.Location{Line: 7})
	if orig.Location.Line != 0 {
		t.Errorf("original mutated")
	}
	if moved.Location.Line != 7 {
		t.Errorf("expected line 7, got %d", moved.Location.Line)
	}
	if moved.Error() != "Runtime error DivisionByZero at line 7: You can't divide by zero." {
		t.Errorf("unexpected Error(): %s", moved.Error())
	}
}
