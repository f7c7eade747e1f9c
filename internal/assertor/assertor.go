// Package assertor answers grading questions about a parsed program
// without running it.
package assertor

import (
	"fmt"
	"strings"

	"jiki/internal/ast"
)

// Naming is the identifier convention of the learner's language. Grading
// code always asks for snake_case names.
type Naming int

const (
	SnakeCase Naming = iota
	CamelCase
)

func (n Naming) String() string {
	if n == CamelCase {
		return "camelCase"
	}
	return "snake_case"
}

// ParseNaming accepts the spellings used in exercise files.
func ParseNaming(s string) (Naming, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "snake", "snake_case", "snakecase":
		return SnakeCase, nil
	case "camel", "camel_case", "camelcase":
		return CamelCase, nil
	}
	return SnakeCase, fmt.Errorf("unknown naming convention %q", s)
}

// Translate converts a snake_case grading name to the convention n.
func (n Naming) Translate(name string) string {
	if n != CamelCase || !strings.Contains(name, "_") {
		return name
	}
	parts := strings.Split(name, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// API is built once per run. When the program failed to parse every count
// is 0 and every assertion holds, so half-typed code is never failed.
type API struct {
	program *ast.Program
	naming  Naming

	functions []*ast.FunctionDeclaration
}

// New returns the assertors for program. A nil program means the source
// did not compile.
func New(program *ast.Program, naming Naming) *API {
	a := &API{program: program, naming: naming}
	if program == nil {
		return a
	}
	for _, stmt := range program.Statements {
		if fn, ok := stmt.(*ast.FunctionDeclaration); ok {
			a.functions = append(a.functions, fn)
		}
	}
	return a
}

// Valid reports whether the assertors see a parsed program.
func (a *API) Valid() bool { return a != nil && a.program != nil }

// CountLinesOfCode counts the lines that are neither blank nor comments.
func (a *API) CountLinesOfCode() int {
	if !a.Valid() {
		return 0
	}
	source := a.program.Source
	if source == "" {
		source = a.program.String()
	}

	count := 0
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		count++
	}
	return count
}

func (a *API) AssertMaxLinesOfCode(n int) bool {
	if !a.Valid() {
		return true
	}
	return a.CountLinesOfCode() <= n
}

func (a *API) AssertFunctionDefined(name string) bool {
	if !a.Valid() {
		return true
	}
	return a.function(name) != nil
}

// AssertMethodCalled reports whether any `obj.name(...)` call appears.
func (a *API) AssertMethodCalled(name string) bool {
	if !a.Valid() {
		return true
	}
	want := a.naming.Translate(name)
	found := false
	ast.Inspect(a.program, func(n ast.Node) bool {
		if call, ok := n.(*ast.MethodCallExpression); ok && call.Method.Value == want {
			found = true
		}
		return !found
	})
	return found
}

func (a *API) CountArrayLiterals() int {
	if !a.Valid() {
		return 0
	}
	return a.count(func(n ast.Node) bool {
		_, ok := n.(*ast.ListLiteral)
		return ok
	})
}

// AssertFunctionCalledOutsideOwnDefinition holds when some call to name
// sits outside name's own body: at the top level, inside another function
// or inside a method. Self-recursion alone does not count.
func (a *API) AssertFunctionCalledOutsideOwnDefinition(name string) bool {
	if !a.Valid() {
		return true
	}
	want := a.naming.Translate(name)
	found := false
	ast.Inspect(a.program, func(n ast.Node) bool {
		if found {
			return false
		}
		switch node := n.(type) {
		case *ast.FunctionDeclaration:
			if node.Name.Value == want {
				return false
			}
		case *ast.CallExpression:
			if node.Callee.Value == want {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// CountStatements counts executable statements. Blocks and declarations
// of functions and classes are not counted themselves, their bodies are.
func (a *API) CountStatements() int {
	if !a.Valid() {
		return 0
	}
	return a.count(func(n ast.Node) bool {
		if _, ok := n.(ast.Statement); !ok {
			return false
		}
		switch n.(type) {
		case *ast.BlockStatement, *ast.FunctionDeclaration, *ast.ClassDeclaration:
			return false
		}
		return true
	})
}

// FunctionNames lists the top-level functions in source order, spelled as
// the learner wrote them.
func (a *API) FunctionNames() []string {
	if !a.Valid() {
		return nil
	}
	names := make([]string, 0, len(a.functions))
	for _, fn := range a.functions {
		names = append(names, fn.Name.Value)
	}
	return names
}

func (a *API) function(name string) *ast.FunctionDeclaration {
	want := a.naming.Translate(name)
	for _, fn := range a.functions {
		if fn.Name.Value == want {
			return fn
		}
	}
	return nil
}

func (a *API) count(match func(ast.Node) bool) int {
	count := 0
	ast.Inspect(a.program, func(n ast.Node) bool {
		if match(n) {
			count++
		}
		return true
	})
	return count
}
