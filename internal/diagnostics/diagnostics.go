// Package diagnostics holds the structured error model shared by the front
// end, the evaluator and the governor.
package diagnostics

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"jiki/internal/ast"
)

type Kind string

const (
	KindSyntax       Kind = "Syntax"
	KindRuntime      Kind = "Runtime"
	KindGovernorHalt Kind = "GovernorHalt"
)

// Error is a compile-time, runtime or governor fault. Type is a stable
// identifier hosts can switch on; Context carries the values needed to
// phrase a message without parsing Message.
type Error struct {
	Kind     Kind
	Type     ErrorType
	Message  string
	Context  map[string]any
	Location ast.Location
}

func (e *Error) Error() string {
	if e.Location.Line > 0 {
		return fmt.Sprintf("%s error %s at line %d: %s", e.Kind, e.Type, e.Location.Line, e.Message)
	}
	return fmt.Sprintf("%s error %s: %s", e.Kind, e.Type, e.Message)
}

// Is matches another *Error with the same kind and type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Type == e.Type
}

func (e *Error) IsHalt() bool { return e.Kind == KindGovernorHalt }

// WithLocation returns a copy of e located at loc. The original is left
// untouched so catalogue errors can be shared.
func (e *Error) WithLocation(loc ast.Location) *Error {
	c := *e
	c.Location = loc
	return &c
}

// Ctx is a convenience alias for building error contexts.
type Ctx = map[string]any

func newError(kind Kind, typ ErrorType, loc ast.Location, ctx Ctx) *Error {
	if ctx == nil {
		ctx = Ctx{}
	}
	return &Error{
		Kind:     kind,
		Type:     typ,
		Message:  render(typ, ctx),
		Context:  ctx,
		Location: loc,
	}
}

func Syntax(typ ErrorType, loc ast.Location, ctx Ctx) *Error {
	return newError(KindSyntax, typ, loc, ctx)
}

func Runtime(typ ErrorType, loc ast.Location, ctx Ctx) *Error {
	return newError(KindRuntime, typ, loc, ctx)
}

func Halt(typ ErrorType, loc ast.Location, ctx Ctx) *Error {
	return newError(KindGovernorHalt, typ, loc, ctx)
}

// As extracts a *Error from err.
func As(err error) (*Error, bool) {
	var d *Error
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

func render(typ ErrorType, ctx Ctx) string {
	tmpl, ok := catalogue[typ]
	if !ok {
		return describeContext(string(typ), ctx)
	}
	var b strings.Builder
	for {
		start := strings.IndexByte(tmpl, '{')
		if start < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[start:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		b.WriteString(tmpl[:start])
		key := tmpl[start+1 : start+end]
		if v, ok := ctx[key]; ok {
			b.WriteString(fmt.Sprint(v))
		} else {
			b.WriteString("?")
		}
		tmpl = tmpl[start+end+1:]
	}
	return b.String()
}

func describeContext(typ string, ctx Ctx) string {
	if len(ctx) == 0 {
		return typ
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, ctx[k]))
	}
	return typ + " (" + strings.Join(parts, ", ") + ")"
}
