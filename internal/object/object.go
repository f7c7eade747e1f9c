package object

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"jiki/internal/ast"
)

const (
	NUMBER_OBJ     = "NUMBER"
	STRING_OBJ     = "STRING"
	BOOLEAN_OBJ    = "BOOLEAN"
	NULL_OBJ       = "NULL"
	UNDEFINED_OBJ  = "UNDEFINED"
	LIST_OBJ       = "LIST"
	DICTIONARY_OBJ = "DICTIONARY"
	INSTANCE_OBJ   = "INSTANCE"

	FUNCTION_OBJ = "FUNCTION"
	FOREIGN_OBJ  = "FOREIGN"
	CLASS_OBJ    = "CLASS"

	RETURN_VALUE_OBJ = "RETURN_VALUE"
	BREAK_OBJ        = "BREAK"
	CONTINUE_OBJ     = "CONTINUE"
)

// Precision is the number of decimal places every arithmetic result is
// rounded to.
const Precision = 5

var (
	NULL      = &Null{}
	UNDEFINED = &Undefined{}
	TRUE      = &Boolean{Value: true}
	FALSE     = &Boolean{Value: false}

	BREAK    = &BreakSignal{}
	CONTINUE = &ContinueSignal{}
)

var nextInstanceID atomic.Uint64

// InvocationContext is what a host function sees of the running program.
// Implementations are only valid for the duration of the call.
type InvocationContext interface {
	// SignalExerciseFinished ends the enclosing `repeat` forever loop once
	// the current statement completes.
	SignalExerciseFinished()
	FunctionName() string
	Location() ast.Location
	// Time is the logical execution time at the moment of the call.
	Time() int64
	Logger() *slog.Logger
}

// ForeignFunction is a host-supplied primitive. A nil Object result is
// treated as UNDEFINED.
type ForeignFunction func(ctx InvocationContext, args ...Object) (Object, error)

type ObjectType string

type Object interface {
	Type() ObjectType
	Inspect() string
}

type Number struct {
	Value float64
}

// NewNumber rounds f to Precision decimal places.
func NewNumber(f float64) *Number {
	return &Number{Value: RoundNumber(f)}
}

// RoundNumber rounds f to Precision decimal places. Magnitudes of 1e15 and
// above carry no fractional digits and are returned as they are.
func RoundNumber(f float64) float64 {
	if !IsFinite(f) || math.Abs(f) >= 1e15 {
		return f
	}
	scale := math.Pow10(Precision)
	r := math.Round(f*scale) / scale
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return strconv.FormatFloat(n.Value, 'f', -1, 64) }

// IsInteger reports whether the number is finite and has no fractional
// part.
func (n *Number) IsInteger() bool { return IsFinite(n.Value) && n.Value == math.Trunc(n.Value) }

func IsFinite(f float64) bool { return !math.IsInf(f, 0) && !math.IsNaN(f) }

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return strconv.Quote(s.Value) }

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string  { return strconv.FormatBool(b.Value) }

func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

// Undefined is the result of a function without an explicit return value.
type Undefined struct{}

func (u *Undefined) Type() ObjectType { return UNDEFINED_OBJ }
func (u *Undefined) Inspect() string  { return "undefined" }

type List struct {
	Elements []Object
}

func (l *List) Type() ObjectType { return LIST_OBJ }
func (l *List) Inspect() string { return inspect(l, map[*Instance]bool{}) }

// Dictionary maps string keys to values and remembers insertion order.
type Dictionary struct {
	keys  []string
	pairs map[string]Object
}

func NewDictionary() *Dictionary {
	return &Dictionary{pairs: map[string]Object{}}
}

func (d *Dictionary) Type() ObjectType { return DICTIONARY_OBJ }
func (d *Dictionary) Inspect() string { return inspect(d, map[*Instance]bool{}) }

// Put sets key to v, appending key to the order if it is new.
func (d *Dictionary) Put(key string, v Object) *Dictionary {
	if d.pairs == nil {
		d.pairs = map[string]Object{}
	}
	if _, exists := d.pairs[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.pairs[key] = v
	return d
}

func (d *Dictionary) Get(key string) (Object, bool) {
	v, ok := d.pairs[key]
	return v, ok
}

func (d *Dictionary) Has(key string) bool {
	_, ok := d.pairs[key]
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dictionary) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *Dictionary) Len() int { return len(d.keys) }

// Class is a user-defined type. Instances share the class by pointer.
type Class struct {
	Name        string
	Properties  []string
	Constructor *Function
	Methods     map[string]*Function
}

func (c *Class) Type() ObjectType { return CLASS_OBJ }
func (c *Class) Inspect() string  { return "class " + c.Name }

func (c *Class) HasProperty(name string) bool {
	for _, p := range c.Properties {
		if p == name {
			return true
		}
	}
	return false
}

// Instance is a reference value: every binding holding it sees the same
// fields.
type Instance struct {
	ID     uint64
	Class  *Class
	Fields map[string]Object
}

// NewInstance creates an instance with every declared property set to
// null.
func NewInstance(class *Class) *Instance {
	fields := make(map[string]Object, len(class.Properties))
	for _, p := range class.Properties {
		fields[p] = NULL
	}
	return &Instance{
		ID:     nextInstanceID.Add(1),
		Class:  class,
		Fields: fields,
	}
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string { return inspect(i, map[*Instance]bool{}) }

// inspect renders containers recursively. An instance reached again while
// it is still being rendered prints as `<Name ...>`.
func inspect(v Object, active map[*Instance]bool) string {
	var out bytes.Buffer
	switch x := v.(type) {
	case *List:
		out.WriteString("[")
		for i, e := range x.Elements {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(inspect(e, active))
		}
		out.WriteString("]")
	case *Dictionary:
		out.WriteString("{")
		for i, k := range x.keys {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(strconv.Quote(k))
			out.WriteString(": ")
			out.WriteString(inspect(x.pairs[k], active))
		}
		out.WriteString("}")
	case *Instance:
		if active[x] {
			return "<" + x.Class.Name + " ...>"
		}
		active[x] = true
		defer delete(active, x)

		out.WriteString("<")
		out.WriteString(x.Class.Name)
		for n, p := range x.Class.Properties {
			if n == 0 {
				out.WriteString(" ")
			} else {
				out.WriteString(", ")
			}
			out.WriteString(p)
			out.WriteString(": ")
			if f, ok := x.Fields[p]; ok {
				out.WriteString(inspect(f, active))
			} else {
				out.WriteString(NULL.Inspect())
			}
		}
		out.WriteString(">")
	default:
		return v.Inspect()
	}
	return out.String()
}

type Function struct {
	Name       string
	Parameters []*ast.Identifier
	Body       *ast.BlockStatement
	Env        *Environment
	// Owner is set for methods and constructors.
	Owner *Class
}

func (f *Function) Type() ObjectType { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	params := make([]string, 0, len(f.Parameters))
	for _, p := range f.Parameters {
		params = append(params, p.Value)
	}
	return "function " + f.Name + "(" + strings.Join(params, ", ") + ")"
}

func (f *Function) Arity() int { return len(f.Parameters) }

// Foreign is a host function registered through the foreign function
// boundary.
type Foreign struct {
	Name        string
	Arity       int
	Fn          ForeignFunction
	Description string
}

func (f *Foreign) Type() ObjectType { return FOREIGN_OBJ }
func (f *Foreign) Inspect() string {
	return fmt.Sprintf("external %s/%d { <native fn> }", f.Name, f.Arity)
}

type ReturnValue struct {
	Value Object
}

func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }
func (rv *ReturnValue) Inspect() string  { return rv.Value.Inspect() }

type BreakSignal struct{}

func (b *BreakSignal) Type() ObjectType { return BREAK_OBJ }
func (b *BreakSignal) Inspect() string  { return "break" }

type ContinueSignal struct{}

func (c *ContinueSignal) Type() ObjectType { return CONTINUE_OBJ }
func (c *ContinueSignal) Inspect() string  { return "continue" }
