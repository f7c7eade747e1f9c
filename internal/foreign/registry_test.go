package foreign

import (
	"errors"
	"log/slog"
	"testing"

	"jiki/internal/ast"
	"jiki/internal/diagnostics"
	"jiki/internal/object"
)

type stubContext struct {
	name     string
	time     int64
	finished bool
}

func (s *stubContext) SignalExerciseFinished() { s.finished = true }
func (s *stubContext) FunctionName() string    { return s.name }
func (s *stubContext) Location() ast.Location  { return ast.Location{Line: 4} }
func (s *stubContext) Time() int64             { return s.time }
func (s *stubContext) Logger() *slog.Logger    { return slog.Default() }

func TestRegister(t *testing.T) {
	noop := func(object.InvocationContext, ...object.Object) (object.Object, error) { return nil, nil }
	cases := []struct {
		name    string
		fns     []Function
		wantErr bool
	}{
		{"single", []Function{{Name: "move", Fn: noop}}, false},
		{"duplicate", []Function{{Name: "move", Fn: noop}, {Name: "move", Fn: noop}}, true},
		{"missing name", []Function{{Fn: noop}}, true},
		{"missing implementation", []Function{{Name: "move"}}, true},
		{"negative arity", []Function{{Name: "move", Arity: -1, Fn: noop}}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := NewRegistry(nil).Register(c.fns...)
			if (err != nil) != c.wantErr {
				t.Errorf("expected error %v, got %v", c.wantErr, err)
			}
		})
	}
}

func TestInvoke(t *testing.T) {
	var received *object.List
	r := NewRegistry(nil)
	err := r.Register(
		Function{Name: "move", Arity: 0, Fn: func(object.InvocationContext, ...object.Object) (object.Object, error) {
			return nil, nil
		}},
		Function{Name: "mutate", Arity: 1, Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			received = args[0].(*object.List)
			received.Elements = append(received.Elements, object.TRUE)
			return received, nil
		}},
		Function{Name: "fail", Arity: 0, Fn: func(object.InvocationContext, ...object.Object) (object.Object, error) {
			return nil, errors.New("wall ahead")
		}},
		Function{Name: "finish", Arity: 0, Fn: func(ctx object.InvocationContext, _ ...object.Object) (object.Object, error) {
			ctx.SignalExerciseFinished()
			return object.TRUE, nil
		}},
	)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ctx := &stubContext{}

	t.Run("nil result becomes undefined", func(t *testing.T) {
		got, err := r.Call(ctx, "move", nil)
		if err != nil || got != object.UNDEFINED {
			t.Errorf("expected undefined, got %v %v", got, err)
		}
	})

	t.Run("arity", func(t *testing.T) {
		_, err := r.Call(ctx, "move", []object.Object{object.NULL, object.NULL})
		d, ok := diagnostics.As(err)
		if !ok || d.Type != diagnostics.InvalidNumberOfArguments {
			t.Fatalf("expected InvalidNumberOfArguments, got %v", err)
		}
		if d.Context["expected"] != 0 || d.Context["actual"] != 2 {
			t.Errorf("unexpected context %v", d.Context)
		}
	})

	t.Run("lists are passed by value", func(t *testing.T) {
		list := &object.List{}
		if _, err := r.Call(ctx, "mutate", []object.Object{list}); err != nil {
			t.Fatalf("call: %v", err)
		}
		if len(list.Elements) != 0 {
			t.Errorf("caller list was mutated")
		}
		if received == list {
			t.Errorf("host received the caller's list")
		}
	})

	t.Run("host errors become runtime faults", func(t *testing.T) {
		_, err := r.Call(ctx, "fail", nil)
		d, ok := diagnostics.As(err)
		if !ok || d.Type != diagnostics.ExternalFunctionFailed || d.Location.Line != 4 {
			t.Fatalf("unexpected error %v", err)
		}
		if d.Context["reason"] != "wall ahead" {
			t.Errorf("unexpected reason %v", d.Context["reason"])
		}
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := r.Call(ctx, "jump", nil)
		if !errors.Is(err, &diagnostics.Error{Kind: diagnostics.KindRuntime, Type: diagnostics.FunctionNotDeclared}) {
			t.Errorf("expected FunctionNotDeclared, got %v", err)
		}
	})

	t.Run("exercise finished signal", func(t *testing.T) {
		if _, err := r.Call(ctx, "finish", nil); err != nil {
			t.Fatalf("call: %v", err)
		}
		if !ctx.finished {
			t.Errorf("signal not delivered")
		}
	})
}

func TestBind(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(Stdlib()...); err != nil {
		t.Fatalf("register stdlib: %v", err)
	}
	env := object.NewEnvironment()
	if err := r.Bind(env); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, ok := env.Get("concatenate"); !ok {
		t.Errorf("concatenate not bound")
	}
	if err := env.Assign("size", object.NULL); !errors.Is(err, object.ErrImmutable) {
		t.Errorf("foreign bindings should be constant, got %v", err)
	}
}

func TestStdlib(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(Stdlib()...); err != nil {
		t.Fatalf("register stdlib: %v", err)
	}
	str := func(s string) object.Object { return &object.String{Value: s} }
	num := func(f float64) object.Object { return object.NewNumber(f) }

	cases := []struct {
		fn       string
		args     []object.Object
		expected string
	}{
		{"concatenate", []object.Object{str("ab"), str("cd")}, `"abcd"`},
		{"to_upper_case", []object.Object{str("hi")}, `"HI"`},
		{"to_lower_case", []object.Object{str("HI")}, `"hi"`},
		{"number_to_string", []object.Object{num(2.5)}, `"2.5"`},
		{"push", []object.Object{&object.List{Elements: []object.Object{num(1)}}, num(2)}, "[1, 2]"},
		{"size", []object.Object{str("héllo")}, "5"},
		{"keys", []object.Object{object.NewDictionary().Put("b", num(1)).Put("a", num(2))}, `["b", "a"]`},
	}
	for _, c := range cases {
		t.Run(c.fn, func(t *testing.T) {
			got, err := r.Call(&stubContext{}, c.fn, c.args)
			if err != nil {
				t.Fatalf("call: %v", err)
			}
			if got.Inspect() != c.expected {
				t.Errorf("expected %s, got %s", c.expected, got.Inspect())
			}
		})
	}
}

func TestRandomNumberIsDeterministic(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(fnRandomNumber()); err != nil {
		t.Fatalf("register: %v", err)
	}
	args := []object.Object{object.NewNumber(1), object.NewNumber(6)}
	first, err := r.Call(&stubContext{time: 120}, "random_number", args)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	n := first.(*object.Number).Value
	if n < 1 || n > 6 {
		t.Errorf("out of range: %v", n)
	}
	again, _ := r.Call(&stubContext{time: 120}, "random_number", args)
	if !object.Equal(first, again) {
		t.Errorf("same time should give the same number")
	}
}
