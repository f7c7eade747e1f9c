package object

import (
	"errors"
	"log/slog"
	"sync/atomic"
)

var (
	ErrNotDeclared     = errors.New("not declared in any accessible scope")
	ErrAlreadyDeclared = errors.New("already declared in this scope")
	ErrImmutable       = errors.New("value is immutable")
)

var nextID atomic.Uint64

type Environment struct {
	ID       uint64
	Bindings map[string]*Binding
	Outer    *Environment

	// order keeps declaration order so snapshots are stable.
	order []string
}

type Binding struct {
	Value     Object
	IsMutable bool
}

func nextEnvID() uint64 {
	return nextID.Add(1)
}

func NewEnvironment() *Environment {
	return &Environment{
		ID:       nextEnvID(),
		Bindings: make(map[string]*Binding),
	}
}

// NewEnclosedEnvironment initializes an environment whose lookups fall back
// to outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.Outer = outer
	slog.Debug("new env",
		slog.Uint64("id", env.ID),
		slog.Uint64("outer", outer.ID))
	return env
}

func (e *Environment) GetBinding(name string) (*Binding, bool) {
	for env := e; env != nil; env = env.Outer {
		if binding, ok := env.Bindings[name]; ok {
			return binding, true
		}
	}
	return nil, false
}

// GetLocalBinding does not walk outers.
func (e *Environment) GetLocalBinding(name string) (*Binding, bool) {
	binding, ok := e.Bindings[name]
	return binding, ok
}

func (e *Environment) Get(name string) (Object, bool) {
	binding, ok := e.GetBinding(name)
	if !ok {
		return nil, false
	}
	return binding.Value, true
}

// Define binds name in this scope. A second definition in the same scope
// fails with ErrAlreadyDeclared unless allowRedefinition is set, in which
// case the existing binding is overwritten (still subject to ErrImmutable).
func (e *Environment) Define(name string, val Object, mutable bool, allowRedefinition bool) error {
	if binding, exists := e.Bindings[name]; exists {
		if !allowRedefinition {
			return ErrAlreadyDeclared
		}
		if !binding.IsMutable {
			return ErrImmutable
		}
		binding.Value = val
		binding.IsMutable = mutable
		return nil
	}

	e.Bindings[name] = &Binding{Value: val, IsMutable: mutable}
	e.order = append(e.order, name)

	slog.Debug("binding value",
		slog.String("name", name),
		slog.Any("type", val.Type()),
		slog.Uint64("env", e.ID))
	return nil
}

// Assign updates the nearest binding of name. There are no implicit
// globals: a name that is not declared anywhere is an error.
func (e *Environment) Assign(name string, val Object) error {
	binding, ok := e.GetBinding(name)
	if !ok {
		return ErrNotDeclared
	}
	if !binding.IsMutable {
		return ErrImmutable
	}
	binding.Value = val
	return nil
}

// Names returns the names declared directly in this scope, in declaration
// order.
func (e *Environment) Names() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Visible merges every binding reachable from e. Inner scopes shadow
// outer ones.
func (e *Environment) Visible() map[string]Object {
	out := map[string]Object{}
	for env := e; env != nil; env = env.Outer {
		for _, name := range env.order {
			if _, shadowed := out[name]; shadowed {
				continue
			}
			out[name] = env.Bindings[name].Value
		}
	}
	return out
}
