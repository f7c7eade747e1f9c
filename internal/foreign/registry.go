// Package foreign is the boundary between learner programs and functions
// supplied by the host exercise.
package foreign

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"jiki/internal/diagnostics"
	"jiki/internal/object"
)

// Function describes a host function before it is registered.
type Function struct {
	Name        string
	Arity       int
	Fn          object.ForeignFunction
	Description string
}

// Registry holds the host functions of one run.
type Registry struct {
	functions map[string]*object.Foreign
	logger    *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		functions: map[string]*object.Foreign{},
		logger:    logger,
	}
}

// Register adds fns. Names must be unique within the registry.
func (r *Registry) Register(fns ...Function) error {
	for _, fn := range fns {
		if fn.Name == "" {
			return errors.New("foreign function without a name")
		}
		if fn.Fn == nil {
			return fmt.Errorf("foreign function %s has no implementation", fn.Name)
		}
		if fn.Arity < 0 {
			return fmt.Errorf("foreign function %s has negative arity %d", fn.Name, fn.Arity)
		}
		if _, exists := r.functions[fn.Name]; exists {
			return fmt.Errorf("foreign function %s registered twice", fn.Name)
		}
		r.functions[fn.Name] = &object.Foreign{
			Name:        fn.Name,
			Arity:       fn.Arity,
			Fn:          fn.Fn,
			Description: fn.Description,
		}
	}
	return nil
}

func (r *Registry) Lookup(name string) (*object.Foreign, bool) {
	f, ok := r.functions[name]
	return f, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bind defines every registered function as a constant in env.
func (r *Registry) Bind(env *object.Environment) error {
	for _, name := range r.Names() {
		if err := env.Define(name, r.functions[name], false, false); err != nil {
			return fmt.Errorf("binding foreign function %s: %w", name, err)
		}
	}
	return nil
}

// Call looks name up and invokes it.
func (r *Registry) Call(ctx object.InvocationContext, name string, args []object.Object) (object.Object, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, diagnostics.Runtime(diagnostics.FunctionNotDeclared, ctx.Location(), diagnostics.Ctx{"name": name})
	}
	return Invoke(ctx, f, args)
}

// Invoke checks the arity, passes copies of list and dictionary arguments
// and normalises the result. Errors that are not already diagnostics become
// ExternalFunctionFailed faults.
func Invoke(ctx object.InvocationContext, f *object.Foreign, args []object.Object) (object.Object, error) {
	if len(args) != f.Arity {
		return nil, diagnostics.Runtime(diagnostics.InvalidNumberOfArguments, ctx.Location(), diagnostics.Ctx{
			"name":     f.Name,
			"expected": f.Arity,
			"actual":   len(args),
		})
	}

	passed := make([]object.Object, len(args))
	for i, arg := range args {
		passed[i] = object.CloneForPass(arg)
	}

	ctx.Logger().Debug("foreign call",
		slog.String("name", f.Name),
		slog.Int("args", len(passed)),
		slog.Int64("time", ctx.Time()))

	result, err := f.Fn(ctx, passed...)
	if err != nil {
		if d, ok := diagnostics.As(err); ok {
			if d.Location.Line == 0 {
				d = d.WithLocation(ctx.Location())
			}
			return nil, d
		}
		return nil, diagnostics.Runtime(diagnostics.ExternalFunctionFailed, ctx.Location(), diagnostics.Ctx{
			"name":   f.Name,
			"reason": err.Error(),
		})
	}
	if result == nil {
		return object.UNDEFINED, nil
	}
	return result, nil
}

// Stdlib returns the optional teaching standard library.
func Stdlib() []Function {
	return []Function{
		fnConcatenate(),
		fnToUpperCase(),
		fnToLowerCase(),
		fnNumberToString(),
		fnPush(),
		fnSize(),
		fnKeys(),
		fnRandomNumber(),
	}
}
