package foreign

import (
	"fmt"
	"strings"

	"jiki/internal/object"
)

func fnConcatenate() Function {
	return Function{
		Name:        "concatenate",
		Arity:       2,
		Description: "joins two strings together",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			a, ok := args[0].(*object.String)
			if !ok {
				return nil, fmt.Errorf("argument 1 must be a string, got %s", args[0].Inspect())
			}
			b, ok := args[1].(*object.String)
			if !ok {
				return nil, fmt.Errorf("argument 2 must be a string, got %s", args[1].Inspect())
			}
			return &object.String{Value: a.Value + b.Value}, nil
		},
	}
}

func fnToUpperCase() Function {
	return Function{
		Name:        "to_upper_case",
		Arity:       1,
		Description: "returns the string in upper case",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			s, ok := args[0].(*object.String)
			if !ok {
				return nil, fmt.Errorf("expected a string, got %s", args[0].Inspect())
			}
			return &object.String{Value: strings.ToUpper(s.Value)}, nil
		},
	}
}

func fnToLowerCase() Function {
	return Function{
		Name:        "to_lower_case",
		Arity:       1,
		Description: "returns the string in lower case",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			s, ok := args[0].(*object.String)
			if !ok {
				return nil, fmt.Errorf("expected a string, got %s", args[0].Inspect())
			}
			return &object.String{Value: strings.ToLower(s.Value)}, nil
		},
	}
}

func fnNumberToString() Function {
	return Function{
		Name:        "number_to_string",
		Arity:       1,
		Description: "converts a number to its text form",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			n, ok := args[0].(*object.Number)
			if !ok {
				return nil, fmt.Errorf("expected a number, got %s", args[0].Inspect())
			}
			return &object.String{Value: n.Inspect()}, nil
		},
	}
}
