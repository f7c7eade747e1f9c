package foreign

import (
	"fmt"
	"unicode/utf8"

	"jiki/internal/object"
)

// fnPush returns a new list; the argument is a copy so the caller's list
// is unchanged.
func fnPush() Function {
	return Function{
		Name:        "push",
		Arity:       2,
		Description: "returns the list with the value added to the end",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			list, ok := args[0].(*object.List)
			if !ok {
				return nil, fmt.Errorf("argument 1 must be a list, got %s", args[0].Inspect())
			}
			list.Elements = append(list.Elements, args[1])
			return list, nil
		},
	}
}

func fnSize() Function {
	return Function{
		Name:        "size",
		Arity:       1,
		Description: "counts the elements of a list or dictionary or the characters of a string",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			switch v := args[0].(type) {
			case *object.List:
				return object.NewNumber(float64(len(v.Elements))), nil
			case *object.Dictionary:
				return object.NewNumber(float64(v.Len())), nil
			case *object.String:
				return object.NewNumber(float64(utf8.RuneCountInString(v.Value))), nil
			default:
				return nil, fmt.Errorf("can't measure the size of %s", v.Inspect())
			}
		},
	}
}

func fnKeys() Function {
	return Function{
		Name:        "keys",
		Arity:       1,
		Description: "lists the keys of a dictionary in insertion order",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			d, ok := args[0].(*object.Dictionary)
			if !ok {
				return nil, fmt.Errorf("expected a dictionary, got %s", args[0].Inspect())
			}
			keys := d.Keys()
			elements := make([]object.Object, len(keys))
			for i, k := range keys {
				elements[i] = &object.String{Value: k}
			}
			return &object.List{Elements: elements}, nil
		},
	}
}
