package foreign

import (
	"fmt"
	"math"
	"math/rand/v2"

	"jiki/internal/object"
)

// fnRandomNumber picks an integer between min and max inclusive. The
// generator is seeded from the logical time of the call, so a program
// produces the same numbers on every run.
func fnRandomNumber() Function {
	return Function{
		Name:        "random_number",
		Arity:       2,
		Description: "picks a whole number between min and max",
		Fn: func(ctx object.InvocationContext, args ...object.Object) (object.Object, error) {
			minArg, ok := args[0].(*object.Number)
			if !ok {
				return nil, fmt.Errorf("argument 1 must be a number, got %s", args[0].Inspect())
			}
			maxArg, ok := args[1].(*object.Number)
			if !ok {
				return nil, fmt.Errorf("argument 2 must be a number, got %s", args[1].Inspect())
			}
			lo, hi := int64(math.Ceil(minArg.Value)), int64(math.Floor(maxArg.Value))
			if lo > hi {
				return nil, fmt.Errorf("invalid range: min (%s) cannot be greater than max (%s)", minArg.Inspect(), maxArg.Inspect())
			}

			rng := rand.New(rand.NewPCG(uint64(ctx.Time()), uint64(lo)<<32^uint64(hi)))
			return object.NewNumber(float64(lo + rng.Int64N(hi-lo+1))), nil
		},
	}
}
