package evaluator

import (
	"fmt"

	"jiki/internal/frames"
	"jiki/internal/object"
)

// Descriptions are rendered from the frame's own snapshot, so they are
// correct however late they are asked for.

func resultOf(f *frames.Frame) string {
	if f.Result == nil {
		return object.UNDEFINED.Inspect()
	}
	return f.Result.Inspect()
}

func describeDeclaration(name string, constant bool) func(*frames.Frame) string {
	return func(f *frames.Frame) string {
		if constant {
			return fmt.Sprintf("Created the constant %s with the value %s.", name, resultOf(f))
		}
		return fmt.Sprintf("Created the variable %s and set it to %s.", name, resultOf(f))
	}
}

func describeChange(target string) func(*frames.Frame) string {
	return func(f *frames.Frame) string {
		return fmt.Sprintf("Changed %s to %s.", target, resultOf(f))
	}
}

func describeExpression(source string) func(*frames.Frame) string {
	return func(f *frames.Frame) string {
		return fmt.Sprintf("Evaluated %s, which gave %s.", source, resultOf(f))
	}
}

func describeLog(f *frames.Frame) string {
	return fmt.Sprintf("Logged %s.", resultOf(f))
}

func describeCondition(source string) func(*frames.Frame) string {
	return func(f *frames.Frame) string {
		return fmt.Sprintf("Checked whether %s, which was %s.", source, resultOf(f))
	}
}

func describeLoopCondition(source string) func(*frames.Frame) string {
	return func(f *frames.Frame) string {
		if b, ok := f.Result.(*object.Boolean); ok && b.Value {
			return fmt.Sprintf("Checked whether %s, which was true, so the loop runs again.", source)
		}
		return fmt.Sprintf("Checked whether %s, which was false, so the loop ends.", source)
	}
}

func describeRepeat(iteration int, total string) func(*frames.Frame) string {
	return func(*frames.Frame) string {
		return fmt.Sprintf("Starting iteration %d of %s.", iteration, total)
	}
}

func describeForever(iteration int) func(*frames.Frame) string {
	return func(*frames.Frame) string {
		return fmt.Sprintf("Starting iteration %d.", iteration)
	}
}

func describeForEach(name string, iteration int) func(*frames.Frame) string {
	return func(f *frames.Frame) string {
		if v, ok := f.Variables[name]; ok {
			return fmt.Sprintf("Starting iteration %d with %s set to %s.", iteration, name, v.Inspect())
		}
		return fmt.Sprintf("Starting iteration %d.", iteration)
	}
}

func describeReturn(f *frames.Frame) string {
	return fmt.Sprintf("Returned %s.", resultOf(f))
}

func describeBreak(*frames.Frame) string {
	return "Left the loop."
}

func describeContinue(*frames.Frame) string {
	return "Skipped to the next iteration."
}

func describeError(f *frames.Frame) string {
	if f.Error == nil {
		return ""
	}
	return f.Error.Message
}
