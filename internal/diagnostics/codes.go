package diagnostics

type ErrorType string

// =============================================================================
// SYNTAX ERRORS - produced by a front end before any frame exists
// =============================================================================
const (
	UnexpectedToken                  ErrorType = "UnexpectedToken"
	MissingToken                     ErrorType = "MissingToken"
	MissingEnd                       ErrorType = "MissingEnd"
	UnterminatedString               ErrorType = "UnterminatedString"
	InvalidCharacter                 ErrorType = "InvalidCharacter"
	InvalidNumber                    ErrorType = "InvalidNumber"
	MissingStatementTerminator       ErrorType = "MissingStatementTerminator"
	InvalidAssignmentTarget          ErrorType = "InvalidAssignmentTarget"
	FunctionDeclarationNotAtTopLevel ErrorType = "FunctionDeclarationNotAtTopLevel"
	ClassDeclarationNotAtTopLevel    ErrorType = "ClassDeclarationNotAtTopLevel"
)

// =============================================================================
// TOKEN AVAILABILITY - syntax errors that distinguish why a token is refused
// =============================================================================
const (
	TokenPermanentlyUnsupported ErrorType = "TokenPermanentlyUnsupported"
	TokenNotYetImplemented      ErrorType = "TokenNotYetImplemented"
	TokenDisabledByExercise     ErrorType = "TokenDisabledByExercise"
)

// =============================================================================
// RUNTIME ERRORS - captured as the ERROR frame of one step
// =============================================================================
const (
	VariableNotDeclared            ErrorType = "VariableNotDeclared"
	VariableAlreadyDeclared        ErrorType = "VariableAlreadyDeclared"
	ConstantReassignment           ErrorType = "ConstantReassignment"
	FunctionNotDeclared            ErrorType = "FunctionNotDeclared"
	NotCallable                    ErrorType = "NotCallable"
	InvalidNumberOfArguments       ErrorType = "InvalidNumberOfArguments"
	InOperatorRequiresObject       ErrorType = "InOperatorRequiresObject"
	InOperatorOnListDisabled       ErrorType = "InOperatorOnListDisabled"
	OperandsMustBeNumbers          ErrorType = "OperandsMustBeNumbers"
	OperandsMustBeNumbersOrStrings ErrorType = "OperandsMustBeNumbersOrStrings"
	OperandMustBeBoolean           ErrorType = "OperandMustBeBoolean"
	OperandMustBeNumber            ErrorType = "OperandMustBeNumber"
	NumberOutOfRange               ErrorType = "NumberOutOfRange"
	DivisionByZero                 ErrorType = "DivisionByZero"
	NonBooleanCondition            ErrorType = "NonBooleanCondition"
	RepeatCountMustBeNumber        ErrorType = "RepeatCountMustBeNumber"
	RepeatCountMustBeZeroOrGreater ErrorType = "RepeatCountMustBeZeroOrGreater"
	IndexOutOfBounds               ErrorType = "IndexOutOfBounds"
	IndexMustBeNumber              ErrorType = "IndexMustBeNumber"
	NotIndexable                   ErrorType = "NotIndexable"
	DictionaryKeyMustBeString      ErrorType = "DictionaryKeyMustBeString"
	KeyNotFound                    ErrorType = "KeyNotFound"
	NotIterable                    ErrorType = "NotIterable"
	ClassNotDeclared               ErrorType = "ClassNotDeclared"
	PropertyNotDeclared            ErrorType = "PropertyNotDeclared"
	MethodNotDeclared              ErrorType = "MethodNotDeclared"
	NotAnInstance                  ErrorType = "NotAnInstance"
	ThisOutsideMethod              ErrorType = "ThisOutsideMethod"
	ExternalFunctionFailed         ErrorType = "ExternalFunctionFailed"
	ReturnOutsideFunction          ErrorType = "ReturnOutsideFunction"
	BreakOutsideLoop               ErrorType = "BreakOutsideLoop"
	ContinueOutsideLoop            ErrorType = "ContinueOutsideLoop"
	UnsupportedNode                ErrorType = "UnsupportedNode"
)

// =============================================================================
// GOVERNOR HALTS - forced termination, not a language-level problem
// =============================================================================
const (
	MaxTotalLoopIterationsExceeded ErrorType = "MaxTotalLoopIterationsExceeded"
	MaxTotalExecutionTimeExceeded  ErrorType = "MaxTotalExecutionTimeExceeded"
	MaxCallDepthExceeded           ErrorType = "MaxCallDepthExceeded"
)

// catalogue holds message templates; {key} is replaced from the context.
var catalogue = map[ErrorType]string{
	UnexpectedToken:                  "Unexpected {token}.",
	MissingToken:                     "Expected {expected} but found {found}.",
	MissingEnd:                       "The {construct} starting on line {line} is missing its `end`.",
	UnterminatedString:               "This string is missing its closing quote.",
	InvalidCharacter:                 "The character {character} is not allowed here.",
	InvalidNumber:                    "{literal} is not a valid number.",
	MissingStatementTerminator:       "Statements in this exercise must end with a semicolon.",
	InvalidAssignmentTarget:          "You can only change a variable, an element or a property, not {target}.",
	FunctionDeclarationNotAtTopLevel: "Functions must be defined at the top level of your code.",
	ClassDeclarationNotAtTopLevel:    "Classes must be defined at the top level of your code.",

	TokenPermanentlyUnsupported: "{token} is not part of this language.",
	TokenNotYetImplemented:      "{token} isn't available yet.",
	TokenDisabledByExercise:     "{token} has been disabled for this exercise.",

	VariableNotDeclared:            "The variable {name} has not been declared.",
	VariableAlreadyDeclared:        "The variable {name} already exists. Use `change` to give it a new value.",
	ConstantReassignment:           "{name} is a constant and cannot be changed.",
	FunctionNotDeclared:            "There is no function called {name}.",
	NotCallable:                    "{name} is not a function.",
	InvalidNumberOfArguments:       "{name} expects {expected} argument(s) but received {actual}.",
	InOperatorRequiresObject:       "The `in` operator needs a dictionary or object on its right, but got {value}.",
	InOperatorOnListDisabled:       "Checking membership in a list with `in` is not allowed in this exercise.",
	OperandsMustBeNumbers:          "The {operator} operator needs two numbers, but got {left} and {right}.",
	OperandsMustBeNumbersOrStrings: "The {operator} operator needs two numbers or two strings, but got {left} and {right}.",
	OperandMustBeBoolean:           "The {operator} operator needs a boolean, but got {value}.",
	OperandMustBeNumber:            "The {operator} operator needs a number, but got {value}.",
	NumberOutOfRange:               "{left} {operator} {right} does not give a number that can be used ({value}).",
	DivisionByZero:                 "You can't divide by zero.",
	NonBooleanCondition:            "The condition must be true or false, but it was {value}.",
	RepeatCountMustBeNumber:        "repeat needs a number of times, but got {value}.",
	RepeatCountMustBeZeroOrGreater: "repeat can't run a negative number of times ({value}).",
	IndexOutOfBounds:               "Index {index} is outside the {container}, which has {length} {unit}.",
	IndexMustBeNumber:              "A list index must be a whole number, but got {index}.",
	NotIndexable:                   "{value} can't be indexed.",
	DictionaryKeyMustBeString:      "Dictionary keys must be strings, but got {key}.",
	KeyNotFound:                    "The dictionary has no key {key}.",
	NotIterable:                    "for each needs a list, string or dictionary, but got {value}.",
	ClassNotDeclared:               "There is no class called {name}.",
	PropertyNotDeclared:            "{class} has no property called {name}.",
	MethodNotDeclared:              "{class} has no method called {name}.",
	NotAnInstance:                  "{value} is not an object.",
	ThisOutsideMethod:              "`this` can only be used inside a method.",
	ExternalFunctionFailed:         "{name} failed: {reason}",
	ReturnOutsideFunction:          "`return` can only be used inside a function.",
	BreakOutsideLoop:               "`break` can only be used inside a loop.",
	ContinueOutsideLoop:            "`continue` can only be used inside a loop.",
	UnsupportedNode:                "{node} can't be run by this interpreter.",

	MaxTotalLoopIterationsExceeded: "Your loops ran more than {max} times in total, so the program was stopped.",
	MaxTotalExecutionTimeExceeded:  "Your program ran for longer than {max} time units, so it was stopped.",
	MaxCallDepthExceeded:           "Functions called each other more than {max} levels deep, so the program was stopped.",
}
