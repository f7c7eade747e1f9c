package token

type TokenType string

const (
	ILLEGAL      = "ILLEGAL"
	EOF          = "EOF"
	NEWLINE      = "NEWLINE"
	UNTERMINATED = "UNTERMINATED" // string without a closing quote
	BAD_NUMBER   = "BAD_NUMBER"   // digits running into letters, e.g. 3abc

	// Identifiers + literals
	IDENT  = "IDENT"  // add, foobar, x, y, ...
	NUMBER = "NUMBER" // 1343456, 3.5
	STRING = "STRING" // "foobar"

	// Operators
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	POWER    = "**"
	SLASH    = "/"
	PERCENT  = "%"

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	EQ     = "=="
	NOT_EQ = "!="

	// Spellings learners bring from other languages. They are lexed so the
	// parser can explain that they are not part of the language.
	ASSIGN      = "="
	BANG        = "!"
	INCREMENT   = "++"
	DECREMENT   = "--"
	QUESTION    = "?"
	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	SET         = "SET"
	CONSTANT    = "CONSTANT"
	TO          = "TO"
	CHANGE      = "CHANGE"
	LOG         = "LOG"
	IF          = "IF"
	ELSE        = "ELSE"
	DO          = "DO"
	END         = "END"
	REPEAT      = "REPEAT"
	TIMES       = "TIMES"
	INDEXED     = "INDEXED"
	BY          = "BY"
	WHILE       = "WHILE"
	FOR         = "FOR"
	EACH        = "EACH"
	IN          = "IN"
	FUNCTION    = "FUNCTION"
	WITH        = "WITH"
	RETURN      = "RETURN"
	BREAK       = "BREAK"
	CONTINUE    = "CONTINUE"
	CLASS       = "CLASS"
	PROPERTY    = "PROPERTY"
	CONSTRUCTOR = "CONSTRUCTOR"
	METHOD      = "METHOD"
	NEW         = "NEW"
	THIS        = "THIS"
	TRUE        = "TRUE"
	FALSE       = "FALSE"
	NULL        = "NULL"
	AND         = "AND"
	OR          = "OR"
	NOT         = "NOT"

	// Reserved for later levels of the language.
	TRY   = "TRY"
	CATCH = "CATCH"
	THROW = "THROW"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
	End      int // the src index just past the token
}

var keywords = map[string]TokenType{
	// constants
	"null":  NULL,
	"true":  TRUE,
	"false": FALSE,

	// declarations
	"set":         SET,
	"constant":    CONSTANT,
	"to":          TO,
	"change":      CHANGE,
	"function":    FUNCTION,
	"with":        WITH,
	"class":       CLASS,
	"property":    PROPERTY,
	"constructor": CONSTRUCTOR,
	"method":      METHOD,
	"new":         NEW,
	"this":        THIS,

	// flow control
	"log":      LOG,
	"if":       IF,
	"else":     ELSE,
	"do":       DO,
	"end":      END,
	"repeat":   REPEAT,
	"times":    TIMES,
	"indexed":  INDEXED,
	"by":       BY,
	"while":    WHILE,
	"for":      FOR,
	"each":     EACH,
	"in":       IN,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"next":     CONTINUE,

	// logic
	"and": AND,
	"or":  OR,
	"not": NOT,

	// error handling
	"try":   TRY,
	"catch": CATCH,
	"throw": THROW,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Availability says whether a token may appear in a program at all.
type Availability int

const (
	Available Availability = iota
	PermanentlyUnsupported
	NotYetImplemented
)

var availability = map[TokenType]Availability{
	ASSIGN:      PermanentlyUnsupported,
	BANG:        PermanentlyUnsupported,
	INCREMENT:   PermanentlyUnsupported,
	DECREMENT:   PermanentlyUnsupported,
	QUESTION:    PermanentlyUnsupported,
	LOGICAL_AND: PermanentlyUnsupported,
	LOGICAL_OR:  PermanentlyUnsupported,

	TRY:   NotYetImplemented,
	CATCH: NotYetImplemented,
	THROW: NotYetImplemented,
}

func AvailabilityOf(t TokenType) Availability {
	return availability[t]
}

// IsSpelled reports whether exercises can switch the token on or off by its
// spelling. Identifiers and literals cannot be disabled.
func IsSpelled(t TokenType) bool {
	switch t {
	case IDENT, NUMBER, STRING, NEWLINE, EOF, ILLEGAL, UNTERMINATED, BAD_NUMBER:
		return false
	}
	return true
}
