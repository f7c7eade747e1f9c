package lexer

import (
	"strings"

	"jiki/internal/token"
)

// StringTokenizer reads one double-quoted string. Strings may not span
// lines.
type StringTokenizer struct {
	lexer *Lexer
	start int // position of the opening quote
}

func NewStringTokenizer(lexer *Lexer, start int) *StringTokenizer {
	return &StringTokenizer{lexer: lexer, start: start}
}

func (s *StringTokenizer) NextToken() token.Token {
	var result strings.Builder

	// Fall back to the general tokenizer mode after the string ends
	defer s.lexer.switchMode(NewGeneralTokenizer(s.lexer))

	// the opening `"` has already been read
	for {
		if s.lexer.ch == 0 || s.lexer.ch == '\n' {
			return token.Token{
				Type:     token.UNTERMINATED,
				Literal:  result.String(),
				Position: s.start,
				End:      s.lexer.position,
			}
		}

		if s.lexer.ch == '"' {
			s.lexer.readChar() // Consume the closing `"`
			break
		}

		if s.lexer.ch == '\\' {
			s.lexer.readChar() // Move to the escaped character
			switch s.lexer.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case '\\':
				result.WriteRune('\\')
			case '"':
				result.WriteRune('"')
			case 0, '\n':
				continue
			default:
				result.WriteRune('\\')
				result.WriteRune(s.lexer.ch)
			}
		} else {
			result.WriteRune(s.lexer.ch)
		}

		s.lexer.readChar()
	}

	return token.Token{
		Type:     token.STRING,
		Literal:  result.String(),
		Position: s.start,
		End:      s.lexer.position,
	}
}
