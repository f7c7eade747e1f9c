package lexer

import (
	"testing"

	"jiki/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `set x to 5 + 3.25
// comment on its own line

change x to x ** 2
if x >= 10 and not done do
  log "big\t\"x\""
end
repeat 3 times indexed by i do next end
xs[0] != {"a": 1}; this.count == -1 % 2
i++ && || ? = !
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.SET, "set"},
		{token.IDENT, "x"},
		{token.TO, "to"},
		{token.NUMBER, "5"},
		{token.PLUS, "+"},
		{token.NUMBER, "3.25"},
		{token.NEWLINE, "\n"},
		{token.CHANGE, "change"},
		{token.IDENT, "x"},
		{token.TO, "to"},
		{token.IDENT, "x"},
		{token.POWER, "**"},
		{token.NUMBER, "2"},
		{token.NEWLINE, "\n"},
		{token.IF, "if"},
		{token.IDENT, "x"},
		{token.GT_EQ, ">="},
		{token.NUMBER, "10"},
		{token.AND, "and"},
		{token.NOT, "not"},
		{token.IDENT, "done"},
		{token.DO, "do"},
		{token.NEWLINE, "\n"},
		{token.LOG, "log"},
		{token.STRING, "big\t\"x\""},
		{token.NEWLINE, "\n"},
		{token.END, "end"},
		{token.NEWLINE, "\n"},
		{token.REPEAT, "repeat"},
		{token.NUMBER, "3"},
		{token.TIMES, "times"},
		{token.INDEXED, "indexed"},
		{token.BY, "by"},
		{token.IDENT, "i"},
		{token.DO, "do"},
		{token.CONTINUE, "next"},
		{token.END, "end"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "xs"},
		{token.LBRACKET, "["},
		{token.NUMBER, "0"},
		{token.RBRACKET, "]"},
		{token.NOT_EQ, "!="},
		{token.LBRACE, "{"},
		{token.STRING, "a"},
		{token.COLON, ":"},
		{token.NUMBER, "1"},
		{token.RBRACE, "}"},
		{token.SEMICOLON, ";"},
		{token.THIS, "this"},
		{token.PERIOD, "."},
		{token.IDENT, "count"},
		{token.EQ, "=="},
		{token.MINUS, "-"},
		{token.NUMBER, "1"},
		{token.PERCENT, "%"},
		{token.NUMBER, "2"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "i"},
		{token.INCREMENT, "++"},
		{token.LOGICAL_AND, "&&"},
		{token.LOGICAL_OR, "||"},
		{token.QUESTION, "?"},
		{token.ASSIGN, "="},
		{token.BANG, "!"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestPositions(t *testing.T) {
	input := `set name to "héllo"`
	toks := New(input).Tokens()
	str := toks[3]
	if str.Type != token.STRING {
		t.Fatalf("expected string, got %s", str.Type)
	}
	if input[str.Position:str.End] != `"héllo"` {
		t.Errorf("unexpected span %q", input[str.Position:str.End])
	}
	if toks[1].Position != 4 || toks[1].End != 8 {
		t.Errorf("identifier span %d-%d", toks[1].Position, toks[1].End)
	}
}

func TestMalformedTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected token.TokenType
	}{
		{`log "unfinished`, token.UNTERMINATED},
		{"log \"split\nline\"", token.UNTERMINATED},
		{`set x to 3abc`, token.BAD_NUMBER},
		{`set x to @`, token.ILLEGAL},
		{`a & b`, token.ILLEGAL},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			for _, tok := range New(tt.input).Tokens() {
				if tok.Type == tt.expected {
					return
				}
			}
			t.Errorf("expected a %s token", tt.expected)
		})
	}
}
