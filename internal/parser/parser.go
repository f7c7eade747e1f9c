package parser

import (
	"sort"
	"strconv"

	"jiki/internal/ast"
	"jiki/internal/diagnostics"
	"jiki/internal/language"
	"jiki/internal/lexer"
	"jiki/internal/token"
)

const (
	_          int = iota
	LOWEST         // assignment
	LOGICAL_OR     // or
	LOGICAL_AND    // and
	EQUALS         // ==
	COMPARISON     // > or < or in
	SUM            // +
	PRODUCT        // *
	POWER          // **
	PREFIX         // -X
	CALL           // myFunction(X) or obj.method(X)
	INDEX          // array[index]
)

var precedences = map[token.TokenType]int{
	token.OR:       LOGICAL_OR,
	token.AND:      LOGICAL_AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       COMPARISON,
	token.LT_EQ:    COMPARISON,
	token.GT:       COMPARISON,
	token.GT_EQ:    COMPARISON,
	token.IN:       COMPARISON,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.SLASH:    PRODUCT,
	token.ASTERISK: PRODUCT,
	token.PERCENT:  PRODUCT,
	token.POWER:    POWER,
	token.PERIOD:   CALL,
	token.LPAREN:   CALL,
	token.LBRACKET: INDEX,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l        *lexer.Lexer
	src      string // source code here
	features language.Features
	lines    []int // byte offset of each line start
	err      *diagnostics.Error

	curToken  token.Token
	peekToken token.Token

	// blockDepth is 0 at the top level of the program.
	blockDepth int

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer, source string, features language.Features) *Parser {
	p := &Parser{
		l:        l,
		src:      source,
		features: features,
		lines:    lineStarts(source),
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseListLiteral)
	p.registerPrefix(token.LBRACE, p.parseDictionaryLiteral)
	p.registerPrefix(token.THIS, p.parseThis)
	p.registerPrefix(token.NEW, p.parseInstantiation)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	p.registerInfix(token.PLUS, p.parseInfixExpression)
	p.registerInfix(token.MINUS, p.parseInfixExpression)
	p.registerInfix(token.SLASH, p.parseInfixExpression)
	p.registerInfix(token.ASTERISK, p.parseInfixExpression)
	p.registerInfix(token.PERCENT, p.parseInfixExpression)
	p.registerInfix(token.POWER, p.parseInfixExpression)
	p.registerInfix(token.EQ, p.parseInfixExpression)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpression)
	p.registerInfix(token.LT, p.parseInfixExpression)
	p.registerInfix(token.LT_EQ, p.parseInfixExpression)
	p.registerInfix(token.GT, p.parseInfixExpression)
	p.registerInfix(token.GT_EQ, p.parseInfixExpression)
	p.registerInfix(token.IN, p.parseInfixExpression)
	p.registerInfix(token.AND, p.parseLogicalExpression)
	p.registerInfix(token.OR, p.parseLogicalExpression)

	p.registerInfix(token.PERIOD, p.parseMemberExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse lexes and parses src in one step.
func Parse(src string, features language.Features) (*ast.Program, error) {
	return New(lexer.New(src), src, features).ParseProgram()
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	p.checkToken(p.peekToken)
}

// checkToken reports lexical problems and tokens the learner may not use.
// Tokens are checked as they are read, so the report points at the token
// itself rather than at whatever the grammar expected in its place.
func (p *Parser) checkToken(tok token.Token) {
	switch tok.Type {
	case token.ILLEGAL:
		p.fail(diagnostics.InvalidCharacter, tok, diagnostics.Ctx{"character": strconv.Quote(tok.Literal)})
		return
	case token.UNTERMINATED:
		p.fail(diagnostics.UnterminatedString, tok, nil)
		return
	case token.BAD_NUMBER:
		p.fail(diagnostics.InvalidNumber, tok, diagnostics.Ctx{"literal": tok.Literal})
		return
	}

	switch token.AvailabilityOf(tok.Type) {
	case token.PermanentlyUnsupported:
		p.fail(diagnostics.TokenPermanentlyUnsupported, tok, diagnostics.Ctx{"token": describe(tok)})
		return
	case token.NotYetImplemented:
		p.fail(diagnostics.TokenNotYetImplemented, tok, diagnostics.Ctx{"token": describe(tok)})
		return
	}

	if token.IsSpelled(tok.Type) && !p.features.TokenAllowed(tok.Literal) {
		p.fail(diagnostics.TokenDisabledByExercise, tok, diagnostics.Ctx{"token": describe(tok)})
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

// fail records the first syntax error; later ones are consequences of it.
func (p *Parser) fail(typ diagnostics.ErrorType, tok token.Token, ctx diagnostics.Ctx) {
	if p.err != nil {
		return
	}
	p.err = diagnostics.Syntax(typ, p.loc(tok), ctx)
}

func (p *Parser) failed() bool { return p.err != nil }

func (p *Parser) peekError(t token.TokenType) {
	p.fail(diagnostics.MissingToken, p.peekToken, diagnostics.Ctx{
		"expected": describeType(t),
		"found":    describe(p.peekToken),
	})
}

func (p *Parser) unexpected(tok token.Token) {
	p.fail(diagnostics.UnexpectedToken, tok, diagnostics.Ctx{"token": describe(tok)})
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return !p.failed()
	}
	p.peekError(t)
	return false
}

// Err returns the syntax error, if any.
func (p *Parser) Err() *diagnostics.Error {
	return p.err
}

// ParseProgram parses the whole source. The error, when not nil, is a
// *diagnostics.Error of kind Syntax.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	program := &ast.Program{Source: p.src}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(token.EOF) && !p.failed() {
		if p.curTokenIs(token.NEWLINE) || (p.curTokenIs(token.SEMICOLON) && !p.features.RequireStatementTerminators) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	if p.err != nil {
		return nil, p.err
	}
	return program, nil
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.SET, token.CONSTANT:
		return p.parseVariableDeclaration()
	case token.CHANGE:
		return p.parseAssignment()
	case token.LOG:
		return p.parseLogStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.REPEAT:
		return p.parseRepeatStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForEachStatement()
	case token.FUNCTION:
		return p.parseFunctionDeclaration()
	case token.CLASS:
		return p.parseClassDeclaration()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		stmt := &ast.BreakStatement{Loc: p.loc(p.curToken)}
		p.endStatement()
		return stmt
	case token.CONTINUE:
		stmt := &ast.ContinueStatement{Loc: p.loc(p.curToken)}
		p.endStatement()
		return stmt
	default:
		return p.parseExpressionStatement()
	}
}

// endStatement checks what follows a simple statement and consumes an
// optional semicolon.
func (p *Parser) endStatement() {
	if p.failed() {
		return
	}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		return
	}
	if p.features.RequireStatementTerminators {
		p.fail(diagnostics.MissingStatementTerminator, p.peekToken, nil)
		return
	}
	switch p.peekToken.Type {
	case token.NEWLINE, token.EOF, token.END, token.ELSE:
		return
	}
	p.unexpected(p.peekToken)
}

func (p *Parser) parseVariableDeclaration() ast.Statement {
	start := p.curToken
	stmt := &ast.VariableDeclaration{Constant: p.curTokenIs(token.CONSTANT)}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal}

	if !p.expectPeek(token.TO) {
		return nil
	}
	p.nextToken()

	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	stmt.Loc = p.spanFrom(start)
	p.endStatement()
	return stmt
}

func (p *Parser) parseAssignment() ast.Statement {
	start := p.curToken
	p.nextToken()

	target := p.parseExpression(LOWEST)
	if target == nil {
		return nil
	}
	switch target.(type) {
	case *ast.Identifier, *ast.IndexExpression, *ast.MemberExpression:
	default:
		p.fail(diagnostics.InvalidAssignmentTarget, start, diagnostics.Ctx{"target": target.String()})
		return nil
	}

	if !p.expectPeek(token.TO) {
		return nil
	}
	p.nextToken()

	stmt := &ast.Assignment{Target: target}
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	stmt.Loc = p.spanFrom(start)
	p.endStatement()
	return stmt
}

func (p *Parser) parseLogStatement() ast.Statement {
	start := p.curToken
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	stmt := &ast.LogStatement{Loc: p.spanFrom(start), Value: value}
	p.endStatement()
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	start := p.curToken
	stmt := &ast.ReturnStatement{}

	switch p.peekToken.Type {
	case token.NEWLINE, token.EOF, token.SEMICOLON, token.END, token.ELSE:
	default:
		p.nextToken()
		stmt.ReturnValue = p.parseExpression(LOWEST)
		if stmt.ReturnValue == nil {
			return nil
		}
	}

	stmt.Loc = p.spanFrom(start)
	p.endStatement()
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	start := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	stmt := &ast.ExpressionStatement{Loc: p.spanFrom(start), Expression: expr}
	p.endStatement()
	return stmt
}

// parseBlock is entered with curToken on `do` and returns with curToken on
// whichever of stops ended the block.
func (p *Parser) parseBlock(construct string, opener token.Token, stops ...token.TokenType) *ast.BlockStatement {
	block := &ast.BlockStatement{Statements: []ast.Statement{}}
	start := p.curToken
	p.nextToken()

	p.blockDepth++
	defer func() { p.blockDepth-- }()

	for !p.failed() {
		if p.curTokenIs(token.EOF) {
			p.fail(diagnostics.MissingEnd, opener, diagnostics.Ctx{
				"construct": construct,
				"line":      p.loc(opener).Line,
			})
			return nil
		}
		if containsType(stops, p.curToken.Type) {
			block.Loc = p.spanFrom(start)
			return block
		}
		if p.curTokenIs(token.NEWLINE) || (p.curTokenIs(token.SEMICOLON) && !p.features.RequireStatementTerminators) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	return nil
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := p.parseIfChain(p.curToken)
	if stmt == nil {
		return nil
	}
	return stmt
}

// parseIfChain parses `if cond do ... [else if ... | else [do] ...] end`.
// An else-if shares the `end` of the whole chain.
func (p *Parser) parseIfChain(opener token.Token) *ast.IfStatement {
	start := p.curToken
	p.nextToken()

	stmt := &ast.IfStatement{}
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil || !p.expectPeek(token.DO) {
		return nil
	}

	stmt.ThenBranch = p.parseBlock("if", opener, token.END, token.ELSE)
	if stmt.ThenBranch == nil {
		return nil
	}

	if p.curTokenIs(token.ELSE) {
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			nested := p.parseIfChain(opener)
			if nested == nil {
				return nil
			}
			stmt.ElseBranch = nested
			stmt.Loc = p.spanFrom(start)
			return stmt
		}

		if p.peekTokenIs(token.DO) {
			p.nextToken()
		}
		elseBlock := p.parseBlock("if", opener, token.END)
		if elseBlock == nil {
			return nil
		}
		stmt.ElseBranch = elseBlock
	}

	stmt.Loc = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseRepeatStatement() ast.Statement {
	start := p.curToken

	if p.peekTokenIs(token.DO) {
		p.nextToken()
		body := p.parseBlock("repeat", start, token.END)
		if body == nil {
			return nil
		}
		return &ast.RepeatForeverStatement{Loc: p.spanFrom(start), Body: body}
	}

	stmt := &ast.RepeatStatement{}
	p.nextToken()
	stmt.Count = p.parseExpression(LOWEST)
	if stmt.Count == nil || !p.expectPeek(token.TIMES) {
		return nil
	}

	if p.peekTokenIs(token.INDEXED) {
		stmt.Index = p.parseIndexedBy()
		if stmt.Index == nil {
			return nil
		}
	}

	if !p.expectPeek(token.DO) {
		return nil
	}
	stmt.Body = p.parseBlock("repeat", start, token.END)
	if stmt.Body == nil {
		return nil
	}
	stmt.Loc = p.spanFrom(start)
	return stmt
}

// parseIndexedBy is entered with peekToken on `indexed`.
func (p *Parser) parseIndexedBy() *ast.Identifier {
	p.nextToken()
	if !p.expectPeek(token.BY) || !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	start := p.curToken
	p.nextToken()

	stmt := &ast.WhileStatement{}
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil || !p.expectPeek(token.DO) {
		return nil
	}
	stmt.Body = p.parseBlock("while", start, token.END)
	if stmt.Body == nil {
		return nil
	}
	stmt.Loc = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseForEachStatement() ast.Statement {
	start := p.curToken
	if !p.expectPeek(token.EACH) || !p.expectPeek(token.IDENT) {
		return nil
	}

	stmt := &ast.ForEachStatement{}
	stmt.Element = &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal}

	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	stmt.Iterable = p.parseExpression(LOWEST)
	if stmt.Iterable == nil {
		return nil
	}

	if p.peekTokenIs(token.INDEXED) {
		stmt.Index = p.parseIndexedBy()
		if stmt.Index == nil {
			return nil
		}
	}

	if !p.expectPeek(token.DO) {
		return nil
	}
	stmt.Body = p.parseBlock("for each", start, token.END)
	if stmt.Body == nil {
		return nil
	}
	stmt.Loc = p.spanFrom(start)
	return stmt
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	start := p.curToken
	if p.blockDepth > 0 {
		p.fail(diagnostics.FunctionDeclarationNotAtTopLevel, start, nil)
		return nil
	}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt := &ast.FunctionDeclaration{
		Name: &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal},
	}

	stmt.Parameters = p.parseParameters()
	if p.failed() || !p.expectPeek(token.DO) {
		return nil
	}

	stmt.Body = p.parseBlock("function", start, token.END)
	if stmt.Body == nil {
		return nil
	}
	stmt.Loc = p.spanFrom(start)
	return stmt
}

// parseParameters reads an optional `with a, b` list.
func (p *Parser) parseParameters() []*ast.Identifier {
	params := []*ast.Identifier{}
	if !p.peekTokenIs(token.WITH) {
		return params
	}
	p.nextToken()

	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		params = append(params, &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal})
		if !p.peekTokenIs(token.COMMA) {
			return params
		}
		p.nextToken()
	}
}

func (p *Parser) parseClassDeclaration() ast.Statement {
	start := p.curToken
	if p.blockDepth > 0 {
		p.fail(diagnostics.ClassDeclarationNotAtTopLevel, start, nil)
		return nil
	}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt := &ast.ClassDeclaration{
		Name: &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal},
	}
	if !p.expectPeek(token.DO) {
		return nil
	}
	p.nextToken()

	p.blockDepth++
	defer func() { p.blockDepth-- }()

	for !p.failed() {
		switch p.curToken.Type {
		case token.EOF:
			p.fail(diagnostics.MissingEnd, start, diagnostics.Ctx{"construct": "class", "line": p.loc(start).Line})
			return nil
		case token.END:
			stmt.Loc = p.spanFrom(start)
			return stmt
		case token.NEWLINE, token.SEMICOLON:
		case token.PROPERTY:
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			stmt.Properties = append(stmt.Properties, &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal})
		case token.CONSTRUCTOR:
			m := p.parseMethod("constructor", nil)
			if m == nil {
				return nil
			}
			stmt.Constructor = m
		case token.METHOD:
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			name := &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal}
			m := p.parseMethod("method", name)
			if m == nil {
				return nil
			}
			stmt.Methods = append(stmt.Methods, m)
		default:
			p.unexpected(p.curToken)
			return nil
		}
		p.nextToken()
	}
	return nil
}

// parseMethod is entered on `constructor` or on the method name.
func (p *Parser) parseMethod(construct string, name *ast.Identifier) *ast.MethodDeclaration {
	start := p.curToken
	m := &ast.MethodDeclaration{Name: name}
	m.Parameters = p.parseParameters()
	if p.failed() || !p.expectPeek(token.DO) {
		return nil
	}
	m.Body = p.parseBlock(construct, start, token.END)
	if m.Body == nil {
		return nil
	}
	m.Loc = p.spanFrom(start)
	return m
}

// Expressions

func (p *Parser) parseExpression(precedence int) ast.Expression {
	if p.failed() {
		return nil
	}
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.unexpected(p.curToken)
		return nil
	}
	leftExp := prefix()

	for leftExp != nil && !p.failed() && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	if p.failed() {
		return nil
	}
	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}

	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.fail(diagnostics.InvalidNumber, p.curToken, diagnostics.Ctx{"literal": p.curToken.Literal})
		return nil
	}
	return &ast.NumberLiteral{Loc: p.loc(p.curToken), Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Loc: p.loc(p.curToken), Value: p.curToken.Literal}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Loc: p.loc(p.curToken), Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNull() ast.Expression {
	return &ast.NullLiteral{Loc: p.loc(p.curToken)}
}

func (p *Parser) parseThis() ast.Expression {
	return &ast.ThisExpression{Loc: p.loc(p.curToken)}
}

// parsePrefixExpression handles `-x` and `not x`. `not` covers a whole
// comparison, so `not a == b` negates the equality.
func (p *Parser) parsePrefixExpression() ast.Expression {
	start := p.curToken
	expression := &ast.UnaryExpression{Operator: p.curToken.Literal}

	precedence := PRODUCT
	if start.Type == token.NOT {
		expression.Operator = "not"
		precedence = LOGICAL_AND
	}

	p.nextToken()
	expression.Operand = p.parseExpression(precedence)
	if expression.Operand == nil {
		return nil
	}
	expression.Loc = p.spanFrom(start)
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.BinaryExpression{
		Operator: p.curToken.Literal,
		Left:     left,
	}
	if p.curTokenIs(token.IN) {
		expression.Operator = "in"
	}

	precedence := p.curPrecedence()
	if p.curTokenIs(token.POWER) {
		// ** is right-associative
		precedence--
	}
	p.nextToken()

	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	expression.Loc = ast.Span(left.Span(), expression.Right.Span())
	return expression
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	expression := &ast.LogicalExpression{
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()

	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	expression.Loc = ast.Span(left.Span(), expression.Right.Span())
	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	start := p.curToken
	p.nextToken()

	inner := p.parseExpression(LOWEST)
	if inner == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return &ast.GroupingExpression{Loc: p.spanFrom(start), Inner: inner}
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	ident, ok := callee.(*ast.Identifier)
	if !ok {
		p.unexpected(p.curToken)
		return nil
	}
	args := p.parseExpressionList(token.RPAREN)
	if args == nil {
		return nil
	}
	return &ast.CallExpression{Loc: ast.Span(ident.Loc, p.loc(p.curToken)), Callee: ident, Arguments: args}
}

// parseMemberExpression handles `obj.prop` and `obj.method(args)`.
func (p *Parser) parseMemberExpression(object ast.Expression) ast.Expression {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal}

	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		args := p.parseExpressionList(token.RPAREN)
		if args == nil {
			return nil
		}
		return &ast.MethodCallExpression{
			Loc:       ast.Span(object.Span(), p.loc(p.curToken)),
			Object:    object,
			Method:    name,
			Arguments: args,
		}
	}

	return &ast.MemberExpression{
		Loc:      ast.Span(object.Span(), name.Loc),
		Object:   object,
		Property: name,
	}
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	p.nextToken()
	index := p.parseExpression(LOWEST)
	if index == nil || !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.IndexExpression{Loc: ast.Span(left.Span(), p.loc(p.curToken)), Object: left, Index: index}
}

func (p *Parser) parseInstantiation() ast.Expression {
	start := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	class := &ast.Identifier{Loc: p.loc(p.curToken), Value: p.curToken.Literal}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	args := p.parseExpressionList(token.RPAREN)
	if args == nil {
		return nil
	}
	return &ast.InstantiationExpression{Loc: p.spanFrom(start), Class: class, Arguments: args}
}

func (p *Parser) parseListLiteral() ast.Expression {
	start := p.curToken
	elements := p.parseExpressionList(token.RBRACKET)
	if elements == nil {
		return nil
	}
	return &ast.ListLiteral{Loc: p.spanFrom(start), Elements: elements}
}

func (p *Parser) parseDictionaryLiteral() ast.Expression {
	start := p.curToken
	dict := &ast.DictionaryLiteral{Entries: []ast.DictionaryEntry{}}

	p.skipPeekNewlines()
	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		key := p.parseExpression(LOWEST)
		if key == nil || !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		dict.Entries = append(dict.Entries, ast.DictionaryEntry{Key: key, Value: value})

		p.skipPeekNewlines()
		if p.peekTokenIs(token.RBRACE) {
			break
		}
		if !p.expectPeek(token.COMMA) {
			return nil
		}
		p.skipPeekNewlines()
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	dict.Loc = p.spanFrom(start)
	return dict
}

// parseExpressionList is entered on the opening delimiter and returns with
// curToken on end. Line breaks inside the list are ignored.
func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	p.skipPeekNewlines()
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	list = append(list, expr)

	p.skipPeekNewlines()
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.skipPeekNewlines()
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		list = append(list, expr)
		p.skipPeekNewlines()
	}

	if !p.expectPeek(end) {
		return nil
	}

	return list
}

func (p *Parser) skipPeekNewlines() {
	for p.peekTokenIs(token.NEWLINE) && !p.failed() {
		p.nextToken()
	}
}

// Locations

func lineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (p *Parser) position(offset int) (line, column int) {
	i := sort.Search(len(p.lines), func(i int) bool { return p.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - p.lines[i] + 1
}

func (p *Parser) loc(tok token.Token) ast.Location {
	line, col := p.position(tok.Position)
	endLine, endCol := p.position(tok.End)
	return ast.Location{
		Line:      line,
		Column:    col,
		Offset:    tok.Position,
		EndLine:   endLine,
		EndColumn: endCol,
		EndOffset: tok.End,
	}
}

// spanFrom covers start up to and including the current token.
func (p *Parser) spanFrom(start token.Token) ast.Location {
	return ast.Span(p.loc(start), p.loc(p.curToken))
}

// Descriptions used in messages

func describe(tok token.Token) string {
	switch tok.Type {
	case token.NEWLINE:
		return "the end of the line"
	case token.EOF:
		return "the end of the program"
	case token.STRING:
		return strconv.Quote(tok.Literal)
	}
	return "`" + tok.Literal + "`"
}

var typeSpellings = map[token.TokenType]string{
	token.IDENT: "a name",
	token.TO:    "`to`",
	token.DO:    "`do`",
	token.END:   "`end`",
	token.TIMES: "`times`",
	token.BY:    "`by`",
	token.IN:    "`in`",
	token.EACH:  "`each`",
}

func describeType(t token.TokenType) string {
	if s, ok := typeSpellings[t]; ok {
		return s
	}
	return "`" + string(t) + "`"
}

func containsType(types []token.TokenType, t token.TokenType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
