// Package parser implements a Pratt (precedence-climbing) recursive-descent
// parser over internal/lexer's token stream, producing the internal/ast
// schema the step engine consumes.
//
// Grounded in the teacher's parser architecture (internal/parser: a
// prefixParseFns/infixParseFns table keyed by token type, a precedence
// table driving parseExpression's climbing loop, curToken/peekToken
// two-token lookahead) narrowed from DWScript's large Pascal-family grammar
// down to the small C-family grammar spec §4.5's state-node set actually
// needs.
package parser

import (
	"fmt"

	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/lexer"
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -= *= /=
	CONDITIONAL // ?:
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	EQUALS      // == === != !==
	LESSGREATER // < > <= >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x typeof x ++x --x
	CALL        // f(args)
	INDEX       // a[i] a.b
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:        ASSIGN,
	lexer.PLUS_ASSIGN:   ASSIGN,
	lexer.MINUS_ASSIGN:  ASSIGN,
	lexer.TIMES_ASSIGN:  ASSIGN,
	lexer.DIVIDE_ASSIGN: ASSIGN,
	lexer.QUESTION:      CONDITIONAL,
	lexer.PIPE_PIPE:     LOGICAL_OR,
	lexer.AMP_AMP:       LOGICAL_AND,
	lexer.EQ_EQ:         EQUALS,
	lexer.EQ_EQ_EQ:      EQUALS,
	lexer.NOT_EQ:        EQUALS,
	lexer.NOT_EQ_EQ:     EQUALS,
	lexer.LESS:          LESSGREATER,
	lexer.GREATER:       LESSGREATER,
	lexer.LESS_EQ:       LESSGREATER,
	lexer.GREATER_EQ:    LESSGREATER,
	lexer.PLUS:          SUM,
	lexer.MINUS:         SUM,
	lexer.STAR:          PRODUCT,
	lexer.SLASH:         PRODUCT,
	lexer.PERCENT:       PRODUCT,
	lexer.LPAREN:        CALL,
	lexer.LBRACK:        INDEX,
	lexer.DOT:           INDEX,
	lexer.INC:           INDEX, // postfix ++/--
	lexer.DEC:           INDEX,
	lexer.COMMA:         LOWEST + 1, // sequence expression, only inside parens/for-init
}

type prefixParseFn func() ast.Expression
type infixParseFn func(ast.Expression) ast.Expression

// ParseError is one syntax error, positioned for caret-style reporting via
// internal/errors.CompilerError.
type ParseError struct {
	Message string
	Pos     lexer.Position
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s at %s", e.Message, e.Pos) }

// Parser turns a token stream into a *ast.Program, collecting every syntax
// error it finds rather than stopping at the first one (spec §9's
// diagnostics-friendliness carried over from the teacher's error-recovery
// parser, narrowed here to simple statement-boundary resynchronization
// instead of full block-context tracking).
type Parser struct {
	l *lexer.Lexer

	curToken  lexer.Token
	peekToken lexer.Token

	errors []*ParseError

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

// New creates a Parser over l, primed with its first two tokens.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[lexer.TokenType]prefixParseFn{
		lexer.IDENT:     p.parseIdentifier,
		lexer.NUMBER:    p.parseNumberLiteral,
		lexer.STRING:    p.parseStringLiteral,
		lexer.TRUE:      p.parseBooleanLiteral,
		lexer.FALSE:     p.parseBooleanLiteral,
		lexer.NULLKW:    p.parseNullLiteral,
		lexer.UNDEFINED: p.parseUndefinedLiteral,
		lexer.THIS:      p.parseThisExpression,
		lexer.LPAREN:    p.parseGroupedExpression,
		lexer.LBRACK:    p.parseArrayExpression,
		lexer.LBRACE:    p.parseObjectExpression,
		lexer.FUNCTION:  p.parseFunctionExpression,
		lexer.NEWKW:     p.parseNewExpression,
		lexer.MINUS:     p.parseUnaryExpression,
		lexer.PLUS:      p.parseUnaryExpression,
		lexer.BANG:      p.parseUnaryExpression,
		lexer.TYPEOF:    p.parseUnaryExpression,
		lexer.INC:       p.parseUpdateExpressionPrefix,
		lexer.DEC:       p.parseUpdateExpressionPrefix,
	}

	p.infixParseFns = map[lexer.TokenType]infixParseFn{
		lexer.PLUS:          p.parseBinaryExpression,
		lexer.MINUS:         p.parseBinaryExpression,
		lexer.STAR:          p.parseBinaryExpression,
		lexer.SLASH:         p.parseBinaryExpression,
		lexer.PERCENT:       p.parseBinaryExpression,
		lexer.EQ_EQ:         p.parseBinaryExpression,
		lexer.EQ_EQ_EQ:      p.parseBinaryExpression,
		lexer.NOT_EQ:        p.parseBinaryExpression,
		lexer.NOT_EQ_EQ:     p.parseBinaryExpression,
		lexer.LESS:          p.parseBinaryExpression,
		lexer.GREATER:       p.parseBinaryExpression,
		lexer.LESS_EQ:       p.parseBinaryExpression,
		lexer.GREATER_EQ:    p.parseBinaryExpression,
		lexer.AMP_AMP:       p.parseLogicalExpression,
		lexer.PIPE_PIPE:     p.parseLogicalExpression,
		lexer.ASSIGN:        p.parseAssignmentExpression,
		lexer.PLUS_ASSIGN:   p.parseAssignmentExpression,
		lexer.MINUS_ASSIGN:  p.parseAssignmentExpression,
		lexer.TIMES_ASSIGN:  p.parseAssignmentExpression,
		lexer.DIVIDE_ASSIGN: p.parseAssignmentExpression,
		lexer.LPAREN:        p.parseCallExpression,
		lexer.LBRACK:        p.parseIndexExpression,
		lexer.DOT:           p.parseDotExpression,
		lexer.QUESTION:      p.parseConditionalExpression,
		lexer.INC:           p.parseUpdateExpressionPostfix,
		lexer.DEC:           p.parseUpdateExpressionPostfix,
		lexer.COMMA:         p.parseSequenceExpression,
	}

	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns every syntax error accumulated while parsing.
func (p *Parser) Errors() []*ParseError { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) addError(format string, args ...any) {
	p.errors = append(p.errors, &ParseError{Message: fmt.Sprintf(format, args...), Pos: p.curToken.Pos})
}

func (p *Parser) curIs(tt lexer.TokenType) bool  { return p.curToken.Type == tt }
func (p *Parser) peekIs(tt lexer.TokenType) bool { return p.peekToken.Type == tt }

// expectPeek advances past peekToken if it matches tt, else records an
// error and leaves the cursor where it is (the caller bails out of the
// current construct; ParseProgram resynchronizes at the next statement).
func (p *Parser) expectPeek(tt lexer.TokenType) bool {
	if p.peekIs(tt) {
		p.nextToken()
		return true
	}
	p.addError("expected next token to be %s, got %s (%q) instead", tt, p.peekToken.Type, p.peekToken.Literal)
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// ParseProgram parses the entire token stream into a *ast.Program,
// collecting statement-level errors rather than aborting on the first
// mistake: after a malformed statement it moves to the next token
// (skipping one more if the statement consumed nothing) and parses on.
func ParseProgram(source string) (*ast.Program, []*ParseError) {
	p := New(lexer.New(source))
	prog := &ast.Program{}
	prog.Position = p.curToken.Pos
	for !p.curIs(lexer.EOF) {
		before := p.curToken
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Body = append(prog.Body, stmt)
		}
		if p.curToken == before {
			// parseStatement made no progress (a malformed construct); skip
			// the offending token so ParseProgram always terminates.
			p.nextToken()
		}
		p.nextToken()
	}
	return prog, p.errors
}
