package parser

import (
	"strconv"

	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/lexer"
)

// parseExpression is the Pratt-parsing climbing loop: a prefix function
// produces the left operand, then infix functions fold in operators whose
// precedence exceeds the caller's floor, recursively handling the right
// operand at their own precedence.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix, ok := p.prefixParseFns[p.curToken.Type]
	if !ok {
		p.addError("no prefix parse function for %s (%q)", p.curToken.Type, p.curToken.Literal)
		return nil
	}
	left := prefix()

	for !p.peekIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		infix, ok := p.infixParseFns[p.peekToken.Type]
		if !ok {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expression {
	n := &ast.Identifier{Name: p.curToken.Literal}
	n.Position = p.curToken.Pos
	return n
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	n := &ast.Literal{Kind: ast.LiteralNumber}
	n.Position = p.curToken.Pos
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("invalid number literal %q", p.curToken.Literal)
	}
	n.Num = v
	return n
}

func (p *Parser) parseStringLiteral() ast.Expression {
	n := &ast.Literal{Kind: ast.LiteralString, Str: p.curToken.Literal}
	n.Position = p.curToken.Pos
	return n
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	n := &ast.Literal{Kind: ast.LiteralBoolean, Bool: p.curIs(lexer.TRUE)}
	n.Position = p.curToken.Pos
	return n
}

func (p *Parser) parseNullLiteral() ast.Expression {
	n := &ast.Literal{Kind: ast.LiteralNull}
	n.Position = p.curToken.Pos
	return n
}

func (p *Parser) parseUndefinedLiteral() ast.Expression {
	n := &ast.Literal{Kind: ast.LiteralUndefined}
	n.Position = p.curToken.Pos
	return n
}

func (p *Parser) parseThisExpression() ast.Expression {
	n := &ast.ThisExpression{}
	n.Position = p.curToken.Pos
	return n
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseArrayExpression() ast.Expression {
	n := &ast.ArrayExpression{}
	n.Position = p.curToken.Pos
	if p.peekIs(lexer.RBRACK) {
		p.nextToken()
		return n
	}
	p.nextToken()
	for {
		if p.curIs(lexer.COMMA) {
			n.Elements = append(n.Elements, nil) // elision
		} else {
			n.Elements = append(n.Elements, p.parseExpression(ASSIGN))
			if p.peekIs(lexer.COMMA) {
				p.nextToken()
			} else {
				break
			}
		}
		if p.peekIs(lexer.RBRACK) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(lexer.RBRACK) {
		return n
	}
	return n
}

func (p *Parser) parseObjectExpression() ast.Expression {
	n := &ast.ObjectExpression{}
	n.Position = p.curToken.Pos
	if p.peekIs(lexer.RBRACE) {
		p.nextToken()
		return n
	}
	p.nextToken()
	for {
		prop := ast.Property{}
		if p.curIs(lexer.LBRACK) {
			p.nextToken()
			prop.Key = p.parseExpression(LOWEST)
			prop.Computed = true
			if !p.expectPeek(lexer.RBRACK) {
				return n
			}
		} else if p.curIs(lexer.STRING) {
			lit := &ast.Literal{Kind: ast.LiteralString, Str: p.curToken.Literal}
			lit.Position = p.curToken.Pos
			prop.Key = lit
		} else {
			id := &ast.Identifier{Name: p.curToken.Literal}
			id.Position = p.curToken.Pos
			prop.Key = id
		}
		if !p.expectPeek(lexer.COLON) {
			return n
		}
		p.nextToken()
		prop.Value = p.parseExpression(ASSIGN)
		n.Properties = append(n.Properties, prop)
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		if p.peekIs(lexer.RBRACE) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(lexer.RBRACE) {
		return n
	}
	return n
}

func (p *Parser) parseFunctionExpression() ast.Expression {
	n := &ast.FunctionExpression{}
	n.Position = p.curToken.Pos
	if p.peekIs(lexer.IDENT) {
		p.nextToken()
		name := &ast.Identifier{Name: p.curToken.Literal}
		name.Position = p.curToken.Pos
		n.Name = name
	}
	n.Params = p.parseParamList()
	if !p.curIs(lexer.LBRACE) {
		p.addError("expected '{' to begin function body, got %s", p.curToken.Type)
		return n
	}
	n.Body = p.parseBlockStatement()
	return n
}

func (p *Parser) parseNewExpression() ast.Expression {
	n := &ast.NewExpression{}
	n.Position = p.curToken.Pos
	p.nextToken()
	// Parsing the callee at CALL precedence consumes a member-access chain
	// (`foo.Bar`, DOT binds at INDEX, above CALL) but stops short of `(`,
	// whose own precedence is CALL — so New, not a nested CallExpression,
	// ends up owning the argument list.
	n.Callee = p.parseExpression(CALL)
	if p.peekIs(lexer.LPAREN) {
		p.nextToken()
		n.Arguments = p.parseExpressionList(lexer.RPAREN)
	}
	return n
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	n := &ast.UnaryExpression{Operator: p.curToken.Literal}
	n.Position = p.curToken.Pos
	if p.curIs(lexer.TYPEOF) {
		n.Operator = "typeof"
	}
	p.nextToken()
	n.Argument = p.parseExpression(PREFIX)
	return n
}

func (p *Parser) parseUpdateExpressionPrefix() ast.Expression {
	n := &ast.UpdateExpression{Operator: p.curToken.Literal, Prefix: true}
	n.Position = p.curToken.Pos
	p.nextToken()
	n.Argument = p.parseExpression(PREFIX)
	return n
}

func (p *Parser) parseUpdateExpressionPostfix(left ast.Expression) ast.Expression {
	n := &ast.UpdateExpression{Operator: p.curToken.Literal, Prefix: false, Argument: left}
	n.Position = p.curToken.Pos
	return n
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	n := &ast.BinaryExpression{Operator: p.curToken.Literal, Left: left}
	n.Position = p.curToken.Pos
	prec := p.curPrecedence()
	p.nextToken()
	n.Right = p.parseExpression(prec)
	return n
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	n := &ast.LogicalExpression{Operator: p.curToken.Literal, Left: left}
	n.Position = p.curToken.Pos
	prec := p.curPrecedence()
	p.nextToken()
	n.Right = p.parseExpression(prec)
	return n
}

func (p *Parser) parseAssignmentExpression(left ast.Expression) ast.Expression {
	n := &ast.AssignmentExpression{Operator: p.curToken.Literal, Target: left}
	n.Position = p.curToken.Pos
	p.nextToken()
	n.Value = p.parseExpression(ASSIGN - 1) // right-associative: `a = b = c`
	return n
}

func (p *Parser) parseCallExpression(left ast.Expression) ast.Expression {
	n := &ast.CallExpression{Callee: left}
	n.Position = p.curToken.Pos
	n.Arguments = p.parseExpressionList(lexer.RPAREN)
	return n
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	n := &ast.MemberExpression{Object: left, Computed: true}
	n.Position = p.curToken.Pos
	p.nextToken()
	n.Property = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RBRACK) {
		return n
	}
	return n
}

func (p *Parser) parseDotExpression(left ast.Expression) ast.Expression {
	n := &ast.MemberExpression{Object: left, Computed: false}
	n.Position = p.curToken.Pos
	if !p.expectPeek(lexer.IDENT) {
		return n
	}
	prop := &ast.Identifier{Name: p.curToken.Literal}
	prop.Position = p.curToken.Pos
	n.Property = prop
	return n
}

func (p *Parser) parseConditionalExpression(test ast.Expression) ast.Expression {
	n := &ast.ConditionalExpression{Test: test}
	n.Position = p.curToken.Pos
	p.nextToken()
	n.Consequent = p.parseExpression(ASSIGN)
	if !p.expectPeek(lexer.COLON) {
		return n
	}
	p.nextToken()
	n.Alternate = p.parseExpression(ASSIGN)
	return n
}

func (p *Parser) parseSequenceExpression(left ast.Expression) ast.Expression {
	n := &ast.SequenceExpression{Expressions: []ast.Expression{left}}
	n.Position = p.curToken.Pos
	p.nextToken()
	n.Expressions = append(n.Expressions, p.parseExpression(ASSIGN))
	return n
}

// parseExpressionList parses a comma-separated expression list up to and
// including the closing token, used for call arguments.
func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expression {
	var list []ast.Expression
	if p.peekIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(ASSIGN))
	for p.peekIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(ASSIGN))
	}
	if !p.expectPeek(end) {
		return list
	}
	return list
}
