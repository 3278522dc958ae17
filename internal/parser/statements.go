package parser

import (
	"github.com/cwbudde/codecity/internal/ast"
	"github.com/cwbudde/codecity/internal/lexer"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.SEMICOLON:
		n := &ast.EmptyStatement{}
		n.Position = p.curToken.Pos
		return n
	case lexer.LBRACE:
		return p.parseBlockStatement()
	case lexer.VAR:
		return p.parseVariableDeclaration()
	case lexer.FUNCTION:
		return p.parseFunctionDeclaration()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.DO:
		return p.parseDoWhileStatement()
	case lexer.FOR:
		return p.parseForOrForInStatement()
	case lexer.BREAK:
		return p.parseBreakStatement()
	case lexer.CONTINUE:
		return p.parseContinueStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.THROW:
		return p.parseThrowStatement()
	case lexer.TRY:
		return p.parseTryStatement()
	case lexer.SWITCH:
		return p.parseSwitchStatement()
	case lexer.IDENT:
		if p.peekIs(lexer.COLON) {
			return p.parseLabeledStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// skipSemicolon consumes a trailing `;` if present. Statements don't
// require one — a newline-free C-family surface without automatic
// semicolon insertion is a deliberate simplification (semicolons are
// optional at statement boundaries).
func (p *Parser) skipSemicolon() {
	if p.peekIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{}
	block.Position = p.curToken.Pos
	p.nextToken() // consume '{'
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		before := p.curToken
		stmt := p.parseStatement()
		if stmt != nil {
			block.Body = append(block.Body, stmt)
		}
		if p.curToken == before {
			p.nextToken()
			continue
		}
		p.nextToken()
	}
	return block
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	n := &ast.ExpressionStatement{}
	n.Position = p.curToken.Pos
	n.Expression = p.parseExpression(LOWEST)
	p.skipSemicolon()
	return n
}

func (p *Parser) parseVariableDeclaration() ast.Statement {
	decl := &ast.VariableDeclaration{}
	decl.Position = p.curToken.Pos
	for {
		if !p.expectPeek(lexer.IDENT) {
			return decl
		}
		d := &ast.VariableDeclarator{}
		d.Position = p.curToken.Pos
		id := &ast.Identifier{Name: p.curToken.Literal}
		id.Position = p.curToken.Pos
		d.ID = id
		if p.peekIs(lexer.ASSIGN) {
			p.nextToken() // '='
			p.nextToken() // first token of initializer
			d.Init = p.parseExpression(ASSIGN)
		}
		decl.Declarations = append(decl.Declarations, d)
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.nextToken() // ','
	}
	p.skipSemicolon()
	return decl
}

func (p *Parser) parseFunctionDeclaration() ast.Statement {
	decl := &ast.FunctionDeclaration{}
	decl.Position = p.curToken.Pos
	if !p.expectPeek(lexer.IDENT) {
		return decl
	}
	name := &ast.Identifier{Name: p.curToken.Literal}
	name.Position = p.curToken.Pos
	decl.Name = name
	decl.Params = p.parseParamList()
	if !p.curIs(lexer.LBRACE) {
		p.addError("expected '{' to begin function body, got %s", p.curToken.Type)
		return decl
	}
	decl.Body = p.parseBlockStatement()
	return decl
}

// parseParamList expects the cursor to be on the identifier just parsed
// (the function name, or nothing for an expression) and leaves it on the
// opening '{' of the body.
func (p *Parser) parseParamList() []*ast.Identifier {
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	var params []*ast.Identifier
	if p.peekIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		for {
			if !p.expectPeek(lexer.IDENT) {
				break
			}
			id := &ast.Identifier{Name: p.curToken.Literal}
			id.Position = p.curToken.Pos
			params = append(params, id)
			if !p.peekIs(lexer.COMMA) {
				break
			}
			p.nextToken()
		}
		if !p.expectPeek(lexer.RPAREN) {
			return params
		}
	}
	p.nextToken() // consume ')'
	return params
}

func (p *Parser) parseIfStatement() ast.Statement {
	n := &ast.IfStatement{}
	n.Position = p.curToken.Pos
	if !p.expectPeek(lexer.LPAREN) {
		return n
	}
	p.nextToken()
	n.Test = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return n
	}
	p.nextToken()
	n.Consequent = p.parseStatement()
	if p.peekIs(lexer.ELSE) {
		p.nextToken()
		p.nextToken()
		n.Alternate = p.parseStatement()
	}
	return n
}

func (p *Parser) parseWhileStatement() ast.Statement {
	n := &ast.WhileStatement{}
	n.Position = p.curToken.Pos
	if !p.expectPeek(lexer.LPAREN) {
		return n
	}
	p.nextToken()
	n.Test = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return n
	}
	p.nextToken()
	n.Body = p.parseStatement()
	return n
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	n := &ast.DoWhileStatement{}
	n.Position = p.curToken.Pos
	p.nextToken()
	n.Body = p.parseStatement()
	if !p.expectPeek(lexer.WHILE) {
		return n
	}
	if !p.expectPeek(lexer.LPAREN) {
		return n
	}
	p.nextToken()
	n.Test = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return n
	}
	p.skipSemicolon()
	return n
}

func (p *Parser) parseForOrForInStatement() ast.Statement {
	pos := p.curToken.Pos
	if !p.expectPeek(lexer.LPAREN) {
		n := &ast.ForStatement{}
		n.Position = pos
		return n
	}
	p.nextToken()

	var init ast.Node
	if p.curIs(lexer.VAR) {
		init = p.parseVariableDeclarationNoSemi()
	} else if !p.curIs(lexer.SEMICOLON) {
		init = p.parseExpression(LOWEST)
	}

	if p.peekIs(lexer.IN) {
		p.nextToken() // 'in'
		p.nextToken() // first token of the iterated expression
		right := p.parseExpression(LOWEST)
		if !p.expectPeek(lexer.RPAREN) {
			n := &ast.ForInStatement{}
			n.Position = pos
			return n
		}
		p.nextToken()
		body := p.parseStatement()
		n := &ast.ForInStatement{Left: init, Right: right, Body: body}
		n.Position = pos
		return n
	}

	if !p.consumeForClauseSep(lexer.SEMICOLON) {
		n := &ast.ForStatement{}
		n.Position = pos
		return n
	}
	var test ast.Expression
	if !p.curIs(lexer.SEMICOLON) {
		test = p.parseExpression(LOWEST)
	}
	if !p.consumeForClauseSep(lexer.SEMICOLON) {
		n := &ast.ForStatement{Init: init, Test: test}
		n.Position = pos
		return n
	}
	var update ast.Expression
	if !p.curIs(lexer.RPAREN) {
		update = p.parseExpression(LOWEST)
	}
	if !p.consumeForClauseEnd(lexer.RPAREN) {
		n := &ast.ForStatement{Init: init, Test: test, Update: update}
		n.Position = pos
		return n
	}
	p.nextToken()
	body := p.parseStatement()
	n := &ast.ForStatement{Init: init, Test: test, Update: update, Body: body}
	n.Position = pos
	return n
}

// consumeForClauseSep advances past a for-clause-separating semicolon. If
// curToken already sits on tt, the preceding clause was elided and the
// separator was never consumed by an expression parse, so it advances
// directly; otherwise tt is required as the next token, as when the clause
// was actually parsed and left curToken on its last token.
func (p *Parser) consumeForClauseSep(tt lexer.TokenType) bool {
	if p.curIs(tt) {
		p.nextToken()
		return true
	}
	if !p.expectPeek(tt) {
		return false
	}
	p.nextToken()
	return true
}

// consumeForClauseEnd checks for the closing ')' of a for-statement header,
// the same way consumeForClauseSep does for semicolons but without advancing
// past it — the caller still expects to find curToken on tt afterward.
func (p *Parser) consumeForClauseEnd(tt lexer.TokenType) bool {
	if p.curIs(tt) {
		return true
	}
	return p.expectPeek(tt)
}

// parseVariableDeclarationNoSemi parses `var x = 1, y` without consuming a
// trailing semicolon, for use inside a for-statement's init clause.
func (p *Parser) parseVariableDeclarationNoSemi() *ast.VariableDeclaration {
	decl := &ast.VariableDeclaration{}
	decl.Position = p.curToken.Pos
	for {
		if !p.expectPeek(lexer.IDENT) {
			return decl
		}
		d := &ast.VariableDeclarator{}
		d.Position = p.curToken.Pos
		id := &ast.Identifier{Name: p.curToken.Literal}
		id.Position = p.curToken.Pos
		d.ID = id
		if p.peekIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			d.Init = p.parseExpression(ASSIGN)
		}
		decl.Declarations = append(decl.Declarations, d)
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}
	return decl
}

func (p *Parser) parseBreakStatement() ast.Statement {
	n := &ast.BreakStatement{}
	n.Position = p.curToken.Pos
	if p.peekIs(lexer.IDENT) {
		p.nextToken()
		n.Label = p.curToken.Literal
	}
	p.skipSemicolon()
	return n
}

func (p *Parser) parseContinueStatement() ast.Statement {
	n := &ast.ContinueStatement{}
	n.Position = p.curToken.Pos
	if p.peekIs(lexer.IDENT) {
		p.nextToken()
		n.Label = p.curToken.Literal
	}
	p.skipSemicolon()
	return n
}

func (p *Parser) parseReturnStatement() ast.Statement {
	n := &ast.ReturnStatement{}
	n.Position = p.curToken.Pos
	if !p.peekIs(lexer.SEMICOLON) && !p.peekIs(lexer.RBRACE) {
		p.nextToken()
		n.Argument = p.parseExpression(LOWEST)
	}
	p.skipSemicolon()
	return n
}

func (p *Parser) parseThrowStatement() ast.Statement {
	n := &ast.ThrowStatement{}
	n.Position = p.curToken.Pos
	p.nextToken()
	n.Argument = p.parseExpression(LOWEST)
	p.skipSemicolon()
	return n
}

func (p *Parser) parseTryStatement() ast.Statement {
	n := &ast.TryStatement{}
	n.Position = p.curToken.Pos
	if !p.expectPeek(lexer.LBRACE) {
		return n
	}
	n.Block = p.parseBlockStatement()
	if p.peekIs(lexer.CATCH) {
		p.nextToken()
		handler := &ast.CatchClause{}
		handler.Position = p.curToken.Pos
		if p.peekIs(lexer.LPAREN) {
			p.nextToken()
			if !p.expectPeek(lexer.IDENT) {
				return n
			}
			param := &ast.Identifier{Name: p.curToken.Literal}
			param.Position = p.curToken.Pos
			handler.Param = param
			if !p.expectPeek(lexer.RPAREN) {
				return n
			}
		}
		if !p.expectPeek(lexer.LBRACE) {
			return n
		}
		handler.Body = p.parseBlockStatement()
		n.Handler = handler
	}
	if p.peekIs(lexer.FINALLY) {
		p.nextToken()
		if !p.expectPeek(lexer.LBRACE) {
			return n
		}
		n.Finalizer = p.parseBlockStatement()
	}
	return n
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	n := &ast.SwitchStatement{}
	n.Position = p.curToken.Pos
	if !p.expectPeek(lexer.LPAREN) {
		return n
	}
	p.nextToken()
	n.Discriminant = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return n
	}
	if !p.expectPeek(lexer.LBRACE) {
		return n
	}
	p.nextToken() // consume '{'
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		c := &ast.SwitchCase{}
		c.Position = p.curToken.Pos
		if p.curIs(lexer.CASE) {
			p.nextToken()
			c.Test = p.parseExpression(LOWEST)
			if !p.expectPeek(lexer.COLON) {
				return n
			}
		} else if p.curIs(lexer.DEFAULT) {
			if !p.expectPeek(lexer.COLON) {
				return n
			}
		} else {
			p.addError("expected 'case' or 'default', got %s", p.curToken.Type)
			p.nextToken()
			continue
		}
		p.nextToken()
		for !p.curIs(lexer.CASE) && !p.curIs(lexer.DEFAULT) && !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			before := p.curToken
			stmt := p.parseStatement()
			if stmt != nil {
				c.Consequent = append(c.Consequent, stmt)
			}
			if p.curToken == before {
				p.nextToken()
				continue
			}
			p.nextToken()
		}
		n.Cases = append(n.Cases, c)
	}
	return n
}

func (p *Parser) parseLabeledStatement() ast.Statement {
	n := &ast.LabeledStatement{}
	n.Position = p.curToken.Pos
	n.Label = p.curToken.Literal
	p.nextToken() // ':'
	p.nextToken()
	n.Body = p.parseStatement()
	return n
}
