package parser

import (
	"github.com/tenntenn/minilang/backend/ast"
	"github.com/tenntenn/minilang/backend/token"
)

// parseFunction parses `fn IDENT ( params ) block`
func (p *Parser) parseFunction() (*ast.FuncDecl, error) {
	pos := p.cur.Pos
	if err := p.next(); err != nil { // fn
		return nil, err
	}

	name, err := p.expect(token.IDENT, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, "( after function name"); err != nil {
		return nil, err
	}

	// Params are bare identifiers. Anything else inside the parens is
	// skipped so that `fn f(a b, c)` still declares three parameters.
	params := []string{}
	for p.cur.Kind != token.RPAREN {
		switch p.cur.Kind {
		case token.EOF:
			return nil, p.errorf("unterminated parameter list of %s", name.Text)
		case token.IDENT:
			params = append(params, p.cur.Text)
		default:
			p.warnings.Warnf(p.cur.Pos, "ignoring %s in parameter list of %s", p.cur, name.Text)
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.skip(token.COMMA); err != nil {
			return nil, err
		}
	}
	if err := p.next(); err != nil { // )
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FuncDecl{
		Pos:    pos,
		Name:   name.Text,
		Params: params,
		Body:   body,
	}, nil
}

// parseBlock parses `{ stmts }`. A missing closing brace is tolerated at
// end of input.
func (p *Parser) parseBlock() (*ast.Block, error) {
	lbrace, err := p.expect(token.LBRACE, "{")
	if err != nil {
		return nil, err
	}

	block := &ast.Block{Pos: lbrace.Pos}
	for p.cur.Kind != token.RBRACE && p.cur.Kind != token.EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}

	if err := p.skip(token.RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur.Kind {
	case token.LET:
		return p.parseLet()
	case token.IF:
		return p.parseIf()
	case token.RETURN:
		return p.parseReturn()
	default:
		return nil, p.errorf("unexpected statement")
	}
}

// parseLet parses `let IDENT = expr [;]`
func (p *Parser) parseLet() (*ast.VarDecl, error) {
	pos := p.cur.Pos
	if err := p.next(); err != nil {
		return nil, err
	}

	name, err := p.expect(token.IDENT, "variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN, "= after variable name"); err != nil {
		return nil, err
	}

	init, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if err := p.skip(token.SEMI); err != nil {
		return nil, err
	}

	return &ast.VarDecl{Pos: pos, Name: name.Text, Init: init}, nil
}

// parseIf parses `if ( expr ) block [else block]`
func (p *Parser) parseIf() (*ast.If, error) {
	pos := p.cur.Pos
	if err := p.next(); err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LPAREN, "( after if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, ") after if condition"); err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	stmt := &ast.If{Pos: pos, Cond: cond, Then: then}
	if p.cur.Kind == token.ELSE {
		if err := p.next(); err != nil {
			return nil, err
		}
		if stmt.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseReturn parses `return expr [;]`
func (p *Parser) parseReturn() (*ast.Return, error) {
	pos := p.cur.Pos
	if err := p.next(); err != nil {
		return nil, err
	}

	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if err := p.skip(token.SEMI); err != nil {
		return nil, err
	}

	return &ast.Return{Pos: pos, Value: value}, nil
}
