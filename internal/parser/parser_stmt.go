package parser

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/lexer"
)

// parseBlock parses `{ S1 ; S2 ; ... }`. Trailing semicolons are
// permitted. A block is simply a Go slice of statements.
func (p *Parser) parseBlock() ([]ast.Statement, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Statement
	for p.cur().Type != lexer.RBRACE {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		for p.cur().Type == lexer.SEMI {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	pos := p.pos_()
	switch {
	case p.atKeyword("let"):
		return p.parseLetStatement()
	case p.atKeyword("if"):
		return p.parseIfStatement()
	case p.atKeyword("loop"):
		p.advance()
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.Loop{Body: body, Pos: pos}, nil
	case p.atKeyword("break"):
		p.advance()
		return &ast.Break{Pos: pos}, nil
	case p.atKeyword("continue"):
		p.advance()
		return &ast.Continue{Pos: pos}, nil
	case p.atKeyword("return"):
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: val, Pos: pos}, nil
	case p.atKeyword("call_ptx"):
		p.advance()
		name, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		return &ast.CallPtx{ProcName: name.Text, Args: args, Pos: pos}, nil
	default:
		return p.parseAssignOrExprStatement()
	}
}

// parseLetStatement parses `#let [mut] x [&y] = e`.
func (p *Parser) parseLetStatement() (ast.Statement, error) {
	pos := p.pos_()
	if err := p.expectKeyword("let"); err != nil {
		return nil, err
	}
	isMut := false
	if p.cur().Type == lexer.IDENT && p.cur().Text == "mut" {
		isMut = true
		p.advance()
	}
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	refName := ""
	if isMut {
		if err := p.expectOp("&"); err != nil {
			return nil, err
		}
		ref, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		refName = ref.Text
	}
	if err := p.expectOp("="); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if isMut {
		return &ast.LetMut{Name: name.Text, RefName: refName, Value: val, Pos: pos}, nil
	}
	return &ast.Let{Name: name.Text, Value: val, Pos: pos}, nil
}

// parseIfStatement parses the statement form `#if cond { then } [#else {else}]`.
func (p *Parser) parseIfStatement() (ast.Statement, error) {
	pos := p.pos_()
	if err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock []ast.Statement
	if p.atKeyword("else") {
		p.advance()
		elseBlock, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBlock, Pos: pos}, nil
}

// parseAssignOrExprStatement disambiguates `y = e;`, `obj.f[i] = e;`, and
// a bare expression statement by parsing the expression first and then
// checking for a following '='.
func (p *Parser) parseAssignOrExprStatement() (ast.Statement, error) {
	pos := p.pos_()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atOp("=") {
		return &ast.ExprStmt{Value: expr, Pos: pos}, nil
	}
	p.advance()
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	switch target := expr.(type) {
	case *ast.Variable:
		return &ast.Assign{Name: target.Name, Value: val, Pos: pos}, nil
	case *ast.FieldAccess:
		return &ast.FieldAssign{Object: target.Object, Field: target.Field, Index: target.Index, Value: val, Pos: pos}, nil
	default:
		return nil, errors.WrapReport(errors.New(errors.PAR006, pos, "left-hand side of assignment must be a variable or a field access"))
	}
}
