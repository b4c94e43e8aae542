package parser

import (
	"strings"

	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/lexer"
)

// parseExpr and parseProcTerm are the same grammar; ProcTerm is simply the name used inside
// #proc bodies. Both are implemented by exprPrimary + application
// extension.
func (p *Parser) parseExpr() (ast.Expr, error)     { return p.parseApplication() }
func (p *Parser) parseProcTerm() (ast.Expr, error) { return p.parseApplication() }

// parseApplication parses a primary, then if the next token begins
// another primary, collects arguments to form an App.
func (p *Parser) parseApplication() (ast.Expr, error) {
	head, err := p.exprPrimary()
	if err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.startsPrimary() {
		arg, err := p.exprPrimary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return head, nil
	}
	return &ast.App{Func: head, Args: args, Pos: head.Position()}, nil
}

func (p *Parser) startsPrimary() bool {
	switch p.cur().Type {
	case lexer.IDENT, lexer.INT, lexer.FLOAT, lexer.STRING, lexer.LPAREN:
		return true
	case lexer.KEYWORD:
		return p.cur().Text == "#if" || p.cur().Text == "#match"
	}
	return false
}

func (p *Parser) exprPrimary() (ast.Expr, error) {
	pos := p.pos_()
	switch p.cur().Type {
	case lexer.INT, lexer.FLOAT:
		return p.parseNumberLit()
	case lexer.STRING:
		tok := p.advance()
		return &ast.String{Text: tok.Text, Pos: pos}, nil
	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return p.maybeDereference(&ast.Paren{Inner: inner, Pos: pos})
	case lexer.KEYWORD:
		switch p.cur().Text {
		case "#if":
			return p.parseIfExpr()
		case "#match":
			return p.parseMatch()
		}
		return nil, p.unexpected("expected an expression")
	case lexer.IDENT:
		return p.parseIdentLike()
	default:
		return nil, p.unexpected("expected an expression")
	}
}

func (p *Parser) parseNumberLit() (ast.Expr, error) {
	pos := p.pos_()
	tok := p.advance()
	return &ast.Number{Text: tok.Text, IsFloat: tok.Type == lexer.FLOAT, Pos: pos}, nil
}

// parseIdentLike handles every primary form that starts with an
// identifier: plain/dotted reference, `T::m(args)` constructor call, and
// `obj.field[idx]` SoA field access.
func (p *Parser) parseIdentLike() (ast.Expr, error) {
	pos := p.pos_()
	name := p.advance().Text

	if p.cur().Type == lexer.DCOLON {
		p.advance()
		method, err := p.expect(lexer.IDENT)
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
		return &ast.ConstructorCall{TypeName: name, Method: method.Text, Args: args, Pos: pos}, nil
	}

	segments := strings.Split(name, ".")

	if p.cur().Type == lexer.LBRACKET && len(segments) >= 2 {
		field := segments[len(segments)-1]
		objSegs := segments[:len(segments)-1]
		var obj ast.Expr
		if len(objSegs) == 1 {
			obj = &ast.Variable{Name: objSegs[0], Pos: pos}
		} else {
			obj = &ast.IdentWithPath{Segments: objSegs, Pos: pos}
		}
		p.advance() // consume '['
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		return p.maybeDereference(&ast.FieldAccess{Object: obj, Field: field, Index: idx, Pos: pos})
	}

	// `arr.len` is the unindexed #len pseudo-method: no
	// trailing `[idx]`, so Index stays nil and the backend reads the
	// array's stored size slot instead of a field pointer.
	if len(segments) >= 2 && segments[len(segments)-1] == "len" {
		field := segments[len(segments)-1]
		objSegs := segments[:len(segments)-1]
		var obj ast.Expr
		if len(objSegs) == 1 {
			obj = &ast.Variable{Name: objSegs[0], Pos: pos}
		} else {
			obj = &ast.IdentWithPath{Segments: objSegs, Pos: pos}
		}
		return p.maybeDereference(&ast.FieldAccess{Object: obj, Field: field, Index: nil, Pos: pos})
	}

	if p.cur().Type == lexer.LPAREN {
		p.advance()
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		fn := &ast.Variable{Name: name, Pos: pos}
		return p.maybeDereference(&ast.App{Func: fn, Args: args, Pos: pos})
	}

	var expr ast.Expr
	if len(segments) == 1 {
		expr = &ast.Variable{Name: name, Pos: pos}
	} else {
		expr = &ast.IdentWithPath{Segments: segments, Pos: pos}
	}
	return p.maybeDereference(expr)
}

// maybeDereference consumes a trailing `.*`.
func (p *Parser) maybeDereference(e ast.Expr) (ast.Expr, error) {
	if p.atOp(".*") {
		pos := p.pos_()
		p.advance()
		return &ast.Dereference{Inner: e, Pos: pos}, nil
	}
	return e, nil
}

func (p *Parser) parseArgList() ([]ast.Expr, error) {
	var args []ast.Expr
	if p.cur().Type == lexer.RPAREN {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

// parseIfExpr parses the expression form `#if cond { then } [#else {else}]`.
func (p *Parser) parseIfExpr() (ast.Expr, error) {
	pos := p.pos_()
	if err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	var elseExpr ast.Expr
	if p.atKeyword("else") {
		p.advance()
		if _, err := p.expect(lexer.LBRACE); err != nil {
			return nil, err
		}
		elseExpr, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACE); err != nil {
			return nil, err
		}
	}
	return &ast.If{Cond: cond, Then: then, Else: elseExpr, Pos: pos}, nil
}

// parseMatch parses `#match scrutinee { Ctor(x,y) -> body, ... }`.
func (p *Parser) parseMatch() (ast.Expr, error) {
	pos := p.pos_()
	if err := p.expectKeyword("match"); err != nil {
		return nil, err
	}
	scrutinee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var arms []ast.MatchArm
	for p.cur().Type != lexer.RBRACE {
		arm, err := p.parseMatchArm()
		if err != nil {
			return nil, err
		}
		arms = append(arms, arm)
		if p.cur().Type == lexer.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Match{Scrutinee: scrutinee, Arms: arms, Pos: pos}, nil
}

func (p *Parser) parseMatchArm() (ast.MatchArm, error) {
	pos := p.pos_()
	ctor, err := p.expect(lexer.IDENT)
	if err != nil {
		return ast.MatchArm{}, errors.WrapReport(errors.New(errors.PAR007, pos, "expected constructor name in match arm"))
	}
	var bound []string
	if p.cur().Type == lexer.LPAREN {
		p.advance()
		for p.cur().Type != lexer.RPAREN {
			id, err := p.expect(lexer.IDENT)
			if err != nil {
				return ast.MatchArm{}, err
			}
			bound = append(bound, id.Text)
			if p.cur().Type == lexer.COMMA {
				p.advance()
			}
		}
		p.advance()
	}
	if err := p.expectOp("->"); err != nil {
		return ast.MatchArm{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.MatchArm{}, err
	}
	return ast.MatchArm{Constructor: ctor.Text, BoundNames: bound, Body: body, Pos: pos}, nil
}
