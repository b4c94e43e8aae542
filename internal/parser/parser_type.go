package parser

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/lexer"
)

// parseType implements the type-expression precedence: try a
// DependentMap first (its distinctive `(` ident `:` prefix), otherwise
// parse a NoMap (application chain of atoms/parens/unit), then optionally
// extend right-associatively with `-> Type`.
func (p *Parser) parseType() (ast.Type, error) {
	if dm, ok, err := p.tryDependentMap(); err != nil {
		return nil, err
	} else if ok {
		return dm, nil
	}

	lhs, err := p.parseNoMapType()
	if err != nil {
		return nil, err
	}
	if p.atOp("->") {
		p.advance()
		rhs, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.MapType{Source: lhs, Target: rhs, Pos: lhs.Position()}, nil
	}
	return lhs, nil
}

// tryDependentMap attempts `( ident : Type ) -> Type`; on any mismatch it
// restores the cursor and reports no-match rather than an error, since a
// plain parenthesized type also begins with `(`.
func (p *Parser) tryDependentMap() (ast.Type, bool, error) {
	mark := p.save()
	if p.cur().Type != lexer.LPAREN {
		return nil, false, nil
	}
	pos := p.pos_()
	p.advance()
	if p.cur().Type != lexer.IDENT {
		p.restore(mark)
		return nil, false, nil
	}
	name := p.advance().Text
	if p.cur().Type != lexer.COLON {
		p.restore(mark)
		return nil, false, nil
	}
	p.advance()
	source, err := p.parseType()
	if err != nil {
		return nil, false, err
	}
	if p.cur().Type != lexer.RPAREN {
		p.restore(mark)
		return nil, false, nil
	}
	p.advance()
	if !p.atOp("->") {
		p.restore(mark)
		return nil, false, nil
	}
	p.advance()
	target, err := p.parseType()
	if err != nil {
		return nil, false, err
	}
	return &ast.DependentMapType{Var: name, Source: source, Target: target, Pos: pos}, true, nil
}

// parseNoMapType parses an application chain of type atoms, left
// associative: `A B C`.
func (p *Parser) parseNoMapType() (ast.Type, error) {
	head, err := p.parseTypeAtom()
	if err != nil {
		return nil, err
	}
	var args []ast.Type
	for p.startsTypeAtom() {
		arg, err := p.parseTypeAtom()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if len(args) == 0 {
		return head, nil
	}
	return &ast.AppType{Func: head, Args: args, Pos: head.Position()}, nil
}

func (p *Parser) startsTypeAtom() bool {
	switch p.cur().Type {
	case lexer.IDENT, lexer.LPAREN:
		return true
	}
	return false
}

func (p *Parser) parseTypeAtom() (ast.Type, error) {
	pos := p.pos_()
	switch p.cur().Type {
	case lexer.IDENT:
		name := p.advance().Text
		return &ast.AtomType{Name: name, Pos: pos}, nil
	case lexer.LPAREN:
		p.advance()
		if p.cur().Type == lexer.RPAREN {
			p.advance()
			return &ast.UnitType{Pos: pos}, nil
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return &ast.ParenType{Inner: inner, Pos: pos}, nil
	default:
		return nil, p.fatal(errors.PAR008, "expected a type atom")
	}
}
