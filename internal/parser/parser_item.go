package parser

import (
	"strconv"

	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/lexer"
)

// parseItem dispatches on the leading keyword to one of the recognised
// Felis items.
func (p *Parser) parseItem() (ast.Item, error) {
	pos := p.pos_()
	if p.cur().Type != lexer.KEYWORD {
		return nil, p.unexpected("expected a top-level item (#entrypoint, #use_builtin, #proc, #type, #array, #struct, #inductive, #definition, #theorem)")
	}
	switch p.cur().Text {
	case "#entrypoint":
		p.advance()
		name, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		return &ast.Entrypoint{Name: name.Text, Pos: pos}, nil

	case "#use_builtin":
		p.advance()
		local, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("="); err != nil {
			return nil, err
		}
		builtin, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		return &ast.UseBuiltin{LocalName: local.Text, BuiltinName: builtin.Text, Pos: pos}, nil

	case "#proc":
		return p.parseProcDef()

	case "#type":
		return p.parseTypeDef()

	case "#inductive":
		return p.parseInductive()

	case "#definition":
		return p.parseDefinition()

	case "#theorem":
		return p.parseTheorem()

	case "#array":
		return p.parseArrayDecl()

	case "#struct":
		return p.parseStructDecl()

	default:
		return nil, errors.WrapReport(errors.Newf(errors.PAR001, pos, "unrecognised item keyword %q", p.cur().Text))
	}
}

func (p *Parser) parseProcDef() (ast.Item, error) {
	pos := p.pos_()
	p.advance() // #proc
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, errors.WrapReport(errors.New(errors.PAR003, pos, "#proc requires a ': Type' signature"))
	}
	sig, err := p.parseType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ProcDef{Name: name.Text, Sig: sig, Body: body, Pos: pos}, nil
}

func (p *Parser) parseTypeDef() (ast.Item, error) {
	pos := p.pos_()
	p.advance() // #type
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, errors.WrapReport(errors.New(errors.PAR004, pos, "#type requires a ': sort' annotation"))
	}
	sort, err := p.parseType()
	if err != nil {
		return nil, err
	}
	ctors, err := p.parseConstructorList()
	if err != nil {
		return nil, err
	}
	return &ast.TypeDef{Name: name.Text, Sort: sort, Constructors: ctors, Pos: pos}, nil
}

func (p *Parser) parseInductive() (ast.Item, error) {
	pos := p.pos_()
	p.advance()
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	sort, err := p.parseType()
	if err != nil {
		return nil, err
	}
	ctors, err := p.parseConstructorList()
	if err != nil {
		return nil, err
	}
	return &ast.Inductive{Name: name.Text, Sort: sort, Constructors: ctors, Pos: pos}, nil
}

func (p *Parser) parseDefinition() (ast.Item, error) {
	pos := p.pos_()
	p.advance()
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(":="); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Definition{Name: name.Text, Type: ty, Body: body, Pos: pos}, nil
}

func (p *Parser) parseTheorem() (ast.Item, error) {
	pos := p.pos_()
	p.advance()
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	claim, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(":="); err != nil {
		return nil, err
	}
	proof, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Theorem{Name: name.Text, Claim: claim, Proof: proof, Pos: pos}, nil
}

func (p *Parser) parseConstructorList() ([]ast.Constructor, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var ctors []ast.Constructor
	for p.cur().Type != lexer.RBRACE {
		name, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ctors = append(ctors, ast.Constructor{Name: name.Text, Type: ty})
		if p.cur().Type == lexer.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return ctors, nil
}

func (p *Parser) parseStructDecl() (ast.Item, error) {
	pos := p.pos_()
	p.advance() // #struct
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	fields, err := p.parseStructFields()
	if err != nil {
		return nil, err
	}
	return &ast.StructDecl{Name: name.Text, Fields: fields, Pos: pos}, nil
}

func (p *Parser) parseStructFields() ([]ast.StructField, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var fields []ast.StructField
	for p.cur().Type != lexer.RBRACE {
		name, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructField{Name: name.Text, Type: ty})
		if p.cur().Type == lexer.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return fields, nil
}

// parseArrayDecl parses `#array Name { item: struct{...}; dimension: N; }`.
func (p *Parser) parseArrayDecl() (ast.Item, error) {
	pos := p.pos_()
	p.advance() // #array
	name, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	arr := &ast.ArrayDecl{Name: name.Text, Pos: pos}
	for p.cur().Type != lexer.RBRACE {
		key, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		switch key.Text {
		case "item":
			// The element literal reads `struct { ... }`; inside an
			// #array body the word carries no # prefix.
			if p.cur().Type != lexer.IDENT || p.cur().Text != "struct" {
				return nil, errors.WrapReport(errors.New(errors.PAR005, p.pos_(), "#array 'item' must be a struct literal"))
			}
			p.advance()
			fields, err := p.parseStructFields()
			if err != nil {
				return nil, err
			}
			arr.Item = &ast.StructDecl{Name: name.Text + "$item", Fields: fields, Pos: pos}
		case "dimension":
			n, err := p.expect(lexer.INT)
			if err != nil {
				return nil, err
			}
			v, err := strconv.Atoi(n.Text)
			if err != nil {
				return nil, errors.WrapReport(errors.Newf(errors.PAR005, p.pos_(), "invalid dimension %q", n.Text))
			}
			arr.Dimension = v
		default:
			return nil, errors.WrapReport(errors.Newf(errors.PAR005, p.pos_(), "unknown #array field %q", key.Text))
		}
		if p.cur().Type == lexer.SEMI {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if arr.Item == nil {
		return nil, errors.WrapReport(errors.New(errors.PAR005, pos, "#array requires an 'item' struct"))
	}
	return arr, nil
}
