// Package parser implements the recursive-descent Felis parser.
//
// Nonterminals are methods `parseX() (ast.X, error)`; a non-nil error
// is fatal and already past the point of no return (no backtracking on
// error). The one backtracking nonterminal, tryDependentMap, returns
// `(ast.Type, bool, error)` where (nil, false, nil) means "did not match
// here, cursor restored, try an alternative".
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/lexer"
)

// Parser walks a fixed token vector with an explicit cursor, so any
// nonterminal can snapshot and restore position to implement backtracking.
type Parser struct {
	toks []lexer.Token
	pos  int
	file string
}

// New constructs a Parser over an already-lexed token stream.
func New(toks []lexer.Token, file string) *Parser {
	return &Parser{toks: toks, pos: 0, file: file}
}

// ParseFile parses a complete source file: a sequence of items.
func ParseFile(src, filename string) (*ast.File, error) {
	normalized := lexer.Normalize([]byte(src))
	toks, err := lexer.Tokenize(string(normalized), filename)
	if err != nil {
		var le *lexer.LexError
		if asLexError(err, &le) {
			code := errors.LEX001
			if strings.HasPrefix(le.Msg, "unterminated string") {
				code = errors.LEX002
			}
			return nil, errors.WrapReport(errors.New(code, ast.Pos{File: le.File, Line: le.Line, Column: le.Column}, le.Msg))
		}
		return nil, err
	}
	p := New(toks, filename)
	return p.parseFile()
}

func asLexError(err error, target **lexer.LexError) bool {
	le, ok := err.(*lexer.LexError)
	if ok {
		*target = le
	}
	return ok
}

func (p *Parser) save() int        { return p.pos }
func (p *Parser) restore(mark int) { p.pos = mark }

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) pos_() ast.Pos {
	c := p.cur()
	return ast.Pos{File: c.File, Line: c.Line, Column: c.Column}
}

// atKeyword reports whether the current token is the keyword "#name".
func (p *Parser) atKeyword(name string) bool {
	t := p.cur()
	return t.Type == lexer.KEYWORD && t.Text == "#"+name
}

func (p *Parser) atOp(text string) bool {
	t := p.cur()
	return t.Type == lexer.OP && t.Text == text
}

// expect consumes a token of the given type or returns a fatal error:
// PAR002 when the expected token is a closing delimiter, PAR001
// otherwise.
func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.cur().Type != tt {
		if tt == lexer.RPAREN || tt == lexer.RBRACKET || tt == lexer.RBRACE {
			return lexer.Token{}, p.fatal(errors.PAR002, fmt.Sprintf("expected %s, found %s %q", tt, p.cur().Type, p.cur().Text))
		}
		return lexer.Token{}, p.unexpected(fmt.Sprintf("expected %s", tt))
	}
	return p.advance(), nil
}

func (p *Parser) expectOp(text string) error {
	if !p.atOp(text) {
		return p.unexpected(fmt.Sprintf("expected operator %q", text))
	}
	p.advance()
	return nil
}

func (p *Parser) expectKeyword(name string) error {
	if !p.atKeyword(name) {
		return p.unexpected(fmt.Sprintf("expected keyword #%s", name))
	}
	p.advance()
	return nil
}

func (p *Parser) unexpected(msg string) error {
	return errors.WrapReport(errors.Newf(errors.PAR001, p.pos_(), "%s, found %s %q", msg, p.cur().Type, p.cur().Text))
}

func (p *Parser) fatal(code, msg string) error {
	return errors.WrapReport(errors.New(code, p.pos_(), msg))
}

// parseFile parses the whole Item* grammar until EOF.
func (p *Parser) parseFile() (*ast.File, error) {
	pos := p.pos_()
	f := &ast.File{Pos: pos}
	for p.cur().Type != lexer.EOF {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		f.Items = append(f.Items, item)
	}
	return f, nil
}

func parseIntSuffix(text string) (value int64, typeSuffix string, err error) {
	digits := text
	for _, suf := range []string{"u64", "i64", "u32", "i32", "u16", "i16", "u8", "i8"} {
		if strings.HasSuffix(text, suf) {
			digits = strings.TrimSuffix(text, suf)
			typeSuffix = suf
			break
		}
	}
	digits = strings.ReplaceAll(digits, "_", "")
	v, e := strconv.ParseInt(digits, 10, 64)
	return v, typeSuffix, e
}
