// Package lexer turns Felis source text into a token stream.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LexError is a fatal lex-time error: an unclassified character or an
// unterminated string. There is no recovery.
type LexError struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// Lexer performs a single forward pass over the input.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           rune
	line         int
	column       int
	file         string
}

// New constructs a Lexer. Callers should run Normalize over raw source
// bytes before handing the string to New (BOM strip + NFC, see
// normalize.go), so that lexically equivalent encodings tokenize
// identically.
func New(input, filename string) *Lexer {
	l := &Lexer{input: input, file: filename, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		// EOF sits one column past the last character, so its position
		// still follows that character's token.
		if l.ch != 0 {
			l.column++
		}
		l.ch = 0
		l.position = l.readPosition
		return
	}
	ch, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.position = l.readPosition
	l.readPosition += size
	l.ch = ch
	l.column++
	if ch == '\n' {
		l.line++
		l.column = 0
	}
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return ch
}

// Tokenize runs the lexer to completion and returns the full token vector,
// ending with a single EOF token.
func Tokenize(input, filename string) ([]Token, error) {
	l := New(input, filename)
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

// isIdentCont extends over the dotted-identifier charset: letters, digits,
// underscore, and '.'.
func isIdentCont(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '.'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// isNumberCont extends over digits, '.', '_' (grouping), and the
// alphanumeric type suffix (u64, i32, f32, ...) captured into the same
// token.
func isNumberCont(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '.' || ch == '_'
}

var opChars = "+-*/%=<>!&|^~"

func isOpChar(ch rune) bool {
	return strings.ContainsRune(opChars, ch)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) next() (Token, error) {
	l.skipWhitespaceAndComments()

	line, col := l.line, l.column
	mk := func(tt TokenType, text string) Token {
		return Token{Type: tt, Text: text, File: l.file, Line: line, Column: col}
	}

	switch {
	case l.ch == 0:
		return mk(EOF, ""), nil

	case l.ch == '#':
		start := l.position
		l.readChar()
		for isIdentCont(l.ch) && l.ch != '.' {
			l.readChar()
		}
		return mk(KEYWORD, l.input[start:l.position]), nil

	case l.ch == '"':
		return l.readString()

	case isDigit(l.ch):
		return l.readNumber(mk)

	case isIdentStart(l.ch):
		start := l.position
		for isIdentCont(l.ch) {
			// A '.' extends the identifier only when another segment
			// follows; otherwise it belongs to a trailing `.*`
			// dereference (or is stray) and the identifier ends here.
			if l.ch == '.' && !isIdentStart(l.peekChar()) && !isDigit(l.peekChar()) {
				break
			}
			l.readChar()
		}
		return mk(IDENT, l.input[start:l.position]), nil

	case l.ch == ':':
		if l.peekChar() == ':' {
			l.readChar()
			l.readChar()
			return mk(DCOLON, "::"), nil
		}
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return mk(OP, ":="), nil
		}
		l.readChar()
		return mk(COLON, ":"), nil

	case l.ch == '.' && l.peekChar() == '*':
		// Dereference suffix `e.*`; a bare '.' never opens
		// an identifier (isIdentStart excludes it), so this is unambiguous.
		l.readChar()
		l.readChar()
		return mk(OP, ".*"), nil

	case l.ch == '(' || l.ch == ')' || l.ch == '[' || l.ch == ']' || l.ch == '{' || l.ch == '}' || l.ch == ',' || l.ch == ';':
		tt := singleCharPunct[l.ch]
		text := string(l.ch)
		l.readChar()
		return mk(tt, text), nil

	case isOpChar(l.ch):
		start := l.position
		for isOpChar(l.ch) {
			l.readChar()
		}
		return mk(OP, l.input[start:l.position]), nil

	default:
		return Token{}, &LexError{File: l.file, Line: line, Column: col,
			Msg: fmt.Sprintf("unclassified character %q", l.ch)}
	}
}

func (l *Lexer) readNumber(mk func(TokenType, string) Token) (Token, error) {
	start := l.position
	isFloat := false
	for isNumberCont(l.ch) {
		if l.ch == '.' {
			// A '.' only continues the number if followed by a digit;
			// otherwise it belongs to a following dotted identifier/member
			// access and the number ends here (e.g. "1.foo" is not valid
			// Felis but we must not swallow an unrelated dot-identifier).
			if !isDigit(l.peekChar()) {
				break
			}
			isFloat = true
		}
		l.readChar()
	}
	text := l.input[start:l.position]
	tt := INT
	if isFloat || strings.Contains(text, "f32") || strings.Contains(text, "f64") {
		tt = FLOAT
	}
	return mk(tt, text), nil
}

func (l *Lexer) readString() (Token, error) {
	startLine, startCol := l.line, l.column
	l.readChar() // consume opening quote
	var sb strings.Builder
	for {
		if l.ch == 0 {
			return Token{}, &LexError{File: l.file, Line: startLine, Column: startCol,
				Msg: "unterminated string literal"}
		}
		if l.ch == '"' {
			l.readChar()
			break
		}
		if l.ch == '\\' {
			// Escapes are preserved verbatim: the backend emits the raw
			// text straight into .asciz, so we copy
			// the backslash and the following character without
			// interpreting it.
			sb.WriteRune(l.ch)
			l.readChar()
			if l.ch == 0 {
				return Token{}, &LexError{File: l.file, Line: startLine, Column: startCol,
					Msg: "unterminated string literal"}
			}
			sb.WriteRune(l.ch)
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	return Token{Type: STRING, Text: sb.String(), File: l.file, Line: startLine, Column: startCol}, nil
}
