package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	out, err := Tokenize(src, "t.fe")
	require.NoError(t, err)
	return out
}

func TestKeywordAndIdent(t *testing.T) {
	out := toks(t, "#proc main points.x")
	require.Len(t, out, 4) // #proc, main, points.x, EOF
	assert.Equal(t, KEYWORD, out[0].Type)
	assert.Equal(t, "#proc", out[0].Text)
	assert.Equal(t, IDENT, out[1].Type)
	assert.Equal(t, IDENT, out[2].Type)
	assert.Equal(t, "points.x", out[2].Text)
	assert.Equal(t, EOF, out[3].Type)
}

func TestNumberSuffix(t *testing.T) {
	out := toks(t, "42u64 3.14f32")
	assert.Equal(t, INT, out[0].Type)
	assert.Equal(t, "42u64", out[0].Text)
	assert.Equal(t, FLOAT, out[1].Type)
	assert.Equal(t, "3.14f32", out[1].Text)
}

func TestStringEscapesPreservedVerbatim(t *testing.T) {
	out := toks(t, `"a\nb"`)
	require.Equal(t, STRING, out[0].Type)
	assert.Equal(t, `a\nb`, out[0].Text)
}

func TestPunctuationAndDoubleColon(t *testing.T) {
	out := toks(t, "T::new_with_size(1)")
	assert.Equal(t, IDENT, out[0].Type)
	assert.Equal(t, DCOLON, out[1].Type)
	assert.Equal(t, IDENT, out[2].Type)
	assert.Equal(t, LPAREN, out[3].Type)
	assert.Equal(t, INT, out[4].Type)
	assert.Equal(t, RPAREN, out[5].Type)
}

func TestOperatorCoalescing(t *testing.T) {
	out := toks(t, "a <= b")
	assert.Equal(t, OP, out[1].Type)
	assert.Equal(t, "<=", out[1].Text)
}

func TestPositionsStrictlyMonotone(t *testing.T) {
	out := toks(t, "#let x = 1;\n#let y = 2;")
	var last = -1
	for _, tok := range out {
		line := tok.Line*100000 + tok.Column
		assert.Greater(t, line, last)
		last = line
	}
}

func TestUnterminatedStringIsFatal(t *testing.T) {
	_, err := Tokenize(`"abc`, "t.fe")
	require.Error(t, err)
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
}

func TestUnclassifiedCharIsFatal(t *testing.T) {
	_, err := Tokenize("\x01", "t.fe")
	require.Error(t, err)
}

func TestLineCommentSkipped(t *testing.T) {
	out := toks(t, "#let x = 1; // trailing comment\n")
	assert.Equal(t, KEYWORD, out[0].Type)
}

func TestDereferenceSuffix(t *testing.T) {
	out := toks(t, "r.*")
	assert.Equal(t, IDENT, out[0].Type)
	assert.Equal(t, OP, out[1].Type)
	assert.Equal(t, ".*", out[1].Text)
}

func TestNoTokenHasEmptyTextExceptEOF(t *testing.T) {
	out := toks(t, "#proc f(x:u64)->u64{x}")
	for _, tok := range out {
		if tok.Type == EOF {
			continue
		}
		assert.NotEmpty(t, tok.Text)
	}
}
