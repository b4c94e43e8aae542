package repl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drive(t *testing.T, inputs ...string) string {
	t.Helper()
	var buf bytes.Buffer
	r := New(&buf)
	for _, in := range inputs {
		r.Handle(in)
	}
	return buf.String()
}

func TestHandleProcEchoesSignature(t *testing.T) {
	out := drive(t, `#proc f : (x:u64) -> u64 {
	#return x;
}`)
	assert.Contains(t, out, "proc")
	assert.Contains(t, out, "f")
	assert.Contains(t, out, "(x:u64) -> u64")
}

func TestHandleInductiveThenTypeQuery(t *testing.T) {
	out := drive(t,
		`#inductive Nat : Set {
	Zero : Nat,
	Succ : (n:Nat) -> Nat,
}`,
		":type Succ")
	assert.Contains(t, out, "inductive")
	assert.Contains(t, out, "2 constructors")
	assert.Contains(t, out, "Succ : ")
	assert.Contains(t, out, "-> Nat")
}

func TestHandleNormalizeUnfoldsDefinition(t *testing.T) {
	out := drive(t,
		`#inductive Nat : Set {
	Zero : Nat,
	Succ : (n:Nat) -> Nat,
}`,
		`#definition one : Nat := Succ Zero`,
		":normalize one")
	assert.Contains(t, out, "one = ")
	assert.Contains(t, out, "Succ")
	assert.Contains(t, out, "Zero")
}

func TestHandleBadInputKeepsSession(t *testing.T) {
	out := drive(t,
		`#proc f : () -> u64 { #return 0u64; }`,
		`#proc f : () -> u64 { #return 1u64; }`, // duplicate: rejected
		":items")
	assert.Contains(t, out, "Error")
	// The first definition is still listed; the rejected one is not.
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("#proc f")))
}

func TestHandleUnknownCommand(t *testing.T) {
	out := drive(t, ":bogus")
	assert.Contains(t, out, "unknown command")
}

func TestHandleQuitStopsLoop(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	assert.False(t, r.Handle(":quit"))
	assert.Contains(t, buf.String(), "bye")
}

func TestHandleResetClears(t *testing.T) {
	out := drive(t,
		`#proc f : () -> u64 { #return 0u64; }`,
		":reset",
		":items")
	assert.Contains(t, out, "cleared")
	assert.Contains(t, out, "(empty)")
}

func TestBraceDepth(t *testing.T) {
	require.Equal(t, 1, braceDepth("#proc f : () -> () {"))
	require.Equal(t, 0, braceDepth("#proc f : () -> () { }"))
	require.Equal(t, -1, braceDepth("}"))
	require.Equal(t, 0, braceDepth(`"{"`))
}
