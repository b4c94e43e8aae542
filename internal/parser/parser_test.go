package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/errors"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, err := ParseFile(src, "t.fe")
	require.NoError(t, err)
	return f
}

func TestParseEntrypointAndProc(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, 42, 0, 0, 0, 0);
}
`
	f := parse(t, src)
	require.Len(t, f.Items, 2)
	ep, ok := f.Items[0].(*ast.Entrypoint)
	require.True(t, ok)
	assert.Equal(t, "main", ep.Name)

	proc, ok := f.Items[1].(*ast.ProcDef)
	require.True(t, ok)
	assert.Equal(t, "main", proc.Name)
	require.Len(t, proc.Body, 1)
}

func TestParseLetAndLetMut(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let a = u64_add(40, 2);
	#let mut x &r = 0u64;
	r = 42u64;
	#return x;
}
`
	f := parse(t, src)
	proc := f.Items[0].(*ast.ProcDef)
	require.Len(t, proc.Body, 4)
	let, ok := proc.Body[0].(*ast.Let)
	require.True(t, ok)
	assert.Equal(t, "a", let.Name)

	mut, ok := proc.Body[1].(*ast.LetMut)
	require.True(t, ok)
	assert.Equal(t, "x", mut.Name)
	assert.Equal(t, "r", mut.RefName)

	assign, ok := proc.Body[2].(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "r", assign.Name)

	ret, ok := proc.Body[3].(*ast.Return)
	require.True(t, ok)
	assert.NotNil(t, ret.Value)
}

func TestParseIfStatementAndExpression(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let mut ec &r = 1u64;
	#if u64_eq(0, 0) {
		r = 42u64;
	} #else {
		r = 1u64;
	};
	#return ec;
}
`
	f := parse(t, src)
	proc := f.Items[0].(*ast.ProcDef)
	ifStmt, ok := proc.Body[1].(*ast.IfStmt)
	require.True(t, ok)
	assert.NotNil(t, ifStmt.Else)
}

func TestParseLoopBreak(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#loop {
		#break;
	}
	#return 0u64;
}
`
	f := parse(t, src)
	proc := f.Items[0].(*ast.ProcDef)
	loop, ok := proc.Body[0].(*ast.Loop)
	require.True(t, ok)
	require.Len(t, loop.Body, 1)
	_, ok = loop.Body[0].(*ast.Break)
	assert.True(t, ok)
}

func TestParseArrayDeclAndFieldAccess(t *testing.T) {
	src := `
#array Ps {
	item: struct { x: f32, y: f32, z: f32 };
	dimension: 1;
}
#proc f : () -> u64 {
	#let ps = Ps::new_with_size(1);
	ps.x[0] = 10.0f32;
	#return 0u64;
}
`
	f := parse(t, src)
	arr, ok := f.Items[0].(*ast.ArrayDecl)
	require.True(t, ok)
	assert.Equal(t, 1, arr.Dimension)
	require.Len(t, arr.Item.Fields, 3)

	proc := f.Items[1].(*ast.ProcDef)
	letStmt := proc.Body[0].(*ast.Let)
	ctor, ok := letStmt.Value.(*ast.ConstructorCall)
	require.True(t, ok)
	assert.True(t, ctor.IsNewWithSize())

	fa, ok := proc.Body[1].(*ast.FieldAssign)
	require.True(t, ok)
	assert.Equal(t, "x", fa.Field)
}

func TestParseMatchExpression(t *testing.T) {
	src := `
#definition f : Nat := #match n { Zero() -> zero, Succ(k) -> k }
`
	f := parse(t, src)
	def := f.Items[0].(*ast.Definition)
	m, ok := def.Body.(*ast.Match)
	require.True(t, ok)
	require.Len(t, m.Arms, 2)
	assert.Equal(t, "Succ", m.Arms[1].Constructor)
	assert.Equal(t, []string{"k"}, m.Arms[1].BoundNames)
}

func TestParseDependentFunctionType(t *testing.T) {
	src := `#definition id : (x:Set) -> Set := x`
	f := parse(t, src)
	def := f.Items[0].(*ast.Definition)
	dm, ok := def.Type.(*ast.DependentMapType)
	require.True(t, ok)
	assert.Equal(t, "x", dm.Var)
}

func TestParseDereference(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let mut x &r = 0u64;
	#let y = r.*;
	#return y;
}
`
	f := parse(t, src)
	proc := f.Items[0].(*ast.ProcDef)
	let := proc.Body[1].(*ast.Let)
	_, ok := let.Value.(*ast.Dereference)
	assert.True(t, ok)
}

func TestParseErrorHasStructuredCode(t *testing.T) {
	_, err := ParseFile("#proc", "t.fe")
	require.Error(t, err)
	_, ok := errors.AsReport(err)
	assert.True(t, ok)
}
