package resolved

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/parser"
)

func mustResolve(t *testing.T, src string) *File {
	t.Helper()
	f, err := parser.ParseFile(src, "t.fe")
	require.NoError(t, err)
	rf, err := NewResolver().ResolveFile(f)
	require.NoError(t, err)
	return rf
}

func TestResolveProcParamsAndLocals(t *testing.T) {
	src := `
#proc f : (x:u64) -> u64 {
	#let y = x;
	#return y;
}
`
	rf := mustResolve(t, src)
	proc := rf.Items[0].(*ProcDef)
	require.Len(t, proc.Params, 1)
	assert.NotZero(t, proc.Params[0].Def)

	let := proc.Body[0].(*Let)
	assert.NotZero(t, let.Def)

	ret := proc.Body[1].(*Return)
	v := ret.Value.(*Var)
	assert.Equal(t, let.Def, v.Ref.Def)
}

func TestResolveLetMutBindsTwoNames(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let mut x &r = 0u64;
	r = 1u64;
	#return x;
}
`
	rf := mustResolve(t, src)
	proc := rf.Items[0].(*ProcDef)
	mut := proc.Body[0].(*LetMut)
	assign := proc.Body[1].(*Assign)
	assert.Equal(t, mut.RefDef, assign.Target.Def)

	ret := proc.Body[2].(*Return)
	assert.Equal(t, mut.ValueDef, ret.Value.(*Var).Ref.Def)
}

func TestResolveUnknownNameIsRES001(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#return nope;
}
`
	file, err := parser.ParseFile(src, "t.fe")
	require.NoError(t, err)
	_, err = NewResolver().ResolveFile(file)
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.RES001, rep.Code)
}

func TestResolveDuplicateTopLevelIsRES002(t *testing.T) {
	src := `
#proc f : () -> u64 { #return 0u64; }
#proc f : () -> u64 { #return 1u64; }
`
	file, err := parser.ParseFile(src, "t.fe")
	require.NoError(t, err)
	_, err = NewResolver().ResolveFile(file)
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.RES002, rep.Code)
}

func TestResolveConstructorPathTable(t *testing.T) {
	src := `
#inductive Nat : Set {
	Zero : Nat,
	Succ : (n:Nat) -> Nat,
}
#proc f : (n:Nat) -> Nat {
	#return #match n { Zero() -> n, Succ(k) -> k };
}
`
	rf := mustResolve(t, src)
	ind := rf.Items[0].(*Inductive)
	require.Len(t, ind.Constructors, 2)
	assert.NotZero(t, ind.Constructors[0].Def)
	assert.NotZero(t, rf.Paths.ByBare["Zero"])
	assert.Equal(t, ind.Def, rf.Paths.OwnerOf[ind.Constructors[0].Def])

	proc := rf.Items[1].(*ProcDef)
	ret := proc.Body[0].(*Return)
	m := ret.Value.(*Match)
	require.Len(t, m.Arms, 2)
	assert.Equal(t, ind.Constructors[0].Def, m.Arms[0].ConstructorDef)
}

func TestResolveEntrypointForwardReference(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#return 0u64;
}
`
	rf := mustResolve(t, src)
	ep := rf.Items[0].(*Entrypoint)
	proc := rf.Items[1].(*ProcDef)
	assert.Equal(t, proc.Def, ep.Target.Def)
}
