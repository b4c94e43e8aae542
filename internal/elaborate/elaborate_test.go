package elaborate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/parser"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

func elaborate(t *testing.T, src string) (*typedast.File, *Elaborator) {
	t.Helper()
	f, err := parser.ParseFile(src, "t.fe")
	require.NoError(t, err)
	r := resolved.NewResolver()
	rf, err := r.ResolveFile(f)
	require.NoError(t, err)
	e := NewElaborator(r.Generator())
	tf, err := e.Elaborate(rf)
	require.NoError(t, err)
	return tf, e
}

func elaborateErr(t *testing.T, src string) error {
	t.Helper()
	f, err := parser.ParseFile(src, "t.fe")
	require.NoError(t, err)
	r := resolved.NewResolver()
	rf, err := r.ResolveFile(f)
	require.NoError(t, err)
	_, err = NewElaborator(r.Generator()).Elaborate(rf)
	require.Error(t, err)
	return err
}

func findProc(t *testing.T, f *typedast.File, name string) *typedast.ProcDef {
	t.Helper()
	for _, it := range f.Items {
		if p, ok := it.(*typedast.ProcDef); ok && p.Name == name {
			return p
		}
	}
	t.Fatalf("proc %q not found", name)
	return nil
}

func TestElaborateBuiltinCallFromPrelude(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, 42, 0, 0, 0, 0);
}
`
	tf, _ := elaborate(t, src)
	proc := findProc(t, tf, "main")
	require.Len(t, proc.Body, 1)
	stmt := proc.Body[0].(*typedast.ExprStmt)
	app := stmt.Value.(*typedast.App)
	assert.Equal(t, "u64", typeName(t, app.Type))
}

func TestElaborateBareLiteralAdoptsParameterType(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let a = u64_add(40, 2);
	#return a;
}
`
	tf, _ := elaborate(t, src)
	proc := findProc(t, tf, "f")
	let := proc.Body[0].(*typedast.Let)
	assert.Equal(t, "u64", typeName(t, let.Type))

	app := let.Value.(*typedast.App)
	num := app.Args[0].(*typedast.Number)
	assert.Equal(t, typedast.NumU64, num.Kind)
}

func TestElaborateSuffixedLiteralMismatchFails(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let a = u64_add(40u64, 2.0f32);
	#return a;
}
`
	err := elaborateErr(t, src)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.TYP004, rep.Code)
}

func TestElaborateLocalsCollectedInSourceOrder(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let a = 1u64;
	#let mut x &r = 2u64;
	#let b = 3u64;
	#return b;
}
`
	tf, _ := elaborate(t, src)
	proc := findProc(t, tf, "f")
	require.Len(t, proc.Locals, 4)
	assert.Equal(t, "a", proc.Locals[0].Name)
	assert.Equal(t, "x", proc.Locals[1].Name)
	assert.Equal(t, "r", proc.Locals[2].Name)
	assert.Equal(t, "b", proc.Locals[3].Name)
}

func TestElaborateLetMutRefSharesValueType(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let mut x &r = 0u64;
	r = 42u64;
	#return x;
}
`
	tf, _ := elaborate(t, src)
	proc := findProc(t, tf, "f")
	mut := proc.Body[0].(*typedast.LetMut)
	assert.Equal(t, "u64", typeName(t, mut.Type))
}

func TestElaborateAssignTypeMismatch(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let mut x &r = 0u64;
	r = 1.5f32;
	#return x;
}
`
	err := elaborateErr(t, src)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.TYP004, rep.Code)
}

func TestElaborateMatchOverInductive(t *testing.T) {
	src := `
#inductive Nat : Set {
	Zero : Nat,
	Succ : (n:Nat) -> Nat,
}
#proc f : (n:Nat) -> Nat {
	#return #match n { Zero() -> n, Succ(k) -> k };
}
`
	tf, _ := elaborate(t, src)
	proc := findProc(t, tf, "f")
	ret := proc.Body[0].(*typedast.Return)
	m := ret.Value.(*typedast.Match)
	require.Len(t, m.Arms, 2)
	// Succ's bound variable is typed from the constructor telescope.
	require.Len(t, m.Arms[1].Bound, 1)
	succArg, ok := m.Arms[1].Bound[0].Type.(cic.Constant)
	require.True(t, ok)
	ind := tf.Items[0].(*typedast.Inductive)
	assert.Equal(t, ind.Def, succArg.Def)
}

func TestElaborateMatchMissingArm(t *testing.T) {
	src := `
#inductive Nat : Set {
	Zero : Nat,
	Succ : (n:Nat) -> Nat,
}
#proc f : (n:Nat) -> Nat {
	#return #match n { Zero() -> n };
}
`
	err := elaborateErr(t, src)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.TYP012, rep.Code)
}

func TestElaborateMatchArityMismatch(t *testing.T) {
	src := `
#inductive Nat : Set {
	Zero : Nat,
	Succ : (n:Nat) -> Nat,
}
#proc f : (n:Nat) -> Nat {
	#return #match n { Zero() -> n, Succ() -> n };
}
`
	err := elaborateErr(t, src)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.TYP012, rep.Code)
}

func TestElaborateFieldAccessThroughArrayDecl(t *testing.T) {
	src := `
#array Ps {
	item: struct { x: f32, y: f32, z: f32 };
	dimension: 1;
}
#proc f : () -> u64 {
	#let ps = Ps::new_with_size(1);
	ps.x[0] = 10.0f32;
	#let a = ps.x[0];
	#let b = f32_to_u64(a);
	#return b;
}
`
	tf, _ := elaborate(t, src)
	proc := findProc(t, tf, "f")
	letA := proc.Body[2].(*typedast.Let)
	assert.Equal(t, "f32", typeName(t, letA.Type))
	letB := proc.Body[3].(*typedast.Let)
	assert.Equal(t, "u64", typeName(t, letB.Type))
}

func TestElaborateFieldAssignWrongType(t *testing.T) {
	src := `
#array Ps {
	item: struct { x: f32 };
	dimension: 1;
}
#proc f : () -> u64 {
	#let ps = Ps::new_with_size(1);
	ps.x[0] = 7u64;
	#return 0u64;
}
`
	err := elaborateErr(t, src)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.TYP004, rep.Code)
}

func TestElaborateNullaryBuiltinCall(t *testing.T) {
	src := `
#proc f : () -> u64 {
	#let i = ctaid_x();
	#return i;
}
`
	tf, _ := elaborate(t, src)
	proc := findProc(t, tf, "f")
	let := proc.Body[0].(*typedast.Let)
	assert.Equal(t, "u64", typeName(t, let.Type))
}

func TestElaborateDefinitionRegistersBodyForDelta(t *testing.T) {
	src := `
#inductive Nat : Set {
	Zero : Nat,
	Succ : (n:Nat) -> Nat,
}
#definition one : Nat := Succ Zero
`
	tf, e := elaborate(t, src)
	def := tf.Items[1].(*typedast.Definition)
	cd, ok := e.Env().Constants[def.Def]
	require.True(t, ok)
	assert.NotNil(t, cd.Ty)
	assert.NotNil(t, cd.Body)
}

func typeName(t *testing.T, term cic.Term) string {
	t.Helper()
	c, ok := term.(cic.Constant)
	require.True(t, ok, "expected a base-type constant, got %T", term)
	name, ok := BaseTypeName(c.Def)
	require.True(t, ok, "constant %v is not a base type", c.Def)
	return name
}
