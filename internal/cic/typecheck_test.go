package cic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/felis/internal/defid"
)

// buildNat registers the Nat inductive (Zero : Nat, Succ : Nat -> Nat)
// in a fresh environment and returns its and its constructors' ids.
func buildNat(gen *defid.Generator) (*GlobalEnv, defid.ID, defid.ID, defid.ID) {
	env := NewGlobalEnv()
	natID := gen.Fresh()
	zeroID := gen.Fresh()
	succID := gen.Fresh()
	succArg := gen.Fresh()

	natConst := Constant{Def: natID}
	ind := &InductiveDef{
		Def:  natID,
		Sort: Sort{Kind: SetSort},
		Constructors: []ConstructorDef{
			{Def: zeroID, Ty: natConst, Arity: 0},
			{Def: succID, Ty: Product{Var: succArg, Source: natConst, Target: natConst}, Arity: 1},
		},
	}
	env.AddInductive(ind)
	return env, natID, zeroID, succID
}

func TestSortRuleTable(t *testing.T) {
	prop := Sort{Kind: Prop}
	set := Sort{Kind: SetSort}
	type0 := Sort{Kind: TypeU, Level: 0}
	type1 := Sort{Kind: TypeU, Level: 1}

	assert.Equal(t, prop, SortRule(set, prop))
	assert.Equal(t, prop, SortRule(type0, prop))
	assert.Equal(t, set, SortRule(prop, set))
	assert.Equal(t, type0, SortRule(prop, type0))
	assert.Equal(t, type0, SortRule(set, type0))
	assert.Equal(t, type1, SortRule(type1, type0))
	assert.Equal(t, type1, SortRule(type0, type1))
}

func TestReductionIdempotent(t *testing.T) {
	gen := defid.NewGenerator()
	env, natID, zeroID, _ := buildNat(gen)
	_ = natID

	t1 := Normalize(env, Constant{Def: zeroID})
	t2 := Normalize(env, t1)
	assert.True(t, Equal(t1, t2))
}

func TestBetaReduction(t *testing.T) {
	gen := defid.NewGenerator()
	env := NewGlobalEnv()
	x := gen.Fresh()
	lam := Lambda{Var: x, SourceTy: Sort{Kind: SetSort}, Body: Variable{Def: x}}
	app := Application{Func: lam, Args: []Term{Sort{Kind: Prop}}}

	result := WHNF(env, app)
	assert.Equal(t, Sort{Kind: Prop}, result)
}

func TestDeltaReduction(t *testing.T) {
	gen := defid.NewGenerator()
	env := NewGlobalEnv()
	c := gen.Fresh()
	env.AddConstant(c, &ConstantDef{Ty: Sort{Kind: SetSort}, Body: Sort{Kind: Prop}})

	result := WHNF(env, Constant{Def: c})
	assert.Equal(t, Sort{Kind: Prop}, result)
}

func TestIotaReductionPicksMatchingBranch(t *testing.T) {
	gen := defid.NewGenerator()
	env, natID, zeroID, succID := buildNat(gen)
	natConst := Constant{Def: natID}

	k := gen.Fresh()
	m := Match{
		Scrutinee:  Constant{Def: zeroID},
		ReturnType: natConst,
		Branches: []Branch{
			{Constructor: zeroID, Bound: nil, Body: Constant{Def: zeroID}},
			{Constructor: succID, Bound: []defid.ID{k}, Body: Variable{Def: k}},
		},
	}
	result := WHNF(env, m)
	assert.Equal(t, Constant{Def: zeroID}, result)
}

func TestInferSort(t *testing.T) {
	env := NewGlobalEnv()
	tc := NewTypeChecker(env)
	ctx := NewContext()

	ty, err := tc.Infer(ctx, Sort{Kind: Prop})
	require.NoError(t, err)
	assert.Equal(t, Sort{Kind: TypeU, Level: 0}, ty)

	ty, err = tc.Infer(ctx, Sort{Kind: TypeU, Level: 3})
	require.NoError(t, err)
	assert.Equal(t, Sort{Kind: TypeU, Level: 4}, ty)
}

func TestInferUnboundVariable(t *testing.T) {
	gen := defid.NewGenerator()
	env := NewGlobalEnv()
	tc := NewTypeChecker(env)
	ctx := NewContext()

	_, err := tc.Infer(ctx, Variable{Def: gen.Fresh()})
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, UnboundVariable, te.Kind)
}

func TestInferProductAndLambda(t *testing.T) {
	gen := defid.NewGenerator()
	env := NewGlobalEnv()
	tc := NewTypeChecker(env)
	ctx := NewContext()

	x := gen.Fresh()
	prod := Product{Var: x, Source: Sort{Kind: SetSort}, Target: Sort{Kind: SetSort}}
	ty, err := tc.Infer(ctx, prod)
	require.NoError(t, err)
	// Set : Type(0) on both sides, so SortRule(Type(0), Type(0)) = Type(0).
	assert.Equal(t, Sort{Kind: TypeU, Level: 0}, ty)

	lam := Lambda{Var: x, SourceTy: Sort{Kind: SetSort}, Body: Variable{Def: x}}
	lamTy, err := tc.Infer(ctx, lam)
	require.NoError(t, err)
	asProd, ok := lamTy.(Product)
	require.True(t, ok)
	assert.Equal(t, x, asProd.Var)
}

func TestInferApplicationSubstitutesResult(t *testing.T) {
	gen := defid.NewGenerator()
	env, natID, zeroID, succID := buildNat(gen)
	natConst := Constant{Def: natID}

	succTy, err := NewTypeChecker(env).Infer(NewContext(), Constant{Def: succID})
	require.NoError(t, err)
	assert.Equal(t, Product{Var: succTy.(Product).Var, Source: natConst, Target: natConst}, succTy)

	app := Application{Func: Constant{Def: succID}, Args: []Term{Constant{Def: zeroID}}}
	resultTy, err := NewTypeChecker(env).Infer(NewContext(), app)
	require.NoError(t, err)
	assert.True(t, Equal(natConst, resultTy))
}

func TestInferApplicationNotAFunction(t *testing.T) {
	gen := defid.NewGenerator()
	env, _, zeroID, _ := buildNat(gen)
	tc := NewTypeChecker(env)

	app := Application{Func: Constant{Def: zeroID}, Args: []Term{Constant{Def: zeroID}}}
	_, err := tc.Infer(NewContext(), app)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, NotAFunction, te.Kind)
}

func TestInferMatchRequiresMatchingArity(t *testing.T) {
	gen := defid.NewGenerator()
	env, natID, zeroID, succID := buildNat(gen)
	natConst := Constant{Def: natID}
	tc := NewTypeChecker(env)

	m := Match{
		Scrutinee:  Constant{Def: zeroID},
		ReturnType: natConst,
		Branches: []Branch{
			{Constructor: zeroID, Bound: nil, Body: Constant{Def: zeroID}},
			{Constructor: succID, Bound: nil, Body: Constant{Def: zeroID}}, // wrong arity
		},
	}
	_, err := tc.Infer(NewContext(), m)
	require.Error(t, err)
	var te *TypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, InvalidCase, te.Kind)
}

func TestInferMatchTypechecksEachBranch(t *testing.T) {
	gen := defid.NewGenerator()
	env, natID, zeroID, succID := buildNat(gen)
	natConst := Constant{Def: natID}
	tc := NewTypeChecker(env)

	k := gen.Fresh()
	m := Match{
		Scrutinee:  Constant{Def: zeroID},
		ReturnType: natConst,
		Branches: []Branch{
			{Constructor: zeroID, Bound: nil, Body: Constant{Def: zeroID}},
			{Constructor: succID, Bound: []defid.ID{k}, Body: Variable{Def: k}},
		},
	}
	ty, err := tc.Infer(NewContext(), m)
	require.NoError(t, err)
	assert.True(t, Equal(natConst, ty))
}

func TestIsConvertibleUpToReduction(t *testing.T) {
	gen := defid.NewGenerator()
	env := NewGlobalEnv()
	x := gen.Fresh()
	lam := Lambda{Var: x, SourceTy: Sort{Kind: SetSort}, Body: Variable{Def: x}}
	app := Application{Func: lam, Args: []Term{Sort{Kind: Prop}}}

	assert.True(t, IsConvertible(env, app, Sort{Kind: Prop}))
}

func TestSubstitutionDoesNotRenameBinders(t *testing.T) {
	gen := defid.NewGenerator()
	x := gen.Fresh()
	y := gen.Fresh()

	// (\y:Set. x) [x := y]: Apply never freshens a binder, because it
	// relies on every binder's DefId being globally unique. The binder
	// y is not a key of the substitution, so Apply keeps the binder's
	// id and rewrites the body's x to Variable{y} unchanged.
	lam := Lambda{Var: y, SourceTy: Sort{Kind: SetSort}, Body: Variable{Def: x}}
	result := Apply(lam, Single(x, Variable{Def: y}))
	asLam, ok := result.(Lambda)
	require.True(t, ok)
	assert.Equal(t, y, asLam.Var)
	body, ok := asLam.Body.(Variable)
	require.True(t, ok)
	assert.Equal(t, y, body.Def)
}
