package cic

// TypeChecker implements the typing judgement Γ ⊢ t : T.
type TypeChecker struct {
	Env *GlobalEnv
}

func NewTypeChecker(env *GlobalEnv) *TypeChecker {
	return &TypeChecker{Env: env}
}

// Infer computes the type of t under ctx, or returns the first
// applicable *TypeError.
func (tc *TypeChecker) Infer(ctx *Context, t Term) (Term, error) {
	switch n := t.(type) {
	case Sort:
		return tc.inferSort(n)
	case Variable:
		return tc.inferVariable(ctx, n)
	case Constant:
		return tc.inferConstant(n)
	case Product:
		return tc.inferProduct(ctx, n)
	case Lambda:
		return tc.inferLambda(ctx, n)
	case Application:
		return tc.inferApplication(ctx, n)
	case LetIn:
		return tc.inferLetIn(ctx, n)
	case Match:
		return tc.inferMatch(ctx, n)
	}
	return nil, newErr(NotAType, "unrecognised term kind")
}

func (tc *TypeChecker) inferSort(s Sort) (Term, error) {
	switch s.Kind {
	case Prop, SetSort:
		return Sort{Kind: TypeU, Level: 0}, nil
	case TypeU:
		return Sort{Kind: TypeU, Level: s.Level + 1}, nil
	}
	return nil, newErr(NotAType, "malformed sort")
}

func (tc *TypeChecker) inferVariable(ctx *Context, v Variable) (Term, error) {
	ty, ok := ctx.Lookup(v.Def)
	if !ok {
		return nil, newErr(UnboundVariable, "variable %s has no binding in scope", v.Def)
	}
	return ty, nil
}

func (tc *TypeChecker) inferConstant(c Constant) (Term, error) {
	if def, ok := tc.Env.Constants[c.Def]; ok {
		return def.Ty, nil
	}
	if ind, ok := tc.Env.Inductives[c.Def]; ok {
		return ind.Sort, nil
	}
	if ctor, _, ok := tc.Env.Constructor(c.Def); ok {
		return ctor.Ty, nil
	}
	return nil, newErr(UnboundConstant, "constant %s has no binding in the global environment", c.Def)
}

// asSort reduces t to WHNF and requires it to be a Sort.
func (tc *TypeChecker) asSort(t Term) (Sort, error) {
	w := WHNF(tc.Env, t)
	s, ok := w.(Sort)
	if !ok {
		return Sort{}, newErr(NotAType, "expected a sort, found a non-sort term")
	}
	return s, nil
}

func (tc *TypeChecker) inferProduct(ctx *Context, p Product) (Term, error) {
	srcTy, err := tc.Infer(ctx, p.Source)
	if err != nil {
		return nil, err
	}
	s1, err := tc.asSort(srcTy)
	if err != nil {
		return nil, newErr(InvalidProductSort, "product source is not a type: %v", err)
	}
	inner := ctx.Extend(p.Var, p.Source)
	tgtTy, err := tc.Infer(inner, p.Target)
	if err != nil {
		return nil, err
	}
	s2, err := tc.asSort(tgtTy)
	if err != nil {
		return nil, newErr(InvalidProductSort, "product target is not a type: %v", err)
	}
	return SortRule(s1, s2), nil
}

func (tc *TypeChecker) inferLambda(ctx *Context, l Lambda) (Term, error) {
	if _, err := tc.asSort(mustInfer(tc, ctx, l.SourceTy)); err != nil {
		return nil, newErr(NotAType, "lambda parameter type is not a type: %v", err)
	}
	inner := ctx.Extend(l.Var, l.SourceTy)
	bodyTy, err := tc.Infer(inner, l.Body)
	if err != nil {
		return nil, err
	}
	result := Product{Var: l.Var, Source: l.SourceTy, Target: bodyTy}
	if _, err := tc.Infer(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// mustInfer infers t's type, returning a non-sort placeholder on
// error so asSort reports a stable NotAType rather than panicking; the
// real error is surfaced by the caller checking asSort's own error.
func mustInfer(tc *TypeChecker, ctx *Context, t Term) Term {
	ty, err := tc.Infer(ctx, t)
	if err != nil {
		return Variable{}
	}
	return ty
}

func (tc *TypeChecker) inferApplication(ctx *Context, a Application) (Term, error) {
	fnTy, err := tc.Infer(ctx, a.Func)
	if err != nil {
		return nil, err
	}
	result := fnTy
	for _, arg := range a.Args {
		w := WHNF(tc.Env, result)
		prod, ok := w.(Product)
		if !ok {
			return nil, newErr(NotAFunction, "application head is not a function type")
		}
		argTy, err := tc.Infer(ctx, arg)
		if err != nil {
			return nil, err
		}
		if !IsConvertible(tc.Env, argTy, prod.Source) {
			return nil, mismatchErr(prod.Source, argTy, "argument type does not match parameter type")
		}
		result = Apply(prod.Target, Single(prod.Var, arg))
	}
	if len(a.Args) == 0 {
		return nil, newErr(InvalidApplication, "application with no arguments")
	}
	return result, nil
}

func (tc *TypeChecker) inferLetIn(ctx *Context, l LetIn) (Term, error) {
	valTy, err := tc.Infer(ctx, l.Value)
	if err != nil {
		return nil, err
	}
	if !IsConvertible(tc.Env, valTy, l.Ty) {
		return nil, mismatchErr(l.Ty, valTy, "let-bound value does not match its declared type")
	}
	if _, err := tc.asSort(mustInfer(tc, ctx, l.Ty)); err != nil {
		return nil, newErr(NotAType, "let binding's declared type is not a type: %v", err)
	}
	inner := ctx.Extend(l.Var, l.Ty)
	bodyTy, err := tc.Infer(inner, l.Body)
	if err != nil {
		return nil, err
	}
	return Apply(bodyTy, Single(l.Var, l.Value)), nil
}

func (tc *TypeChecker) inferMatch(ctx *Context, m Match) (Term, error) {
	scrutTy, err := tc.Infer(ctx, m.Scrutinee)
	if err != nil {
		return nil, err
	}
	head := WHNF(tc.Env, scrutTy)
	c, ok := head.(Constant)
	if !ok {
		return nil, newErr(UnknownInductive, "match scrutinee's type does not reduce to an inductive constant")
	}
	ind, ok := tc.Env.Inductives[c.Def]
	if !ok {
		return nil, newErr(UnknownInductive, "%s is not a registered inductive type", c.Def)
	}
	if len(m.Branches) != len(ind.Constructors) {
		return nil, newErr(InvalidCase, "match has %d branches but %s has %d constructors", len(m.Branches), c.Def, len(ind.Constructors))
	}
	for _, b := range m.Branches {
		ctor, owner, ok := tc.Env.Constructor(b.Constructor)
		if !ok {
			return nil, newErr(UnknownConstructor, "%s is not a known constructor", b.Constructor)
		}
		if owner.Def != ind.Def {
			return nil, newErr(InvalidConstructor, "%s does not belong to %s", b.Constructor, ind.Def)
		}
		if ctor.Arity != len(b.Bound) {
			return nil, newErr(InvalidCase, "constructor %s expects %d arguments, branch binds %d", b.Constructor, ctor.Arity, len(b.Bound))
		}
		branchCtx := ctx
		argTy := ctor.Ty
		for _, bound := range b.Bound {
			w := WHNF(tc.Env, argTy)
			prod, ok := w.(Product)
			if !ok {
				return nil, newErr(InvalidConstructor, "constructor %s's telescope is shorter than its declared arity", b.Constructor)
			}
			branchCtx = branchCtx.Extend(bound, prod.Source)
			argTy = Apply(prod.Target, Single(prod.Var, Variable{Def: bound}))
		}
		bodyTy, err := tc.Infer(branchCtx, b.Body)
		if err != nil {
			return nil, err
		}
		if !IsConvertible(tc.Env, bodyTy, m.ReturnType) {
			return nil, mismatchErr(m.ReturnType, bodyTy, "branch for %s does not match the match's return type", b.Constructor)
		}
	}
	return m.ReturnType, nil
}
