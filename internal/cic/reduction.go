package cic

// WHNF repeatedly applies head-reducing steps (β, δ, ι, ζ) until none
// applies at the head position.
func WHNF(env *GlobalEnv, t Term) Term {
	for {
		next, changed := headStep(env, t)
		if !changed {
			return t
		}
		t = next
	}
}

// headStep attempts exactly one head-reducing step.
func headStep(env *GlobalEnv, t Term) (Term, bool) {
	switch n := t.(type) {
	case Constant:
		if c, ok := env.Constants[n.Def]; ok && c.Body != nil {
			return c.Body, true // δ
		}
		return t, false

	case LetIn:
		return Apply(n.Body, Single(n.Var, n.Value)), true // ζ

	case Application:
		fn := WHNF(env, n.Func)
		if lam, ok := fn.(Lambda); ok && len(n.Args) > 0 {
			reduced := Apply(lam.Body, Single(lam.Var, n.Args[0]))
			if len(n.Args) > 1 {
				reduced = Application{Func: reduced, Args: n.Args[1:]}
			}
			return reduced, true // β
		}
		if !Equal(fn, n.Func) {
			return Application{Func: fn, Args: n.Args}, true
		}
		return t, false

	case Match:
		scrut := WHNF(env, n.Scrutinee)
		ctorApp, args := unrollConstructorApp(scrut)
		if ctorApp == nil {
			return t, false
		}
		for _, b := range n.Branches {
			if b.Constructor != ctorApp.Def {
				continue
			}
			sigma := make(Subst, len(b.Bound))
			for i, bv := range b.Bound {
				if i < len(args) {
					sigma[bv] = args[i]
				}
			}
			return Apply(b.Body, sigma), true // ι
		}
		return t, false
	}
	return t, false
}

// unrollConstructorApp recognises `Constant(ctor) a1 a2 ... an` (a
// saturated or partially-applied constructor value) and returns the
// constructor head plus its argument list.
func unrollConstructorApp(t Term) (*Constant, []Term) {
	switch n := t.(type) {
	case Constant:
		return &n, nil
	case Application:
		if c, ok := n.Func.(Constant); ok {
			return &c, n.Args
		}
	}
	return nil, nil
}

// Normalize reduces t to full βδιζ-normal form: head-reduce, then
// recurse into every subterm.
// Idempotent: Normalize(Normalize(t)) == Normalize(t).
func Normalize(env *GlobalEnv, t Term) Term {
	t = WHNF(env, t)
	switch n := t.(type) {
	case Sort, Variable, Constant:
		return n
	case Product:
		return Product{Var: n.Var, Source: Normalize(env, n.Source), Target: Normalize(env, n.Target)}
	case Lambda:
		return Lambda{Var: n.Var, SourceTy: Normalize(env, n.SourceTy), Body: Normalize(env, n.Body)}
	case Application:
		args := make([]Term, len(n.Args))
		for i, a := range n.Args {
			args[i] = Normalize(env, a)
		}
		return Application{Func: Normalize(env, n.Func), Args: args}
	case LetIn:
		return Normalize(env, Apply(n.Body, Single(n.Var, n.Value)))
	case Match:
		branches := make([]Branch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = Branch{Constructor: b.Constructor, Bound: b.Bound, Body: Normalize(env, b.Body)}
		}
		return Match{Scrutinee: Normalize(env, n.Scrutinee), ReturnType: Normalize(env, n.ReturnType), Branches: branches}
	}
	return t
}

// IsConvertible is definitional equality of normal forms: structural equality over all payloads, with binder DefIds
// compared as part of the structure.
func IsConvertible(env *GlobalEnv, a, b Term) bool {
	return Equal(Normalize(env, a), Normalize(env, b))
}

// Equal is plain structural equality; it does not normalize.
func Equal(a, b Term) bool {
	switch x := a.(type) {
	case Sort:
		y, ok := b.(Sort)
		return ok && x.Kind == y.Kind && (x.Kind != TypeU || x.Level == y.Level)
	case Variable:
		y, ok := b.(Variable)
		return ok && x.Def == y.Def
	case Constant:
		y, ok := b.(Constant)
		return ok && x.Def == y.Def
	case Product:
		y, ok := b.(Product)
		return ok && x.Var == y.Var && Equal(x.Source, y.Source) && Equal(x.Target, y.Target)
	case Lambda:
		y, ok := b.(Lambda)
		return ok && x.Var == y.Var && Equal(x.SourceTy, y.SourceTy) && Equal(x.Body, y.Body)
	case Application:
		y, ok := b.(Application)
		if !ok || len(x.Args) != len(y.Args) || !Equal(x.Func, y.Func) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case LetIn:
		y, ok := b.(LetIn)
		return ok && x.Var == y.Var && Equal(x.Ty, y.Ty) && Equal(x.Value, y.Value) && Equal(x.Body, y.Body)
	case Match:
		y, ok := b.(Match)
		if !ok || len(x.Branches) != len(y.Branches) || !Equal(x.Scrutinee, y.Scrutinee) || !Equal(x.ReturnType, y.ReturnType) {
			return false
		}
		for i := range x.Branches {
			xb, yb := x.Branches[i], y.Branches[i]
			if xb.Constructor != yb.Constructor || len(xb.Bound) != len(yb.Bound) || !Equal(xb.Body, yb.Body) {
				return false
			}
			for j := range xb.Bound {
				if xb.Bound[j] != yb.Bound[j] {
					return false
				}
			}
		}
		return true
	}
	return false
}
