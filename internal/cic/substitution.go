package cic

import "github.com/sunholo/felis/internal/defid"

// Subst maps a DefId to the term that replaces it.
type Subst map[defid.ID]Term

// Single builds a one-entry substitution, the common case of β/ζ/ι
// reduction.
func Single(id defid.ID, t Term) Subst {
	return Subst{id: t}
}

// Apply performs capture-avoiding substitution. Because every binder
// carries a globally-unique DefId, no free-variable
// renaming is ever required: substitution simply stops recursing under
// a binder that rebinds one of σ's keys.
func Apply(t Term, sigma Subst) Term {
	if len(sigma) == 0 {
		return t
	}
	switch n := t.(type) {
	case Sort:
		return n
	case Variable:
		if repl, ok := sigma[n.Def]; ok {
			return repl
		}
		return n
	case Constant:
		return n
	case Product:
		src := Apply(n.Source, sigma)
		if _, shadowed := sigma[n.Var]; shadowed {
			return Product{Var: n.Var, Source: src, Target: n.Target}
		}
		return Product{Var: n.Var, Source: src, Target: Apply(n.Target, sigma)}
	case Lambda:
		ty := Apply(n.SourceTy, sigma)
		if _, shadowed := sigma[n.Var]; shadowed {
			return Lambda{Var: n.Var, SourceTy: ty, Body: n.Body}
		}
		return Lambda{Var: n.Var, SourceTy: ty, Body: Apply(n.Body, sigma)}
	case Application:
		args := make([]Term, len(n.Args))
		for i, a := range n.Args {
			args[i] = Apply(a, sigma)
		}
		return Application{Func: Apply(n.Func, sigma), Args: args}
	case LetIn:
		ty := Apply(n.Ty, sigma)
		val := Apply(n.Value, sigma)
		if _, shadowed := sigma[n.Var]; shadowed {
			return LetIn{Var: n.Var, Ty: ty, Value: val, Body: n.Body}
		}
		return LetIn{Var: n.Var, Ty: ty, Value: val, Body: Apply(n.Body, sigma)}
	case Match:
		branches := make([]Branch, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = applyBranch(b, sigma)
		}
		return Match{Scrutinee: Apply(n.Scrutinee, sigma), ReturnType: Apply(n.ReturnType, sigma), Branches: branches}
	}
	return t
}

func applyBranch(b Branch, sigma Subst) Branch {
	for _, bv := range b.Bound {
		if _, shadowed := sigma[bv]; shadowed {
			return b
		}
	}
	return Branch{Constructor: b.Constructor, Bound: b.Bound, Body: Apply(b.Body, sigma)}
}
