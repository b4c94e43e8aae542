package elaborate

import (
	"fmt"

	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
)

// typeScope is a parent-chained name -> defid.ID map used while
// converting a surface ast.Type into a cic.Term, mirroring
// resolved.Scope's discipline but scoped to a single type expression
// (a proc signature, a constructor telescope, a struct field list).
type typeScope struct {
	names  map[string]defid.ID
	parent *typeScope
}

func newTypeScope(parent *typeScope) *typeScope {
	return &typeScope{names: make(map[string]defid.ID), parent: parent}
}

func (s *typeScope) bind(name string, id defid.ID) {
	s.names[name] = id
}

func (s *typeScope) lookup(name string) (defid.ID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if id, ok := sc.names[name]; ok {
			return id, true
		}
	}
	return defid.Zero, false
}

// termFromType converts a surface ast.Type to a cic.Term. Local is the
// lexical scope of bound telescope/param variables; global resolves
// bare type-level names (inductive/struct/array names) to their
// Constant DefId. The three sort keywords have no explicit level
// syntax in the grammar, so "Type" always denotes Type(0); higher universes
// only ever arise from SortRule's own bookkeeping, never source text.
func (e *Elaborator) termFromType(t ast.Type, local *typeScope) (cic.Term, error) {
	switch n := t.(type) {
	case *ast.AtomType:
		switch n.Name {
		case "Prop":
			return cic.Sort{Kind: cic.Prop}, nil
		case "Set":
			return cic.Sort{Kind: cic.SetSort}, nil
		case "Type":
			return cic.Sort{Kind: cic.TypeU, Level: 0}, nil
		}
		if id, ok := local.lookup(n.Name); ok {
			return cic.Variable{Def: id}, nil
		}
		if c, ok := baseConstant(n.Name); ok {
			return c, nil
		}
		if id, ok := e.globalNames[n.Name]; ok {
			return cic.Constant{Def: id}, nil
		}
		return nil, fmt.Errorf("unknown type name %q", n.Name)

	case *ast.AppType:
		fn, err := e.termFromType(n.Func, local)
		if err != nil {
			return nil, err
		}
		args := make([]cic.Term, len(n.Args))
		for i, a := range n.Args {
			at, err := e.termFromType(a, local)
			if err != nil {
				return nil, err
			}
			args[i] = at
		}
		return cic.Application{Func: fn, Args: args}, nil

	case *ast.MapType:
		src, err := e.termFromType(n.Source, local)
		if err != nil {
			return nil, err
		}
		tgt, err := e.termFromType(n.Target, local)
		if err != nil {
			return nil, err
		}
		return cic.Product{Var: e.gen.Fresh(), Source: src, Target: tgt}, nil

	case *ast.DependentMapType:
		src, err := e.termFromType(n.Source, local)
		if err != nil {
			return nil, err
		}
		id := e.gen.Fresh()
		inner := newTypeScope(local)
		inner.bind(n.Var, id)
		tgt, err := e.termFromType(n.Target, inner)
		if err != nil {
			return nil, err
		}
		return cic.Product{Var: id, Source: src, Target: tgt}, nil

	case *ast.ParenType:
		return e.termFromType(n.Inner, local)

	case *ast.UnitType:
		return unitType, nil
	}
	return nil, fmt.Errorf("unrecognised type node %T", t)
}

// unitType is the nominal constant standing for the procedural
// sublanguage's `()` result type: () is allowed as a declared return
// type even though CIC itself has no built-in unit former.
var unitType = cic.Constant{Def: unitDefID}

// unitDefID is a reserved sentinel id distinct from every id the
// generator hands out (generators start at 1; this is the maximum
// uint64, never reached by a real compilation).
const unitDefID defid.ID = ^defid.ID(0)
