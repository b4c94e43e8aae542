package elaborate

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

func (e *Elaborator) elaborateItem(it resolved.Item) (typedast.Item, error) {
	switch n := it.(type) {
	case *resolved.Entrypoint:
		return &typedast.Entrypoint{
			Target: typedast.Ref{Name: n.Target.Name, Def: n.Target.Def},
			Pos:    n.Pos,
		}, nil

	case *resolved.UseBuiltin:
		return &typedast.UseBuiltin{Def: n.Def, LocalName: n.LocalName, BuiltinName: n.BuiltinName, Pos: n.Pos}, nil

	case *resolved.StructDecl:
		return e.structDecls[n.Def], nil

	case *resolved.ArrayDecl:
		return e.arrayDecls[n.Def], nil

	case *resolved.TypeDef:
		ctors, err := e.elaborateConstructors(n.Constructors)
		if err != nil {
			return nil, err
		}
		sort, err := e.termFromType(n.Sort, newTypeScope(nil))
		if err != nil {
			return nil, asReport(n.Pos, err)
		}
		return &typedast.TypeDef{Def: n.Def, Name: n.Name, Sort: sort, Constructors: ctors, Pos: n.Pos}, nil

	case *resolved.Inductive:
		ctors, err := e.elaborateConstructors(n.Constructors)
		if err != nil {
			return nil, err
		}
		sort, err := e.termFromType(n.Sort, newTypeScope(nil))
		if err != nil {
			return nil, asReport(n.Pos, err)
		}
		return &typedast.Inductive{Def: n.Def, Name: n.Name, Sort: sort, Constructors: ctors, Pos: n.Pos}, nil

	case *resolved.Definition:
		ty, err := e.termFromType(n.Type, newTypeScope(nil))
		if err != nil {
			return nil, asReport(n.Pos, err)
		}
		body, err := e.elaborateExpr(cic.NewContext(), n.Body)
		if err != nil {
			return nil, err
		}
		if !cic.IsConvertible(e.env, body.TypeOf(), ty) {
			return nil, asReport(n.Pos, &cic.TypeError{
				Kind:     cic.TypeMismatch,
				Message:  "definition " + n.Name + " body does not match its declared type",
				Expected: ty,
				Found:    body.TypeOf(),
			})
		}
		// Store the body for δ-reduction when it is expressible as a
		// pure CIC term (a definition body always is; the procedural
		// forms never appear here).
		if bodyTerm, ok := e.cicTerm(body); ok {
			e.env.AddConstant(n.Def, &cic.ConstantDef{Ty: ty, Body: bodyTerm})
		}
		return &typedast.Definition{Def: n.Def, Name: n.Name, Type: ty, Body: body, Pos: n.Pos}, nil

	case *resolved.Theorem:
		ty, err := e.termFromType(n.Claim, newTypeScope(nil))
		if err != nil {
			return nil, asReport(n.Pos, err)
		}
		proof, err := e.elaborateExpr(cic.NewContext(), n.Proof)
		if err != nil {
			return nil, err
		}
		return &typedast.Theorem{Def: n.Def, Name: n.Name, Claim: ty, Proof: proof, Pos: n.Pos}, nil

	case *resolved.ProcDef:
		return e.elaborateProc(n)
	}
	return nil, errors.WrapReport(errors.New(errors.TYP004, it.Position(), "unrecognised item kind"))
}

func (e *Elaborator) elaborateStructDecl(n *resolved.StructDecl) (*typedast.StructDecl, error) {
	fields := make([]typedast.StructField, len(n.Fields))
	for i, f := range n.Fields {
		ty, err := e.termFromType(f.Type, newTypeScope(nil))
		if err != nil {
			return nil, asReport(n.Pos, err)
		}
		fields[i] = typedast.StructField{Name: f.Name, Type: ty}
	}
	return &typedast.StructDecl{Def: n.Def, Name: n.Name, Fields: fields, Pos: n.Pos}, nil
}

func (e *Elaborator) elaborateArrayDecl(n *resolved.ArrayDecl) (*typedast.ArrayDecl, error) {
	item, err := e.elaborateStructDecl(n.Item)
	if err != nil {
		return nil, err
	}
	// SoA element size is the *struct's* size once laid out as separate
	// per-field arrays; the backend needs each field's own element
	// size, but ArrayDecl.ElementSize records the array's uniform
	// per-item size when every field shares the same base type (the
	// common "Ps { x,y,z: f32 }" shape).
	// Mixed-width arrays still compile: the backend re-derives each
	// field's size independently (see codegen/x86's fieldElementSize).
	size := 8
	if len(item.Fields) > 0 {
		size = ElementSize(item.Fields[0].Type)
	}
	return &typedast.ArrayDecl{
		Def:         n.Def,
		Name:        n.Name,
		Item:        item,
		Dimension:   n.Dimension,
		ElementSize: size,
		Pos:         n.Pos,
	}, nil
}

// ElementSize gives a scalar field's byte width by matching
// the term against the reserved base-type constants. Exported so
// internal/codegen/x86 can re-derive a mixed-width SoA array's
// per-field size independently of the array's own uniform
// ArrayDecl.ElementSize (see elaborateArrayDecl's comment above).
func ElementSize(t cic.Term) int {
	c, ok := t.(cic.Constant)
	if !ok {
		return 8
	}
	switch c.Def {
	case baseF32, baseU32, baseI32:
		return 4
	case baseU16, baseI16:
		return 2
	case baseU8, baseI8:
		return 1
	default:
		return 8
	}
}

func (e *Elaborator) elaborateConstructors(ctors []resolved.Constructor) ([]typedast.Constructor, error) {
	out := make([]typedast.Constructor, len(ctors))
	for i, c := range ctors {
		ty, err := e.termFromType(c.Type, newTypeScope(nil))
		if err != nil {
			return nil, asReport(ast.Pos{}, err)
		}
		out[i] = typedast.Constructor{Def: c.Def, Name: c.Name, Type: ty}
	}
	return out, nil
}

// cicTerm reconstructs the pure-CIC term a typed expression denotes,
// when it has one. Names resolve to Constants when the environment
// knows them and to Variables (match binders) otherwise. Procedural
// forms (field access, dereference, constructor calls) have no CIC
// reading and report false.
func (e *Elaborator) cicTerm(x typedast.Expr) (cic.Term, bool) {
	switch n := x.(type) {
	case *typedast.Var:
		if e.isGlobal(n.Ref.Def) {
			return cic.Constant{Def: n.Ref.Def}, true
		}
		return cic.Variable{Def: n.Ref.Def}, true
	case *typedast.Paren:
		return e.cicTerm(n.Inner)
	case *typedast.App:
		f, ok := e.cicTerm(n.Func)
		if !ok {
			return nil, false
		}
		args := make([]cic.Term, len(n.Args))
		for i, a := range n.Args {
			t, ok := e.cicTerm(a)
			if !ok {
				return nil, false
			}
			args[i] = t
		}
		return cic.Application{Func: f, Args: args}, true
	case *typedast.Match:
		scrut, ok := e.cicTerm(n.Scrutinee)
		if !ok {
			return nil, false
		}
		branches := make([]cic.Branch, len(n.Arms))
		for i, a := range n.Arms {
			body, ok := e.cicTerm(a.Body)
			if !ok {
				return nil, false
			}
			bound := make([]defid.ID, len(a.Bound))
			for j, b := range a.Bound {
				bound[j] = b.Def
			}
			branches[i] = cic.Branch{Constructor: a.ConstructorDef, Bound: bound, Body: body}
		}
		return cic.Match{Scrutinee: scrut, ReturnType: n.Type, Branches: branches}, true
	}
	return nil, false
}

func (e *Elaborator) isGlobal(id defid.ID) bool {
	if _, ok := e.env.Constants[id]; ok {
		return true
	}
	if _, ok := e.env.Inductives[id]; ok {
		return true
	}
	if _, _, ok := e.env.Constructor(id); ok {
		return true
	}
	return false
}
