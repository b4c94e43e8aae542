// Package elaborate is the elaborator: it walks a resolved.File,
// drives the CIC kernel (internal/cic) to infer a TypeTerm for every
// node, and produces a typedast.File.
//
// Felis is fully explicitly typed (every binder names its type in
// source), so this package does not need a general
// metavariable/union-find solver: it
// elaborates in synthesis mode throughout, calling straight into
// cic.TypeChecker.Infer for every term it builds and reporting the
// kernel's own TypeError as a position-bearing *errors.Report (see
// errors.go). The one place branches must be reconciled — a
// match expression's arms must all agree on a result type — is
// handled by picking the first branch's inferred type as the expected
// type and checking every other branch against it via
// cic.IsConvertible, the same convertibility check the kernel itself
// uses for the Match typing rule. This is recorded as
// an Open-Question-style implementation decision in DESIGN.md.
package elaborate

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/builtins"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

// Elaborator threads the shared DefId generator, the CIC
// global environment, and the name tables needed to convert surface
// ast.Type telescopes into cic.Term.
type Elaborator struct {
	gen         *defid.Generator
	globalNames map[string]defid.ID
	paths       *resolved.PathTable
	env         *cic.GlobalEnv
	tc          *cic.TypeChecker

	// arrayDecls/structDecls cache the fully elaborated item, keyed by
	// its DefId, computed eagerly in registerDeclarations so that a
	// proc body referencing an array type can look up field types
	// regardless of the array's position in the file.
	arrayDecls  map[defid.ID]*typedast.ArrayDecl
	structDecls map[defid.ID]*typedast.StructDecl
}

// NewElaborator builds an elaborator sharing gen with the resolver that
// produced the tree being elaborated, so no DefId is ever issued twice
// in one compilation.
func NewElaborator(gen *defid.Generator) *Elaborator {
	env := cic.NewGlobalEnv()
	return &Elaborator{
		gen:         gen,
		globalNames: make(map[string]defid.ID),
		env:         env,
		tc:          cic.NewTypeChecker(env),
		arrayDecls:  make(map[defid.ID]*typedast.ArrayDecl),
		structDecls: make(map[defid.ID]*typedast.StructDecl),
	}
}

// Env exposes the populated CIC environment, used by codegen to read
// back inductive/constructor layout information.
func (e *Elaborator) Env() *cic.GlobalEnv { return e.env }

// Elaborate type-checks a resolved file and returns its typed phase.
func (e *Elaborator) Elaborate(f *resolved.File) (*typedast.File, error) {
	e.paths = f.Paths
	for id, name := range f.Prelude {
		sig, err := e.builtinSignature(name, f.Pos)
		if err != nil {
			return nil, err
		}
		e.env.AddConstant(id, &cic.ConstantDef{Ty: sig})
	}
	for _, it := range f.Items {
		e.collectGlobalName(it)
	}
	if err := e.registerDeclarations(f.Items); err != nil {
		return nil, err
	}
	items := make([]typedast.Item, 0, len(f.Items))
	for _, it := range f.Items {
		ti, err := e.elaborateItem(it)
		if err != nil {
			return nil, err
		}
		items = append(items, ti)
	}
	return &typedast.File{
		Items:   items,
		Paths:   (*typedast.PathTable)(f.Paths),
		Prelude: f.Prelude,
		Pos:     f.Pos,
	}, nil
}

func (e *Elaborator) collectGlobalName(it resolved.Item) {
	switch n := it.(type) {
	case *resolved.UseBuiltin:
		e.globalNames[n.LocalName] = n.Def
	case *resolved.ProcDef:
		e.globalNames[n.Name] = n.Def
	case *resolved.StructDecl:
		e.globalNames[n.Name] = n.Def
	case *resolved.ArrayDecl:
		e.globalNames[n.Name] = n.Def
	case *resolved.TypeDef:
		e.globalNames[n.Name] = n.Def
	case *resolved.Inductive:
		e.globalNames[n.Name] = n.Def
	case *resolved.Definition:
		e.globalNames[n.Name] = n.Def
	case *resolved.Theorem:
		e.globalNames[n.Name] = n.Def
	}
}

// registerDeclarations is the elaborator's own first pass: every
// inductive, proc signature, use_builtin binding and pure-CIC constant
// is registered in the GlobalEnv before any body is type-checked, so
// forward and mutually-recursive references resolve (mirrors
// resolved.Resolver's two-pass declare/resolve discipline one phase
// later).
func (e *Elaborator) registerDeclarations(items []resolved.Item) error {
	for _, it := range items {
		switch n := it.(type) {
		case *resolved.TypeDef:
			if err := e.registerInductive(n.Def, n.Sort, n.Constructors); err != nil {
				return err
			}
		case *resolved.Inductive:
			if err := e.registerInductive(n.Def, n.Sort, n.Constructors); err != nil {
				return err
			}
		case *resolved.StructDecl:
			// Struct field types must be resolvable but structs are not
			// CIC inductives; nothing to register in env, just cache
			// the elaborated field types.
			sd, err := e.elaborateStructDecl(n)
			if err != nil {
				return err
			}
			e.structDecls[n.Def] = sd
		case *resolved.ArrayDecl:
			ad, err := e.elaborateArrayDecl(n)
			if err != nil {
				return err
			}
			e.arrayDecls[n.Def] = ad
		case *resolved.ProcDef:
			sig, err := e.procSignature(n)
			if err != nil {
				return err
			}
			e.env.AddConstant(n.Def, &cic.ConstantDef{Ty: sig})
		case *resolved.UseBuiltin:
			sig, err := e.builtinSignature(n.BuiltinName, n.Pos)
			if err != nil {
				return err
			}
			e.env.AddConstant(n.Def, &cic.ConstantDef{Ty: sig})
		case *resolved.Definition:
			ty, err := e.termFromType(n.Type, newTypeScope(nil))
			if err != nil {
				return asReport(n.Pos, err)
			}
			e.env.AddConstant(n.Def, &cic.ConstantDef{Ty: ty})
		case *resolved.Theorem:
			ty, err := e.termFromType(n.Claim, newTypeScope(nil))
			if err != nil {
				return asReport(n.Pos, err)
			}
			e.env.AddConstant(n.Def, &cic.ConstantDef{Ty: ty})
		}
	}
	return nil
}

func (e *Elaborator) registerInductive(def defid.ID, sortTy ast.Type, ctors []resolved.Constructor) error {
	sort, err := e.termFromType(sortTy, newTypeScope(nil))
	if err != nil {
		return asReport(ast.Pos{}, err)
	}
	ind := &cic.InductiveDef{Def: def, Sort: sort}
	for _, c := range ctors {
		ty, err := e.termFromType(c.Type, newTypeScope(nil))
		if err != nil {
			return asReport(ast.Pos{}, err)
		}
		ind.Constructors = append(ind.Constructors, cic.ConstructorDef{
			Def:   c.Def,
			Ty:    ty,
			Arity: countTelescope(c.Type),
		})
	}
	e.env.AddInductive(ind)
	return nil
}

// countTelescope counts the leading Map/DependentMap arrows of a
// constructor's declared type — its arity.
func countTelescope(t ast.Type) int {
	n := 0
	for {
		switch ty := t.(type) {
		case *ast.MapType:
			n++
			t = ty.Target
		case *ast.DependentMapType:
			n++
			t = ty.Target
		case *ast.ParenType:
			t = ty.Inner
		default:
			return n
		}
	}
}

// procSignature builds the Product chain a #proc's name denotes when it
// is referenced as a callable value.
func (e *Elaborator) procSignature(n *resolved.ProcDef) (cic.Term, error) {
	scope := newTypeScope(nil)
	paramTys := make([]cic.Term, len(n.Params))
	for i, p := range n.Params {
		ty, err := e.termFromType(p.Type, scope)
		if err != nil {
			return nil, asReport(n.Pos, err)
		}
		paramTys[i] = ty
		scope.bind(p.Name, p.Def)
	}
	result, err := e.termFromType(n.Result, scope)
	if err != nil {
		return nil, asReport(n.Pos, err)
	}
	sig := result
	for i := len(paramTys) - 1; i >= 0; i-- {
		sig = cic.Product{Var: n.Params[i].Def, Source: paramTys[i], Target: sig}
	}
	if len(paramTys) == 0 {
		// A niladic proc still denotes a callable with no arguments; codegen
		// treats it as a bare jump/call. Its "signature" for type-checking
		// purposes is just its result type.
		return result, nil
	}
	return sig, nil
}

// builtinSignature looks up name in the fixed builtin table and builds
// its Product-chain type from the table's base-type parameter names.
func (e *Elaborator) builtinSignature(name string, pos ast.Pos) (cic.Term, error) {
	spec, ok := builtins.Lookup(name)
	if !ok {
		return nil, errors.WrapReport(errors.Newf(errors.TYP002, pos, "unrecognised builtin %q", name))
	}
	result, ok := baseConstant(spec.Result)
	if !ok {
		return nil, errors.WrapReport(errors.Newf(errors.TYP002, pos, "builtin %q has unknown result type %q", name, spec.Result))
	}
	sig := cic.Term(result)
	for i := len(spec.Params) - 1; i >= 0; i-- {
		pty, ok := baseConstant(spec.Params[i])
		if !ok {
			return nil, errors.WrapReport(errors.Newf(errors.TYP002, pos, "builtin %q has unknown parameter type %q", name, spec.Params[i]))
		}
		sig = cic.Product{Var: e.gen.Fresh(), Source: pty, Target: sig}
	}
	return sig, nil
}
