package resolved

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/builtins"
	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/errors"
)

// Resolver performs two-pass name resolution: pass
// one declares every top-level binder (so later items can reference
// earlier or later ones without order sensitivity), pass two walks each
// item's body resolving every occurrence against that table.
type Resolver struct {
	gen     *defid.Generator
	globals *Scope
	paths   *PathTable
	prelude map[defid.ID]string
}

// NewResolver constructs a resolver with a fresh DefId generator. The
// prelude scope is seeded with every recognised builtin name before
// any user item is declared; file-scope items may shadow a prelude
// name without error.
func NewResolver() *Resolver {
	gen := defid.NewGenerator()
	preludeScope := NewScope(nil)
	prelude := make(map[defid.ID]string, len(builtins.Names))
	for _, name := range builtins.Names {
		id := gen.Fresh()
		preludeScope.Bind(name, id)
		prelude[id] = name
	}
	return &Resolver{
		gen:     gen,
		globals: NewScope(preludeScope),
		paths:   NewPathTable(),
		prelude: prelude,
	}
}

// Generator exposes the DefId generator this resolver used, so the
// elaborator that runs next over the same file can keep issuing fresh
// ids from the same sequence.
func (r *Resolver) Generator() *defid.Generator { return r.gen }

// ResolveFile runs both passes over f and returns the resolved tree, or
// the first structured Report encountered (RES001/RES002/RES003).
func (r *Resolver) ResolveFile(f *ast.File) (*File, error) {
	if err := r.declarePass(f); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(f.Items))
	for _, it := range f.Items {
		ri, err := r.resolveItem(it)
		if err != nil {
			return nil, err
		}
		items = append(items, ri)
	}
	return &File{Items: items, Paths: r.paths, Prelude: r.prelude, Pos: f.Pos}, nil
}

func (r *Resolver) declare(name string, pos ast.Pos) (defid.ID, error) {
	if r.globals.BoundHere(name) {
		return defid.Zero, errors.WrapReport(errors.Newf(errors.RES002, pos, "%q is already defined", name))
	}
	id := r.gen.Fresh()
	r.globals.Bind(name, id)
	return id, nil
}

// declarePass assigns a DefId to every top-level binder: items
// themselves and, for #type/#inductive, each constructor.
func (r *Resolver) declarePass(f *ast.File) error {
	for _, it := range f.Items {
		switch n := it.(type) {
		case *ast.Entrypoint:
			// references an existing #proc name; no binder of its own.
		case *ast.UseBuiltin:
			if _, err := r.declare(n.LocalName, n.Pos); err != nil {
				return err
			}
		case *ast.ProcDef:
			if _, err := r.declare(n.Name, n.Pos); err != nil {
				return err
			}
		case *ast.Definition:
			if _, err := r.declare(n.Name, n.Pos); err != nil {
				return err
			}
		case *ast.Theorem:
			if _, err := r.declare(n.Name, n.Pos); err != nil {
				return err
			}
		case *ast.StructDecl:
			if _, err := r.declare(n.Name, n.Pos); err != nil {
				return err
			}
		case *ast.ArrayDecl:
			if _, err := r.declare(n.Name, n.Pos); err != nil {
				return err
			}
		case *ast.TypeDef:
			owner, err := r.declare(n.Name, n.Pos)
			if err != nil {
				return err
			}
			if err := r.declareConstructors(n.Name, owner, n.Constructors); err != nil {
				return err
			}
		case *ast.Inductive:
			owner, err := r.declare(n.Name, n.Pos)
			if err != nil {
				return err
			}
			if err := r.declareConstructors(n.Name, owner, n.Constructors); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Resolver) declareConstructors(typeName string, owner defid.ID, ctors []ast.Constructor) error {
	for _, c := range ctors {
		id := r.gen.Fresh()
		r.paths.OwnerOf[id] = owner
		r.paths.ByQualified[typeName+"::"+c.Name] = id
		if _, clash := r.paths.ByBare[c.Name]; clash {
			delete(r.paths.ByBare, c.Name) // ambiguous bare name: require qualification
		} else {
			r.paths.ByBare[c.Name] = id
		}
	}
	return nil
}

// lookupConstructor resolves a possibly-qualified constructor reference.
func (r *Resolver) lookupConstructor(typeName, ctorName string, pos ast.Pos) (defid.ID, error) {
	if typeName != "" {
		if id, ok := r.paths.ByQualified[typeName+"::"+ctorName]; ok {
			return id, nil
		}
	}
	if id, ok := r.paths.ByBare[ctorName]; ok {
		return id, nil
	}
	return defid.Zero, errors.WrapReport(errors.Newf(errors.RES001, pos, "unresolved constructor %q", ctorName))
}

func (r *Resolver) resolveItem(it ast.Item) (Item, error) {
	switch n := it.(type) {
	case *ast.Entrypoint:
		id, ok := r.globals.Lookup(n.Name)
		if !ok {
			return nil, errors.WrapReport(errors.Newf(errors.RES001, n.Pos, "entrypoint target %q is not defined", n.Name))
		}
		return &Entrypoint{Target: Ref{Name: n.Name, Def: id}, Pos: n.Pos}, nil

	case *ast.UseBuiltin:
		id, _ := r.globals.Lookup(n.LocalName)
		return &UseBuiltin{Def: id, LocalName: n.LocalName, BuiltinName: n.BuiltinName, Pos: n.Pos}, nil

	case *ast.ProcDef:
		return r.resolveProc(n)

	case *ast.StructDecl:
		id, _ := r.globals.Lookup(n.Name)
		return &StructDecl{Def: id, Name: n.Name, Fields: resolveFields(n.Fields), Pos: n.Pos}, nil

	case *ast.ArrayDecl:
		id, _ := r.globals.Lookup(n.Name)
		return &ArrayDecl{
			Def:       id,
			Name:      n.Name,
			Item:      &StructDecl{Name: n.Item.Name, Fields: resolveFields(n.Item.Fields), Pos: n.Item.Pos},
			Dimension: n.Dimension,
			Pos:       n.Pos,
		}, nil

	case *ast.TypeDef:
		id, _ := r.globals.Lookup(n.Name)
		ctors, err := r.resolveConstructorList(n.Name, n.Constructors)
		if err != nil {
			return nil, err
		}
		return &TypeDef{Def: id, Name: n.Name, Sort: n.Sort, Constructors: ctors, Pos: n.Pos}, nil

	case *ast.Inductive:
		id, _ := r.globals.Lookup(n.Name)
		ctors, err := r.resolveConstructorList(n.Name, n.Constructors)
		if err != nil {
			return nil, err
		}
		return &Inductive{Def: id, Name: n.Name, Sort: n.Sort, Constructors: ctors, Pos: n.Pos}, nil

	case *ast.Definition:
		id, _ := r.globals.Lookup(n.Name)
		body, err := r.resolveExpr(NewScope(r.globals), n.Body)
		if err != nil {
			return nil, err
		}
		return &Definition{Def: id, Name: n.Name, Type: n.Type, Body: body, Pos: n.Pos}, nil

	case *ast.Theorem:
		id, _ := r.globals.Lookup(n.Name)
		proof, err := r.resolveExpr(NewScope(r.globals), n.Proof)
		if err != nil {
			return nil, err
		}
		return &Theorem{Def: id, Name: n.Name, Claim: n.Claim, Proof: proof, Pos: n.Pos}, nil
	}
	return nil, errors.WrapReport(errors.New(errors.RES003, it.Position(), "unrecognised item kind"))
}

func resolveFields(fields []ast.StructField) []StructField {
	out := make([]StructField, len(fields))
	for i, f := range fields {
		out[i] = StructField{Name: f.Name, Type: f.Type}
	}
	return out
}

func (r *Resolver) resolveConstructorList(typeName string, ctors []ast.Constructor) ([]Constructor, error) {
	out := make([]Constructor, len(ctors))
	for i, c := range ctors {
		id, err := r.lookupConstructor(typeName, c.Name, ast.Pos{})
		if err != nil {
			return nil, err
		}
		out[i] = Constructor{Def: id, Name: c.Name, Type: c.Type}
	}
	return out, nil
}

func (r *Resolver) resolveProc(n *ast.ProcDef) (Item, error) {
	procID, _ := r.globals.Lookup(n.Name)
	scope := NewScope(r.globals)
	args, result := ast.FlattenDependentPrefix(n.Sig)
	if len(args) == 0 {
		// A niladic signature `() -> R` carries no dependent prefix;
		// peel the unit source so R alone is the declared result.
		if m, ok := result.(*ast.MapType); ok {
			if _, isUnit := m.Source.(*ast.UnitType); isUnit {
				result = m.Target
			}
		}
	}
	params := make([]Param, len(args))
	for i, a := range args {
		id := r.gen.Fresh()
		scope.Bind(a.Name, id)
		params[i] = Param{Def: id, Name: a.Name, Type: a.Type}
	}
	body, err := r.resolveBlock(scope, n.Body)
	if err != nil {
		return nil, err
	}
	return &ProcDef{Def: procID, Name: n.Name, Params: params, Result: result, Body: body, Pos: n.Pos}, nil
}

func (r *Resolver) resolveBlock(scope *Scope, stmts []ast.Statement) ([]Statement, error) {
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		rs, err := r.resolveStmt(scope, s)
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, nil
}

func (r *Resolver) resolveStmt(scope *Scope, s ast.Statement) (Statement, error) {
	switch n := s.(type) {
	case *ast.Let:
		val, err := r.resolveExpr(scope, n.Value)
		if err != nil {
			return nil, err
		}
		id := r.gen.Fresh()
		scope.Bind(n.Name, id)
		return &Let{Def: id, Name: n.Name, Value: val, Pos: n.Pos}, nil

	case *ast.LetMut:
		val, err := r.resolveExpr(scope, n.Value)
		if err != nil {
			return nil, err
		}
		valID := r.gen.Fresh()
		scope.Bind(n.Name, valID)
		refID := r.gen.Fresh()
		scope.Bind(n.RefName, refID)
		return &LetMut{ValueDef: valID, Name: n.Name, RefDef: refID, RefName: n.RefName, Value: val, Pos: n.Pos}, nil

	case *ast.Assign:
		id, ok := scope.Lookup(n.Name)
		if !ok {
			return nil, errors.WrapReport(errors.Newf(errors.RES001, n.Pos, "unresolved name %q", n.Name))
		}
		val, err := r.resolveExpr(scope, n.Value)
		if err != nil {
			return nil, err
		}
		return &Assign{Target: Ref{Name: n.Name, Def: id}, Value: val, Pos: n.Pos}, nil

	case *ast.FieldAssign:
		obj, err := r.resolveExpr(scope, n.Object)
		if err != nil {
			return nil, err
		}
		if n.Index == nil {
			return nil, errors.WrapReport(errors.Newf(errors.RES003, n.Pos, "cannot assign to %q without an index", n.Field))
		}
		idx, err := r.resolveExpr(scope, n.Index)
		if err != nil {
			return nil, err
		}
		val, err := r.resolveExpr(scope, n.Value)
		if err != nil {
			return nil, err
		}
		return &FieldAssign{Object: obj, Field: n.Field, Index: idx, Value: val, Pos: n.Pos}, nil

	case *ast.ExprStmt:
		val, err := r.resolveExpr(scope, n.Value)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Value: val, Pos: n.Pos}, nil

	case *ast.IfStmt:
		cond, err := r.resolveExpr(scope, n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := r.resolveBlock(NewScope(scope), n.Then)
		if err != nil {
			return nil, err
		}
		var els []Statement
		if n.Else != nil {
			els, err = r.resolveBlock(NewScope(scope), n.Else)
			if err != nil {
				return nil, err
			}
		}
		return &IfStmt{Cond: cond, Then: then, Else: els, Pos: n.Pos}, nil

	case *ast.Loop:
		body, err := r.resolveBlock(NewScope(scope), n.Body)
		if err != nil {
			return nil, err
		}
		return &Loop{Body: body, Pos: n.Pos}, nil

	case *ast.Break:
		return &Break{Pos: n.Pos}, nil
	case *ast.Continue:
		return &Continue{Pos: n.Pos}, nil

	case *ast.Return:
		val, err := r.resolveExpr(scope, n.Value)
		if err != nil {
			return nil, err
		}
		return &Return{Value: val, Pos: n.Pos}, nil

	case *ast.CallPtx:
		args, err := r.resolveExprList(scope, n.Args)
		if err != nil {
			return nil, err
		}
		id, ok := r.globals.Lookup(n.ProcName)
		if !ok {
			return nil, errors.WrapReport(errors.Newf(errors.RES001, n.Pos, "unresolved PTX kernel %q", n.ProcName))
		}
		return &CallPtx{ProcName: n.ProcName, ProcDef: id, Args: args, Pos: n.Pos}, nil
	}
	return nil, errors.WrapReport(errors.New(errors.RES003, s.Position(), "unrecognised statement kind"))
}

func (r *Resolver) resolveExprList(scope *Scope, exprs []ast.Expr) ([]Expr, error) {
	out := make([]Expr, len(exprs))
	for i, e := range exprs {
		re, err := r.resolveExpr(scope, e)
		if err != nil {
			return nil, err
		}
		out[i] = re
	}
	return out, nil
}

func (r *Resolver) resolveExpr(scope *Scope, e ast.Expr) (Expr, error) {
	switch n := e.(type) {
	case *ast.Variable:
		id, ok := scope.Lookup(n.Name)
		if !ok {
			// An occurrence that is neither a local nor a top-level item
			// may still be an unqualified constructor name.
			if ctorID, found := r.paths.ByBare[n.Name]; found {
				return &Var{Ref: Ref{Name: n.Name, Def: ctorID}, Pos: n.Pos}, nil
			}
			return nil, errors.WrapReport(errors.Newf(errors.RES001, n.Pos, "unresolved name %q", n.Name))
		}
		return &Var{Ref: Ref{Name: n.Name, Def: id}, Pos: n.Pos}, nil

	case *ast.IdentWithPath:
		// A multi-segment path that reached here unsplit by the parser is
		// a dotted reference (not a field access): the head resolves
		// through the scope, each later segment through the path table of
		// the segment before it (Nat.Succ names Nat's constructor Succ).
		head := n.Segments[0]
		id, ok := scope.Lookup(head)
		if !ok {
			return nil, errors.WrapReport(errors.Newf(errors.RES001, n.Pos, "unresolved name %q", head))
		}
		owner := head
		for _, seg := range n.Segments[1:] {
			child, found := r.paths.ByQualified[owner+"::"+seg]
			if !found {
				return nil, errors.WrapReport(errors.Newf(errors.RES001, n.Pos, "%q has no member %q", owner, seg))
			}
			id = child
			owner = seg
		}
		return &Var{Ref: Ref{Name: n.String(), Def: id}, Pos: n.Pos}, nil

	case *ast.App:
		fn, err := r.resolveExpr(scope, n.Func)
		if err != nil {
			return nil, err
		}
		args, err := r.resolveExprList(scope, n.Args)
		if err != nil {
			return nil, err
		}
		return &App{Func: fn, Args: args, Pos: n.Pos}, nil

	case *ast.Paren:
		inner, err := r.resolveExpr(scope, n.Inner)
		if err != nil {
			return nil, err
		}
		return &Paren{Inner: inner, Pos: n.Pos}, nil

	case *ast.Number:
		return &Number{Text: n.Text, IsFloat: n.IsFloat, Pos: n.Pos}, nil

	case *ast.String:
		return &String{Text: n.Text, Pos: n.Pos}, nil

	case *ast.FieldAccess:
		obj, err := r.resolveExpr(scope, n.Object)
		if err != nil {
			return nil, err
		}
		// Index is nil for the unindexed `arr.len` pseudo-method.
		var idx Expr
		if n.Index != nil {
			idx, err = r.resolveExpr(scope, n.Index)
			if err != nil {
				return nil, err
			}
		}
		return &FieldAccess{Object: obj, Field: n.Field, Index: idx, Pos: n.Pos}, nil

	case *ast.ConstructorCall:
		args, err := r.resolveExprList(scope, n.Args)
		if err != nil {
			return nil, err
		}
		var typeDef defid.ID
		if n.IsNewWithSize() {
			if id, ok := r.globals.Lookup(n.TypeName); ok {
				typeDef = id
			}
		} else {
			id, err := r.lookupConstructor(n.TypeName, n.Method, n.Pos)
			if err != nil {
				return nil, err
			}
			typeDef = id
		}
		return &ConstructorCall{TypeName: n.TypeName, TypeDef: typeDef, Method: n.Method, Args: args, Pos: n.Pos}, nil

	case *ast.Dereference:
		inner, err := r.resolveExpr(scope, n.Inner)
		if err != nil {
			return nil, err
		}
		return &Dereference{Inner: inner, Pos: n.Pos}, nil

	case *ast.If:
		cond, err := r.resolveExpr(scope, n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := r.resolveExpr(NewScope(scope), n.Then)
		if err != nil {
			return nil, err
		}
		var els Expr
		if n.Else != nil {
			els, err = r.resolveExpr(NewScope(scope), n.Else)
			if err != nil {
				return nil, err
			}
		}
		return &If{Cond: cond, Then: then, Else: els, Pos: n.Pos}, nil

	case *ast.Match:
		scrut, err := r.resolveExpr(scope, n.Scrutinee)
		if err != nil {
			return nil, err
		}
		arms := make([]MatchArm, len(n.Arms))
		for i, a := range n.Arms {
			ctorID, err := r.lookupConstructor("", a.Constructor, a.Pos)
			if err != nil {
				return nil, err
			}
			armScope := NewScope(scope)
			bound := make([]Param, len(a.BoundNames))
			for j, name := range a.BoundNames {
				id := r.gen.Fresh()
				armScope.Bind(name, id)
				bound[j] = Param{Def: id, Name: name}
			}
			body, err := r.resolveExpr(armScope, a.Body)
			if err != nil {
				return nil, err
			}
			arms[i] = MatchArm{Constructor: a.Constructor, ConstructorDef: ctorID, Bound: bound, Body: body, Pos: a.Pos}
		}
		return &Match{Scrutinee: scrut, Arms: arms, Pos: n.Pos}, nil
	}
	return nil, errors.WrapReport(errors.New(errors.RES003, e.Position(), "unrecognised expression kind"))
}
