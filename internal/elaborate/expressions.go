package elaborate

import (
	"strconv"
	"strings"

	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

// elaborateExpr assigns a TypeTerm to every node of a resolved
// expression, calling into the kernel (internal/cic) to
// type-check applications, and into its own literal/field-access rules
// otherwise. ctx carries the local (proc-param/let) type bindings; a
// Var whose DefId is not in ctx is looked up as a global Constant.
func (e *Elaborator) elaborateExpr(ctx *cic.Context, ex resolved.Expr) (typedast.Expr, error) {
	switch n := ex.(type) {
	case *resolved.Var:
		return e.elaborateVar(ctx, n)

	case *resolved.App:
		return e.elaborateApp(ctx, n)

	case *resolved.Paren:
		inner, err := e.elaborateExpr(ctx, n.Inner)
		if err != nil {
			return nil, err
		}
		return &typedast.Paren{Inner: inner, Type: inner.TypeOf(), Pos: n.Pos}, nil

	case *resolved.Number:
		return e.elaborateNumber(n)

	case *resolved.String:
		strTy, _ := baseConstant("str")
		return &typedast.String{Text: n.Text, Type: strTy, Pos: n.Pos}, nil

	case *resolved.FieldAccess:
		return e.elaborateFieldAccess(ctx, n)

	case *resolved.ConstructorCall:
		return e.elaborateConstructorCall(ctx, n)

	case *resolved.Dereference:
		inner, err := e.elaborateExpr(ctx, n.Inner)
		if err != nil {
			return nil, err
		}
		// e.* loads the value an address points to; the load's static
		// type is Inner's own TypeTerm.
		return &typedast.Dereference{Inner: inner, Type: inner.TypeOf(), Pos: n.Pos}, nil

	case *resolved.If:
		return e.elaborateIf(ctx, n)

	case *resolved.Match:
		return e.elaborateMatch(ctx, n)
	}
	return nil, errors.WrapReport(errors.New(errors.TYP004, ex.Position(), "unrecognised expression kind"))
}

func (e *Elaborator) elaborateExprList(ctx *cic.Context, exprs []resolved.Expr) ([]typedast.Expr, error) {
	out := make([]typedast.Expr, len(exprs))
	for i, x := range exprs {
		te, err := e.elaborateExpr(ctx, x)
		if err != nil {
			return nil, err
		}
		out[i] = te
	}
	return out, nil
}

func (e *Elaborator) elaborateVar(ctx *cic.Context, n *resolved.Var) (typedast.Expr, error) {
	if ty, ok := ctx.Lookup(n.Ref.Def); ok {
		return &typedast.Var{Ref: typedast.Ref{Name: n.Ref.Name, Def: n.Ref.Def}, Type: ty, Pos: n.Pos}, nil
	}
	ty, err := e.tc.Infer(ctx, cic.Constant{Def: n.Ref.Def})
	if err != nil {
		return nil, asReport(n.Pos, err)
	}
	return &typedast.Var{Ref: typedast.Ref{Name: n.Ref.Name, Def: n.Ref.Def}, Type: ty, Pos: n.Pos}, nil
}

func (e *Elaborator) elaborateApp(ctx *cic.Context, n *resolved.App) (typedast.Expr, error) {
	fn, err := e.elaborateExpr(ctx, n.Func)
	if err != nil {
		return nil, err
	}
	args, err := e.elaborateExprList(ctx, n.Args)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		// A nullary call (`ctaid_x()`): the callee's registered type
		// is already the call's result type.
		return &typedast.App{Func: fn, Type: fn.TypeOf(), Pos: n.Pos}, nil
	}
	expected := cic.WHNF(e.env, fn.TypeOf())
	for _, a := range args {
		prod, ok := expected.(cic.Product)
		if !ok {
			break
		}
		retypeBareLiteral(a, prod.Source)
		expected = cic.WHNF(e.env, prod.Target)
	}
	fnTerm, ctx := e.valueTerm(ctx, fn)
	argTerms := make([]cic.Term, len(args))
	for i, a := range args {
		argTerms[i], ctx = e.valueTerm(ctx, a)
	}
	resultTy, err := e.tc.Infer(ctx, cic.Application{Func: fnTerm, Args: argTerms})
	if err != nil {
		return nil, asReport(n.Pos, err)
	}
	return &typedast.App{Func: fn, Args: args, Type: resultTy, Pos: n.Pos}, nil
}

// valueTerm reconstructs the cic.Term a typedast.Expr denotes *as a
// value* (as opposed to its TypeTerm) so it can stand as an
// Application argument inside the kernel. A Var still bound in ctx is
// a kernel Variable; a Var naming a global (a #proc/#use_builtin/
// #definition/constructor name, all registered as env.Constants) is a
// Constant. Any other expression — a number, field load, procedural
// call result — is an ordinary runtime value; it stands in for kernel
// argument-checking as a fresh opaque variable bound in the returned
// context at its own inferred type, so the Product's "argument
// convertible to parameter" rule still fires without requiring every
// procedural expression to be representable as a literal CIC term.
func (e *Elaborator) valueTerm(ctx *cic.Context, x typedast.Expr) (cic.Term, *cic.Context) {
	switch n := x.(type) {
	case *typedast.Var:
		if _, ok := ctx.Lookup(n.Ref.Def); ok {
			return cic.Variable{Def: n.Ref.Def}, ctx
		}
		return cic.Constant{Def: n.Ref.Def}, ctx
	case *typedast.Paren:
		return e.valueTerm(ctx, n.Inner)
	}
	id := e.gen.Fresh()
	return cic.Variable{Def: id}, ctx.Extend(id, x.TypeOf())
}

func (e *Elaborator) elaborateNumber(n *resolved.Number) (typedast.Expr, error) {
	kind, baseName := classifyNumber(n.Text, n.IsFloat)
	ty, ok := baseConstant(baseName)
	if !ok {
		return nil, errors.WrapReport(errors.Newf(errors.TYP005, n.Pos, "literal %q has unknown base type %q", n.Text, baseName))
	}
	return &typedast.Number{Text: n.Text, Kind: kind, Type: ty, Pos: n.Pos}, nil
}

// literalSuffixes is every type suffix the lexer lets a numeric
// literal carry.
var literalSuffixes = []string{"u64", "i64", "u32", "i32", "u16", "i16", "u8", "i8", "f32", "f64"}

func hasTypeSuffix(text string) bool {
	for _, s := range literalSuffixes {
		if strings.HasSuffix(text, s) {
			return true
		}
	}
	return false
}

var kindForBase = map[string]typedast.NumberKind{
	"u64": typedast.NumU64, "i64": typedast.NumI64,
	"u32": typedast.NumU32, "i32": typedast.NumI32,
	"u16": typedast.NumU16, "i16": typedast.NumI16,
	"u8": typedast.NumU8, "i8": typedast.NumI8,
	"f32": typedast.NumF32, "f64": typedast.NumF64,
}

// retypeBareLiteral lets an unsuffixed numeric literal adopt the type
// it is being checked against: a bare integer literal fits any
// integer base type, a bare float literal fits f32/f64. Suffixed
// literals keep their declared type and fail convertibility like any
// other mismatch.
func retypeBareLiteral(x typedast.Expr, want cic.Term) {
	switch n := x.(type) {
	case *typedast.Paren:
		retypeBareLiteral(n.Inner, want)
		n.Type = n.Inner.TypeOf()
	case *typedast.Number:
		if hasTypeSuffix(n.Text) {
			return
		}
		name := baseName(want)
		switch {
		case n.Kind == typedast.NumI64 && isIntegerBase(want),
			n.Kind == typedast.NumF32 && (name == "f32" || name == "f64"):
			n.Type = want
			n.Kind = kindForBase[name]
		}
	}
}

// classifyNumber splits a lexed numeric literal's optional type suffix
// from its digits, defaulting to i64, or f32 for an unsuffixed
// float.
func classifyNumber(text string, isFloat bool) (typedast.NumberKind, string) {
	suffixes := []struct {
		suffix string
		kind   typedast.NumberKind
	}{
		{"u64", typedast.NumU64}, {"i64", typedast.NumI64},
		{"f32", typedast.NumF32}, {"f64", typedast.NumF64},
		{"u32", typedast.NumU32}, {"i32", typedast.NumI32},
		{"u16", typedast.NumU16}, {"i16", typedast.NumI16},
		{"u8", typedast.NumU8}, {"i8", typedast.NumI8},
	}
	for _, s := range suffixes {
		if strings.HasSuffix(text, s.suffix) {
			digits := strings.TrimSuffix(text, s.suffix)
			if _, err := strconv.ParseFloat(digits, 64); err == nil {
				return s.kind, s.suffix
			}
		}
	}
	if isFloat {
		return typedast.NumF32, "f32"
	}
	return typedast.NumI64, "i64"
}

func (e *Elaborator) elaborateIf(ctx *cic.Context, n *resolved.If) (typedast.Expr, error) {
	cond, err := e.elaborateExpr(ctx, n.Cond)
	if err != nil {
		return nil, err
	}
	then, err := e.elaborateExpr(ctx, n.Then)
	if err != nil {
		return nil, err
	}
	if n.Else == nil {
		return &typedast.If{Cond: cond, Then: then, Type: then.TypeOf(), Pos: n.Pos}, nil
	}
	els, err := e.elaborateExpr(ctx, n.Else)
	if err != nil {
		return nil, err
	}
	if !cic.IsConvertible(e.env, then.TypeOf(), els.TypeOf()) {
		return nil, asReport(n.Pos, &cic.TypeError{
			Kind:     cic.TypeMismatch,
			Message:  "#if branches have different types",
			Expected: then.TypeOf(),
			Found:    els.TypeOf(),
		})
	}
	return &typedast.If{Cond: cond, Then: then, Else: els, Type: then.TypeOf(), Pos: n.Pos}, nil
}

func (e *Elaborator) elaborateFieldAccess(ctx *cic.Context, n *resolved.FieldAccess) (typedast.Expr, error) {
	obj, err := e.elaborateExpr(ctx, n.Object)
	if err != nil {
		return nil, err
	}
	if n.Index == nil {
		// The unindexed `arr.len` pseudo-method reads the array's stored
		// size; any other unindexed field access is malformed.
		if n.Field != "len" {
			return nil, errors.WrapReport(errors.Newf(errors.TYP004, n.Pos, "field %q requires an index", n.Field))
		}
		if _, err := e.arrayDeclFor(obj.TypeOf(), n.Pos); err != nil {
			return nil, err
		}
		u64Ty, _ := baseConstant("u64")
		return &typedast.FieldAccess{Object: obj, Field: n.Field, Type: u64Ty, Pos: n.Pos}, nil
	}
	idx, err := e.elaborateExpr(ctx, n.Index)
	if err != nil {
		return nil, err
	}
	fieldTy, err := e.lookupFieldType(obj.TypeOf(), n.Field, n.Pos)
	if err != nil {
		return nil, err
	}
	return &typedast.FieldAccess{Object: obj, Field: n.Field, Index: idx, Type: fieldTy, Pos: n.Pos}, nil
}

// arrayDeclFor resolves objTy to the SoA array decl its Constant DefId
// names.
func (e *Elaborator) arrayDeclFor(objTy cic.Term, pos ast.Pos) (*typedast.ArrayDecl, error) {
	c, ok := objTy.(cic.Constant)
	if !ok {
		return nil, errors.WrapReport(errors.New(errors.TYP004, pos, "field access on a non-array-typed value"))
	}
	arr, ok := e.arrayDecls[c.Def]
	if !ok {
		return nil, errors.WrapReport(errors.Newf(errors.TYP004, pos, "%s is not a declared SoA array type", c.Def))
	}
	return arr, nil
}

// lookupFieldType resolves obj.field's type through the SoA array decl
// that objTy's Constant DefId names.
func (e *Elaborator) lookupFieldType(objTy cic.Term, field string, pos ast.Pos) (cic.Term, error) {
	arr, err := e.arrayDeclFor(objTy, pos)
	if err != nil {
		return nil, err
	}
	for _, f := range arr.Item.Fields {
		if f.Name == field {
			return f.Type, nil
		}
	}
	return nil, errors.WrapReport(errors.Newf(errors.TYP004, pos, "array type %s has no field %q", arr.Name, field))
}

// elaborateConstructorCall type-checks `Type::method(args)`. For the
// new_with_size builtin method, resolution already bound TypeDef to
// the array type's own DefId (internal/resolved's resolver), and the
// call's value type is simply that array type. For a genuine
// constructor call, resolution bound TypeDef to the constructor's own
// DefId, so its declared telescope type drives ordinary application
// type-checking, one argument at a time.
func (e *Elaborator) elaborateConstructorCall(ctx *cic.Context, n *resolved.ConstructorCall) (typedast.Expr, error) {
	args, err := e.elaborateExprList(ctx, n.Args)
	if err != nil {
		return nil, err
	}
	if n.IsNewWithSize() {
		return &typedast.ConstructorCall{
			TypeName: n.TypeName, TypeDef: n.TypeDef, Method: n.Method,
			Args: args, Type: cic.Constant{Def: n.TypeDef}, Pos: n.Pos,
		}, nil
	}
	ctorTy, err := e.tc.Infer(ctx, cic.Constant{Def: n.TypeDef})
	if err != nil {
		return nil, asReport(n.Pos, err)
	}
	result := ctorTy
	for _, a := range args {
		w := cic.WHNF(e.env, result)
		prod, ok := w.(cic.Product)
		if !ok {
			return nil, errors.WrapReport(errors.Newf(errors.TYP003, n.Pos, "%s::%s is not a function", n.TypeName, n.Method))
		}
		retypeBareLiteral(a, prod.Source)
		if !cic.IsConvertible(e.env, a.TypeOf(), prod.Source) {
			return nil, asReport(n.Pos, &cic.TypeError{Kind: cic.TypeMismatch, Message: "constructor argument type mismatch", Expected: prod.Source, Found: a.TypeOf()})
		}
		av, _ := e.valueTerm(ctx, a)
		result = cic.Apply(prod.Target, cic.Single(prod.Var, av))
	}
	return &typedast.ConstructorCall{TypeName: n.TypeName, TypeDef: n.TypeDef, Method: n.Method, Args: args, Type: result, Pos: n.Pos}, nil
}

// elaborateMatch applies the kernel's Match typing rule at the
// surface-syntax level: every arm's bound names are typed from the
// matched constructor's own telescope, and the match's own result type is the first arm's
// inferred body type, checked convertible against every other arm
// (see elaborate.go's package doc for why this stands in for
// unification here).
func (e *Elaborator) elaborateMatch(ctx *cic.Context, n *resolved.Match) (typedast.Expr, error) {
	scrut, err := e.elaborateExpr(ctx, n.Scrutinee)
	if err != nil {
		return nil, err
	}
	scrutHead := cic.WHNF(e.env, scrut.TypeOf())
	scrutConst, ok := scrutHead.(cic.Constant)
	if !ok {
		return nil, errors.WrapReport(errors.New(errors.TYP009, n.Pos, "match scrutinee's type does not reduce to an inductive constant"))
	}
	ind, ok := e.env.Inductives[scrutConst.Def]
	if !ok {
		return nil, errors.WrapReport(errors.Newf(errors.TYP009, n.Pos, "%s is not a registered inductive type", scrutConst.Def))
	}
	if len(n.Arms) != len(ind.Constructors) {
		return nil, errors.WrapReport(errors.Newf(errors.TYP012, n.Pos, "match has %d arms but the scrutinee's type has %d constructors", len(n.Arms), len(ind.Constructors)))
	}

	arms := make([]typedast.MatchArm, len(n.Arms))
	var resultTy cic.Term
	for i, a := range n.Arms {
		ctor, owner, ok := e.env.Constructor(a.ConstructorDef)
		if !ok {
			return nil, errors.WrapReport(errors.Newf(errors.TYP010, a.Pos, "%s is not a known constructor", a.Constructor))
		}
		if owner.Def != ind.Def {
			return nil, errors.WrapReport(errors.Newf(errors.TYP011, a.Pos, "%s is not a constructor of the scrutinee's type", a.Constructor))
		}
		if ctor.Arity != len(a.Bound) {
			return nil, errors.WrapReport(errors.Newf(errors.TYP012, a.Pos, "constructor %s expects %d arguments, arm binds %d", a.Constructor, ctor.Arity, len(a.Bound)))
		}
		armCtx := ctx
		bound := make([]typedast.Param, len(a.Bound))
		argTy := ctor.Ty
		for j, b := range a.Bound {
			w := cic.WHNF(e.env, argTy)
			prod, ok := w.(cic.Product)
			if !ok {
				return nil, errors.WrapReport(errors.Newf(errors.TYP011, a.Pos, "constructor %s's telescope is shorter than its declared arity", a.Constructor))
			}
			armCtx = armCtx.Extend(b.Def, prod.Source)
			bound[j] = typedast.Param{Def: b.Def, Name: b.Name, Type: prod.Source}
			argTy = cic.Apply(prod.Target, cic.Single(prod.Var, cic.Variable{Def: b.Def}))
		}
		body, err := e.elaborateExpr(armCtx, a.Body)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			resultTy = body.TypeOf()
		} else if !cic.IsConvertible(e.env, body.TypeOf(), resultTy) {
			return nil, asReport(a.Pos, &cic.TypeError{
				Kind:     cic.TypeMismatch,
				Message:  "match arm for " + a.Constructor + " does not match the other arms' type",
				Expected: resultTy,
				Found:    body.TypeOf(),
			})
		}
		arms[i] = typedast.MatchArm{Constructor: a.Constructor, ConstructorDef: a.ConstructorDef, Bound: bound, Body: body, Pos: a.Pos}
	}
	return &typedast.Match{Scrutinee: scrut, Arms: arms, Type: resultTy, Pos: n.Pos}, nil
}
