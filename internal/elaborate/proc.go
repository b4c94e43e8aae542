package elaborate

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

// elaborateProc type-checks a #proc body statement by statement,
// threading a cic.Context extended by every parameter and local
// binder, and collects every #let/#let mut slot into Locals in source
// order for the backend's stack layout.
func (e *Elaborator) elaborateProc(n *resolved.ProcDef) (typedast.Item, error) {
	scope := newTypeScope(nil)
	ctx := cic.NewContext()
	params := make([]typedast.Param, len(n.Params))
	for i, p := range n.Params {
		ty, err := e.termFromType(p.Type, scope)
		if err != nil {
			return nil, asReport(n.Pos, err)
		}
		params[i] = typedast.Param{Def: p.Def, Name: p.Name, Type: ty}
		ctx = ctx.Extend(p.Def, ty)
		scope.bind(p.Name, p.Def)
	}
	result, err := e.termFromType(n.Result, scope)
	if err != nil {
		return nil, asReport(n.Pos, err)
	}

	pe := &procElaborator{e: e, ctx: ctx}
	body, err := pe.block(n.Body)
	if err != nil {
		return nil, err
	}

	return &typedast.ProcDef{
		Def:    n.Def,
		Name:   n.Name,
		Params: params,
		Result: result,
		Locals: pe.locals,
		Body:   body,
		Pos:    n.Pos,
	}, nil
}

// procElaborator carries the running cic.Context (extended as #let/
// #let mut binders come into scope) and the accumulated local-slot
// list through one proc body's statements.
type procElaborator struct {
	e      *Elaborator
	ctx    *cic.Context
	locals []typedast.LocalSlot
}

func (p *procElaborator) block(stmts []resolved.Statement) ([]typedast.Statement, error) {
	out := make([]typedast.Statement, 0, len(stmts))
	for _, s := range stmts {
		ts, err := p.stmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func (p *procElaborator) stmt(s resolved.Statement) (typedast.Statement, error) {
	switch n := s.(type) {
	case *resolved.Let:
		val, err := p.e.elaborateExpr(p.ctx, n.Value)
		if err != nil {
			return nil, err
		}
		ty := val.TypeOf()
		p.ctx = p.ctx.Extend(n.Def, ty)
		p.locals = append(p.locals, typedast.LocalSlot{Def: n.Def, Name: n.Name, Type: ty})
		return &typedast.Let{Def: n.Def, Name: n.Name, Type: ty, Value: val, Pos: n.Pos}, nil

	case *resolved.LetMut:
		val, err := p.e.elaborateExpr(p.ctx, n.Value)
		if err != nil {
			return nil, err
		}
		ty := val.TypeOf()
		p.ctx = p.ctx.Extend(n.ValueDef, ty)
		// The reference name is an alias for the value slot's
		// address; it shares the value's TypeTerm so a
		// later `ref_name.*` (Dereference) type-checks as that same
		// type. It gets its own stack slot too: the backend stores the
		// lea'd address there, separate from the value's own slot.
		p.ctx = p.ctx.Extend(n.RefDef, ty)
		p.locals = append(p.locals,
			typedast.LocalSlot{Def: n.ValueDef, Name: n.Name, Type: ty},
			typedast.LocalSlot{Def: n.RefDef, Name: n.RefName, Type: ty},
		)
		return &typedast.LetMut{
			ValueDef: n.ValueDef, Name: n.Name, RefDef: n.RefDef, RefName: n.RefName,
			Type: ty, Value: val, Pos: n.Pos,
		}, nil

	case *resolved.Assign:
		targetTy, ok := p.ctx.Lookup(n.Target.Def)
		if !ok {
			return nil, errors.WrapReport(errors.Newf(errors.TYP001, n.Pos, "%s has no binding in scope", n.Target.Name))
		}
		val, err := p.e.elaborateExpr(p.ctx, n.Value)
		if err != nil {
			return nil, err
		}
		retypeBareLiteral(val, targetTy)
		if !cic.IsConvertible(p.e.env, val.TypeOf(), targetTy) {
			return nil, asReport(n.Pos, &cic.TypeError{
				Kind: cic.TypeMismatch, Message: "assignment to " + n.Target.Name + " does not match its type",
				Expected: targetTy, Found: val.TypeOf(),
			})
		}
		return &typedast.Assign{Target: typedast.Ref{Name: n.Target.Name, Def: n.Target.Def}, Value: val, Pos: n.Pos}, nil

	case *resolved.FieldAssign:
		obj, err := p.e.elaborateExpr(p.ctx, n.Object)
		if err != nil {
			return nil, err
		}
		idx, err := p.e.elaborateExpr(p.ctx, n.Index)
		if err != nil {
			return nil, err
		}
		val, err := p.e.elaborateExpr(p.ctx, n.Value)
		if err != nil {
			return nil, err
		}
		fieldTy, err := p.e.lookupFieldType(obj.TypeOf(), n.Field, n.Pos)
		if err != nil {
			return nil, err
		}
		retypeBareLiteral(val, fieldTy)
		if !cic.IsConvertible(p.e.env, val.TypeOf(), fieldTy) {
			return nil, asReport(n.Pos, &cic.TypeError{
				Kind: cic.TypeMismatch, Message: "field assignment to ." + n.Field + " does not match its declared type",
				Expected: fieldTy, Found: val.TypeOf(),
			})
		}
		return &typedast.FieldAssign{Object: obj, Field: n.Field, Index: idx, Value: val, Pos: n.Pos}, nil

	case *resolved.ExprStmt:
		val, err := p.e.elaborateExpr(p.ctx, n.Value)
		if err != nil {
			return nil, err
		}
		return &typedast.ExprStmt{Value: val, Pos: n.Pos}, nil

	case *resolved.IfStmt:
		cond, err := p.e.elaborateExpr(p.ctx, n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := p.block(n.Then)
		if err != nil {
			return nil, err
		}
		var els []typedast.Statement
		if n.Else != nil {
			els, err = p.block(n.Else)
			if err != nil {
				return nil, err
			}
		}
		return &typedast.IfStmt{Cond: cond, Then: then, Else: els, Pos: n.Pos}, nil

	case *resolved.Loop:
		body, err := p.block(n.Body)
		if err != nil {
			return nil, err
		}
		return &typedast.Loop{Body: body, Pos: n.Pos}, nil

	case *resolved.Break:
		return &typedast.Break{Pos: n.Pos}, nil

	case *resolved.Continue:
		return &typedast.Continue{Pos: n.Pos}, nil

	case *resolved.Return:
		if n.Value == nil {
			return &typedast.Return{Pos: n.Pos}, nil
		}
		val, err := p.e.elaborateExpr(p.ctx, n.Value)
		if err != nil {
			return nil, err
		}
		return &typedast.Return{Value: val, Pos: n.Pos}, nil

	case *resolved.CallPtx:
		args, err := p.e.elaborateExprList(p.ctx, n.Args)
		if err != nil {
			return nil, err
		}
		if err := p.e.checkCallArgs(p.ctx, n.ProcDef, args, n.Pos); err != nil {
			return nil, err
		}
		return &typedast.CallPtx{ProcName: n.ProcName, ProcDef: n.ProcDef, Args: args, Pos: n.Pos}, nil
	}
	return nil, errors.WrapReport(errors.New(errors.TYP004, s.Position(), "unrecognised statement kind"))
}

// checkCallArgs type-checks a #call_ptx's arguments against the
// callee's registered signature, reusing the kernel's own Application
// rule; its result type is
// discarded since a kernel launch is a statement, not a value.
func (e *Elaborator) checkCallArgs(ctx *cic.Context, fn defid.ID, args []typedast.Expr, pos ast.Pos) error {
	if len(args) == 0 {
		if _, ok := e.env.Constants[fn]; !ok {
			return errors.WrapReport(errors.Newf(errors.TYP002, pos, "%s has no registered signature", fn))
		}
		return nil
	}
	if def, ok := e.env.Constants[fn]; ok {
		expected := cic.WHNF(e.env, def.Ty)
		for _, a := range args {
			prod, ok := expected.(cic.Product)
			if !ok {
				break
			}
			retypeBareLiteral(a, prod.Source)
			expected = cic.WHNF(e.env, prod.Target)
		}
	}
	argTerms := make([]cic.Term, len(args))
	for i, a := range args {
		argTerms[i], ctx = e.valueTerm(ctx, a)
	}
	if _, err := e.tc.Infer(ctx, cic.Application{Func: cic.Constant{Def: fn}, Args: argTerms}); err != nil {
		return asReport(pos, err)
	}
	return nil
}
