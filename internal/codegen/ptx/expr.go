package ptx

import (
	"github.com/sunholo/felis/internal/builtins"
	"github.com/sunholo/felis/internal/codegen/numlit"
	"github.com/sunholo/felis/internal/elaborate"
	"github.com/sunholo/felis/internal/typedast"
)

// value is one expression's compiled result: the register holding it
// and its register class, since a PTX operation's mnemonic suffix
// (.u64/.f32) depends on operand width.
type value struct {
	reg  string
	kind regKind
}

func (e *Emitter) emitExpr(expr typedast.Expr) (value, error) {
	switch n := expr.(type) {
	case *typedast.Number:
		return e.emitNumber(n)

	case *typedast.Var:
		reg, ok := e.regs[n.Ref.Def]
		if !ok {
			return value{}, unsupported(n.Pos, "variable "+n.Ref.Name+" has no PTX register bound")
		}
		return value{reg: reg, kind: e.kind[n.Ref.Def]}, nil

	case *typedast.Paren:
		return e.emitExpr(n.Inner)

	case *typedast.FieldAccess:
		return e.emitFieldLoad(n)

	case *typedast.App:
		return e.emitApp(n)

	case *typedast.If:
		return e.emitIfExpr(n)
	}
	return value{}, unsupported(expr.Position(), "unsupported expression for PTX codegen")
}

func (e *Emitter) emitNumber(n *typedast.Number) (value, error) {
	if n.Kind == typedast.NumF32 || n.Kind == typedast.NumF64 {
		bits, err := numlit.Float32Bits(n.Text)
		if err != nil {
			return value{}, unsupported(n.Pos, "invalid float literal "+n.Text)
		}
		reg := e.freshF32()
		e.writeln("mov.b32 %s, 0x%08x;", reg, bits)
		return value{reg: reg, kind: kindF32}, nil
	}
	v, err := numlit.ParseInt(n.Text)
	if err != nil {
		return value{}, unsupported(n.Pos, "invalid integer literal "+n.Text)
	}
	reg := e.freshB64()
	e.writeln("mov.u64 %s, %d;", reg, v)
	return value{reg: reg, kind: kindU64}, nil
}

// soaFieldReg resolves obj (an SoA-array kernel parameter Var) and a
// field name to the global-space register holding that field's device
// pointer, bound per-field when the kernel's parameters were loaded.
func (e *Emitter) soaFieldReg(obj typedast.Expr, field string) (string, error) {
	v, ok := obj.(*typedast.Var)
	if !ok {
		return "", unsupported(obj.Position(), "field access target must be a kernel parameter variable")
	}
	regs, ok := e.fieldRegs[v.Ref.Def]
	if !ok {
		return "", unsupported(obj.Position(), v.Ref.Name+" is not an SoA array kernel parameter")
	}
	reg, ok := regs[field]
	if !ok {
		return "", unsupported(obj.Position(), v.Ref.Name+" has no field "+field)
	}
	return reg, nil
}

func (e *Emitter) emitFieldLoad(n *typedast.FieldAccess) (value, error) {
	if n.Index == nil {
		return value{}, unsupported(n.Pos, "the len pseudo-method is not available inside a kernel")
	}
	fieldPtr, err := e.soaFieldReg(n.Object, n.Field)
	if err != nil {
		return value{}, err
	}
	idx, err := e.emitExpr(n.Index)
	if err != nil {
		return value{}, err
	}
	off := e.freshB64()
	e.writeln("mul.lo.u64 %s, %s, 8;", off, idx.reg)
	addr := e.freshB64()
	e.writeln("add.u64 %s, %s, %s;", addr, fieldPtr, off)
	if elaborate.IsFloatType(n.Type) {
		reg := e.freshF32()
		e.writeln("ld.global.f32 %s, [%s];", reg, addr)
		return value{reg: reg, kind: kindF32}, nil
	}
	reg := e.freshB64()
	e.writeln("ld.global.u64 %s, [%s];", reg, addr)
	return value{reg: reg, kind: kindU64}, nil
}

func (e *Emitter) emitApp(n *typedast.App) (value, error) {
	v, ok := n.Func.(*typedast.Var)
	if !ok {
		return value{}, unsupported(n.Pos, "call target must be a direct name")
	}
	name, ok := e.builtinNameOf(v)
	if !ok {
		return value{}, unsupported(n.Pos, v.Ref.Name+" does not name a PTX-recognised builtin")
	}
	return e.emitBuiltin(name, n)
}

// builtinNameOf looks the referring Var up in the builtin table by
// surface name. A prelude builtin is recognised directly; a
// #use_builtin alias is recognised only when its local name is itself
// a builtin name, since the alias target is not consulted.
func (e *Emitter) builtinNameOf(v *typedast.Var) (string, bool) {
	if _, ok := builtins.Lookup(v.Ref.Name); ok {
		return v.Ref.Name, true
	}
	return "", false
}

func (e *Emitter) emitBuiltin(name string, n *typedast.App) (value, error) {
	switch name {
	case "ctaid_x", "ntid_x", "tid_x":
		return e.emitSpecialReg(name)
	case "u64_add", "u64_sub", "u64_mul", "u64_div", "u64_mod", "u64_eq":
		return e.emitU64Binop(name, n.Args)
	case "f32_add", "f32_sub", "f32_mul", "f32_div":
		return e.emitF32Binop(name, n.Args)
	case "u64_to_f32":
		a, err := e.emitExpr(n.Args[0])
		if err != nil {
			return value{}, err
		}
		reg := e.freshF32()
		e.writeln("cvt.rn.f32.u64 %s, %s;", reg, a.reg)
		return value{reg: reg, kind: kindF32}, nil
	case "f32_to_u64":
		a, err := e.emitExpr(n.Args[0])
		if err != nil {
			return value{}, err
		}
		reg := e.freshB64()
		e.writeln("cvt.rzi.u64.f32 %s, %s;", reg, a.reg)
		return value{reg: reg, kind: kindU64}, nil
	case "u64":
		return e.emitExpr(n.Args[0])
	case "f32":
		a, err := e.emitExpr(n.Args[0])
		if err != nil {
			return value{}, err
		}
		reg := e.freshF32()
		e.writeln("cvt.rn.f32.u64 %s, %s;", reg, a.reg)
		return value{reg: reg, kind: kindF32}, nil
	}
	return value{}, unsupported(n.Pos, "builtin "+name+" has no PTX lowering")
}

// emitSpecialReg reads a CUDA special register (%tid.x etc.) into a
// fresh .b32 register, then zero-extends to .b64 for uniform index
// arithmetic.
func (e *Emitter) emitSpecialReg(name string) (value, error) {
	var sreg string
	switch name {
	case "ctaid_x":
		sreg = "%ctaid.x"
	case "ntid_x":
		sreg = "%ntid.x"
	case "tid_x":
		sreg = "%tid.x"
	}
	r32 := e.freshB32()
	e.writeln("mov.u32 %s, %s;", r32, sreg)
	rd := e.freshB64()
	e.writeln("cvt.u64.u32 %s, %s;", rd, r32)
	return value{reg: rd, kind: kindU64}, nil
}

func (e *Emitter) emitU64Binop(name string, args []typedast.Expr) (value, error) {
	a, err := e.emitExpr(args[0])
	if err != nil {
		return value{}, err
	}
	b, err := e.emitExpr(args[1])
	if err != nil {
		return value{}, err
	}
	dst := e.freshB64()
	switch name {
	case "u64_add":
		e.writeln("add.u64 %s, %s, %s;", dst, a.reg, b.reg)
	case "u64_sub":
		e.writeln("sub.u64 %s, %s, %s;", dst, a.reg, b.reg)
	case "u64_mul":
		e.writeln("mul.lo.u64 %s, %s, %s;", dst, a.reg, b.reg)
	case "u64_div":
		e.writeln("div.u64 %s, %s, %s;", dst, a.reg, b.reg)
	case "u64_mod":
		e.writeln("rem.u64 %s, %s, %s;", dst, a.reg, b.reg)
	case "u64_eq":
		pred := e.freshPred()
		e.writeln("setp.eq.u64 %s, %s, %s;", pred, a.reg, b.reg)
		e.writeln("selp.u64 %s, 1, 0, %s;", dst, pred)
	}
	return value{reg: dst, kind: kindU64}, nil
}

func (e *Emitter) emitF32Binop(name string, args []typedast.Expr) (value, error) {
	a, err := e.emitExpr(args[0])
	if err != nil {
		return value{}, err
	}
	b, err := e.emitExpr(args[1])
	if err != nil {
		return value{}, err
	}
	dst := e.freshF32()
	switch name {
	case "f32_add":
		e.writeln("add.f32 %s, %s, %s;", dst, a.reg, b.reg)
	case "f32_sub":
		e.writeln("sub.f32 %s, %s, %s;", dst, a.reg, b.reg)
	case "f32_mul":
		e.writeln("mul.f32 %s, %s, %s;", dst, a.reg, b.reg)
	case "f32_div":
		e.writeln("div.approx.f32 %s, %s, %s;", dst, a.reg, b.reg)
	}
	return value{reg: dst, kind: kindF32}, nil
}

func (e *Emitter) emitIfExpr(n *typedast.If) (value, error) {
	cond, err := e.emitExpr(n.Cond)
	if err != nil {
		return value{}, err
	}
	elseLabel := e.newLabel("else")
	endLabel := e.newLabel("endif")
	pred := e.freshPred()
	e.writeln("setp.eq.u64 %s, %s, 0;", pred, cond.reg)
	e.writeln("@%s bra %s;", pred, elseLabel)
	thenVal, err := e.emitExpr(n.Then)
	if err != nil {
		return value{}, err
	}
	e.writeln("bra.uni %s;", endLabel)
	e.label(elseLabel)
	if n.Else != nil {
		if _, err := e.emitExpr(n.Else); err != nil {
			return value{}, err
		}
	}
	e.label(endLabel)
	return thenVal, nil
}
