package x86

import (
	"github.com/sunholo/felis/internal/codegen/numlit"
	"github.com/sunholo/felis/internal/elaborate"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/typedast"
)

// loadSized loads an element of the given byte width from the address
// in rax into rax, zero-extending narrow widths so the full register
// always carries the value.
func (e *Emitter) loadSized(size int) {
	switch size {
	case 1:
		e.writeln("movzx rax, byte ptr [rax]")
	case 2:
		e.writeln("movzx rax, word ptr [rax]")
	case 4:
		e.writeln("mov eax, dword ptr [rax]")
	default:
		e.writeln("mov rax, qword ptr [rax]")
	}
}

// storeSized stores rax's low bytes through the address in rbx at the
// given element width.
func (e *Emitter) storeSized(size int) {
	switch size {
	case 1:
		e.writeln("mov byte ptr [rbx], al")
	case 2:
		e.writeln("mov word ptr [rbx], ax")
	case 4:
		e.writeln("mov dword ptr [rbx], eax")
	default:
		e.writeln("mov qword ptr [rbx], rax")
	}
}

// emitExpr evaluates e, leaving its value in rax (integers/pointers)
// or xmm0 (f32).
func (e *Emitter) emitExpr(expr typedast.Expr) error {
	switch n := expr.(type) {
	case *typedast.Number:
		return e.emitNumber(n)

	case *typedast.String:
		lbl := e.stringLabel(n.Text)
		e.writeln("lea rax, %s", lbl)
		return nil

	case *typedast.Var:
		off, ok := e.layout.offsets[n.Ref.Def]
		if !ok {
			return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "variable %s has no stack slot", n.Ref.Name))
		}
		if isFloat(n) {
			e.writeln("movss xmm0, [rbp%+d]", off)
		} else {
			e.writeln("mov rax, [rbp%+d]", off)
		}
		return nil

	case *typedast.Paren:
		return e.emitExpr(n.Inner)

	case *typedast.Dereference:
		if err := e.emitExpr(n.Inner); err != nil {
			return err
		}
		if isFloat(n) {
			e.writeln("movss xmm0, [rax]")
		} else {
			e.loadSized(elaborate.ElementSize(n.Type))
		}
		return nil

	case *typedast.FieldAccess:
		return e.emitFieldAccess(n)

	case *typedast.If:
		return e.emitIfExpr(n)

	case *typedast.App:
		return e.emitApp(n)

	case *typedast.ConstructorCall:
		// A bare (non-#let) constructor call has no storage to
		// populate; the only constructor call that reaches codegen
		// with meaning is `T::new_with_size(n)` bound by a #let
		// (handled in emitLet/buildLayout). Anywhere else it is a
		// no-op value.
		e.writeln("xor rax, rax")
		return nil

	case *typedast.Match:
		return e.emitMatch(n)
	}
	return errors.WrapReport(errors.New(errors.GEN002, expr.Position(), "unsupported expression for x86 codegen"))
}

func (e *Emitter) emitNumber(n *typedast.Number) error {
	switch n.Kind {
	case typedast.NumF32, typedast.NumF64:
		bits, err := numlit.Float32Bits(n.Text)
		if err != nil {
			return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "invalid float literal %q", n.Text))
		}
		e.writeln("mov eax, %d", bits)
		e.writeln("movd xmm0, eax")
		return nil
	default:
		v, err := numlit.ParseInt(n.Text)
		if err != nil {
			return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "invalid integer literal %q", n.Text))
		}
		e.writeln("mov rax, %d", v)
		return nil
	}
}

// emitFieldAccess lowers `obj.field[idx]` (a concrete element read) or
// `obj.len` (the stored size, Index == nil) against an SoA array
// variable.
func (e *Emitter) emitFieldAccess(n *typedast.FieldAccess) error {
	v, ok := n.Object.(*typedast.Var)
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "field access on a non-variable object is not supported"))
	}
	sl, ok := e.layout.soaByName[v.Ref.Name]
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "%s is not an SoA array variable", v.Ref.Name))
	}
	if n.Field == "len" && n.Index == nil {
		e.writeln("mov rax, [rbp%+d]", sl.sizeOffset)
		return nil
	}
	fieldOff, ok := sl.fieldOffset[n.Field]
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "array %s has no field %s", sl.arr.Name, n.Field))
	}
	elemSize := fieldElementSize(sl, n.Field)
	if err := e.emitExpr(n.Index); err != nil {
		return err
	}
	e.writeln("mov rbx, rax")
	e.writeln("imul rbx, %d", elemSize)
	e.writeln("mov rax, [rbp%+d]", fieldOff)
	e.writeln("add rax, rbx")
	if isFloat(n) {
		e.writeln("movss xmm0, [rax]")
	} else {
		e.loadSized(elemSize)
	}
	return nil
}

func fieldElementSize(sl *soaLayout, field string) int {
	for _, f := range sl.arr.Item.Fields {
		if f.Name == field {
			return elaborate.ElementSize(f.Type)
		}
	}
	return 8
}

// emitApp lowers an application: either a recognised builtin or a user #proc call (System-V
// argument passing).
func (e *Emitter) emitApp(n *typedast.App) error {
	v, ok := n.Func.(*typedast.Var)
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "call target must be a direct name"))
	}
	if name, ok := e.builtinNames[v.Ref.Def]; ok {
		return e.emitBuiltinCall(name, n)
	}
	if procName, ok := e.procNames[v.Ref.Def]; ok {
		return e.emitProcCall(procName, n.Args)
	}
	return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "%s does not name a builtin or a #proc", v.Ref.Name))
}

// emitProcCall evaluates each argument, pushing its value so later
// argument evaluations cannot clobber earlier results, then pops them
// into the System-V integer argument registers in order.
func (e *Emitter) emitProcCall(name string, args []typedast.Expr) error {
	for _, a := range args {
		if err := e.emitExpr(a); err != nil {
			return err
		}
		if isFloat(a) {
			e.writeln("sub rsp, 8")
			e.writeln("movss [rsp], xmm0")
		} else {
			e.writeln("push rax")
		}
	}
	for i := len(args) - 1; i >= 0; i-- {
		if i >= len(argRegs) {
			e.writeln("add rsp, 8")
			continue
		}
		// An f32 argument's bits sit in the low half of its stack cell,
		// so it travels in the integer register like any other value.
		e.writeln("pop %s", argRegs[i])
	}
	e.writeln("call %s", name)
	return nil
}

func (e *Emitter) emitIfExpr(n *typedast.If) error {
	elseLabel := e.newLabel("else")
	endLabel := e.newLabel("endif")
	if err := e.emitExpr(n.Cond); err != nil {
		return err
	}
	e.writeln("cmp rax, 0")
	e.writeln("je %s", elseLabel)
	if err := e.emitExpr(n.Then); err != nil {
		return err
	}
	e.writeln("jmp %s", endLabel)
	e.label(elseLabel)
	if n.Else != nil {
		if err := e.emitExpr(n.Else); err != nil {
			return err
		}
	}
	e.label(endLabel)
	return nil
}

// emitMatch is reached when a #proc body contains a #match
// expression; the x86 backend has no lowering for match and reports
// GEN002.
func (e *Emitter) emitMatch(n *typedast.Match) error {
	return errors.WrapReport(errors.New(errors.GEN002, n.Pos, "match expressions have no x86 code-gen path"))
}
