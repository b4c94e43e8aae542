package ptx

import "github.com/sunholo/felis/internal/typedast"

func (e *Emitter) emitStmt(s typedast.Statement) error {
	switch n := s.(type) {
	case *typedast.Let:
		v, err := e.emitExpr(n.Value)
		if err != nil {
			return err
		}
		e.regs[n.Def] = v.reg
		e.kind[n.Def] = v.kind
		return nil

	case *typedast.LetMut:
		v, err := e.emitExpr(n.Value)
		if err != nil {
			return err
		}
		e.regs[n.ValueDef] = v.reg
		e.kind[n.ValueDef] = v.kind
		// A kernel has no addressable stack, so "&y" is modelled as an
		// alias to the same register rather than a real address —
		// a kernel body has no use for reference semantics, so this
		// is a conservative stand-in.
		e.regs[n.RefDef] = v.reg
		e.kind[n.RefDef] = v.kind
		return nil

	case *typedast.Assign:
		v, err := e.emitExpr(n.Value)
		if err != nil {
			return err
		}
		// Write through the target's existing register rather than
		// rebinding: earlier instructions (a loop-head compare) already
		// reference it, so the register must stay the live home of the
		// mutable variable.
		tgt, ok := e.regs[n.Target.Def]
		if !ok {
			return unsupported(n.Pos, n.Target.Name+" has no PTX register bound")
		}
		if v.kind == kindF32 {
			e.writeln("mov.f32 %s, %s;", tgt, v.reg)
		} else {
			e.writeln("mov.u64 %s, %s;", tgt, v.reg)
		}
		return nil

	case *typedast.FieldAssign:
		return e.emitFieldAssign(n)

	case *typedast.ExprStmt:
		_, err := e.emitExpr(n.Value)
		return err

	case *typedast.IfStmt:
		return e.emitIfStmt(n)

	case *typedast.Loop:
		return e.emitLoop(n)

	case *typedast.Break:
		if len(e.loopStack) == 0 {
			return unsupported(n.Pos, "#break outside of a #loop")
		}
		e.writeln("bra.uni %s;", e.currentBreak())
		return nil

	case *typedast.Continue:
		if len(e.loopStack) == 0 {
			return unsupported(n.Pos, "#continue outside of a #loop")
		}
		e.writeln("bra.uni %s;", e.currentLoopStart())
		return nil

	case *typedast.Return:
		// A kernel entry point is void; #return emits a `ret;` in place
		// and its value expression is not evaluated.
		e.writeln("ret;")
		return nil
	}
	return unsupported(s.Position(), "unsupported statement for PTX codegen")
}

// emitFieldAssign lowers `arr.f[index] = v` inside a kernel: compute
// a byte offset (index * 8, width-agnostic) and store through the
// field's device pointer.
func (e *Emitter) emitFieldAssign(n *typedast.FieldAssign) error {
	fieldPtr, err := e.soaFieldReg(n.Object, n.Field)
	if err != nil {
		return err
	}
	idx, err := e.emitExpr(n.Index)
	if err != nil {
		return err
	}
	val, err := e.emitExpr(n.Value)
	if err != nil {
		return err
	}
	off := e.freshB64()
	e.writeln("mul.lo.u64 %s, %s, 8;", off, idx.reg)
	addr := e.freshB64()
	e.writeln("add.u64 %s, %s, %s;", addr, fieldPtr, off)
	if val.kind == kindF32 {
		e.writeln("st.global.f32 [%s], %s;", addr, val.reg)
	} else {
		e.writeln("st.global.u64 [%s], %s;", addr, val.reg)
	}
	return nil
}

func (e *Emitter) emitIfStmt(n *typedast.IfStmt) error {
	cond, err := e.emitExpr(n.Cond)
	if err != nil {
		return err
	}
	elseLabel := e.newLabel("else")
	endLabel := e.newLabel("endif")
	pred := e.freshPred()
	e.writeln("setp.eq.u64 %s, %s, 0;", pred, cond.reg)
	e.writeln("@%s bra %s;", pred, elseLabel)
	for _, st := range n.Then {
		if err := e.emitStmt(st); err != nil {
			return err
		}
	}
	e.writeln("bra.uni %s;", endLabel)
	e.label(elseLabel)
	for _, st := range n.Else {
		if err := e.emitStmt(st); err != nil {
			return err
		}
	}
	e.label(endLabel)
	return nil
}

func (e *Emitter) emitLoop(n *typedast.Loop) error {
	start := e.newLabel("loop")
	end := e.newLabel("loopend")
	e.pushLoop(start, end)
	defer e.popLoop()

	e.label(start)
	for _, st := range n.Body {
		if err := e.emitStmt(st); err != nil {
			return err
		}
	}
	e.writeln("bra.uni %s;", start)
	e.label(end)
	return nil
}
