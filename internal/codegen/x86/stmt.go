package x86

import (
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/typedast"
)

// emitStmt lowers one statement.
func (e *Emitter) emitStmt(s typedast.Statement) error {
	switch n := s.(type) {
	case *typedast.Let:
		return e.emitLet(n)
	case *typedast.LetMut:
		return e.emitLetMut(n)
	case *typedast.Assign:
		return e.emitAssign(n)
	case *typedast.FieldAssign:
		return e.emitFieldAssign(n)
	case *typedast.ExprStmt:
		return e.emitExpr(n.Value)
	case *typedast.IfStmt:
		return e.emitIfStmt(n)
	case *typedast.Loop:
		return e.emitLoop(n)
	case *typedast.Break:
		if len(e.loopStack) == 0 {
			return errors.WrapReport(errors.New(errors.GEN002, n.Pos, "#break outside of a #loop"))
		}
		e.writeln("jmp %s", e.currentBreak())
		return nil
	case *typedast.Continue:
		if len(e.loopStack) == 0 {
			return errors.WrapReport(errors.New(errors.GEN002, n.Pos, "#continue outside of a #loop"))
		}
		e.writeln("jmp %s", e.currentLoopStart())
		return nil
	case *typedast.Return:
		return e.emitReturn(n)
	case *typedast.CallPtx:
		return e.emitCallPtx(n)
	}
	return errors.WrapReport(errors.New(errors.GEN002, s.Position(), "unsupported statement for x86 codegen"))
}

// emitLet stores e's value into x's slot, with one exception:
// `#let v = T::new_with_size(n)` allocates one mmap per field instead
// of evaluating a normal value.
func (e *Emitter) emitLet(n *typedast.Let) error {
	if cc, ok := n.Value.(*typedast.ConstructorCall); ok && cc.IsNewWithSize() {
		return e.emitArrayAlloc(n, cc)
	}
	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	off := e.layout.offsetOf(n.Def)
	if isFloat(n.Value) {
		e.writeln("movss [rbp%+d], xmm0", off)
	} else {
		e.writeln("mov [rbp%+d], rax", off)
	}
	return nil
}

// emitArrayAlloc allocates a structure-of-arrays binding:
// one independent anonymous mmap per field, each sized
// `n * element_size(field)` for the requested size n, storing each
// returned pointer in its synthetic `<var>_<field>_ptr` slot and n in
// `<var>_size`.
func (e *Emitter) emitArrayAlloc(n *typedast.Let, cc *typedast.ConstructorCall) error {
	sl, ok := e.layout.soa[n.Def]
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "%s has no SoA layout computed", n.Name))
	}
	if len(cc.Args) != 1 {
		return errors.WrapReport(errors.Newf(errors.GEN003, n.Pos, "new_with_size expects exactly one size argument"))
	}
	if err := e.emitExpr(cc.Args[0]); err != nil {
		return err
	}
	e.writeln("mov [rbp%+d], rax", sl.sizeOffset)

	for _, f := range sl.arr.Item.Fields {
		size := fieldElementSize(sl, f.Name)
		e.writeln("mov rax, [rbp%+d]", sl.sizeOffset)
		e.writeln("imul rax, %d", size)
		// mmap(NULL, len, PROT_READ|PROT_WRITE, MAP_PRIVATE|MAP_ANONYMOUS, -1, 0)
		e.writeln("mov rsi, rax")
		e.writeln("xor rdi, rdi")
		e.writeln("mov rdx, 3")
		e.writeln("mov r10, 34")
		e.writeln("mov r8, -1")
		e.writeln("xor r9, r9")
		e.writeln("mov rax, 9")
		e.writeln("syscall")
		off, ok := sl.fieldOffset[f.Name]
		if !ok {
			return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "missing synthetic slot for field %s", f.Name))
		}
		e.writeln("mov [rbp%+d], rax", off)
	}
	// n's own declared slot carries no meaningful runtime value; zero
	// it for determinism.
	e.writeln("xor rax, rax")
	e.writeln("mov [rbp%+d], rax", e.layout.offsetOf(n.Def))
	return nil
}

// emitLetMut stores e's value at x's slot, then stores &x (x's slot
// address) into y's slot.
func (e *Emitter) emitLetMut(n *typedast.LetMut) error {
	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	valOff := e.layout.offsetOf(n.ValueDef)
	refOff := e.layout.offsetOf(n.RefDef)
	if isFloat(n.Value) {
		e.writeln("movss [rbp%+d], xmm0", valOff)
	} else {
		e.writeln("mov [rbp%+d], rax", valOff)
	}
	e.writeln("lea rax, [rbp%+d]", valOff)
	e.writeln("mov [rbp%+d], rax", refOff)
	return nil
}

// emitAssign lowers `y = e`, an assignment through a reference slot:
// the target's slot holds an address, not a value.
func (e *Emitter) emitAssign(n *typedast.Assign) error {
	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	off, ok := e.layout.offsets[n.Target.Def]
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "%s has no stack slot", n.Target.Name))
	}
	if isFloat(n.Value) {
		e.writeln("mov rbx, [rbp%+d]", off)
		e.writeln("movss [rbx], xmm0")
	} else {
		e.writeln("mov rbx, [rbp%+d]", off)
		e.writeln("mov [rbx], rax")
	}
	return nil
}

// emitFieldAssign lowers `obj.field[idx] = e` against an SoA array
// variable.
func (e *Emitter) emitFieldAssign(n *typedast.FieldAssign) error {
	v, ok := n.Object.(*typedast.Var)
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "field assignment target must be a variable"))
	}
	sl, ok := e.layout.soaByName[v.Ref.Name]
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "%s is not an SoA array variable", v.Ref.Name))
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
	e.writeln("push rax")

	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	e.writeln("pop rbx")
	if isFloat(n.Value) {
		e.writeln("movss [rbx], xmm0")
	} else {
		e.storeSized(elemSize)
	}
	return nil
}

func (e *Emitter) emitIfStmt(n *typedast.IfStmt) error {
	elseLabel := e.newLabel("else")
	endLabel := e.newLabel("endif")
	if err := e.emitExpr(n.Cond); err != nil {
		return err
	}
	e.writeln("cmp rax, 0")
	if n.Else == nil {
		e.writeln("je %s", endLabel)
	} else {
		e.writeln("je %s", elseLabel)
	}
	for _, st := range n.Then {
		if err := e.emitStmt(st); err != nil {
			return err
		}
	}
	if n.Else != nil {
		e.writeln("jmp %s", endLabel)
		e.label(elseLabel)
		for _, st := range n.Else {
			if err := e.emitStmt(st); err != nil {
				return err
			}
		}
	}
	e.label(endLabel)
	return nil
}

func (e *Emitter) emitLoop(n *typedast.Loop) error {
	startLabel := e.newLabel("loop")
	endLabel := e.newLabel("loopend")
	e.pushLoop(startLabel, endLabel)
	defer e.popLoop()

	e.label(startLabel)
	for _, st := range n.Body {
		if err := e.emitStmt(st); err != nil {
			return err
		}
	}
	e.writeln("jmp %s", startLabel)
	e.label(endLabel)
	return nil
}

func (e *Emitter) emitReturn(n *typedast.Return) error {
	if n.Value != nil {
		if err := e.emitExpr(n.Value); err != nil {
			return err
		}
	}
	e.writeln("jmp .Lepilogue_%s", e.currentProc)
	return nil
}
