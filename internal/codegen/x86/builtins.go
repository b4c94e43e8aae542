package x86

import (
	"github.com/sunholo/felis/internal/builtins"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/typedast"
)

// emitBuiltinCall inlines a recognised builtin call: it checks the
// argument count against the table entry (internal/builtins.Lookup),
// then dispatches on the builtin's name.
func (e *Emitter) emitBuiltinCall(name string, n *typedast.App) error {
	spec, ok := builtins.Lookup(name)
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "unrecognised builtin %q", name))
	}
	if len(n.Args) != spec.Arity() {
		return errors.WrapReport(errors.Newf(errors.GEN003, n.Pos, "%s expects %d arguments, found %d", name, spec.Arity(), len(n.Args)))
	}

	switch name {
	case "syscall":
		return e.emitSyscall(n.Args)
	case "u64_add", "u64_sub", "u64_mul", "u64_div", "u64_mod", "u64_eq":
		return e.emitU64Binop(name, n.Args)
	case "f32_add", "f32_sub", "f32_mul", "f32_div":
		return e.emitF32Binop(name, n.Args)
	case "u64_to_f32":
		if err := e.emitExpr(n.Args[0]); err != nil {
			return err
		}
		e.writeln("cvtsi2ss xmm0, rax")
		return nil
	case "f32_to_u64":
		if err := e.emitExpr(n.Args[0]); err != nil {
			return err
		}
		e.writeln("cvttss2si rax, xmm0")
		return nil
	case "u64":
		return e.emitExpr(n.Args[0])
	case "f32":
		if err := e.emitExpr(n.Args[0]); err != nil {
			return err
		}
		e.writeln("cvtsi2ss xmm0, rax")
		return nil
	case "ctaid_x", "ntid_x", "tid_x":
		return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "%s is a PTX-only special register, not available on the x86 host backend", name))
	case "__write_to_stdout":
		return e.emitWriteToStdout(n.Args[0])
	case "__exit":
		if err := e.emitExpr(n.Args[0]); err != nil {
			return err
		}
		e.writeln("mov rdi, rax")
		e.writeln("mov rax, 60")
		e.writeln("syscall")
		return nil
	}
	return errors.WrapReport(errors.Newf(errors.GEN002, n.Pos, "builtin %q has no x86 lowering", name))
}

// emitSyscall pushes each of the six arguments in source order, then
// pops them into rax/rdi/rsi/rdx/r10/r8 — note r10, not rcx, per the
// Linux syscall ABI slot.
func (e *Emitter) emitSyscall(args []typedast.Expr) error {
	for _, a := range args {
		if err := e.emitExpr(a); err != nil {
			return err
		}
		e.writeln("push rax")
	}
	order := []string{"r8", "r10", "rdx", "rsi", "rdi", "rax"}
	for _, reg := range order {
		e.writeln("pop %s", reg)
	}
	e.writeln("syscall")
	return nil
}

// emitU64Binop evaluates both operands (spilling the first across the
// second's evaluation via push/pop, since the backend keeps no
// general expression stack of its own) and applies the unsigned
// integer operation.
func (e *Emitter) emitU64Binop(name string, args []typedast.Expr) error {
	if err := e.emitExpr(args[0]); err != nil {
		return err
	}
	e.writeln("push rax")
	if err := e.emitExpr(args[1]); err != nil {
		return err
	}
	e.writeln("mov rbx, rax")
	e.writeln("pop rax")
	switch name {
	case "u64_add":
		e.writeln("add rax, rbx")
	case "u64_sub":
		e.writeln("sub rax, rbx")
	case "u64_mul":
		e.writeln("mul rbx")
	case "u64_div":
		e.writeln("xor rdx, rdx")
		e.writeln("div rbx")
	case "u64_mod":
		e.writeln("xor rdx, rdx")
		e.writeln("div rbx")
		e.writeln("mov rax, rdx")
	case "u64_eq":
		e.writeln("cmp rax, rbx")
		e.writeln("sete al")
		e.writeln("movzx rax, al")
	}
	return nil
}

// emitF32Binop mirrors emitU64Binop for the xmm0/xmm1 register pair,
// spilling xmm0 across the second operand's evaluation via the stack.
func (e *Emitter) emitF32Binop(name string, args []typedast.Expr) error {
	if err := e.emitExpr(args[0]); err != nil {
		return err
	}
	e.writeln("sub rsp, 8")
	e.writeln("movss [rsp], xmm0")
	if err := e.emitExpr(args[1]); err != nil {
		return err
	}
	e.writeln("movss xmm1, xmm0")
	e.writeln("movss xmm0, [rsp]")
	e.writeln("add rsp, 8")
	switch name {
	case "f32_add":
		e.writeln("addss xmm0, xmm1")
	case "f32_sub":
		e.writeln("subss xmm0, xmm1")
	case "f32_mul":
		e.writeln("mulss xmm0, xmm1")
	case "f32_div":
		e.writeln("divss xmm0, xmm1")
	}
	return nil
}

// emitWriteToStdout decomposes a string literal into (length,
// pointer) and issues the write(2) syscall. Only
// string-literal arguments are supported: a non-literal str value has
// no single register holding both halves of the 16-byte pair under
// this backend's one-slot-per-local discipline.
func (e *Emitter) emitWriteToStdout(arg typedast.Expr) error {
	lit, ok := arg.(*typedast.String)
	if !ok {
		return errors.WrapReport(errors.Newf(errors.GEN002, arg.Position(), "__write_to_stdout requires a string literal argument"))
	}
	lbl := e.stringLabel(lit.Text)
	e.writeln("mov rdx, %d", assembledLen(lit.Text))
	e.writeln("lea rsi, %s", lbl)
	e.writeln("mov rax, 1")
	e.writeln("mov rdi, 1")
	e.writeln("syscall")
	return nil
}

// assembledLen is the byte count of a literal once the assembler has
// interpreted its escapes: the lexer keeps `\n` as two source
// characters, but .asciz assembles it to one byte.
func assembledLen(raw string) int {
	n := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
		}
		n++
	}
	return n
}
