package x86

import (
	"fmt"

	"github.com/sunholo/felis/internal/typedast"
)

// argRegs is the System-V integer argument register order for the
// first six parameters.
var argRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

// emitProc lowers one #proc to its label, prologue, body, and epilogue.
func (e *Emitter) emitProc(p *typedast.ProcDef) error {
	e.layout = buildLayout(e.arrayDecls, p)
	e.currentProc = p.Name

	e.label(p.Name)
	e.writeln("push rbp")
	e.writeln("mov rbp, rsp")
	if e.layout.total > 0 {
		e.writeln("sub rsp, %d", 8*e.layout.total)
	}

	for i, param := range p.Params {
		if i >= len(argRegs) {
			break
		}
		off := e.layout.offsetOf(param.Def)
		e.writeln("mov [rbp%+d], %s", off, argRegs[i])
	}

	for _, s := range p.Body {
		if err := e.emitStmt(s); err != nil {
			return err
		}
	}

	e.label(fmt.Sprintf(".Lepilogue_%s", p.Name))
	e.writeln("mov rsp, rbp")
	e.writeln("pop rbp")
	e.writeln("ret")
	e.out.WriteString("\n")
	return nil
}
