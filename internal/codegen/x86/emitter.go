// Package x86 is the host backend: it walks a typedast.File and
// renders System-V x86-64 assembly text, Intel syntax, one
// `*strings.Builder`-backed Emitter with one method per typed-node
// kind.
package x86

import (
	"fmt"
	"strings"

	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/typedast"
)

// PTXMode selects the alternate CUDA-driver program prologue (a
// `main` symbol instead of `_start`, plus the CUDA BSS objects) and
// enables the host-side #call_ptx launch sequence, which is rejected
// in HostOnly mode. The PTX kernels themselves are emitted by
// internal/codegen/ptx.
type PTXMode bool

const (
	HostOnly PTXMode = false
	WithPTX  PTXMode = true
)

// Emitter renders one compilation's worth of assembly text.
type Emitter struct {
	out strings.Builder

	ptx PTXMode

	labelSeq int

	strLabels map[string]string
	strOrder  []string

	ptxImage string // the embedded PTX kernel text, set via SetPTXImage

	builtinNames map[defid.ID]string
	arrayDecls   map[defid.ID]*typedast.ArrayDecl
	procNames    map[defid.ID]string

	loopStack []loopLabels

	layout      *procLayout // current proc being emitted
	currentProc string
}

// loopLabels is the innermost enclosing #loop's start and end labels,
// targets for #continue and #break respectively.
type loopLabels struct {
	start string
	end   string
}

func New(ptx PTXMode) *Emitter {
	return &Emitter{
		ptx:          ptx,
		strLabels:    make(map[string]string),
		builtinNames: make(map[defid.ID]string),
		arrayDecls:   make(map[defid.ID]*typedast.ArrayDecl),
		procNames:    make(map[defid.ID]string),
	}
}

// SetPTXImage embeds text as a `.data` string the host-side CUDA call-out loads via
// cuModuleLoadData.
func (e *Emitter) SetPTXImage(text string) { e.ptxImage = text }

// Emit lowers f to a complete assembly text.
func (e *Emitter) Emit(f *typedast.File) (string, error) {
	var entry *typedast.Entrypoint
	procs := make(map[defid.ID]*typedast.ProcDef)
	var order []*typedast.ProcDef

	for id, name := range f.Prelude {
		e.builtinNames[id] = name
	}
	for _, it := range f.Items {
		switch n := it.(type) {
		case *typedast.Entrypoint:
			entry = n
		case *typedast.UseBuiltin:
			e.builtinNames[n.Def] = n.BuiltinName
		case *typedast.ArrayDecl:
			e.arrayDecls[n.Def] = n
		case *typedast.ProcDef:
			procs[n.Def] = n
			order = append(order, n)
			e.procNames[n.Def] = n.Name
		}
	}
	if entry == nil {
		return "", errors.WrapReport(errors.New(errors.GEN001, f.Pos, "no #entrypoint declared"))
	}
	entryProc, ok := procs[entry.Target.Def]
	if !ok {
		return "", errors.WrapReport(errors.Newf(errors.GEN001, f.Pos, "entrypoint %q does not name a #proc", entry.Target.Name))
	}

	// #call_ptx targets compile through the PTX backend; their bodies
	// read GPU special registers no host instruction sequence can.
	kernels := typedast.KernelDefIDs(f)

	e.emitHeader()
	e.emitProgramPrologue(entryProc.Name)
	for _, p := range order {
		if kernels[p.Def] {
			continue
		}
		if err := e.emitProc(p); err != nil {
			return "", err
		}
	}
	e.emitStrings()
	if e.ptx {
		e.emitCudaBSS()
	}
	return e.out.String(), nil
}

func (e *Emitter) emitHeader() {
	e.out.WriteString(".intel_syntax noprefix\n")
	e.out.WriteString(".section .text\n")
	if e.ptx {
		e.out.WriteString(".globl main\n")
	} else {
		e.out.WriteString(".globl _start\n")
	}
}

// emitProgramPrologue emits the program entry stub:
// the x87-precision popfq dance plus a call into the entry proc and
// an exit(60) syscall, or — in PTX mode — the CUDA driver
// initialization sequence ahead of the same call.
func (e *Emitter) emitProgramPrologue(entryName string) {
	if e.ptx {
		e.out.WriteString("main:\n")
		e.out.WriteString("    push rbp\n    mov rbp, rsp\n")
		e.out.WriteString("    mov rdi, 0\n    call cuInit@PLT\n")
		e.out.WriteString("    lea rdi, __cu_device\n    mov rsi, 0\n    call cuDeviceGet@PLT\n")
		e.out.WriteString("    lea rdi, __cu_context\n    mov rsi, 0\n    mov rdx, [__cu_device]\n    call cuCtxCreate_v2@PLT\n")
		e.out.WriteString(fmt.Sprintf("    call %s\n", entryName))
		e.out.WriteString("    mov rdi, rax\n    mov rax, 60\n    syscall\n\n")
		return
	}
	e.out.WriteString("_start:\n")
	e.out.WriteString("    pushfq\n    or qword ptr [rsp], 0x40000\n    popfq\n")
	e.out.WriteString(fmt.Sprintf("    call %s\n", entryName))
	e.out.WriteString("    mov rdi, rax\n    mov rax, 60\n    syscall\n\n")
}

func (e *Emitter) emitCudaBSS() {
	e.out.WriteString(".section .bss\n")
	e.out.WriteString("__cu_device: .zero 4\n")
	e.out.WriteString("__cu_context: .zero 8\n")
	e.out.WriteString("__cu_module: .zero 8\n")
	e.out.WriteString("__cu_function: .zero 8\n")
	e.out.WriteString("__cu_device_ptr: .zero 8\n")
}

func (e *Emitter) emitStrings() {
	if len(e.strOrder) == 0 && e.ptxImage == "" {
		return
	}
	e.out.WriteString(".section .data\n")
	for _, lit := range e.strOrder {
		// Escape sequences pass through from the source literal
		// verbatim; the assembler interprets them.
		fmt.Fprintf(&e.out, "%s: .asciz \"%s\"\n", e.strLabels[lit], lit)
	}
	if e.ptxImage != "" {
		fmt.Fprintf(&e.out, "__ptx_image: .asciz %q\n", e.ptxImage)
	}
}

// stringLabel interns lit, emitting at most one `.data` entry per
// unique literal.
func (e *Emitter) stringLabel(lit string) string {
	if lbl, ok := e.strLabels[lit]; ok {
		return lbl
	}
	lbl := fmt.Sprintf("__string_%d", len(e.strOrder))
	e.strLabels[lit] = lbl
	e.strOrder = append(e.strOrder, lit)
	return lbl
}

// newLabel hands out a globally unique integer label.
func (e *Emitter) newLabel(prefix string) string {
	e.labelSeq++
	return fmt.Sprintf(".L%s%d", prefix, e.labelSeq)
}

func (e *Emitter) pushLoop(start, end string) {
	e.loopStack = append(e.loopStack, loopLabels{start: start, end: end})
}
func (e *Emitter) popLoop() { e.loopStack = e.loopStack[:len(e.loopStack)-1] }

func (e *Emitter) currentBreak() string {
	return e.loopStack[len(e.loopStack)-1].end
}

func (e *Emitter) currentLoopStart() string {
	return e.loopStack[len(e.loopStack)-1].start
}

func (e *Emitter) writeln(format string, args ...any) {
	fmt.Fprintf(&e.out, "    "+format+"\n", args...)
}

func (e *Emitter) label(name string) {
	fmt.Fprintf(&e.out, "%s:\n", name)
}
