// Package ptx is the kernel backend: it lowers every #proc reachable
// through a #call_ptx statement to a PTX `.visible .entry` kernel,
// with its own register allocator and no stack frame. PTX registers
// are virtual and unlimited, so every local binds directly to a fresh
// register rather than a stack slot.
package ptx

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/typedast"
)

// Emitter renders one compilation's worth of PTX kernel text.
type Emitter struct {
	out strings.Builder

	rd, r32, f32, pr int // monotone register-class counters

	regs map[defid.ID]string // current register holding each binder's value
	kind map[defid.ID]regKind

	// fieldRegs maps an SoA-array kernel parameter to the global-space
	// register holding each of its field pointers, one parameter slot
	// per field.
	fieldRegs map[defid.ID]map[string]string

	arrayDecls map[defid.ID]*typedast.ArrayDecl

	loopStack []loopLabels
	labelSeq  int
}

type loopLabels struct{ start, end string }

type regKind int

const (
	kindU64 regKind = iota
	kindU32
	kindF32
)

func New() *Emitter {
	return &Emitter{
		regs: make(map[defid.ID]string),
		kind: make(map[defid.ID]regKind),
	}
}

// KernelDefIDs returns the set of #proc definitions that are invoked
// by at least one #call_ptx statement anywhere in f — those are the
// kernels this backend knows how to compile.
func KernelDefIDs(f *typedast.File) map[defid.ID]bool {
	return typedast.KernelDefIDs(f)
}

// Emit renders every kernel proc in f, sorted by proc name, as one PTX
// text blob.
func (e *Emitter) Emit(f *typedast.File) (string, error) {
	kernels := KernelDefIDs(f)
	if len(kernels) == 0 {
		return "", nil
	}
	arrayDecls := make(map[defid.ID]*typedast.ArrayDecl)
	for _, it := range f.Items {
		if a, ok := it.(*typedast.ArrayDecl); ok {
			arrayDecls[a.Def] = a
		}
	}

	var procs []*typedast.ProcDef
	for _, it := range f.Items {
		if p, ok := it.(*typedast.ProcDef); ok && kernels[p.Def] {
			procs = append(procs, p)
		}
	}
	sort.Slice(procs, func(i, j int) bool { return procs[i].Name < procs[j].Name })

	var out strings.Builder
	out.WriteString(".version 7.0\n.target sm_70\n.address_size 64\n\n")
	for _, p := range procs {
		text, err := e.emitKernel(p, arrayDecls)
		if err != nil {
			return "", err
		}
		out.WriteString(text)
		out.WriteString("\n")
	}
	return out.String(), nil
}

func (e *Emitter) emitKernel(p *typedast.ProcDef, arrayDecls map[defid.ID]*typedast.ArrayDecl) (string, error) {
	e.out.Reset()
	e.rd, e.r32, e.f32, e.pr = 0, 0, 0, 0
	e.regs = make(map[defid.ID]string)
	e.kind = make(map[defid.ID]regKind)
	e.fieldRegs = make(map[defid.ID]map[string]string)
	e.arrayDecls = arrayDecls

	// An SoA array parameter expands into one .param .u64 per field,
	// named p<var>_<field>; the host call-out passes one device pointer
	// per field in the same order.
	var params []string
	for _, prm := range p.Params {
		if arr := e.arrayOf(prm.Type); arr != nil {
			for _, f := range arr.Item.Fields {
				params = append(params, fmt.Sprintf(".param .u64 p%s_%s", prm.Name, f.Name))
			}
			continue
		}
		params = append(params, fmt.Sprintf(".param .u64 p%s", prm.Name))
	}
	fmt.Fprintf(&e.out, ".visible .entry %s(%s)\n{\n", p.Name, strings.Join(params, ", "))
	e.out.WriteString("    .reg .b64 %rd<100>;\n    .reg .b32 %r<100>;\n    .reg .b32 %f<100>;\n    .reg .pred %p<100>;\n\n")

	for _, prm := range p.Params {
		if arr := e.arrayOf(prm.Type); arr != nil {
			regs := make(map[string]string, len(arr.Item.Fields))
			for _, f := range arr.Item.Fields {
				raw := e.freshB64()
				e.writeln("ld.param.u64 %s, [p%s_%s];", raw, prm.Name, f.Name)
				glob := e.freshB64()
				e.writeln("cvta.to.global.u64 %s, %s;", glob, raw)
				regs[f.Name] = glob
			}
			e.fieldRegs[prm.Def] = regs
			continue
		}
		raw := e.freshB64()
		e.writeln("ld.param.u64 %s, [p%s];", raw, prm.Name)
		glob := e.freshB64()
		e.writeln("cvta.to.global.u64 %s, %s;", glob, raw)
		e.regs[prm.Def] = glob
		e.kind[prm.Def] = kindU64
	}

	for _, s := range p.Body {
		if err := e.emitStmt(s); err != nil {
			return "", err
		}
	}
	e.out.WriteString("    ret;\n}\n")
	return e.out.String(), nil
}

// arrayOf resolves a parameter's TypeTerm to the SoA array decl it
// names, or nil for a scalar parameter.
func (e *Emitter) arrayOf(t cic.Term) *typedast.ArrayDecl {
	c, ok := t.(cic.Constant)
	if !ok {
		return nil
	}
	return e.arrayDecls[c.Def]
}

func (e *Emitter) freshB64() string  { e.rd++; return fmt.Sprintf("%%rd%d", e.rd) }
func (e *Emitter) freshB32() string  { e.r32++; return fmt.Sprintf("%%r%d", e.r32) }
func (e *Emitter) freshF32() string  { e.f32++; return fmt.Sprintf("%%f%d", e.f32) }
func (e *Emitter) freshPred() string { e.pr++; return fmt.Sprintf("%%p%d", e.pr) }

func (e *Emitter) newLabel(prefix string) string {
	e.labelSeq++
	return fmt.Sprintf("$L%s%d", prefix, e.labelSeq)
}

func (e *Emitter) writeln(format string, args ...any) {
	fmt.Fprintf(&e.out, "    "+format+"\n", args...)
}

func (e *Emitter) label(name string) {
	fmt.Fprintf(&e.out, "%s:\n", name)
}

func unsupported(pos ast.Pos, detail string) error {
	return errors.WrapReport(errors.New(errors.GEN002, pos, detail))
}

func (e *Emitter) pushLoop(start, end string) {
	e.loopStack = append(e.loopStack, loopLabels{start, end})
}
func (e *Emitter) popLoop()                 { e.loopStack = e.loopStack[:len(e.loopStack)-1] }
func (e *Emitter) currentBreak() string     { return e.loopStack[len(e.loopStack)-1].end }
func (e *Emitter) currentLoopStart() string { return e.loopStack[len(e.loopStack)-1].start }
