package x86

import (
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/typedast"
)

// emitCallPtx lowers a host-side `#call_ptx kernel(args...)` to the
// CUDA driver call-out sequence: load the embedded PTX image (at every
// #call_ptx site), resolve the named
// kernel function, marshal arguments into a parameter-pointer array,
// and launch with a single-block, single-thread grid.
//
// An SoA array argument expands into one device pointer per field, in
// field-declaration order, matching the kernel's per-field parameter
// list. cuLaunchKernel's kernelParams wants the address of each
// parameter value, and every value this backend can pass already lives
// in an rbp-relative slot, so the pointer array is built from lea'd
// slot addresses.
func (e *Emitter) emitCallPtx(n *typedast.CallPtx) error {
	if e.ptx == HostOnly {
		return errors.WrapReport(errors.New(errors.GEN002, n.Pos, "#call_ptx requires the PTX backend (--ptx)"))
	}
	e.writeln("lea rdi, __cu_module")
	e.writeln("lea rsi, __ptx_image")
	e.writeln("call cuModuleLoadData@PLT")

	fnLabel := e.stringLabel(n.ProcName)
	e.writeln("lea rdi, __cu_function")
	e.writeln("mov rsi, [__cu_module]")
	e.writeln("lea rdx, %s", fnLabel)
	e.writeln("call cuModuleGetFunction@PLT")

	var slotOffsets []int
	for _, a := range n.Args {
		v, ok := a.(*typedast.Var)
		if !ok {
			return errors.WrapReport(errors.New(errors.GEN002, a.Position(), "kernel launch arguments must be named locals"))
		}
		if sl, ok := e.layout.soaByName[v.Ref.Name]; ok {
			for _, f := range sl.arr.Item.Fields {
				slotOffsets = append(slotOffsets, sl.fieldOffset[f.Name])
			}
			continue
		}
		off, ok := e.layout.offsets[v.Ref.Def]
		if !ok {
			return errors.WrapReport(errors.Newf(errors.GEN002, a.Position(), "%s has no stack slot", v.Ref.Name))
		}
		slotOffsets = append(slotOffsets, off)
	}

	// Pushed in reverse so entry 0 ends up at the lowest address: rsp
	// then is the argv-style kernelParams array.
	for i := len(slotOffsets) - 1; i >= 0; i-- {
		e.writeln("lea rax, [rbp%+d]", slotOffsets[i])
		e.writeln("push rax")
	}
	if len(slotOffsets) > 0 {
		e.writeln("mov rax, rsp")
	} else {
		e.writeln("xor rax, rax")
	}

	e.writeln("mov rdi, [__cu_function]")
	e.writeln("mov rsi, 1") // gridDimX
	e.writeln("mov rdx, 1") // gridDimY
	e.writeln("mov rcx, 1") // gridDimZ
	e.writeln("mov r8, 1")  // blockDimX
	e.writeln("mov r9, 1")  // blockDimY
	// Stack arguments, pushed in reverse so blockDimZ sits at [rsp].
	e.writeln("push 0")   // extra
	e.writeln("push rax") // kernelParams
	e.writeln("push 0")   // hStream
	e.writeln("push 0")   // sharedMemBytes
	e.writeln("push 1")   // blockDimZ
	e.writeln("call cuLaunchKernel@PLT")
	e.writeln("add rsp, %d", 40+8*len(slotOffsets))
	return nil
}
