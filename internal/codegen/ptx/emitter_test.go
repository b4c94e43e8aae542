package ptx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/felis/internal/elaborate"
	"github.com/sunholo/felis/internal/parser"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

const kernelSrc = `
#array Ps {
	item: struct { x: f32, y: f32, z: f32 };
	dimension: 1;
}
#entrypoint main
#proc scale : (ps:Ps) -> () {
	#let i = ctaid_x();
	ps.x[i] = f32(2);
}
#proc main : () -> () {
	#let ps = Ps::new_with_size(1);
	#call_ptx scale(ps);
	syscall(231, 0, 0, 0, 0, 0);
}
`

func compileTyped(t *testing.T, src string) *typedast.File {
	t.Helper()
	f, err := parser.ParseFile(src, "t.fe")
	require.NoError(t, err)
	r := resolved.NewResolver()
	rf, err := r.ResolveFile(f)
	require.NoError(t, err)
	tf, err := elaborate.NewElaborator(r.Generator()).Elaborate(rf)
	require.NoError(t, err)
	return tf
}

func TestKernelDefIDsFindsCallPtxTargets(t *testing.T) {
	tf := compileTyped(t, kernelSrc)
	kernels := KernelDefIDs(tf)
	require.Len(t, kernels, 1)
	for _, it := range tf.Items {
		if p, ok := it.(*typedast.ProcDef); ok && p.Name == "scale" {
			assert.True(t, kernels[p.Def])
		}
	}
}

func TestEmitKernelHeaderAndParams(t *testing.T) {
	text, err := New().Emit(compileTyped(t, kernelSrc))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, ".version 7.0\n.target sm_70\n.address_size 64\n"))
	// One .param .u64 per SoA field, named p<var>_<field>.
	assert.Contains(t, text, ".visible .entry scale(.param .u64 pps_x, .param .u64 pps_y, .param .u64 pps_z)")
	assert.Contains(t, text, ".reg .b64 %rd<100>;")
	assert.Contains(t, text, ".reg .b32 %r<100>;")
	assert.Contains(t, text, ".reg .pred %p<100>;")
	assert.Contains(t, text, "ld.param.u64 %rd1, [pps_x];")
	assert.Contains(t, text, "cvta.to.global.u64 %rd2, %rd1;")
	assert.Contains(t, text, "ld.param.u64 %rd5, [pps_z];")
	assert.Contains(t, text, "ret;")
}

func TestEmitKernelSpecialRegisterRead(t *testing.T) {
	text, err := New().Emit(compileTyped(t, kernelSrc))
	require.NoError(t, err)
	assert.Contains(t, text, "mov.u32 %r1, %ctaid.x;")
	assert.Contains(t, text, "cvt.u64.u32 %rd7, %r1;")
}

func TestEmitKernelFieldStore(t *testing.T) {
	text, err := New().Emit(compileTyped(t, kernelSrc))
	require.NoError(t, err)
	// index * 8, add to the field pointer, store the f32 value.
	assert.Contains(t, text, "mul.lo.u64")
	assert.Contains(t, text, "add.u64")
	assert.Contains(t, text, "st.global.f32")
	// f32(2) converts an integer register.
	assert.Contains(t, text, "cvt.rn.f32.u64")
}

func TestEmitNoKernelsIsEmpty(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, 0, 0, 0, 0, 0);
}
`
	text, err := New().Emit(compileTyped(t, src))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestEmitKernelArithmetic(t *testing.T) {
	src := `
#array Qs {
	item: struct { v: u64 };
	dimension: 4;
}
#entrypoint main
#proc addone : (qs:Qs) -> () {
	#let i = u64_add(u64_mul(ctaid_x(), ntid_x()), tid_x());
	qs.v[i] = u64_add(i, 1);
}
#proc main : () -> () {
	#let qs = Qs::new_with_size(4);
	#call_ptx addone(qs);
	syscall(231, 0, 0, 0, 0, 0);
}
`
	text, err := New().Emit(compileTyped(t, src))
	require.NoError(t, err)
	assert.Contains(t, text, "%ctaid.x")
	assert.Contains(t, text, "%ntid.x")
	assert.Contains(t, text, "%tid.x")
	assert.Contains(t, text, "mul.lo.u64")
	assert.Contains(t, text, "add.u64")
	assert.Contains(t, text, "st.global.u64")
}

func TestEmitKernelLoopAndIf(t *testing.T) {
	src := `
#array Qs {
	item: struct { v: u64 };
	dimension: 4;
}
#entrypoint main
#proc fill : (qs:Qs) -> () {
	#let mut i &r = 0u64;
	#loop {
		#if u64_eq(i, 4) {
			#break;
		};
		qs.v[i] = i;
		r = u64_add(i, 1);
	}
}
#proc main : () -> () {
	#let qs = Qs::new_with_size(4);
	#call_ptx fill(qs);
	syscall(231, 0, 0, 0, 0, 0);
}
`
	text, err := New().Emit(compileTyped(t, src))
	require.NoError(t, err)
	assert.Contains(t, text, "$Lloop")
	assert.Contains(t, text, "setp.eq.u64 %p1")
	assert.Contains(t, text, "bra.uni")
}
