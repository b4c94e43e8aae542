package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/felis/internal/config"
	"github.com/sunholo/felis/internal/errors"
)

func compile(t *testing.T, src string, cfg config.Config) *Result {
	t.Helper()
	res, err := Compile(context.Background(), "t.fe", src, cfg)
	require.NoError(t, err)
	return res
}

func TestCompileExitProgram(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, 42, 0, 0, 0, 0);
}
`
	res := compile(t, src, config.Default())
	assert.Contains(t, res.X86, ".globl _start")
	assert.Contains(t, res.X86, "call main")
	assert.Contains(t, res.X86, "mov rax, 231")
	assert.Empty(t, res.PTX)
	assert.NotNil(t, res.Resolved)
	assert.NotNil(t, res.Typed)
}

func TestCompileArithmeticChain(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let a = u64_add(40, 2);
	#let b = u64_mul(a, 1);
	syscall(231, b, 0, 0, 0, 0);
}
`
	res := compile(t, src, config.Default())
	assert.Contains(t, res.X86, "add rax, rbx")
	assert.Contains(t, res.X86, "mul rbx")
}

func TestCompileFloatRoundTrip(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let a = f32_add(40.0f32, 2.0f32);
	#let b = f32_to_u64(a);
	syscall(231, b, 0, 0, 0, 0);
}
`
	res := compile(t, src, config.Default())
	assert.Contains(t, res.X86, "addss xmm0, xmm1")
	assert.Contains(t, res.X86, "cvttss2si rax, xmm0")
}

func TestCompileWithPTXBackend(t *testing.T) {
	src := `
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
	cfg := config.Default()
	cfg.PTX = true
	res := compile(t, src, cfg)

	assert.Contains(t, res.PTX, ".visible .entry scale")
	assert.Contains(t, res.PTX, "%ctaid.x")

	assert.Contains(t, res.X86, ".globl main")
	assert.Contains(t, res.X86, "call cuInit@PLT")
	assert.Contains(t, res.X86, "call cuCtxCreate_v2@PLT")
	assert.Contains(t, res.X86, "call cuModuleLoadData@PLT")
	assert.Contains(t, res.X86, "call cuLaunchKernel@PLT")
	assert.Contains(t, res.X86, "__ptx_image: .asciz")
	assert.Contains(t, res.X86, "__cu_device: .zero 4")
	assert.Contains(t, res.X86, "__cu_context: .zero 8")
}

func TestCompileParseErrorAborts(t *testing.T) {
	_, err := Compile(context.Background(), "t.fe", "#proc", config.Default())
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, "parse", rep.Phase)
}

func TestCompileUnknownNameAborts(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, nope, 0, 0, 0, 0);
}
`
	_, err := Compile(context.Background(), "t.fe", src, config.Default())
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.RES001, rep.Code)
}

func TestCompileMissingEntrypointAborts(t *testing.T) {
	src := `
#proc main : () -> () {
	syscall(231, 0, 0, 0, 0, 0);
}
`
	_, err := Compile(context.Background(), "t.fe", src, config.Default())
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.GEN001, rep.Code)
}

func TestCompileHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Compile(ctx, "t.fe", "#entrypoint main", config.Default())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderError(t *testing.T) {
	_, err := Compile(context.Background(), "t.fe", "#proc", config.Default())
	require.Error(t, err)
	rendered := RenderError(err)
	assert.True(t, strings.HasPrefix(rendered, "PAR"), rendered)
}

func TestDumpTypedListsProcs(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let a = u64_add(1, 2);
	syscall(231, a, 0, 0, 0, 0);
}
`
	res := compile(t, src, config.Default())
	dump := DumpTyped(res.Typed)
	assert.Contains(t, dump, "proc main")
	assert.Contains(t, dump, "local 0 a : u64")
}

func TestDumpResolvedListsItems(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, 0, 0, 0, 0, 0);
}
`
	res := compile(t, src, config.Default())
	dump := DumpResolved(res.Resolved)
	assert.Contains(t, dump, "entrypoint main")
	assert.Contains(t, dump, "proc main")
}

// Recompiling the same source twice yields byte-identical output: the
// DefId generator restarts at 1 each compilation and traversal order
// is fixed.
func TestCompileIsDeterministic(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let a = u64_add(40, 2);
	syscall(231, a, 0, 0, 0, 0);
}
`
	first := compile(t, src, config.Default())
	second := compile(t, src, config.Default())
	assert.Equal(t, first.X86, second.X86)
}
