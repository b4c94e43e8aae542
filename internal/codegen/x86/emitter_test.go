package x86

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/felis/internal/elaborate"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/parser"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
	"github.com/sunholo/felis/testutil"
)

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

func emit(t *testing.T, src string) string {
	t.Helper()
	asm, err := New(HostOnly).Emit(compileTyped(t, src))
	require.NoError(t, err)
	return asm
}

func TestEmitExitProgram(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, 42, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	testutil.CompareWithGolden(t, "emit", "exit42", asm)
}

func TestEmitHeaderAndStartStub(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, 0, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	assert.True(t, strings.HasPrefix(asm, ".intel_syntax noprefix\n"))
	assert.Contains(t, asm, ".globl _start")
	assert.Contains(t, asm, "or qword ptr [rsp], 0x40000")
	assert.Contains(t, asm, "call main")
	assert.Contains(t, asm, "mov rax, 60")
}

func TestEmitSyscallRegisterOrder(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	syscall(231, 42, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	// Pops run last-pushed-first, landing the syscall number in rax
	// and the fourth argument in r10 (not rcx).
	popSeq := "pop r8\n    pop r10\n    pop rdx\n    pop rsi\n    pop rdi\n    pop rax\n    syscall"
	assert.Contains(t, asm, popSeq)
}

func TestEmitU64Arithmetic(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let a = u64_add(40, 2);
	syscall(231, a, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	assert.Contains(t, asm, "add rax, rbx")
	assert.Contains(t, asm, "sub rsp, 8")
	assert.Contains(t, asm, "mov [rbp-8], rax")
	assert.Contains(t, asm, "mov rax, [rbp-8]")
}

func TestEmitU64DivisionIsUnsigned(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let a = u64_div(84, 2);
	#let b = u64_mod(85, 43);
	syscall(231, a, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	assert.Contains(t, asm, "xor rdx, rdx\n    div rbx")
	assert.Contains(t, asm, "mov rax, rdx")
}

func TestEmitF32Arithmetic(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let a = f32_add(40.0f32, 2.0f32);
	#let b = f32_to_u64(a);
	syscall(231, b, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	assert.Contains(t, asm, "addss xmm0, xmm1")
	assert.Contains(t, asm, "cvttss2si rax, xmm0")
	assert.Contains(t, asm, "movss [rbp-8], xmm0")
	// 40.0f32 is 0x42200000.
	assert.Contains(t, asm, "mov eax, 1109393408")
	assert.Contains(t, asm, "movd xmm0, eax")
}

func TestEmitLetMutAndAssignThroughReference(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let mut x &r = 0u64;
	r = 42u64;
	syscall(231, x, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	// Value slot, then the lea'd address stored in the ref slot.
	assert.Contains(t, asm, "lea rax, [rbp-8]")
	assert.Contains(t, asm, "mov [rbp-16], rax")
	// Assignment dereferences once through the ref slot.
	assert.Contains(t, asm, "mov rbx, [rbp-16]\n    mov [rbx], rax")
	assert.Contains(t, asm, "sub rsp, 16")
}

func TestEmitIfElse(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let mut ec &r = 1u64;
	#if u64_eq(0, 0) {
		r = 42u64;
	} #else {
		r = 1u64;
	};
	syscall(231, ec, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	assert.Contains(t, asm, "sete al")
	assert.Contains(t, asm, "movzx rax, al")
	assert.Contains(t, asm, "cmp rax, 0")
	assert.Contains(t, asm, "je .Lelse")
	assert.Contains(t, asm, "jmp .Lendif")
}

func TestEmitLoopBreak(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#loop {
		#break;
	}
	syscall(231, 0, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	assert.Contains(t, asm, ".Lloop1:")
	assert.Contains(t, asm, "jmp .Lloopend2")
	assert.Contains(t, asm, "jmp .Lloop1")
	assert.Contains(t, asm, ".Lloopend2:")
}

func TestEmitBreakOutsideLoopFails(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#break;
}
`
	_, err := New(HostOnly).Emit(compileTyped(t, src))
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.GEN002, rep.Code)
}

func TestEmitSoAArrayAllocation(t *testing.T) {
	src := `
#array Ps {
	item: struct { x: f32, y: f32, z: f32 };
	dimension: 1;
}
#entrypoint main
#proc main : () -> () {
	#let ps = Ps::new_with_size(1);
	ps.x[0] = 10.0f32;
	ps.y[0] = 14.0f32;
	ps.z[0] = 18.0f32;
	#let a = f32_add(ps.x[0], ps.y[0]);
	#let b = f32_add(a, ps.z[0]);
	#let c = f32_to_u64(b);
	syscall(231, c, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	// One mmap per field, in declaration order.
	assert.Equal(t, 3, strings.Count(asm, "mov rax, 9\n    syscall"))
	assert.Contains(t, asm, "mov rdx, 3")
	assert.Contains(t, asm, "mov r10, 34")
	assert.Contains(t, asm, "mov r8, -1")
	// f32 fields scale by 4 bytes.
	assert.Contains(t, asm, "imul rax, 4")
	assert.Contains(t, asm, "imul rbx, 4")
	// Field store goes through the saved pointer.
	assert.Contains(t, asm, "movss [rbx], xmm0")
	// 4 declared locals + 3 field pointers + 1 size slot.
	assert.Contains(t, asm, "sub rsp, 64")
}

func TestEmitStringsAndProcCall(t *testing.T) {
	src := `
#entrypoint main
#proc print_c : (c:u64) -> u64 {
	__write_to_stdout("a\n");
	#return 0u64;
}
#proc main : () -> () {
	#let r = print_c(97);
	syscall(231, 0, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	assert.Contains(t, asm, "call print_c")
	assert.Contains(t, asm, "pop rdi")
	// write(1, ptr, len)
	assert.Contains(t, asm, "lea rsi, __string_0")
	assert.Contains(t, asm, "mov rax, 1\n    mov rdi, 1\n    syscall")
	assert.Contains(t, asm, ".section .data")
	assert.Contains(t, asm, "__string_0: .asciz")
	// One data entry per unique literal.
	assert.Equal(t, 1, strings.Count(asm, ".asciz"))
}

func TestEmitStackAllocationCountsParamsAndLets(t *testing.T) {
	src := `
#entrypoint main
#proc f : (a:u64) -> u64 {
	#let b = a;
	#let c = b;
	#return c;
}
#proc main : () -> () {
	#let r = f(1);
	syscall(231, r, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	// f: 1 param + 2 lets = 3 slots.
	assert.Contains(t, asm, "sub rsp, 24")
	// Parameter spilled from rdi into its slot.
	assert.Contains(t, asm, "mov [rbp-8], rdi")
}

func TestEmitMissingEntrypointIsGEN001(t *testing.T) {
	src := `
#proc main : () -> () {
	syscall(231, 0, 0, 0, 0, 0);
}
`
	_, err := New(HostOnly).Emit(compileTyped(t, src))
	require.Error(t, err)
	rep, ok := errors.AsReport(err)
	require.True(t, ok)
	assert.Equal(t, errors.GEN001, rep.Code)
}

func TestEmitDereference(t *testing.T) {
	src := `
#entrypoint main
#proc main : () -> () {
	#let mut x &r = 7u64;
	#let y = r.*;
	syscall(231, y, 0, 0, 0, 0);
}
`
	asm := emit(t, src)
	assert.Contains(t, asm, "mov rax, qword ptr [rax]")
}
