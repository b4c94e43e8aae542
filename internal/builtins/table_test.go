package builtins

import "testing"

func TestTableHasEverySpecBuiltin(t *testing.T) {
	want := []string{
		"syscall", "u64_add", "u64_sub", "u64_mul", "u64_div", "u64_mod",
		"u64_eq", "f32_add", "f32_sub", "f32_mul", "f32_div", "u64_to_f32",
		"f32_to_u64", "u64", "f32", "ctaid_x", "ntid_x", "tid_x",
		"__write_to_stdout", "__exit",
	}
	if len(want) != len(Names) {
		t.Fatalf("table has %d builtins, want %d", len(Names), len(want))
	}
	for _, name := range want {
		if _, ok := Lookup(name); !ok {
			t.Errorf("missing builtin %q", name)
		}
	}
}

func TestSyscallArity(t *testing.T) {
	s, ok := Lookup("syscall")
	if !ok {
		t.Fatal("syscall not found")
	}
	if s.Arity() != 6 {
		t.Errorf("syscall arity = %d, want 6", s.Arity())
	}
	if s.Category != Syscall {
		t.Errorf("syscall category = %s, want %s", s.Category, Syscall)
	}
}

func TestCategoriesPresent(t *testing.T) {
	cases := map[string]Category{
		"u64_add":           ArithU64,
		"f32_add":           ArithF32,
		"u64":               Convert,
		"ctaid_x":           PTXSpecialReg,
		"__write_to_stdout": IO,
	}
	for name, want := range cases {
		s, ok := Lookup(name)
		if !ok {
			t.Fatalf("missing builtin %q", name)
		}
		if s.Category != want {
			t.Errorf("%s category = %s, want %s", name, s.Category, want)
		}
	}
}
