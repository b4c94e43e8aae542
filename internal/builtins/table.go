// Package builtins holds the fixed table of recognised Felis
// builtins, loaded once from an embedded YAML manifest. Felis
// builtins carry no runtime implementation, only name, arity, and a
// classification category. internal/resolved seeds its prelude from
// Names; the backends check arity through Lookup and dispatch inline
// code on the builtin's name.
package builtins

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed table.yaml
var tableYAML []byte

// Category classifies a builtin by kind (syscall, arithmetic,
// conversion, PTX special register, I/O).
type Category string

const (
	Syscall       Category = "syscall"
	ArithU64      Category = "arith-u64"
	ArithF32      Category = "arith-f32"
	Convert       Category = "convert"
	PTXSpecialReg Category = "ptx-special-reg"
	IO            Category = "io"
)

// Spec is one entry of the fixed builtin table.
type Spec struct {
	Name     string   `yaml:"name"`
	Category Category `yaml:"category"`
	Params   []string `yaml:"params"`
	Result   string   `yaml:"result"`
}

// Arity is the builtin's declared parameter count, used to check
// InvalidSyscall-style "wrong arg count" codegen errors.
func (s Spec) Arity() int { return len(s.Params) }

// Table is the parsed, name-indexed builtin table, built once at
// package init from table.yaml.
var Table map[string]Spec

// Names lists every recognised builtin name, in table.yaml order,
// used to seed the resolver's prelude.
var Names []string

func init() {
	var specs []Spec
	if err := yaml.Unmarshal(tableYAML, &specs); err != nil {
		panic(fmt.Sprintf("builtins: embedded table.yaml is malformed: %v", err))
	}
	Table = make(map[string]Spec, len(specs))
	Names = make([]string, 0, len(specs))
	for _, s := range specs {
		Table[s.Name] = s
		Names = append(Names, s.Name)
	}
}

// Lookup returns the Spec for a recognised builtin name.
func Lookup(name string) (Spec, bool) {
	s, ok := Table[name]
	return s, ok
}
