// Package typedast is the elaborator's output tree. Every expression node and every
// binder additionally carries a TypeTerm; procedure definitions carry the ordered list of
// their local #let/#let mut bindings with types, used by the code
// generator for rbp-relative stack-slot assignment.
//
// This is a third concrete tree family alongside ast and resolved:
// choice (a), one tagged union per phase, converted by total functions
// rather than a single phase-witnessed node. Codegen reads only this
// final phase.
package typedast

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
)

// Ref is a resolved-and-typed name occurrence.
type Ref struct {
	Name string
	Def  defid.ID
}

// LocalSlot is one #let/#let mut binding in a procedure body, in
// source order, carrying the TypeTerm the kernel assigned it. The
// backend assigns each slot 8 bytes at a negative rbp offset in this
// order.
type LocalSlot struct {
	Def  defid.ID
	Name string
	Type cic.Term
}

// File is the fully elaborated program. Prelude carries the resolver's
// seeded-builtin table through to codegen unchanged.
type File struct {
	Items   []Item
	Paths   *PathTable
	Prelude map[defid.ID]string
	Pos     ast.Pos
}

// PathTable is copied verbatim from the resolved phase; elaboration
// never changes constructor identity, only attaches types.
type PathTable struct {
	ByQualified map[string]defid.ID
	ByBare      map[string]defid.ID
	OwnerOf     map[defid.ID]defid.ID
}

type Item interface {
	itemNode()
	Position() ast.Pos
}

// KernelDefIDs returns the set of #proc definitions invoked by at
// least one #call_ptx statement anywhere in f. Those procs compile
// through the PTX backend; the host backend must not lower their
// bodies (they read GPU special registers no host instruction has).
func KernelDefIDs(f *File) map[defid.ID]bool {
	kernels := make(map[defid.ID]bool)
	var walkStmts func([]Statement)
	walkStmts = func(stmts []Statement) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *CallPtx:
				kernels[n.ProcDef] = true
			case *IfStmt:
				walkStmts(n.Then)
				walkStmts(n.Else)
			case *Loop:
				walkStmts(n.Body)
			}
		}
	}
	for _, it := range f.Items {
		if p, ok := it.(*ProcDef); ok {
			walkStmts(p.Body)
		}
	}
	return kernels
}

type Entrypoint struct {
	Target Ref
	Pos    ast.Pos
}

func (e *Entrypoint) itemNode()         {}
func (e *Entrypoint) Position() ast.Pos { return e.Pos }

type UseBuiltin struct {
	Def         defid.ID
	LocalName   string
	BuiltinName string
	Pos         ast.Pos
}

func (u *UseBuiltin) itemNode()         {}
func (u *UseBuiltin) Position() ast.Pos { return u.Pos }

// Param is a typed proc/definition parameter with its elaborated
// TypeTerm; the declared surface type is not kept.
type Param struct {
	Def  defid.ID
	Name string
	Type cic.Term
}

// ProcDef is the imperative sublanguage's typed entry. It is not a
// CIC term itself; the elaborator assigns it a function-shaped type
// via a coercion, with Locals recording every #let/#let mut slot in source
// order for the backend's stack layout.
type ProcDef struct {
	Def    defid.ID
	Name   string
	Params []Param
	Result cic.Term
	Locals []LocalSlot
	Body   []Statement
	Pos    ast.Pos
}

func (p *ProcDef) itemNode()         {}
func (p *ProcDef) Position() ast.Pos { return p.Pos }

type StructField struct {
	Name string
	Type cic.Term
}

type StructDecl struct {
	Def    defid.ID
	Name   string
	Fields []StructField
	Pos    ast.Pos
}

func (s *StructDecl) itemNode()         {}
func (s *StructDecl) Position() ast.Pos { return s.Pos }

// ArrayDecl carries the element-size table lookup for its first field
// as a precomputed ElementSize. The x86 backend does not read it: it
// sizes mmap regions and element accesses per field.
type ArrayDecl struct {
	Def         defid.ID
	Name        string
	Item        *StructDecl
	Dimension   int
	ElementSize int
	Pos         ast.Pos
}

func (a *ArrayDecl) itemNode()         {}
func (a *ArrayDecl) Position() ast.Pos { return a.Pos }

type Constructor struct {
	Def  defid.ID
	Name string
	Type cic.Term
}

type TypeDef struct {
	Def          defid.ID
	Name         string
	Sort         cic.Term
	Constructors []Constructor
	Pos          ast.Pos
}

func (t *TypeDef) itemNode()         {}
func (t *TypeDef) Position() ast.Pos { return t.Pos }

type Inductive struct {
	Def          defid.ID
	Name         string
	Sort         cic.Term
	Constructors []Constructor
	Pos          ast.Pos
}

func (i *Inductive) itemNode()         {}
func (i *Inductive) Position() ast.Pos { return i.Pos }

type Definition struct {
	Def  defid.ID
	Name string
	Type cic.Term
	Body Expr
	Pos  ast.Pos
}

func (d *Definition) itemNode()         {}
func (d *Definition) Position() ast.Pos { return d.Pos }

type Theorem struct {
	Def   defid.ID
	Name  string
	Claim cic.Term
	Proof Expr
	Pos   ast.Pos
}

func (t *Theorem) itemNode()         {}
func (t *Theorem) Position() ast.Pos { return t.Pos }
