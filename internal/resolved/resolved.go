// Package resolved is the resolver's output: every binder carries a
// defid.ID and every reference has been looked up against the binder
// it names. Definition and use resolution share a single tree, since
// nothing downstream needs to observe tree state between the first
// (declare) and second (reference) resolver pass.
package resolved

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/defid"
)

// Ref is a resolved name occurrence: the surface text, kept for
// diagnostics and codegen symbol naming, plus the DefId of the binder
// it resolves to.
type Ref struct {
	Name string
	Def  defid.ID
}

// File is the resolved program: a flat item list plus the constructor
// path table built while resolving #type/#inductive declarations.
// Prelude records the DefId assigned to each seeded builtin name, so
// later phases can recognise a call to a builtin that was never
// re-bound by a #use_builtin item.
type File struct {
	Items   []Item
	Paths   *PathTable
	Prelude map[defid.ID]string
	Pos     ast.Pos
}

// PathTable maps `Type::Ctor` and bare `Ctor` constructor names to the
// DefId assigned to that constructor during pass 1, and records which
// inductive/type each constructor belongs to.
type PathTable struct {
	ByQualified map[string]defid.ID // "Nat::Succ"
	ByBare      map[string]defid.ID // "Succ", only when unambiguous
	OwnerOf     map[defid.ID]defid.ID
}

func NewPathTable() *PathTable {
	return &PathTable{
		ByQualified: make(map[string]defid.ID),
		ByBare:      make(map[string]defid.ID),
		OwnerOf:     make(map[defid.ID]defid.ID),
	}
}

// Item mirrors ast.Item with binder names replaced by DefIds.
type Item interface {
	itemNode()
	Position() ast.Pos
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

// Param is a resolved #proc/#definition parameter binder.
type Param struct {
	Def  defid.ID
	Name string
	Type ast.Type
}

type ProcDef struct {
	Def    defid.ID
	Name   string
	Params []Param
	Result ast.Type
	Body   []Statement
	Pos    ast.Pos
}

func (p *ProcDef) itemNode()         {}
func (p *ProcDef) Position() ast.Pos { return p.Pos }

type StructField struct {
	Name string
	Type ast.Type
}

type StructDecl struct {
	Def    defid.ID
	Name   string
	Fields []StructField
	Pos    ast.Pos
}

func (s *StructDecl) itemNode()         {}
func (s *StructDecl) Position() ast.Pos { return s.Pos }

type ArrayDecl struct {
	Def       defid.ID
	Name      string
	Item      *StructDecl
	Dimension int
	Pos       ast.Pos
}

func (a *ArrayDecl) itemNode()         {}
func (a *ArrayDecl) Position() ast.Pos { return a.Pos }

// Constructor is a resolved inductive/type-def constructor: it has its
// own DefId, distinct from the owning type's DefId, recorded in the
// enclosing File's PathTable.
type Constructor struct {
	Def  defid.ID
	Name string
	Type ast.Type
}

type TypeDef struct {
	Def          defid.ID
	Name         string
	Sort         ast.Type
	Constructors []Constructor
	Pos          ast.Pos
}

func (t *TypeDef) itemNode()         {}
func (t *TypeDef) Position() ast.Pos { return t.Pos }

type Inductive struct {
	Def          defid.ID
	Name         string
	Sort         ast.Type
	Constructors []Constructor
	Pos          ast.Pos
}

func (i *Inductive) itemNode()         {}
func (i *Inductive) Position() ast.Pos { return i.Pos }

type Definition struct {
	Def  defid.ID
	Name string
	Type ast.Type
	Body Expr
	Pos  ast.Pos
}

func (d *Definition) itemNode()         {}
func (d *Definition) Position() ast.Pos { return d.Pos }

type Theorem struct {
	Def   defid.ID
	Name  string
	Claim ast.Type
	Proof Expr
	Pos   ast.Pos
}

func (t *Theorem) itemNode()         {}
func (t *Theorem) Position() ast.Pos { return t.Pos }
