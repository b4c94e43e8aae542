// Package ast defines the Parse-phase Felis syntax tree. Every
// decoration slot at this phase is the unit payload: no binder carries a
// DefId yet (that is the job of internal/resolved) and no expression
// carries a type (internal/typedast).
package ast

import (
	"fmt"
	"strings"
)

// Pos is a source position.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column) }

// Span is a start/end source range, used by later phases for DefId/SID
// style bookkeeping.
type Span struct {
	Start Pos
	End   Pos
}

// Node is the base interface implemented by every tree element.
type Node interface {
	Position() Pos
	String() string
}

// File is the root node; it receives its own DefId at the Defined phase.
type File struct {
	Items []Item
	Pos   Pos
}

func (f *File) Position() Pos { return f.Pos }
func (f *File) String() string {
	parts := make([]string, len(f.Items))
	for i, it := range f.Items {
		parts[i] = it.String()
	}
	return strings.Join(parts, "\n")
}

// Item is a top-level declaration.
type Item interface {
	Node
	itemNode()
}

// Entrypoint names the program's entry procedure: `#entrypoint <name>`.
type Entrypoint struct {
	Name string
	Pos  Pos
}

func (e *Entrypoint) itemNode()      {}
func (e *Entrypoint) Position() Pos  { return e.Pos }
func (e *Entrypoint) String() string { return fmt.Sprintf("#entrypoint %s", e.Name) }

// UseBuiltin binds a builtin to a local name: `#use_builtin local = builtin`.
type UseBuiltin struct {
	LocalName   string
	BuiltinName string
	Pos         Pos
}

func (u *UseBuiltin) itemNode()     {}
func (u *UseBuiltin) Position() Pos { return u.Pos }
func (u *UseBuiltin) String() string {
	return fmt.Sprintf("#use_builtin %s = %s", u.LocalName, u.BuiltinName)
}

// TypedArg is a single (name: Type) binder, used by proc signatures,
// dependent-map prefixes, and constructor telescopes.
type TypedArg struct {
	Name string
	Type Type
	Pos  Pos
}

func (a *TypedArg) Position() Pos  { return a.Pos }
func (a *TypedArg) String() string { return fmt.Sprintf("%s:%s", a.Name, a.Type) }

// ProcDef is `#proc name : Type { statements }`.
type ProcDef struct {
	Name string
	Sig  Type // the full dependent-map (or map) signature
	Body []Statement
	Pos  Pos
}

func (p *ProcDef) itemNode()     {}
func (p *ProcDef) Position() Pos { return p.Pos }
func (p *ProcDef) String() string {
	body := make([]string, len(p.Body))
	for i, s := range p.Body {
		body[i] = s.String()
	}
	return fmt.Sprintf("#proc %s : %s { %s }", p.Name, p.Sig, strings.Join(body, "; "))
}

// StructField is one `name: Type` member of a #struct or #array item type.
type StructField struct {
	Name string
	Type Type
}

// StructDecl is `#struct Name { fields }`.
type StructDecl struct {
	Name   string
	Fields []StructField
	Pos    Pos
}

func (s *StructDecl) itemNode()     {}
func (s *StructDecl) Position() Pos { return s.Pos }
func (s *StructDecl) String() string {
	fs := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		fs[i] = fmt.Sprintf("%s:%s", f.Name, f.Type)
	}
	return fmt.Sprintf("#struct %s { %s }", s.Name, strings.Join(fs, ", "))
}

// ArrayDecl is `#array Name { item: struct{...}; dimension: N; }`, an SoA
// array type declaration.
type ArrayDecl struct {
	Name      string
	Item      *StructDecl // the inline element struct
	Dimension int
	Pos       Pos
}

func (a *ArrayDecl) itemNode()     {}
func (a *ArrayDecl) Position() Pos { return a.Pos }
func (a *ArrayDecl) String() string {
	return fmt.Sprintf("#array %s { item: %s; dimension: %d; }", a.Name, a.Item, a.Dimension)
}

// Constructor is one `name: Type` entry of an inductive `#type` definition.
type Constructor struct {
	Name string
	Type Type
}

// TypeDef is `#type Name : sort { ctor: ty, ... }`, an inductive type
// definition with its sort and constructor telescope.
type TypeDef struct {
	Name         string
	Sort         Type // Prop | Set | Type(i)
	Constructors []Constructor
	Pos          Pos
}

func (t *TypeDef) itemNode()     {}
func (t *TypeDef) Position() Pos { return t.Pos }
func (t *TypeDef) String() string {
	cs := make([]string, len(t.Constructors))
	for i, c := range t.Constructors {
		cs[i] = fmt.Sprintf("%s: %s", c.Name, c.Type)
	}
	return fmt.Sprintf("#type %s : %s { %s }", t.Name, t.Sort, strings.Join(cs, ", "))
}

// Inductive/Definition/Theorem are the pure-CIC front-end-only items:
// they type-check but have no code-gen path.
type Inductive struct {
	Name         string
	Sort         Type
	Constructors []Constructor
	Pos          Pos
}

func (i *Inductive) itemNode()      {}
func (i *Inductive) Position() Pos  { return i.Pos }
func (i *Inductive) String() string { return fmt.Sprintf("#inductive %s", i.Name) }

// Definition is `#definition name : Type := term`.
type Definition struct {
	Name string
	Type Type
	Body Expr
	Pos  Pos
}

func (d *Definition) itemNode()     {}
func (d *Definition) Position() Pos { return d.Pos }
func (d *Definition) String() string {
	return fmt.Sprintf("#definition %s : %s := %s", d.Name, d.Type, d.Body)
}

// Theorem is `#theorem name : Formula := proof`, the older dialect's
// forall-quantified-formula vocabulary: accepted
// by the CIC kernel, never lowered by codegen.
type Theorem struct {
	Name  string
	Claim Type
	Proof Expr
	Pos   Pos
}

func (t *Theorem) itemNode()     {}
func (t *Theorem) Position() Pos { return t.Pos }
func (t *Theorem) String() string {
	return fmt.Sprintf("#theorem %s : %s", t.Name, t.Claim)
}
