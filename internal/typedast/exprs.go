package typedast

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
)

// Expr mirrors resolved.Expr with a TypeTerm attached to every node.
type Expr interface {
	exprNode()
	Position() ast.Pos
	TypeOf() cic.Term
}

type Var struct {
	Ref  Ref
	Type cic.Term
	Pos  ast.Pos
}

func (v *Var) exprNode()         {}
func (v *Var) Position() ast.Pos { return v.Pos }
func (v *Var) TypeOf() cic.Term  { return v.Type }

type App struct {
	Func Expr
	Args []Expr
	Type cic.Term
	Pos  ast.Pos
}

func (a *App) exprNode()         {}
func (a *App) Position() ast.Pos { return a.Pos }
func (a *App) TypeOf() cic.Term  { return a.Type }

type Paren struct {
	Inner Expr
	Type  cic.Term
	Pos   ast.Pos
}

func (p *Paren) exprNode()         {}
func (p *Paren) Position() ast.Pos { return p.Pos }
func (p *Paren) TypeOf() cic.Term  { return p.Type }

// NumberKind distinguishes the concrete base type a literal was
// elaborated to: i64 unless a type suffix or a decimal point says
// otherwise.
type NumberKind int

const (
	NumI64 NumberKind = iota
	NumU64
	NumF32
	NumF64
	NumU32
	NumI32
	NumU16
	NumI16
	NumU8
	NumI8
)

type Number struct {
	Text string
	Kind NumberKind
	Type cic.Term
	Pos  ast.Pos
}

func (n *Number) exprNode()         {}
func (n *Number) Position() ast.Pos { return n.Pos }
func (n *Number) TypeOf() cic.Term  { return n.Type }

// String is elaborated to the designated 16-byte (length, pointer)
// str base type.
type String struct {
	Text string
	Type cic.Term
	Pos  ast.Pos
}

func (s *String) exprNode()         {}
func (s *String) Position() ast.Pos { return s.Pos }
func (s *String) TypeOf() cic.Term  { return s.Type }

type FieldAccess struct {
	Object Expr
	Field  string
	Index  Expr
	Type   cic.Term
	Pos    ast.Pos
}

func (f *FieldAccess) exprNode()         {}
func (f *FieldAccess) Position() ast.Pos { return f.Pos }
func (f *FieldAccess) TypeOf() cic.Term  { return f.Type }

type ConstructorCall struct {
	TypeName string
	TypeDef  defid.ID
	Method   string
	Args     []Expr
	Type     cic.Term
	Pos      ast.Pos
}

func (c *ConstructorCall) exprNode()           {}
func (c *ConstructorCall) Position() ast.Pos   { return c.Pos }
func (c *ConstructorCall) TypeOf() cic.Term    { return c.Type }
func (c *ConstructorCall) IsNewWithSize() bool { return c.Method == "new_with_size" }

type Dereference struct {
	Inner Expr
	Type  cic.Term
	Pos   ast.Pos
}

func (d *Dereference) exprNode()         {}
func (d *Dereference) Position() ast.Pos { return d.Pos }
func (d *Dereference) TypeOf() cic.Term  { return d.Type }

type If struct {
	Cond Expr
	Then Expr
	Else Expr
	Type cic.Term
	Pos  ast.Pos
}

func (i *If) exprNode()         {}
func (i *If) Position() ast.Pos { return i.Pos }
func (i *If) TypeOf() cic.Term  { return i.Type }

// MatchArm's Bound parameters carry the argument types substituted
// from the scrutinee's inferred inductive arguments.
type MatchArm struct {
	Constructor    string
	ConstructorDef defid.ID
	Bound          []Param
	Body           Expr
	Pos            ast.Pos
}

type Match struct {
	Scrutinee Expr
	Arms      []MatchArm
	Type      cic.Term
	Pos       ast.Pos
}

func (m *Match) exprNode()         {}
func (m *Match) Position() ast.Pos { return m.Pos }
func (m *Match) TypeOf() cic.Term  { return m.Type }
