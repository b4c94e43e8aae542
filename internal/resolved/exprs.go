package resolved

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/defid"
)

// Expr mirrors ast.Expr; every occurrence of a name has become a Ref.
type Expr interface {
	exprNode()
	Position() ast.Pos
}

// Var is a resolved occurrence of a local or top-level name (replaces
// ast.Variable and ast.IdentWithPath).
type Var struct {
	Ref Ref
	Pos ast.Pos
}

func (v *Var) exprNode()         {}
func (v *Var) Position() ast.Pos { return v.Pos }

type App struct {
	Func Expr
	Args []Expr
	Pos  ast.Pos
}

func (a *App) exprNode()         {}
func (a *App) Position() ast.Pos { return a.Pos }

type Paren struct {
	Inner Expr
	Pos   ast.Pos
}

func (p *Paren) exprNode()         {}
func (p *Paren) Position() ast.Pos { return p.Pos }

type Number struct {
	Text    string
	IsFloat bool
	Pos     ast.Pos
}

func (n *Number) exprNode()         {}
func (n *Number) Position() ast.Pos { return n.Pos }

type String struct {
	Text string
	Pos  ast.Pos
}

func (s *String) exprNode()         {}
func (s *String) Position() ast.Pos { return s.Pos }

// FieldAccess is `obj.field[idx]`; Object resolves through the same Var
// path as any other expression, Field stays a bare string since struct
// field names are resolved structurally during elaboration, not here.
type FieldAccess struct {
	Object Expr
	Field  string
	Index  Expr
	Pos    ast.Pos
}

func (f *FieldAccess) exprNode()         {}
func (f *FieldAccess) Position() ast.Pos { return f.Pos }

// ConstructorCall is `Type::method(args)`. For new_with_size, TypeDef
// is the DefId of the named #array type (defid.Zero when no such
// top-level name exists); for any other method it is the DefId of the
// constructor `Type::method` itself.
type ConstructorCall struct {
	TypeName string
	TypeDef  defid.ID
	Method   string
	Args     []Expr
	Pos      ast.Pos
}

func (c *ConstructorCall) exprNode()           {}
func (c *ConstructorCall) Position() ast.Pos   { return c.Pos }
func (c *ConstructorCall) IsNewWithSize() bool { return c.Method == "new_with_size" }

type Dereference struct {
	Inner Expr
	Pos   ast.Pos
}

func (d *Dereference) exprNode()         {}
func (d *Dereference) Position() ast.Pos { return d.Pos }

// If is the resolved expression form.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  ast.Pos
}

func (i *If) exprNode()         {}
func (i *If) Position() ast.Pos { return i.Pos }

// MatchArm is a resolved arm: Constructor has been looked up in the
// enclosing File's PathTable and BoundNames have each received a fresh
// DefId scoped to Body.
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
	Pos       ast.Pos
}

func (m *Match) exprNode()         {}
func (m *Match) Position() ast.Pos { return m.Pos }
