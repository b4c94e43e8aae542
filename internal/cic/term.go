// Package cic implements the Calculus of Inductive Constructions
// kernel: the Term language, capture-avoiding substitution, βδιζ
// reduction, the typing judgement, and the inductive environment.
package cic

import "github.com/sunholo/felis/internal/defid"

// SortKind distinguishes the three sort families.
type SortKind int

const (
	Prop SortKind = iota
	SetSort
	TypeU // Type(i), i held in Sort.Level
)

// Term is the kernel's canonical sum type. Every
// constructor has value semantics; the kernel never mutates a Term in
// place.
type Term interface {
	termNode()
}

// Sort is Prop, Set, or Type(i).
type Sort struct {
	Kind  SortKind
	Level int // meaningful only when Kind == TypeU
}

func (Sort) termNode() {}

// Variable is a bound local, referring to a Product/Lambda/LetIn/Match
// branch binder earlier in the same term.
type Variable struct {
	Def defid.ID
}

func (Variable) termNode() {}

// Constant is a top-level name: a #definition/#theorem constant, an
// inductive type, or a constructor, disambiguated by the GlobalEnv.
type Constant struct {
	Def defid.ID
}

func (Constant) termNode() {}

// Product is the dependent function type Πx:A.B; Var may occur free in
// Target.
type Product struct {
	Var    defid.ID
	Source Term
	Target Term
}

func (Product) termNode() {}

// Lambda is λx:A.t.
type Lambda struct {
	Var      defid.ID
	SourceTy Term
	Body     Term
}

func (Lambda) termNode() {}

// Application is multi-ary application `f a1 a2 ... an`.
type Application struct {
	Func Term
	Args []Term
}

func (Application) termNode() {}

// LetIn is `let x : A = t in u`.
type LetIn struct {
	Var   defid.ID
	Ty    Term
	Value Term
	Body  Term
}

func (LetIn) termNode() {}

// Branch is one arm of a Match: the constructor it matches, the DefIds
// freshly bound to its arguments, and the branch body.
type Branch struct {
	Constructor defid.ID
	Bound       []defid.ID
	Body        Term
}

// Match is the eliminator for an inductive value.
type Match struct {
	Scrutinee  Term
	ReturnType Term
	Branches   []Branch
}

func (Match) termNode() {}

// SortRule is the total function giving the sort of
// the product Πx:A.B when A : s1 and B : s2 in context x:A.
func SortRule(s1, s2 Sort) Sort {
	if s2.Kind == Prop {
		return Sort{Kind: Prop}
	}
	if s2.Kind == SetSort {
		return Sort{Kind: SetSort}
	}
	// s2 is Type(j)
	if s1.Kind != TypeU {
		return s2
	}
	level := s1.Level
	if s2.Level > level {
		level = s2.Level
	}
	return Sort{Kind: TypeU, Level: level}
}
