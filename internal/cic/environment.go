package cic

import "github.com/sunholo/felis/internal/defid"

// ConstantDef is a top-level #definition/#theorem: its type, and its
// body when one exists (δ-reduction unfolds to Body).
type ConstantDef struct {
	Ty   Term
	Body Term // nil for an axiom-like constant with no body
}

// InductiveParam is one parameter of an inductive type definition.
type InductiveParam struct {
	Def defid.ID
	Ty  Term
}

// ConstructorDef is one constructor of an inductive type: its full
// telescope type (the Product chain ending in the inductive's own
// Constant) and its arity (argument count), used by Match checking.
type ConstructorDef struct {
	Def   defid.ID
	Ty    Term
	Arity int
}

// InductiveDef describes one inductive family: its parameters, sort,
// and constructors.
type InductiveDef struct {
	Def          defid.ID
	Params       []InductiveParam
	Sort         Term
	Constructors []ConstructorDef
}

// GlobalEnv is the environment threaded through typing and reduction:
// constants, inductives, and an O(1) constructor→inductive index.
type GlobalEnv struct {
	Constants  map[defid.ID]*ConstantDef
	Inductives map[defid.ID]*InductiveDef
	ctorOwner  map[defid.ID]defid.ID
}

func NewGlobalEnv() *GlobalEnv {
	return &GlobalEnv{
		Constants:  make(map[defid.ID]*ConstantDef),
		Inductives: make(map[defid.ID]*InductiveDef),
		ctorOwner:  make(map[defid.ID]defid.ID),
	}
}

// AddInductive registers an inductive definition and indexes each of
// its constructors for O(1) owner lookup.
func (g *GlobalEnv) AddInductive(ind *InductiveDef) {
	g.Inductives[ind.Def] = ind
	for _, c := range ind.Constructors {
		g.ctorOwner[c.Def] = ind.Def
	}
}

// AddConstant registers a #definition/#theorem.
func (g *GlobalEnv) AddConstant(id defid.ID, c *ConstantDef) {
	g.Constants[id] = c
}

// OwnerOf returns the inductive a constructor belongs to.
func (g *GlobalEnv) OwnerOf(ctor defid.ID) (defid.ID, bool) {
	id, ok := g.ctorOwner[ctor]
	return id, ok
}

// Constructor looks up a constructor's definition by id: it finds the
// owning inductive through the constructor index, then searches that
// inductive's constructor list.
func (g *GlobalEnv) Constructor(id defid.ID) (*ConstructorDef, *InductiveDef, bool) {
	owner, ok := g.ctorOwner[id]
	if !ok {
		return nil, nil, false
	}
	ind := g.Inductives[owner]
	for i := range ind.Constructors {
		if ind.Constructors[i].Def == id {
			return &ind.Constructors[i], ind, true
		}
	}
	return nil, nil, false
}
