package resolved

import "github.com/sunholo/felis/internal/defid"

// Scope is a lexically-nested binding table chained to a parent: a
// miss walks up to the enclosing scope before failing.
type Scope struct {
	bindings map[string]defid.ID
	parent   *Scope
}

// NewScope opens a child scope. parent may be nil for the outermost
// (global) scope.
func NewScope(parent *Scope) *Scope {
	return &Scope{bindings: make(map[string]defid.ID), parent: parent}
}

// Bind introduces name into this scope, shadowing any outer binding of
// the same name. Re-binding within the same scope is legal (e.g. two
// #let statements reusing a name), matching Felis's lack of a
// redeclaration-in-block error.
func (s *Scope) Bind(name string, id defid.ID) {
	s.bindings[name] = id
}

// BoundHere reports whether name is bound directly in this scope,
// ignoring ancestors. The resolver uses it so a file-scope item may
// shadow a prelude name without tripping the duplicate-definition
// check.
func (s *Scope) BoundHere(name string) bool {
	_, ok := s.bindings[name]
	return ok
}

// Lookup searches this scope and its ancestors.
func (s *Scope) Lookup(name string) (defid.ID, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if id, ok := sc.bindings[name]; ok {
			return id, true
		}
	}
	return defid.Zero, false
}
