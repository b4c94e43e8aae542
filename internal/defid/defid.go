// Package defid provides the monotone binder-identity generator shared by
// every phase of the Felis pipeline.
package defid

import "fmt"

// ID is an opaque, strictly increasing identifier assigned to exactly one
// binder (a type def, constructor, proc def, typed argument, let binding,
// match-pattern variable, or literal site) during name resolution pass 1.
//
// Two IDs compare equal iff they denote the same binding; ordering between
// two IDs reflects traversal order (items left-to-right, children before
// the enclosing payload), never source-text order across files.
type ID uint64

// Zero is never assigned to a real binder; it is used as the "no id yet"
// sentinel for nodes that have not reached the Defined phase.
const Zero ID = 0

func (id ID) String() string {
	return fmt.Sprintf("#%d", uint64(id))
}

// IsZero reports whether id is the unassigned sentinel.
func (id ID) IsZero() bool { return id == Zero }

// Generator hands out strictly increasing IDs for one compilation. It must
// be threaded explicitly through every define-site walk rather than kept as
// package state, so that two independent compilations never interleave.
type Generator struct {
	next uint64
}

// NewGenerator returns a generator whose first id is 1.
func NewGenerator() *Generator {
	return &Generator{next: 1}
}

// Fresh returns the next id and advances the generator.
func (g *Generator) Fresh() ID {
	id := ID(g.next)
	g.next++
	return id
}

// Peek returns the id that the next call to Fresh will return, without
// consuming it. Useful for tests asserting monotonicity.
func (g *Generator) Peek() ID {
	return ID(g.next)
}
