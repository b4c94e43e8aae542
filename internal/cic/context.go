package cic

import "github.com/sunholo/felis/internal/defid"

// Context is Γ: a parent-chained map from local variable DefId to its
// type, mirroring resolved.Scope's lookup discipline.
type Context struct {
	types  map[defid.ID]Term
	parent *Context
}

func NewContext() *Context {
	return &Context{types: make(map[defid.ID]Term)}
}

// Extend returns a new child context with one additional binding,
// leaving the receiver untouched (contexts are immutable once built,
// matching the kernel's value-like Term semantics).
func (c *Context) Extend(id defid.ID, ty Term) *Context {
	return &Context{types: map[defid.ID]Term{id: ty}, parent: c}
}

func (c *Context) Lookup(id defid.ID) (Term, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if ty, ok := ctx.types[id]; ok {
			return ty, true
		}
	}
	return nil, false
}
