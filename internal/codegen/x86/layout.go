package x86

import (
	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/elaborate"
	"github.com/sunholo/felis/internal/typedast"
)

// soaLayout records the synthetic stack slots a `#let v = T::new_with_size(n)`
// binding needs beyond its own (unused) declared slot: one pointer slot per
// SoA field plus one slot for the stored size.
type soaLayout struct {
	arr         *typedast.ArrayDecl
	sizeOffset  int
	fieldOffset map[string]int
}

// procLayout is the per-procedure compile-time slot table:
// an offset for every parameter and #let/#let mut slot,
// plus the extra synthetic slots any SoA-array binding needs. Offsets
// are negative byte counts from rbp, one 8-byte slot per entry.
type procLayout struct {
	offsets   map[defid.ID]int
	soa       map[defid.ID]*soaLayout
	soaByName map[string]*soaLayout // keyed by the let-bound variable name
	total     int                   // total 8-byte slots, for "sub rsp, 8*total"
}

func (l *procLayout) offsetOf(id defid.ID) int { return l.offsets[id] }

// buildLayout assigns one slot per parameter (in order) and one slot
// per #let/#let mut binder (in source order, matching
// typedast.ProcDef.Locals), then appends synthetic SoA slots for every
// `#let v = T::new_with_size(n)` it finds, in the order those lets
// appear.
func buildLayout(arrayDecls map[defid.ID]*typedast.ArrayDecl, p *typedast.ProcDef) *procLayout {
	l := &procLayout{
		offsets:   make(map[defid.ID]int),
		soa:       make(map[defid.ID]*soaLayout),
		soaByName: make(map[string]*soaLayout),
	}
	slot := 0
	assign := func(id defid.ID) int {
		off := -8 * (slot + 1)
		l.offsets[id] = off
		slot++
		return off
	}
	for _, param := range p.Params {
		assign(param.Def)
	}
	for _, loc := range p.Locals {
		assign(loc.Def)
	}
	// Second pass: find every #let whose value is T::new_with_size(n)
	// and allocate its field-pointer and size slots after every
	// declared local, in the order the lets appear. These are raw synthetic slots with no DefId of
	// their own, so they're tracked by byte offset directly rather
	// than through l.offsets.
	freshSlot := func() int {
		off := -8 * (slot + 1)
		slot++
		return off
	}
	walkLets(p.Body, func(let *typedast.Let) {
		cc, ok := let.Value.(*typedast.ConstructorCall)
		if !ok || !cc.IsNewWithSize() {
			return
		}
		arr, ok := arrayDecls[cc.TypeDef]
		if !ok {
			return
		}
		sl := &soaLayout{arr: arr, fieldOffset: make(map[string]int)}
		for _, f := range arr.Item.Fields {
			sl.fieldOffset[f.Name] = freshSlot()
		}
		sl.sizeOffset = freshSlot()
		l.soa[let.Def] = sl
		l.soaByName[let.Name] = sl
	})
	l.total = slot
	return l
}

// walkLets visits every #let statement reachable in body, including
// nested #if/#loop blocks, in source order.
func walkLets(body []typedast.Statement, visit func(*typedast.Let)) {
	for _, s := range body {
		switch n := s.(type) {
		case *typedast.Let:
			visit(n)
		case *typedast.IfStmt:
			walkLets(n.Then, visit)
			walkLets(n.Else, visit)
		case *typedast.Loop:
			walkLets(n.Body, visit)
		}
	}
}

func isFloat(e typedast.Expr) bool {
	return elaborate.IsFloatType(e.TypeOf())
}
