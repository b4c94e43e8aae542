package pipeline

import (
	"fmt"
	"strings"

	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/elaborate"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

// DumpResolved renders the resolved item list, one line per item, for
// the CLI's --dump-resolved flag.
func DumpResolved(f *resolved.File) string {
	var b strings.Builder
	b.WriteString("; resolved items\n")
	for _, it := range f.Items {
		switch n := it.(type) {
		case *resolved.Entrypoint:
			fmt.Fprintf(&b, "entrypoint %s -> %s\n", n.Target.Name, n.Target.Def)
		case *resolved.UseBuiltin:
			fmt.Fprintf(&b, "use_builtin %s = %s (%s)\n", n.LocalName, n.BuiltinName, n.Def)
		case *resolved.ProcDef:
			fmt.Fprintf(&b, "proc %s (%s)\n", n.Name, n.Def)
		case *resolved.TypeDef:
			fmt.Fprintf(&b, "type %s (%s), %d constructors\n", n.Name, n.Def, len(n.Constructors))
		case *resolved.Inductive:
			fmt.Fprintf(&b, "inductive %s (%s), %d constructors\n", n.Name, n.Def, len(n.Constructors))
		case *resolved.Definition:
			fmt.Fprintf(&b, "definition %s (%s)\n", n.Name, n.Def)
		case *resolved.Theorem:
			fmt.Fprintf(&b, "theorem %s (%s)\n", n.Name, n.Def)
		case *resolved.StructDecl:
			fmt.Fprintf(&b, "struct %s (%s)\n", n.Name, n.Def)
		case *resolved.ArrayDecl:
			fmt.Fprintf(&b, "array %s (%s)\n", n.Name, n.Def)
		default:
			fmt.Fprintf(&b, "item %T\n", it)
		}
	}
	return b.String()
}

// DumpTyped renders each procedure's coerced function type and local
// slot layout, for the CLI's --dump-typed flag.
func DumpTyped(f *typedast.File) string {
	namer := Namer(f)
	var b strings.Builder
	b.WriteString("; typed procedures\n")
	for _, it := range f.Items {
		switch n := it.(type) {
		case *typedast.ProcDef:
			var sig strings.Builder
			for _, p := range n.Params {
				fmt.Fprintf(&sig, "(%s:%s) -> ", p.Name, cic.Format(p.Type, namer))
			}
			sig.WriteString(cic.Format(n.Result, namer))
			fmt.Fprintf(&b, "proc %s : %s\n", n.Name, sig.String())
			for k, slot := range n.Locals {
				fmt.Fprintf(&b, "  local %d %s : %s\n", k, slot.Name, cic.Format(slot.Type, namer))
			}
		case *typedast.Definition:
			fmt.Fprintf(&b, "definition %s : %s\n", n.Name, cic.Format(n.Type, namer))
		case *typedast.Theorem:
			fmt.Fprintf(&b, "theorem %s : %s\n", n.Name, cic.Format(n.Claim, namer))
		}
	}
	return b.String()
}

// Namer builds a DefId-to-surface-name function over every binder the
// typed file carries, falling back to the base-type table and then to
// a ?N placeholder. Shared by the dump flags and the REPL.
func Namer(f *typedast.File) func(defid.ID) string {
	names := make(map[defid.ID]string)
	var walkStmts func(stmts []typedast.Statement)
	record := func(id defid.ID, name string) {
		if !id.IsZero() {
			names[id] = name
		}
	}
	walkStmts = func(stmts []typedast.Statement) {
		for _, s := range stmts {
			switch n := s.(type) {
			case *typedast.Let:
				record(n.Def, n.Name)
			case *typedast.LetMut:
				record(n.ValueDef, n.Name)
				record(n.RefDef, n.RefName)
			case *typedast.IfStmt:
				walkStmts(n.Then)
				walkStmts(n.Else)
			case *typedast.Loop:
				walkStmts(n.Body)
			}
		}
	}
	for _, it := range f.Items {
		switch n := it.(type) {
		case *typedast.ProcDef:
			record(n.Def, n.Name)
			for _, p := range n.Params {
				record(p.Def, p.Name)
			}
			for _, slot := range n.Locals {
				record(slot.Def, slot.Name)
			}
			walkStmts(n.Body)
		case *typedast.TypeDef:
			record(n.Def, n.Name)
			for _, c := range n.Constructors {
				record(c.Def, c.Name)
			}
		case *typedast.Inductive:
			record(n.Def, n.Name)
			for _, c := range n.Constructors {
				record(c.Def, c.Name)
			}
		case *typedast.Definition:
			record(n.Def, n.Name)
		case *typedast.Theorem:
			record(n.Def, n.Name)
		case *typedast.StructDecl:
			record(n.Def, n.Name)
		case *typedast.ArrayDecl:
			record(n.Def, n.Name)
		case *typedast.UseBuiltin:
			record(n.Def, n.LocalName)
		}
	}
	return func(id defid.ID) string {
		if name, ok := names[id]; ok {
			return name
		}
		if name, ok := elaborate.BaseTypeName(id); ok {
			return name
		}
		return fmt.Sprintf("?%d", uint64(id))
	}
}
