package cic

import (
	"fmt"
	"strings"

	"github.com/sunholo/felis/internal/defid"
)

// Format renders t for diagnostics and the REPL. The kernel itself
// only knows DefIds, so the caller supplies a namer; a nil namer
// falls back to ?N placeholders.
func Format(t Term, name func(defid.ID) string) string {
	if name == nil {
		name = func(id defid.ID) string { return fmt.Sprintf("?%d", uint64(id)) }
	}
	var b strings.Builder
	formatTerm(&b, t, name, false)
	return b.String()
}

func formatTerm(b *strings.Builder, t Term, name func(defid.ID) string, nested bool) {
	switch n := t.(type) {
	case Sort:
		switch n.Kind {
		case Prop:
			b.WriteString("Prop")
		case SetSort:
			b.WriteString("Set")
		default:
			fmt.Fprintf(b, "Type(%d)", n.Level)
		}
	case Variable:
		b.WriteString(name(n.Def))
	case Constant:
		b.WriteString(name(n.Def))
	case Product:
		if nested {
			b.WriteString("(")
		}
		if n.Var.IsZero() {
			formatTerm(b, n.Source, name, true)
		} else {
			fmt.Fprintf(b, "(%s:", name(n.Var))
			formatTerm(b, n.Source, name, false)
			b.WriteString(")")
		}
		b.WriteString(" -> ")
		formatTerm(b, n.Target, name, false)
		if nested {
			b.WriteString(")")
		}
	case Lambda:
		if nested {
			b.WriteString("(")
		}
		fmt.Fprintf(b, "fun (%s:", name(n.Var))
		formatTerm(b, n.SourceTy, name, false)
		b.WriteString(") => ")
		formatTerm(b, n.Body, name, false)
		if nested {
			b.WriteString(")")
		}
	case Application:
		if nested {
			b.WriteString("(")
		}
		formatTerm(b, n.Func, name, true)
		for _, a := range n.Args {
			b.WriteString(" ")
			formatTerm(b, a, name, true)
		}
		if nested {
			b.WriteString(")")
		}
	case LetIn:
		fmt.Fprintf(b, "let %s : ", name(n.Var))
		formatTerm(b, n.Ty, name, false)
		b.WriteString(" := ")
		formatTerm(b, n.Value, name, false)
		b.WriteString(" in ")
		formatTerm(b, n.Body, name, false)
	case Match:
		b.WriteString("match ")
		formatTerm(b, n.Scrutinee, name, true)
		b.WriteString(" { ")
		for i, br := range n.Branches {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(name(br.Constructor))
			for _, v := range br.Bound {
				b.WriteString(" ")
				b.WriteString(name(v))
			}
			b.WriteString(" => ")
			formatTerm(b, br.Body, name, false)
		}
		b.WriteString(" }")
	default:
		fmt.Fprintf(b, "<%T>", t)
	}
}
