// Package repl is an interactive elaboration loop: each submitted
// top-level item is appended to an accumulating program, re-resolved
// and re-elaborated, and its inferred type echoed back. Definitions
// can be normalized on demand, which is the quickest way to poke at
// the kernel's βδιζ reduction without writing a whole file.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
	"github.com/sunholo/felis/internal/elaborate"
	"github.com/sunholo/felis/internal/parser"
	"github.com/sunholo/felis/internal/pipeline"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Repl accumulates item source text across inputs. Every submission
// recompiles the whole buffer; the compiler is fast enough at REPL
// scale that caching phases would buy nothing.
type Repl struct {
	out   io.Writer
	items []string

	// last successful elaboration, for :type/:normalize/:dump
	typed *typedast.File
	env   *cic.GlobalEnv
	namer func(defid.ID) string
}

// New creates a REPL writing its output to out.
func New(out io.Writer) *Repl {
	return &Repl{out: out}
}

// Run is the interactive entry point used by `felis repl`.
func Run(out io.Writer) {
	r := New(out)
	fmt.Fprintf(out, "%s — type :help for commands\n", bold("Felis REPL"))

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".felis_history")
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := readBalanced(line)
		if err != nil {
			fmt.Fprintln(out, "bye")
			return
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)
		if !r.Handle(input) {
			return
		}
	}
}

// readBalanced keeps prompting until braces balance, so a #proc body
// can span lines.
func readBalanced(line *liner.State) (string, error) {
	input, err := line.Prompt("felis> ")
	if err != nil {
		return "", err
	}
	depth := braceDepth(input)
	for depth > 0 {
		more, err := line.Prompt("  ...> ")
		if err != nil {
			return "", err
		}
		input += "\n" + more
		depth += braceDepth(more)
	}
	return input, nil
}

func braceDepth(s string) int {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inString = !inString
		case '\\':
			if inString {
				i++
			}
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
			}
		}
	}
	return depth
}

// Handle processes one input and reports whether the loop should
// continue. Exported so tests can drive the REPL without a terminal.
func (r *Repl) Handle(input string) bool {
	trimmed := strings.TrimSpace(input)
	switch {
	case trimmed == ":quit" || trimmed == ":q":
		fmt.Fprintln(r.out, "bye")
		return false
	case trimmed == ":help" || trimmed == ":h":
		r.printHelp()
	case trimmed == ":reset":
		r.items = nil
		r.typed = nil
		r.env = nil
		r.namer = nil
		fmt.Fprintln(r.out, "cleared")
	case trimmed == ":items":
		if len(r.items) == 0 {
			fmt.Fprintln(r.out, "(empty)")
		}
		for _, it := range r.items {
			fmt.Fprintln(r.out, it)
		}
	case trimmed == ":dump":
		if r.typed == nil {
			fmt.Fprintln(r.out, "(nothing elaborated yet)")
		} else {
			fmt.Fprint(r.out, pipeline.DumpTyped(r.typed))
		}
	case strings.HasPrefix(trimmed, ":type "):
		r.showConstant(strings.TrimSpace(strings.TrimPrefix(trimmed, ":type ")), false)
	case strings.HasPrefix(trimmed, ":normalize "):
		r.showConstant(strings.TrimSpace(strings.TrimPrefix(trimmed, ":normalize ")), true)
	case strings.HasPrefix(trimmed, ":"):
		fmt.Fprintf(r.out, "%s: unknown command %s\n", red("Error"), trimmed)
	default:
		r.addItems(input)
	}
	return true
}

// addItems appends input to the program, recompiles, and reverts the
// buffer on any error.
func (r *Repl) addItems(input string) {
	candidate := append(append([]string{}, r.items...), input)
	typed, env, err := elaborateAll(candidate)
	if err != nil {
		fmt.Fprintf(r.out, "%s: %s\n", red("Error"), pipeline.RenderError(err))
		return
	}
	prev := itemCount(r.typed)
	r.items = candidate
	r.typed = typed
	r.env = env
	r.namer = pipeline.Namer(typed)
	for _, it := range typed.Items[prev:] {
		r.echoItem(it)
	}
}

func itemCount(f *typedast.File) int {
	if f == nil {
		return 0
	}
	return len(f.Items)
}

func elaborateAll(items []string) (*typedast.File, *cic.GlobalEnv, error) {
	src := strings.Join(items, "\n")
	astFile, err := parser.ParseFile(src, "<repl>")
	if err != nil {
		return nil, nil, err
	}
	res := resolved.NewResolver()
	resolvedFile, err := res.ResolveFile(astFile)
	if err != nil {
		return nil, nil, err
	}
	elab := elaborate.NewElaborator(res.Generator())
	typed, err := elab.Elaborate(resolvedFile)
	if err != nil {
		return nil, nil, err
	}
	return typed, elab.Env(), nil
}

func (r *Repl) echoItem(it typedast.Item) {
	switch n := it.(type) {
	case *typedast.ProcDef:
		var sig strings.Builder
		for _, p := range n.Params {
			fmt.Fprintf(&sig, "(%s:%s) -> ", p.Name, cic.Format(p.Type, r.namer))
		}
		sig.WriteString(cic.Format(n.Result, r.namer))
		fmt.Fprintf(r.out, "%s %s : %s\n", green("proc"), bold(n.Name), sig.String())
	case *typedast.Definition:
		fmt.Fprintf(r.out, "%s %s : %s\n", green("definition"), bold(n.Name), cic.Format(n.Type, r.namer))
	case *typedast.Theorem:
		fmt.Fprintf(r.out, "%s %s : %s\n", green("theorem"), bold(n.Name), cic.Format(n.Claim, r.namer))
	case *typedast.TypeDef:
		fmt.Fprintf(r.out, "%s %s, %d constructors\n", green("type"), bold(n.Name), len(n.Constructors))
	case *typedast.Inductive:
		fmt.Fprintf(r.out, "%s %s, %d constructors\n", green("inductive"), bold(n.Name), len(n.Constructors))
	case *typedast.StructDecl:
		fmt.Fprintf(r.out, "%s %s\n", green("struct"), bold(n.Name))
	case *typedast.ArrayDecl:
		fmt.Fprintf(r.out, "%s %s, dimension %d\n", green("array"), bold(n.Name), n.Dimension)
	case *typedast.UseBuiltin:
		fmt.Fprintf(r.out, "%s %s = %s\n", green("builtin"), bold(n.LocalName), n.BuiltinName)
	case *typedast.Entrypoint:
		fmt.Fprintf(r.out, "%s %s\n", green("entrypoint"), bold(n.Target.Name))
	}
}

// showConstant prints a named definition's type, or its βδιζ-normal
// form when normalize is set.
func (r *Repl) showConstant(name string, normalize bool) {
	if r.typed == nil {
		fmt.Fprintln(r.out, "(nothing elaborated yet)")
		return
	}
	id, ok := r.findByName(name)
	if !ok {
		fmt.Fprintf(r.out, "%s: unknown name %q\n", red("Error"), name)
		return
	}
	if normalize {
		nf := cic.Normalize(r.env, cic.Constant{Def: id})
		fmt.Fprintf(r.out, "%s = %s\n", cyan(name), cic.Format(nf, r.namer))
		return
	}
	ty, err := cic.NewTypeChecker(r.env).Infer(cic.NewContext(), cic.Constant{Def: id})
	if err != nil {
		fmt.Fprintf(r.out, "%s: %q has no registered type\n", yellow("Warning"), name)
		return
	}
	fmt.Fprintf(r.out, "%s : %s\n", cyan(name), cic.Format(ty, r.namer))
}

func (r *Repl) findByName(name string) (defid.ID, bool) {
	for _, it := range r.typed.Items {
		switch n := it.(type) {
		case *typedast.Definition:
			if n.Name == name {
				return n.Def, true
			}
		case *typedast.Theorem:
			if n.Name == name {
				return n.Def, true
			}
		case *typedast.ProcDef:
			if n.Name == name {
				return n.Def, true
			}
		case *typedast.TypeDef:
			if n.Name == name {
				return n.Def, true
			}
		case *typedast.Inductive:
			if n.Name == name {
				return n.Def, true
			}
		}
	}
	if id, ok := r.typed.Paths.ByQualified[name]; ok {
		return id, true
	}
	if id, ok := r.typed.Paths.ByBare[name]; ok {
		return id, true
	}
	return defid.Zero, false
}

func (r *Repl) printHelp() {
	fmt.Fprintln(r.out, bold("Commands:"))
	fmt.Fprintf(r.out, "  %s <name>       Show a top-level name's type\n", cyan(":type"))
	fmt.Fprintf(r.out, "  %s <name>  Show a definition's normal form\n", cyan(":normalize"))
	fmt.Fprintf(r.out, "  %s            Show every item entered so far\n", cyan(":items"))
	fmt.Fprintf(r.out, "  %s             Show inferred procedure types\n", cyan(":dump"))
	fmt.Fprintf(r.out, "  %s            Discard the session's items\n", cyan(":reset"))
	fmt.Fprintf(r.out, "  %s             Exit\n", cyan(":quit"))
	fmt.Fprintln(r.out, "Anything else is parsed as Felis top-level items.")
}
