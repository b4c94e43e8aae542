// Package pipeline is the single orchestration entry point threading
// a source file through every compilation phase in order: lex, parse,
// resolve, elaborate, then the x86-64 backend and (optionally) the PTX
// backend. One Compile entry point, a Config value threaded straight
// through, a context.Context carried for cancellation even though the
// compiler itself never spawns goroutines.
package pipeline

import (
	"context"
	"strings"

	"github.com/sunholo/felis/internal/codegen/ptx"
	"github.com/sunholo/felis/internal/codegen/x86"
	"github.com/sunholo/felis/internal/config"
	"github.com/sunholo/felis/internal/elaborate"
	"github.com/sunholo/felis/internal/errors"
	"github.com/sunholo/felis/internal/parser"
	"github.com/sunholo/felis/internal/resolved"
	"github.com/sunholo/felis/internal/typedast"
)

// Result keeps every intermediate phase's tree around for test
// assertions and --dump flags rather than discarding them once
// codegen is done.
type Result struct {
	Resolved *resolved.File
	Typed    *typedast.File
	X86      string
	PTX      string
}

// Compile runs one source file through every phase in order,
// stopping at the first phase error. ctx is checked between
// phases purely so a CLI Ctrl-C or test timeout can cancel a
// compilation in flight; the compiler does no concurrent work of its
// own.
func Compile(ctx context.Context, filename, src string, cfg config.Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	astFile, err := parser.ParseFile(src, filename)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := resolved.NewResolver()
	resolvedFile, err := r.ResolveFile(astFile)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elab := elaborate.NewElaborator(r.Generator())
	typed, err := elab.Elaborate(resolvedFile)
	if err != nil {
		return nil, err
	}

	res := &Result{Resolved: resolvedFile, Typed: typed}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := x86.HostOnly
	if cfg.PTX {
		mode = x86.WithPTX
	}
	hostEmitter := x86.New(mode)

	if cfg.PTX {
		ptxEmitter := ptx.New()
		ptxText, err := ptxEmitter.Emit(typed)
		if err != nil {
			return nil, err
		}
		res.PTX = ptxText
		hostEmitter.SetPTXImage(ptxText)
	}

	x86Text, err := hostEmitter.Emit(typed)
	if err != nil {
		return nil, err
	}
	res.X86 = x86Text

	return res, nil
}

// RenderError formats any error Compile returns. A *errors.ReportError
// carries a phase-tagged code and position; anything else (e.g. a
// plain context.Canceled) is rendered as-is.
func RenderError(err error) string {
	if rep, ok := errors.AsReport(err); ok {
		var b strings.Builder
		b.WriteString(rep.Code)
		b.WriteString(": ")
		b.WriteString(rep.Message)
		if rep.Pos != nil {
			b.WriteString(" (")
			b.WriteString(rep.Pos.String())
			b.WriteString(")")
		}
		return b.String()
	}
	return err.Error()
}
