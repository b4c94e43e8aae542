package elaborate

import (
	"github.com/sunholo/felis/internal/ast"
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/errors"
)

// typErrCodes maps every cic.TypeErrorKind to its TYP### code
// one-for-one (internal/errors/codes.go documents the same mapping in
// its own comments).
var typErrCodes = [...]string{
	cic.UnboundVariable:       errors.TYP001,
	cic.UnboundConstant:       errors.TYP002,
	cic.NotAFunction:          errors.TYP003,
	cic.TypeMismatch:          errors.TYP004,
	cic.NotAType:              errors.TYP005,
	cic.InvalidApplication:    errors.TYP006,
	cic.InvalidProductSort:    errors.TYP007,
	cic.UniverseInconsistency: errors.TYP008,
	cic.UnknownInductive:      errors.TYP009,
	cic.UnknownConstructor:    errors.TYP010,
	cic.InvalidConstructor:    errors.TYP011,
	cic.InvalidCase:           errors.TYP012,
}

// asReport converts a kernel TypeError into a position-bearing Report
// once the elaborator has an AST node to blame.
// Any other error is wrapped as a generic TYP004 with the node's
// position, since it originates from the elaborator's own structural
// checks (unknown type name, arity mismatch) rather than the kernel.
func asReport(pos ast.Pos, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsReport(err); ok {
		return err
	}
	if te, ok := err.(*cic.TypeError); ok {
		code := errors.TYP004
		if int(te.Kind) < len(typErrCodes) {
			code = typErrCodes[te.Kind]
		}
		return errors.WrapReport(errors.Newf(code, pos, "%s", te.Message))
	}
	return errors.WrapReport(errors.Newf(errors.TYP004, pos, "%s", err.Error()))
}
