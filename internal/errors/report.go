package errors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sunholo/felis/internal/ast"
)

// Report is the canonical structured error type for Felis. Every builder
// in internal/parser, internal/resolved, internal/elaborate, and
// internal/codegen returns a *Report, wrapped as a ReportError so it
// survives errors.As() unwrapping across phase boundaries. The lexer
// raises a *lexer.LexError, which parser.ParseFile turns into a LEX
// Report. internal/cic,
// the position-free kernel, raises its own
// *cic.TypeError instead; the elaborator attaches the AST position of
// the node being checked when it turns a kernel error into a Report.
type Report struct {
	Schema  string         `json:"schema"` // always "felis.error/v1"
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Pos     *ast.Pos       `json:"pos,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// Fix is an optional suggested remedy.
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// ReportError wraps a Report as an error.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	if e.Rep.Pos != nil {
		return fmt.Sprintf("%s at %s: %s", e.Rep.Code, e.Rep.Pos, e.Rep.Message)
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as an error.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// New builds a Report for the given code, attaching the phase derived
// from the code's prefix.
func New(code string, pos ast.Pos, message string) *Report {
	return &Report{
		Schema:  "felis.error/v1",
		Code:    code,
		Phase:   PhaseForCode(code),
		Message: message,
		Pos:     &pos,
		Data:    map[string]any{},
	}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code string, pos ast.Pos, format string, args ...any) *Report {
	return New(code, pos, fmt.Sprintf(format, args...))
}

// WithFix attaches a suggested fix and returns the receiver for chaining.
func (r *Report) WithFix(suggestion string, confidence float64) *Report {
	r.Fix = &Fix{Suggestion: suggestion, Confidence: confidence}
	return r
}

// WithData attaches a structured data field and returns the receiver.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// ToJSON renders the Report deterministically.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
