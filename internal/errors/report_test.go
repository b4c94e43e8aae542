package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunholo/felis/internal/ast"
)

func TestReportRoundTripsThroughErrorsAs(t *testing.T) {
	pos := ast.Pos{File: "a.fe", Line: 3, Column: 1}
	rep := New(RES001, pos, "unknown name 'foo'")
	err := WrapReport(rep)

	got, ok := AsReport(err)
	require.True(t, ok)
	assert.Equal(t, RES001, got.Code)
	assert.Equal(t, "resolve", got.Phase)
}

func TestPhaseForCode(t *testing.T) {
	assert.Equal(t, "lex", PhaseForCode(LEX001))
	assert.Equal(t, "parse", PhaseForCode(PAR001))
	assert.Equal(t, "resolve", PhaseForCode(RES001))
	assert.Equal(t, "typecheck", PhaseForCode(TYP001))
	assert.Equal(t, "codegen", PhaseForCode(GEN001))
	assert.Equal(t, "unknown", PhaseForCode("??"))
}

func TestWrapNilReportIsNilError(t *testing.T) {
	assert.Nil(t, WrapReport(nil))
}

func TestReportJSONIsDeterministic(t *testing.T) {
	pos := ast.Pos{File: "a.fe", Line: 1, Column: 1}
	rep := New(TYP004, pos, "type mismatch").WithData("expected", "u64").WithData("found", "f32")
	js, err := rep.ToJSON(true)
	require.NoError(t, err)
	assert.Contains(t, js, `"code":"TYP004"`)
}
