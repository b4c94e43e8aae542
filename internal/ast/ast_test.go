package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeStringRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		typ  Type
		want string
	}{
		{"atom", &AtomType{Name: "u64"}, "u64"},
		{"map", &MapType{Source: &AtomType{Name: "u64"}, Target: &AtomType{Name: "u64"}}, "u64 -> u64"},
		{
			"dependent map",
			&DependentMapType{Var: "x", Source: &AtomType{Name: "u64"}, Target: &AtomType{Name: "u64"}},
			"(x:u64) -> u64",
		},
		{"unit", &UnitType{}, "()"},
		{"paren", &ParenType{Inner: &AtomType{Name: "u64"}}, "(u64)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.typ.String())
		})
	}
}

func TestFlattenDependentPrefix(t *testing.T) {
	sig := &DependentMapType{
		Var:    "x",
		Source: &AtomType{Name: "u64"},
		Target: &DependentMapType{
			Var:    "y",
			Source: &AtomType{Name: "u64"},
			Target: &AtomType{Name: "u64"},
		},
	}
	params, result := FlattenDependentPrefix(sig)
	if assert.Len(t, params, 2) {
		assert.Equal(t, "x", params[0].Name)
		assert.Equal(t, "y", params[1].Name)
	}
	assert.Equal(t, "u64", result.String())
}

func TestExprStringRoundTrip(t *testing.T) {
	n := &App{
		Func: &Variable{Name: "u64_add"},
		Args: []Expr{&Number{Text: "40"}, &Number{Text: "2"}},
	}
	assert.Equal(t, "u64_add(40, 2)", n.String())
}

func TestIdentWithPathDotted(t *testing.T) {
	id := &IdentWithPath{Segments: []string{"points", "x"}}
	assert.Equal(t, "points.x", id.String())
}

func TestConstructorCallNewWithSize(t *testing.T) {
	c := &ConstructorCall{TypeName: "Ps", Method: "new_with_size", Args: []Expr{&Number{Text: "1"}}}
	assert.True(t, c.IsNewWithSize())
	assert.Equal(t, "Ps::new_with_size(1)", c.String())
}
