package elaborate

import (
	"github.com/sunholo/felis/internal/cic"
	"github.com/sunholo/felis/internal/defid"
)

func idFromUint(v uint64) defid.ID { return defid.ID(v) }

// Primitive numeric/string base types have no user-level binder, so
// they are represented as Constants at reserved sentinel DefIds, the
// same trick used for unitType. Felis's concrete syntax never
// declares them, so the elaborator seeds them once per compilation.
const (
	baseU64 = unitDefID - 1 - iota
	baseI64
	baseU32
	baseI32
	baseU16
	baseI16
	baseU8
	baseI8
	baseF32
	baseF64
	baseStr
)

var baseTypeNames = map[string]uint64{
	"u64": uint64(baseU64),
	"i64": uint64(baseI64),
	"u32": uint64(baseU32),
	"i32": uint64(baseI32),
	"u16": uint64(baseU16),
	"i16": uint64(baseI16),
	"u8":  uint64(baseU8),
	"i8":  uint64(baseI8),
	"f32": uint64(baseF32),
	"f64": uint64(baseF64),
	"str": uint64(baseStr),
}

func baseConstant(name string) (cic.Constant, bool) {
	id, ok := baseTypeNames[name]
	if !ok {
		return cic.Constant{}, false
	}
	return cic.Constant{Def: idFromUint(id)}, true
}

// IsFloatType reports whether t is the f32 or f64 base type, the only
// distinction internal/codegen/x86 and internal/codegen/ptx need to
// pick a register class.
func IsFloatType(t cic.Term) bool {
	c, ok := t.(cic.Constant)
	if !ok {
		return false
	}
	return c.Def == idFromUint(baseTypeNames["f32"]) || c.Def == idFromUint(baseTypeNames["f64"])
}

// BaseTypeName maps a reserved base-type sentinel DefId back to its
// surface name, for term printers. Reports false for any id that is
// not a base-type sentinel.
func BaseTypeName(id defid.ID) (string, bool) {
	if id == unitDefID {
		return "()", true
	}
	for name, raw := range baseTypeNames {
		if idFromUint(raw) == id {
			return name, true
		}
	}
	return "", false
}

// baseName returns the surface name of a base-type constant, or ""
// when t is not one.
func baseName(t cic.Term) string {
	c, ok := t.(cic.Constant)
	if !ok {
		return ""
	}
	n, ok := BaseTypeName(c.Def)
	if !ok {
		return ""
	}
	return n
}

func isIntegerBase(t cic.Term) bool {
	switch baseName(t) {
	case "u64", "i64", "u32", "i32", "u16", "i16", "u8", "i8":
		return true
	}
	return false
}
