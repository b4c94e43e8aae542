// Package numlit parses the numeric literal text carried by
// typedast.Number into the raw bits each backend needs to emit
// — shared between internal/codegen/x86 and internal/codegen/ptx so
// the two backends agree on literal encoding.
package numlit

import (
	"math"
	"strconv"
	"strings"
)

// stripSuffix removes a trailing type suffix (u64, i32, f32, ...) and
// any `_` digit-group separators the lexer passed through verbatim.
func stripSuffix(text string) string {
	text = strings.ReplaceAll(text, "_", "")
	for _, suf := range []string{"u64", "i64", "u32", "i32", "u16", "i16", "u8", "i8", "f32", "f64"} {
		if strings.HasSuffix(text, suf) {
			return strings.TrimSuffix(text, suf)
		}
	}
	return text
}

// ParseInt parses an integer literal's raw text (any type suffix and
// `_` separators are stripped first) as an unsigned 64-bit value, the
// width every integer-kind register slot uses.
func ParseInt(text string) (uint64, error) {
	clean := stripSuffix(text)
	return strconv.ParseUint(clean, 10, 64)
}

// Float32Bits parses a float literal's raw text and returns its IEEE
// 754 single-precision bit pattern, used both by the x86 backend
// (`mov eax, <bits>; movd xmm0, eax`) and the PTX backend.
func Float32Bits(text string) (uint32, error) {
	clean := stripSuffix(text)
	f, err := strconv.ParseFloat(clean, 32)
	if err != nil {
		return 0, err
	}
	return math.Float32bits(float32(f)), nil
}
