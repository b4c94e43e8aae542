package lexer

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

// bomUTF8 is the UTF-8 byte-order mark.
var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// Normalize strips a leading UTF-8 BOM and applies Unicode NFC
// normalization before the first token is read, so that two source files
// differing only in BOM presence or NFC/NFD composition tokenize to the
// identical stream. Run once per file, before the first token is read.
func Normalize(src []byte) []byte {
	src = bytes.TrimPrefix(src, bomUTF8)
	if !norm.NFC.IsNormal(src) {
		src = norm.NFC.Bytes(src)
	}
	return src
}
