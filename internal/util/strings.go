package util

import (
	"fmt"
	"strings"
	"unicode"
)

// DosString renders text as a MASM byte-string operand terminated by "$", the
// end marker of the DOS print-string service. Printable ASCII runs are quoted
// (quotes doubled), everything else is written as hex bytes. A "$" inside s is
// kept, so such text must be printed by length rather than with function 09h.
func DosString(s string) string {
	var parts []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, `"`+run.String()+`"`)
			run.Reset()
		}
	}
	for _, b := range []byte(s + "$") {
		r := rune(b)
		if unicode.IsPrint(r) && r < unicode.MaxASCII {
			if r == '"' {
				run.WriteString(`""`)
			} else {
				run.WriteRune(r)
			}
			continue
		}
		flush()
		parts = append(parts, MasmHex(int(b)))
	}
	flush()
	return strings.Join(parts, ",")
}

// MasmHex formats a value with the "h" suffix. A leading zero is added when
// the first digit is a letter so the assembler does not read it as a name.
func MasmHex(v int) string {
	s := fmt.Sprintf("%02X", v)
	if s[0] >= 'A' && s[0] <= 'F' {
		s = "0" + s
	}
	return s + "h"
}
