package common

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// NormalizeNumber brings a numeric literal into the form used in the data
// section: ".5" -> "0.5", "5." -> "5.0", "5" -> "5.0". A leading minus is kept.
// Normalizing twice gives the same result.
func NormalizeNumber(text string) string {
	sign := ""
	if strings.HasPrefix(text, "-") {
		sign = "-"
		text = text[1:]
	}
	switch {
	case !strings.Contains(text, "."):
		text += ".0"
	case strings.HasPrefix(text, "."):
		text = "0" + text
		if strings.HasSuffix(text, ".") {
			text += "0"
		}
	case strings.HasSuffix(text, "."):
		text += "0"
	}
	return sign + text
}

// SanitizeLabel turns an identifier or normalized number into a data label:
// "." becomes "_", a leading "-" becomes "neg_", and the result gets a "_"
// prefix.
func SanitizeLabel(name string) string {
	if strings.HasPrefix(name, "-") {
		name = "neg_" + name[1:]
	}
	return "_" + strings.ReplaceAll(name, ".", "_")
}

// ConstantName is the symbol table key for a numeric constant.
func ConstantName(normalized string) string {
	return "_" + normalized
}

func TemporaryName(n int) string {
	return fmt.Sprintf("@T%d", n)
}

// StringLabel derives a stable label from the literal content.
func StringLabel(content string) string {
	h := fnv.New32a()
	h.Write([]byte(content))
	return fmt.Sprintf("_STR_%08x", h.Sum32())
}

// labelAllocator hands out data labels that are unique within one program.
// Sanitizing is not injective ("-1" and "neg_1_0" both give "_neg_1_0"), so a
// taken label gets a numeric suffix.
type labelAllocator struct {
	used map[string]bool
}

func newLabelAllocator(reserved []string) *labelAllocator {
	a := &labelAllocator{used: make(map[string]bool)}
	for _, label := range reserved {
		a.used[label] = true
	}
	return a
}

func (a *labelAllocator) alloc(base string) string {
	label := base
	for i := 1; a.used[label]; i++ {
		label = fmt.Sprintf("%s_%d", base, i)
	}
	a.used[label] = true
	return label
}

func JumpLabel(index int) string {
	return fmt.Sprintf("L%d", index)
}
