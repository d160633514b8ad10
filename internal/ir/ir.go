package ir

import (
	"fmt"
	"io"
	"strings"
)

/*
Intermediate representation for the back end. The front end emits a flat
reverse-Polish token sequence:

 * operands (identifiers, numbers, strings) push a value;
 * + - * / pop two values and push the result, NEG pops one;
 * := pops the destination and then the value;
 * CMP pops two values and sets the condition for the following branch;
 * BLE, BGE, BLT, BGT, BEQ, BNE, BI are always followed by the index of the
   token to jump to. Forward jumps are emitted as _PLHDR and backpatched once
   the destination is known;
 * WRITE and READ pop one value.
*/

const listingSeparator = "------------------------------------------------------"

type Program struct {
	tokens   []Token
	warnings []error
}

func NewProgram() *Program {
	return &Program{}
}

// FromTokens builds a program from an already finished token sequence.
func FromTokens(tokens ...Token) *Program {
	p := &Program{}
	for _, t := range tokens {
		p.Append(t)
	}
	return p
}

// Append adds a token to the end of the program and returns its index.
// Callers remember the index of a placeholder to backpatch it later.
func (p *Program) Append(tok Token) int {
	idx := len(p.tokens)
	p.tokens = append(p.tokens, tok)
	return idx
}

// Next returns the index the next Append will write to.
func (p *Program) Next() int {
	return len(p.tokens)
}

// Backpatch replaces the token at index. Only placeholders are expected to be
// patched, and only with destination indices; anything else is performed but
// recorded as a warning.
func (p *Program) Backpatch(index int, tok Token) error {
	if index < 0 || index >= len(p.tokens) {
		return fmt.Errorf("backpatch index %d out of range [0, %d)", index, len(p.tokens))
	}
	if old := p.tokens[index]; old.Kind != Placeholder {
		p.warnf("patching non-placeholder token %s at index %d", old, index)
	} else if _, ok := tok.Destination(); !ok {
		p.warnf("placeholder at index %d patched with %s, which is not a destination index", index, tok)
	}
	p.tokens[index] = tok
	return nil
}

func (p *Program) Len() int {
	return len(p.tokens)
}

func (p *Program) At(index int) Token {
	return p.tokens[index]
}

// Tokens returns a copy of the token sequence.
func (p *Program) Tokens() []Token {
	result := make([]Token, len(p.tokens))
	copy(result, p.tokens)
	return result
}

// Placeholders returns the indices of all unresolved placeholders.
func (p *Program) Placeholders() []int {
	var result []int
	for i, t := range p.tokens {
		if t.Kind == Placeholder {
			result = append(result, i)
		}
	}
	return result
}

func (p *Program) Warnings() []error {
	return p.warnings
}

func (p *Program) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Errorf(format, args...))
}

func (p *Program) String() string {
	var sb strings.Builder
	p.Print(&sb)
	return sb.String()
}

// Print writes the intermediate code listing.
func (p *Program) Print(writer io.Writer) {
	fmt.Fprintf(writer, "Intermediate code (RPN with indices)\n")
	fmt.Fprintf(writer, "%s\n", listingSeparator)
	for i, tok := range p.tokens {
		fmt.Fprintf(writer, "[%d] %s\n", i, tok)
	}
	fmt.Fprintf(writer, "%s\n", listingSeparator)
}
