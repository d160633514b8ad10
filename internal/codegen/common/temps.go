package common

import "github.com/iley/rpnc/internal/ir"

// OperandCount decides how many values an arithmetic or negation token
// consumes given the current stack depth. A "-" with a single value available
// is treated as unary minus; NEG is always unary. The second result is false
// when the stack is too shallow for the token.
func OperandCount(tok ir.Token, depth int) (int, bool) {
	switch tok.Kind {
	case ir.Negate:
		return 1, depth >= 1
	case ir.Arithmetic:
		if depth >= 2 {
			return 2, true
		}
		if tok.Op == ir.Sub && depth == 1 {
			return 1, true
		}
	}
	return 0, false
}

// DiscoverTemporaries runs the program on a symbolic stack to find the
// temporaries code generation will need, in the order they are first produced.
// Nothing is emitted. Malformed sequences are skipped here; code generation
// reports them.
func DiscoverTemporaries(p *ir.Program) []string {
	var temps []string
	var stack Stack[string]

	for i := 0; i < p.Len(); i++ {
		tok := p.At(i)
		switch tok.Kind {
		case ir.Arithmetic, ir.Negate:
			n, ok := OperandCount(tok, stack.Len())
			if !ok {
				continue
			}
			for range n {
				stack.Pop()
			}
			temp := TemporaryName(len(temps) + 1)
			temps = append(temps, temp)
			stack.Push(temp)
		case ir.Assign, ir.Compare:
			stack.Pop2()
		case ir.Branch:
			i++
		case ir.Write, ir.Read:
			stack.Pop()
		case ir.Identifier, ir.Number, ir.String:
			stack.Push(tok.Text)
		}
	}
	return temps
}
