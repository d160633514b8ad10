package common

import "github.com/iley/rpnc/internal/ir"

// Layout is what the first pass learns about a program before any code is
// generated.
type Layout struct {
	// Indices that some branch jumps to. May contain p.Len().
	JumpTargets map[int]bool
	// Distinct identifiers and normalized numeric literals, in order of first
	// appearance.
	Operands []string
	// Operands that are numeric constants rather than variables.
	Constants map[string]bool
	// Distinct string literals (with quotes), in order of first appearance.
	Strings []string
	// Data label of every operand name and string literal. Labels are unique
	// and never equal to a reserved label.
	Labels map[string]string
}

// GatherLayout scans the program once, collecting jump targets, operand names
// and string literals. Branch destinations are validated here and never
// counted as operands. reserved lists data labels the code generator declares
// for itself; no operand or string is given one of them.
func GatherLayout(p *ir.Program, reserved ...string) (Layout, error) {
	layout := Layout{
		JumpTargets: make(map[int]bool),
		Constants:   make(map[string]bool),
		Labels:      make(map[string]string),
	}
	labels := newLabelAllocator(reserved)
	seenOperands := make(map[string]bool)
	seenStrings := make(map[string]bool)

	for i := 0; i < p.Len(); i++ {
		tok := p.At(i)
		switch tok.Kind {
		case ir.Branch:
			dest, err := BranchDestination(p, i)
			if err != nil {
				return Layout{}, err
			}
			layout.JumpTargets[dest] = true
			i++
		case ir.String:
			if !seenStrings[tok.Text] {
				seenStrings[tok.Text] = true
				layout.Strings = append(layout.Strings, tok.Text)
				layout.Labels[tok.Text] = labels.alloc(StringLabel(tok.Text))
			}
		case ir.Identifier, ir.Number:
			name := tok.Text
			if tok.Kind == ir.Number {
				name = NormalizeNumber(name)
				layout.Constants[name] = true
			}
			if !seenOperands[name] {
				seenOperands[name] = true
				layout.Operands = append(layout.Operands, name)
				layout.Labels[name] = labels.alloc(SanitizeLabel(name))
			}
		}
	}
	return layout, nil
}

// BranchDestination reads the destination that follows the branch at index.
// The destination must be an index into the program or exactly its length.
func BranchDestination(p *ir.Program, index int) (int, error) {
	branch := p.At(index)
	if index+1 >= p.Len() {
		return 0, Errorf(index, branch, ErrInvalidBranchDestination, "missing destination")
	}
	destTok := p.At(index + 1)
	if destTok.Kind == ir.Placeholder {
		return 0, Errorf(index, branch, ErrInvalidBranchDestination, "destination at %d is still a placeholder", index+1)
	}
	dest, ok := destTok.Destination()
	if !ok {
		return 0, Errorf(index, branch, ErrInvalidBranchDestination, "%s is not an index", destTok)
	}
	if dest > p.Len() {
		return 0, Errorf(index, branch, ErrInvalidBranchDestination, "destination %d is past the end of the program (%d)", dest, p.Len())
	}
	return dest, nil
}

// CheckFinished fails on the first placeholder left in the program.
func CheckFinished(p *ir.Program) error {
	if holes := p.Placeholders(); len(holes) > 0 {
		return Errorf(holes[0], p.At(holes[0]), ErrUnresolvedPlaceholder, "%d unresolved placeholder(s)", len(holes))
	}
	return nil
}
