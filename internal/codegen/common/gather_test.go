package common

import (
	"errors"
	"reflect"
	"testing"

	"github.com/iley/rpnc/internal/ir"
)

func TestGatherLayout(t *testing.T) {
	// x 5 := x 10 CMP BLT 10 "hi" WRITE x WRITE
	p := ir.FromTokens(
		ir.Ident("x"), ir.Num("5"), ir.AssignToken,   // 0-2
		ir.Ident("x"), ir.Num("10"), ir.CompareToken, // 3-5
		ir.Jump(ir.BranchLT), ir.Index(10),           // 6-7
		ir.Str("hi"), ir.WriteToken,                  // 8-9
		ir.Ident("x"), ir.WriteToken,                 // 10-11
	)

	layout, err := GatherLayout(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(layout.Operands, []string{"x", "5.0", "10.0"}) {
		t.Errorf("unexpected operands %v", layout.Operands)
	}
	if !layout.Constants["5.0"] || !layout.Constants["10.0"] || layout.Constants["x"] {
		t.Errorf("unexpected constants %v", layout.Constants)
	}
	if !reflect.DeepEqual(layout.Strings, []string{`"hi"`}) {
		t.Errorf("unexpected strings %v", layout.Strings)
	}
	if !reflect.DeepEqual(layout.JumpTargets, map[int]bool{10: true}) {
		t.Errorf("unexpected jump targets %v", layout.JumpTargets)
	}
}

func TestGatherLayoutDestinationIsNotAnOperand(t *testing.T) {
	p := ir.FromTokens(ir.Jump(ir.BranchAlways), ir.Index(2), ir.Num("7"))

	layout, err := GatherLayout(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(layout.Operands, []string{"7.0"}) {
		t.Errorf("destination leaked into operands: %v", layout.Operands)
	}
}

func TestGatherLayoutDeduplicatesEquivalentNumbers(t *testing.T) {
	p := ir.FromTokens(ir.Num("5"), ir.Num("5."), ir.Num("5.0"), ir.Arith(ir.Add), ir.Arith(ir.Add))

	layout, err := GatherLayout(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(layout.Operands, []string{"5.0"}) {
		t.Errorf("unexpected operands %v", layout.Operands)
	}
}

func TestBranchDestinationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		program *ir.Program
	}{
		{"missing", ir.FromTokens(ir.Jump(ir.BranchAlways))},
		{"placeholder", ir.FromTokens(ir.Jump(ir.BranchAlways), ir.PlaceholderToken)},
		{"not an index", ir.FromTokens(ir.Jump(ir.BranchAlways), ir.Ident("x"))},
		{"fractional", ir.FromTokens(ir.Jump(ir.BranchAlways), ir.Num("1.5"))},
		{"past the end", ir.FromTokens(ir.Jump(ir.BranchAlways), ir.Index(3))},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BranchDestination(tc.program, 0)
			if !errors.Is(err, ErrInvalidBranchDestination) {
				t.Fatalf("expected ErrInvalidBranchDestination, got %v", err)
			}
			var genErr *Error
			if !errors.As(err, &genErr) || genErr.Index != 0 {
				t.Errorf("expected error at index 0, got %#v", err)
			}
		})
	}
}

func TestBranchDestinationEndOfProgram(t *testing.T) {
	p := ir.FromTokens(ir.Jump(ir.BranchAlways), ir.Index(2))
	dest, err := BranchDestination(p, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest != 2 {
		t.Errorf("expected destination 2, got %d", dest)
	}
}

func TestCheckFinished(t *testing.T) {
	p := ir.NewProgram()
	p.Append(ir.Jump(ir.BranchAlways))
	hole := p.Append(ir.PlaceholderToken)

	err := CheckFinished(p)
	if !errors.Is(err, ErrUnresolvedPlaceholder) {
		t.Fatalf("expected ErrUnresolvedPlaceholder, got %v", err)
	}

	if err := p.Backpatch(hole, ir.Index(p.Next())); err != nil {
		t.Fatalf("backpatch failed: %v", err)
	}
	if err := CheckFinished(p); err != nil {
		t.Errorf("unexpected error after backpatch: %v", err)
	}
}

func TestGatherLayoutLabelsAreUnique(t *testing.T) {
	// -1 and neg_1_0 sanitize to the same label, NEWLINE to a reserved one.
	p := ir.FromTokens(
		ir.Num("-1"), ir.Ident("neg_1_0"), ir.AssignToken,
		ir.Ident("NEWLINE"), ir.WriteToken,
		ir.Str("x"), ir.WriteToken,
	)

	layout, err := GatherLayout(p, "_NEWLINE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := map[string]string{
		"-1.0":    "_neg_1_0",
		"neg_1_0": "_neg_1_0_1",
		"NEWLINE": "_NEWLINE_1",
		`"x"`:     StringLabel(`"x"`),
	}
	if !reflect.DeepEqual(layout.Labels, expected) {
		t.Errorf("unexpected labels %v", layout.Labels)
	}
}
