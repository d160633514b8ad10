package x87

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/iley/rpnc/internal/asm"
	"github.com/iley/rpnc/internal/codegen/common"
	"github.com/iley/rpnc/internal/ir"
	"github.com/iley/rpnc/internal/symtab"
)

func analyze(t *testing.T, p *ir.Program) (common.Layout, []string) {
	t.Helper()
	layout, err := common.GatherLayout(p, ReservedLabels()...)
	if err != nil {
		t.Fatalf("GatherLayout failed: %v", err)
	}
	return layout, common.DiscoverTemporaries(p)
}

func generate(t *testing.T, p *ir.Program) (asm.Program, []symtab.Registration, error) {
	t.Helper()
	layout, temps := analyze(t, p)
	return Generate(p, layout, temps)
}

func containsSequence(lines []asm.Line, expected ...asm.Line) bool {
	for i := 0; i+len(expected) <= len(lines); i++ {
		if reflect.DeepEqual(lines[i:i+len(expected)], expected) {
			return true
		}
	}
	return false
}

func TestJumpTableCoversAllBranchKinds(t *testing.T) {
	for _, kind := range ir.BranchKinds {
		if _, ok := jumpMnemonic(kind); !ok {
			t.Errorf("no jump instruction for %s", kind)
		}
	}
	if _, ok := jumpMnemonic(ir.BranchKind(len(ir.BranchKinds) + 1)); ok {
		t.Errorf("unknown branch kind should not be mapped")
	}
}

func TestAddition(t *testing.T) {
	p := ir.FromTokens(ir.Num("3"), ir.Num("4"), ir.Arith(ir.Add))
	layout, temps := analyze(t, p)
	if !reflect.DeepEqual(temps, []string{"@T1"}) {
		t.Fatalf("unexpected temporaries %v", temps)
	}

	cc := newContext(p, layout, temps)
	out, _, err := cc.run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !containsSequence(out.Lines,
		asm.Op1("FLD", asm.Ref("_3_0")),
		asm.Op1("FLD", asm.Ref("_4_0")),
		asm.Op0("FADD"),
		asm.Op1("FSTP", asm.Ref("@T1"))) {
		t.Errorf("addition block not found in %v", out.Lines)
	}
	if !reflect.DeepEqual(cc.Stack(), []Operand{{Label: "@T1"}}) {
		t.Errorf("unexpected final stack %v", cc.Stack())
	}
}

func TestUnaryMinus(t *testing.T) {
	testCases := []struct {
		name string
		tok  ir.Token
	}{
		{"minus with one operand", ir.Arith(ir.Sub)},
		{"negate", ir.NegateToken},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := ir.FromTokens(ir.Ident("a"), tc.tok)
			out, _, err := generate(t, p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !containsSequence(out.Lines,
				asm.Op1("FLD", asm.Ref("_a")),
				asm.Op0("FCHS"),
				asm.Op1("FSTP", asm.Ref("@T1"))) {
				t.Errorf("negation block not found in %v", out.Lines)
			}
		})
	}
}

func TestCompareAndBranch(t *testing.T) {
	p := ir.FromTokens(
		ir.Ident("x"), ir.Num("5"), ir.CompareToken, // 0-2
		ir.Jump(ir.BranchLT), ir.Index(7),           // 3-4
		ir.Str("big"), ir.WriteToken,                // 5-6
	)
	out, _, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !containsSequence(out.Lines,
		asm.Op1("FLD", asm.Ref("_5_0")),
		asm.Op1("FLD", asm.Ref("_x")),
		asm.Op0("FCOMPP"),
		asm.Op1("FSTSW", asm.AX),
		asm.Op0("SAHF")) {
		t.Errorf("compare block not found in %v", out.Lines)
	}
	if !slices.Contains(out.Lines, asm.Op1("JB", asm.Ref("L7"))) {
		t.Errorf("jump to L7 not found in %v", out.Lines)
	}
	if !slices.Contains(out.Lines, asm.Label("L7")) {
		t.Errorf("label L7 not defined")
	}
}

func TestBackwardJumpLabel(t *testing.T) {
	p := ir.FromTokens(ir.Ident("x"), ir.WriteToken, ir.Jump(ir.BranchAlways), ir.Index(0))
	out, _, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	labelAt := slices.Index(out.Lines, asm.Label("L0"))
	jumpAt := slices.Index(out.Lines, asm.Op1("JMP", asm.Ref("L0")))
	if labelAt < 0 || jumpAt < 0 || labelAt > jumpAt {
		t.Errorf("expected label L0 before the jump, got label at %d, jump at %d", labelAt, jumpAt)
	}
}

func TestStringsAreDeclaredOnce(t *testing.T) {
	p := ir.FromTokens(ir.Str("hi"), ir.WriteToken, ir.Str("hi"), ir.WriteToken)
	out, regs, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	label := common.StringLabel(`"hi"`)
	count := 0
	for _, d := range out.Data {
		if d.Label == label {
			count++
			if d.Directive != "db" || d.Value != `"hi$"` {
				t.Errorf("unexpected declaration %+v", d)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected one declaration of %s, got %d", label, count)
	}

	expected := []symtab.Registration{{Name: label, Type: symtab.String, Value: `"hi"`}}
	if !reflect.DeepEqual(regs, expected) {
		t.Errorf("unexpected registrations %v", regs)
	}
	if len(out.Routines) != 0 {
		t.Errorf("string output should not pull in the print routines")
	}
}

func TestWriteNumberUsesRuntime(t *testing.T) {
	p := ir.FromTokens(ir.Ident("x"), ir.WriteToken)
	out, _, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsSequence(out.Lines,
		asm.Op1("FLD", asm.Ref("_x")),
		asm.Op1("CALL", asm.Ref(printFloatRoutine))) {
		t.Errorf("print call not found in %v", out.Lines)
	}
	if len(out.Routines) != 2 {
		t.Errorf("expected print routines, got %d", len(out.Routines))
	}
}

func TestAssignment(t *testing.T) {
	p := ir.FromTokens(ir.Num("5"), ir.Ident("x"), ir.AssignToken)
	out, regs, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !containsSequence(out.Lines,
		asm.Op1("FLD", asm.Ref("_5_0")),
		asm.Op1("FSTP", asm.Ref("_x"))) {
		t.Errorf("assignment block not found in %v", out.Lines)
	}

	expectedData := []asm.DataEntry{
		{Label: "_5_0", Directive: "dd", Value: "5.0"},
		{Label: "_x", Directive: "dd", Value: "0.0"},
		{Label: "_NEWLINE", Directive: "db", Value: `0Dh,0Ah,"$"`},
	}
	if !reflect.DeepEqual(out.Data, expectedData) {
		t.Errorf("unexpected data %v", out.Data)
	}

	expectedRegs := []symtab.Registration{{Name: "_5.0", Type: symtab.Float, Value: "5.0"}}
	if !reflect.DeepEqual(regs, expectedRegs) {
		t.Errorf("unexpected registrations %v", regs)
	}
}

func TestGenerateErrors(t *testing.T) {
	testCases := []struct {
		name     string
		program  *ir.Program
		expected error
		index    int
	}{
		{"assign underflow", ir.FromTokens(ir.Ident("x"), ir.AssignToken), common.ErrStackUnderflow, 1},
		{"compare underflow", ir.FromTokens(ir.CompareToken), common.ErrStackUnderflow, 0},
		{"add underflow", ir.FromTokens(ir.Num("1"), ir.Arith(ir.Mul)), common.ErrStackUnderflow, 1},
		{"write underflow", ir.FromTokens(ir.WriteToken), common.ErrStackUnderflow, 0},
		{"stray placeholder", ir.FromTokens(ir.PlaceholderToken), common.ErrUnresolvedPlaceholder, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := generate(t, tc.program)
			if !errors.Is(err, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, err)
			}
			var genErr *common.Error
			if !errors.As(err, &genErr) {
				t.Fatalf("expected *common.Error, got %T", err)
			}
			if genErr.Index != tc.index {
				t.Errorf("expected error at index %d, got %d", tc.index, genErr.Index)
			}
		})
	}
}

func TestTemporaryMismatch(t *testing.T) {
	p := ir.FromTokens(ir.Num("3"), ir.Num("4"), ir.Arith(ir.Add))
	layout, _ := analyze(t, p)

	_, _, err := Generate(p, layout, nil)
	if !errors.Is(err, common.ErrTemporaryMismatch) {
		t.Errorf("expected ErrTemporaryMismatch with no temporaries, got %v", err)
	}

	_, _, err = Generate(p, layout, []string{"@T1", "@T2"})
	if !errors.Is(err, common.ErrTemporaryMismatch) {
		t.Errorf("expected ErrTemporaryMismatch with extra temporaries, got %v", err)
	}
}

func TestRunsAreIndependent(t *testing.T) {
	p := ir.FromTokens(ir.Ident("a"), ir.Ident("b"), ir.Arith(ir.Add), ir.WriteToken)
	first, _, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over the same program differ")
	}
}

func TestOperatorComments(t *testing.T) {
	p := ir.FromTokens(ir.Ident("a"), ir.Ident("b"), ir.Arith(ir.Div))
	out, _, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, line := range out.Lines {
		if strings.Contains(line.Comment, "[2] /") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a comment naming the divide token")
	}
}

func TestCollidingLabelsAreDistinct(t *testing.T) {
	p := ir.FromTokens(
		ir.Num("-1"), ir.Ident("neg_1_0"), ir.AssignToken,
		ir.Ident("neg_1_0"), ir.WriteToken,
	)
	out, _, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for _, d := range out.Data {
		if seen[d.Label] {
			t.Errorf("label %s declared twice", d.Label)
		}
		seen[d.Label] = true
	}
	if !containsSequence(out.Lines,
		asm.Op1("FLD", asm.Ref("_neg_1_0")),
		asm.Op1("FSTP", asm.Ref("_neg_1_0_1"))) {
		t.Errorf("assignment should store the constant into the variable: %v", out.Lines)
	}
}

func TestWriteStringWithDollar(t *testing.T) {
	p := ir.FromTokens(ir.Str("a$b"), ir.WriteToken)
	out, _, err := generate(t, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	label := common.StringLabel(`"a$b"`)
	if !containsSequence(out.Lines, writeBytes(label, 3)...) {
		t.Errorf("expected a length-based write of %s in %v", label, out.Lines)
	}
	if containsSequence(out.Lines, printString(label)...) {
		t.Errorf("string with an embedded $ must not be printed with function 09h")
	}
}
