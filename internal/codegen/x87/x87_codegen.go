package x87

import (
	"fmt"
	"strings"

	"github.com/iley/rpnc/internal/asm"
	"github.com/iley/rpnc/internal/codegen/common"
	"github.com/iley/rpnc/internal/ir"
	"github.com/iley/rpnc/internal/symtab"
	"github.com/iley/rpnc/internal/util"
)

const (
	dataWidthFloat = "dd"
	dataWidthBytes = "db"
	newlineLabel   = "_NEWLINE"
)

// Operand is an entry of the evaluation stack: the data label holding the
// value and whether it is a string (which is used by address, not loaded).
// Content is the text of a string literal.
type Operand struct {
	Label    string
	IsString bool
	Content  string
}

// jumpMnemonics maps every branch kind to its jump. The flags come from
// FCOMPP/FSTSW/SAHF, which sets them like an unsigned compare.
var jumpMnemonics = map[ir.BranchKind]string{
	ir.BranchLE:     "JBE",
	ir.BranchGE:     "JAE",
	ir.BranchLT:     "JB",
	ir.BranchGT:     "JA",
	ir.BranchEQ:     "JE",
	ir.BranchNE:     "JNE",
	ir.BranchAlways: "JMP",
}

func jumpMnemonic(kind ir.BranchKind) (string, bool) {
	mnemonic, ok := jumpMnemonics[kind]
	return mnemonic, ok
}

var arithMnemonics = map[ir.ArithOp]string{
	ir.Add: "FADD",
	ir.Sub: "FSUB",
	ir.Mul: "FMUL",
	ir.Div: "FDIV",
}

// CodegenContext holds the state of one generation run. A new one is created
// for every call to Generate.
type CodegenContext struct {
	program *ir.Program
	layout  common.Layout
	temps   []string

	stack     common.Stack[Operand]
	nextTemp  int
	usesPrint bool
	lines     []asm.Line
}

// ReservedLabels are the data labels this generator declares for itself. They
// must be passed to common.GatherLayout so no operand is given one of them.
func ReservedLabels() []string {
	labels := []string{newlineLabel}
	for _, d := range runtimeData() {
		labels = append(labels, d.Label)
	}
	return labels
}

// Generate emits the program. layout and temps must come from
// common.GatherLayout (with ReservedLabels) and common.DiscoverTemporaries for
// the same program.
func Generate(p *ir.Program, layout common.Layout, temps []string) (asm.Program, []symtab.Registration, error) {
	return newContext(p, layout, temps).run()
}

func newContext(p *ir.Program, layout common.Layout, temps []string) *CodegenContext {
	return &CodegenContext{
		program: p,
		layout:  layout,
		temps:   temps,
	}
}

func (cc *CodegenContext) run() (asm.Program, []symtab.Registration, error) {
	if err := cc.generateCode(); err != nil {
		return asm.Program{}, nil, err
	}

	asmProgram := asm.Program{
		Data:  cc.generateData(),
		Lines: cc.lines,
	}
	if cc.usesPrint {
		asmProgram.Data = append(asmProgram.Data, runtimeData()...)
		asmProgram.Routines = runtimeRoutines()
	}
	return asmProgram, cc.registrations(), nil
}

// Stack returns what is left on the evaluation stack after generation.
func (cc *CodegenContext) Stack() []Operand {
	return cc.stack.Items()
}

func (cc *CodegenContext) generateData() []asm.DataEntry {
	var data []asm.DataEntry
	for _, name := range cc.layout.Operands {
		value := "0.0"
		if cc.layout.Constants[name] {
			value = name
		}
		data = append(data, asm.DataEntry{Label: cc.layout.Labels[name], Directive: dataWidthFloat, Value: value})
	}
	for _, temp := range cc.temps {
		data = append(data, asm.DataEntry{Label: temp, Directive: dataWidthFloat, Value: "0.0"})
	}
	for _, text := range cc.layout.Strings {
		content := ir.Token{Kind: ir.String, Text: text}.Content()
		data = append(data, asm.DataEntry{Label: cc.layout.Labels[text], Directive: dataWidthBytes, Value: util.DosString(content)})
	}
	data = append(data, asm.DataEntry{Label: newlineLabel, Directive: dataWidthBytes, Value: `0Dh,0Ah,"$"`})
	return data
}

func (cc *CodegenContext) registrations() []symtab.Registration {
	var regs []symtab.Registration
	for _, name := range cc.layout.Operands {
		if cc.layout.Constants[name] {
			regs = append(regs, symtab.Registration{Name: common.ConstantName(name), Type: symtab.Float, Value: name})
		}
	}
	for _, temp := range cc.temps {
		regs = append(regs, symtab.Registration{Name: temp})
	}
	for _, text := range cc.layout.Strings {
		regs = append(regs, symtab.Registration{Name: cc.layout.Labels[text], Type: symtab.String, Value: text})
	}
	return regs
}

func (cc *CodegenContext) emit(lines ...asm.Line) {
	cc.lines = append(cc.lines, lines...)
}

func (cc *CodegenContext) generateCode() error {
	p := cc.program
	cc.emit(
		asm.Op2("MOV", asm.AX, asm.Ref("@DATA")),
		asm.Op2("MOV", asm.DS, asm.AX),
		asm.Op2("MOV", asm.ES, asm.AX),
		asm.Op0("FINIT"),
		asm.Blank())

	for i := 0; i < p.Len(); i++ {
		if cc.layout.JumpTargets[i] {
			cc.emit(asm.Label(common.JumpLabel(i)))
		}
		tok := p.At(i)
		if !tok.IsOperand() {
			cc.emit(asm.Comment(fmt.Sprintf("[%d] %s", i, tok)))
		}
		consumed, err := cc.generateToken(i, tok)
		if err != nil {
			return err
		}
		for range consumed {
			i++
			// Nothing should jump to a destination token, but keep the label
			// defined if something does.
			if cc.layout.JumpTargets[i] {
				cc.emit(asm.Label(common.JumpLabel(i)))
			}
		}
	}
	if cc.layout.JumpTargets[p.Len()] {
		cc.emit(asm.Label(common.JumpLabel(p.Len())))
	}

	if cc.nextTemp != len(cc.temps) {
		return fmt.Errorf("%w: %d temporaries declared, %d used", common.ErrTemporaryMismatch, len(cc.temps), cc.nextTemp)
	}

	cc.emit(
		asm.Op2("MOV", asm.AX, asm.HexImm(0x4C00)),
		asm.Op1("INT", asm.HexImm(0x21)))
	return nil
}

// generateToken emits the code for one token and returns how many of the
// following tokens it consumed.
func (cc *CodegenContext) generateToken(index int, tok ir.Token) (int, error) {
	switch tok.Kind {
	case ir.Identifier:
		cc.stack.Push(Operand{Label: cc.layout.Labels[tok.Text]})
	case ir.Number:
		cc.stack.Push(Operand{Label: cc.layout.Labels[common.NormalizeNumber(tok.Text)]})
	case ir.String:
		cc.stack.Push(Operand{Label: cc.layout.Labels[tok.Text], IsString: true, Content: tok.Content()})
	case ir.Arithmetic, ir.Negate:
		return 0, cc.generateArithmetic(index, tok)
	case ir.Assign:
		return 0, cc.generateAssignment(index, tok)
	case ir.Compare:
		return 0, cc.generateCompare(index, tok)
	case ir.Branch:
		return 1, cc.generateBranch(index, tok)
	case ir.Write:
		return 0, cc.generateWrite(index, tok)
	case ir.Read:
		return 0, cc.generateRead(index, tok)
	case ir.Placeholder:
		return 0, common.Errorf(index, tok, common.ErrUnresolvedPlaceholder, "placeholder outside of a branch")
	default:
		return 0, fmt.Errorf("[%d] unsupported token kind %s", index, tok.Kind)
	}
	return 0, nil
}

func (cc *CodegenContext) allocTemp(index int, tok ir.Token) (string, error) {
	if cc.nextTemp >= len(cc.temps) {
		return "", common.Errorf(index, tok, common.ErrTemporaryMismatch, "only %d temporaries were declared", len(cc.temps))
	}
	temp := cc.temps[cc.nextTemp]
	cc.nextTemp++
	return temp, nil
}

func (cc *CodegenContext) generateArithmetic(index int, tok ir.Token) error {
	n, ok := common.OperandCount(tok, cc.stack.Len())
	if !ok {
		return common.Errorf(index, tok, common.ErrStackUnderflow, "%d value(s) on the stack", cc.stack.Len())
	}

	if n == 1 {
		value, _ := cc.stack.Pop()
		temp, err := cc.allocTemp(index, tok)
		if err != nil {
			return err
		}
		cc.emit(
			asm.Op1("FLD", asm.Ref(value.Label)),
			asm.Op0("FCHS"),
			asm.Op1("FSTP", asm.Ref(temp)),
			asm.Blank())
		cc.stack.Push(Operand{Label: temp})
		return nil
	}

	left, right, _ := cc.stack.Pop2()
	temp, err := cc.allocTemp(index, tok)
	if err != nil {
		return err
	}
	cc.emit(
		asm.Op1("FLD", asm.Ref(left.Label)),
		asm.Op1("FLD", asm.Ref(right.Label)),
		asm.Op0(arithMnemonics[tok.Op]),
		asm.Op1("FSTP", asm.Ref(temp)),
		asm.Blank())
	cc.stack.Push(Operand{Label: temp})
	return nil
}

func (cc *CodegenContext) generateAssignment(index int, tok ir.Token) error {
	// The destination was pushed last.
	value, target, ok := cc.stack.Pop2()
	if !ok {
		return common.Errorf(index, tok, common.ErrStackUnderflow, "assignment needs 2 values, have %d", cc.stack.Len())
	}
	if value.IsString {
		cc.emit(
			asm.Op2("MOV", asm.EAX, asm.OffsetOf(value.Label)),
			asm.Op2("MOV", asm.Ref(target.Label), asm.EAX),
			asm.Blank())
		return nil
	}
	cc.emit(
		asm.Op1("FLD", asm.Ref(value.Label)),
		asm.Op1("FSTP", asm.Ref(target.Label)),
		asm.Blank())
	return nil
}

func (cc *CodegenContext) generateCompare(index int, tok ir.Token) error {
	left, right, ok := cc.stack.Pop2()
	if !ok {
		return common.Errorf(index, tok, common.ErrStackUnderflow, "comparison needs 2 values, have %d", cc.stack.Len())
	}
	// ST(0) = left, ST(1) = right, so the flags describe left ? right.
	cc.emit(
		asm.Op1("FLD", asm.Ref(right.Label)),
		asm.Op1("FLD", asm.Ref(left.Label)),
		asm.Op0("FCOMPP"),
		asm.Op1("FSTSW", asm.AX),
		asm.Op0("SAHF"))
	return nil
}

func (cc *CodegenContext) generateBranch(index int, tok ir.Token) error {
	dest, err := common.BranchDestination(cc.program, index)
	if err != nil {
		return err
	}
	mnemonic, ok := jumpMnemonic(tok.Cond)
	if !ok {
		return common.Errorf(index, tok, common.ErrUnmappedBranchKind, "no jump instruction for %s", tok.Cond)
	}
	cc.emit(
		asm.Op1(mnemonic, asm.Ref(common.JumpLabel(dest))),
		asm.Blank())
	return nil
}

func (cc *CodegenContext) generateWrite(index int, tok ir.Token) error {
	value, ok := cc.stack.Pop()
	if !ok {
		return common.Errorf(index, tok, common.ErrStackUnderflow, "nothing to write")
	}
	if value.IsString && strings.Contains(value.Content, "$") {
		// Function 09h would stop at the embedded "$".
		cc.emit(writeBytes(value.Label, len(value.Content))...)
	} else if value.IsString {
		cc.emit(printString(value.Label)...)
	} else {
		cc.usesPrint = true
		cc.emit(
			asm.Op1("FLD", asm.Ref(value.Label)),
			asm.Op1("CALL", asm.Ref(printFloatRoutine)))
	}
	cc.emit(printString(newlineLabel)...)
	cc.emit(asm.Blank())
	return nil
}

func (cc *CodegenContext) generateRead(index int, tok ir.Token) error {
	target, ok := cc.stack.Pop()
	if !ok {
		return common.Errorf(index, tok, common.ErrStackUnderflow, "nothing to read into")
	}
	cc.emit(asm.Comment(fmt.Sprintf("input into %s is not supported by this target", target.Label)))
	return nil
}

// writeBytes writes n bytes at label to standard output through DOS function
// 40h.
func writeBytes(label string, n int) []asm.Line {
	return []asm.Line{
		asm.Op2("MOV", asm.AH, asm.HexImm(0x40)),
		asm.Op2("MOV", asm.BX, asm.Imm(1)),
		asm.Op2("MOV", asm.CX, asm.Imm(n)),
		asm.Op2("MOV", asm.DX, asm.OffsetOf(label)),
		asm.Op1("INT", asm.HexImm(0x21)),
	}
}

// printString prints a "$"-terminated string through DOS function 09h.
func printString(label string) []asm.Line {
	return []asm.Line{
		asm.Op2("MOV", asm.DX, asm.OffsetOf(label)),
		asm.Op2("MOV", asm.AH, asm.HexImm(0x09)),
		asm.Op1("INT", asm.HexImm(0x21)),
	}
}
