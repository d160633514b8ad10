package x87

import "github.com/iley/rpnc/internal/asm"

const (
	printFloatRoutine = "PRINT_FLOAT"
	printIntRoutine   = "PRINT_INT"

	controlWordLabel  = "_PF_CW"
	truncateWordLabel = "_PF_TRUNC"
	intPartLabel      = "_PF_INT"
	fracPartLabel     = "_PF_FRAC"
	fracScaleLabel    = "_PF_SCALE"
)

// runtimeData is the scratch storage used by the print routines.
func runtimeData() []asm.DataEntry {
	return []asm.DataEntry{
		{Label: controlWordLabel, Directive: "dw", Value: "0"},
		{Label: truncateWordLabel, Directive: "dw", Value: "0"},
		{Label: intPartLabel, Directive: dataWidthFloat, Value: "0"},
		{Label: fracPartLabel, Directive: dataWidthFloat, Value: "0"},
		{Label: fracScaleLabel, Directive: dataWidthFloat, Value: "100.0"},
	}
}

func runtimeRoutines() []asm.Routine {
	return []asm.Routine{printFloat(), printInt()}
}

func printChar(c rune) []asm.Line {
	return []asm.Line{
		asm.Op2("MOV", asm.DL, asm.Char(c)),
		asm.Op2("MOV", asm.AH, asm.HexImm(0x02)),
		asm.Op1("INT", asm.HexImm(0x21)),
	}
}

// printFloat prints ST(0) as <sign><integer part>.<two digits> and pops it.
// The integer and fractional parts are taken with the FPU in truncating mode.
func printFloat() asm.Routine {
	var lines []asm.Line
	lines = append(lines,
		asm.Op0("FTST"),
		asm.Op1("FSTSW", asm.AX),
		asm.Op0("SAHF"),
		asm.Op1("JAE", asm.Ref("PF_POSITIVE")))
	lines = append(lines, printChar('-')...)
	lines = append(lines,
		asm.Op0("FCHS"),
		asm.Label("PF_POSITIVE"),
		asm.Op1("FSTCW", asm.Ref(controlWordLabel)),
		asm.Op2("MOV", asm.AX, asm.Ref(controlWordLabel)),
		asm.Op2("OR", asm.AX, asm.HexImm(0x0C00)),
		asm.Op2("MOV", asm.Ref(truncateWordLabel), asm.AX),
		asm.Op1("FLDCW", asm.Ref(truncateWordLabel)),
		asm.Op1("FLD", asm.ST0),
		asm.Op1("FISTP", asm.Ref(intPartLabel)),
		asm.Op1("FILD", asm.Ref(intPartLabel)),
		asm.Op2("FSUBP", asm.ST1, asm.ST0),
		asm.Op1("FMUL", asm.Ref(fracScaleLabel)),
		asm.Op1("FISTP", asm.Ref(fracPartLabel)),
		asm.Op1("FLDCW", asm.Ref(controlWordLabel)),
		asm.Op2("MOV", asm.EAX, asm.Ref(intPartLabel)),
		asm.Op1("CALL", asm.Ref(printIntRoutine)))
	lines = append(lines, printChar('.')...)
	lines = append(lines,
		asm.Op2("CMP", asm.Ref(fracPartLabel), asm.Imm(10)),
		asm.Op1("JAE", asm.Ref("PF_FRACTION")))
	lines = append(lines, printChar('0')...)
	lines = append(lines,
		asm.Label("PF_FRACTION"),
		asm.Op2("MOV", asm.EAX, asm.Ref(fracPartLabel)),
		asm.Op1("CALL", asm.Ref(printIntRoutine)),
		asm.Op0("RET"))
	return asm.Routine{Name: printFloatRoutine, Lines: lines}
}

// printInt prints the signed integer in EAX by pushing the remainders of
// repeated division by 10 and popping them back in reverse.
func printInt() asm.Routine {
	var lines []asm.Line
	lines = append(lines,
		asm.Op2("TEST", asm.EAX, asm.EAX),
		asm.Op1("JNS", asm.Ref("PI_POSITIVE")),
		asm.Op1("PUSH", asm.EAX))
	lines = append(lines, printChar('-')...)
	lines = append(lines,
		asm.Op1("POP", asm.EAX),
		asm.Op1("NEG", asm.EAX),
		asm.Label("PI_POSITIVE"),
		asm.Op2("MOV", asm.EBX, asm.Imm(10)),
		asm.Op2("XOR", asm.CX, asm.CX),
		asm.Label("PI_DIVIDE"),
		asm.Op2("XOR", asm.EDX, asm.EDX),
		asm.Op1("DIV", asm.EBX),
		asm.Op1("PUSH", asm.DX),
		asm.Op1("INC", asm.CX),
		asm.Op2("TEST", asm.EAX, asm.EAX),
		asm.Op1("JNZ", asm.Ref("PI_DIVIDE")),
		asm.Label("PI_PRINT"),
		asm.Op1("POP", asm.DX),
		asm.Op2("ADD", asm.DL, asm.Char('0')),
		asm.Op2("MOV", asm.AH, asm.HexImm(0x02)),
		asm.Op1("INT", asm.HexImm(0x21)),
		asm.Op1("LOOP", asm.Ref("PI_PRINT")),
		asm.Op0("RET"))
	return asm.Routine{Name: printIntRoutine, Lines: lines}
}
