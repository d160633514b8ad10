package asm

var (
	AX  = Arg{Reg: "AX"}
	AH  = Arg{Reg: "AH"}
	BX  = Arg{Reg: "BX"}
	CX  = Arg{Reg: "CX"}
	DL  = Arg{Reg: "DL"}
	DX  = Arg{Reg: "DX"}
	DS  = Arg{Reg: "DS"}
	ES  = Arg{Reg: "ES"}
	EAX = Arg{Reg: "EAX"}
	EBX = Arg{Reg: "EBX"}
	EDX = Arg{Reg: "EDX"}
	ST0 = Arg{Reg: "ST(0)"}
	ST1 = Arg{Reg: "ST(1)"}
)

// Program is a complete assembly listing for a flat, statically allocated
// target: one data section and a single code section.
type Program struct {
	Data     []DataEntry
	Lines    []Line
	Routines []Routine
}

// Routine is a runtime support procedure appended after the main code.
type Routine struct {
	Name  string
	Lines []Line
}

// DataEntry is a single declaration such as "_x dd 0.0".
type DataEntry struct {
	Label     string
	Directive string
	Value     string
}

type Line struct {
	Comment string
	Label   string
	Op      string
	Arity   int
	Arg1    Arg
	Arg2    Arg
}

// Arg is an instruction operand. Exactly one of Reg, Label, Imm or Char is
// set.
type Arg struct {
	Reg    string
	Label  string
	Offset bool // OFFSET label, i.e. the address rather than the contents
	Imm    *int
	Hex    bool
	Char   rune
}

func Ref(label string) Arg {
	return Arg{Label: label}
}

func OffsetOf(label string) Arg {
	return Arg{Label: label, Offset: true}
}

func Imm(value int) Arg {
	return Arg{Imm: &value}
}

func HexImm(value int) Arg {
	return Arg{Imm: &value, Hex: true}
}

func Char(r rune) Arg {
	return Arg{Char: r}
}

func Op0(op string) Line {
	return Line{Op: op, Arity: 0}
}

func Op1(op string, arg Arg) Line {
	return Line{Op: op, Arity: 1, Arg1: arg}
}

func Op2(op string, arg1, arg2 Arg) Line {
	return Line{Op: op, Arity: 2, Arg1: arg1, Arg2: arg2}
}

func Comment(text string) Line {
	return Line{Comment: text}
}

func Label(text string) Line {
	return Line{Label: text}
}

// Blank is an empty line separating instruction blocks.
func Blank() Line {
	return Line{}
}
