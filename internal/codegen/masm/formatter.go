package masm

import (
	"fmt"
	"io"

	"github.com/iley/rpnc/internal/asm"
	"github.com/iley/rpnc/internal/util"
)

const entryLabel = "START"

func formatProgram(out io.Writer, p asm.Program) {
	fmt.Fprintf(out, ".MODEL LARGE\n")
	fmt.Fprintf(out, ".386\n")
	fmt.Fprintf(out, ".STACK 200h\n")
	fmt.Fprintf(out, "\n")

	formatData(out, p.Data)

	fmt.Fprintf(out, ".CODE\n")
	fmt.Fprintf(out, "%s:\n", entryLabel)
	for _, line := range p.Lines {
		formatLine(out, line)
	}

	for _, r := range p.Routines {
		fmt.Fprintf(out, "\n")
		formatRoutine(out, r)
	}

	fmt.Fprintf(out, "\nEND %s\n", entryLabel)
}

func formatData(out io.Writer, data []asm.DataEntry) {
	fmt.Fprintf(out, ".DATA\n")
	for _, d := range data {
		fmt.Fprintf(out, "%-20s %-5s %s\n", d.Label, d.Directive, d.Value)
	}
	fmt.Fprintf(out, "\n")
}

func formatRoutine(out io.Writer, r asm.Routine) {
	fmt.Fprintf(out, "%s PROC\n", r.Name)
	for _, line := range r.Lines {
		formatLine(out, line)
	}
	fmt.Fprintf(out, "%s ENDP\n", r.Name)
}

func formatLine(out io.Writer, line asm.Line) {
	if line.Label != "" {
		fmt.Fprintf(out, "%s:", line.Label)
	} else if line.Op != "" {
		fmt.Fprintf(out, "    %s", line.Op)

		if line.Arity >= 1 {
			fmt.Fprintf(out, " %s", argToString(line.Arg1))
		}
		if line.Arity >= 2 {
			fmt.Fprintf(out, ", %s", argToString(line.Arg2))
		}
	}

	if line.Comment != "" {
		if line.Label == "" && line.Op == "" {
			fmt.Fprintf(out, "    ; %s", line.Comment)
		} else {
			fmt.Fprintf(out, "  ; %s", line.Comment)
		}
	}

	fmt.Fprintf(out, "\n")
}

func argToString(arg asm.Arg) string {
	switch {
	case arg.Reg != "":
		return arg.Reg
	case arg.Label != "" && arg.Offset:
		return "OFFSET " + arg.Label
	case arg.Label != "":
		return arg.Label
	case arg.Imm != nil && arg.Hex:
		return util.MasmHex(*arg.Imm)
	case arg.Imm != nil:
		return fmt.Sprintf("%d", *arg.Imm)
	case arg.Char != 0:
		return fmt.Sprintf("'%c'", arg.Char)
	}
	panic(fmt.Errorf("invalid arg %#v", arg))
}
