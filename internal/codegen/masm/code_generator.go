package masm

import (
	"io"

	"github.com/iley/rpnc/internal/asm"
	"github.com/iley/rpnc/internal/codegen/common"
	"github.com/iley/rpnc/internal/codegen/x87"
	"github.com/iley/rpnc/internal/ir"
	"github.com/iley/rpnc/internal/symtab"
)

// CodeGenerator targets MASM for a DOS program using the x87 coprocessor.
type CodeGenerator struct{}

func (cg *CodeGenerator) ReservedLabels() []string {
	return x87.ReservedLabels()
}

func (cg *CodeGenerator) Generate(p *ir.Program, layout common.Layout, temps []string) (asm.Program, []symtab.Registration, error) {
	return x87.Generate(p, layout, temps)
}

func (cg *CodeGenerator) Format(out io.Writer, p asm.Program) {
	formatProgram(out, p)
}
