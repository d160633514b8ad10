package codegen

import (
	"bytes"
	"fmt"
	"io"

	"github.com/iley/rpnc/internal/codegen/common"
	"github.com/iley/rpnc/internal/codegen/masm"
	"github.com/iley/rpnc/internal/ir"
	"github.com/iley/rpnc/internal/symtab"
)

type Target int

const (
	TargetMASMX87 Target = iota
)

func TargetFromName(name string) (Target, error) {
	switch name {
	case "masm-x87", "x87-dos":
		return TargetMASMX87, nil
	}
	return 0, fmt.Errorf("unknown target: %s", name)
}

func (t Target) String() string {
	switch t {
	case TargetMASMX87:
		return "masm-x87"
	}
	return fmt.Sprintf("Target(%d)", int(t))
}

func generatorFor(target Target) (common.CodeGenerator, error) {
	switch target {
	case TargetMASMX87:
		return &masm.CodeGenerator{}, nil
	}
	return nil, fmt.Errorf("unknown target: %v", target)
}

// Generate translates a finished RPN program into assembly and writes it to
// out. Nothing is written and the symbol table is left untouched unless the
// whole program was generated successfully. st may be nil.
func Generate(out io.Writer, target Target, p *ir.Program, st *symtab.Table) error {
	cg, err := generatorFor(target)
	if err != nil {
		return err
	}

	if err := common.CheckFinished(p); err != nil {
		return err
	}
	layout, err := common.GatherLayout(p, cg.ReservedLabels()...)
	if err != nil {
		return err
	}
	temps := common.DiscoverTemporaries(p)

	asmProgram, regs, err := cg.Generate(p, layout, temps)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	cg.Format(&buf, asmProgram)
	if _, err := out.Write(buf.Bytes()); err != nil {
		return err
	}

	if st != nil {
		st.Apply(regs)
	}
	return nil
}
