package common

import (
	"io"

	"github.com/iley/rpnc/internal/asm"
	"github.com/iley/rpnc/internal/ir"
	"github.com/iley/rpnc/internal/symtab"
)

// CodeGenerator is the target-specific final pass. It receives the results of
// the two analysis passes and returns the assembly program together with the
// symbol table entries the run introduces.
type CodeGenerator interface {
	// ReservedLabels are data labels the generator declares itself.
	ReservedLabels() []string
	Generate(p *ir.Program, layout Layout, temps []string) (asm.Program, []symtab.Registration, error)
	Format(io.Writer, asm.Program)
}
