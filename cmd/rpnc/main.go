package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iley/rpnc/internal/codegen"
	"github.com/iley/rpnc/internal/ir"
	"github.com/iley/rpnc/internal/symtab"
)

var (
	outputFile  string
	targetName  string
	listingFile string
	symbolsFile string
	strict      bool
	patches     []string
	intNames    []string
	floatNames  []string
	stringNames []string
)

var rootCmd = &cobra.Command{
	Use:   "rpnc",
	Short: "RPN intermediate code back end",
	Long:  "Turns reverse-Polish intermediate code into MASM assembly for the x87 coprocessor.",
}

var buildCmd = &cobra.Command{
	Use:   "build <file.rpn>",
	Short: "Generate assembly from an RPN listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := codegen.TargetFromName(targetName)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		p, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		st, err := newSymbolTable()
		if err != nil {
			return err
		}

		var asmBuf bytes.Buffer
		if err := codegen.Generate(&asmBuf, target, p, st); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		if outputFile == "" {
			outputFile = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".asm"
		}
		if err := writeArtifact(outputFile, asmBuf.Bytes()); err != nil {
			return err
		}
		if listingFile != "" {
			if err := writeArtifact(listingFile, []byte(p.String())); err != nil {
				return err
			}
		}
		if symbolsFile != "" {
			if err := writeArtifact(symbolsFile, []byte(st.String())); err != nil {
				return err
			}
		}
		return nil
	},
}

var listingCmd = &cobra.Command{
	Use:   "listing <file.rpn>",
	Short: "Print the indexed intermediate code listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		p, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		p.Print(os.Stdout)
		return nil
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file.rpn>",
	Short: "Print the symbol table a build would produce",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := codegen.TargetFromName(targetName)
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		p, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		st, err := newSymbolTable()
		if err != nil {
			return err
		}
		if err := codegen.Generate(io.Discard, target, p, st); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		st.Print(os.Stdout)
		return nil
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Build an RPN program interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := codegen.TargetFromName(targetName)
		if err != nil {
			return err
		}
		return runRepl(target)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{buildCmd, symbolsCmd} {
		cmd.Flags().StringArrayVar(&patches, "patch", nil, "backpatch a token before generation, as index=token (repeatable)")
		cmd.Flags().BoolVar(&strict, "strict", false, "treat backpatch warnings as errors")
		cmd.Flags().StringSliceVar(&intNames, "int", nil, "identifiers to declare as Int")
		cmd.Flags().StringSliceVar(&floatNames, "float", nil, "identifiers to declare as Float")
		cmd.Flags().StringSliceVar(&stringNames, "string", nil, "identifiers to declare as String")
	}
	for _, cmd := range []*cobra.Command{buildCmd, symbolsCmd, replCmd} {
		cmd.Flags().StringVarP(&targetName, "target", "t", "masm-x87", "target (masm-x87)")
	}
	buildCmd.Flags().StringVarP(&outputFile, "o", "o", "", "output file name (- for stdout)")
	buildCmd.Flags().StringVar(&listingFile, "listing", "", "also write the intermediate code listing to this file")
	buildCmd.Flags().StringVar(&symbolsFile, "symbols", "", "also write the symbol table to this file")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listingCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(replCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadProgram reads a listing and applies the --patch flags to it.
func loadProgram(fileName string) (*ir.Program, error) {
	inputFile, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("error opening input file: %w", err)
	}
	defer inputFile.Close()

	p, err := ir.Load(inputFile, fileName)
	if err != nil {
		return nil, err
	}

	for _, patch := range patches {
		index, tok, err := parsePatch(patch)
		if err != nil {
			return nil, err
		}
		if err := p.Backpatch(index, tok); err != nil {
			return nil, err
		}
	}

	for _, warning := range p.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", fileName, warning)
	}
	if strict && len(p.Warnings()) > 0 {
		return nil, fmt.Errorf("%s: %d warning(s) in strict mode", fileName, len(p.Warnings()))
	}
	return p, nil
}

// parsePatch splits "index=token".
func parsePatch(s string) (int, ir.Token, error) {
	indexText, tokText, ok := strings.Cut(s, "=")
	if !ok {
		return 0, ir.Token{}, fmt.Errorf("invalid patch %q, expected index=token", s)
	}
	index, err := strconv.Atoi(strings.TrimSpace(indexText))
	if err != nil {
		return 0, ir.Token{}, fmt.Errorf("invalid patch index in %q: %w", s, err)
	}
	tok, err := ir.ParseToken(strings.TrimSpace(tokText))
	if err != nil {
		return 0, ir.Token{}, fmt.Errorf("invalid patch token in %q: %w", s, err)
	}
	return index, tok, nil
}

// newSymbolTable applies the --int, --float and --string declarations. A name
// may only be given one type.
func newSymbolTable() (*symtab.Table, error) {
	st := symtab.New()
	declarations := []struct {
		names []string
		typ   symtab.Type
	}{
		{intNames, symtab.Int},
		{floatNames, symtab.Float},
		{stringNames, symtab.String},
	}
	for _, decl := range declarations {
		for _, name := range decl.names {
			if e, ok := st.Lookup(name); ok && e.Type != symtab.Untyped {
				return nil, fmt.Errorf("%w: %s is already declared as %s", symtab.ErrDuplicateDeclaration, name, e.Type)
			}
		}
		st.DeclareBulk(decl.names, decl.typ)
	}
	return st, nil
}

// writeArtifact creates the file only once its full contents are known.
func writeArtifact(fileName string, data []byte) (err error) {
	if fileName == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}

	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", closeErr)
		}
	}()

	_, err = f.Write(data)
	return err
}
