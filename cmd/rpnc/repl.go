package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/iley/rpnc/internal/codegen"
	"github.com/iley/rpnc/internal/ir"
	"github.com/iley/rpnc/internal/lexer"
	"github.com/iley/rpnc/internal/symtab"
)

const (
	historyFile = ".rpnc_history"
	promptMain  = "rpn> "
	replHelp    = `Tokens are appended to the program and their indices printed.
:patch <index> <token>       replace a token (normally a _PLHDR)
:declare <type> <names...>   declare identifiers as Int, Float or String
:list                        print the intermediate code listing
:asm                         generate assembly for the current program
:symbols                     print the symbol table
:reset                       start over with an empty program
:quit                        leave`
)

// session is the state of one REPL: the program being built and the symbol
// table that successful :asm runs update.
type session struct {
	target  codegen.Target
	program *ir.Program
	symbols *symtab.Table
	out     io.Writer
	errOut  io.Writer
}

func newSession(target codegen.Target, out, errOut io.Writer) *session {
	return &session{
		target:  target,
		program: ir.NewProgram(),
		symbols: symtab.New(),
		out:     out,
		errOut:  errOut,
	}
}

// handle runs one input line and reports whether the session should end.
func (s *session) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") || strings.HasPrefix(line, ir.AssignText) {
		if err := s.appendTokens(line); err != nil {
			fmt.Fprintf(s.errOut, "error: %v\n", err)
		}
		return false
	}

	fields := strings.Fields(line)
	var err error
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(s.out, replHelp)
	case ":patch":
		err = s.patch(fields[1:])
	case ":declare":
		err = s.declare(fields[1:])
	case ":list":
		s.program.Print(s.out)
	case ":asm":
		err = codegen.Generate(s.out, s.target, s.program, s.symbols)
	case ":symbols":
		s.symbols.Print(s.out)
	case ":reset":
		s.program = ir.NewProgram()
		s.symbols = symtab.New()
	default:
		err = fmt.Errorf("unknown command %s, type :help for a list", fields[0])
	}
	if err != nil {
		fmt.Fprintf(s.errOut, "error: %v\n", err)
	}
	return false
}

// appendTokens parses the whole line before appending anything, so a bad
// token leaves the program unchanged.
func (s *session) appendTokens(line string) error {
	lex := lexer.New(strings.NewReader(line), "<repl>")
	var tokens []ir.Token
	for {
		lexeme, err := lex.Next()
		if err != nil {
			return err
		}
		if lexeme.Type == lexer.LEX_EOF {
			break
		}
		if lexeme.Type != lexer.LEX_WORD && lexeme.Type != lexer.LEX_STRING {
			return fmt.Errorf("%s: unexpected %s", lexeme.Loc, lexeme)
		}
		tok, err := ir.ParseToken(lexeme.Str)
		if err != nil {
			return fmt.Errorf("%s: %w", lexeme.Loc, err)
		}
		tokens = append(tokens, tok)
	}

	for _, tok := range tokens {
		idx := s.program.Append(tok)
		fmt.Fprintf(s.out, "[%d] %s\n", idx, tok)
	}
	return nil
}

func (s *session) patch(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: :patch <index> <token>")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q: %w", args[0], err)
	}
	tok, err := ir.ParseToken(args[1])
	if err != nil {
		return err
	}

	before := len(s.program.Warnings())
	if err := s.program.Backpatch(index, tok); err != nil {
		return err
	}
	for _, warning := range s.program.Warnings()[before:] {
		fmt.Fprintf(s.errOut, "warning: %v\n", warning)
	}
	return nil
}

func (s *session) declare(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: :declare <type> <names...>")
	}
	typ, err := symtab.ParseType(args[0])
	if err != nil {
		return err
	}
	for _, name := range args[1:] {
		if err := s.symbols.DeclareType(name, typ); err != nil {
			return err
		}
	}
	return nil
}

// watchSignals calls onSignal on the first signal, or returns once done is
// closed.
func watchSignals(sigc <-chan os.Signal, done <-chan struct{}, onSignal func()) {
	select {
	case <-sigc:
		onSignal()
	case <-done:
	}
}

func runRepl(target codegen.Target) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	defer close(done)
	go watchSignals(sigc, done, func() {
		ln.Close()
		os.Exit(130)
	})

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := newSession(target, os.Stdout, os.Stderr)
	fmt.Println("rpnc interactive session, type :help for commands")
	for {
		line, err := ln.Prompt(promptMain)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if s.handle(line) {
			return nil
		}
	}
}
