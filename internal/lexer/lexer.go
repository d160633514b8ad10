package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

type TokenType int

// Token types
const (
	LEX_EOF TokenType = iota
	LEX_WORD
	LEX_STRING
	LEX_INDEX
	LEX_SEPARATOR
)

func (t TokenType) String() string {
	switch t {
	case LEX_EOF:
		return "EOF"
	case LEX_WORD:
		return "WORD"
	case LEX_STRING:
		return "STRING"
	case LEX_INDEX:
		return "INDEX"
	case LEX_SEPARATOR:
		return "SEPARATOR"
	default:
		return "UNKNOWN"
	}
}

type Location struct {
	Filename string
	Line     int
	Col      int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Col)
}

// Lexeme is a single piece of RPN text. For LEX_STRING, Str keeps the quotes.
// For LEX_INDEX, Str holds the digits between the brackets.
type Lexeme struct {
	Type TokenType
	Str  string
	Loc  Location
}

func (l Lexeme) String() string {
	if l.Str == "" {
		return fmt.Sprintf("<%s>", l.Type)
	}
	return fmt.Sprintf("<%s %q>", l.Type, l.Str)
}

// Lexer splits RPN text: either bare whitespace-separated tokens or the
// intermediate code listing ("[3] x" lines between dashed separators).
// Comments start with "//" and run to the end of the line.
type Lexer struct {
	input     *bufio.Reader
	filename  string
	line      int
	col       int
	prevCol   int
	lastRune  rune
	hasUnread bool
}

func New(inputReader io.Reader, filename string) *Lexer {
	return &Lexer{
		input:    bufio.NewReader(inputReader),
		filename: filename,
		line:     1,
		col:      1,
		prevCol:  1,
	}
}

// readRune reads the next rune from the input
func (l *Lexer) readRune() (rune, error) {
	var r rune
	var err error

	if l.hasUnread {
		l.hasUnread = false
		r = l.lastRune
	} else {
		r, _, err = l.input.ReadRune()
	}

	if err != nil {
		return 0, err
	}

	l.prevCol = l.col
	l.lastRune = r
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, nil
}

// unreadRune puts back the last read rune.
// Should be called at most once per readRune.
func (l *Lexer) unreadRune() {
	l.hasUnread = true
	if l.lastRune == '\n' {
		l.line--
	}
	l.col = l.prevCol
}

func (l *Lexer) location(line, col int) Location {
	return Location{Filename: l.filename, Line: line, Col: col}
}

// skipSpace skips whitespace characters
func (l *Lexer) skipSpace() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !unicode.IsSpace(r) {
			l.unreadRune()
			return nil
		}
	}
}

func (l *Lexer) skipLine() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if r == '\n' {
			return nil
		}
	}
}

// Next returns the next lexeme from the input
func (l *Lexer) Next() (Lexeme, error) {
	if err := l.skipSpace(); err != nil {
		return Lexeme{Type: LEX_EOF}, err
	}
	startLine := l.line
	startCol := l.col
	r, err := l.readRune()
	if err != nil {
		if err == io.EOF {
			return Lexeme{Type: LEX_EOF}, nil
		}
		return Lexeme{Type: LEX_EOF}, err
	}

	switch r {
	case '"':
		return l.lexString(startLine, startCol)
	case '[':
		return l.lexIndex(startLine, startCol)
	}

	l.unreadRune()
	word, err := l.lexWord()
	if err != nil {
		return Lexeme{Type: LEX_EOF}, err
	}
	if strings.HasPrefix(word, "//") {
		if l.lastRune != '\n' {
			if err := l.skipLine(); err != nil {
				return Lexeme{Type: LEX_EOF}, err
			}
		}
		return l.Next()
	}
	if len(word) >= 3 && strings.Trim(word, "-") == "" {
		return Lexeme{Type: LEX_SEPARATOR, Str: word, Loc: l.location(startLine, startCol)}, nil
	}
	return Lexeme{Type: LEX_WORD, Str: word, Loc: l.location(startLine, startCol)}, nil
}

func (l *Lexer) lexWord() (string, error) {
	var sb strings.Builder
	for {
		r, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return sb.String(), nil
			}
			return "", err
		}
		if unicode.IsSpace(r) {
			l.unreadRune()
			return sb.String(), nil
		}
		sb.WriteRune(r)
	}
}

// lexString reads a string literal. The opening quote has been consumed.
// A doubled quote stands for one quote character and is kept doubled in Str.
func (l *Lexer) lexString(startLine, startCol int) (Lexeme, error) {
	var sb strings.Builder
	sb.WriteRune('"')
	for {
		r, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return Lexeme{Type: LEX_EOF}, fmt.Errorf("%s: unterminated string literal", l.location(startLine, startCol))
			}
			return Lexeme{Type: LEX_EOF}, err
		}
		if r == '\n' {
			return Lexeme{Type: LEX_EOF}, fmt.Errorf("%s: newline in string literal", l.location(startLine, startCol))
		}
		sb.WriteRune(r)
		if r != '"' {
			continue
		}
		next, err := l.readRune()
		if err != nil && err != io.EOF {
			return Lexeme{Type: LEX_EOF}, err
		}
		if err == nil && next == '"' {
			sb.WriteRune(next)
			continue
		}
		if err == nil {
			l.unreadRune()
		}
		return Lexeme{Type: LEX_STRING, Str: sb.String(), Loc: l.location(startLine, startCol)}, nil
	}
}

// lexIndex reads "[123]". The opening bracket has been consumed.
func (l *Lexer) lexIndex(startLine, startCol int) (Lexeme, error) {
	var sb strings.Builder
	for {
		r, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return Lexeme{Type: LEX_EOF}, fmt.Errorf("%s: unterminated index", l.location(startLine, startCol))
			}
			return Lexeme{Type: LEX_EOF}, err
		}
		if r == ']' {
			break
		}
		if !unicode.IsDigit(r) {
			return Lexeme{Type: LEX_EOF}, fmt.Errorf("%s: unexpected %q in index", l.location(startLine, startCol), r)
		}
		sb.WriteRune(r)
	}
	if sb.Len() == 0 {
		return Lexeme{Type: LEX_EOF}, fmt.Errorf("%s: empty index", l.location(startLine, startCol))
	}
	return Lexeme{Type: LEX_INDEX, Str: sb.String(), Loc: l.location(startLine, startCol)}, nil
}
