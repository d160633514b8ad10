package ir

import (
	"fmt"
	"io"
	"strconv"

	"github.com/iley/rpnc/internal/lexer"
)

// Load reads an RPN program back from text. Two layouts are accepted: bare
// whitespace-separated tokens, or the listing produced by Program.Print. In a
// listing everything before the first separator line is the header and the
// second separator ends the program; "[i]" prefixes must count up from zero.
func Load(input io.Reader, filename string) (*Program, error) {
	lex := lexer.New(input, filename)

	var lexemes []lexer.Lexeme
	separators := 0
	for {
		lexeme, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if lexeme.Type == lexer.LEX_EOF {
			break
		}
		if lexeme.Type == lexer.LEX_SEPARATOR {
			separators++
			if separators == 1 {
				// Drop the header.
				lexemes = lexemes[:0]
				continue
			}
			break
		}
		lexemes = append(lexemes, lexeme)
	}

	p := NewProgram()
	for _, lexeme := range lexemes {
		switch lexeme.Type {
		case lexer.LEX_INDEX:
			idx, err := strconv.Atoi(lexeme.Str)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid index %s: %w", lexeme.Loc, lexeme.Str, err)
			}
			if idx != p.Next() {
				return nil, fmt.Errorf("%s: expected index %d, got %d", lexeme.Loc, p.Next(), idx)
			}
		case lexer.LEX_WORD, lexer.LEX_STRING:
			tok, err := ParseToken(lexeme.Str)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", lexeme.Loc, err)
			}
			p.Append(tok)
		default:
			return nil, fmt.Errorf("%s: unexpected %s", lexeme.Loc, lexeme)
		}
	}
	return p, nil
}
