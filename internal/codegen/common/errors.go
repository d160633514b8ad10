package common

import (
	"errors"
	"fmt"

	"github.com/iley/rpnc/internal/ir"
)

var (
	ErrStackUnderflow           = errors.New("stack underflow")
	ErrInvalidBranchDestination = errors.New("invalid branch destination")
	ErrUnresolvedPlaceholder    = errors.New("unresolved placeholder")
	ErrUnmappedBranchKind       = errors.New("unmapped branch kind")
	ErrTemporaryMismatch        = errors.New("temporary mismatch")
)

// Error ties a generation failure to the RPN position that caused it.
type Error struct {
	Index int
	Token ir.Token
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s: %v", e.Index, e.Token, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf wraps one of the sentinel errors above with position information.
func Errorf(index int, tok ir.Token, sentinel error, format string, args ...any) error {
	return &Error{
		Index: index,
		Token: tok,
		Err:   fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}
