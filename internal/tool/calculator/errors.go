package calculator

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrInvalidCharacter = errors.New("invalid character")
	ErrSyntax           = errors.New("syntax error")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrNonFiniteResult  = errors.New("result is not a finite number")

	ErrExpressionRequired = errors.New("expression is required")
)

// InvalidCharacterError reports the first character outside the arithmetic allowlist.
type InvalidCharacterError struct {
	Char     rune
	Position int
}

func (e *InvalidCharacterError) Error() string {
	return fmt.Sprintf("invalid character %q at position %d", e.Char, e.Position)
}

func (e *InvalidCharacterError) Is(target error) bool {
	return target == ErrInvalidCharacter
}

// SyntaxError reports where parsing stopped. Position is a byte offset into
// the normalized expression (after "**" has been rewritten to "^").
type SyntaxError struct {
	Position int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Position, e.Msg)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}
