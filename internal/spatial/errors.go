package spatial

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every input contract violation reported by
// the engine.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError describes a rejected detection or frame.
type InvalidInputError struct {
	// Field names the offending value, e.g. "width" or "box".
	Field string

	// Index is the position of the offending detection, or -1 when the
	// error concerns the frame or configuration.
	Index int

	// Reason is a short human-readable explanation.
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid input: detection %d: %s: %s", e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidf(index int, field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Index: index, Reason: fmt.Sprintf(format, args...)}
}
