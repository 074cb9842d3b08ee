package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRequiredField is returned (wrapped in a ValidationError) when a required
// field is missing or cannot be coerced. Required fields are the invoice
// number and the total after VAT; everything else degrades to a warning.
var ErrRequiredField = errors.New("required invoice field missing or unparseable")

// FieldError describes one field that failed coercion.
type FieldError struct {
	// Field is the dotted path of the failed field, e.g. "totals.total_after_vat".
	Field string

	// Value is the raw value that could not be coerced, verbatim.
	Value string

	// Message explains what went wrong.
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("field %q: %s (value: %s)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// ValidationError enumerates every required field that failed, so a user sees
// the full damage in one pass instead of fixing fields one at a time.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "invoice validation failed: " + strings.Join(msgs, "; ")
}

// Is reports ErrRequiredField for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrRequiredField
}

// Warning is a non-fatal finding attached to a normalized document. Warnings
// never block normalization or export of non-required fields.
type Warning struct {
	// Field is the dotted path the warning refers to, e.g. "items[2].quantity".
	Field string `json:"field"`

	// Message describes the finding.
	Message string `json:"message"`
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	return w.Field + ": " + w.Message
}
