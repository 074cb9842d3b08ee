package excel

import (
	"errors"
	"fmt"
)

// Common template writer errors
var (
	// ErrBadMapping is returned when the column mapping references an invalid
	// column label, an unknown field name, or an out-of-range row. Mapping
	// problems are configuration-time failures: they surface before a single
	// cell is written, so a supplied template is never partially modified.
	ErrBadMapping = errors.New("invalid column mapping configuration")

	// ErrBadTemplate is returned when the supplied template workbook cannot
	// be opened as an XLSX file.
	ErrBadTemplate = errors.New("template workbook could not be opened")
)

// ConfigError wraps mapping and template configuration failures.
type ConfigError struct {
	// Op is the operation that failed (e.g., "WriteInvoice").
	Op string

	// Err is the underlying error.
	Err error

	// Details names the offending mapping entry or template problem.
	Details string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("excel: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("excel: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ConfigError) Is(target error) bool {
	return errors.Is(e.Err, target)
}
