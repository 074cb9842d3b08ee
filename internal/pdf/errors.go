package pdf

import (
	"errors"
	"fmt"
)

// Common document read errors
var (
	// ErrInvalidPDF is returned when the provided data is not a valid PDF
	// document or cannot be opened by the rendering engine.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrEmptyDocument is returned when the PDF contains zero pages.
	ErrEmptyDocument = errors.New("PDF document has no pages")

	// ErrTooManyPages is returned when the PDF exceeds the configured page
	// cap. The cap bounds the cost of the downstream extraction call and is
	// a hard limit, never a retry target.
	ErrTooManyPages = errors.New("PDF exceeds the configured page limit")

	// ErrRenderFailed is returned when a page cannot be rendered to an image.
	ErrRenderFailed = errors.New("page rendering failed")

	// ErrContextCanceled is returned when rendering is canceled via context.
	ErrContextCanceled = errors.New("PDF rendering was canceled")
)

// DocumentError wraps errors with additional context about a document read failure.
type DocumentError struct {
	// Op is the operation that failed (e.g., "RenderPages").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string

	// PageCount is the number of pages in the document (if known).
	PageCount int
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("pdf: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("pdf: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDocumentError creates a new DocumentError with the given operation and
// underlying error.
func NewDocumentError(op string, err error, details string) *DocumentError {
	return &DocumentError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}
