// Package pdf renders scanned invoice PDFs to page images.
//
// It wraps the MuPDF engine (via go-fitz) to rasterize each page at a fixed
// DPI suitable both for on-screen review and as input to the multimodal
// extraction service. Rendering is purely in-memory: the package never writes
// to disk and produces no side effects beyond the returned image sequence.
//
// Page cap:
//   - Each rendered page becomes one image in the paid extraction request,
//     so the rasterizer rejects documents above a configured page limit
//     before rendering anything. The default limit is 10 pages.
package pdf

import (
	"context"
	"io"
)

// Rasterizer defines the interface for PDF page rendering.
type Rasterizer interface {
	// RenderPages renders every page of the PDF to a PNG image, in original
	// page order. It fails with ErrInvalidPDF for unreadable input,
	// ErrEmptyDocument for zero pages, and ErrTooManyPages when the document
	// exceeds the configured cap (in which case no page is rendered).
	RenderPages(ctx context.Context, pdfData io.Reader) ([]PageImage, error)

	// PageCount reports the number of pages without rendering any of them.
	PageCount(pdfData io.Reader) (int, error)
}

// PageImage is one rendered PDF page.
type PageImage struct {
	// Number is the 1-based page number.
	Number int

	// PNG holds the encoded image bytes.
	PNG []byte

	// Width and Height are the pixel dimensions at the configured DPI.
	Width  int
	Height int
}

// RasterizerConfig configures page rendering.
type RasterizerConfig struct {
	// DPI is the rendering resolution. Default: 200.
	DPI int

	// MaxPages caps the number of pages accepted per document. Default: 10.
	MaxPages int
}

// DefaultRasterizerConfig returns a RasterizerConfig with the defaults used
// by the original deployment.
func DefaultRasterizerConfig() RasterizerConfig {
	return RasterizerConfig{
		DPI:      200,
		MaxPages: 10,
	}
}
