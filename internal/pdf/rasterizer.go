package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog"

	"vninvoice/internal/logger"
)

// MuPDFRasterizer implements Rasterizer using the MuPDF engine.
type MuPDFRasterizer struct {
	config RasterizerConfig
	log    zerolog.Logger
}

// NewRasterizer creates a rasterizer with the default configuration.
func NewRasterizer() *MuPDFRasterizer {
	return NewRasterizerWithConfig(DefaultRasterizerConfig())
}

// NewRasterizerWithConfig creates a rasterizer with explicit configuration.
func NewRasterizerWithConfig(config RasterizerConfig) *MuPDFRasterizer {
	if config.DPI <= 0 {
		config.DPI = DefaultRasterizerConfig().DPI
	}
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultRasterizerConfig().MaxPages
	}
	return &MuPDFRasterizer{
		config: config,
		log:    logger.WithComponent("pdf-rasterizer"),
	}
}

// RenderPages renders every page to PNG at the configured DPI.
func (r *MuPDFRasterizer) RenderPages(ctx context.Context, pdfData io.Reader) ([]PageImage, error) {
	const op = "RenderPages"

	raw, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, NewDocumentError(op, err, "failed to read PDF data")
	}

	doc, err := fitz.NewFromMemory(raw)
	if err != nil {
		r.log.Error().Err(err).Int("bytes", len(raw)).Msg("Failed to open PDF")
		return nil, NewDocumentError(op, ErrInvalidPDF, err.Error())
	}
	defer func() {
		if closeErr := doc.Close(); closeErr != nil {
			r.log.Warn().Err(closeErr).Msg("Failed to close PDF document")
		}
	}()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, NewDocumentError(op, ErrEmptyDocument, "")
	}
	// The cap is checked before rendering a single page so an oversized
	// document costs nothing.
	if pageCount > r.config.MaxPages {
		r.log.Error().
			Int("pages", pageCount).
			Int("max_pages", r.config.MaxPages).
			Msg("PDF exceeds page limit")
		return nil, &DocumentError{
			Op:        op,
			Err:       ErrTooManyPages,
			Details:   fmt.Sprintf("%d pages, limit is %d", pageCount, r.config.MaxPages),
			PageCount: pageCount,
		}
	}

	pages := make([]PageImage, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, NewDocumentError(op, ErrContextCanceled, ctx.Err().Error())
		default:
		}

		img, err := doc.ImageDPI(i, float64(r.config.DPI))
		if err != nil {
			return nil, NewDocumentError(op, ErrRenderFailed, fmt.Sprintf("page %d: %v", i+1, err))
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, NewDocumentError(op, ErrRenderFailed, fmt.Sprintf("page %d: PNG encode: %v", i+1, err))
		}

		bounds := img.Bounds()
		pages = append(pages, PageImage{
			Number: i + 1,
			PNG:    buf.Bytes(),
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}

	r.log.Debug().
		Int("pages", len(pages)).
		Int("dpi", r.config.DPI).
		Msg("Rendered PDF pages")

	return pages, nil
}

// PageCount opens the document just far enough to count its pages.
func (r *MuPDFRasterizer) PageCount(pdfData io.Reader) (int, error) {
	const op = "PageCount"

	raw, err := io.ReadAll(pdfData)
	if err != nil {
		return 0, NewDocumentError(op, err, "failed to read PDF data")
	}

	doc, err := fitz.NewFromMemory(raw)
	if err != nil {
		return 0, NewDocumentError(op, ErrInvalidPDF, err.Error())
	}
	defer doc.Close()

	return doc.NumPage(), nil
}
