// Package pipeline wires the rasterizer, extraction client, and normalizer
// into one synchronous run over a single invoice.
//
// A Session is the explicit per-run context the components hang off: it owns
// no global state, processes one document at a time, and is safe to discard
// after the run. The only long block inside Run is the extraction call, which
// is bounded by the caller's context.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vninvoice/internal/extract"
	"vninvoice/internal/logger"
	"vninvoice/internal/normalize"
	"vninvoice/internal/pdf"
	"vninvoice/pkg/models"
)

// Session holds the component set for processing one invoice at a time.
type Session struct {
	rasterizer pdf.Rasterizer
	extractor  extract.Extractor
	normalizer *normalize.Normalizer
	log        zerolog.Logger
}

// Options configures a Session built from scratch.
type Options struct {
	// APIKey authenticates the extraction call. Required.
	APIKey string

	// BaseURL optionally overrides the extraction endpoint.
	BaseURL string

	// Model is the extraction model name; empty uses the client default.
	Model string

	// DPI is the page rendering resolution; zero uses the rasterizer default.
	DPI int

	// MaxPages caps accepted documents; zero uses the rasterizer default.
	MaxPages int
}

// Result is everything one run produces: the normalized document for review
// or export, the rendered pages for display, and the raw response text for
// diagnosing extraction problems.
type Result struct {
	// RunID identifies this run in logs.
	RunID string `json:"run_id"`

	// Document is the normalized invoice. Populated even when validation
	// failed, so partially-filled data can be reviewed and corrected.
	Document *models.InvoiceDocument `json:"document"`

	// Warnings are the non-fatal findings from normalization.
	Warnings []normalize.Warning `json:"warnings,omitempty"`

	// Pages are the rendered page images, in original order.
	Pages []pdf.PageImage `json:"-"`

	// RawResponse is the extraction response text after fence stripping.
	RawResponse string `json:"-"`

	// ProcessedAt is when the run completed.
	ProcessedAt time.Time `json:"processed_at"`

	// Duration is the total run time, dominated by the extraction call.
	Duration time.Duration `json:"duration"`
}

// NewSession builds a Session from Options.
func NewSession(opts Options) (*Session, error) {
	clientConfig := extract.DefaultClientConfig()
	clientConfig.APIKey = opts.APIKey
	clientConfig.BaseURL = opts.BaseURL
	if opts.Model != "" {
		clientConfig.Model = opts.Model
	}
	extractor, err := extract.NewClientWithConfig(clientConfig)
	if err != nil {
		return nil, err
	}

	rasterizerConfig := pdf.DefaultRasterizerConfig()
	if opts.DPI > 0 {
		rasterizerConfig.DPI = opts.DPI
	}
	if opts.MaxPages > 0 {
		rasterizerConfig.MaxPages = opts.MaxPages
	}

	return NewSessionWithDeps(
		pdf.NewRasterizerWithConfig(rasterizerConfig),
		extractor,
		normalize.New(),
	), nil
}

// NewSessionWithDeps builds a Session with explicit components.
func NewSessionWithDeps(rasterizer pdf.Rasterizer, extractor extract.Extractor, normalizer *normalize.Normalizer) *Session {
	return &Session{
		rasterizer: rasterizer,
		extractor:  extractor,
		normalizer: normalizer,
		log:        logger.WithComponent("pipeline"),
	}
}

// Run processes one invoice PDF: rasterize, extract, normalize. Each stage
// failure halts the run before the next stage, so an unreadable PDF never
// costs an extraction call.
//
// When normalization fails validation the Result is still returned alongside
// the error; the caller decides whether partially-filled data is usable.
// Run never re-issues the extraction call.
func (s *Session) Run(ctx context.Context, pdfData io.Reader) (*Result, error) {
	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	pages, err := s.rasterizer.RenderPages(ctx, pdfData)
	if err != nil {
		log.Error().Err(err).Msg("Rasterization failed")
		return nil, err
	}
	log.Info().Int("pages", len(pages)).Msg("PDF rendered")

	raw, err := s.extractor.ExtractInvoice(ctx, pages)
	if err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		return nil, err
	}

	doc, warnings, err := s.normalizer.Normalize(raw)
	result := &Result{
		RunID:       runID,
		Document:    doc,
		Warnings:    warnings,
		Pages:       pages,
		RawResponse: raw.Response,
		ProcessedAt: time.Now(),
		Duration:    time.Since(start),
	}
	if err != nil {
		var validationErr *normalize.ValidationError
		if errors.As(err, &validationErr) {
			log.Warn().
				Int("failed_fields", len(validationErr.Fields)).
				Msg("Normalization failed validation, returning partial document")
			return result, err
		}
		return nil, err
	}

	log.Info().
		Str("invoice_number", doc.Header.FormattedNumber()).
		Int("items", len(doc.Items)).
		Int("warnings", len(warnings)).
		Dur("duration", result.Duration).
		Msg("Invoice processed")

	return result, nil
}
