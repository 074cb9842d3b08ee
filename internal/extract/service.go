// Package extract calls an external multimodal AI service to read the
// rendered invoice pages and return structured invoice JSON.
//
// The service boundary is one outbound request per invoice: a fixed
// natural-language instruction plus every page image, sent through an
// OpenAI-compatible chat completion API. The response is free-form text that
// is expected to contain a single JSON object; this package strips any
// markdown wrapping and validates the minimum shape (header, items, totals)
// before handing the loosely-typed result to the normalizer.
//
// The call is paid and metered, so it is never issued more than once per
// ExtractInvoice call. Retry policy, if any, belongs to the caller.
//
// Required Environment Variables:
//   - EXTRACT_API_KEY: API key for the extraction service
//   - EXTRACT_BASE_URL: optional OpenAI-compatible endpoint override
//   - EXTRACT_MODEL: model name (default "gpt-4o")
package extract

import (
	"context"
	"encoding/json"

	"vninvoice/internal/pdf"
)

// Extractor defines the interface for invoice extraction services.
type Extractor interface {
	// ExtractInvoice sends all page images in a single request and parses the
	// response into a RawInvoice. It issues exactly one API call.
	ExtractInvoice(ctx context.Context, pages []pdf.PageImage) (*RawInvoice, error)
}

// RawInvoice is the parsed but uncoerced extraction result. Field values keep
// whatever JSON type the model produced (string, number, null); all type
// coercion belongs to the normalizer.
type RawInvoice struct {
	Header map[string]json.RawMessage   `json:"header"`
	Items  []map[string]json.RawMessage `json:"items"`
	Totals map[string]json.RawMessage   `json:"totals"`

	// Response is the response text the invoice was parsed from, after fence
	// stripping. Kept for diagnostics and for the review UI.
	Response string `json:"-"`
}

// ClientConfig configures the extraction client.
type ClientConfig struct {
	// APIKey authenticates against the extraction service. Required.
	APIKey string

	// BaseURL overrides the OpenAI-compatible endpoint. Empty uses the default.
	BaseURL string

	// Model is the multimodal model name. Default: "gpt-4o".
	Model string

	// Temperature for the completion request. Extraction wants determinism,
	// so the default is 0.
	Temperature float32

	// MaxTokens bounds the response size. Default: 8192.
	MaxTokens int
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Model:     "gpt-4o",
		MaxTokens: 8192,
	}
}
