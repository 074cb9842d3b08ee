package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vninvoice/internal/config"
	"vninvoice/internal/extract"
	"vninvoice/internal/normalize"
	"vninvoice/internal/pdf"
	"vninvoice/internal/pipeline"
)

// maxPDFSizeBytes caps the accepted input file. Scanned invoices are a few
// megabytes; anything larger is almost certainly the wrong file.
const maxPDFSizeBytes = 50 << 20

// validatePDFPath checks the input file before any processing starts.
func validatePDFPath(pdfPath string, log zerolog.Logger) (os.FileInfo, error) {
	fileInfo, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", pdfPath).Msg("Invoice PDF file not found")
			return nil, fmt.Errorf("invoice PDF file not found: %s", pdfPath)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", pdfPath).Msg("Permission denied accessing PDF file")
			return nil, fmt.Errorf("permission denied accessing PDF file: %s", pdfPath)
		}
		return nil, fmt.Errorf("error accessing PDF file: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("path is not a regular file: %s", pdfPath)
	}
	if !strings.HasSuffix(strings.ToLower(pdfPath), ".pdf") {
		log.Warn().Str("file", pdfPath).Msg("File does not have .pdf extension")
	}
	if fileInfo.Size() == 0 {
		return nil, fmt.Errorf("PDF file is empty: %s", pdfPath)
	}
	if fileInfo.Size() > maxPDFSizeBytes {
		return nil, fmt.Errorf("PDF file too large (%d bytes). Maximum size is %d bytes",
			fileInfo.Size(), maxPDFSizeBytes)
	}

	return fileInfo, nil
}

// createRunContext creates a context with timeout and SIGINT/SIGTERM handling.
func createRunContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// newSessionFromFlags assembles a pipeline session from the environment
// config plus per-command flag overrides.
func newSessionFromFlags(cmd *cobra.Command, cfg *config.Config) (*pipeline.Session, error) {
	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = cfg.ExtractAPIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no extraction API key configured. Set EXTRACT_API_KEY " +
			"in the environment (or .env) or pass --api-key")
	}

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = cfg.ExtractModel
	}
	dpi, _ := cmd.Flags().GetInt("dpi")
	if dpi == 0 {
		dpi = cfg.RenderDPI
	}
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	if maxPages == 0 {
		maxPages = cfg.MaxPages
	}

	return pipeline.NewSession(pipeline.Options{
		APIKey:   apiKey,
		BaseURL:  cfg.ExtractBaseURL,
		Model:    model,
		DPI:      dpi,
		MaxPages: maxPages,
	})
}

// handleRunError translates pipeline sentinels into actionable messages.
func handleRunError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Invoice processing failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled), errors.Is(err, extract.ErrContextCanceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, pdf.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file. Please check the file integrity")
	case errors.Is(err, pdf.ErrEmptyDocument):
		return fmt.Errorf("the PDF has no pages")
	case errors.Is(err, pdf.ErrTooManyPages):
		return fmt.Errorf("the PDF has too many pages for one extraction call. "+
			"Raise --max-pages if this is intentional: %v", err)
	case errors.Is(err, extract.ErrMissingAPIKey):
		return fmt.Errorf("no extraction API key configured. Set EXTRACT_API_KEY or pass --api-key")
	case errors.Is(err, extract.ErrAuthFailed):
		return fmt.Errorf("the extraction service rejected the API key. Check EXTRACT_API_KEY")
	case errors.Is(err, extract.ErrRateLimited):
		return fmt.Errorf("the extraction service reported a rate limit. Wait a moment and run again")
	case errors.Is(err, extract.ErrParseFailed):
		var parseErr *extract.ParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("the extraction service did not return usable invoice JSON. "+
				"Response begins with: %.200s", parseErr.Raw)
		}
		return fmt.Errorf("the extraction service did not return usable invoice JSON: %w", err)
	case errors.Is(err, extract.ErrServiceUnavailable):
		return fmt.Errorf("the extraction service request failed. This may be a network "+
			"or service-side problem; run the command again to retry: %v", err)
	case errors.Is(err, normalize.ErrRequiredField):
		return fmt.Errorf("extraction succeeded but required fields are missing: %w", err)
	default:
		return fmt.Errorf("invoice processing failed: %w", err)
	}
}
