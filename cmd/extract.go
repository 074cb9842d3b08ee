package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vninvoice/internal/config"
	"vninvoice/internal/logger"
	"vninvoice/internal/normalize"
	"vninvoice/pkg/models"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Extract structured invoice data from a scanned PDF",
	Long: `Render the PDF pages to images, send them to the multimodal
extraction service, and print the normalized invoice data as JSON.

The command issues exactly one extraction call. If required fields (invoice
number, total after VAT) could not be read, the partial result is still
printed so it can be inspected and corrected, and the command exits with an
error.

Required environment variables (or .env file):
  EXTRACT_API_KEY - API key for the extraction service
  EXTRACT_BASE_URL - optional OpenAI-compatible endpoint override
  EXTRACT_MODEL - model name (default gpt-4o)`,
	Example: `  # Extract invoice data to stdout (JSON format)
  vninvoice extract invoice.pdf

  # Save extracted data to a JSON file
  vninvoice extract invoice.pdf -o invoice-data.json

  # Process with a custom timeout and resolution
  vninvoice extract big-invoice.pdf --timeout 180 --dpi 300`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// ExtractOutput is the JSON document printed by the extract command.
type ExtractOutput struct {
	// Invoice is the normalized invoice data.
	Invoice *models.InvoiceDocument `json:"invoice"`

	// Warnings are the non-fatal findings from normalization.
	Warnings []normalize.Warning `json:"warnings,omitempty"`

	// Metadata describes the processing run.
	Metadata RunMetadata `json:"metadata"`
}

// RunMetadata describes one processing run.
type RunMetadata struct {
	RunID              string        `json:"run_id"`
	FileName           string        `json:"file_name"`
	FileSize           int64         `json:"file_size_bytes"`
	PageCount          int           `json:"page_count"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().String("api-key", "", "Extraction service API key (overrides EXTRACT_API_KEY)")
	extractCmd.Flags().String("model", "", "Extraction model name (overrides EXTRACT_MODEL)")
	extractCmd.Flags().Int("dpi", 0, "Page rendering resolution (overrides RENDER_DPI)")
	extractCmd.Flags().Int("max-pages", 0, "Page cap per document (overrides MAX_PAGES)")
	extractCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	pdfPath := args[0]

	log.Info().
		Str("file", pdfPath).
		Str("output", outputPath).
		Int("timeout", timeoutSecs).
		Msg("Starting invoice extraction")

	fileInfo, err := validatePDFPath(pdfPath, log)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	session, err := newSessionFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := createRunContext(timeoutSecs, log)
	defer cancel()

	pdfFile, err := os.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer func() {
		if closeErr := pdfFile.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close PDF file")
		}
	}()

	result, runErr := session.Run(ctx, pdfFile)
	if runErr != nil && result == nil {
		return handleRunError(runErr, log)
	}

	output := ExtractOutput{
		Invoice:  result.Document,
		Warnings: result.Warnings,
		Metadata: RunMetadata{
			RunID:              result.RunID,
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
			PageCount:          len(result.Pages),
			ProcessedAt:        result.ProcessedAt,
			ProcessingDuration: result.Duration,
		},
	}

	if err := writeJSONOutput(output, outputPath, log); err != nil {
		return err
	}

	// A validation failure still prints the partial document above, but the
	// command must not look successful.
	if runErr != nil {
		var validationErr *normalize.ValidationError
		if errors.As(runErr, &validationErr) {
			return handleRunError(runErr, log)
		}
	}

	log.Info().
		Str("invoice_number", result.Document.Header.FormattedNumber()).
		Int("items", len(result.Document.Items)).
		Int("warnings", len(result.Warnings)).
		Msg("Invoice extraction completed")

	return nil
}

// writeJSONOutput pretty-prints v to the output path or stdout.
func writeJSONOutput(v any, outputPath string, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
			log.Error().
				Err(err).
				Str("output_file", outputPath).
				Msg("Failed to write output file")
			return fmt.Errorf("failed to write output file: %w", err)
		}
		log.Info().
			Str("output_file", outputPath).
			Int("bytes", len(jsonData)).
			Msg("Invoice data written to file")
		return nil
	}

	if _, err := os.Stdout.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Println()
	return nil
}
