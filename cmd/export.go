package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vninvoice/internal/config"
	"vninvoice/internal/excel"
	"vninvoice/internal/logger"
)

var exportCmd = &cobra.Command{
	Use:   "export [pdf-file]",
	Short: "Extract an invoice and write it into an Excel workbook",
	Long: `Run the full pipeline on one invoice PDF and fill an Excel workbook
with the result: header fields on the configured header row, one row per line
item from the configured start row.

With --template, values are written into a copy of the supplied workbook and
only mapped cells are touched; otherwise a workbook with the standard
Vietnamese column titles is created. The column layout comes from --mapping
(YAML) or the built-in default.

Export is refused when required fields (invoice number, total after VAT)
could not be extracted; run 'vninvoice extract' to inspect the partial data.`,
	Example: `  # Export with the built-in layout
  vninvoice export invoice.pdf -o invoice.xlsx

  # Fill a deployer-supplied template with a custom column mapping
  vninvoice export invoice.pdf -o out.xlsx --template book.xlsx --mapping mapping.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "Output workbook path (required)")
	exportCmd.Flags().String("template", "", "Existing workbook to fill (overrides TEMPLATE_PATH)")
	exportCmd.Flags().String("mapping", "", "YAML column mapping file (overrides MAPPING_PATH)")
	exportCmd.Flags().String("api-key", "", "Extraction service API key (overrides EXTRACT_API_KEY)")
	exportCmd.Flags().String("model", "", "Extraction model name (overrides EXTRACT_MODEL)")
	exportCmd.Flags().Int("dpi", 0, "Page rendering resolution (overrides RENDER_DPI)")
	exportCmd.Flags().Int("max-pages", 0, "Page cap per document (overrides MAX_PAGES)")
	exportCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")

	_ = exportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export-cmd")

	outputPath, _ := cmd.Flags().GetString("output")
	templatePath, _ := cmd.Flags().GetString("template")
	mappingPath, _ := cmd.Flags().GetString("mapping")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	pdfPath := args[0]

	if _, err := validatePDFPath(pdfPath, log); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if templatePath == "" {
		templatePath = cfg.TemplatePath
	}
	if mappingPath == "" {
		mappingPath = cfg.MappingPath
	}

	// Resolve the mapping and template before the paid extraction call, so a
	// configuration mistake costs nothing.
	mapping := excel.DefaultMapping()
	if mappingPath != "" {
		mapping, err = excel.LoadMapping(mappingPath)
		if err != nil {
			return err
		}
	}
	if err := mapping.Validate(); err != nil {
		return err
	}

	var template []byte
	if templatePath != "" {
		template, err = os.ReadFile(templatePath)
		if err != nil {
			return fmt.Errorf("failed to read template workbook: %w", err)
		}
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

	result, err := session.Run(ctx, pdfFile)
	if err != nil {
		// Validation failures block export outright; there is no partial
		// workbook to produce.
		return handleRunError(err, log)
	}

	for _, warning := range result.Warnings {
		log.Warn().
			Str("field", warning.Field).
			Str("message", warning.Message).
			Msg("Validation warning")
	}

	writer := excel.NewWriter(mapping)
	workbook, err := writer.WriteInvoice(result.Document, template)
	if err != nil {
		return fmt.Errorf("workbook export failed: %w", err)
	}

	if err := os.WriteFile(outputPath, workbook, 0644); err != nil {
		return fmt.Errorf("failed to write workbook file: %w", err)
	}

	log.Info().
		Str("invoice_number", result.Document.Header.FormattedNumber()).
		Int("items", len(result.Document.Items)).
		Int("warnings", len(result.Warnings)).
		Str("output_file", outputPath).
		Int("bytes", len(workbook)).
		Msg("Invoice exported to workbook")

	fmt.Printf("Exported %s (%d line items, %d warnings) to %s\n",
		result.Document.Header.FormattedNumber(),
		len(result.Document.Items),
		len(result.Warnings),
		outputPath)

	return nil
}
