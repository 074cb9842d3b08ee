package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"vninvoice/internal/config"
	"vninvoice/internal/logger"
	"vninvoice/internal/pdf"
)

var pagesCmd = &cobra.Command{
	Use:   "pages [pdf-file]",
	Short: "Render invoice PDF pages to PNG images",
	Long: `Render each page of the PDF to a PNG file, exactly as the pages
would be sent to the extraction service. Useful for checking scan quality
before spending an extraction call, and for reviewing what the model saw.`,
	Example: `  # Render pages into the current directory
  vninvoice pages invoice.pdf

  # Render at 300 DPI into a directory
  vninvoice pages invoice.pdf -d rendered/ --dpi 300`,
	Args: cobra.ExactArgs(1),
	RunE: runPages,
}

func init() {
	rootCmd.AddCommand(pagesCmd)

	pagesCmd.Flags().StringP("dir", "d", ".", "Directory to write page images into")
	pagesCmd.Flags().Int("dpi", 0, "Page rendering resolution (overrides RENDER_DPI)")
	pagesCmd.Flags().Int("max-pages", 0, "Page cap per document (overrides MAX_PAGES)")
	pagesCmd.Flags().Int("timeout", 60, "Rendering timeout in seconds")
}

func runPages(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pages-cmd")

	outDir, _ := cmd.Flags().GetString("dir")
	dpi, _ := cmd.Flags().GetInt("dpi")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	pdfPath := args[0]

	if _, err := validatePDFPath(pdfPath, log); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rasterizerConfig := pdf.DefaultRasterizerConfig()
	rasterizerConfig.DPI = cfg.RenderDPI
	rasterizerConfig.MaxPages = cfg.MaxPages
	if dpi > 0 {
		rasterizerConfig.DPI = dpi
	}
	if maxPages > 0 {
		rasterizerConfig.MaxPages = maxPages
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
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

	rasterizer := pdf.NewRasterizerWithConfig(rasterizerConfig)
	pages, err := rasterizer.RenderPages(ctx, pdfFile)
	if err != nil {
		return handleRunError(err, log)
	}

	base := filepath.Base(pdfPath)
	base = base[:len(base)-len(filepath.Ext(base))]

	for _, page := range pages {
		name := filepath.Join(outDir, fmt.Sprintf("%s-page-%03d.png", base, page.Number))
		if err := os.WriteFile(name, page.PNG, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Info().
			Str("file", name).
			Int("width", page.Width).
			Int("height", page.Height).
			Msg("Page rendered")
	}

	fmt.Printf("Rendered %d page(s) to %s\n", len(pages), outDir)
	return nil
}
