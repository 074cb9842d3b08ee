package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vninvoice/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "vninvoice",
	Short: "Extract Vietnamese VAT invoice data from scanned PDFs",
	Long: `vninvoice reads a scanned Vietnamese VAT invoice (Hóa đơn giá trị
gia tăng) PDF, renders its pages to images, sends them to a multimodal AI
extraction service, and normalizes the result into structured invoice data
that can be reviewed as JSON or exported into an Excel workbook.

Each run processes exactly one invoice and issues exactly one paid extraction
call; nothing is persisted between runs.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("vninvoice executed")

		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
