package pipeline_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"vninvoice/internal/pipeline"
)

// Example demonstrates processing a single invoice PDF.
func Example() {
	// Load .env file (using godotenv in main)
	// This should be done in your main() function:
	//
	// if err := godotenv.Load(); err != nil {
	//     log.Printf("Warning: Could not load .env file: %v", err)
	// }

	// Create context with timeout; the extraction call dominates the run time
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Create session - API key from environment
	session, err := pipeline.NewSession(pipeline.Options{
		APIKey: os.Getenv("EXTRACT_API_KEY"),
	})
	if err != nil {
		log.Fatal(err)
	}

	// Open PDF file
	pdfFile, err := os.Open("invoice.pdf")
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer pdfFile.Close()

	// Process invoice
	result, err := session.Run(ctx, pdfFile)
	if err != nil {
		log.Fatalf("Failed to process invoice: %v", err)
	}

	doc := result.Document
	fmt.Printf("Invoice %s from %s\n", doc.Header.FormattedNumber(), doc.Header.SellerName)
	fmt.Printf("Total after VAT: %.0f %s\n", *doc.Totals.TotalAfterVAT, doc.Header.Currency)

	for _, warning := range result.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
}
