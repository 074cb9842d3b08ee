package excel

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"vninvoice/pkg/models"
)

func testMapping() Mapping {
	return Mapping{
		Header: map[string]string{
			"invoice_number": "A",
			"invoice_date":   "B",
		},
		Items: map[string]string{
			"item_name": "G",
			"quantity":  "I",
		},
		HeaderRow:     1,
		ItemsStartRow: 2,
	}
}

func testDocument(t *testing.T) *models.InvoiceDocument {
	t.Helper()
	date, err := time.Parse("02/01/2006", "15/03/2024")
	if err != nil {
		t.Fatalf("Failed to parse test date: %v", err)
	}
	q1, q2 := 2.0, 5.0
	return &models.InvoiceDocument{
		Header: models.InvoiceHeader{
			InvoiceNumber: "00012345",
			InvoiceSeries: "1C24TAA",
			InvoiceDate:   &date,
		},
		Items: []models.LineItem{
			{Ordinal: 1, ItemName: "Dịch vụ tư vấn", Quantity: &q1},
			{Ordinal: 2, ItemName: "Phí vận chuyển", Quantity: &q2},
		},
	}
}

// prefilledTemplate builds a workbook with a cell outside the mapping, to
// verify unmapped cells survive a write untouched.
func prefilledTemplate(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetCellValue(sheet, "Z1", "keep me"); err != nil {
		t.Fatalf("Failed to prefill template: %v", err)
	}
	if err := f.SetCellValue(sheet, "A5", "existing note"); err != nil {
		t.Fatalf("Failed to prefill template: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to serialize template: %v", err)
	}
	return buf.Bytes()
}

func cellValue(t *testing.T, workbook []byte, cell string) string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	if err != nil {
		t.Fatalf("Failed to open written workbook: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	value, err := f.GetCellValue(sheet, cell)
	if err != nil {
		t.Fatalf("Failed to read cell %s: %v", cell, err)
	}
	return value
}

func TestWriteInvoicePlacesMappedCells(t *testing.T) {
	out, err := NewWriter(testMapping()).WriteInvoice(testDocument(t), prefilledTemplate(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Header fields land once on the header row.
	if got := cellValue(t, out, "A1"); got != "1C24TAA-00012345" {
		t.Errorf("Expected A1 = '1C24TAA-00012345', got %q", got)
	}
	if got := cellValue(t, out, "B1"); got != "15/03/2024" {
		t.Errorf("Expected B1 = '15/03/2024', got %q", got)
	}

	// Items land one per row from the start row, in document order.
	if got := cellValue(t, out, "G2"); got != "Dịch vụ tư vấn" {
		t.Errorf("Expected G2 item name, got %q", got)
	}
	if got := cellValue(t, out, "I2"); got != "2" {
		t.Errorf("Expected I2 = '2', got %q", got)
	}
	if got := cellValue(t, out, "G3"); got != "Phí vận chuyển" {
		t.Errorf("Expected G3 item name, got %q", got)
	}
	if got := cellValue(t, out, "I3"); got != "5" {
		t.Errorf("Expected I3 = '5', got %q", got)
	}
}

func TestWriteInvoiceLeavesUnmappedCellsUntouched(t *testing.T) {
	out, err := NewWriter(testMapping()).WriteInvoice(testDocument(t), prefilledTemplate(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := cellValue(t, out, "Z1"); got != "keep me" {
		t.Errorf("Expected Z1 to survive untouched, got %q", got)
	}
	if got := cellValue(t, out, "A5"); got != "existing note" {
		t.Errorf("Expected A5 to survive untouched, got %q", got)
	}
}

func TestWriteInvoiceSkipsAbsentValues(t *testing.T) {
	doc := testDocument(t)
	doc.Header.InvoiceDate = nil
	doc.Items[0].Quantity = nil

	template := prefilledTemplate(t)
	out, err := NewWriter(testMapping()).WriteInvoice(doc, template)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := cellValue(t, out, "B1"); got != "" {
		t.Errorf("Expected B1 left empty for absent date, got %q", got)
	}
	if got := cellValue(t, out, "I2"); got != "" {
		t.Errorf("Expected I2 left empty for absent quantity, got %q", got)
	}
}

func TestWriteInvoiceBadMappingFailsBeforeWrite(t *testing.T) {
	m := testMapping()
	m.Items["quantity"] = "0"

	out, err := NewWriter(m).WriteInvoice(testDocument(t), prefilledTemplate(t))
	if err == nil {
		t.Fatal("Expected mapping error")
	}
	if !errors.Is(err, ErrBadMapping) {
		t.Errorf("Expected ErrBadMapping, got %v", err)
	}
	if out != nil {
		t.Error("Expected no workbook bytes on mapping error")
	}
}

func TestWriteInvoiceBadTemplate(t *testing.T) {
	_, err := NewWriter(testMapping()).WriteInvoice(testDocument(t), []byte("not an xlsx file"))
	if !errors.Is(err, ErrBadTemplate) {
		t.Errorf("Expected ErrBadTemplate, got %v", err)
	}
}

func TestWriteInvoiceBuiltinTemplate(t *testing.T) {
	out, err := NewWriter(DefaultMapping()).WriteInvoice(testDocument(t), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Row 1 carries the Vietnamese column titles.
	if got := cellValue(t, out, "A1"); got != "Số hóa đơn" {
		t.Errorf("Expected built-in title in A1, got %q", got)
	}
	// Header data goes to the default header row below the titles.
	if got := cellValue(t, out, "A2"); got != "1C24TAA-00012345" {
		t.Errorf("Expected A2 = '1C24TAA-00012345', got %q", got)
	}
	if got := cellValue(t, out, "G2"); got != "Dịch vụ tư vấn" {
		t.Errorf("Expected G2 item name, got %q", got)
	}
}

func TestWriteInvoiceVATRateVariants(t *testing.T) {
	m := Mapping{
		Items:         map[string]string{"vat_rate": "K"},
		HeaderRow:     1,
		ItemsStartRow: 2,
	}
	rate := 10.0
	doc := &models.InvoiceDocument{
		Items: []models.LineItem{
			{VATRate: &rate},
			{RateOther: "KCT"},
		},
	}

	out, err := NewWriter(m).WriteInvoice(doc, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// Numeric rates render through the percent format.
	if got := cellValue(t, out, "K2"); got != "10%" {
		t.Errorf("Expected K2 = '10%%', got %q", got)
	}
	// Non-numeric markers are written as text.
	if got := cellValue(t, out, "K3"); got != "KCT" {
		t.Errorf("Expected K3 = 'KCT', got %q", got)
	}
}
