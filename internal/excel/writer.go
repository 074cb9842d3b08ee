// Package excel writes normalized invoices into XLSX workbooks.
//
// The layout is driven entirely by a Mapping: header and totals fields go to
// their mapped columns on a single header row, line items go one per row from
// the configured start row, in document order. When the deployer supplies a
// template workbook only mapped cells are touched, so pre-existing titles,
// formulas, and formatting survive. Without a template a built-in workbook
// with the standard Vietnamese column titles is used.
//
// The writer produces workbook bytes and never touches disk; where the result
// is stored is the caller's decision.
package excel

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"vninvoice/internal/logger"
	"vninvoice/pkg/models"
)

// Builtin number formats: 3 is "#,##0", 9 is "0%".
const (
	numFmtThousands = 3
	numFmtPercent   = 9
)

// amountItemFields are the item fields that get the thousands number format.
var amountItemFields = map[string]struct{}{
	"quantity": {}, "unit_price": {}, "discount": {},
	"amount_before_vat": {}, "vat_amount": {}, "amount_after_vat": {},
}

// Writer fills workbooks with invoice data according to a Mapping.
type Writer struct {
	mapping Mapping
	log     zerolog.Logger
}

// NewWriter creates a Writer with the given mapping.
func NewWriter(mapping Mapping) *Writer {
	return &Writer{
		mapping: mapping,
		log:     logger.WithComponent("excel-writer"),
	}
}

// WriteInvoice writes the document into a workbook and returns the XLSX
// bytes. template may be nil, in which case the built-in template is used.
// The mapping is validated before any cell is written; on a mapping error a
// supplied template is returned untouched (as an error, no bytes).
func (w *Writer) WriteInvoice(doc *models.InvoiceDocument, template []byte) ([]byte, error) {
	const op = "WriteInvoice"

	if err := w.mapping.Validate(); err != nil {
		return nil, err
	}

	var file *excelize.File
	if len(template) > 0 {
		opened, err := excelize.OpenReader(bytes.NewReader(template))
		if err != nil {
			return nil, &ConfigError{Op: op, Err: ErrBadTemplate, Details: err.Error()}
		}
		file = opened
	} else {
		file = newDefaultTemplate()
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			w.log.Warn().Err(closeErr).Msg("Failed to close workbook")
		}
	}()

	sheet := file.GetSheetName(file.GetActiveSheetIndex())

	if err := w.writeHeaderRow(file, sheet, doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := w.writeItemRows(file, sheet, doc.Items); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: serialize workbook: %w", op, err)
	}

	w.log.Info().
		Str("invoice_number", doc.Header.FormattedNumber()).
		Int("items", len(doc.Items)).
		Int("bytes", buf.Len()).
		Msg("Workbook written")

	return buf.Bytes(), nil
}

func (w *Writer) writeHeaderRow(file *excelize.File, sheet string, doc *models.InvoiceDocument) error {
	for field, column := range w.mapping.Header {
		value, ok := headerValue(doc, field)
		if !ok {
			continue // absent values never blank out template cells
		}
		cell := fmt.Sprintf("%s%d", column, w.mapping.HeaderRow)
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
	}
	return nil
}

func (w *Writer) writeItemRows(file *excelize.File, sheet string, items []models.LineItem) error {
	for idx, item := range items {
		row := w.mapping.ItemsStartRow + idx
		for field, column := range w.mapping.Items {
			value, numFmt, ok := itemValue(&item, field)
			if !ok {
				continue
			}
			cell := fmt.Sprintf("%s%d", column, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set item cell %s: %w", cell, err)
			}
			if numFmt != 0 {
				styleID, err := file.NewStyle(&excelize.Style{NumFmt: numFmt})
				if err != nil {
					return fmt.Errorf("style for cell %s: %w", cell, err)
				}
				if err := file.SetCellStyle(sheet, cell, cell, styleID); err != nil {
					return fmt.Errorf("set style on cell %s: %w", cell, err)
				}
			}
		}
	}
	return nil
}

// headerValue resolves a header-mapping field to its cell value. The second
// return is false for values that should leave the cell untouched.
func headerValue(doc *models.InvoiceDocument, field string) (any, bool) {
	h, t := &doc.Header, &doc.Totals
	switch field {
	case "invoice_number":
		return nonEmpty(h.FormattedNumber())
	case "invoice_series":
		return nonEmpty(h.InvoiceSeries)
	case "invoice_date":
		if h.InvoiceDate == nil {
			return nil, false
		}
		return h.InvoiceDate.Format("02/01/2006"), true
	case "mccqt":
		return nonEmpty(h.MCCQT)
	case "seller_name":
		return nonEmpty(h.SellerName)
	case "seller_tax_code":
		return nonEmpty(h.SellerTaxCode)
	case "seller_address":
		return nonEmpty(h.SellerAddress)
	case "seller_phone":
		return nonEmpty(h.SellerPhone)
	case "seller_bank_account":
		return nonEmpty(h.SellerBankAccount)
	case "seller_bank_name":
		return nonEmpty(h.SellerBankName)
	case "buyer_name":
		return nonEmpty(h.BuyerName)
	case "buyer_tax_code":
		return nonEmpty(h.BuyerTaxCode)
	case "buyer_address":
		return nonEmpty(h.BuyerAddress)
	case "payment_method":
		return nonEmpty(h.PaymentMethod)
	case "currency":
		return nonEmpty(h.Currency)
	case "total_before_vat":
		return floatValue(t.TotalBeforeVAT)
	case "total_vat":
		return floatValue(t.TotalVAT)
	case "total_after_vat":
		return floatValue(t.TotalAfterVAT)
	case "total_fee":
		return floatValue(t.TotalFee)
	case "total_discount":
		return floatValue(t.TotalDiscount)
	case "total_in_words":
		return nonEmpty(t.TotalInWords)
	}
	return nil, false
}

// itemValue resolves an item-mapping field to its cell value plus the builtin
// number format to apply (0 for none).
func itemValue(item *models.LineItem, field string) (any, int, bool) {
	switch field {
	case "stt":
		if item.Ordinal == 0 {
			return nil, 0, false
		}
		return item.Ordinal, 0, true
	case "item_name":
		v, ok := nonEmpty(item.ItemName)
		return v, 0, ok
	case "unit":
		v, ok := nonEmpty(item.Unit)
		return v, 0, ok
	case "quantity":
		v, ok := floatValue(item.Quantity)
		return v, numFmtThousands, ok
	case "unit_price":
		v, ok := floatValue(item.UnitPrice)
		return v, numFmtThousands, ok
	case "discount":
		if item.Discount == 0 {
			return nil, 0, false
		}
		return item.Discount, numFmtThousands, true
	case "vat_rate":
		if item.VATRate != nil {
			rate := *item.VATRate
			if rate > 1 {
				// Whole percentages become fractions so Excel's "0%" renders them.
				rate /= 100
			}
			return rate, numFmtPercent, true
		}
		v, ok := nonEmpty(item.RateOther)
		return v, 0, ok
	case "amount_before_vat":
		v, ok := floatValue(item.AmountBeforeVAT)
		return v, numFmtThousands, ok
	case "vat_amount":
		v, ok := floatValue(item.VATAmount)
		return v, numFmtThousands, ok
	case "amount_after_vat":
		v, ok := floatValue(item.AmountAfterVAT)
		return v, numFmtThousands, ok
	}
	return nil, 0, false
}

func nonEmpty(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

func floatValue(f *float64) (any, bool) {
	if f == nil {
		return nil, false
	}
	return *f, true
}
