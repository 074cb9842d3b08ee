// Package normalize turns the loosely-typed extraction output into a typed
// InvoiceDocument.
//
// The extraction model is non-deterministic in phrasing, so the normalizer is
// deliberately tolerant of structural variation: unknown keys are ignored,
// missing optional keys get safe defaults, and values arrive as numbers or as
// strings in either the Vietnamese or Western digit-grouping convention.
// Normalization itself is deterministic: identical raw input always yields an
// identical document and an identical warning list.
//
// Only two fields are required: the invoice number and the total after VAT.
// Any other coercion failure becomes a warning attached to the document.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vninvoice/internal/extract"
	"vninvoice/internal/logger"
	"vninvoice/pkg/models"
)

// dateLayouts are the date formats accepted on Vietnamese invoices, tried in
// order. Two-digit years occur on older scanned forms.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02/01/06",
	"02-01-06",
}

// rateOtherMarkers are the non-numeric VAT rate markers seen on invoices:
// "khác" (other), "KCT" (không chịu thuế, not subject to VAT), "KKKNT".
var rateOtherMarkers = []string{"khác", "khac", "kct", "kkknt", "không chịu thuế"}

// Normalizer coerces raw extraction output into InvoiceDocuments.
type Normalizer struct {
	log zerolog.Logger
}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{log: logger.WithComponent("normalizer")}
}

// Normalize builds an InvoiceDocument from raw extraction output. It returns
// a ValidationError enumerating every required field that failed; optional
// field problems become warnings. The returned document is complete even on
// error, so a review UI can show partially-filled data.
func (n *Normalizer) Normalize(raw *extract.RawInvoice) (*models.InvoiceDocument, []Warning, error) {
	doc := &models.InvoiceDocument{}
	var warnings []Warning
	var failed []FieldError

	warnings = n.normalizeHeader(raw.Header, &doc.Header, warnings, &failed)
	doc.Items, warnings = n.normalizeItems(raw.Items, warnings)
	warnings = n.normalizeTotals(raw.Totals, &doc.Totals, warnings, &failed)

	warnings = append(warnings, CheckConsistency(doc)...)

	n.log.Debug().
		Int("items", len(doc.Items)).
		Int("warnings", len(warnings)).
		Int("failed_required", len(failed)).
		Msg("Normalization completed")

	if len(failed) > 0 {
		return doc, warnings, &ValidationError{Fields: failed}
	}
	return doc, warnings, nil
}

func (n *Normalizer) normalizeHeader(raw map[string]json.RawMessage, header *models.InvoiceHeader, warnings []Warning, failed *[]FieldError) []Warning {
	header.InvoiceNumber = stringValue(raw["invoice_number"])
	if header.InvoiceNumber == "" {
		*failed = append(*failed, FieldError{
			Field:   "header.invoice_number",
			Message: "required field is missing or empty",
		})
	}

	header.InvoiceSeries = stringValue(raw["invoice_series"])
	header.MCCQT = stringValue(raw["mccqt"])
	header.SellerName = stringValue(raw["seller_name"])
	header.SellerTaxCode = stringValue(raw["seller_tax_code"])
	header.SellerAddress = stringValue(raw["seller_address"])
	header.SellerPhone = stringValue(raw["seller_phone"])
	header.SellerBankAccount = stringValue(raw["seller_bank_account"])
	header.SellerBankName = stringValue(raw["seller_bank_name"])
	header.BuyerName = stringValue(raw["buyer_name"])
	header.BuyerTaxCode = stringValue(raw["buyer_tax_code"])
	header.BuyerAddress = stringValue(raw["buyer_address"])
	header.PaymentMethod = stringValue(raw["payment_method"])

	header.Currency = strings.ToUpper(stringValue(raw["currency"]))
	if header.Currency == "" {
		header.Currency = "VND"
	}

	if rawDate := stringValue(raw["invoice_date"]); rawDate != "" {
		if date, err := parseDate(rawDate); err == nil {
			header.InvoiceDate = &date
		} else {
			warnings = append(warnings, Warning{
				Field:   "header.invoice_date",
				Message: fmt.Sprintf("unparseable date %q, left empty", rawDate),
			})
		}
	}

	return warnings
}

func (n *Normalizer) normalizeItems(raw []map[string]json.RawMessage, warnings []Warning) ([]models.LineItem, []Warning) {
	// Source document order is preserved; nobody reorders an invoice table.
	items := make([]models.LineItem, 0, len(raw))
	for i, rawItem := range raw {
		item := models.LineItem{
			ItemName: stringValue(rawItem["item_name"]),
			Unit:     stringValue(rawItem["unit"]),
		}
		path := func(field string) string { return fmt.Sprintf("items[%d].%s", i, field) }

		if ord, _ := numberValue(rawItem["stt"]); ord != nil {
			item.Ordinal = int(*ord)
		} else {
			item.Ordinal = i + 1
		}

		item.Quantity, warnings = coerceOptional(rawItem["quantity"], path("quantity"), warnings)
		item.UnitPrice, warnings = coerceOptional(rawItem["unit_price"], path("unit_price"), warnings)
		item.AmountBeforeVAT, warnings = coerceOptional(rawItem["amount_before_vat"], path("amount_before_vat"), warnings)
		item.VATAmount, warnings = coerceOptional(rawItem["vat_amount"], path("vat_amount"), warnings)
		item.AmountAfterVAT, warnings = coerceOptional(rawItem["amount_after_vat"], path("amount_after_vat"), warnings)

		// A missing discount is safely zero; anything unparseable is worth a warning.
		if discount, err := numberValue(rawItem["discount"]); err != nil {
			warnings = append(warnings, Warning{
				Field:   path("discount"),
				Message: fmt.Sprintf("unparseable value %q, defaulted to 0", compactRaw(rawItem["discount"])),
			})
		} else if discount != nil {
			item.Discount = *discount
		}

		item.VATRate, item.RateOther, warnings = coerceVATRate(rawItem["vat_rate"], path("vat_rate"), warnings)

		deriveItemAmounts(&item)
		items = append(items, item)
	}
	return items, warnings
}

func (n *Normalizer) normalizeTotals(raw map[string]json.RawMessage, totals *models.InvoiceTotals, warnings []Warning, failed *[]FieldError) []Warning {
	totals.TotalBeforeVAT, warnings = coerceOptional(raw["total_before_vat"], "totals.total_before_vat", warnings)
	totals.TotalVAT, warnings = coerceOptional(raw["total_vat"], "totals.total_vat", warnings)
	totals.TotalFee, warnings = coerceOptional(raw["total_fee"], "totals.total_fee", warnings)
	totals.TotalDiscount, warnings = coerceOptional(raw["total_discount"], "totals.total_discount", warnings)
	totals.TotalInWords = stringValue(raw["total_in_words"])

	afterVAT, err := numberValue(raw["total_after_vat"])
	switch {
	case err != nil:
		*failed = append(*failed, FieldError{
			Field:   "totals.total_after_vat",
			Value:   compactRaw(raw["total_after_vat"]),
			Message: "required field could not be parsed as a number",
		})
	case afterVAT == nil:
		*failed = append(*failed, FieldError{
			Field:   "totals.total_after_vat",
			Message: "required field is missing",
		})
	default:
		totals.TotalAfterVAT = afterVAT
	}

	return warnings
}

// deriveItemAmounts fills VAT and after-VAT amounts the invoice shows only
// implicitly, the same arithmetic an accountant would do by hand.
func deriveItemAmounts(item *models.LineItem) {
	if item.VATAmount == nil && item.AmountBeforeVAT != nil && item.VATRate != nil {
		vat := *item.AmountBeforeVAT * *item.VATRate / 100
		item.VATAmount = &vat
	}
	if item.AmountAfterVAT == nil && item.AmountBeforeVAT != nil && item.VATAmount != nil {
		after := *item.AmountBeforeVAT + *item.VATAmount
		item.AmountAfterVAT = &after
	}
}

// coerceOptional parses an optional numeric field. Unparseable values become
// nil plus a warning, never an error.
func coerceOptional(raw json.RawMessage, path string, warnings []Warning) (*float64, []Warning) {
	value, err := numberValue(raw)
	if err != nil {
		return nil, append(warnings, Warning{
			Field:   path,
			Message: fmt.Sprintf("unparseable value %q, left empty", compactRaw(raw)),
		})
	}
	return value, warnings
}

// coerceVATRate accepts numeric rates, "10%" strings, and the non-numeric
// markers carried over as RateOther.
func coerceVATRate(raw json.RawMessage, path string, warnings []Warning) (*float64, string, []Warning) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, "", warnings
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		if trimmed == "" {
			return nil, "", warnings
		}
		lower := strings.ToLower(trimmed)
		for _, marker := range rateOtherMarkers {
			if lower == marker {
				return nil, trimmed, warnings
			}
		}
		if value, err := ParseDecimal(trimmed); err == nil {
			if value < 0 || value > 100 {
				return nil, "", append(warnings, Warning{
					Field:   path,
					Message: fmt.Sprintf("VAT rate %v outside 0-100, left empty", value),
				})
			}
			return &value, "", warnings
		}
		// Unrecognized non-numeric rate: keep the text so nothing is lost.
		return nil, trimmed, append(warnings, Warning{
			Field:   path,
			Message: fmt.Sprintf("non-numeric VAT rate %q", trimmed),
		})
	}

	value, err := numberValue(raw)
	if err != nil || value == nil {
		return nil, "", append(warnings, Warning{
			Field:   path,
			Message: fmt.Sprintf("unparseable VAT rate %q, left empty", compactRaw(raw)),
		})
	}
	if *value < 0 || *value > 100 {
		return nil, "", append(warnings, Warning{
			Field:   path,
			Message: fmt.Sprintf("VAT rate %v outside 0-100, left empty", *value),
		})
	}
	return value, "", warnings
}

// stringValue extracts a string field, rendering stray numbers as text and
// treating null/absent as empty.
func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%v", f)
	}
	return ""
}

// numberValue extracts a numeric field that may arrive as a JSON number or a
// formatted string. Returns (nil, nil) for absent/null values.
func numberValue(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		value, err := ParseDecimal(s)
		if err != nil {
			return nil, err
		}
		return &value, nil
	}
	return nil, fmt.Errorf("value %s is neither number nor string", compactRaw(raw))
}

func parseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

func compactRaw(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 60 {
		s = s[:60] + "…"
	}
	return s
}
