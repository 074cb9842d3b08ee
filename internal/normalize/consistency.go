package normalize

import (
	"fmt"
	"math"

	"vninvoice/pkg/models"
)

// amountTolerance is the absolute rounding slack allowed when comparing
// amounts. VND invoices carry whole-đồng amounts, so one đồng per term covers
// per-line rounding.
const amountTolerance = 1.0

// CheckConsistency verifies the arithmetic invariants of a normalized
// document and reports every violation as a warning. Discrepancies are
// reported, never corrected: reconciling item-level against total-level
// rounding is the accountant's call, not ours.
func CheckConsistency(doc *models.InvoiceDocument) []Warning {
	var warnings []Warning

	var itemAfterSum float64
	itemAfterKnown := len(doc.Items) > 0

	for i, item := range doc.Items {
		if item.AmountBeforeVAT != nil && item.VATAmount != nil && item.AmountAfterVAT != nil {
			expected := *item.AmountBeforeVAT + *item.VATAmount
			if !withinTolerance(expected, *item.AmountAfterVAT, 2) {
				warnings = append(warnings, Warning{
					Field: fmt.Sprintf("items[%d].amount_after_vat", i),
					Message: fmt.Sprintf("amount_before_vat (%v) + vat_amount (%v) = %v, but amount_after_vat is %v",
						*item.AmountBeforeVAT, *item.VATAmount, expected, *item.AmountAfterVAT),
				})
			}
		}

		for _, check := range []struct {
			name  string
			value *float64
		}{
			{"quantity", item.Quantity},
			{"unit_price", item.UnitPrice},
			{"amount_before_vat", item.AmountBeforeVAT},
			{"vat_amount", item.VATAmount},
			{"amount_after_vat", item.AmountAfterVAT},
		} {
			if check.value != nil && *check.value < 0 {
				warnings = append(warnings, Warning{
					Field:   fmt.Sprintf("items[%d].%s", i, check.name),
					Message: fmt.Sprintf("negative amount %v", *check.value),
				})
			}
		}

		if item.AmountAfterVAT != nil {
			itemAfterSum += *item.AmountAfterVAT
		} else {
			itemAfterKnown = false
		}
	}

	if itemAfterKnown && doc.Totals.TotalAfterVAT != nil {
		// One đồng of slack per line item plus one for the total.
		if !withinTolerance(itemAfterSum, *doc.Totals.TotalAfterVAT, len(doc.Items)+1) {
			warnings = append(warnings, Warning{
				Field: "totals.total_after_vat",
				Message: fmt.Sprintf("sum of item amounts after VAT is %v, but total_after_vat is %v",
					itemAfterSum, *doc.Totals.TotalAfterVAT),
			})
		}
	}

	if doc.Totals.TotalBeforeVAT != nil && doc.Totals.TotalVAT != nil && doc.Totals.TotalAfterVAT != nil {
		expected := *doc.Totals.TotalBeforeVAT + *doc.Totals.TotalVAT
		if !withinTolerance(expected, *doc.Totals.TotalAfterVAT, 2) {
			warnings = append(warnings, Warning{
				Field: "totals.total_vat",
				Message: fmt.Sprintf("total_before_vat (%v) + total_vat (%v) = %v, but total_after_vat is %v",
					*doc.Totals.TotalBeforeVAT, *doc.Totals.TotalVAT, expected, *doc.Totals.TotalAfterVAT),
			})
		}
	}

	for _, check := range []struct {
		name  string
		value *float64
	}{
		{"total_before_vat", doc.Totals.TotalBeforeVAT},
		{"total_vat", doc.Totals.TotalVAT},
		{"total_after_vat", doc.Totals.TotalAfterVAT},
	} {
		if check.value != nil && *check.value < 0 {
			warnings = append(warnings, Warning{
				Field:   "totals." + check.name,
				Message: fmt.Sprintf("negative amount %v", *check.value),
			})
		}
	}

	return warnings
}

func withinTolerance(expected, actual float64, terms int) bool {
	return math.Abs(expected-actual) <= amountTolerance*float64(terms)
}
