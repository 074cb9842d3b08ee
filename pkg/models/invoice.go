package models

import "time"

// InvoiceDocument is the root result of one extraction run. It is built fresh
// per uploaded PDF, mutated only during normalization, and never persisted.
type InvoiceDocument struct {
	// Header holds the invoice-level fields (parties, dates, codes).
	Header InvoiceHeader `json:"header"`

	// Items are the billed line items in document order.
	Items []LineItem `json:"items"`

	// Totals holds the document-level amounts.
	Totals InvoiceTotals `json:"totals"`
}

// InvoiceHeader contains the invoice-level fields of a Vietnamese VAT invoice
// (Hóa đơn giá trị gia tăng). Only InvoiceNumber is required; every other
// field may legitimately be absent from a scanned document.
type InvoiceHeader struct {
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceSeries string     `json:"invoice_series,omitempty"` // Ký hiệu, e.g. "C25TDX"
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	MCCQT         string     `json:"mccqt,omitempty"` // tax-authority verification code

	SellerName        string `json:"seller_name,omitempty"`
	SellerTaxCode     string `json:"seller_tax_code,omitempty"` // MST bên bán
	SellerAddress     string `json:"seller_address,omitempty"`
	SellerPhone       string `json:"seller_phone,omitempty"`
	SellerBankAccount string `json:"seller_bank_account,omitempty"`
	SellerBankName    string `json:"seller_bank_name,omitempty"`

	BuyerName     string `json:"buyer_name,omitempty"`
	BuyerTaxCode  string `json:"buyer_tax_code,omitempty"` // MST bên mua
	BuyerAddress  string `json:"buyer_address,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"` // Hình thức thanh toán

	// Currency defaults to "VND" when the invoice does not state one.
	Currency string `json:"currency"`
}

// LineItem is one row of the goods/services table. Amount fields use pointers
// so a value the model could not read stays nil instead of a misleading zero.
type LineItem struct {
	Ordinal  int    `json:"stt,omitempty"` // STT column when present
	ItemName string `json:"item_name"`
	Unit     string `json:"unit,omitempty"` // Đơn vị tính

	Quantity  *float64 `json:"quantity,omitempty"`
	UnitPrice *float64 `json:"unit_price,omitempty"`

	// Discount defaults to 0; an absent discount is safely zero.
	Discount float64 `json:"discount"`

	// VATRate is the percentage (5 means 5%). RateOther carries non-numeric
	// markers such as "khác" or "KCT" verbatim; when set, VATRate is nil.
	VATRate   *float64 `json:"vat_rate,omitempty"`
	RateOther string   `json:"vat_rate_other,omitempty"`

	AmountBeforeVAT *float64 `json:"amount_before_vat,omitempty"`
	VATAmount       *float64 `json:"vat_amount,omitempty"`
	AmountAfterVAT  *float64 `json:"amount_after_vat,omitempty"`
}

// InvoiceTotals holds the document-level amounts. TotalAfterVAT is required
// for an extraction to count as successful.
type InvoiceTotals struct {
	TotalBeforeVAT *float64 `json:"total_before_vat,omitempty"`
	TotalVAT       *float64 `json:"total_vat,omitempty"`
	TotalAfterVAT  *float64 `json:"total_after_vat,omitempty"`
	TotalFee       *float64 `json:"total_fee,omitempty"`
	TotalDiscount  *float64 `json:"total_discount,omitempty"`
	TotalInWords   string   `json:"total_in_words,omitempty"` // Bằng chữ
}

// FormattedNumber joins series and number ("C25TDX-94") when both are
// present, mirroring how accountants file Vietnamese e-invoices.
func (h *InvoiceHeader) FormattedNumber() string {
	if h.InvoiceSeries != "" && h.InvoiceNumber != "" {
		return h.InvoiceSeries + "-" + h.InvoiceNumber
	}
	return h.InvoiceNumber
}
