package excel

import (
	"fmt"
	"os"
	"sort"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v2"
)

// Mapping is the deployer-supplied layout configuration: which spreadsheet
// column each invoice field lands in, and where rows begin. It is static for
// a deployment and never edited at runtime.
type Mapping struct {
	// Header maps header/totals field names to column labels ("A".."XFD").
	Header map[string]string `yaml:"header"`

	// Items maps per-line-item field names to column labels.
	Items map[string]string `yaml:"items"`

	// HeaderRow is the single row header fields are written to. Default: 1.
	HeaderRow int `yaml:"header_row"`

	// ItemsStartRow is the row the first line item is written to. Default: 2.
	ItemsStartRow int `yaml:"items_start_row"`
}

// headerFields are the field names a header mapping may reference. Totals
// fields are written once per document, so they live in the header mapping.
var headerFields = map[string]struct{}{
	"invoice_number": {}, "invoice_series": {}, "invoice_date": {}, "mccqt": {},
	"seller_name": {}, "seller_tax_code": {}, "seller_address": {},
	"seller_phone": {}, "seller_bank_account": {}, "seller_bank_name": {},
	"buyer_name": {}, "buyer_tax_code": {}, "buyer_address": {},
	"payment_method": {}, "currency": {},
	"total_before_vat": {}, "total_vat": {}, "total_after_vat": {},
	"total_fee": {}, "total_discount": {}, "total_in_words": {},
}

// itemFields are the field names an items mapping may reference.
var itemFields = map[string]struct{}{
	"stt": {}, "item_name": {}, "unit": {}, "quantity": {}, "unit_price": {},
	"discount": {}, "vat_rate": {}, "amount_before_vat": {}, "vat_amount": {},
	"amount_after_vat": {},
}

// DefaultMapping returns the layout used by the original deployment: header
// fields in columns A-F on row 2, item fields in columns G-N from row 2, with
// the Vietnamese column titles on row 1 of the built-in template.
func DefaultMapping() Mapping {
	return Mapping{
		Header: map[string]string{
			"invoice_number":  "A", // Số hóa đơn
			"invoice_date":    "B", // Ngày hóa đơn
			"seller_tax_code": "C", // MST Bên bán
			"seller_name":     "D", // Tên người bán
			"buyer_tax_code":  "E", // MST bên mua
			"buyer_name":      "F", // Tên người mua
		},
		Items: map[string]string{
			"item_name":         "G", // Tên hàng hóa
			"unit":              "H", // Đơn vị
			"quantity":          "I", // Số lượng
			"unit_price":        "J", // Đơn giá
			"vat_rate":          "K", // % VAT
			"amount_before_vat": "L", // Thành tiền trước VAT
			"vat_amount":        "M", // VAT
			"amount_after_vat":  "N", // Thành tiền sau VAT
		},
		HeaderRow:     2,
		ItemsStartRow: 2,
	}
}

// LoadMapping reads a Mapping from a YAML file, filling unset rows with the
// defaults. The result is not validated here; Validate runs as the first step
// of every write.
func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("read mapping file: %w", err)
	}

	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Mapping{}, fmt.Errorf("parse mapping file %s: %w", path, err)
	}
	if m.HeaderRow == 0 {
		m.HeaderRow = 1
	}
	if m.ItemsStartRow == 0 {
		m.ItemsStartRow = 2
	}
	return m, nil
}

// Validate checks every mapping entry before any cell is written: column
// labels must parse to a supported column, field names must be known, and
// rows must be positive. All problems are reported at once.
func (m Mapping) Validate() error {
	var problems []string

	if m.HeaderRow < 1 {
		problems = append(problems, fmt.Sprintf("header_row %d is below 1", m.HeaderRow))
	}
	if m.ItemsStartRow < 1 {
		problems = append(problems, fmt.Sprintf("items_start_row %d is below 1", m.ItemsStartRow))
	}

	problems = append(problems, validateColumns("header", m.Header, headerFields)...)
	problems = append(problems, validateColumns("items", m.Items, itemFields)...)

	if len(problems) > 0 {
		sort.Strings(problems)
		return &ConfigError{
			Op:      "Validate",
			Err:     ErrBadMapping,
			Details: fmt.Sprintf("%v", problems),
		}
	}
	return nil
}

func validateColumns(section string, mapping map[string]string, known map[string]struct{}) []string {
	var problems []string
	for field, column := range mapping {
		if _, ok := known[field]; !ok {
			problems = append(problems, fmt.Sprintf("%s.%s: unknown field name", section, field))
		}
		if _, err := excelize.ColumnNameToNumber(column); err != nil {
			problems = append(problems, fmt.Sprintf("%s.%s: invalid column label %q", section, field, column))
		}
	}
	return problems
}
