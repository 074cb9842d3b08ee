package normalize

import "testing"

func TestParseDecimalConventions(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		// Vietnamese convention: dot groups thousands, comma is decimal.
		{"1.234,56", 1234.56},
		{"1.234.567", 1234567},
		{"12.345.678,9", 12345678.9},
		{"123,45", 123.45},
		// Western convention: comma groups thousands, dot is decimal.
		{"1,234.56", 1234.56},
		{"1,234,567", 1234567},
		{"1234.5", 1234.5},
		{"0.08", 0.08},
		// Plain integers and currency decorations.
		{"50000", 50000},
		{"50.000 ₫", 50000},
		{"1.100.000 đ", 1100000},
		{"330 VND", 330},
		{" 42 ", 42},
		// Negative amounts (credit notes).
		{"-1.500", -1500},
		{"-12,5", -12.5},
	}

	for _, tt := range tests {
		got, err := ParseDecimal(tt.input)
		if err != nil {
			t.Errorf("ParseDecimal(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseDecimal(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseDecimalErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "₫", "12a34"} {
		if _, err := ParseDecimal(input); err == nil {
			t.Errorf("ParseDecimal(%q): expected error, got none", input)
		}
	}
}
