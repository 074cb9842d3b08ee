package extract

import (
	"errors"
	"strings"
	"testing"
)

const validResponse = `{
	"header": {"invoice_number": "00012345", "seller_name": "Công ty TNHH ABC"},
	"items": [{"item_name": "Dịch vụ tư vấn", "quantity": 1}],
	"totals": {"total_after_vat": "1.100.000"}
}`

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no closing fence", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"prose before", "Here is the extracted data:\n{\"a\": 1}", `{"a": 1}`},
		{"prose after", "{\"a\": 1}\nLet me know if you need more.", `{"a": 1}`},
		{"fence and prose", "Sure!\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.input); got != tt.expected {
				t.Errorf("StripCodeFences(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseResponseValid(t *testing.T) {
	raw, err := ParseResponse("```json\n" + validResponse + "\n```")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if string(raw.Header["invoice_number"]) != `"00012345"` {
		t.Errorf("Expected invoice number raw value, got %s", raw.Header["invoice_number"])
	}
	if len(raw.Items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(raw.Items))
	}
	if string(raw.Totals["total_after_vat"]) != `"1.100.000"` {
		t.Errorf("Expected total raw value, got %s", raw.Totals["total_after_vat"])
	}
	if !strings.Contains(raw.Response, `"00012345"`) {
		t.Error("Expected stripped response text to be kept on the RawInvoice")
	}
}

func TestParseResponseInvalidJSON(t *testing.T) {
	content := "The invoice appears to be a standard VAT invoice."
	_, err := ParseResponse(content)
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if !errors.Is(err, ErrParseFailed) {
		t.Errorf("Expected ErrParseFailed, got %v", err)
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Expected *ParseError, got %T", err)
	}
	// The raw text rides along so the user can see what the model said.
	if parseErr.Raw == "" {
		t.Error("Expected ParseError.Raw to carry the response text")
	}
}

func TestParseResponseMissingRequiredKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing totals", `{"header": {}, "items": []}`},
		{"missing header", `{"items": [], "totals": {}}`},
		{"missing items", `{"header": {}, "totals": {}}`},
		{"json array", `[{"header": {}}]`},
		{"items not array", `{"header": {}, "items": {}, "totals": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.content)
			if !errors.Is(err, ErrParseFailed) {
				t.Errorf("Expected ErrParseFailed, got %v", err)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected *ParseError, got %T", err)
			}
			if parseErr.Raw == "" {
				t.Error("Expected ParseError.Raw to be set")
			}
		})
	}
}
