package excel

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultMappingIsValid(t *testing.T) {
	if err := DefaultMapping().Validate(); err != nil {
		t.Errorf("Default mapping must validate: %v", err)
	}
}

func TestLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	content := `header:
  invoice_number: A
  invoice_date: B
  total_after_vat: C
items:
  item_name: G
  quantity: I
items_start_row: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write mapping file: %v", err)
	}

	m, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if m.Header["invoice_number"] != "A" {
		t.Errorf("Expected header column A, got %q", m.Header["invoice_number"])
	}
	if m.Items["quantity"] != "I" {
		t.Errorf("Expected items column I, got %q", m.Items["quantity"])
	}
	if m.HeaderRow != 1 {
		t.Errorf("Expected default header_row 1, got %d", m.HeaderRow)
	}
	if m.ItemsStartRow != 3 {
		t.Errorf("Expected items_start_row 3, got %d", m.ItemsStartRow)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Loaded mapping must validate: %v", err)
	}
}

func TestLoadMappingMissingFile(t *testing.T) {
	if _, err := LoadMapping(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing mapping file")
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	m := Mapping{
		Header: map[string]string{
			"invoice_number": "0",      // not a column label
			"no_such_field":  "B",      // unknown field
			"buyer_name":     "ABCDEF", // beyond XFD
		},
		Items: map[string]string{
			"quantity": "", // empty label
		},
		HeaderRow:     1,
		ItemsStartRow: 0, // below 1
	}

	err := m.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !errors.Is(err, ErrBadMapping) {
		t.Errorf("Expected ErrBadMapping, got %v", err)
	}

	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("Expected *ConfigError, got %T", err)
	}
	// Every problem named in one pass.
	for _, fragment := range []string{
		"invoice_number", "no_such_field", "buyer_name", "quantity", "items_start_row",
	} {
		if !strings.Contains(configErr.Details, fragment) {
			t.Errorf("Expected details to mention %q, got %s", fragment, configErr.Details)
		}
	}
}

func TestValidateUnknownItemField(t *testing.T) {
	m := Mapping{
		Items:         map[string]string{"seller_name": "A"}, // header field in items section
		HeaderRow:     1,
		ItemsStartRow: 2,
	}
	if err := m.Validate(); !errors.Is(err, ErrBadMapping) {
		t.Errorf("Expected ErrBadMapping, got %v", err)
	}
}
