package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema is the minimum shape an extraction response must have,
// compiled once. Only the three top-level keys are required; everything below
// them is loosely typed on purpose, because the model phrases things slightly
// differently across calls and the normalizer owns all field-level coercion.
var responseSchema = jsonschema.MustCompileString("response.json", `{
	"type": "object",
	"required": ["header", "items", "totals"],
	"properties": {
		"header": {"type": "object"},
		"items": {"type": "array"},
		"totals": {"type": "object"}
	}
}`)

// ParseResponse strips markdown wrapping from the response text, validates the
// remaining JSON against the minimum schema, and decodes it into a RawInvoice.
// Any failure returns a ParseError carrying the stripped text.
func ParseResponse(content string) (*RawInvoice, error) {
	stripped := StripCodeFences(content)

	var probe any
	if err := json.Unmarshal([]byte(stripped), &probe); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("response is not valid JSON: %w", err), Raw: stripped}
	}

	if err := validateResponseShape(probe); err != nil {
		return nil, &ParseError{Err: err, Raw: stripped}
	}

	var raw RawInvoice
	if err := json.Unmarshal([]byte(stripped), &raw); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("decode invoice structure: %w", err), Raw: stripped}
	}
	raw.Response = stripped

	return &raw, nil
}

func validateResponseShape(doc any) error {
	if err := responseSchema.Validate(doc); err != nil {
		return fmt.Errorf("missing required invoice structure: %w", err)
	}
	return nil
}

// StripCodeFences removes a surrounding markdown code fence (```json ... ```)
// and any prose before or after the outermost JSON object. Models wrap their
// output this way often enough that stripping is the default, not a repair.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) >= 2 {
			// Drop the opening fence line (``` or ```json).
			lines = lines[1:]
			// Drop the closing fence if present.
			for i := len(lines) - 1; i >= 0; i-- {
				if strings.TrimSpace(lines[i]) == "```" {
					lines = append(lines[:i], lines[i+1:]...)
					break
				}
			}
			s = strings.TrimSpace(strings.Join(lines, "\n"))
		}
	}

	// Trim any remaining prose around the outermost object.
	if start := strings.IndexByte(s, '{'); start > 0 {
		s = s[start:]
	}
	if end := strings.LastIndexByte(s, '}'); end >= 0 && end < len(s)-1 {
		s = s[:end+1]
	}

	return s
}
