package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDecimal parses a number written in either the Vietnamese convention
// ("1.234,56") or the Western convention ("1,234.56"). The convention is
// inferred per value from the separator pattern, never assumed globally:
//
//   - both separators present: the one appearing last is the decimal point,
//     the other is the thousands separator;
//   - a lone comma followed by at most two digits is a decimal comma,
//     otherwise a thousands separator;
//   - a lone dot followed by exactly three digits (with a leading group) is a
//     thousands separator, otherwise a decimal point.
//
// Currency decorations (đ, ₫, "VND") and spaces are stripped first.
func ParseDecimal(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	for _, decoration := range []string{"₫", "đ", "VND", "vnd"} {
		cleaned = strings.ReplaceAll(cleaned, decoration, "")
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty numeric value %q", s)
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// Vietnamese: dots group thousands, comma is the decimal point.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// Western: commas group thousands, dot is the decimal point.
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		digitsAfter := len(cleaned) - lastComma - 1
		if strings.Count(cleaned, ",") == 1 && digitsAfter > 0 && digitsAfter <= 2 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastDot >= 0:
		digitsAfter := len(cleaned) - lastDot - 1
		if digitsAfter == 3 && lastDot > 0 {
			// "1.234" or "1.234.567" are grouped thousands in Vietnamese text.
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
		// Otherwise keep the dot as a decimal point.
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable numeric value %q", s)
	}
	return value, nil
}
