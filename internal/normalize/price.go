// Package normalize cleans extracted product fields: locale-aware price
// parsing, image URL validation, and name cleanup. All functions are total;
// unusable input yields nil rather than an error.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// decimalCommaPattern matches prices whose final comma is a decimal
	// separator, e.g. "49,95" or "1.234,56".
	decimalCommaPattern = regexp.MustCompile(`,\d{2}$`)

	// numericPattern extracts the leading numeric substring after
	// separator normalization.
	numericPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

	// currencyStripper removes currency symbols, codes, and whitespace.
	currencyStripper = strings.NewReplacer(
		"€", "", "$", "", "£", "", "¥", "", "kr", "", "zł", "",
		"EUR", "", "USD", "", "GBP", "",
		" ", "", " ", "", "\t", "",
	)
)

// ParsePrice parses a raw price string into a decimal value. European
// comma-decimal forms ("49,95", "1.234,56") and US forms ("1,234.56") both
// normalize correctly. Returns nil when no numeric value can be extracted.
func ParsePrice(raw string) *float64 {
	s := currencyStripper.Replace(strings.TrimSpace(raw))
	if s == "" {
		return nil
	}

	if decimalCommaPattern.MatchString(s) {
		// Trailing comma-and-two-digits is a decimal separator; any
		// periods before it are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	numeric := numericPattern.FindString(s)
	if numeric == "" {
		return nil
	}

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return nil
	}

	return &value
}
