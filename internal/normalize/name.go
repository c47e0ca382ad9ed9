package normalize

import (
	"strings"
)

// maxNameLength caps cleaned product names.
const maxNameLength = 200

// brandSeparators introduce a trailing brand/site suffix in extracted names,
// e.g. "Wool Sweater | ACME Store". Hyphen variants must be space-padded so
// hyphenated product names survive.
var brandSeparators = []string{" | ", " - ", " – ", " — ", "|"}

// CleanName strips a trailing brand suffix, collapses internal whitespace,
// and caps the length.
func CleanName(raw string) string {
	s := strings.TrimSpace(raw)

	for _, sep := range brandSeparators {
		if i := strings.LastIndex(s, sep); i > 0 {
			s = s[:i]
			break
		}
	}

	s = strings.Join(strings.Fields(s), " ")

	// Cap by runes so a multi-byte character is never split.
	if runes := []rune(s); len(runes) > maxNameLength {
		s = strings.TrimSpace(string(runes[:maxNameLength]))
	}

	return s
}
