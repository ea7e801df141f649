// Package email holds small helpers for addressing people by email.
package email

import (
	"strings"
	"unicode"
)

// LocalPart returns the part of address before the last '@', or address
// itself when there is none.
func LocalPart(address string) string {
	if at := strings.LastIndexByte(address, '@'); at > 0 {
		return address[:at]
	}
	return address
}

// DisplayName turns "jane.doe+lists@example.org" into "Jane Doe Lists".
// An address without a usable local part yields fallback.
func DisplayName(address, fallback string) string {
	parts := strings.FieldsFunc(LocalPart(address), func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return fallback
	}
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
