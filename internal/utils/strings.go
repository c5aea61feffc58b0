// Package utils holds small string and timing helpers shared across modules.
package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParseCSV splits a comma-separated list such as CHECKUP_COUPONS into its
// trimmed entries. Blank entries are dropped; a blank list is nil.
func ParseCSV(s string) []string {
	var values []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' }) {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

// FoldUpper uppercases s, strips diacritics and collapses inner whitespace.
// "Previdência  privada" and "PREVIDENCIA PRIVADA" fold to the same key.
func FoldUpper(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}
