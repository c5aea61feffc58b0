package parser

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned when a cell cannot be read as a number
var ErrInvalidNumber = errors.New("invalid number")

var currencyMarkers = []string{"US$", "U$", "R$", "BRL", "USD", "EUR", "$", "€"}

// ParseNumber reads a monetary or quantity cell in pt-BR or en-US notation.
//
// When both ',' and '.' appear, the rightmost one is the decimal separator.
// A single ',' is decimal; repeated separators are thousands grouping.
// A single '.' followed by exactly three digits (with at most three leading
// digits) is pt-BR grouping, so "50.000" reads as fifty thousand.
func ParseNumber(s string) (float64, error) {
	clean := strings.ToUpper(strings.TrimSpace(s))
	for _, marker := range currencyMarkers {
		clean = strings.ReplaceAll(clean, marker, "")
	}
	clean = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, clean)

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = clean[1 : len(clean)-1]
	}
	if strings.HasPrefix(clean, "-") {
		negative = !negative
		clean = clean[1:]
	}

	if clean == "" {
		return 0, ErrInvalidNumber
	}
	for _, r := range clean {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return 0, ErrInvalidNumber
		}
	}

	clean = normalizeSeparators(clean)

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	if negative {
		d = d.Neg()
	}

	f, _ := d.Float64()
	return f, nil
}

func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || isThousandsGroup(s, lastDot) {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

func isThousandsGroup(s string, dot int) bool {
	before, after := s[:dot], s[dot+1:]
	return len(after) == 3 && len(before) >= 1 && len(before) <= 3
}

// isNumeric reports whether the cell reads as a number
func isNumeric(s string) bool {
	_, err := ParseNumber(s)
	return err == nil
}
