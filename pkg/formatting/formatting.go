// Package formatting renders numbers the way Brazilian investors read them.
package formatting

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BRL formats a value in reais, e.g. "R$1.234,56"
func BRL(v float64) string {
	cur := money.New(0, money.BRL).Currency()
	cents := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(cents)
}

// Percent formats a percentage with one decimal and a comma separator, e.g. "12,5%"
func Percent(v float64) string {
	return Decimal(v, 1) + "%"
}

// Decimal formats v with a fixed number of decimals and a comma separator
func Decimal(v float64, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)
	return strings.Replace(s, ".", ",", 1)
}
