// Package money centralizes the decimal conventions of the invoicing engine.
//
// Two precisions are in play: intermediate values (unit prices, quantities,
// accumulated sums) keep the full precision shopspring/decimal gives us, and
// every externally visible amount is rounded to exactly two fraction digits
// at the boundary. Rounding is commercial (half up, away from zero), NOT
// banker's rounding: recipients of invoices expect 0.005 to become 0.01.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Zero is decimal zero.
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// Round2 rounds to 2 fraction digits, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromString parses a decimal from a string with the invariant decimal point.
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses a decimal from a string, panics on error. Test helper.
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Percent computes amount * (pct / 100) at accumulation precision.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// FormatAmount renders an amount for machine surfaces (XML, EPC payload):
// exactly 2 fraction digits, invariant decimal point, no grouping.
// "1234.5" -> "1234.50".
func FormatAmount(d decimal.Decimal) string {
	return Round2(d).StringFixed(2)
}

// FormatQuantity renders a quantity for the structured document: up to 4
// fraction digits, trailing zeros kept to 2 at minimum ("3" -> "3.00").
func FormatQuantity(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

// deDE formats numbers the German way: dot grouping, comma decimals.
var deDE = message.NewPrinter(language.German)

// FormatEUR renders an amount for the human-facing PDF: German locale with
// grouping and a trailing euro sign ("1.234,56 €"). Presentation only; the
// numeric authority stays with the decimal value; FormatAmount and FormatEUR
// are derived from the same rounded decimal and therefore always agree. The
// digits come straight from the decimal, never through a float.
func FormatEUR(d decimal.Decimal) string {
	r := Round2(d)
	abs := r.Abs()
	fixed := abs.StringFixed(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
	}
	return sign + deDE.Sprintf("%d", abs.IntPart()) + "," + fixed[len(fixed)-2:] + " €"
}
