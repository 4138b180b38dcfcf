// Package moneyutil holds the currency arithmetic shared by the parser and
// the reconciliation rules.
package moneyutil

import "github.com/shopspring/decimal"

// Round2 rounds a currency value to two decimal places, half up, on the
// decimal representation. Rounding the binary float directly drifts by a
// cent on values like 2.675.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Mul2 multiplies two currency values and rounds the product to two decimal
// places.
func Mul2(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// Div2 divides a by b and rounds the quotient to two decimal places. b must
// be nonzero.
func Div2(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Div(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}
