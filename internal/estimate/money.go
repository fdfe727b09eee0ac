package estimate

import "github.com/shopspring/decimal"

// RoundCents rounds a dollar amount half away from zero to two decimals.
// Going through decimal keeps 1.005 at 1.01 instead of the float result 1.00.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
