// Package numeric provides the guarded arithmetic shared by the simulation
// packages. Any division by a quantity that can legitimately reach zero
// goes through Divide.
package numeric

import "math"

// HoursPerYear is the number of hours used to annualize a period return.
const HoursPerYear = 365 * 24

// Divide returns a/b, or 0 when b is 0.
func Divide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Round rounds v to the specified number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Profit returns the fractional change from buy to sell.
func Profit(buy, sell float64) float64 {
	return Divide(sell-buy, buy)
}

// CompoundAnnually takes a percent return earned over durationInHours and
// returns the percent return if it compounded for a full year.
func CompoundAnnually(pct float64, durationInHours int) float64 {
	if durationInHours <= 0 {
		return 0
	}

	base := 1 + pct/100
	if base <= 0 {
		return -100
	}

	periods := float64(HoursPerYear) / float64(durationInHours)
	return (math.Pow(base, periods) - 1) * 100
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
