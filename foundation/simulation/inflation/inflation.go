// Package inflation walks the purchasing power of the dollar day by day
// using month over month CPI changes.
package inflation

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/numeric"
)

// MaxDays is the longest range Generate will walk.
const MaxDays = 36_525

// Set of error variables for generating dollar markers.
var (
	ErrInvalidRange = errors.New("ending date precedes starting date")
	ErrRangeTooLong = errors.New("range exceeds one hundred years")
)

// Marker is the dollar price at the end of one day.
type Marker struct {
	StartingDate   time.Time `json:"startingDate"`
	EndingPrice    float64   `json:"endingPrice"`
	DailyInflation float64   `json:"dailyInflation"`
}

// Dollar computes inflation from a CPI table. Months without CPI data use
// a twelfth of the fallback annual rate.
type Dollar struct {
	cpi            marketdata.CPI
	annualFallback float64
}

// New constructs a Dollar. The fallback is an annual percent.
func New(cpi marketdata.CPI, annualFallback float64) *Dollar {
	return &Dollar{
		cpi:            cpi,
		annualFallback: annualFallback,
	}
}

// MonthlyInflation returns the percent change of the CPI from the prior
// month to the specified one.
func (d *Dollar) MonthlyInflation(year int, month time.Month) float64 {
	current, ok := d.cpi.Value(year, month)
	if !ok {
		return d.annualFallback / 12
	}

	prevYear, prevMonth := year, month-1
	if month == time.January {
		prevYear, prevMonth = year-1, time.December
	}

	previous, ok := d.cpi.Value(prevYear, prevMonth)
	if !ok {
		return d.annualFallback / 12
	}

	return numeric.Profit(previous, current) * 100
}

// Generate returns one marker per day from start through end inclusive,
// starting from a dollar worth 1.00. Each month's inflation is spread
// evenly over its days. The walk stops when the context is done.
func (d *Dollar) Generate(ctx context.Context, start time.Time, end time.Time) ([]Marker, error) {
	start, end = marketdata.Day(start), marketdata.Day(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > MaxDays {
		return nil, ErrRangeTooLong
	}

	markers := make([]Marker, 0, days)
	price := 1.00

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		daily := d.MonthlyInflation(date.Year(), date.Month()) / float64(daysIn(date))
		price -= price * daily / 100

		markers = append(markers, Marker{
			StartingDate:   date,
			EndingPrice:    price,
			DailyInflation: daily,
		})
	}

	return markers, nil
}

func daysIn(date time.Time) int {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
