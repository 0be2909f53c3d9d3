package marketdata

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData is returned when a lookup precedes every record in a table.
var ErrNoData = errors.New("no market data for date")

// CrashDay is one observed day of the historical crash.
type CrashDay struct {
	Date              time.Time
	CirculationBurned float64
	CapitalOutflow    float64
}

// BitcoinFees converts per-transaction fees recorded in bitcoin into dollars
// using the bitcoin price of the same date.
type BitcoinFees struct {
	fees   *Series
	prices *Series
}

// NewBitcoinFees constructs the fee table.
func NewBitcoinFees(feesInBitcoin *Series, prices *Series) *BitcoinFees {
	return &BitcoinFees{
		fees:   feesInBitcoin,
		prices: prices,
	}
}

// InBitcoins returns the fee per transaction in bitcoin.
func (bf *BitcoinFees) InBitcoins(date time.Time) (float64, error) {
	fee, ok := bf.fees.At(date)
	if !ok {
		return 0, fmt.Errorf("fee %s: %w", date.Format(DateLayout), ErrNoData)
	}
	return fee, nil
}

// InDollars returns the fee per transaction in dollars.
func (bf *BitcoinFees) InDollars(date time.Time) (float64, error) {
	fee, err := bf.InBitcoins(date)
	if err != nil {
		return 0, err
	}

	price, ok := bf.prices.At(date)
	if !ok {
		return 0, fmt.Errorf("price %s: %w", date.Format(DateLayout), ErrNoData)
	}

	return fee * price, nil
}

// =============================================================================

// Months lists the month names used as CPI column keys.
var Months = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// CPI holds monthly consumer price index values keyed by year.
type CPI map[int][12]float64

// Value returns the CPI for the specified month. The boolean is false when
// no value was recorded.
func (c CPI) Value(year int, month time.Month) (float64, bool) {
	months, exists := c[year]
	if !exists {
		return 0, false
	}

	v := months[month-1]
	return v, v != 0
}

// =============================================================================

// Data bundles every table a run can consume. Any table may be empty.
type Data struct {
	BitcoinPrices *Series
	BitcoinFees   *BitcoinFees
	CPI           CPI
	CrashScenario []CrashDay
}
