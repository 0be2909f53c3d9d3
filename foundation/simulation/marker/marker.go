// Package marker implements the ledger of a single simulated period. A
// marker starts with a circulation and capital, records every mechanism
// that adds or removes either one, and derives the price from the result.
// Once a marker is handed to the history it is read only and serves as
// lookback input for later markers.
package marker

import (
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/numeric"
	"github.com/ardanlabs/argonsim/foundation/simulation/reserve"
	"github.com/ardanlabs/argonsim/foundation/simulation/vault"
)

// Price bounds of the currency.
const (
	MinimumPrice = 0.001
	MaximumPrice = 1.00
)

// pricePrecision is the number of decimals a price is rounded to.
const pricePrecision = 12

// Marker is one simulated period. Markers are not safe for concurrent use.
type Marker struct {
	Idx              int
	Phase            string
	StartingDate     time.Time
	DurationInHours  int
	ShowPointOnChart bool

	startingCirculation float64
	startingCapital     float64

	circulationAdded   map[CirculationAdd]float64
	circulationRemoved map[CirculationRemove]float64
	capitalAdded       map[CapitalAdd]float64
	capitalRemoved     map[CapitalRemove]float64
	seigniorage        map[Seigniorage]float64

	annualTransactions      float64
	annualMicropayments     float64
	pctIncreaseFromTaxation float64
	reserveDollarsSpent     float64

	startingVault   *vault.Meta
	endingVault     *vault.Meta
	startingReserve *reserve.Meta
	endingReserve   *reserve.Meta
}

// New constructs a marker for the period starting on the specified date.
func New(startingDate time.Time, durationInHours int, circulation float64, capital float64) *Marker {
	return &Marker{
		StartingDate:        startingDate,
		DurationInHours:     durationInHours,
		startingCirculation: circulation,
		startingCapital:     capital,
		circulationAdded:    make(map[CirculationAdd]float64),
		circulationRemoved:  make(map[CirculationRemove]float64),
		capitalAdded:        make(map[CapitalAdd]float64),
		capitalRemoved:      make(map[CapitalRemove]float64),
		seigniorage:         make(map[Seigniorage]float64),
	}
}

// CapitalFromCirculationAndPrice returns the capital that prices the
// circulation at the specified price.
func CapitalFromCirculationAndPrice(circulation float64, price float64) float64 {
	return circulation * price
}

// Price returns capital divided by circulation, defined as par when both
// are zero.
func Price(capital float64, circulation float64) float64 {
	if capital == 0 && circulation == 0 {
		return 1
	}
	return numeric.Round(numeric.Divide(capital, circulation), pricePrecision)
}

// =============================================================================

// NextDate returns the starting date of the following period.
func (m *Marker) NextDate() time.Time {
	return m.StartingDate.Add(time.Duration(m.DurationInHours) * time.Hour)
}

// EndingDate returns the last instant of the period.
func (m *Marker) EndingDate() time.Time {
	return m.NextDate().Add(-time.Millisecond)
}

// StartingCirculation returns the circulation the period started with.
func (m *Marker) StartingCirculation() float64 {
	return m.startingCirculation
}

// StartingCapital returns the capital the period started with.
func (m *Marker) StartingCapital() float64 {
	return m.startingCapital
}

// StartingPrice returns the price the period started with.
func (m *Marker) StartingPrice() float64 {
	return Price(m.startingCapital, m.startingCirculation)
}

// CurrentCirculation returns the starting circulation net of every
// recorded addition and removal.
func (m *Marker) CurrentCirculation() float64 {
	return m.startingCirculation - total(m.circulationRemoved, CirculationRemoves) + total(m.circulationAdded, CirculationAdds)
}

// CurrentCapital returns the starting capital net of every recorded
// addition and removal.
func (m *Marker) CurrentCapital() float64 {
	return m.startingCapital - total(m.capitalRemoved, CapitalRemoves) + total(m.capitalAdded, CapitalAdds)
}

// CurrentPrice returns the price after every recorded mechanism.
func (m *Marker) CurrentPrice() float64 {
	return Price(m.CurrentCapital(), m.CurrentCirculation())
}

// PctIncreaseFromTaxation returns the percent price change caused by the
// last taxation run.
func (m *Marker) PctIncreaseFromTaxation() float64 {
	return m.pctIncreaseFromTaxation
}

// PctIncreaseFromAllSources returns the percent price change over the
// whole period.
func (m *Marker) PctIncreaseFromAllSources() float64 {
	return numeric.Profit(m.StartingPrice(), m.CurrentPrice()) * 100
}

// CirculationRemovedBy returns the circulation removed by the mechanism.
func (m *Marker) CirculationRemovedBy(src CirculationRemove) float64 {
	return m.circulationRemoved[src]
}

// CirculationAddedBy returns the circulation added by the mechanism.
func (m *Marker) CirculationAddedBy(src CirculationAdd) float64 {
	return m.circulationAdded[src]
}

// CapitalAddedBy returns the capital added by the mechanism.
func (m *Marker) CapitalAddedBy(src CapitalAdd) float64 {
	return m.capitalAdded[src]
}

// CapitalRemovedBy returns the capital removed by the mechanism.
func (m *Marker) CapitalRemovedBy(src CapitalRemove) float64 {
	return m.capitalRemoved[src]
}

// SeigniorageFrom returns the amount clawed back from the mechanism.
func (m *Marker) SeigniorageFrom(src Seigniorage) float64 {
	return m.seigniorage[src]
}

// =============================================================================

// SetAnnualTransactions sets the annual taxable transaction volume.
func (m *Marker) SetAnnualTransactions(amount float64) {
	m.annualTransactions = amount
}

// SetAnnualMicropayments sets the annual micropayment volume.
func (m *Marker) SetAnnualMicropayments(amount float64) {
	m.annualMicropayments = amount
}

// AddCirculation records circulation added by the mechanism.
func (m *Marker) AddCirculation(amount float64, src CirculationAdd) {
	if amount <= 0 {
		return
	}
	m.circulationAdded[src] += amount
}

// RemoveCirculation records circulation removed by the mechanism. The
// removal is limited to the circulation outstanding. It returns the amount
// removed.
func (m *Marker) RemoveCirculation(amount float64, src CirculationRemove) float64 {
	amount = min(amount, m.CurrentCirculation())
	if amount <= 0 {
		return 0
	}
	m.circulationRemoved[src] += amount
	return amount
}

// AddCapital records capital added by the mechanism.
func (m *Marker) AddCapital(amount float64, src CapitalAdd) {
	if amount <= 0 {
		return
	}
	m.capitalAdded[src] += amount
}

// RemoveCapital records capital removed by the mechanism. Capital never
// falls below what prices the circulation at the minimum price. It returns
// the amount removed.
func (m *Marker) RemoveCapital(amount float64, src CapitalRemove) float64 {
	floor := m.CurrentCirculation() * MinimumPrice
	amount = min(amount, m.CurrentCapital()-floor)
	if amount <= 0 {
		return 0
	}
	m.capitalRemoved[src] += amount
	return amount
}

// RemoveCirculationUsingReserveCapital buys circulation back with the
// reserve at the current price. Purchases are limited by the money left in
// the reserve. It returns the circulation removed.
func (m *Marker) RemoveCirculationUsingReserveCapital(circulation float64, r *reserve.Reserve) float64 {
	price := m.CurrentPrice()
	if circulation <= 0 || price <= 0 {
		return 0
	}

	spent := r.Spend(circulation * price)
	bought := spent / price
	removed := m.RemoveCirculation(bought, ReserveSpend)

	// Refund what could not be removed.
	if removed < bought {
		spent -= r.ReverseSpend((bought - removed) * price)
	}
	m.reserveDollarsSpent += spent

	return removed
}

// =============================================================================

// Begin records the vault and reserve as they were when the period
// started. Either may be nil.
func (m *Marker) Begin(v *vault.Vault, r *reserve.Reserve) {
	price := m.StartingPrice()
	if v != nil {
		meta := v.Meta(price)
		m.startingVault = &meta
	}
	if r != nil {
		meta := r.Meta(price)
		m.startingReserve = &meta
	}
}

// End records the vault and reserve as they are when the period ends.
// Either may be nil.
func (m *Marker) End(v *vault.Vault, r *reserve.Reserve) {
	price := m.CurrentPrice()
	if v != nil {
		meta := v.Meta(price)
		m.endingVault = &meta
	}
	if r != nil {
		meta := r.Meta(price)
		m.endingReserve = &meta
	}
}

// total sums the deltas in source order so results are reproducible.
func total[K comparable](deltas map[K]float64, order []K) float64 {
	var sum float64
	for _, src := range order {
		sum += deltas[src]
	}
	return sum
}
