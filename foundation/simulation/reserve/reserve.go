// Package reserve maintains the stabilization fund used to buy back
// circulation while the currency is below par.
package reserve

import "github.com/ardanlabs/argonsim/foundation/simulation/numeric"

// Meta is the exported snapshot of the reserve.
type Meta struct {
	AmountRemaining      float64 `json:"amountRemaining"`
	AmountSpent          float64 `json:"amountSpent"`
	BurnPerReserveDollar float64 `json:"burnPerReserveDollar"`
}

// Reserve is a two counter ledger. The sum of the counters never changes.
type Reserve struct {
	amountRemaining float64
	amountSpent     float64
}

// New constructs a reserve holding amount with spent already drawn down.
func New(amount float64, spent float64) *Reserve {
	return &Reserve{
		amountRemaining: amount,
		amountSpent:     spent,
	}
}

// Spend draws down the fund and returns the amount actually spent, which
// is limited to what remains.
func (r *Reserve) Spend(amount float64) float64 {
	amount = min(max(amount, 0), r.amountRemaining)

	r.amountRemaining -= amount
	r.amountSpent += amount

	return amount
}

// ReverseSpend returns money to the fund and returns the amount actually
// reversed, which is limited to what was spent.
func (r *Reserve) ReverseSpend(amount float64) float64 {
	amount = min(max(amount, 0), r.amountSpent)

	r.amountRemaining += amount
	r.amountSpent -= amount

	return amount
}

// AmountRemaining returns the balance left in the fund.
func (r *Reserve) AmountRemaining() float64 {
	return r.amountRemaining
}

// AmountSpent returns the balance drawn from the fund.
func (r *Reserve) AmountSpent() float64 {
	return r.amountSpent
}

// Meta exports the reserve at the specified currency price.
func (r *Reserve) Meta(price float64) Meta {
	return Meta{
		AmountRemaining:      r.amountRemaining,
		AmountSpent:          r.amountSpent,
		BurnPerReserveDollar: numeric.Divide(1, price),
	}
}

// FromMeta reconstructs a reserve from an exported snapshot.
func FromMeta(m Meta) *Reserve {
	return New(m.AmountRemaining, m.AmountSpent)
}
