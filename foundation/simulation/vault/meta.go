package vault

import (
	"fmt"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/numeric"
)

// Meta is the compact exported view of the vault at an argon price.
type Meta struct {
	BitcoinCount                 float64 `json:"bitcoinCount"`
	DollarsPerBitcoinLock        float64 `json:"dollarsPerBitcoinLock"`
	DollarsPerBitcoinUnlock      float64 `json:"dollarsPerBitcoinUnlock"`
	ArgonsBurnedPerBitcoinDollar float64 `json:"argonsBurnedPerBitcoinDollar"`
	ArgonBurnCapacity            float64 `json:"argonBurnCapacity"`
	ProfitsToDate                float64 `json:"profitsToDate"`
	ArgonRatioPrice              float64 `json:"argonRatioPrice"`
	ArgonsMintedByBitcoins       float64 `json:"argonsMintedByBitcoins"`
}

// Meta exports the vault totals at the specified argon price.
func (v *Vault) Meta(argonRatioPrice float64) Meta {
	bitcoinCount := v.BitcoinCount()
	burnPerDollar := UnlockBurnPerBitcoinDollar(argonRatioPrice)
	dollarsPerBitcoinUnlock := v.DollarsPerBitcoinUnlock()

	return Meta{
		BitcoinCount:                 bitcoinCount,
		DollarsPerBitcoinLock:        v.DollarsPerBitcoinLock(),
		DollarsPerBitcoinUnlock:      dollarsPerBitcoinUnlock,
		ArgonsBurnedPerBitcoinDollar: burnPerDollar,
		ArgonBurnCapacity:            bitcoinCount * dollarsPerBitcoinUnlock * burnPerDollar,
		ProfitsToDate:                v.ProfitsToDate(),
		ArgonRatioPrice:              argonRatioPrice,
		ArgonsMintedByBitcoins:       v.argonsMinted,
	}
}

// NewFromMeta constructs a vault holding the exported bitcoins on the
// specified date so a later phase can resume from a prior phase's ending
// vault without replaying history. When the unlock value is below both the
// lock value and the bitcoin price on that date, the bitcoins are split
// into a tranche locked above the price and a tranche locked below it so
// the lock and unlock totals both survive. The split is not unique: the
// lower tranche is placed at half the unlock value per bitcoin.
func NewFromMeta(date time.Time, m Meta, prices *marketdata.Series) *Vault {
	v := New(date, prices)
	v.argonsMinted = m.ArgonsMintedByBitcoins

	if m.BitcoinCount <= 0 {
		return v
	}

	count := m.BitcoinCount
	lock := m.DollarsPerBitcoinLock
	unlock := m.DollarsPerBitcoinUnlock
	price := v.PricePerBtc()

	if price <= 0 || unlock >= min(lock, price)-epsilon {
		v.insert(&cohort{
			date:           v.currentDate,
			ratchetedQty:   count,
			ratchetedPrice: lock,
		})
		return v
	}

	lowerPrice := unlock / 2
	upperQty := count * (unlock - lowerPrice) / (price - lowerPrice)
	lowerQty := count - upperQty

	v.insert(&cohort{
		date:              v.currentDate,
		nonRatchetedQty:   upperQty,
		nonRatchetedPrice: numeric.Divide(count*lock-lowerQty*lowerPrice, upperQty),
		ratchetedQty:      lowerQty,
		ratchetedPrice:    lowerPrice,
	})

	return v
}

// =============================================================================

// Cohort is the exported form of the collateral loaded on one date.
type Cohort struct {
	Date                string  `json:"date"`
	NonRatchetedQty     float64 `json:"nonRatchetedQty"`
	NonRatchetedPrice   float64 `json:"nonRatchetedPrice"`
	RatchetedQty        float64 `json:"ratchetedQty"`
	RatchetedPrice      float64 `json:"ratchetedPrice"`
	PendingRatchetValue float64 `json:"pendingRatchetValue"`
}

// State is the full serializable form of the vault.
type State struct {
	ArgonsMintedByBitcoins float64            `json:"argonsMintedByBitcoins"`
	ByDate                 map[string]Cohort  `json:"byDate"`
	RatchetMintingSpace    float64            `json:"ratchetMintingSpace"`
	CurrentDate            string             `json:"currentDate"`
	PricePerBtcOverride    float64            `json:"pricePerBtcOverride"`
	ProfitsByDate          map[string]float64 `json:"profitsByDate"`
}

// Cohorts returns a copy of the cohorts ordered by date.
func (v *Vault) Cohorts() []Cohort {
	cohorts := make([]Cohort, len(v.cohorts))
	for i, c := range v.cohorts {
		cohorts[i] = Cohort{
			Date:                c.date.Format(marketdata.DateLayout),
			NonRatchetedQty:     c.nonRatchetedQty,
			NonRatchetedPrice:   c.nonRatchetedPrice,
			RatchetedQty:        c.ratchetedQty,
			RatchetedPrice:      c.ratchetedPrice,
			PendingRatchetValue: c.pendingRatchetValue,
		}
	}
	return cohorts
}

// State exports the vault so it can be rebuilt with FromState.
func (v *Vault) State() State {
	byDate := make(map[string]Cohort, len(v.cohorts))
	for _, c := range v.Cohorts() {
		byDate[c.Date] = c
	}

	profits := make(map[string]float64, len(v.profitsByDate))
	for date, profit := range v.profitsByDate {
		profits[date.Format(marketdata.DateLayout)] = profit
	}

	return State{
		ArgonsMintedByBitcoins: v.argonsMinted,
		ByDate:                 byDate,
		RatchetMintingSpace:    v.ratchetMintingSpace,
		CurrentDate:            v.currentDate.Format(marketdata.DateLayout),
		PricePerBtcOverride:    v.priceOverride,
		ProfitsByDate:          profits,
	}
}

// FromState rebuilds a vault from an exported state.
func FromState(s State, prices *marketdata.Series) (*Vault, error) {
	currentDate, err := marketdata.ParseDate(s.CurrentDate)
	if err != nil {
		return nil, fmt.Errorf("current date: %w", err)
	}

	v := New(currentDate, prices)
	v.argonsMinted = s.ArgonsMintedByBitcoins
	v.ratchetMintingSpace = s.RatchetMintingSpace
	v.priceOverride = max(s.PricePerBtcOverride, 0)

	for key, c := range s.ByDate {
		date, err := marketdata.ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("cohort: %w", err)
		}

		v.insert(&cohort{
			date:                date,
			nonRatchetedQty:     c.NonRatchetedQty,
			nonRatchetedPrice:   c.NonRatchetedPrice,
			ratchetedQty:        c.RatchetedQty,
			ratchetedPrice:      c.RatchetedPrice,
			pendingRatchetValue: c.PendingRatchetValue,
		})
	}

	for key, profit := range s.ProfitsByDate {
		date, err := marketdata.ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("profit: %w", err)
		}
		v.profitsByDate[date] += profit
	}

	return v, nil
}
