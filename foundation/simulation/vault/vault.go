// Package vault models bitcoin pledged as collateral for minting argons.
// Bitcoins are grouped into cohorts by the date they were loaded. Each
// cohort holds a ratcheted tranche whose lock price is re-struck as the
// market moves and a non-ratcheted tranche locked at acquisition price.
package vault

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/numeric"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
)

// ErrInvalidLoadDate is returned when a load is requested without a date.
var ErrInvalidLoadDate = errors.New("invalid load date")

// epsilon is the quantity below which a tranche is considered empty.
const epsilon = 0.00000000001

// cohort is the collateral loaded on a single date.
type cohort struct {
	date                time.Time
	nonRatchetedQty     float64
	nonRatchetedPrice   float64
	ratchetedQty        float64
	ratchetedPrice      float64
	pendingRatchetValue float64
}

// aggregates are the memoized totals over every cohort. They are dropped
// by invalidate whenever a cohort, the date or the bitcoin price changes:
// deposit, ratchet, burn, purge, SetDate and SetPricePerBtcOverride.
type aggregates struct {
	valid         bool
	bitcoinCount  float64
	lockValue     float64
	unlockValue   float64
	pendingValue  float64
	profitsToDate float64
}

// Vault holds the collateral cohorts of a single run. A Vault is owned by
// one run and is not safe for concurrent use.
type Vault struct {
	prices              *marketdata.Series
	cohorts             []*cohort
	byDate              map[time.Time]*cohort
	argonsMinted        float64
	ratchetMintingSpace float64
	currentDate         time.Time
	priceOverride       float64
	profitsByDate       map[time.Time]float64
	cache               aggregates
}

// New constructs an empty vault positioned on the specified date. The price
// series may be nil when an override price is always set.
func New(currentDate time.Time, prices *marketdata.Series) *Vault {
	return &Vault{
		prices:        prices,
		byDate:        make(map[time.Time]*cohort),
		currentDate:   marketdata.Day(currentDate),
		profitsByDate: make(map[time.Time]float64),
	}
}

// =============================================================================

// SetPricePerBtcOverride fixes the bitcoin price used by the vault. A zero
// price removes the override.
func (v *Vault) SetPricePerBtcOverride(price float64) {
	v.priceOverride = max(price, 0)
	v.invalidate()
}

// SetDate moves the vault to the specified date.
func (v *Vault) SetDate(date time.Time) {
	v.currentDate = marketdata.Day(date)
	v.invalidate()
}

// CurrentDate returns the date the vault is positioned on.
func (v *Vault) CurrentDate() time.Time {
	return v.currentDate
}

// PricePerBtc returns the override price when set, otherwise the price for
// the current date, otherwise the latest known price.
func (v *Vault) PricePerBtc() float64 {
	if v.priceOverride > 0 {
		return v.priceOverride
	}

	if price, ok := v.prices.At(v.currentDate); ok {
		return price
	}

	if latest, ok := v.prices.Latest(); ok {
		return latest.Value
	}

	return 0
}

// ArgonsMintedByBitcoins returns the running count of argons minted against
// the vaulted collateral.
func (v *Vault) ArgonsMintedByBitcoins() float64 {
	return v.argonsMinted
}

// BitcoinCount returns the number of bitcoins vaulted.
func (v *Vault) BitcoinCount() float64 {
	v.refresh()
	return v.cache.bitcoinCount
}

// TotalLockValue returns the dollar value of the collateral at lock prices.
func (v *Vault) TotalLockValue() float64 {
	v.refresh()
	return v.cache.lockValue
}

// TotalUnlockValue returns the dollar value of the collateral when released,
// which is never more than the current bitcoin price.
func (v *Vault) TotalUnlockValue() float64 {
	v.refresh()
	return v.cache.unlockValue
}

// TotalPendingRatchetValue returns the ratchet value still waiting for
// minting space.
func (v *Vault) TotalPendingRatchetValue() float64 {
	v.refresh()
	return v.cache.pendingValue
}

// DollarsPerBitcoinUnlock returns the average unlock value per bitcoin.
func (v *Vault) DollarsPerBitcoinUnlock() float64 {
	v.refresh()
	return numeric.Divide(v.cache.unlockValue, v.cache.bitcoinCount)
}

// DollarsPerBitcoinLock returns the average lock value per bitcoin.
func (v *Vault) DollarsPerBitcoinLock() float64 {
	v.refresh()
	return numeric.Divide(v.cache.lockValue, v.cache.bitcoinCount)
}

// ProfitsToDate returns the profits recorded on or before the current date.
func (v *Vault) ProfitsToDate() float64 {
	v.refresh()
	return v.cache.profitsToDate
}

// =============================================================================

// LoadForDate deposits new collateral for the date. The minting capacity is
// half the circulation scaled by the vault capacity percent. Expired cohorts
// are purged and existing cohorts ratcheted before the deposit takes
// whatever capacity remains.
func (v *Vault) LoadForDate(circulation float64, date time.Time, r rules.Rules) error {
	if date.IsZero() {
		return ErrInvalidLoadDate
	}
	defer v.invalidate()

	maxMintingCapacity := numeric.Round(numeric.Divide(circulation, 2)*(r.BtcVaultCapacityPct/100), 2)

	v.currentDate = marketdata.Day(date)
	v.purgeExpired()
	v.updateRatchets(maxMintingCapacity, r)

	pricePerBtc := v.PricePerBtc()
	if pricePerBtc <= 0 {
		return nil
	}

	available := max(maxMintingCapacity-v.argonsMinted, 0)
	if available <= 0 {
		return nil
	}

	ratchetingDec := r.BtcRatchetingPct / 100
	qty := available / pricePerBtc
	nonRatchetedQty := qty * (1 - ratchetingDec)
	ratchetedQty := qty * ratchetingDec

	c, exists := v.byDate[v.currentDate]
	if !exists {
		c = &cohort{
			date:              v.currentDate,
			nonRatchetedPrice: pricePerBtc,
			ratchetedPrice:    pricePerBtc,
		}
		v.insert(c)
	}
	c.nonRatchetedQty += nonRatchetedQty
	c.ratchetedQty += ratchetedQty

	v.argonsMinted += (nonRatchetedQty + ratchetedQty) * pricePerBtc

	return nil
}

// BurnCirculation releases collateral to burn up to circulationToBurn
// argons at the specified argon price, unlocking at most maxBitcoinsToUnlock
// bitcoins. Cohorts are walked oldest first, ratcheted tranche before the
// non-ratcheted one. It returns the circulation actually burned.
func (v *Vault) BurnCirculation(circulationToBurn float64, argonRatioPrice float64, maxBitcoinsToUnlock float64) float64 {
	defer v.invalidate()

	burnPerDollar := UnlockBurnPerBitcoinDollar(argonRatioPrice)
	pricePerBtc := v.PricePerBtc()

	dollarsRemaining := numeric.Divide(circulationToBurn, burnPerDollar)
	var bitcoinsUnlocked float64
	var circulationBurned float64
	var savings float64
	var lossAverted float64

	done := func() bool {
		return bitcoinsUnlocked >= maxBitcoinsToUnlock || dollarsRemaining <= 0
	}

	for _, c := range v.cohorts {
		if done() {
			break
		}

		for _, ratcheted := range []bool{true, false} {
			if done() {
				break
			}

			qty := c.nonRatchetedQty
			lockPrice := c.nonRatchetedPrice
			if ratcheted {
				qty = c.ratchetedQty
				lockPrice = c.ratchetedPrice - numeric.Divide(c.pendingRatchetValue, c.ratchetedQty)
			}

			unlockPrice := min(lockPrice, pricePerBtc)
			if qty <= 0 || unlockPrice <= 0 {
				continue
			}

			dollars := min(qty*unlockPrice, (maxBitcoinsToUnlock-bitcoinsUnlocked)*unlockPrice, dollarsRemaining)
			unlocked := dollars / unlockPrice
			argons := dollars * burnPerDollar

			savings += dollars - argons*argonRatioPrice
			lossAverted += max(lockPrice-pricePerBtc, 0) * unlocked
			circulationBurned += argons
			dollarsRemaining -= dollars
			bitcoinsUnlocked += unlocked
			v.argonsMinted = max(v.argonsMinted-argons, 0)

			if ratcheted {
				c.pendingRatchetValue = max(c.pendingRatchetValue-numeric.Divide(c.pendingRatchetValue, c.ratchetedQty)*unlocked, 0)
				c.ratchetedQty -= unlocked
				if c.ratchetedQty <= epsilon {
					c.ratchetedQty = 0
					c.pendingRatchetValue = 0
				}
				continue
			}

			c.nonRatchetedQty -= unlocked
			if c.nonRatchetedQty <= epsilon {
				c.nonRatchetedQty = 0
			}
		}
	}

	v.removeEmpty()
	v.recordProfit(lossAverted)
	v.recordProfit(savings)

	return circulationBurned
}

// ArgonsNeededToUnlock returns the argons that must be burned to release
// the specified bitcoins at the specified argon price.
func (v *Vault) ArgonsNeededToUnlock(bitcoins float64, argonRatioPrice float64) float64 {
	return v.PricePerBtc() * bitcoins * UnlockBurnPerBitcoinDollar(argonRatioPrice)
}

// =============================================================================

// purgeExpired removes cohorts loaded more than a year before the current
// date and returns their unlock value to the minting capacity.
func (v *Vault) purgeExpired() {
	cutoff := v.currentDate.AddDate(-1, 0, 0)
	pricePerBtc := v.PricePerBtc()

	kept := v.cohorts[:0]
	for _, c := range v.cohorts {
		if !c.date.Before(cutoff) {
			kept = append(kept, c)
			continue
		}

		v.argonsMinted = max(v.argonsMinted-unlockValue(c, pricePerBtc), 0)
		delete(v.byDate, c.date)
	}
	v.cohorts = kept
}

// updateRatchets re-strikes every cohort whose ratcheted price moved by at
// least the configured percent. Ratcheting may consume at most half of the
// remaining minting space so fresh deposits keep the other half. Value that
// does not fit is carried as pending and realized on later loads, oldest
// cohort first.
func (v *Vault) updateRatchets(maxMintingCapacity float64, r rules.Rules) {
	pricePerBtc := v.PricePerBtc()
	if pricePerBtc <= 0 {
		return
	}

	triggerDec := r.BtcRatchetWhenPriceChangePct / 100
	space := max(maxMintingCapacity-v.argonsMinted, 0) / 2

	var release float64
	for _, c := range v.cohorts {
		if math.Abs(numeric.Profit(c.ratchetedPrice, pricePerBtc)) < triggerDec {
			continue
		}

		before := c.ratchetedQty * c.ratchetedPrice
		c.ratchetedPrice = pricePerBtc
		delta := c.ratchetedQty*c.ratchetedPrice - before

		switch {
		case delta > 0 && delta >= space:
			v.mintFromRatchet(space)
			c.pendingRatchetValue += delta - space
			space = 0

		case delta > 0:
			v.mintFromRatchet(delta)
			space -= delta

		default:
			// Down ratchets never mint. They shrink the pending value and
			// give back space previously minted through ratcheting.
			c.pendingRatchetValue = max(c.pendingRatchetValue+delta, 0)
			release = min(release+math.Abs(delta), v.ratchetMintingSpace)
		}
	}

	v.argonsMinted -= release
	v.ratchetMintingSpace -= release

	for _, c := range v.cohorts {
		if space <= 0 {
			break
		}
		if c.pendingRatchetValue <= 0 {
			continue
		}

		amount := min(c.pendingRatchetValue, space)
		c.pendingRatchetValue -= amount
		v.mintFromRatchet(amount)
		space -= amount
	}
}

func (v *Vault) mintFromRatchet(amount float64) {
	v.recordProfit(amount)
	v.argonsMinted += amount
	v.ratchetMintingSpace += amount
}

func (v *Vault) recordProfit(profit float64) {
	if profit <= 0 {
		return
	}
	v.profitsByDate[v.currentDate] += profit
}

func (v *Vault) insert(c *cohort) {
	idx := sort.Search(len(v.cohorts), func(i int) bool {
		return v.cohorts[i].date.After(c.date)
	})

	v.cohorts = append(v.cohorts, nil)
	copy(v.cohorts[idx+1:], v.cohorts[idx:])
	v.cohorts[idx] = c
	v.byDate[c.date] = c
}

func (v *Vault) removeEmpty() {
	kept := v.cohorts[:0]
	for _, c := range v.cohorts {
		if c.nonRatchetedQty <= 0 && c.ratchetedQty <= 0 {
			delete(v.byDate, c.date)
			continue
		}
		kept = append(kept, c)
	}
	v.cohorts = kept
}

func (v *Vault) invalidate() {
	v.cache = aggregates{}
}

func (v *Vault) refresh() {
	if v.cache.valid {
		return
	}

	pricePerBtc := v.PricePerBtc()

	agg := aggregates{valid: true}
	for _, c := range v.cohorts {
		agg.bitcoinCount += c.ratchetedQty + c.nonRatchetedQty
		agg.lockValue += lockValue(c)
		agg.unlockValue += unlockValue(c, pricePerBtc)
		agg.pendingValue += c.pendingRatchetValue
	}

	for date, profit := range v.profitsByDate {
		if !date.After(v.currentDate) {
			agg.profitsToDate += profit
		}
	}

	v.cache = agg
}

func lockValue(c *cohort) float64 {
	ratcheted := c.ratchetedQty*c.ratchetedPrice - c.pendingRatchetValue
	nonRatcheted := c.nonRatchetedQty * c.nonRatchetedPrice
	return ratcheted + nonRatcheted
}

// unlockValue never goes below zero, even when the pending ratchet value
// exceeds what the ratcheted bitcoins are worth at the current price.
func unlockValue(c *cohort, pricePerBtc float64) float64 {
	ratcheted := max(c.ratchetedQty*min(c.ratchetedPrice, pricePerBtc)-c.pendingRatchetValue, 0)
	nonRatcheted := c.nonRatchetedQty * min(c.nonRatchetedPrice, pricePerBtc)
	return ratcheted + nonRatcheted
}
