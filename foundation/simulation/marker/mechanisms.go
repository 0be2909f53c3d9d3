package marker

import (
	"math"

	"github.com/ardanlabs/argonsim/foundation/simulation/numeric"
	"github.com/ardanlabs/argonsim/foundation/simulation/reserve"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
	"github.com/ardanlabs/argonsim/foundation/simulation/vault"
)

// Tuning of the mechanisms.
const (
	taxRate               = 0.20
	fullUnvaultPrice      = 0.98
	crisisPrice           = 0.50
	hoursPerDay           = 24
	transactionDaysInYear = 365
)

// RunRecovery applies the recovery mechanisms in order: taxation,
// certainty greed, bitcoin fusion and speculative greed. Each one is
// skipped when disabled or when the price already reached par. History
// holds the finalized markers that precede this one.
func (m *Marker) RunRecovery(r rules.Rules, history []*Marker, v *vault.Vault) {
	if m.CurrentPrice() < MaximumPrice {
		m.RunTaxation(r)
	}

	if r.EnableCertaintyGreed && m.CurrentPrice() < MaximumPrice {
		m.RunCertaintyGreed(r, history)
	}

	if r.EnableBitcoinVaulting && v != nil && m.CurrentPrice() < MaximumPrice {
		m.RunBitcoinFusion(r, v)
	}

	if r.EnableSpeculativeGreed && m.CurrentPrice() < MaximumPrice {
		m.RunSpeculativeGreed(r, history)
	}
}

// RunTaxation burns a share of the period's transaction and micropayment
// volume. Micropayments are inflated while the price is below par so real
// wages hold their value.
func (m *Marker) RunTaxation(r rules.Rules) {
	if !r.EnableTaxation {
		return
	}

	priceBefore := m.CurrentPrice()
	periodsPerYear := float64(transactionDaysInYear*hoursPerDay) / float64(m.DurationInHours)

	transactions := numeric.Divide(m.annualTransactions, periodsPerYear)
	micropayments := numeric.Divide(m.annualMicropayments, periodsPerYear)

	m.RemoveCirculation(transactions*taxRate, TransactionalTaxes)
	m.RemoveCirculation(wageProtected(micropayments, priceBefore)*taxRate, MicropaymentTaxes)

	m.pctIncreaseFromTaxation = numeric.Profit(priceBefore, m.CurrentPrice()) * 100
}

// RunCertaintyGreed adds capital when taxation has produced a sustained
// compounded return over the lookback window.
func (m *Marker) RunCertaintyGreed(r rules.Rules, history []*Marker) {
	metric := func(mk *Marker) float64 {
		return numeric.CompoundAnnually(mk.PctIncreaseFromTaxation(), mk.DurationInHours)
	}

	m.AddCapital(m.greedInflow(r.Certainty(), history, metric), CertaintyGreed)
}

// RunSpeculativeGreed adds capital when the realized price return over the
// lookback window attracts speculators.
func (m *Marker) RunSpeculativeGreed(r rules.Rules, history []*Marker) {
	metric := func(mk *Marker) float64 {
		return mk.PctIncreaseFromAllSources()
	}

	m.AddCapital(m.greedInflow(r.Speculative(), history, metric), SpeculativeGreed)
}

// greedInflow computes the capital drawn in by a greed model. Inflow is
// zero while the history is shorter than the low latency, and any marker in
// the low latency tail whose metric is below the low threshold vetoes the
// inflow entirely. A positive Within narrows that tail to the most recent
// Within hours. Otherwise the average metric, with each sample floored at
// the low threshold, scales the capped daily increase.
func (m *Marker) greedInflow(g rules.Greed, history []*Marker, metric func(*Marker) float64) float64 {
	duration := float64(m.DurationInHours)
	highPeriods := max(int(math.Round(numeric.Divide(g.LatencyHigh, duration))), 1)
	lowPeriods := max(int(math.Round(numeric.Divide(g.LatencyLow, duration))), 0)

	window := history[max(len(history)-highPeriods, 0):]
	if len(window) == 0 || len(window) < lowPeriods {
		return 0
	}

	vetoPeriods := lowPeriods
	if g.Within > 0 {
		vetoPeriods = min(vetoPeriods, max(int(math.Round(g.Within/duration)), 1))
	}

	for _, mk := range window[len(window)-vetoPeriods:] {
		if metric(mk) < g.Low {
			return 0
		}
	}

	var total float64
	for _, mk := range window {
		total += max(metric(mk), g.Low)
	}
	average := total / float64(len(window))

	capitalCap := g.MaxDailyIncrease / hoursPerDay * duration * window[len(window)-1].CurrentCapital()
	if average >= g.High {
		return capitalCap
	}

	greedFactor := min(numeric.Divide(average-g.Low, g.High-g.Low), 1) / hoursPerDay
	return capitalCap * greedFactor
}

// RunBitcoinFusion burns the circulation in excess of capital by releasing
// vaulted bitcoins, throttled by how far below par the price is and how
// scarce unreserved bitcoins are.
func (m *Marker) RunBitcoinFusion(r rules.Rules, v *vault.Vault) {
	excess := m.CurrentCirculation() - m.CurrentCapital()
	if excess <= 0 {
		return
	}

	price := m.CurrentPrice()
	pricePerBtc := v.PricePerBtc()
	burnPerDollar := vault.UnlockBurnPerBitcoinDollar(price)

	bitcoinsNeeded := numeric.Divide(excess, burnPerDollar*pricePerBtc)
	bitcoinsToUnvault := m.throttleBitcoinsToUnvault(bitcoinsNeeded, price, r, v)
	bitcoinsToUnvault = min(bitcoinsToUnvault, r.BtcMaxTxnsPerHour*float64(m.DurationInHours))
	if bitcoinsToUnvault <= 0 {
		return
	}

	burned := v.BurnCirculation(excess, price, bitcoinsToUnvault)
	m.RemoveCirculation(burned, BitcoinFusion)
}

// throttleBitcoinsToUnvault slows unvaulting as the price falls below
// fullUnvaultPrice. The unvault latency grows with the distance from that
// price, and while the price is above the crisis price enough bitcoins are
// held back to absorb a drop to it. What remains is further scaled by its
// scarcity relative to the bitcoins the vault can hold.
func (m *Marker) throttleBitcoinsToUnvault(bitcoinsNeeded float64, price float64, r rules.Rules, v *vault.Vault) float64 {
	if price >= fullUnvaultPrice {
		return bitcoinsNeeded
	}

	duration := float64(m.DurationInHours)
	circulation := m.CurrentCirculation()
	pricePerBtc := v.PricePerBtc()

	latency := max(r.UnvaultLatencyInHours*(fullUnvaultPrice-price)/fullUnvaultPrice, duration)

	var reserved float64
	if price > crisisPrice {
		crisisExcess := circulation * (1 - crisisPrice)
		reserved = numeric.Divide(crisisExcess, vault.UnlockBurnPerBitcoinDollar(crisisPrice)*pricePerBtc)
	}
	unreserved := max(v.BitcoinCount()-reserved, 0)

	maxBitcoins := numeric.Divide(circulation/2*r.BtcVaultCapacityPct/100, pricePerBtc)
	scarcity := numeric.Clamp(numeric.Divide(unreserved, maxBitcoins), 0, 1)

	allowance := unreserved * scarcity * numeric.Divide(duration, latency)
	return min(bitcoinsNeeded, allowance)
}

// ManageSeigniorageProfits claws back burned circulation and added capital
// when capital exceeds circulation, so the price settles at par and the
// surplus is booked as seigniorage. Claw backs run in priority order:
// reserve spend, taxes pro rata, speculative greed then certainty greed.
func (m *Marker) ManageSeigniorageProfits(res *reserve.Reserve) {
	gap := m.CurrentCapital() - m.CurrentCirculation()
	if gap <= 0 {
		return
	}

	if spent := m.circulationRemoved[ReserveSpend]; spent > 0 {
		amount := min(gap, spent)
		dollars := m.reserveDollarsSpent * amount / spent

		m.circulationRemoved[ReserveSpend] -= amount
		m.seigniorage[SeigniorageReserveSpend] += amount
		m.reserveDollarsSpent -= dollars
		if res != nil {
			res.ReverseSpend(dollars)
		}
		gap -= amount
	}

	transactional := m.circulationRemoved[TransactionalTaxes]
	micropayment := m.circulationRemoved[MicropaymentTaxes]
	if taxes := transactional + micropayment; gap > 0 && taxes > 0 {
		amount := min(gap, taxes)
		fromTransactional := amount * transactional / taxes
		fromMicropayment := amount - fromTransactional

		m.circulationRemoved[TransactionalTaxes] -= fromTransactional
		m.circulationRemoved[MicropaymentTaxes] -= fromMicropayment
		m.seigniorage[SeigniorageTransactionalTaxes] += fromTransactional
		m.seigniorage[SeigniorageMicropaymentTaxes] += fromMicropayment
		gap -= amount
	}

	for _, src := range []CapitalAdd{SpeculativeGreed, CertaintyGreed} {
		if gap <= 0 {
			break
		}

		added := m.capitalAdded[src]
		if added <= 0 {
			continue
		}

		amount := min(gap, added)
		m.capitalAdded[src] -= amount
		m.seigniorage[Seigniorage(src)] += amount
		gap -= amount
	}
}

// wageProtected inflates micropayments by how far the price sits below par.
func wageProtected(micropayments float64, price float64) float64 {
	index := inflationIndex(price)
	if index <= 100 {
		return micropayments
	}
	return micropayments * (1 + (index-100)/100)
}

func inflationIndex(price float64) float64 {
	return 100 * (1 + numeric.Divide(1-price, price))
}
