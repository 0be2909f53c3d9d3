package runner

import (
	"context"

	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
)

// runRecovery restarts from the last marker's circulation at its price and
// runs the recovery mechanisms until the price holds at par. The vault
// prices bitcoin at the rules override for the length of the phase.
func (r *Runner) runRecovery(ctx context.Context, p Recovery) error {
	state := carry(r.latest)
	state.capital = marker.CapitalFromCirculationAndPrice(state.circulation, r.latest.CurrentPrice())

	r.vault.SetPricePerBtcOverride(r.rules.BtcPriceOverride)
	defer r.vault.SetPricePerBtcOverride(0)

	r.beginPhase(PhaseRecovery)
	defer r.endPhase(PhaseRecovery)

	return r.recover(ctx, PhaseRecovery, p, state)
}

// runCollapsingRecovery replays the crash while the recovery mechanisms
// fight it, then keeps recovering once the crash data runs out.
func (r *Runner) runCollapsingRecovery(ctx context.Context, p CollapsingRecovery) error {
	r.vault.SetPricePerBtcOverride(r.rules.BtcPriceOverride)
	defer r.vault.SetPricePerBtcOverride(0)

	r.beginPhase(PhaseCollapsingRecovery)
	defer r.endPhase(PhaseCollapsingRecovery)

	state, err := r.replayCrash(ctx, PhaseCollapsingRecovery, true)
	if err != nil {
		return err
	}

	return r.recover(ctx, PhaseCollapsingRecovery, p.Recovery, state)
}

// recover runs one marker per period until the price is stable at par,
// the hard end date is reached, or after the hope date the price has not
// improved over the lookback.
func (r *Runner) recover(ctx context.Context, name PhaseName, p Recovery, state ledger) error {
	var stable int
	first := true

	for stable < p.StableMarkers && state.date.Before(p.MustEndBefore) {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.vault.SetDate(state.date)

		m := r.newMarker(name, state.date, state.circulation, state.capital)
		if m.StartingCirculation() <= 0 {
			return ErrNoStartingSupply
		}

		m.RunRecovery(r.rules, r.history, r.vault)
		m.ManageSeigniorageProfits(r.reserve)

		if first || (!atPar(m.StartingPrice()) && atPar(m.CurrentPrice())) {
			m.ShowPointOnChart = true
		}
		first = false

		lookbackPrice, lookbackFull := r.lookbackStartingPrice()
		r.addMarker(m)

		state = carry(m)

		price := m.CurrentPrice()
		if state.date.After(p.HopeUntil) && lookbackFull && !atPar(price) && price <= lookbackPrice {
			r.evHandler("runner: %s: no hope of recovery: date[%s]: price[%.6f]", name, state.date.Format(marketdata.DateLayout), price)
			break
		}

		if atPar(m.StartingPrice()) && atPar(price) {
			stable++
			continue
		}
		stable = 0
	}

	return nil
}

// lookbackStartingPrice returns the starting price of the marker that will
// sit noHopeLookback markers back once the next marker is added. The
// boolean is false until that much history exists.
func (r *Runner) lookbackStartingPrice() (float64, bool) {
	if len(r.startingPrices) < noHopeLookback-1 {
		return 0, false
	}
	return r.startingPrices[len(r.startingPrices)-(noHopeLookback-1)], true
}
