package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
)

// ledger is the state carried from one marker to the next.
type ledger struct {
	date        time.Time
	circulation float64
	capital     float64
}

// carry returns the state the next marker starts from.
func carry(m *marker.Marker) ledger {
	return ledger{
		date:        m.NextDate(),
		circulation: m.CurrentCirculation(),
		capital:     m.CurrentCapital(),
	}
}

// =============================================================================

// runCollapse replays the crash and then flatlines.
func (r *Runner) runCollapse(ctx context.Context, p Collapse) error {
	r.beginPhase(PhaseCollapse)
	defer r.endPhase(PhaseCollapse)

	state, err := r.replayCrash(ctx, PhaseCollapse, false)
	if err != nil {
		return err
	}

	for i := range p.FlatlineMarkers {
		if err := ctx.Err(); err != nil {
			return err
		}

		m := r.newMarker(PhaseCollapse, state.date, state.circulation, state.capital)
		if i == 0 {
			m.ShowPointOnChart = true
		}
		r.addMarker(m)

		state = carry(m)
	}

	return nil
}

// runCollapsedForever carries the last marker forward unchanged.
func (r *Runner) runCollapsedForever(ctx context.Context, p CollapsedForever) error {
	state := carry(r.latest)
	state.capital = marker.CapitalFromCirculationAndPrice(state.circulation, r.latest.CurrentPrice())

	r.beginPhase(PhaseCollapsedForever)
	defer r.endPhase(PhaseCollapsedForever)

	for !state.date.After(p.Through) {
		if err := ctx.Err(); err != nil {
			return err
		}

		m := r.newMarker(PhaseCollapsedForever, state.date, state.circulation, state.capital)
		r.addMarker(m)

		state = carry(m)
	}

	return nil
}

// replayCrash walks the crash scenario one day per marker starting the
// day after the last marker. Rows dated before that day are skipped; every
// other row must fall on the simulated date. The replay restarts from the
// target circulation priced at the last marker's price. Each day removes
// the observed capital outflow and buys back the observed circulation
// burn with the reserve. When recovering, the vault moves to each day
// before the marker starts and the recovery mechanisms run before the
// marker is finalized.
func (r *Runner) replayCrash(ctx context.Context, name PhaseName, recovering bool) (ledger, error) {
	if len(r.data.CrashScenario) == 0 {
		return ledger{}, ErrNoCrashScenario
	}

	state := ledger{
		date:        r.latest.NextDate(),
		circulation: r.rules.Circulation,
		capital:     marker.CapitalFromCirculationAndPrice(r.rules.Circulation, r.latest.CurrentPrice()),
	}

	var replayed int
	for _, day := range r.data.CrashScenario {
		if err := ctx.Err(); err != nil {
			return ledger{}, err
		}

		if day.Date.Before(state.date) {
			continue
		}

		if !day.Date.Equal(state.date) {
			return ledger{}, fmt.Errorf("scenario[%s] simulated[%s]: %w",
				day.Date.Format(marketdata.DateLayout), state.date.Format(marketdata.DateLayout), ErrScenarioDesync)
		}

		if recovering {
			r.vault.SetDate(state.date)
		}

		m := r.newMarker(name, state.date, state.circulation, state.capital)
		m.RemoveCapital(day.CapitalOutflow, marker.TerraCollapse)
		m.RemoveCirculationUsingReserveCapital(day.CirculationBurned, r.reserve)
		m.ManageSeigniorageProfits(r.reserve)

		if recovering {
			m.RunRecovery(r.rules, r.history, r.vault)
			m.ManageSeigniorageProfits(r.reserve)
		}

		r.addMarker(m)
		replayed++

		state = carry(m)
	}

	if replayed == 0 {
		return ledger{}, fmt.Errorf("on or after %s: %w", state.date.Format(marketdata.DateLayout), ErrNoCrashScenario)
	}

	return state, nil
}
