package runner

import (
	"context"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/numeric"
)

// runLaunch grows the currency from nothing at par. Every day adds an
// equal slice of the target circulation and capital and of the annual
// transaction volumes, loads the vault and taxes.
func (r *Runner) runLaunch(ctx context.Context, p Launch) error {
	if r.latest != nil {
		return ErrAlreadyRan
	}

	r.setGrowth(p)

	r.beginPhase(PhaseLaunch)
	defer r.endPhase(PhaseLaunch)

	var annualTransactions float64
	var annualMicropayments float64
	var circulation float64
	var capital float64

	for date := p.Start; date.Before(p.EndBefore); {
		if err := ctx.Err(); err != nil {
			return err
		}

		annualTransactions += r.growth.transactionsPerDay
		annualMicropayments += r.growth.micropaymentsPerDay

		m := r.newMarker(PhaseLaunch, date, circulation, capital)
		m.AddCirculation(r.growth.circulationPerDay, marker.CirculationTerraGrowth)
		m.AddCapital(r.growth.capitalPerDay, marker.CapitalTerraGrowth)
		m.SetAnnualTransactions(annualTransactions)
		m.SetAnnualMicropayments(annualMicropayments)

		if err := r.vault.LoadForDate(m.CurrentCirculation(), date, r.rules); err != nil {
			return err
		}

		m.RunTaxation(r.rules)
		m.ManageSeigniorageProfits(r.reserve)

		r.addMarker(m)

		date = m.NextDate()
		circulation = m.CurrentCirculation()
		capital = m.CurrentCapital()
	}

	if r.latest != nil {
		r.growth.endCirculation = r.latest.CurrentCirculation()
		r.growth.endCapital = r.latest.CurrentCapital()
	}

	return nil
}

// setGrowth computes the per-day increments of the launch curve.
func (r *Runner) setGrowth(p Launch) {
	lengthInDays := float64(p.EndBefore.Sub(p.Start) / (durationInHours * time.Hour))

	r.growth.circulationPerDay = numeric.Divide(r.rules.Circulation, lengthInDays)
	r.growth.capitalPerDay = r.growth.circulationPerDay * launchPrice
	r.growth.transactionsPerDay = numeric.Divide(r.rules.TransactionsAnnually, lengthInDays)
	r.growth.micropaymentsPerDay = numeric.Divide(r.rules.MicropaymentsAnnually, lengthInDays)
}

// runRegrowth replays the launch curve from the last marker. Volumes
// restart from zero and every addition is capped at the launch levels.
func (r *Runner) runRegrowth(ctx context.Context, p Regrowth) error {
	date := r.latest.NextDate()
	circulation := r.latest.CurrentCirculation()
	capital := marker.CapitalFromCirculationAndPrice(circulation, r.latest.CurrentPrice())

	ending := p.DefaultEnding
	if !date.Before(p.DefaultEnding) {
		ending = endOfDecade(date)
	}

	r.beginPhase(PhaseRegrowth)
	defer r.endPhase(PhaseRegrowth)

	var annualTransactions float64
	var annualMicropayments float64

	for !date.After(ending) {
		if err := ctx.Err(); err != nil {
			return err
		}

		annualTransactions = min(annualTransactions+r.growth.transactionsPerDay, r.rules.TransactionsAnnually)
		annualMicropayments = min(annualMicropayments+r.growth.micropaymentsPerDay, r.rules.MicropaymentsAnnually)

		circulationToAdd := min(r.growth.circulationPerDay, r.growth.endCirculation-circulation)
		capitalToAdd := min(r.growth.capitalPerDay, r.growth.endCapital-capital)

		m := r.newMarker(PhaseRegrowth, date, circulation, capital)
		m.AddCirculation(circulationToAdd, marker.CirculationTerraGrowth)
		m.AddCapital(capitalToAdd, marker.CapitalTerraGrowth)
		m.SetAnnualTransactions(annualTransactions)
		m.SetAnnualMicropayments(annualMicropayments)

		if err := r.vault.LoadForDate(m.CurrentCirculation(), date, r.rules); err != nil {
			return err
		}

		m.RunTaxation(r.rules)
		m.ManageSeigniorageProfits(r.reserve)

		r.addMarker(m)

		date = m.NextDate()
		circulation = m.CurrentCirculation()
		capital = m.CurrentCapital()
	}

	return nil
}

// endOfDecade returns the last day of the year that closes the decade
// after the specified date.
func endOfDecade(date time.Time) time.Time {
	year := date.Year() + 10 - date.Year()%10
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}
