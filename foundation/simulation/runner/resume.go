package runner

import (
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/reserve"
	"github.com/ardanlabs/argonsim/foundation/simulation/vault"
)

// Seed is the point an earlier run reached. Date is the starting date of
// its last marker and Circulation and Capital are that marker's ending
// levels. A nil Vault starts empty on Date and a nil Reserve starts with
// the full stabilization fund. Launch, when set, rebuilds the launch growth
// curve, which Regrowth needs to add anything.
type Seed struct {
	Date        time.Time
	Circulation float64
	Capital     float64
	Vault       *vault.Vault
	Reserve     *reserve.Reserve
	Launch      *Launch
}

// resume positions the runner after the seed's marker. The seed marker is
// never added to the run.
func (r *Runner) resume(s Seed) {
	date := marketdata.Day(s.Date)

	r.vault = s.Vault
	if r.vault == nil {
		r.vault = vault.New(date, r.data.BitcoinPrices)
	}

	if s.Reserve != nil {
		r.reserve = s.Reserve
	}

	r.latest = marker.New(date, durationInHours, s.Circulation, s.Capital)

	if s.Launch != nil {
		r.setGrowth(*s.Launch)
		r.growth.endCirculation = r.rules.Circulation
		r.growth.endCapital = r.rules.Circulation * launchPrice
	}

	r.evHandler("runner: resume: date[%s]: circulation[%.2f]: price[%.6f]", date.Format(marketdata.DateLayout), s.Circulation, r.latest.CurrentPrice())
}
