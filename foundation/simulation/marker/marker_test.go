package marker_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/reserve"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
	"github.com/ardanlabs/argonsim/foundation/simulation/vault"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const tolerance = 0.000001

func equal(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*max(1, math.Abs(b))
}

var startDate = time.Date(2022, time.July, 4, 0, 0, 0, 0, time.UTC)

// =============================================================================

func TestPrice(t *testing.T) {
	t.Log("Given the need to price a marker.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen circulation and capital are both zero.", testID)
		{
			m := marker.New(startDate, 24, 0, 0)
			if m.CurrentPrice() != 1 || m.StartingPrice() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould price at par : got %v", failed, testID, m.CurrentPrice())
			}
			t.Logf("\t%s\tTest %d:\tShould price at par.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen capital flows out.", testID)
		{
			m := marker.New(startDate, 24, 1_000_000, 1_000_000)
			removed := m.RemoveCapital(5_000_000, marker.TerraCollapse)

			if !equal(removed, 999_000) {
				t.Fatalf("\t%s\tTest %d:\tShould stop at the minimum price : got %v", failed, testID, removed)
			}
			if !equal(m.CurrentPrice(), marker.MinimumPrice) {
				t.Fatalf("\t%s\tTest %d:\tShould floor the price : got %v", failed, testID, m.CurrentPrice())
			}
			t.Logf("\t%s\tTest %d:\tShould floor the price.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reading the period dates.", testID)
		{
			m := marker.New(startDate, 24, 1, 1)

			if !m.NextDate().Equal(startDate.AddDate(0, 0, 1)) {
				t.Fatalf("\t%s\tTest %d:\tShould start the next period a day later : got %v", failed, testID, m.NextDate())
			}
			t.Logf("\t%s\tTest %d:\tShould start the next period a day later.", success, testID)

			if !m.EndingDate().Before(m.NextDate()) || m.EndingDate().Before(startDate) {
				t.Fatalf("\t%s\tTest %d:\tShould end inside the period : got %v", failed, testID, m.EndingDate())
			}
			t.Logf("\t%s\tTest %d:\tShould end inside the period.", success, testID)
		}
	}
}

func TestRunTaxation(t *testing.T) {
	r := rules.Default()

	t.Log("Given the need to burn taxes.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the price is half of par.", testID)
		{
			m := marker.New(startDate, 24, 10_000_000, 5_000_000)
			m.SetAnnualTransactions(r.TransactionsAnnually)
			m.SetAnnualMicropayments(r.MicropaymentsAnnually)
			m.RunTaxation(r)

			expTx := r.TransactionsAnnually / 365 * 0.20
			if got := m.CirculationRemovedBy(marker.TransactionalTaxes); !equal(got, expTx) {
				t.Fatalf("\t%s\tTest %d:\tShould burn a fifth of transactions : got %v, exp %v", failed, testID, got, expTx)
			}
			t.Logf("\t%s\tTest %d:\tShould burn a fifth of transactions.", success, testID)

			expMp := r.MicropaymentsAnnually / 365 * 2 * 0.20
			if got := m.CirculationRemovedBy(marker.MicropaymentTaxes); !equal(got, expMp) {
				t.Fatalf("\t%s\tTest %d:\tShould protect wages : got %v, exp %v", failed, testID, got, expMp)
			}
			t.Logf("\t%s\tTest %d:\tShould protect wages.", success, testID)

			expPct := (5_000_000/(10_000_000-expTx-expMp)/0.5 - 1) * 100
			if !equal(m.PctIncreaseFromTaxation(), expPct) {
				t.Fatalf("\t%s\tTest %d:\tShould record the taxation return : got %v, exp %v", failed, testID, m.PctIncreaseFromTaxation(), expPct)
			}
			t.Logf("\t%s\tTest %d:\tShould record the taxation return.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen taxation is disabled.", testID)
		{
			disabled := r
			disabled.EnableTaxation = false

			m := marker.New(startDate, 24, 10_000_000, 5_000_000)
			m.SetAnnualTransactions(r.TransactionsAnnually)
			m.RunTaxation(disabled)

			if m.CurrentCirculation() != 10_000_000 {
				t.Fatalf("\t%s\tTest %d:\tShould not burn : got %v", failed, testID, m.CurrentCirculation())
			}
			t.Logf("\t%s\tTest %d:\tShould not burn.", success, testID)
		}
	}
}

func TestRunRecovery(t *testing.T) {
	r := rules.Default()

	t.Log("Given the need to recover the price in a single day.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the vault can absorb all excess circulation.", testID)
		{
			v := vault.NewFromMeta(startDate, vault.Meta{
				BitcoinCount:            100_000,
				DollarsPerBitcoinLock:   10_000,
				DollarsPerBitcoinUnlock: 10_000,
			}, nil)
			v.SetPricePerBtcOverride(10_000)
			res := reserve.New(0, 3_000_000_000)

			m := marker.New(startDate, 24, 10_000_000, 5_000_000)
			m.SetAnnualTransactions(r.TransactionsAnnually)
			m.SetAnnualMicropayments(r.MicropaymentsAnnually)
			m.RunRecovery(r, nil, v)
			m.ManageSeigniorageProfits(res)

			if m.StartingPrice() != 0.5 {
				t.Fatalf("\t%s\tTest %d:\tShould start at half of par : got %v", failed, testID, m.StartingPrice())
			}
			t.Logf("\t%s\tTest %d:\tShould start at half of par.", success, testID)

			if !equal(m.CurrentPrice(), 1) {
				t.Fatalf("\t%s\tTest %d:\tShould end at par : got %v", failed, testID, m.CurrentPrice())
			}
			t.Logf("\t%s\tTest %d:\tShould end at par.", success, testID)

			if m.CirculationRemovedBy(marker.BitcoinFusion) <= 0 || v.BitcoinCount() >= 100_000 {
				t.Fatalf("\t%s\tTest %d:\tShould burn with bitcoins.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould burn with bitcoins.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the price is already at par.", testID)
		{
			v := vault.NewFromMeta(startDate, vault.Meta{BitcoinCount: 10, DollarsPerBitcoinUnlock: 10_000}, nil)
			v.SetPricePerBtcOverride(10_000)

			m := marker.New(startDate, 24, 1_000, 1_000)
			m.SetAnnualTransactions(r.TransactionsAnnually)
			m.RunRecovery(r, nil, v)

			if m.CurrentCirculation() != 1_000 || m.CurrentCapital() != 1_000 {
				t.Fatalf("\t%s\tTest %d:\tShould skip every mechanism.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould skip every mechanism.", success, testID)
		}
	}
}

func TestBitcoinFusionThrottle(t *testing.T) {
	r := rules.Default()
	r.EnableTaxation = false

	t.Log("Given the need to throttle unvaulting below par.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen few bitcoins remain in the vault.", testID)
		{
			v := vault.NewFromMeta(startDate, vault.Meta{
				BitcoinCount:            10,
				DollarsPerBitcoinLock:   10_000,
				DollarsPerBitcoinUnlock: 10_000,
			}, nil)
			v.SetPricePerBtcOverride(10_000)

			m := marker.New(startDate, 24, 10_000_000, 5_000_000)
			m.RunBitcoinFusion(r, v)

			latency := r.UnvaultLatencyInHours * (0.98 - 0.5) / 0.98
			scarcity := 10 / (5_000_000.0 / 10_000)
			bitcoins := 10 * scarcity * 24 / latency
			exp := bitcoins * 10_000 * vault.UnlockBurnPerBitcoinDollar(0.5)

			if got := m.CirculationRemovedBy(marker.BitcoinFusion); !equal(got, exp) {
				t.Fatalf("\t%s\tTest %d:\tShould release a throttled amount : got %v, exp %v", failed, testID, got, exp)
			}
			t.Logf("\t%s\tTest %d:\tShould release a throttled amount.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the hourly cap binds.", testID)
		{
			capped := r
			capped.BtcMaxTxnsPerHour = 0.5

			v := vault.NewFromMeta(startDate, vault.Meta{
				BitcoinCount:            100_000,
				DollarsPerBitcoinLock:   10_000,
				DollarsPerBitcoinUnlock: 10_000,
			}, nil)
			v.SetPricePerBtcOverride(10_000)

			m := marker.New(startDate, 24, 10_000_000, 9_000_000)
			m.RunBitcoinFusion(capped, v)

			if !equal(v.BitcoinCount(), 100_000-12) {
				t.Fatalf("\t%s\tTest %d:\tShould unvault at most the cap : got %v", failed, testID, v.BitcoinCount())
			}
			t.Logf("\t%s\tTest %d:\tShould unvault at most the cap.", success, testID)
		}
	}
}

// history builds finalized markers whose realized return is pct percent.
func history(pcts ...float64) []*marker.Marker {
	var markers []*marker.Marker
	for i, pct := range pcts {
		m := marker.New(startDate.AddDate(0, 0, i-len(pcts)), 24, 100, 100)
		m.AddCapital(pct, marker.CapitalTerraGrowth)
		markers = append(markers, m)
	}
	return markers
}

func TestGreed(t *testing.T) {
	type table struct {
		name    string
		latLow  float64
		latHigh float64
		within  float64
		history []*marker.Marker
		exp     float64
	}

	tt := []table{
		{name: "no-history", latLow: 24, latHigh: 48, history: nil, exp: 0},
		{name: "short-history", latLow: 72, latHigh: 96, history: history(30, 30), exp: 0},
		{name: "veto", latLow: 24, latHigh: 48, history: history(30, 5), exp: 0},
		{name: "full", latLow: 24, latHigh: 48, history: history(30, 30), exp: 0.5 * 130},
		{name: "full-window-only", latLow: 24, latHigh: 48, history: history(0, 30, 30), exp: 0.5 * 130},
		{name: "partial", latLow: 24, latHigh: 48, history: history(15, 15), exp: 0.5 * 115 * 0.5 / 24},
		{name: "floored", latLow: 24, latHigh: 48, history: history(0, 20), exp: 0.5 * 120 * 0.5 / 24},
		{name: "veto-unbounded", latLow: 48, latHigh: 48, within: 0, history: history(5, 30), exp: 0},
		{name: "veto-within-day", latLow: 48, latHigh: 48, within: 24, history: history(5, 30), exp: 0.5 * 130},
		{name: "negative-latency", latLow: -24, latHigh: 48, history: history(30, 30), exp: 0.5 * 130},
	}

	t.Log("Given the need to attract speculative capital.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the lookback is %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					r := rules.Default()
					r.SpeculativeLatencyLow = tst.latLow
					r.SpeculativeLatencyHigh = tst.latHigh
					r.SpeculativeGreedWithinHours = tst.within

					m := marker.New(startDate, 24, 1_000, 500)
					m.RunSpeculativeGreed(r, tst.history)

					got := m.CapitalAddedBy(marker.SpeculativeGreed)
					if !equal(got, tst.exp) {
						t.Fatalf("\t%s\tTest %d:\tShould add the right capital : got %v, exp %v", failed, testID, got, tst.exp)
					}
					t.Logf("\t%s\tTest %d:\tShould add the right capital.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestManageSeigniorageProfits(t *testing.T) {
	t.Log("Given the need to keep the price from rising above par.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen every mechanism must be clawed back.", testID)
		{
			res := reserve.New(100, 0)

			m := marker.New(startDate, 24, 1_000, 1_000)
			m.RemoveCirculation(50, marker.TransactionalTaxes)
			m.RemoveCirculation(30, marker.MicropaymentTaxes)
			m.AddCapital(20, marker.SpeculativeGreed)
			m.AddCapital(10, marker.CertaintyGreed)
			m.RemoveCirculationUsingReserveCapital(40, res)

			if res.AmountRemaining() >= 100 {
				t.Fatalf("\t%s\tTest %d:\tShould spend the reserve.", failed, testID)
			}

			m.ManageSeigniorageProfits(res)

			exp := map[marker.Seigniorage]float64{
				marker.SeigniorageReserveSpend:       40,
				marker.SeigniorageTransactionalTaxes: 50,
				marker.SeigniorageMicropaymentTaxes:  30,
				marker.SeigniorageSpeculativeGreed:   20,
				marker.SeigniorageCertaintyGreed:     10,
			}
			for src, amount := range exp {
				if got := m.SeigniorageFrom(src); !equal(got, amount) {
					t.Fatalf("\t%s\tTest %d:\tShould claw back %s : got %v, exp %v", failed, testID, src, got, amount)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould claw back every mechanism.", success, testID)

			if !equal(res.AmountRemaining(), 100) {
				t.Fatalf("\t%s\tTest %d:\tShould refund the reserve : got %v", failed, testID, res.AmountRemaining())
			}
			t.Logf("\t%s\tTest %d:\tShould refund the reserve.", success, testID)

			if !equal(m.CurrentPrice(), 1) {
				t.Fatalf("\t%s\tTest %d:\tShould settle at par : got %v", failed, testID, m.CurrentPrice())
			}
			t.Logf("\t%s\tTest %d:\tShould settle at par.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen taxes overshoot par.", testID)
		{
			m := marker.New(startDate, 24, 1_000, 960)
			m.RemoveCirculation(60, marker.TransactionalTaxes)
			m.RemoveCirculation(20, marker.MicropaymentTaxes)
			m.ManageSeigniorageProfits(nil)

			if !equal(m.SeigniorageFrom(marker.SeigniorageTransactionalTaxes), 30) || !equal(m.SeigniorageFrom(marker.SeigniorageMicropaymentTaxes), 10) {
				t.Fatalf("\t%s\tTest %d:\tShould claw back pro rata : got %v %v", failed, testID,
					m.SeigniorageFrom(marker.SeigniorageTransactionalTaxes), m.SeigniorageFrom(marker.SeigniorageMicropaymentTaxes))
			}
			t.Logf("\t%s\tTest %d:\tShould claw back pro rata.", success, testID)

			if !equal(m.CurrentPrice(), 1) {
				t.Fatalf("\t%s\tTest %d:\tShould settle at par : got %v", failed, testID, m.CurrentPrice())
			}
			t.Logf("\t%s\tTest %d:\tShould settle at par.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the price is below par.", testID)
		{
			m := marker.New(startDate, 24, 1_000, 500)
			m.RemoveCirculation(100, marker.TransactionalTaxes)
			m.ManageSeigniorageProfits(nil)

			if m.SeigniorageFrom(marker.SeigniorageTransactionalTaxes) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not claw back.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not claw back.", success, testID)
		}
	}
}

func TestReserveBuyback(t *testing.T) {
	t.Log("Given the need to buy back circulation with the reserve.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the reserve runs short.", testID)
		{
			res := reserve.New(100, 0)

			m := marker.New(startDate, 24, 1_000, 500)
			removed := m.RemoveCirculationUsingReserveCapital(400, res)

			if !equal(removed, 200) {
				t.Fatalf("\t%s\tTest %d:\tShould buy what the reserve affords : got %v", failed, testID, removed)
			}
			t.Logf("\t%s\tTest %d:\tShould buy what the reserve affords.", success, testID)

			if res.AmountRemaining() != 0 || res.AmountSpent() != 100 {
				t.Fatalf("\t%s\tTest %d:\tShould exhaust the reserve : got %+v", failed, testID, res.Meta(1))
			}
			t.Logf("\t%s\tTest %d:\tShould exhaust the reserve.", success, testID)
		}
	}
}

func TestLedgerInvariants(t *testing.T) {
	r := rules.Default()

	t.Log("Given the need to keep the marker ledger consistent.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen applying random mechanisms.", testID)
		{
			rnd := rand.New(rand.NewSource(7))

			for i := 0; i < 200; i++ {
				v := vault.NewFromMeta(startDate, vault.Meta{
					BitcoinCount:            rnd.Float64() * 1_000,
					DollarsPerBitcoinLock:   20_000,
					DollarsPerBitcoinUnlock: 20_000,
				}, nil)
				v.SetPricePerBtcOverride(10_000 + rnd.Float64()*30_000)
				fund := rnd.Float64() * 1_000_000
				res := reserve.New(fund, 0)

				circulation := 1_000_000 + rnd.Float64()*10_000_000
				m := marker.New(startDate, 24, circulation, circulation*rnd.Float64())
				m.SetAnnualTransactions(r.TransactionsAnnually * rnd.Float64())
				m.SetAnnualMicropayments(r.MicropaymentsAnnually * rnd.Float64())

				m.AddCirculation(rnd.Float64()*100_000, marker.CirculationTerraGrowth)
				m.RemoveCapital(rnd.Float64()*1_000_000, marker.TerraCollapse)
				m.RemoveCirculationUsingReserveCapital(rnd.Float64()*1_000_000, res)
				m.RunRecovery(r, history(30, 30), v)
				m.ManageSeigniorageProfits(res)

				s := m.Snapshot()

				circ := s.StartingCirculation
				for _, src := range marker.CirculationRemoves {
					circ -= s.CirculationRemovedMap[src]
				}
				for _, src := range marker.CirculationAdds {
					circ += s.CirculationAddedMap[src]
				}
				if !equal(circ, s.EndingCirculation) {
					t.Fatalf("\t%s\tTest %d:\tShould balance circulation on run %d : got %v, exp %v", failed, testID, i, circ, s.EndingCirculation)
				}

				capital := s.StartingCapital
				for _, src := range marker.CapitalRemoves {
					capital -= s.CapitalRemovedMap[src]
				}
				for _, src := range marker.CapitalAdds {
					capital += s.CapitalAddedMap[src]
				}
				if !equal(capital, s.EndingCapital) {
					t.Fatalf("\t%s\tTest %d:\tShould balance capital on run %d : got %v, exp %v", failed, testID, i, capital, s.EndingCapital)
				}

				if !equal(s.EndingPrice, s.EndingCapital/s.EndingCirculation) {
					t.Fatalf("\t%s\tTest %d:\tShould price capital over circulation on run %d.", failed, testID, i)
				}

				if s.EndingPrice > marker.MaximumPrice+tolerance {
					t.Fatalf("\t%s\tTest %d:\tShould not end above par on run %d : got %v", failed, testID, i, s.EndingPrice)
				}

				if sum := res.AmountRemaining() + res.AmountSpent(); !equal(sum, fund) {
					t.Fatalf("\t%s\tTest %d:\tShould keep the reserve balanced on run %d.", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould balance circulation.", success, testID)
			t.Logf("\t%s\tTest %d:\tShould balance capital.", success, testID)
			t.Logf("\t%s\tTest %d:\tShould price capital over circulation.", success, testID)
			t.Logf("\t%s\tTest %d:\tShould not end above par.", success, testID)
		}
	}
}
