// Package runner sequences markers through the phases of a scenario. A
// Runner owns the reserve, the vault and the marker history of exactly one
// run. Periods are strictly sequential: each marker is built, mutated by
// its phase and finalized before the next one starts from its ending
// circulation and capital.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/reserve"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
	"github.com/ardanlabs/argonsim/foundation/simulation/vault"
)

// Dates that anchor the prebuilt scenarios.
var (
	TerraLaunchDate   = time.Date(2020, time.October, 1, 0, 0, 0, 0, time.UTC)
	TerraCollapseDate = time.Date(2022, time.May, 9, 0, 0, 0, 0, time.UTC)
	DefaultEndingDate = time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	MustEndBeforeDate = time.Date(2120, time.October, 1, 0, 0, 0, 0, time.UTC)
)

// TerraReserveFund is the size of the stabilization fund.
const TerraReserveFund = 3_000_000_000

// Cadence and halting parameters of the prebuilt scenarios.
const (
	durationInHours = 24
	flatlineMarkers = 20
	stableMarkers   = 20
	noHopeLookback  = 20
	chartPriceMove  = 0.05
	parTolerance    = 0.000000001
	launchPrice     = 1.00
)

// Set of errors that abort a run.
var (
	ErrScenarioDesync   = errors.New("crash scenario date does not match the simulated date")
	ErrNoCrashScenario  = errors.New("no crash scenario data")
	ErrAlreadyRan       = errors.New("runner already ran")
	ErrNoPriorPhase     = errors.New("phase requires a prior phase")
	ErrUnknownPhase     = errors.New("unknown phase")
	ErrUnknownScenario  = errors.New("unknown scenario")
	ErrNoStartingSupply = errors.New("no starting circulation")
)

// =============================================================================

// EventHandler defines a function that is called when events occur in the
// processing of a run.
type EventHandler func(v string, args ...any)

// Span is the index range of the markers produced by one phase.
type Span struct {
	FirstItem int `json:"firstItem"`
	LastItem  int `json:"lastItem"`
}

// Result is the complete output of a run.
type Result struct {
	Markers []marker.Snapshot `json:"markers"`
	Phases  map[PhaseName]Span `json:"phases"`
}

// Config represents the configuration required to construct a runner.
// OnMarkers, when set with a positive EmitEvery, receives batches of
// finalized markers as the run progresses. Markers already emitted may
// later gain a ShowPointOnChart hint; the Result is authoritative. Resume,
// when set, continues an earlier run instead of launching.
type Config struct {
	Rules     rules.Rules
	Data      marketdata.Data
	EmitEvery int
	OnMarkers func(markers []marker.Snapshot)
	EvHandler EventHandler
	Resume    *Seed
}

// growth holds the per-day increments of the launch curve and the levels
// the launch reached, which cap regrowth.
type growth struct {
	circulationPerDay   float64
	capitalPerDay       float64
	transactionsPerDay  float64
	micropaymentsPerDay float64
	endCirculation      float64
	endCapital          float64
}

// Runner drives a single simulation. A Runner is not safe for concurrent
// use and can run only once.
type Runner struct {
	rules     rules.Rules
	data      marketdata.Data
	emitEvery int
	onMarkers func(markers []marker.Snapshot)
	evHandler EventHandler

	reserve *reserve.Reserve
	vault   *vault.Vault

	ran            bool
	nextIdx        int
	phaseFirst     int
	latest         *marker.Marker
	history        []*marker.Marker
	maxHistory     int
	startingPrices []float64
	snapshots      []marker.Snapshot
	pending        int
	phases         map[PhaseName]Span
	growth         growth
}

// New constructs a runner for the specified rules and market data.
func New(cfg Config) *Runner {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// The greed models look back at most this many markers.
	maxHistory := max(
		int(math.Round(cfg.Rules.SpeculativeLatencyHigh/durationInHours)),
		int(math.Round(cfg.Rules.CertaintyLatencyHigh/durationInHours)),
	)
	if maxHistory <= 0 {
		maxHistory = 1
	}

	r := Runner{
		rules:      cfg.Rules,
		data:       cfg.Data,
		emitEvery:  cfg.EmitEvery,
		onMarkers:  cfg.OnMarkers,
		evHandler:  ev,
		reserve:    reserve.New(TerraReserveFund, 0),
		vault:      vault.New(TerraLaunchDate, cfg.Data.BitcoinPrices),
		maxHistory: maxHistory,
		phases:     make(map[PhaseName]Span),
	}

	if cfg.Resume != nil {
		r.resume(*cfg.Resume)
	}

	return &r
}

// RunScenario runs every phase of the scenario and returns the markers and
// the phase table.
func (r *Runner) RunScenario(ctx context.Context, scenario Scenario) (Result, error) {
	phases, err := scenario.Phases()
	if err != nil {
		return Result{}, err
	}

	r.evHandler("runner: RunScenario: started: scenario[%s]", scenario)

	result, err := r.RunPhases(ctx, phases)
	if err != nil {
		return Result{}, err
	}

	r.evHandler("runner: RunScenario: completed: scenario[%s]: markers[%d]", scenario, len(result.Markers))

	return result, nil
}

// RunPhases runs the phases in order and returns the markers and the phase
// table. A resumed runner starts with a phase other than Launch.
func (r *Runner) RunPhases(ctx context.Context, phases []Phase) (Result, error) {
	if r.ran {
		return Result{}, ErrAlreadyRan
	}
	r.ran = true

	for _, phase := range phases {
		if phase == nil {
			return Result{}, ErrUnknownPhase
		}
		if err := r.RunPhase(ctx, phase); err != nil {
			return Result{}, fmt.Errorf("%s: %w", phase.Name(), err)
		}
	}

	return r.Finish(), nil
}

// Finish flags the last marker for charting, flushes any markers not yet
// emitted and returns the result. It is called by RunScenario and is only
// needed when phases are run individually.
func (r *Runner) Finish() Result {
	if n := len(r.snapshots); n > 0 {
		r.latest.ShowPointOnChart = true
		r.snapshots[n-1].ShowPointOnChart = true
	}

	if r.pending > 0 {
		r.emit()
	}

	phases := make(map[PhaseName]Span, len(r.phases))
	for name, span := range r.phases {
		phases[name] = span
	}

	return Result{
		Markers: slices.Clone(r.snapshots),
		Phases:  phases,
	}
}

// Reserve returns the reserve owned by the run.
func (r *Runner) Reserve() *reserve.Reserve {
	return r.reserve
}

// Vault returns the vault owned by the run.
func (r *Runner) Vault() *vault.Vault {
	return r.vault
}

// =============================================================================

// newMarker constructs the next marker of the current phase. The marker
// starts with the steady state transaction volumes from the rules.
func (r *Runner) newMarker(name PhaseName, date time.Time, circulation float64, capital float64) *marker.Marker {
	m := marker.New(date, durationInHours, circulation, capital)
	m.Idx = r.nextIdx
	m.Phase = string(name)
	m.SetAnnualTransactions(r.rules.TransactionsAnnually)
	m.SetAnnualMicropayments(r.rules.MicropaymentsAnnually)
	m.Begin(r.vault, r.reserve)

	r.nextIdx++

	return m
}

// addMarker finalizes the marker and appends it to the run. Markers whose
// price moved sharply from the previous one are flagged for charting along
// with that previous marker.
func (r *Runner) addMarker(m *marker.Marker) {
	m.End(r.vault, r.reserve)

	if m.Idx == r.phaseFirst {
		m.ShowPointOnChart = true
	}

	// A resumed run starts with a latest marker that was never added.
	if r.latest != nil && len(r.snapshots) > 0 && math.Abs(m.CurrentPrice()-r.latest.CurrentPrice()) >= chartPriceMove {
		r.latest.ShowPointOnChart = true
		r.snapshots[len(r.snapshots)-1].ShowPointOnChart = true
		m.ShowPointOnChart = true
	}

	r.snapshots = append(r.snapshots, m.Snapshot())
	r.latest = m

	// Only the lookback window of the greed models is kept.
	r.history = append(r.history, m)
	if len(r.history) > r.maxHistory {
		r.history = slices.Delete(r.history, 0, len(r.history)-r.maxHistory)
	}

	r.startingPrices = append(r.startingPrices, m.StartingPrice())
	if len(r.startingPrices) > noHopeLookback {
		r.startingPrices = r.startingPrices[1:]
	}

	r.pending++
	if r.emitEvery > 0 && r.pending >= r.emitEvery {
		r.emit()
	}
}

// emit hands the markers finalized since the last emission to the
// callback.
func (r *Runner) emit() {
	if r.onMarkers != nil && r.emitEvery > 0 {
		r.onMarkers(slices.Clone(r.snapshots[len(r.snapshots)-r.pending:]))
	}
	r.pending = 0
}

// beginPhase marks the next marker as the first of the phase.
func (r *Runner) beginPhase(name PhaseName) {
	r.phaseFirst = r.nextIdx
	r.evHandler("runner: %s: started: idx[%d]", name, r.nextIdx)
}

// endPhase records the span of the markers produced since beginPhase.
func (r *Runner) endPhase(name PhaseName) {
	if r.nextIdx > r.phaseFirst {
		r.phases[name] = Span{FirstItem: r.phaseFirst, LastItem: r.nextIdx - 1}
	}

	var price float64
	if r.latest != nil {
		price = r.latest.CurrentPrice()
	}
	r.evHandler("runner: %s: completed: markers[%d]: price[%.6f]", name, r.nextIdx-r.phaseFirst, price)
}

// atPar reports whether the price reached par. Clawing back seigniorage
// settles the price at par up to rounding.
func atPar(price float64) bool {
	return price >= marker.MaximumPrice-parTolerance
}
