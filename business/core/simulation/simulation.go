// Package simulation is the application core for running scenarios. It
// validates the rules, answers repeated requests from the run store, runs
// new scenarios and streams their progress to subscribers.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/argonsim/business/data/runstore"
	"github.com/ardanlabs/argonsim/business/sys/validate"
	"github.com/ardanlabs/argonsim/foundation/events"
	"github.com/ardanlabs/argonsim/foundation/simulation/inflation"
	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
	"github.com/ardanlabs/argonsim/foundation/simulation/runner"
	"go.uber.org/zap"
)

// DefaultEmitEvery is the marker batch size used when none is requested.
const DefaultEmitEvery = 100

// ErrNoBitcoinPrices is returned when a quote is requested without price data.
var ErrNoBitcoinPrices = errors.New("no bitcoin price data loaded")

// Config represents the mandatory systems required by the core.
type Config struct {
	Log         *zap.SugaredLogger
	Data        marketdata.Data
	DataVersion string
	Store       runstore.Storer
	Evts        *events.Events
	EmitEvery   int
}

// Core manages the set of APIs for simulation access.
type Core struct {
	log         *zap.SugaredLogger
	data        marketdata.Data
	dataVersion string
	store       runstore.Storer
	evts        *events.Events
	emitEvery   int
}

// NewCore constructs a core for simulation api access. A nil store never
// remembers runs and nil events sends nothing.
func NewCore(cfg Config) *Core {
	store := cfg.Store
	if store == nil {
		store = runstore.Noop{}
	}

	emitEvery := cfg.EmitEvery
	if emitEvery <= 0 {
		emitEvery = DefaultEmitEvery
	}

	return &Core{
		log:         cfg.Log,
		data:        cfg.Data,
		dataVersion: cfg.DataVersion,
		store:       store,
		evts:        cfg.Evts,
		emitEvery:   emitEvery,
	}
}

// DefaultRules returns the baseline rules.
func (c *Core) DefaultRules() rules.Rules {
	return rules.Default()
}

// Run returns the run for the scenario and rules. A run already in the
// store is returned without running again and the boolean reports that.
// Markers of a new run are sent to subscribers in batches as they are
// produced.
func (c *Core) Run(ctx context.Context, scenario runner.Scenario, r rules.Rules) (runstore.Run, bool, error) {
	if _, err := runner.ParseScenario(string(scenario)); err != nil {
		return runstore.Run{}, false, err
	}

	if err := validate.Check(r); err != nil {
		return runstore.Run{}, false, fmt.Errorf("validating rules: %w", err)
	}

	key, err := runstore.Key(scenario, r, c.dataVersion)
	if err != nil {
		return runstore.Run{}, false, err
	}

	run, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		c.log.Infow("run", "status", "found in store", "key", key, "scenario", scenario)
		c.send(events.KindDone, key, run.Result.Phases)
		return run, true, nil

	case !errors.Is(err, runstore.ErrNotFound):
		c.log.Errorw("run", "status", "store lookup failed", "key", key, "ERROR", err)
	}

	rnr := runner.New(c.runnerConfig(key, r))

	start := time.Now()
	result, err := rnr.RunScenario(ctx, scenario)
	if err != nil {
		return runstore.Run{}, false, fmt.Errorf("running %s: %w", scenario, err)
	}

	run = runstore.Run{
		Key:         key,
		Scenario:    scenario,
		Rules:       r,
		DataVersion: c.dataVersion,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}

	c.log.Infow("run", "status", "completed", "key", key, "scenario", scenario, "markers", len(result.Markers), "since", time.Since(start))

	// A failure to store only costs a future rerun.
	if err := c.store.Put(ctx, run); err != nil {
		c.log.Errorw("run", "status", "store put failed", "key", key, "ERROR", err)
	}

	c.send(events.KindDone, key, result.Phases)

	return run, false, nil
}

// Dollar walks the dollar price over the date range using the CPI table
// and the annual inflation of the rules where the table has no data.
func (c *Core) Dollar(ctx context.Context, r rules.Rules, start time.Time, end time.Time) ([]inflation.Marker, error) {
	if err := validate.Check(r); err != nil {
		return nil, fmt.Errorf("validating rules: %w", err)
	}

	return inflation.New(c.data.CPI, r.DollarInflation).Generate(ctx, start, end)
}

// BitcoinQuote is the market data for one date.
type BitcoinQuote struct {
	Date        string  `json:"date"`
	Price       float64 `json:"price"`
	FeeInBtc    float64 `json:"feeInBtc,omitempty"`
	FeeInDollar float64 `json:"feeInDollar,omitempty"`
}

// Bitcoin returns the bitcoin price and transaction fee for the date,
// falling back to the nearest prior date with data.
func (c *Core) Bitcoin(date time.Time) (BitcoinQuote, error) {
	if c.data.BitcoinPrices == nil {
		return BitcoinQuote{}, ErrNoBitcoinPrices
	}

	price, exists := c.data.BitcoinPrices.At(date)
	if !exists {
		return BitcoinQuote{}, fmt.Errorf("bitcoin price %s: %w", date.Format(marketdata.DateLayout), marketdata.ErrNoData)
	}

	quote := BitcoinQuote{
		Date:  date.Format(marketdata.DateLayout),
		Price: price,
	}

	if c.data.BitcoinFees != nil {
		if fee, err := c.data.BitcoinFees.InBitcoins(date); err == nil {
			quote.FeeInBtc = fee
		}
		if fee, err := c.data.BitcoinFees.InDollars(date); err == nil {
			quote.FeeInDollar = fee
		}
	}

	return quote, nil
}

// =============================================================================

// send delivers a message to the event subscribers.
// runnerConfig builds the runner configuration for the run key. The
// runner's progress messages are logged and sent to any websocket client
// connected to the events along with the marker batches.
func (c *Core) runnerConfig(key string, r rules.Rules) runner.Config {
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		c.log.Infow(s, "key", key)
		if c.evts != nil {
			c.evts.SendLog(key, s)
		}
	}

	onMarkers := func(markers []marker.Snapshot) {
		c.send(events.KindMarkers, key, markers)
	}

	return runner.Config{
		Rules:     r,
		Data:      c.data,
		EmitEvery: c.emitEvery,
		OnMarkers: onMarkers,
		EvHandler: ev,
	}
}

func (c *Core) send(kind string, key string, body any) {
	if c.evts == nil {
		return
	}

	msg, err := events.NewMessage(kind, key, body)
	if err != nil {
		c.log.Errorw("events", "status", "message failed", "kind", kind, "key", key, "ERROR", err)
		return
	}

	if dropped := c.evts.Send(msg); dropped > 0 {
		c.log.Infow("events", "status", "subscribers behind", "kind", kind, "key", key, "dropped", dropped)
	}
}
