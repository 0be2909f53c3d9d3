package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/argonsim/business/sys/validate"
	"github.com/ardanlabs/argonsim/foundation/events"
	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/reserve"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
	"github.com/ardanlabs/argonsim/foundation/simulation/runner"
	"github.com/ardanlabs/argonsim/foundation/simulation/vault"
	"github.com/google/uuid"
)

// ErrInvalidResume is returned when a resume state cannot be rebuilt.
var ErrInvalidResume = errors.New("invalid resume state")

// ResumeState is the saved point a run continues from. Date is the
// starting date of the last marker and Circulation and Capital are its
// ending levels. Vault carries the full vault when it was saved, otherwise
// VaultMeta is rebuilt into a vault with the same totals. The reserve
// starts with the full fund when Reserve is nil.
type ResumeState struct {
	Date        string        `json:"date" validate:"required"`
	Circulation float64       `json:"circulation" validate:"gt=0"`
	Capital     float64       `json:"capital" validate:"gte=0"`
	Vault       *vault.State  `json:"vault,omitempty"`
	VaultMeta   *vault.Meta   `json:"vaultMeta,omitempty"`
	Reserve     *reserve.Meta `json:"reserve,omitempty"`
}

// ResumeFromSnapshot returns the state that continues after the marker.
func ResumeFromSnapshot(s marker.Snapshot) ResumeState {
	return ResumeState{
		Date:        s.StartingDate.Format(marketdata.DateLayout),
		Circulation: s.EndingCirculation,
		Capital:     s.EndingCapital,
		VaultMeta:   s.EndingVaultMeta,
		Reserve:     s.EndingReserveMeta,
	}
}

// Resume continues from the saved state through the named phases. Resumed
// runs are not kept in the run store since the store keys runs by
// scenario. Progress is sent to subscribers under a generated key.
func (c *Core) Resume(ctx context.Context, state ResumeState, phaseNames []string, r rules.Rules) (runner.Result, error) {
	if err := validate.Check(r); err != nil {
		return runner.Result{}, fmt.Errorf("validating rules: %w", err)
	}

	if err := validate.Check(state); err != nil {
		return runner.Result{}, fmt.Errorf("validating state: %w", err)
	}

	if len(phaseNames) == 0 {
		return runner.Result{}, fmt.Errorf("no phases: %w", ErrInvalidResume)
	}

	phases := make([]runner.Phase, len(phaseNames))
	for i, name := range phaseNames {
		p, err := runner.ParsePhase(name)
		if err != nil {
			return runner.Result{}, err
		}
		phases[i] = p
	}

	seed, err := c.seed(state)
	if err != nil {
		return runner.Result{}, err
	}

	key := "resume-" + uuid.NewString()

	cfg := c.runnerConfig(key, r)
	cfg.Resume = &seed

	c.log.Infow("resume", "status", "started", "key", key, "date", state.Date, "phases", phaseNames)

	start := time.Now()
	result, err := runner.New(cfg).RunPhases(ctx, phases)
	if err != nil {
		return runner.Result{}, fmt.Errorf("resuming from %s: %w", state.Date, err)
	}

	c.log.Infow("resume", "status", "completed", "key", key, "markers", len(result.Markers), "since", time.Since(start))

	c.send(events.KindDone, key, result.Phases)

	return result, nil
}

// seed rebuilds the runner seed from the saved state. The launch curve of
// the prebuilt scenarios is carried so a regrowth can follow.
func (c *Core) seed(state ResumeState) (runner.Seed, error) {
	date, err := marketdata.ParseDate(state.Date)
	if err != nil {
		return runner.Seed{}, fmt.Errorf("date: %w: %w", ErrInvalidResume, err)
	}

	seed := runner.Seed{
		Date:        date,
		Circulation: state.Circulation,
		Capital:     state.Capital,
	}

	switch {
	case state.Vault != nil:
		v, err := vault.FromState(*state.Vault, c.data.BitcoinPrices)
		if err != nil {
			return runner.Seed{}, fmt.Errorf("vault: %w: %w", ErrInvalidResume, err)
		}
		seed.Vault = v

	case state.VaultMeta != nil:
		seed.Vault = vault.NewFromMeta(date, *state.VaultMeta, c.data.BitcoinPrices)
	}

	if state.Reserve != nil {
		seed.Reserve = reserve.FromMeta(*state.Reserve)
	}

	if p, err := runner.ParsePhase(string(runner.PhaseLaunch)); err == nil {
		if launch, ok := p.(runner.Launch); ok {
			seed.Launch = &launch
		}
	}

	return seed, nil
}
