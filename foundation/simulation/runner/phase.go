package runner

import (
	"context"
	"fmt"
	"time"
)

// PhaseName is the key of a phase in the phase table.
type PhaseName string

// Set of phase names.
const (
	PhaseLaunch             PhaseName = "launch"
	PhaseCollapse           PhaseName = "collapse"
	PhaseRecovery           PhaseName = "recovery"
	PhaseCollapsingRecovery PhaseName = "collapsingRecovery"
	PhaseCollapsedForever   PhaseName = "collapsedForever"
	PhaseRegrowth           PhaseName = "regrowth"
)

// Phase is one of the phase variants defined by this package. The set is
// closed: RunPhase handles every variant.
type Phase interface {
	Name() PhaseName
	phase()
}

// Launch grows circulation and capital linearly from zero at par over
// [Start, EndBefore), loading the vault and taxing from the first day.
type Launch struct {
	Start     time.Time
	EndBefore time.Time
}

// Collapse replays the crash scenario starting the day after the last
// marker, then carries the result forward for FlatlineMarkers periods
// with no mechanisms.
type Collapse struct {
	FlatlineMarkers int
}

// Recovery runs the recovery mechanisms until StableMarkers consecutive
// markers start and end at par or MustEndBefore is reached. After
// HopeUntil it also stops once the price is no better than it was
// noHopeLookback markers earlier.
type Recovery struct {
	StableMarkers int
	HopeUntil     time.Time
	MustEndBefore time.Time
}

// CollapsingRecovery replays the crash scenario with the recovery
// mechanisms running every day, then recovers like Recovery.
type CollapsingRecovery struct {
	Recovery Recovery
}

// CollapsedForever carries the last marker forward with no mechanisms
// through the specified date.
type CollapsedForever struct {
	Through time.Time
}

// Regrowth replays the launch growth curve, capped at the levels the
// launch reached, through DefaultEnding or the end of the decade when the
// phase starts after DefaultEnding.
type Regrowth struct {
	DefaultEnding time.Time
}

func (Launch) Name() PhaseName             { return PhaseLaunch }
func (Collapse) Name() PhaseName           { return PhaseCollapse }
func (Recovery) Name() PhaseName           { return PhaseRecovery }
func (CollapsingRecovery) Name() PhaseName { return PhaseCollapsingRecovery }
func (CollapsedForever) Name() PhaseName   { return PhaseCollapsedForever }
func (Regrowth) Name() PhaseName           { return PhaseRegrowth }

func (Launch) phase()             {}
func (Collapse) phase()           {}
func (Recovery) phase()           {}
func (CollapsingRecovery) phase() {}
func (CollapsedForever) phase()   {}
func (Regrowth) phase()           {}

// =============================================================================

// RunPhase runs a single phase. Every phase except Launch continues from
// the last marker of the previous phase.
func (r *Runner) RunPhase(ctx context.Context, p Phase) error {
	if _, ok := p.(Launch); !ok && r.latest == nil {
		if p == nil {
			return ErrUnknownPhase
		}
		return ErrNoPriorPhase
	}

	switch p := p.(type) {
	case Launch:
		return r.runLaunch(ctx, p)
	case Collapse:
		return r.runCollapse(ctx, p)
	case Recovery:
		return r.runRecovery(ctx, p)
	case CollapsingRecovery:
		return r.runCollapsingRecovery(ctx, p)
	case CollapsedForever:
		return r.runCollapsedForever(ctx, p)
	case Regrowth:
		return r.runRegrowth(ctx, p)
	}

	return fmt.Errorf("%T: %w", p, ErrUnknownPhase)
}
