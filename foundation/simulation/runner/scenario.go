package runner

import "fmt"

// Scenario names a prebuilt sequence of phases.
type Scenario string

// Set of prebuilt scenarios.
const (
	ScenarioCollapseThenRecover Scenario = "collapseThenRecover"
	ScenarioCollapsingRecovery  Scenario = "collapsingRecovery"
	ScenarioCollapsedForever    Scenario = "collapsedForever"
)

// Scenarios lists every prebuilt scenario.
var Scenarios = []Scenario{ScenarioCollapseThenRecover, ScenarioCollapsingRecovery, ScenarioCollapsedForever}

// ParseScenario validates a scenario name.
func ParseScenario(name string) (Scenario, error) {
	for _, s := range Scenarios {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownScenario)
}

// Phases returns the phases of the scenario in run order.
func (s Scenario) Phases() ([]Phase, error) {
	launch := defaultLaunch
	recovery := defaultRecovery
	regrowth := Regrowth{DefaultEnding: DefaultEndingDate}

	switch s {
	case ScenarioCollapseThenRecover:
		return []Phase{launch, Collapse{FlatlineMarkers: flatlineMarkers}, recovery, regrowth}, nil

	case ScenarioCollapsingRecovery:
		return []Phase{launch, CollapsingRecovery{Recovery: recovery}, regrowth}, nil

	case ScenarioCollapsedForever:
		return []Phase{launch, Collapse{FlatlineMarkers: flatlineMarkers}, CollapsedForever{Through: DefaultEndingDate}}, nil
	}

	return nil, fmt.Errorf("%q: %w", s, ErrUnknownScenario)
}

// =============================================================================

// Parameters shared by the prebuilt scenarios and ParsePhase.
var (
	defaultLaunch = Launch{
		Start:     TerraLaunchDate,
		EndBefore: TerraCollapseDate,
	}

	defaultRecovery = Recovery{
		StableMarkers: stableMarkers,
		HopeUntil:     DefaultEndingDate,
		MustEndBefore: MustEndBeforeDate,
	}
)

// ParsePhase returns the named phase with the parameters the prebuilt
// scenarios use.
func ParsePhase(name string) (Phase, error) {
	switch PhaseName(name) {
	case PhaseLaunch:
		return defaultLaunch, nil
	case PhaseCollapse:
		return Collapse{FlatlineMarkers: flatlineMarkers}, nil
	case PhaseRecovery:
		return defaultRecovery, nil
	case PhaseCollapsingRecovery:
		return CollapsingRecovery{Recovery: defaultRecovery}, nil
	case PhaseCollapsedForever:
		return CollapsedForever{Through: DefaultEndingDate}, nil
	case PhaseRegrowth:
		return Regrowth{DefaultEnding: DefaultEndingDate}, nil
	}

	return nil, fmt.Errorf("%q: %w", name, ErrUnknownPhase)
}
