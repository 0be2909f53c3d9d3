// Package rules defines the configuration record that drives a simulation
// run. Rules are immutable for the duration of a run.
package rules

// Rules enumerates the economic parameters of a run. Percent fields are
// expressed as 0..100. Latency fields are expressed in hours and are scaled
// to the duration of each marker when used.
type Rules struct {
	Circulation     float64 `json:"circulation" yaml:"circulation" validate:"gte=0"`
	DollarInflation float64 `json:"dollarInflation" yaml:"dollarInflation" validate:"gte=-100,lte=100"`

	EnableTaxation        bool    `json:"enableTaxation" yaml:"enableTaxation"`
	TransactionsAnnually  float64 `json:"transactionsAnnually" yaml:"transactionsAnnually" validate:"gte=0"`
	MicropaymentsAnnually float64 `json:"micropaymentsAnnually" yaml:"micropaymentsAnnually" validate:"gte=0"`

	EnableBitcoinVaulting        bool    `json:"enableBitcoinVaulting" yaml:"enableBitcoinVaulting"`
	BtcVaultCapacityPct          float64 `json:"btcVaultCapacityPct" yaml:"btcVaultCapacityPct" validate:"gte=0,lte=100"`
	BtcRatchetingPct             float64 `json:"btcRatchetingPct" yaml:"btcRatchetingPct" validate:"gte=0,lte=100"`
	BtcRatchetWhenPriceChangePct float64 `json:"btcRatchetWhenPriceChangePct" yaml:"btcRatchetWhenPriceChangePct" validate:"gte=0,lte=100"`
	BtcPriceOverride             float64 `json:"btcPriceOverride" yaml:"btcPriceOverride" validate:"gte=0"`
	BtcMaxTxnsPerHour            float64 `json:"btcMaxTxnsPerHour" yaml:"btcMaxTxnsPerHour" validate:"gte=0"`
	UnvaultLatencyInHours        float64 `json:"unvaultLatencyInHours" yaml:"unvaultLatencyInHours" validate:"gte=0"`

	EnableCertaintyGreed      bool    `json:"enableCertaintyGreed" yaml:"enableCertaintyGreed"`
	CertaintyGreedLow         float64 `json:"certaintyGreedLow" yaml:"certaintyGreedLow" validate:"gte=0"`
	CertaintyGreedHigh        float64 `json:"certaintyGreedHigh" yaml:"certaintyGreedHigh" validate:"gtefield=CertaintyGreedLow"`
	CertaintyLatencyLow       float64 `json:"certaintyLatencyLow" yaml:"certaintyLatencyLow" validate:"gte=0"`
	CertaintyLatencyHigh      float64 `json:"certaintyLatencyHigh" yaml:"certaintyLatencyHigh" validate:"gtefield=CertaintyLatencyLow"`
	CertaintyMaxDailyIncrease float64 `json:"certaintyMaxDailyIncrease" yaml:"certaintyMaxDailyIncrease" validate:"gte=0"`

	EnableSpeculativeGreed      bool    `json:"enableSpeculativeGreed" yaml:"enableSpeculativeGreed"`
	SpeculativeGreedLow         float64 `json:"speculativeGreedLow" yaml:"speculativeGreedLow" validate:"gte=0"`
	SpeculativeGreedHigh        float64 `json:"speculativeGreedHigh" yaml:"speculativeGreedHigh" validate:"gtefield=SpeculativeGreedLow"`
	SpeculativeGreedWithinHours float64 `json:"speculativeGreedWithinHours" yaml:"speculativeGreedWithinHours" validate:"gte=0"`
	SpeculativeLatencyLow       float64 `json:"speculativeLatencyLow" yaml:"speculativeLatencyLow" validate:"gte=0"`
	SpeculativeLatencyHigh      float64 `json:"speculativeLatencyHigh" yaml:"speculativeLatencyHigh" validate:"gtefield=SpeculativeLatencyLow"`
	SpeculativeMaxDailyIncrease float64 `json:"speculativeMaxDailyIncrease" yaml:"speculativeMaxDailyIncrease" validate:"gte=0"`
}

// Default returns the baseline rules used by the prebuilt scenarios.
func Default() Rules {
	return Rules{
		Circulation:     18_700_000_000,
		DollarInflation: 3.5,

		EnableTaxation:        true,
		TransactionsAnnually:  1_000_000_000,
		MicropaymentsAnnually: 150_000_000,

		EnableBitcoinVaulting:        true,
		BtcVaultCapacityPct:          100,
		BtcRatchetingPct:             100,
		BtcRatchetWhenPriceChangePct: 10,
		BtcPriceOverride:             34_082.21,
		BtcMaxTxnsPerHour:            1000,
		UnvaultLatencyInHours:        240,

		EnableCertaintyGreed:      true,
		CertaintyGreedLow:         2,
		CertaintyGreedHigh:        20,
		CertaintyLatencyLow:       24,
		CertaintyLatencyHigh:      48,
		CertaintyMaxDailyIncrease: 0.5,

		EnableSpeculativeGreed:      true,
		SpeculativeGreedLow:         10,
		SpeculativeGreedHigh:        20,
		SpeculativeGreedWithinHours: 24,
		SpeculativeLatencyLow:       24,
		SpeculativeLatencyHigh:      48,
		SpeculativeMaxDailyIncrease: 0.5,
	}
}

// Greed is the parameter set shared by the certainty and speculative
// capital inflow models. Within bounds, in hours, how far back a weak
// marker can veto the inflow; zero leaves the bound at LatencyLow.
type Greed struct {
	Low              float64
	High             float64
	Within           float64
	LatencyLow       float64
	LatencyHigh      float64
	MaxDailyIncrease float64
}

// Certainty returns the parameters of the certainty driven greed model.
func (r Rules) Certainty() Greed {
	return Greed{
		Low:              r.CertaintyGreedLow,
		High:             r.CertaintyGreedHigh,
		LatencyLow:       r.CertaintyLatencyLow,
		LatencyHigh:      r.CertaintyLatencyHigh,
		MaxDailyIncrease: r.CertaintyMaxDailyIncrease,
	}
}

// Speculative returns the parameters of the speculation driven greed model.
func (r Rules) Speculative() Greed {
	return Greed{
		Low:              r.SpeculativeGreedLow,
		High:             r.SpeculativeGreedHigh,
		Within:           r.SpeculativeGreedWithinHours,
		LatencyLow:       r.SpeculativeLatencyLow,
		LatencyHigh:      r.SpeculativeLatencyHigh,
		MaxDailyIncrease: r.SpeculativeMaxDailyIncrease,
	}
}
