package marker

import (
	"maps"
	"time"

	"github.com/ardanlabs/argonsim/foundation/simulation/reserve"
	"github.com/ardanlabs/argonsim/foundation/simulation/vault"
)

// Snapshot is the immutable exported view of a marker.
type Snapshot struct {
	Idx                       int                           `json:"idx"`
	Phase                     string                        `json:"phase"`
	StartingDate              time.Time                     `json:"startingDate"`
	EndingDate                time.Time                     `json:"endingDate"`
	DurationInHours           int                           `json:"durationInHours"`
	StartingCirculation       float64                       `json:"startingCirculation"`
	EndingCirculation         float64                       `json:"endingCirculation"`
	StartingCapital           float64                       `json:"startingCapital"`
	EndingCapital             float64                       `json:"endingCapital"`
	StartingPrice             float64                       `json:"startingPrice"`
	EndingPrice               float64                       `json:"endingPrice"`
	CirculationAddedMap       map[CirculationAdd]float64    `json:"circulationAddedMap"`
	CirculationRemovedMap     map[CirculationRemove]float64 `json:"circulationRemovedMap"`
	CapitalAddedMap           map[CapitalAdd]float64        `json:"capitalAddedMap"`
	CapitalRemovedMap         map[CapitalRemove]float64     `json:"capitalRemovedMap"`
	SeigniorageMap            map[Seigniorage]float64       `json:"seigniorageMap"`
	StartingVaultMeta         *vault.Meta                   `json:"startingVaultMeta,omitempty"`
	EndingVaultMeta           *vault.Meta                   `json:"endingVaultMeta,omitempty"`
	StartingReserveMeta       *reserve.Meta                 `json:"startingReserveMeta,omitempty"`
	EndingReserveMeta         *reserve.Meta                 `json:"endingReserveMeta,omitempty"`
	PctIncreaseFromTaxation   float64                       `json:"pctIncreaseFromTaxation"`
	PctIncreaseFromAllSources float64                       `json:"pctIncreaseFromAllSources"`
	ShowPointOnChart          bool                          `json:"showPointOnChart"`
}

// Snapshot exports the marker. The returned value shares no state with the
// marker.
func (m *Marker) Snapshot() Snapshot {
	return Snapshot{
		Idx:                       m.Idx,
		Phase:                     m.Phase,
		StartingDate:              m.StartingDate,
		EndingDate:                m.EndingDate(),
		DurationInHours:           m.DurationInHours,
		StartingCirculation:       m.startingCirculation,
		EndingCirculation:         m.CurrentCirculation(),
		StartingCapital:           m.startingCapital,
		EndingCapital:             m.CurrentCapital(),
		StartingPrice:             m.StartingPrice(),
		EndingPrice:               m.CurrentPrice(),
		CirculationAddedMap:       maps.Clone(m.circulationAdded),
		CirculationRemovedMap:     maps.Clone(m.circulationRemoved),
		CapitalAddedMap:           maps.Clone(m.capitalAdded),
		CapitalRemovedMap:         maps.Clone(m.capitalRemoved),
		SeigniorageMap:            maps.Clone(m.seigniorage),
		StartingVaultMeta:         copyOf(m.startingVault),
		EndingVaultMeta:           copyOf(m.endingVault),
		StartingReserveMeta:       copyOf(m.startingReserve),
		EndingReserveMeta:         copyOf(m.endingReserve),
		PctIncreaseFromTaxation:   m.pctIncreaseFromTaxation,
		PctIncreaseFromAllSources: m.PctIncreaseFromAllSources(),
		ShowPointOnChart:          m.ShowPointOnChart,
	}
}

func copyOf[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
