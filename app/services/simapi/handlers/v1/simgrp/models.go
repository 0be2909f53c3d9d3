package simgrp

import (
	"github.com/ardanlabs/argonsim/business/core/simulation"
	"github.com/ardanlabs/argonsim/foundation/simulation/inflation"
	"github.com/ardanlabs/argonsim/foundation/simulation/marker"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
	"github.com/ardanlabs/argonsim/foundation/simulation/runner"
)

// runResponse is the completed run returned to the client.
type runResponse struct {
	RunKey   string                           `json:"runKey"`
	Scenario runner.Scenario                  `json:"scenario"`
	Cached   bool                             `json:"cached"`
	Markers  []marker.Snapshot                `json:"markers"`
	Phases   map[runner.PhaseName]runner.Span `json:"phases"`
}

// dollarRequest asks for the dollar price walk over a date range. Rules
// default to the baseline when omitted.
type dollarRequest struct {
	Rules        *rules.Rules `json:"rules"`
	StartingDate string       `json:"startingDate" validate:"required"`
	EndingDate   string       `json:"endingDate" validate:"required"`
}

// dollarResponse is the dollar price walk.
type dollarResponse struct {
	StartingDate string             `json:"startingDate"`
	EndingDate   string             `json:"endingDate"`
	Markers      []inflation.Marker `json:"markers"`
}

// resumeRequest continues a run from a saved state through the named
// phases. Rules default to the baseline when omitted.
type resumeRequest struct {
	Rules  *rules.Rules           `json:"rules"`
	State  simulation.ResumeState `json:"state"`
	Phases []string               `json:"phases" validate:"required,min=1"`
}

// resumeResponse is the continued run.
type resumeResponse struct {
	Markers []marker.Snapshot                `json:"markers"`
	Phases  map[runner.PhaseName]runner.Span `json:"phases"`
}
