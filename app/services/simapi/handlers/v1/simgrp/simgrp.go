// Package simgrp maintains the group of handlers for simulation access.
package simgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/argonsim/business/core/simulation"
	"github.com/ardanlabs/argonsim/business/sys/validate"
	"github.com/ardanlabs/argonsim/business/web/errs"
	"github.com/ardanlabs/argonsim/business/web/mid"
	"github.com/ardanlabs/argonsim/foundation/events"
	"github.com/ardanlabs/argonsim/foundation/simulation/inflation"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/runner"
	"github.com/ardanlabs/argonsim/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of simulation endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Core    *simulation.Core
	Evts    *events.Events
	Origins []string
	WS      websocket.Upgrader
}

// DefaultRules returns the baseline rules.
func (h Handlers) DefaultRules(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Core.DefaultRules(), http.StatusOK)
}

// Scenarios returns the names of the prebuilt scenarios.
func (h Handlers) Scenarios(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, runner.Scenarios, http.StatusOK)
}

// Run runs the scenario named in the path. The body may carry rules that
// override the baseline field by field.
func (h Handlers) Run(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	scenario, err := runner.ParseScenario(web.Param(r, "scenario"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	rules := h.Core.DefaultRules()
	if err := web.Decode(r, &rules); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("run scenario", "traceid", v.TraceID, "scenario", scenario)

	run, cached, err := h.Core.Run(ctx, scenario, rules)
	if err != nil {
		return toTrusted(err)
	}

	resp := runResponse{
		RunKey:   run.Key,
		Scenario: run.Scenario,
		Cached:   cached,
		Markers:  run.Result.Markers,
		Phases:   run.Result.Phases,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Resume continues a run from the saved state in the body through the
// named phases. Rules default to the baseline when omitted.
func (h Handlers) Resume(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req resumeRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	rules := h.Core.DefaultRules()
	if req.Rules != nil {
		rules = *req.Rules
	}

	h.Log.Infow("resume", "traceid", v.TraceID, "date", req.State.Date, "phases", req.Phases)

	result, err := h.Core.Resume(ctx, req.State, req.Phases, rules)
	if err != nil {
		return toTrusted(err)
	}

	resp := resumeResponse{
		Markers: result.Markers,
		Phases:  result.Phases,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to stream run progress to a client. The
// optional run query value limits the stream to one run key.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	run := r.URL.Query().Get("run")

	// Browsers send an Origin header; other clients are let through.
	h.WS.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || mid.OriginAllowed(h.Origins, origin)
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if run != "" && msg.Run != run {
				continue
			}

			if err := c.WriteJSON(msg); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// Dollar walks the dollar price over the requested date range.
func (h Handlers) Dollar(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req dollarRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	start, err := marketdata.ParseDate(req.StartingDate)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	end, err := marketdata.ParseDate(req.EndingDate)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	rules := h.Core.DefaultRules()
	if req.Rules != nil {
		rules = *req.Rules
	}

	markers, err := h.Core.Dollar(ctx, rules, start, end)
	if err != nil {
		return toTrusted(err)
	}

	resp := dollarResponse{
		StartingDate: start.Format(marketdata.DateLayout),
		EndingDate:   end.Format(marketdata.DateLayout),
		Markers:      markers,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Bitcoin returns the bitcoin price and fee for the date in the path.
func (h Handlers) Bitcoin(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	date, err := marketdata.ParseDate(web.Param(r, "date"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	quote, err := h.Core.Bitcoin(date)
	if err != nil {
		return toTrusted(err)
	}

	return web.Respond(ctx, w, quote, http.StatusOK)
}

// =============================================================================

// toTrusted maps the expected errors of the core to a status code. Any
// other error is returned as is and reported as an internal error.
func toTrusted(err error) error {
	switch {
	case validate.IsFieldErrors(err),
		errors.Is(err, runner.ErrUnknownScenario),
		errors.Is(err, runner.ErrUnknownPhase),
		errors.Is(err, simulation.ErrInvalidResume),
		errors.Is(err, inflation.ErrInvalidRange),
		errors.Is(err, inflation.ErrRangeTooLong):
		return errs.NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, marketdata.ErrNoData),
		errors.Is(err, simulation.ErrNoBitcoinPrices):
		return errs.NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, runner.ErrNoCrashScenario),
		errors.Is(err, runner.ErrScenarioDesync),
		errors.Is(err, runner.ErrAlreadyRan):
		return errs.NewTrusted(err, http.StatusUnprocessableEntity)
	}

	return err
}
