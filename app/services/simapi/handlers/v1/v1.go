// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/argonsim/app/services/simapi/handlers/v1/simgrp"
	"github.com/ardanlabs/argonsim/business/core/simulation"
	"github.com/ardanlabs/argonsim/foundation/events"
	"github.com/ardanlabs/argonsim/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	Core    *simulation.Core
	Evts    *events.Events
	Origins []string
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	sgh := simgrp.Handlers{
		Log:     cfg.Log,
		Core:    cfg.Core,
		Evts:    cfg.Evts,
		Origins: cfg.Origins,
	}

	app.Handle(http.MethodGet, version, "/rules/default", sgh.DefaultRules)
	app.Handle(http.MethodGet, version, "/scenarios", sgh.Scenarios)
	app.Handle(http.MethodPost, version, "/scenarios/:scenario/run", sgh.Run)
	app.Handle(http.MethodPost, version, "/resume", sgh.Resume)
	app.Handle(http.MethodGet, version, "/events", sgh.Events)
	app.Handle(http.MethodPost, version, "/dollar", sgh.Dollar)
	app.Handle(http.MethodGet, version, "/marketdata/btc/:date", sgh.Bitcoin)
}
