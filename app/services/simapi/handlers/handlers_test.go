package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/argonsim/app/services/simapi/handlers"
	"github.com/ardanlabs/argonsim/business/core/simulation"
	"github.com/ardanlabs/argonsim/business/web/errs"
	"github.com/ardanlabs/argonsim/foundation/events"
	"github.com/ardanlabs/argonsim/foundation/logger"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newMux(t *testing.T) http.Handler {
	t.Helper()

	prices, err := marketdata.NewSeries(map[string]float64{"2020-01-01": 20_000})
	if err != nil {
		t.Fatalf("building prices: %v", err)
	}

	log := logger.NewNop()
	evts := events.New()

	core := simulation.NewCore(simulation.Config{
		Log:  log,
		Data: marketdata.Data{BitcoinPrices: prices},
		Evts: evts,
	})

	return handlers.APIMux(handlers.APIMuxConfig{
		Shutdown:    make(chan os.Signal, 1),
		Log:         log,
		Core:        core,
		Evts:        evts,
		CorsOrigins: []string{"*"},
	})
}

func TestAPI(t *testing.T) {
	type table struct {
		name   string
		method string
		path   string
		body   string
		status int
		field  string
	}

	tt := []table{
		{"default rules", http.MethodGet, "/v1/rules/default", "", http.StatusOK, ""},
		{"scenarios", http.MethodGet, "/v1/scenarios", "", http.StatusOK, ""},
		{"unknown scenario", http.MethodPost, "/v1/scenarios/moon/run", "", http.StatusNotFound, ""},
		{"invalid rules", http.MethodPost, "/v1/scenarios/collapsedForever/run", `{"btcRatchetingPct":150}`, http.StatusBadRequest, "btcRatchetingPct"},
		{"unknown rules field", http.MethodPost, "/v1/scenarios/collapsedForever/run", `{"moon":1}`, http.StatusBadRequest, ""},
		{"missing crash data", http.MethodPost, "/v1/scenarios/collapsedForever/run", "", http.StatusUnprocessableEntity, ""},
		{"bitcoin quote", http.MethodGet, "/v1/marketdata/btc/2021-01-01", "", http.StatusOK, ""},
		{"bitcoin before data", http.MethodGet, "/v1/marketdata/btc/2019-01-01", "", http.StatusNotFound, ""},
		{"bitcoin bad date", http.MethodGet, "/v1/marketdata/btc/yesterday", "", http.StatusBadRequest, ""},
		{"dollar", http.MethodPost, "/v1/dollar", `{"startingDate":"2022-04-01","endingDate":"2022-04-30"}`, http.StatusOK, ""},
		{"dollar reversed", http.MethodPost, "/v1/dollar", `{"startingDate":"2022-04-30","endingDate":"2022-04-01"}`, http.StatusBadRequest, ""},
		{"dollar missing date", http.MethodPost, "/v1/dollar", `{"startingDate":"2022-04-30"}`, http.StatusBadRequest, "endingDate"},
		{"dollar too long", http.MethodPost, "/v1/dollar", `{"startingDate":"2000-01-01","endingDate":"2200-01-01"}`, http.StatusBadRequest, ""},
		{"resume", http.MethodPost, "/v1/resume", `{"state":{"date":"2022-05-20","circulation":1000000,"capital":1000000},"phases":["collapsedForever"]}`, http.StatusOK, ""},
		{"resume unknown phase", http.MethodPost, "/v1/resume", `{"state":{"date":"2022-05-20","circulation":1000000,"capital":1000000},"phases":["moon"]}`, http.StatusBadRequest, ""},
		{"resume bad date", http.MethodPost, "/v1/resume", `{"state":{"date":"tomorrow","circulation":1000000,"capital":1000000},"phases":["recovery"]}`, http.StatusBadRequest, ""},
		{"resume launch", http.MethodPost, "/v1/resume", `{"state":{"date":"2022-05-20","circulation":1000000,"capital":1000000},"phases":["launch"]}`, http.StatusUnprocessableEntity, ""},
		{"resume missing phases", http.MethodPost, "/v1/resume", `{"state":{"date":"2022-05-20","circulation":1000000,"capital":1000000}}`, http.StatusBadRequest, "phases"},
	}

	mux := newMux(t)

	t.Log("Given the need to serve the simulation api.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen calling %s %s.", testID, tst.method, tst.path)
				{
					r := httptest.NewRequest(tst.method, tst.path, strings.NewReader(tst.body))
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, r)

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould receive a status code of %d : got %d : %s", failed, testID, tst.status, w.Code, w.Body.String())
					}
					t.Logf("\t%s\tTest %d:\tShould receive a status code of %d.", success, testID, tst.status)

					if w.Header().Get("Access-Control-Allow-Origin") != "*" {
						t.Fatalf("\t%s\tTest %d:\tShould set the CORS headers.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould set the CORS headers.", success, testID)

					if tst.field == "" {
						return
					}

					var resp errs.Response
					if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
					}

					if _, exists := resp.Fields[tst.field]; !exists {
						t.Fatalf("\t%s\tTest %d:\tShould name field %s : got %v", failed, testID, tst.field, resp.Fields)
					}
					t.Logf("\t%s\tTest %d:\tShould name field %s.", success, testID, tst.field)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestDefaultRules(t *testing.T) {
	mux := newMux(t)

	t.Log("Given the need to publish the default rules.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen fetching the default rules.", testID)
		{
			r := httptest.NewRequest(http.MethodGet, "/v1/rules/default", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, r)

			var got rules.Rules
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to unmarshal the response.", success, testID)

			if got != rules.Default() {
				t.Fatalf("\t%s\tTest %d:\tShould get the default rules : got %+v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould get the default rules.", success, testID)
		}
	}
}
