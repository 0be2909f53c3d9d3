package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/argonsim/app/services/simapi/handlers"
	"github.com/ardanlabs/argonsim/business/core/simulation"
	"github.com/ardanlabs/argonsim/business/data/runstore"
	"github.com/ardanlabs/argonsim/foundation/events"
	"github.com/ardanlabs/argonsim/foundation/logger"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("SIMAPI")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:120s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			APIHost         string        `conf:"default:0.0.0.0:3000"`
			DebugHost       string        `conf:"default:0.0.0.0:4000"`
			CorsOrigins     []string      `conf:"default:*"`
		}
		Data struct {
			Dir     string `conf:"default:zdata/"`
			Version string `conf:"default:2022.05"`
		}
		Store struct {
			Kind string `conf:"default:disk"`
			Path string `conf:"default:zdata/runs/"`
		}
		Run struct {
			EmitEvery int `conf:"default:100"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "argon price dynamics simulation",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "SIMAPI"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Market Data Support

	// Every table found in the data folder is loaded once and shared
	// read-only by every run.
	data, err := marketdata.LoadDir(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("loading market data: %w", err)
	}

	log.Infow("startup", "status", "market data loaded", "dir", cfg.Data.Dir, "version", cfg.Data.Version,
		"btcPrices", data.BitcoinPrices.Len(), "cpiYears", len(data.CPI), "crashDays", len(data.CrashScenario))

	ready := func() error {
		if data.BitcoinPrices.Len() == 0 {
			return errors.New("no bitcoin prices loaded")
		}
		if len(data.CrashScenario) == 0 {
			return errors.New("no crash scenario loaded")
		}
		return nil
	}

	// =========================================================================
	// Run Store Support

	log.Infow("startup", "status", "opening run store", "kind", cfg.Store.Kind, "path", cfg.Store.Path)

	store, err := runstore.Open(cfg.Store.Kind, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening run store: %w", err)
	}
	defer func() {
		log.Infow("shutdown", "status", "closing run store", "kind", cfg.Store.Kind)
		store.Close()
	}()

	// =========================================================================
	// Simulation Support

	// Run progress is sent to any websocket client that is connected into
	// the system through the events package.
	evts := events.New()

	core := simulation.NewCore(simulation.Config{
		Log:         log,
		Data:        data,
		DataVersion: cfg.Data.Version,
		Store:       store,
		Evts:        evts,
		EmitEvery:   cfg.Run.EmitEvery,
	})

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.
	debugMux := handlers.DebugMux(build, log, ready)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Construct the mux for the API calls.
	apiMux := handlers.APIMux(handlers.APIMuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		Core:        core,
		Evts:        evts,
		CorsOrigins: cfg.Web.CorsOrigins,
	})

	// Construct a server to service the requests against the mux.
	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
