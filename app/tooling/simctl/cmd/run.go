package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/argonsim/business/core/simulation"
	"github.com/ardanlabs/argonsim/business/data/runstore"
	"github.com/ardanlabs/argonsim/foundation/logger"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/runner"
	"github.com/spf13/cobra"
)

var (
	scenarioName string
	storeKind    string
	storePath    string
	dataVersion  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and write its markers and phases as JSON",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&scenarioName, "scenario", "s", string(runner.ScenarioCollapseThenRecover), "Name of the scenario to run.")
	runCmd.Flags().StringVar(&storeKind, "store", runstore.KindNone, "Run store kind: none, disk or sqlite.")
	runCmd.Flags().StringVar(&storePath, "store-path", "zdata/runs/", "Path of the run store.")
	runCmd.Flags().StringVar(&dataVersion, "data-version", "2022.05", "Version of the market data, part of the run key.")
}

func runRun(cmd *cobra.Command, args []string) error {
	scenario, err := runner.ParseScenario(scenarioName)
	if err != nil {
		return err
	}

	r, err := loadRules()
	if err != nil {
		return err
	}

	log, err := logger.New("SIMCTL")
	if err != nil {
		return err
	}
	defer log.Sync()

	data, err := marketdata.LoadDir(dataDir)
	if err != nil {
		return fmt.Errorf("loading market data: %w", err)
	}

	store, err := runstore.Open(storeKind, storePath)
	if err != nil {
		return err
	}
	defer store.Close()

	core := simulation.NewCore(simulation.Config{
		Log:         log,
		Data:        data,
		DataVersion: dataVersion,
		Store:       store,
	})

	// An interrupt abandons the run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, cached, err := core.Run(ctx, scenario, r)
	if err != nil {
		return err
	}

	log.Infow("run", "key", run.Key, "cached", cached, "markers", len(run.Result.Markers))

	return writeJSON(run.Result)
}
