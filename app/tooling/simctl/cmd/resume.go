package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/argonsim/business/core/simulation"
	"github.com/ardanlabs/argonsim/foundation/logger"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/ardanlabs/argonsim/foundation/simulation/runner"
	"github.com/spf13/cobra"
)

var (
	statePath    string
	fromPath     string
	afterPhase   string
	resumePhases []string
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue a run from a saved state and write its markers and phases as JSON",
	RunE:  resumeRun,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().StringVar(&statePath, "state", "", "Path to a JSON resume state.")
	resumeCmd.Flags().StringVar(&fromPath, "from", "", "Path to the JSON output of an earlier run to continue.")
	resumeCmd.Flags().StringVar(&afterPhase, "after", "", "Continue after this phase of the earlier run instead of its last marker.")
	resumeCmd.Flags().StringSliceVarP(&resumePhases, "phases", "p", []string{string(runner.PhaseRecovery), string(runner.PhaseRegrowth)}, "Phases to run in order.")
}

func resumeRun(cmd *cobra.Command, args []string) error {
	state, err := loadResumeState()
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

	core := simulation.NewCore(simulation.Config{
		Log:  log,
		Data: data,
	})

	// An interrupt abandons the run.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := core.Resume(ctx, state, resumePhases, r)
	if err != nil {
		return err
	}

	return writeJSON(result)
}

// loadResumeState reads the state file or takes the state from a marker of
// an earlier run's output.
func loadResumeState() (simulation.ResumeState, error) {
	switch {
	case statePath != "" && fromPath != "":
		return simulation.ResumeState{}, errors.New("use either --state or --from")

	case statePath != "":
		data, err := os.ReadFile(statePath)
		if err != nil {
			return simulation.ResumeState{}, fmt.Errorf("read state: %w", err)
		}

		var state simulation.ResumeState
		if err := json.Unmarshal(data, &state); err != nil {
			return simulation.ResumeState{}, fmt.Errorf("parse state %s: %w", statePath, err)
		}
		return state, nil

	case fromPath != "":
		data, err := os.ReadFile(fromPath)
		if err != nil {
			return simulation.ResumeState{}, fmt.Errorf("read run: %w", err)
		}

		var result runner.Result
		if err := json.Unmarshal(data, &result); err != nil {
			return simulation.ResumeState{}, fmt.Errorf("parse run %s: %w", fromPath, err)
		}

		if len(result.Markers) == 0 {
			return simulation.ResumeState{}, fmt.Errorf("run %s has no markers", fromPath)
		}

		idx := len(result.Markers) - 1
		if afterPhase != "" {
			span, exists := result.Phases[runner.PhaseName(afterPhase)]
			if !exists || span.LastItem >= len(result.Markers) {
				return simulation.ResumeState{}, fmt.Errorf("run %s has no phase %q", fromPath, afterPhase)
			}
			idx = span.LastItem
		}

		return simulation.ResumeFromSnapshot(result.Markers[idx]), nil
	}

	return simulation.ResumeState{}, errors.New("a resume state is required: use --state or --from")
}
