package cmd

import (
	"context"
	"fmt"

	"github.com/ardanlabs/argonsim/business/core/simulation"
	"github.com/ardanlabs/argonsim/foundation/logger"
	"github.com/ardanlabs/argonsim/foundation/simulation/marketdata"
	"github.com/spf13/cobra"
)

var (
	startingDate string
	endingDate   string
)

var dollarCmd = &cobra.Command{
	Use:   "dollar",
	Short: "Walk the dollar price over a date range",
	RunE:  dollarRun,
}

func init() {
	rootCmd.AddCommand(dollarCmd)
	dollarCmd.Flags().StringVar(&startingDate, "start", "2020-10-01", "First date of the walk.")
	dollarCmd.Flags().StringVar(&endingDate, "end", "2025-12-31", "Last date of the walk.")
}

func dollarRun(cmd *cobra.Command, args []string) error {
	start, err := marketdata.ParseDate(startingDate)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}

	end, err := marketdata.ParseDate(endingDate)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}

	r, err := loadRules()
	if err != nil {
		return err
	}

	data, err := marketdata.LoadDir(dataDir)
	if err != nil {
		return fmt.Errorf("loading market data: %w", err)
	}

	core := simulation.NewCore(simulation.Config{
		Log:  logger.NewNop(),
		Data: data,
	})

	markers, err := core.Dollar(context.Background(), r, start, end)
	if err != nil {
		return err
	}

	return writeJSON(markers)
}
