// Package cmd contains the simctl commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ardanlabs/argonsim/foundation/simulation/rules"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir   string
	rulesPath string
	outPath   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "zdata/", "Path to the directory with the market data files.")
	rootCmd.PersistentFlags().StringVarP(&rulesPath, "rules", "r", "", "Path to a YAML rules file. The default rules are used when empty.")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "Path to write the output to. Stdout is used when empty.")
}

var rootCmd = &cobra.Command{
	Use:          "simctl",
	Short:        "Argon price dynamics simulation",
	SilenceUsage: true,
}

// Execute runs the command named on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRules reads the rules file over the default rules so a file only
// needs the fields it changes.
func loadRules() (rules.Rules, error) {
	r := rules.Default()
	if rulesPath == "" {
		return r, nil
	}

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return rules.Rules{}, fmt.Errorf("read rules: %w", err)
	}

	if err := yaml.Unmarshal(data, &r); err != nil {
		return rules.Rules{}, fmt.Errorf("parse rules %s: %w", rulesPath, err)
	}

	return r, nil
}

// output opens the output file or returns stdout.
func output() (io.WriteCloser, error) {
	if outPath == "" {
		return nopCloser{os.Stdout}, nil
	}

	return os.Create(outPath)
}

// writeJSON writes the value as indented JSON to the output.
func writeJSON(v any) error {
	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
