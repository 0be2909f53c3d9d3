package cmd

import (
	"github.com/ardanlabs/argonsim/business/sys/validate"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Write the rules as YAML",
	Long:  "Writes the default rules, or the rules file merged over them, as YAML after validating them.",
	RunE:  rulesRun,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func rulesRun(cmd *cobra.Command, args []string) error {
	r, err := loadRules()
	if err != nil {
		return err
	}

	if err := validate.Check(r); err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}

	return enc.Close()
}
