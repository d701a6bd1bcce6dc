package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ynishi/issun-sub004/internal/sim/mechanics/synthesis"
	"github.com/ynishi/issun-sub004/internal/sim/scenario"
)

var validateFlags struct {
	scenario string
	recipes  string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check tuning, scenario and recipe files without running anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()

		tune, err := loadTuning()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "tuning ok: seed %d, tick %s\n", tune.Seed, tune.Tick)

		if validateFlags.scenario != "" {
			sc, err := scenario.Load(validateFlags.scenario)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "scenario ok: %s, %d ticks\n", sc.Name, sc.Ticks)
		}
		if validateFlags.recipes != "" {
			book, err := synthesis.LoadRecipes(validateFlags.recipes)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "recipes ok: %d recipes, digest %s\n", len(book.IDs()), book.Digest)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFlags.scenario, "scenario", "", "scenario.yaml path")
	validateCmd.Flags().StringVar(&validateFlags.recipes, "recipes", "", "recipes.json path")
}
