package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ynishi/issun-sub004/internal/logging"
	"github.com/ynishi/issun-sub004/internal/sim/rng"
	"github.com/ynishi/issun-sub004/internal/sim/scenario"
	"github.com/ynishi/issun-sub004/internal/sim/tuning"
)

var runFlags struct {
	scenario   string
	run        string
	ticks      uint64
	seed       int64
	randomSeed bool
	asJSON     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and record its journal, samples and snapshots",
	RunE:  runScenario,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.scenario, "scenario", "", "scenario.yaml path (default: built-in demo)")
	f.StringVar(&runFlags.run, "run", "", "run id (default: a new uuid)")
	f.Uint64Var(&runFlags.ticks, "ticks", 0, "override the scenario tick count")
	f.Int64Var(&runFlags.seed, "seed", 0, "override the tuning seed")
	f.BoolVar(&runFlags.randomSeed, "random-seed", false, "draw a fresh seed")
	f.BoolVar(&runFlags.asJSON, "json", false, "print the result as JSON")
}

func loadTuning() (tuning.Tuning, error) {
	if cfg.Tuning == "" {
		return tuning.Default(), nil
	}
	return tuning.Load(cfg.Tuning)
}

func runScenario(cmd *cobra.Command, _ []string) error {
	tune, err := loadTuning()
	if err != nil {
		return err
	}
	switch {
	case runFlags.randomSeed:
		if tune.Seed, err = rng.NewSeed(); err != nil {
			return err
		}
	case cmd.Flags().Changed("seed"):
		tune.Seed = runFlags.seed
	}

	sc, err := scenario.Load(runFlags.scenario)
	if err != nil {
		return err
	}
	if runFlags.ticks > 0 {
		sc.Ticks = runFlags.ticks
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	res, err := scenario.Run(ctx, sc, scenario.Options{
		DataDir: cfg.DataDir,
		Run:     runFlags.run,
		Tuning:  tune,
		Logger:  logging.New("mechsim"),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintf(out, "run %s (%s): %d ticks, seed %d\n", res.Run, sc.Name, res.Ticks, tune.Seed)
	families := make([]string, 0, len(res.Events))
	for f := range res.Events {
		families = append(families, f)
	}
	slices.Sort(families)
	for _, f := range families {
		fmt.Fprintf(out, "  %-12s %6d events\n", f, res.Events[f])
	}
	fmt.Fprintf(out, "defeated: %v\ndestroyed: %v\ncompleted: %v\n", res.Defeated, res.Destroyed, res.Completed)
	for _, cur := range sortedKeys(res.Balances) {
		fmt.Fprintf(out, "balance %s: %s\n", cur, res.Balances[cur])
	}
	fmt.Fprintf(out, "snapshots: %d, archived: %d, dir: %s\n", len(res.Snapshots), len(res.Archived), res.Dir)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
