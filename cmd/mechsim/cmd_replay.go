package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ynishi/issun-sub004/internal/persistence/indexdb"
	"github.com/ynishi/issun-sub004/internal/persistence/journal"
	"github.com/ynishi/issun-sub004/internal/sim/aggregate"
	"github.com/ynishi/issun-sub004/internal/sim/scenario"
)

var replayFlags struct {
	run    string
	since  uint64
	limit  int
	metric string
	from   uint64
	to     uint64
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Summarize a recorded run from its journal and sample index",
	RunE:  replayRun,
}

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayFlags.run, "run", "", "run id")
	f.Uint64Var(&replayFlags.since, "since", 0, "first journal sequence number")
	f.IntVar(&replayFlags.limit, "limit", 0, "max envelopes to read (0 = all)")
	f.StringVar(&replayFlags.metric, "metric", "", "summarize only this metric")
	f.Uint64Var(&replayFlags.from, "from", 0, "first tick of the sample window")
	f.Uint64Var(&replayFlags.to, "to", 0, "last tick of the sample window (0 = open)")
	_ = replayCmd.MarkFlagRequired("run")
}

func replayRun(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	b, err := journal.ReadBatch(scenario.EventsDir(cfg.DataDir, replayFlags.run), replayFlags.since, replayFlags.limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	fmt.Fprintf(out, "run %s: %d events, seq %d..%d\n", replayFlags.run, len(b.Envelopes), b.Since, b.Next)
	kinds := b.Kinds()
	for _, k := range sortedKeys(kinds) {
		fmt.Fprintf(out, "  %-36s %6d\n", k, kinds[k])
	}

	idx, err := indexdb.OpenSQLite(scenario.IndexPath(cfg.DataDir), nil)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer idx.Close()

	ctx := cmd.Context()
	metrics := []string{replayFlags.metric}
	if replayFlags.metric == "" {
		if metrics, err = idx.Metrics(ctx, replayFlags.run); err != nil {
			return err
		}
	}
	w := aggregate.Window{From: replayFlags.from, To: replayFlags.to}
	for _, m := range metrics {
		sum, err := idx.Summarize(ctx, replayFlags.run, m, w)
		if err != nil {
			return fmt.Errorf("summarize %s: %w", m, err)
		}
		fmt.Fprintf(out, "%s\n", m)
		for _, k := range aggregate.Kinds {
			if v, ok := sum[k]; ok {
				fmt.Fprintf(out, "  %-8s %.4f\n", k, v)
			}
		}
	}
	return nil
}
