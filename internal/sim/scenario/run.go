package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/ynishi/issun-sub004/internal/logging"
	"github.com/ynishi/issun-sub004/internal/persistence/archive"
	"github.com/ynishi/issun-sub004/internal/persistence/indexdb"
	"github.com/ynishi/issun-sub004/internal/persistence/journal"
	"github.com/ynishi/issun-sub004/internal/persistence/snapshot"
	"github.com/ynishi/issun-sub004/internal/protocol"
	"github.com/ynishi/issun-sub004/internal/sim/aggregate"
	"github.com/ynishi/issun-sub004/internal/sim/emit"
	"github.com/ynishi/issun-sub004/internal/sim/graph"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/combat"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/contagion"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/economy"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/entropy"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/generation"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/loot"
	"github.com/ynishi/issun-sub004/internal/sim/mechanics/propagation"
	"github.com/ynishi/issun-sub004/internal/sim/orchestrate"
	"github.com/ynishi/issun-sub004/internal/sim/outbreak"
	"github.com/ynishi/issun-sub004/internal/sim/rng"
	"github.com/ynishi/issun-sub004/internal/sim/tuning"
)

// Stream lanes passed to rng.Derive so families never share a stream.
const (
	laneCombat uint64 = iota + 1
	laneLoot
	laneOutbreak
)

// WalletEntity tags economy events that come from scheduled orders.
const WalletEntity = "wallet"

type Options struct {
	DataDir string
	// Run is the run id; empty means a fresh journal.NewRunID.
	Run    string
	Tuning tuning.Tuning
	Logger *slog.Logger
}

type Result struct {
	Run       string            `json:"run"`
	Dir       string            `json:"dir"`
	Ticks     uint64            `json:"ticks"`
	Events    map[string]uint64 `json:"events"`
	Snapshots []string          `json:"snapshots,omitempty"`
	Archived  []string          `json:"archived,omitempty"`
	Destroyed []string          `json:"destroyed,omitempty"`
	Completed []string          `json:"completed,omitempty"`
	Defeated  []string          `json:"defeated,omitempty"`
	Balances  map[string]string `json:"balances"`
	Outbreak  outbreak.Summary  `json:"outbreak"`
}

func RunDir(dataDir, run string) string { return filepath.Join(dataDir, "runs", run) }

func EventsDir(dataDir, run string) string { return filepath.Join(RunDir(dataDir, run), "events") }

func IndexPath(dataDir string) string { return filepath.Join(dataDir, "index.sqlite") }

type duel struct {
	spec     DuelSpec
	state    combat.State
	drops    loot.State
	hitRand  *rng.Stream
	lootRand *rng.Stream
}

type host struct {
	sc   Config
	tune tuning.Tuning
	run  string
	dir  string
	log  *slog.Logger

	clock   journal.TickCounter
	journal *journal.Writer
	index   *indexdb.SQLiteIndex

	decay      *entropy.System[entropy.EnvironmentalDecay, entropy.RatioStatus]
	decayEnts  []orchestrate.Entity[entropy.State]
	growth     *generation.System[generation.LinearGrowth, generation.RatioStatus]
	growthEnts []orchestrate.Entity[generation.State]
	growthEnv  generation.Environment
	duels      []duel
	spread     *outbreak.Default
	spreadRand *rng.Stream
	wallet     *economy.Wallet
	econCfg    economy.Config
	lootCfg    loot.Config

	entropyOut    *journal.Sink[entropy.Event]
	generationOut *journal.Sink[generation.Event]
	combatOut     *journal.Sink[combat.Event]
	lootOut       *journal.Sink[loot.Event]
	economyOut    *journal.Sink[economy.Event]
	outbreakOut   *journal.Sink[outbreak.Event]

	res Result
}

// Run steps every family of sc for sc.Ticks ticks. Events are journaled under
// RunDir, samples go to the shared index and snapshots are written every
// SnapshotEvery ticks.
func Run(ctx context.Context, sc Config, opts Options) (res Result, err error) {
	if err := sc.Validate(); err != nil {
		return Result{}, err
	}
	run := opts.Run
	if run == "" {
		run = journal.NewRunID()
	}
	log := logging.Or(opts.Logger, "scenario").With("run", run, "scenario", sc.Name)

	idx, err := indexdb.OpenSQLite(IndexPath(opts.DataDir), log)
	if err != nil {
		return Result{}, fmt.Errorf("open index: %w", err)
	}
	h := newHost(sc, opts.Tuning, run, RunDir(opts.DataDir, run), log)
	h.index = idx
	h.journal = journal.NewWriter(EventsDir(opts.DataDir, run), run, log)
	h.openSinks()
	defer func() {
		jerr := h.journal.Close()
		ferr := idx.Flush(context.WithoutCancel(ctx))
		cerr := idx.Close()
		err = errors.Join(err, jerr, ferr, cerr)
	}()

	if err := idx.RecordRun(run, opts.Tuning.Seed, map[string]any{"scenario": sc, "tuning": opts.Tuning}); err != nil {
		return Result{}, fmt.Errorf("record run: %w", err)
	}
	log.Info("scenario started", "ticks", sc.Ticks, "seed", opts.Tuning.Seed)

	if h.spread != nil {
		h.spread.Seed(h.outbreakOut, sc.Outbreak.Seeds...)
	}
	for h.clock.Tick() < sc.Ticks {
		if err := ctx.Err(); err != nil {
			return h.result(), err
		}
		if err := h.step(h.clock.Advance()); err != nil {
			return h.result(), err
		}
	}
	if err := h.sinkErr(); err != nil {
		return h.result(), err
	}
	res = h.result()
	log.Info("scenario finished", "ticks", res.Ticks, "snapshots", len(res.Snapshots), "destroyed", len(res.Destroyed))
	return res, nil
}

func newHost(sc Config, tune tuning.Tuning, run, dir string, log *slog.Logger) *host {
	h := &host{sc: sc, tune: tune, run: run, dir: dir, log: log}

	h.decay = entropy.NewSystem[entropy.EnvironmentalDecay, entropy.RatioStatus](tune.Entropy, log)
	for _, it := range sc.Entropy.Items {
		h.decayEnts = append(h.decayEnts, orchestrate.Entity[entropy.State]{ID: it.ID, State: entropy.NewState(it.Max, it.DecayRate, it.Material)})
	}

	h.growth = generation.NewSystem[generation.LinearGrowth, generation.RatioStatus](tune.Generation, log)
	h.growthEnv = generation.NeutralEnvironment()
	if sc.Generation.Environment != nil {
		h.growthEnv = *sc.Generation.Environment
	}
	for _, p := range sc.Generation.Projects {
		h.growthEnts = append(h.growthEnts, orchestrate.Entity[generation.State]{ID: p.ID, State: generation.NewState(p.Max, p.GrowthRate, p.Kind)})
	}

	for i, d := range sc.Combat {
		h.duels = append(h.duels, duel{
			spec:     d,
			state:    combat.NewState(d.HP, d.HP),
			hitRand:  rng.NewStream(tune.Seed, rng.Derive(tune.Seed, laneCombat, i)),
			lootRand: rng.NewStream(tune.Seed, rng.Derive(tune.Seed, laneLoot, i)),
		})
	}

	if len(sc.Outbreak.Edges) > 0 {
		h.spread = outbreak.New[propagation.LinearPressure, propagation.ThresholdTrigger](tune.Outbreak(), graph.FromEdges(sc.Outbreak.Edges), log)
		h.spreadRand = rng.NewStream(tune.Seed, rng.Derive(tune.Seed, laneOutbreak, 0))
	}

	h.econCfg = tune.Economy
	h.econCfg.Rates = append(slices.Clone(tune.Economy.Rates), sc.Economy.Rates...)
	wallet := economy.NewWallet()
	for cur, bal := range sc.Economy.Balances {
		wallet.Balances[cur] = bal
	}
	h.wallet = &wallet
	h.lootCfg = tune.Loot
	if len(sc.Loot) > 0 {
		h.lootCfg.Table = sc.Loot
	}
	return h
}

func (h *host) openSinks() {
	h.entropyOut = journal.NewSink[entropy.Event](h.journal, protocol.FamilyEntropy, &h.clock)
	h.generationOut = journal.NewSink[generation.Event](h.journal, protocol.FamilyGeneration, &h.clock)
	h.combatOut = journal.NewSink[combat.Event](h.journal, protocol.FamilyCombat, &h.clock)
	h.lootOut = journal.NewSink[loot.Event](h.journal, protocol.FamilyLoot, &h.clock)
	h.economyOut = journal.NewSink[economy.Event](h.journal, protocol.FamilyEconomy, &h.clock)
	h.outbreakOut = journal.NewSink[outbreak.Event](h.journal, protocol.FamilyOutbreak, &h.clock)
}

func (h *host) step(tick uint64) error {
	dt := h.tune.Tick.Value

	h.applyOrders(tick)
	h.decay.Update(h.decayEnts, entropy.Input{TimeDelta: dt, Environment: h.sc.Entropy.Environment}, h.entropyOut.Tagged())
	h.growth.Update(h.growthEnts, func(*orchestrate.Entity[generation.State]) generation.Input {
		return generation.Input{TimeDelta: dt, Environment: h.growthEnv}
	}, h.generationOut.Tagged())
	if h.tune.Generation.AutoRemoveOnComplete {
		h.growthEnts = generation.Prune(h.growthEnts)
	}
	h.fight()
	if h.spread != nil {
		h.res.Outbreak = h.spread.Tick(h.tune.Tick, h.spreadRand, h.outbreakOut)
	}
	h.sample(tick)

	if h.sc.SnapshotEvery > 0 && tick%h.sc.SnapshotEvery == 0 {
		if err := h.snapshot(tick); err != nil {
			return fmt.Errorf("snapshot tick %d: %w", tick, err)
		}
	}
	return h.sinkErr()
}

func (h *host) applyOrders(tick uint64) {
	for _, o := range h.sc.Economy.Orders {
		if o.Tick != tick {
			continue
		}
		economy.Ledger{}.Step(h.econCfg, h.wallet, economy.Input{
			Action:   o.Action,
			Currency: o.Currency,
			To:       o.To,
			Amount:   o.Amount,
		}, h.economyOut.For(WalletEntity))
	}
}

// fight lands one hit per living defender. A fatal hit rolls loot and pays
// the bounty.
func (h *host) fight() {
	for i := range h.duels {
		d := &h.duels[i]
		if !d.state.IsAlive() {
			continue
		}
		fatal := false
		out := emit.Tee[combat.Event]{
			h.combatOut.For(d.spec.ID),
			emit.Func[combat.Event](func(e combat.Event) {
				if dd, ok := e.(combat.DamageDealt); ok && dd.IsFatal {
					fatal = true
				}
			}),
		}
		combat.Elemental{}.Step(h.tune.Combat, &d.state, combat.Input{
			AttackerPower:   d.spec.AttackerPower,
			DefenderDefense: d.spec.DefenderDefense,
			AttackerElement: d.spec.AttackerElement,
			DefenderElement: d.spec.DefenderElement,
			Rand:            d.hitRand,
		}, out)
		if !fatal {
			continue
		}
		h.res.Defeated = append(h.res.Defeated, d.spec.ID)
		loot.Lucky{}.Step(h.lootCfg, &d.drops, loot.Input{Luck: d.spec.Luck, Rand: d.lootRand}, h.lootOut.For(d.spec.ID))
		if d.spec.Bounty.IsPositive() {
			economy.Ledger{}.Step(h.econCfg, h.wallet, economy.Input{
				Action:   economy.ActionDeposit,
				Currency: h.sc.Economy.Currency,
				Amount:   d.spec.Bounty,
			}, h.economyOut.For(d.spec.ID))
		}
	}
}

func (h *host) sample(tick uint64) {
	put := func(metric string, v float64, meta map[string]string) {
		h.index.WriteSample(h.run, metric, aggregate.Sample{Tick: tick, Value: v, Metadata: meta})
	}
	for _, e := range h.decayEnts {
		put("entropy.durability", e.State.Current, map[string]string{"entity": e.ID, "status": string(e.State.Status)})
	}
	for _, e := range h.growthEnts {
		put("generation.ratio", e.State.Ratio(), map[string]string{"entity": e.ID, "status": string(e.State.Status)})
	}
	for _, d := range h.duels {
		put("combat.hp", float64(d.state.CurrentHP), map[string]string{"entity": d.spec.ID})
	}
	if h.spread != nil {
		sum := h.res.Outbreak
		put("outbreak.max_pressure", sum.MaxPressure, nil)
		put("outbreak.new_infections", float64(len(sum.Infected)), nil)
		put("outbreak.active", float64(sum.Phases[contagion.PhaseActive]), nil)
	}
	for _, cur := range h.wallet.Currencies() {
		put("economy.balance", h.wallet.Balance(cur).InexactFloat64(), map[string]string{"currency": string(cur)})
	}
}

func (h *host) snapshot(tick uint64) error {
	if err := writeFamily(h, protocol.FamilyEntropy, tick, h.decayEnts); err != nil {
		return err
	}
	return writeFamily(h, protocol.FamilyGeneration, tick, h.growthEnts)
}

func writeFamily[S any](h *host, family string, tick uint64, ents []orchestrate.Entity[S]) error {
	snap := snapshot.New(h.run, family, tick, h.tune.Seed, ents)
	path := snapshot.PathFor(h.dir, family, tick)
	if err := snapshot.Write(path, snap); err != nil {
		return err
	}
	h.index.RecordSnapshot(h.run, tick, path, len(ents))
	h.res.Snapshots = append(h.res.Snapshots, path)

	_, archived, ok, err := archive.ArchiveEpoch(h.dir, path, snap.Header, h.sc.ArchiveEvery)
	if err != nil {
		return fmt.Errorf("archive %s: %w", family, err)
	}
	if ok {
		h.res.Archived = append(h.res.Archived, archived)
		h.log.Info("epoch archived", "family", family, "tick", tick, "path", archived)
	}
	return nil
}

func (h *host) sinkErr() error {
	return errors.Join(
		h.entropyOut.Err(),
		h.generationOut.Err(),
		h.combatOut.Err(),
		h.lootOut.Err(),
		h.economyOut.Err(),
		h.outbreakOut.Err(),
	)
}

func (h *host) result() Result {
	res := h.res
	res.Run = h.run
	res.Dir = h.dir
	res.Ticks = h.clock.Tick()
	res.Events = map[string]uint64{
		protocol.FamilyEntropy:    h.entropyOut.Written(),
		protocol.FamilyGeneration: h.generationOut.Written(),
		protocol.FamilyCombat:     h.combatOut.Written(),
		protocol.FamilyLoot:       h.lootOut.Written(),
		protocol.FamilyEconomy:    h.economyOut.Written(),
		protocol.FamilyOutbreak:   h.outbreakOut.Written(),
	}
	res.Destroyed = h.decay.Destroyed()
	res.Completed = h.growth.Completed()
	res.Balances = map[string]string{}
	for _, cur := range h.wallet.Currencies() {
		res.Balances[string(cur)] = h.wallet.Balance(cur).String()
	}
	return res
}
