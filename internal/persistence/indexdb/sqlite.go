// Package indexdb is a secondary sqlite index of metric samples and
// snapshots. Writes are queued and applied by one goroutine in batched
// transactions; the event journal stays the source of truth.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ynishi/issun-sub004/internal/logging"
	"github.com/ynishi/issun-sub004/internal/sim/aggregate"
)

type SQLiteIndex struct {
	db  *sql.DB
	log *slog.Logger

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropSample   atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqSample reqKind = iota + 1
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	sample   sampleRow
	snapshot snapshotRow
	done     chan struct{}
}

type sampleRow struct {
	Run    string
	Metric string
	aggregate.Sample
}

type snapshotRow struct {
	Run      string
	Tick     uint64
	Path     string
	Entities int
}

// Stats reports queue pressure. Drops happen when the writer falls behind.
type Stats struct {
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
	DropSampleTotal   uint64 `json:"drop_sample_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
}

func OpenSQLite(path string, logger *slog.Logger) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:  db,
		log: logging.Or(logger, "indexdb"),
		ch:  make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			tuning_digest TEXT NOT NULL,
			tuning_json TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			run TEXT NOT NULL,
			metric TEXT NOT NULL,
			tick INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			value REAL NOT NULL,
			meta_json TEXT,
			PRIMARY KEY (run, metric, tick, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			entities INTEGER NOT NULL,
			PRIMARY KEY (run, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`)
	return err
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropSampleTotal:   s.dropSample.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// RecordRun stores the run's seed and the tuning it applies, synchronously.
func (s *SQLiteIndex) RecordRun(run string, seed int64, tune any) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return fmt.Errorf("tuning json: %w", err)
	}
	sum := sha256.Sum256(b)
	_, err = s.db.Exec(`INSERT OR REPLACE INTO runs(run,seed,tuning_digest,tuning_json,started_at) VALUES(?,?,?,?,?)`,
		run, seed, hex.EncodeToString(sum[:]), string(b), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// WriteSample queues one sample. It never blocks.
func (s *SQLiteIndex) WriteSample(run, metric string, smp aggregate.Sample) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSample, sample: sampleRow{Run: run, Metric: metric, Sample: smp}}:
	default:
		s.dropSample.Add(1)
	}
}

func (s *SQLiteIndex) RecordSnapshot(run string, tick uint64, path string, entities int) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: snapshotRow{Run: run, Tick: tick, Path: path, Entities: entities}}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// Flush waits until everything queued before the call is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertSample, _ := s.db.Prepare(`INSERT OR REPLACE INTO samples(run,metric,tick,seq,value,meta_json) VALUES(?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(run,tick,path,entities) VALUES(?,?,?,?)`)
	defer func() {
		if insertSample != nil {
			_ = insertSample.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		// seq is global so rows for one (run, metric, tick) keep insertion order.
		seq int64
	)
	_ = s.db.QueryRow(`SELECT COALESCE(MAX(seq),-1)+1 FROM samples`).Scan(&seq)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			s.log.Warn("index begin failed", "err", err)
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.log.Warn("index commit failed", "err", err)
		}
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func(err error) {
		s.log.Warn("index write failed", "err", err)
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	handle := func(r req) {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			return
		}
		begin()
		if tx == nil {
			return
		}
		switch r.kind {
		case reqSample:
			sm := r.sample
			var meta any
			if len(sm.Metadata) > 0 {
				b, _ := json.Marshal(sm.Metadata)
				meta = string(b)
			}
			if insertSample != nil {
				if _, err := tx.Stmt(insertSample).Exec(sm.Run, sm.Metric, int64(sm.Tick), seq, sm.Value, meta); err != nil {
					rollback(err)
					return
				}
				seq++
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(sn.Run, int64(sn.Tick), sn.Path, sn.Entities); err != nil {
					rollback(err)
					return
				}
				opCount++
			}
		}
		if opCount >= commitEvery {
			commit()
		}
	}

	// Open transactions hold the only connection; commit them even when idle.
	idle := time.NewTicker(commitMaxWait / 4)
	defer idle.Stop()
	for {
		select {
		case r, ok := <-s.ch:
			if !ok {
				commit()
				return
			}
			handle(r)
		case <-idle.C:
			if time.Since(lastCommit) >= commitMaxWait {
				commit()
			}
		}
	}
}
