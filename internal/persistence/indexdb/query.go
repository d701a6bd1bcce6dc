package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ynishi/issun-sub004/internal/sim/aggregate"
)

// Window returns the samples of one metric inside w, ordered by tick then
// insertion. Pending writes are flushed first.
func (s *SQLiteIndex) Window(ctx context.Context, run, metric string, w aggregate.Window) ([]aggregate.Sample, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	to := int64(w.To)
	if w.To == 0 {
		to = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tick,value,meta_json FROM samples
		 WHERE run=? AND metric=? AND tick>=? AND (?<0 OR tick<=?)
		 ORDER BY tick,seq`,
		run, metric, int64(w.From), to, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []aggregate.Sample
	for rows.Next() {
		var (
			tick int64
			smp  aggregate.Sample
			meta sql.NullString
		)
		if err := rows.Scan(&tick, &smp.Value, &meta); err != nil {
			return nil, err
		}
		smp.Tick = uint64(tick)
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &smp.Metadata); err != nil {
				return nil, fmt.Errorf("sample meta: %w", err)
			}
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Metrics lists metric names recorded for a run.
func (s *SQLiteIndex) Metrics(ctx context.Context, run string) ([]string, error) {
	if err := s.Flush(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT metric FROM samples WHERE run=? ORDER BY metric`, run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Summarize folds a metric window with every aggregation kind.
func (s *SQLiteIndex) Summarize(ctx context.Context, run, metric string, w aggregate.Window) (map[aggregate.Kind]float64, error) {
	samples, err := s.Window(ctx, run, metric, w)
	if err != nil {
		return nil, err
	}
	return aggregate.Summary(samples), nil
}

// LatestSnapshot returns the path of the newest snapshot of a run.
func (s *SQLiteIndex) LatestSnapshot(ctx context.Context, run string) (string, uint64, error) {
	if err := s.Flush(ctx); err != nil {
		return "", 0, err
	}
	var (
		path string
		tick int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT path,tick FROM snapshots WHERE run=? ORDER BY tick DESC LIMIT 1`, run).Scan(&path, &tick)
	if err != nil {
		return "", 0, err
	}
	return path, uint64(tick), nil
}
