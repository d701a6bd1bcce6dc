// Package journal is the append-only event log of a run: envelopes as JSON
// lines in hourly zstd files under one directory.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/ynishi/issun-sub004/internal/logging"
	"github.com/ynishi/issun-sub004/internal/protocol"
)

const filePrefix = "events"

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

type Writer struct {
	baseDir string
	run     string
	log     *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	seq     uint64
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewWriter(baseDir, run string, logger *slog.Logger) *Writer {
	return &Writer{
		baseDir: baseDir,
		run:     run,
		log:     logging.Or(logger, "journal").With("run", run),
		now:     time.Now,
	}
}

func (w *Writer) Run() string { return w.run }

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

// Append stamps the envelope with the writer's run and the next sequence
// number, then writes it.
func (w *Writer) Append(env protocol.Envelope) (protocol.Envelope, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return env, err
		}
	}

	env.Run = w.run
	env.Seq = w.seq
	if env.ProtocolVersion == "" {
		env.ProtocolVersion = protocol.Version
	}
	b, err := json.Marshal(env)
	if err != nil {
		return env, err
	}
	if _, err := w.w.Write(b); err != nil {
		return env, err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return env, err
	}
	w.seq++
	return env, nil
}

// Flush pushes buffered lines into the current zstd frame.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	w.log.Debug("journal rotated", "path", path, "seq", w.seq)
	return nil
}

func (w *Writer) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err1
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", filePrefix, hour))
}
