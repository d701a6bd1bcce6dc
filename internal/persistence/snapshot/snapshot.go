// Package snapshot stores entity states of one family at a tick: a JSON
// header line followed by a gob body, zstd compressed.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/ynishi/issun-sub004/internal/sim/orchestrate"
)

const Version = 1

type Header struct {
	Version  int    `json:"version"`
	Run      string `json:"run"`
	Family   string `json:"family"`
	Tick     uint64 `json:"tick"`
	Seed     int64  `json:"seed"`
	Entities int    `json:"entities"`
}

type Snapshot[S any] struct {
	Header   Header
	Entities []orchestrate.Entity[S]
}

// New fills the header's version and entity count.
func New[S any](run, family string, tick uint64, seed int64, entities []orchestrate.Entity[S]) Snapshot[S] {
	return Snapshot[S]{
		Header: Header{
			Version:  Version,
			Run:      run,
			Family:   family,
			Tick:     tick,
			Seed:     seed,
			Entities: len(entities),
		},
		Entities: entities,
	}
}

// PathFor is the conventional location of a family snapshot at tick.
func PathFor(dir, family string, tick uint64) string {
	return filepath.Join(dir, "snapshots", fmt.Sprintf("%s-%d.snap.zst", family, tick))
}

func Write[S any](path string, snap Snapshot[S]) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func Read[S any](path string) (Snapshot[S], error) {
	var snap Snapshot[S]
	br, closeFn, err := open(path)
	if err != nil {
		return snap, err
	}
	defer closeFn()

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("snapshot version %d, want %d", snap.Header.Version, Version)
	}
	return snap, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	br, closeFn, err := open(path)
	if err != nil {
		return h, err
	}
	defer closeFn()
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

func open(path string) (*bufio.Reader, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return bufio.NewReaderSize(dec, 256*1024), func() {
		dec.Close()
		_ = f.Close()
	}, nil
}
