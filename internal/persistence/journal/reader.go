package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/zstd"

	"github.com/ynishi/issun-sub004/internal/protocol"
)

// Files lists the journal files in dir in write order.
func Files(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, filePrefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	// Hour stamps sort lexically.
	slices.Sort(files)
	return files, nil
}

// Scan calls fn for every envelope in dir, in write order, until fn
// returns false.
func Scan(dir string, fn func(protocol.Envelope) bool) error {
	files, err := Files(dir)
	if err != nil {
		return err
	}
	for _, path := range files {
		more, err := scanFile(path, fn)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

func scanFile(path string, fn func(protocol.Envelope) bool) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return false, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		env, err := protocol.Decode(sc.Bytes())
		if err != nil {
			return false, fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
		}
		if !fn(env) {
			return false, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", filepath.Base(path), &protocol.Error{Code: protocol.ErrCorrupt, Message: err.Error()})
	}
	return true, nil
}

// ReadAll loads every envelope in dir.
func ReadAll(dir string) ([]protocol.Envelope, error) {
	var out []protocol.Envelope
	err := Scan(dir, func(e protocol.Envelope) bool {
		out = append(out, e)
		return true
	})
	return out, err
}

// ReadBatch returns up to limit envelopes with Seq >= since. limit <= 0
// means no limit.
func ReadBatch(dir string, since uint64, limit int) (protocol.Batch, error) {
	b := protocol.Batch{Since: since, Next: since}
	err := Scan(dir, func(e protocol.Envelope) bool {
		if e.Seq < since {
			return true
		}
		b.Run = e.Run
		b.Envelopes = append(b.Envelopes, e)
		b.Next = e.Seq + 1
		return limit <= 0 || len(b.Envelopes) < limit
	})
	return b, err
}
