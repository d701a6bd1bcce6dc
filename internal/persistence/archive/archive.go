package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ynishi/issun-sub004/internal/persistence/snapshot"
)

type EpochMeta struct {
	Epoch     int    `json:"epoch"`
	EndTick   uint64 `json:"end_tick"`
	Run       string `json:"run"`
	Family    string `json:"family"`
	Seed      int64  `json:"seed"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
	Every     uint64 `json:"every_ticks"`
}

// ArchiveEpoch copies an epoch-end snapshot into `runDir/archives/epoch_<NNN>/`.
// It returns (epoch, archivedPath, archived=true) when the snapshot closes
// an epoch of `every` ticks, i.e. its tick is a positive multiple of every.
func ArchiveEpoch(runDir, snapshotPath string, h snapshot.Header, every uint64) (epoch int, archivedPath string, archived bool, err error) {
	if every == 0 || h.Tick == 0 || h.Tick%every != 0 {
		return 0, "", false, nil
	}
	epoch = int(h.Tick / every)

	archiveDir := filepath.Join(runDir, "archives", fmt.Sprintf("epoch_%03d", epoch))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return 0, "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return 0, "", false, err
	}

	meta := EpochMeta{
		Epoch:     epoch,
		EndTick:   h.Tick,
		Run:       h.Run,
		Family:    h.Family,
		Seed:      h.Seed,
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Every:     every,
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, "", false, err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, h.Family+".meta.json"), b, 0o644); err != nil {
		return 0, "", false, err
	}
	return epoch, dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
