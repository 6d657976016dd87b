package storage

import (
	"crypto_dash/internal/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Snapshot is a point-in-time capture of the ledger written to disk on
// shutdown or after a crash.
type Snapshot struct {
	Seq    uint64              `json:"seq"` // ledger version at capture time
	TsUnix int64               `json:"ts"`
	State  *domain.LedgerState `json:"state"`
}

// SnapshotManager handles saving and loading snapshots.
type SnapshotManager struct {
	dir string
}

// NewSnapshotManager creates a manager storing files under dir.
func NewSnapshotManager(dir string) *SnapshotManager {
	return &SnapshotManager{dir: dir}
}

// Dir returns the snapshot directory.
func (sm *SnapshotManager) Dir() string {
	return sm.dir
}

// Save writes a snapshot to disk and returns its path.
func (sm *SnapshotManager) Save(snap *Snapshot) (string, error) {
	if err := os.MkdirAll(sm.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	filename := fmt.Sprintf("snapshot_%d_%d.json", snap.Seq, snap.TsUnix)
	path := filepath.Join(sm.dir, filename)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Snapshot saved",
		slog.Uint64("seq", snap.Seq),
		slog.String("path", path))

	return path, nil
}

type snapFile struct {
	path string
	seq  uint64
	ts   int64
}

// list returns the snapshot files in dir, newest first.
func (sm *SnapshotManager) list() ([]snapFile, error) {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		return nil, err
	}

	var files []snapFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var f snapFile
		if _, err := fmt.Sscanf(entry.Name(), "snapshot_%d_%d.json", &f.seq, &f.ts); err != nil {
			continue
		}
		f.path = filepath.Join(sm.dir, entry.Name())
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].seq != files[j].seq {
			return files[i].seq > files[j].seq
		}
		return files[i].ts > files[j].ts
	})
	return files, nil
}

// LoadLatest loads the snapshot with the highest sequence.
// Returns nil if none exists.
func (sm *SnapshotManager) LoadLatest() (*Snapshot, error) {
	files, err := sm.list()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	data, err := os.ReadFile(files[0].path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	slog.Info("Snapshot loaded",
		slog.Uint64("seq", snap.Seq),
		slog.String("path", files[0].path))

	return &snap, nil
}

// CreateSnapshot captures state. The state is deep-copied so the snapshot
// stays valid whatever happens to the ledger afterwards.
func CreateSnapshot(state *domain.LedgerState) *Snapshot {
	return &Snapshot{
		Seq:    state.Version,
		TsUnix: time.Now().Unix(),
		State:  state.Clone(),
	}
}

// Cleanup removes old snapshots, keeping only the newest keepCount.
func (sm *SnapshotManager) Cleanup(keepCount int) error {
	files, err := sm.list()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(files) <= keepCount {
		return nil
	}

	for _, f := range files[keepCount:] {
		if err := os.Remove(f.path); err != nil {
			slog.Warn("Failed to remove old snapshot", slog.String("path", f.path), slog.Any("error", err))
		} else {
			slog.Info("Removed old snapshot", slog.String("path", f.path))
		}
	}
	return nil
}
