package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"leveragePool/internal/model"
)

var ErrSnapshotIsDir = errors.New("snapshot path is a directory")

// FileSnapshotStore keeps the pool state in a local JSON file. Writes go to a
// temporary file first and are renamed into place.
type FileSnapshotStore struct {
	Path string
}

type snapshotRecord struct {
	State     model.PoolState `json:"state"`
	UpdatedAt string          `json:"updated_at"`
}

func (s *FileSnapshotStore) LoadSnapshot(_ context.Context) (model.PoolState, bool, error) {
	if s == nil || s.Path == "" {
		return model.PoolState{}, false, nil
	}
	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.PoolState{}, false, nil
		}
		return model.PoolState{}, false, fmt.Errorf("stat snapshot: %w", err)
	}
	if stat.IsDir() {
		return model.PoolState{}, false, ErrSnapshotIsDir
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.PoolState{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	var rec snapshotRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.PoolState{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return rec.State, true, nil
}

func (s *FileSnapshotStore) SaveSnapshot(_ context.Context, state model.PoolState) error {
	if s == nil || s.Path == "" {
		return nil
	}
	data, err := json.MarshalIndent(snapshotRecord{
		State:     state,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := WriteFileAtomic(s.Path, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data next to path and renames it into place, so a
// reader never sees a partial file.
func WriteFileAtomic(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
