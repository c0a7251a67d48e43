package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"leveragePool/internal/storage"
)

var ErrForeignCheckpoint = errors.New("checkpoint belongs to another pool")

// StateStore persists the number of the last input line whose effects are
// fully written.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, line uint64) error
}

// FileStateStore keeps the checkpoint of one pool in a JSON file. A file
// written for a different pool is refused instead of resuming mid-stream.
type FileStateStore struct {
	Path string
	Pool common.Address
}

type checkpoint struct {
	Pool      common.Address `json:"pool"`
	Line      uint64         `json:"line"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (s *FileStateStore) Load(_ context.Context) (uint64, bool, error) {
	if s == nil || s.Path == "" {
		return 0, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint %s: %w", s.Path, err)
	}
	if cp.Pool != s.Pool {
		return 0, false, fmt.Errorf("%w: %s holds %s", ErrForeignCheckpoint, s.Path, cp.Pool.Hex())
	}
	return cp.Line, true, nil
}

func (s *FileStateStore) Save(_ context.Context, line uint64) error {
	if s == nil || s.Path == "" {
		return nil
	}
	data, err := json.Marshal(checkpoint{Pool: s.Pool, Line: line, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := storage.WriteFileAtomic(s.Path, data); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}
