package replay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"leveragePool/internal/model"
	"leveragePool/internal/storage/postgres"
)

// DBStateStore stores the checkpoint in the replay_state table.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBStateStore) Save(ctx context.Context, line uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, line)
}

// DBSnapshotStore keeps the snapshot of one pool in pool_snapshots.
type DBSnapshotStore struct {
	Store   *postgres.Store
	Address common.Address
}

func (s *DBSnapshotStore) LoadSnapshot(ctx context.Context) (model.PoolState, bool, error) {
	return s.Store.LoadSnapshot(ctx, s.Address)
}

func (s *DBSnapshotStore) SaveSnapshot(ctx context.Context, state model.PoolState) error {
	return s.Store.SaveSnapshot(ctx, state)
}

// DBJournal writes responses of one pool to pool_responses.
type DBJournal struct {
	Store   *postgres.Store
	Address common.Address
}

func (j *DBJournal) PutResponses(ctx context.Context, responses []model.Response) error {
	return j.Store.PutResponses(ctx, j.Address, responses)
}
