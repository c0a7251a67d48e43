package storage

import (
	"context"

	"leveragePool/internal/model"
)

// Journal is a sink for trigger responses.
type Journal interface {
	PutResponses(ctx context.Context, responses []model.Response) error
}

// SnapshotStore persists the state of a single pool.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (model.PoolState, bool, error)
	SaveSnapshot(ctx context.Context, state model.PoolState) error
}
