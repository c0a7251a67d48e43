package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"leveragePool/internal/command"
	"leveragePool/internal/config"
	"leveragePool/internal/pool"
	"leveragePool/internal/replay"
	"leveragePool/internal/storage"
	"leveragePool/internal/storage/postgres"
)

// openSnapshots picks the Postgres snapshot table when a DSN is given and
// the snapshot file otherwise. The returned close func is never nil.
func openSnapshots(ctx context.Context, dsn, path, address string) (storage.SnapshotStore, *postgres.Store, func(), error) {
	if dsn == "" {
		return &storage.FileSnapshotStore{Path: path}, nil, func() {}, nil
	}
	if address == "" {
		return nil, nil, nil, config.ErrPoolAddress
	}
	addr, err := command.ParseAddress(address)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("pool address: %w", err)
	}
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return &replay.DBSnapshotStore{Store: store, Address: addr}, store, store.Close, nil
}

// loadPool restores the pool from its snapshot or creates it from cfg.
func loadPool(ctx context.Context, cfg config.PoolConfig, snapshots storage.SnapshotStore, logger *zap.Logger) (*pool.Pool, error) {
	var address common.Address
	if cfg.Address != "" {
		var err error
		if address, err = command.ParseAddress(cfg.Address); err != nil {
			return nil, fmt.Errorf("pool address: %w", err)
		}
	}

	state, ok, err := snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if ok {
		if cfg.Address != "" && state.Address != address {
			return nil, fmt.Errorf("snapshot belongs to pool %s, not %s", state.Address.Hex(), address.Hex())
		}
		logger.Info("pool restored",
			zap.String("pool", state.Address.Hex()),
			zap.Int64("linear_shares", state.Shares.Linear),
			zap.Int64("last_ts", state.Recent.LastTs),
		)
	} else {
		if cfg.Address == "" {
			return nil, config.ErrPoolAddress
		}
		xAsset, err := command.ParseAssetID(cfg.XAsset)
		if err != nil {
			return nil, fmt.Errorf("x asset: %w", err)
		}
		yAsset, err := command.ParseAssetID(cfg.YAsset)
		if err != nil {
			return nil, fmt.Errorf("y asset: %w", err)
		}
		state = pool.NewState(address, xAsset, yAsset, cfg.Params, cfg.ShareCurve)
		logger.Info("pool created",
			zap.String("pool", address.Hex()),
			zap.String("x_asset", string(xAsset)),
			zap.String("y_asset", string(yAsset)),
			zap.Float64("alpha", cfg.Params.Alpha),
			zap.Float64("pool_leverage", cfg.Params.PoolLeverage),
		)
	}

	return pool.New(state, pool.Options{
		Logger:            logger,
		ChallengingPeriod: int64(cfg.ChallengingPeriod.Seconds()),
		BounceFee:         cfg.BounceFee,
	})
}
