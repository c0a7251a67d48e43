package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leveragePool/internal/config"
	"leveragePool/internal/replay"
	"leveragePool/internal/storage"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, store, closeStore, err := openSnapshots(ctx, cfg.PGDSN, cfg.Snapshot, cfg.Pool.Address)
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := loadPool(ctx, cfg.Pool, snapshots, logger)
	if err != nil {
		return err
	}

	sinks := replay.Sinks{
		Journal:   storage.NewJsonlJournal(cfg.Out),
		Snapshots: snapshots,
	}
	address := p.State().Address
	if store != nil {
		sinks.Journal = &replay.DBJournal{Store: store, Address: address}
		sinks.Windows = store
		if cfg.CheckpointEnabled {
			sinks.State = &replay.DBStateStore{Store: store, Name: "replay:" + address.Hex()}
		}
	} else if cfg.CheckpointEnabled {
		sinks.State = &replay.FileStateStore{Path: cfg.Checkpoint, Pool: address}
	}

	input, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	logger.Info("replay start",
		zap.String("in", cfg.Input),
		zap.String("out", cfg.Out),
		zap.String("snapshot", cfg.Snapshot),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	runner := replay.NewRunner(replay.Config{
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, p, sinks, logger)

	_, err = runner.Run(ctx, input)
	return err
}
