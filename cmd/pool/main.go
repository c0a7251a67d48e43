package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "pool",
		Short:        "Leveraged liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Execute a JSONL file of triggers against a pool",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input triggers JSONL")
	replayCmd.Flags().String("out", "./data/responses.jsonl", "output responses JSONL")
	replayCmd.Flags().String("snapshot", "./data/snapshot.json", "pool snapshot file path")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN; replaces the snapshot and checkpoint files")
	replayCmd.Flags().Uint64("batch-size", 500, "triggers per batch")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts for storage writes")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:       "quote <getter>",
		Short:     "Run a read-only getter against a stored pool",
		Args:      cobra.ExactArgs(1),
		ValidArgs: quoteGetters,
		RunE:      runQuote,
	}
	addSnapshotFlags(quoteCmd)
	quoteCmd.Flags().String("asset", "x", "asset label (x or y)")
	quoteCmd.Flags().Int("leverage", 2, "leverage L")
	quoteCmd.Flags().Float64("extra-in", 0, "extra amount of asset added to the pool")
	quoteCmd.Flags().Float64("extra-out", 0, "extra amount of the other asset removed from the pool")
	quoteCmd.Flags().Bool("after-interest", true, "charge interest up to --at first")
	quoteCmd.Flags().Float64("final-price", 0, "final price of the output asset in the input asset")
	quoteCmd.Flags().Float64("delta", 0, "change of the pool's net balance of asset")
	quoteCmd.Flags().Float64("entry-price", 0, "entry price for leverage profit tax")

	root.AddCommand(quoteCmd)

	solveCmd := &cobra.Command{
		Use:       "solve <target>",
		Short:     "Find the trade size that produces a target output",
		Args:      cobra.ExactArgs(1),
		ValidArgs: solveTargets,
		RunE:      runSolve,
	}
	addSnapshotFlags(solveCmd)
	solveCmd.Flags().String("asset", "x", "asset label (x or y)")
	solveCmd.Flags().Int("leverage", 2, "leverage L")
	solveCmd.Flags().Float64("target", 0, "wanted output")
	solveCmd.Flags().Float64("start", 1000, "initial guess for the bracket search")
	solveCmd.Flags().Float64("tolerance", 1e-9, "relative tolerance")
	solveCmd.Flags().Int("max-iterations", 200, "iteration limit")

	root.AddCommand(solveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSnapshotFlags(cmd *cobra.Command) {
	cmd.Flags().String("snapshot", "./data/snapshot.json", "pool snapshot file path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN to read the snapshot from")
	cmd.Flags().String("at", "", "evaluation time (unix seconds or RFC3339), default now")
	cmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
