package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"leveragePool/internal/config"
	"leveragePool/internal/leverage"
	"leveragePool/internal/model"
	"leveragePool/internal/pool"
	"leveragePool/internal/solver"
)

var solveTargets = []string{"leveraged-shares", "swap-out"}

const maxExpandSteps = 64

type solution struct {
	Target string        `json:"target"`
	Want   float64       `json:"want"`
	Delta  float64       `json:"delta"`
	Result solver.Result `json:"result"`
	Quote  any           `json:"quote"`
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSolve(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	flags := cmd.Flags()
	label, _ := flags.GetString("asset")
	asset, err := model.ParseSide(label)
	if err != nil {
		return err
	}
	l, _ := flags.GetInt("leverage")
	want, _ := flags.GetFloat64("target")
	start, _ := flags.GetFloat64("start")
	if want <= 0 {
		return fmt.Errorf("target must be positive")
	}
	now, err := config.ParseTimestamp(cfg.At, time.Now())
	if err != nil {
		return fmt.Errorf("parse at: %w", err)
	}

	ctx := context.Background()
	snapshots, _, closeStore, err := openSnapshots(ctx, cfg.PGDSN, cfg.Snapshot, cfg.Pool.Address)
	if err != nil {
		return err
	}
	defer closeStore()

	p, err := loadPool(ctx, cfg.Pool, snapshots, logger)
	if err != nil {
		return err
	}

	f, quoteAt, err := objective(p, args[0], asset, l, now)
	if err != nil {
		return err
	}
	lo, hi, err := solver.Expand(f, want, start, maxExpandSteps)
	if err != nil {
		return err
	}
	res, err := solver.Solve(f, want, lo, hi, solver.Options{
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
	})
	if err != nil {
		return err
	}
	q, err := quoteAt(res.X)
	if err != nil {
		return err
	}

	logger.Debug("solved",
		zap.String("target", args[0]),
		zap.Float64("x", res.X),
		zap.Int("iterations", res.Iterations),
	)
	return writeJSON(cmd.OutOrStdout(), solution{
		Target: args[0],
		Want:   want,
		Delta:  res.X,
		Result: res,
		Quote:  q,
	})
}

// objective returns an increasing function of the trade size d > 0 and the
// quote behind it.
//
// leveraged-shares: shares minted by a buy that takes d of the bucket's
// asset out of the LP net balance.
// swap-out: output of a swap that takes d out of the net balance of asset.
func objective(p *pool.Pool, target string, asset model.Side, l int, now int64) (solver.Func, func(float64) (any, error), error) {
	switch target {
	case "leveraged-shares":
		quoteAt := func(d float64) (any, error) {
			return p.LeveragedTradeAmounts(asset, l, -d, 0, now)
		}
		f := func(d float64) (float64, error) {
			t, err := p.LeveragedTradeAmounts(asset, l, -d, 0, now)
			if errors.Is(err, leverage.ErrZeroShares) {
				return 0, nil
			}
			if err != nil {
				return 0, err
			}
			return math.Abs(float64(t.Shares)), nil
		}
		return f, quoteAt, nil
	case "swap-out":
		quoteAt := func(d float64) (any, error) {
			return p.SwapAmountsByDelta(asset, -d, now)
		}
		f := func(d float64) (float64, error) {
			q, err := p.SwapAmountsByDelta(asset, -d, now)
			if errors.Is(err, pool.ErrZeroOutput) {
				return 0, nil
			}
			if err != nil {
				return 0, err
			}
			return float64(q.Out), nil
		}
		return f, quoteAt, nil
	default:
		return nil, nil, fmt.Errorf("unknown target %q, want one of %v", target, solveTargets)
	}
}
