package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"leveragePool/internal/config"
	"leveragePool/internal/model"
	"leveragePool/internal/pool"
)

var quoteGetters = []string{
	"price",
	"leveraged-price",
	"bounds",
	"swap-by-final-price",
	"swap-by-delta",
	"leveraged-trade",
	"balances",
	"totals",
	"utilization",
}

type quoteArgs struct {
	asset         model.Side
	leverage      int
	extraIn       float64
	extraOut      float64
	afterInterest bool
	finalPrice    float64
	delta         float64
	entryPrice    float64
	now           int64
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	qa, err := readQuoteArgs(cmd, cfg.At)
	if err != nil {
		return err
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

	result, err := quote(p, args[0], qa)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func readQuoteArgs(cmd *cobra.Command, at string) (quoteArgs, error) {
	flags := cmd.Flags()
	label, _ := flags.GetString("asset")
	asset, err := model.ParseSide(label)
	if err != nil {
		return quoteArgs{}, err
	}
	now, err := config.ParseTimestamp(at, time.Now())
	if err != nil {
		return quoteArgs{}, fmt.Errorf("parse at: %w", err)
	}
	qa := quoteArgs{asset: asset, now: now}
	qa.leverage, _ = flags.GetInt("leverage")
	qa.extraIn, _ = flags.GetFloat64("extra-in")
	qa.extraOut, _ = flags.GetFloat64("extra-out")
	qa.afterInterest, _ = flags.GetBool("after-interest")
	qa.finalPrice, _ = flags.GetFloat64("final-price")
	qa.delta, _ = flags.GetFloat64("delta")
	qa.entryPrice, _ = flags.GetFloat64("entry-price")
	return qa, nil
}

// quote dispatches a getter by name. For swaps --asset is the input asset
// with --final-price and the balance being changed with --delta.
func quote(p *pool.Pool, getter string, qa quoteArgs) (any, error) {
	switch getter {
	case "price":
		return p.Price(qa.asset, qa.extraIn, qa.extraOut, qa.afterInterest, qa.now)
	case "leveraged-price":
		return p.LeveragedPrice(qa.asset, qa.leverage, qa.afterInterest, qa.now)
	case "bounds":
		return p.ShiftsAndBounds(), nil
	case "swap-by-final-price":
		return p.SwapAmountsByFinalPrice(qa.asset, qa.finalPrice, qa.now)
	case "swap-by-delta":
		return p.SwapAmountsByDelta(qa.asset, qa.delta, qa.now)
	case "leveraged-trade":
		return p.LeveragedTradeAmounts(qa.asset, qa.leverage, qa.delta, qa.entryPrice, qa.now)
	case "balances":
		return p.BalancesAfterInterest(qa.now)
	case "totals":
		return p.TotalBalances(qa.afterInterest, qa.now)
	case "utilization":
		return p.UtilizationRatio(qa.now)
	default:
		return nil, fmt.Errorf("unknown getter %q, want one of %v", getter, quoteGetters)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
