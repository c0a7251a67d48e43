package pool

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"leveragePool/internal/command"
	"leveragePool/internal/leverage"
	"leveragePool/internal/model"
)

const positionPrefix = "position_"

func positionID(b leverage.Bucket, n int64) string {
	return fmt.Sprintf("%s%d_%d", positionPrefix, b.Signed(), n)
}

// positionBucket recovers the bucket a position id was minted in.
func positionBucket(id string) (leverage.Bucket, error) {
	parts := strings.Split(strings.TrimPrefix(id, positionPrefix), "_")
	if !strings.HasPrefix(id, positionPrefix) || len(parts) != 2 {
		return leverage.Bucket{}, fmt.Errorf("%w: %q", ErrUnknownPosition, id)
	}
	if _, err := strconv.ParseInt(parts[1], 10, 64); err != nil {
		return leverage.Bucket{}, fmt.Errorf("%w: %q", ErrUnknownPosition, id)
	}
	return leverage.Parse(parts[0] + "x")
}

// leveragedAssetVar names the response var announcing the token of b, e.g.
// leveraged_asset-10.
func leveragedAssetVar(b leverage.Bucket) string {
	return "leveraged_asset" + strconv.Itoa(b.Signed())
}

func quoteLeveraged(st *model.PoolState, b leverage.Bucket, delta, entryPrice float64) (leverage.Trade, error) {
	if _, err := priceOf(st); err != nil {
		return leverage.Trade{}, err
	}
	return leverage.ComputeTrade(curveOf(st), st.Balances, st.Leveraged, st.Params, leverage.TradeRequest{
		Bucket:     b,
		Delta:      delta,
		EntryPrice: entryPrice,
	})
}

// applyLeveraged commits t. rounding is what the trader left on top of the
// exact net amount, in the bucket's asset.
func applyLeveraged(st *model.PoolState, b leverage.Bucket, t leverage.Trade, rounding float64) error {
	st.Balances = t.Balances
	st.Leveraged = t.Buckets
	income := t.Residual
	income.Add(b.Side, t.TotalFee+rounding)
	return creditLP(st, income)
}

func (x *execution) buyLeveraged(c command.LeverageTrade) error {
	b, err := leverage.NewBucket(c.L, c.Asset)
	if err != nil {
		return err
	}
	var token model.AssetID
	if c.Tokens {
		if token = x.st.LeveragedAssets[b.Key()]; token == "" {
			return fmt.Errorf("%w: %s", ErrTokenUndefined, b.Key())
		}
	}
	t, err := quoteLeveraged(x.st, b, -c.Delta, 0)
	if err != nil {
		return err
	}
	required := math.Ceil(t.GrossDelta)
	paid := x.trig.Paid(x.st.Asset(b.Side))
	if float64(paid) < required {
		return fmt.Errorf("%w: need %.0f %s, got %d", ErrInsufficientPayment, required, b.Side, paid)
	}
	if err := applyLeveraged(x.st, b, t, required-t.GrossDelta); err != nil {
		return err
	}

	if c.Tokens {
		x.pay(token, t.Shares)
	} else {
		x.st.PositionCount++
		id := positionID(b, x.st.PositionCount)
		if x.st.Positions == nil {
			x.st.Positions = make(map[string]model.Position)
		}
		x.st.Positions[id] = model.Position{
			Owner:  x.trig.Address,
			Shares: t.Shares,
			Price:  t.AvgSharePrice,
			Ts:     x.trig.Ts,
		}
		x.vars["position"] = id
	}
	x.paySide(b.Side, paid-int64(required))

	x.record(t.InitialPrice, t.FinalPrice, signed(b.Side, t.NetDelta), signed(b.Side, t.ArbProfitTax))
	x.tradeVars(b, t)
	return nil
}

func (x *execution) sellLeveraged(c command.LeverageTrade) error {
	b, err := leverage.NewBucket(c.L, c.Asset)
	if err != nil {
		return err
	}
	var (
		available int64
		entry     float64
		pos       model.Position
		token     model.AssetID
	)
	if c.Position != "" {
		var ok bool
		if pos, ok = x.st.Positions[c.Position]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPosition, c.Position)
		}
		if pos.Owner != x.trig.Address {
			return ErrNotOwner
		}
		pb, err := positionBucket(c.Position)
		if err != nil {
			return err
		}
		if pb != b {
			return fmt.Errorf("%w: %s is %s, not %s", ErrPositionMismatch, c.Position, pb.Key(), b.Key())
		}
		available, entry = pos.Shares, pos.Price
	} else {
		if token = x.st.LeveragedAssets[b.Key()]; token == "" {
			return fmt.Errorf("%w: %s", ErrTokenUndefined, b.Key())
		}
		available, entry = x.trig.Paid(token), c.EntryPrice
	}

	t, err := quoteLeveraged(x.st, b, c.Delta, entry)
	if err != nil {
		return err
	}
	burned := -t.Shares
	if burned > available {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientShares, burned, available)
	}
	payout := math.Floor(-t.GrossDelta)
	if payout <= 0 {
		return ErrZeroOutput
	}
	if err := applyLeveraged(x.st, b, t, -t.GrossDelta-payout); err != nil {
		return err
	}

	if c.Position != "" {
		pos.Shares -= burned
		if pos.Shares == 0 {
			delete(x.st.Positions, c.Position)
		} else {
			x.st.Positions[c.Position] = pos
		}
		x.vars["position"] = c.Position
	} else {
		x.pay(token, available-burned)
	}
	x.paySide(b.Side, int64(payout))

	x.record(t.InitialPrice, t.FinalPrice, signed(b.Side, -t.NetDelta), signed(b.Side, t.ArbProfitTax+t.LeverageProfitTax))
	x.tradeVars(b, t)
	return nil
}

func (x *execution) tradeVars(b leverage.Bucket, t leverage.Trade) {
	if ce := x.logger.Check(zap.DebugLevel, "leveraged trade"); ce != nil {
		ce.Write(zap.String("bucket", b.Key()), zap.Bool("buy", t.Buy()), zap.String("trade", t.Describe()))
	}
	x.vars["shares"] = t.Shares
	x.vars["avg_share_price"] = t.AvgSharePrice
	x.vars["net_delta"] = t.NetDelta
	x.vars["gross_delta"] = t.GrossDelta
	x.vars["total_fee"] = t.TotalFee
	x.vars["arb_profit_tax"] = t.ArbProfitTax
	x.vars["leverage_profit_tax"] = t.LeverageProfitTax
	x.vars["initial_price"] = t.InitialPrice
	x.vars["final_price"] = t.FinalPrice
}

func (x *execution) defineLeverage(c command.DefineLeverage) error {
	b, err := leverage.NewBucket(c.L, model.SideX)
	if err != nil {
		return err
	}
	key := b.Key()
	if _, ok := x.st.LeveragedAssets[key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, key)
	}
	if x.st.LeveragedAssets == nil {
		x.st.LeveragedAssets = make(map[string]model.AssetID)
	}
	if x.st.Leveraged == nil {
		x.st.Leveraged = make(map[string]model.LeveragedBalance)
	}
	asset := LeveragedAssetID(x.st.Address, key)
	x.st.LeveragedAssets[key] = asset
	if _, ok := x.st.Leveraged[key]; !ok {
		x.st.Leveraged[key] = model.LeveragedBalance{}
	}
	x.vars[leveragedAssetVar(b)] = string(asset)
	return nil
}

func (x *execution) transfer(c command.Transfer) error {
	pos, ok := x.st.Positions[c.Position]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPosition, c.Position)
	}
	if pos.Owner != x.trig.Address {
		return ErrNotOwner
	}
	if c.NewOwner == (common.Address{}) {
		return ErrInvalidOwner
	}
	pos.Owner = c.NewOwner
	x.st.Positions[c.Position] = pos
	x.vars["position"] = c.Position
	x.vars["owner"] = c.NewOwner.Hex()
	return nil
}
