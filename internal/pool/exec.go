package pool

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"leveragePool/internal/command"
	"leveragePool/internal/model"
	"leveragePool/internal/shares"
	"leveragePool/internal/window"
)

// execution carries one trigger through a speculative copy of the state.
type execution struct {
	st                *model.PoolState
	trig              model.Trigger
	ledger            shares.Ledger
	challengingPeriod int64
	payments          []model.Payment
	vars              map[string]any
	logger            *zap.Logger
}

func (x *execution) run(cmd command.Command) error {
	if err := accrue(x.st, x.trig.Ts); err != nil {
		return fmt.Errorf("accrue interest: %w", err)
	}
	switch c := cmd.(type) {
	case command.BuyShares:
		return x.buyShares(c)
	case command.RemoveLiquidity:
		return x.removeLiquidity(c)
	case command.AddProfits:
		return x.addProfits()
	case command.Swap:
		return x.swap(c)
	case command.LeverageTrade:
		if c.Buy {
			return x.buyLeveraged(c)
		}
		return x.sellLeveraged(c)
	case command.DefineLeverage:
		return x.defineLeverage(c)
	case command.Transfer:
		return x.transfer(c)
	case command.Vote:
		return x.vote(c)
	case command.RemoveVote:
		return x.removeVote(c)
	case command.Commit:
		return x.commit(c)
	case command.Withdraw:
		return x.withdraw()
	default:
		return fmt.Errorf("%w: %T", command.ErrUnrecognized, cmd)
	}
}

func (x *execution) pay(asset model.AssetID, amount int64) {
	if amount <= 0 {
		return
	}
	x.payments = append(x.payments, model.Payment{Asset: asset, Address: x.trig.Address, Amount: amount})
}

func (x *execution) paySide(side model.Side, amount int64) {
	x.pay(x.st.Asset(side), amount)
}

// record adds a price-moving trade to the window. amounts is the traded
// volume: the gross output of a swap, or the net amount of a leveraged trade
// in the bucket's asset.
func (x *execution) record(p0, p1 float64, amounts, taxes model.Pair) {
	x.st.Recent = window.Record(x.st.Recent, window.Trade{
		Address:   x.trig.Address,
		Ts:        x.trig.Ts,
		Pmin:      math.Min(p0, p1),
		Pmax:      math.Max(p0, p1),
		Amounts:   amounts,
		PaidTaxes: taxes,
	})
}

func signed(side model.Side, v float64) model.Pair {
	var p model.Pair
	p.Add(side, v)
	return p
}
