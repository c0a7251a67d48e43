package pool

import (
	"encoding/json"
	"fmt"
	"math"

	"leveragePool/internal/interest"
	"leveragePool/internal/leverage"
	"leveragePool/internal/model"
)

// view returns a copy of the state, brought to now when afterInterest is set.
func (p *Pool) view(afterInterest bool, now int64) (*model.PoolState, error) {
	st := p.state.Clone()
	if afterInterest {
		if err := accrue(&st, now); err != nil {
			return nil, err
		}
	}
	return &st, nil
}

// Price returns the price of asset in the other asset as if extraIn more of
// asset were in the pool and extraOut less of the other one.
func (p *Pool) Price(asset model.Side, extraIn, extraOut float64, afterInterest bool, now int64) (float64, error) {
	st, err := p.view(afterInterest, now)
	if err != nil {
		return 0, err
	}
	if _, err := priceOf(st); err != nil {
		return 0, err
	}
	bal := st.Balances
	if asset == model.SideX {
		bal.X += extraIn
		bal.Y -= extraOut
	} else {
		bal.Y += extraIn
		bal.X -= extraOut
	}
	if bal.X < 0 || bal.Y < 0 {
		return 0, ErrNegativeBalance
	}
	price := curveOf(st).Price(bal)
	if asset == model.SideY {
		price = 1 / price
	}
	return price, nil
}

// LeveragedPrice is the value of one share of the (L, asset) bucket in the
// bucket's asset.
func (p *Pool) LeveragedPrice(asset model.Side, l int, afterInterest bool, now int64) (float64, error) {
	b, err := leverage.NewBucket(l, asset)
	if err != nil {
		return 0, err
	}
	st, err := p.view(afterInterest, now)
	if err != nil {
		return 0, err
	}
	return b.SharePrice(st.Leveraged[b.Key()]), nil
}

// Bounds are the virtual shifts and the reachable price range.
type Bounds struct {
	X0   float64
	Y0   float64
	PMin float64
	PMax float64
}

// MarshalJSON renders an unbounded p_max as null.
func (b Bounds) MarshalJSON() ([]byte, error) {
	out := struct {
		X0   float64  `json:"x0"`
		Y0   float64  `json:"y0"`
		PMin float64  `json:"p_min"`
		PMax *float64 `json:"p_max"`
	}{X0: b.X0, Y0: b.Y0, PMin: b.PMin}
	if !math.IsInf(b.PMax, 1) {
		out.PMax = &b.PMax
	}
	return json.Marshal(out)
}

// ShiftsAndBounds reports x0, y0 and the price bounds.
func (p *Pool) ShiftsAndBounds() Bounds {
	c := curveOf(&p.state)
	lo, hi := c.Bounds(p.state.Balances)
	return Bounds{X0: c.X0, Y0: c.Y0, PMin: lo, PMax: hi}
}

// SwapAmountsByFinalPrice quotes a swap paying in until the price of the
// output asset reaches finalPrice.
func (p *Pool) SwapAmountsByFinalPrice(in model.Side, finalPrice float64, now int64) (SwapQuote, error) {
	st, err := p.view(true, now)
	if err != nil {
		return SwapQuote{}, err
	}
	return quoteByFinalPrice(st, in, finalPrice)
}

// SwapAmountsByDelta quotes a swap that changes the net balance of side by
// delta.
func (p *Pool) SwapAmountsByDelta(side model.Side, delta float64, now int64) (SwapQuote, error) {
	st, err := p.view(true, now)
	if err != nil {
		return SwapQuote{}, err
	}
	return quoteByDelta(st, side, delta)
}

// LeveragedTradeAmounts quotes a leveraged trade. delta is the change of the
// pool's net balance of the bucket's asset: negative to buy, positive to
// sell.
func (p *Pool) LeveragedTradeAmounts(asset model.Side, l int, delta, entryPrice float64, now int64) (leverage.Trade, error) {
	b, err := leverage.NewBucket(l, asset)
	if err != nil {
		return leverage.Trade{}, err
	}
	st, err := p.view(true, now)
	if err != nil {
		return leverage.Trade{}, err
	}
	return quoteLeveraged(st, b, delta, entryPrice)
}

// BalancesView is the accounting part of the state.
type BalancesView struct {
	Balances  model.Balances                    `json:"balances"`
	Leveraged map[string]model.LeveragedBalance `json:"leveraged_balances"`
	Profits   model.Pair                        `json:"profits"`
}

// BalancesAfterInterest returns the balances with interest charged up to now.
func (p *Pool) BalancesAfterInterest(now int64) (BalancesView, error) {
	st, err := p.view(true, now)
	if err != nil {
		return BalancesView{}, err
	}
	return BalancesView{Balances: st.Balances, Leveraged: st.Leveraged, Profits: st.Profits}, nil
}

// TotalBalance compares what the pool accounts for in one asset with what it
// actually holds.
type TotalBalance struct {
	Accounted float64 `json:"accounted"`
	Holdings  float64 `json:"holdings"`
	Excess    float64 `json:"excess"`
}

// Totals is TotalBalance for both assets.
type Totals struct {
	X TotalBalance `json:"x"`
	Y TotalBalance `json:"y"`
}

// TotalBalances sums net balances, profits and bucket holdings minus bucket
// debts and compares them with the pool's holdings.
func (p *Pool) TotalBalances(afterInterest bool, now int64) (Totals, error) {
	st, err := p.view(afterInterest, now)
	if err != nil {
		return Totals{}, err
	}
	var held, debt model.Pair
	if price, perr := priceOf(st); perr == nil {
		if held, debt, err = leverage.Totals(st.Leveraged, price); err != nil {
			return Totals{}, fmt.Errorf("leveraged totals: %w", err)
		}
	}
	total := func(net, profit, h, d, holdings float64) TotalBalance {
		acc := net + profit + h - d
		return TotalBalance{Accounted: acc, Holdings: holdings, Excess: holdings - acc}
	}
	return Totals{
		X: total(st.Balances.Xn, st.Profits.X, held.X, debt.X, st.Holdings.X),
		Y: total(st.Balances.Yn, st.Profits.Y, held.Y, debt.Y, st.Holdings.Y),
	}, nil
}

// UtilizationRatio is the value lent to leverage buckets over the gross value
// of the pool.
func (p *Pool) UtilizationRatio(now int64) (float64, error) {
	st, err := p.view(true, now)
	if err != nil {
		return 0, err
	}
	price, err := priceOf(st)
	if err != nil {
		return 0, err
	}
	return interest.Utilization(st.Leveraged, st.Balances, price)
}
