package leverage

import (
	"errors"
	"fmt"
	"math"

	"leveragePool/internal/arb"
	"leveragePool/internal/curve"
	"leveragePool/internal/model"
)

var (
	ErrZeroDelta          = errors.New("delta must be nonzero")
	ErrZeroShares         = errors.New("trade is too small to mint or burn a share")
	ErrWrongDirection     = errors.New("trade moves funds in the wrong direction")
	ErrInsufficientBucket = errors.New("not enough leveraged balance to sell")
	ErrFeeExceedsProceeds = errors.New("fees exceed the proceeds")
)

// shareEpsilon absorbs float noise when a sale burns a whole bucket.
const shareEpsilon = 1e-6

// TradeRequest describes a leveraged buy or sell. Delta is the change of the
// pool's net balance of Bucket.Side: negative when buying, positive when
// selling.
type TradeRequest struct {
	Bucket     Bucket
	Delta      float64
	EntryPrice float64
}

// Trade is the outcome of a leveraged trade, before it is applied.
type Trade struct {
	Balances          model.Balances                    `json:"balances"`
	Buckets           map[string]model.LeveragedBalance `json:"leveraged_balances"`
	Shares            int64                             `json:"shares"`
	NetDelta          float64                           `json:"net_delta"`
	GrossDelta        float64                           `json:"gross_delta"`
	AvgSharePrice     float64                           `json:"avg_share_price"`
	SwapFee           float64                           `json:"swap_fee"`
	ArbProfitTax      float64                           `json:"arb_profit_tax"`
	LeverageProfitTax float64                           `json:"leverage_profit_tax"`
	TotalFee          float64                           `json:"total_fee"`
	InitialPrice      float64                           `json:"initial_price"`
	FinalPrice        float64                           `json:"final_price"`
	// Residual is what an emptied bucket leaves behind for the LP.
	Residual model.Pair `json:"residual"`
}

// Buy reports whether the trade mints shares.
func (t Trade) Buy() bool {
	return t.Shares > 0
}

// ComputeTrade prices a leveraged trade against the pool.
func ComputeTrade(c curve.Curve, bal model.Balances, buckets map[string]model.LeveragedBalance, params model.Params, req TradeRequest) (Trade, error) {
	if req.Delta == 0 || math.IsNaN(req.Delta) {
		return Trade{}, ErrZeroDelta
	}
	if req.Bucket.L < 2 {
		return Trade{}, ErrInvalidLeverage
	}
	side, other := req.Bucket.Side, req.Bucket.Side.Other()
	buy := req.Delta < 0

	p0 := c.Price(bal)
	moved, err := c.MoveByDelta(bal, side, req.Delta)
	if err != nil {
		return Trade{}, err
	}
	p1 := c.Price(moved)

	flows, evolved, err := Flows(buckets, p0, p1)
	if err != nil {
		return Trade{}, err
	}

	qa := req.Delta - flows.Get(side)
	qo := moved.Net(other) - bal.Net(other) - flows.Get(other)
	l := float64(req.Bucket.L)
	aNew := l * qo / ((l - 1) * req.Bucket.SidePrice(p1))
	e := aNew + qa

	key := req.Bucket.Key()
	lb := evolved[key]
	if buy {
		if aNew <= 0 || e <= 0 {
			return Trade{}, ErrWrongDirection
		}
	} else {
		if aNew >= 0 || e >= 0 {
			return Trade{}, ErrWrongDirection
		}
		if lb.Supply == 0 || -aNew > lb.Balance*(1+1e-9) {
			return Trade{}, ErrInsufficientBucket
		}
		aNew = math.Max(aNew, -lb.Balance)
	}

	// a fresh bucket starts at share price 1
	exact := e
	if lb.Supply > 0 {
		exact = float64(lb.Supply) * aNew / lb.Balance
	}
	var shares int64
	if buy {
		shares = int64(math.Floor(exact))
	} else {
		shares = -int64(math.Ceil(-exact - shareEpsilon))
		if -shares > lb.Supply {
			return Trade{}, ErrInsufficientBucket
		}
	}
	if shares == 0 {
		return Trade{}, ErrZeroShares
	}

	lb.Balance += aNew
	lb.Supply += shares
	var residual model.Pair
	if lb.Supply == 0 {
		residual.Add(side, lb.Balance)
		residual.Add(other, -req.Bucket.Debt(lb.Balance, p1))
		lb.Balance = 0
	}
	evolved[key] = lb

	avg := e / float64(shares)
	finalSharePrice := avg
	if lb.Supply > 0 {
		finalSharePrice = req.Bucket.SharePrice(lb)
	}

	t := Trade{
		Balances:      moved,
		Buckets:       evolved,
		Shares:        shares,
		NetDelta:      e,
		AvgSharePrice: avg,
		SwapFee:       params.SwapFee * math.Abs(req.Delta),
		ArbProfitTax:  arb.LeveragedTradeTax(params.ArbProfitTax, shares, finalSharePrice, e),
		InitialPrice:  p0,
		FinalPrice:    p1,
		Residual:      residual,
	}
	if !buy {
		t.LeverageProfitTax = arb.LeverageProfitTax(params.LeverageProfitTax, shares, avg, req.EntryPrice)
	}
	t.TotalFee = t.SwapFee + t.ArbProfitTax + t.LeverageProfitTax
	t.GrossDelta = e + t.TotalFee
	if !buy && t.GrossDelta >= 0 {
		return Trade{}, ErrFeeExceedsProceeds
	}
	return t, nil
}

// Describe is a short human readable form used in logs.
func (t Trade) Describe() string {
	return fmt.Sprintf("shares=%d net=%.6f fee=%.6f price=%.10g->%.10g", t.Shares, t.NetDelta, t.TotalFee, t.InitialPrice, t.FinalPrice)
}
