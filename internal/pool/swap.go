package pool

import (
	"fmt"
	"math"

	"leveragePool/internal/arb"
	"leveragePool/internal/command"
	"leveragePool/internal/curve"
	"leveragePool/internal/leverage"
	"leveragePool/internal/model"
)

// SwapFees are what the swapper pays beyond the curve: the rounding on the
// input, and everything withheld from the output (swap fee, arbitrage tax
// and rounding), so Out plus Fees.Out is the gross curve output.
type SwapFees struct {
	In  float64 `json:"in"`
	Out float64 `json:"out"`
}

// SwapQuote is the outcome of a swap before it is applied. Prices are of the
// output asset in units of the input asset.
type SwapQuote struct {
	InAsset      model.Side                        `json:"in_asset"`
	In           int64                             `json:"in"`
	Out          int64                             `json:"out"`
	ArbProfitTax float64                           `json:"arb_profit_tax"`
	Fees         SwapFees                          `json:"fees"`
	InitialPrice float64                           `json:"initial_price"`
	FinalPrice   float64                           `json:"final_price"`
	AvgPrice     float64                           `json:"avg_price"`
	Balances     model.Balances                    `json:"balances"`
	Buckets      map[string]model.LeveragedBalance `json:"leveraged_balances"`

	exactIn  float64
	grossOut float64
	p0, p1   float64
}

// outPrice converts the price of x in y into the price of the output asset
// in the input asset.
func outPrice(in model.Side, p float64) float64 {
	if in == model.SideY {
		return p
	}
	return 1 / p
}

func quoteByFinalPrice(st *model.PoolState, in model.Side, finalPrice float64) (SwapQuote, error) {
	p0, err := priceOf(st)
	if err != nil {
		return SwapQuote{}, err
	}
	if finalPrice <= outPrice(in, p0) {
		return SwapQuote{}, fmt.Errorf("%w: %v vs %v", ErrPriceDirection, finalPrice, outPrice(in, p0))
	}
	c := curveOf(st)
	moved, err := c.MoveToPrice(st.Balances, outPrice(in, finalPrice))
	if err != nil {
		return SwapQuote{}, err
	}
	return settleSwap(st, c, in, moved, p0, true)
}

func quoteByDelta(st *model.PoolState, side model.Side, delta float64) (SwapQuote, error) {
	p0, err := priceOf(st)
	if err != nil {
		return SwapQuote{}, err
	}
	if delta == 0 || math.IsNaN(delta) {
		return SwapQuote{}, ErrZeroOutput
	}
	in := side
	if delta < 0 {
		in = side.Other()
	}
	c := curveOf(st)
	moved, err := c.MoveByDelta(st.Balances, side, delta)
	if err != nil {
		return SwapQuote{}, err
	}
	return settleSwap(st, c, in, moved, p0, false)
}

// settleSwap splits the curve move into what the swapper pays and receives
// after the leverage buckets have rebalanced over the same price move.
func settleSwap(st *model.PoolState, c curve.Curve, in model.Side, moved model.Balances, p0 float64, taxed bool) (SwapQuote, error) {
	out := in.Other()
	p1 := c.Price(moved)
	flows, buckets, err := leverage.Flows(st.Leveraged, p0, p1)
	if err != nil {
		return SwapQuote{}, err
	}
	bal := st.Balances
	exactIn := moved.Net(in) - bal.Net(in) - flows.Get(in)
	grossOut := -(moved.Net(out) - bal.Net(out) - flows.Get(out))
	if exactIn <= 0 || grossOut <= 0 {
		return SwapQuote{}, fmt.Errorf("%w: in=%v out=%v", ErrNegativeFlow, exactIn, grossOut)
	}

	fee := st.Params.SwapFee * grossOut
	var tax float64
	if taxed {
		tax = arb.SwapTax(st.Params.ArbProfitTax, exactIn, grossOut, p1, out)
	}
	netOut := math.Floor(grossOut - fee - tax)
	if netOut <= 0 {
		return SwapQuote{}, ErrZeroOutput
	}
	required := math.Ceil(exactIn)
	return SwapQuote{
		InAsset:      in,
		In:           int64(required),
		Out:          int64(netOut),
		ArbProfitTax: tax,
		Fees:         SwapFees{In: required - exactIn, Out: grossOut - netOut},
		InitialPrice: outPrice(in, p0),
		FinalPrice:   outPrice(in, p1),
		AvgPrice:     exactIn / grossOut,
		Balances:     moved,
		Buckets:      buckets,
		exactIn:      exactIn,
		grossOut:     grossOut,
		p0:           p0,
		p1:           p1,
	}, nil
}

// applySwap commits q. Everything the swapper pays beyond the curve, and
// everything withheld from the output, goes to the LPs.
func applySwap(st *model.PoolState, q SwapQuote) error {
	st.Balances = q.Balances
	st.Leveraged = q.Buckets
	income := signed(q.InAsset, float64(q.In)-q.exactIn)
	income.Add(q.InAsset.Other(), q.grossOut-float64(q.Out))
	return creditLP(st, income)
}

func (x *execution) swap(c command.Swap) error {
	var (
		q   SwapQuote
		err error
	)
	if c.FinalPrice > 0 {
		q, err = quoteByFinalPrice(x.st, c.In, c.FinalPrice)
	} else {
		q, err = quoteByDelta(x.st, c.DeltaSide, c.DeltaNet)
	}
	if err != nil {
		return err
	}
	if q.InAsset != c.In {
		return fmt.Errorf("%w: paid %s but the trade needs %s", ErrNegativeFlow, c.In, q.InAsset)
	}
	if c.Amount < q.In {
		return fmt.Errorf("%w: need %d %s, got %d", ErrInsufficientPayment, q.In, c.In, c.Amount)
	}
	if q.Out < c.MinOut {
		return fmt.Errorf("%w: %d < %d", ErrBelowMinOut, q.Out, c.MinOut)
	}
	if err := applySwap(x.st, q); err != nil {
		return err
	}

	out := c.In.Other()
	x.paySide(out, q.Out)
	x.paySide(c.In, c.Amount-q.In)

	x.record(q.p0, q.p1, signed(out, q.grossOut), signed(out, q.ArbProfitTax))

	x.vars["in"] = q.In
	x.vars["out"] = q.Out
	x.vars["fee"] = q.Fees.Out - q.ArbProfitTax
	x.vars["arb_profit_tax"] = q.ArbProfitTax
	x.vars["initial_price"] = q.InitialPrice
	x.vars["final_price"] = q.FinalPrice
	x.vars["avg_price"] = q.AvgPrice
	return nil
}
