package leverage

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"leveragePool/internal/curve"
	"leveragePool/internal/model"
)

func TestNewBucket(t *testing.T) {
	cases := []struct {
		l    int
		side model.Side
		key  string
		want Bucket
	}{
		{5, model.SideX, "5x", Bucket{L: 5, Side: model.SideX}},
		{5, model.SideY, "-5x", Bucket{L: 5, Side: model.SideY}},
		{-10, model.SideX, "-10x", Bucket{L: 10, Side: model.SideY}},
		{-2, model.SideY, "2x", Bucket{L: 2, Side: model.SideX}},
	}
	for _, tc := range cases {
		got, err := NewBucket(tc.l, tc.side)
		if err != nil {
			t.Fatalf("NewBucket(%d, %s): %v", tc.l, tc.side, err)
		}
		if got != tc.want || got.Key() != tc.key {
			t.Fatalf("NewBucket(%d, %s) = %+v %s, want %+v %s", tc.l, tc.side, got, got.Key(), tc.want, tc.key)
		}
		parsed, err := Parse(tc.key)
		if err != nil || parsed != tc.want {
			t.Fatalf("Parse(%s) = %+v, %v", tc.key, parsed, err)
		}
	}

	for _, l := range []int{-1, 0, 1} {
		if _, err := NewBucket(l, model.SideX); !errors.Is(err, ErrInvalidLeverage) {
			t.Fatalf("leverage %d: expected ErrInvalidLeverage, got %v", l, err)
		}
	}
	for _, l := range []int{math.MinInt, -MaxLeverage - 1, MaxLeverage + 1} {
		if _, err := NewBucket(l, model.SideX); !errors.Is(err, ErrLeverageTooHigh) {
			t.Fatalf("leverage %d: expected ErrLeverageTooHigh, got %v", l, err)
		}
	}
	if _, err := Parse("-9223372036854775808x"); err == nil {
		t.Fatalf("expected error for an overflowing key")
	}
}

func TestFlowsCompounding(t *testing.T) {
	buckets := map[string]model.LeveragedBalance{
		"3x":  {Supply: 10, Balance: 100},
		"-2x": {Supply: 7, Balance: 5000},
	}
	flows, evolved, err := Flows(buckets, 100, 110)
	require.NoError(t, err)

	long := evolved["3x"]
	require.InDelta(t, 121, long.Balance, 1e-9)
	require.Equal(t, int64(10), long.Supply)

	short := evolved["-2x"]
	require.InDelta(t, 5000*100.0/110, short.Balance, 1e-9)

	longDebt := 2.0 / 3 * (110*121 - 100*100)
	shortDebt := 0.5 * (short.Balance/110 - 5000.0/100)
	require.InDelta(t, -21+shortDebt, flows.X, 1e-9)
	require.InDelta(t, longDebt-(short.Balance-5000), flows.Y, 1e-9)

	// the share price follows r^(L-1)
	b3 := Bucket{L: 3, Side: model.SideX}
	ratio := b3.SharePrice(long) / b3.SharePrice(buckets["3x"])
	require.InEpsilon(t, math.Pow(1.1, 2), ratio, 1e-12)

	if buckets["3x"].Balance != 100 {
		t.Fatalf("input buckets must not be modified")
	}
}

func TestComputeTradeRoundTrip(t *testing.T) {
	for _, lev := range []float64{1, 5} {
		c := curve.Curve{Alpha: 0.5, Leverage: lev}
		bal := model.Balances{X: lev * 1e9, Y: lev * 100e9, Xn: 1e9, Yn: 100e9}
		params := model.Params{Alpha: 0.5, PoolLeverage: lev}
		bucket := Bucket{L: 5, Side: model.SideX}

		bought, err := ComputeTrade(c, bal, nil, params, TradeRequest{Bucket: bucket, Delta: -1e6})
		require.NoError(t, err)
		require.True(t, bought.Buy())
		require.Greater(t, bought.FinalPrice, bought.InitialPrice)
		require.Greater(t, bought.NetDelta, 0.0)
		// the first buyer mints at share price 1 and gains from the own price
		// impact
		lb := bought.Buckets[bucket.Key()]
		require.InEpsilon(t, lb.Balance/5, bought.NetDelta, 1e-2)
		require.Less(t, bought.NetDelta, lb.Balance/5)
		require.Equal(t, int64(math.Floor(bought.NetDelta)), bought.Shares)
		require.InDelta(t, 1, bought.AvgSharePrice, 1e-6)
		require.Greater(t, bucket.SharePrice(lb), bought.AvgSharePrice)

		sold, err := ComputeTrade(c, bought.Balances, bought.Buckets, params, TradeRequest{Bucket: bucket, Delta: 1e6})
		require.NoError(t, err)
		require.Equal(t, -bought.Shares, sold.Shares)
		require.InEpsilon(t, bought.NetDelta, -sold.NetDelta, 1e-6)
		require.InEpsilon(t, bought.InitialPrice, sold.FinalPrice, 1e-9)
		require.Zero(t, sold.Buckets[bucket.Key()].Supply)
	}
}

func TestFirstMintAtUnitPrice(t *testing.T) {
	c := curve.Curve{Alpha: 0.5, Leverage: 10}
	bal := model.Balances{X: 11e9, Y: 1100e9, Xn: 1.1e9, Yn: 110e9}
	params := model.Params{Alpha: 0.5, PoolLeverage: 10, SwapFee: 0.003, ArbProfitTax: 0.99}

	long := Bucket{L: 5, Side: model.SideX}
	bought, err := ComputeTrade(c, bal, nil, params, TradeRequest{Bucket: long, Delta: -0.1e9})
	require.NoError(t, err)
	require.InDelta(t, 1, bought.AvgSharePrice, 1e-6)

	// buying more costs more than the first mint but less than the new price
	more, err := ComputeTrade(c, bought.Balances, bought.Buckets, params, TradeRequest{Bucket: long, Delta: -0.01e9})
	require.NoError(t, err)
	require.Greater(t, more.AvgSharePrice, long.SharePrice(bought.Buckets[long.Key()]))
	require.Less(t, more.AvgSharePrice, long.SharePrice(more.Buckets[long.Key()]))

	short, err := NewBucket(-10, model.SideX)
	require.NoError(t, err)
	sb, err := ComputeTrade(c, bal, nil, params, TradeRequest{Bucket: short, Delta: -3e9})
	require.NoError(t, err)
	require.InDelta(t, 1, sb.AvgSharePrice, 1e-6)
}

func TestComputeTradeFees(t *testing.T) {
	c := curve.Curve{Alpha: 0.5, Leverage: 1}
	bal := model.Balances{X: 1e9, Y: 100e9, Xn: 1e9, Yn: 100e9}
	params := model.Params{Alpha: 0.5, PoolLeverage: 1, SwapFee: 0.003, ArbProfitTax: 0.9, LeverageProfitTax: 0.1}
	bucket := Bucket{L: 10, Side: model.SideY}

	bought, err := ComputeTrade(c, bal, nil, params, TradeRequest{Bucket: bucket, Delta: -1e8})
	require.NoError(t, err)
	require.Less(t, bought.FinalPrice, bought.InitialPrice)
	require.InDelta(t, 0.003*1e8, bought.SwapFee, 1e-6)
	require.InDelta(t, bought.NetDelta+bought.TotalFee, bought.GrossDelta, 1e-6)

	sold, err := ComputeTrade(c, bought.Balances, bought.Buckets, params, TradeRequest{Bucket: bucket, Delta: 5e7, EntryPrice: bought.AvgSharePrice / 2})
	require.NoError(t, err)
	require.Less(t, sold.Shares, int64(0))
	require.Greater(t, sold.LeverageProfitTax, 0.0)
	require.Less(t, sold.GrossDelta, 0.0)
}

func TestComputeTradeRejects(t *testing.T) {
	c := curve.Curve{Alpha: 0.5, Leverage: 1}
	bal := model.Balances{X: 1e9, Y: 100e9, Xn: 1e9, Yn: 100e9}
	params := model.Params{Alpha: 0.5, PoolLeverage: 1}
	bucket := Bucket{L: 3, Side: model.SideX}

	if _, err := ComputeTrade(c, bal, nil, params, TradeRequest{Bucket: bucket, Delta: 1e6}); !errors.Is(err, ErrWrongDirection) && !errors.Is(err, ErrInsufficientBucket) {
		t.Fatalf("selling from an empty bucket: got %v", err)
	}
	if _, err := ComputeTrade(c, bal, nil, params, TradeRequest{Bucket: bucket}); !errors.Is(err, ErrZeroDelta) {
		t.Fatalf("zero delta: got %v", err)
	}
	if _, err := ComputeTrade(c, bal, nil, params, TradeRequest{Bucket: bucket, Delta: -2e9}); err == nil {
		t.Fatalf("expected error when the pool cannot give that much")
	}
}
