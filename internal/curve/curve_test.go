package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"leveragePool/internal/model"
)

func plainCurve() Curve {
	return Curve{Alpha: 0.5, Leverage: 1}
}

func TestMoveToPriceKeepsInvariant(t *testing.T) {
	c := plainCurve()
	b := model.Balances{X: 1e9, Y: 100e9, Xn: 1e9, Yn: 100e9}
	require.InDelta(t, 100, c.Price(b), 1e-9)

	moved, err := c.MoveToPrice(b, 120)
	require.NoError(t, err)
	require.InEpsilon(t, 120, c.Price(moved), 1e-12)
	require.InEpsilon(t, c.Invariant(b), c.Invariant(moved), 1e-12)
	require.Less(t, moved.X, b.X)
	require.Greater(t, moved.Y, b.Y)

	// the swapper pays y and receives x at an average price inside the move
	avg := (moved.Y - b.Y) / (b.X - moved.X)
	require.Greater(t, avg, 100.0)
	require.Less(t, avg, 120.0)
}

func TestMoveByDeltaFollowsCurve(t *testing.T) {
	c := Curve{Alpha: 0.3, Leverage: 1}
	b := model.Balances{X: 5e6, Y: 2e8, Xn: 5e6, Yn: 2e8}

	moved, err := c.MoveByDelta(b, model.SideX, -1e5)
	require.NoError(t, err)
	require.InDelta(t, b.X-1e5, moved.X, 1e-6)
	require.InEpsilon(t, c.Invariant(b), c.Invariant(moved), 1e-12)

	back, err := c.MoveByDelta(moved, model.SideY, b.Y-moved.Y)
	require.NoError(t, err)
	require.InEpsilon(t, b.X, back.X, 1e-9)
}

func TestMoveByDeltaRejectsOverdraw(t *testing.T) {
	c := plainCurve()
	b := model.Balances{X: 100, Y: 100, Xn: 100, Yn: 100}
	if _, err := c.MoveByDelta(b, model.SideY, -101); err == nil {
		t.Fatalf("expected error when draining more than the reserve")
	}
}

func TestRangeModeBounds(t *testing.T) {
	params := model.DefaultParams()
	params.MidPrice = 100
	params.PriceDeviation = 1.3
	x := 1e6
	s := x * math.Pow(params.MidPrice, params.Beta()) * params.PriceDeviation / (params.PriceDeviation - 1)
	c := New(params, s)
	b := model.Balances{X: x, Y: x * params.MidPrice, Xn: x, Yn: x * params.MidPrice}

	require.InEpsilon(t, s, c.Invariant(b), 1e-12)
	require.InEpsilon(t, 100, c.Price(b), 1e-12)

	pMin, pMax := c.Bounds(b)
	require.Less(t, pMin, 100.0)
	require.Greater(t, pMax, 100.0)
	require.InEpsilon(t, 100*100, pMin*pMax, 1e-9)

	top, err := c.MoveToPrice(b, pMax*0.999999)
	require.NoError(t, err)
	require.InDelta(t, 0, top.X, x*1e-5)

	if _, err := c.MoveToPrice(b, pMax*1.01); err == nil {
		t.Fatalf("expected error above p_max")
	}
	if _, err := c.MoveToPrice(b, pMin*0.99); err == nil {
		t.Fatalf("expected error below p_min")
	}
}

func TestGrossAtPriceKeepsPrice(t *testing.T) {
	b := GrossAtPrice(1000, 50000, 80, 5, 0.5)
	c := Curve{Alpha: 0.5, Leverage: 5}
	require.InEpsilon(t, 80, c.Price(b), 1e-12)
	requireLeverageRatio(t, b, 5)
}

func requireLeverageRatio(t *testing.T, b model.Balances, lev float64) {
	t.Helper()
	rx := b.X / b.Xn / lev
	ry := b.Y / b.Yn / lev
	if math.Abs(rx-1) > 1e-9 && math.Abs(ry-1) > 1e-9 {
		t.Fatalf("neither side saturated: x ratio %v, y ratio %v", rx, ry)
	}
	if rx > 1+1e-9 || ry > 1+1e-9 {
		t.Fatalf("gross above leverage: x ratio %v, y ratio %v", rx, ry)
	}
}
