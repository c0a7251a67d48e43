package arb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"leveragePool/internal/model"
)

func TestSwapTax(t *testing.T) {
	// sold 10 x for 950 y, the price ended at 90: 50 y of profit
	require.InDelta(t, 5, SwapTax(0.1, 10, 950, 90, model.SideY), 1e-9)

	// bought 10 x for 1100 y, the price ended at 120: the input is worth 1100/120 x
	require.InDelta(t, 0.1*(10-1100.0/120), SwapTax(0.1, 1100, 10, 120, model.SideX), 1e-12)

	if got := SwapTax(0.1, 10, 800, 90, model.SideY); got != 0 {
		t.Fatalf("loss must not be taxed, got %v", got)
	}
	if got := SwapTax(0, 10, 950, 90, model.SideY); got != 0 {
		t.Fatalf("zero rate must not tax, got %v", got)
	}
}

func TestLeveragedTradeTax(t *testing.T) {
	require.InDelta(t, 2, LeveragedTradeTax(0.5, 100, 1.05, 101), 1e-9)
	require.InDelta(t, 1, LeveragedTradeTax(0.5, -100, 0.98, -100), 1e-9)
	require.Zero(t, LeveragedTradeTax(0.5, 100, 0.99, 101))
}

func TestLeverageProfitTax(t *testing.T) {
	require.InDelta(t, 1, LeverageProfitTax(0.1, -10, 2, 1), 1e-12)
	require.Zero(t, LeverageProfitTax(0.1, -10, 0.5, 1))
	require.Zero(t, LeverageProfitTax(0.1, -10, 2, 0))
}
