package model

// Params are the governance-tunable pool parameters.
type Params struct {
	SwapFee           float64 `json:"swap_fee"`
	ExitFee           float64 `json:"exit_fee"`
	LeverageProfitTax float64 `json:"leverage_profit_tax"`
	ArbProfitTax      float64 `json:"arb_profit_tax"`
	BaseInterestRate  float64 `json:"base_interest_rate"`
	Alpha             float64 `json:"alpha"`
	PoolLeverage      float64 `json:"pool_leverage"`
	MidPrice          float64 `json:"mid_price,omitempty"`
	PriceDeviation    float64 `json:"price_deviation,omitempty"`
}

// Beta is 1 - alpha.
func (p Params) Beta() float64 {
	return 1 - p.Alpha
}

// RangeMode reports whether the price is bounded around MidPrice.
func (p Params) RangeMode() bool {
	return p.MidPrice > 0
}

// DefaultParams returns the parameters a freshly created pool starts with.
func DefaultParams() Params {
	return Params{
		SwapFee:           0.003,
		ExitFee:           0.005,
		LeverageProfitTax: 0,
		ArbProfitTax:      0,
		BaseInterestRate:  0.2,
		Alpha:             0.5,
		PoolLeverage:      1,
	}
}
