package governance

import (
	"fmt"
	"math"
	"strconv"

	"leveragePool/internal/model"
)

// Parameter names that can be voted on.
const (
	SwapFee           = "swap_fee"
	ExitFee           = "exit_fee"
	LeverageProfitTax = "leverage_profit_tax"
	ArbProfitTax      = "arb_profit_tax"
	BaseInterestRate  = "base_interest_rate"
	Alpha             = "alpha"
	PoolLeverage      = "pool_leverage"
	MidPrice          = "mid_price"
	PriceDeviation    = "price_deviation"
)

// Names lists every governable parameter.
var Names = []string{SwapFee, ExitFee, LeverageProfitTax, ArbProfitTax, BaseInterestRate, Alpha, PoolLeverage, MidPrice, PriceDeviation}

// Validate checks that value is acceptable for name. Alpha and pool leverage
// are frozen while the price is range bound; the range itself can only be
// tuned in range mode.
func Validate(name string, value float64, rangeMode bool) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s=%v", ErrInvalidValue, name, value)
	}
	ok := false
	switch name {
	case SwapFee, ExitFee, LeverageProfitTax, BaseInterestRate:
		ok = value >= 0 && value < 1
	case ArbProfitTax:
		ok = value >= 0
	case Alpha:
		if rangeMode {
			return fmt.Errorf("%w: alpha is fixed in range mode", ErrInvalidValue)
		}
		ok = value > 0 && value < 1
	case PoolLeverage:
		if rangeMode {
			return fmt.Errorf("%w: pool_leverage is fixed in range mode", ErrInvalidValue)
		}
		ok = value >= 1
	case MidPrice:
		if !rangeMode {
			return fmt.Errorf("%w: mid_price requires range mode", ErrInvalidValue)
		}
		ok = value > 0
	case PriceDeviation:
		if !rangeMode {
			return fmt.Errorf("%w: price_deviation requires range mode", ErrInvalidValue)
		}
		ok = value > 1
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	if !ok {
		return fmt.Errorf("%w: %s=%v", ErrInvalidValue, name, value)
	}
	return nil
}

// FormatValue is the canonical key of a voted value.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseValue reverses FormatValue.
func ParseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse value %q: %w", s, err)
	}
	return v, nil
}

// Get returns the live value of a parameter.
func Get(p model.Params, name string) (float64, error) {
	switch name {
	case SwapFee:
		return p.SwapFee, nil
	case ExitFee:
		return p.ExitFee, nil
	case LeverageProfitTax:
		return p.LeverageProfitTax, nil
	case ArbProfitTax:
		return p.ArbProfitTax, nil
	case BaseInterestRate:
		return p.BaseInterestRate, nil
	case Alpha:
		return p.Alpha, nil
	case PoolLeverage:
		return p.PoolLeverage, nil
	case MidPrice:
		return p.MidPrice, nil
	case PriceDeviation:
		return p.PriceDeviation, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParam, name)
}

// Set writes a parameter without any rebalancing.
func Set(p *model.Params, name string, v float64) error {
	switch name {
	case SwapFee:
		p.SwapFee = v
	case ExitFee:
		p.ExitFee = v
	case LeverageProfitTax:
		p.LeverageProfitTax = v
	case ArbProfitTax:
		p.ArbProfitTax = v
	case BaseInterestRate:
		p.BaseInterestRate = v
	case Alpha:
		p.Alpha = v
	case PoolLeverage:
		p.PoolLeverage = v
	case MidPrice:
		p.MidPrice = v
	case PriceDeviation:
		p.PriceDeviation = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// AffectsCurve reports whether changing name requires rebalancing reserves.
func AffectsCurve(name string) bool {
	switch name {
	case Alpha, PoolLeverage, MidPrice, PriceDeviation:
		return true
	}
	return false
}
