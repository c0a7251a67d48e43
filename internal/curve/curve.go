package curve

import (
	"errors"
	"math"

	"leveragePool/internal/model"
)

var (
	ErrInvalidPrice      = errors.New("price must be positive")
	ErrPriceOutOfRange   = errors.New("price is outside the reachable range")
	ErrInsufficientFunds = errors.New("not enough reserves in the pool")
	ErrEmptyPool         = errors.New("pool has no liquidity")
)

// Curve is the pricing function (X+x0)^alpha * (Y+y0)^beta = K, generalized
// to gross balances when the pool itself is leveraged.
type Curve struct {
	Alpha    float64
	Leverage float64
	X0       float64
	Y0       float64
}

// New builds the curve for params. s is the invariant tracked by the share
// ledger (linear shares times coef); it only matters in range mode.
func New(params model.Params, s float64) Curve {
	c := Curve{Alpha: params.Alpha, Leverage: params.PoolLeverage}
	if c.Leverage < 1 {
		c.Leverage = 1
	}
	if params.RangeMode() {
		c.X0, c.Y0 = Shifts(params, s)
	}
	return c
}

// Shifts returns the virtual balances that bound the price around mid_price.
func Shifts(params model.Params, s float64) (float64, float64) {
	if !params.RangeMode() || s <= 0 {
		return 0, 0
	}
	x0 := s / math.Pow(params.MidPrice, params.Beta()) / params.PriceDeviation
	return x0, x0 * params.MidPrice
}

func (c Curve) beta() float64 {
	return 1 - c.Alpha
}

func (c Curve) leveraged() bool {
	return c.Leverage > 1
}

// Price returns the price of x in terms of y.
func (c Curve) Price(b model.Balances) float64 {
	return c.Alpha / c.beta() * (b.Y + c.Y0) / (b.X + c.X0)
}

// Invariant returns K for an unleveraged pool.
func (c Curve) Invariant(b model.Balances) float64 {
	return math.Pow(b.X+c.X0, c.Alpha) * math.Pow(b.Y+c.Y0, c.beta())
}

// Bounds returns the lowest and highest reachable prices. An unbounded side
// is reported as 0 or +Inf.
func (c Curve) Bounds(b model.Balances) (float64, float64) {
	pMin, pMax := 0.0, math.Inf(1)
	if c.leveraged() {
		return pMin, pMax
	}
	k := c.Invariant(b)
	if c.X0 > 0 {
		v := math.Pow(k/math.Pow(c.X0, c.Alpha), 1/c.beta())
		pMax = c.Alpha / c.beta() * v / c.X0
	}
	if c.Y0 > 0 {
		u := math.Pow(k/math.Pow(c.Y0, c.beta()), 1/c.Alpha)
		pMin = c.Alpha / c.beta() * c.Y0 / u
	}
	return pMin, pMax
}

// MoveToPrice returns the balances after trading along the curve until the
// price of x reaches p1.
func (c Curve) MoveToPrice(b model.Balances, p1 float64) (model.Balances, error) {
	if p1 <= 0 || math.IsInf(p1, 0) || math.IsNaN(p1) {
		return model.Balances{}, ErrInvalidPrice
	}
	if b.Xn <= 0 && b.Yn <= 0 {
		return model.Balances{}, ErrEmptyPool
	}
	if c.leveraged() {
		return c.moveLeveragedToPrice(b, p1)
	}

	return c.AtInvariant(c.Invariant(b), p1)
}

// AtInvariant returns the unleveraged balances that sit on the curve with
// invariant k at price p.
func (c Curve) AtInvariant(k, p float64) (model.Balances, error) {
	if p <= 0 || math.IsInf(p, 0) || math.IsNaN(p) {
		return model.Balances{}, ErrInvalidPrice
	}
	ratio := c.beta() * p / c.Alpha
	u := k * math.Pow(ratio, -c.beta())
	v := u * ratio
	x, y := u-c.X0, v-c.Y0
	if x < 0 || y < 0 {
		return model.Balances{}, ErrPriceOutOfRange
	}
	return model.Balances{X: x, Y: y, Xn: x, Yn: y}, nil
}

// MoveByDelta returns the balances after the net balance of side changes by
// d, the other side following the curve.
func (c Curve) MoveByDelta(b model.Balances, side model.Side, d float64) (model.Balances, error) {
	if b.Xn <= 0 && b.Yn <= 0 {
		return model.Balances{}, ErrEmptyPool
	}
	if d == 0 {
		return b, nil
	}
	if b.Net(side)+d < 0 {
		return model.Balances{}, ErrInsufficientFunds
	}
	if c.leveraged() {
		return c.moveLeveragedByDelta(b, side, d)
	}

	k := c.Invariant(b)
	if side == model.SideX {
		u := b.X + c.X0 + d
		v := math.Pow(k/math.Pow(u, c.Alpha), 1/c.beta())
		y := v - c.Y0
		if y < 0 {
			return model.Balances{}, ErrPriceOutOfRange
		}
		x := b.X + d
		return model.Balances{X: x, Y: y, Xn: x, Yn: y}, nil
	}
	v := b.Y + c.Y0 + d
	u := math.Pow(k/math.Pow(v, c.beta()), 1/c.Alpha)
	x := u - c.X0
	if x < 0 {
		return model.Balances{}, ErrPriceOutOfRange
	}
	y := b.Y + d
	return model.Balances{X: x, Y: y, Xn: x, Yn: y}, nil
}

// GrossAtPrice derives gross balances from net balances at a fixed price for
// a pool with leverage lev. One side always sits at lev times its net.
func GrossAtPrice(xn, yn, p, lev, alpha float64) model.Balances {
	beta := 1 - alpha
	x := lev * xn
	y := beta * p * x / alpha
	if y > lev*yn {
		y = lev * yn
		x = alpha * y / (beta * p)
	}
	return model.Balances{X: x, Y: y, Xn: xn, Yn: yn}
}
