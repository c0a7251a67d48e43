package curve

import (
	"math"

	"leveragePool/internal/model"
)

const axisTolerance = 1e-9

// axis is the state of a leveraged pool while the gross balance of one asset
// equals Leverage times its net balance. Along an axis the price q of the
// axis asset satisfies q * gross^(1/k) = const with k = b*lev.
type axis struct {
	side     model.Side
	a        float64 // exponent of the axis asset
	b        float64 // exponent of the other asset
	lev      float64
	gross    float64
	other    float64
	otherNet float64
}

func (c Curve) axisOf(bal model.Balances, side model.Side) axis {
	if side == model.SideX {
		return axis{side: side, a: c.Alpha, b: c.beta(), lev: c.Leverage, gross: bal.X, other: bal.Y, otherNet: bal.Yn}
	}
	return axis{side: side, a: c.beta(), b: c.Alpha, lev: c.Leverage, gross: bal.Y, other: bal.X, otherNet: bal.Xn}
}

// activeAxis picks the axis the pool moves along. At the corner both sides
// are saturated and the direction of the move decides.
func (c Curve) activeAxis(bal model.Balances, priceUp bool) axis {
	onX := saturated(bal.X, bal.Xn, c.Leverage)
	onY := saturated(bal.Y, bal.Yn, c.Leverage)
	switch {
	case onX && onY:
		if priceUp {
			return c.axisOf(bal, model.SideX)
		}
		return c.axisOf(bal, model.SideY)
	case onX:
		return c.axisOf(bal, model.SideX)
	case onY:
		return c.axisOf(bal, model.SideY)
	}
	if math.Abs(bal.X/(c.Leverage*bal.Xn)-1) < math.Abs(bal.Y/(c.Leverage*bal.Yn)-1) {
		return c.axisOf(bal, model.SideX)
	}
	return c.axisOf(bal, model.SideY)
}

func saturated(gross, net, lev float64) bool {
	if net <= 0 {
		return gross <= 0
	}
	return math.Abs(gross/(lev*net)-1) < axisTolerance
}

func isOne(k float64) bool {
	return math.Abs(k-1) < 1e-12
}

func (s axis) k() float64 {
	return s.b * s.lev
}

func (s axis) price() float64 {
	return s.a / s.b * s.other / s.gross
}

// quote converts a price of x into the price of the axis asset.
func (s axis) quote(p float64) float64 {
	if s.side == model.SideX {
		return p
	}
	return 1 / p
}

func (s axis) balances() model.Balances {
	net := s.gross / s.lev
	if s.side == model.SideX {
		return model.Balances{X: s.gross, Y: s.other, Xn: net, Yn: s.otherNet}
	}
	return model.Balances{X: s.other, Y: s.gross, Xn: s.otherNet, Yn: net}
}

// flip switches to the other axis. Only valid at the corner.
func (s axis) flip() axis {
	return axis{
		side:     s.side.Other(),
		a:        s.b,
		b:        s.a,
		lev:      s.lev,
		gross:    s.other,
		other:    s.gross,
		otherNet: s.gross / s.lev,
	}
}

func (s axis) with(gross, other, otherNet float64) axis {
	s.gross, s.other, s.otherNet = gross, other, otherNet
	return s
}

// toPrice moves along the axis to price q1 without looking at the corner.
func (s axis) toPrice(q1 float64) axis {
	q0 := s.price()
	k := s.k()
	gross1 := s.gross * math.Pow(q1/q0, -k)
	if isOne(k) {
		return s.with(gross1, s.other, s.otherNet-s.a*s.other*math.Log(gross1/s.gross))
	}
	other1 := s.b / s.a * q1 * gross1
	return s.with(gross1, other1, s.otherNet-s.a/(k-1)*(other1-s.other))
}

// corner returns the point where the other side becomes saturated too. Moving
// the axis price down leads there; ok is false if it is never reached.
func (s axis) corner() (axis, bool) {
	k := s.k()
	if isOne(k) {
		gross := s.gross * math.Exp((s.otherNet-s.other/s.lev)/(s.a*s.other))
		return s.with(gross, s.other, s.other/s.lev), true
	}
	other := s.lev * ((k-1)*s.otherNet + s.a*s.other) / (s.lev - 1)
	if other <= 0 {
		return axis{}, false
	}
	gross := s.gross * math.Pow(other/s.other, k/(k-1))
	return s.with(gross, other, other/s.lev), true
}

func (c Curve) moveLeveragedToPrice(bal model.Balances, p1 float64) (model.Balances, error) {
	p0 := c.Price(bal)
	s := c.activeAxis(bal, p1 > p0)
	q1 := s.quote(p1)
	if q1 < s.price() {
		if corner, ok := s.corner(); ok && q1 < corner.price() {
			next := corner.flip()
			return next.toPrice(next.quote(p1)).balances(), nil
		}
	}
	return s.toPrice(q1).balances(), nil
}

func (c Curve) moveLeveragedByDelta(bal model.Balances, side model.Side, d float64) (model.Balances, error) {
	priceDown := (side == model.SideX) == (d > 0)
	s := c.activeAxis(bal, !priceDown)
	for i := 0; i < 2; i++ {
		var rest float64
		var err error
		if s.side == side {
			s, rest, err = s.shiftAxisNet(d)
		} else {
			s, rest, err = s.shiftOtherNet(d)
		}
		if err != nil {
			return model.Balances{}, err
		}
		if rest == 0 {
			break
		}
		s, d = s.flip(), rest
	}
	return s.balances(), nil
}

// shiftAxisNet changes the net balance of the axis asset by d. If the corner
// is crossed it stops there and returns the delta still to be applied.
func (s axis) shiftAxisNet(d float64) (axis, float64, error) {
	if d > 0 {
		if corner, ok := s.corner(); ok {
			dc := (corner.gross - s.gross) / s.lev
			if d > dc {
				return corner, d - dc, nil
			}
		}
	}
	gross1 := s.gross + s.lev*d
	if gross1 <= 0 {
		return axis{}, 0, ErrInsufficientFunds
	}
	q1 := s.price() * math.Pow(gross1/s.gross, -1/s.k())
	next := s.toPrice(q1)
	next.gross = gross1
	return next, 0, nil
}

// shiftOtherNet changes the net balance of the non-axis asset by d.
func (s axis) shiftOtherNet(d float64) (axis, float64, error) {
	if d < 0 {
		if corner, ok := s.corner(); ok {
			dc := corner.otherNet - s.otherNet
			if d < dc {
				return corner, d - dc, nil
			}
		}
		if s.otherNet+d < 0 {
			return axis{}, 0, ErrInsufficientFunds
		}
	}
	k := s.k()
	var gross1 float64
	if isOne(k) {
		gross1 = s.gross * math.Exp(-d/(s.a*s.other))
	} else {
		other1 := s.other - (k-1)/s.a*d
		if other1 <= 0 {
			return axis{}, 0, ErrPriceOutOfRange
		}
		gross1 = s.gross * math.Pow(other1/s.other, k/(k-1))
	}
	q1 := s.price() * math.Pow(gross1/s.gross, -1/k)
	next := s.toPrice(q1)
	next.otherNet = s.otherNet + d
	return next, 0, nil
}
