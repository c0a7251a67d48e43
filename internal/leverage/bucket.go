package leverage

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"leveragePool/internal/model"
)

var (
	ErrInvalidLeverage = errors.New("leverage must not be -1, 0 or 1")
	ErrLeverageTooHigh = errors.New("leverage is too high")
)

// MaxLeverage is the largest |L| a bucket can have.
const MaxLeverage = 1000

// Bucket identifies a leverage bucket: L times exposure to Side.
type Bucket struct {
	L    int
	Side model.Side
}

// NewBucket normalizes a signed leverage relative to side. A negative L on x
// is the same bucket as a positive L on y.
func NewBucket(l int, side model.Side) (Bucket, error) {
	if l >= -1 && l <= 1 {
		return Bucket{}, ErrInvalidLeverage
	}
	if l < -MaxLeverage || l > MaxLeverage {
		return Bucket{}, fmt.Errorf("%w: %d", ErrLeverageTooHigh, l)
	}
	if l < 0 {
		return Bucket{L: -l, Side: side.Other()}, nil
	}
	return Bucket{L: l, Side: side}, nil
}

// Parse decodes a bucket key such as "5x" or "-10x".
func Parse(key string) (Bucket, error) {
	raw, ok := strings.CutSuffix(key, "x")
	if !ok {
		return Bucket{}, fmt.Errorf("invalid bucket key: %q", key)
	}
	l, err := strconv.Atoi(raw)
	if err != nil {
		return Bucket{}, fmt.Errorf("invalid bucket key %q: %w", key, err)
	}
	return NewBucket(l, model.SideX)
}

// Signed returns L relative to x.
func (b Bucket) Signed() int {
	if b.Side == model.SideY {
		return -b.L
	}
	return b.L
}

// Key is the storage key of the bucket, always expressed relative to x.
func (b Bucket) Key() string {
	return strconv.Itoa(b.Signed()) + "x"
}

// SidePrice is the price of the bucket's asset in terms of the other one.
func (b Bucket) SidePrice(p float64) float64 {
	if b.Side == model.SideX {
		return p
	}
	return 1 / p
}

// Debt is the amount of the other asset borrowed against balance.
func (b Bucket) Debt(balance, p float64) float64 {
	l := float64(b.L)
	return (l - 1) / l * b.SidePrice(p) * balance
}

// Evolve returns the balance after the price moves from p0 to p1.
func (b Bucket) Evolve(balance, p0, p1 float64) float64 {
	if balance == 0 {
		return 0
	}
	return balance * math.Pow(b.SidePrice(p1)/b.SidePrice(p0), float64(b.L-1))
}

// SharePrice is the value of one share in the bucket's asset.
func (b Bucket) SharePrice(lb model.LeveragedBalance) float64 {
	if lb.Supply == 0 {
		return 1
	}
	return lb.Balance / float64(b.L) / float64(lb.Supply)
}

// Flows moves every bucket from price p0 to p1. It returns the change of the
// LP net balances caused by the rebalancing and the updated buckets.
func Flows(buckets map[string]model.LeveragedBalance, p0, p1 float64) (model.Pair, map[string]model.LeveragedBalance, error) {
	var flows model.Pair
	out := make(map[string]model.LeveragedBalance, len(buckets))
	for key, lb := range buckets {
		b, err := Parse(key)
		if err != nil {
			return model.Pair{}, nil, err
		}
		a1 := b.Evolve(lb.Balance, p0, p1)
		dA := a1 - lb.Balance
		dD := b.Debt(a1, p1) - b.Debt(lb.Balance, p0)
		flows.Add(b.Side, -dA)
		flows.Add(b.Side.Other(), dD)
		lb.Balance = a1
		out[key] = lb
	}
	return flows, out, nil
}

// Totals returns the balances held by all buckets and their debts, both per
// asset.
func Totals(buckets map[string]model.LeveragedBalance, p float64) (held model.Pair, debt model.Pair, err error) {
	for key, lb := range buckets {
		b, err := Parse(key)
		if err != nil {
			return model.Pair{}, model.Pair{}, err
		}
		held.Add(b.Side, lb.Balance)
		debt.Add(b.Side.Other(), b.Debt(lb.Balance, p))
	}
	return held, debt, nil
}
