package shares

import (
	"fmt"
	"math"
)

// Transform maps linear shares to the issued share token supply.
type Transform interface {
	Name() string
	Issued(linear int64) int64
	// Redeem returns how many linear shares n issued shares stand for.
	Redeem(linear, issued, n int64) (int64, error)
}

// ForName returns the transform configured for a pool.
func ForName(name string) (Transform, error) {
	switch name {
	case "", "linear":
		return Linear{}, nil
	case "sqrt":
		return Sqrt{}, nil
	default:
		return nil, fmt.Errorf("unknown share curve: %q", name)
	}
}

// Linear issues one token per linear share.
type Linear struct{}

func (Linear) Name() string { return "linear" }

func (Linear) Issued(linear int64) int64 { return linear }

func (Linear) Redeem(linear, issued, n int64) (int64, error) {
	if n <= 0 || n > issued {
		return 0, fmt.Errorf("cannot redeem %d of %d shares", n, issued)
	}
	return n, nil
}

// Sqrt issues floor(sqrt(linear)) tokens, so early holders own more of the
// pool per token than late ones.
type Sqrt struct{}

func (Sqrt) Name() string { return "sqrt" }

func (Sqrt) Issued(linear int64) int64 {
	return isqrt(linear)
}

func (Sqrt) Redeem(linear, issued, n int64) (int64, error) {
	if n <= 0 || n > issued {
		return 0, fmt.Errorf("cannot redeem %d of %d shares", n, issued)
	}
	left := issued - n
	if left == 0 {
		return linear, nil
	}
	r := linear - left*left
	if r <= 0 {
		return 0, fmt.Errorf("redeeming %d shares releases nothing", n)
	}
	return r, nil
}

func isqrt(v int64) int64 {
	if v <= 0 {
		return 0
	}
	r := int64(math.Sqrt(float64(v)))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}
