// Package solver finds inputs of monotonic pricing functions that produce a
// target output. It is meant for callers preparing triggers; the pool never
// iterates.
package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoBracket       = errors.New("target is not bracketed")
	ErrNoConvergence   = errors.New("root finder did not converge")
	ErrInvalidInterval = errors.New("invalid interval")
)

// Func is a monotonic function of one variable. Evaluation errors usually
// mean x is outside the domain, e.g. a trade the pool would reject.
type Func func(x float64) (float64, error)

// Options bound the search.
type Options struct {
	// Tolerance is relative to max(1, |target|).
	Tolerance     float64
	MaxIterations int
}

// DefaultOptions are tight enough for integer amounts.
func DefaultOptions() Options {
	return Options{Tolerance: 1e-9, MaxIterations: 200}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	return o
}

// Result is the root and how it was found.
type Result struct {
	X          float64 `json:"x"`
	Value      float64 `json:"value"`
	Iterations int     `json:"iterations"`
}

// Solve finds x in [lo, hi] with f(x) = target. It takes secant steps and
// falls back to bisection whenever a step leaves the bracket or fails to
// shrink it fast enough.
func Solve(f Func, target, lo, hi float64, opts Options) (Result, error) {
	opts = opts.normalize()
	if !(lo < hi) || math.IsNaN(lo) || math.IsNaN(hi) {
		return Result{}, fmt.Errorf("%w: [%v, %v]", ErrInvalidInterval, lo, hi)
	}
	tol := opts.Tolerance * math.Max(1, math.Abs(target))
	g := func(x float64) (float64, error) {
		v, err := f(x)
		if err != nil {
			return 0, fmt.Errorf("evaluate at %v: %w", x, err)
		}
		return v - target, nil
	}

	ga, err := g(lo)
	if err != nil {
		return Result{}, err
	}
	if math.Abs(ga) <= tol {
		return Result{X: lo, Value: ga + target}, nil
	}
	gb, err := g(hi)
	if err != nil {
		return Result{}, err
	}
	if math.Abs(gb) <= tol {
		return Result{X: hi, Value: gb + target}, nil
	}
	if math.Signbit(ga) == math.Signbit(gb) {
		return Result{}, fmt.Errorf("%w: f(%v)=%v, f(%v)=%v, target %v", ErrNoBracket, lo, ga+target, hi, gb+target, target)
	}

	a, b := lo, hi
	prev := math.Inf(1)
	for i := 1; i <= opts.MaxIterations; i++ {
		x := b - gb*(b-a)/(gb-ga)
		if !(x > a && x < b) || b-a > prev/2 {
			x = a + (b-a)/2
		}
		prev = b - a

		gx, err := g(x)
		if err != nil {
			return Result{}, err
		}
		if math.Abs(gx) <= tol || b-a <= math.Abs(x)*1e-15 {
			return Result{X: x, Value: gx + target, Iterations: i}, nil
		}
		if math.Signbit(gx) == math.Signbit(ga) {
			a, ga = x, gx
		} else {
			b, gb = x, gx
		}
	}
	return Result{}, fmt.Errorf("%w after %d iterations", ErrNoConvergence, opts.MaxIterations)
}

// Expand grows hi geometrically from start until f(hi) passes target, and
// returns a bracket for Solve. f must be increasing.
func Expand(f Func, target, start float64, maxSteps int) (float64, float64, error) {
	if start <= 0 {
		return 0, 0, fmt.Errorf("%w: start %v", ErrInvalidInterval, start)
	}
	lo, hi := 0.0, start
	for i := 0; i < maxSteps; i++ {
		v, err := f(hi)
		if err != nil {
			return 0, 0, fmt.Errorf("evaluate at %v: %w", hi, err)
		}
		if v >= target {
			return lo, hi, nil
		}
		lo, hi = hi, hi*2
	}
	return 0, 0, fmt.Errorf("%w: f(%v) still below %v", ErrNoBracket, hi, target)
}
