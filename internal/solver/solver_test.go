package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSolveLinear(t *testing.T) {
	res, err := Solve(func(x float64) (float64, error) { return 3*x + 1, nil }, 10, 0, 100, Options{})
	require.NoError(t, err)
	require.InDelta(t, 3, res.X, 1e-8)
}

func TestSolveDecreasing(t *testing.T) {
	f := func(x float64) (float64, error) { return 1e9 / (1 + x), nil }
	res, err := Solve(f, 2.5e8, 0, 1e6, DefaultOptions())
	require.NoError(t, err)
	require.InEpsilon(t, 3, res.X, 1e-6)
}

func TestSolveCurved(t *testing.T) {
	// output of a constant product swap for input x
	out := func(x float64) (float64, error) { return 1e11 - 1e20/(1e9+x), nil }
	res, err := Solve(out, 5e9, 0, 1e9, DefaultOptions())
	require.NoError(t, err)
	got, _ := out(res.X)
	require.InEpsilon(t, 5e9, got, 1e-9)
	require.Less(t, res.Iterations, 100)
}

func TestSolveErrors(t *testing.T) {
	f := func(x float64) (float64, error) { return x, nil }
	_, err := Solve(f, 50, 0, 10, Options{})
	require.True(t, errors.Is(err, ErrNoBracket))

	_, err = Solve(f, 5, 10, 0, Options{})
	require.True(t, errors.Is(err, ErrInvalidInterval))

	boom := errors.New("boom")
	_, err = Solve(func(float64) (float64, error) { return 0, boom }, 1, 0, 1, Options{})
	require.True(t, errors.Is(err, boom))
}

func TestExpand(t *testing.T) {
	f := func(x float64) (float64, error) { return math.Sqrt(x), nil }
	lo, hi, err := Expand(f, 100, 1, 64)
	require.NoError(t, err)
	require.Less(t, lo, 1e4)
	require.GreaterOrEqual(t, hi, 1e4)

	res, err := Solve(f, 100, lo, hi, Options{})
	require.NoError(t, err)
	require.InEpsilon(t, 1e4, res.X, 1e-8)

	_, _, err = Expand(f, 1e300, 1, 4)
	require.True(t, errors.Is(err, ErrNoBracket))
}
