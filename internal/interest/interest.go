package interest

import (
	"math"

	"leveragePool/internal/leverage"
	"leveragePool/internal/model"
)

// Year is the period base_interest_rate is quoted for.
const Year = 365 * 24 * 3600

// Factor is the share of a bucket's balance that survives dt seconds of
// interest. Only the borrowed (L-1)/L part of the position pays.
func Factor(l int, rate float64, dt int64) float64 {
	if dt <= 0 || rate <= 0 || l < 2 {
		return 1
	}
	paid := 1 - math.Pow(1-rate, float64(dt)/Year)
	return 1 - float64(l-1)/float64(l)*paid
}

// Accrue charges interest on every bucket for dt seconds at price p. It
// returns the change of the LP net balances and the updated buckets: the LP
// takes back part of each bucket's balance and forgives the same part of its
// debt.
func Accrue(buckets map[string]model.LeveragedBalance, p, rate float64, dt int64) (model.Pair, map[string]model.LeveragedBalance, error) {
	var flows model.Pair
	out := make(map[string]model.LeveragedBalance, len(buckets))
	for key, lb := range buckets {
		b, err := leverage.Parse(key)
		if err != nil {
			return model.Pair{}, nil, err
		}
		f := Factor(b.L, rate, dt)
		if f < 1 && lb.Balance > 0 {
			charged := (1 - f) * lb.Balance
			flows.Add(b.Side, charged)
			flows.Add(b.Side.Other(), -b.Debt(charged, p))
			lb.Balance -= charged
		}
		out[key] = lb
	}
	return flows, out, nil
}

// Utilization is the value lent to leverage buckets over the gross value of
// the pool, both in y.
func Utilization(buckets map[string]model.LeveragedBalance, bal model.Balances, p float64) (float64, error) {
	_, debt, err := leverage.Totals(buckets, p)
	if err != nil {
		return 0, err
	}
	total := bal.X*p + bal.Y
	if total <= 0 {
		return 0, nil
	}
	return (debt.X*p + debt.Y) / total, nil
}
