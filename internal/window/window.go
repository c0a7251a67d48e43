package window

import (
	"math"

	"github.com/ethereum/go-ethereum/common"

	"leveragePool/internal/model"
)

// BucketSeconds is the width of one price bucket.
const BucketSeconds = 3600

// Trade is one price-moving operation as seen by the window.
type Trade struct {
	Address   common.Address
	Ts        int64
	Pmin      float64
	Pmax      float64
	Amounts   model.Pair
	PaidTaxes model.Pair
}

// Record adds a trade to the rolling window. A trade in a new hour starts a
// new current bucket and shifts the old one to prev. Consecutive trades from
// the same address at the same timestamp are merged into last_trade.
func Record(recent model.Recent, t Trade) model.Recent {
	start := t.Ts / BucketSeconds * BucketSeconds
	switch {
	case recent.Current == nil:
		recent.Current = &model.PriceBucket{StartTs: start, Pmin: t.Pmin, Pmax: t.Pmax}
	case recent.Current.StartTs != start:
		prev := *recent.Current
		recent.Prev = &prev
		recent.Current = &model.PriceBucket{StartTs: start, Pmin: t.Pmin, Pmax: t.Pmax}
	default:
		cur := *recent.Current
		cur.Pmin = math.Min(cur.Pmin, t.Pmin)
		cur.Pmax = math.Max(cur.Pmax, t.Pmax)
		recent.Current = &cur
	}

	if lt := recent.LastTrade; lt != nil && lt.Address == t.Address && lt.Ts == t.Ts {
		merged := *lt
		merged.Pmin = math.Min(merged.Pmin, t.Pmin)
		merged.Pmax = math.Max(merged.Pmax, t.Pmax)
		merged.Amounts.X += t.Amounts.X
		merged.Amounts.Y += t.Amounts.Y
		merged.PaidTaxes.X += t.PaidTaxes.X
		merged.PaidTaxes.Y += t.PaidTaxes.Y
		recent.LastTrade = &merged
	} else {
		recent.LastTrade = &model.LastTrade{
			Address:   t.Address,
			Ts:        t.Ts,
			Pmin:      t.Pmin,
			Pmax:      t.Pmax,
			Amounts:   t.Amounts,
			PaidTaxes: t.PaidTaxes,
		}
	}
	if t.Ts > recent.LastTs {
		recent.LastTs = t.Ts
	}
	return recent
}

// Range returns the lowest and highest prices over the current and previous
// buckets, or fallback for both when nothing was traded yet.
func Range(recent model.Recent, fallback float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range []*model.PriceBucket{recent.Prev, recent.Current} {
		if b == nil {
			continue
		}
		lo = math.Min(lo, b.Pmin)
		hi = math.Max(hi, b.Pmax)
	}
	if math.IsInf(lo, 1) {
		return fallback, fallback
	}
	return lo, hi
}
