// Package arb computes the taxes levied on price-moving trades.
package arb

import (
	"math"

	"leveragePool/internal/model"
)

// SwapTax returns the tax on a swap driven by a target price, denominated in
// the output asset. The profit is the output minus what the input is worth
// at the final price, i.e. the integral of the price move the swapper
// captured.
func SwapTax(rate, in, out, finalPrice float64, outSide model.Side) float64 {
	if rate <= 0 {
		return 0
	}
	var inValue float64
	if outSide == model.SideY {
		inValue = in * finalPrice
	} else {
		inValue = in / finalPrice
	}
	return rate * math.Max(0, out-inValue)
}

// LeveragedTradeTax taxes the mark-to-market profit of a leveraged trade at
// the share price it leaves behind. netDelta is what the trader paid
// (positive) or received (negative) in the bucket's asset.
func LeveragedTradeTax(rate float64, shares int64, finalSharePrice, netDelta float64) float64 {
	if rate <= 0 || shares == 0 {
		return 0
	}
	value := math.Abs(float64(shares)) * finalSharePrice
	var profit float64
	if shares > 0 {
		profit = value - netDelta
	} else {
		profit = -netDelta - value
	}
	return rate * math.Max(0, profit)
}

// LeverageProfitTax taxes profit realized above the entry price when shares
// are sold.
func LeverageProfitTax(rate float64, shares int64, avgPrice, entryPrice float64) float64 {
	if rate <= 0 || entryPrice <= 0 {
		return 0
	}
	return rate * math.Max(0, math.Abs(float64(shares))*(avgPrice-entryPrice))
}
