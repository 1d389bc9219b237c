package indicator

import (
	"math"

	"goldcast/models"
)

// atrSeries calculates the Wilder-smoothed average true range.
// Defined from index period onward (the first bar has no previous close).
func atrSeries(bars []models.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if len(bars) < period+1 {
		return out
	}

	// True Range is the greatest of:
	// 1. Current High - Current Low
	// 2. Abs(Current High - Previous Close)
	// 3. Abs(Current Low - Previous Close)
	trueRanges := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highPrevClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowPrevClose := math.Abs(bars[i].Low - bars[i-1].Close)
		trueRanges[i] = math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
	}

	// Seed with the plain mean of the first period true ranges
	var sum float64
	for i := 1; i <= period; i++ {
		sum += trueRanges[i]
	}
	atr := sum / float64(period)
	out[period] = atr

	for i := period + 1; i < len(bars); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
		out[i] = atr
	}
	return out
}
