// Package indicator derives the technical indicator set the model was
// trained on. All functions are pure; values without enough preceding
// history are NaN so the caller can exclude incomplete rows.
package indicator

import (
	"math"

	"goldcast/models"
)

const (
	SMAPeriod = 20
	EMAPeriod = 20
	RSIPeriod = 14
	BBPeriod  = 20
	BBStdDev  = 2.0
	ATRPeriod = 14
)

// MinBars is the smallest bar count that yields any complete row.
const MinBars = SMAPeriod

// Compute derives one IndicatorPoint per bar, aligned by index. Entries
// before an indicator's minimum lookback carry NaN for that field.
func Compute(bars []models.Bar) []models.IndicatorPoint {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	sma := smaSeries(closes, SMAPeriod)
	ema := emaSeries(closes, EMAPeriod)
	rsi := rsiSeries(closes, RSIPeriod)
	bbUpper, bbLower := bollingerSeries(closes, BBPeriod, BBStdDev)
	atr := atrSeries(bars, ATRPeriod)

	points := make([]models.IndicatorPoint, len(bars))
	for i := range bars {
		points[i] = models.IndicatorPoint{
			SMA20: sma[i],
			EMA20: ema[i],
			RSI14: rsi[i],
			BBL20: bbLower[i],
			BBU20: bbUpper[i],
			ATR14: atr[i],
		}
	}
	return points
}

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
