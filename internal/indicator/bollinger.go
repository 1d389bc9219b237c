package indicator

import "math"

// bollingerSeries calculates Bollinger Bands over the same trailing
// window as the SMA.
func bollingerSeries(closes []float64, period int, stdDev float64) (upper, lower []float64) {
	upper = nanSeries(len(closes))
	lower = nanSeries(len(closes))
	if len(closes) < period {
		return upper, lower
	}

	for i := period - 1; i < len(closes); i++ {
		window := closes[i-period+1 : i+1]

		var sum float64
		for _, c := range window {
			sum += c
		}
		middle := sum / float64(period)

		var variance float64
		for _, c := range window {
			variance += math.Pow(c-middle, 2)
		}
		sd := math.Sqrt(variance / float64(period))

		upper[i] = middle + (sd * stdDev)
		lower[i] = middle - (sd * stdDev)
	}
	return upper, lower
}
