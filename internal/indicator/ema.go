package indicator

// emaSeries calculates the exponential moving average, seeded with the
// simple average of the first period closes.
func emaSeries(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if len(closes) < period {
		return out
	}

	// Calculate simple moving average for the initial value
	var sum float64
	for i := 0; i < period; i++ {
		sum += closes[i]
	}
	ema := sum / float64(period)
	out[period-1] = ema

	// Multiplier for weighting the EMA
	multiplier := 2.0 / float64(period+1)

	for i := period; i < len(closes); i++ {
		ema = (closes[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}
