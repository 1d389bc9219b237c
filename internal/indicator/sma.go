package indicator

// smaSeries calculates the simple moving average over a rolling window
func smaSeries(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if len(closes) < period {
		return out
	}

	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}
