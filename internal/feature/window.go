// Package feature assembles the fixed-shape model input from bars and
// their aligned indicator points.
package feature

import (
	"goldcast/internal/errs"
	"goldcast/models"
)

// BuildWindow selects the last models.WindowSize rows where every
// indicator field is defined, oldest first, and assembles the feature
// matrix in the fitted column order.
func BuildWindow(bars []models.Bar, points []models.IndicatorPoint) (models.Window, error) {
	// Misalignment is a pipeline invariant breach, not a market-data
	// condition; it must not surface as an insufficient-history error.
	if len(bars) != len(points) {
		return nil, errs.New(errs.KindInference,
			"bars and indicator points misaligned: %d vs %d", len(bars), len(points))
	}

	valid := make([]int, 0, len(bars))
	for i := range points {
		if points[i].Complete() {
			valid = append(valid, i)
		}
	}

	if len(valid) < models.WindowSize {
		return nil, errs.New(errs.KindInsufficientHistory,
			"need %d rows with complete indicators, have %d", models.WindowSize, len(valid))
	}

	window := make(models.Window, 0, models.WindowSize)
	for _, i := range valid[len(valid)-models.WindowSize:] {
		window = append(window, models.FeatureRow{
			Close: bars[i].Close,
			SMA20: points[i].SMA20,
			EMA20: points[i].EMA20,
			RSI14: points[i].RSI14,
			BBL20: points[i].BBL20,
			BBU20: points[i].BBU20,
			ATR14: points[i].ATR14,
		})
	}
	return window, nil
}
