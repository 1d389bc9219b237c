package models

import "context"

type BarSource interface {
	GetDailyBars(ctx context.Context) ([]Bar, error)
}

// SequenceModel runs one forward pass over a scaled window and
// returns a single normalized next-day value.
type SequenceModel interface {
	Infer(window [][]float64) (float64, error)
}
