package models

import "math"

// Feature layout the scalers and the model were fitted on. Order is
// significant and must never change without refitting the artifacts.
const (
	WindowSize   = 29
	FeatureCount = 7
)

var FeatureNames = [FeatureCount]string{
	"Close", "SMA_20", "EMA_20", "RSI_14", "BBL_20", "BBU_20", "ATR_14",
}

// Bar represents a single daily price bar
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume,omitempty"`
}

// IndicatorPoint holds the derived indicator values for one bar.
// Fields without enough preceding history are NaN.
type IndicatorPoint struct {
	SMA20 float64 `json:"sma_20"`
	EMA20 float64 `json:"ema_20"`
	RSI14 float64 `json:"rsi_14"`
	BBL20 float64 `json:"bbl_20"`
	BBU20 float64 `json:"bbu_20"`
	ATR14 float64 `json:"atr_14"`
}

// Complete reports whether every indicator field has a defined value.
func (p IndicatorPoint) Complete() bool {
	return !math.IsNaN(p.SMA20) && !math.IsNaN(p.EMA20) && !math.IsNaN(p.RSI14) &&
		!math.IsNaN(p.BBL20) && !math.IsNaN(p.BBU20) && !math.IsNaN(p.ATR14)
}

// FeatureRow is one fully-populated row of model input
type FeatureRow struct {
	Close float64
	SMA20 float64
	EMA20 float64
	RSI14 float64
	BBL20 float64
	BBU20 float64
	ATR14 float64
}

// Values returns the row in the fitted column order.
func (r FeatureRow) Values() []float64 {
	return []float64{r.Close, r.SMA20, r.EMA20, r.RSI14, r.BBL20, r.BBU20, r.ATR14}
}

// Window is an ordered sequence of exactly WindowSize feature rows,
// oldest first.
type Window []FeatureRow

// Matrix returns the window as a WindowSize x FeatureCount matrix.
func (w Window) Matrix() [][]float64 {
	m := make([][]float64, len(w))
	for i, row := range w {
		m[i] = row.Values()
	}
	return m
}

// LastClose returns the unscaled close of the most recent row.
func (w Window) LastClose() float64 {
	return w[len(w)-1].Close
}

// PredictionRequest carries optional per-request overrides for the
// artifact source paths. Empty fields fall back to the configured defaults.
type PredictionRequest struct {
	ModelPath   string `json:"model_path,omitempty"`
	ScalerXPath string `json:"scaler_x_path,omitempty"`
	ScalerYPath string `json:"scaler_y_path,omitempty"`
}

// Direction labels for PredictionResult
const (
	DirectionBullish = "BULLISH (UP)"
	DirectionBearish = "BEARISH (DOWN)"
)

// PredictionResult is the final outcome of one prediction request
type PredictionResult struct {
	CurrentPrice   float64 `json:"current_price"`
	PredictedPrice float64 `json:"predicted_price"`
	PriceChange    float64 `json:"price_change"`
	Direction      string  `json:"direction"`
	Status         string  `json:"status"`
}
