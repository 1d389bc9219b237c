// Package scaler applies the externally fitted min/max transforms the
// model was trained with. Parameters are opaque configuration loaded at
// service start; nothing here re-fits them.
package scaler

import (
	"encoding/json"
	"fmt"
	"os"

	"goldcast/internal/errs"
	"goldcast/models"
)

// Params are the fitted statistics persisted in a scaler artifact.
type Params struct {
	FeatureNames []string   `json:"feature_names,omitempty"`
	DataMin      []float64  `json:"data_min"`
	DataMax      []float64  `json:"data_max"`
	FeatureRange [2]float64 `json:"feature_range"`
}

// MinMax maps raw values into the fitted range via a per-column affine
// transform, and back.
type MinMax struct {
	params Params
	scale  []float64
	offset []float64
}

// New builds a scaler from fitted parameters. A column count different
// from what the caller expects is a configuration error.
func New(p Params, wantCols int) (*MinMax, error) {
	if len(p.DataMin) != wantCols || len(p.DataMax) != wantCols {
		return nil, errs.New(errs.KindConfiguration,
			"scaler fitted on %d/%d columns, expected %d", len(p.DataMin), len(p.DataMax), wantCols)
	}
	if p.FeatureRange[0] == 0 && p.FeatureRange[1] == 0 {
		p.FeatureRange = [2]float64{0, 1}
	}
	if p.FeatureRange[1] <= p.FeatureRange[0] {
		return nil, errs.New(errs.KindConfiguration,
			"invalid feature range [%v, %v]", p.FeatureRange[0], p.FeatureRange[1])
	}

	m := &MinMax{
		params: p,
		scale:  make([]float64, wantCols),
		offset: make([]float64, wantCols),
	}
	rangeWidth := p.FeatureRange[1] - p.FeatureRange[0]
	for i := 0; i < wantCols; i++ {
		dataRange := p.DataMax[i] - p.DataMin[i]
		if dataRange == 0 {
			// Degenerate column: every fitted value was identical
			dataRange = 1
		}
		m.scale[i] = rangeWidth / dataRange
		m.offset[i] = p.FeatureRange[0] - p.DataMin[i]*m.scale[i]
	}
	return m, nil
}

// Load reads a scaler artifact from disk.
func Load(path string, wantCols int) (*MinMax, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, fmt.Errorf("reading scaler artifact: %w", err))
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errs.New(errs.KindConfiguration, "parsing scaler artifact %s: %v", path, err)
	}
	return New(p, wantCols)
}

// Columns returns the fitted column count.
func (m *MinMax) Columns() int {
	return len(m.scale)
}

// Transform applies the fitted affine map to every row.
func (m *MinMax) Transform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(m.scale) {
			return nil, errs.New(errs.KindConfiguration,
				"row has %d columns, scaler fitted on %d", len(row), len(m.scale))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = v*m.scale[j] + m.offset[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// TransformWindow scales a feature window into model input space.
func (m *MinMax) TransformWindow(w models.Window) ([][]float64, error) {
	return m.Transform(w.Matrix())
}

// InverseScalar maps one normalized value back to original units.
// Only meaningful for single-column scalers.
func (m *MinMax) InverseScalar(v float64) float64 {
	return (v - m.offset[0]) / m.scale[0]
}
