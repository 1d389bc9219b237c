// Package predictor wraps the trained sequence model: load once,
// then deterministic forward passes over scaled feature windows.
package predictor

import (
	"encoding/json"
	"fmt"
	"os"

	"goldcast/internal/errs"
)

// Predictor holds a loaded sequence model. Safe for concurrent use:
// inference never mutates the weights.
type Predictor struct {
	weights *lstmWeights
	path    string
}

// Load reads and validates a model artifact. Loading is the slow,
// one-time part of service start; Infer afterwards is cheap.
func Load(path string) (*Predictor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, fmt.Errorf("reading model artifact: %w", err))
	}

	var w lstmWeights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, errs.New(errs.KindConfiguration, "parsing model artifact %s: %v", path, err)
	}
	if err := validate(&w); err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, fmt.Errorf("model artifact %s: %w", path, err))
	}

	return &Predictor{weights: &w, path: path}, nil
}

func validate(w *lstmWeights) error {
	if w.InputSize <= 0 || w.HiddenSize <= 0 {
		return fmt.Errorf("invalid dimensions: input=%d hidden=%d", w.InputSize, w.HiddenSize)
	}
	if len(w.Kernel) != w.InputSize {
		return fmt.Errorf("kernel has %d rows, expected %d", len(w.Kernel), w.InputSize)
	}
	for i, row := range w.Kernel {
		if len(row) != 4*w.HiddenSize {
			return fmt.Errorf("kernel row %d has %d columns, expected %d", i, len(row), 4*w.HiddenSize)
		}
	}
	if len(w.RecurrentKernel) != w.HiddenSize {
		return fmt.Errorf("recurrent kernel has %d rows, expected %d", len(w.RecurrentKernel), w.HiddenSize)
	}
	for i, row := range w.RecurrentKernel {
		if len(row) != 4*w.HiddenSize {
			return fmt.Errorf("recurrent kernel row %d has %d columns, expected %d", i, len(row), 4*w.HiddenSize)
		}
	}
	if len(w.Bias) != 4*w.HiddenSize {
		return fmt.Errorf("bias has %d values, expected %d", len(w.Bias), 4*w.HiddenSize)
	}
	if len(w.DenseWeights) != w.HiddenSize {
		return fmt.Errorf("dense head has %d weights, expected %d", len(w.DenseWeights), w.HiddenSize)
	}
	return nil
}

// Infer performs exactly one forward pass over the scaled window.
func (p *Predictor) Infer(window [][]float64) (float64, error) {
	if p == nil || p.weights == nil {
		return 0, errs.New(errs.KindTransient, "model not loaded")
	}
	if len(window) == 0 {
		return 0, errs.New(errs.KindInference, "empty input window")
	}
	for i, row := range window {
		if len(row) != p.weights.InputSize {
			return 0, errs.New(errs.KindInference,
				"row %d has %d features, model expects %d", i, len(row), p.weights.InputSize)
		}
	}
	return p.weights.forward(window), nil
}

// Path returns the artifact the model was loaded from.
func (p *Predictor) Path() string {
	return p.path
}
