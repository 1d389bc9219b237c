package predictor

import "math"

// lstmWeights is the exported weight layout of the trained sequence
// model. Gate columns are packed in i, f, c, o order, matching how the
// training framework serializes its recurrent kernels.
type lstmWeights struct {
	InputSize       int         `json:"input_size"`
	HiddenSize      int         `json:"hidden_size"`
	Kernel          [][]float64 `json:"kernel"`           // input_size x 4*hidden_size
	RecurrentKernel [][]float64 `json:"recurrent_kernel"` // hidden_size x 4*hidden_size
	Bias            []float64   `json:"bias"`             // 4*hidden_size
	DenseWeights    []float64   `json:"dense_weights"`    // hidden_size
	DenseBias       float64     `json:"dense_bias"`
}

// forward runs the full sequence through the recurrent cell and the
// dense head, returning a single normalized value.
func (w *lstmWeights) forward(window [][]float64) float64 {
	h := make([]float64, w.HiddenSize)
	c := make([]float64, w.HiddenSize)
	gates := make([]float64, 4*w.HiddenSize)

	for _, x := range window {
		for j := range gates {
			gates[j] = w.Bias[j]
		}
		for i, xi := range x {
			for j, wij := range w.Kernel[i] {
				gates[j] += xi * wij
			}
		}
		for i, hi := range h {
			for j, uij := range w.RecurrentKernel[i] {
				gates[j] += hi * uij
			}
		}

		for j := 0; j < w.HiddenSize; j++ {
			input := sigmoid(gates[j])
			forget := sigmoid(gates[w.HiddenSize+j])
			cell := math.Tanh(gates[2*w.HiddenSize+j])
			output := sigmoid(gates[3*w.HiddenSize+j])

			c[j] = forget*c[j] + input*cell
			h[j] = output * math.Tanh(c[j])
		}
	}

	out := w.DenseBias
	for j, hj := range h {
		out += hj * w.DenseWeights[j]
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
