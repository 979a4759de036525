package nn

import (
	"fmt"
	"math/rand"
)

// Layer is one fully connected step between two neuron counts. Weights are
// indexed [input][output].
type Layer struct {
	Inputs  []float64
	Outputs []float64
	Biases  []float64
	Weights [][]float64
}

func NewLayer(rng *rand.Rand, inputCount, outputCount int) (*Layer, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if inputCount < 1 || outputCount < 1 {
		return nil, fmt.Errorf("%w: layer %dx%d", ErrInvalidTopology, inputCount, outputCount)
	}

	layer := newEmptyLayer(inputCount, outputCount)
	layer.randomize(rng)
	return layer, nil
}

func newEmptyLayer(inputCount, outputCount int) *Layer {
	weights := make([][]float64, inputCount)
	for i := range weights {
		weights[i] = make([]float64, outputCount)
	}
	return &Layer{
		Inputs:  make([]float64, inputCount),
		Outputs: make([]float64, outputCount),
		Biases:  make([]float64, outputCount),
		Weights: weights,
	}
}

func (l *Layer) InputSize() int {
	return len(l.Weights)
}

func (l *Layer) OutputSize() int {
	return len(l.Biases)
}

func (l *Layer) randomize(rng *rand.Rand) {
	for i := range l.Weights {
		for j := range l.Weights[i] {
			l.Weights[i][j] = randomUnit(rng)
		}
	}
	for i := range l.Biases {
		l.Biases[i] = randomUnit(rng)
	}
}

// FeedForward evaluates the layer with a hard threshold: an output neuron
// fires (1) only when its weighted sum strictly exceeds its bias.
func (l *Layer) FeedForward(inputs []float64) ([]float64, error) {
	if len(inputs) != l.InputSize() {
		return nil, fmt.Errorf("layer expects %d inputs, got %d", l.InputSize(), len(inputs))
	}
	copy(l.Inputs, inputs)

	for i := range l.Outputs {
		sum := 0.0
		for j := range l.Inputs {
			sum += l.Inputs[j] * l.Weights[j][i]
		}
		if sum > l.Biases[i] {
			l.Outputs[i] = 1
		} else {
			l.Outputs[i] = 0
		}
	}
	return append([]float64(nil), l.Outputs...), nil
}

func (l *Layer) mutate(rng *rand.Rand, amount float64) {
	for i := range l.Biases {
		l.Biases[i] = lerp(l.Biases[i], randomUnit(rng), amount)
	}
	for i := range l.Weights {
		for j := range l.Weights[i] {
			l.Weights[i][j] = lerp(l.Weights[i][j], randomUnit(rng), amount)
		}
	}
}

func (l *Layer) clone() *Layer {
	out := newEmptyLayer(l.InputSize(), l.OutputSize())
	copy(out.Inputs, l.Inputs)
	copy(out.Outputs, l.Outputs)
	copy(out.Biases, l.Biases)
	for i := range l.Weights {
		copy(out.Weights[i], l.Weights[i])
	}
	return out
}

func randomUnit(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

// lerp pins both ends exactly so that amount 0 and 1 are bit-exact.
func lerp(a, b, t float64) float64 {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return a + (b-a)*t
}
