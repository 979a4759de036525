// Package nn implements the fixed-topology perceptron controller and the
// mutation operator that stands in for training.
package nn

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrInvalidTopology = errors.New("invalid network topology")
	ErrShapeMismatch   = errors.New("network shape mismatch")
)

// Network is an ordered stack of layers where each layer's output size is
// the next layer's input size.
type Network struct {
	Levels []*Layer
}

// New builds a randomly initialized network from neuron counts, for example
// New(rng, 5, 6, 4).
func New(rng *rand.Rand, neuronCounts ...int) (*Network, error) {
	if len(neuronCounts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layer sizes, got %d", ErrInvalidTopology, len(neuronCounts))
	}
	for i, count := range neuronCounts {
		if count < 1 {
			return nil, fmt.Errorf("%w: layer %d has %d neurons", ErrInvalidTopology, i, count)
		}
	}

	network := &Network{Levels: make([]*Layer, 0, len(neuronCounts)-1)}
	for i := 0; i < len(neuronCounts)-1; i++ {
		layer, err := NewLayer(rng, neuronCounts[i], neuronCounts[i+1])
		if err != nil {
			return nil, err
		}
		network.Levels = append(network.Levels, layer)
	}
	return network, nil
}

func MustNew(rng *rand.Rand, neuronCounts ...int) *Network {
	network, err := New(rng, neuronCounts...)
	if err != nil {
		panic(err)
	}
	return network
}

// FeedForward chains every layer and returns the last layer's outputs.
func (n *Network) FeedForward(inputs []float64) ([]float64, error) {
	if len(n.Levels) == 0 {
		return nil, ErrInvalidTopology
	}
	outputs := inputs
	for i, level := range n.Levels {
		next, err := level.FeedForward(outputs)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		outputs = next
	}
	return outputs, nil
}

// Mutate blends every weight and bias independently toward a fresh uniform
// draw in [-1, 1]. amount 0 leaves the network untouched and amount 1
// replaces every parameter.
func (n *Network) Mutate(rng *rand.Rand, amount float64) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if amount < 0 || amount > 1 {
		return fmt.Errorf("mutation amount must be in [0,1], got %f", amount)
	}
	for _, level := range n.Levels {
		level.mutate(rng, amount)
	}
	return nil
}

func (n *Network) Clone() *Network {
	out := &Network{Levels: make([]*Layer, len(n.Levels))}
	for i, level := range n.Levels {
		out.Levels[i] = level.clone()
	}
	return out
}

// Topology returns the neuron counts the network was built from.
func (n *Network) Topology() []int {
	if len(n.Levels) == 0 {
		return nil
	}
	counts := make([]int, 0, len(n.Levels)+1)
	counts = append(counts, n.Levels[0].InputSize())
	for _, level := range n.Levels {
		counts = append(counts, level.OutputSize())
	}
	return counts
}

func (n *Network) InputSize() int {
	if len(n.Levels) == 0 {
		return 0
	}
	return n.Levels[0].InputSize()
}

func (n *Network) OutputSize() int {
	if len(n.Levels) == 0 {
		return 0
	}
	return n.Levels[len(n.Levels)-1].OutputSize()
}

// Equal compares weights and biases exactly. Transient buffers are ignored.
func (n *Network) Equal(other *Network) bool {
	if n == nil || other == nil {
		return n == other
	}
	if len(n.Levels) != len(other.Levels) {
		return false
	}
	for i, level := range n.Levels {
		peer := other.Levels[i]
		if level.InputSize() != peer.InputSize() || level.OutputSize() != peer.OutputSize() {
			return false
		}
		for j := range level.Biases {
			if level.Biases[j] != peer.Biases[j] {
				return false
			}
		}
		for j := range level.Weights {
			for k := range level.Weights[j] {
				if level.Weights[j][k] != peer.Weights[j][k] {
					return false
				}
			}
		}
	}
	return true
}
