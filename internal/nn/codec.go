package nn

import (
	"encoding/json"
	"fmt"
	"slices"

	"aicars/internal/model"
)

// ToModel snapshots the network, transient buffers included, into its
// persisted form. Version fields are left for the store to stamp.
func (n *Network) ToModel() model.Brain {
	brain := model.Brain{Levels: make([]model.Level, len(n.Levels))}
	for i, level := range n.Levels {
		weights := make([][]float64, len(level.Weights))
		for j := range level.Weights {
			weights[j] = append([]float64(nil), level.Weights[j]...)
		}
		brain.Levels[i] = model.Level{
			Inputs:  append([]float64(nil), level.Inputs...),
			Outputs: append([]float64(nil), level.Outputs...),
			Biases:  append([]float64(nil), level.Biases...),
			Weights: weights,
		}
	}
	return brain
}

// FromModel rebuilds a network and validates every level shape and the
// chaining between levels.
func FromModel(brain model.Brain) (*Network, error) {
	if len(brain.Levels) == 0 {
		return nil, fmt.Errorf("%w: no levels", ErrShapeMismatch)
	}

	network := &Network{Levels: make([]*Layer, len(brain.Levels))}
	for i, level := range brain.Levels {
		inputCount := len(level.Weights)
		outputCount := len(level.Biases)
		if inputCount == 0 || outputCount == 0 {
			return nil, fmt.Errorf("%w: level %d is empty", ErrShapeMismatch, i)
		}
		if i > 0 && network.Levels[i-1].OutputSize() != inputCount {
			return nil, fmt.Errorf("%w: level %d expects %d inputs, previous level has %d outputs",
				ErrShapeMismatch, i, inputCount, network.Levels[i-1].OutputSize())
		}

		layer := newEmptyLayer(inputCount, outputCount)
		for j, row := range level.Weights {
			if len(row) != outputCount {
				return nil, fmt.Errorf("%w: level %d weight row %d has %d entries, want %d",
					ErrShapeMismatch, i, j, len(row), outputCount)
			}
			copy(layer.Weights[j], row)
		}
		copy(layer.Biases, level.Biases)
		if len(level.Inputs) == inputCount {
			copy(layer.Inputs, level.Inputs)
		}
		if len(level.Outputs) == outputCount {
			copy(layer.Outputs, level.Outputs)
		}
		network.Levels[i] = layer
	}
	return network, nil
}

// FromModelWithTopology is FromModel plus a check that the stored network
// has exactly the requested neuron counts.
func FromModelWithTopology(brain model.Brain, topology []int) (*Network, error) {
	network, err := FromModel(brain)
	if err != nil {
		return nil, err
	}
	if got := network.Topology(); !slices.Equal(got, topology) {
		return nil, fmt.Errorf("%w: stored topology %v, requested %v", ErrShapeMismatch, got, topology)
	}
	return network, nil
}

func (n *Network) MarshalJSON() ([]byte, error) {
	brain := n.ToModel()
	return json.Marshal(struct {
		Levels []model.Level `json:"levels"`
	}{Levels: brain.Levels})
}

func (n *Network) UnmarshalJSON(data []byte) error {
	var brain model.Brain
	if err := json.Unmarshal(data, &brain); err != nil {
		return err
	}
	decoded, err := FromModel(brain)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}
