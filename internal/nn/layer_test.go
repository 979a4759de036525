package nn

import (
	"math"
	"math/rand"
	"testing"
)

func TestLayerThresholdBoundary(t *testing.T) {
	layer := &Layer{
		Inputs:  make([]float64, 1),
		Outputs: make([]float64, 1),
		Biases:  []float64{0.5},
		Weights: [][]float64{{0.5}},
	}

	out, err := layer.FeedForward([]float64{1})
	if err != nil {
		t.Fatalf("feed forward: %v", err)
	}
	if out[0] != 0 {
		t.Fatalf("sum equal to bias must not fire, got %f", out[0])
	}

	layer.Biases[0] = math.Nextafter(0.5, 0)
	out, err = layer.FeedForward([]float64{1})
	if err != nil {
		t.Fatalf("feed forward: %v", err)
	}
	if out[0] != 1 {
		t.Fatalf("sum above bias must fire, got %f", out[0])
	}
}

func TestLayerStoresLastPass(t *testing.T) {
	layer, err := NewLayer(rand.New(rand.NewSource(2)), 3, 2)
	if err != nil {
		t.Fatalf("new layer: %v", err)
	}
	inputs := []float64{0.1, 0.2, 0.3}
	out, err := layer.FeedForward(inputs)
	if err != nil {
		t.Fatalf("feed forward: %v", err)
	}
	for i := range inputs {
		if layer.Inputs[i] != inputs[i] {
			t.Fatalf("inputs buffer not updated: %v", layer.Inputs)
		}
	}
	for i := range out {
		if layer.Outputs[i] != out[i] {
			t.Fatalf("outputs buffer not updated: %v", layer.Outputs)
		}
	}

	out[0] = 42
	if layer.Outputs[0] == 42 {
		t.Fatal("returned outputs alias the layer buffer")
	}
}

func TestNewLayerRequiresRandomSource(t *testing.T) {
	if _, err := NewLayer(nil, 1, 1); err == nil {
		t.Fatal("expected error without random source")
	}
}
