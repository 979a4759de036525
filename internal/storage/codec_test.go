package storage

import (
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"aicars/internal/model"
	"aicars/internal/nn"
)

func TestDecodeBrainFixture(t *testing.T) {
	data, err := os.ReadFile(fixturePath("best_brain_v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	brain, err := DecodeBrain(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	network, err := nn.FromModel(brain)
	if err != nil {
		t.Fatalf("rebuild network: %v", err)
	}
	if got := network.Topology(); !slices.Equal(got, []int{3, 2, 4}) {
		t.Fatalf("unexpected topology: %v", got)
	}
	if brain.Levels[1].Weights[1][3] != 0.7 {
		t.Fatalf("unexpected weight: %f", brain.Levels[1].Weights[1][3])
	}
}

func TestDecodeBrainVersions(t *testing.T) {
	tests := []struct {
		name     string
		fixture  string
		mismatch bool
	}{
		{name: "unversioned", fixture: "best_brain_v0.json"},
		{name: "current", fixture: "best_brain_v1.json"},
		{name: "newer schema", fixture: "best_brain_v2.json", mismatch: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := os.ReadFile(fixturePath(tc.fixture))
			if err != nil {
				t.Fatalf("read fixture: %v", err)
			}
			brain, err := DecodeBrain(data)
			if tc.mismatch {
				if !errors.Is(err, ErrVersionMismatch) {
					t.Fatalf("expected version mismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if brain.SchemaVersion != CurrentSchemaVersion || brain.CodecVersion != CurrentCodecVersion {
				t.Fatalf("unexpected versions: %+v", brain.VersionedRecord)
			}
		})
	}
}

func TestDecodeBrainReadsExportedNetwork(t *testing.T) {
	network := nn.MustNew(rand.New(rand.NewSource(7)), 5, 6, 4)
	data, err := json.Marshal(network)
	if err != nil {
		t.Fatalf("marshal network: %v", err)
	}

	brain, err := DecodeBrain(data)
	if err != nil {
		t.Fatalf("decode exported network: %v", err)
	}
	restored, err := nn.FromModel(brain)
	if err != nil {
		t.Fatalf("rebuild network: %v", err)
	}
	if !restored.Equal(network) {
		t.Fatal("decoded network differs from the exported one")
	}
}

func TestEncodeStampsVersions(t *testing.T) {
	data, err := EncodeRun(model.RunRecord{ID: "run-1", Topology: []int{5, 6, 4}})
	if err != nil {
		t.Fatalf("encode run: %v", err)
	}
	run, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if run.SchemaVersion != CurrentSchemaVersion || run.CodecVersion != CurrentCodecVersion {
		t.Fatalf("unexpected versions: %+v", run.VersionedRecord)
	}
	if !slices.Equal(run.Topology, []int{5, 6, 4}) {
		t.Fatalf("unexpected topology: %v", run.Topology)
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	if _, err := DecodeBrain([]byte(`{"levels": 3}`)); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := DecodeRun([]byte(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}
