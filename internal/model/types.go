package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Brain mirrors the live network object graph. Inputs and Outputs are the
// transient buffers of the last forward pass.
type Brain struct {
	VersionedRecord
	Levels []Level `json:"levels"`
}

type Level struct {
	Inputs  []float64   `json:"inputs"`
	Outputs []float64   `json:"outputs"`
	Biases  []float64   `json:"biases"`
	Weights [][]float64 `json:"weights"`
}

type GenerationRecord struct {
	Generation   int     `json:"generation"`
	Ticks        int     `json:"ticks"`
	Alive        int     `json:"alive"`
	BestProgress float64 `json:"best_progress"`
	BestID       string  `json:"best_id"`
	Seeded       bool    `json:"seeded"`
}

type RunRecord struct {
	VersionedRecord
	ID           string             `json:"id"`
	CreatedAtUTC string             `json:"created_at_utc"`
	Seed         int64              `json:"seed"`
	CarCount     int                `json:"car_count"`
	Topology     []int              `json:"topology"`
	Generations  []GenerationRecord `json:"generations"`
}

// Clone returns a deep copy of the brain.
func (b Brain) Clone() Brain {
	out := Brain{VersionedRecord: b.VersionedRecord}
	if b.Levels == nil {
		return out
	}
	out.Levels = make([]Level, len(b.Levels))
	for i, level := range b.Levels {
		out.Levels[i] = Level{
			Inputs:  append([]float64(nil), level.Inputs...),
			Outputs: append([]float64(nil), level.Outputs...),
			Biases:  append([]float64(nil), level.Biases...),
		}
		if level.Weights != nil {
			out.Levels[i].Weights = make([][]float64, len(level.Weights))
			for j, row := range level.Weights {
				out.Levels[i].Weights[j] = append([]float64(nil), row...)
			}
		}
	}
	return out
}

func (r RunRecord) Clone() RunRecord {
	out := r
	out.Topology = append([]int(nil), r.Topology...)
	out.Generations = append([]GenerationRecord(nil), r.Generations...)
	return out
}
