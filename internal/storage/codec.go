package storage

import (
	"encoding/json"
	"errors"

	"aicars/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeBrain(b model.Brain) ([]byte, error) {
	stamp(&b.VersionedRecord)
	return json.Marshal(b)
}

// DecodeBrain accepts a stamped record or the bare {"levels": [...]} document
// a Network marshals to. The bare form is read as the current version.
func DecodeBrain(data []byte) (model.Brain, error) {
	var brain model.Brain
	if err := json.Unmarshal(data, &brain); err != nil {
		return model.Brain{}, err
	}
	if brain.VersionedRecord == (model.VersionedRecord{}) {
		stamp(&brain.VersionedRecord)
	}
	if err := checkVersion(brain.VersionedRecord); err != nil {
		return model.Brain{}, err
	}
	return brain, nil
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	stamp(&r.VersionedRecord)
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

// stamp marks a record with the versions this build writes.
func stamp(v *model.VersionedRecord) {
	v.SchemaVersion = CurrentSchemaVersion
	v.CodecVersion = CurrentCodecVersion
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
