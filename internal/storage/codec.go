package storage

import (
	"encoding/json"
	"errors"

	"stochos/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
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

func EncodeTraces(traces []model.Trace) ([]byte, error) {
	return json.Marshal(traces)
}

func DecodeTraces(data []byte) ([]model.Trace, error) {
	var traces []model.Trace
	if err := json.Unmarshal(data, &traces); err != nil {
		return nil, err
	}
	for _, trace := range traces {
		if err := checkVersion(trace.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return traces, nil
}

func EncodeDiagnostics(d model.RunDiagnostics) ([]byte, error) {
	return json.Marshal(d)
}

func DecodeDiagnostics(data []byte) (model.RunDiagnostics, error) {
	var diagnostics model.RunDiagnostics
	if err := json.Unmarshal(data, &diagnostics); err != nil {
		return model.RunDiagnostics{}, err
	}
	if err := checkVersion(diagnostics.VersionedRecord); err != nil {
		return model.RunDiagnostics{}, err
	}
	return diagnostics, nil
}

func EncodeModelSummary(s model.ModelSummary) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeModelSummary(data []byte) (model.ModelSummary, error) {
	var summary model.ModelSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.ModelSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.ModelSummary{}, err
	}
	return summary, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
