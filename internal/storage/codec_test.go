package storage

import (
	"errors"
	"testing"

	"stochos/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: stamped(),
		RunID:           "run-1",
		Model:           "three-coins",
		Strategy:        "forward-sampling",
		Samples:         10000,
		Steps:           []float64{0.1, 0.2},
	}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Model != run.Model || len(decoded.Steps) != 2 {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	run := model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: 99, CodecVersion: CurrentCodecVersion},
		RunID:           "run-1",
	}
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	traces := []model.Trace{{VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: 99}}}
	payload, err := EncodeTraces(traces)
	if err != nil {
		t.Fatalf("encode traces: %v", err)
	}
	if _, err := DecodeTraces(payload); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected trace ErrVersionMismatch, got %v", err)
	}
}
