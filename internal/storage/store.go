package storage

import (
	"context"

	"stochos/internal/model"
)

// Store defines persistence operations for inference runs and their output.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveTraces(ctx context.Context, runID string, traces []model.Trace) error
	GetTraces(ctx context.Context, runID string) ([]model.Trace, bool, error)
	SaveDiagnostics(ctx context.Context, diagnostics model.RunDiagnostics) error
	GetDiagnostics(ctx context.Context, runID string) (model.RunDiagnostics, bool, error)
	SaveModelSummary(ctx context.Context, summary model.ModelSummary) error
	GetModelSummary(ctx context.Context, name string) (model.ModelSummary, bool, error)
}

// Resetter is implemented by stores that can drop all persisted state.
type Resetter interface {
	Reset(ctx context.Context) error
}
