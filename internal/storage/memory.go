package storage

import (
	"context"
	"sort"
	"sync"

	"stochos/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	traces      map[string][]model.Trace
	diagnostics map[string]model.RunDiagnostics
	models      map[string]model.ModelSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.traces = make(map[string][]model.Trace)
	s.diagnostics = make(map[string]model.RunDiagnostics)
	s.models = make(map[string]model.ModelSummary)
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.RunID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	// Newest first, matching the artifact index ordering.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC != out[j].CreatedAtUTC {
			return out[i].CreatedAtUTC > out[j].CreatedAtUTC
		}
		return out[i].RunID > out[j].RunID
	})
	return out, nil
}

func (s *MemoryStore) SaveTraces(_ context.Context, runID string, traces []model.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces[runID] = append([]model.Trace(nil), traces...)
	return nil
}

func (s *MemoryStore) GetTraces(_ context.Context, runID string) ([]model.Trace, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	traces, ok := s.traces[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.Trace(nil), traces...), true, nil
}

func (s *MemoryStore) SaveDiagnostics(_ context.Context, diagnostics model.RunDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.diagnostics[diagnostics.RunID] = diagnostics
	return nil
}

func (s *MemoryStore) GetDiagnostics(_ context.Context, runID string) (model.RunDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	return diagnostics, ok, nil
}

func (s *MemoryStore) SaveModelSummary(_ context.Context, summary model.ModelSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.models[summary.Name] = summary
	return nil
}

func (s *MemoryStore) GetModelSummary(_ context.Context, name string) (model.ModelSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.models[name]
	return summary, ok, nil
}
