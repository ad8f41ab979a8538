package platform

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stochos/internal/graph"
	"stochos/internal/model"
	"stochos/internal/sampler"
	"stochos/internal/stats"
	"stochos/internal/storage"
)

type Config struct {
	Store storage.Store
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

// InferenceConfig drives one inference run over a registered model.
type InferenceConfig struct {
	RunID       string
	ModelName   string
	Strategy    string
	Samples     int
	Seed        int64
	MaxAttempts int
	BurnIn      int
	Thin        int
	Steps       []float64
	Workers     int
	Strict      bool
}

// InferenceResult bundles everything a run produced and persisted.
type InferenceResult struct {
	RunID       string
	Collection  model.TraceCollection
	Record      model.RunRecord
	Diagnostics model.RunDiagnostics
}

// Stoa is the central engine: it owns the store, the registered models
// and run dispatch.
type Stoa struct {
	store storage.Store

	mu sync.RWMutex

	models         map[string]*graph.Model
	started        bool
	lastStopReason StopReason

	config Config
}

var (
	defaultStoaMu sync.Mutex
	defaultStoa   *Stoa
)

func NewStoa(cfg Config) *Stoa {
	return &Stoa{
		store:          cfg.Store,
		models:         make(map[string]*graph.Model),
		config:         cfg,
		lastStopReason: StopReasonNormal,
	}
}

func StartDefault(ctx context.Context, cfg Config) (*Stoa, error) {
	defaultStoaMu.Lock()
	defer defaultStoaMu.Unlock()

	if defaultStoa != nil && defaultStoa.Started() {
		return defaultStoa, nil
	}

	s := NewStoa(cfg)
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	defaultStoa = s
	return defaultStoa, nil
}

func Default() (*Stoa, bool) {
	defaultStoaMu.Lock()
	s := defaultStoa
	defaultStoaMu.Unlock()

	if s == nil || !s.Started() {
		return nil, false
	}
	return s, true
}

func StopDefault(reason StopReason) error {
	defaultStoaMu.Lock()
	s := defaultStoa
	defaultStoaMu.Unlock()
	if s == nil {
		return nil
	}
	if err := s.StopWithReason(reason); err != nil {
		return err
	}
	defaultStoaMu.Lock()
	if defaultStoa == s {
		defaultStoa = nil
	}
	defaultStoaMu.Unlock()
	return nil
}

func (s *Stoa) Init(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("store is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.store.Init(ctx); err != nil {
		return err
	}
	s.started = true
	return nil
}

func (s *Stoa) Create(ctx context.Context) error {
	return s.Init(ctx)
}

func (s *Stoa) Reset(ctx context.Context) error {
	_ = s.StopWithReason(StopReasonShutdown)
	if resetter, ok := s.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.models = make(map[string]*graph.Model)
	s.mu.Unlock()
	return s.Init(ctx)
}

// RegisterModel makes a model available for inference and persists its
// summary.
func (s *Stoa) RegisterModel(ctx context.Context, m *graph.Model) error {
	if m == nil {
		return fmt.Errorf("model is nil")
	}
	name := m.Name()
	if name == "" {
		return fmt.Errorf("model name is required")
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("stoa is not initialized")
	}
	s.models[name] = m
	s.mu.Unlock()

	summary := model.ModelSummary{
		VersionedRecord: currentVersion(),
		Name:            name,
		Description:     m.Description(),
		Latents:         m.LatentNames(),
		Results:         m.ResultNames(),
	}
	return s.store.SaveModelSummary(ctx, summary)
}

func (s *Stoa) GetModel(name string) (*graph.Model, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[name]
	return m, ok
}

func (s *Stoa) RegisteredModels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Stoa) Stop() {
	_ = s.StopWithReason(StopReasonNormal)
}

func (s *Stoa) Shutdown() {
	_ = s.StopWithReason(StopReasonShutdown)
}

func (s *Stoa) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if reason != StopReasonNormal && reason != StopReasonShutdown {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	s.lastStopReason = reason
	return nil
}

func (s *Stoa) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Stoa) LastStopReason() StopReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStopReason
}

// RunInference dispatches one run: resolves the model and strategy, runs
// the sampler, and persists the run record, accepted traces and
// diagnostics. A cancelled run persists whatever it collected.
func (s *Stoa) RunInference(ctx context.Context, cfg InferenceConfig) (InferenceResult, error) {
	if cfg.ModelName == "" {
		return InferenceResult{}, fmt.Errorf("model name is required")
	}

	s.mu.RLock()
	m, ok := s.models[cfg.ModelName]
	started := s.started
	s.mu.RUnlock()

	if !started {
		return InferenceResult{}, fmt.Errorf("stoa is not initialized")
	}
	if !ok {
		return InferenceResult{}, fmt.Errorf("model not registered: %s", cfg.ModelName)
	}

	strategy, err := sampler.FromName(cfg.Strategy)
	if err != nil {
		return InferenceResult{}, err
	}

	runID := cfg.RunID
	if runID == "" {
		runID = fmt.Sprintf("infer:%s:%d", cfg.ModelName, cfg.Seed)
	}

	collection, err := strategy.Run(ctx, m, sampler.Config{
		Samples:     cfg.Samples,
		Seed:        cfg.Seed,
		MaxAttempts: cfg.MaxAttempts,
		BurnIn:      cfg.BurnIn,
		Thin:        cfg.Thin,
		Steps:       cfg.Steps,
		Workers:     cfg.Workers,
		Strict:      cfg.Strict,
	})
	if err != nil {
		return InferenceResult{}, err
	}
	collection.VersionedRecord = currentVersion()

	record := model.RunRecord{
		VersionedRecord: currentVersion(),
		RunID:           runID,
		Model:           cfg.ModelName,
		Strategy:        strategy.Name(),
		Seed:            cfg.Seed,
		Samples:         cfg.Samples,
		MaxAttempts:     cfg.MaxAttempts,
		BurnIn:          cfg.BurnIn,
		Thin:            cfg.Thin,
		Steps:           append([]float64(nil), cfg.Steps...),
		Collected:       len(collection.Traces),
		AcceptanceRatio: collection.AcceptanceRatio(),
		StopReason:      collection.StopReason,
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.store.SaveRun(ctx, record); err != nil {
		return InferenceResult{}, err
	}

	stamped := make([]model.Trace, len(collection.Traces))
	for i, tr := range collection.Traces {
		tr.VersionedRecord = currentVersion()
		stamped[i] = tr
	}
	if err := s.store.SaveTraces(ctx, runID, stamped); err != nil {
		return InferenceResult{}, err
	}

	diagnostics := model.RunDiagnostics{
		VersionedRecord: currentVersion(),
		RunID:           runID,
		Proposed:        collection.Proposed,
		Accepted:        collection.Accepted,
		AcceptanceRatio: collection.AcceptanceRatio(),
		StopReason:      collection.StopReason,
		Variables:       summarizeCollection(m, collection),
	}
	if err := s.store.SaveDiagnostics(ctx, diagnostics); err != nil {
		return InferenceResult{}, err
	}

	return InferenceResult{
		RunID:       runID,
		Collection:  collection,
		Record:      record,
		Diagnostics: diagnostics,
	}, nil
}

func summarizeCollection(m *graph.Model, collection model.TraceCollection) []model.VariableSummary {
	names := append(m.LatentNames(), m.ResultNames()...)
	summaries := make([]model.VariableSummary, 0, len(names))
	for _, name := range names {
		series := collection.Series(name)
		if len(series) == 0 {
			continue
		}
		summaries = append(summaries, stats.SummarizeVariable(name, series))
	}
	return summaries
}

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}
