// Package stochos is the public client facade over the inference
// platform: one entry point for registering models, running inference
// and reading back runs, traces and artifacts.
package stochos

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"stochos/internal/catalog"
	"stochos/internal/graph"
	"stochos/internal/model"
	"stochos/internal/platform"
	"stochos/internal/sampler"
	"stochos/internal/stats"
	"stochos/internal/storage"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "stochos.db"

	defaultSamples = 1000
	defaultBins    = 20
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
}

type Client struct {
	store storage.Store
	stoa  *platform.Stoa

	artifactsDir string
	exportsDir   string
}

type InferRequest struct {
	Model       string
	Strategy    string
	Samples     int
	Seed        int64
	MaxAttempts int
	BurnIn      int
	Thin        int
	Steps       []float64
	Workers     int
	PriorCheck  bool
}

type PriorCheckSummary struct {
	PriorMeans     map[string]float64
	PosteriorMeans map[string]float64
	MeanShift      map[string]float64
}

type InferSummary struct {
	RunID           string
	ArtifactsDir    string
	Collected       int
	Proposed        int
	AcceptanceRatio float64
	StopReason      string
	Variables       []model.VariableSummary
	PriorCheck      *PriorCheckSummary
}

type RunsRequest struct {
	Limit          int
	ShowPriorCheck bool
}

type RunItem struct {
	RunID           string
	CreatedAtUTC    string
	Model           string
	Strategy        string
	Seed            int64
	Samples         int
	Collected       int
	AcceptanceRatio float64
	StopReason      string
	PriorMeanShift  map[string]float64
}

type TraceRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type ModelItem struct {
	Name        string
	Description string
	Latents     []string
	Results     []string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureStoa(ctx)
	return err
}

// Start initializes the engine and registers the built-in model catalog.
func (c *Client) Start(ctx context.Context) error {
	s, err := c.ensureStoa(ctx)
	if err != nil {
		return err
	}
	return registerCatalogModels(ctx, s)
}

func (c *Client) Reset(ctx context.Context) error {
	s, err := c.ensureStoa(ctx)
	if err != nil {
		return err
	}
	if err := s.Reset(ctx); err != nil {
		return err
	}
	return registerCatalogModels(ctx, s)
}

// RegisterModel adds a caller-built model alongside the catalog.
func (c *Client) RegisterModel(ctx context.Context, m *graph.Model) error {
	s, err := c.ensureStoa(ctx)
	if err != nil {
		return err
	}
	return s.RegisterModel(ctx, m)
}

func (c *Client) Models(ctx context.Context) ([]ModelItem, error) {
	s, err := c.ensureStoa(ctx)
	if err != nil {
		return nil, err
	}
	if err := registerCatalogModels(ctx, s); err != nil {
		return nil, err
	}

	names := s.RegisteredModels()
	out := make([]ModelItem, 0, len(names))
	for _, name := range names {
		summary, found, err := c.store.GetModelSummary(ctx, name)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		out = append(out, ModelItem{
			Name:        summary.Name,
			Description: summary.Description,
			Latents:     summary.Latents,
			Results:     summary.Results,
		})
	}
	return out, nil
}

func (c *Client) ModelSummary(ctx context.Context, name string) (ModelItem, error) {
	if name == "" {
		return ModelItem{}, errors.New("model name is required")
	}
	s, err := c.ensureStoa(ctx)
	if err != nil {
		return ModelItem{}, err
	}
	if err := registerCatalogModels(ctx, s); err != nil {
		return ModelItem{}, err
	}
	summary, found, err := c.store.GetModelSummary(ctx, name)
	if err != nil {
		return ModelItem{}, err
	}
	if !found {
		return ModelItem{}, fmt.Errorf("model summary not found: %s", name)
	}
	return ModelItem{
		Name:        summary.Name,
		Description: summary.Description,
		Latents:     summary.Latents,
		Results:     summary.Results,
	}, nil
}

// Infer runs one inference pass end to end: dispatch, persistence and
// run artifacts. With PriorCheck set it also runs a prior-predictive
// companion pass and writes the comparison alongside the run.
func (c *Client) Infer(ctx context.Context, req InferRequest) (InferSummary, error) {
	if req.Model == "" {
		req.Model = "coin-bias"
	}
	if req.Strategy == "" {
		req.Strategy = sampler.StrategyForward
	}
	if req.Samples <= 0 {
		req.Samples = defaultSamples
	}
	if req.Strategy == sampler.StrategyRejection && req.MaxAttempts <= 0 {
		req.MaxAttempts = 100 * req.Samples
	}

	s, err := c.ensureStoa(ctx)
	if err != nil {
		return InferSummary{}, err
	}
	if err := registerCatalogModels(ctx, s); err != nil {
		return InferSummary{}, err
	}

	m, ok := s.GetModel(req.Model)
	if !ok {
		return InferSummary{}, fmt.Errorf("model not registered: %s", req.Model)
	}

	runID := fmt.Sprintf("%s-%s", req.Model, uuid.NewString()[:8])
	now := time.Now().UTC()

	result, err := s.RunInference(ctx, platform.InferenceConfig{
		RunID:       runID,
		ModelName:   req.Model,
		Strategy:    req.Strategy,
		Samples:     req.Samples,
		Seed:        req.Seed,
		MaxAttempts: req.MaxAttempts,
		BurnIn:      req.BurnIn,
		Thin:        req.Thin,
		Steps:       req.Steps,
		Workers:     req.Workers,
	})
	if err != nil {
		return InferSummary{}, err
	}

	series := make(map[string][]float64)
	histograms := make(map[string][]stats.HistogramBin)
	for _, name := range append(m.LatentNames(), m.ResultNames()...) {
		values := result.Collection.Series(name)
		if len(values) == 0 {
			continue
		}
		series[name] = values
		histograms[name] = stats.Histogram(values, defaultBins)
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:       runID,
			Model:       req.Model,
			Strategy:    result.Record.Strategy,
			Samples:     req.Samples,
			Seed:        req.Seed,
			MaxAttempts: req.MaxAttempts,
			BurnIn:      req.BurnIn,
			Thin:        req.Thin,
			Steps:       req.Steps,
			Workers:     req.Workers,
		},
		Variables:       result.Diagnostics.Variables,
		Histograms:      histograms,
		Proposed:        result.Collection.Proposed,
		Accepted:        result.Collection.Accepted,
		AcceptanceRatio: result.Collection.AcceptanceRatio(),
		StopReason:      result.Collection.StopReason,
		Series:          series,
	})
	if err != nil {
		return InferSummary{}, err
	}

	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:           runID,
		Model:           req.Model,
		Strategy:        result.Record.Strategy,
		Samples:         req.Samples,
		Seed:            req.Seed,
		Collected:       len(result.Collection.Traces),
		AcceptanceRatio: result.Collection.AcceptanceRatio(),
		StopReason:      result.Collection.StopReason,
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
	}); err != nil {
		return InferSummary{}, err
	}

	summary := InferSummary{
		RunID:           runID,
		ArtifactsDir:    filepath.Clean(runDir),
		Collected:       len(result.Collection.Traces),
		Proposed:        result.Collection.Proposed,
		AcceptanceRatio: result.Collection.AcceptanceRatio(),
		StopReason:      result.Collection.StopReason,
		Variables:       result.Diagnostics.Variables,
	}

	if req.PriorCheck {
		check, err := c.runPriorCheck(ctx, s, m, req, result.Collection)
		if err != nil {
			return InferSummary{}, err
		}
		if err := stats.WritePriorComparison(runDir, stats.PriorComparison{
			Model:          req.Model,
			Samples:        req.Samples,
			Seed:           req.Seed,
			PriorMeans:     check.PriorMeans,
			PosteriorMeans: check.PosteriorMeans,
			MeanShift:      check.MeanShift,
		}); err != nil {
			return InferSummary{}, err
		}
		summary.PriorCheck = check
	}

	return summary, nil
}

// runPriorCheck draws the same sample count from the unconditioned model
// and contrasts latent means against the conditioned run.
func (c *Client) runPriorCheck(ctx context.Context, s *platform.Stoa, m *graph.Model, req InferRequest, conditioned model.TraceCollection) (*PriorCheckSummary, error) {
	forward, err := sampler.FromName(sampler.StrategyForward)
	if err != nil {
		return nil, err
	}
	prior, err := forward.Run(ctx, m, sampler.Config{
		Samples: req.Samples,
		Seed:    req.Seed,
		Workers: req.Workers,
	})
	if err != nil {
		return nil, err
	}

	check := &PriorCheckSummary{
		PriorMeans:     make(map[string]float64),
		PosteriorMeans: make(map[string]float64),
		MeanShift:      make(map[string]float64),
	}
	for _, name := range m.LatentNames() {
		priorSeries := prior.Series(name)
		posteriorSeries := conditioned.Series(name)
		if len(priorSeries) == 0 || len(posteriorSeries) == 0 {
			continue
		}
		check.PriorMeans[name] = stats.Mean(priorSeries)
		check.PosteriorMeans[name] = stats.Mean(posteriorSeries)
		check.MeanShift[name] = check.PosteriorMeans[name] - check.PriorMeans[name]
	}
	return check, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		item := RunItem{
			RunID:           e.RunID,
			CreatedAtUTC:    e.CreatedAtUTC,
			Model:           e.Model,
			Strategy:        e.Strategy,
			Seed:            e.Seed,
			Samples:         e.Samples,
			Collected:       e.Collected,
			AcceptanceRatio: e.AcceptanceRatio,
			StopReason:      e.StopReason,
		}
		if req.ShowPriorCheck {
			report, ok, err := stats.ReadPriorComparison(c.artifactsDir, e.RunID)
			if err != nil {
				return nil, err
			}
			if ok {
				item.PriorMeanShift = report.MeanShift
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Client) Trace(ctx context.Context, req TraceRequest) ([]model.Trace, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "trace")
	if err != nil {
		return nil, err
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}

	if _, err := c.ensureStoa(ctx); err != nil {
		return nil, err
	}
	traces, ok, err := c.store.GetTraces(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("traces not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(traces) > req.Limit {
		traces = traces[:req.Limit]
	}
	out := make([]model.Trace, len(traces))
	copy(out, traces)
	return out, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) (model.RunDiagnostics, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return model.RunDiagnostics{}, err
	}

	if _, err := c.ensureStoa(ctx); err != nil {
		return model.RunDiagnostics{}, err
	}
	diagnostics, ok, err := c.store.GetDiagnostics(ctx, runID)
	if err != nil {
		return model.RunDiagnostics{}, err
	}
	if !ok {
		return model.RunDiagnostics{}, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	return diagnostics, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(runID string, latest bool, op string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if strings.TrimSpace(runID) == "" {
		return "", fmt.Errorf("%s requires run id or latest", op)
	}
	return runID, nil
}

func (c *Client) ensureStoa(ctx context.Context) (*platform.Stoa, error) {
	if c.stoa != nil {
		return c.stoa, nil
	}
	s := platform.NewStoa(platform.Config{Store: c.store})
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	c.stoa = s
	return c.stoa, nil
}

func registerCatalogModels(ctx context.Context, s *platform.Stoa) error {
	models, err := catalog.All()
	if err != nil {
		return err
	}
	for _, m := range models {
		if err := s.RegisterModel(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
