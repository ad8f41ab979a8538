package platform

import (
	"context"
	"testing"

	"stochos/internal/catalog"
	"stochos/internal/graph"
	"stochos/internal/sampler"
	"stochos/internal/storage"
)

func testModel(t *testing.T) *graph.Model {
	t.Helper()
	m, err := catalog.ThreeCoins()
	if err != nil {
		t.Fatalf("build model: %v", err)
	}
	return m
}

func TestStoaInitAndRegisterModel(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewStoa(Config{Store: store})
	ctx := context.Background()

	if err := s.RegisterModel(ctx, testModel(t)); err == nil {
		t.Fatal("expected register to fail before init")
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !s.Started() {
		t.Fatal("stoa should be started after init")
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("second init should be idempotent: %v", err)
	}
	if err := s.RegisterModel(ctx, testModel(t)); err != nil {
		t.Fatalf("register model failed: %v", err)
	}
	if got := s.RegisteredModels(); len(got) != 1 || got[0] != "three-coins" {
		t.Fatalf("registered models %v", got)
	}
	if _, ok := s.GetModel("three-coins"); !ok {
		t.Fatal("expected get model to resolve registered model")
	}

	summary, found, err := store.GetModelSummary(ctx, "three-coins")
	if err != nil || !found {
		t.Fatalf("model summary lookup: found=%v err=%v", found, err)
	}
	if len(summary.Latents) != 3 || len(summary.Results) != 1 {
		t.Fatalf("unexpected model summary: %+v", summary)
	}
}

func TestStoaLifecycleStopAndReset(t *testing.T) {
	s := NewStoa(Config{Store: storage.NewMemoryStore()})
	ctx := context.Background()

	if err := s.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := s.RegisterModel(ctx, testModel(t)); err != nil {
		t.Fatalf("register model failed: %v", err)
	}

	s.Stop()
	if s.Started() {
		t.Fatal("expected stoa stopped after stop call")
	}
	if s.LastStopReason() != StopReasonNormal {
		t.Fatalf("stop reason %s, want normal", s.LastStopReason())
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if !s.Started() {
		t.Fatal("expected stoa started after reset")
	}
	if got := s.RegisteredModels(); len(got) != 0 {
		t.Fatalf("expected reset to clear models, got %v", got)
	}
}

func TestStoaRunInferencePersists(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewStoa(Config{Store: store})
	ctx := context.Background()

	if err := s.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := s.RegisterModel(ctx, testModel(t)); err != nil {
		t.Fatalf("register model failed: %v", err)
	}

	result, err := s.RunInference(ctx, InferenceConfig{
		RunID:     "run-1",
		ModelName: "three-coins",
		Strategy:  sampler.StrategyForward,
		Samples:   200,
		Seed:      7,
	})
	if err != nil {
		t.Fatalf("run inference: %v", err)
	}
	if result.RunID != "run-1" {
		t.Fatalf("run id %s", result.RunID)
	}
	if len(result.Collection.Traces) != 200 {
		t.Fatalf("collected %d traces, want 200", len(result.Collection.Traces))
	}
	if result.Record.StopReason != "normal" || result.Record.Collected != 200 {
		t.Fatalf("unexpected record: %+v", result.Record)
	}

	record, found, err := store.GetRun(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("get run: found=%v err=%v", found, err)
	}
	if record.Model != "three-coins" || record.Strategy != sampler.StrategyForward {
		t.Fatalf("unexpected persisted run: %+v", record)
	}

	traces, found, err := store.GetTraces(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("get traces: found=%v err=%v", found, err)
	}
	if len(traces) != 200 {
		t.Fatalf("persisted %d traces, want 200", len(traces))
	}
	if traces[0].SchemaVersion != storage.CurrentSchemaVersion {
		t.Fatalf("trace schema version %d", traces[0].SchemaVersion)
	}

	diagnostics, found, err := store.GetDiagnostics(ctx, "run-1")
	if err != nil || !found {
		t.Fatalf("get diagnostics: found=%v err=%v", found, err)
	}
	if diagnostics.Accepted != 200 || diagnostics.AcceptanceRatio != 1 {
		t.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}
	names := map[string]bool{}
	for _, v := range diagnostics.Variables {
		names[v.Name] = true
	}
	if !names["heads"] || !names["coin1"] {
		t.Fatalf("diagnostics variables missing: %+v", diagnostics.Variables)
	}
}

func TestStoaRunInferenceValidation(t *testing.T) {
	s := NewStoa(Config{Store: storage.NewMemoryStore()})
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := s.RunInference(ctx, InferenceConfig{
		ModelName: "unknown", Strategy: sampler.StrategyForward, Samples: 10,
	}); err == nil {
		t.Fatal("expected error for unregistered model")
	}

	if err := s.RegisterModel(ctx, testModel(t)); err != nil {
		t.Fatalf("register model failed: %v", err)
	}
	if _, err := s.RunInference(ctx, InferenceConfig{
		ModelName: "three-coins", Strategy: "simulated-annealing", Samples: 10,
	}); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if _, err := s.RunInference(ctx, InferenceConfig{
		ModelName: "", Strategy: sampler.StrategyForward, Samples: 10,
	}); err == nil {
		t.Fatal("expected error for missing model name")
	}
}

func TestStartDefaultAndStopDefault(t *testing.T) {
	ctx := context.Background()
	s, err := StartDefault(ctx, Config{Store: storage.NewMemoryStore()})
	if err != nil {
		t.Fatalf("start default: %v", err)
	}
	t.Cleanup(func() { _ = StopDefault(StopReasonShutdown) })

	got, ok := Default()
	if !ok || got != s {
		t.Fatal("default stoa not resolved")
	}

	if err := StopDefault(StopReasonShutdown); err != nil {
		t.Fatalf("stop default: %v", err)
	}
	if _, ok := Default(); ok {
		t.Fatal("default should be cleared after stop")
	}
}
