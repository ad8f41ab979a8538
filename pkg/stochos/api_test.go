package stochos

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stochos/internal/sampler"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	base := t.TempDir()

	client, err := New(Options{
		StoreKind:    "memory",
		ArtifactsDir: filepath.Join(base, "artifacts"),
		ExportsDir:   filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientStartRegistersCatalog(t *testing.T) {
	client := newTestClient(t)

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	models, err := client.Models(context.Background())
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("expected 3 catalog models, got %d", len(models))
	}

	item, err := client.ModelSummary(context.Background(), "coin-bias")
	if err != nil {
		t.Fatalf("model summary: %v", err)
	}
	if len(item.Latents) != 1 || item.Latents[0] != "p" {
		t.Fatalf("unexpected coin-bias summary: %+v", item)
	}
}

func TestClientInferRunsTraceAndExport(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Infer(ctx, InferRequest{
		Model:    "three-coins",
		Strategy: sampler.StrategyForward,
		Samples:  300,
		Seed:     42,
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if summary.RunID == "" || !strings.HasPrefix(summary.RunID, "three-coins-") {
		t.Fatalf("unexpected run id: %q", summary.RunID)
	}
	if summary.Collected != 300 || summary.StopReason != "normal" {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, file := range []string{"config.json", "summary.json", "traces.csv"} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, file)); err != nil {
			t.Fatalf("missing artifact %s: %v", file, err)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("expected latest run %s in runs list: %+v", summary.RunID, runs)
	}

	traces, err := client.Trace(ctx, TraceRequest{Latest: true, Limit: 10})
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(traces) != 10 {
		t.Fatalf("expected 10 traces, got %d", len(traces))
	}
	if _, ok := traces[0].Values["heads"]; !ok {
		t.Fatalf("trace missing result value: %+v", traces[0])
	}

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if diagnostics.Accepted != 300 || diagnostics.AcceptanceRatio != 1 {
		t.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}

	export, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if export.RunID != summary.RunID {
		t.Fatalf("export run id %s, want %s", export.RunID, summary.RunID)
	}
	if _, err := os.Stat(filepath.Join(export.Directory, "traces.csv")); err != nil {
		t.Fatalf("exported traces.csv missing: %v", err)
	}
}

func TestClientInferWithPriorCheck(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	summary, err := client.Infer(ctx, InferRequest{
		Model:      "coin-bias",
		Strategy:   sampler.StrategyMetropolis,
		Samples:    800,
		Seed:       23,
		BurnIn:     100,
		PriorCheck: true,
	})
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if summary.PriorCheck == nil {
		t.Fatal("expected a prior check summary")
	}
	if _, ok := summary.PriorCheck.MeanShift["p"]; !ok {
		t.Fatalf("prior check missing latent p: %+v", summary.PriorCheck)
	}
	if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, "prior_check.json")); err != nil {
		t.Fatalf("prior_check.json missing: %v", err)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5, ShowPriorCheck: true})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].PriorMeanShift == nil {
		t.Fatalf("expected prior mean shift on run item: %+v", runs)
	}
}

func TestClientInferValidation(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Infer(ctx, InferRequest{Model: "no-such-model"}); err == nil {
		t.Fatal("expected error for unknown model")
	}
	if _, err := client.Infer(ctx, InferRequest{
		Model: "three-coins", Strategy: "gibbs",
	}); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if _, err := client.Export(ctx, ExportRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected error for run id and latest together")
	}
	if _, err := client.Export(ctx, ExportRequest{}); err == nil {
		t.Fatal("expected error for export without run selection")
	}
	if _, err := client.Trace(ctx, TraceRequest{Latest: true}); err == nil {
		t.Fatal("expected error for trace with no runs")
	}
}
