package sampler

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"stochos/internal/dist"
	"stochos/internal/graph"
	"stochos/internal/model"
)

func threeCoinsModel(t *testing.T) *graph.Model {
	t.Helper()
	bern, err := dist.NewBernoulli(0.5)
	if err != nil {
		t.Fatalf("new bernoulli: %v", err)
	}
	b := graph.NewBuilder("three-coins")
	b.Latent("a", bern)
	b.Latent("b", bern)
	b.Latent("c", bern)
	b.Derived("total", []string{"a", "b", "c"}, func(s graph.Scope) float64 {
		return s.Value("a") + s.Value("b") + s.Value("c")
	})
	b.Result("heads", []string{"total"}, func(s graph.Scope) float64 { return s.Value("total") })
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func coinBiasModel(t *testing.T) *graph.Model {
	t.Helper()
	beta, err := dist.NewBeta(10, 10)
	if err != nil {
		t.Fatalf("new beta: %v", err)
	}
	b := graph.NewBuilder("coin-bias")
	b.Latent("p", beta)
	b.Observe("heads", []string{"p"}, func(s graph.Scope) (dist.Distribution, error) {
		return dist.NewBinomial(5, s.Value("p"))
	}, 2)
	b.Result("bias", []string{"p"}, func(s graph.Scope) float64 { return s.Value("p") })
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func TestForwardCollectsEverySample(t *testing.T) {
	m := threeCoinsModel(t)
	out, err := Forward{}.Run(context.Background(), m, Config{Samples: 200, Seed: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out.Traces) != 200 {
		t.Fatalf("collected %d traces, want 200", len(out.Traces))
	}
	for i, trace := range out.Traces {
		if !trace.Accepted {
			t.Fatalf("trace %d not accepted", i)
		}
	}
	if out.AcceptanceRatio() != 1 {
		t.Fatalf("acceptance ratio %v, want 1", out.AcceptanceRatio())
	}
	if out.StopReason != model.StopReasonNormal {
		t.Fatalf("stop reason %s", out.StopReason)
	}
}

func TestForwardThreeCoinsMatchesBinomialPMF(t *testing.T) {
	m := threeCoinsModel(t)
	out, err := Forward{}.Run(context.Background(), m, Config{Samples: 10000, Seed: 99})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	counts := make(map[float64]int, 4)
	for _, v := range out.Series("heads") {
		counts[v]++
	}
	pmf := map[float64]float64{0: 0.125, 1: 0.375, 2: 0.375, 3: 0.125}
	for k, want := range pmf {
		got := float64(counts[k]) / 10000
		if math.Abs(got-want) > 0.02 {
			t.Fatalf("frequency of %v heads: %v, want about %v", k, got, want)
		}
	}
}

func TestForwardStrictRejectsObservedModels(t *testing.T) {
	m := coinBiasModel(t)
	if _, err := (Forward{}).Run(context.Background(), m, Config{Samples: 10, Seed: 1, Strict: true}); !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
	// Non-strict forward simulates the prior and ignores the observation.
	out, err := Forward{}.Run(context.Background(), m, Config{Samples: 50, Seed: 1})
	if err != nil {
		t.Fatalf("non-strict run: %v", err)
	}
	if len(out.Traces) != 50 {
		t.Fatalf("collected %d traces, want 50", len(out.Traces))
	}
}

func TestForwardWorkerPoolIsDeterministic(t *testing.T) {
	m := threeCoinsModel(t)
	cfg := Config{Samples: 500, Seed: 7, Workers: 4}
	first, err := Forward{}.Run(context.Background(), m, cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Forward{}.Run(context.Background(), m, cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(first.Traces) != 500 {
		t.Fatalf("collected %d traces, want 500", len(first.Traces))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed produced different collections")
	}
}

func TestForwardCancellationReturnsPartial(t *testing.T) {
	m := threeCoinsModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := Forward{}.Run(ctx, m, Config{Samples: 100, Seed: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.StopReason != model.StopReasonCancelled {
		t.Fatalf("stop reason %s, want cancelled", out.StopReason)
	}
	if len(out.Traces) >= 100 {
		t.Fatalf("expected a partial collection, got %d traces", len(out.Traces))
	}
}
