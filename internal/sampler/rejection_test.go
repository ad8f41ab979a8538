package sampler

import (
	"context"
	"errors"
	"testing"

	"stochos/internal/dist"
	"stochos/internal/graph"
	"stochos/internal/model"
)

func conditionedModel(t *testing.T, pred graph.PredicateFn) *graph.Model {
	t.Helper()
	bern, err := dist.NewBernoulli(0.5)
	if err != nil {
		t.Fatalf("new bernoulli: %v", err)
	}
	b := graph.NewBuilder("coin-pair")
	b.Latent("x", bern)
	b.Latent("y", bern)
	b.Derived("sum", []string{"x", "y"}, func(s graph.Scope) float64 { return s.Value("x") + s.Value("y") })
	b.Condition("constraint", []string{"sum"}, pred)
	b.Result("heads", []string{"sum"}, func(s graph.Scope) float64 { return s.Value("sum") })
	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func TestRejectionSatisfiableConstraint(t *testing.T) {
	m := conditionedModel(t, func(s graph.Scope) bool { return s.Value("sum") >= 1 })
	out, err := Rejection{}.Run(context.Background(), m, Config{Samples: 300, Seed: 4, MaxAttempts: 100000})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out.Traces) != 300 {
		t.Fatalf("collected %d traces, want 300", len(out.Traces))
	}
	if out.StopReason != model.StopReasonNormal {
		t.Fatalf("stop reason %s", out.StopReason)
	}
	ratio := out.AcceptanceRatio()
	if ratio <= 0 || ratio > 1 {
		t.Fatalf("acceptance ratio %v outside (0,1]", ratio)
	}
	// P(sum >= 1) = 0.75 for two fair coins.
	if ratio < 0.6 || ratio > 0.9 {
		t.Fatalf("acceptance ratio %v, want about 0.75", ratio)
	}
	for i, trace := range out.Traces {
		if trace.Values["sum"] < 1 {
			t.Fatalf("trace %d violates constraint: %+v", i, trace.Values)
		}
	}
}

func TestRejectionUnsatisfiableConstraintTerminates(t *testing.T) {
	m := conditionedModel(t, func(s graph.Scope) bool { return false })
	out, err := Rejection{}.Run(context.Background(), m, Config{Samples: 10, Seed: 4, MaxAttempts: 500})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(out.Traces) != 0 {
		t.Fatalf("collected %d traces from an unsatisfiable model", len(out.Traces))
	}
	if out.Proposed != 500 {
		t.Fatalf("proposed %d, want the full 500 attempts", out.Proposed)
	}
	if out.StopReason != model.StopReasonAttemptsExhausted {
		t.Fatalf("stop reason %s, want attempts-exhausted", out.StopReason)
	}
}

func TestRejectionRequiresAttemptBound(t *testing.T) {
	m := conditionedModel(t, func(s graph.Scope) bool { return true })
	if _, err := (Rejection{}).Run(context.Background(), m, Config{Samples: 10, Seed: 1}); !errors.Is(err, ErrNonTermination) {
		t.Fatalf("expected ErrNonTermination, got %v", err)
	}
}

func TestRejectionRefusesObservationTerms(t *testing.T) {
	m := coinBiasModel(t)
	if _, err := (Rejection{}).Run(context.Background(), m, Config{Samples: 10, Seed: 1, MaxAttempts: 100}); !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}

func TestRejectionCancellationReturnsPartial(t *testing.T) {
	m := conditionedModel(t, func(s graph.Scope) bool { return true })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := Rejection{}.Run(ctx, m, Config{Samples: 100, Seed: 1, MaxAttempts: 1000})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.StopReason != model.StopReasonCancelled {
		t.Fatalf("stop reason %s, want cancelled", out.StopReason)
	}
}
