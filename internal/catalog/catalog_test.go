package catalog

import (
	"context"
	"testing"

	"stochos/internal/sampler"
)

func TestAllBuilds(t *testing.T) {
	models, err := All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("catalog size %d, want 3", len(models))
	}

	names := map[string]bool{}
	for _, m := range models {
		names[m.Name()] = true
	}
	for _, want := range []string{"coin-bias", "three-coins", "at-least-one-heads"} {
		if !names[want] {
			t.Fatalf("catalog missing %s", want)
		}
	}
}

func TestCoinBiasShape(t *testing.T) {
	m, err := CoinBias()
	if err != nil {
		t.Fatalf("CoinBias: %v", err)
	}
	if !m.HasObservations() || m.HasConditions() {
		t.Fatalf("unexpected constraint shape: obs=%v cond=%v", m.HasObservations(), m.HasConditions())
	}
	if got := m.LatentNames(); len(got) != 1 || got[0] != "p" {
		t.Fatalf("latents %v", got)
	}
	if got := m.ResultNames(); len(got) != 1 || got[0] != "bias" {
		t.Fatalf("results %v", got)
	}
}

func TestAtLeastOneHeadsConditioning(t *testing.T) {
	m, err := AtLeastOneHeads()
	if err != nil {
		t.Fatalf("AtLeastOneHeads: %v", err)
	}
	strategy, err := sampler.FromName(sampler.StrategyRejection)
	if err != nil {
		t.Fatalf("FromName: %v", err)
	}
	tc, err := strategy.Run(context.Background(), m, sampler.Config{
		Samples: 2000, Seed: 11, MaxAttempts: 20000,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(tc.Traces) != 2000 {
		t.Fatalf("collected %d traces, want 2000", len(tc.Traces))
	}
	// P(both heads | at least one) = 1/3.
	both := 0
	for _, tr := range tc.Traces {
		if tr.Values["both-heads"] == 1 {
			both++
		}
	}
	frac := float64(both) / float64(len(tc.Traces))
	if frac < 0.28 || frac > 0.39 {
		t.Fatalf("P(both|some) = %v, want near 1/3", frac)
	}
}
