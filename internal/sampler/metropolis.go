package sampler

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"stochos/internal/graph"
	"stochos/internal/model"
)

const (
	defaultStepSize     = 0.1
	initialStateRetries = 1000
)

// Metropolis runs a single random-walk Metropolis-Hastings chain. One
// iteration sweeps the latent variables in declaration order, proposing a
// symmetric uniform perturbation (x ± step) for each while holding the
// rest fixed, and accepts with probability min(1, exp(Δ log posterior)).
// Proposals outside a prior's support evaluate to -Inf log posterior and
// reject automatically; they never abort the run.
//
// Chains are inherently sequential and never parallelized here.
type Metropolis struct{}

func (Metropolis) Name() string { return StrategyMetropolis }

func (Metropolis) Run(ctx context.Context, m *graph.Model, cfg Config) (model.TraceCollection, error) {
	out := model.TraceCollection{Strategy: StrategyMetropolis, StopReason: model.StopReasonNormal}
	if err := validateSamples(cfg); err != nil {
		return out, err
	}
	latents := m.LatentNames()
	if len(latents) == 0 {
		return out, fmt.Errorf("%w: metropolis-hastings requires at least one latent variable (model %s)", ErrUnsupportedModel, m.Name())
	}
	steps := cfg.Steps
	if len(steps) == 0 {
		steps = make([]float64, len(latents))
		for i := range steps {
			steps[i] = defaultStepSize
		}
	}
	if len(steps) != len(latents) {
		return out, fmt.Errorf("steps length %d does not match %d latent variables", len(steps), len(latents))
	}
	for i, s := range steps {
		if !(s > 0) {
			return out, fmt.Errorf("step size for %s must be > 0 (got %v)", latents[i], s)
		}
	}
	thin := cfg.Thin
	if thin <= 0 {
		thin = 1
	}
	if cfg.BurnIn < 0 {
		return out, fmt.Errorf("burn-in must be >= 0 (got %d)", cfg.BurnIn)
	}

	r := rand.New(rand.NewSource(cfg.Seed))

	// Draw the initial state from the priors; hard conditions can make a
	// prior draw infeasible, so retries are bounded.
	var current model.Trace
	feasible := false
	for i := 0; i < initialStateRetries; i++ {
		current = m.Execute(r, nil)
		if current.Accepted {
			feasible = true
			break
		}
	}
	if !feasible {
		return out, fmt.Errorf("%w: no feasible initial state for model %s after %d prior draws", ErrNonTermination, m.Name(), initialStateRetries)
	}

	state := make(graph.Overrides, len(latents))
	for _, name := range latents {
		state[name] = current.Values[name]
	}

	out.Traces = make([]model.Trace, 0, cfg.Samples)
	iteration := 0
	for len(out.Traces) < cfg.Samples {
		if cancelled(ctx) {
			out.StopReason = model.StopReasonCancelled
			break
		}

		for i, name := range latents {
			out.Proposed++
			candidate := make(graph.Overrides, len(state))
			for k, v := range state {
				candidate[k] = v
			}
			candidate[name] = state[name] + (2*r.Float64()-1)*steps[i]

			candTrace := m.Execute(r, candidate)
			delta := candTrace.LogPosterior() - current.LogPosterior()
			if delta >= 0 || math.Log(r.Float64()) < delta {
				out.Accepted++
				current = candTrace
				state = candidate
			}
		}

		iteration++
		if kept := iteration - cfg.BurnIn; kept > 0 && kept%thin == 0 {
			out.Traces = append(out.Traces, current)
		}
	}
	return out, nil
}
