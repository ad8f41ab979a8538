package sampler

import (
	"context"
	"fmt"
	"math/rand"

	"stochos/internal/graph"
	"stochos/internal/model"
)

// Rejection repeatedly executes the model with fresh randomness and keeps
// executions whose hard conditions all hold. Likelihood-weighted rejection
// is deliberately unsupported: models carrying observation terms are
// refused rather than silently mis-weighted.
//
// MaxAttempts is mandatory; an unsatisfiable constraint set returns a
// partial (possibly empty) collection with StopReason set instead of
// spinning forever.
type Rejection struct{}

func (Rejection) Name() string { return StrategyRejection }

func (Rejection) Run(ctx context.Context, m *graph.Model, cfg Config) (model.TraceCollection, error) {
	out := model.TraceCollection{Strategy: StrategyRejection, StopReason: model.StopReasonNormal}
	if err := validateSamples(cfg); err != nil {
		return out, err
	}
	if cfg.MaxAttempts <= 0 {
		return out, fmt.Errorf("%w: rejection sampling requires max attempts > 0", ErrNonTermination)
	}
	if m.HasObservations() {
		return out, fmt.Errorf("%w: rejection sampling supports hard conditions only (model %s has observation terms)", ErrUnsupportedModel, m.Name())
	}

	r := rand.New(rand.NewSource(cfg.Seed))
	out.Traces = make([]model.Trace, 0, cfg.Samples)
	attempts := 0
	for attempts < cfg.MaxAttempts && len(out.Traces) < cfg.Samples {
		if cancelled(ctx) {
			out.StopReason = model.StopReasonCancelled
			break
		}
		attempts++
		trace := m.Execute(r, nil)
		if trace.Accepted {
			out.Traces = append(out.Traces, trace)
		}
	}
	if out.StopReason == model.StopReasonNormal && len(out.Traces) < cfg.Samples {
		out.StopReason = model.StopReasonAttemptsExhausted
	}
	out.Proposed = attempts
	out.Accepted = len(out.Traces)
	return out, nil
}
