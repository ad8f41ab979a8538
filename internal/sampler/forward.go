package sampler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"stochos/internal/graph"
	"stochos/internal/model"
)

// Stride between per-worker RNG streams; keeps streams disjoint in seed
// space the same way the platform offsets component seeds.
const forwardStreamStride = 1009

// Forward executes the model independently for every sample with no
// conditioning; every execution is collected. Independent executions are
// embarrassingly parallel, so Workers > 1 partitions the sample budget
// across a pool with one derived RNG stream per worker, merged back in
// worker order to keep results deterministic under a fixed seed.
type Forward struct{}

func (Forward) Name() string { return StrategyForward }

func (Forward) Run(ctx context.Context, m *graph.Model, cfg Config) (model.TraceCollection, error) {
	out := model.TraceCollection{Strategy: StrategyForward, StopReason: model.StopReasonNormal}
	if err := validateSamples(cfg); err != nil {
		return out, err
	}
	if cfg.Strict && (m.HasObservations() || m.HasConditions()) {
		return out, fmt.Errorf("%w: forward sampling in strict mode requires an unconditioned model (model %s)", ErrUnsupportedModel, m.Name())
	}

	workers := cfg.Workers
	if workers <= 1 {
		r := rand.New(rand.NewSource(cfg.Seed))
		out.Traces = make([]model.Trace, 0, cfg.Samples)
		for i := 0; i < cfg.Samples; i++ {
			if cancelled(ctx) {
				out.StopReason = model.StopReasonCancelled
				break
			}
			out.Traces = append(out.Traces, m.ExecutePrior(r))
		}
		out.Proposed = len(out.Traces)
		out.Accepted = len(out.Traces)
		return out, nil
	}

	if workers > cfg.Samples {
		workers = cfg.Samples
	}
	chunks := make([][]model.Trace, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		count := cfg.Samples / workers
		if w < cfg.Samples%workers {
			count++
		}
		wg.Add(1)
		go func(w, count int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(cfg.Seed + int64(w+1)*forwardStreamStride))
			traces := make([]model.Trace, 0, count)
			for i := 0; i < count; i++ {
				if cancelled(ctx) {
					break
				}
				traces = append(traces, m.ExecutePrior(r))
			}
			chunks[w] = traces
		}(w, count)
	}
	wg.Wait()

	out.Traces = make([]model.Trace, 0, cfg.Samples)
	for _, chunk := range chunks {
		out.Traces = append(out.Traces, chunk...)
	}
	if len(out.Traces) < cfg.Samples {
		out.StopReason = model.StopReasonCancelled
	}
	out.Proposed = len(out.Traces)
	out.Accepted = len(out.Traces)
	return out, nil
}
