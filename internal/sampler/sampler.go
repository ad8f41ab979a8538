package sampler

import (
	"context"
	"errors"
	"fmt"

	"stochos/internal/graph"
	"stochos/internal/model"
)

// Strategy tags accepted by FromName.
const (
	StrategyForward    = "forward-sampling"
	StrategyRejection  = "rejection-sampling"
	StrategyMetropolis = "metropolis-hastings"
)

var (
	ErrUnsupportedModel = errors.New("model unsupported by strategy")
	ErrUnknownStrategy  = errors.New("unknown inference strategy")
	ErrNonTermination   = errors.New("inference cannot make progress")
)

// Config carries every knob an inference run takes. Nothing is read from
// process-wide state; the random source is derived from Seed inside the
// strategy so runs reproduce exactly under a fixed seed.
type Config struct {
	// Samples is the target number of collected traces. Required.
	Samples int
	Seed    int64

	// MaxAttempts bounds total proposals in rejection sampling. Required
	// there so an unsatisfiable constraint set terminates.
	MaxAttempts int

	// BurnIn iterations are discarded and Thin keeps every n-th retained
	// state. Metropolis-Hastings only.
	BurnIn int
	Thin   int

	// Steps holds one proposal scale per latent variable, in declaration
	// order. Metropolis-Hastings only; defaults to 0.1 per variable.
	Steps []float64

	// Strict makes forward sampling refuse models with constraint or
	// observation terms instead of ignoring them.
	Strict bool

	// Workers fans independent executions out over a worker pool. Forward
	// sampling only; other strategies are sequential by nature.
	Workers int
}

// Strategy is the single contract all inference algorithms implement. Run
// returns the collected traces; cancellation yields the partial collection
// gathered so far with StopReason set, not an error.
type Strategy interface {
	Name() string
	Run(ctx context.Context, m *graph.Model, cfg Config) (model.TraceCollection, error)
}

// FromName resolves a strategy tag. The strategy set is closed.
func FromName(tag string) (Strategy, error) {
	switch tag {
	case StrategyForward:
		return Forward{}, nil
	case StrategyRejection:
		return Rejection{}, nil
	case StrategyMetropolis:
		return Metropolis{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, tag)
	}
}

func Names() []string {
	return []string{StrategyForward, StrategyRejection, StrategyMetropolis}
}

func validateSamples(cfg Config) error {
	if cfg.Samples <= 0 {
		return fmt.Errorf("samples must be > 0 (got %d)", cfg.Samples)
	}
	return nil
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
