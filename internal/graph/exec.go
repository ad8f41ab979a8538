package graph

import (
	"math"
	"math/rand"

	"stochos/internal/model"
)

// Overrides substitutes externally supplied values for latent variables,
// keyed by latent name. Metropolis-Hastings uses this to evaluate a
// candidate assignment; names that are not latents are ignored.
type Overrides map[string]float64

// Execute runs the plan once against the given random source. The run is
// referentially transparent: identical RNG state and overrides yield the
// identical trace.
//
// Overridden latents contribute their prior log-density; a value outside
// the prior's support yields a rejected trace with -Inf log posterior
// rather than an error. Conditions short-circuit on first failure, with
// the cause recorded. Results are computed only for accepted executions.
func (m *Model) Execute(r *rand.Rand, overrides Overrides) model.Trace {
	return m.execute(r, overrides, true)
}

// ExecutePrior runs the plan and results only, skipping conditions and
// observations. Forward sampling uses it for prior-predictive simulation,
// where conditioning is ignored by design.
func (m *Model) ExecutePrior(r *rand.Rand) model.Trace {
	return m.execute(r, nil, false)
}

func (m *Model) execute(r *rand.Rand, overrides Overrides, constrained bool) model.Trace {
	scope := make(Scope, len(m.plan)+len(m.results))
	logPrior := 0.0
	accepted := true
	cause := ""

	for _, step := range m.plan {
		switch {
		case step.latent != nil:
			name := step.latent.name
			v, overridden := overrides[name]
			if !overridden {
				v = step.latent.prior.Sample(r)
			}
			ld, err := step.latent.prior.LogDensity(v)
			if err != nil {
				ld = math.Inf(-1)
				if accepted {
					accepted = false
					cause = "support:" + name
				}
			}
			logPrior += ld
			scope[name] = v
		case step.derived != nil:
			scope[step.derived.name] = step.derived.fn(scope)
		}
	}

	logLik := 0.0
	if accepted && constrained {
		for _, c := range m.conditions {
			if !c.pred(scope) {
				accepted = false
				cause = "condition:" + c.name
				break
			}
		}
	}
	if accepted && constrained {
		for _, o := range m.observations {
			d, err := o.lik(scope)
			if err != nil {
				accepted = false
				cause = "likelihood:" + o.name
				break
			}
			ld, err := d.LogDensity(o.observed)
			if err != nil {
				accepted = false
				cause = "support:" + o.name
				break
			}
			logLik += ld
		}
	}
	if accepted {
		for _, res := range m.results {
			scope[res.name] = res.fn(scope)
		}
	}

	values := make(map[string]float64, len(scope))
	for k, v := range scope {
		values[k] = v
	}
	return model.Trace{
		Values:        values,
		Accepted:      accepted,
		LogPrior:      logPrior,
		LogLikelihood: logLik,
		RejectCause:   cause,
	}
}
