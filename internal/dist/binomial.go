package dist

import (
	"fmt"
	"math"
	"math/rand"
)

// Binomial counts successes over a fixed number of independent trials.
type Binomial struct {
	trials int
	p      float64
}

func NewBinomial(trials int, p float64) (Binomial, error) {
	if trials < 0 {
		return Binomial{}, fmt.Errorf("%w: binomial requires trials >= 0 (got %d)", ErrInvalidParameter, trials)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Binomial{}, fmt.Errorf("%w: binomial requires p in [0,1] (got %v)", ErrInvalidParameter, p)
	}
	return Binomial{trials: trials, p: p}, nil
}

func makeBinomial(params map[string]float64) (Distribution, error) {
	trials, err := requireParam(params, "trials", "binomial")
	if err != nil {
		return nil, err
	}
	if trials != math.Trunc(trials) {
		return nil, fmt.Errorf("%w: binomial trials must be an integer (got %v)", ErrInvalidParameter, trials)
	}
	p, err := requireParam(params, "p", "binomial")
	if err != nil {
		return nil, err
	}
	return NewBinomial(int(trials), p)
}

func (b Binomial) Family() string { return "binomial" }

func (b Binomial) Params() map[string]float64 {
	return map[string]float64{"trials": float64(b.trials), "p": b.p}
}

func (b Binomial) Sample(r *rand.Rand) float64 {
	successes := 0
	for i := 0; i < b.trials; i++ {
		if r.Float64() < b.p {
			successes++
		}
	}
	return float64(successes)
}

func (b Binomial) LogDensity(v float64) (float64, error) {
	if v != math.Trunc(v) || v < 0 || v > float64(b.trials) {
		return 0, fmt.Errorf("%w: binomial(%d,%v) got %v", ErrOutOfSupport, b.trials, b.p, v)
	}
	k := v
	n := float64(b.trials)
	if b.p == 0 {
		if k == 0 {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: binomial(%d,0) got %v", ErrOutOfSupport, b.trials, v)
	}
	if b.p == 1 {
		if k == n {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: binomial(%d,1) got %v", ErrOutOfSupport, b.trials, v)
	}
	return logChoose(n, k) + k*math.Log(b.p) + (n-k)*math.Log(1-b.p), nil
}

func logChoose(n, k float64) float64 {
	ln, _ := math.Lgamma(n + 1)
	lk, _ := math.Lgamma(k + 1)
	lnk, _ := math.Lgamma(n - k + 1)
	return ln - lk - lnk
}
