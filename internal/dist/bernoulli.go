package dist

import (
	"fmt"
	"math"
	"math/rand"
)

// Bernoulli takes value 1 with probability p and 0 otherwise.
type Bernoulli struct {
	p float64
}

func NewBernoulli(p float64) (Bernoulli, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return Bernoulli{}, fmt.Errorf("%w: bernoulli requires p in [0,1] (got %v)", ErrInvalidParameter, p)
	}
	return Bernoulli{p: p}, nil
}

func makeBernoulli(params map[string]float64) (Distribution, error) {
	p, err := requireParam(params, "p", "bernoulli")
	if err != nil {
		return nil, err
	}
	return NewBernoulli(p)
}

func (b Bernoulli) Family() string { return "bernoulli" }

func (b Bernoulli) Params() map[string]float64 {
	return map[string]float64{"p": b.p}
}

func (b Bernoulli) Sample(r *rand.Rand) float64 {
	if r.Float64() < b.p {
		return 1
	}
	return 0
}

func (b Bernoulli) LogDensity(v float64) (float64, error) {
	var prob float64
	switch v {
	case 0:
		prob = 1 - b.p
	case 1:
		prob = b.p
	default:
		return 0, fmt.Errorf("%w: bernoulli got %v", ErrOutOfSupport, v)
	}
	if prob == 0 {
		return 0, fmt.Errorf("%w: bernoulli(p=%v) got %v", ErrOutOfSupport, b.p, v)
	}
	return math.Log(prob), nil
}
