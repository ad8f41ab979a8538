package dist

import (
	"fmt"
	"math"
	"math/rand"
)

// Normal is the Gaussian distribution over the whole real line.
type Normal struct {
	mean   float64
	stddev float64
}

func NewNormal(mean, stddev float64) (Normal, error) {
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return Normal{}, fmt.Errorf("%w: normal mean must be finite (got %v)", ErrInvalidParameter, mean)
	}
	if !(stddev > 0) || math.IsInf(stddev, 0) {
		return Normal{}, fmt.Errorf("%w: normal requires stddev > 0 (got %v)", ErrInvalidParameter, stddev)
	}
	return Normal{mean: mean, stddev: stddev}, nil
}

func makeNormal(params map[string]float64) (Distribution, error) {
	mean, err := requireParam(params, "mean", "normal")
	if err != nil {
		return nil, err
	}
	stddev, err := requireParam(params, "stddev", "normal")
	if err != nil {
		return nil, err
	}
	return NewNormal(mean, stddev)
}

func (n Normal) Family() string { return "normal" }

func (n Normal) Params() map[string]float64 {
	return map[string]float64{"mean": n.mean, "stddev": n.stddev}
}

func (n Normal) Sample(r *rand.Rand) float64 {
	return n.mean + n.stddev*r.NormFloat64()
}

func (n Normal) LogDensity(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: normal got %v", ErrOutOfSupport, v)
	}
	z := (v - n.mean) / n.stddev
	return -0.5*z*z - math.Log(n.stddev) - 0.5*math.Log(2*math.Pi), nil
}
