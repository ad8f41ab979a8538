package dist

import (
	"fmt"
	"math"
	"math/rand"
)

// Uniform is the continuous uniform distribution on [low, high).
type Uniform struct {
	low  float64
	high float64
}

func NewUniform(low, high float64) (Uniform, error) {
	if math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 0) || math.IsInf(high, 0) {
		return Uniform{}, fmt.Errorf("%w: uniform bounds must be finite", ErrInvalidParameter)
	}
	if high <= low {
		return Uniform{}, fmt.Errorf("%w: uniform requires high > low (got low=%v high=%v)", ErrInvalidParameter, low, high)
	}
	return Uniform{low: low, high: high}, nil
}

func makeUniform(params map[string]float64) (Distribution, error) {
	low, err := requireParam(params, "low", "uniform")
	if err != nil {
		return nil, err
	}
	high, err := requireParam(params, "high", "uniform")
	if err != nil {
		return nil, err
	}
	return NewUniform(low, high)
}

func (u Uniform) Family() string { return "uniform" }

func (u Uniform) Params() map[string]float64 {
	return map[string]float64{"low": u.low, "high": u.high}
}

func (u Uniform) Sample(r *rand.Rand) float64 {
	return u.low + r.Float64()*(u.high-u.low)
}

func (u Uniform) LogDensity(v float64) (float64, error) {
	if v < u.low || v >= u.high {
		return 0, fmt.Errorf("%w: uniform[%v,%v) got %v", ErrOutOfSupport, u.low, u.high, v)
	}
	return -math.Log(u.high - u.low), nil
}
