package dist

import (
	"fmt"
	"math"
	"math/rand"
)

// Beta is the beta distribution on the open interval (0, 1).
type Beta struct {
	alpha float64
	beta  float64
}

func NewBeta(alpha, beta float64) (Beta, error) {
	if !(alpha > 0) || !(beta > 0) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return Beta{}, fmt.Errorf("%w: beta requires alpha > 0 and beta > 0 (got alpha=%v beta=%v)", ErrInvalidParameter, alpha, beta)
	}
	return Beta{alpha: alpha, beta: beta}, nil
}

func makeBeta(params map[string]float64) (Distribution, error) {
	alpha, err := requireParam(params, "alpha", "beta")
	if err != nil {
		return nil, err
	}
	beta, err := requireParam(params, "beta", "beta")
	if err != nil {
		return nil, err
	}
	return NewBeta(alpha, beta)
}

func (b Beta) Family() string { return "beta" }

func (b Beta) Params() map[string]float64 {
	return map[string]float64{"alpha": b.alpha, "beta": b.beta}
}

func (b Beta) Sample(r *rand.Rand) float64 {
	x := sampleGamma(r, b.alpha)
	y := sampleGamma(r, b.beta)
	v := x / (x + y)
	// Keep samples strictly inside the open support.
	if v <= 0 {
		v = math.SmallestNonzeroFloat64
	}
	if v >= 1 {
		v = 1 - 1e-16
	}
	return v
}

func (b Beta) LogDensity(v float64) (float64, error) {
	if v <= 0 || v >= 1 {
		return 0, fmt.Errorf("%w: beta(%v,%v) got %v", ErrOutOfSupport, b.alpha, b.beta, v)
	}
	return (b.alpha-1)*math.Log(v) + (b.beta-1)*math.Log(1-v) - logBetaFn(b.alpha, b.beta), nil
}

func logBetaFn(a, b float64) float64 {
	la, _ := math.Lgamma(a)
	lb, _ := math.Lgamma(b)
	lab, _ := math.Lgamma(a + b)
	return la + lb - lab
}

// sampleGamma draws from Gamma(shape, 1) with the Marsaglia-Tsang squeeze
// method, boosting shapes below one.
func sampleGamma(r *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := r.Float64()
		for u == 0 {
			u = r.Float64()
		}
		return sampleGamma(r, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := r.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := r.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
