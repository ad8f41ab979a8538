package dist

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
)

var (
	ErrInvalidParameter = errors.New("invalid distribution parameter")
	ErrOutOfSupport     = errors.New("value outside distribution support")
	ErrUnknownFamily    = errors.New("unknown distribution family")
	ErrFamilyExists     = errors.New("distribution family already registered")
)

// Distribution is one immutable parametric distribution. Sampling always
// takes an explicit random source; there is no package-level randomness.
type Distribution interface {
	Family() string
	Params() map[string]float64
	Sample(r *rand.Rand) float64
	LogDensity(v float64) (float64, error)
}

// Constructor builds a distribution from named parameters, validating the
// family's domain constraints.
type Constructor func(params map[string]float64) (Distribution, error)

var familyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Constructor
}{
	m: make(map[string]Constructor),
}

// RegisterFamily makes a family available to Make. The built-in families
// register themselves; additional families can be added without touching
// anything above this package.
func RegisterFamily(name string, ctor Constructor) error {
	if name == "" {
		return errors.New("family name is required")
	}
	if ctor == nil {
		return errors.New("family constructor is required")
	}

	familyRegistry.mu.Lock()
	defer familyRegistry.mu.Unlock()
	if _, exists := familyRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrFamilyExists, name)
	}
	familyRegistry.m[name] = ctor
	return nil
}

func Families() []string {
	familyRegistry.mu.RLock()
	defer familyRegistry.mu.RUnlock()

	names := make([]string, 0, len(familyRegistry.m))
	for name := range familyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Make constructs a distribution by family tag.
func Make(family string, params map[string]float64) (Distribution, error) {
	familyRegistry.mu.RLock()
	ctor, ok := familyRegistry.m[family]
	familyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFamily, family)
	}
	return ctor(params)
}

func mustRegister(name string, ctor Constructor) {
	if err := RegisterFamily(name, ctor); err != nil {
		panic(err)
	}
}

func init() {
	mustRegister("uniform", makeUniform)
	mustRegister("beta", makeBeta)
	mustRegister("bernoulli", makeBernoulli)
	mustRegister("binomial", makeBinomial)
	mustRegister("normal", makeNormal)
}

func requireParam(params map[string]float64, name, family string) (float64, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s requires parameter %q", ErrInvalidParameter, family, name)
	}
	return v, nil
}

func cloneParams(params map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
