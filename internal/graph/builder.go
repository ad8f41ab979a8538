package graph

import (
	"errors"
	"fmt"

	"stochos/internal/dist"
)

var (
	ErrDuplicateName = errors.New("duplicate name in model")
	ErrDependency    = errors.New("term references undeclared name")
)

// Scope exposes already-computed values to term functions during one
// model execution.
type Scope map[string]float64

func (s Scope) Value(name string) float64 { return s[name] }

// DerivedFn is a pure function of previously computed values.
type DerivedFn func(s Scope) float64

// PredicateFn is a hard constraint; returning false rejects the execution.
type PredicateFn func(s Scope) bool

// LikelihoodFn builds the observation distribution from computed values.
type LikelihoodFn func(s Scope) (dist.Distribution, error)

type latentDecl struct {
	name  string
	prior dist.Distribution
}

type derivedDecl struct {
	name string
	deps []string
	fn   DerivedFn
}

type conditionDecl struct {
	name string
	deps []string
	pred PredicateFn
}

type observeDecl struct {
	name     string
	deps     []string
	lik      LikelihoodFn
	observed float64
}

type resultDecl struct {
	name string
	deps []string
	fn   DerivedFn
}

// planStep is one entry of the linear execution plan; exactly one of the
// two fields is set.
type planStep struct {
	latent  *latentDecl
	derived *derivedDecl
}

// Builder accumulates a model declaration in order. Term bodies are opaque
// funcs, so every term names the values it reads; Build validates those
// read-sets once so per-sample execution never re-validates.
type Builder struct {
	name        string
	description string

	plan         []planStep
	latents      []latentDecl
	conditions   []conditionDecl
	observations []observeDecl
	results      []resultDecl
}

func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

func (b *Builder) Describe(description string) {
	b.description = description
}

// Latent declares a random variable with the given prior.
func (b *Builder) Latent(name string, prior dist.Distribution) {
	decl := &latentDecl{name: name, prior: prior}
	b.latents = append(b.latents, *decl)
	b.plan = append(b.plan, planStep{latent: decl})
}

// Derived declares a deterministic term over previously declared names.
func (b *Builder) Derived(name string, deps []string, fn DerivedFn) {
	decl := derivedDecl{name: name, deps: append([]string(nil), deps...), fn: fn}
	b.plan = append(b.plan, planStep{derived: &decl})
}

// Condition adds a hard constraint evaluated after the plan runs.
func (b *Builder) Condition(name string, deps []string, pred PredicateFn) {
	b.conditions = append(b.conditions, conditionDecl{
		name: name,
		deps: append([]string(nil), deps...),
		pred: pred,
	})
}

// Observe adds a likelihood term binding a distribution to observed data.
func (b *Builder) Observe(name string, deps []string, lik LikelihoodFn, observed float64) {
	b.observations = append(b.observations, observeDecl{
		name:     name,
		deps:     append([]string(nil), deps...),
		lik:      lik,
		observed: observed,
	})
}

// Result adds a named output expression computed for accepted executions.
func (b *Builder) Result(name string, deps []string, fn DerivedFn) {
	b.results = append(b.results, resultDecl{
		name: name,
		deps: append([]string(nil), deps...),
		fn:   fn,
	})
}

// Build validates the declaration and returns an immutable execution plan.
// Declaration order is the execution order; forward references fail here,
// never at sample time.
func (b *Builder) Build() (*Model, error) {
	if b.name == "" {
		return nil, errors.New("model name is required")
	}

	declared := make(map[string]struct{}, len(b.plan))
	taken := make(map[string]struct{}, len(b.plan)+len(b.results))

	claim := func(name, kind string) error {
		if name == "" {
			return fmt.Errorf("%s name is required", kind)
		}
		if _, exists := taken[name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		taken[name] = struct{}{}
		return nil
	}
	checkDeps := func(owner string, deps []string) error {
		for _, dep := range deps {
			if _, ok := declared[dep]; !ok {
				return fmt.Errorf("%w: %s reads %q", ErrDependency, owner, dep)
			}
		}
		return nil
	}

	for _, step := range b.plan {
		switch {
		case step.latent != nil:
			if err := claim(step.latent.name, "latent"); err != nil {
				return nil, err
			}
			if step.latent.prior == nil {
				return nil, fmt.Errorf("latent %s has no prior", step.latent.name)
			}
			declared[step.latent.name] = struct{}{}
		case step.derived != nil:
			if err := claim(step.derived.name, "derived"); err != nil {
				return nil, err
			}
			if step.derived.fn == nil {
				return nil, fmt.Errorf("derived %s has no function", step.derived.name)
			}
			if err := checkDeps(step.derived.name, step.derived.deps); err != nil {
				return nil, err
			}
			declared[step.derived.name] = struct{}{}
		}
	}

	for _, c := range b.conditions {
		if err := claim(c.name, "condition"); err != nil {
			return nil, err
		}
		if c.pred == nil {
			return nil, fmt.Errorf("condition %s has no predicate", c.name)
		}
		if err := checkDeps(c.name, c.deps); err != nil {
			return nil, err
		}
	}
	for _, o := range b.observations {
		if err := claim(o.name, "observation"); err != nil {
			return nil, err
		}
		if o.lik == nil {
			return nil, fmt.Errorf("observation %s has no likelihood", o.name)
		}
		if err := checkDeps(o.name, o.deps); err != nil {
			return nil, err
		}
	}
	for _, r := range b.results {
		if err := claim(r.name, "result"); err != nil {
			return nil, err
		}
		if r.fn == nil {
			return nil, fmt.Errorf("result %s has no function", r.name)
		}
		if err := checkDeps(r.name, r.deps); err != nil {
			return nil, err
		}
	}

	m := &Model{
		name:         b.name,
		description:  b.description,
		plan:         append([]planStep(nil), b.plan...),
		latents:      append([]latentDecl(nil), b.latents...),
		conditions:   append([]conditionDecl(nil), b.conditions...),
		observations: append([]observeDecl(nil), b.observations...),
		results:      append([]resultDecl(nil), b.results...),
	}
	return m, nil
}

// Model is an immutable, validated execution plan. It owns no mutable
// state; every sample re-executes it from scratch.
type Model struct {
	name         string
	description  string
	plan         []planStep
	latents      []latentDecl
	conditions   []conditionDecl
	observations []observeDecl
	results      []resultDecl
}

func (m *Model) Name() string        { return m.name }
func (m *Model) Description() string { return m.description }

// LatentNames lists the random variables in declaration order. The order
// matters: per-variable step sizes are matched against it.
func (m *Model) LatentNames() []string {
	names := make([]string, len(m.latents))
	for i, l := range m.latents {
		names[i] = l.name
	}
	return names
}

func (m *Model) ResultNames() []string {
	names := make([]string, len(m.results))
	for i, r := range m.results {
		names[i] = r.name
	}
	return names
}

func (m *Model) HasConditions() bool   { return len(m.conditions) > 0 }
func (m *Model) HasObservations() bool { return len(m.observations) > 0 }
