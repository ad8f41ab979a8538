// Package catalog holds the built-in demonstration models shipped with
// the engine. Each constructor returns a freshly built model so callers
// can register them into independent engines.
package catalog

import (
	"fmt"

	"stochos/internal/dist"
	"stochos/internal/graph"
)

// CoinBias is a Beta-Binomial model: a Beta(10,10) prior over a coin's
// bias, conditioned on observing 2 heads in 5 flips.
func CoinBias() (*graph.Model, error) {
	bias, err := dist.NewBeta(10, 10)
	if err != nil {
		return nil, err
	}

	b := graph.NewBuilder("coin-bias")
	b.Describe("Beta(10,10) prior over a coin's bias, observing 2 heads in 5 flips.")
	b.Latent("p", bias)
	b.Observe("flips", []string{"p"}, func(s graph.Scope) (dist.Distribution, error) {
		return dist.NewBinomial(5, s.Value("p"))
	}, 2)
	b.Result("bias", []string{"p"}, func(s graph.Scope) float64 {
		return s.Value("p")
	})
	return b.Build()
}

// ThreeCoins counts heads across three fair coin flips. It has no
// conditioning, so every strategy reproduces the Binomial(3, 0.5) pmf.
func ThreeCoins() (*graph.Model, error) {
	b := graph.NewBuilder("three-coins")
	b.Describe("Number of heads in three fair coin flips.")
	for i := 1; i <= 3; i++ {
		coin, err := dist.NewBernoulli(0.5)
		if err != nil {
			return nil, err
		}
		b.Latent(fmt.Sprintf("coin%d", i), coin)
	}
	b.Result("heads", []string{"coin1", "coin2", "coin3"}, func(s graph.Scope) float64 {
		return s.Value("coin1") + s.Value("coin2") + s.Value("coin3")
	})
	return b.Build()
}

// AtLeastOneHeads flips two fair coins and keeps only worlds where at
// least one lands heads. The classic rejection-sampling warm-up.
func AtLeastOneHeads() (*graph.Model, error) {
	b := graph.NewBuilder("at-least-one-heads")
	b.Describe("Two fair coins conditioned on at least one heads.")
	for _, name := range []string{"first", "second"} {
		coin, err := dist.NewBernoulli(0.5)
		if err != nil {
			return nil, err
		}
		b.Latent(name, coin)
	}
	b.Condition("some-heads", []string{"first", "second"}, func(s graph.Scope) bool {
		return s.Value("first")+s.Value("second") >= 1
	})
	b.Result("both-heads", []string{"first", "second"}, func(s graph.Scope) float64 {
		if s.Value("first") == 1 && s.Value("second") == 1 {
			return 1
		}
		return 0
	})
	return b.Build()
}

// All builds every catalog model.
func All() ([]*graph.Model, error) {
	builders := []func() (*graph.Model, error){CoinBias, ThreeCoins, AtLeastOneHeads}
	models := make([]*graph.Model, 0, len(builders))
	for _, build := range builders {
		m, err := build()
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}
