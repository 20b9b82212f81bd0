package demo

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"
)

// rng wraps a seeded PCG stream with the sampling helpers the generators need
type rng struct {
	r   *rand.Rand
	now time.Time
}

// newRNG derives an independent stream per dataset type so subsets stay stable
func newRNG(seed uint64, key string, now time.Time) *rng {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return &rng{r: rand.New(rand.NewPCG(seed, h.Sum64())), now: now}
}

// chance is true with probability p
func (g *rng) chance(p float64) bool {
	return g.r.Float64() < p
}

// pick returns a uniformly chosen element
func (g *rng) pick(xs []string) string {
	return xs[g.r.IntN(len(xs))]
}

// pickWeighted chooses by probability weights (same length as xs)
func (g *rng) pickWeighted(xs []string, p []float64) string {
	u := g.r.Float64()
	acc := 0.0
	for i, w := range p {
		acc += w
		if u < acc {
			return xs[i]
		}
	}
	return xs[len(xs)-1]
}

// pickFloat returns a uniformly chosen number
func (g *rng) pickFloat(xs []float64) float64 {
	return xs[g.r.IntN(len(xs))]
}

// between is a uniform integer in [lo, hi]
func (g *rng) between(lo, hi int) int {
	return lo + g.r.IntN(hi-lo+1)
}

// uniform is a uniform float in [lo, hi) rounded to places decimals
func (g *rng) uniform(lo, hi float64, places int) float64 {
	return round(lo+g.r.Float64()*(hi-lo), places)
}

func (g *rng) daysAgo(lo, hi int) time.Time {
	return g.now.AddDate(0, 0, -g.between(lo, hi))
}

func (g *rng) daysAhead(lo, hi int) time.Time {
	return g.now.AddDate(0, 0, g.between(lo, hi))
}

// round supports negative places (-3 rounds to thousands)
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
