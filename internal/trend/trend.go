package trend

import (
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/wonny/mdhealth/internal/contracts"
)

// Defaults for synthesized history
const (
	DefaultDays       = 90
	DefaultStep       = 7 * 24 * time.Hour
	ScoreRamp         = 2.0  // 종합 점수 시작값 = 현재 - 2
	ScoreNoise        = 0.3  // N(0, 0.3)
	DimensionRamp     = 15.0 // 차원 점수 시작값 = 현재 - 15
	DimensionNoise    = 3.0  // N(0, 3)
	MaxScore          = 10.0
	MaxDimensionScore = 100.0
)

// Options controls synthesis; zero values take the defaults above
type Options struct {
	Seed uint64
	Now  time.Time
	Days int
	Step time.Duration
}

// Trends is simulated history derived from one analysis run.
// Nothing here is persisted; the same run, seed and now give the same output.
type Trends struct {
	Dates      []time.Time                                  `json:"dates"`
	Scores     map[string][]float64                         `json:"scores"`
	Dimensions map[contracts.Dimension]map[string][]float64 `json:"dimensions"`
}

// Synthesize ramps each series linearly up to the run's current value and adds seeded noise
func Synthesize(run *contracts.AnalysisRun, opts Options) *Trends {
	opts = opts.withDefaults()
	dates := Dates(opts.Now, opts.Days, opts.Step)

	t := &Trends{
		Dates:      dates,
		Scores:     make(map[string][]float64),
		Dimensions: make(map[contracts.Dimension]map[string][]float64),
	}
	if run == nil {
		return t
	}

	for name, score := range run.Scores {
		t.Scores[name] = series(opts.Seed, name, score, ScoreRamp, ScoreNoise, MaxScore, len(dates))
	}
	for _, dim := range contracts.Dimensions {
		perType := make(map[string][]float64, len(run.Reports))
		for name, rep := range run.Reports {
			key := name + "-" + string(dim)
			perType[name] = series(opts.Seed, key, rep.Score(dim), DimensionRamp, DimensionNoise, MaxDimensionScore, len(dates))
		}
		t.Dimensions[dim] = perType
	}
	return t
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Days <= 0 {
		o.Days = DefaultDays
	}
	if o.Step <= 0 {
		o.Step = DefaultStep
	}
	return o
}

// Dates lists sample points from now-days to now.
// Weekly steps are anchored on Sundays; other steps start at the first day.
func Dates(now time.Time, days int, step time.Duration) []time.Time {
	end := truncateDay(now)
	start := end.AddDate(0, 0, -days)

	first := start
	if step%(7*24*time.Hour) == 0 {
		for first.Weekday() != time.Sunday {
			first = first.AddDate(0, 0, 1)
		}
	}

	var out []time.Time
	for d := first; !d.After(end); d = d.Add(step) {
		out = append(out, d)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// series builds one ramp+noise series; the noise stream is keyed by (seed, key)
func series(seed uint64, key string, current, ramp, sigma, ceiling float64, n int) []float64 {
	if n == 0 {
		return []float64{}
	}
	r := rand.New(rand.NewPCG(seed, subSeed(key)))
	start := max(current-ramp, 0)

	out := make([]float64, n)
	for i := range out {
		v := current
		if n > 1 {
			v = start + (current-start)*float64(i)/float64(n-1)
		}
		v += r.NormFloat64() * sigma
		out[i] = min(max(v, 0), ceiling)
	}
	return out
}

func subSeed(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

// Since keeps only points on or after from
func (t *Trends) Since(from time.Time) *Trends {
	idx := len(t.Dates)
	for i, d := range t.Dates {
		if !d.Before(from) {
			idx = i
			break
		}
	}

	out := &Trends{
		Dates:      t.Dates[idx:],
		Scores:     make(map[string][]float64, len(t.Scores)),
		Dimensions: make(map[contracts.Dimension]map[string][]float64, len(t.Dimensions)),
	}
	for name, vals := range t.Scores {
		out.Scores[name] = vals[idx:]
	}
	for dim, perType := range t.Dimensions {
		m := make(map[string][]float64, len(perType))
		for name, vals := range perType {
			m[name] = vals[idx:]
		}
		out.Dimensions[dim] = m
	}
	return out
}

// Average is the point-wise mean of the given score series (all when names is empty)
func (t *Trends) Average(names ...string) []float64 {
	if len(names) == 0 {
		names = contracts.SortedNames(t.Scores)
	}
	out := make([]float64, len(t.Dates))
	n := 0
	for _, name := range names {
		vals, ok := t.Scores[name]
		if !ok {
			continue
		}
		n++
		for i := range out {
			out[i] += vals[i]
		}
	}
	if n == 0 {
		return out
	}
	for i := range out {
		out[i] /= float64(n)
	}
	return out
}

// Change is last minus first of a score series
type Change struct {
	DataType string  `json:"data_type"`
	First    float64 `json:"first"`
	Last     float64 `json:"last"`
	Delta    float64 `json:"delta"`
}

// Changes reports the first-to-last delta per dataset in lexical order
func (t *Trends) Changes() []Change {
	var out []Change
	for _, name := range contracts.SortedNames(t.Scores) {
		vals := t.Scores[name]
		if len(vals) == 0 {
			continue
		}
		first, last := vals[0], vals[len(vals)-1]
		out = append(out, Change{DataType: name, First: first, Last: last, Delta: last - first})
	}
	return out
}
