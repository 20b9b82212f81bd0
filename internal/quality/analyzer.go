package quality

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/pkg/logger"
)

// Analyzer scores master data tables on six quality dimensions.
// It holds configuration only; every call works on its own inputs.
// ⭐ SSOT: 데이터 품질 점수 계산은 여기서만
type Analyzer struct {
	registry *Registry
	now      func() time.Time
	workers  int
	log      *logger.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithClock replaces time.Now as the reference for future-date and recency checks
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// WithWorkers limits how many datasets are analyzed concurrently
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLogger sets the logger for debug output
func WithLogger(log *logger.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAnalyzer creates an analyzer; a nil registry means DefaultRegistry()
func NewAnalyzer(registry *Registry, opts ...Option) *Analyzer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	a := &Analyzer{
		registry: registry,
		now:      time.Now,
		workers:  4,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithComponent("analyzer")
	return a
}

// Registry returns the profile registry in use
func (a *Analyzer) Registry() *Registry {
	return a.registry
}

// AggregateScores returns the weighted 0-10 score of every dataset.
// Empty or missing datasets score 0.
func (a *Analyzer) AggregateScores(datasets map[string]*contracts.Table) map[string]float64 {
	scores, _ := a.Analyze(datasets)
	return scores
}

// AnalyzeHealth returns the six dimension scores and issues of every dataset
func (a *Analyzer) AnalyzeHealth(datasets map[string]*contracts.Table) map[string]contracts.QualityReport {
	_, reports := a.Analyze(datasets)
	return reports
}

// Analyze computes reports and aggregate scores in one pass.
// Datasets run concurrently up to the worker limit; each result is independent.
func (a *Analyzer) Analyze(datasets map[string]*contracts.Table) (map[string]float64, map[string]contracts.QualityReport) {
	now := a.now()

	scores := make(map[string]float64, len(datasets))
	reports := make(map[string]contracts.QualityReport, len(datasets))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(a.workers)
	for name, table := range datasets {
		g.Go(func() error {
			report := a.analyzeAt(name, table, now)
			agg := Aggregate(report)

			mu.Lock()
			reports[name] = report
			scores[name] = agg
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	return scores, reports
}

// AnalyzeDataset scores a single table
func (a *Analyzer) AnalyzeDataset(name string, table *contracts.Table) contracts.QualityReport {
	return a.analyzeAt(name, table, a.now())
}

// emptyReport is the documented result for a missing or empty dataset
func emptyReport() contracts.QualityReport {
	return contracts.QualityReport{
		Issues: []contracts.Issue{{
			Field:       "all",
			Description: "No data available",
			Severity:    contracts.SeverityHigh,
		}},
	}
}

func (a *Analyzer) analyzeAt(name string, table *contracts.Table, now time.Time) contracts.QualityReport {
	start := time.Now()
	log := a.log.WithDataset(name)

	if table.IsEmpty() {
		log.Debug("dataset empty or missing")
		return emptyReport()
	}

	profile, registered := a.registry.Lookup(name)
	d := &dataset{
		name:       name,
		table:      table,
		profile:    profile,
		registered: registered,
		now:        now,
	}

	var report contracts.QualityReport
	var issues []contracts.Issue

	var completenessIssues []contracts.Issue
	report.Completeness, completenessIssues = d.completeness()
	issues = append(issues, completenessIssues...)

	report.Consistency = d.consistency()
	report.Validity = d.validity()

	report.Uniqueness = d.uniqueness()
	if report.Uniqueness < 100 {
		sev := contracts.SeverityMedium
		if report.Uniqueness < DuplicateHighThreshold {
			sev = contracts.SeverityHigh
		}
		issues = append(issues, contracts.Issue{
			Field:       "Key fields",
			Description: "Duplicate records detected",
			Severity:    sev,
		})
	}

	report.Timeliness = d.timeliness()
	if report.Timeliness < TimelinessIssueThreshold {
		issues = append(issues, contracts.Issue{
			Field:       "Last updated",
			Description: "Many records not recently updated",
			Severity:    contracts.SeverityMedium,
		})
	}

	report.Accuracy = d.accuracy(report.Completeness, report.Consistency, report.Validity)

	if issues == nil {
		issues = []contracts.Issue{}
	}
	report.Issues = issues

	log.WithFields(map[string]interface{}{
		"rows":       table.NumRows(),
		"columns":    len(table.Columns),
		"registered": registered,
		"aggregate":  Aggregate(report),
		"issues":     len(issues),
		"elapsed":    time.Since(start).String(),
	}).Debug("dataset analyzed")

	return report
}

// dataset is the per-call working state of one analysis
type dataset struct {
	name       string
	table      *contracts.Table
	profile    Profile
	registered bool
	now        time.Time
}

// column resolves a named column; ok is false when absent
func (d *dataset) column(name string) (int, contracts.Column, bool) {
	idx := d.table.ColumnIndex(name)
	if idx < 0 {
		return -1, contracts.Column{}, false
	}
	return idx, d.table.Columns[idx], true
}

// floats returns the numeric non-null cells of column idx
func (d *dataset) floats(idx int) []float64 {
	var out []float64
	for _, v := range d.table.Values(idx) {
		if f, ok := contracts.AsFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// times returns the datetime non-null cells of column idx
func (d *dataset) times(idx int) []time.Time {
	var out []time.Time
	for _, v := range d.table.Values(idx) {
		if ts, ok := contracts.AsTime(v); ok {
			out = append(out, ts)
		}
	}
	return out
}
