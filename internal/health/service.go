// Package health runs load-and-analyze passes and publishes the latest result.
package health

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/internal/metrics"
	"github.com/wonny/mdhealth/internal/quality"
	"github.com/wonny/mdhealth/internal/source"
	"github.com/wonny/mdhealth/pkg/logger"
)

var (
	// ErrNoRun is returned before the first analysis has completed
	ErrNoRun = errors.New("no analysis run available")

	// ErrTypeNotConfigured is returned for a dataset type outside the configured list
	ErrTypeNotConfigured = errors.New("dataset type not configured")
)

// Service owns the latest analysis run.
// Each Run replaces it wholesale; nothing older is kept.
// ⭐ SSOT: 분석 실행과 최신 결과 보관은 여기서만
type Service struct {
	source   contracts.DataSource
	analyzer *quality.Analyzer
	metrics  *metrics.Metrics
	logger   *logger.Logger
	types    []string
	now      func() time.Time

	runMu sync.Mutex // one run at a time

	mu     sync.RWMutex
	latest *contracts.AnalysisRun

	subMu sync.Mutex
	subs  map[chan *contracts.AnalysisRun]struct{}
}

// NewService wires a source and analyzer; m may be nil
func NewService(src contracts.DataSource, analyzer *quality.Analyzer, types []string, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		source:   src,
		analyzer: analyzer,
		metrics:  m,
		logger:   log.WithComponent("health"),
		types:    append([]string(nil), types...),
		now:      time.Now,
		subs:     make(map[chan *contracts.AnalysisRun]struct{}),
	}
}

// SourceName is the name of the configured data source
func (s *Service) SourceName() string { return s.source.Name() }

// Types returns the dataset types each run requests
func (s *Service) Types() []string { return append([]string(nil), s.types...) }

// Run loads all configured types, analyzes them and publishes the result.
// Types the source did not deliver are analyzed as empty datasets.
func (s *Service) Run(ctx context.Context) (*contracts.AnalysisRun, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := s.now()
	id := uuid.NewString()
	log := s.logger.WithField("run_id", id)

	datasets, err := s.source.Load(ctx, s.types)
	if err != nil {
		s.metrics.ObserveFailure(s.now().Sub(start))
		log.WithError(err).Error("Source load failed")
		return nil, fmt.Errorf("load %s: %w", s.source.Name(), err)
	}

	missing := source.Missing(s.types, datasets)
	for _, t := range missing {
		datasets[t] = nil
	}

	scores, reports := s.analyzer.Analyze(datasets)

	run := &contracts.AnalysisRun{
		ID:           id,
		Source:       s.source.Name(),
		StartedAt:    start,
		Duration:     s.now().Sub(start),
		Scores:       scores,
		Reports:      reports,
		Missing:      missing,
		ProfilesHash: s.analyzer.Registry().Fingerprint(),
	}

	s.mu.Lock()
	s.latest = run
	s.mu.Unlock()

	s.metrics.ObserveRun(run)
	s.publish(run)

	log.WithFields(map[string]interface{}{
		"datasets": len(reports),
		"missing":  len(missing),
		"issues":   run.TotalIssues(),
		"duration": run.Duration.String(),
	}).Info("Analysis run completed")

	return run, nil
}

// Latest returns the most recent run
func (s *Service) Latest() (*contracts.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoRun
	}
	return s.latest, nil
}

// Subscribe returns a channel receiving every new run and a cancel func.
// A slow subscriber only ever sees the newest pending run.
func (s *Service) Subscribe() (<-chan *contracts.AnalysisRun, func()) {
	ch := make(chan *contracts.AnalysisRun, 1)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) publish(run *contracts.AnalysisRun) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- run:
		default:
			// 밀린 결과는 버리고 최신 결과로 교체
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- run:
			default:
			}
		}
	}
}

// Subscribers counts active subscriptions
func (s *Service) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// SubmitCorrection forwards a record correction to the source.
// No business-rule validation happens here.
func (s *Service) SubmitCorrection(ctx context.Context, dataType, recordID string, fields map[string]any) error {
	if err := source.SubmitCorrection(ctx, s.source, dataType, recordID, fields); err != nil {
		return err
	}
	s.logger.WithDataset(dataType).WithField("record_id", recordID).Info("Correction submitted")
	return nil
}

// ProfileFields loads one configured dataset type and profiles its columns.
// A type the source does not deliver profiles as an empty table.
func (s *Service) ProfileFields(ctx context.Context, dataType string) (quality.FieldsReport, error) {
	if !slices.Contains(s.types, dataType) {
		return quality.FieldsReport{}, fmt.Errorf("%w: %q", ErrTypeNotConfigured, dataType)
	}

	datasets, err := s.source.Load(ctx, []string{dataType})
	if err != nil {
		return quality.FieldsReport{}, fmt.Errorf("load %s: %w", s.source.Name(), err)
	}

	report := quality.ProfileFields(dataType, datasets[dataType])
	s.logger.WithDataset(dataType).WithFields(map[string]interface{}{
		"rows":   report.Rows,
		"fields": len(report.Fields),
		"low":    len(report.LowCompleteness),
	}).Debug("Fields profiled")
	return report, nil
}
