package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/internal/metrics"
	"github.com/wonny/mdhealth/internal/quality"
	"github.com/wonny/mdhealth/internal/source"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type stubSource struct {
	tables map[string]*contracts.Table
	err    error
	fixes  []string
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(ctx context.Context, types []string) (map[string]*contracts.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]*contracts.Table)
	for _, t := range types {
		if tbl, ok := s.tables[t]; ok {
			out[t] = tbl
		}
	}
	return out, nil
}

func (s *stubSource) SubmitCorrection(ctx context.Context, dataType, recordID string, fields map[string]any) error {
	s.fixes = append(s.fixes, dataType+"/"+recordID)
	return nil
}

func customers() *contracts.Table {
	return &contracts.Table{
		Columns: []contracts.Column{
			{Name: "CustomerID", Type: contracts.ColumnText},
			{Name: "LastUpdated", Type: contracts.ColumnDatetime},
		},
		Rows: [][]any{
			{"C1", fixedNow.AddDate(0, 0, -1)},
			{"C2", fixedNow.AddDate(0, 0, -2)},
		},
	}
}

func newService(src contracts.DataSource, m *metrics.Metrics) *Service {
	a := quality.NewAnalyzer(nil, quality.WithClock(func() time.Time { return fixedNow }))
	return NewService(src, a, []string{"Customers", "Products"}, m, nil)
}

func TestLatest_BeforeFirstRun(t *testing.T) {
	svc := newService(&stubSource{}, nil)
	_, err := svc.Latest()
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestRun_PublishesLatest(t *testing.T) {
	m := metrics.New()
	svc := newService(&stubSource{tables: map[string]*contracts.Table{"Customers": customers()}}, m)

	run, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "stub", run.Source)
	assert.Equal(t, []string{"Products"}, run.Missing)
	assert.NotEmpty(t, run.ProfilesHash)
	assert.Equal(t, []string{"Customers", "Products"}, run.DatasetNames())

	assert.Zero(t, run.Scores["Products"])
	assert.Equal(t, "No data available", run.Reports["Products"].Issues[0].Description)
	assert.Greater(t, run.Scores["Customers"], 9.0)

	latest, err := svc.Latest()
	require.NoError(t, err)
	assert.Same(t, run, latest)

	n, err := testutil.GatherAndCount(m.Registry(), "mdhealth_aggregate_score")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRun_ReplacesWholesale(t *testing.T) {
	svc := newService(&stubSource{tables: map[string]*contracts.Table{"Customers": customers()}}, nil)

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	latest, _ := svc.Latest()
	assert.Same(t, second, latest)
	assert.Equal(t, first.Scores, second.Scores)
}

func TestRun_SourceFailureKeepsPrevious(t *testing.T) {
	src := &stubSource{tables: map[string]*contracts.Table{"Customers": customers()}}
	svc := newService(src, metrics.New())

	first, err := svc.Run(context.Background())
	require.NoError(t, err)

	src.err = errors.New("connection refused")
	_, err = svc.Run(context.Background())
	require.Error(t, err)

	latest, _ := svc.Latest()
	assert.Same(t, first, latest)
}

func TestSubscribe(t *testing.T) {
	svc := newService(&stubSource{tables: map[string]*contracts.Table{"Customers": customers()}}, nil)

	ch, cancel := svc.Subscribe()
	assert.Equal(t, 1, svc.Subscribers())

	// 두 번 실행해도 구독자는 최신 결과만 받음
	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, second.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("no run delivered")
	}

	cancel()
	cancel()
	assert.Zero(t, svc.Subscribers())
	_, open := <-ch
	assert.False(t, open)
}

func TestSubmitCorrection(t *testing.T) {
	src := &stubSource{}
	svc := newService(src, nil)
	require.NoError(t, svc.SubmitCorrection(context.Background(), "Products", "P1", map[string]any{"UnitOfMeasure": "EA"}))
	assert.Equal(t, []string{"Products/P1"}, src.fixes)

	demoSvc := newService(source.NewDemo(1, nil), nil)
	err := demoSvc.SubmitCorrection(context.Background(), "Products", "P1", nil)
	assert.ErrorIs(t, err, source.ErrCorrectionsUnsupported)
}

func TestProfileFields(t *testing.T) {
	src := &stubSource{tables: map[string]*contracts.Table{"Customers": customers()}}
	svc := newService(src, nil)
	ctx := context.Background()

	report, err := svc.ProfileFields(ctx, "Customers")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rows)
	require.Len(t, report.Fields, 2)
	assert.Empty(t, report.LowCompleteness)

	// configured but not delivered
	empty, err := svc.ProfileFields(ctx, "Products")
	require.NoError(t, err)
	assert.Empty(t, empty.Fields)

	_, err = svc.ProfileFields(ctx, "Widgets")
	assert.ErrorIs(t, err, ErrTypeNotConfigured)

	src.err = errors.New("boom")
	_, err = svc.ProfileFields(ctx, "Customers")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTypeNotConfigured)
}
