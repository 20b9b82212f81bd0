package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mdhealth/internal/api/handlers"
	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/internal/health"
	"github.com/wonny/mdhealth/internal/metrics"
	"github.com/wonny/mdhealth/internal/quality"
	"github.com/wonny/mdhealth/internal/source"
	"github.com/wonny/mdhealth/pkg/config"
	"github.com/wonny/mdhealth/pkg/logger"
	"github.com/wonny/mdhealth/pkg/redis"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fixture struct {
	service *health.Service
	server  *httptest.Server
}

func newFixture(t *testing.T, src contracts.DataSource) *fixture {
	t.Helper()
	log := logger.NewNop()
	clock := func() time.Time { return fixedNow }

	m := metrics.New()
	analyzer := quality.NewAnalyzer(nil, quality.WithClock(clock))
	svc := health.NewService(src, analyzer, config.DefaultDatasetTypes, m, log)
	cache := redis.NewCache(nil, "test") // disabled: GetOrSet always computes

	router := NewRouter(Handlers{
		Quality: handlers.NewQualityHandler(svc, cache, 42, log).WithClock(clock),
		Data:    handlers.NewDataHandler(svc, log),
		Stream:  handlers.NewStreamHandler(svc, log),
		Metrics: m.Handler(),
		Source:  src.Name(),
	}, log)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &fixture{service: svc, server: srv}
}

func demoFixture(t *testing.T) *fixture {
	return newFixture(t, source.NewDemo(42, func() time.Time { return fixedNow }))
}

func (f *fixture) analyze(t *testing.T) *contracts.AnalysisRun {
	t.Helper()
	run, err := f.service.Run(context.Background())
	require.NoError(t, err)
	return run
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthCheck(t *testing.T) {
	f := demoFixture(t)

	resp := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "demo", body["source"])
}

func TestQualityEndpoints_BeforeFirstRun(t *testing.T) {
	f := demoFixture(t)

	for _, path := range []string{
		"/api/quality/scores",
		"/api/quality/health",
		"/api/quality/summary",
		"/api/quality/recommendations",
		"/api/quality/trends",
		"/api/quality/export/issues.csv",
	} {
		t.Run(path, func(t *testing.T) {
			resp := f.get(t, path)
			assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

			var body map[string]string
			decode(t, resp, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAnalyzeThenScores(t *testing.T) {
	f := demoFixture(t)

	resp, err := http.Post(f.server.URL+"/api/quality/analyze", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var analyzed handlers.AnalyzeResponse
	decode(t, resp, &analyzed)
	assert.Equal(t, "completed", analyzed.Status)
	assert.Len(t, analyzed.Scores, len(config.DefaultDatasetTypes))
	assert.Positive(t, analyzed.Issues)

	var scores handlers.ScoresResponse
	decode(t, f.get(t, "/api/quality/scores"), &scores)
	assert.Equal(t, analyzed.RunID, scores.RunID)
	assert.Equal(t, analyzed.Scores, scores.Scores)
	for name, v := range scores.Scores {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 10.0, name)
	}
}

func TestDatasetHealth(t *testing.T) {
	f := demoFixture(t)
	run := f.analyze(t)

	var body struct {
		DataType string                  `json:"data_type"`
		Score    float64                 `json:"score"`
		Report   contracts.QualityReport `json:"report"`
	}
	resp := f.get(t, "/api/quality/health/Products")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &body)
	assert.Equal(t, "Products", body.DataType)
	assert.InDelta(t, run.Scores["Products"], body.Score, 1e-9)
	assert.Equal(t, run.Reports["Products"].Issues, body.Report.Issues)

	// 공백이 포함된 타입 이름
	resp = f.get(t, "/api/quality/health/Time%20Profiles")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.get(t, "/api/quality/health/Widgets")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFields(t *testing.T) {
	f := demoFixture(t)

	resp := f.get(t, "/api/quality/fields/Products")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report quality.FieldsReport
	decode(t, resp, &report)

	assert.Equal(t, "Products", report.Dataset)
	assert.Equal(t, 200, report.Rows)
	require.Len(t, report.Fields, 12)
	assert.Contains(t, report.LowCompleteness, "ShelfLife")

	id, ok := report.Field("ProductID")
	require.True(t, ok)
	assert.InDelta(t, 100.0, id.UniquePct, 1e-9)

	weight, _ := report.Field("GrossWeight")
	require.NotNil(t, weight.Numeric)
	assert.LessOrEqual(t, weight.Numeric.Min, weight.Numeric.Median)

	uom, _ := report.Field("UnitOfMeasure")
	require.NotNil(t, uom.Text)
	assert.Equal(t, "EA", uom.Text.Top[0].Value)

	resp = f.get(t, "/api/quality/fields/Widgets")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecommendations_Filter(t *testing.T) {
	f := demoFixture(t)
	f.analyze(t)

	var all struct {
		Count           int                        `json:"count"`
		Recommendations []contracts.Recommendation `json:"recommendations"`
	}
	decode(t, f.get(t, "/api/quality/recommendations"), &all)
	require.NotEmpty(t, all.Recommendations)
	assert.Equal(t, len(all.Recommendations), all.Count)

	var high struct {
		Recommendations []contracts.Recommendation `json:"recommendations"`
	}
	decode(t, f.get(t, "/api/quality/recommendations?priority=High"), &high)
	for _, r := range high.Recommendations {
		assert.Equal(t, contracts.SeverityHigh, r.Priority)
	}
	assert.LessOrEqual(t, len(high.Recommendations), len(all.Recommendations))

	var mixed struct {
		Recommendations []contracts.Recommendation `json:"recommendations"`
	}
	decode(t, f.get(t, "/api/quality/recommendations?priority=hIgh"), &mixed)
	assert.Equal(t, high.Recommendations, mixed.Recommendations)

	resp := f.get(t, "/api/quality/recommendations?priority=urgent")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummary(t *testing.T) {
	f := demoFixture(t)
	f.analyze(t)

	var body struct {
		Summary contracts.Summary `json:"summary"`
	}
	decode(t, f.get(t, "/api/quality/summary"), &body)
	assert.Equal(t, len(config.DefaultDatasetTypes), body.Summary.Datasets)
	assert.InDelta(t, 8.5, body.Summary.Target, 1e-9)
	assert.NotEmpty(t, body.Summary.Status)
	assert.NotEmpty(t, body.Summary.Weakest)
}

func TestTrends(t *testing.T) {
	f := demoFixture(t)
	run := f.analyze(t)

	var first, second handlers.TrendsResponse
	decode(t, f.get(t, "/api/quality/trends?seed=7"), &first)
	decode(t, f.get(t, "/api/quality/trends?seed=7"), &second)

	assert.Equal(t, uint64(7), first.Seed)
	assert.Equal(t, first.Trends.Scores, second.Trends.Scores, "same run and seed")
	require.NotEmpty(t, first.Trends.Dates)
	for name, series := range first.Trends.Scores {
		require.Len(t, series, len(first.Trends.Dates))
		assert.InDelta(t, run.Scores[name], series[len(series)-1], 1.5, name) // ramp ends at the current score plus noise
	}

	var recent handlers.TrendsResponse
	decode(t, f.get(t, "/api/quality/trends?since=2026-10-01"), &recent)
	assert.Less(t, len(recent.Trends.Dates), len(first.Trends.Dates))

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/quality/trends?seed=-1").StatusCode)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/quality/trends?since=yesterday").StatusCode)
}

func TestExports(t *testing.T) {
	f := demoFixture(t)
	run := f.analyze(t)

	resp := f.get(t, "/api/quality/export/issues.csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "issues_")

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"data_type", "field", "description", "severity"}, records[0])
	assert.Len(t, records, run.TotalIssues()+1)

	resp = f.get(t, "/api/quality/export/recommendations.csv?priority=High")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	records, err = csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	for _, rec := range records[1:] {
		assert.Equal(t, "High", rec[3])
	}
}

func TestUpdateRecord(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"demo source rejects", `{"ProductName":"Widget"}`, http.StatusNotImplemented},
		{"not an object", `["x"]`, http.StatusBadRequest},
		{"empty object", `{}`, http.StatusBadRequest},
		{"garbage", `{`, http.StatusBadRequest},
	}

	f := demoFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPatch, f.server.URL+"/api/data/Products/P001", strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := demoFixture(t)
	f.analyze(t)

	resp := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `mdhealth_aggregate_score{dataset="Products"}`)
}

func TestRouting_Errors(t *testing.T) {
	f := demoFixture(t)

	resp := f.get(t, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/quality/analyze"},
		{http.MethodPost, "/api/quality/scores"},
		{http.MethodGet, "/api/data/Products/P001"},
		{http.MethodPost, "/health"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, f.server.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestRunStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping websocket test in short mode")
	}

	f := demoFixture(t)
	first := f.analyze(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/runs"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var event handlers.RunEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "run", event.Type)
	assert.Equal(t, first.ID, event.RunID)

	require.Eventually(t, func() bool { return f.service.Subscribers() == 1 }, time.Second, 10*time.Millisecond)
	second := f.analyze(t)

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, second.ID, event.RunID)
	assert.Equal(t, second.Scores, event.Scores)
}
