package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/mdhealth/internal/contracts"
	"github.com/wonny/mdhealth/internal/health"
	"github.com/wonny/mdhealth/internal/quality"
	"github.com/wonny/mdhealth/internal/recommend"
	"github.com/wonny/mdhealth/internal/report"
	"github.com/wonny/mdhealth/internal/trend"
	"github.com/wonny/mdhealth/pkg/logger"
	"github.com/wonny/mdhealth/pkg/redis"
)

// RunService is the part of health.Service the HTTP layer needs
type RunService interface {
	Run(ctx context.Context) (*contracts.AnalysisRun, error)
	Latest() (*contracts.AnalysisRun, error)
	SourceName() string
	ProfileFields(ctx context.Context, dataType string) (quality.FieldsReport, error)
}

// QualityHandler serves scores, reports, recommendations and trends of the latest run
// ⭐ SSOT: 품질 API 핸들러는 이 구조체에서만
type QualityHandler struct {
	service   RunService
	cache     *redis.Cache
	trendSeed uint64
	now       func() time.Time
	logger    *logger.Logger
}

// NewQualityHandler creates a new quality handler; cache may wrap a disabled client
func NewQualityHandler(service RunService, cache *redis.Cache, trendSeed uint64, log *logger.Logger) *QualityHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &QualityHandler{
		service:   service,
		cache:     cache,
		trendSeed: trendSeed,
		now:       time.Now,
		logger:    log,
	}
}

// WithClock replaces time.Now as the end of synthesized trends
func (h *QualityHandler) WithClock(now func() time.Time) *QualityHandler {
	if now != nil {
		h.now = now
	}
	return h
}

// ScoresResponse is the aggregate score view
type ScoresResponse struct {
	RunID     string             `json:"run_id"`
	Source    string             `json:"source"`
	Timestamp time.Time          `json:"timestamp"`
	Scores    map[string]float64 `json:"scores"`
}

// GetScores returns the 0-10 aggregate score per dataset
// GET /api/quality/scores
func (h *QualityHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Latest()
	if err != nil {
		respondNoRun(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ScoresResponse{
		RunID:     run.ID,
		Source:    run.Source,
		Timestamp: run.StartedAt,
		Scores:    run.Scores,
	})
}

// GetHealth returns the full quality report of every dataset
// GET /api/quality/health
func (h *QualityHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Latest()
	if err != nil {
		respondNoRun(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  run.ID,
		"reports": run.Reports,
		"missing": run.Missing,
	})
}

// GetDatasetHealth returns the report of one dataset
// GET /api/quality/health/{type}
func (h *QualityHandler) GetDatasetHealth(w http.ResponseWriter, r *http.Request) {
	dataType := mux.Vars(r)["type"]

	run, err := h.service.Latest()
	if err != nil {
		respondNoRun(w, err)
		return
	}

	rep, ok := run.Reports[dataType]
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("dataset %q not analyzed", dataType))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    run.ID,
		"data_type": dataType,
		"score":     run.Scores[dataType],
		"report":    rep,
	})
}

// GetFields profiles every column of one dataset, loaded fresh from the source
// GET /api/quality/fields/{type}
func (h *QualityHandler) GetFields(w http.ResponseWriter, r *http.Request) {
	dataType := mux.Vars(r)["type"]

	fields, err := h.service.ProfileFields(r.Context(), dataType)
	if err != nil {
		if errors.Is(err, health.ErrTypeNotConfigured) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("dataset %q not configured", dataType))
			return
		}
		h.logger.WithDataset(dataType).WithError(err).Error("Failed to profile fields")
		respondError(w, http.StatusBadGateway, "Failed to load dataset")
		return
	}

	respondJSON(w, http.StatusOK, fields)
}

// GetSummary returns the executive summary
// GET /api/quality/summary
func (h *QualityHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Latest()
	if err != nil {
		respondNoRun(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":       run.ID,
		"summary":      recommend.Summarize(run.Scores),
		"total_issues": run.TotalIssues(),
	})
}

// GetRecommendations returns recommendations, optionally filtered
// GET /api/quality/recommendations?priority=High,Medium&type=Products
func (h *QualityHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Latest()
	if err != nil {
		respondNoRun(w, err)
		return
	}

	recs, err := filterRecommendations(recommend.Recommendations(run.Reports), r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":          run.ID,
		"count":           len(recs),
		"recommendations": recs,
	})
}

// filterRecommendations applies the priority and type query filters
func filterRecommendations(recs []contracts.Recommendation, r *http.Request) ([]contracts.Recommendation, error) {
	q := r.URL.Query()

	if p := q.Get("priority"); p != "" {
		var priorities []contracts.Severity
		for _, part := range splitList(p) {
			sev, ok := contracts.ParseSeverity(part)
			if !ok {
				return nil, fmt.Errorf("invalid priority %q (High, Medium, Low)", part)
			}
			priorities = append(priorities, sev)
		}
		recs = recommend.FilterByPriority(recs, priorities...)
	}
	if t := q.Get("type"); t != "" {
		recs = recommend.FilterByDataType(recs, splitList(t)...)
	}
	if recs == nil {
		recs = []contracts.Recommendation{}
	}
	return recs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// TrendsResponse is simulated history for charting
type TrendsResponse struct {
	RunID   string         `json:"run_id"`
	Seed    uint64         `json:"seed"`
	Trends  *trend.Trends  `json:"trends"`
	Average []float64      `json:"average"`
	Changes []trend.Change `json:"changes"`
}

// GetTrends returns synthesized score history ending at the latest run.
// Results are cached per run and seed.
// GET /api/quality/trends?seed=42&since=2026-09-01
func (h *QualityHandler) GetTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	run, err := h.service.Latest()
	if err != nil {
		respondNoRun(w, err)
		return
	}

	seed := h.trendSeed
	if s := r.URL.Query().Get("seed"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'seed' (expected unsigned integer)")
			return
		}
		seed = v
	}

	var since time.Time
	if s := r.URL.Query().Get("since"); s != "" {
		since, err = time.Parse("2006-01-02", s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'since' date format (expected YYYY-MM-DD)")
			return
		}
	}

	var trends trend.Trends
	err = h.cache.GetOrSet(ctx, redis.TrendKey(run.ID, seed), &trends, redis.TTLShort, func() (interface{}, error) {
		return trend.Synthesize(run, trend.Options{Seed: seed, Now: h.now()}), nil
	})
	if err != nil {
		// 캐시 장애 시 직접 계산
		h.logger.WithError(err).Warn("Trend cache unavailable")
		trends = *trend.Synthesize(run, trend.Options{Seed: seed, Now: h.now()})
	}

	t := &trends
	if !since.IsZero() {
		t = t.Since(since)
	}

	respondJSON(w, http.StatusOK, TrendsResponse{
		RunID:   run.ID,
		Seed:    seed,
		Trends:  t,
		Average: t.Average(),
		Changes: t.Changes(),
	})
}

// ExportIssues streams every issue as CSV
// GET /api/quality/export/issues.csv
func (h *QualityHandler) ExportIssues(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Latest()
	if err != nil {
		respondNoRun(w, err)
		return
	}

	setCSVHeaders(w, "issues", run)
	if err := report.WriteIssuesCSV(w, run); err != nil {
		h.logger.WithError(err).Error("Failed to write issues CSV")
	}
}

// ExportRecommendations streams recommendations as CSV; the same filters as GetRecommendations apply
// GET /api/quality/export/recommendations.csv
func (h *QualityHandler) ExportRecommendations(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Latest()
	if err != nil {
		respondNoRun(w, err)
		return
	}

	recs, err := filterRecommendations(recommend.Recommendations(run.Reports), r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	setCSVHeaders(w, "recommendations", run)
	if err := report.WriteRecommendationsCSV(w, recs); err != nil {
		h.logger.WithError(err).Error("Failed to write recommendations CSV")
	}
}

func setCSVHeaders(w http.ResponseWriter, name string, run *contracts.AnalysisRun) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_%s.csv"`, name, run.StartedAt.Format("20060102")))
}

// AnalyzeResponse summarizes a finished run
type AnalyzeResponse struct {
	Status   string             `json:"status"`
	RunID    string             `json:"run_id"`
	Source   string             `json:"source"`
	Duration string             `json:"duration"`
	Scores   map[string]float64 `json:"scores"`
	Issues   int                `json:"issues"`
	Missing  []string           `json:"missing,omitempty"`
}

// Analyze reloads all datasets and re-runs the analysis synchronously
// POST /api/quality/analyze
func (h *QualityHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Analysis run failed")
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Status:   "completed",
		RunID:    run.ID,
		Source:   run.Source,
		Duration: run.Duration.String(),
		Scores:   run.Scores,
		Issues:   run.TotalIssues(),
		Missing:  run.Missing,
	})
}
