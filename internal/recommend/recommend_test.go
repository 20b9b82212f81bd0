package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mdhealth/internal/contracts"
)

func healthy() contracts.QualityReport {
	return contracts.QualityReport{
		Completeness: 99, Consistency: 97, Validity: 95,
		Uniqueness: 100, Timeliness: 90, Accuracy: 95,
	}
}

func TestRecommendations_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *contracts.QualityReport)
		focus    string
		priority contracts.Severity
	}{
		{"completeness medium", func(r *contracts.QualityReport) { r.Completeness = 80 }, "Completeness", contracts.SeverityMedium},
		{"completeness high", func(r *contracts.QualityReport) { r.Completeness = 74.9 }, "Completeness", contracts.SeverityHigh},
		{"consistency high", func(r *contracts.QualityReport) { r.Consistency = 60 }, "Consistency", contracts.SeverityHigh},
		{"validity medium", func(r *contracts.QualityReport) { r.Validity = 89.99 }, "Validity", contracts.SeverityMedium},
		{"uniqueness always medium", func(r *contracts.QualityReport) { r.Uniqueness = 10 }, "Uniqueness", contracts.SeverityMedium},
		{"timeliness medium", func(r *contracts.QualityReport) { r.Timeliness = 30 }, "Timeliness", contracts.SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := healthy()
			tt.mutate(&r)

			recs := Recommendations(map[string]contracts.QualityReport{"Customers": r})
			require.Len(t, recs, 1)
			assert.Equal(t, "Customers", recs[0].DataType)
			assert.Equal(t, tt.focus, recs[0].FocusArea)
			assert.Equal(t, tt.priority, recs[0].Priority)
			assert.NotEmpty(t, recs[0].Recommendation)
		})
	}
}

func TestRecommendations_BoundariesDoNotFire(t *testing.T) {
	r := contracts.QualityReport{Completeness: 90, Consistency: 90, Validity: 90, Uniqueness: 98, Timeliness: 85}
	assert.Empty(t, Recommendations(map[string]contracts.QualityReport{"Suppliers": r}))
}

func TestRecommendations_DatasetSpecificAndOrder(t *testing.T) {
	weak := healthy()
	weak.Completeness = 50 // High
	weak.Timeliness = 10   // Medium

	recs := Recommendations(map[string]contracts.QualityReport{
		"Products":  healthy(),
		"Locations": weak,
	})

	require.Len(t, recs, 4)
	assert.Equal(t, contracts.Recommendation{
		DataType:       "Locations",
		FocusArea:      "Completeness",
		Recommendation: "Implement validation rules to ensure all required fields are populated.",
		Priority:       contracts.SeverityHigh,
	}, recs[0])
	assert.Equal(t, "Timeliness", recs[1].FocusArea)
	assert.Equal(t, "Hierarchy", recs[2].FocusArea)
	assert.Equal(t, "Classification", recs[3].FocusArea)
	assert.Equal(t, "Products", recs[3].DataType)
}

func TestFilters(t *testing.T) {
	recs := []contracts.Recommendation{
		{DataType: "Products", Priority: contracts.SeverityHigh},
		{DataType: "Locations", Priority: contracts.SeverityMedium},
		{DataType: "Products", Priority: contracts.SeverityLow},
	}

	assert.Len(t, FilterByPriority(recs), 3)
	assert.Len(t, FilterByPriority(recs, contracts.SeverityHigh, contracts.SeverityLow), 2)
	assert.Empty(t, FilterByPriority(recs, "Urgent"))

	got := FilterByDataType(recs, "Products")
	require.Len(t, got, 2)
	assert.Equal(t, contracts.SeverityLow, got[1].Priority)
}

func TestSummarize(t *testing.T) {
	s := Summarize(map[string]float64{
		"Products":  9.0,
		"Locations": 6.0,
		"Customers": 7.5,
	})

	assert.Equal(t, 3, s.Datasets)
	assert.InDelta(t, 7.5, s.Overall, 1e-9)
	assert.Equal(t, 2, s.Acceptable)
	assert.InDelta(t, 1.0, s.ImprovementNeeded, 1e-9)
	assert.Equal(t, contracts.StatusGood, s.Status)
	assert.Equal(t, "Locations", s.Weakest)
	assert.Equal(t, "Products", s.Strongest)
	assert.Equal(t, TargetScore, s.Target)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Datasets)
	assert.Equal(t, contracts.StatusCritical, s.Status)
	assert.Equal(t, TargetScore, s.ImprovementNeeded)
}

func TestBand(t *testing.T) {
	tests := []struct {
		score float64
		want  contracts.HealthStatus
	}{
		{10, contracts.StatusExcellent},
		{8.5, contracts.StatusExcellent},
		{8.49, contracts.StatusGood},
		{7, contracts.StatusGood},
		{6.99, contracts.StatusNeedsAttention},
		{5, contracts.StatusNeedsAttention},
		{4.99, contracts.StatusCritical},
		{0, contracts.StatusCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.score), "score %v", tt.score)
	}
}
