package quality

import (
	"time"

	"github.com/wonny/mdhealth/internal/contracts"
)

// Default scores used when a dimension has no applicable check.
// These values are part of the scoring contract; consumers' thresholds assume them.
const (
	DefaultConsistency           = 95.0
	DefaultValidity              = 90.0
	DefaultUniquenessNoKeys      = 98.0
	DefaultUniquenessMissingKeys = 90.0
	DefaultTimeliness            = 85.0
	AccuracyEstimateCap          = 95.0
)

// Issue thresholds (percentages)
const (
	MissingIssueThreshold    = 5.0  // null rate above this emits an issue
	MissingHighThreshold     = 20.0 // null rate above this is High
	DuplicateHighThreshold   = 90.0 // uniqueness below this is High
	TimelinessIssueThreshold = 80.0
	DominantCaseThreshold    = 0.5
)

// RecencyWindow is how far back an update still counts as recent
const RecencyWindow = 90 * 24 * time.Hour

// OutlierIQRMultiplier bounds extreme outliers at Q1-k·IQR and Q3+k·IQR
const OutlierIQRMultiplier = 5.0

// Accuracy estimate blend when no dataset-specific check applies
const (
	accuracyCompletenessWeight = 0.4
	accuracyConsistencyWeight  = 0.3
	accuracyValidityWeight     = 0.3
)

// MaxAggregate caps the weighted aggregate
const MaxAggregate = 10.0

// Weights maps each dimension to its share of the aggregate score
// ⭐ SSOT: 집계 가중치 (합계 1.0)
var Weights = map[contracts.Dimension]float64{
	contracts.DimensionCompleteness: 0.25,
	contracts.DimensionConsistency:  0.20,
	contracts.DimensionValidity:     0.20,
	contracts.DimensionUniqueness:   0.15,
	contracts.DimensionTimeliness:   0.10,
	contracts.DimensionAccuracy:     0.10,
}

// Aggregate combines the six percentages into a 0-10 score
func Aggregate(r contracts.QualityReport) float64 {
	sum := 0.0
	for _, d := range contracts.Dimensions {
		sum += r.Score(d) / 10 * Weights[d]
	}
	if sum > MaxAggregate {
		return MaxAggregate
	}
	if sum < 0 {
		return 0
	}
	return sum
}
