package contracts

import (
	"sort"
	"strings"
)

// Severity ranks an issue or recommendation
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Rank orders severities High(0) < Medium(1) < Low(2); unknown sorts last
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	}
	return 3
}

// ParseSeverity matches case-insensitively; ok is false for anything else
func ParseSeverity(s string) (Severity, bool) {
	for _, sev := range []Severity{SeverityHigh, SeverityMedium, SeverityLow} {
		if strings.EqualFold(s, string(sev)) {
			return sev, true
		}
	}
	return "", false
}

// Issue is a defect found while scoring a dataset
type Issue struct {
	Field       string   `json:"field"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Dimension is one of the six quality axes
type Dimension string

const (
	DimensionCompleteness Dimension = "completeness"
	DimensionConsistency  Dimension = "consistency"
	DimensionValidity     Dimension = "validity"
	DimensionUniqueness   Dimension = "uniqueness"
	DimensionTimeliness   Dimension = "timeliness"
	DimensionAccuracy     Dimension = "accuracy"
)

// Dimensions lists the six dimensions in report order
var Dimensions = []Dimension{
	DimensionCompleteness,
	DimensionConsistency,
	DimensionValidity,
	DimensionUniqueness,
	DimensionTimeliness,
	DimensionAccuracy,
}

// ParseDimension matches a dimension name case-insensitively
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if strings.EqualFold(s, string(d)) {
			return d, true
		}
	}
	return "", false
}

// QualityReport holds the six dimension percentages and the issues of one dataset
// ⭐ SSOT: Quality Analyzer → Consumers 출력 형식
type QualityReport struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Validity     float64 `json:"validity"`
	Uniqueness   float64 `json:"uniqueness"`
	Timeliness   float64 `json:"timeliness"`
	Accuracy     float64 `json:"accuracy"`
	Issues       []Issue `json:"issues"`
}

// Score returns the percentage for d, 0 for an unknown dimension
func (r QualityReport) Score(d Dimension) float64 {
	switch d {
	case DimensionCompleteness:
		return r.Completeness
	case DimensionConsistency:
		return r.Consistency
	case DimensionValidity:
		return r.Validity
	case DimensionUniqueness:
		return r.Uniqueness
	case DimensionTimeliness:
		return r.Timeliness
	case DimensionAccuracy:
		return r.Accuracy
	}
	return 0
}

// IssueCount counts issues of the given severity
func (r QualityReport) IssueCount(s Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == s {
			n++
		}
	}
	return n
}

// SortedNames returns map keys in lexical order
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
