package recommend

import "github.com/wonny/mdhealth/internal/contracts"

// dimensionRule fires when a dimension score falls below Below.
// Priority is High under HighBelow when HighBelow is set, otherwise Medium.
type dimensionRule struct {
	Dimension contracts.Dimension
	FocusArea string
	Below     float64
	HighBelow float64
	Text      string
}

// datasetRule always applies to one dataset type
type datasetRule struct {
	DataType  string
	FocusArea string
	Text      string
}

// ⭐ SSOT: 개선 권고 규칙
var dimensionRules = []dimensionRule{
	{
		Dimension: contracts.DimensionCompleteness,
		FocusArea: "Completeness",
		Below:     90,
		HighBelow: 75,
		Text:      "Implement validation rules to ensure all required fields are populated.",
	},
	{
		Dimension: contracts.DimensionConsistency,
		FocusArea: "Consistency",
		Below:     90,
		HighBelow: 75,
		Text:      "Standardize data formats and enforce data governance protocols.",
	},
	{
		Dimension: contracts.DimensionValidity,
		FocusArea: "Validity",
		Below:     90,
		HighBelow: 75,
		Text:      "Implement business rule validation in SAP IBP for critical fields.",
	},
	{
		Dimension: contracts.DimensionUniqueness,
		FocusArea: "Uniqueness",
		Below:     98,
		Text:      "Implement deduplication processes and enforce unique key constraints.",
	},
	{
		Dimension: contracts.DimensionTimeliness,
		FocusArea: "Timeliness",
		Below:     85,
		Text:      "Establish regular data refresh cycles and monitor update frequency.",
	},
}

var datasetRules = []datasetRule{
	{
		DataType:  "Products",
		FocusArea: "Classification",
		Text:      "Ensure all products have proper categorization for accurate demand planning.",
	},
	{
		DataType:  "Locations",
		FocusArea: "Hierarchy",
		Text:      "Verify location hierarchy accuracy for proper supply chain network modeling.",
	},
}

func (r dimensionRule) priority(score float64) contracts.Severity {
	if r.HighBelow > 0 && score < r.HighBelow {
		return contracts.SeverityHigh
	}
	return contracts.SeverityMedium
}
