package recommend

import (
	"sort"

	"github.com/wonny/mdhealth/internal/contracts"
)

// Thresholds of the executive summary (0-10 aggregate scale)
const (
	AcceptableScore = 7.0
	TargetScore     = 8.5
	AttentionScore  = 5.0
)

// Recommendations derives remediation items from quality reports.
// Datasets are visited in lexical order; the result is stably sorted High, Medium, Low.
func Recommendations(reports map[string]contracts.QualityReport) []contracts.Recommendation {
	var out []contracts.Recommendation

	names := contracts.SortedNames(reports)
	for _, name := range names {
		report := reports[name]
		for _, rule := range dimensionRules {
			score := report.Score(rule.Dimension)
			if score >= rule.Below {
				continue
			}
			out = append(out, contracts.Recommendation{
				DataType:       name,
				FocusArea:      rule.FocusArea,
				Recommendation: rule.Text,
				Priority:       rule.priority(score),
			})
		}
	}

	for _, name := range names {
		for _, rule := range datasetRules {
			if rule.DataType != name {
				continue
			}
			out = append(out, contracts.Recommendation{
				DataType:       name,
				FocusArea:      rule.FocusArea,
				Recommendation: rule.Text,
				Priority:       contracts.SeverityMedium,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}

// FilterByPriority keeps recommendations whose priority is listed; no priorities keeps all
func FilterByPriority(recs []contracts.Recommendation, priorities ...contracts.Severity) []contracts.Recommendation {
	if len(priorities) == 0 {
		return recs
	}
	keep := make(map[contracts.Severity]bool, len(priorities))
	for _, p := range priorities {
		keep[p] = true
	}
	out := make([]contracts.Recommendation, 0, len(recs))
	for _, r := range recs {
		if keep[r.Priority] {
			out = append(out, r)
		}
	}
	return out
}

// FilterByDataType keeps recommendations for the listed dataset types; none keeps all
func FilterByDataType(recs []contracts.Recommendation, types ...string) []contracts.Recommendation {
	if len(types) == 0 {
		return recs
	}
	keep := make(map[string]bool, len(types))
	for _, t := range types {
		keep[t] = true
	}
	out := make([]contracts.Recommendation, 0, len(recs))
	for _, r := range recs {
		if keep[r.DataType] {
			out = append(out, r)
		}
	}
	return out
}

// Summarize computes the executive summary over aggregate scores
func Summarize(scores map[string]float64) contracts.Summary {
	s := contracts.Summary{
		Datasets: len(scores),
		Target:   TargetScore,
	}
	if len(scores) == 0 {
		s.ImprovementNeeded = TargetScore
		s.Status = contracts.StatusCritical
		return s
	}

	total := 0.0
	for _, name := range contracts.SortedNames(scores) {
		v := scores[name]
		total += v
		if v >= AcceptableScore {
			s.Acceptable++
		}
		if s.Weakest == "" || v < scores[s.Weakest] {
			s.Weakest = name
		}
		if s.Strongest == "" || v > scores[s.Strongest] {
			s.Strongest = name
		}
	}

	s.Overall = total / float64(len(scores))
	s.ImprovementNeeded = max(0, TargetScore-s.Overall)
	s.Status = Band(s.Overall)
	return s
}

// Band maps an overall 0-10 score to a health status
func Band(overall float64) contracts.HealthStatus {
	switch {
	case overall >= TargetScore:
		return contracts.StatusExcellent
	case overall >= AcceptableScore:
		return contracts.StatusGood
	case overall >= AttentionScore:
		return contracts.StatusNeedsAttention
	default:
		return contracts.StatusCritical
	}
}
