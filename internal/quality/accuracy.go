package quality

import (
	"sort"

	"github.com/wonny/mdhealth/internal/contracts"
)

// accuracy averages the profile's numeric sanity checks. Without any,
// it is estimated from completeness, consistency and validity, capped
// at AccuracyEstimateCap since nothing was verified directly.
func (d *dataset) accuracy(completeness, consistency, validity float64) float64 {
	var scores []float64

	for _, field := range d.profile.PhysicalFields {
		idx, col, ok := d.column(field)
		if !ok || col.Type != contracts.ColumnNumeric {
			continue
		}
		values := d.floats(idx)
		if len(values) == 0 {
			continue
		}
		scores = append(scores, nonNegative(values), withoutOutliers(values))
	}

	if len(d.profile.Ranges) > 0 && d.allRangeFieldsPresent() {
		for _, r := range d.profile.Ranges {
			idx, col, _ := d.column(r.Field)
			if col.Type != contracts.ColumnNumeric {
				continue
			}
			if s, ok := inRange(d.floats(idx), r); ok {
				scores = append(scores, s)
			}
		}
	}

	if len(scores) == 0 {
		estimate := accuracyCompletenessWeight*completeness +
			accuracyConsistencyWeight*consistency +
			accuracyValidityWeight*validity
		return min(AccuracyEstimateCap, estimate)
	}
	return mean(scores)
}

func (d *dataset) allRangeFieldsPresent() bool {
	for _, r := range d.profile.Ranges {
		if d.table.ColumnIndex(r.Field) < 0 {
			return false
		}
	}
	return true
}

func nonNegative(values []float64) float64 {
	neg := 0
	for _, v := range values {
		if v < 0 {
			neg++
		}
	}
	return 100 * (1 - float64(neg)/float64(len(values)))
}

// withoutOutliers is the share of values within OutlierIQRMultiplier·IQR of Q1/Q3
func withoutOutliers(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := quantileSorted(sorted, 0.25)
	q3 := quantileSorted(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - OutlierIQRMultiplier*iqr
	upper := q3 + OutlierIQRMultiplier*iqr

	out := 0
	for _, v := range values {
		if v < lower || v > upper {
			out++
		}
	}
	return 100 * (1 - float64(out)/float64(len(values)))
}

func inRange(values []float64, r Range) (float64, bool) {
	bad := 0
	for _, v := range values {
		if v < r.Min || v > r.Max {
			bad++
		}
	}
	return percent(len(values)-bad, len(values))
}
