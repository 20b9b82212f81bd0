package quality

import (
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/wonny/mdhealth/internal/contracts"
)

// consistency averages the scores of every applicable check:
//   - numeric columns holding non-numeric cells
//   - text columns with a dominant letter-case pattern
//   - identifier length spread for the profile's code fields
//
// With no applicable check the score is DefaultConsistency.
func (d *dataset) consistency() float64 {
	var scores []float64

	for j, col := range d.table.Columns {
		values := d.table.NonNull(j)
		if len(values) == 0 {
			continue
		}
		switch col.Type {
		case contracts.ColumnNumeric:
			if s, ok := numericPurity(values); ok {
				scores = append(scores, s)
			}
		case contracts.ColumnText:
			if s, ok := dominantCase(values); ok {
				scores = append(scores, s)
			}
		}
	}

	for _, field := range d.profile.CodeFields {
		idx, _, ok := d.column(field)
		if !ok {
			continue
		}
		if s, ok := lengthConsistency(d.table.NonNull(idx)); ok {
			scores = append(scores, s)
		}
	}

	if len(scores) == 0 {
		return DefaultConsistency
	}
	return mean(scores)
}

// numericPurity scores a numeric column only when it contains stray non-numeric cells
func numericPurity(values []any) (float64, bool) {
	bad := 0
	for _, v := range values {
		if _, ok := contracts.AsFloat(v); !ok {
			bad++
		}
	}
	if bad == 0 {
		return 0, false
	}
	return 100 * (1 - float64(bad)/float64(len(values))), true
}

// dominantCase returns 100·share of the most common case pattern when it covers
// more than half the string cells. Non-string cells are left out of the share.
func dominantCase(values []any) (float64, bool) {
	var strs, upper, lower, title int
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		strs++
		if isUpper(s) {
			upper++
		}
		if isLower(s) {
			lower++
		}
		if isTitle(s) {
			title++
		}
	}

	if strs == 0 {
		return 0, false
	}
	best := max(upper, lower, title)
	share := float64(best) / float64(strs)
	if share <= DominantCaseThreshold {
		return 0, false
	}
	return 100 * share, true
}

// lengthConsistency is 100·(1 − stddev/mean) of the rendered value lengths,
// clamped to [0,100]. Fewer than two values or a zero mean length is not scorable.
func lengthConsistency(values []any) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	lengths := make([]float64, len(values))
	for i, v := range values {
		lengths[i] = float64(utf8.RuneCountInString(cast.ToString(v)))
	}
	m := mean(lengths)
	if m == 0 {
		return 0, false
	}
	score := 100 * (1 - sampleStdDev(lengths)/m)
	if math.IsNaN(score) {
		return 0, false
	}
	return clamp(score, 0, 100), true
}

// isUpper: at least one cased rune and no lower or title case runes
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r) || unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// isLower: at least one cased rune and no upper or title case runes
func isLower(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			return false
		case unicode.IsLower(r):
			cased = true
		}
	}
	return cased
}

// isTitle: upper/title runes only start a word, lower runes only continue one
func isTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}
