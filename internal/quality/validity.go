package quality

import (
	"github.com/wonny/mdhealth/internal/contracts"
)

// validity averages the future-date checks and the profile allow-list checks.
// With no applicable check the score is DefaultValidity.
func (d *dataset) validity() float64 {
	var scores []float64

	for j, col := range d.table.Columns {
		role := Classify(col.Name)
		if !role.IsDate() || role.IsForwardLooking() || col.Type != contracts.ColumnDatetime {
			continue
		}
		if s, ok := d.notInFuture(j); ok {
			scores = append(scores, s)
		}
	}

	for _, av := range d.profile.AllowedValues {
		idx, col, ok := d.column(av.Field)
		if !ok || col.Type != contracts.ColumnText {
			continue
		}
		if s, ok := d.allowed(idx, av); ok {
			scores = append(scores, s)
		}
	}

	if len(scores) == 0 {
		return DefaultValidity
	}
	return mean(scores)
}

// notInFuture is the share of non-null dates not later than now
func (d *dataset) notInFuture(idx int) (float64, bool) {
	times := d.times(idx)
	future := 0
	for _, ts := range times {
		if ts.After(d.now) {
			future++
		}
	}
	valid, ok := percent(len(times)-future, len(times))
	return valid, ok
}

// allowed is the share of rows that are null or in the allow-list.
// Nulls count as valid, so the denominator is every row.
func (d *dataset) allowed(idx int, av AllowedValues) (float64, bool) {
	values := d.table.Values(idx)
	valid := 0
	for _, v := range values {
		if contracts.IsNull(v) {
			valid++
			continue
		}
		if s, ok := v.(string); ok && av.Contains(s) {
			valid++
		}
	}
	return percent(valid, len(values))
}
