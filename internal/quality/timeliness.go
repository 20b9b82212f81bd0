package quality

import (
	"github.com/wonny/mdhealth/internal/contracts"
)

// timeliness is the share of update timestamps inside RecencyWindow.
// Only the first update-marker column counts; a missing or non-datetime
// marker, or one with no values, scores DefaultTimeliness.
func (d *dataset) timeliness() float64 {
	idx := -1
	for j, col := range d.table.Columns {
		if Classify(col.Name).IsUpdateMarker() {
			idx = j
			break
		}
	}
	if idx < 0 || d.table.Columns[idx].Type != contracts.ColumnDatetime {
		return DefaultTimeliness
	}

	threshold := d.now.Add(-RecencyWindow)
	times := d.times(idx)
	recent := 0
	for _, ts := range times {
		if !ts.Before(threshold) {
			recent++
		}
	}

	score, ok := percent(recent, len(times))
	if !ok {
		return DefaultTimeliness
	}
	return score
}
