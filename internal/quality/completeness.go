package quality

import (
	"fmt"
	"sort"

	"github.com/wonny/mdhealth/internal/contracts"
)

// completeness is 100·(1 − missing/total) over every cell.
// Columns whose null rate exceeds MissingIssueThreshold are reported whatever
// the overall score, most nulls first, ties in column order.
func (d *dataset) completeness() (float64, []contracts.Issue) {
	rows := d.table.NumRows()
	total := d.table.Size()
	if total == 0 {
		return 0, nil
	}

	type colNulls struct {
		name  string
		nulls int
	}
	perColumn := make([]colNulls, len(d.table.Columns))
	missing := 0
	for j, col := range d.table.Columns {
		perColumn[j].name = col.Name
	}
	for _, row := range d.table.Rows {
		for j, v := range row {
			if contracts.IsNull(v) {
				perColumn[j].nulls++
				missing++
			}
		}
	}

	sort.SliceStable(perColumn, func(i, j int) bool {
		return perColumn[i].nulls > perColumn[j].nulls
	})

	var issues []contracts.Issue
	for _, c := range perColumn {
		rate, _ := percent(c.nulls, rows)
		if rate <= MissingIssueThreshold {
			continue
		}
		sev := contracts.SeverityMedium
		if rate > MissingHighThreshold {
			sev = contracts.SeverityHigh
		}
		issues = append(issues, contracts.Issue{
			Field:       c.name,
			Description: fmt.Sprintf("Missing values (%.1f%%)", rate),
			Severity:    sev,
		})
	}

	return 100 * (1 - float64(missing)/float64(total)), issues
}
