package quality

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mdhealth/internal/contracts"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func testAnalyzer(opts ...Option) *Analyzer {
	return NewAnalyzer(nil, append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func mustTable(t *testing.T, cols []contracts.Column, rows ...[]any) *contracts.Table {
	t.Helper()
	tbl, err := contracts.NewTable(cols, rows)
	require.NoError(t, err)
	return tbl
}

func text(name string) contracts.Column    { return contracts.Column{Name: name, Type: contracts.ColumnText} }
func numeric(name string) contracts.Column { return contracts.Column{Name: name, Type: contracts.ColumnNumeric} }
func when(name string) contracts.Column    { return contracts.Column{Name: name, Type: contracts.ColumnDatetime} }

func daysAgo(n int) time.Time { return fixedNow.Add(-time.Duration(n) * 24 * time.Hour) }

func TestAnalyze_DuplicateKeyScenario(t *testing.T) {
	rows := make([][]any, 0, 10)
	for i := 1; i <= 9; i++ {
		rows = append(rows, []any{fmt.Sprintf("A%d", i)})
	}
	rows = append(rows, []any{"A1"})
	tbl := mustTable(t, []contracts.Column{text("ID")}, rows...)

	report := testAnalyzer().AnalyzeDataset("Widgets", tbl)

	assert.InDelta(t, 90.0, report.Uniqueness, 1e-9)
	assert.Contains(t, report.Issues, contracts.Issue{
		Field:       "Key fields",
		Description: "Duplicate records detected",
		Severity:    contracts.SeverityMedium,
	})
}

func TestAnalyze_TimelinessScenario(t *testing.T) {
	ages := []int{1, 10, 89, 120, 150, 200, 250, 300, 365, 400}
	rows := make([][]any, len(ages))
	for i, age := range ages {
		rows[i] = []any{fmt.Sprintf("R%02d", i), daysAgo(age)}
	}
	tbl := mustTable(t, []contracts.Column{text("RecordNo"), when("UpdatedAt")}, rows...)

	report := testAnalyzer().AnalyzeDataset("Anything", tbl)

	assert.InDelta(t, 30.0, report.Timeliness, 1e-9)
	assert.Contains(t, report.Issues, contracts.Issue{
		Field:       "Last updated",
		Description: "Many records not recently updated",
		Severity:    contracts.SeverityMedium,
	})
}

func TestAnalyze_EmptyDataset(t *testing.T) {
	want := []contracts.Issue{{Field: "all", Description: "No data available", Severity: contracts.SeverityHigh}}

	tests := []struct {
		name  string
		table *contracts.Table
	}{
		{"nil", nil},
		{"zero rows", &contracts.Table{Columns: []contracts.Column{text("ProductID")}}},
		{"zero columns", &contracts.Table{Rows: [][]any{{}}}},
		{"malformed", &contracts.Table{Columns: []contracts.Column{text("A")}, Rows: [][]any{{"x", "y"}}}},
	}

	a := testAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			datasets := map[string]*contracts.Table{"Products": tt.table}

			reports := a.AnalyzeHealth(datasets)
			r := reports["Products"]
			for _, d := range contracts.Dimensions {
				assert.Zero(t, r.Score(d), d)
			}
			assert.Equal(t, want, r.Issues)

			assert.Zero(t, a.AggregateScores(datasets)["Products"])
		})
	}
}

func TestAnalyze_ProductsValidityFromCategoryOnly(t *testing.T) {
	tbl := mustTable(t,
		[]contracts.Column{text("ProductID"), text("ProductCategory")},
		[]any{"P001", "RAW"},
		[]any{"P002", "FG"},
		[]any{"P003", "SERVICE"},
	)

	report := testAnalyzer().AnalyzeDataset("Products", tbl)
	assert.InDelta(t, 100.0, report.Validity, 1e-9)
}

func TestAggregate_Formula(t *testing.T) {
	report := contracts.QualityReport{
		Completeness: 80,
		Consistency:  90,
		Validity:     90,
		Uniqueness:   95,
		Timeliness:   70,
		Accuracy:     85,
	}
	assert.InDelta(t, 8.575, Aggregate(report), 1e-9)

	perfect := contracts.QualityReport{
		Completeness: 100, Consistency: 100, Validity: 100,
		Uniqueness: 100, Timeliness: 100, Accuracy: 100,
	}
	assert.InDelta(t, 10.0, Aggregate(perfect), 1e-9)
	assert.LessOrEqual(t, Aggregate(perfect), MaxAggregate)
}

func TestWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, d := range contracts.Dimensions {
		w, ok := Weights[d]
		require.True(t, ok, d)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestAnalyze_IssueOrder(t *testing.T) {
	rows := make([][]any, 10)
	for i := range rows {
		name := any(fmt.Sprintf("Item %d", i))
		if i < 3 {
			name = nil
		}
		desc := any("ok")
		if i == 0 {
			desc = nil
		}
		rows[i] = []any{"SAME", name, desc, daysAgo(400)}
	}
	tbl := mustTable(t,
		[]contracts.Column{text("ItemCode"), text("Name"), text("Description"), when("LastModified")},
		rows...)

	report := testAnalyzer().AnalyzeDataset("Items", tbl)

	require.Len(t, report.Issues, 4)
	assert.Equal(t, contracts.Issue{Field: "Name", Description: "Missing values (30.0%)", Severity: contracts.SeverityHigh}, report.Issues[0])
	assert.Equal(t, contracts.Issue{Field: "Description", Description: "Missing values (10.0%)", Severity: contracts.SeverityMedium}, report.Issues[1])
	assert.Equal(t, "Key fields", report.Issues[2].Field)
	assert.Equal(t, contracts.SeverityHigh, report.Issues[2].Severity, "uniqueness 10% is High")
	assert.Equal(t, "Last updated", report.Issues[3].Field)
}

func TestAnalyze_CleanTableHasEmptyIssueList(t *testing.T) {
	tbl := mustTable(t,
		[]contracts.Column{text("CustomerID"), text("Name"), when("LastUpdated")},
		[]any{"C001", "Acme", daysAgo(1)},
		[]any{"C002", "Globex", daysAgo(2)},
	)

	report := testAnalyzer().AnalyzeDataset("Customers", tbl)
	require.NotNil(t, report.Issues)
	assert.Empty(t, report.Issues)
	assert.InDelta(t, 100.0, report.Uniqueness, 1e-9)
	assert.InDelta(t, 100.0, report.Timeliness, 1e-9)
}

func TestAnalyze_ParallelMatchesSequential(t *testing.T) {
	datasets := randomDatasets(rand.New(rand.NewPCG(7, 11)), 12)

	seqScores, seqReports := testAnalyzer(WithWorkers(1)).Analyze(datasets)
	parScores, parReports := testAnalyzer(WithWorkers(8)).Analyze(datasets)

	assert.Equal(t, seqScores, parScores)
	assert.Equal(t, seqReports, parReports)
	assert.Len(t, parReports, len(datasets))
}

func TestAnalyze_Idempotent(t *testing.T) {
	datasets := randomDatasets(rand.New(rand.NewPCG(1, 2)), 6)
	a := testAnalyzer()

	first := a.AnalyzeHealth(datasets)
	second := a.AnalyzeHealth(datasets)
	assert.Equal(t, first, second)
}

func TestAnalyze_ScoresStayInRange(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 42))
	a := testAnalyzer()

	for round := 0; round < 20; round++ {
		datasets := randomDatasets(r, 6)
		scores, reports := a.Analyze(datasets)
		for name, rep := range reports {
			for _, d := range contracts.Dimensions {
				v := rep.Score(d)
				assert.GreaterOrEqual(t, v, 0.0, "%s %s", name, d)
				assert.LessOrEqual(t, v, 100.0, "%s %s", name, d)
			}
			assert.GreaterOrEqual(t, scores[name], 0.0)
			assert.LessOrEqual(t, scores[name], 10.0)
		}
	}
}

func TestCompleteness_MonotonicInNulls(t *testing.T) {
	rows := make([][]any, 20)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("P%03d", i), float64(i), "EA"}
	}
	cols := []contracts.Column{text("ProductID"), numeric("Weight"), text("UnitOfMeasure")}
	a := testAnalyzer()

	prev := 101.0
	for i := 0; i <= len(rows); i++ {
		tbl := mustTable(t, cols, rows...)
		c := a.AnalyzeDataset("Products", tbl).Completeness
		assert.LessOrEqual(t, c, prev)
		prev = c
		if i < len(rows) {
			rows[i][1] = nil
		}
	}
	assert.InDelta(t, 100*(1-20.0/60.0), prev, 1e-9)
}

func TestUniqueness_OneDuplicateFormula(t *testing.T) {
	a := testAnalyzer()
	for n := 2; n <= 25; n++ {
		rows := make([][]any, n)
		for i := 0; i < n-1; i++ {
			rows[i] = []any{fmt.Sprintf("K%03d", i)}
		}
		rows[n-1] = []any{"K000"}
		tbl := mustTable(t, []contracts.Column{text("SupplierID")}, rows...)

		got := a.AnalyzeDataset("Suppliers", tbl).Uniqueness
		assert.InDelta(t, 100*float64(n-1)/float64(n), got, 1e-9, "n=%d", n)
	}
}

// randomDatasets builds small tables with nulls, mixed case, bad codes and dates
func randomDatasets(r *rand.Rand, n int) map[string]*contracts.Table {
	names := []string{"Products", "Locations", "Customers", "Suppliers", "Time Profiles", "Resource Plans", "Custom"}
	cats := []string{"RAW", "WIP", "FG", "BAD", "raw"}
	out := make(map[string]*contracts.Table, n)

	for k := 0; k < n; k++ {
		rowsN := r.IntN(30)
		rows := make([][]any, rowsN)
		for i := range rows {
			row := []any{
				fmt.Sprintf("ID%d", r.IntN(rowsN+1)),
				cats[r.IntN(len(cats))],
				r.NormFloat64() * 50,
				r.Float64()*200 - 100,
				fixedNow.Add(time.Duration(r.IntN(400)-30) * 24 * time.Hour),
			}
			for j := range row {
				if r.IntN(8) == 0 {
					row[j] = nil
				}
			}
			rows[i] = row
		}
		name := names[k%len(names)]
		if k >= len(names) {
			name = fmt.Sprintf("%s %d", name, k)
		}
		out[name] = &contracts.Table{
			Columns: []contracts.Column{
				text("ProductID"), text("ProductCategory"), numeric("Weight"),
				numeric("Latitude"), when("LastUpdated"),
			},
			Rows: rows,
		}
	}
	return out
}
