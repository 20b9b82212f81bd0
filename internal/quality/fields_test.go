package quality

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mdhealth/internal/contracts"
)

func fieldsFixture(t *testing.T) *contracts.Table {
	t.Helper()
	rows := make([][]any, 10)
	for i := range rows {
		var uom any = "EA"
		if i%3 == 0 {
			uom = "KG"
		}
		var weight any = float64(i + 1)
		if i == 9 {
			weight = 1000.0
		}
		var note any
		if i < 2 {
			note = "check"
		}
		rows[i] = []any{fmt.Sprintf("P%03d", i), uom, weight, note, daysAgo(i * 10)}
	}
	return mustTable(t, []contracts.Column{
		text("ProductID"), text("UnitOfMeasure"), numeric("Weight"), text("Note"), when("LastUpdated"),
	}, rows...)
}

func TestProfileFields(t *testing.T) {
	report := ProfileFields("Products", fieldsFixture(t))

	assert.Equal(t, "Products", report.Dataset)
	assert.Equal(t, 10, report.Rows)
	require.Len(t, report.Fields, 5)
	assert.Equal(t, "ProductID", report.Fields[0].Name)

	assert.Equal(t, []string{"Note"}, report.LowCompleteness)
	assert.Equal(t, []TypeGroup{
		{Type: contracts.ColumnText, Count: 3, Fields: []string{"ProductID", "UnitOfMeasure", "Note"}},
		{Type: contracts.ColumnNumeric, Count: 1, Fields: []string{"Weight"}},
		{Type: contracts.ColumnDatetime, Count: 1, Fields: []string{"LastUpdated"}},
	}, report.Types)
}

func TestProfileFields_Counts(t *testing.T) {
	report := ProfileFields("Products", fieldsFixture(t))

	note, ok := report.Field("Note")
	require.True(t, ok)
	assert.Equal(t, 2, note.NonNull)
	assert.Equal(t, 8, note.Null)
	assert.InDelta(t, 20.0, note.Completeness, 1e-9)
	assert.Equal(t, 1, note.Unique)
	assert.InDelta(t, 50.0, note.UniquePct, 1e-9)

	id, _ := report.Field("ProductID")
	assert.Equal(t, 10, id.Unique)
	assert.InDelta(t, 100.0, id.UniquePct, 1e-9)

	_, ok = report.Field("Missing")
	assert.False(t, ok)
}

func TestProfileFields_Numeric(t *testing.T) {
	report := ProfileFields("Products", fieldsFixture(t))

	w, _ := report.Field("Weight")
	require.NotNil(t, w.Numeric)
	assert.Nil(t, w.Text)

	n := w.Numeric
	assert.Equal(t, 10, n.Count)
	assert.InDelta(t, 1.0, n.Min, 1e-9)
	assert.InDelta(t, 1000.0, n.Max, 1e-9)
	assert.InDelta(t, 3.25, n.P25, 1e-9)
	assert.InDelta(t, 5.5, n.Median, 1e-9)
	assert.InDelta(t, 7.75, n.P75, 1e-9)
	assert.InDelta(t, 104.5, n.Mean, 1e-9)
	require.NotNil(t, n.Std)
	assert.Equal(t, 1, n.Outliers)
	assert.InDelta(t, 10.0, n.OutlierPct, 1e-9)
}

func TestProfileFields_SingleNumericValueHasNoStd(t *testing.T) {
	tbl := mustTable(t, []contracts.Column{numeric("Weight")}, []any{4.0}, []any{nil})

	w, _ := ProfileFields("X", tbl).Field("Weight")
	require.NotNil(t, w.Numeric)
	assert.Nil(t, w.Numeric.Std)
	assert.Zero(t, w.Numeric.Outliers)

	_, err := json.Marshal(w)
	assert.NoError(t, err)
}

func TestProfileFields_Text(t *testing.T) {
	report := ProfileFields("Products", fieldsFixture(t))

	uom, _ := report.Field("UnitOfMeasure")
	require.NotNil(t, uom.Text)
	assert.Equal(t, []ValueCount{{"EA", 6}, {"KG", 4}}, uom.Text.Top)
	assert.Equal(t, 2, uom.Text.MinLength)
	assert.Equal(t, 2, uom.Text.MaxLength)
	assert.Zero(t, uom.Text.EmptyStrings)

	rows := make([][]any, 0, 30)
	for i := 0; i < 25; i++ {
		rows = append(rows, []any{fmt.Sprintf("V%02d", i)})
	}
	rows = append(rows, []any{"V24"}, []any{""})
	many, _ := ProfileFields("X", mustTable(t, []contracts.Column{text("Code")}, rows...)).Field("Code")
	require.Len(t, many.Text.Top, TopValuesLimit)
	assert.Equal(t, ValueCount{"V24", 2}, many.Text.Top[0])
	assert.Equal(t, ValueCount{"V00", 1}, many.Text.Top[1])
	assert.Equal(t, 0, many.Text.MinLength)
	assert.Equal(t, 1, many.Text.EmptyStrings)
}

func TestProfileFields_Datetime(t *testing.T) {
	report := ProfileFields("Products", fieldsFixture(t))

	lu, _ := report.Field("LastUpdated")
	require.NotNil(t, lu.Datetime)
	assert.Equal(t, daysAgo(90), lu.Datetime.Earliest)
	assert.Equal(t, daysAgo(0), lu.Datetime.Latest)
	assert.Equal(t, 90, lu.Datetime.RangeDays)
}

func TestProfileFields_AllNullColumn(t *testing.T) {
	tbl := mustTable(t, []contracts.Column{text("ID"), numeric("Weight")},
		[]any{"A", nil}, []any{"B", nil})

	report := ProfileFields("X", tbl)
	w, _ := report.Field("Weight")
	assert.Zero(t, w.Completeness)
	assert.Zero(t, w.UniquePct)
	assert.Nil(t, w.Numeric)
	assert.Equal(t, []string{"Weight"}, report.LowCompleteness)
}

func TestProfileFields_Empty(t *testing.T) {
	for name, tbl := range map[string]*contracts.Table{
		"nil":       nil,
		"zero rows": {Columns: []contracts.Column{text("ID")}},
		"malformed": {Columns: []contracts.Column{text("A")}, Rows: [][]any{{"x", "y"}}},
	} {
		t.Run(name, func(t *testing.T) {
			report := ProfileFields("X", tbl)
			assert.Zero(t, report.Rows)
			assert.Empty(t, report.Fields)
			assert.NotNil(t, report.LowCompleteness)
		})
	}
}
