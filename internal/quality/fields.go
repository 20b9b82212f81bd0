package quality

import (
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/wonny/mdhealth/internal/contracts"
)

// Field profiling thresholds
const (
	LowFieldCompleteness      = 90.0 // fields below this are listed separately
	FieldOutlierIQRMultiplier = 1.5
	TopValuesLimit            = 20
)

// FieldsReport is the per-field profile of one dataset
type FieldsReport struct {
	Dataset         string         `json:"dataset"`
	Rows            int            `json:"rows"`
	Fields          []FieldProfile `json:"fields"`           // column order
	LowCompleteness []string       `json:"low_completeness"` // least complete first
	Types           []TypeGroup    `json:"types"`
}

// Field returns the profile of the named column
func (r FieldsReport) Field(name string) (FieldProfile, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldProfile{}, false
}

// TypeGroup lists the columns sharing one inferred type, in column order
type TypeGroup struct {
	Type   contracts.ColumnType `json:"type"`
	Count  int                  `json:"count"`
	Fields []string             `json:"fields"`
}

// FieldProfile holds value statistics for one column.
// Exactly one of Numeric, Text or Datetime is set when the column has values.
type FieldProfile struct {
	Name         string               `json:"name"`
	Type         contracts.ColumnType `json:"type"`
	Completeness float64              `json:"completeness"`
	NonNull      int                  `json:"non_null"`
	Null         int                  `json:"null"`
	Unique       int                  `json:"unique"`
	UniquePct    float64              `json:"unique_pct"`
	Numeric      *NumericSummary      `json:"numeric,omitempty"`
	Text         *TextSummary         `json:"text,omitempty"`
	Datetime     *DatetimeSummary     `json:"datetime,omitempty"`
}

// NumericSummary is a describe() style summary plus the IQR outlier count
type NumericSummary struct {
	Count      int      `json:"count"`
	Mean       float64  `json:"mean"`
	Std        *float64 `json:"std,omitempty"` // undefined below two values
	Min        float64  `json:"min"`
	P25        float64  `json:"p25"`
	Median     float64  `json:"median"`
	P75        float64  `json:"p75"`
	Max        float64  `json:"max"`
	Outliers   int      `json:"outliers"`
	OutlierPct float64  `json:"outlier_pct"`
}

// ValueCount is one entry of a frequency table
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TextSummary covers text and boolean columns
type TextSummary struct {
	Top          []ValueCount `json:"top"`
	MinLength    int          `json:"min_length"`
	MaxLength    int          `json:"max_length"`
	AvgLength    float64      `json:"avg_length"`
	EmptyStrings int          `json:"empty_strings"`
}

// DatetimeSummary is the span of a datetime column
type DatetimeSummary struct {
	Earliest  time.Time `json:"earliest"`
	Latest    time.Time `json:"latest"`
	RangeDays int       `json:"range_days"`
}

// ProfileFields computes per-field statistics for a table.
// An empty or malformed table yields a report with no fields.
func ProfileFields(name string, table *contracts.Table) FieldsReport {
	report := FieldsReport{
		Dataset:         name,
		Fields:          []FieldProfile{},
		LowCompleteness: []string{},
		Types:           []TypeGroup{},
	}
	if table.IsEmpty() {
		return report
	}
	report.Rows = table.NumRows()

	groups := make(map[contracts.ColumnType]int)
	for j, col := range table.Columns {
		fp := profileField(col, table.Values(j))
		report.Fields = append(report.Fields, fp)

		gi, ok := groups[col.Type]
		if !ok {
			gi = len(report.Types)
			groups[col.Type] = gi
			report.Types = append(report.Types, TypeGroup{Type: col.Type})
		}
		report.Types[gi].Count++
		report.Types[gi].Fields = append(report.Types[gi].Fields, col.Name)
	}

	low := make([]FieldProfile, 0)
	for _, fp := range report.Fields {
		if fp.Completeness < LowFieldCompleteness {
			low = append(low, fp)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		return low[i].Completeness < low[j].Completeness
	})
	for _, fp := range low {
		report.LowCompleteness = append(report.LowCompleteness, fp.Name)
	}

	return report
}

func profileField(col contracts.Column, values []any) FieldProfile {
	fp := FieldProfile{Name: col.Name, Type: col.Type}

	nonNull := make([]any, 0, len(values))
	for _, v := range values {
		if contracts.IsNull(v) {
			fp.Null++
			continue
		}
		nonNull = append(nonNull, v)
	}
	fp.NonNull = len(nonNull)
	fp.Completeness, _ = percent(fp.NonNull, len(values))

	distinct := make(map[string]struct{}, len(nonNull))
	for _, v := range nonNull {
		distinct[keyPart(v)] = struct{}{}
	}
	fp.Unique = len(distinct)
	fp.UniquePct, _ = percent(fp.Unique, fp.NonNull)

	if fp.NonNull == 0 {
		return fp
	}
	switch col.Type {
	case contracts.ColumnNumeric:
		fp.Numeric = summarizeNumeric(nonNull)
	case contracts.ColumnDatetime:
		fp.Datetime = summarizeDatetime(nonNull)
	default:
		fp.Text = summarizeText(nonNull)
	}
	return fp
}

func summarizeNumeric(values []any) *NumericSummary {
	var xs []float64
	for _, v := range values {
		if f, ok := contracts.AsFloat(v); ok && !math.IsInf(f, 0) {
			xs = append(xs, f)
		}
	}
	if len(xs) == 0 {
		return nil
	}
	sort.Float64s(xs)

	s := &NumericSummary{
		Count:  len(xs),
		Mean:   mean(xs),
		Min:    xs[0],
		P25:    quantileSorted(xs, 0.25),
		Median: quantileSorted(xs, 0.5),
		P75:    quantileSorted(xs, 0.75),
		Max:    xs[len(xs)-1],
	}
	if sd := sampleStdDev(xs); !math.IsNaN(sd) {
		s.Std = &sd
	}

	iqr := s.P75 - s.P25
	lower := s.P25 - FieldOutlierIQRMultiplier*iqr
	upper := s.P75 + FieldOutlierIQRMultiplier*iqr
	for _, x := range xs {
		if x < lower || x > upper {
			s.Outliers++
		}
	}
	s.OutlierPct, _ = percent(s.Outliers, len(xs))
	return s
}

// summarizeText counts values by their rendered form, most frequent first,
// ties in order of first appearance
func summarizeText(values []any) *TextSummary {
	s := &TextSummary{MinLength: math.MaxInt}

	counts := make(map[string]int, len(values))
	var order []string
	total := 0
	for _, v := range values {
		str := cast.ToString(v)
		if _, seen := counts[str]; !seen {
			order = append(order, str)
		}
		counts[str]++

		n := utf8.RuneCountInString(str)
		total += n
		s.MinLength = min(s.MinLength, n)
		s.MaxLength = max(s.MaxLength, n)
		if str == "" {
			s.EmptyStrings++
		}
	}
	s.AvgLength = float64(total) / float64(len(values))

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > TopValuesLimit {
		order = order[:TopValuesLimit]
	}
	s.Top = make([]ValueCount, len(order))
	for i, v := range order {
		s.Top[i] = ValueCount{Value: v, Count: counts[v]}
	}
	return s
}

func summarizeDatetime(values []any) *DatetimeSummary {
	var s *DatetimeSummary
	for _, v := range values {
		ts, ok := contracts.AsTime(v)
		if !ok {
			continue
		}
		if s == nil {
			s = &DatetimeSummary{Earliest: ts, Latest: ts}
			continue
		}
		if ts.Before(s.Earliest) {
			s.Earliest = ts
		}
		if ts.After(s.Latest) {
			s.Latest = ts
		}
	}
	if s != nil {
		s.RangeDays = int(s.Latest.Sub(s.Earliest) / (24 * time.Hour))
	}
	return s
}
