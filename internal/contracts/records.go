package contracts

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field is one key/value pair of a record
type Field struct {
	Key   string
	Value any
}

// Record is an ordered set of fields, as returned by a remote source
type Record []Field

// Get returns the value stored under key
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// FromRecords builds a table from ordered records.
// Columns are the union of keys in first-seen order, missing keys are null,
// and each column's type is inferred from its values.
func FromRecords(records []Record) *Table {
	var names []string
	index := make(map[string]int)
	for _, rec := range records {
		for _, f := range rec {
			if _, ok := index[f.Key]; !ok {
				index[f.Key] = len(names)
				names = append(names, f.Key)
			}
		}
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(names))
		for _, f := range rec {
			row[index[f.Key]] = f.Value
		}
		rows[i] = row
	}

	columns := make([]Column, len(names))
	for j, name := range names {
		col := make([]any, len(rows))
		for i := range rows {
			col[i] = rows[i][j]
		}
		ct, converted := InferColumnType(col)
		columns[j] = Column{Name: name, Type: ct}
		if converted != nil {
			for i := range rows {
				rows[i][j] = converted[i]
			}
		}
	}

	return &Table{Columns: columns, Rows: rows}
}

// InferColumnType picks the column type from its non-null values.
// When every non-null value is a string that parses as a datetime, the
// column is datetime and the parsed values are returned in converted.
// An all-null column is text.
func InferColumnType(values []any) (ct ColumnType, converted []any) {
	var nNumeric, nBool, nTime, nString, nOther, nonNull int
	allDates := true

	for _, v := range values {
		if IsNull(v) {
			continue
		}
		nonNull++
		switch x := v.(type) {
		case bool:
			nBool++
		case time.Time, *time.Time:
			nTime++
		case string:
			nString++
			if allDates {
				if _, ok := ParseDateTime(x); !ok {
					allDates = false
				}
			}
		default:
			if _, ok := AsFloat(v); ok {
				nNumeric++
			} else {
				nOther++
			}
		}
	}

	switch {
	case nonNull == 0:
		return ColumnText, nil
	case nNumeric == nonNull:
		return ColumnNumeric, nil
	case nBool == nonNull:
		return ColumnBoolean, nil
	case nTime == nonNull:
		return ColumnDatetime, nil
	case nString+nTime == nonNull && nString > 0 && allDates:
		converted = make([]any, len(values))
		for i, v := range values {
			if s, ok := v.(string); ok {
				ts, _ := ParseDateTime(s)
				converted[i] = ts
				continue
			}
			if IsNull(v) {
				continue
			}
			converted[i] = v
		}
		return ColumnDatetime, converted
	}
	return ColumnText, nil
}

var odataDate = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDateTime accepts RFC3339, ISO dates without zone, and OData /Date(ms)/ literals.
// Zone-less values are read as UTC.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if m := odataDate.FindStringSubmatch(s); m != nil {
		ms, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
