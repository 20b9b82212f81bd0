package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// ColumnType is the inferred primitive type of a column
type ColumnType string

const (
	ColumnNumeric  ColumnType = "numeric"
	ColumnText     ColumnType = "text"
	ColumnBoolean  ColumnType = "boolean"
	ColumnDatetime ColumnType = "datetime"
)

// Valid reports whether t is one of the four known column types
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnNumeric, ColumnText, ColumnBoolean, ColumnDatetime:
		return true
	}
	return false
}

// ErrMalformedTable is returned when rows and header disagree
var ErrMalformedTable = errors.New("malformed table")

// Column is a named, typed table column
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is one master data dataset: an ordered header and ordered rows.
// Cell values are nil (null), numeric Go kinds, string, bool or time.Time.
// ⭐ SSOT: Data Source → Quality Analyzer 입력 형식
type Table struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// NewTable builds a table and checks that every row matches the header
func NewTable(columns []Column, rows [][]any) (*Table, error) {
	t := &Table{Columns: columns, Rows: rows}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks header and row shape
func (t *Table) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrMalformedTable)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: column without name", ErrMalformedTable)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrMalformedTable, c.Name)
		}
		seen[c.Name] = struct{}{}
		if !c.Type.Valid() {
			return fmt.Errorf("%w: column %q has unknown type %q", ErrMalformedTable, c.Name, c.Type)
		}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrMalformedTable, i, len(row), len(t.Columns))
		}
	}
	return nil
}

// IsEmpty is true for a nil table, zero rows, zero columns, or a malformed table
func (t *Table) IsEmpty() bool {
	if t == nil || len(t.Rows) == 0 || len(t.Columns) == 0 {
		return true
	}
	return t.Validate() != nil
}

// NumRows returns the row count
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Size returns rows × columns
func (t *Table) Size() int {
	if t == nil {
		return 0
	}
	return len(t.Rows) * len(t.Columns)
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column
func (t *Table) Column(name string) (Column, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return Column{}, false
	}
	return t.Columns[idx], true
}

// HasColumns reports whether every named column exists
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if t.ColumnIndex(n) < 0 {
			return false
		}
	}
	return true
}

// ColumnNames returns the header names in order
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Values returns the cells of column idx in row order
func (t *Table) Values(idx int) []any {
	if t == nil || idx < 0 || idx >= len(t.Columns) {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out
}

// NonNull returns the non-null cells of column idx
func (t *Table) NonNull(idx int) []any {
	vals := t.Values(idx)
	out := vals[:0:0]
	for _, v := range vals {
		if !IsNull(v) {
			out = append(out, v)
		}
	}
	return out
}

// IsNull treats nil and NaN floats as missing
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case *time.Time:
		return x == nil
	}
	return false
}

// AsFloat returns the value of a numeric cell. Strings and bools are not numeric.
func AsFloat(v any) (float64, bool) {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		f, err := cast.ToFloat64E(v)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsTime returns the value of a datetime cell
func AsTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case *time.Time:
		if x != nil {
			return *x, true
		}
	}
	return time.Time{}, false
}

// MarshalJSON writes NaN cells as null and times as RFC3339
func (t Table) MarshalJSON() ([]byte, error) {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]any, len(row))
		for j, v := range row {
			if IsNull(v) {
				continue
			}
			if ts, ok := AsTime(v); ok {
				out[j] = ts.Format(time.RFC3339Nano)
				continue
			}
			out[j] = v
		}
		rows[i] = out
	}
	type wire struct {
		Columns []Column `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}
	return json.Marshal(wire{Columns: t.Columns, Rows: rows})
}

// UnmarshalJSON restores cell types from the column header
func (t *Table) UnmarshalJSON(data []byte) error {
	var wire struct {
		Columns []Column          `json:"columns"`
		Rows    []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	rows := make([][]any, len(wire.Rows))
	for i, raw := range wire.Rows {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var cells []any
		if err := dec.Decode(&cells); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if len(cells) != len(wire.Columns) {
			return fmt.Errorf("%w: row %d has %d cells, header has %d", ErrMalformedTable, i, len(cells), len(wire.Columns))
		}
		for j, v := range cells {
			cell, err := coerceCell(wire.Columns[j].Type, v)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, wire.Columns[j].Name, err)
			}
			cells[j] = cell
		}
		rows[i] = cells
	}

	t.Columns = wire.Columns
	t.Rows = rows
	return nil
}

// coerceCell converts a decoded JSON value to the Go type of its column
func coerceCell(ct ColumnType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch ct {
	case ColumnNumeric:
		if n, ok := v.(json.Number); ok {
			return cast.ToFloat64E(n)
		}
		// a non-numeric value in a numeric column is kept as-is
		return v, nil
	case ColumnBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return v, nil
	case ColumnDatetime:
		if s, ok := v.(string); ok {
			if ts, ok := ParseDateTime(s); ok {
				return ts, nil
			}
		}
		return v, nil
	default:
		if n, ok := v.(json.Number); ok {
			return cast.ToFloat64E(n)
		}
		return v, nil
	}
}
