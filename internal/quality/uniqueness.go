package quality

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/mdhealth/internal/contracts"
)

// keyFields resolves the uniqueness key.
// Registered types use their declared keys; others take the first
// identifier-like column. complete is false when a declared key column is absent.
func (d *dataset) keyFields() (keys []string, complete bool) {
	if d.registered {
		if len(d.profile.KeyFields) == 0 {
			return nil, true
		}
		return d.profile.KeyFields, d.table.HasColumns(d.profile.KeyFields...)
	}
	for _, col := range d.table.Columns {
		if Classify(col.Name).IsIdentifier() {
			return []string{col.Name}, true
		}
	}
	return nil, true
}

// uniqueness is 100·distinct key combinations / rows.
// Nulls take part in the comparison as a value of their own.
func (d *dataset) uniqueness() float64 {
	keys, complete := d.keyFields()
	if len(keys) == 0 {
		return DefaultUniquenessNoKeys
	}
	if !complete {
		return DefaultUniquenessMissingKeys
	}

	idx := make([]int, len(keys))
	for i, k := range keys {
		idx[i] = d.table.ColumnIndex(k)
	}

	seen := make(map[string]struct{}, d.table.NumRows())
	var b strings.Builder
	for _, row := range d.table.Rows {
		b.Reset()
		for i, j := range idx {
			if i > 0 {
				b.WriteByte(0x1f)
			}
			b.WriteString(keyPart(row[j]))
		}
		seen[b.String()] = struct{}{}
	}

	score, ok := percent(len(seen), d.table.NumRows())
	if !ok {
		return 0
	}
	return score
}

// keyPart renders a cell so equal values compare equal across numeric kinds
func keyPart(v any) string {
	if contracts.IsNull(v) {
		return "\x00"
	}
	if f, ok := contracts.AsFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	if ts, ok := contracts.AsTime(v); ok {
		return "t:" + ts.UTC().Format(time.RFC3339Nano)
	}
	switch x := v.(type) {
	case string:
		return "s:" + x
	case bool:
		return "b:" + strconv.FormatBool(x)
	}
	return fmt.Sprintf("%T:%v", v, v)
}
