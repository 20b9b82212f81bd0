package demo

import "github.com/wonny/mdhealth/internal/contracts"

// frame is a row-major table under construction
type frame struct {
	cols  []contracts.Column
	index map[string]int
	rows  [][]any
}

func newFrame(cols ...contracts.Column) *frame {
	f := &frame{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		f.index[c.Name] = i
	}
	return f
}

func (f *frame) add(values ...any) {
	f.rows = append(f.rows, values)
}

func (f *frame) get(i int, col string) any {
	return f.rows[i][f.index[col]]
}

func (f *frame) set(i int, col string, v any) {
	f.rows[i][f.index[col]] = v
}

// each calls fn for every row selected with probability p
func (f *frame) each(g *rng, p float64, fn func(i int)) {
	for i := range f.rows {
		if g.chance(p) {
			fn(i)
		}
	}
}

// blank nulls each listed column independently with probability p
func (f *frame) blank(g *rng, p float64, cols ...string) {
	for _, c := range cols {
		f.each(g, p, func(i int) { f.set(i, c, nil) })
	}
}

func (f *frame) table() *contracts.Table {
	return &contracts.Table{Columns: f.cols, Rows: f.rows}
}

func text(name string) contracts.Column {
	return contracts.Column{Name: name, Type: contracts.ColumnText}
}

func number(name string) contracts.Column {
	return contracts.Column{Name: name, Type: contracts.ColumnNumeric}
}

func flag(name string) contracts.Column {
	return contracts.Column{Name: name, Type: contracts.ColumnBoolean}
}

func when(name string) contracts.Column {
	return contracts.Column{Name: name, Type: contracts.ColumnDatetime}
}
