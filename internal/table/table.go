package table

import (
	"math"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
)

// Row is one candidate. Values holds the numeric columns, Extra the
// non-numeric ones, which are carried through filters untouched.
type Row struct {
	ID     string             `json:"id"`
	Values map[string]float64 `json:"values"`
	Extra  map[string]string  `json:"extra,omitempty"`
}

// Table is an ordered sequence of candidate rows. Row positions are the
// indices used by every derived matrix in a pipeline run.
type Table struct {
	IDColumn string   `json:"id_column"`
	Columns  []string `json:"columns"`
	Rows     []Row    `json:"rows"`
}

func (t *Table) Len() int { return len(t.Rows) }

// Value returns the numeric value of column name at row position i.
func (t *Table) Value(i int, name string) float64 { return t.Rows[i].Values[name] }

// Column returns the numeric values of one column in row order.
func (t *Table) Column(name string) []float64 {
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[name]
	}
	return out
}

func (t *Table) IDs() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.ID
	}
	return out
}

// Check verifies that every criterion is a column of the table and that
// each row carries a finite numeric value for it.
func (t *Table) Check(reg *criteria.Registry) error {
	if err := reg.Require(t.Columns); err != nil {
		return err
	}
	for i, r := range t.Rows {
		for _, name := range reg.Names() {
			v, ok := r.Values[name]
			if !ok {
				return criteria.Configf("table."+name, "row %d (%s) has no numeric value", i, r.ID)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return criteria.Configf("table."+name, "row %d (%s) has non-finite value %v", i, r.ID, v)
			}
		}
	}
	return nil
}

// Clone deep-copies the table so callers can rewrite values freely.
func (t *Table) Clone() *Table {
	out := &Table{
		IDColumn: t.IDColumn,
		Columns:  append([]string(nil), t.Columns...),
		Rows:     make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = cloneRow(r)
	}
	return out
}

// Subset returns a new table holding the rows at the given positions, in
// that order, re-indexed from zero.
func (t *Table) Subset(positions []int) *Table {
	out := &Table{
		IDColumn: t.IDColumn,
		Columns:  append([]string(nil), t.Columns...),
		Rows:     make([]Row, 0, len(positions)),
	}
	for _, p := range positions {
		out.Rows = append(out.Rows, cloneRow(t.Rows[p]))
	}
	return out
}

// Names maps row positions back to candidate identifiers.
func (t *Table) Names(positions []int) []string {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = t.Rows[p].ID
	}
	return out
}

func cloneRow(r Row) Row {
	out := Row{ID: r.ID, Values: make(map[string]float64, len(r.Values))}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
