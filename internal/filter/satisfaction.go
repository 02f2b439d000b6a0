// Package filter holds the cheap pre-filters that shrink the candidate set
// before the pairwise outranking methods run.
package filter

import (
	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// Unsatisfactory reports whether row i fails the satisfaction profile.
// Criteria are scanned in registry order. A veto breach against the target
// ends the scan with the row classified satisfactory; the first criterion
// whose target is missed beyond indifference ends it as unsatisfactory.
func Unsatisfactory(t *table.Table, i int, reg *criteria.Registry) bool {
	for k := 0; k < reg.Len(); k++ {
		c := reg.At(k)
		if c.Satisfaction == nil {
			continue
		}
		v := t.Value(i, c.Name)
		if c.Vetoes(v, *c.Satisfaction) {
			return false
		}
		if c.Unsatisfactory(v) {
			return true
		}
	}
	return false
}

// Satisfying returns the positions of the rows that meet the satisfaction
// targets carried by reg, in table order.
func Satisfying(t *table.Table, reg *criteria.Registry) ([]int, error) {
	if err := t.Check(reg); err != nil {
		return nil, err
	}
	if err := reg.RequireSatisfaction(); err != nil {
		return nil, err
	}
	kept := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if !Unsatisfactory(t, i, reg) {
			kept = append(kept, i)
		}
	}
	return kept, nil
}
