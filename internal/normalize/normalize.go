// Package normalize rescales criterion columns to a common [0, 1] range and
// rescales indifference and veto thresholds to match.
package normalize

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// Policy decides what happens to a column whose values are all equal.
type Policy string

const (
	// PolicyFail rejects a zero-range column with DegenerateCriterionError.
	PolicyFail Policy = "fail"
	// PolicyZero maps a zero-range column to 0 for every row and leaves the
	// criterion's thresholds as they are.
	PolicyZero Policy = "zero"
)

var ErrDegenerateCriterion = errors.New("degenerate criterion")

// DegenerateCriterionError reports a criterion column with max == min.
type DegenerateCriterionError struct {
	Criterion string
	Value     float64
}

func (e *DegenerateCriterionError) Error() string {
	return fmt.Sprintf("degenerate criterion %s: every value is %g", e.Criterion, e.Value)
}

func (e *DegenerateCriterionError) Unwrap() error { return ErrDegenerateCriterion }

type Options struct {
	// UseWeight multiplies each rescaled column by its criterion weight.
	UseWeight  bool
	Degenerate Policy
}

type bounds struct {
	min, max float64
}

func (b bounds) span() float64 { return b.max - b.min }

// Table returns a copy of t where every criterion column is rescaled to
// [0, 1]. Minimize columns are reflected first so that 1 is always best.
// Column bounds are taken from t before any row is rewritten.
func Table(t *table.Table, reg *criteria.Registry, opts Options) (*table.Table, error) {
	if err := t.Check(reg); err != nil {
		return nil, err
	}
	out := t.Clone()
	if t.Len() == 0 {
		return out, nil
	}

	all, err := columnBounds(t, reg, opts.Degenerate)
	if err != nil {
		return nil, err
	}

	for k := 0; k < reg.Len(); k++ {
		c := reg.At(k)
		b := all[k]
		for i := range out.Rows {
			out.Rows[i].Values[c.Name] = rescale(c, b, t.Value(i, c.Name), opts.UseWeight)
		}
	}
	return out, nil
}

// Criteria returns a new registry whose nonzero indifference and veto
// thresholds are divided by the range of the matching column of t, so they
// stay meaningful against the output of Table. reg is not modified.
func Criteria(t *table.Table, reg *criteria.Registry, policy Policy) (*criteria.Registry, error) {
	if err := t.Check(reg); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return reg.Map(func(c criteria.Criterion) criteria.Criterion { return c }), nil
	}
	all, err := columnBounds(t, reg, policy)
	if err != nil {
		return nil, err
	}
	spans := make(map[string]float64, reg.Len())
	for k := 0; k < reg.Len(); k++ {
		spans[reg.At(k).Name] = all[k].span()
	}
	return reg.Map(func(c criteria.Criterion) criteria.Criterion {
		span := spans[c.Name]
		if span == 0 {
			return c
		}
		if c.Indifference != 0 {
			c.Indifference /= span
		}
		if c.Veto != 0 {
			c.Veto /= span
		}
		return c
	}), nil
}

func columnBounds(t *table.Table, reg *criteria.Registry, policy Policy) ([]bounds, error) {
	out := make([]bounds, reg.Len())
	for k := 0; k < reg.Len(); k++ {
		name := reg.At(k).Name
		b := bounds{min: t.Value(0, name), max: t.Value(0, name)}
		for i := 1; i < t.Len(); i++ {
			v := t.Value(i, name)
			if v < b.min {
				b.min = v
			}
			if v > b.max {
				b.max = v
			}
		}
		if b.span() == 0 && policy != PolicyZero {
			return nil, &DegenerateCriterionError{Criterion: name, Value: b.min}
		}
		out[k] = b
	}
	return out, nil
}

func rescale(c criteria.Criterion, b bounds, v float64, useWeight bool) float64 {
	span := b.span()
	if span == 0 {
		return 0
	}
	var scaled float64
	if c.Direction == criteria.Minimize {
		scaled = (b.max - v) / span
	} else {
		scaled = (v - b.min) / span
	}
	if useWeight {
		scaled *= c.Weight
	}
	return scaled
}

// Reflected returns a copy of reg with every direction set to maximize,
// which is how the criteria read against the output of Table. Thresholds
// are symmetric and carry over unchanged.
func Reflected(reg *criteria.Registry) *criteria.Registry {
	return reg.Map(func(c criteria.Criterion) criteria.Criterion {
		c.Direction = criteria.Maximize
		return c
	})
}
