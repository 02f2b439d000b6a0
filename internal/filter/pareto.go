package filter

import (
	"fmt"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// Mode selects the dominance relation used by ParetoFront.
type Mode string

const (
	// ModeOutperform: B dominates A when no criterion vetoes the comparison
	// and B beats A beyond indifference on at least one criterion.
	ModeOutperform Mode = "outperform"
	// ModeStrict: classical Pareto. B must also be at least as good as A,
	// within indifference, on every criterion. Same veto escape.
	ModeStrict Mode = "strict"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeOutperform:
		return ModeOutperform, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", criteria.Configf("dominance.mode", "unknown mode %q", s)
}

// ParetoFront returns the positions of the rows not dominated by any other
// row, in table order. Rows are compared by position, so two distinct rows
// with identical values are still compared with each other.
// O(n^2 * k) for n rows and k criteria, fine for candidate sets in the
// tens to low hundreds.
func ParetoFront(t *table.Table, reg *criteria.Registry, mode Mode) ([]int, error) {
	if err := t.Check(reg); err != nil {
		return nil, err
	}
	if mode != ModeOutperform && mode != ModeStrict {
		return nil, fmt.Errorf("pareto front: %w", criteria.Configf("dominance.mode", "unknown mode %q", mode))
	}

	front := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		dominated := false
		for j := 0; j < t.Len(); j++ {
			if i == j {
				continue
			}
			if Dominates(t, j, i, reg, mode) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, i)
		}
	}
	return front, nil
}

// Dominates reports whether row b dominates row a. A veto breach on any
// criterion means a is not dominated by b, whatever the other criteria say.
func Dominates(t *table.Table, b, a int, reg *criteria.Registry, mode Mode) bool {
	better := false
	for k := 0; k < reg.Len(); k++ {
		c := reg.At(k)
		av, bv := t.Value(a, c.Name), t.Value(b, c.Name)
		if c.Vetoes(av, bv) {
			return false
		}
		if c.Worse(av, bv) {
			better = true
			continue
		}
		if mode == ModeStrict && c.Worse(bv, av) {
			return false
		}
	}
	return better
}
