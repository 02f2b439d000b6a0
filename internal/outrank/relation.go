// Package outrank implements the pairwise ELECTRE relations: concordance,
// discordance, thresholded outranking, and the exploitation procedure that
// turns two outranking relations into ranked tiers.
package outrank

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// vetoed is shared by Concordance and Discordance so both agree on which
// pairs are blocked.
func vetoed(a, b table.Row, reg *criteria.Registry) bool {
	for k := 0; k < reg.Len(); k++ {
		c := reg.At(k)
		if c.Vetoes(a.Values[c.Name], b.Values[c.Name]) {
			return true
		}
	}
	return false
}

// Concordance sums the weights of the criteria on which a is at least as
// good as b. Any veto makes the whole cell undefined.
func Concordance(a, b table.Row, reg *criteria.Registry) Score {
	if vetoed(a, b, reg) {
		return Undefined()
	}
	var sum float64
	for k := 0; k < reg.Len(); k++ {
		c := reg.At(k)
		if c.AtLeastAsGood(a.Values[c.Name], b.Values[c.Name]) {
			sum += c.Weight
		}
	}
	return Value(sum)
}

// Discordance is the largest margin by which b beats a beyond indifference
// on a single criterion, 0 when b never does. Any veto makes it undefined.
func Discordance(a, b table.Row, reg *criteria.Registry) Score {
	if vetoed(a, b, reg) {
		return Undefined()
	}
	var worst float64
	for k := 0; k < reg.Len(); k++ {
		c := reg.At(k)
		av, bv := a.Values[c.Name], b.Values[c.Name]
		if c.Worse(av, bv) {
			worst = math.Max(worst, math.Abs(bv-av))
		}
	}
	return Value(worst)
}

// ConcordanceMatrix evaluates Concordance for every ordered pair i != j.
func ConcordanceMatrix(t *table.Table, reg *criteria.Registry) (ScoreMatrix, error) {
	if err := t.Check(reg); err != nil {
		return nil, err
	}
	return pairwise(t, func(a, b table.Row) Score { return Concordance(a, b, reg) }), nil
}

// DiscordanceMatrix evaluates Discordance for every ordered pair i != j.
func DiscordanceMatrix(t *table.Table, reg *criteria.Registry) (ScoreMatrix, error) {
	if err := t.Check(reg); err != nil {
		return nil, err
	}
	return pairwise(t, func(a, b table.Row) Score { return Discordance(a, b, reg) }), nil
}

// pairwise fills an n×n matrix one row per goroutine. Cells only read the
// two rows and the registry, so the only synchronization is the final Wait.
func pairwise(t *table.Table, cell func(a, b table.Row) Score) ScoreMatrix {
	n := t.Len()
	m := NewScoreMatrix(n)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			for j := 0; j < n; j++ {
				if i != j {
					m[i][j] = cell(t.Rows[i], t.Rows[j])
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return m
}
