package scoring

import (
	"math"
	"sort"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/normalize"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// Ranked is one candidate's score from a standalone scorer.
type Ranked struct {
	Position int               `json:"position"`
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// WeightedSum scores a normalized table (minimize columns reflected, values
// in [0, 1]) as the weighted sum of its criterion columns, rounded to four
// decimals. After normalization higher is always better, so the ascending
// result lists the worst candidate first. Ties keep table order.
func WeightedSum(normalized *table.Table, reg *criteria.Registry) ([]Ranked, error) {
	if err := normalized.Check(reg); err != nil {
		return nil, err
	}
	out := make([]Ranked, normalized.Len())
	for i, row := range normalized.Rows {
		var total float64
		for k := 0; k < reg.Len(); k++ {
			c := reg.At(k)
			total += row.Values[c.Name] * c.Weight
		}
		out[i] = Ranked{Position: i, ID: row.ID, Score: round4(total), Extra: row.Extra}
	}
	sortAscending(out)
	return out, nil
}

// Weighted normalizes raw without weights and ranks it with WeightedSum.
func Weighted(raw *table.Table, reg *criteria.Registry, policy normalize.Policy) ([]Ranked, error) {
	n, err := normalize.Table(raw, reg, normalize.Options{Degenerate: policy})
	if err != nil {
		return nil, err
	}
	return WeightedSum(n, reg)
}

func sortAscending(rs []Ranked) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Score < rs[j].Score })
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
