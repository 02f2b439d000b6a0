package scoring

import (
	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/normalize"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// Similarity ranks a normalized, weighted table by closeness to the ideal
// point. Distances are L1: the per-criterion gaps to the column maximum
// (ideal) and to the column minimum (anti-ideal) are summed, and
//
//	similarity = anti / (ideal + anti)
//
// rounded to four decimals, ascending. A row with both distances zero
// scores 0.
func Similarity(normalized *table.Table, reg *criteria.Registry) ([]Ranked, error) {
	if err := normalized.Check(reg); err != nil {
		return nil, err
	}
	n := normalized.Len()
	out := make([]Ranked, n)
	if n == 0 {
		return out, nil
	}

	best := make([]float64, reg.Len())
	worst := make([]float64, reg.Len())
	for k := 0; k < reg.Len(); k++ {
		col := normalized.Column(reg.At(k).Name)
		best[k], worst[k] = col[0], col[0]
		for _, v := range col[1:] {
			if v > best[k] {
				best[k] = v
			}
			if v < worst[k] {
				worst[k] = v
			}
		}
	}

	for i, row := range normalized.Rows {
		var ideal, anti float64
		for k := 0; k < reg.Len(); k++ {
			v := row.Values[reg.At(k).Name]
			ideal += best[k] - v
			anti += v - worst[k]
		}
		var sim float64
		if ideal+anti != 0 {
			sim = anti / (ideal + anti)
		}
		out[i] = Ranked{Position: i, ID: row.ID, Score: round4(sim), Extra: row.Extra}
	}
	sortAscending(out)
	return out, nil
}

// TOPSIS normalizes raw with weights applied and ranks it with Similarity.
func TOPSIS(raw *table.Table, reg *criteria.Registry, policy normalize.Policy) ([]Ranked, error) {
	n, err := normalize.Table(raw, reg, normalize.Options{UseWeight: true, Degenerate: policy})
	if err != nil {
		return nil, err
	}
	return Similarity(n, reg)
}
