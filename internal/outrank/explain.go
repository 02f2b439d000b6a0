package outrank

import (
	"math"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// CriterionComparison is one criterion's contribution to the ordered pair (a, b).
type CriterionComparison struct {
	Name          string  `json:"name"`
	A             float64 `json:"a"`
	B             float64 `json:"b"`
	Weight        float64 `json:"weight"`
	AtLeastAsGood bool    `json:"at_least_as_good"`
	Discordance   float64 `json:"discordance"`
	Vetoed        bool    `json:"vetoed"`
}

// PairExplanation breaks Concordance and Discordance of (a, b) down per criterion.
type PairExplanation struct {
	A           string                `json:"a"`
	B           string                `json:"b"`
	Concordance Score                 `json:"concordance"`
	Discordance Score                 `json:"discordance"`
	Criteria    []CriterionComparison `json:"criteria"`
}

func Explain(a, b table.Row, reg *criteria.Registry) PairExplanation {
	out := PairExplanation{
		A:           a.ID,
		B:           b.ID,
		Concordance: Concordance(a, b, reg),
		Discordance: Discordance(a, b, reg),
		Criteria:    make([]CriterionComparison, 0, reg.Len()),
	}
	for k := 0; k < reg.Len(); k++ {
		c := reg.At(k)
		av, bv := a.Values[c.Name], b.Values[c.Name]
		cmp := CriterionComparison{
			Name:          c.Name,
			A:             av,
			B:             bv,
			Weight:        c.Weight,
			AtLeastAsGood: c.AtLeastAsGood(av, bv),
			Vetoed:        c.Vetoes(av, bv),
		}
		if c.Worse(av, bv) {
			cmp.Discordance = math.Abs(bv - av)
		}
		out.Criteria = append(out.Criteria, cmp)
	}
	return out
}
