package outrank

import (
	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// ElectreIResult carries the matrices of a single-threshold analysis.
type ElectreIResult struct {
	Concordance ScoreMatrix   `json:"concordance"`
	Discordance ScoreMatrix   `json:"discordance"`
	Outranking  VerdictMatrix `json:"outranking"`
}

// ElectreI builds the outranking relation of t under one threshold pair.
// t and reg are expected to be normalized already.
func ElectreI(t *table.Table, reg *criteria.Registry, th Thresholds) (*ElectreIResult, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	conc, err := ConcordanceMatrix(t, reg)
	if err != nil {
		return nil, err
	}
	disc, err := DiscordanceMatrix(t, reg)
	if err != nil {
		return nil, err
	}
	return &ElectreIResult{
		Concordance: conc,
		Discordance: disc,
		Outranking:  Threshold(conc, disc, th.Concordance, th.Discordance, reg.TotalWeight()),
	}, nil
}

// Relations holds the two outranking relations of an ELECTRE II analysis.
// Concordance is the obstructive-free matrix both relations were built from.
type Relations struct {
	Concordance ScoreMatrix   `json:"concordance"`
	Discordance ScoreMatrix   `json:"discordance"`
	High        VerdictMatrix `json:"high"`
	Low         VerdictMatrix `json:"low"`
}

// ElectreII builds the high and low outranking relations:
//
//	high = Threshold(CHigh, DHigh), falling back to Threshold(CMedium, DLow)
//	low  = Threshold(CLow, DHigh)
//
// both on the concordance matrix with obstructive pairs removed.
func ElectreII(t *table.Table, reg *criteria.Registry, f FiveTuple) (*Relations, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	raw, err := ConcordanceMatrix(t, reg)
	if err != nil {
		return nil, err
	}
	disc, err := DiscordanceMatrix(t, reg)
	if err != nil {
		return nil, err
	}
	conc := RemoveObstructive(raw)
	total := reg.TotalWeight()

	strict := Threshold(conc, disc, f.CHigh, f.DHigh, total)
	medium := Threshold(conc, disc, f.CMedium, f.DLow, total)
	return &Relations{
		Concordance: conc,
		Discordance: disc,
		High:        Fallback(strict, medium),
		Low:         Threshold(conc, disc, f.CLow, f.DHigh, total),
	}, nil
}

// Rank runs ElectreII and exploits its relations into tiers of row
// positions, best first.
func Rank(t *table.Table, reg *criteria.Registry, f FiveTuple, policy StallPolicy) ([][]int, *Relations, error) {
	rel, err := ElectreII(t, reg, f)
	if err != nil {
		return nil, nil, err
	}
	tiers, err := Exploit(rel.High, rel.Low, policy)
	return tiers, rel, err
}
