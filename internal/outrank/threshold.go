package outrank

import (
	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
)

// Thresholds is the ELECTRE I pair. Both values are fractions in [0, 1]:
// the concordance threshold is scaled by the total criterion weight and the
// discordance threshold by the largest discordance observed.
type Thresholds struct {
	Concordance float64 `yaml:"concordance" json:"concordance" validate:"gte=0,lte=1"`
	Discordance float64 `yaml:"discordance" json:"discordance" validate:"gte=0,lte=1"`
}

func (t Thresholds) Validate() error {
	if !unit(t.Concordance) {
		return criteria.Configf("thresholds.concordance", "%g not in [0, 1]", t.Concordance)
	}
	if !unit(t.Discordance) {
		return criteria.Configf("thresholds.discordance", "%g not in [0, 1]", t.Discordance)
	}
	return nil
}

// FiveTuple is the ELECTRE II threshold set.
//
//	high   = (CHigh, DHigh), falling back to medium = (CMedium, DLow)
//	low    = (CLow, DHigh)
type FiveTuple struct {
	CHigh   float64 `yaml:"c_high" json:"c_high" validate:"gte=0,lte=1"`
	CMedium float64 `yaml:"c_medium" json:"c_medium" validate:"gte=0,lte=1"`
	CLow    float64 `yaml:"c_low" json:"c_low" validate:"gte=0,lte=1"`
	DHigh   float64 `yaml:"d_high" json:"d_high" validate:"gte=0,lte=1"`
	DLow    float64 `yaml:"d_low" json:"d_low" validate:"gte=0,lte=1"`
}

// DefaultFiveTuple is the threshold set used by the reference analysis.
func DefaultFiveTuple() FiveTuple {
	return FiveTuple{CHigh: 0.95, CMedium: 0.6, CLow: 0.3, DHigh: 0.6, DLow: 0.3}
}

func (f FiveTuple) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"c_high", f.CHigh}, {"c_medium", f.CMedium}, {"c_low", f.CLow},
		{"d_high", f.DHigh}, {"d_low", f.DLow},
	}
	for _, fv := range fields {
		if !unit(fv.v) {
			return criteria.Configf("thresholds."+fv.name, "%g not in [0, 1]", fv.v)
		}
	}
	if f.CHigh < f.CMedium || f.CMedium < f.CLow {
		return criteria.Configf("thresholds", "need c_high >= c_medium >= c_low, got %g, %g, %g", f.CHigh, f.CMedium, f.CLow)
	}
	if f.DLow > f.DHigh {
		return criteria.Configf("thresholds", "need d_low <= d_high, got %g > %g", f.DLow, f.DHigh)
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

// Threshold turns concordance and discordance matrices into an outranking
// relation. c is scaled by totalWeight, d by the largest defined
// discordance (0 when there is none). A cell whose concordance or
// discordance is undefined stays undefined.
func Threshold(conc, disc ScoreMatrix, c, d, totalWeight float64) VerdictMatrix {
	scaledC := c * totalWeight
	maxD, _ := disc.Max()
	scaledD := d * maxD

	n := conc.Len()
	out := NewVerdictMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			cv, cok := conc[i][j].Float()
			dv, dok := disc[i][j].Float()
			switch {
			case !cok || !dok:
				out[i][j] = VerdictUndefined
			case cv >= scaledC && dv <= scaledD:
				out[i][j] = VerdictTrue
			default:
				out[i][j] = VerdictFalse
			}
		}
	}
	return out
}

// RemoveObstructive returns a copy of conc where both cells of every pair
// with two defined but unequal concordances are undefined. This drops
// weakly supported mutual edges before thresholding.
func RemoveObstructive(conc ScoreMatrix) ScoreMatrix {
	out := conc.Clone()
	n := out.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ij, ijok := conc[i][j].Float()
			ji, jiok := conc[j][i].Float()
			if ijok && jiok && ij != ji {
				out[i][j] = Undefined()
				out[j][i] = Undefined()
			}
		}
	}
	return out
}

// Fallback keeps every true cell of strict and takes the lenient verdict
// everywhere else, so a strict false is replaced as well as an undefined
// cell.
func Fallback(strict, lenient VerdictMatrix) VerdictMatrix {
	n := strict.Len()
	out := NewVerdictMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if strict[i][j] == VerdictTrue {
				out[i][j] = VerdictTrue
			} else {
				out[i][j] = lenient[i][j]
			}
		}
	}
	return out
}
