package pipeline

import (
	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/filter"
	"github.com/MikeSquared-Agency/Arbiter/internal/normalize"
	"github.com/MikeSquared-Agency/Arbiter/internal/outrank"
)

// Prefilter names the filter whose survivors feed the ranking stages.
type Prefilter string

const (
	PrefilterDominance    Prefilter = "dominance"
	PrefilterSatisfaction Prefilter = "satisfaction"
	PrefilterNone         Prefilter = "none"
)

var validate = validator.New()

// Options tunes one analysis run. Start from DefaultOptions and override.
type Options struct {
	Prefilter  Prefilter           `yaml:"prefilter" json:"prefilter" validate:"oneof=dominance satisfaction none"`
	Dominance  filter.Mode         `yaml:"dominance" json:"dominance" validate:"oneof=outperform strict"`
	Degenerate normalize.Policy    `yaml:"degenerate" json:"degenerate" validate:"oneof=fail zero"`
	Stall      outrank.StallPolicy `yaml:"stall" json:"stall" validate:"oneof=fail collapse"`
	ElectreI   outrank.Thresholds  `yaml:"electre1" json:"electre1"`
	ElectreII  outrank.FiveTuple   `yaml:"electre2" json:"electre2"`
}

func DefaultOptions() Options {
	return Options{
		Prefilter:  PrefilterDominance,
		Dominance:  filter.ModeOutperform,
		Degenerate: normalize.PolicyFail,
		Stall:      outrank.StallFail,
		ElectreI:   outrank.Thresholds{Concordance: 0.95, Discordance: 0.6},
		ElectreII:  outrank.DefaultFiveTuple(),
	}
}

// Validate checks enum fields and both threshold sets.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return criteria.Configf("options", "%v", err)
	}
	if err := o.ElectreI.Validate(); err != nil {
		return err
	}
	return o.ElectreII.Validate()
}
