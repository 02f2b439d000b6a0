package criteria

import (
	"encoding/json"
	"math"

	"gopkg.in/yaml.v3"
)

type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

// Criterion describes one evaluation dimension. Thresholds are expressed in
// the units of the column they apply to until the normalizer rescales them.
type Criterion struct {
	Name         string    `yaml:"name" json:"name" validate:"required"`
	Direction    Direction `yaml:"direction" json:"direction" validate:"required,oneof=maximize minimize"`
	Indifference float64   `yaml:"indifference" json:"indifference" validate:"gte=0"`
	Veto         float64   `yaml:"veto" json:"veto" validate:"gte=0"`
	Satisfaction *float64  `yaml:"satisfaction,omitempty" json:"satisfaction,omitempty"`
	Weight       float64   `yaml:"weight" json:"weight" validate:"gte=0"`
}

// UnmarshalJSON decodes a criterion, defaulting an omitted weight to 1.
func (c *Criterion) UnmarshalJSON(data []byte) error {
	type raw Criterion
	r := raw{Weight: 1}
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*c = Criterion(r)
	return nil
}

// UnmarshalYAML decodes a criterion, defaulting an omitted weight to 1.
func (c *Criterion) UnmarshalYAML(node *yaml.Node) error {
	type raw Criterion
	r := raw{Weight: 1}
	if err := node.Decode(&r); err != nil {
		return err
	}
	*c = Criterion(r)
	return nil
}

// Vetoes reports whether the gap between a and b exceeds the veto threshold.
// A zero veto never fires.
func (c Criterion) Vetoes(a, b float64) bool {
	return c.Veto != 0 && math.Abs(a-b) > c.Veto
}

// AtLeastAsGood reports whether a is at least as good as b once the
// indifference band is taken into account.
func (c Criterion) AtLeastAsGood(a, b float64) bool {
	switch c.Direction {
	case Maximize:
		return a+c.Indifference >= b
	case Minimize:
		return a-c.Indifference <= b
	}
	return false
}

// Worse reports whether a is worse than b beyond the indifference band.
// It is the exact complement of AtLeastAsGood for a known direction.
func (c Criterion) Worse(a, b float64) bool {
	switch c.Direction {
	case Maximize:
		return a+c.Indifference < b
	case Minimize:
		return a-c.Indifference > b
	}
	return false
}

// Unsatisfactory reports whether v misses the satisfaction target beyond
// the indifference band. Criteria without a target are never unsatisfactory.
func (c Criterion) Unsatisfactory(v float64) bool {
	if c.Satisfaction == nil {
		return false
	}
	return c.Worse(v, *c.Satisfaction)
}
