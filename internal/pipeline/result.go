package pipeline

import (
	"github.com/MikeSquared-Agency/Arbiter/internal/scoring"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

// Stage names, used for logging, metrics, spans, and failures.
const (
	StageSatisfaction = "satisfaction"
	StageDominance    = "dominance"
	StageNormalize    = "normalize"
	StageWeighted     = "weighted"
	StageTOPSIS       = "topsis"
	StageElectreI     = "electre1"
	StageElectreII    = "electre2"
)

// Edge is a true outranking edge between two candidate identifiers.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Failure records a ranking stage that errored while the others ran on.
type Failure struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Result is everything one analysis run produced. Identifier lists keep
// table order; Weighted and Similarity are ascending (worst first); Tiers
// start with the best tier.
type Result struct {
	Candidates  int              `json:"candidates"`
	Satisfying  []string         `json:"satisfying,omitempty"`
	ParetoFront []string         `json:"pareto_front,omitempty"`
	Reduced     []string         `json:"reduced"`
	Weighted    []scoring.Ranked `json:"weighted,omitempty"`
	Similarity  []scoring.Ranked `json:"similarity,omitempty"`
	Outranking  []Edge           `json:"outranking,omitempty"`
	Tiers       [][]string       `json:"tiers,omitempty"`
	Warnings    []string         `json:"warnings,omitempty"`
	Failures    []Failure        `json:"failures,omitempty"`

	criteria   []string
	satisfying *table.Table
	front      *table.Table
	reduced    *table.Table
}

// Failed reports whether any ranking stage errored.
func (r *Result) Failed() bool { return len(r.Failures) > 0 }
