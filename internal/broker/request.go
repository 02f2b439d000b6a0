package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/pipeline"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

var ErrInvalidRequest = errors.New("invalid analysis request")

var validate = validator.New()

// Candidate is one row of an analysis request.
type Candidate struct {
	ID     string             `json:"id" validate:"required"`
	Values map[string]float64 `json:"values" validate:"required"`
	Extra  map[string]string  `json:"extra,omitempty"`
}

// Request is the body of POST /api/v1/analyses and of messages on
// arbiter.analysis.request. Options is merged over the server defaults, so
// a request only names the fields it changes.
type Request struct {
	Name              string             `json:"name,omitempty"`
	Criteria          *criteria.Registry `json:"criteria" validate:"required"`
	DominanceCriteria *criteria.Registry `json:"dominance_criteria,omitempty"`
	Candidates        []Candidate        `json:"candidates" validate:"required,min=1,dive"`
	Options           json.RawMessage    `json:"options,omitempty"`
}

// Build turns the request into pipeline input. maxCandidates <= 0 means
// no limit. Every error wraps ErrInvalidRequest.
func (r Request) Build(defaults pipeline.Options, maxCandidates int) (pipeline.Input, pipeline.Options, error) {
	in, opts, err := r.build(defaults, maxCandidates)
	if err != nil {
		return pipeline.Input{}, pipeline.Options{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return in, opts, nil
}

func (r Request) build(defaults pipeline.Options, maxCandidates int) (pipeline.Input, pipeline.Options, error) {
	if err := validate.Struct(r); err != nil {
		return pipeline.Input{}, pipeline.Options{}, criteria.Configf("request", "%v", err)
	}
	if maxCandidates > 0 && len(r.Candidates) > maxCandidates {
		return pipeline.Input{}, pipeline.Options{}, criteria.Configf("candidates", "%d candidates exceeds the limit of %d", len(r.Candidates), maxCandidates)
	}

	opts := defaults
	if len(r.Options) > 0 {
		if err := json.Unmarshal(r.Options, &opts); err != nil {
			return pipeline.Input{}, pipeline.Options{}, criteria.Configf("options", "%v", err)
		}
	}
	if err := opts.Validate(); err != nil {
		return pipeline.Input{}, pipeline.Options{}, err
	}

	tbl, err := r.table()
	if err != nil {
		return pipeline.Input{}, pipeline.Options{}, err
	}
	in := pipeline.Input{Table: tbl, Criteria: r.Criteria, DominanceCriteria: r.DominanceCriteria}
	if err := tbl.Check(r.Criteria); err != nil {
		return pipeline.Input{}, pipeline.Options{}, err
	}
	if r.DominanceCriteria != nil {
		if err := tbl.Check(r.DominanceCriteria); err != nil {
			return pipeline.Input{}, pipeline.Options{}, err
		}
	}
	return in, opts, nil
}

// table lays the candidates out with the id column first, then the numeric
// columns, then the text columns, each group sorted by name.
func (r Request) table() (*table.Table, error) {
	const idColumn = "id"
	seen := make(map[string]bool, len(r.Candidates))
	numeric := map[string]bool{}
	text := map[string]bool{}
	t := &table.Table{IDColumn: idColumn, Rows: make([]table.Row, 0, len(r.Candidates))}

	for _, c := range r.Candidates {
		if seen[c.ID] {
			return nil, criteria.Configf("candidates."+c.ID, "duplicate candidate id")
		}
		seen[c.ID] = true
		row := table.Row{ID: c.ID, Values: make(map[string]float64, len(c.Values))}
		for k, v := range c.Values {
			row.Values[k] = v
			numeric[k] = true
		}
		if len(c.Extra) > 0 {
			row.Extra = make(map[string]string, len(c.Extra))
			for k, v := range c.Extra {
				row.Extra[k] = v
				text[k] = true
			}
		}
		t.Rows = append(t.Rows, row)
	}

	t.Columns = append([]string{idColumn}, sortedKeys(numeric)...)
	for _, k := range sortedKeys(text) {
		if !numeric[k] && k != idColumn {
			t.Columns = append(t.Columns, k)
		}
	}
	return t, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
