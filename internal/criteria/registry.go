package criteria

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Registry is an ordered, immutable set of criteria keyed by name.
// Insertion order is the iteration order everywhere.
type Registry struct {
	items []Criterion
	index map[string]int
}

// NewRegistry validates each criterion and builds a registry preserving the
// given order. Duplicate names and invalid fields are configuration errors.
func NewRegistry(cs ...Criterion) (*Registry, error) {
	if len(cs) == 0 {
		return nil, Configf("criteria", "at least one criterion is required")
	}
	r := &Registry{
		items: make([]Criterion, 0, len(cs)),
		index: make(map[string]int, len(cs)),
	}
	for _, c := range cs {
		if err := validate.Struct(c); err != nil {
			return nil, Configf("criteria."+c.Name, "%v", err)
		}
		if _, dup := r.index[c.Name]; dup {
			return nil, Configf("criteria."+c.Name, "duplicate criterion name")
		}
		r.index[c.Name] = len(r.items)
		r.items = append(r.items, cloneCriterion(c))
	}
	return r, nil
}

// MustRegistry is NewRegistry for literals known to be valid.
func MustRegistry(cs ...Criterion) *Registry {
	r, err := NewRegistry(cs...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Len() int { return len(r.items) }

// At returns the i-th criterion in registry order.
func (r *Registry) At(i int) Criterion { return r.items[i] }

// All returns a copy of the criteria in registry order.
func (r *Registry) All() []Criterion {
	out := make([]Criterion, len(r.items))
	for i, c := range r.items {
		out[i] = cloneCriterion(c)
	}
	return out
}

func (r *Registry) Get(name string) (Criterion, bool) {
	i, ok := r.index[name]
	if !ok {
		return Criterion{}, false
	}
	return r.items[i], true
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.items))
	for i, c := range r.items {
		out[i] = c.Name
	}
	return out
}

// TotalWeight sums the weights in registry order.
func (r *Registry) TotalWeight() float64 {
	var sum float64
	for _, c := range r.items {
		sum += c.Weight
	}
	return sum
}

// Map returns a new registry with fn applied to every criterion. The
// receiver is left untouched.
func (r *Registry) Map(fn func(Criterion) Criterion) *Registry {
	out := &Registry{
		items: make([]Criterion, len(r.items)),
		index: make(map[string]int, len(r.items)),
	}
	for i, c := range r.items {
		mapped := fn(cloneCriterion(c))
		mapped.Name = c.Name
		out.items[i] = mapped
		out.index[c.Name] = i
	}
	return out
}

// Require checks that every criterion names one of the given columns.
func (r *Registry) Require(columns []string) error {
	have := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		have[col] = struct{}{}
	}
	for _, c := range r.items {
		if _, ok := have[c.Name]; !ok {
			return Configf("criteria."+c.Name, "column %q not present in table", c.Name)
		}
	}
	return nil
}

// Warnings lists non-fatal inconsistencies, such as a veto that can never
// fire because it does not exceed the indifference band.
func (r *Registry) Warnings() []string {
	var out []string
	for _, c := range r.items {
		if c.Veto != 0 && c.Veto <= c.Indifference {
			out = append(out, fmt.Sprintf("criterion %s: veto %g does not exceed indifference %g", c.Name, c.Veto, c.Indifference))
		}
	}
	return out
}

// RequireSatisfaction checks that at least one criterion carries a target.
func (r *Registry) RequireSatisfaction() error {
	for _, c := range r.items {
		if c.Satisfaction != nil {
			return nil
		}
	}
	return Configf("criteria", "no criterion carries a satisfaction target")
}

func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.items)
}

func (r *Registry) UnmarshalJSON(data []byte) error {
	var cs []Criterion
	if err := json.Unmarshal(data, &cs); err != nil {
		return err
	}
	built, err := NewRegistry(cs...)
	if err != nil {
		return err
	}
	*r = *built
	return nil
}

func (r *Registry) MarshalYAML() (interface{}, error) {
	return r.items, nil
}

func (r *Registry) UnmarshalYAML(node *yaml.Node) error {
	var cs []Criterion
	if err := node.Decode(&cs); err != nil {
		return err
	}
	built, err := NewRegistry(cs...)
	if err != nil {
		return err
	}
	*r = *built
	return nil
}

type registryFile struct {
	Criteria *Registry `yaml:"criteria"`
}

// LoadFile reads a YAML document with a top-level "criteria" list.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria: %w", err)
	}
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse criteria: %w", err)
	}
	if f.Criteria == nil {
		return nil, Configf("criteria", "file %s has no criteria list", path)
	}
	return f.Criteria, nil
}

func cloneCriterion(c Criterion) Criterion {
	if c.Satisfaction != nil {
		s := *c.Satisfaction
		c.Satisfaction = &s
	}
	return c
}
