package outrank

import (
	"encoding/json"
	"fmt"
)

// Score is a relation cell that either holds a number or is undefined
// because a veto blocked the comparison (or the cell was removed).
type Score struct {
	value   float64
	defined bool
}

func Value(x float64) Score { return Score{value: x, defined: true} }

func Undefined() Score { return Score{} }

func (s Score) Defined() bool { return s.defined }

// Float returns the value and whether it is defined.
func (s Score) Float() (float64, bool) { return s.value, s.defined }

func (s Score) String() string {
	if !s.defined {
		return "undefined"
	}
	return fmt.Sprintf("%g", s.value)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.defined {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

func (s *Score) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Value(v)
	return nil
}

// Verdict is a three-valued outranking cell. VerdictUndefined means no
// comparison was possible; VerdictFalse means compared and rejected.
type Verdict int8

const (
	VerdictUndefined Verdict = iota
	VerdictFalse
	VerdictTrue
)

func (v Verdict) String() string {
	switch v {
	case VerdictTrue:
		return "true"
	case VerdictFalse:
		return "false"
	}
	return "undefined"
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictTrue:
		return []byte("true"), nil
	case VerdictFalse:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*v = VerdictTrue
	case "false":
		*v = VerdictFalse
	case "null":
		*v = VerdictUndefined
	default:
		return fmt.Errorf("invalid verdict %s", data)
	}
	return nil
}

// ScoreMatrix is indexed [i][j] for the ordered pair (i, j). The diagonal
// is always undefined.
type ScoreMatrix [][]Score

func NewScoreMatrix(n int) ScoreMatrix {
	m := make(ScoreMatrix, n)
	for i := range m {
		m[i] = make([]Score, n)
	}
	return m
}

func (m ScoreMatrix) Len() int { return len(m) }

// Clone returns a deep copy.
func (m ScoreMatrix) Clone() ScoreMatrix {
	out := make(ScoreMatrix, len(m))
	for i := range m {
		out[i] = append([]Score(nil), m[i]...)
	}
	return out
}

// Max returns the largest defined value off the diagonal, and false when
// every cell is undefined.
func (m ScoreMatrix) Max() (float64, bool) {
	var best float64
	found := false
	for i := range m {
		for j, s := range m[i] {
			if i == j || !s.defined {
				continue
			}
			if !found || s.value > best {
				best = s.value
				found = true
			}
		}
	}
	return best, found
}

// VerdictMatrix is indexed [i][j]; VerdictTrue at [i][j] means i outranks j.
type VerdictMatrix [][]Verdict

func NewVerdictMatrix(n int) VerdictMatrix {
	m := make(VerdictMatrix, n)
	for i := range m {
		m[i] = make([]Verdict, n)
	}
	return m
}

func (m VerdictMatrix) Len() int { return len(m) }

// Edge is one true cell of a verdict matrix.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Edges lists the true cells in row-major order.
func (m VerdictMatrix) Edges() []Edge {
	var out []Edge
	for i := range m {
		for j, v := range m[i] {
			if i != j && v == VerdictTrue {
				out = append(out, Edge{From: i, To: j})
			}
		}
	}
	return out
}
