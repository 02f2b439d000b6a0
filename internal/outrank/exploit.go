package outrank

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrRankingStalled    = errors.New("ranking stalled")
	ErrMalformedRelation = errors.New("malformed relation")
)

// RankingStalledError reports an exploitation round that could not place
// any candidate, which only happens when the relations are circular over
// every remaining candidate.
type RankingStalledError struct {
	Round     int
	Remaining []int
}

func (e *RankingStalledError) Error() string {
	return fmt.Sprintf("ranking stalled at round %d with %d candidates remaining: %v", e.Round, len(e.Remaining), e.Remaining)
}

func (e *RankingStalledError) Unwrap() error { return ErrRankingStalled }

// StallPolicy decides what Exploit does when a round places nobody.
type StallPolicy string

const (
	StallFail     StallPolicy = "fail"
	StallCollapse StallPolicy = "collapse" // remaining candidates form one last tier
)

// Exploit peels ranked tiers off the high relation h and the low relation l.
// Each round, over the candidates still remaining:
//
//	D = candidates i with no j such that h[i][j] is true
//	U = members of D with an l edge to another member of D
//	B = members of U with no l edge to any member of U
//	tier = (D \ U) ∪ B
//
// Tier 0 is the best. Members of each tier are sorted by position. Only true
// cells count as edges; false and undefined are both absence of an edge.
func Exploit(h, l VerdictMatrix, policy StallPolicy) ([][]int, error) {
	n := h.Len()
	if l.Len() != n {
		return nil, fmt.Errorf("%w: high relation has %d rows, low has %d", ErrMalformedRelation, n, l.Len())
	}
	for i := 0; i < n; i++ {
		if len(h[i]) != n || len(l[i]) != n {
			return nil, fmt.Errorf("%w: row %d is not of length %d", ErrMalformedRelation, i, n)
		}
		if h[i][i] == VerdictTrue || l[i][i] == VerdictTrue {
			return nil, fmt.Errorf("%w: self edge on %d", ErrMalformedRelation, i)
		}
	}

	remaining := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		remaining[i] = true
	}

	var tiers [][]int
	for round := 0; len(remaining) > 0; round++ {
		tier := peel(h, l, sorted(remaining))
		if len(tier) == 0 {
			left := sorted(remaining)
			if policy == StallCollapse {
				return append(tiers, left), nil
			}
			return tiers, &RankingStalledError{Round: round, Remaining: left}
		}
		for _, i := range tier {
			delete(remaining, i)
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

// peel computes one tier from the remaining candidates.
func peel(h, l VerdictMatrix, remaining []int) []int {
	d := without(remaining, func(i int) bool { return hasEdge(h, i, remaining) })

	inU := make(map[int]bool, len(d))
	var u []int
	for _, i := range d {
		if hasEdge(l, i, d) {
			inU[i] = true
			u = append(u, i)
		}
	}
	inB := make(map[int]bool, len(u))
	for _, i := range u {
		if !hasEdge(l, i, u) {
			inB[i] = true
		}
	}

	var tier []int
	for _, i := range d {
		if !inU[i] || inB[i] {
			tier = append(tier, i)
		}
	}
	return tier
}

// hasEdge reports whether m[i][j] is true for some j != i in set.
func hasEdge(m VerdictMatrix, i int, set []int) bool {
	for _, j := range set {
		if j != i && m[i][j] == VerdictTrue {
			return true
		}
	}
	return false
}

func without(set []int, drop func(int) bool) []int {
	out := make([]int, 0, len(set))
	for _, i := range set {
		if !drop(i) {
			out = append(out, i)
		}
	}
	return out
}

func sorted(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for i := range set {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
