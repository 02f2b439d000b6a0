package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

func float64Ptr(v float64) *float64 { return &v }

// rows builds a table whose columns follow names, one slice per row.
func rows(names []string, values ...[]float64) *table.Table {
	t := &table.Table{IDColumn: "id", Columns: append([]string{"id"}, names...)}
	for i, vals := range values {
		r := table.Row{ID: string(rune('a' + i)), Values: map[string]float64{}}
		for k, name := range names {
			r.Values[name] = vals[k]
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func TestParetoFrontSingleMinimize(t *testing.T) {
	tbl := rows([]string{"cost"}, []float64{10}, []float64{20}, []float64{20})
	reg := criteria.MustRegistry(criteria.Criterion{Name: "cost", Direction: criteria.Minimize})

	front, err := ParetoFront(tbl, reg, ModeOutperform)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, front)
}

func TestParetoFrontSingleMaximizeKeepsAllMaxima(t *testing.T) {
	tbl := rows([]string{"q"}, []float64{3}, []float64{7}, []float64{1}, []float64{7})
	reg := criteria.MustRegistry(criteria.Criterion{Name: "q", Direction: criteria.Maximize})

	for _, mode := range []Mode{ModeOutperform, ModeStrict} {
		front, err := ParetoFront(tbl, reg, mode)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 3}, front, "mode %s", mode)
	}
}

func TestIdenticalRowsDoNotDominate(t *testing.T) {
	tbl := rows([]string{"a", "b"}, []float64{1, 2}, []float64{1, 2})
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "a", Direction: criteria.Maximize},
		criteria.Criterion{Name: "b", Direction: criteria.Minimize},
	)
	for _, mode := range []Mode{ModeOutperform, ModeStrict} {
		assert.False(t, Dominates(tbl, 0, 1, reg, mode))
		assert.False(t, Dominates(tbl, 1, 0, reg, mode))
	}
}

func TestIndifferenceBand(t *testing.T) {
	tbl := rows([]string{"q"}, []float64{5}, []float64{6})
	reg := criteria.MustRegistry(criteria.Criterion{Name: "q", Direction: criteria.Maximize, Indifference: 1})

	front, err := ParetoFront(tbl, reg, ModeOutperform)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, front)
}

func TestVetoEscapesDominance(t *testing.T) {
	// b beats a on q, but the gap on v breaches the veto, so a survives.
	tbl := rows([]string{"q", "v"}, []float64{1, 0}, []float64{5, 10})
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "q", Direction: criteria.Maximize},
		criteria.Criterion{Name: "v", Direction: criteria.Maximize, Veto: 3},
	)
	assert.False(t, Dominates(tbl, 1, 0, reg, ModeOutperform))

	front, err := ParetoFront(tbl, reg, ModeOutperform)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, front)
}

func TestModesDifferOnTradeOffs(t *testing.T) {
	// Each row wins on one criterion.
	tbl := rows([]string{"speed", "cost"}, []float64{10, 10}, []float64{5, 1})
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "speed", Direction: criteria.Maximize},
		criteria.Criterion{Name: "cost", Direction: criteria.Minimize},
	)

	outperform, err := ParetoFront(tbl, reg, ModeOutperform)
	require.NoError(t, err)
	assert.Empty(t, outperform)

	strict, err := ParetoFront(tbl, reg, ModeStrict)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, strict)
}

func TestParetoFrontUnknownMode(t *testing.T) {
	tbl := rows([]string{"q"}, []float64{1})
	reg := criteria.MustRegistry(criteria.Criterion{Name: "q", Direction: criteria.Maximize})
	_, err := ParetoFront(tbl, reg, "bogus")
	assert.True(t, errors.Is(err, criteria.ErrConfiguration))
}

func TestSatisfying(t *testing.T) {
	tbl := rows([]string{"cost", "q"},
		[]float64{70, 5},  // meets both
		[]float64{120, 5}, // cost too high
		[]float64{100, 5}, // within indifference of the cost target
		[]float64{60, 2},  // quality too low
	)
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "cost", Direction: criteria.Minimize, Indifference: 30, Satisfaction: float64Ptr(75)},
		criteria.Criterion{Name: "q", Direction: criteria.Maximize, Satisfaction: float64Ptr(4)},
	)

	kept, err := Satisfying(tbl, reg)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, kept)
}

func TestSatisfactionVetoIsAnEscape(t *testing.T) {
	tbl := rows([]string{"v", "q"},
		[]float64{10, 0}, // |10-2| > veto 2: satisfactory regardless of q
		[]float64{1, 0},  // misses v target, no veto
	)
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "v", Direction: criteria.Maximize, Veto: 2, Satisfaction: float64Ptr(2)},
		criteria.Criterion{Name: "q", Direction: criteria.Maximize, Satisfaction: float64Ptr(4)},
	)

	assert.False(t, Unsatisfactory(tbl, 0, reg))
	assert.True(t, Unsatisfactory(tbl, 1, reg))
}

func TestSatisfyingSkipsCriteriaWithoutTarget(t *testing.T) {
	tbl := rows([]string{"a", "b"}, []float64{0, 10}, []float64{0, 1})
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "a", Direction: criteria.Maximize},
		criteria.Criterion{Name: "b", Direction: criteria.Maximize, Satisfaction: float64Ptr(5)},
	)
	kept, err := Satisfying(tbl, reg)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, kept)
}

func TestSatisfyingRequiresTarget(t *testing.T) {
	tbl := rows([]string{"a"}, []float64{0})
	reg := criteria.MustRegistry(criteria.Criterion{Name: "a", Direction: criteria.Maximize})
	_, err := Satisfying(tbl, reg)
	assert.True(t, errors.Is(err, criteria.ErrConfiguration))
}
