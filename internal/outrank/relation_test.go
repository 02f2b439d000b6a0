package outrank

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Arbiter/internal/criteria"
	"github.com/MikeSquared-Agency/Arbiter/internal/table"
)

func row(id string, kv ...interface{}) table.Row {
	r := table.Row{ID: id, Values: map[string]float64{}}
	for i := 0; i < len(kv); i += 2 {
		r.Values[kv[i].(string)] = kv[i+1].(float64)
	}
	return r
}

func tableOf(cols []string, rows ...table.Row) *table.Table {
	return &table.Table{IDColumn: "id", Columns: append([]string{"id"}, cols...), Rows: rows}
}

func twoCriteria() *criteria.Registry {
	return criteria.MustRegistry(
		criteria.Criterion{Name: "q", Direction: criteria.Maximize, Weight: 1},
		criteria.Criterion{Name: "c", Direction: criteria.Minimize, Weight: 1},
	)
}

func TestConcordanceAndDiscordance(t *testing.T) {
	reg := twoCriteria()
	a := row("a", "q", 5.0, "c", 10.0)
	b := row("b", "q", 3.0, "c", 8.0)

	assert.Equal(t, Value(1), Concordance(a, b, reg))
	assert.Equal(t, Value(2), Discordance(a, b, reg))
	assert.Equal(t, Value(1), Concordance(b, a, reg))
	assert.Equal(t, Value(2), Discordance(b, a, reg))
}

func TestVetoMakesBothUndefined(t *testing.T) {
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "q", Direction: criteria.Maximize, Veto: 1, Weight: 1},
		criteria.Criterion{Name: "c", Direction: criteria.Minimize, Weight: 1},
	)
	a := row("a", "q", 5.0, "c", 10.0)
	b := row("b", "q", 3.0, "c", 8.0)

	for _, pair := range [][2]table.Row{{a, b}, {b, a}} {
		assert.False(t, Concordance(pair[0], pair[1], reg).Defined())
		assert.False(t, Discordance(pair[0], pair[1], reg).Defined())
	}
}

func TestConcordanceNeverDoubleCounts(t *testing.T) {
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "q", Direction: criteria.Maximize, Indifference: 0.5, Weight: 2},
		criteria.Criterion{Name: "c", Direction: criteria.Minimize, Weight: 3},
		criteria.Criterion{Name: "r", Direction: criteria.Maximize, Weight: 4},
	)
	a := row("a", "q", 1.0, "c", 2.0, "r", 3.0)
	b := row("b", "q", 1.4, "c", 1.0, "r", 3.0)

	conc, ok := Concordance(a, b, reg).Float()
	require.True(t, ok)
	var against float64
	for _, c := range reg.All() {
		if c.Worse(a.Values[c.Name], b.Values[c.Name]) {
			against += c.Weight
		}
	}
	assert.Equal(t, reg.TotalWeight(), conc+against)
	assert.Equal(t, 6.0, conc)
}

func TestMatricesLeaveDiagonalUndefined(t *testing.T) {
	tbl := tableOf([]string{"q", "c"},
		row("a", "q", 5.0, "c", 10.0),
		row("b", "q", 3.0, "c", 8.0),
		row("c", "q", 4.0, "c", 9.0),
	)
	conc, err := ConcordanceMatrix(tbl, twoCriteria())
	require.NoError(t, err)
	disc, err := DiscordanceMatrix(tbl, twoCriteria())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.False(t, conc[i][i].Defined())
		assert.False(t, disc[i][i].Defined())
		for j := 0; j < 3; j++ {
			if i != j {
				assert.True(t, conc[i][j].Defined())
				assert.Equal(t, Concordance(tbl.Rows[i], tbl.Rows[j], twoCriteria()), conc[i][j])
			}
		}
	}
}

func TestMatrixRejectsMissingColumn(t *testing.T) {
	tbl := tableOf([]string{"q"}, row("a", "q", 1.0), row("b", "q", 2.0))
	_, err := ConcordanceMatrix(tbl, twoCriteria())
	assert.True(t, errors.Is(err, criteria.ErrConfiguration))
}

func TestExplain(t *testing.T) {
	reg := criteria.MustRegistry(
		criteria.Criterion{Name: "q", Direction: criteria.Maximize, Weight: 1},
		criteria.Criterion{Name: "c", Direction: criteria.Minimize, Veto: 5, Weight: 2},
	)
	ex := Explain(row("a", "q", 5.0, "c", 10.0), row("b", "q", 3.0, "c", 8.0), reg)

	assert.Equal(t, Value(1), ex.Concordance)
	assert.Equal(t, Value(2), ex.Discordance)
	require.Len(t, ex.Criteria, 2)
	assert.True(t, ex.Criteria[0].AtLeastAsGood)
	assert.False(t, ex.Criteria[1].AtLeastAsGood)
	assert.Equal(t, 2.0, ex.Criteria[1].Discordance)
	assert.False(t, ex.Criteria[1].Vetoed)
}
