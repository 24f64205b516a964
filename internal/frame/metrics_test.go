package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMetrics_VisitsScenario(t *testing.T) {
	tbl := mustIngest(t, visitsCSV)

	m := ComputeMetrics(tbl)
	assert.Equal(t, 3, m.RowCount)
	assert.Equal(t, []string{"visits"}, m.Columns)
	assert.InDelta(t, 45, m.Sum["visits"], 1e-9)
	assert.InDelta(t, 15, m.Mean["visits"], 1e-9)

	_, ok := m.Sum["city"]
	assert.False(t, ok, "text columns are not aggregated")
}

func TestComputeMetrics_SkipsMissing(t *testing.T) {
	tbl := mustIngest(t, "x,y\n1,\n,\n5,\n")

	m := ComputeMetrics(tbl)
	assert.InDelta(t, 6, m.Sum["x"], 1e-9)
	assert.InDelta(t, 3, m.Mean["x"], 1e-9)
}

func TestComputeMetrics_ZeroColumns(t *testing.T) {
	tbl := mustIngest(t, visitsCSV).Select(nil)

	m := ComputeMetrics(tbl)
	assert.Equal(t, 3, m.RowCount)
	assert.Empty(t, m.Columns)
	assert.Empty(t, m.Sum)
	assert.Empty(t, m.Mean)
}

func TestComputeMetrics_NoRows(t *testing.T) {
	tbl, err := IngestCSV([]byte("a\n"))
	require.NoError(t, err)

	m := ComputeMetrics(tbl)
	assert.Equal(t, 0, m.RowCount)
	for _, name := range m.Columns {
		assert.True(t, math.IsNaN(m.Mean[name]))
	}
}

func TestMetricsLines(t *testing.T) {
	m := ComputeMetrics(mustIngest(t, visitsCSV))

	assert.Equal(t, []string{
		"Total de Registros: 3",
		"Média de Valores: visits=15",
		"Soma de Valores: visits=45",
	}, m.Lines())
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "15", FormatNumber(15))
	assert.Equal(t, "2.5", FormatNumber(2.5))
	assert.Equal(t, "NaN", FormatNumber(math.NaN()))
}
