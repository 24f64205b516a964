package frame

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics is the summary shown under the charts.
//
// Mean and Sum only have entries for numeric columns; missing cells are
// skipped. A numeric column with no values has Sum 0 and Mean NaN.
type Metrics struct {
	RowCount int
	Columns  []string // numeric columns, in table order
	Mean     map[string]float64
	Sum      map[string]float64
}

// ComputeMetrics summarizes t.
func ComputeMetrics(t *Table) Metrics {
	m := Metrics{
		RowCount: t.Rows(),
		Mean:     make(map[string]float64),
		Sum:      make(map[string]float64),
	}

	for _, name := range t.Columns() {
		if !t.IsNumeric(name) {
			continue
		}
		values, err := t.Floats(name)
		if err != nil {
			continue
		}
		present := dropNaN(values)

		m.Columns = append(m.Columns, name)
		m.Sum[name] = floats.Sum(present)
		if len(present) == 0 {
			m.Mean[name] = math.NaN()
		} else {
			m.Mean[name] = stat.Mean(present, nil)
		}
	}

	return m
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Lines formats m as the three summary lines shown to users.
func (m Metrics) Lines() []string {
	return []string{
		"Total de Registros: " + strconv.Itoa(m.RowCount),
		"Média de Valores: " + joinPairs(m.Columns, m.Mean),
		"Soma de Valores: " + joinPairs(m.Columns, m.Sum),
	}
}

// FormatNumber prints v without trailing zeros; missing values print as NaN.
func FormatNumber(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinPairs(cols []string, values map[string]float64) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, c+"="+FormatNumber(values[c]))
	}
	return strings.Join(parts, ", ")
}
