package chart

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/JonMunkholm/csvdash/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const visitsCSV = "city,visits\nrio,10\nsp,20\nrio,15\n"

func mustTable(t *testing.T, data string) *frame.Table {
	t.Helper()
	tbl, err := frame.IngestCSV([]byte(data))
	require.NoError(t, err)
	return tbl
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"barras", KindBar, false},
		{"Linhas", KindLine, false},
		{" pizza ", KindPie, false},
		{"pie", KindPie, false},
		{"scatter", KindScatter, false},
		{"tabela", KindGrid, false},
		{"histogram", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(Params{Kind: "pizza", Column: "city"})
	require.NoError(t, err)
	assert.Equal(t, Pie{Column: "city"}, req)

	req, err = NewRequest(Params{Kind: "dispersao", X: "a", Y: "b"})
	require.NoError(t, err)
	assert.Equal(t, Scatter{X: "a", Y: "b"}, req)

	_, err = NewRequest(Params{Kind: "radar"})
	assert.Error(t, err)
}

func TestPlan_PieFrequencies(t *testing.T) {
	fig, err := Plan(mustTable(t, visitsCSV), Pie{Column: "city"})
	require.NoError(t, err)

	require.Len(t, fig.Segments, 2)
	assert.Equal(t, "rio", fig.Segments[0].Label)
	assert.Equal(t, 2, fig.Segments[0].Count)
	assert.Equal(t, "66.7%", fig.Segments[0].PercentLabel())
	assert.Equal(t, "sp", fig.Segments[1].Label)
	assert.Equal(t, "33.3%", fig.Segments[1].PercentLabel())
}

func TestPieSegments_SkipsMissingAndKeepsTieOrder(t *testing.T) {
	tbl := mustTable(t, "c,n\nb,1\na,2\n,3\nb,4\na,5\n")

	segments, err := PieSegments(tbl, "c")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "b", segments[0].Label)
	assert.Equal(t, "a", segments[1].Label)
	assert.InDelta(t, 50.0, segments[0].Percent, 1e-9)
}

func TestPieSegments_Errors(t *testing.T) {
	tbl := mustTable(t, "a,b\n1,\n2,\n")

	_, err := PieSegments(tbl, "missing")
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindPie, rerr.Kind)
	assert.True(t, errors.Is(err, ErrUnknownColumn))

	_, err = PieSegments(tbl, "b")
	assert.ErrorIs(t, err, ErrNoValues)
}

func TestPlan_ScatterSameColumn(t *testing.T) {
	fig, err := Plan(mustTable(t, visitsCSV), Scatter{Enabled: true, X: "visits", Y: "visits"})
	require.NoError(t, err)

	assert.Equal(t, KindScatter, fig.Kind)
	assert.Equal(t, ScatterTitle, fig.Title)
	assert.Equal(t, "visits", fig.XName)
	assert.Equal(t, "visits", fig.YName)
	assert.Equal(t, []Point{{10, 10}, {20, 20}, {15, 15}}, fig.Points)
}

func TestPlan_ScatterDisabled(t *testing.T) {
	fig, err := Plan(mustTable(t, visitsCSV), Scatter{X: "city", Y: "nope"})
	require.NoError(t, err)
	assert.Equal(t, KindNone, fig.Kind)

	var buf bytes.Buffer
	require.NoError(t, fig.Render(&buf))
	assert.Zero(t, buf.Len())
}

func TestPlan_ScatterErrors(t *testing.T) {
	tbl := mustTable(t, visitsCSV)

	_, err := Plan(tbl, Scatter{Enabled: true, X: "visits", Y: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Plan(tbl, Scatter{Enabled: true, X: "ghost", Y: "city"})
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "ghost", rerr.Column)
}

func TestPlan_ScatterTextAxisIsCategorical(t *testing.T) {
	fig, err := Plan(mustTable(t, visitsCSV), Scatter{Enabled: true, X: "city", Y: "visits"})
	require.NoError(t, err)

	assert.Equal(t, []string{"rio", "niteroi"}, fig.XCategories)
	assert.Nil(t, fig.YCategories)
	assert.Equal(t, []Point{{0, 10}, {1, 20}, {0, 15}}, fig.Points)
}

func TestPlan_ScatterSameTextColumn(t *testing.T) {
	fig, err := Plan(mustTable(t, "c,n\nb,1\n,2\na,3\nb,4\n"), Scatter{Enabled: true, X: "c", Y: "c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, fig.XCategories)
	assert.Equal(t, fig.XCategories, fig.YCategories)
	assert.Equal(t, []Point{{0, 0}, {1, 1}, {0, 0}}, fig.Points, "missing cells are skipped")
}

func TestPlan_ScatterSkipsIncompletePoints(t *testing.T) {
	fig, err := Plan(mustTable(t, "x,y\n1,2\n,3\n4,\n5,6\n"), Scatter{Enabled: true, X: "x", Y: "y"})
	require.NoError(t, err)
	assert.Equal(t, []Point{{1, 2}, {5, 6}}, fig.Points)
}

func TestPlan_BarUsesNumericColumns(t *testing.T) {
	fig, err := Plan(mustTable(t, "city,visits,score\nrio,10,1.5\nsp,20,\n"), Bar{})
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1"}, fig.XLabels)
	require.Len(t, fig.Series, 2)
	assert.Equal(t, "visits", fig.Series[0].Name)
	assert.Equal(t, []float64{10, 20}, fig.Series[0].Values)
	assert.Equal(t, "score", fig.Series[1].Name)
	assert.True(t, math.IsNaN(fig.Series[1].Values[1]))
}

func TestPlan_LineWithNoColumns(t *testing.T) {
	fig, err := Plan(mustTable(t, visitsCSV).Select(nil), Line{})
	require.NoError(t, err)
	assert.Equal(t, KindLine, fig.Kind)
	assert.Empty(t, fig.Series)
	assert.Len(t, fig.XLabels, 3)
}

func TestPlan_GridSorted(t *testing.T) {
	fig, err := Plan(mustTable(t, visitsCSV), Grid{SortBy: "visits", Desc: true})
	require.NoError(t, err)

	values, err := fig.Table.Floats("visits")
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 15, 10}, values)
}

func TestPlan_GridIgnoresUnknownSort(t *testing.T) {
	tbl := mustTable(t, visitsCSV)
	fig, err := Plan(tbl, Grid{SortBy: "ghost"})
	require.NoError(t, err)
	assert.Same(t, tbl, fig.Table)
}

func TestPlan_NilRequest(t *testing.T) {
	_, err := Plan(mustTable(t, visitsCSV), nil)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	tbl := mustTable(t, visitsCSV)

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"bar", Bar{}, "visits"},
		{"line", Line{}, "visits"},
		{"pie", Pie{Column: "city"}, "rio (66.7%)"},
		{"scatter", Scatter{Enabled: true, X: "visits", Y: "visits"}, ScatterTitle},
		{"scatter over text", Scatter{Enabled: true, X: "city", Y: "visits"}, `"niteroi"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig, err := Plan(tbl, tt.req)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, fig.Render(&buf))
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "echarts")
		})
	}
}

func TestRender_GridIsNotAChart(t *testing.T) {
	fig, err := Plan(mustTable(t, visitsCSV), Grid{})
	require.NoError(t, err)

	var buf bytes.Buffer
	var rerr *RenderError
	assert.ErrorAs(t, fig.Render(&buf), &rerr)
}
