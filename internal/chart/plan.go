package chart

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/JonMunkholm/csvdash/internal/frame"
)

// ScatterTitle is the fixed title of the advanced chart.
const ScatterTitle = "Scatter Plot"

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNoValues      = errors.New("no values to plot")
)

// Series is one plotted column; NaN marks a missing value.
type Series struct {
	Name   string
	Values []float64
}

// Segment is one slice of a pie.
type Segment struct {
	Label   string
	Count   int
	Percent float64
}

// PercentLabel formats the slice share with one decimal place.
func (s Segment) PercentLabel() string {
	return fmt.Sprintf("%.1f%%", s.Percent)
}

// Point is one scatter marker. On a categorical axis the coordinate is the
// index of the value in that axis' categories.
type Point struct {
	X, Y float64
}

// Figure is a resolved chart request.
type Figure struct {
	Kind  Kind
	Title string

	// Bar and Line
	XLabels []string
	Series  []Series

	// Pie
	Column   string
	Segments []Segment

	// Scatter. A nil category list means the axis is numeric.
	XName, YName             string
	XCategories, YCategories []string
	Points                   []Point

	// Grid
	Table *frame.Table
}

// Plan resolves req against t.
// Requests the data cannot satisfy fail with *RenderError.
func Plan(t *frame.Table, req Request) (*Figure, error) {
	switch r := req.(type) {
	case Grid:
		return planGrid(t, r)
	case Bar:
		return planSeries(t, KindBar), nil
	case Line:
		return planSeries(t, KindLine), nil
	case Pie:
		segments, err := PieSegments(t, r.Column)
		if err != nil {
			return nil, err
		}
		return &Figure{Kind: KindPie, Title: r.Column, Column: r.Column, Segments: segments}, nil
	case Scatter:
		if !r.Enabled {
			return &Figure{Kind: KindNone}, nil
		}
		return planScatter(t, r)
	case nil:
		return nil, errors.New("no chart requested")
	default:
		return nil, fmt.Errorf("unsupported chart request %T", req)
	}
}

func planGrid(t *frame.Table, g Grid) (*Figure, error) {
	fig := &Figure{Kind: KindGrid, Table: t}
	if g.SortBy == "" || !t.HasColumn(g.SortBy) {
		return fig, nil
	}
	sorted, err := t.SortBy(g.SortBy, g.Desc)
	if err != nil {
		return nil, &RenderError{Kind: KindGrid, Column: g.SortBy, Err: err}
	}
	fig.Table = sorted
	return fig, nil
}

// planSeries puts every numeric column on a shared row-position axis.
// Text columns have nothing to plot and are left out.
func planSeries(t *frame.Table, kind Kind) *Figure {
	fig := &Figure{Kind: kind, XLabels: make([]string, t.Rows())}
	for i := range fig.XLabels {
		fig.XLabels[i] = strconv.Itoa(i)
	}
	for _, name := range t.Columns() {
		values, err := t.Floats(name)
		if err != nil {
			continue
		}
		fig.Series = append(fig.Series, Series{Name: name, Values: values})
	}
	return fig
}

// PieSegments counts how often each value occurs in column.
// Missing cells are not counted. Segments are ordered by count, most
// frequent first, ties keeping the order values first appear in.
func PieSegments(t *frame.Table, column string) ([]Segment, error) {
	if !t.HasColumn(column) {
		return nil, &RenderError{Kind: KindPie, Column: column, Err: ErrUnknownColumn}
	}
	texts, present, err := t.Texts(column)
	if err != nil {
		return nil, &RenderError{Kind: KindPie, Column: column, Err: err}
	}

	index := make(map[string]int)
	var segments []Segment
	total := 0
	for i, v := range texts {
		if !present[i] {
			continue
		}
		total++
		if j, ok := index[v]; ok {
			segments[j].Count++
			continue
		}
		index[v] = len(segments)
		segments = append(segments, Segment{Label: v, Count: 1})
	}
	if total == 0 {
		return nil, &RenderError{Kind: KindPie, Column: column, Err: ErrNoValues}
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Count > segments[j].Count
	})
	for i := range segments {
		segments[i].Percent = float64(segments[i].Count) * 100 / float64(total)
	}
	return segments, nil
}

func planScatter(t *frame.Table, s Scatter) (*Figure, error) {
	xs, xcats, err := scatterAxis(t, s.X)
	if err != nil {
		return nil, err
	}
	ys, ycats, err := scatterAxis(t, s.Y)
	if err != nil {
		return nil, err
	}

	fig := &Figure{
		Kind:        KindScatter,
		Title:       ScatterTitle,
		XName:       s.X,
		YName:       s.Y,
		XCategories: xcats,
		YCategories: ycats,
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		fig.Points = append(fig.Points, Point{X: xs[i], Y: ys[i]})
	}
	return fig, nil
}

// scatterAxis returns the coordinates of one scatter axis. Numeric columns
// plot their values; any other column becomes a categorical axis whose
// categories are its distinct values in order of first appearance.
func scatterAxis(t *frame.Table, column string) ([]float64, []string, error) {
	if !t.HasColumn(column) {
		return nil, nil, &RenderError{Kind: KindScatter, Column: column, Err: ErrUnknownColumn}
	}
	if t.IsNumeric(column) {
		values, err := t.Floats(column)
		if err != nil {
			return nil, nil, &RenderError{Kind: KindScatter, Column: column, Err: err}
		}
		return values, nil, nil
	}

	texts, present, err := t.Texts(column)
	if err != nil {
		return nil, nil, &RenderError{Kind: KindScatter, Column: column, Err: err}
	}
	categories := []string{}
	index := make(map[string]int)
	values := make([]float64, len(texts))
	for i, v := range texts {
		if !present[i] {
			values[i] = math.NaN()
			continue
		}
		n, ok := index[v]
		if !ok {
			n = len(categories)
			index[v] = n
			categories = append(categories, v)
		}
		values[i] = float64(n)
	}
	return values, categories, nil
}
