package dashboard

import (
	"fmt"
	"slices"

	"github.com/JonMunkholm/csvdash/internal/chart"
	"github.com/JonMunkholm/csvdash/internal/frame"
)

// Inputs are the widget values of one rerun.
type Inputs struct {
	ShowRaw    bool
	Background string
	Foreground string

	SortBy string
	Desc   bool

	Chart     string // simple chart selector; empty means the first option
	PieColumn string

	Advanced bool
	X, Y     string
}

// View is everything the page shows for one rerun, in page order.
//
// When a step fails the fields after it are left empty, the same way the
// page stops rendering at the failing widget.
type View struct {
	HasFile  bool
	FileName string

	Columns   []string // every column of the uploaded table
	Selection []string
	Filtered  *frame.Table
	ShowRaw   bool

	Progress int // percent
	Theme    Theme

	Grid *chart.Figure

	ChartKind chart.Kind
	PieColumn string
	Chart     *chart.Figure

	Advanced bool
	X, Y     string
	Scatter  *chart.Figure

	Metrics *frame.Metrics
}

// Pipeline derives the filtered view of t and draws every section of the
// page from it. It reads nothing but its arguments.
func Pipeline(t *frame.Table, selection []string, in Inputs) (*View, error) {
	filtered := t.Select(selection)
	v := &View{
		HasFile:   true,
		Columns:   t.Columns(),
		Selection: filtered.Columns(),
		Filtered:  filtered,
		ShowRaw:   in.ShowRaw,
		Progress:  100,
		Theme:     NewTheme(in.Background, in.Foreground),
	}

	grid, err := chart.Plan(filtered, chart.Grid{SortBy: in.SortBy, Desc: in.Desc})
	if err != nil {
		return v, err
	}
	v.Grid = grid

	kind, err := SimpleKind(in.Chart)
	if err != nil {
		return v, err
	}
	v.ChartKind = kind
	if kind == chart.KindPie {
		v.PieColumn = choose(in.PieColumn, v.Selection)
	}
	req, err := chart.NewRequest(chart.Params{Kind: string(kind), Column: v.PieColumn})
	if err != nil {
		return v, err
	}
	fig, err := chart.Plan(filtered, req)
	if err != nil {
		return v, err
	}
	v.Chart = fig

	v.Advanced = in.Advanced
	if in.Advanced {
		v.X = choose(in.X, v.Selection)
		v.Y = choose(in.Y, v.Selection)
	}
	scatter, err := chart.Plan(filtered, chart.Scatter{Enabled: in.Advanced, X: v.X, Y: v.Y})
	if err != nil {
		return v, err
	}
	v.Scatter = scatter

	metrics := frame.ComputeMetrics(filtered)
	v.Metrics = &metrics
	return v, nil
}

// SimpleKind parses the simple chart selector. Only bar, line and pie are
// offered there; an empty value picks the first option.
func SimpleKind(s string) (chart.Kind, error) {
	if s == "" {
		return chart.SimpleKinds[0], nil
	}
	kind, err := chart.ParseKind(s)
	if err != nil {
		return "", err
	}
	if !slices.Contains(chart.SimpleKinds, kind) {
		return "", fmt.Errorf("unknown chart type %q for the simple chart", s)
	}
	return kind, nil
}

// choose keeps want when it is one of options and otherwise falls back to
// the first option, like a select box with a stale value.
func choose(want string, options []string) string {
	if slices.Contains(options, want) {
		return want
	}
	if len(options) == 0 {
		return ""
	}
	return options[0]
}
