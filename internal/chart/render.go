package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost is where rendered pages load the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// missing is how echarts marks a gap in a series.
const missing = "-"

// Render writes f as a standalone HTML document.
// A disabled scatter writes nothing; grids are drawn by the page, not here.
func (f *Figure) Render(w io.Writer) error {
	switch f.Kind {
	case KindBar:
		bar := charts.NewBar()
		bar.SetGlobalOptions(f.globalOptions()...)
		bar.SetXAxis(f.XLabels)
		for _, s := range f.Series {
			bar.AddSeries(s.Name, barData(s.Values))
		}
		return bar.Render(w)

	case KindLine:
		line := charts.NewLine()
		line.SetGlobalOptions(f.globalOptions()...)
		line.SetXAxis(f.XLabels)
		for _, s := range f.Series {
			line.AddSeries(s.Name, lineData(s.Values))
		}
		return line.Render(w)

	case KindPie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(f.globalOptions()...)
		pie.AddSeries(f.Column, pieData(f.Segments))
		return pie.Render(w)

	case KindScatter:
		scatter := charts.NewScatter()
		xAxis := opts.XAxis{Name: f.XName, Type: "value"}
		if f.XCategories != nil {
			xAxis.Type = "category"
			xAxis.Data = f.XCategories
		}
		yAxis := opts.YAxis{Name: f.YName, Type: "value"}
		if f.YCategories != nil {
			yAxis.Type = "category"
			yAxis.Data = f.YCategories
		}
		options := append(f.globalOptions(),
			charts.WithXAxisOpts(xAxis),
			charts.WithYAxisOpts(yAxis),
		)
		scatter.SetGlobalOptions(options...)
		scatter.AddSeries(f.YName, scatterData(f.Points))
		return scatter.Render(w)

	case KindNone:
		return nil

	case KindGrid:
		return &RenderError{Kind: KindGrid, Err: errors.New("tables are rendered by the page")}
	}
	return fmt.Errorf("unsupported figure kind %q", f.Kind)
}

func (f *Figure) globalOptions() []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "csvdash",
			Width:      "100%",
			Height:     "420px",
			AssetsHost: AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: f.Title}),
	}
}

func barData(values []float64) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		out[i] = opts.BarData{Value: plotValue(v)}
	}
	return out
}

func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: plotValue(v)}
	}
	return out
}

// pieData labels each slice with its share, one decimal place.
func pieData(segments []Segment) []opts.PieData {
	out := make([]opts.PieData, len(segments))
	for i, s := range segments {
		out[i] = opts.PieData{
			Name:  s.Label + " (" + s.PercentLabel() + ")",
			Value: s.Count,
		}
	}
	return out
}

func scatterData(points []Point) []opts.ScatterData {
	out := make([]opts.ScatterData, len(points))
	for i, p := range points {
		out[i] = opts.ScatterData{Value: []any{p.X, p.Y}}
	}
	return out
}

func plotValue(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missing
	}
	return v
}
