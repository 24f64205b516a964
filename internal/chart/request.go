// Package chart turns a Table and a chart request into a figure.
//
// A Request is a closed set of variants: Grid, Bar, Line, Pie and Scatter.
// Plan resolves a request against a Table into a Figure, a plain data
// description that can be inspected in tests; Figure.Render draws it with
// go-echarts as a standalone HTML document.
package chart

import (
	"fmt"
	"strings"
)

// Kind names a figure type.
type Kind string

const (
	KindGrid    Kind = "tabela"
	KindBar     Kind = "barras"
	KindLine    Kind = "linhas"
	KindPie     Kind = "pizza"
	KindScatter Kind = "dispersao"
	KindNone    Kind = "none" // a disabled scatter section
)

// SimpleKinds are the options of the chart-type selector, in display order.
var SimpleKinds = []Kind{KindBar, KindLine, KindPie}

// Label returns the selector caption for k.
func (k Kind) Label() string {
	switch k {
	case KindGrid:
		return "Tabela"
	case KindBar:
		return "Barras"
	case KindLine:
		return "Linhas"
	case KindPie:
		return "Pizza"
	case KindScatter:
		return "Dispersão"
	default:
		return string(k)
	}
}

var kindAliases = map[string]Kind{
	"tabela":    KindGrid,
	"table":     KindGrid,
	"barras":    KindBar,
	"bar":       KindBar,
	"linhas":    KindLine,
	"line":      KindLine,
	"pizza":     KindPie,
	"pie":       KindPie,
	"dispersao": KindScatter,
	"scatter":   KindScatter,
}

// ParseKind maps a selector value to a Kind.
// Unknown values are rejected rather than silently drawing nothing.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown chart type %q", s)
}

// Request is one of Grid, Bar, Line, Pie or Scatter.
type Request interface {
	Kind() Kind
	isRequest()
}

// Grid shows the table itself, optionally sorted by one column.
type Grid struct {
	SortBy string
	Desc   bool
}

// Bar plots every numeric column against row position.
type Bar struct{}

// Line plots every numeric column against row position.
type Line struct{}

// Pie plots the value frequencies of one column.
type Pie struct {
	Column string
}

// Scatter plots Y against X. Nothing is drawn unless Enabled.
type Scatter struct {
	Enabled bool
	X, Y    string
}

func (Grid) Kind() Kind    { return KindGrid }
func (Bar) Kind() Kind     { return KindBar }
func (Line) Kind() Kind    { return KindLine }
func (Pie) Kind() Kind     { return KindPie }
func (Scatter) Kind() Kind { return KindScatter }

func (Grid) isRequest()    {}
func (Bar) isRequest()     {}
func (Line) isRequest()    {}
func (Pie) isRequest()     {}
func (Scatter) isRequest() {}

// Params carries the raw selector values a request is built from.
type Params struct {
	Kind    string
	Column  string // pie column
	X, Y    string // scatter axes
	Enabled bool   // scatter toggle
	SortBy  string
	Desc    bool
}

// NewRequest builds the request for the selector values in p.
func NewRequest(p Params) (Request, error) {
	kind, err := ParseKind(p.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindGrid:
		return Grid{SortBy: p.SortBy, Desc: p.Desc}, nil
	case KindBar:
		return Bar{}, nil
	case KindLine:
		return Line{}, nil
	case KindPie:
		return Pie{Column: p.Column}, nil
	case KindScatter:
		return Scatter{Enabled: p.Enabled, X: p.X, Y: p.Y}, nil
	}
	return nil, fmt.Errorf("unknown chart type %q", p.Kind)
}
