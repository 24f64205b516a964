package chart

import "fmt"

// RenderError reports a chart request the selected data cannot satisfy,
// such as a pie over a column that does not exist or a scatter over text.
type RenderError struct {
	Kind   Kind
	Column string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("render %s chart: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("render %s chart on column %q: %v", e.Kind, e.Column, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
