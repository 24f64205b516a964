// Package frame holds the in-memory Table the dashboard pipeline works on.
//
// A Table wraps a gota DataFrame and never changes after it is built: every
// projection or sort returns a new Table. The row count is tracked outside the
// DataFrame so a projection onto zero columns still reports the rows of the
// Table it came from.
package frame

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is an ordered set of equally long named columns.
type Table struct {
	df    dataframe.DataFrame // zero value when names is empty
	names []string
	rows  int
}

func fromDataFrame(df dataframe.DataFrame) *Table {
	return &Table{
		df:    df,
		names: df.Names(),
		rows:  df.Nrow(),
	}
}

// Columns returns the column names in declared order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Rows returns the number of records.
func (t *Table) Rows() int {
	return t.rows
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.names)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.names, name)
}

// ColumnType returns the inferred type of a column.
func (t *Table) ColumnType(name string) (series.Type, bool) {
	if !t.HasColumn(name) {
		return "", false
	}
	return t.df.Col(name).Type(), true
}

// IsNumeric reports whether the column holds numbers (ints, floats or bools).
func (t *Table) IsNumeric(name string) bool {
	typ, ok := t.ColumnType(name)
	if !ok {
		return false
	}
	switch typ {
	case series.Int, series.Float, series.Bool:
		return true
	}
	return false
}

// Floats returns a numeric column as float64 values, NaN marking missing cells.
func (t *Table) Floats(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	if !t.IsNumeric(name) {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	return t.df.Col(name).Float(), nil
}

// Texts returns the text form of every cell in a column together with a
// mask marking which cells hold a value.
func (t *Table) Texts(name string) ([]string, []bool, error) {
	if !t.HasColumn(name) {
		return nil, nil, fmt.Errorf("unknown column %q", name)
	}
	s := t.df.Col(name)
	texts := make([]string, t.rows)
	present := make([]bool, t.rows)
	for i := 0; i < t.rows; i++ {
		texts[i], present[i] = formatElement(s.Elem(i))
	}
	return texts, present, nil
}

// Select projects the table onto cols.
//
// Unknown names are ignored and the result keeps this table's column order
// whatever order cols is given in. Row count and row order are preserved; an
// empty selection yields a zero-column table with the same row count.
func (t *Table) Select(cols []string) *Table {
	ordered := t.Order(cols)
	if len(ordered) == 0 {
		return &Table{rows: t.rows}
	}
	return &Table{
		df:    t.df.Select(ordered),
		names: ordered,
		rows:  t.rows,
	}
}

// Order filters cols down to known columns, deduplicated and in table order.
func (t *Table) Order(cols []string) []string {
	want := make(map[string]bool, len(cols))
	for _, c := range cols {
		want[c] = true
	}
	out := make([]string, 0, len(cols))
	for _, name := range t.names {
		if want[name] {
			out = append(out, name)
		}
	}
	return out
}

// SortBy returns a copy of the table ordered by one column.
func (t *Table) SortBy(col string, desc bool) (*Table, error) {
	if !t.HasColumn(col) {
		return nil, fmt.Errorf("sort: unknown column %q", col)
	}
	order := dataframe.Sort(col)
	if desc {
		order = dataframe.RevSort(col)
	}
	sorted := t.df.Arrange(order)
	if sorted.Err != nil {
		return nil, fmt.Errorf("sort by %q: %w", col, sorted.Err)
	}
	return &Table{df: sorted, names: t.Columns(), rows: t.rows}, nil
}

// Records returns the header followed by one text row per record.
// Missing cells are empty strings.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, t.rows+1)
	out = append(out, t.Columns())
	cols := make([]series.Series, len(t.names))
	for j, name := range t.names {
		cols[j] = t.df.Col(name)
	}
	for i := 0; i < t.rows; i++ {
		rec := make([]string, len(cols))
		for j, s := range cols {
			rec[j], _ = formatElement(s.Elem(i))
		}
		out = append(out, rec)
	}
	return out
}

// formatElement renders a cell the way it would be written back to CSV.
func formatElement(e series.Element) (string, bool) {
	if e.IsNA() {
		return "", false
	}
	switch e.Type() {
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return e.String(), true
		}
		return strconv.Itoa(v), true
	case series.Float:
		return strconv.FormatFloat(e.Float(), 'f', -1, 64), true
	case series.Bool:
		v, err := e.Bool()
		if err != nil {
			return e.String(), true
		}
		return strconv.FormatBool(v), true
	default:
		return e.String(), true
	}
}
