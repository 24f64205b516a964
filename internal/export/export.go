// Package export writes a Table back out as a downloadable file.
//
// Both formats carry a header row with the column names in table order and
// one row per record. No index column is added.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/csvdash/internal/frame"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Download names and content types offered by the dashboard.
const (
	CSVFileName  = "dados_filtrados.csv"
	CSVMIME      = "text/csv"
	XLSXFileName = "dados_filtrados.xlsx"
	XLSXMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetName = "dados"
)

// Format describes one download option.
type Format struct {
	Key      string
	FileName string
	MIME     string
	Write    func(io.Writer, *frame.Table) error
}

// Formats lists the supported downloads, CSV first.
var Formats = []Format{
	{Key: frame.FormatCSV, FileName: CSVFileName, MIME: CSVMIME, Write: CSV},
	{Key: frame.FormatXLSX, FileName: XLSXFileName, MIME: XLSXMIME, Write: XLSX},
}

// Lookup finds a download format by key.
func Lookup(key string) (Format, bool) {
	for _, f := range Formats {
		if f.Key == key {
			return f, true
		}
	}
	return Format{}, false
}

// CSV writes t as UTF-8 comma-separated text.
// A zero-column table has no cells to write, so only its (empty) header line is emitted.
func CSV(w io.Writer, t *frame.Table) error {
	records := t.Records()
	if t.Width() == 0 {
		records = records[:1]
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// XLSX writes t as a single-sheet workbook.
// Numeric cells are written as numbers, everything else as text.
func XLSX(w io.Writer, t *frame.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}

	cols := t.Columns()
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	for j, name := range cols {
		cells, err := columnCells(t, name)
		if err != nil {
			return fmt.Errorf("write xlsx column %q: %w", name, err)
		}
		start, err := excelize.CoordinatesToCellName(j+1, 2)
		if err != nil {
			return fmt.Errorf("write xlsx column %q: %w", name, err)
		}
		if err := f.SetSheetCol(sheetName, start, &cells); err != nil {
			return fmt.Errorf("write xlsx column %q: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// columnCells returns the cell values of one column, nil for missing cells.
func columnCells(t *frame.Table, name string) ([]any, error) {
	texts, present, err := t.Texts(name)
	if err != nil {
		return nil, err
	}

	var values []float64
	if typ, _ := t.ColumnType(name); typ == series.Int || typ == series.Float {
		if values, err = t.Floats(name); err != nil {
			return nil, err
		}
	}

	cells := make([]any, len(texts))
	for i := range texts {
		switch {
		case !present[i]:
			cells[i] = nil
		case values != nil:
			cells[i] = values[i]
		default:
			cells[i] = texts[i]
		}
	}
	return cells, nil
}
