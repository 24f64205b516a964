package frame

// ingest.go turns uploaded bytes into a Table.
//
// Input is normalized before parsing:
//   - a leading UTF-8 BOM (0xEF 0xBB 0xBF, added by Excel on Windows) is dropped
//   - invalid UTF-8 bytes are replaced with '?'
//
// Column types are inferred by gota (int, float, bool, string). Empty cells and
// the usual NA spellings become missing values.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Input formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrEmptyInput is returned when an upload holds no header row.
var ErrEmptyInput = errors.New("empty file")

// missingValues are cell spellings treated as missing.
var missingValues = []string{"", "NA", "NaN", "nan", "<nil>"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseError reports an upload that could not be turned into a Table.
// The collaborator's error is kept as the cause.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DetectFormat picks the input format from a file name.
// Anything that is not .xlsx is treated as delimited text.
func DetectFormat(fileName string) string {
	if strings.EqualFold(filepath.Ext(fileName), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// IngestFile parses data according to the format implied by fileName.
func IngestFile(fileName string, data []byte) (*Table, error) {
	if DetectFormat(fileName) == FormatXLSX {
		return IngestXLSX(data)
	}
	return IngestCSV(data)
}

// Ingest reads a CSV stream to the end and parses it.
func Ingest(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Err: err}
	}
	return IngestCSV(data)
}

// IngestCSV parses comma-separated text with a header row.
func IngestCSV(data []byte) (*Table, error) {
	data = normalize(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Err: err}
	}
	if err := padRecords(records); err != nil {
		return nil, &ParseError{Format: FormatCSV, Err: err}
	}

	t, err := fromRecords(records)
	if err != nil {
		return nil, &ParseError{Format: FormatCSV, Err: err}
	}
	return t, nil
}

// IngestXLSX parses the first worksheet of an XLSX workbook.
// The first row is the header; short rows are padded with empty cells.
func IngestXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: FormatXLSX, Err: ErrEmptyInput}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: err}
	}

	// GetRows drops trailing empty cells, so only text past the header is
	// an over-long row.
	for i, row := range rows {
		if len(rows) > 0 && len(row) > len(rows[0]) {
			rows[i] = trimEmptyTail(row, len(rows[0]))
		}
	}
	if err := padRecords(rows); err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: err}
	}

	t, err := fromRecords(rows)
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Err: err}
	}
	return t, nil
}

// ErrTooManyFields is returned for a data row wider than the header.
var ErrTooManyFields = errors.New("too many fields")

// padRecords fills rows shorter than the header with empty cells, which
// read as missing values. Rows longer than the header are an error.
func padRecords(records [][]string) error {
	if len(records) == 0 {
		return nil
	}
	width := len(records[0])
	for i, rec := range records[1:] {
		switch {
		case len(rec) > width:
			return fmt.Errorf("record %d: %w: expected %d, saw %d", i+2, ErrTooManyFields, width, len(rec))
		case len(rec) < width:
			records[i+1] = append(rec, make([]string, width-len(rec))...)
		}
	}
	return nil
}

// trimEmptyTail drops empty cells past width.
func trimEmptyTail(row []string, width int) []string {
	end := len(row)
	for end > width && row[end-1] == "" {
		end--
	}
	return row[:end]
}

// fromRecords builds a Table from a header row plus data rows.
func fromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyInput
	}

	// gota refuses header-only input, so build empty columns directly.
	if len(records) == 1 {
		cols := make([]series.Series, len(records[0]))
		for i, name := range records[0] {
			cols[i] = series.New([]string{}, series.String, name)
		}
		df := dataframe.New(cols...)
		if df.Err != nil {
			return nil, df.Err
		}
		return fromDataFrame(df), nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(missingValues),
	)
	if df.Err != nil {
		return nil, df.Err
	}
	return fromDataFrame(df), nil
}

// normalize strips a UTF-8 BOM and replaces invalid UTF-8 sequences.
func normalize(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	return bytes.ToValidUTF8(data, []byte("?"))
}
