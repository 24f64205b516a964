package export

import (
	"bytes"
	"testing"

	"github.com/JonMunkholm/csvdash/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const visitsCSV = "city,visits\nrio,10\nsp,20\nrio,15\n"

func ingest(t *testing.T, data string) *frame.Table {
	t.Helper()
	tbl, err := frame.IngestCSV([]byte(data))
	require.NoError(t, err)
	return tbl
}

func TestCSV_NoIndexColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, ingest(t, visitsCSV)))
	assert.Equal(t, visitsCSV, buf.String())
}

func TestCSV_SelectedColumnsInTableOrder(t *testing.T) {
	tbl := ingest(t, "a,b,c\n1,x,2.5\n2,y,\n")

	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, tbl.Select([]string{"c", "a"})))
	assert.Equal(t, "a,c\n1,2.5\n2,\n", buf.String())
}

func TestCSV_EmptySelectionIsHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, ingest(t, visitsCSV).Select(nil)))
	assert.Equal(t, "\n", buf.String())
}

func TestCSV_RoundTrip(t *testing.T) {
	inputs := []string{
		visitsCSV,
		"name,score,ok\n\"Silva, Ana\",1.25,true\nBia,,false\n",
		"only\n",
	}

	for _, in := range inputs {
		orig := ingest(t, in)

		var buf bytes.Buffer
		require.NoError(t, CSV(&buf, orig.Select(orig.Columns())))

		back, err := frame.IngestCSV(buf.Bytes())
		require.NoError(t, err)
		assert.Equal(t, orig.Records(), back.Records(), "input %q", in)
	}
}

func TestXLSX_ReadBack(t *testing.T) {
	tbl := ingest(t, "city,visits,note\nrio,10,\nsp,20,ok\n")

	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, tbl))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"city", "visits", "note"}, rows[0])
	assert.Equal(t, "rio", rows[1][0])
	assert.Equal(t, "10", rows[1][1])
	assert.Equal(t, []string{"sp", "20", "ok"}, rows[2])
}

func TestXLSX_RoundTripThroughIngest(t *testing.T) {
	tbl := ingest(t, visitsCSV)

	var buf bytes.Buffer
	require.NoError(t, XLSX(&buf, tbl))

	back, err := frame.IngestXLSX(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, tbl.Records(), back.Records())
}

func TestLookup(t *testing.T) {
	f, ok := Lookup("csv")
	require.True(t, ok)
	assert.Equal(t, "dados_filtrados.csv", f.FileName)
	assert.Equal(t, "text/csv", f.MIME)

	_, ok = Lookup("pdf")
	assert.False(t, ok)
}
