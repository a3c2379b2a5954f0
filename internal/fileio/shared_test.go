package fileio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]any) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestReadAnyXLSX(t *testing.T) {
	r := buildXLSX(t, [][]any{
		{"FirstName", "LastName", "WorkEmails"},
		{"Ada", "Lovelace", "ada@x.com"},
		{"", "", ""},
		{"Bob"}, // short row: the reader pads to header width
	})

	table, meta, err := ReadAny(r, "export.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"FirstName", "LastName", "WorkEmails"}, table.Headers)
	require.Len(t, table.Rows, 2, "the fully empty row is dropped")
	assert.Equal(t, []string{"Ada", "Lovelace", "ada@x.com"}, table.Rows[0])
	assert.Equal(t, []string{"Bob", "", ""}, table.Rows[1])
	assert.Equal(t, "utf-8", meta.Encoding)
}

func TestReadAnyCSV(t *testing.T) {
	table, meta, err := ReadAny(strings.NewReader("name;dept\nalpha;sales\n"), "export.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "dept"}, table.Headers)
	assert.Equal(t, ";", meta.Delimiter)
	assert.Equal(t, "utf-8", meta.Encoding)
	require.Len(t, table.Rows, 1)
}

func TestReadAnyUnknownExtension(t *testing.T) {
	_, _, err := ReadAny(strings.NewReader("whatever"), "export.pdf")
	assert.Error(t, err)
}

func TestRowsToTable(t *testing.T) {
	table, err := rowsToTable([][]string{
		{"email", "email", ""},
		{"a@x.com", "b@x.com", "z"},
		{"", "", ""},
		{"c@x.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "email_2", "column_3"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "z"}, table.Rows[0])
	assert.Equal(t, []string{"c@x.com", "", ""}, table.Rows[1])
}

func TestRowsToTableEmpty(t *testing.T) {
	_, err := rowsToTable(nil)
	assert.Error(t, err)
}
