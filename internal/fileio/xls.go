// Legacy .xls parser: the library's per-row column count is unreliable,
// so the table width is fixed up front and every cell read up to it.
package fileio

import (
	"bytes"
	"errors"
	"io"

	xls "github.com/extrame/xls"

	"fieldmap-service/internal/ingest"
)

// xlsCharsets are tried in order; legacy HR exports are most often
// cp1251 or plain UTF-8.
var xlsCharsets = []string{"utf-8", "windows-1251", "koi8-r"}

func readXLS(r io.Reader) (*ingest.Table, *ingest.Meta, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	var wb *xls.WorkBook
	charset := ""
	var lastErr error
	for _, ch := range xlsCharsets {
		wb, err = xls.OpenReader(bytes.NewReader(b), ch)
		if err == nil && wb != nil {
			charset = ch
			lastErr = nil
			break
		}
		lastErr = err
	}
	if wb == nil {
		if lastErr == nil {
			lastErr = errors.New("xls: failed to open workbook")
		}
		return nil, nil, lastErr
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil, errors.New("xls: workbook has no sheets")
	}

	maxCols := computeMaxCols(sheet)
	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		cols := make([]string, maxCols)
		if row != nil {
			for j := 0; j < maxCols; j++ {
				cols[j] = row.Col(j)
			}
		}
		rows = append(rows, cols)
	}

	t, err := rowsToTable(rows)
	if err != nil {
		return nil, nil, err
	}
	return t, &ingest.Meta{Encoding: charset}, nil
}

// computeMaxCols probes a bounded number of columns per row for
// non-empty cells; Row.LastCol lies on sparse sheets.
func computeMaxCols(sheet *xls.WorkSheet) int {
	const probeMax = 512
	maxCols := 0
	for i := 0; i <= int(sheet.MaxRow); i++ {
		r := sheet.Row(i)
		if r == nil {
			continue
		}
		for j := 0; j < probeMax; j++ {
			if r.Col(j) != "" && j+1 > maxCols {
				maxCols = j + 1
			}
		}
	}
	if maxCols == 0 {
		maxCols = 1
	}
	return maxCols
}
