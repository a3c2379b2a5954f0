package fileio

import (
	"bytes"
	"io"

	excelize "github.com/xuri/excelize/v2"

	"fieldmap-service/internal/ingest"
)

func readXLSX(r io.Reader) (*ingest.Table, *ingest.Meta, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	t, err := rowsToTable(rows)
	if err != nil {
		return nil, nil, err
	}
	return t, &ingest.Meta{Encoding: "utf-8"}, nil
}
