package fileio

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"fieldmap-service/internal/ingest"
)

// ReadAny picks a reader by file extension and funnels everything into
// the same ingestion shape. CSV goes through the full byte-level
// normalizer; spreadsheet formats have a fixed encoding and no column
// delimiter to detect.
func ReadAny(r io.Reader, filename string) (*ingest.Table, *ingest.Meta, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return readXLSX(r)
	case ".xls":
		return readXLS(r)
	case ".csv", ".txt", ".tsv":
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, nil, err
		}
		return ingest.Normalize(b)
	default:
		return nil, nil, fmt.Errorf("unsupported file: %s", filename)
	}
}

// rowsToTable treats the first row as the header and reconciles every
// data row to its width, dropping fully empty rows.
func rowsToTable(rows [][]string) (*ingest.Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fileio: no header row found")
	}

	headers := ingest.CleanHeaders(rows[0])

	out := make([][]string, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if len(rec) != len(headers) {
			fixed := make([]string, len(headers))
			copy(fixed, rec)
			rec = fixed
		}
		empty := true
		for _, v := range rec {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, rec)
		}
	}
	return &ingest.Table{Headers: headers, Rows: out}, nil
}
