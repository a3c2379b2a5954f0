package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is a parsed tabular input: one header row plus data rows, all
// field counts already reconciled to the header width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Meta records the ingestion decisions and casualties for one file.
type Meta struct {
	Encoding    string    `json:"encoding"`
	Delimiter   string    `json:"delimiter,omitempty"`
	SkippedRows int       `json:"skipped_rows"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

// maxSkipReasons bounds how many per-row parse failures are spelled out.
const maxSkipReasons = 10

// ReadTable parses decoded CSV bytes under a fixed delimiter. Rows that
// fail to parse are skipped and counted, never silently dropped; rows
// with a deviant field count are padded or truncated with a warning.
func ReadTable(data []byte, delim rune) (*Table, *Meta, error) {
	meta := &Meta{Encoding: "utf-8", Delimiter: string(delim)}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1

	var headers []string
	var rows [][]string
	var skipReasons []string
	ragged := 0
	rowNum := 0

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			meta.SkippedRows++
			if len(skipReasons) < maxSkipReasons {
				skipReasons = append(skipReasons, fmt.Sprintf("row %d: %v", rowNum, err))
			}
			continue
		}

		if headers == nil {
			headers = CleanHeaders(rec)
			continue
		}

		if len(rec) != len(headers) {
			ragged++
			if len(rec) < len(headers) {
				padded := make([]string, len(headers))
				copy(padded, rec)
				rec = padded
			} else {
				rec = rec[:len(headers)]
			}
		}
		rows = append(rows, rec)
	}

	if headers == nil {
		return nil, nil, fmt.Errorf("ingest: no header row found")
	}

	if meta.SkippedRows > 0 {
		meta.Warnings = append(meta.Warnings, Warning{
			Code: WarnMalformedRows,
			Message: fmt.Sprintf("%d malformed row(s) skipped: %s",
				meta.SkippedRows, strings.Join(skipReasons, "; ")),
		})
	}
	if ragged > 0 {
		meta.Warnings = append(meta.Warnings, Warning{
			Code:    WarnRaggedRows,
			Message: fmt.Sprintf("%d row(s) padded or truncated to header width", ragged),
		})
	}

	return &Table{Headers: headers, Rows: rows}, meta, nil
}

// CleanHeaders trims header cells, names blank ones column_N and gives
// duplicates a numeric suffix; every downstream structure keys rows and
// assignments by header name, so names must be unique.
func CleanHeaders(rec []string) []string {
	out := make([]string, len(rec))
	seen := make(map[string]int, len(rec))
	for i, h := range rec {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s_%d", h, n)
			seen[h]++
		}
		out[i] = h
	}
	return out
}

// Normalize runs the whole raw-bytes pipeline: encoding detection,
// delimiter detection, parse. This is the CSV entry point; spreadsheet
// formats reach Table through internal/fileio instead.
func Normalize(raw []byte) (*Table, *Meta, error) {
	decoded, encName, encWarns := DecodeBytes(raw)
	delim, delimWarns := DetectDelimiter(decoded)

	table, meta, err := ReadTable(decoded, delim)
	if err != nil {
		return nil, nil, err
	}
	meta.Encoding = encName
	meta.Warnings = append(append(append([]Warning{}, encWarns...), delimWarns...), meta.Warnings...)
	return table, meta, nil
}
