package service

import (
	"strings"

	"fieldmap-service/internal/ingest"
	"fieldmap-service/internal/mapping/model"
)

// SplitMulti splits a composite cell value on the secondary in-field
// delimiter: tokens are trimmed and empty ones dropped, preserving
// order. An empty leading segment never produces an empty entry, so
// "||b@x.com" yields just ["b@x.com"].
func SplitMulti(value, delim string) []string {
	if delim == "" {
		delim = model.DefaultOptions().MultiDelim
	}
	parts := strings.Split(value, delim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplyRows projects raw rows through an accepted mapping: each output
// record is keyed by canonical target name; multivalue targets carry an
// ordered []string, everything else a trimmed string. This is the shape
// handed to the downstream validation and export pipelines.
func (e *Engine) ApplyRows(res model.MappingResult, t *ingest.Table, sources []model.SourceField, multiDelim string) []map[string]any {
	colFor := make(map[string]int, len(sources))
	for _, src := range sources {
		colFor[src.Name] = src.Index
	}

	records := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(res.Assignments))
		for _, a := range res.Assignments {
			col, ok := colFor[a.Source]
			if !ok || col >= len(row) {
				continue
			}
			raw := row[col]
			if tgt, ok := e.sch.Lookup(a.Target); ok && tgt.Multivalue {
				rec[a.Target] = SplitMulti(raw, multiDelim)
			} else {
				rec[a.Target] = strings.TrimSpace(raw)
			}
		}
		records = append(records, rec)
	}
	return records
}
