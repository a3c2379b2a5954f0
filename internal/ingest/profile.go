package ingest

import (
	"strconv"
	"strings"
	"time"

	"fieldmap-service/internal/schema"
)

// ColumnProfile carries the per-column statistics used downstream for
// type-compatibility scoring.
type ColumnProfile struct {
	Name        string           `json:"name"`
	Index       int              `json:"index"`
	Type        schema.FieldType `json:"type"`
	NullRatio   float64          `json:"null_ratio"`
	UniqueRatio float64          `json:"unique_ratio"`
	Samples     []string         `json:"samples,omitempty"`
}

// maxSamples caps the non-null sample values kept per column.
const maxSamples = 20

// typeVoteRatio: a column gets a non-string type only if at least this
// share of its non-empty values parses as that type.
const typeVoteRatio = 0.8

// Profile computes type, null ratio, unique ratio and samples for every
// column of a table.
func Profile(t *Table) []ColumnProfile {
	profiles := make([]ColumnProfile, len(t.Headers))
	for i, h := range t.Headers {
		profiles[i] = profileColumn(t, i, h)
	}
	return profiles
}

func profileColumn(t *Table, idx int, name string) ColumnProfile {
	p := ColumnProfile{Name: name, Index: idx, Type: schema.TypeString}

	total := len(t.Rows)
	if total == 0 {
		p.NullRatio = 1
		return p
	}

	nonNull := 0
	numeric, boolean, datetime := 0, 0, 0
	distinct := make(map[string]struct{})

	for _, row := range t.Rows {
		v := strings.TrimSpace(row[idx])
		if v == "" {
			continue
		}
		nonNull++
		distinct[v] = struct{}{}
		if len(p.Samples) < maxSamples {
			p.Samples = append(p.Samples, v)
		}
		if isBoolean(v) {
			boolean++
		}
		if isNumeric(v) {
			numeric++
		}
		if isDatetime(v) {
			datetime++
		}
	}

	p.NullRatio = float64(total-nonNull) / float64(total)
	if nonNull > 0 {
		p.UniqueRatio = float64(len(distinct)) / float64(nonNull)
	}

	if nonNull == 0 {
		return p
	}
	vote := func(hits int) bool {
		return float64(hits)/float64(nonNull) >= typeVoteRatio
	}
	// Boolean wins over numeric so 0/1 columns stay boolean only when
	// the textual forms dominate; bare digits count as numeric too, so
	// the order matters.
	switch {
	case vote(boolean):
		p.Type = schema.TypeBoolean
	case vote(numeric):
		p.Type = schema.TypeNumeric
	case vote(datetime):
		p.Type = schema.TypeDatetime
	}
	return p
}

var booleanWords = map[string]struct{}{
	"true": {}, "false": {}, "yes": {}, "no": {}, "y": {}, "n": {}, "t": {}, "f": {},
}

func isBoolean(v string) bool {
	_, ok := booleanWords[strings.ToLower(v)]
	return ok
}

func isNumeric(v string) bool {
	s := strings.ReplaceAll(v, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if c := strings.Count(s, ","); c == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1) // decimal comma
	} else {
		s = strings.ReplaceAll(s, ",", "") // thousands separators
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
	"2006/01/02",
	"Jan 2, 2006",
}

func isDatetime(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
