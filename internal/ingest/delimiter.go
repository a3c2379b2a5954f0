package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// candidate delimiters in tie-break priority order.
var delimiterCandidates = []rune{',', '|', '\t', ';'}

// delimiterSampleRows caps how many rows each candidate is scored on.
const delimiterSampleRows = 40

// DetectDelimiter picks the field delimiter that yields the most
// consistent field count across a sample of rows. The score of a
// candidate is the share of sampled rows hitting the modal field count;
// a candidate only qualifies if that modal count is at least 2 fields.
// Ties fall back to the fixed priority order with a warning.
func DetectDelimiter(data []byte) (rune, []Warning) {
	best := delimiterCandidates[0]
	bestScore := -1.0
	tied := false

	for _, d := range delimiterCandidates {
		score := delimiterScore(data, d)
		if score > bestScore {
			best, bestScore, tied = d, score, false
		} else if score == bestScore && bestScore > 0 {
			tied = true
		}
	}

	var warnings []Warning
	if tied {
		warnings = append(warnings, Warning{
			Code:    WarnDelimiterAmbiguous,
			Message: fmt.Sprintf("delimiter ambiguous; picked %q by priority", best),
		})
	}
	return best, warnings
}

func delimiterScore(data []byte, delim rune) float64 {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	counts := make(map[int]int)
	total := 0
	for total < delimiterSampleRows {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // scoring only; malformed rows are handled in ReadTable
		}
		counts[len(rec)]++
		total++
	}
	if total == 0 {
		return 0
	}

	modalCount, modalHits := 0, 0
	for n, hits := range counts {
		if hits > modalHits || (hits == modalHits && n > modalCount) {
			modalCount, modalHits = n, hits
		}
	}
	if modalCount < 2 {
		return 0 // a single-column parse means the delimiter never fired
	}
	return float64(modalHits) / float64(total)
}
