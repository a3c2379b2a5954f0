package model

import (
	"fieldmap-service/internal/ingest"
	"fieldmap-service/internal/schema"
)

// Method identifies which matching stage produced a candidate. The set
// is closed; tie-breaking and reporting switch over it exhaustively.
type Method int

const (
	MethodExact Method = iota
	MethodAlias
	MethodPartial
	MethodSemantic
	MethodFuzzy
)

func (m Method) String() string {
	switch m {
	case MethodExact:
		return "exact"
	case MethodAlias:
		return "alias"
	case MethodPartial:
		return "partial"
	case MethodSemantic:
		return "semantic"
	case MethodFuzzy:
		return "fuzzy"
	}
	return "unknown"
}

func (m Method) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// Band partitions assignments for manual review.
type Band string

const (
	BandAuto   Band = "auto"   // >= 0.85: accept without review
	BandReview Band = "review" // [0.70, 0.85): flag for a human
	BandReject Band = "reject" // < 0.70
)

// BandFor maps a confidence value onto its review band.
func BandFor(confidence float64) Band {
	switch {
	case confidence >= 0.85:
		return BandAuto
	case confidence >= 0.70:
		return BandReview
	default:
		return BandReject
	}
}

// SourceField is one column of an ingested file, immutable after
// ingestion.
type SourceField struct {
	Name        string           `json:"name"`
	Norm        string           `json:"-"`
	Tokens      []string         `json:"-"`
	Index       int              `json:"index"`
	Type        schema.FieldType `json:"type"`
	NullRatio   float64          `json:"null_ratio"`
	UniqueRatio float64          `json:"unique_ratio"`
	Samples     []string         `json:"-"`
}

// NewSourceField derives the comparable forms from a column profile.
func NewSourceField(p ingest.ColumnProfile) SourceField {
	return SourceField{
		Name:        p.Name,
		Norm:        schema.Normalize(p.Name),
		Tokens:      schema.MeaningfulTokens(p.Name),
		Index:       p.Index,
		Type:        p.Type,
		NullRatio:   p.NullRatio,
		UniqueRatio: p.UniqueRatio,
		Samples:     p.Samples,
	}
}

// Candidate is a scored potential pairing, ephemeral within one run.
type Candidate struct {
	SourceIndex int     // index into the SourceField slice
	Target      string  // canonical target name
	Score       float64 // stage score, before type compatibility
	Method      Method
}

// Assignment is a finalized pairing chosen by the resolver.
type Assignment struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Confidence float64 `json:"confidence"`
	Method     Method  `json:"method"`
	Band       Band    `json:"band"`
}

// MappingResult is the externally visible artifact of a matching run.
// Once returned it is never mutated.
type MappingResult struct {
	Assignments     []Assignment     `json:"assignments"`
	UnmappedSources []string         `json:"unmapped_sources"`
	UnmappedTargets []string         `json:"unmapped_targets"`
	Confidence      float64          `json:"confidence"`
	Encoding        string           `json:"encoding,omitempty"`
	Delimiter       string           `json:"delimiter,omitempty"`
	SkippedRows     int              `json:"skipped_rows"`
	Warnings        []ingest.Warning `json:"warnings,omitempty"`
}

// TargetFor returns the assignment claiming a target, if any.
func (r *MappingResult) TargetFor(target string) (Assignment, bool) {
	for _, a := range r.Assignments {
		if a.Target == target {
			return a, true
		}
	}
	return Assignment{}, false
}

// Options tune one matching run. The zero value is unusable; use
// DefaultOptions and override per request.
type Options struct {
	Threshold  float64 // minimum confidence for an accepted assignment
	TopK       int     // candidates retained per source field
	MultiDelim string  // secondary in-field delimiter for multivalue columns
}

// DefaultOptions are the production defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:  0.72,
		TopK:       3,
		MultiDelim: "||",
	}
}
