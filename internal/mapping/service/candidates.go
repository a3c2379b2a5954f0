package service

import (
	"context"
	"strings"

	"fieldmap-service/internal/embed"
	"fieldmap-service/internal/mapping/model"
	"fieldmap-service/internal/schema"
)

// Stage scores. Exact and Alias are fixed; Partial depends on which
// sub-rule fired (substring > suffix > token overlap); Fuzzy maps raw
// similarity onto its own band below Partial.
const (
	scoreExact         = 1.0
	scoreAlias         = 0.95
	scorePartialSub    = 0.90
	scorePartialSuffix = 0.86
	scorePartialTokens = 0.82
	fuzzyScoreFloor    = 0.70
	fuzzyScoreCeil     = 0.84
	fuzzySimilarityMin = 0.60 // below this, no fuzzy candidate at all
	minSubstringRunes  = 3    // shorter fragments match everything
	minCommonSuffix    = 3
)

// pairGate records, per (source, target) pair, the best score any of
// stages 1-3 produced. Semantic and fuzzy stages only run for pairs
// whose gate value never reached the acceptance threshold.
type pairGate struct {
	best      map[int]map[string]float64
	threshold float64
}

func newPairGate(threshold float64) *pairGate {
	return &pairGate{best: make(map[int]map[string]float64), threshold: threshold}
}

func (g *pairGate) record(src int, target string, score float64) {
	m, ok := g.best[src]
	if !ok {
		m = make(map[string]float64)
		g.best[src] = m
	}
	if score > m[target] {
		m[target] = score
	}
}

// open reports whether the later stages should still evaluate the pair.
func (g *pairGate) open(src int, target string) bool {
	return g.best[src][target] < g.threshold
}

// syntacticCandidates runs stages 1-3 (exact, alias, partial) for every
// (source, target) pair. One candidate per pair, from the strongest
// stage that fired; weaker candidates for other targets are retained so
// the resolver can tie-break globally.
func (e *Engine) syntacticCandidates(sources []model.SourceField, opt model.Options) ([]model.Candidate, *pairGate) {
	var cands []model.Candidate
	gate := newPairGate(opt.Threshold)

	for si, src := range sources {
		for _, tgt := range e.sch.Fields {
			tgtNorm := schema.Normalize(tgt.Name)

			// Stage 1: exact normalized equality.
			if src.Norm != "" && src.Norm == tgtNorm {
				cands = append(cands, model.Candidate{SourceIndex: si, Target: tgt.Name, Score: scoreExact, Method: model.MethodExact})
				gate.record(si, tgt.Name, scoreExact)
				continue
			}

			// Stage 2: curated alias dictionary.
			if name, ok := e.sch.ByAlias(src.Norm); ok && name == tgt.Name {
				cands = append(cands, model.Candidate{SourceIndex: si, Target: tgt.Name, Score: scoreAlias, Method: model.MethodAlias})
				gate.record(si, tgt.Name, scoreAlias)
				continue
			}

			// Stage 3: partial overlap.
			if score, ok := partialScore(src, tgtNorm, tgt.Name); ok {
				cands = append(cands, model.Candidate{SourceIndex: si, Target: tgt.Name, Score: score, Method: model.MethodPartial})
				gate.record(si, tgt.Name, score)
			}
		}
	}
	return cands, gate
}

// partialScore applies the three partial sub-rules in strength order.
func partialScore(src model.SourceField, tgtNorm, tgtName string) (float64, bool) {
	if src.Norm == "" || tgtNorm == "" {
		return 0, false
	}

	shorter := src.Norm
	if len([]rune(tgtNorm)) < len([]rune(shorter)) {
		shorter = tgtNorm
	}
	if len([]rune(shorter)) >= minSubstringRunes &&
		(strings.Contains(src.Norm, tgtNorm) || strings.Contains(tgtNorm, src.Norm)) {
		return scorePartialSub, true
	}

	if commonSuffixLen(src.Norm, tgtNorm) >= minCommonSuffix {
		return scorePartialSuffix, true
	}

	tgtTokens := schema.MeaningfulTokens(tgtName)
	for _, st := range src.Tokens {
		for _, tt := range tgtTokens {
			if st == tt {
				return scorePartialTokens, true
			}
		}
	}
	return 0, false
}

func commonSuffixLen(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := 0
	for n < len(ra) && n < len(rb) && ra[len(ra)-1-n] == rb[len(rb)-1-n] {
		n++
	}
	return n
}

// semanticCandidates is stage 4. All still-unresolved source names are
// embedded in one batched call; targets use the vectors cached at engine
// construction.
func (e *Engine) semanticCandidates(ctx context.Context, sources []model.SourceField, gate *pairGate) ([]model.Candidate, error) {
	var needIdx []int
	var names []string
	for si, src := range sources {
		for _, tgt := range e.sch.Fields {
			if gate.open(si, tgt.Name) {
				needIdx = append(needIdx, si)
				names = append(names, src.Name)
				break
			}
		}
	}
	if len(needIdx) == 0 {
		return nil, nil
	}

	vecs, err := e.emb.EmbedBatch(ctx, names)
	if err != nil {
		return nil, err
	}

	var cands []model.Candidate
	for i, si := range needIdx {
		for _, tgt := range e.sch.Fields {
			if !gate.open(si, tgt.Name) {
				continue
			}
			cos := embed.Cosine(vecs[i], e.targetVecs[tgt.Name])
			if cos <= 0 {
				continue
			}
			cands = append(cands, model.Candidate{SourceIndex: si, Target: tgt.Name, Score: cos, Method: model.MethodSemantic})
		}
	}
	return cands, nil
}

// fuzzyCandidates is stage 5, the last resort: normalized edit-distance
// similarity rescaled onto [fuzzyScoreFloor, fuzzyScoreCeil]. Raw
// similarity under fuzzySimilarityMin yields no candidate, otherwise a
// barely-related pair would still clear the acceptance threshold.
func (e *Engine) fuzzyCandidates(sources []model.SourceField, gate *pairGate) []model.Candidate {
	var cands []model.Candidate
	for si, src := range sources {
		if src.Norm == "" {
			continue
		}
		for _, tgt := range e.sch.Fields {
			if !gate.open(si, tgt.Name) {
				continue
			}
			sim := similarity(src.Norm, schema.Normalize(tgt.Name))
			if sim < fuzzySimilarityMin {
				continue
			}
			score := fuzzyScoreFloor + (sim-fuzzySimilarityMin)/(1-fuzzySimilarityMin)*(fuzzyScoreCeil-fuzzyScoreFloor)
			cands = append(cands, model.Candidate{SourceIndex: si, Target: tgt.Name, Score: score, Method: model.MethodFuzzy})
		}
	}
	return cands
}
