package service

import (
	"sort"

	"fieldmap-service/internal/mapping/model"
	"fieldmap-service/internal/schema"
)

// typeFactor scores type compatibility between a source column and a
// target field. A string target is a lossless sink for any source type;
// a mismatch elsewhere is penalized but not eliminated.
func typeFactor(src, tgt schema.FieldType) float64 {
	if tgt == schema.TypeString || src == tgt {
		return 1.0
	}
	return 0.8
}

// confidence combines a stage score with type compatibility, capped at 1.
func confidence(stageScore float64, src, tgt schema.FieldType) float64 {
	c := stageScore * typeFactor(src, tgt)
	if c > 1 {
		c = 1
	}
	return c
}

// resolve turns the candidate set into a conflict-free one-to-one
// mapping. Greedy: best confidence first, ties broken by method rank and
// then by source column order, so the outcome is deterministic.
func (e *Engine) resolve(sources []model.SourceField, cands []model.Candidate, opt model.Options) model.MappingResult {
	type scored struct {
		c    model.Candidate
		conf float64
	}
	list := make([]scored, 0, len(cands))
	for _, c := range cands {
		tgt, ok := e.sch.Lookup(c.Target)
		if !ok {
			continue
		}
		list = append(list, scored{c: c, conf: confidence(c.Score, sources[c.SourceIndex].Type, tgt.Type)})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].conf != list[j].conf {
			return list[i].conf > list[j].conf
		}
		if list[i].c.Method != list[j].c.Method {
			return list[i].c.Method < list[j].c.Method
		}
		return list[i].c.SourceIndex < list[j].c.SourceIndex
	})

	usedSrc := make(map[int]bool, len(sources))
	usedTgt := make(map[string]bool, len(e.sch.Fields))
	var assignments []model.Assignment

	for _, s := range list {
		if s.conf < opt.Threshold {
			break // sorted descending; nothing below qualifies
		}
		if usedSrc[s.c.SourceIndex] || usedTgt[s.c.Target] {
			continue
		}
		usedSrc[s.c.SourceIndex] = true
		usedTgt[s.c.Target] = true
		assignments = append(assignments, model.Assignment{
			Source:     sources[s.c.SourceIndex].Name,
			Target:     s.c.Target,
			Confidence: s.conf,
			Method:     s.c.Method,
			Band:       model.BandFor(s.conf),
		})
	}

	// Report in source column order.
	bySource := make(map[string]int, len(sources))
	for i, src := range sources {
		bySource[src.Name] = i
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		return bySource[assignments[i].Source] < bySource[assignments[j].Source]
	})

	res := model.MappingResult{Assignments: assignments}

	for i, src := range sources {
		if !usedSrc[i] {
			res.UnmappedSources = append(res.UnmappedSources, src.Name)
		}
	}
	for _, tgt := range e.sch.Fields {
		if !usedTgt[tgt.Name] {
			res.UnmappedTargets = append(res.UnmappedTargets, tgt.Name)
		}
	}

	if len(assignments) > 0 {
		sum := 0.0
		for _, a := range assignments {
			sum += a.Confidence
		}
		res.Confidence = sum / float64(len(assignments))
	}
	return res
}
