// Package service implements the five-stage field matcher: candidate
// generation, confidence scoring and the greedy one-to-one resolver.
package service

import (
	"context"
	"fmt"
	"sort"

	"fieldmap-service/internal/config"
	"fieldmap-service/internal/embed"
	"fieldmap-service/internal/ingest"
	"fieldmap-service/internal/mapping/model"
	"fieldmap-service/internal/schema"
)

// DefaultEngineOptions derives the engine defaults from service config.
func DefaultEngineOptions(cfg config.Config) model.Options {
	opt := model.DefaultOptions()
	if cfg.Threshold > 0 && cfg.Threshold <= 1 {
		opt.Threshold = cfg.Threshold
	}
	if cfg.MultiDelim != "" {
		opt.MultiDelim = cfg.MultiDelim
	}
	return opt
}

// Engine matches source fields onto one static target schema. It is
// immutable after construction and safe for concurrent use; per-file
// state lives entirely on the stack of Map.
type Engine struct {
	sch        *schema.Schema
	emb        *embed.Model
	targetVecs map[string][]float32 // canonical name -> cached embedding
	opt        model.Options
}

// New builds an engine and precomputes the target-field embeddings once;
// the target schema never changes for the lifetime of the process.
func New(sch *schema.Schema, emb *embed.Model, opt model.Options) (*Engine, error) {
	if opt.Threshold <= 0 || opt.Threshold > 1 {
		return nil, fmt.Errorf("mapping: threshold %v out of range", opt.Threshold)
	}
	if opt.TopK <= 0 {
		opt.TopK = model.DefaultOptions().TopK
	}

	vecs := make(map[string][]float32, len(sch.Fields))
	for _, f := range sch.Fields {
		v, err := emb.Embed(f.Name, f.Description)
		if err != nil {
			return nil, fmt.Errorf("mapping: embed target %s: %w", f.Name, err)
		}
		vecs[f.Name] = v
	}
	return &Engine{sch: sch, emb: emb, targetVecs: vecs, opt: opt}, nil
}

// Options returns the engine defaults, for per-request overriding.
func (e *Engine) Options() model.Options { return e.opt }

// Schema exposes the target schema the engine was built for.
func (e *Engine) Schema() *schema.Schema { return e.sch }

// SourceFields derives the matcher input from ingestion profiles.
func SourceFields(profiles []ingest.ColumnProfile) []model.SourceField {
	out := make([]model.SourceField, len(profiles))
	for i, p := range profiles {
		out[i] = model.NewSourceField(p)
	}
	return out
}

// Map runs the full matching pipeline for one file's source fields and
// returns the conflict-free assignment set. The only error path is
// caller cancellation during the batched semantic stage; everything else
// degrades to unmapped fields, never to a failed file.
func (e *Engine) Map(ctx context.Context, sources []model.SourceField, opt model.Options) (model.MappingResult, error) {
	if opt.Threshold == 0 {
		opt = e.opt
	}

	cands, gate := e.syntacticCandidates(sources, opt)

	semantic, err := e.semanticCandidates(ctx, sources, gate)
	if err != nil {
		return model.MappingResult{}, err
	}
	cands = append(cands, semantic...)
	cands = append(cands, e.fuzzyCandidates(sources, gate)...)

	cands = topKPerSource(cands, len(sources), opt.TopK)

	return e.resolve(sources, cands, opt), nil
}

// topKPerSource bounds resolver work: at most k candidates per source
// field, by stage score.
func topKPerSource(cands []model.Candidate, nSources, k int) []model.Candidate {
	perSource := make([][]model.Candidate, nSources)
	for _, c := range cands {
		perSource[c.SourceIndex] = append(perSource[c.SourceIndex], c)
	}
	out := make([]model.Candidate, 0, nSources*k)
	for _, list := range perSource {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Score != list[j].Score {
				return list[i].Score > list[j].Score
			}
			return list[i].Method < list[j].Method
		})
		if len(list) > k {
			list = list[:k]
		}
		out = append(out, list...)
	}
	return out
}
