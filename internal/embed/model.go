// Package embed holds the process-wide sentence-embedding resource used
// by the semantic matching stage. The model is loaded once at startup,
// shared read-only across concurrent requests, and torn down explicitly;
// it is never request-scoped.
package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"fieldmap-service/internal/schema"
)

// DefaultDim is the embedding dimensionality used when none is configured.
const DefaultDim = 256

// Model embeds field names into a fixed-dimension vector space. This
// implementation hashes word tokens and character trigrams of the
// normalized name into buckets and L2-normalizes the result, which keeps
// the engine free of network I/O; a heavier pretrained model can replace
// it behind the same handle.
type Model struct {
	dim    int
	closed bool
}

// Load constructs the model handle. dim <= 0 selects DefaultDim.
func Load(dim int) (*Model, error) {
	if dim <= 0 {
		dim = DefaultDim
	}
	if dim < 16 {
		return nil, fmt.Errorf("embed: dimension %d too small", dim)
	}
	return &Model{dim: dim}, nil
}

// Close releases the model. Embedding after Close is a programming error
// and reported as such.
func (m *Model) Close() error {
	m.closed = true
	return nil
}

// Dim returns the vector dimensionality.
func (m *Model) Dim() int { return m.dim }

// Embed produces the vector for one name, optionally augmented with a
// natural-language description.
func (m *Model) Embed(name, description string) ([]float32, error) {
	if m.closed {
		return nil, fmt.Errorf("embed: model is closed")
	}
	vec := make([]float32, m.dim)
	for _, tok := range schema.Tokenize(name) {
		m.addFeature(vec, "t:"+tok, 1)
	}
	for _, tri := range trigrams(schema.Normalize(name)) {
		m.addFeature(vec, "g:"+tri, 0.5)
	}
	if description != "" {
		for _, tok := range schema.Tokenize(description) {
			m.addFeature(vec, "t:"+tok, 0.25)
		}
	}
	normalizeVec(vec)
	return vec, nil
}

// EmbedBatch embeds all names in one call so a single model invocation
// amortizes across a file's unresolved fields. It honors caller
// cancellation between items.
func (m *Model) EmbedBatch(ctx context.Context, names []string) ([][]float32, error) {
	out := make([][]float32, len(names))
	for i, n := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := m.Embed(n, "")
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *Model) addFeature(vec []float32, feature string, weight float32) {
	h := fnv.New32a()
	h.Write([]byte(feature))
	vec[int(h.Sum32())%m.dim] += weight
}

// Cosine is the similarity of two L2-normalized vectors.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot < 0 {
		return 0
	}
	if dot > 1 {
		return 1
	}
	return dot
}

func normalizeVec(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

func trigrams(s string) []string {
	r := []rune(" " + s + " ")
	if len(r) < 3 {
		return []string{string(r)}
	}
	out := make([]string, 0, len(r)-2)
	for i := 0; i+3 <= len(r); i++ {
		out = append(out, string(r[i:i+3]))
	}
	return out
}
