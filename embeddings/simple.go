package embeddings

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// Simple is a deterministic offline embedder: a hashed bag-of-words projected
// onto a fixed number of buckets. Texts sharing vocabulary land near each
// other, which is enough for local retrieval and tests without a provider.
type Simple struct {
	Dim int
}

// NewSimple constructs a Simple embedder.
func NewSimple(dim int) *Simple {
	if dim <= 0 {
		dim = 128
	}
	return &Simple{Dim: dim}
}

// EmbedDocuments embeds documents deterministically.
func (e *Simple) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	out := make([][]float32, len(docs))
	for i, s := range docs {
		out[i] = e.embed(s)
	}
	return out, nil
}

// EmbedQuery embeds a query deterministically.
func (e *Simple) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	return e.embed(q), nil
}

func (e *Simple) embed(s string) []float32 {
	dim := e.Dim
	if dim <= 0 {
		dim = 128
	}
	v := make([]float32, dim)
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		var h uint32 = 2166136261
		for i := 0; i < len(w); i++ {
			h = (h ^ uint32(w[i])) * 16777619
		}
		v[h%uint32(dim)]++
	}
	// L2-normalize so dot products behave as cosine similarity.
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(float64(norm)))
		for i := range v {
			v[i] *= inv
		}
	}
	return v
}
