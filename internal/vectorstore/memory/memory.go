// Package memory is an in-memory vector index using brute-force cosine similarity.
package memory

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Document is an indexed text with an opaque identifier.
type Document struct {
	ID   string
	Text string
}

// Hit is a search result.
type Hit struct {
	Document
	Score float64
}

// Index is an immutable snapshot of documents and their normalized vectors.
// Safe for concurrent Search.
type Index struct {
	dimension int
	docs      []Document
	vectors   [][]float32
}

// Build validates and normalizes vectors and returns a searchable index.
func Build(docs []Document, vectors [][]float32) (*Index, error) {
	if len(docs) != len(vectors) {
		return nil, fmt.Errorf("documents and vectors length mismatch: %d != %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil, errors.New("empty index")
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("invalid dimension")
	}
	normed := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d dimension mismatch: %d != %d", i, len(v), dim)
		}
		normed[i] = normalize(v)
	}

	return &Index{
		dimension: dim,
		docs:      slices.Clone(docs),
		vectors:   normed,
	}, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Dimension returns the vector length.
func (ix *Index) Dimension() int { return ix.dimension }

// Search returns the topK documents most similar to query, best first.
// Order among equal scores is unspecified.
func (ix *Index) Search(query []float32, topK int) ([]Hit, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("query dimension mismatch: %d != %d", len(query), ix.dimension)
	}
	if topK <= 0 {
		topK = 5
	}

	q := normalize(query)
	hits := make([]Hit, len(ix.docs))
	for i := range ix.docs {
		hits[i] = Hit{Document: ix.docs[i], Score: dot(ix.vectors[i], q)}
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize returns a unit-length copy of v. Zero vectors stay zero.
func normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}
	inv := 1 / math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
