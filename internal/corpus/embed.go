// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Embedder produces fixed-size vectors for text. When a Store has one, the
// retriever blends lexical overlap with cosine similarity between the query
// vector and candidate chunk vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// hashEmbedderDim is the vector size of the deterministic embedder.
const hashEmbedderDim = 64

// HashEmbedder is a deterministic, dependency-free Embedder. Each token is
// hashed into a bucket of a fixed-size vector, which is then L2-normalized.
// Identical texts always produce identical vectors, so retrieval stays
// reproducible. Suitable for tests and for environments without access to
// an embedding service.
type HashEmbedder struct{}

// Embed maps text to a normalized 64-dimensional vector.
func (HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashEmbedderDim)
	for tok := range Tokenize(text) {
		sum := sha256.Sum256([]byte(tok))
		bucket := binary.BigEndian.Uint32(sum[:4]) % hashEmbedderDim
		// Low bits pick the sign so buckets do not only accumulate.
		if sum[4]&1 == 0 {
			vec[bucket]++
		} else {
			vec[bucket]--
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// cosine returns the cosine similarity of two vectors, or zero when either
// is empty, zero, or they differ in length.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
