package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
)

// HashEmbedder produces deterministic fake embeddings derived from the
// input text. Similar inputs do not get similar vectors; it only guarantees
// the same text always embeds identically, which is enough for storage and
// round-trip tests.
type HashEmbedder struct {
	// Dimensions of the produced vectors. Must match the vector column.
	Dimensions int
}

// Embed implements knowledge.Embedder.
func (e HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	dims := e.Dimensions
	if dims <= 0 {
		dims = 768
	}

	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, dims)
	for i := range vec {
		word := binary.LittleEndian.Uint32(sum[(i*4)%(len(sum)-4):])
		// Mix in the index so the vector is not just the digest repeated.
		word ^= uint32(i) * 2654435761
		vec[i] = float32(word%2000)/1000 - 1
	}
	return vec, nil
}
