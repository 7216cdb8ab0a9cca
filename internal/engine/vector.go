package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	chromem "github.com/philippgille/chromem-go"
)

// vectorIndex wraps an in-memory chromem-go collection over the embeddings
// stored in the capsule file. Rebuilt on open, appended to on put.
type vectorIndex struct {
	col   *chromem.Collection
	count int
	model string // model of the most recently added embedding
}

// newVectorIndex creates an empty index.
func newVectorIndex() (*vectorIndex, error) {
	db := chromem.NewDB()
	// Embeddings are supplied by the caller; no embedding func, default cosine distance.
	col, err := db.CreateCollection("memories", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector collection: %w", err)
	}
	return &vectorIndex{col: col}, nil
}

// add inserts one embedded document.
func (v *vectorIndex) add(ctx context.Context, id, content string, embedding []float32, model string) error {
	err := v.col.AddDocument(ctx, chromem.Document{
		ID:        id,
		Content:   content,
		Embedding: embedding,
	})
	if err != nil {
		return fmt.Errorf("failed to index embedding: %w", err)
	}
	v.count++
	v.model = model
	return nil
}

// query returns the ids and similarities of the nearest documents.
// limit is clamped to the collection size.
func (v *vectorIndex) query(ctx context.Context, embedding []float32, limit int) ([]chromem.Result, error) {
	if v.count == 0 {
		return nil, nil
	}
	if limit > v.count {
		limit = v.count
	}
	results, err := v.col.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	return results, nil
}

// encodeVector serializes an embedding as little-endian float32 bytes.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
