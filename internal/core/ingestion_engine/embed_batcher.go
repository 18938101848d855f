package ingestion_engine

import (
	"context"
	"fmt"

	"github.com/treeline-ai/ragsync/internal/core"
)

// EmbedInBatches partitions texts into contiguous batches of at most
// batchSize, calls the provider once per batch, and concatenates the results
// so that output vector i belongs to input text i. The first failing batch
// aborts the whole call: a document with only some of its chunks embedded
// cannot be indexed consistently.
func EmbedInBatches(ctx context.Context, embedder core.EmbeddingProvider, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("embed batch size must be positive, got %d", batchSize)
	}

	numBatches := (len(texts) + batchSize - 1) / batchSize
	all := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))

		vecs, err := embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d/%d: %w", start/batchSize+1, numBatches, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("embed batch %d/%d: got %d vectors for %d texts",
				start/batchSize+1, numBatches, len(vecs), end-start)
		}
		all = append(all, vecs...)
	}

	// All vectors of one run must share a dimension.
	for i := 1; i < len(all); i++ {
		if len(all[i]) != len(all[0]) {
			return nil, fmt.Errorf("embedding dimension mismatch: vector %d has %d values, expected %d",
				i, len(all[i]), len(all[0]))
		}
	}
	return all, nil
}
