package ingestion_engine

import (
	"fmt"

	"github.com/treeline-ai/ragsync/internal/config"
	"github.com/treeline-ai/ragsync/internal/core"
	"github.com/treeline-ai/ragsync/internal/models"
)

// IngestConfig tunes the ingestion pipeline.
//
// BucketName:        object storage bucket for the best-effort document upload.
// EmbedBatchSize:    how many chunk texts go into one embedding call (e.g., 20).
// MirrorToRetrieval: also push each document's records straight into the
//                    retrieval store using ceiling-bounded batch commits.
type IngestConfig struct {
	BucketName        string
	EmbedBatchSize    int
	MirrorToRetrieval bool
}

// Chunker turns a document's page texts into an ordered sequence of chunks.
// Chunk indexes are zero-based and contiguous across the whole document;
// pages whose text is empty or whitespace-only contribute no chunks.
type Chunker interface {
	ChunkPages(pages []models.PageText) []models.Chunk
}

// NewChunker selects the windowing strategy from configuration.
func NewChunker(cfg *config.Config) (Chunker, error) {
	switch cfg.ChunkStrategy {
	case config.StrategyCharacters:
		return NewCharacterChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	case config.StrategySentences:
		return NewSentenceChunker(cfg.ChunkSize)
	default:
		return nil, fmt.Errorf("unknown chunk strategy %q", cfg.ChunkStrategy)
	}
}

// Pipeline orchestrates one ingestion run:
//
// chunks:    primary store the indexer upserts into.
// retrieval: secondary store, only used in mirror mode (may be nil).
// obj:       object storage for the best-effort upload (may be nil).
// embedder:  embedding provider, called once per batch with no retry.
// extractor: page-level text extraction.
// chunker:   the configured windowing strategy.
//
// Every stage is a blocking call; the pipeline is strictly sequential.
type Pipeline struct {
	chunks    core.ChunkStore
	retrieval core.RetrievalStore
	obj       core.ObjectClient
	embedder  core.EmbeddingProvider
	extractor core.DocumentExtractor
	chunker   Chunker
	cfg       *IngestConfig
}

func NewPipeline(
	chunks core.ChunkStore,
	retrieval core.RetrievalStore,
	obj core.ObjectClient,
	embedder core.EmbeddingProvider,
	extractor core.DocumentExtractor,
	chunker Chunker,
	cfg *IngestConfig,
) *Pipeline {
	return &Pipeline{
		chunks: chunks, retrieval: retrieval, obj: obj,
		embedder: embedder, extractor: extractor, chunker: chunker, cfg: cfg,
	}
}
