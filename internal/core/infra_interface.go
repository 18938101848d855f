package core

import (
	"context"
	"io"

	"github.com/treeline-ai/ragsync/internal/models"
)

// DocumentExtractor turns a document file into ordered page-level text items.
type DocumentExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]models.PageText, error)
}

// EmbeddingProvider maps a batch of texts to one embedding vector per text,
// in input order.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore is the primary store written by the indexer. Upserts are keyed
// on the record ID, so re-ingesting a document replaces its rows in place.
type ChunkStore interface {
	UpsertChunks(ctx context.Context, records []models.ChunkRecord) error
	ListChunks(ctx context.Context) ([]models.ChunkRecord, error)
	Close() error
}

// RetrievalStore is the secondary store consumed by the retrieval service.
// Records are keyed on the primary record's ID (origin ID).
type RetrievalStore interface {
	ChunkExists(ctx context.Context, originID string) (bool, error)
	CreateChunk(ctx context.Context, chunk models.RetrievalChunk) error
	UpdateChunk(ctx context.Context, chunk models.RetrievalChunk) error

	// InsertChunks writes many records at once, committing in consecutive
	// batches that never exceed the store's operation ceiling. Writes are
	// upserts keyed on origin ID: re-inserting the same records replaces
	// them in place.
	InsertChunks(ctx context.Context, chunks []models.RetrievalChunk) error

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
}
