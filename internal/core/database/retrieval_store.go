package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/treeline-ai/ragsync/internal/core"
	"github.com/treeline-ai/ragsync/internal/models"
)

// MaxBatchOps is the hard ceiling on write operations per batched commit to
// the retrieval store. Larger insert sets are committed in consecutive full
// batches of this size followed by one partial final batch.
const MaxBatchOps = 500

// SyncedFromTag marks records written by the synchronizer with their origin.
const SyncedFromTag = "chunkstore"

// RetrievalStore persists chunk projections in Postgres/pgvector for the
// external retrieval service.
type RetrievalStore struct {
	pool *pgxpool.Pool
}

func NewRetrievalStore(ctx context.Context, dsn string, embedDim int) (*RetrievalStore, error) {
	if dsn == "" {
		return nil, core.Fatalf("no retrieval database configured: set RETRIEVAL_DATABASE_URL, DATABASE_URL or the PG_* variables")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open retrieval db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping retrieval db: %w", err)
	}

	s := &RetrievalStore{pool: pool}
	if err := s.init(ctx, embedDim); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap retrieval db: %w", err)
	}
	return s, nil
}

func (s *RetrievalStore) init(ctx context.Context, embedDim int) error {
	if embedDim <= 0 {
		embedDim = 768
	}
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS retrieval_chunks (
		origin_id     TEXT PRIMARY KEY,
		content       TEXT NOT NULL,
		embedding     vector(%d),
		document_id   TEXT NOT NULL,
		source        TEXT NOT NULL DEFAULT '',
		page_number   INT NOT NULL DEFAULT 0,
		chunk_index   INT NOT NULL DEFAULT 0,
		document_name TEXT NOT NULL DEFAULT '',
		embedding_dim INT NOT NULL,
		created_at    TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		synced_from   TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_retrieval_chunks_document_id ON retrieval_chunks(document_id);
	`, embedDim)

	_, err := s.pool.Exec(ctx, query)
	return err
}

func (s *RetrievalStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *RetrievalStore) ChunkExists(ctx context.Context, originID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM retrieval_chunks WHERE origin_id = $1)`, originID,
	).Scan(&exists)
	return exists, err
}

// Writes through this statement replace any existing row at the same origin
// ID, so re-ingesting a document (deterministic chunk IDs) overwrites its
// mirrored rows instead of failing on the primary key.
const upsertChunkSQL = `
	INSERT INTO retrieval_chunks
		(origin_id, content, embedding, document_id, source, page_number, chunk_index, document_name, embedding_dim, created_at, synced_from)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), $10)
	ON CONFLICT (origin_id) DO UPDATE SET
		content       = EXCLUDED.content,
		embedding     = EXCLUDED.embedding,
		document_id   = EXCLUDED.document_id,
		source        = EXCLUDED.source,
		page_number   = EXCLUDED.page_number,
		chunk_index   = EXCLUDED.chunk_index,
		document_name = EXCLUDED.document_name,
		embedding_dim = EXCLUDED.embedding_dim,
		created_at    = now(),
		synced_from   = EXCLUDED.synced_from
`

func (s *RetrievalStore) CreateChunk(ctx context.Context, c models.RetrievalChunk) error {
	_, err := s.pool.Exec(ctx, upsertChunkSQL,
		c.OriginID, c.Content, pgvector.NewVector(c.Embedding), c.DocumentID, c.Source,
		c.PageNumber, c.ChunkIndex, c.DocumentName, c.EmbeddingDim, c.SyncedFrom,
	)
	return err
}

func (s *RetrievalStore) UpdateChunk(ctx context.Context, c models.RetrievalChunk) error {
	const q = `
		UPDATE retrieval_chunks SET
			content       = $2,
			embedding     = $3,
			document_id   = $4,
			source        = $5,
			page_number   = $6,
			chunk_index   = $7,
			document_name = $8,
			embedding_dim = $9,
			created_at    = now(),
			synced_from   = $10
		WHERE origin_id = $1
	`
	res, err := s.pool.Exec(ctx, q,
		c.OriginID, c.Content, pgvector.NewVector(c.Embedding), c.DocumentID, c.Source,
		c.PageNumber, c.ChunkIndex, c.DocumentName, c.EmbeddingDim, c.SyncedFrom,
	)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("retrieval chunk not found: %s", c.OriginID)
	}
	return nil
}

// InsertChunks writes all records, committing at most MaxBatchOps queued
// operations per round trip. Each write is an upsert keyed on origin ID, so
// re-running over the same records replaces rows instead of erroring.
func (s *RetrievalStore) InsertChunks(ctx context.Context, chunks []models.RetrievalChunk) error {
	for _, span := range batchSpans(len(chunks), MaxBatchOps) {
		b := &pgx.Batch{}
		for _, c := range chunks[span.start:span.end] {
			b.Queue(upsertChunkSQL,
				c.OriginID, c.Content, pgvector.NewVector(c.Embedding), c.DocumentID, c.Source,
				c.PageNumber, c.ChunkIndex, c.DocumentName, c.EmbeddingDim, c.SyncedFrom,
			)
		}
		if err := s.pool.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("commit batch [%d:%d]: %w", span.start, span.end, err)
		}
	}
	return nil
}

type span struct {
	start, end int
}

// batchSpans partitions n items into consecutive spans of at most size items:
// all full spans of exactly size, then one partial tail.
func batchSpans(n, size int) []span {
	if n <= 0 || size <= 0 {
		return nil
	}
	spans := make([]span, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, span{start: start, end: end})
	}
	return spans
}

var _ core.RetrievalStore = (*RetrievalStore)(nil)
