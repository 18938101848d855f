package chunkstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/treeline-ai/ragsync/internal/core"
	"github.com/treeline-ai/ragsync/internal/models"
)

// Store is the primary chunk store: a single SQLite database file persisted
// under a configurable directory. Embeddings are stored as little-endian
// float32 blobs next to the chunk text and its provenance metadata.
type Store struct {
	db *sql.DB
}

const schema = `
	CREATE TABLE IF NOT EXISTS chunks (
		id            TEXT PRIMARY KEY,
		document_id   TEXT NOT NULL,
		content       TEXT NOT NULL,
		embedding     BLOB NOT NULL,
		source        TEXT NOT NULL,
		origin        TEXT NOT NULL DEFAULT 'local',
		origin_uri    TEXT NOT NULL DEFAULT '',
		origin_blob   TEXT NOT NULL DEFAULT '',
		page_number   INTEGER NOT NULL DEFAULT 0,
		chunk_index   INTEGER NOT NULL DEFAULT 0,
		document_name TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
`

// Open creates dir if needed and opens (or creates) the store inside it.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk store dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "chunks.db"))
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}

	// Single writer; SQLite performs best without connection churn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create chunks table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UpsertChunks writes all records in one transaction. Rows with an existing
// ID are replaced, so re-ingesting a document never duplicates chunks.
func (s *Store) UpsertChunks(ctx context.Context, records []models.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO chunks
			(id, document_id, content, embedding, source, origin, origin_uri, origin_blob, page_number, chunk_index, document_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id   = excluded.document_id,
			content       = excluded.content,
			embedding     = excluded.embedding,
			source        = excluded.source,
			origin        = excluded.origin,
			origin_uri    = excluded.origin_uri,
			origin_blob   = excluded.origin_blob,
			page_number   = excluded.page_number,
			chunk_index   = excluded.chunk_index,
			document_name = excluded.document_name
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.DocumentID, r.Text, serializeVector(r.Embedding),
			r.Source, r.Origin, r.OriginURI, r.OriginBlob,
			r.PageNumber, r.ChunkIndex, r.DocumentName,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert chunk %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// ListChunks returns every record in the store in insertion (rowid) order.
func (s *Store) ListChunks(ctx context.Context) ([]models.ChunkRecord, error) {
	const q = `
		SELECT id, document_id, content, embedding, source, origin, origin_uri, origin_blob, page_number, chunk_index, document_name
		FROM chunks
		ORDER BY rowid
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChunkRecord
	for rows.Next() {
		var (
			r    models.ChunkRecord
			blob []byte
		)
		if err := rows.Scan(
			&r.ID, &r.DocumentID, &r.Text, &blob, &r.Source, &r.Origin,
			&r.OriginURI, &r.OriginBlob, &r.PageNumber, &r.ChunkIndex, &r.DocumentName,
		); err != nil {
			return nil, err
		}
		r.Embedding = deserializeVector(blob)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountChunks returns the number of records currently stored.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// serializeVector converts a float32 slice to a little-endian byte blob.
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice.
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

var _ core.ChunkStore = (*Store)(nil)
