package ingestion_engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/treeline-ai/ragsync/internal/models"
)

// DocumentMeta carries per-document provenance attached to every record.
type DocumentMeta struct {
	SourcePath   string
	Origin       string // "local" or "bucket"
	OriginURI    string
	OriginBlob   string
	DocumentName string
}

// ChunkID is the deterministic primary-store identity of a chunk: the same
// document and position always map to the same ID, which is what makes
// re-ingestion an upsert instead of a duplication.
func ChunkID(documentStem string, index int) string {
	return fmt.Sprintf("chunk_%d_%s", index, documentStem)
}

// DocumentStem is the file name without directory or extension.
func DocumentStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentID derives a stable UUID from the document's source path.
func DocumentID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}

// BuildRecords pairs chunks with their embeddings and stamps each record with
// its deterministic identity and the document's provenance.
func BuildRecords(meta DocumentMeta, chunks []models.Chunk, embeddings [][]float32) ([]models.ChunkRecord, error) {
	if len(chunks) != len(embeddings) {
		return nil, fmt.Errorf("chunk/embedding count mismatch: %d chunks, %d vectors", len(chunks), len(embeddings))
	}

	stem := DocumentStem(meta.SourcePath)
	docID := DocumentID(meta.SourcePath)

	records := make([]models.ChunkRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = models.ChunkRecord{
			ID:           ChunkID(stem, ch.Index),
			DocumentID:   docID,
			Text:         ch.Text,
			Embedding:    embeddings[i],
			Source:       meta.SourcePath,
			Origin:       meta.Origin,
			OriginURI:    meta.OriginURI,
			OriginBlob:   meta.OriginBlob,
			PageNumber:   ch.Page,
			ChunkIndex:   ch.Index,
			DocumentName: meta.DocumentName,
		}
	}
	return records, nil
}
