package models

import (
	"time"
)

// PageText is one page of extracted document text, as produced by the
// extractor. Pages with no usable text are dropped before chunking.
type PageText struct {
	Text       string
	PageNumber int
	TotalPages int
}

// Chunk is one bounded window of page text.
//
// Index is zero-based and contiguous across the whole document.
// Size is the chunk's size under the active length metric: characters for the
// recursive splitter, whitespace-delimited words for the sentence windower.
type Chunk struct {
	Text  string
	Page  int
	Index int
	Size  int
}

// ChunkRecord is a row in the primary chunk store: chunk text, its embedding
// and the provenance metadata needed to reproject it into the retrieval store.
type ChunkRecord struct {
	ID           string    `db:"id"`
	DocumentID   string    `db:"document_id"`
	Text         string    `db:"content"`
	Embedding    []float32 `db:"embedding"`
	Source       string    `db:"source"` // local path the document was ingested from
	Origin       string    `db:"origin"` // "local" or "bucket"
	OriginURI    string    `db:"origin_uri"`
	OriginBlob   string    `db:"origin_blob"`
	PageNumber   int       `db:"page_number"`
	ChunkIndex   int       `db:"chunk_index"`
	DocumentName string    `db:"document_name"`
}

// RetrievalChunk is the retrieval store's projection of a ChunkRecord.
// It is keyed by OriginID (the primary record's ID) so repeated syncs update
// in place instead of duplicating.
type RetrievalChunk struct {
	Content      string
	Embedding    []float32
	DocumentID   string
	Source       string
	PageNumber   int
	ChunkIndex   int
	DocumentName string
	EmbeddingDim int
	CreatedAt    time.Time
	SyncedFrom   string
	OriginID     string
}

// ToRetrievalChunk reprojects a primary-store record into the retrieval
// schema. Missing metadata degrades to empty or zero values; a record without
// an embedding keeps the conventional 768 dimension marker.
func (r ChunkRecord) ToRetrievalChunk(syncedFrom string) RetrievalChunk {
	docID := r.OriginBlob
	if docID == "" {
		docID = r.DocumentName
	}
	if docID == "" {
		docID = r.Source
	}

	source := r.OriginURI
	if source == "" {
		source = r.Source
	}

	dim := len(r.Embedding)
	if dim == 0 {
		dim = 768
	}

	return RetrievalChunk{
		Content:      r.Text,
		Embedding:    r.Embedding,
		DocumentID:   docID,
		Source:       source,
		PageNumber:   r.PageNumber,
		ChunkIndex:   r.ChunkIndex,
		DocumentName: r.DocumentName,
		EmbeddingDim: dim,
		SyncedFrom:   syncedFrom,
		OriginID:     r.ID,
	}
}
