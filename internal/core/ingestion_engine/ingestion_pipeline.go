package ingestion_engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/treeline-ai/ragsync/internal/core"
	"github.com/treeline-ai/ragsync/internal/models"
)

// IngestFile runs the full pipeline for one document: upload (best effort),
// extract, chunk, embed, upsert. Any failure past the upload step is fatal to
// this document; nothing is written to the primary store for a document whose
// embeddings are incomplete. Returns the number of chunks indexed.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, core.Fatalf("input file not found: %s", path)
	}

	meta := DocumentMeta{
		SourcePath:   path,
		Origin:       "local",
		DocumentName: filepath.Base(path),
	}

	// Step 1: upload to the bucket. Failure is logged, not fatal; the
	// document is then indexed with local-only provenance.
	if p.obj != nil {
		p.uploadToBucket(ctx, path, &meta)
	}

	// Step 2: extract per-page text.
	pages, err := p.extractor.ExtractPages(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("extract %s: %w", path, err)
	}
	if len(pages) == 0 {
		return 0, fmt.Errorf("no content extracted from %s: file may be empty or corrupted", path)
	}
	log.Printf("Loaded %d page(s) from %s", len(pages), path)

	// Step 3: chunk.
	chunks := p.chunker.ChunkPages(pages)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks produced from %s", path)
	}
	log.Printf("Created %d chunk(s)", len(chunks))

	// Step 4: embed in fixed-size batches, fail-fast.
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	embeddings, err := EmbedInBatches(ctx, p.embedder, texts, p.cfg.EmbedBatchSize)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", path, err)
	}
	if len(embeddings) > 0 {
		log.Printf("Generated %d embedding(s) (dimension: %d)", len(embeddings), len(embeddings[0]))
	}

	// Step 5: upsert all records for the document in one call.
	records, err := BuildRecords(meta, chunks, embeddings)
	if err != nil {
		return 0, err
	}
	if err := p.chunks.UpsertChunks(ctx, records); err != nil {
		return 0, fmt.Errorf("index %s: %w", path, err)
	}
	log.Printf("Indexed %d chunk(s) from %s", len(records), meta.DocumentName)

	// Optional mirror write into the retrieval store, batched under the
	// commit ceiling. Best effort: the primary store already holds the
	// document and a later sync run will reconcile.
	if p.cfg.MirrorToRetrieval && p.retrieval != nil {
		mirror := make([]models.RetrievalChunk, len(records))
		for i := range records {
			mirror[i] = records[i].ToRetrievalChunk("ingest")
		}
		if err := p.retrieval.InsertChunks(ctx, mirror); err != nil {
			log.Printf("WARN: retrieval mirror write failed for %s: %v", path, err)
		}
	}

	return len(records), nil
}

func (p *Pipeline) uploadToBucket(ctx context.Context, path string, meta *DocumentMeta) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("WARN: cannot open %s for upload, continuing with local file: %v", path, err)
		return
	}
	defer f.Close()

	url, err := p.obj.UploadFile(ctx, p.cfg.BucketName, meta.DocumentName, f, "application/pdf")
	if err != nil {
		log.Printf("WARN: bucket upload failed for %s, continuing with local file: %v", path, err)
		return
	}

	meta.Origin = "bucket"
	meta.OriginURI = url
	meta.OriginBlob = meta.DocumentName
	log.Printf("Uploaded %s to bucket %s", meta.DocumentName, p.cfg.BucketName)
}
