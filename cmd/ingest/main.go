package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/treeline-ai/ragsync/internal/config"
	"github.com/treeline-ai/ragsync/internal/core"
	"github.com/treeline-ai/ragsync/internal/core/chunkstore"
	db "github.com/treeline-ai/ragsync/internal/core/database"
	"github.com/treeline-ai/ragsync/internal/core/ingestion_engine"
	"github.com/treeline-ai/ragsync/internal/core/llm"
	objectclient "github.com/treeline-ai/ragsync/internal/core/object-client"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <pdf-file> [<pdf-file> ...]\n", os.Args[0])
		os.Exit(2)
	}

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	pipeline, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer cleanup()

	// One document's failure never blocks the rest of the batch.
	failed := 0
	for _, path := range os.Args[1:] {
		n, err := pipeline.IngestFile(ctx, path)
		if err != nil {
			log.Printf("ERROR: ingesting %s: %v", path, err)
			failed++
			continue
		}
		log.Printf("Processed %d chunk(s) from %s", n, path)
	}

	if failed > 0 {
		log.Printf("%d of %d document(s) failed", failed, len(os.Args)-1)
		os.Exit(1)
	}
}

// buildPipeline constructs every client once and wires them into the
// pipeline. The object client and the retrieval store are optional: without
// bucket credentials ingestion proceeds with local-only provenance, and the
// retrieval store only matters in mirror mode.
func buildPipeline(ctx context.Context, cfg *config.Config) (*ingestion_engine.Pipeline, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	chunks, err := chunkstore.Open(ctx, cfg.ChunkStoreDir)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, func() { _ = chunks.Close() })
	log.Printf("Chunk store ready at %s", cfg.ChunkStoreDir)

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("initialize embedder: %w", err)
	}
	closers = append(closers, func() { _ = embedder.Close() })

	var obj core.ObjectClient
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		obj, err = objectclient.NewS3Client(ctx, cfg)
		if err != nil {
			log.Printf("WARN: object storage unavailable, documents keep local provenance: %v", err)
			obj = nil
		}
	} else {
		log.Println("No bucket credentials configured; skipping uploads")
	}

	var retrieval core.RetrievalStore
	if cfg.MirrorToRetrieval {
		store, err := db.NewRetrievalStore(ctx, cfg.RetrievalDSN(), cfg.EmbedDim)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("mirror mode requires the retrieval store: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		retrieval = store
	}

	chunker, err := ingestion_engine.NewChunker(cfg)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	ingCfg := &ingestion_engine.IngestConfig{
		BucketName:        cfg.BucketName,
		EmbedBatchSize:    cfg.EmbedBatchSize,
		MirrorToRetrieval: cfg.MirrorToRetrieval,
	}

	pipeline := ingestion_engine.NewPipeline(
		chunks, retrieval, obj, embedder,
		ingestion_engine.NewDocconvExtractor(), chunker, ingCfg,
	)
	return pipeline, cleanup, nil
}
