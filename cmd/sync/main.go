package main

import (
	"context"
	"log"
	"os"

	"github.com/treeline-ai/ragsync/internal/config"
	"github.com/treeline-ai/ragsync/internal/core/chunkstore"
	db "github.com/treeline-ai/ragsync/internal/core/database"
	"github.com/treeline-ai/ragsync/internal/services"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	chunks, err := chunkstore.Open(ctx, cfg.ChunkStoreDir)
	if err != nil {
		log.Fatalf("open chunk store: %v", err)
	}
	defer chunks.Close()
	log.Printf("Connected to chunk store at %s", cfg.ChunkStoreDir)

	retrieval, err := db.NewRetrievalStore(ctx, cfg.RetrievalDSN(), cfg.EmbedDim)
	if err != nil {
		log.Fatalf("open retrieval store: %v", err)
	}
	defer retrieval.Close()
	log.Println("Connected to retrieval store")

	summary, err := services.NewSyncService(chunks, retrieval).Run(ctx)
	if err != nil {
		log.Fatalf("sync failed: %v", err)
	}

	log.Printf("Synced: %d, Skipped: %d, Total: %d", summary.Synced, summary.Skipped, summary.Total)

	// A non-empty store that produced nothing means every record failed.
	if summary.Total > 0 && summary.Synced == 0 {
		os.Exit(1)
	}
}
