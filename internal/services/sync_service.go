package services

import (
	"context"
	"fmt"
	"log"

	"github.com/treeline-ai/ragsync/internal/core"
	db "github.com/treeline-ai/ragsync/internal/core/database"
)

// SyncSummary is the outcome of one reconciliation run.
type SyncSummary struct {
	Synced  int
	Skipped int
	Total   int
}

// SyncService copies every record from the primary chunk store into the
// retrieval store: existing records are updated in place, missing ones are
// created. A record that fails is skipped and counted; the run continues
// with the next record. No retries.
type SyncService struct {
	chunks    core.ChunkStore
	retrieval core.RetrievalStore
}

func NewSyncService(chunks core.ChunkStore, retrieval core.RetrievalStore) *SyncService {
	return &SyncService{chunks: chunks, retrieval: retrieval}
}

// Run reconciles the retrieval store against the full contents of the chunk
// store. Only the initial listing can fail the run as a whole.
func (s *SyncService) Run(ctx context.Context) (SyncSummary, error) {
	records, err := s.chunks.ListChunks(ctx)
	if err != nil {
		return SyncSummary{}, core.Fatal(fmt.Errorf("list chunk store: %w", err))
	}

	summary := SyncSummary{Total: len(records)}
	if len(records) == 0 {
		log.Println("No records found in chunk store; nothing to sync")
		return summary, nil
	}
	log.Printf("Found %d record(s) in chunk store", len(records))

	for i, rec := range records {
		target := rec.ToRetrievalChunk(db.SyncedFromTag)

		exists, err := s.retrieval.ChunkExists(ctx, rec.ID)
		if err != nil {
			log.Printf("WARN: lookup failed for %s, skipping: %v", rec.ID, err)
			summary.Skipped++
			continue
		}

		if exists {
			err = s.retrieval.UpdateChunk(ctx, target)
		} else {
			err = s.retrieval.CreateChunk(ctx, target)
		}
		if err != nil {
			log.Printf("WARN: sync failed for %s, skipping: %v", rec.ID, err)
			summary.Skipped++
			continue
		}

		summary.Synced++
		if (i+1)%10 == 0 {
			log.Printf("Progress: %d/%d record(s) synced", i+1, len(records))
		}
	}

	log.Printf("Sync complete: synced=%d skipped=%d total=%d", summary.Synced, summary.Skipped, summary.Total)
	return summary, nil
}
