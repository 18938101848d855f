package ingestion_engine

import (
	"fmt"
	"strings"

	"github.com/treeline-ai/ragsync/internal/models"
)

// SentenceChunker accumulates sentences into windows while the running
// whitespace-word count stays within the token budget. When a window closes,
// the next one is seeded with the last two sentences of the closed window
// before the overflowing sentence is appended. A single sentence larger than
// the budget becomes its own oversized chunk.
type SentenceChunker struct {
	maxTokens int
}

func NewSentenceChunker(maxTokens int) (*SentenceChunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("token budget must be positive, got %d", maxTokens)
	}
	return &SentenceChunker{maxTokens: maxTokens}, nil
}

func (c *SentenceChunker) ChunkPages(pages []models.PageText) []models.Chunk {
	var chunks []models.Chunk
	idx := 0

	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}

		sentences := strings.Split(text, ". ")
		var current string
		tokens := 0

		emit := func() {
			chunks = append(chunks, models.Chunk{
				Text:  strings.TrimSpace(current),
				Page:  p.PageNumber,
				Index: idx,
				Size:  tokens,
			})
			idx++
		}

		for _, sentence := range sentences {
			st := WordLength(sentence)

			if tokens+st > c.maxTokens && current != "" {
				emit()

				// Seed the next window with the tail of the closed one.
				parts := strings.Split(current, ". ")
				if len(parts) > 2 {
					parts = parts[len(parts)-2:]
				}
				current = strings.Join(parts, ". ") + ". " + sentence
				tokens = WordLength(current)
				continue
			}

			if current != "" {
				current += ". " + sentence
			} else {
				current = sentence
			}
			tokens += st
		}

		if strings.TrimSpace(current) != "" {
			emit()
		}
	}
	return chunks
}
