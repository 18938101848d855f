package ingestion_engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/treeline-ai/ragsync/internal/models"
)

// DefaultSeparators is the hierarchy the recursive splitter walks, coarsest
// first: paragraph break, line break, sentence boundary, word boundary, and
// finally a hard character cut.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// LengthFunc measures a piece of text under the configured size metric.
type LengthFunc func(string) int

// RuneLength counts characters.
func RuneLength(s string) int { return utf8.RuneCountInString(s) }

// WordLength counts whitespace-delimited words, the token proxy.
func WordLength(s string) int { return len(strings.Fields(s)) }

// RecursiveSplitter splits text at the coarsest separator that occurs in it,
// re-splits oversized pieces with the next separator in the hierarchy, and
// greedily merges the resulting pieces into windows of at most chunkSize,
// carrying the trailing overlap of each window into the next. A piece that
// cannot be split further (the separator hierarchy is exhausted) is emitted
// oversized rather than truncated.
type RecursiveSplitter struct {
	chunkSize  int
	overlap    int
	separators []string
	length     LengthFunc
}

func NewRecursiveSplitter(chunkSize, overlap int, separators []string, length LengthFunc) (*RecursiveSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be non-negative and smaller than chunk size (%d)", overlap, chunkSize)
	}
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	if length == nil {
		length = RuneLength
	}
	return &RecursiveSplitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: separators,
		length:     length,
	}, nil
}

// Split windows text into pieces of at most chunkSize under the length metric,
// except for atomic pieces that already exceed it.
func (s *RecursiveSplitter) Split(text string) []string {
	return s.splitText(text, s.separators)
}

func (s *RecursiveSplitter) splitText(text string, separators []string) []string {
	// Pick the coarsest separator that actually occurs; "" means hard cut.
	sep := separators[len(separators)-1]
	var next []string
	for i, cand := range separators {
		if cand == "" || strings.Contains(text, cand) {
			sep = cand
			next = separators[i+1:]
			break
		}
	}

	var splits []string
	if sep == "" {
		for _, r := range text {
			splits = append(splits, string(r))
		}
	} else {
		splits = strings.Split(text, sep)
	}

	var final []string
	var good []string
	for _, piece := range splits {
		if piece == "" {
			continue
		}
		if s.length(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good, sep)...)
			good = nil
		}
		if len(next) == 0 {
			// Atomic piece larger than the budget: emit as-is.
			final = append(final, piece)
		} else {
			final = append(final, s.splitText(piece, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good, sep)...)
	}
	return final
}

// merge greedily packs pieces into windows of at most chunkSize, re-joining
// with the separator they were split on. When a window closes, pieces are
// dropped from its front until at most overlap remains; the kept tail seeds
// the next window.
func (s *RecursiveSplitter) merge(splits []string, sep string) []string {
	sepLen := s.length(sep)

	var docs []string
	var current []string
	total := 0

	joined := func(parts []string) string {
		return strings.TrimSpace(strings.Join(parts, sep))
	}

	for _, d := range splits {
		l := s.length(d)
		sepExtra := 0
		if len(current) > 0 {
			sepExtra = sepLen
		}
		if total+l+sepExtra > s.chunkSize && len(current) > 0 {
			if doc := joined(current); doc != "" {
				docs = append(docs, doc)
			}
			for len(current) > 0 {
				sepExtra = 0
				if len(current) > 0 {
					sepExtra = sepLen
				}
				if total <= s.overlap && (total+l+sepExtra <= s.chunkSize || total == 0) {
					break
				}
				dec := s.length(current[0])
				if len(current) > 1 {
					dec += sepLen
				}
				total -= dec
				current = current[1:]
			}
		}
		current = append(current, d)
		total += l
		if len(current) > 1 {
			total += sepLen
		}
	}
	if doc := joined(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// CharacterChunker applies the recursive splitter page by page, assigning
// document-wide contiguous chunk indexes.
type CharacterChunker struct {
	splitter *RecursiveSplitter
}

func NewCharacterChunker(chunkSize, overlap int) (*CharacterChunker, error) {
	sp, err := NewRecursiveSplitter(chunkSize, overlap, DefaultSeparators, RuneLength)
	if err != nil {
		return nil, err
	}
	return &CharacterChunker{splitter: sp}, nil
}

func (c *CharacterChunker) ChunkPages(pages []models.PageText) []models.Chunk {
	var chunks []models.Chunk
	idx := 0
	for _, p := range pages {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			continue
		}
		for _, piece := range c.splitter.Split(text) {
			chunks = append(chunks, models.Chunk{
				Text:  piece,
				Page:  p.PageNumber,
				Index: idx,
				Size:  RuneLength(piece),
			})
			idx++
		}
	}
	return chunks
}
