package ingestion_engine

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-ai/ragsync/internal/models"
)

// fiftyCharSentences builds n distinct sentences of exactly 48 characters,
// which join to 50-character units under the ". " separator.
func fiftyCharSentences(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("sentence %02d %s", i, strings.Repeat("x", 36))
	}
	return out
}

func TestNewRecursiveSplitter_RejectsBadOverlap(t *testing.T) {
	_, err := NewRecursiveSplitter(100, 100, nil, nil)
	require.Error(t, err)

	_, err = NewRecursiveSplitter(100, 150, nil, nil)
	require.Error(t, err)

	_, err = NewRecursiveSplitter(0, 0, nil, nil)
	require.Error(t, err)
}

func TestRecursiveSplitter_SizeBound(t *testing.T) {
	sp, err := NewRecursiveSplitter(100, 20, nil, nil)
	require.NoError(t, err)

	text := strings.Join(fiftyCharSentences(20), ". ") + "\n\n" + strings.Join(fiftyCharSentences(10), ". ")
	for _, piece := range sp.Split(text) {
		assert.LessOrEqual(t, utf8.RuneCountInString(piece), 100)
	}
}

func TestRecursiveSplitter_WindowingScenario(t *testing.T) {
	// A ~2500-character page with maxSize=1000 and overlap=200 yields three
	// windows; each later window starts with the tail of the previous one.
	sp, err := NewRecursiveSplitter(1000, 200, nil, nil)
	require.NoError(t, err)

	sentences := fiftyCharSentences(50)
	text := strings.Join(sentences, ". ")
	require.Equal(t, 2498, utf8.RuneCountInString(text))

	windows := sp.Split(text)
	require.Len(t, windows, 3)

	for _, w := range windows {
		assert.LessOrEqual(t, utf8.RuneCountInString(w), 1000)
	}

	// Four 48-char sentences joined with ". " make the 198-char overlap tail.
	const overlapLen = 4*48 + 3*2
	assert.True(t, strings.HasPrefix(windows[1], windows[0][len(windows[0])-overlapLen:]))
	assert.True(t, strings.HasPrefix(windows[2], windows[1][len(windows[1])-overlapLen:]))

	// Stripping the overlap prefixes reconstructs the original page text.
	rebuilt := windows[0] + windows[1][overlapLen:] + windows[2][overlapLen:]
	assert.Equal(t, text, rebuilt)
}

func TestRecursiveSplitter_OversizedAtomicPiece(t *testing.T) {
	// Without the hard-cut separator, an unsplittable token larger than the
	// budget is emitted as-is rather than truncated.
	sp, err := NewRecursiveSplitter(10, 2, []string{"\n\n", ". "}, nil)
	require.NoError(t, err)

	token := strings.Repeat("z", 50)
	windows := sp.Split(token)
	require.Len(t, windows, 1)
	assert.Equal(t, token, windows[0])
}

func TestRecursiveSplitter_HardCutFallback(t *testing.T) {
	sp, err := NewRecursiveSplitter(10, 0, nil, nil)
	require.NoError(t, err)

	token := strings.Repeat("z", 25)
	windows := sp.Split(token)
	require.Len(t, windows, 3)
	assert.Equal(t, token, strings.Join(windows, ""))
}

func TestCharacterChunker_SkipsEmptyPages(t *testing.T) {
	c, err := NewCharacterChunker(100, 20)
	require.NoError(t, err)

	pages := []models.PageText{
		{Text: "   \n\t  ", PageNumber: 1, TotalPages: 3},
		{Text: "short page of text", PageNumber: 2, TotalPages: 3},
		{Text: "", PageNumber: 3, TotalPages: 3},
	}

	chunks := c.ChunkPages(pages)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Page)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "short page of text", chunks[0].Text)
	assert.Equal(t, utf8.RuneCountInString(chunks[0].Text), chunks[0].Size)
}

func TestCharacterChunker_ContiguousIndexesAcrossPages(t *testing.T) {
	c, err := NewCharacterChunker(100, 20)
	require.NoError(t, err)

	pages := []models.PageText{
		{Text: strings.Join(fiftyCharSentences(5), ". "), PageNumber: 1, TotalPages: 2},
		{Text: strings.Join(fiftyCharSentences(5), ". "), PageNumber: 2, TotalPages: 2},
	}

	chunks := c.ChunkPages(pages)
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.LessOrEqual(t, ch.Size, 100)
	}
	assert.Greater(t, chunks[len(chunks)-1].Page, chunks[0].Page)
}
