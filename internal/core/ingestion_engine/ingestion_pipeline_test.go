package ingestion_engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeline-ai/ragsync/internal/core"
	"github.com/treeline-ai/ragsync/internal/models"
)

type memChunkStore struct {
	records map[string]models.ChunkRecord
	upserts int
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{records: make(map[string]models.ChunkRecord)}
}

func (m *memChunkStore) UpsertChunks(_ context.Context, records []models.ChunkRecord) error {
	m.upserts++
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *memChunkStore) ListChunks(_ context.Context) ([]models.ChunkRecord, error) {
	out := make([]models.ChunkRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memChunkStore) Close() error { return nil }

type stubExtractor struct {
	pages  []models.PageText
	err    error
	called int
}

func (s *stubExtractor) ExtractPages(_ context.Context, _ string) ([]models.PageText, error) {
	s.called++
	return s.pages, s.err
}

type constEmbedder struct {
	err error
}

func (c *constEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

// mirrorStore holds records keyed by origin ID, the retrieval store's upsert
// contract: inserting an existing ID replaces the row.
type mirrorStore struct {
	records map[string]models.RetrievalChunk
	inserts int
	err     error
}

func newMirrorStore() *mirrorStore {
	return &mirrorStore{records: make(map[string]models.RetrievalChunk)}
}

func (m *mirrorStore) ChunkExists(context.Context, string) (bool, error)        { return false, nil }
func (m *mirrorStore) CreateChunk(context.Context, models.RetrievalChunk) error { return nil }
func (m *mirrorStore) UpdateChunk(context.Context, models.RetrievalChunk) error { return nil }
func (m *mirrorStore) Close() error                                             { return nil }

func (m *mirrorStore) InsertChunks(_ context.Context, chunks []models.RetrievalChunk) error {
	if m.err != nil {
		return m.err
	}
	m.inserts++
	for _, c := range chunks {
		m.records[c.OriginID] = c
	}
	return nil
}

func writeTempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))
	return path
}

func testPipeline(t *testing.T, store core.ChunkStore, retrieval core.RetrievalStore, embedder core.EmbeddingProvider, extractor core.DocumentExtractor, mirror bool) *Pipeline {
	t.Helper()
	chunker, err := NewCharacterChunker(1000, 200)
	require.NoError(t, err)
	return NewPipeline(store, retrieval, nil, embedder, extractor, chunker, &IngestConfig{
		EmbedBatchSize:    20,
		MirrorToRetrieval: mirror,
	})
}

func TestIngestFile_MissingFileIsFatal(t *testing.T) {
	store := newMemChunkStore()
	ext := &stubExtractor{}
	p := testPipeline(t, store, nil, &constEmbedder{}, ext, false)

	_, err := p.IngestFile(context.Background(), "/no/such/file.pdf")
	require.Error(t, err)
	assert.True(t, core.IsFatal(err))
	assert.Zero(t, ext.called)
	assert.Empty(t, store.records)
}

func TestIngestFile_IndexesAndIsIdempotent(t *testing.T) {
	store := newMemChunkStore()
	ext := &stubExtractor{pages: []models.PageText{
		{Text: "the first page of the report", PageNumber: 1, TotalPages: 2},
		{Text: "the second page of the report", PageNumber: 2, TotalPages: 2},
	}}
	p := testPipeline(t, store, nil, &constEmbedder{}, ext, false)
	path := writeTempPDF(t)

	n, err := p.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.records, 2)

	rec, ok := store.records["chunk_0_report"]
	require.True(t, ok)
	assert.Equal(t, "the first page of the report", rec.Text)
	assert.Equal(t, 1, rec.PageNumber)
	assert.Equal(t, "local", rec.Origin)
	assert.Equal(t, "report.pdf", rec.DocumentName)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, rec.Embedding)

	// Re-ingesting the same document replaces rows, never duplicates them.
	n, err = p.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, store.records, 2)
	assert.Equal(t, 2, store.upserts)
}

func TestIngestFile_EmbeddingFailureWritesNothing(t *testing.T) {
	store := newMemChunkStore()
	ext := &stubExtractor{pages: []models.PageText{
		{Text: "some page text", PageNumber: 1, TotalPages: 1},
	}}
	p := testPipeline(t, store, nil, &constEmbedder{err: errors.New("quota exceeded")}, ext, false)

	_, err := p.IngestFile(context.Background(), writeTempPDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed")
	assert.Empty(t, store.records)
	assert.Zero(t, store.upserts)
}

func TestIngestFile_EmptyExtractionFails(t *testing.T) {
	store := newMemChunkStore()
	p := testPipeline(t, store, nil, &constEmbedder{}, &stubExtractor{}, false)

	_, err := p.IngestFile(context.Background(), writeTempPDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content extracted")
	assert.Empty(t, store.records)
}

func TestIngestFile_MirrorsToRetrievalStore(t *testing.T) {
	store := newMemChunkStore()
	mirror := newMirrorStore()
	ext := &stubExtractor{pages: []models.PageText{
		{Text: "page to be mirrored", PageNumber: 1, TotalPages: 1},
	}}
	p := testPipeline(t, store, mirror, &constEmbedder{}, ext, true)

	n, err := p.IngestFile(context.Background(), writeTempPDF(t))
	require.NoError(t, err)
	require.Len(t, mirror.records, n)

	got, ok := mirror.records["chunk_0_report"]
	require.True(t, ok)
	assert.Equal(t, "ingest", got.SyncedFrom)
}

func TestIngestFile_ReMirrorReplacesRecords(t *testing.T) {
	store := newMemChunkStore()
	mirror := newMirrorStore()
	ext := &stubExtractor{pages: []models.PageText{
		{Text: "original page text", PageNumber: 1, TotalPages: 1},
	}}
	p := testPipeline(t, store, mirror, &constEmbedder{}, ext, true)
	path := writeTempPDF(t)

	_, err := p.IngestFile(context.Background(), path)
	require.NoError(t, err)

	// Same document, revised content: the deterministic IDs collide on
	// purpose and the mirror write must replace, not fail or duplicate.
	ext.pages = []models.PageText{
		{Text: "revised page text", PageNumber: 1, TotalPages: 1},
	}
	_, err = p.IngestFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, mirror.inserts)
	require.Len(t, mirror.records, 1)
	assert.Equal(t, "revised page text", mirror.records["chunk_0_report"].Content)
}

func TestIngestFile_MirrorFailureDoesNotFailIngest(t *testing.T) {
	store := newMemChunkStore()
	mirror := &mirrorStore{err: errors.New("connection refused")}
	ext := &stubExtractor{pages: []models.PageText{
		{Text: "page to be mirrored", PageNumber: 1, TotalPages: 1},
	}}
	p := testPipeline(t, store, mirror, &constEmbedder{}, ext, true)

	n, err := p.IngestFile(context.Background(), writeTempPDF(t))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	// The primary store still holds the document.
	assert.Len(t, store.records, 1)
}
