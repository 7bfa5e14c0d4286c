package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/chunker"
	"studyrag/internal/domain"
	"studyrag/internal/extract"
)

// plainText treats the file's bytes as already-extracted text.
type plainText struct{}

func (plainText) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

// failingExtractor simulates a corrupt document.
type failingExtractor struct{}

func (failingExtractor) Extract(path string) (string, error) {
	return "", errors.New("corrupt container")
}

// fakeEmbedder returns a deterministic vector derived from the text length.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrRemoteUnavailable)
	}
	return []float64{float64(len(text)), 1}, nil
}

func (f *fakeEmbedder) Dimension() int { return 2 }

// recordingStore captures gateway traffic for assertions.
type recordingStore struct {
	mu       sync.Mutex
	created  []domain.Schema
	upserted []domain.Point
	results  []domain.SearchResult
}

func (r *recordingStore) CollectionExists(context.Context, string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created) > 0, nil
}

func (r *recordingStore) CreateCollection(_ context.Context, schema domain.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, schema)
	return nil
}

func (r *recordingStore) Upsert(_ context.Context, _ string, point domain.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, point)
	return nil
}

func (r *recordingStore) Search(context.Context, string, []float64, int) ([]domain.SearchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results, nil
}

func (r *recordingStore) EnsureAndUpsert(ctx context.Context, schema domain.Schema, point domain.Point) error {
	exists, err := r.CollectionExists(ctx, schema.Collection)
	if err != nil {
		return err
	}
	if !exists {
		if err := r.CreateCollection(ctx, schema); err != nil {
			return err
		}
	}
	return r.Upsert(ctx, schema.Collection, point)
}

func testIngester(t *testing.T, store domain.VectorStore, emb domain.Embedder, registry extract.Registry) *Ingester {
	t.Helper()
	ck, err := chunker.NewWindowChunker(500, 50)
	require.NoError(t, err)
	return NewIngester(IngesterConfig{
		Chunker:    ck,
		Embedder:   emb,
		Store:      store,
		Extractors: registry,
		Schema:     domain.Schema{Collection: "class_notes", VectorSize: 2, Distance: domain.DistanceCosine},
		IDs:        NewIDAllocatorFrom(100),
	})
}

func TestIngestSingleDocument(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("a", 1200)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte(text), 0o644))

	store := &recordingStore{}
	emb := &fakeEmbedder{}
	ing := testIngester(t, store, emb, extract.Registry{".pdf": plainText{}})

	require.NoError(t, ing.IngestDir(context.Background(), dir))

	require.Len(t, store.created, 1, "collection created exactly once")
	require.Len(t, store.upserted, 3)
	assert.Equal(t, 3, emb.calls)

	seen := make(map[uint64]struct{})
	for i, p := range store.upserted {
		assert.Equal(t, "doc.pdf", p.Payload.Filename)
		assert.Equal(t, i, p.Payload.ChunkIndex)
		assert.NotEmpty(t, p.Payload.TextContent)
		_, dup := seen[p.ID]
		assert.False(t, dup, "point ids must be unique")
		seen[p.ID] = struct{}{}
	}
	assert.Len(t, store.upserted[0].Payload.TextContent, 500)
	assert.Len(t, store.upserted[2].Payload.TextContent, 300)
}

func TestIngestSkipsUnsupportedAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.pdf"), []byte("real content"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.pdf"), []byte("  \n\t "), 0o644))

	store := &recordingStore{}
	ing := testIngester(t, store, &fakeEmbedder{}, extract.Registry{".pdf": plainText{}})

	require.NoError(t, ing.IngestDir(context.Background(), dir))
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "notes.pdf", store.upserted[0].Payload.Filename)
}

func TestIngestContinuesPastExtractionFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_corrupt.docx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_good.pdf"), []byte("usable text"), 0o644))

	store := &recordingStore{}
	ing := testIngester(t, store, &fakeEmbedder{}, extract.Registry{
		".pdf":  plainText{},
		".docx": failingExtractor{},
	})

	require.NoError(t, ing.IngestDir(context.Background(), dir))
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "b_good.pdf", store.upserted[0].Payload.Filename)
}

func TestIngestWalksSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "week1", "lectures")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "intro.pdf"), []byte("nested notes"), 0o644))

	store := &recordingStore{}
	ing := testIngester(t, store, &fakeEmbedder{}, extract.Registry{".pdf": plainText{}})

	require.NoError(t, ing.IngestDir(context.Background(), dir))
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "intro.pdf", store.upserted[0].Payload.Filename)
}

func TestIngestAbortsOnEmbeddingFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.pdf"), []byte("content"), 0o644))

	store := &recordingStore{}
	ing := testIngester(t, store, &fakeEmbedder{fail: true}, extract.Registry{".pdf": plainText{}})

	err := ing.IngestDir(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Empty(t, store.upserted)
}

func TestIngestWithWorkerPoolKeepsChunkIndexes(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("b", 2500)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.pdf"), []byte(text), 0o644))

	store := &recordingStore{}
	ck, err := chunker.NewWindowChunker(500, 50)
	require.NoError(t, err)
	ing := NewIngester(IngesterConfig{
		Chunker:    ck,
		Embedder:   &fakeEmbedder{},
		Store:      store,
		Extractors: extract.Registry{".pdf": plainText{}},
		Schema:     domain.Schema{Collection: "class_notes", VectorSize: 2, Distance: domain.DistanceCosine},
		IDs:        NewIDAllocatorFrom(100),
		Workers:    4,
	})

	require.NoError(t, ing.IngestDir(context.Background(), dir))

	// ceil((2500-50)/450) = 6 chunks; indexes 0..5 present exactly once,
	// regardless of completion order.
	require.Len(t, store.upserted, 6)
	indexes := make(map[int]struct{})
	ids := make(map[uint64]struct{})
	for _, p := range store.upserted {
		indexes[p.Payload.ChunkIndex] = struct{}{}
		ids[p.ID] = struct{}{}
	}
	assert.Len(t, indexes, 6)
	assert.Len(t, ids, 6)
}
