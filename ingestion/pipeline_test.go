package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aimock "github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
	badgerstore "github.com/poiesic/docquery/storage/badger"
)

func setupPipeline(t *testing.T, opts ...Option) (*Pipeline, *aimock.MockEmbedder, storage.ChunkRepository) {
	t.Helper()

	backend, chunks, audit, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunks.Close()
		audit.Close()
		backend.Close()
	})

	embedder := aimock.NewMockEmbedder()
	embedder.Dimension = 4

	base := []Option{WithPace(0), WithDimension(4)}
	pipeline := NewPipeline(embedder, chunks, append(base, opts...)...)
	return pipeline, embedder, chunks
}

func TestPipeline_IngestSplitsAndStores(t *testing.T) {
	pipeline, embedder, chunks := setupPipeline(t, WithChunkSize(100))
	ctx := context.Background()

	text := strings.Repeat("palabra ", 40) // 320 runes normalized to 319
	report, err := pipeline.Ingest(ctx, text)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalChunks)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 4, embedder.CallCount())

	count, err := chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestPipeline_EmptyDocument(t *testing.T) {
	pipeline, _, _ := setupPipeline(t)

	_, err := pipeline.Ingest(context.Background(), "   \n\t  ")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestPipeline_PartialFailureTolerated(t *testing.T) {
	pipeline, embedder, chunks := setupPipeline(t, WithChunkSize(10))
	ctx := context.Background()

	// Fail the embedding of every chunk containing the marker.
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "XX") {
			return nil, errors.New("model exploded")
		}
		return []float32{1, 0, 0, 0}, nil
	}

	text := "aaaaaaaaaa" + "bbbbbbbbXX" + "cccccccccc"
	report, err := pipeline.Ingest(ctx, text)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalChunks)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	count, err := chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPipeline_WrongDimensionCountedAsFailed(t *testing.T) {
	pipeline, embedder, chunks := setupPipeline(t, WithChunkSize(10))
	ctx := context.Background()

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil // store expects 4
	}

	report, err := pipeline.Ingest(ctx, "aaaaaaaaaabbbbbbbbbb")
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalChunks)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 2, report.Failed)

	count, err := chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPipeline_ReingestReplacesStore(t *testing.T) {
	pipeline, _, chunks := setupPipeline(t, WithChunkSize(100))
	ctx := context.Background()

	_, err := pipeline.Ingest(ctx, strings.Repeat("primero ", 50))
	require.NoError(t, err)

	report, err := pipeline.Ingest(ctx, "segundo documento, mucho más corto")
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalChunks)

	// The store holds only the second document's chunks.
	count, err := chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipeline_ReingestSameDocumentIsIdempotent(t *testing.T) {
	pipeline, _, chunks := setupPipeline(t, WithChunkSize(40))
	ctx := context.Background()

	text := strings.Repeat("el mismo documento de siempre ", 10)

	snapshot := func() map[string][]float32 {
		results, err := chunks.NearestChunks(ctx, []float32{1, 0, 0, 0}, 100)
		require.NoError(t, err)
		pairs := make(map[string][]float32, len(results))
		for _, r := range results {
			pairs[r.Chunk.Content] = r.Chunk.Embedding
		}
		return pairs
	}

	first, err := pipeline.Ingest(ctx, text)
	require.NoError(t, err)
	firstPairs := snapshot()

	second, err := pipeline.Ingest(ctx, text)
	require.NoError(t, err)
	secondPairs := snapshot()

	// Re-ingesting the same source yields the same chunk count and the
	// same (content, embedding) pairs.
	assert.Equal(t, first.TotalChunks, second.TotalChunks)
	assert.Greater(t, second.TotalChunks, 1)
	assert.Equal(t, firstPairs, secondPairs)
}

func TestPipeline_FingerprintStableAcrossRuns(t *testing.T) {
	pipeline, _, _ := setupPipeline(t)
	ctx := context.Background()

	first, err := pipeline.Ingest(ctx, "el mismo documento")
	require.NoError(t, err)
	second, err := pipeline.Ingest(ctx, "el  mismo\n documento")
	require.NoError(t, err)

	// Whitespace layout does not change the fingerprint.
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
}

func TestPipeline_CanceledContextAborts(t *testing.T) {
	pipeline, _, _ := setupPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Ingest(ctx, "algo de texto")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_IngestFileText(t *testing.T) {
	pipeline, _, chunks := setupPipeline(t, WithChunkSize(50))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "perfil.txt")
	require.NoError(t, os.WriteFile(path, []byte("Graduado de la universidad X en 2020."), 0644))

	report, err := pipeline.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	count, err := chunks.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotEqual(t, core.Fingerprint(0), report.Fingerprint)
}

func TestPipeline_IngestFileMissing(t *testing.T) {
	pipeline, _, _ := setupPipeline(t)

	_, err := pipeline.IngestFile(context.Background(), "/no/existe.txt")
	assert.ErrorIs(t, err, ErrDocumentUnreadable)
}
