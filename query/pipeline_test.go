package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docquery/ai"
	aimock "github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
	badgerstore "github.com/poiesic/docquery/storage/badger"
)

type pipelineFixture struct {
	pipeline  *Pipeline
	embedder  *aimock.MockEmbedder
	generator *aimock.MockGenerator
	chunks    storage.ChunkRepository
	audit     storage.AuditRepository
}

func setupFixture(t *testing.T, opts ...PipelineOption) *pipelineFixture {
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
	generator := aimock.NewMockGenerator()

	auditLog, err := NewAuditLog(audit, WithSynchronousAudit())
	require.NoError(t, err)
	t.Cleanup(func() { auditLog.Close() })

	return &pipelineFixture{
		pipeline:  NewPipeline(embedder, generator, chunks, auditLog, opts...),
		embedder:  embedder,
		generator: generator,
		chunks:    chunks,
		audit:     audit,
	}
}

func (f *pipelineFixture) seedChunks(t *testing.T, contents ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.chunks.Reset(ctx, 4))
	for _, content := range contents {
		embedding, err := f.embedder.EmbedText(ctx, content)
		require.NoError(t, err)
		_, err = f.chunks.AddChunks(ctx, &core.Chunk{Content: content, Embedding: embedding})
		require.NoError(t, err)
	}
	f.embedder.Reset()
}

func (f *pipelineFixture) lastAuditRecord(t *testing.T) *core.LogRecord {
	t.Helper()
	records, err := f.audit.RecentLogRecords(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	return records[0]
}

func TestPipeline_GenerativeAnswer(t *testing.T) {
	f := setupFixture(t)
	f.seedChunks(t, "Graduado de la universidad X en 2020.")
	f.generator.GenerateFunc = func(ctx context.Context, contextText, question string) (string, error) {
		return "Se graduó en 2020.", nil
	}

	result, err := f.pipeline.Answer(context.Background(), "¿Cuándo se graduó?")
	require.NoError(t, err)

	assert.Equal(t, "Se graduó en 2020.", result.Answer)
	assert.Equal(t, core.SourceGenerative, result.Source)

	record := f.lastAuditRecord(t)
	assert.Equal(t, "¿Cuándo se graduó?", record.Question)
	assert.Equal(t, core.SourceGenerative, record.Source)
}

func TestPipeline_FallbackOnGenerationFailure(t *testing.T) {
	f := setupFixture(t)
	f.seedChunks(t, "Graduado de la universidad X en 2020.")
	f.generator.GenerateFunc = func(ctx context.Context, contextText, question string) (string, error) {
		return "", errors.New("model unavailable")
	}

	result, err := f.pipeline.Answer(context.Background(), "¿Cuándo se graduó?")
	require.NoError(t, err)

	assert.Equal(t, core.SourceFallback, result.Source)
	assert.True(t, strings.HasPrefix(result.Answer, "La IA está saturada. Contexto encontrado: "))
	assert.Contains(t, result.Answer, "Graduado de la universidad X")
	assert.True(t, strings.HasSuffix(result.Answer, "..."))

	record := f.lastAuditRecord(t)
	assert.Equal(t, core.SourceFallback, record.Source)
}

func TestPipeline_FallbackTruncatesContext(t *testing.T) {
	f := setupFixture(t)
	f.seedChunks(t, strings.Repeat("ñ", 400))
	f.generator.GenerateFunc = func(ctx context.Context, contextText, question string) (string, error) {
		return "", errors.New("model unavailable")
	}

	result, err := f.pipeline.Answer(context.Background(), "¿Qué dice?")
	require.NoError(t, err)

	excerpt := strings.TrimSuffix(strings.TrimPrefix(result.Answer, fallbackPrefix), "...")
	assert.Equal(t, 300, len([]rune(excerpt)))
}

func TestPipeline_NoDataAnswer(t *testing.T) {
	f := setupFixture(t)
	require.NoError(t, f.chunks.Reset(context.Background(), 4))

	result, err := f.pipeline.Answer(context.Background(), "¿Hay algo?")
	require.NoError(t, err)

	assert.Equal(t, "No encontré información en el documento.", result.Answer)
	assert.Equal(t, core.SourceNoData, result.Source)
	// The generator is never consulted without context.
	assert.Equal(t, 0, f.generator.CallCount())

	record := f.lastAuditRecord(t)
	assert.Equal(t, core.SourceNoData, record.Source)
}

func TestPipeline_EmbeddingFailurePropagates(t *testing.T) {
	f := setupFixture(t)
	f.seedChunks(t, "algo")
	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, ai.ErrEmbeddingUnavailable
	}

	_, err := f.pipeline.Answer(context.Background(), "¿Qué pasa?")
	assert.ErrorIs(t, err, ai.ErrEmbeddingUnavailable)

	// No answer was produced, so nothing was audited.
	records, err := f.audit.RecentLogRecords(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPipeline_EmptyQuestion(t *testing.T) {
	f := setupFixture(t)

	_, err := f.pipeline.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, core.ErrEmptyQuestion)
}

func TestPipeline_SentinelAnswerStaysGenerative(t *testing.T) {
	f := setupFixture(t)
	f.seedChunks(t, "algo de contexto")
	f.generator.GenerateFunc = func(ctx context.Context, contextText, question string) (string, error) {
		return ai.NoAnswer, nil
	}

	result, err := f.pipeline.Answer(context.Background(), "¿Qué dice?")
	require.NoError(t, err)

	// A well-formed response with no text is still a model response.
	assert.Equal(t, ai.NoAnswer, result.Answer)
	assert.Equal(t, core.SourceGenerative, result.Source)
}

func TestPipeline_ContextLimitedToTopK(t *testing.T) {
	f := setupFixture(t)
	f.seedChunks(t, "uno", "dos", "tres", "cuatro", "cinco")

	var captured string
	f.generator.GenerateFunc = func(ctx context.Context, contextText, question string) (string, error) {
		captured = contextText
		return "ok", nil
	}

	_, err := f.pipeline.Answer(context.Background(), "¿Cuántos?")
	require.NoError(t, err)

	parts := strings.Split(captured, "\n---\n")
	assert.Len(t, parts, 3)
}

func TestPipeline_FewerChunksThanTopK(t *testing.T) {
	f := setupFixture(t)
	f.seedChunks(t, "único")

	var captured string
	f.generator.GenerateFunc = func(ctx context.Context, contextText, question string) (string, error) {
		captured = contextText
		return "ok", nil
	}

	result, err := f.pipeline.Answer(context.Background(), "¿Qué hay?")
	require.NoError(t, err)

	assert.Equal(t, core.SourceGenerative, result.Source)
	assert.Equal(t, "único", captured)
}
