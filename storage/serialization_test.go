package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docquery/core"
)

func TestChunkSerialization_RoundTrip(t *testing.T) {
	chunk := &core.Chunk{
		Id:         42,
		Content:    "Graduado de la universidad X en 2020. ñandú",
		Embedding:  []float32{0.25, -1.5, 0, 3.125},
		InsertedAt: time.Date(2026, 8, 1, 12, 0, 0, 123456000, time.UTC),
	}

	decoded, err := UnmarshalChunk(MarshalChunk(chunk))
	require.NoError(t, err)

	assert.Equal(t, chunk.Id, decoded.Id)
	assert.Equal(t, chunk.Content, decoded.Content)
	assert.Equal(t, chunk.Embedding, decoded.Embedding)
	assert.True(t, chunk.InsertedAt.Equal(decoded.InsertedAt))
}

func TestLogRecordSerialization_RoundTrip(t *testing.T) {
	record := &core.LogRecord{
		Id:        7,
		Question:  "¿Dónde estudió?",
		Answer:    "En la universidad X.",
		Source:    core.SourceFallback,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	decoded, err := UnmarshalLogRecord(MarshalLogRecord(record))
	require.NoError(t, err)

	assert.Equal(t, record.Id, decoded.Id)
	assert.Equal(t, record.Question, decoded.Question)
	assert.Equal(t, record.Answer, decoded.Answer)
	assert.Equal(t, record.Source, decoded.Source)
	assert.True(t, record.CreatedAt.Equal(decoded.CreatedAt))
}

func TestUnmarshalChunk_Truncated(t *testing.T) {
	data := MarshalChunk(&core.Chunk{Id: 1, Content: "algo", Embedding: []float32{1}})

	_, err := UnmarshalChunk(data[:2])
	assert.Error(t, err)
}
