package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

func setupMock(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewBackendFromDB(db), mock
}

func expectReset(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE EXTENSION IF NOT EXISTS vector`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP TABLE IF EXISTS knowledge_base`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE knowledge_base`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
}

func TestChunkRepository_Reset(t *testing.T) {
	backend, mock := setupMock(t)
	repo := newChunkRepository(backend)

	expectReset(mock)

	err := repo.Reset(context.Background(), 384)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_ResetRejectsNonPositiveDimension(t *testing.T) {
	backend, _ := setupMock(t)
	repo := newChunkRepository(backend)

	err := repo.Reset(context.Background(), 0)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestChunkRepository_AddChunks(t *testing.T) {
	backend, mock := setupMock(t)
	repo := newChunkRepository(backend)
	ctx := context.Background()

	expectReset(mock)
	require.NoError(t, repo.Reset(ctx, 3))

	insertedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO knowledge_base`).
		WithArgs("hola mundo", "[1,0,0]").
		WillReturnRows(sqlmock.NewRows([]string{"id", "inserted_at"}).AddRow(int64(7), insertedAt))
	mock.ExpectCommit()

	inserted, err := repo.AddChunks(ctx, &core.Chunk{
		Content:   "hola mundo",
		Embedding: []float32{1, 0, 0},
	})
	require.NoError(t, err)
	require.Len(t, inserted, 1)

	assert.Equal(t, core.ID(7), inserted[0].Id)
	assert.Equal(t, insertedAt, inserted[0].InsertedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_AddChunksDimensionMismatch(t *testing.T) {
	backend, mock := setupMock(t)
	repo := newChunkRepository(backend)
	ctx := context.Background()

	expectReset(mock)
	require.NoError(t, repo.Reset(ctx, 3))

	// Rejected client-side before any insert statement runs.
	_, err := repo.AddChunks(ctx, &core.Chunk{Content: "corto", Embedding: []float32{1, 0}})
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_NearestChunks(t *testing.T) {
	backend, mock := setupMock(t)
	repo := newChunkRepository(backend)
	ctx := context.Background()

	// Repository attaches to an existing table: dimension comes from the catalog.
	mock.ExpectQuery(`SELECT atttypmod FROM pg_attribute`).
		WithArgs("knowledge_base").
		WillReturnRows(sqlmock.NewRows([]string{"atttypmod"}).AddRow(2))

	insertedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, content, embedding, inserted_at`).
		WithArgs("[1,0]", 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "embedding", "inserted_at", "score"}).
			AddRow(int64(1), "primero", []byte("[1,0]"), insertedAt, float32(1.0)).
			AddRow(int64(2), "segundo", []byte("[0,1]"), insertedAt, float32(0.0)))

	results, err := repo.NearestChunks(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, core.ID(1), results[0].Chunk.Id)
	assert.Equal(t, "primero", results[0].Chunk.Content)
	assert.Equal(t, []float32{1, 0}, results[0].Chunk.Embedding)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
	assert.Equal(t, core.ID(2), results[1].Chunk.Id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_NearestChunksUninitialized(t *testing.T) {
	backend, mock := setupMock(t)
	repo := newChunkRepository(backend)

	mock.ExpectQuery(`SELECT atttypmod FROM pg_attribute`).
		WithArgs("knowledge_base").
		WillReturnError(sql.ErrNoRows)

	results, err := repo.NearestChunks(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_NearestChunksQueryDimensionMismatch(t *testing.T) {
	backend, mock := setupMock(t)
	repo := newChunkRepository(backend)
	ctx := context.Background()

	expectReset(mock)
	require.NoError(t, repo.Reset(ctx, 3))

	_, err := repo.NearestChunks(ctx, []float32{1, 0}, 3)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepository_CountChunks(t *testing.T) {
	backend, mock := setupMock(t)
	repo := newChunkRepository(backend)

	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
