// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

const chunkTable = "knowledge_base"

// ChunkRepository implements storage.ChunkRepository on a pgvector-enabled
// PostgreSQL database. Nearest-neighbor queries run server-side with the
// cosine distance operator.
type ChunkRepository struct {
	backend *Backend
	logger  *slog.Logger

	mu        sync.RWMutex
	dimension int // 0 until Reset runs or the catalog is consulted
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a chunk repository on an open backend.
func NewChunkRepository(backend *Backend) storage.ChunkRepository {
	return newChunkRepository(backend)
}

func newChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{
		backend: backend,
		logger:  slog.Default().With("component", "postgres-chunks"),
	}
}

// Close is a no-op; the shared backend owns the connection pool.
func (r *ChunkRepository) Close() error {
	return nil
}

// Reset recreates the chunk table for the given dimension in one transaction.
// Concurrent readers see either the old table or the new empty one.
func (r *ChunkRepository) Reset(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", storage.ErrDimensionMismatch, dimension)
	}

	tx, err := r.backend.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, chunkTable),
		fmt.Sprintf(`CREATE TABLE %s (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, chunkTable, dimension),
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to reset chunk table: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}

	r.mu.Lock()
	r.dimension = dimension
	r.mu.Unlock()

	r.logger.Info("chunk table reset", "table", chunkTable, "dimension", dimension)
	return nil
}

// AddChunks validates and inserts chunks in order within one transaction.
// The whole batch is rejected if any embedding has the wrong dimension.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	dimension, err := r.storeDimension(ctx)
	if err != nil {
		return nil, err
	}

	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
		if len(chunk.Embedding) != dimension {
			return nil, fmt.Errorf("%w: got %d, store expects %d",
				storage.ErrDimensionMismatch, len(chunk.Embedding), dimension)
		}
	}

	tx, err := r.backend.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin insert transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		`INSERT INTO %s (content, embedding) VALUES ($1, $2) RETURNING id, inserted_at`,
		chunkTable)

	inserted := make([]*core.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		stored := *chunk
		var id int64
		var insertedAt time.Time
		err := tx.QueryRowxContext(ctx, query, stored.Content, pgvector.NewVector(stored.Embedding)).
			Scan(&id, &insertedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk: %w", err)
		}
		stored.Id = core.ID(id)
		stored.InsertedAt = insertedAt
		inserted = append(inserted, &stored)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit insert: %w", err)
	}

	return inserted, nil
}

// NearestChunks orders by cosine distance server-side, ties broken by
// ascending ID so equal-distance results are stable across runs.
func (r *ChunkRepository) NearestChunks(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	if limit <= 0 {
		return []*core.SearchResult{}, nil
	}

	dimension, err := r.storeDimension(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			return []*core.SearchResult{}, nil
		}
		return nil, err
	}
	if len(vector) != dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, store expects %d",
			storage.ErrDimensionMismatch, len(vector), dimension)
	}

	query := fmt.Sprintf(
		`SELECT id, content, embedding, inserted_at, 1 - (embedding <=> $1) AS score
		 FROM %s
		 ORDER BY embedding <=> $1, id ASC
		 LIMIT $2`, chunkTable)

	rows, err := r.backend.db.QueryxContext(ctx, query, pgvector.NewVector(vector), limit)
	if err != nil {
		if isUndefinedTable(err) {
			return []*core.SearchResult{}, nil
		}
		return nil, fmt.Errorf("failed to query nearest chunks: %w", err)
	}
	defer rows.Close()

	results := []*core.SearchResult{}
	for rows.Next() {
		var (
			id         int64
			content    string
			embedding  pgvector.Vector
			insertedAt time.Time
			score      float32
		)
		if err := rows.Scan(&id, &content, &embedding, &insertedAt, &score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		results = append(results, &core.SearchResult{
			Chunk: &core.Chunk{
				Id:         core.ID(id),
				Content:    content,
				Embedding:  embedding.Slice(),
				InsertedAt: insertedAt,
			},
			Score: score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk rows: %w", err)
	}
	return results, nil
}

// CountChunks returns the number of stored chunks; zero when the table has
// not been created yet.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	var count int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, chunkTable)
	if err := r.backend.db.GetContext(ctx, &count, query); err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// storeDimension returns the cached dimension, consulting the catalog when
// the repository attaches to a table created by an earlier process. For
// pgvector columns atttypmod carries the declared dimension.
func (r *ChunkRepository) storeDimension(ctx context.Context) (int, error) {
	r.mu.RLock()
	dimension := r.dimension
	r.mu.RUnlock()
	if dimension > 0 {
		return dimension, nil
	}

	query := `SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding'`
	err := r.backend.db.GetContext(ctx, &dimension, query, chunkTable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
			return 0, storage.ErrNotInitialized
		}
		return 0, fmt.Errorf("failed to read store dimension: %w", err)
	}
	if dimension <= 0 {
		return 0, storage.ErrNotInitialized
	}

	r.mu.Lock()
	r.dimension = dimension
	r.mu.Unlock()
	return dimension, nil
}
