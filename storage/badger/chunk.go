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


package badger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// ChunkRepository implements storage.ChunkRepository using BadgerDB. Vectors
// are scanned in process; fine for the corpus sizes a single document yields.
type ChunkRepository struct {
	backend  *Backend
	sequence *badger.Sequence
	logger   *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a chunk repository on an open backend.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	return newChunkRepository(backend)
}

func newChunkRepository(backend *Backend) (*ChunkRepository, error) {
	sequence, err := backend.GetSequence(chunkSequenceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk sequence: %w", err)
	}
	return &ChunkRepository{
		backend:  backend,
		sequence: sequence,
		logger:   slog.Default().With("component", "badger-chunks"),
	}, nil
}

// Close releases the ID sequence. The shared backend is closed by its owner.
func (r *ChunkRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.sequence.Release()
}

// Reset drops all chunks and records the new embedding dimension in a single
// transaction, so readers never observe a partially cleared store.
func (r *ChunkRepository) Reset(ctx context.Context, dimension int) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", storage.ErrDimensionMismatch, dimension)
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(chunkKeyPrefix)

		var stale [][]byte
		it := tx.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		if err := tx.Set([]byte(dimensionKey), makeDimensionValue(dimension)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("failed to reset chunk store: %w", err)
	}

	r.logger.Info("chunk store reset", "dimension", dimension)
	return nil
}

// AddChunks validates and inserts chunks, assigning IDs and timestamps.
// The whole batch is rejected if any embedding has the wrong dimension.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	dimension, err := r.storeDimension()
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

	now := time.Now().UTC()
	inserted := make([]*core.Chunk, 0, len(chunks))

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			num, err := r.sequence.Next()
			if err != nil {
				return fmt.Errorf("failed to generate chunk ID: %w", err)
			}
			stored := *chunk
			stored.Id = core.ID(num + 1)
			stored.InsertedAt = now

			if err := tx.Set(makeChunkKey(stored.Id), storage.MarshalChunk(&stored)); err != nil {
				return err
			}
			inserted = append(inserted, &stored)
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to add chunks: %w", err)
	}

	return inserted, nil
}

// NearestChunks scans every stored chunk, scoring by cosine similarity.
// Results are ordered most-similar-first, ties broken by ascending ID.
func (r *ChunkRepository) NearestChunks(ctx context.Context, vector []float32, limit int) ([]*core.SearchResult, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if limit <= 0 {
		return []*core.SearchResult{}, nil
	}

	results := []*core.SearchResult{}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			if err == storage.ErrNotInitialized {
				return nil
			}
			return err
		}
		if len(vector) != dim {
			return fmt.Errorf("%w: query vector has %d dimensions, store expects %d",
				storage.ErrDimensionMismatch, len(vector), dim)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkKeyPrefix)

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var chunk *core.Chunk
			err := it.Item().Value(func(value []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(value)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			results = append(results, &core.SearchResult{
				Chunk: chunk,
				Score: cosineSimilarity(vector, chunk.Embedding),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Id < results[j].Chunk.Id
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// CountChunks returns the number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(chunkKeyPrefix)

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepository) storeDimension() (int, error) {
	var dimension int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readDimension(tx)
		if err != nil {
			return err
		}
		dimension = dim
		return nil
	}, false)
	return dimension, err
}

func readDimension(tx *badger.Txn) (int, error) {
	item, err := tx.Get([]byte(dimensionKey))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, storage.ErrNotInitialized
		}
		return 0, err
	}
	var dimension int
	err = item.Value(func(value []byte) error {
		dimension = parseDimensionValue(value)
		return nil
	})
	return dimension, err
}
