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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

const (
	// DefaultChunkSize is the rune length of one chunk.
	DefaultChunkSize = 500
	// DefaultPace is the delay between consecutive embedding requests, keeping
	// sequential ingestion under the inference API's rate limits.
	DefaultPace = 500 * time.Millisecond
	// DefaultDimension matches the default embedding model's output width.
	DefaultDimension = 384
)

// Pipeline ingests a document: reset the chunk store, then chunk, embed and
// insert sequentially. Chunks whose embedding fails are skipped, not fatal.
type Pipeline struct {
	embedder  ai.Embedder
	chunks    storage.ChunkRepository
	logger    *slog.Logger
	chunkSize int
	pace      time.Duration
	dimension int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChunkSize overrides the chunk rune length.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithPace overrides the delay between embedding requests. Zero disables
// pacing; tests use this.
func WithPace(pace time.Duration) Option {
	return func(p *Pipeline) {
		if pace >= 0 {
			p.pace = pace
		}
	}
}

// WithDimension overrides the embedding dimension the store is reset to.
func WithDimension(dimension int) Option {
	return func(p *Pipeline) {
		if dimension > 0 {
			p.dimension = dimension
		}
	}
}

// NewPipeline creates an ingestion pipeline with the given embedder and
// chunk repository.
func NewPipeline(embedder ai.Embedder, chunks storage.ChunkRepository, opts ...Option) *Pipeline {
	p := &Pipeline{
		embedder:  embedder,
		chunks:    chunks,
		logger:    slog.Default().With("component", "ingestion"),
		chunkSize: DefaultChunkSize,
		pace:      DefaultPace,
		dimension: DefaultDimension,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Report summarizes one ingestion run.
type Report struct {
	Fingerprint core.Fingerprint
	TotalChunks int
	Succeeded   int
	Failed      int
}

// IngestFile loads a document from disk and ingests its text.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Report, error) {
	text, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	p.logger.Info("document loaded", "path", path, "bytes", len(text))
	return p.Ingest(ctx, text)
}

// Ingest replaces the chunk store's contents with the given document. The
// store is reset first, so a failed run leaves an empty or partial store and
// a rerun is always safe. Per-chunk embedding failures are logged and
// counted, never fatal; only a canceled context or a store-level failure
// aborts the run.
func (p *Pipeline) Ingest(ctx context.Context, text string) (*Report, error) {
	normalized := NormalizeText(text)
	if normalized == "" {
		return nil, ErrEmptyDocument
	}

	pieces := SplitChunks(normalized, p.chunkSize)
	report := &Report{
		Fingerprint: core.FingerprintFromContent(normalized),
		TotalChunks: len(pieces),
	}

	if err := p.chunks.Reset(ctx, p.dimension); err != nil {
		return nil, fmt.Errorf("failed to reset chunk store: %w", err)
	}
	p.logger.Info("ingestion started",
		"fingerprint", report.Fingerprint,
		"chunks", report.TotalChunks,
		"dimension", p.dimension)

	for i, piece := range pieces {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		embedding, err := p.embedder.EmbedText(ctx, piece)
		if err != nil {
			p.logger.Warn("chunk skipped, embedding failed", "chunk", i, "error", err)
			report.Failed++
		} else {
			_, err = p.chunks.AddChunks(ctx, &core.Chunk{Content: piece, Embedding: embedding})
			if err != nil {
				p.logger.Warn("chunk skipped, insert failed", "chunk", i, "error", err)
				report.Failed++
			} else {
				report.Succeeded++
			}
		}

		if p.pace > 0 && i < len(pieces)-1 {
			if err := pause(ctx, p.pace); err != nil {
				return report, err
			}
		}
	}

	p.logger.Info("ingestion finished",
		"fingerprint", report.Fingerprint,
		"succeeded", report.Succeeded,
		"failed", report.Failed)
	return report, nil
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
