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


package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

const (
	// DefaultTopK is how many chunks are retrieved as context.
	DefaultTopK = 3

	// contextSeparator joins retrieved chunks into one context block.
	contextSeparator = "\n---\n"

	// noDataAnswer is returned when the store holds no chunks at all.
	noDataAnswer = "No encontré información en el documento."

	// fallbackPrefix opens the degraded answer built from raw context when
	// the generation model is unavailable.
	fallbackPrefix = "La IA está saturada. Contexto encontrado: "

	// fallbackExcerptRunes bounds the raw context shown in a fallback answer.
	fallbackExcerptRunes = 300
)

// Pipeline answers questions over the ingested document: embed the question,
// retrieve the nearest chunks, generate an answer grounded in them, and
// record the transaction in the audit log.
type Pipeline struct {
	embedder  ai.Embedder
	generator ai.Generator
	chunks    storage.ChunkRepository
	audit     *AuditLog
	logger    *slog.Logger
	topK      int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTopK overrides how many chunks are retrieved as context.
func WithTopK(k int) PipelineOption {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// NewPipeline creates a query pipeline.
func NewPipeline(embedder ai.Embedder, generator ai.Generator, chunks storage.ChunkRepository, audit *AuditLog, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		embedder:  embedder,
		generator: generator,
		chunks:    chunks,
		audit:     audit,
		logger:    slog.Default().With("component", "query"),
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer runs one question through the pipeline. Every produced answer is
// recorded in the audit log, including fallback and no-data answers. Only an
// embedding failure yields an error instead of an answer; nothing is logged
// for it because no answer was produced.
func (p *Pipeline) Answer(ctx context.Context, question string) (*core.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, core.ErrEmptyQuestion
	}

	embedding, err := p.embedder.EmbedText(ctx, question)
	if err != nil {
		p.logger.Error("question embedding failed", "error", err)
		return nil, err
	}

	nearest, err := p.chunks.NearestChunks(ctx, embedding, p.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	if len(nearest) == 0 {
		result := &core.QueryResult{Answer: noDataAnswer, Source: core.SourceNoData}
		p.logger.Info("no chunks in store", "question_len", len(question))
		p.audit.Record(question, result)
		return result, nil
	}

	contextText := joinChunks(nearest)

	answer, err := p.generator.Generate(ctx, contextText, question)
	if err != nil {
		result := &core.QueryResult{
			Answer: fallbackAnswer(contextText),
			Source: core.SourceFallback,
		}
		p.logger.Warn("generation failed, serving context excerpt", "error", err)
		p.audit.Record(question, result)
		return result, nil
	}

	result := &core.QueryResult{Answer: answer, Source: core.SourceGenerative}
	p.audit.Record(question, result)
	return result, nil
}

func joinChunks(results []*core.SearchResult) string {
	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Chunk.Content
	}
	return strings.Join(contents, contextSeparator)
}

// fallbackAnswer degrades gracefully to a raw context excerpt. The trailing
// ellipsis is unconditional, matching the shape users already know.
func fallbackAnswer(contextText string) string {
	excerpt := []rune(contextText)
	if len(excerpt) > fallbackExcerptRunes {
		excerpt = excerpt[:fallbackExcerptRunes]
	}
	return fallbackPrefix + string(excerpt) + "..."
}
