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


package docquery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/huggingface"
	"github.com/poiesic/docquery/ai/openai"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/query"
	"github.com/poiesic/docquery/storage"
	badgerstore "github.com/poiesic/docquery/storage/badger"
	"github.com/poiesic/docquery/storage/postgres"
)

// ProviderKind selects which AI provider implementation the service builds.
type ProviderKind string

const (
	// ProviderHuggingFace talks to the hosted inference API.
	ProviderHuggingFace ProviderKind = "huggingface"
	// ProviderOpenAI talks to OpenAI-compatible services, typically local ones.
	ProviderOpenAI ProviderKind = "openai"
)

// Service wires the AI provider, storage backend and pipelines together.
type Service struct {
	badgerBackend   *badgerstore.Backend
	postgresBackend *postgres.Backend
	chunkRepo       storage.ChunkRepository
	auditRepo       storage.AuditRepository
	auditLog        *query.AuditLog
	provider        ai.AIProvider
	logger          *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig     *ai.Config
	provider     ai.AIProvider
	providerKind ProviderKind
	databaseURL  string
	dataPath     string
	inMemory     bool
}

// WithAIConfig overrides the AI provider configuration.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a prebuilt AI provider. Tests use this with mocks.
func WithProvider(provider ai.AIProvider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithProviderKind selects the AI provider implementation to build:
// ProviderHuggingFace (default) or ProviderOpenAI.
func WithProviderKind(kind ProviderKind) ServiceOption {
	return func(o *serviceOptions) {
		o.providerKind = kind
	}
}

// WithDatabaseURL selects the PostgreSQL backend at the given connection URL.
// Without it the service stores everything in an embedded database.
func WithDatabaseURL(url string) ServiceOption {
	return func(o *serviceOptions) {
		o.databaseURL = url
	}
}

// WithDataPath sets the embedded database directory.
func WithDataPath(path string) ServiceOption {
	return func(o *serviceOptions) {
		o.dataPath = path
	}
}

// WithInMemoryStorage keeps the embedded database entirely in memory.
func WithInMemoryStorage() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// NewService builds a fully wired service.
func NewService(opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		dataPath: "./data",
	}
	for _, opt := range opts {
		opt(options)
	}

	s := &Service{logger: slog.Default()}

	if options.databaseURL != "" {
		backend, err := postgres.OpenBackend(options.databaseURL)
		if err != nil {
			return nil, err
		}
		auditRepo, err := postgres.NewAuditRepository(context.Background(), backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		s.postgresBackend = backend
		s.chunkRepo = postgres.NewChunkRepository(backend)
		s.auditRepo = auditRepo
	} else {
		backend, err := badgerstore.OpenBackend(options.dataPath, options.inMemory)
		if err != nil {
			return nil, err
		}
		chunkRepo, err := badgerstore.NewChunkRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}
		auditRepo, err := badgerstore.NewAuditRepository(backend)
		if err != nil {
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
		s.badgerBackend = backend
		s.chunkRepo = chunkRepo
		s.auditRepo = auditRepo
	}

	if options.provider != nil {
		s.provider = options.provider
	} else {
		provider, err := newProvider(options.providerKind, options.aiConfig)
		if err != nil {
			s.closeStorage()
			return nil, fmt.Errorf("failed to create AI provider: %w", err)
		}
		s.provider = provider
	}

	auditLog, err := query.NewAuditLog(s.auditRepo)
	if err != nil {
		s.provider.Close()
		s.closeStorage()
		return nil, err
	}
	s.auditLog = auditLog

	return s, nil
}

func newProvider(kind ProviderKind, config *ai.Config) (ai.AIProvider, error) {
	switch kind {
	case ProviderHuggingFace, "":
		return huggingface.NewProvider(config)
	case ProviderOpenAI:
		return openai.NewProvider(config)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}
}

// ChunkRepository returns the chunk store.
func (s *Service) ChunkRepository() storage.ChunkRepository {
	return s.chunkRepo
}

// AuditRepository returns the audit log store.
func (s *Service) AuditRepository() storage.AuditRepository {
	return s.auditRepo
}

// NewIngestionPipeline creates an ingestion pipeline on this service's
// embedder and chunk store.
func (s *Service) NewIngestionPipeline(opts ...ingestion.Option) *ingestion.Pipeline {
	return ingestion.NewPipeline(s.provider.Embedder(), s.chunkRepo, opts...)
}

// NewQueryPipeline creates a query pipeline on this service's provider,
// chunk store and audit log.
func (s *Service) NewQueryPipeline(opts ...query.PipelineOption) *query.Pipeline {
	return query.NewPipeline(s.provider.Embedder(), s.provider.Generator(), s.chunkRepo, s.auditLog, opts...)
}

// Close shuts the service down: drain the audit log first so pending appends
// still have a live store, then the provider, then storage.
func (s *Service) Close() error {
	if err := s.auditLog.Close(); err != nil {
		s.logger.Error("error closing audit log", "err", err)
	}
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	return s.closeStorage()
}

func (s *Service) closeStorage() error {
	if err := s.chunkRepo.Close(); err != nil {
		s.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := s.auditRepo.Close(); err != nil {
		s.logger.Error("error closing audit repository", "err", err)
		return err
	}
	if s.badgerBackend != nil {
		if err := s.badgerBackend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	if s.postgresBackend != nil {
		if err := s.postgresBackend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}
