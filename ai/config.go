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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service.
	// Example: "https://router.huggingface.co/hf-inference" for the hosted
	// inference API, "http://localhost:11434/v1" for a local OpenAI-compatible
	// server.
	EmbeddingHost string

	// GenerationHost is the base URL for the text-generation service.
	GenerationHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "BAAI/bge-small-en-v1.5", "text-embedding-3-small"
	EmbeddingModel string

	// GenerationModel is the model identifier to use for answer generation.
	// Example: "HuggingFaceH4/zephyr-7b-beta", "qwen2.5:3b"
	GenerationModel string

	// APIToken authenticates against hosted services. Local OpenAI-compatible
	// services usually accept any value.
	APIToken string

	// Dimension is the embedding vector length produced by EmbeddingModel.
	// The vector store is initialized to this dimension and every vector is
	// validated against it. Default: 384 (bge-small).
	Dimension int

	// Retry is the backoff policy for embedding calls.
	Retry RetryPolicy
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithHost sets both embedding and generation hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithAPIToken sets the API token.
func WithAPIToken(token string) ConfigOption {
	return func(c *Config) {
		c.APIToken = token
	}
}

// WithDimension sets the embedding vector dimension.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithRetryPolicy sets the embedding retry policy.
func WithRetryPolicy(policy RetryPolicy) ConfigOption {
	return func(c *Config) {
		c.Retry = policy
	}
}

// DefaultConfig returns a Config with defaults for the hosted inference API.
func DefaultConfig() *Config {
	defaultHost := "https://router.huggingface.co/hf-inference"
	return &Config{
		EmbeddingHost:   defaultHost,
		GenerationHost:  defaultHost,
		EmbeddingModel:  "BAAI/bge-small-en-v1.5",
		GenerationModel: "HuggingFaceH4/zephyr-7b-beta",
		Dimension:       384,
		Retry:           DefaultRetryPolicy(),
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIToken(os.Getenv("HF_API_KEY")),
//	    WithEmbeddingModel("BAAI/bge-small-en-v1.5"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Hosts lose their trailing slash; providers join paths themselves.
func (c *Config) Normalize() {
	c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
	c.GenerationHost = strings.TrimSuffix(c.GenerationHost, "/")
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.GenerationHost == "" {
		return errors.New("ai config: GenerationHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.Dimension <= 0 {
		return errors.New("ai config: Dimension must be greater than 0")
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	return nil
}
