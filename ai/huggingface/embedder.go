package huggingface

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docquery/ai"
)

// Embedder implements ai.Embedder against the hosted inference embedding API.
type Embedder struct {
	client *client
	url    string
	retry  ai.RetryPolicy
	logger *slog.Logger
}

// embedRequest is the wire format for an embedding call: the text travels in a
// single-element list and the service is asked to wait for model readiness.
type embedRequest struct {
	Inputs  []string     `json:"inputs"`
	Options embedOptions `json:"options"`
}

type embedOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config, c *client) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = newClient(config.APIToken)
	}

	return &Embedder{
		client: c,
		url:    modelURL(config.EmbeddingHost, config.EmbeddingModel),
		retry:  config.Retry,
		logger: slog.Default().With("component", "huggingface-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, nil)
}

// EmbedText generates a vector embedding for a single text fragment.
// Attempts are governed by the configured retry policy; once it is exhausted
// the last error is wrapped in ai.ErrEmbeddingUnavailable.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding", "length", len(text))

	var vector []float32
	err := e.retry.Do(ctx, func() error {
		v, err := e.requestEmbedding(ctx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	if err != nil {
		e.logger.Error("embedding attempts exhausted", "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingUnavailable, err)
	}

	return vector, nil
}

// requestEmbedding performs one attempt against the embedding endpoint and
// normalizes the response to a flat vector.
func (e *Embedder) requestEmbedding(ctx context.Context, text string) ([]float32, error) {
	payload, err := e.client.post(ctx, e.url, embedRequest{
		Inputs:  []string{text},
		Options: embedOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, err
	}

	vector, shape, err := decodeEmbedding(payload)
	if err != nil {
		return nil, err
	}
	if shape == shapeUnknown {
		// Best-effort: return whatever decoded and leave it to dimension
		// validation downstream.
		excerpt := payload
		if len(excerpt) > 50 {
			excerpt = excerpt[:50]
		}
		e.logger.Warn("unrecognized embedding response shape", "payload", string(excerpt))
	}

	return vector, nil
}
