package ai

import "context"

// NoAnswer is the sentinel returned when the generation capability responded
// successfully but produced no generated text. It distinguishes "answered but
// empty" from "capability unreachable".
const NoAnswer = "Sin respuesta"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text fragment.
	// Implementations own the retry policy for transient unavailability of the
	// external capability and wrap ErrEmbeddingUnavailable once it is exhausted.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Generator produces an answer to a question given assembled context.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate performs a single generation attempt with no internal retry.
	// It returns the generated text with the prompt excluded, or NoAnswer when
	// the capability answered without a generated-text payload. Any non-success
	// response or malformed payload wraps ErrGenerationUnavailable; recovery is
	// the caller's responsibility.
	Generate(ctx context.Context, contextText, question string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the text generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
