package ai

import "errors"

var (
	// ErrEmbeddingUnavailable is returned when the embedding capability could not
	// be reached after exhausting the retry policy. It carries the last attempt's
	// error detail and is fatal to the transaction that needed the embedding.
	ErrEmbeddingUnavailable = errors.New("embedding capability unavailable")

	// ErrGenerationUnavailable is returned when a single generation attempt
	// failed or produced a malformed payload. Callers recover by falling back.
	ErrGenerationUnavailable = errors.New("generation capability unavailable")

	// ErrModelWarmingUp marks a failure caused by the external model still
	// loading. The retry policy waits longer for this failure kind.
	ErrModelWarmingUp = errors.New("model warming up")
)
