package huggingface

import (
	"bytes"
	"encoding/json"
	"errors"
)

// embeddingShape classifies the payload layouts the embedding API is known to
// return. The shape is resolved by explicit inspection of the first element,
// not by probing fields on an untyped value.
type embeddingShape int

const (
	// shapeUnknown is anything outside the three recognized layouts.
	shapeUnknown embeddingShape = iota
	// shapeFlat is [0.1, 0.2, ...]
	shapeFlat
	// shapeNested is [[0.1, 0.2, ...]]
	shapeNested
	// shapeObjectWrapped is [{"embedding": [0.1, 0.2, ...]}]
	shapeObjectWrapped
)

func (s embeddingShape) String() string {
	switch s {
	case shapeFlat:
		return "flat"
	case shapeNested:
		return "nested"
	case shapeObjectWrapped:
		return "object-wrapped"
	default:
		return "unknown"
	}
}

var errEmptyEmbeddingPayload = errors.New("embedding payload is not a non-empty JSON array")

// wrappedEmbedding is the object layout some API revisions return per input.
type wrappedEmbedding struct {
	Embedding []float32 `json:"embedding"`
}

// decodeEmbedding normalizes the three recognized payload shapes to a flat
// vector. For an unrecognized shape it returns (bestEffort, shapeUnknown, nil):
// whatever vector the first element decodes to, possibly nil. Callers must log
// the oddity and still validate dimensionality.
func decodeEmbedding(payload []byte) ([]float32, embeddingShape, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(payload, &elements); err != nil || len(elements) == 0 {
		return nil, shapeUnknown, errEmptyEmbeddingPayload
	}

	first := bytes.TrimSpace(elements[0])
	if len(first) == 0 {
		return nil, shapeUnknown, errEmptyEmbeddingPayload
	}

	switch first[0] {
	case '[':
		// Nested: the whole payload is [[...]] and the first inner array is the
		// vector for our single input.
		var vector []float32
		if err := json.Unmarshal(first, &vector); err != nil {
			break
		}
		return vector, shapeNested, nil
	case '{':
		var wrapped wrappedEmbedding
		if err := json.Unmarshal(first, &wrapped); err != nil || wrapped.Embedding == nil {
			break
		}
		return wrapped.Embedding, shapeObjectWrapped, nil
	default:
		// First element is a scalar: the payload itself is the flat vector.
		var vector []float32
		if err := json.Unmarshal(payload, &vector); err != nil {
			break
		}
		return vector, shapeFlat, nil
	}

	// Unrecognized shape: best-effort decode of the first element.
	var vector []float32
	json.Unmarshal(first, &vector) //nolint:errcheck
	return vector, shapeUnknown, nil
}
