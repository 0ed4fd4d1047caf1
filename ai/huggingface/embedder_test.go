package huggingface

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/docquery/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(host),
		ai.WithEmbeddingModel("test-embed"),
		ai.WithGenerationModel("test-gen"),
		ai.WithDimension(3),
		ai.WithRetryPolicy(ai.RetryPolicy{
			MaxAttempts:    3,
			WarmupDelay:    5 * time.Millisecond,
			TransientDelay: time.Millisecond,
		}),
	)
}

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) (*Embedder, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	embedder, err := newEmbedder(testConfig(server.URL), nil)
	require.NoError(t, err)
	return embedder, server
}

func TestEmbedder_EmbedText_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"flat", `[0.1, 0.2, 0.3]`},
		{"nested", `[[0.1, 0.2, 0.3]]`},
		{"object wrapped", `[{"embedding": [0.1, 0.2, 0.3]}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/models/test-embed", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)
				w.Write([]byte(tt.body))
			})

			vector, err := embedder.EmbedText(context.Background(), "some text")
			require.NoError(t, err)
			assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
		})
	}
}

func TestEmbedder_EmbedText_SendsListInputAndWaitOption(t *testing.T) {
	var gotBody []byte
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, "Bearer ", r.Header.Get("Authorization"))
		w.Write([]byte(`[0.5]`))
	})

	_, err := embedder.EmbedText(context.Background(), "hola")
	require.NoError(t, err)
	assert.JSONEq(t, `{"inputs":["hola"],"options":{"wait_for_model":true}}`, string(gotBody))
}

func TestEmbedder_EmbedText_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[0.1, 0.2, 0.3]`))
	})

	vector, err := embedder.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedder_EmbedText_RetriesWarmup(t *testing.T) {
	var calls atomic.Int32
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[0.1, 0.2, 0.3]`))
	})

	vector, err := embedder.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vector, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedder_EmbedText_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	})

	_, err := embedder.EmbedText(context.Background(), "text")
	assert.ErrorIs(t, err, ai.ErrEmbeddingUnavailable)
	assert.Equal(t, int32(3), calls.Load())
	// The last error's detail survives the wrap
	assert.Contains(t, err.Error(), "500")
}

func TestEmbedder_EmbedText_UnknownShapeBestEffort(t *testing.T) {
	embedder, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["not", "a", "vector"]`))
	})

	// Preserved behavior: the unrecognized shape is returned best-effort
	// without an error; dimension validation happens in the caller.
	vector, err := embedder.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	assert.Empty(t, vector)
}

func TestDecodeEmbedding_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []float32
		shape   embeddingShape
	}{
		{"flat", `[1, 2]`, []float32{1, 2}, shapeFlat},
		{"nested", `[[3, 4], [5, 6]]`, []float32{3, 4}, shapeNested},
		{"object wrapped", `[{"embedding":[7]}]`, []float32{7}, shapeObjectWrapped},
		{"unknown strings", `["a","b"]`, nil, shapeUnknown},
		{"unknown object", `[{"vector":[1]}]`, nil, shapeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vector, shape, err := decodeEmbedding([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.shape, shape)
			assert.Equal(t, tt.want, vector)
		})
	}
}

func TestDecodeEmbedding_Malformed(t *testing.T) {
	for _, payload := range []string{``, `{}`, `[]`, `not json`} {
		_, _, err := decodeEmbedding([]byte(payload))
		assert.Error(t, err, "payload %q", payload)
	}
}
