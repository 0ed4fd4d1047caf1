package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docquery/ai"
)

// generationMaxNewTokens bounds the completion length.
const generationMaxNewTokens = 200

const systemInstruction = "You are a helpful assistant. Use the context to answer directly."

// Generator implements ai.Generator against the hosted inference text
// generation API. A single attempt, no internal retry: failure recovery is the
// query pipeline's fallback.
type Generator struct {
	client *client
	url    string
	logger *slog.Logger
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxNewTokens   int  `json:"max_new_tokens"`
	ReturnFullText bool `json:"return_full_text"`
}

type generatedChoice struct {
	GeneratedText string `json:"generated_text"`
}

// newGenerator is an internal constructor that returns the concrete type.
func newGenerator(config *ai.Config, c *client) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = newClient(config.APIToken)
	}

	return &Generator{
		client: c,
		url:    modelURL(config.GenerationHost, config.GenerationModel),
		logger: slog.Default().With("component", "huggingface-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config, nil)
}

// buildPrompt assembles the zephyr-style structured prompt: system
// instruction, retrieved context, question.
func buildPrompt(contextText, question string) string {
	return "<|system|>\n" + systemInstruction +
		"\nContext: " + contextText + "</s>\n" +
		"<|user|>\n" + question + "</s>\n" +
		"<|assistant|>"
}

// Generate produces an answer for the question given the retrieved context.
// The prompt is excluded from the returned text. A response without a
// generated-text field yields ai.NoAnswer rather than an error.
func (g *Generator) Generate(ctx context.Context, contextText, question string) (string, error) {
	g.logger.Debug("generating answer", "contextLength", len(contextText))

	payload, err := g.client.post(ctx, g.url, generateRequest{
		Inputs: buildPrompt(contextText, question),
		Parameters: generateParameters{
			MaxNewTokens:   generationMaxNewTokens,
			ReturnFullText: false,
		},
	})
	if err != nil {
		g.logger.Warn("generation attempt failed", "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrGenerationUnavailable, err)
	}

	var choices []generatedChoice
	if err := json.Unmarshal(payload, &choices); err != nil {
		return "", fmt.Errorf("%w: malformed payload: %w", ai.ErrGenerationUnavailable, err)
	}

	if len(choices) == 0 {
		return ai.NoAnswer, nil
	}
	answer := strings.TrimSpace(choices[0].GeneratedText)
	if answer == "" {
		return ai.NoAnswer, nil
	}

	return answer, nil
}
