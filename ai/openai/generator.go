package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docquery/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// generationMaxTokens bounds the completion length, matching the hosted
// provider's cap.
const generationMaxTokens = 200

const systemInstruction = "You are a helpful assistant. Use the context to answer directly."

// Generator implements ai.Generator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	token := config.APIToken
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(token),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate produces an answer for the question given the retrieved context.
// Single attempt; any client error wraps ai.ErrGenerationUnavailable.
func (g *Generator) Generate(ctx context.Context, contextText, question string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemInstruction + "\nContext: " + contextText),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(question),
			},
		},
	}

	response, err := g.client.GenerateContent(ctx, content, llms.WithMaxTokens(generationMaxTokens))
	if err != nil {
		g.logger.Warn("generation attempt failed", "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrGenerationUnavailable, err)
	}

	if len(response.Choices) < 1 {
		g.logger.Debug("no generated text returned from model")
		return ai.NoAnswer, nil
	}
	answer := strings.TrimSpace(response.Choices[0].Content)
	if answer == "" {
		g.logger.Debug("no generated text returned from model")
		return ai.NoAnswer, nil
	}

	return answer, nil
}
