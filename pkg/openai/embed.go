// Package openai provides an OpenAI-backed search.Embedder.
package openai

import (
	"context"
	"errors"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

type embeddingsAPI interface {
	CreateEmbeddings(ctx context.Context, conv goopenai.EmbeddingRequestConverter) (goopenai.EmbeddingResponse, error)
}

// EmbedClient embeds text with a fixed OpenAI model.
type EmbedClient struct {
	api   embeddingsAPI
	model goopenai.EmbeddingModel
}

// NewEmbedClient creates a client for apiKey. An empty model selects DefaultModel.
func NewEmbedClient(apiKey, model string) (*EmbedClient, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	return newEmbedClient(goopenai.NewClient(apiKey), model), nil
}

// NewEmbedClientWithBaseURL points the client at an OpenAI-compatible endpoint.
func NewEmbedClientWithBaseURL(apiKey, baseURL, model string) *EmbedClient {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newEmbedClient(goopenai.NewClientWithConfig(cfg), model)
}

func newEmbedClient(api embeddingsAPI, model string) *EmbedClient {
	if model == "" {
		model = DefaultModel
	}
	return &EmbedClient{api: api, model: goopenai.EmbeddingModel(model)}
}

// Model returns the configured model identifier.
func (c *EmbedClient) Model() string { return string(c.model) }

// Embed implements search.Embedder.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embed: empty response")
	}
	return resp.Data[0].Embedding, nil
}
