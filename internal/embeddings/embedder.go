// Package embeddings turns text into vectors for the long-term memory store.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder produces a vector for one piece of text.
type Embedder interface {
	Embed(ctx context.Context, input string) ([]float32, error)
	Dimensions() int
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dims    int
	timeout time.Duration
	logger  *slog.Logger
}

// NewOpenAIEmbedder creates an embedder for model with the expected vector size.
func NewOpenAIEmbedder(log *slog.Logger, client *openai.Client, model string, dims int, timeout time.Duration) *OpenAIEmbedder {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIEmbedder{
		client:  client,
		model:   model,
		dims:    dims,
		timeout: timeout,
		logger:  log.With(slog.String("service", "embeddings")),
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, input string) ([]float32, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("embedding input is required")
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{input},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("embedding response is empty")
	}
	vec := resp.Data[0].Embedding
	if e.dims > 0 && len(vec) != e.dims {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), e.dims)
	}
	return vec, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}
