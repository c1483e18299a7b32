// Package providers wraps the language-model collaborator.
package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/models"
)

// ErrModelProvider wraps failures reported by the model provider.
var ErrModelProvider = errors.New("model provider error")

// Request is one completion call.
type Request struct {
	Messages []conversation.Message
	Variant  models.Variant
}

// Stream yields completion deltas. Recv returns io.EOF after the last delta.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Provider completes a message list, either at once or as a delta stream.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request) (Stream, error)
}

// maskAPIKey masks an API key for logging.
func maskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:8] + strings.Repeat("*", len(apiKey)-8)
}
