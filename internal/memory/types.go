// Package memory is the long-term memory collaborator: storage of past
// exchanges per user and retrieval of ranked snippets for a query.
package memory

import (
	"context"
	"errors"
)

var (
	// ErrMemoryService wraps failures of the memory backend.
	ErrMemoryService = errors.New("memory service error")
	// ErrMemoryNotFound indicates the memory does not exist or belongs to another user.
	ErrMemoryNotFound = errors.New("memory not found")
)

// Message is one role/content pair written to memory.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Item is a stored memory, optionally scored against a query.
type Item struct {
	ID        string  `json:"id"`
	Memory    string  `json:"memory"`
	Role      string  `json:"role,omitempty"`
	UserID    string  `json:"userId,omitempty"`
	Hash      string  `json:"hash,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// Service is the contract of a memory backend.
type Service interface {
	Add(ctx context.Context, userID string, messages []Message) ([]Item, error)
	Search(ctx context.Context, userID, query string, limit int) ([]Item, error)
	GetAll(ctx context.Context, userID string) ([]Item, error)
	Delete(ctx context.Context, userID, id string) error
	Ping(ctx context.Context) error
}
