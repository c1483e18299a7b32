// Package store holds the conversation record backends.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/config"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// New opens the configured backend. The returned cleanup releases its
// connections.
func New(ctx context.Context, log *slog.Logger, cfg config.Config) (conversation.Store, func(), error) {
	if log == nil {
		log = slog.Default()
	}
	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	switch backend {
	case BackendMongo:
		s, err := NewMongoStore(ctx, log, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close(context.Background()) }, nil
	case BackendPostgres:
		if err := Migrate(log, cfg.Postgres.DSN(), DirectionUp); err != nil {
			return nil, nil, err
		}
		s, err := NewPostgresStore(ctx, log, cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendMemory:
		log.Warn("using in-memory conversation store; records are lost on restart")
		return NewInMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newConversationRecord fills the id and timestamps of a record being created.
func newConversationRecord(conv conversation.Conversation, now time.Time) conversation.Conversation {
	if strings.TrimSpace(conv.ID) == "" {
		conv.ID = uuid.NewString()
	}
	if strings.TrimSpace(conv.Name) == "" {
		conv.Name = conversation.DefaultTitle
	}
	if conv.Messages == nil {
		conv.Messages = []conversation.Turn{}
	}
	now = now.UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	return conv
}
