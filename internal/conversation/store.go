package conversation

import "context"

// Store persists conversation records. Every lookup matches both the
// conversation id and the owning user id.
type Store interface {
	Create(ctx context.Context, conv Conversation) (Conversation, error)
	Get(ctx context.Context, userID, conversationID string) (Conversation, error)
	List(ctx context.Context, userID string) ([]Conversation, error)
	// Save replaces the name and turn sequence of an existing record.
	Save(ctx context.Context, conv Conversation) (Conversation, error)
	Rename(ctx context.Context, userID, conversationID, name string) (Conversation, error)
	// Delete removes the record and returns it as it was before deletion.
	Delete(ctx context.Context, userID, conversationID string) (Conversation, error)
	Ping(ctx context.Context) error
}
