package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
)

// InMemoryStore keeps conversation records in process. Records are copied
// on the way in and out so callers never share turn slices with the store.
type InMemoryStore struct {
	mu    sync.RWMutex
	convs map[string]conversation.Conversation
	now   func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{convs: make(map[string]conversation.Conversation), now: time.Now}
}

func (s *InMemoryStore) Create(_ context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	conv = newConversationRecord(conv, s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID] = clone(conv)
	return clone(conv), nil
}

func (s *InMemoryStore) Get(_ context.Context, userID, conversationID string) (conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.owned(userID, conversationID)
	if !ok {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	return clone(conv), nil
}

func (s *InMemoryStore) List(_ context.Context, userID string) ([]conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]conversation.Conversation, 0)
	for _, conv := range s.convs {
		if conv.UserID == userID {
			out = append(out, clone(conv))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *InMemoryStore) Save(_ context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.owned(conv.UserID, conv.ID)
	if !ok {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	existing.Name = conv.Name
	existing.Messages = conv.Messages
	existing.UpdatedAt = conv.UpdatedAt
	if existing.UpdatedAt.IsZero() {
		existing.UpdatedAt = s.now().UTC()
	}
	s.convs[conv.ID] = clone(existing)
	return clone(existing), nil
}

func (s *InMemoryStore) Rename(_ context.Context, userID, conversationID, name string) (conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.owned(userID, conversationID)
	if !ok {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	conv.Name = name
	conv.UpdatedAt = s.now().UTC()
	s.convs[conversationID] = conv
	return clone(conv), nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID, conversationID string) (conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.owned(userID, conversationID)
	if !ok {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	delete(s.convs, conversationID)
	return conv, nil
}

func (s *InMemoryStore) Ping(context.Context) error {
	return nil
}

func (s *InMemoryStore) owned(userID, conversationID string) (conversation.Conversation, bool) {
	conv, ok := s.convs[conversationID]
	if !ok || conv.UserID != userID {
		return conversation.Conversation{}, false
	}
	return conv, true
}

func clone(conv conversation.Conversation) conversation.Conversation {
	turns := make([]conversation.Turn, len(conv.Messages))
	for i, t := range conv.Messages {
		t.Files = append([]conversation.FileRef(nil), t.Files...)
		turns[i] = t
	}
	conv.Messages = turns
	return conv
}
