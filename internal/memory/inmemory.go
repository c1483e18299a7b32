package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
)

// InMemoryService keeps memories in process and ranks them by term overlap.
// It backs local development and tests.
type InMemoryService struct {
	mu    sync.RWMutex
	items map[string][]Item
	now   func() time.Time
}

func NewInMemoryService() *InMemoryService {
	return &InMemoryService{items: make(map[string][]Item), now: time.Now}
}

func (s *InMemoryService) Add(_ context.Context, userID string, messages []Message) ([]Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrMemoryService)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	added := make([]Item, 0, len(messages))
	for _, msg := range messages {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		id := pointID(userID, text)
		item := payloadToItem(id, buildPayload(userID, msg, now))
		s.upsertLocked(userID, item)
		added = append(added, item)
	}
	return added, nil
}

func (s *InMemoryService) upsertLocked(userID string, item Item) {
	list := s.items[userID]
	for i := range list {
		if list[i].ID == item.ID {
			list[i] = item
			return
		}
	}
	s.items[userID] = append(list, item)
}

func (s *InMemoryService) Search(_ context.Context, userID, query string, limit int) ([]Item, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Item
	for _, item := range s.items[userID] {
		score := overlap(terms, tokenize(item.Memory))
		if score <= 0 {
			continue
		}
		item.Score = score
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryService) GetAll(_ context.Context, userID string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.items[userID]))
	copy(out, s.items[userID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (s *InMemoryService) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.items[userID]
	for i := range list {
		if list[i].ID == id {
			s.items[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrMemoryNotFound
}

func (s *InMemoryService) Ping(context.Context) error {
	return nil
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			out[f] = struct{}{}
		}
	}
	return out
}

// overlap is the fraction of query terms present in the document.
func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for t := range query {
		if _, ok := doc[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
