package memory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingService struct{}

func (failingService) Search(context.Context, string, string, int) ([]Item, error) {
	return nil, errors.New("memory backend down")
}

func (failingService) Add(context.Context, string, []Message) ([]Item, error) {
	return nil, errors.New("memory backend down")
}

func (failingService) GetAll(context.Context, string) ([]Item, error) { return nil, nil }

func (failingService) Delete(context.Context, string, string) error { return nil }

func (failingService) Ping(context.Context) error { return errors.New("memory backend down") }

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPreamble(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Preamble(nil))
	assert.Equal(t, "", Preamble([]Item{{Memory: "  "}}))
	got := Preamble([]Item{{Memory: "Likes Go"}, {Memory: "Lives in Kathmandu"}})
	want := "Based on our previous conversations, here's what I remember about you:\nLikes Go\nLives in Kathmandu\n\nNow, regarding your current question:\n"
	assert.Equal(t, want, got)
}

func TestAugment_UsesRankedSnippets(t *testing.T) {
	t.Parallel()

	svc := NewInMemoryService()
	_, err := svc.Add(context.Background(), "u1", []Message{
		{Role: "user", Content: "My favourite language is Go"},
		{Role: "assistant", Content: "Noted, you enjoy Go programming"},
		{Role: "user", Content: "I have a cat named Miso"},
	})
	require.NoError(t, err)

	a := NewAugmenter(silentLogger(), svc, nil, 5, time.Second)
	got := a.Augment(context.Background(), "what language do I like?", "u1")
	assert.Contains(t, got, "My favourite language is Go")
	assert.NotContains(t, got, "Miso")

	assert.Equal(t, "", a.Augment(context.Background(), "what language do I like?", "someone-else"))
}

func TestAugment_ServiceFailureYieldsEmpty(t *testing.T) {
	t.Parallel()

	a := NewAugmenter(silentLogger(), failingService{}, nil, 5, time.Second)
	assert.Equal(t, "", a.Augment(context.Background(), "hello there", "u1"))
	a.Remember(context.Background(), "u1", "hello", "hi")

	var disabled *Augmenter
	assert.Equal(t, "", disabled.Augment(context.Background(), "hello", "u1"))
	assert.False(t, disabled.Enabled())
}

func TestAugmenterRemember_WritesPair(t *testing.T) {
	t.Parallel()

	svc := NewInMemoryService()
	a := NewAugmenter(silentLogger(), svc, nil, 5, time.Second)
	a.Remember(context.Background(), "u1", "What is Go?", "A programming language.")

	items, err := svc.GetAll(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	roles := map[string]string{}
	for _, it := range items {
		roles[it.Role] = it.Memory
	}
	assert.Equal(t, "What is Go?", roles["user"])
	assert.Equal(t, "A programming language.", roles["assistant"])
}

func TestInMemoryService_DeleteIsOwnerScoped(t *testing.T) {
	t.Parallel()

	svc := NewInMemoryService()
	added, err := svc.Add(context.Background(), "owner", []Message{{Role: "user", Content: "secret plan"}})
	require.NoError(t, err)
	require.Len(t, added, 1)

	assert.ErrorIs(t, svc.Delete(context.Background(), "intruder", added[0].ID), ErrMemoryNotFound)
	require.NoError(t, svc.Delete(context.Background(), "owner", added[0].ID))
	items, _ := svc.GetAll(context.Background(), "owner")
	assert.Empty(t, items)
}

func TestInMemoryService_AddIsIdempotentPerText(t *testing.T) {
	t.Parallel()

	svc := NewInMemoryService()
	for i := 0; i < 3; i++ {
		_, err := svc.Add(context.Background(), "u1", []Message{{Role: "user", Content: "same fact"}})
		require.NoError(t, err)
	}
	items, _ := svc.GetAll(context.Background(), "u1")
	assert.Len(t, items, 1)
}
