package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/attachment"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/memory"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/models"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/providers"
)

const testUserID = "user-1"

var silentLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// --- fakes ---

type fakeStore struct {
	mu      sync.Mutex
	convs   map[string]conversation.Conversation
	saveErr error
	saves   int

	// When set, Save closes saveCalled and waits for saveContinue.
	saveCalled   chan struct{}
	saveContinue chan struct{}
}

func newFakeStore(convs ...conversation.Conversation) *fakeStore {
	s := &fakeStore{convs: make(map[string]conversation.Conversation)}
	for _, c := range convs {
		s.convs[c.ID] = cloneConversation(c)
	}
	return s
}

func cloneConversation(c conversation.Conversation) conversation.Conversation {
	c.Messages = append([]conversation.Turn(nil), c.Messages...)
	return c
}

func (s *fakeStore) Create(_ context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[conv.ID] = cloneConversation(conv)
	return conv, nil
}

func (s *fakeStore) Get(_ context.Context, userID, id string) (conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok || c.UserID != userID {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	return cloneConversation(c), nil
}

func (s *fakeStore) List(_ context.Context, userID string) ([]conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []conversation.Conversation
	for _, c := range s.convs {
		if c.UserID == userID {
			out = append(out, cloneConversation(c))
		}
	}
	return out, nil
}

func (s *fakeStore) Save(_ context.Context, conv conversation.Conversation) (conversation.Conversation, error) {
	if s.saveCalled != nil {
		select {
		case <-s.saveCalled:
		default:
			close(s.saveCalled)
		}
		<-s.saveContinue
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return conversation.Conversation{}, s.saveErr
	}
	s.saves++
	s.convs[conv.ID] = cloneConversation(conv)
	return conv, nil
}

func (s *fakeStore) Rename(_ context.Context, userID, id, name string) (conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok || c.UserID != userID {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	c.Name = name
	s.convs[id] = c
	return c, nil
}

func (s *fakeStore) Delete(_ context.Context, userID, id string) (conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok || c.UserID != userID {
		return conversation.Conversation{}, conversation.ErrConversationNotFound
	}
	delete(s.convs, id)
	return c, nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) get(t *testing.T, id string) conversation.Conversation {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	require.True(t, ok, "conversation %s not stored", id)
	return c
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeProvider struct {
	reply   string
	deltas  []string
	err     error
	recvErr error

	mu       sync.Mutex
	requests []providers.Request
}

func (p *fakeProvider) record(req providers.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
}

func (p *fakeProvider) lastRequest(t *testing.T) providers.Request {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.requests, "provider was not called")
	return p.requests[len(p.requests)-1]
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *fakeProvider) Complete(_ context.Context, req providers.Request) (string, error) {
	p.record(req)
	if p.err != nil {
		return "", fmt.Errorf("%w: %v", providers.ErrModelProvider, p.err)
	}
	return p.reply, nil
}

func (p *fakeProvider) Stream(ctx context.Context, req providers.Request) (providers.Stream, error) {
	p.record(req)
	if p.err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrModelProvider, p.err)
	}
	return &fakeStream{ctx: ctx, deltas: p.deltas, err: p.recvErr}, nil
}

type fakeStream struct {
	ctx    context.Context
	deltas []string
	err    error
	closed bool
}

func (s *fakeStream) Recv() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if len(s.deltas) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	d := s.deltas[0]
	s.deltas = s.deltas[1:]
	return d, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Put(_ context.Context, key string, reader io.Reader, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) AccessPath(key string) string {
	return "https://cdn.test/" + key
}

func (m *memStorage) Ping(context.Context) error { return nil }

type failingMemory struct{}

func (failingMemory) Add(context.Context, string, []memory.Message) ([]memory.Item, error) {
	return nil, memory.ErrMemoryService
}

func (failingMemory) Search(context.Context, string, string, int) ([]memory.Item, error) {
	return nil, memory.ErrMemoryService
}

func (failingMemory) GetAll(context.Context, string) ([]memory.Item, error) {
	return nil, memory.ErrMemoryService
}

func (failingMemory) Delete(context.Context, string, string) error {
	return memory.ErrMemoryService
}

func (failingMemory) Ping(context.Context) error {
	return memory.ErrMemoryService
}

// --- fixtures ---

type testPipeline struct {
	resolver    *Resolver
	coordinator *Coordinator
	store       *fakeStore
	provider    *fakeProvider
	storage     *memStorage
}

func newTestPipeline(t *testing.T, store *fakeStore, provider *fakeProvider, memSvc memory.Service) testPipeline {
	t.Helper()
	catalog, err := models.NewCatalog("gpt-4o", "gpt-4o", 1000)
	require.NoError(t, err)
	storage := newMemStorage()
	augmenter := memory.NewAugmenter(silentLogger, memSvc, nil, 5, time.Second)
	coordinator := NewCoordinator(silentLogger, store, augmenter)
	resolver := NewResolver(
		silentLogger,
		store,
		attachment.NewIngestor(silentLogger, nil, nil, time.Second, 0),
		media.NewUploader(silentLogger, storage, "chat-files", 0),
		augmenter,
		catalog,
		NewInvoker(silentLogger, provider, nil),
		coordinator,
		nil,
		Options{PersistOnDisconnect: true},
	)
	t.Cleanup(coordinator.Wait)
	return testPipeline{resolver: resolver, coordinator: coordinator, store: store, provider: provider, storage: storage}
}

func newConversation(id string, turns ...conversation.Turn) conversation.Conversation {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return conversation.Conversation{
		ID:        id,
		UserID:    testUserID,
		Name:      conversation.DefaultTitle,
		Messages:  turns,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func userTurn(content string) conversation.Turn {
	return conversation.Turn{Role: conversation.RoleUser, Content: content, Timestamp: 1}
}

func assistantTurnOf(content string) conversation.Turn {
	return conversation.Turn{Role: conversation.RoleAssistant, Content: content, Timestamp: 2}
}

func lastMessage(t *testing.T, req providers.Request) conversation.Message {
	t.Helper()
	require.NotEmpty(t, req.Messages)
	return req.Messages[len(req.Messages)-1]
}

// --- Chat ---

func TestChat_ReturnsStoredAssistantTurn(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{reply: "Hi there!"}, nil)

	reply, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1",
		Prompt:         "Hello",
		UserID:         testUserID,
	})
	require.NoError(t, err)
	assert.Equal(t, conversation.RoleAssistant, reply.Message.Role)
	assert.Equal(t, "Hi there!", reply.Message.Content)
	assert.Nil(t, reply.UpdatedChat)

	stored := store.get(t, "c1")
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "Hello", stored.Messages[0].Content)
	assert.Equal(t, "Hi there!", stored.Messages[1].Content)
	assert.Equal(t, "Hello", stored.Name)

	req := p.provider.lastRequest(t)
	assert.Equal(t, models.VariantText, req.Variant.Name)
	assert.Equal(t, 0, req.Variant.MaxTokens)
	msg := lastMessage(t, req)
	assert.False(t, msg.IsMultipart())
	assert.Equal(t, "Hello", msg.Content)
}

func TestChat_EmptyReplyStoredAsPlaceholder(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{reply: ""}, nil)

	reply, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1", Prompt: "Hello", UserID: testUserID,
	})
	require.NoError(t, err)
	assert.Equal(t, conversation.PlaceholderEmptyResponse, reply.Message.Content)
	assert.Equal(t, conversation.PlaceholderEmptyResponse, store.get(t, "c1").Messages[1].Content)
}

func TestChat_EditTruncatesAndReplaces(t *testing.T) {
	t.Parallel()
	conv := newConversation("c1",
		userTurn("first"),
		assistantTurnOf("answer one"),
		userTurn("second"),
		assistantTurnOf("answer two"),
		userTurn("third"),
	)
	conv.Name = "first"
	store := newFakeStore(conv)
	p := newTestPipeline(t, store, &fakeProvider{reply: "new answer"}, nil)

	reply, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1",
		Prompt:         "second, edited",
		IsEdit:         true,
		EditIndex:      2,
		UserID:         testUserID,
	})
	require.NoError(t, err)

	stored := store.get(t, "c1")
	require.Len(t, stored.Messages, 4)
	assert.Equal(t, "first", stored.Messages[0].Content)
	assert.Equal(t, "answer one", stored.Messages[1].Content)
	assert.Equal(t, "second, edited", stored.Messages[2].Content)
	assert.Equal(t, "new answer", stored.Messages[3].Content)
	assert.Equal(t, "first", stored.Name)

	require.NotNil(t, reply.UpdatedChat)
	assert.Len(t, reply.UpdatedChat.Messages, 4)

	req := p.provider.lastRequest(t)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "second, edited", req.Messages[2].Content)
}

func TestChat_RejectsInvalidEditIndex(t *testing.T) {
	t.Parallel()
	conv := newConversation("c1", userTurn("first"), assistantTurnOf("answer"))
	store := newFakeStore(conv)
	p := newTestPipeline(t, store, &fakeProvider{reply: "x"}, nil)

	for _, idx := range []int{1, 2, 9} {
		_, err := p.resolver.Chat(context.Background(), conversation.Submission{
			ConversationID: "c1", Prompt: "edit", IsEdit: true, EditIndex: idx, UserID: testUserID,
		})
		require.Error(t, err, "edit index %d", idx)
		assert.ErrorIs(t, err, conversation.ErrInvalidSubmission)
	}
	assert.Equal(t, 0, store.saveCount())
	assert.Equal(t, 0, p.provider.calls())
}

func TestChat_RejectsEmptyPromptWithoutAttachments(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{reply: "x"}, nil)

	_, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1", Prompt: "   ", UserID: testUserID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, conversation.ErrInvalidSubmission)
	assert.ErrorIs(t, err, conversation.ErrEmptyPrompt)
}

func TestChat_UnknownConversation(t *testing.T) {
	t.Parallel()
	other := newConversation("c1")
	other.UserID = "someone-else"
	p := newTestPipeline(t, newFakeStore(other), &fakeProvider{reply: "x"}, nil)

	_, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1", Prompt: "hi", UserID: testUserID,
	})
	assert.ErrorIs(t, err, conversation.ErrConversationNotFound)
}

func TestChat_MemoryFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{reply: "fine"}, failingMemory{})

	reply, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1", Prompt: "remember my name", UserID: testUserID,
	})
	require.NoError(t, err)
	assert.Equal(t, "fine", reply.Message.Content)
	assert.Equal(t, "remember my name", lastMessage(t, p.provider.lastRequest(t)).Content)
}

func TestChat_PrependsMemoryPreambleAndWritesBack(t *testing.T) {
	t.Parallel()
	svc := memory.NewInMemoryService()
	_, err := svc.Add(context.Background(), testUserID, []memory.Message{
		{Role: "user", Content: "I write golang services for a living"},
	})
	require.NoError(t, err)

	store := newFakeStore(newConversation("c1",
		userTurn("golang earlier question"),
		assistantTurnOf("earlier answer"),
	))
	p := newTestPipeline(t, store, &fakeProvider{reply: "Use contexts."}, svc)

	_, err = p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1", Prompt: "golang tips please", UserID: testUserID,
	})
	require.NoError(t, err)

	req := p.provider.lastRequest(t)
	require.Len(t, req.Messages, 3)
	assert.Equal(t, "golang earlier question", req.Messages[0].Content)
	last := lastMessage(t, req)
	assert.True(t, strings.HasPrefix(last.Content, "Based on our previous conversations, here's what I remember about you:\n"))
	assert.Contains(t, last.Content, "I write golang services for a living")
	assert.True(t, strings.HasSuffix(last.Content, "Now, regarding your current question:\ngolang tips please"))

	stored := store.get(t, "c1")
	assert.Equal(t, "golang tips please", stored.Messages[2].Content)

	p.coordinator.Wait()
	items, err := svc.GetAll(context.Background(), testUserID)
	require.NoError(t, err)
	var texts []string
	for _, it := range items {
		texts = append(texts, it.Memory)
	}
	assert.Contains(t, texts, "golang tips please")
	assert.Contains(t, texts, "Use contexts.")
}

func TestChat_UploadFailureAbortsBeforeModelAndStore(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{reply: "x"}, nil)
	p.storage.putErr = errors.New("bucket unavailable")

	_, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1",
		Prompt:         "see file",
		UserID:         testUserID,
		Attachments: []*conversation.Attachment{
			{Name: "notes.txt", Type: "text/plain", Size: 5, Content: "aGVsbG8="},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, media.ErrAttachmentUploadFailed)
	var uploadErr *media.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "notes.txt", uploadErr.Name)
	assert.Equal(t, 0, p.provider.calls())
	assert.Equal(t, 0, store.saveCount())
}

func TestChat_ImageOnlySubmissionRoutesToVision(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{reply: "A red square."}, nil)

	_, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1",
		Prompt:         "",
		UserID:         testUserID,
		Attachments: []*conversation.Attachment{
			{Name: "square.png", Type: "image/png", Size: 4, Content: "data:image/png;base64,iVBORw=="},
		},
	})
	require.NoError(t, err)

	req := p.provider.lastRequest(t)
	assert.Equal(t, models.VariantVision, req.Variant.Name)
	assert.Equal(t, 1000, req.Variant.MaxTokens)
	msg := lastMessage(t, req)
	require.Len(t, msg.Segments, 1)
	assert.Equal(t, conversation.SegmentImage, msg.Segments[0].Type)
	assert.True(t, strings.HasPrefix(msg.Segments[0].ImageURL, "https://cdn.test/chat-files/"))

	stored := store.get(t, "c1")
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, conversation.PlaceholderEmptyWithFiles, stored.Messages[0].Content)
	require.Len(t, stored.Messages[0].Files, 1)
	assert.Equal(t, msg.Segments[0].ImageURL, stored.Messages[0].Files[0].RemoteURL)
	assert.NotEmpty(t, stored.Messages[0].Files[0].RemoteDeletionHandle)
	assert.Equal(t, conversation.DefaultTitle, stored.Name)
}

func TestChat_FailedAttachmentDegradesToInlineError(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{reply: "Summary."}, nil)

	_, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1",
		Prompt:         "summarize these",
		UserID:         testUserID,
		Attachments: []*conversation.Attachment{
			{Name: "archive.zip", Type: "application/zip", Size: 3, Content: "UEsD"},
			{Name: "notes.txt", Type: "text/plain", Size: 11, Content: "aGVsbG8gd29ybGQ="},
		},
	})
	require.NoError(t, err)

	msg := lastMessage(t, p.provider.lastRequest(t))
	require.Len(t, msg.Segments, 1)
	text := msg.Segments[0].Text
	assert.True(t, strings.HasPrefix(text, "summarize these"))
	assert.Contains(t, text, "[archive.zip Content]\n[Error processing file archive.zip:")
	assert.Contains(t, text, "[notes.txt Content]\n")
	assert.Contains(t, text, "hello world")

	stored := store.get(t, "c1")
	assert.Equal(t, "summarize these\n\n[File: archive.zip], [File: notes.txt]", stored.Messages[0].Content)
	assert.Len(t, stored.Messages[0].Files, 2)
}

func TestChat_MalformedAttachmentDoesNotFailTurn(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{reply: "Read both."}, nil)

	reply, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1",
		Prompt:         "read these",
		UserID:         testUserID,
		Attachments: []*conversation.Attachment{
			{Name: "a.txt", Type: "text/plain", Size: 5, Content: "aGVsbG8="},
			{Name: "b.bin", Size: 5, Content: "aGVsbG8="},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Read both.", reply.Message.Content)

	msg := lastMessage(t, p.provider.lastRequest(t))
	require.Len(t, msg.Segments, 1)
	text := msg.Segments[0].Text
	assert.Contains(t, text, "[a.txt Content]\n")
	assert.Contains(t, text, "hello")
	assert.Contains(t, text, "[b.bin Content]\n[Error processing file b.bin: invalid attachment: type is required]")

	stored := store.get(t, "c1")
	require.Len(t, stored.Messages, 2)
	assert.Len(t, stored.Messages[0].Files, 2)
}

func TestChat_ModelErrorPersistsNothing(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	p := newTestPipeline(t, store, &fakeProvider{err: errors.New("rate limited")}, nil)

	_, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1", Prompt: "Hello", UserID: testUserID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrModelProvider)
	assert.Equal(t, 0, store.saveCount())
	assert.Empty(t, store.get(t, "c1").Messages)
}

func TestChat_PersistenceErrorIsDistinct(t *testing.T) {
	t.Parallel()
	store := newFakeStore(newConversation("c1"))
	store.saveErr = errors.New("write conflict")
	p := newTestPipeline(t, store, &fakeProvider{reply: "ok"}, nil)

	_, err := p.resolver.Chat(context.Background(), conversation.Submission{
		ConversationID: "c1", Prompt: "Hello", UserID: testUserID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, providers.ErrModelProvider)
}

func TestValidateSubmission(t *testing.T) {
	t.Parallel()
	img := &conversation.Attachment{Name: "a.png", Type: "image/png", Content: "x"}
	cases := []struct {
		name    string
		sub     conversation.Submission
		wantErr bool
	}{
		{name: "prompt only", sub: conversation.Submission{ConversationID: "c", UserID: "u", Prompt: "hi"}},
		{name: "attachments only", sub: conversation.Submission{ConversationID: "c", UserID: "u", Attachments: []*conversation.Attachment{img}}},
		{name: "missing chat", sub: conversation.Submission{UserID: "u", Prompt: "hi"}, wantErr: true},
		{name: "missing user", sub: conversation.Submission{ConversationID: "c", Prompt: "hi"}, wantErr: true},
		{name: "blank prompt", sub: conversation.Submission{ConversationID: "c", UserID: "u", Prompt: " \n"}, wantErr: true},
		{name: "negative edit", sub: conversation.Submission{ConversationID: "c", UserID: "u", Prompt: "hi", IsEdit: true, EditIndex: -1}, wantErr: true},
		{name: "attachment without type", sub: conversation.Submission{ConversationID: "c", UserID: "u", Prompt: "hi", Attachments: []*conversation.Attachment{{Name: "b.bin", Content: "x"}}}},
		{name: "nil attachment", sub: conversation.Submission{ConversationID: "c", UserID: "u", Prompt: "hi", Attachments: []*conversation.Attachment{nil}}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSubmission(tc.sub)
			if tc.wantErr {
				assert.ErrorIs(t, err, conversation.ErrInvalidSubmission)
				return
			}
			assert.NoError(t, err)
		})
	}
}
