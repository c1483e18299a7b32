package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/memory"
)

// Coordinator mutates the conversation record and runs memory write-back.
type Coordinator struct {
	store     conversation.Store
	augmenter *memory.Augmenter
	now       func() time.Time
	logger    *slog.Logger

	writes sync.WaitGroup
}

// NewCoordinator creates a persistence coordinator.
func NewCoordinator(log *slog.Logger, store conversation.Store, augmenter *memory.Augmenter) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		store:     store,
		augmenter: augmenter,
		now:       time.Now,
		logger:    log.With(slog.String("service", "persistence")),
	}
}

// CommitUserTurn places the user turn on the record. An edit truncates the
// sequence to editIndex+1 and replaces the turn at editIndex, dropping any
// reply that followed it. The placeholder title is replaced once.
func (c *Coordinator) CommitUserTurn(conv *conversation.Conversation, turn conversation.Turn, isEdit bool, editIndex int) error {
	if isEdit {
		if err := checkEditIndex(*conv, editIndex); err != nil {
			return err
		}
		conv.Messages = conv.Messages[:editIndex+1]
		conv.Messages[editIndex] = turn
	} else {
		conv.Messages = append(conv.Messages, turn)
	}
	if conv.HasDefaultTitle() {
		if title := conversation.DeriveTitle(promptOf(turn)); title != "" {
			conv.Name = title
		}
	}
	return nil
}

// CommitAssistantTurn appends the reply and stores the whole record.
func (c *Coordinator) CommitAssistantTurn(ctx context.Context, conv *conversation.Conversation, turn conversation.Turn) error {
	conv.Messages = append(conv.Messages, turn)
	conv.UpdatedAt = c.now().UTC()
	saved, err := c.store.Save(ctx, *conv)
	if err != nil {
		c.logger.Error("save conversation failed",
			slog.String("conversation_id", conv.ID),
			slog.Int("turns", len(conv.Messages)),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	*conv = saved
	return nil
}

// WriteMemory sends the exchange to the memory service in the background.
// It never reports failure to the caller.
func (c *Coordinator) WriteMemory(ctx context.Context, userID, prompt, reply string) {
	if !c.augmenter.Enabled() {
		return
	}
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		c.augmenter.Remember(context.WithoutCancel(ctx), userID, prompt, reply)
	}()
}

// Wait blocks until pending memory writes finish.
func (c *Coordinator) Wait() {
	c.writes.Wait()
}

func checkEditIndex(conv conversation.Conversation, editIndex int) error {
	if editIndex < 0 || editIndex >= len(conv.Messages) {
		return fmt.Errorf("%w: edit index %d out of range for %d messages", conversation.ErrInvalidSubmission, editIndex, len(conv.Messages))
	}
	if conv.Messages[editIndex].Role != conversation.RoleUser {
		return fmt.Errorf("%w: edit index %d is not a user message", conversation.ErrInvalidSubmission, editIndex)
	}
	return nil
}

// promptOf strips the file chips from a stored user turn.
func promptOf(turn conversation.Turn) string {
	if turn.Content == conversation.PlaceholderEmptyWithFiles {
		return ""
	}
	if i := strings.Index(turn.Content, "\n\n[File: "); i >= 0 {
		return turn.Content[:i]
	}
	return turn.Content
}
