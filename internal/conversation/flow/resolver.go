// Package flow runs one chat submission end to end: attachment ingestion and
// upload, memory augmentation, assembly, model invocation and persistence.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/attachment"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/memory"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/models"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/observability"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/providers"
)

// Submission modes recorded in metrics.
const (
	modeBlocking = "blocking"
	modeStream   = "stream"
)

// Resolver runs the submission pipeline. It holds no per-request state.
type Resolver struct {
	store               conversation.Store
	ingestor            *attachment.Ingestor
	uploader            *media.Uploader
	augmenter           *memory.Augmenter
	catalog             models.Catalog
	invoker             *Invoker
	coordinator         *Coordinator
	metrics             *observability.Metrics
	persistOnDisconnect bool
	now                 func() time.Time
	logger              *slog.Logger
}

// Options tune the pipeline.
type Options struct {
	// PersistOnDisconnect keeps generating and storing the reply after the
	// client goes away.
	PersistOnDisconnect bool
}

// NewResolver creates a Resolver with the given collaborators.
func NewResolver(
	log *slog.Logger,
	store conversation.Store,
	ingestor *attachment.Ingestor,
	uploader *media.Uploader,
	augmenter *memory.Augmenter,
	catalog models.Catalog,
	invoker *Invoker,
	coordinator *Coordinator,
	metrics *observability.Metrics,
	opts Options,
) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		store:               store,
		ingestor:            ingestor,
		uploader:            uploader,
		augmenter:           augmenter,
		catalog:             catalog,
		invoker:             invoker,
		coordinator:         coordinator,
		metrics:             metrics,
		persistOnDisconnect: opts.PersistOnDisconnect,
		now:                 time.Now,
		logger:              log.With(slog.String("service", "conversation_resolver")),
	}
}

// --- resolve ---

type resolvedContext struct {
	conv     conversation.Conversation
	userTurn conversation.Turn
	assembly Assembly
}

// resolve prepares everything up to the model call. Uploads, extraction and
// memory search run concurrently; an upload failure aborts the submission
// before anything is stored.
func (r *Resolver) resolve(ctx context.Context, sub conversation.Submission) (resolvedContext, error) {
	if err := ValidateSubmission(sub); err != nil {
		return resolvedContext{}, err
	}
	conv, err := r.store.Get(ctx, sub.UserID, sub.ConversationID)
	if err != nil {
		return resolvedContext{}, err
	}
	if sub.IsEdit {
		if err := checkEditIndex(conv, sub.EditIndex); err != nil {
			return resolvedContext{}, err
		}
	}

	preamble := ""
	g, gctx := errgroup.WithContext(ctx)
	for _, att := range sub.Attachments {
		g.Go(func() error {
			_, _, err := r.uploader.Upload(gctx, att)
			return err
		})
		g.Go(func() error {
			r.ingestor.Ingest(gctx, att)
			return nil
		})
	}
	g.Go(func() error {
		preamble = r.augmenter.Augment(gctx, sub.Prompt, sub.UserID)
		return nil
	})
	if err := g.Wait(); err != nil {
		r.logger.Error("attachment upload failed",
			slog.String("conversation_id", sub.ConversationID),
			slog.Any("error", err),
		)
		return resolvedContext{}, err
	}

	turn := conversation.Turn{
		Role:      conversation.RoleUser,
		Content:   conversation.DisplayContent(sub.Prompt, sub.Attachments),
		Timestamp: r.now().UnixMilli(),
		Files:     fileRefs(sub.Attachments),
	}
	if err := r.coordinator.CommitUserTurn(&conv, turn, sub.IsEdit, sub.EditIndex); err != nil {
		return resolvedContext{}, err
	}

	history := conv.Messages[:len(conv.Messages)-1]
	messages := append(NormalizeHistory(history), Normalize(conversation.RoleUser, sub.Prompt, sub.Attachments))
	return resolvedContext{
		conv:     conv,
		userTurn: turn,
		assembly: Assemble(messages, preamble, r.catalog, hasImageAttachment(sub.Attachments)),
	}, nil
}

// --- Chat ---

// Chat runs a blocking submission and returns the stored assistant turn.
func (r *Resolver) Chat(ctx context.Context, sub conversation.Submission) (conversation.Reply, error) {
	ctx = r.workContext(ctx)
	reply, err := r.chat(ctx, sub)
	r.metrics.ObserveSubmission(modeBlocking, outcomeOf(err))
	return reply, err
}

func (r *Resolver) chat(ctx context.Context, sub conversation.Submission) (conversation.Reply, error) {
	rc, err := r.resolve(ctx, sub)
	if err != nil {
		return conversation.Reply{}, err
	}
	text, err := r.invoker.Complete(ctx, rc.assembly)
	if err != nil {
		return conversation.Reply{}, err
	}
	assistant := r.assistantTurn(text)
	if err := r.coordinator.CommitAssistantTurn(ctx, &rc.conv, assistant); err != nil {
		return conversation.Reply{}, err
	}
	r.coordinator.WriteMemory(ctx, sub.UserID, memoryPrompt(sub, rc.userTurn), assistant.Content)
	return r.reply(sub, rc.conv, assistant), nil
}

// --- StreamChat ---

// StreamChat runs a streaming submission. Delta frames and the terminal done
// frame arrive on the first channel; the done frame is sent only after the
// conversation is stored. A failure is reported on the error channel as a
// *StreamError carrying any partial text.
func (r *Resolver) StreamChat(ctx context.Context, sub conversation.Submission) (<-chan conversation.Frame, <-chan error) {
	frameCh := make(chan conversation.Frame)
	errCh := make(chan error, 1)
	r.logger.Info("conversation stream start",
		slog.String("conversation_id", sub.ConversationID),
		slog.Bool("edit", sub.IsEdit),
		slog.Int("attachments", len(sub.Attachments)),
	)

	go func() {
		defer close(frameCh)
		defer close(errCh)

		// Frames to a departed client are dropped instead of blocking the pipeline.
		send := func(f conversation.Frame) {
			select {
			case frameCh <- f:
			case <-ctx.Done():
			}
		}
		err := r.streamChat(r.workContext(ctx), sub, send)
		r.metrics.ObserveSubmission(modeStream, outcomeOf(err))
		if err != nil {
			r.logger.Error("conversation stream failed",
				slog.String("conversation_id", sub.ConversationID),
				slog.Any("error", err),
			)
			errCh <- err
		}
	}()
	return frameCh, errCh
}

func (r *Resolver) streamChat(ctx context.Context, sub conversation.Submission, send func(conversation.Frame)) error {
	rc, err := r.resolve(ctx, sub)
	if err != nil {
		return &StreamError{Err: err}
	}
	full, err := r.invoker.Stream(ctx, rc.assembly, send)
	if err != nil {
		return &StreamError{Err: err, FullContent: full}
	}
	assistant := r.assistantTurn(full)
	if err := r.coordinator.CommitAssistantTurn(ctx, &rc.conv, assistant); err != nil {
		return &StreamError{Err: err, FullContent: full}
	}
	r.coordinator.WriteMemory(ctx, sub.UserID, memoryPrompt(sub, rc.userTurn), assistant.Content)

	reply := r.reply(sub, rc.conv, assistant)
	send(conversation.Frame{
		FullContent: full,
		Done:        true,
		Message:     &reply.Message,
		UpdatedChat: reply.UpdatedChat,
	})
	return nil
}

// --- helpers ---

// ValidateSubmission checks the submission shape. The prompt may be empty
// only when attachments are present.
func ValidateSubmission(sub conversation.Submission) error {
	if strings.TrimSpace(sub.ConversationID) == "" {
		return fmt.Errorf("%w: chat id is required", conversation.ErrInvalidSubmission)
	}
	if strings.TrimSpace(sub.UserID) == "" {
		return fmt.Errorf("%w: user id is required", conversation.ErrInvalidSubmission)
	}
	if strings.TrimSpace(sub.Prompt) == "" && len(sub.Attachments) == 0 {
		return fmt.Errorf("%w: %w", conversation.ErrInvalidSubmission, conversation.ErrEmptyPrompt)
	}
	if sub.IsEdit && sub.EditIndex < 0 {
		return fmt.Errorf("%w: edit index must be non-negative", conversation.ErrInvalidSubmission)
	}
	for _, att := range sub.Attachments {
		if att == nil {
			return fmt.Errorf("%w: attachment is required", conversation.ErrInvalidSubmission)
		}
	}
	return nil
}

func (r *Resolver) workContext(ctx context.Context) context.Context {
	if r.persistOnDisconnect {
		return context.WithoutCancel(ctx)
	}
	return ctx
}

func (r *Resolver) assistantTurn(text string) conversation.Turn {
	return conversation.Turn{
		Role:      conversation.RoleAssistant,
		Content:   ReplyContent(text),
		Timestamp: r.now().UnixMilli(),
	}
}

func (r *Resolver) reply(sub conversation.Submission, conv conversation.Conversation, assistant conversation.Turn) conversation.Reply {
	out := conversation.Reply{Message: assistant}
	if sub.IsEdit {
		out.UpdatedChat = &conv
	}
	return out
}

func fileRefs(attachments []*conversation.Attachment) []conversation.FileRef {
	if len(attachments) == 0 {
		return nil
	}
	refs := make([]conversation.FileRef, 0, len(attachments))
	for _, att := range attachments {
		refs = append(refs, att.FileRef())
	}
	return refs
}

// memoryPrompt is the user side of the exchange written to memory.
func memoryPrompt(sub conversation.Submission, turn conversation.Turn) string {
	if strings.TrimSpace(sub.Prompt) != "" {
		return sub.Prompt
	}
	return turn.Content
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, conversation.ErrInvalidSubmission):
		return "invalid"
	case errors.Is(err, conversation.ErrConversationNotFound):
		return "not_found"
	case errors.Is(err, media.ErrAttachmentUploadFailed):
		return "upload_failed"
	case errors.Is(err, providers.ErrModelProvider):
		return "model_error"
	case errors.Is(err, ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}
