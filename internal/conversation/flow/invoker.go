package flow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/observability"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/providers"
)

// StreamState is the lifecycle of one streamed completion.
type StreamState int

const (
	StreamIdle StreamState = iota
	StreamOpened
	StreamEmitting
	StreamCompleted
	StreamFailed
	StreamClosed
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamOpened:
		return "opened"
	case StreamEmitting:
		return "emitting"
	case StreamCompleted:
		return "completed"
	case StreamFailed:
		return "failed"
	case StreamClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Invoker calls the model provider for an assembled conversation.
type Invoker struct {
	provider providers.Provider
	metrics  *observability.Metrics
	now      func() time.Time
	logger   *slog.Logger
}

// NewInvoker creates a model invoker.
func NewInvoker(log *slog.Logger, provider providers.Provider, metrics *observability.Metrics) *Invoker {
	if log == nil {
		log = slog.Default()
	}
	return &Invoker{
		provider: provider,
		metrics:  metrics,
		now:      time.Now,
		logger:   log.With(slog.String("service", "model_invoker")),
	}
}

// Complete returns the whole reply. An empty reply becomes the
// empty-response placeholder.
func (iv *Invoker) Complete(ctx context.Context, asm Assembly) (string, error) {
	start := iv.now()
	text, err := iv.provider.Complete(ctx, providers.Request{Messages: asm.Messages, Variant: asm.Variant})
	iv.metrics.ObserveModelLatency(asm.Variant.Name, iv.now().Sub(start))
	if err != nil {
		iv.logger.Error("model completion failed",
			slog.String("variant", asm.Variant.Name),
			slog.String("model", asm.Variant.ModelID),
			slog.Any("error", err),
		)
		return "", asModelError(err)
	}
	return ReplyContent(text), nil
}

// Stream emits one frame per delta and returns the accumulated text. On a
// mid-stream failure the text received so far is returned with the error.
// The terminal frame is left to the caller so it can persist first.
func (iv *Invoker) Stream(ctx context.Context, asm Assembly, emit func(conversation.Frame)) (string, error) {
	run := &streamRun{logger: iv.logger, variant: asm.Variant.Name}
	defer run.transition(StreamClosed)

	start := iv.now()
	stream, err := iv.provider.Stream(ctx, providers.Request{Messages: asm.Messages, Variant: asm.Variant})
	if err != nil {
		run.transition(StreamFailed)
		iv.logger.Error("model stream open failed",
			slog.String("variant", asm.Variant.Name),
			slog.Any("error", err),
		)
		return "", asModelError(err)
	}
	defer stream.Close()
	run.transition(StreamOpened)

	var full strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			run.transition(StreamFailed)
			iv.metrics.ObserveModelLatency(asm.Variant.Name, iv.now().Sub(start))
			iv.logger.Error("model stream failed",
				slog.String("variant", asm.Variant.Name),
				slog.Int("received_chars", full.Len()),
				slog.Any("error", err),
			)
			return full.String(), asModelError(err)
		}
		if delta == "" {
			continue
		}
		if run.state != StreamEmitting {
			iv.metrics.ObserveFirstToken(iv.now().Sub(start))
			run.transition(StreamEmitting)
		}
		full.WriteString(delta)
		emit(conversation.Frame{Content: delta, FullContent: full.String()})
	}
	run.transition(StreamCompleted)
	iv.metrics.ObserveModelLatency(asm.Variant.Name, iv.now().Sub(start))
	return full.String(), nil
}

// ReplyContent maps an empty reply to the stored placeholder.
func ReplyContent(text string) string {
	if strings.TrimSpace(text) == "" {
		return conversation.PlaceholderEmptyResponse
	}
	return text
}

func asModelError(err error) error {
	if errors.Is(err, providers.ErrModelProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", providers.ErrModelProvider, err)
}

type streamRun struct {
	state   StreamState
	variant string
	logger  *slog.Logger
}

func (r *streamRun) transition(next StreamState) {
	if r.state == StreamClosed {
		return
	}
	r.logger.Debug("model stream state",
		slog.String("variant", r.variant),
		slog.String("from", r.state.String()),
		slog.String("to", next.String()),
	)
	r.state = next
}
