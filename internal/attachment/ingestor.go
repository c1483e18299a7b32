// Package attachment extracts plain text from document attachments.
package attachment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/conversation"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/media"
	"github.com/Avashneupane9857/ChatGpt-Clone/internal/observability"
)

// DefaultTimeout bounds one extraction.
const DefaultTimeout = 30 * time.Second

// Ingestor extracts and memoizes attachment text.
type Ingestor struct {
	extractors map[Kind]extractFunc
	cache      Cache
	metrics    *observability.Metrics
	timeout    time.Duration
	maxBytes   int64
	logger     *slog.Logger
}

// NewIngestor creates an ingestor. A nil cache disables cross-request caching.
func NewIngestor(log *slog.Logger, cache Cache, metrics *observability.Metrics, timeout time.Duration, maxBytes int64) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ingestor{
		extractors: defaultExtractors(),
		cache:      cache,
		metrics:    metrics,
		timeout:    timeout,
		maxBytes:   maxBytes,
		logger:     log.With(slog.String("service", "attachment_ingestor")),
	}
}

// Ingest returns the attachment's extracted text, computing it at most once.
// Images and already-persisted documents without payload yield "". Extraction
// failures are memoized as an inline error block so the turn can continue.
func (i *Ingestor) Ingest(ctx context.Context, att *conversation.Attachment) string {
	if att == nil || !i.needsExtraction(att) {
		return ""
	}
	text, _ := att.ExtractOnce(func() (string, error) {
		out, err := i.extract(ctx, att)
		if err != nil {
			i.logger.Warn("attachment extraction failed",
				slog.String("name", att.Name),
				slog.String("type", att.Type),
				slog.Any("error", err),
			)
			return InlineError(att.Name, err), nil
		}
		return out, nil
	})
	return text
}

// Extract returns the attachment's extracted text or the extraction error.
// A failure leaves the attachment's memo unset.
func (i *Ingestor) Extract(ctx context.Context, att *conversation.Attachment) (string, error) {
	if att == nil {
		return "", ErrInvalidAttachment
	}
	return att.ExtractOnce(func() (string, error) {
		return i.extract(ctx, att)
	})
}

func (i *Ingestor) needsExtraction(att *conversation.Attachment) bool {
	if att.IsImage() {
		return false
	}
	if strings.TrimSpace(att.Content) == "" {
		if url, _ := att.Remote(); url != "" {
			return false
		}
	}
	return true
}

func (i *Ingestor) extract(ctx context.Context, att *conversation.Attachment) (string, error) {
	if err := validate(att); err != nil {
		i.metrics.ObserveAttachment("invalid", "error")
		return "", err
	}
	kind, err := Classify(att.Type)
	if err != nil {
		i.metrics.ObserveAttachment("unsupported", "error")
		return "", err
	}

	key := CacheKey(att.Name, att.Type, att.Content)
	if block, ok := i.cacheGet(ctx, key); ok {
		i.metrics.ObserveAttachment(string(kind), "cached")
		return block, nil
	}

	data, err := i.payload(kind, att.Content)
	if err != nil {
		i.metrics.ObserveAttachment(string(kind), "error")
		return "", err
	}

	start := time.Now()
	raw, err := i.runWithTimeout(ctx, kind, att.Name, data)
	if err != nil {
		i.metrics.ObserveAttachment(string(kind), "error")
		return "", err
	}
	i.metrics.ObserveAttachment(string(kind), "ok")
	i.logger.Debug("attachment extracted",
		slog.String("name", att.Name),
		slog.String("kind", string(kind)),
		slog.Int("chars", len(raw)),
		slog.Duration("took", time.Since(start)),
	)
	block := newResult(kind, raw).Format(att.Name)
	i.cacheSet(ctx, key, block)
	return block, nil
}

// runWithTimeout runs the extractor off the caller's goroutine so a stuck
// parser cannot hold the request past the timeout.
func (i *Ingestor) runWithTimeout(parent context.Context, kind Kind, name string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(parent, i.timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%s extractor panic: %v", kind, r)}
			}
		}()
		text, err := i.extractors[kind](name, data)
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.err
	case <-ctx.Done():
		if err := parent.Err(); err != nil {
			return "", fmt.Errorf("%s extraction: %w", kind, err)
		}
		return "", fmt.Errorf("%w after %s", ErrExtractionTimeout, i.timeout)
	}
}

func (i *Ingestor) payload(kind Kind, content string) ([]byte, error) {
	data, err := media.DecodePayload(content, i.maxBytes)
	if err == nil {
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: decoded payload is empty", ErrInvalidAttachment)
		}
		return data, nil
	}
	if kind != KindText && kind != KindHTML {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	raw := media.StripDataURL(content)
	if i.maxBytes > 0 && int64(len(raw)) > i.maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", media.ErrAssetTooLarge, i.maxBytes)
	}
	return []byte(raw), nil
}

func (i *Ingestor) cacheGet(ctx context.Context, key string) (string, bool) {
	if i.cache == nil {
		return "", false
	}
	text, ok, err := i.cache.Get(ctx, key)
	if err != nil {
		i.logger.Warn("extraction cache read failed", slog.Any("error", err))
		return "", false
	}
	i.metrics.ObserveCache(ok)
	return text, ok
}

func (i *Ingestor) cacheSet(ctx context.Context, key, text string) {
	if i.cache == nil {
		return
	}
	if err := i.cache.Set(ctx, key, text); err != nil {
		i.logger.Warn("extraction cache write failed", slog.Any("error", err))
	}
}

func validate(att *conversation.Attachment) error {
	switch {
	case strings.TrimSpace(att.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidAttachment)
	case strings.TrimSpace(att.Type) == "":
		return fmt.Errorf("%w: type is required", ErrInvalidAttachment)
	case strings.TrimSpace(att.Content) == "":
		return fmt.Errorf("%w: content is empty", ErrInvalidAttachment)
	}
	return nil
}
