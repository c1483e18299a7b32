package memory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/observability"
)

const (
	preambleHeader = "Based on our previous conversations, here's what I remember about you:\n"
	preambleFooter = "\n\nNow, regarding your current question:\n"
)

// Augmenter folds memories relevant to a prompt into a preamble and writes
// completed exchanges back. Both directions are best-effort.
type Augmenter struct {
	service Service
	limit   int
	timeout time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewAugmenter creates an augmenter. A nil service disables memory.
func NewAugmenter(log *slog.Logger, service Service, metrics *observability.Metrics, limit int, timeout time.Duration) *Augmenter {
	if log == nil {
		log = slog.Default()
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Augmenter{
		service: service,
		limit:   limit,
		timeout: timeout,
		metrics: metrics,
		logger:  log.With(slog.String("service", "memory_augmenter")),
	}
}

// Augment returns the memory preamble for query, or "" when memory is
// disabled, empty, or failing.
func (a *Augmenter) Augment(ctx context.Context, query, userID string) string {
	if a == nil || a.service == nil || strings.TrimSpace(query) == "" || strings.TrimSpace(userID) == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	items, err := a.service.Search(ctx, userID, query, a.limit)
	a.metrics.ObserveMemory("search", err)
	if err != nil {
		a.logger.Warn("memory search failed", slog.String("user_id", userID), slog.Any("error", err))
		return ""
	}
	return Preamble(items)
}

// Preamble renders snippets into the fixed memory template.
func Preamble(items []Item) string {
	snippets := make([]string, 0, len(items))
	for _, item := range items {
		if text := strings.TrimSpace(item.Memory); text != "" {
			snippets = append(snippets, text)
		}
	}
	if len(snippets) == 0 {
		return ""
	}
	return preambleHeader + strings.Join(snippets, "\n") + preambleFooter
}

// Remember writes a completed exchange to memory. Failures are logged only.
func (a *Augmenter) Remember(ctx context.Context, userID, prompt, reply string) {
	if a == nil || a.service == nil || strings.TrimSpace(userID) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.service.Add(ctx, userID, []Message{
		{Role: "user", Content: prompt},
		{Role: "assistant", Content: reply},
	})
	a.metrics.ObserveMemory("add", err)
	if err != nil {
		a.logger.Warn("memory write-back failed", slog.String("user_id", userID), slog.Any("error", err))
	}
}

// Enabled reports whether a memory backend is configured.
func (a *Augmenter) Enabled() bool {
	return a != nil && a.service != nil
}
