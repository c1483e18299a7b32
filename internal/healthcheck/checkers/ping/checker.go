// Package pingchecker reports collaborator reachability through Ping.
package pingchecker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/healthcheck"
)

const defaultCheckTimeout = 5 * time.Second

// Check types.
const (
	TypeStore   = "collaborator.store"
	TypeMemory  = "collaborator.memory"
	TypeStorage = "collaborator.storage"
	TypeCache   = "collaborator.cache"
)

// Pinger is any collaborator that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker probes one collaborator.
type Checker struct {
	logger    *slog.Logger
	name      string
	checkType string
	pinger    Pinger
	timeout   time.Duration
	now       func() time.Time
}

// NewChecker creates a checker for the named collaborator. A nil pinger
// reports the collaborator as not configured.
func NewChecker(log *slog.Logger, name, checkType string, pinger Pinger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		logger:    log.With(slog.String("checker", "healthcheck_ping")),
		name:      strings.TrimSpace(name),
		checkType: checkType,
		pinger:    pinger,
		timeout:   defaultCheckTimeout,
		now:       time.Now,
	}
}

// ListChecks pings the collaborator once within the check timeout.
func (c *Checker) ListChecks(ctx context.Context) []healthcheck.CheckResult {
	if ctx == nil {
		ctx = context.Background()
	}
	item := healthcheck.CheckResult{
		ID:   c.checkType + "." + c.name,
		Type: c.checkType,
	}
	if c.pinger == nil {
		item.Status = healthcheck.StatusWarn
		item.Summary = fmt.Sprintf("%s is not configured.", c.name)
		return []healthcheck.CheckResult{item}
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := c.now()
	err := c.pinger.Ping(probeCtx)
	item.LatencyMS = c.now().Sub(started).Milliseconds()
	if err != nil {
		c.logger.Warn("collaborator ping failed",
			slog.String("name", c.name),
			slog.Any("error", err),
		)
		item.Status = healthcheck.StatusError
		item.Summary = fmt.Sprintf("%s is not reachable.", c.name)
		item.Detail = err.Error()
		return []healthcheck.CheckResult{item}
	}
	item.Status = healthcheck.StatusOK
	item.Summary = fmt.Sprintf("%s is healthy.", c.name)
	return []healthcheck.CheckResult{item}
}
