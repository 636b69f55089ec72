// Package hooks provides bun query hooks.
package hooks

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/rise-and-shine/thumbnails/logger"
)

var _ bun.QueryHook = (*QueryLogHook)(nil)

// QueryLogHook logs failed and slow queries.
// sql.ErrNoRows and sql.ErrTxDone are not treated as failures.
type QueryLogHook struct {
	log                logger.Logger
	slowQueryThreshold time.Duration
}

// QueryLogHookOption configures a QueryLogHook.
type QueryLogHookOption func(*QueryLogHook)

// NewQueryLogHook creates a hook writing to log. The default slow query threshold is 200ms.
func NewQueryLogHook(log logger.Logger, opts ...QueryLogHookOption) *QueryLogHook {
	hook := &QueryLogHook{
		log:                log.Named("bun"),
		slowQueryThreshold: 200 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(hook)
	}

	return hook
}

// WithSlowQueryThreshold sets the duration threshold for logging slow queries at warn level.
// Set to 0 to disable slow query detection.
func WithSlowQueryThreshold(threshold time.Duration) QueryLogHookOption {
	return func(h *QueryLogHook) {
		h.slowQueryThreshold = threshold
	}
}

func (h *QueryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	failed := event.Err != nil &&
		!errors.Is(event.Err, sql.ErrNoRows) &&
		!errors.Is(event.Err, sql.ErrTxDone)
	slow := h.slowQueryThreshold > 0 && duration >= h.slowQueryThreshold

	if !failed && !slow {
		return
	}

	entry := h.log.WithContext(ctx).With(
		"query", strings.ReplaceAll(event.Query, `"`, ""),
		"duration", duration.Round(time.Microsecond),
	)

	if failed {
		entry.With("error", event.Err.Error()).Error("query failed: " + event.Operation())
		return
	}
	entry.Warn("slow query: " + event.Operation())
}
