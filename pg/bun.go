// Package pg provides PostgreSQL connectivity for the thumbnail store.
//
// It builds a pgx connection pool, wraps it in a bun.DB with logging and
// OpenTelemetry query hooks, extracts PostgreSQL error details and runs units
// of work inside transactions.
package pg

import (
	"context"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/pg/hooks"
)

// NewBunDB creates a new Bun database connection with the provided configuration.
func NewBunDB(ctx context.Context, cfg Config, log logger.Logger) (*bun.DB, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	sqldb := stdlib.OpenDBFromPool(pool)

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	applyHooks(bunDB, cfg, log)

	return bunDB, nil
}

// applyHooks adds the query hooks:
//   - failed and slow queries are always logged through log
//   - every query is printed by bundebug when cfg.Debug is set
//   - every query gets an OpenTelemetry span
func applyHooks(db *bun.DB, cfg Config, log logger.Logger) {
	db.AddQueryHook(
		hooks.NewQueryLogHook(
			log,
			hooks.WithSlowQueryThreshold(cfg.SlowQueryThreshold),
		),
	)

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(cfg.Database)))
}
