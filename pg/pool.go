package pg

import (
	"context"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a pgx pool sized by cfg. Connections are established lazily.
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.dsn())
	if err != nil {
		return nil, errx.Wrap(err)
	}

	poolCfg.MaxConns, poolCfg.MinConns = cfg.PoolMaxConns, cfg.PoolMinConns
	poolCfg.MaxConnLifetime, poolCfg.MaxConnIdleTime = cfg.PoolMaxConnLifetime, cfg.PoolMaxConnIdleTime
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	return pool, errx.Wrap(err)
}
