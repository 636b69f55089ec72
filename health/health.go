// Package health probes the database, cache and object store.
package health

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"golang.org/x/sync/errgroup"

	"github.com/rise-and-shine/thumbnails/apperr"
	"github.com/rise-and-shine/thumbnails/cache"
	"github.com/rise-and-shine/thumbnails/filestore"
	"github.com/rise-and-shine/thumbnails/logger"
	"github.com/rise-and-shine/thumbnails/result"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	// probeKey is looked up in the object store. It does not need to exist.
	probeKey = "health-check"

	CodeNotReady = "NOT_READY"
)

// Pinger is a database handle that can be pinged. *bun.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services holds the status of each dependency.
type Services struct {
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Storage  string `json:"storage"`
}

// Report is the outcome of one check.
type Report struct {
	Status    string   `json:"status"`
	Timestamp string   `json:"timestamp"`
	Services  Services `json:"services"`
}

// Healthy reports whether every dependency answered.
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Checker probes the dependencies concurrently.
type Checker struct {
	db    Pinger
	cache cache.Cache
	store filestore.FileStore
	log   logger.Logger
}

// NewChecker creates a checker over already initialized handles.
func NewChecker(db Pinger, c cache.Cache, store filestore.FileStore, log logger.Logger) *Checker {
	return &Checker{db: db, cache: c, store: store, log: log.Named("health")}
}

// Check runs all probes concurrently. The report is healthy iff every probe succeeds.
func (c *Checker) Check(ctx context.Context) Report {
	var svc Services

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svc.Database = statusOf(result.Do(gctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.db.PingContext(ctx)
		}, func(err error) error {
			return apperr.Database("Failed to ping database", err, nil)
		}))
		return nil
	})
	g.Go(func() error {
		svc.Cache = statusOf(c.cache.Ping(gctx))
		return nil
	})
	g.Go(func() error {
		svc.Storage = statusOf(c.store.Exists(gctx, probeKey))
		return nil
	})
	_ = g.Wait()

	report := Report{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Services:  svc,
	}
	for _, s := range []string{svc.Database, svc.Cache, svc.Storage} {
		if s != StatusHealthy {
			report.Status = StatusDegraded
		}
	}
	return report
}

// Dependency names one probed service.
type Dependency string

const (
	Database Dependency = "database"
	Cache    Dependency = "cache"
	Storage  Dependency = "storage"
)

// Ready reports whether every dependency in deps answered.
func (r Report) Ready(deps ...Dependency) bool {
	for _, d := range deps {
		if r.Services.of(d) != StatusHealthy {
			return false
		}
	}
	return true
}

func (s Services) of(d Dependency) string {
	switch d {
	case Database:
		return s.Database
	case Cache:
		return s.Cache
	case Storage:
		return s.Storage
	}
	return StatusUnhealthy
}

// WaitReady repeats Check until every dependency in deps is healthy or
// attempts run out. The others may stay unhealthy.
func (c *Checker) WaitReady(ctx context.Context, attempts uint, delay time.Duration, deps ...Dependency) error {
	return retry.Do(
		func() error {
			report := c.Check(ctx)
			if report.Ready(deps...) {
				return nil
			}
			return errx.New(
				"dependencies are not ready",
				errx.WithCode(CodeNotReady),
				errx.WithDetails(errx.D{
					"database": report.Services.Database,
					"cache":    report.Services.Cache,
					"storage":  report.Services.Storage,
				}),
			)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.With("attempt", n+1).Warnx(err)
		}),
	)
}

func statusOf(res interface{ IsErr() bool }) string {
	if res.IsErr() {
		return StatusUnhealthy
	}
	return StatusHealthy
}
